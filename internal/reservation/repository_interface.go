package reservation

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*Reservation, error)
	FindActive(ctx context.Context, classID, studentID uuid.UUID) (*Reservation, error)
	CountActive(ctx context.Context, classID uuid.UUID) (int, error)
	// CreateWithinCapacity inserts a RESERVED row while holding the class row
	// lock, so the duplicate and capacity checks cannot interleave.
	CreateWithinCapacity(ctx context.Context, classID, studentID uuid.UUID) (*Reservation, error)
	// UpdateStatus moves an active reservation to a terminal status.
	UpdateStatus(ctx context.Context, id, classID uuid.UUID, to Status) (*Reservation, error)
	ListByStudent(ctx context.Context, studentID, gymID uuid.UUID) ([]WithClass, error)
	ListByClass(ctx context.Context, classID uuid.UUID) ([]RosterEntry, error)
}
