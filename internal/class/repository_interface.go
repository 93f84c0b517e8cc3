package class

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	Create(ctx context.Context, c *Class) (*Class, error)
	GetByID(ctx context.Context, id uuid.UUID) (*Class, error)
	List(ctx context.Context, f Filter) ([]Class, error)
	Count(ctx context.Context, f Filter) (int, error)
	ListByTeacher(ctx context.Context, teacherID uuid.UUID, f Filter) ([]Class, error)
	// Update locks the class row, hands the current state (with its active
	// reservation count) to apply and persists the result.
	Update(ctx context.Context, id uuid.UUID, apply func(c *Class) error) (*Class, error)
	Delete(ctx context.Context, id uuid.UUID) error
	HasReservations(ctx context.Context, id uuid.UUID) (bool, error)
}
