package discipline

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	Create(ctx context.Context, d *Discipline) (*Discipline, error)
	GetByID(ctx context.Context, id uuid.UUID) (*Discipline, error)
	List(ctx context.Context, gymID uuid.UUID, name string) ([]Discipline, error)
	Update(ctx context.Context, d *Discipline) (*Discipline, error)
	SoftDelete(ctx context.Context, id uuid.UUID) error
	HasClasses(ctx context.Context, id uuid.UUID) (bool, error)
}
