package gym

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	Create(ctx context.Context, g *Gym) (*Gym, error)
	GetByID(ctx context.Context, id uuid.UUID) (*Gym, error)
	List(ctx context.Context) ([]Gym, error)
	ListByIDs(ctx context.Context, ids []uuid.UUID) ([]Gym, error)
	Update(ctx context.Context, g *Gym) (*Gym, error)
	Delete(ctx context.Context, id uuid.UUID) error
	HasClasses(ctx context.Context, id uuid.UUID) (bool, error)
	IsOwner(ctx context.Context, gymID, userID uuid.UUID) (bool, error)
	OwnedGymIDs(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error)
}
