package user

import (
	"context"

	"github.com/gfourspa/fit-clase-api/internal/auth"

	"github.com/google/uuid"
)

type Repository interface {
	Create(ctx context.Context, u *User) (*User, error)
	FindByID(ctx context.Context, id uuid.UUID) (*User, error)
	FindByEmail(ctx context.Context, email string) (*User, error)
	FindByExternalID(ctx context.Context, externalID string) (*User, error)
	LinkExternal(ctx context.Context, id uuid.UUID, externalID, name string) (*User, error)
	UpdateRole(ctx context.Context, id uuid.UUID, role auth.Role, gymID *uuid.UUID) (*User, error)
	AssignGym(ctx context.Context, id, gymID uuid.UUID) error
	ListByGym(ctx context.Context, gymID uuid.UUID, role auth.Role) ([]User, error)
	SoftDelete(ctx context.Context, id uuid.UUID) error
}
