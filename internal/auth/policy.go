package auth

import (
	"context"

	"github.com/gfourspa/fit-clase-api/internal/apperr"

	"github.com/google/uuid"
)

// OwnershipStrategy decides which gyms a GYM_ADMIN administers.
type OwnershipStrategy string

const (
	// OwnershipByMembership uses the admin's own gym assignment.
	OwnershipByMembership OwnershipStrategy = "membership"
	// OwnershipByOwner uses gyms.owner_id, looked up on every check.
	OwnershipByOwner OwnershipStrategy = "owner"
)

var (
	ErrNoTenant        = apperr.BadRequest("no tenant assigned")
	ErrGymManageDenied = apperr.Unauthorized("not allowed to manage this gym")
	ErrGymReadDenied   = apperr.Unauthorized("not allowed to access this gym")
)

type GymOwnership interface {
	IsOwner(ctx context.Context, gymID, userID uuid.UUID) (bool, error)
	OwnedGymIDs(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error)
}

type Policy struct {
	strategy OwnershipStrategy
	owners   GymOwnership
}

func NewPolicy(strategy OwnershipStrategy, owners GymOwnership) *Policy {
	return &Policy{strategy: strategy, owners: owners}
}

// Scope is the set of gyms a principal can see.
type Scope struct {
	All    bool
	GymIDs []uuid.UUID
}

func (s Scope) Contains(gymID uuid.UUID) bool {
	if s.All {
		return true
	}
	for _, id := range s.GymIDs {
		if id == gymID {
			return true
		}
	}
	return false
}

func (p *Policy) RequireTenant(pr *Principal) error {
	if pr.IsSuperAdmin() || pr.GymID != nil {
		return nil
	}
	return ErrNoTenant
}

func (p *Policy) ManageGym(ctx context.Context, pr *Principal, gymID uuid.UUID) error {
	if pr.IsSuperAdmin() {
		return nil
	}
	if err := p.RequireTenant(pr); err != nil {
		return err
	}
	if pr.Role != RoleGymAdmin {
		return ErrGymManageDenied
	}

	ok, err := p.administers(ctx, pr, gymID)
	if err != nil {
		return err
	}
	if !ok {
		return ErrGymManageDenied
	}
	return nil
}

func (p *Policy) ReadGym(ctx context.Context, pr *Principal, gymID uuid.UUID) error {
	if pr.IsSuperAdmin() {
		return nil
	}
	if err := p.RequireTenant(pr); err != nil {
		return err
	}

	if pr.Role == RoleGymAdmin {
		ok, err := p.administers(ctx, pr, gymID)
		if err != nil {
			return err
		}
		if ok {
			return nil
		}
		return ErrGymReadDenied
	}

	if !pr.InGym(gymID) {
		return ErrGymReadDenied
	}
	return nil
}

func (p *Policy) Scope(ctx context.Context, pr *Principal) (Scope, error) {
	if pr.IsSuperAdmin() {
		return Scope{All: true}, nil
	}
	if err := p.RequireTenant(pr); err != nil {
		return Scope{}, err
	}

	if pr.Role == RoleGymAdmin && p.strategy == OwnershipByOwner {
		ids, err := p.owners.OwnedGymIDs(ctx, pr.ID)
		if err != nil {
			return Scope{}, apperr.Internal(err)
		}
		return Scope{GymIDs: ids}, nil
	}

	return Scope{GymIDs: []uuid.UUID{*pr.GymID}}, nil
}

func (p *Policy) administers(ctx context.Context, pr *Principal, gymID uuid.UUID) (bool, error) {
	if p.strategy == OwnershipByOwner {
		ok, err := p.owners.IsOwner(ctx, gymID, pr.ID)
		if err != nil {
			return false, apperr.Internal(err)
		}
		return ok, nil
	}
	return pr.InGym(gymID), nil
}
