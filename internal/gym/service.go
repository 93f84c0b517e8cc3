package gym

import (
	"context"
	"errors"

	"github.com/gfourspa/fit-clase-api/internal/apperr"
	"github.com/gfourspa/fit-clase-api/internal/auth"
	"github.com/gfourspa/fit-clase-api/internal/db"

	"github.com/google/uuid"
)

var (
	ErrGymNotFound       = apperr.NotFound("gym not found")
	ErrOwnerNotFound     = apperr.BadRequest("owner does not exist")
	ErrGymHasClasses     = apperr.Conflict("gym still has classes")
	ErrSuperAdminOnly    = apperr.Unauthorized("only a super admin can do this")
	ErrOwnerChangeDenied = apperr.Unauthorized("only a super admin can change the gym owner")
)

type Service interface {
	CreateGym(ctx context.Context, p *auth.Principal, req CreateGymRequest) (*Gym, error)
	ListGyms(ctx context.Context, p *auth.Principal) ([]Gym, error)
	GetGym(ctx context.Context, p *auth.Principal, id uuid.UUID) (*Gym, error)
	UpdateGym(ctx context.Context, p *auth.Principal, id uuid.UUID, req UpdateGymRequest) (*Gym, error)
	DeleteGym(ctx context.Context, p *auth.Principal, id uuid.UUID) error
}

type service struct {
	repo   Repository
	policy *auth.Policy
}

func NewService(repo Repository, policy *auth.Policy) Service {
	return &service{
		repo:   repo,
		policy: policy,
	}
}

func (s *service) CreateGym(ctx context.Context, p *auth.Principal, req CreateGymRequest) (*Gym, error) {
	if !p.IsSuperAdmin() {
		return nil, ErrSuperAdminOnly
	}

	g, err := s.repo.Create(ctx, &Gym{
		Name:    req.Name,
		Address: req.Address,
		Contact: req.Contact,
		OwnerID: req.OwnerID,
	})
	if err != nil {
		if db.IsForeignKeyViolation(err) {
			return nil, ErrOwnerNotFound
		}
		return nil, apperr.Internal(err)
	}
	return g, nil
}

func (s *service) ListGyms(ctx context.Context, p *auth.Principal) ([]Gym, error) {
	scope, err := s.policy.Scope(ctx, p)
	if err != nil {
		return nil, err
	}

	var gyms []Gym
	if scope.All {
		gyms, err = s.repo.List(ctx)
	} else {
		gyms, err = s.repo.ListByIDs(ctx, scope.GymIDs)
	}
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return gyms, nil
}

func (s *service) GetGym(ctx context.Context, p *auth.Principal, id uuid.UUID) (*Gym, error) {
	if err := s.policy.ReadGym(ctx, p, id); err != nil {
		return nil, err
	}
	return s.get(ctx, id)
}

func (s *service) UpdateGym(ctx context.Context, p *auth.Principal, id uuid.UUID, req UpdateGymRequest) (*Gym, error) {
	if err := s.policy.ManageGym(ctx, p, id); err != nil {
		return nil, err
	}
	if req.OwnerID != nil && !p.IsSuperAdmin() {
		return nil, ErrOwnerChangeDenied
	}

	g, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		g.Name = *req.Name
	}
	if req.Address != nil {
		g.Address = *req.Address
	}
	if req.Contact != nil {
		g.Contact = *req.Contact
	}
	if req.OwnerID != nil {
		g.OwnerID = req.OwnerID
	}

	updated, err := s.repo.Update(ctx, g)
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			return nil, ErrGymNotFound
		case db.IsForeignKeyViolation(err):
			return nil, ErrOwnerNotFound
		}
		return nil, apperr.Internal(err)
	}
	return updated, nil
}

func (s *service) DeleteGym(ctx context.Context, p *auth.Principal, id uuid.UUID) error {
	if !p.IsSuperAdmin() {
		return ErrSuperAdminOnly
	}

	hasClasses, err := s.repo.HasClasses(ctx, id)
	if err != nil {
		return apperr.Internal(err)
	}
	if hasClasses {
		return ErrGymHasClasses
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, ErrNotFound) {
			return ErrGymNotFound
		}
		return apperr.Internal(err)
	}
	return nil
}

func (s *service) get(ctx context.Context, id uuid.UUID) (*Gym, error) {
	g, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrGymNotFound
		}
		return nil, apperr.Internal(err)
	}
	return g, nil
}
