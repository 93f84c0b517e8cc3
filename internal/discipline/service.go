package discipline

import (
	"context"
	"errors"

	"github.com/gfourspa/fit-clase-api/internal/apperr"
	"github.com/gfourspa/fit-clase-api/internal/auth"
	"github.com/gfourspa/fit-clase-api/internal/db"

	"github.com/google/uuid"
)

var (
	ErrDisciplineNotFound = apperr.NotFound("discipline not found")
	ErrDuplicateName      = apperr.Conflict("a discipline with this name already exists in the gym")
	ErrDisciplineInUse    = apperr.Conflict("discipline is used by classes")
	ErrGymRequired        = apperr.BadRequest("gym_id is required")
	ErrGymNotFound        = apperr.NotFound("gym not found")
)

type Service interface {
	CreateDiscipline(ctx context.Context, p *auth.Principal, req CreateDisciplineRequest) (*Discipline, error)
	ListDisciplines(ctx context.Context, p *auth.Principal, q ListQuery) ([]Discipline, error)
	GetDiscipline(ctx context.Context, p *auth.Principal, id uuid.UUID) (*Discipline, error)
	UpdateDiscipline(ctx context.Context, p *auth.Principal, id uuid.UUID, req UpdateDisciplineRequest) (*Discipline, error)
	DeleteDiscipline(ctx context.Context, p *auth.Principal, id uuid.UUID) error
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

func (s *service) CreateDiscipline(ctx context.Context, p *auth.Principal, req CreateDisciplineRequest) (*Discipline, error) {
	gymID, err := s.targetGym(p, req.GymID)
	if err != nil {
		return nil, err
	}
	if err := s.policy.ManageGym(ctx, p, gymID); err != nil {
		return nil, err
	}

	d, err := s.repo.Create(ctx, &Discipline{
		Name:        req.Name,
		Description: req.Description,
		GymID:       gymID,
	})
	if err != nil {
		return nil, mapWriteError(err)
	}
	return d, nil
}

func (s *service) ListDisciplines(ctx context.Context, p *auth.Principal, q ListQuery) ([]Discipline, error) {
	gymID, err := s.targetGym(p, q.Gym())
	if err != nil {
		return nil, err
	}
	if err := s.policy.ReadGym(ctx, p, gymID); err != nil {
		return nil, err
	}

	disciplines, err := s.repo.List(ctx, gymID, q.Name)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return disciplines, nil
}

func (s *service) GetDiscipline(ctx context.Context, p *auth.Principal, id uuid.UUID) (*Discipline, error) {
	d, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.policy.ReadGym(ctx, p, d.GymID); err != nil {
		return nil, err
	}
	return d, nil
}

func (s *service) UpdateDiscipline(ctx context.Context, p *auth.Principal, id uuid.UUID, req UpdateDisciplineRequest) (*Discipline, error) {
	d, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.policy.ManageGym(ctx, p, d.GymID); err != nil {
		return nil, err
	}

	if req.Name != nil {
		d.Name = *req.Name
	}
	if req.Description != nil {
		d.Description = *req.Description
	}

	updated, err := s.repo.Update(ctx, d)
	if err != nil {
		return nil, mapWriteError(err)
	}
	return updated, nil
}

func (s *service) DeleteDiscipline(ctx context.Context, p *auth.Principal, id uuid.UUID) error {
	d, err := s.get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.policy.ManageGym(ctx, p, d.GymID); err != nil {
		return err
	}

	inUse, err := s.repo.HasClasses(ctx, id)
	if err != nil {
		return apperr.Internal(err)
	}
	if inUse {
		return ErrDisciplineInUse
	}

	if err := s.repo.SoftDelete(ctx, id); err != nil {
		return mapWriteError(err)
	}
	return nil
}

// targetGym picks the explicit gym or falls back to the caller's own.
func (s *service) targetGym(p *auth.Principal, explicit *uuid.UUID) (uuid.UUID, error) {
	if explicit != nil {
		return *explicit, nil
	}
	if p.GymID != nil {
		return *p.GymID, nil
	}
	if p.IsSuperAdmin() {
		return uuid.Nil, ErrGymRequired
	}
	return uuid.Nil, auth.ErrNoTenant
}

func (s *service) get(ctx context.Context, id uuid.UUID) (*Discipline, error) {
	d, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrDisciplineNotFound
		}
		return nil, apperr.Internal(err)
	}
	return d, nil
}

func mapWriteError(err error) error {
	switch {
	case errors.Is(err, ErrNotFound):
		return ErrDisciplineNotFound
	case db.IsUniqueViolation(err):
		return ErrDuplicateName
	case db.IsForeignKeyViolation(err):
		return ErrGymNotFound
	}
	return apperr.Internal(err)
}
