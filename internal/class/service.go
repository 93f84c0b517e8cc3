package class

import (
	"context"
	"errors"
	"time"

	"github.com/gfourspa/fit-clase-api/internal/apperr"
	"github.com/gfourspa/fit-clase-api/internal/auth"
	"github.com/gfourspa/fit-clase-api/internal/db"
	"github.com/gfourspa/fit-clase-api/internal/discipline"
	"github.com/gfourspa/fit-clase-api/internal/gym"
	"github.com/gfourspa/fit-clase-api/internal/user"

	"github.com/google/uuid"
)

var (
	ErrClassNotFound      = apperr.NotFound("class not found")
	ErrGymNotFound        = apperr.NotFound("gym not found")
	ErrDisciplineNotFound = apperr.NotFound("discipline not found")
	ErrInvalidTeacher     = apperr.BadRequest("teacher must be a TEACHER of this gym")
	ErrInvalidTimeRange   = apperr.BadRequest("start_time must be before end_time")
	ErrInvalidSchedule    = apperr.BadRequest("invalid date or time format")
	ErrInvalidCapacity    = apperr.BadRequest("capacity must be at least 1")
	ErrCapacityBelowTaken = apperr.BadRequest("capacity cannot be lower than active reservations")
	ErrGymRequired        = apperr.BadRequest("gym_id is required")
	ErrClassHasBookings   = apperr.Conflict("class has reservations")
	ErrTeacherScope       = apperr.Unauthorized("teachers can only list their own classes")
)

type GymLookup interface {
	GetByID(ctx context.Context, id uuid.UUID) (*gym.Gym, error)
}

type DisciplineLookup interface {
	GetByID(ctx context.Context, id uuid.UUID) (*discipline.Discipline, error)
}

type UserLookup interface {
	FindByID(ctx context.Context, id uuid.UUID) (*user.User, error)
}

type Service interface {
	CreateClass(ctx context.Context, p *auth.Principal, req CreateClassRequest) (*Class, error)
	ListClasses(ctx context.Context, p *auth.Principal, q ListQuery) (*ListResult, error)
	GetClass(ctx context.Context, p *auth.Principal, id uuid.UUID) (*Class, error)
	UpdateClass(ctx context.Context, p *auth.Principal, id uuid.UUID, req UpdateClassRequest) (*Class, error)
	DeleteClass(ctx context.Context, p *auth.Principal, id uuid.UUID) error
	ListClassesByTeacher(ctx context.Context, p *auth.Principal, teacherID uuid.UUID) ([]Class, error)
}

type service struct {
	repo        Repository
	gyms        GymLookup
	disciplines DisciplineLookup
	users       UserLookup
	policy      *auth.Policy
}

func NewService(repo Repository, gyms GymLookup, disciplines DisciplineLookup, users UserLookup, policy *auth.Policy) Service {
	return &service{
		repo:        repo,
		gyms:        gyms,
		disciplines: disciplines,
		users:       users,
		policy:      policy,
	}
}

func (s *service) CreateClass(ctx context.Context, p *auth.Principal, req CreateClassRequest) (*Class, error) {
	gymID, err := targetGym(p, req.GymID)
	if err != nil {
		return nil, err
	}

	if _, err := s.gyms.GetByID(ctx, gymID); err != nil {
		if errors.Is(err, gym.ErrNotFound) {
			return nil, ErrGymNotFound
		}
		return nil, apperr.Internal(err)
	}
	if err := s.policy.ManageGym(ctx, p, gymID); err != nil {
		return nil, err
	}
	if err := s.checkDiscipline(ctx, req.DisciplineID, gymID); err != nil {
		return nil, err
	}
	if err := s.checkTeacher(ctx, req.TeacherID, gymID); err != nil {
		return nil, err
	}

	c := &Class{
		GymID:        gymID,
		DisciplineID: req.DisciplineID,
		TeacherID:    req.TeacherID,
		Date:         req.Date,
		StartTime:    req.StartTime,
		EndTime:      req.EndTime,
		Capacity:     req.Capacity,
	}
	if err := validateSchedule(c); err != nil {
		return nil, err
	}

	created, err := s.repo.Create(ctx, c)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return created, nil
}

func (s *service) ListClasses(ctx context.Context, p *auth.Principal, q ListQuery) (*ListResult, error) {
	scope, err := s.policy.Scope(ctx, p)
	if err != nil {
		return nil, err
	}

	page, limit := q.Page, q.Limit
	if page < 1 {
		page = DefaultPage
	}
	if limit < 1 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}

	f := Filter{
		Date:    q.Date,
		AllGyms: scope.All,
		GymIDs:  scope.GymIDs,
		Limit:   limit,
		Offset:  (page - 1) * limit,
	}
	if q.GymID != "" {
		gymID, err := uuid.Parse(q.GymID)
		if err != nil {
			return nil, apperr.BadRequest("invalid gym_id")
		}
		if !scope.Contains(gymID) {
			return nil, auth.ErrGymReadDenied
		}
		f.AllGyms = false
		f.GymIDs = []uuid.UUID{gymID}
	}
	if q.DisciplineID != "" {
		disciplineID, err := uuid.Parse(q.DisciplineID)
		if err != nil {
			return nil, apperr.BadRequest("invalid discipline_id")
		}
		f.DisciplineID = &disciplineID
	}

	total, err := s.repo.Count(ctx, f)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	classes, err := s.repo.List(ctx, f)
	if err != nil {
		return nil, apperr.Internal(err)
	}

	return &ListResult{
		Classes: classes,
		Total:   total,
		Page:    page,
		Limit:   limit,
	}, nil
}

func (s *service) GetClass(ctx context.Context, p *auth.Principal, id uuid.UUID) (*Class, error) {
	c, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.policy.ReadGym(ctx, p, c.GymID); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *service) UpdateClass(ctx context.Context, p *auth.Principal, id uuid.UUID, req UpdateClassRequest) (*Class, error) {
	current, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.policy.ManageGym(ctx, p, current.GymID); err != nil {
		return nil, err
	}
	if req.DisciplineID != nil {
		if err := s.checkDiscipline(ctx, *req.DisciplineID, current.GymID); err != nil {
			return nil, err
		}
	}
	if req.TeacherID != nil {
		if err := s.checkTeacher(ctx, *req.TeacherID, current.GymID); err != nil {
			return nil, err
		}
	}

	updated, err := s.repo.Update(ctx, id, func(c *Class) error {
		if req.DisciplineID != nil {
			c.DisciplineID = *req.DisciplineID
		}
		if req.TeacherID != nil {
			c.TeacherID = *req.TeacherID
		}
		if req.Date != nil {
			c.Date = *req.Date
		}
		if req.StartTime != nil {
			c.StartTime = *req.StartTime
		}
		if req.EndTime != nil {
			c.EndTime = *req.EndTime
		}
		if req.Capacity != nil {
			c.Capacity = *req.Capacity
		}

		if err := validateSchedule(c); err != nil {
			return err
		}
		if c.Capacity < c.Reserved {
			return ErrCapacityBelowTaken
		}
		return nil
	})
	if err != nil {
		var appErr *apperr.Error
		switch {
		case errors.As(err, &appErr):
			return nil, err
		case errors.Is(err, ErrNotFound):
			return nil, ErrClassNotFound
		}
		return nil, apperr.Internal(err)
	}
	return updated, nil
}

func (s *service) DeleteClass(ctx context.Context, p *auth.Principal, id uuid.UUID) error {
	c, err := s.get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.policy.ManageGym(ctx, p, c.GymID); err != nil {
		return err
	}

	booked, err := s.repo.HasReservations(ctx, id)
	if err != nil {
		return apperr.Internal(err)
	}
	if booked {
		return ErrClassHasBookings
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			return ErrClassNotFound
		case db.IsForeignKeyViolation(err):
			return ErrClassHasBookings
		}
		return apperr.Internal(err)
	}
	return nil
}

func (s *service) ListClassesByTeacher(ctx context.Context, p *auth.Principal, teacherID uuid.UUID) ([]Class, error) {
	switch p.Role {
	case auth.RoleTeacher:
		if p.ID != teacherID {
			return nil, ErrTeacherScope
		}
	case auth.RoleStudent:
		return nil, ErrTeacherScope
	}

	scope, err := s.policy.Scope(ctx, p)
	if err != nil {
		return nil, err
	}

	classes, err := s.repo.ListByTeacher(ctx, teacherID, Filter{AllGyms: scope.All, GymIDs: scope.GymIDs})
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return classes, nil
}

func (s *service) get(ctx context.Context, id uuid.UUID) (*Class, error) {
	c, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrClassNotFound
		}
		return nil, apperr.Internal(err)
	}
	return c, nil
}

func (s *service) checkDiscipline(ctx context.Context, id, gymID uuid.UUID) error {
	d, err := s.disciplines.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, discipline.ErrNotFound) {
			return ErrDisciplineNotFound
		}
		return apperr.Internal(err)
	}
	if d.GymID != gymID {
		return ErrDisciplineNotFound
	}
	return nil
}

func (s *service) checkTeacher(ctx context.Context, id, gymID uuid.UUID) error {
	t, err := s.users.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return ErrInvalidTeacher
		}
		return apperr.Internal(err)
	}
	if t.Role != auth.RoleTeacher || t.GymID == nil || *t.GymID != gymID {
		return ErrInvalidTeacher
	}
	return nil
}

func targetGym(p *auth.Principal, explicit *uuid.UUID) (uuid.UUID, error) {
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

func validateSchedule(c *Class) error {
	if _, err := time.Parse(DateLayout, c.Date); err != nil {
		return ErrInvalidSchedule
	}
	start, err := time.Parse(ClockLayout, c.StartTime)
	if err != nil {
		return ErrInvalidSchedule
	}
	end, err := time.Parse(ClockLayout, c.EndTime)
	if err != nil {
		return ErrInvalidSchedule
	}
	if !start.Before(end) {
		return ErrInvalidTimeRange
	}
	if c.Capacity < 1 {
		return ErrInvalidCapacity
	}
	return nil
}
