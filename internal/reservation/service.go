package reservation

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/gfourspa/fit-clase-api/internal/apperr"
	"github.com/gfourspa/fit-clase-api/internal/auth"
	"github.com/gfourspa/fit-clase-api/internal/class"
	"github.com/gfourspa/fit-clase-api/internal/events"
	"github.com/gfourspa/fit-clase-api/internal/logger"
	"github.com/gfourspa/fit-clase-api/internal/metrics"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var (
	ErrReservationNotFound = apperr.NotFound("reservation not found")
	ErrClassNotFound       = apperr.NotFound("class not found")
	ErrNoActiveReservation = apperr.NotFound("no active reservation for this student")
	ErrStudentsOnly        = apperr.Unauthorized("only students can book classes")
	ErrCrossTenant         = apperr.Unauthorized("cross-tenant booking")
	ErrPastClass           = apperr.BadRequest("cannot book past class")
	ErrClassFull           = apperr.BadRequest("no seats available")
	ErrAlreadyBooked       = apperr.Conflict("already reserved")
	ErrNotOwner            = apperr.Unauthorized("cannot cancel another student's reservation")
	ErrTeacherCancel       = apperr.Unauthorized("teachers cannot cancel reservations")
	ErrNotActive           = apperr.BadRequest("only active reservations can be canceled")
	ErrWindowPassed        = apperr.BadRequest("cancellation window passed")
	ErrStudentAttendance   = apperr.Unauthorized("students cannot mark attendance")
	ErrNotClassTeacher     = apperr.Unauthorized("not the teacher of this class")
	ErrClassNotStarted     = apperr.BadRequest("class has not started yet")
	ErrRosterDenied        = apperr.Unauthorized("not allowed to view this roster")
	ErrStudentList         = apperr.Unauthorized("only students have reservations")
)

var tracer = otel.Tracer("github.com/gfourspa/fit-clase-api/internal/reservation")

type ClassLookup interface {
	GetByID(ctx context.Context, id uuid.UUID) (*class.Class, error)
}

type Service interface {
	Create(ctx context.Context, p *auth.Principal, classID uuid.UUID) (*Reservation, error)
	Cancel(ctx context.Context, p *auth.Principal, id uuid.UUID) (*Reservation, error)
	MarkAttendance(ctx context.Context, p *auth.Principal, classID, studentID uuid.UUID, attended bool) (*Reservation, error)
	ListMine(ctx context.Context, p *auth.Principal) ([]WithClass, error)
	ListByClass(ctx context.Context, p *auth.Principal, classID uuid.UUID) ([]RosterEntry, error)
}

type Options struct {
	// CancellationWindow is how long before the start a student may still
	// cancel. A cancel exactly at the boundary is allowed.
	CancellationWindow time.Duration
	// Location is the zone class dates and times are expressed in.
	Location *time.Location
}

type service struct {
	repo      Repository
	classes   ClassLookup
	policy    *auth.Policy
	publisher events.Publisher
	window    time.Duration
	loc       *time.Location
	now       func() time.Time
}

func NewService(repo Repository, classes ClassLookup, policy *auth.Policy, publisher events.Publisher, opts Options) Service {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	loc := opts.Location
	if loc == nil {
		loc = time.UTC
	}
	return &service{
		repo:      repo,
		classes:   classes,
		policy:    policy,
		publisher: publisher,
		window:    opts.CancellationWindow,
		loc:       loc,
		now:       time.Now,
	}
}

func (s *service) Create(ctx context.Context, p *auth.Principal, classID uuid.UUID) (res *Reservation, err error) {
	ctx, span := startSpan(ctx, "reservation.Create", p,
		attribute.String("class.id", classID.String()))
	defer func() { endSpan(span, err) }()

	if p.Role != auth.RoleStudent {
		metrics.RecordReservation("denied")
		return nil, ErrStudentsOnly
	}

	c, err := s.getClass(ctx, classID)
	if err != nil {
		return nil, err
	}

	if p.GymID == nil {
		metrics.RecordReservation("denied")
		return nil, auth.ErrNoTenant
	}
	if !p.InGym(c.GymID) {
		metrics.RecordReservation("denied")
		return nil, ErrCrossTenant
	}

	start, err := c.StartsAt(s.loc)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	if !start.After(s.now()) {
		metrics.RecordReservation("past_class")
		return nil, ErrPastClass
	}

	res, err = s.repo.CreateWithinCapacity(ctx, c.ID, p.ID)
	if err != nil {
		switch {
		case errors.Is(err, ErrAlreadyReserved):
			metrics.RecordReservation("duplicate")
			return nil, ErrAlreadyBooked
		case errors.Is(err, ErrNoSeats):
			metrics.RecordReservation("full")
			return nil, ErrClassFull
		case errors.Is(err, ErrClassMissing):
			return nil, ErrClassNotFound
		}
		return nil, apperr.Internal(err)
	}

	metrics.RecordReservation("created")
	logger.InfoContext(ctx, "Reservation created",
		"reservation_id", res.ID.String(),
		"class_id", c.ID.String(),
		"student_id", p.ID.String(),
	)
	s.publish(ctx, events.TypeReservationCreated, res, c.GymID, p.ID)

	return res, nil
}

func (s *service) Cancel(ctx context.Context, p *auth.Principal, id uuid.UUID) (res *Reservation, err error) {
	ctx, span := startSpan(ctx, "reservation.Cancel", p,
		attribute.String("reservation.id", id.String()))
	defer func() { endSpan(span, err) }()

	current, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrReservationNotFound
		}
		return nil, apperr.Internal(err)
	}

	c, err := s.getClass(ctx, current.ClassID)
	if err != nil {
		return nil, err
	}

	switch p.Role {
	case auth.RoleStudent:
		if current.StudentID != p.ID {
			return nil, ErrNotOwner
		}
		if err := s.policy.RequireTenant(p); err != nil {
			return nil, err
		}
		if !p.InGym(c.GymID) {
			return nil, ErrCrossTenant
		}
	case auth.RoleGymAdmin:
		if err := s.policy.ManageGym(ctx, p, c.GymID); err != nil {
			return nil, err
		}
	case auth.RoleSuperAdmin:
	default:
		return nil, ErrTeacherCancel
	}

	if !current.Status.Active() {
		return nil, ErrNotActive
	}

	if p.Role == auth.RoleStudent {
		start, err := c.StartsAt(s.loc)
		if err != nil {
			return nil, apperr.Internal(err)
		}
		if start.Sub(s.now()) < s.window {
			return nil, ErrWindowPassed
		}
	}

	res, err = s.repo.UpdateStatus(ctx, current.ID, c.ID, StatusCanceled)
	if err != nil {
		if errors.Is(err, ErrStatusChanged) {
			return nil, ErrNotActive
		}
		return nil, apperr.Internal(err)
	}

	metrics.RecordCancellation(string(p.Role))
	logger.InfoContext(ctx, "Reservation canceled",
		"reservation_id", res.ID.String(),
		"class_id", c.ID.String(),
		"actor_id", p.ID.String(),
	)
	s.publish(ctx, events.TypeReservationCanceled, res, c.GymID, p.ID)

	return res, nil
}

func (s *service) MarkAttendance(ctx context.Context, p *auth.Principal, classID, studentID uuid.UUID, attended bool) (res *Reservation, err error) {
	ctx, span := startSpan(ctx, "reservation.MarkAttendance", p,
		attribute.String("class.id", classID.String()),
		attribute.String("student.id", studentID.String()),
		attribute.Bool("attended", attended),
	)
	defer func() { endSpan(span, err) }()

	if p.Role == auth.RoleStudent {
		return nil, ErrStudentAttendance
	}

	c, err := s.getClass(ctx, classID)
	if err != nil {
		return nil, err
	}

	if err := s.canRunClass(ctx, p, c); err != nil {
		return nil, err
	}

	start, err := c.StartsAt(s.loc)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	if s.now().Before(start) {
		return nil, ErrClassNotStarted
	}

	active, err := s.repo.FindActive(ctx, c.ID, studentID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrNoActiveReservation
		}
		return nil, apperr.Internal(err)
	}

	status, eventType := StatusMissed, events.TypeReservationMissed
	if attended {
		status, eventType = StatusAttended, events.TypeReservationAttended
	}

	res, err = s.repo.UpdateStatus(ctx, active.ID, c.ID, status)
	if err != nil {
		if errors.Is(err, ErrStatusChanged) {
			return nil, ErrNoActiveReservation
		}
		return nil, apperr.Internal(err)
	}

	metrics.RecordAttendance(strings.ToLower(string(status)))
	logger.InfoContext(ctx, "Attendance recorded",
		"reservation_id", res.ID.String(),
		"class_id", c.ID.String(),
		"status", string(status),
	)
	s.publish(ctx, eventType, res, c.GymID, p.ID)

	return res, nil
}

func (s *service) ListMine(ctx context.Context, p *auth.Principal) ([]WithClass, error) {
	if p.Role != auth.RoleStudent {
		return nil, ErrStudentList
	}

	if err := s.policy.RequireTenant(p); err != nil {
		return nil, err
	}

	list, err := s.repo.ListByStudent(ctx, p.ID, *p.GymID)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return list, nil
}

func (s *service) ListByClass(ctx context.Context, p *auth.Principal, classID uuid.UUID) ([]RosterEntry, error) {
	if p.Role == auth.RoleStudent {
		return nil, ErrRosterDenied
	}

	c, err := s.getClass(ctx, classID)
	if err != nil {
		return nil, err
	}

	if err := s.canRunClass(ctx, p, c); err != nil {
		if errors.Is(err, ErrNotClassTeacher) {
			return nil, ErrRosterDenied
		}
		return nil, err
	}

	roster, err := s.repo.ListByClass(ctx, c.ID)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return roster, nil
}

// canRunClass allows the class teacher, an admin of the class gym, and super
// admins.
func (s *service) canRunClass(ctx context.Context, p *auth.Principal, c *class.Class) error {
	switch p.Role {
	case auth.RoleSuperAdmin:
		return nil
	case auth.RoleTeacher:
		if err := s.policy.RequireTenant(p); err != nil {
			return err
		}
		if c.TeacherID != p.ID || !p.InGym(c.GymID) {
			return ErrNotClassTeacher
		}
		return nil
	case auth.RoleGymAdmin:
		return s.policy.ManageGym(ctx, p, c.GymID)
	}
	return ErrRosterDenied
}

func (s *service) getClass(ctx context.Context, id uuid.UUID) (*class.Class, error) {
	c, err := s.classes.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, class.ErrNotFound) {
			return nil, ErrClassNotFound
		}
		return nil, apperr.Internal(err)
	}
	return c, nil
}

// publish hands the event to the queue. The state change is already
// committed, so a failure is only logged.
func (s *service) publish(ctx context.Context, eventType string, r *Reservation, gymID, actorID uuid.UUID) {
	e := events.New(eventType, r.ID, r.ClassID, r.StudentID, gymID, actorID, string(r.Status))
	if err := s.publisher.Publish(ctx, e); err != nil {
		logger.Warn("Failed to queue reservation event",
			"event_type", eventType,
			"reservation_id", r.ID.String(),
			"error", err.Error(),
		)
	}
}

func startSpan(ctx context.Context, name string, p *auth.Principal, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	attrs = append(attrs,
		attribute.String("principal.id", p.ID.String()),
		attribute.String("principal.role", string(p.Role)),
	)
	return tracer.Start(ctx, name, trace.WithAttributes(attrs...))
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, apperr.Message(err))
	}
	span.End()
}
