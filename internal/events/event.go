package events

import (
	"context"
	"time"

	"github.com/google/uuid"
)

const (
	TypeReservationCreated  = "reservation.created"
	TypeReservationCanceled = "reservation.canceled"
	TypeReservationAttended = "reservation.attended"
	TypeReservationMissed   = "reservation.missed"
)

// Event describes a committed reservation state change.
type Event struct {
	ID            uuid.UUID `json:"event_id"`
	Type          string    `json:"event_type"`
	ReservationID uuid.UUID `json:"reservation_id"`
	ClassID       uuid.UUID `json:"class_id"`
	StudentID     uuid.UUID `json:"student_id"`
	GymID         uuid.UUID `json:"gym_id"`
	Status        string    `json:"status"`
	ActorID       uuid.UUID `json:"actor_id"`
	OccurredAt    time.Time `json:"occurred_at"`
}

func New(eventType string, reservationID, classID, studentID, gymID, actorID uuid.UUID, status string) Event {
	return Event{
		ID:            uuid.New(),
		Type:          eventType,
		ReservationID: reservationID,
		ClassID:       classID,
		StudentID:     studentID,
		GymID:         gymID,
		Status:        status,
		ActorID:       actorID,
		OccurredAt:    time.Now().UTC(),
	}
}

// Publisher accepts events for asynchronous delivery.
type Publisher interface {
	Publish(ctx context.Context, e Event) error
}

// Sink is the final destination of a delivered event.
type Sink interface {
	Deliver(ctx context.Context, e Event) error
}

// NopPublisher drops every event. Used when no queue is configured.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, Event) error { return nil }
