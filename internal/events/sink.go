package events

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/gfourspa/fit-clase-api/internal/logger"

	"github.com/nats-io/nats.go"
)

// NatsSink publishes each event on the subject named by its type.
type NatsSink struct {
	conn *nats.Conn
}

func NewNatsSink(natsURL string) (*NatsSink, error) {
	nc, err := nats.Connect(natsURL, nats.Name("fit-clase-api"))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to nats: %w", err)
	}
	return &NatsSink{conn: nc}, nil
}

func (s *NatsSink) Deliver(_ context.Context, e Event) error {
	payload, err := json.Marshal(e)
	if err != nil {
		return err
	}

	if err := s.conn.Publish(e.Type, payload); err != nil {
		return fmt.Errorf("publish %s: %w", e.Type, err)
	}

	logger.Debug("Published event to NATS", "subject", e.Type, "event_id", e.ID.String())
	return nil
}

func (s *NatsSink) Close() {
	if err := s.conn.Drain(); err != nil {
		s.conn.Close()
	}
}

// LogSink writes events to the structured log.
type LogSink struct{}

func (LogSink) Deliver(ctx context.Context, e Event) error {
	logger.InfoContext(ctx, "Reservation event",
		"event_type", e.Type,
		"event_id", e.ID.String(),
		"reservation_id", e.ReservationID.String(),
		"class_id", e.ClassID.String(),
		"status", e.Status,
	)
	return nil
}
