package events

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/gfourspa/fit-clase-api/internal/logger"
	"github.com/gfourspa/fit-clase-api/internal/metrics"

	"github.com/redis/go-redis/v9"
)

const (
	queueKey  = "reservation_events"
	failedKey = "reservation_events:failed"
	maxTries  = 3
)

type job struct {
	Event   Event     `json:"event"`
	Tries   int       `json:"tries"`
	Created time.Time `json:"created"`
}

// Queue buffers events in a Redis list and delivers them to a Sink from a
// background worker. Events that keep failing are moved to a failed list.
type Queue struct {
	redis      *redis.Client
	sink       Sink
	retryDelay time.Duration
	popTimeout time.Duration
}

func NewQueue(rdb *redis.Client, sink Sink) *Queue {
	return &Queue{
		redis:      rdb,
		sink:       sink,
		retryDelay: 5 * time.Second,
		popTimeout: 2 * time.Second,
	}
}

func (q *Queue) Publish(ctx context.Context, e Event) error {
	data, err := json.Marshal(job{Event: e, Created: time.Now()})
	if err != nil {
		return err
	}

	if err := q.redis.LPush(ctx, queueKey, string(data)).Err(); err != nil {
		metrics.RecordEvent(e.Type, "queue_failed")
		return err
	}

	metrics.RecordEvent(e.Type, "queued")
	logger.Debug("Event queued", "event_type", e.Type, "event_id", e.ID.String())
	return nil
}

// Start runs the delivery loop until ctx is cancelled.
func (q *Queue) Start(ctx context.Context) {
	logger.Info("Event worker started")

	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info("Event worker stopped")
			return
		case <-ticker.C:
			metrics.SetEventQueueLength(q.QueueLength(ctx))
		default:
			if err := q.processNext(ctx); err != nil && !errors.Is(err, redis.Nil) && ctx.Err() == nil {
				logger.Errorf("Event queue read failed: %v", err)
				select {
				case <-ctx.Done():
				case <-time.After(time.Second):
				}
			}
		}
	}
}

func (q *Queue) processNext(ctx context.Context) error {
	result, err := q.redis.BRPop(ctx, q.popTimeout, queueKey).Result()
	if err != nil {
		return err
	}

	var j job
	if err := json.Unmarshal([]byte(result[1]), &j); err != nil {
		logger.Errorf("Bad event data: %v", err)
		return nil
	}

	j.Tries++
	if err := q.sink.Deliver(ctx, j.Event); err != nil {
		logger.Errorf("Failed to deliver event %s (attempt %d): %v", j.Event.ID, j.Tries, err)

		if j.Tries < maxTries {
			q.requeue(ctx, j)
			return nil
		}

		q.saveFailed(ctx, j, err)
		return nil
	}

	metrics.RecordEvent(j.Event.Type, "delivered")
	return nil
}

// requeue waits retryDelay and pushes j back. The job is still pushed when ctx
// is cancelled during the wait so it survives shutdown.
func (q *Queue) requeue(ctx context.Context, j job) {
	if q.retryDelay > 0 {
		timer := time.NewTimer(q.retryDelay)
		select {
		case <-ctx.Done():
		case <-timer.C:
		}
		timer.Stop()
	}

	data, err := json.Marshal(j)
	if err != nil {
		logger.Errorf("Failed to encode event %s for retry: %v", j.Event.ID, err)
		return
	}
	if err := q.redis.LPush(context.WithoutCancel(ctx), queueKey, string(data)).Err(); err != nil {
		metrics.RecordEvent(j.Event.Type, "lost")
		logger.Errorf("Failed to requeue event %s: %v", j.Event.ID, err)
	}
}

func (q *Queue) saveFailed(ctx context.Context, j job, cause error) {
	failed := map[string]any{
		"job":   j,
		"error": cause.Error(),
		"time":  time.Now(),
	}
	data, err := json.Marshal(failed)
	if err != nil {
		logger.Errorf("Failed to encode failed event %s: %v", j.Event.ID, err)
		return
	}
	if err := q.redis.LPush(context.WithoutCancel(ctx), failedKey, string(data)).Err(); err != nil {
		metrics.RecordEvent(j.Event.Type, "lost")
		logger.Errorf("Failed to store failed event %s: %v", j.Event.ID, err)
		return
	}
	metrics.RecordEvent(j.Event.Type, "failed")
	logger.Errorf("Event %s moved to failed queue after %d attempts", j.Event.ID, j.Tries)
}

func (q *Queue) QueueLength(ctx context.Context) int64 {
	length, _ := q.redis.LLen(ctx, queueKey).Result()
	return length
}

func (q *Queue) Close() error {
	return q.redis.Close()
}
