package events

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/gfourspa/fit-clase-api/internal/logger"
	"github.com/gfourspa/fit-clase-api/internal/metrics"

	"github.com/go-redis/redismock/v9"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	logger.Init()

	code := m.Run()
	os.Exit(code)
}

type MockSink struct{ mock.Mock }

func (m *MockSink) Deliver(ctx context.Context, e Event) error {
	return m.Called(ctx, e).Error(0)
}

func newTestQueue(rdb *redis.Client, sink Sink) *Queue {
	return &Queue{
		redis:      rdb,
		sink:       sink,
		retryDelay: 0,
		popTimeout: 2 * time.Second,
	}
}

func testEvent() Event {
	return New(TypeReservationCreated, uuid.New(), uuid.New(), uuid.New(), uuid.New(), uuid.New(), "RESERVED")
}

func encodeJob(t *testing.T, e Event, tries int) string {
	t.Helper()
	data, err := json.Marshal(job{Event: e, Tries: tries, Created: time.Now()})
	require.NoError(t, err)
	return string(data)
}

func TestPublish(t *testing.T) {
	db, rmock := redismock.NewClientMock()
	metrics.EventsTotal.Reset()

	rmock.Regexp().ExpectLPush(queueKey, `.*reservation\.created.*`).SetVal(1)

	q := newTestQueue(db, LogSink{})
	err := q.Publish(context.Background(), testEvent())

	assert.NoError(t, err)
	assert.NoError(t, rmock.ExpectationsWereMet())
	assert.Equal(t, float64(1), testutil.ToFloat64(metrics.EventsTotal.WithLabelValues(TypeReservationCreated, "queued")))
}

func TestPublishRedisError(t *testing.T) {
	db, rmock := redismock.NewClientMock()

	rmock.Regexp().ExpectLPush(queueKey, `.*`).SetErr(errors.New("connection refused"))

	q := newTestQueue(db, LogSink{})
	err := q.Publish(context.Background(), testEvent())

	assert.Error(t, err)
	assert.NoError(t, rmock.ExpectationsWereMet())
}

func TestProcessNextDelivers(t *testing.T) {
	db, rmock := redismock.NewClientMock()
	sink := new(MockSink)
	ctx := context.Background()
	e := testEvent()

	rmock.ExpectBRPop(2*time.Second, queueKey).SetVal([]string{queueKey, encodeJob(t, e, 0)})
	sink.On("Deliver", ctx, mock.Anything).Return(nil)

	q := newTestQueue(db, sink)
	err := q.processNext(ctx)

	assert.NoError(t, err)
	sink.AssertCalled(t, "Deliver", ctx, mock.MatchedBy(func(got Event) bool {
		return got.ID == e.ID && got.Type == e.Type
	}))
	assert.NoError(t, rmock.ExpectationsWereMet())
}

func TestProcessNextRequeuesOnFailure(t *testing.T) {
	db, rmock := redismock.NewClientMock()
	sink := new(MockSink)
	ctx := context.Background()

	rmock.ExpectBRPop(2*time.Second, queueKey).SetVal([]string{queueKey, encodeJob(t, testEvent(), 0)})
	rmock.Regexp().ExpectLPush(queueKey, `.*"tries":1.*`).SetVal(1)
	sink.On("Deliver", ctx, mock.Anything).Return(errors.New("nats: no responders"))

	q := newTestQueue(db, sink)
	assert.NoError(t, q.processNext(ctx))
	assert.NoError(t, rmock.ExpectationsWereMet())
}

func TestProcessNextMovesToFailedAfterMaxTries(t *testing.T) {
	db, rmock := redismock.NewClientMock()
	sink := new(MockSink)
	ctx := context.Background()

	rmock.ExpectBRPop(2*time.Second, queueKey).SetVal([]string{queueKey, encodeJob(t, testEvent(), maxTries-1)})
	rmock.Regexp().ExpectLPush(failedKey, `.*nats: timeout.*`).SetVal(1)
	sink.On("Deliver", ctx, mock.Anything).Return(errors.New("nats: timeout"))

	q := newTestQueue(db, sink)
	assert.NoError(t, q.processNext(ctx))
	assert.NoError(t, rmock.ExpectationsWereMet())
}

func TestProcessNextSkipsBadPayload(t *testing.T) {
	db, rmock := redismock.NewClientMock()
	sink := new(MockSink)

	rmock.ExpectBRPop(2*time.Second, queueKey).SetVal([]string{queueKey, "{not json"})

	q := newTestQueue(db, sink)
	assert.NoError(t, q.processNext(context.Background()))
	sink.AssertNotCalled(t, "Deliver", mock.Anything, mock.Anything)
}

func TestProcessNextEmptyQueue(t *testing.T) {
	db, rmock := redismock.NewClientMock()

	rmock.ExpectBRPop(2*time.Second, queueKey).RedisNil()

	q := newTestQueue(db, new(MockSink))
	assert.ErrorIs(t, q.processNext(context.Background()), redis.Nil)
}

func TestQueueLength(t *testing.T) {
	db, rmock := redismock.NewClientMock()

	rmock.ExpectLLen(queueKey).SetVal(4)

	q := newTestQueue(db, LogSink{})
	assert.Equal(t, int64(4), q.QueueLength(context.Background()))
}

func TestNopPublisher(t *testing.T) {
	assert.NoError(t, NopPublisher{}.Publish(context.Background(), testEvent()))
}

func TestNewNatsSinkUnreachable(t *testing.T) {
	_, err := NewNatsSink("nats://127.0.0.1:1")
	assert.Error(t, err)
}

func TestProcessNextRequeueFailureIsCounted(t *testing.T) {
	db, rmock := redismock.NewClientMock()
	sink := new(MockSink)
	ctx := context.Background()
	e := testEvent()
	metrics.EventsTotal.Reset()

	rmock.ExpectBRPop(2*time.Second, queueKey).SetVal([]string{queueKey, encodeJob(t, e, 0)})
	rmock.Regexp().ExpectLPush(queueKey, `.*`).SetErr(errors.New("connection refused"))
	sink.On("Deliver", ctx, mock.Anything).Return(errors.New("nats: no responders"))

	q := newTestQueue(db, sink)
	assert.NoError(t, q.processNext(ctx))
	assert.NoError(t, rmock.ExpectationsWereMet())
	assert.Equal(t, float64(1), testutil.ToFloat64(metrics.EventsTotal.WithLabelValues(e.Type, "lost")))
}

func TestSaveFailedRedisError(t *testing.T) {
	db, rmock := redismock.NewClientMock()
	e := testEvent()
	metrics.EventsTotal.Reset()

	rmock.Regexp().ExpectLPush(failedKey, `.*`).SetErr(errors.New("connection refused"))

	q := newTestQueue(db, LogSink{})
	q.saveFailed(context.Background(), job{Event: e, Tries: maxTries}, errors.New("nats: timeout"))

	assert.NoError(t, rmock.ExpectationsWereMet())
	assert.Equal(t, float64(1), testutil.ToFloat64(metrics.EventsTotal.WithLabelValues(e.Type, "lost")))
	assert.Equal(t, float64(0), testutil.ToFloat64(metrics.EventsTotal.WithLabelValues(e.Type, "failed")))
}

func TestRequeueStopsWaitingOnCancel(t *testing.T) {
	db, rmock := redismock.NewClientMock()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	rmock.Regexp().ExpectLPush(queueKey, `.*"tries":1.*`).SetVal(1)

	q := newTestQueue(db, LogSink{})
	q.retryDelay = time.Minute

	started := time.Now()
	q.requeue(ctx, job{Event: testEvent(), Tries: 1})

	assert.Less(t, time.Since(started), time.Second)
	assert.NoError(t, rmock.ExpectationsWereMet())
}
