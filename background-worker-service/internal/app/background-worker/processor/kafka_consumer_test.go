package processor

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"storefront/background-worker-service/internal/app/background-worker/entity"
	"storefront/background-worker-service/internal/app/background-worker/service"

	"github.com/segmentio/kafka-go"
	"github.com/sethvargo/go-retry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeReader отдает сообщения из канала и запоминает закоммиченные offset
type fakeReader struct {
	messages chan kafka.Message

	mu        sync.Mutex
	committed []int64
	closed    bool
}

func newFakeReader(msgs ...kafka.Message) *fakeReader {
	r := &fakeReader{messages: make(chan kafka.Message, len(msgs))}
	for _, m := range msgs {
		r.messages <- m
	}
	return r
}

func (r *fakeReader) FetchMessage(ctx context.Context) (kafka.Message, error) {
	select {
	case m := <-r.messages:
		return m, nil
	case <-ctx.Done():
		return kafka.Message{}, ctx.Err()
	}
}

func (r *fakeReader) CommitMessages(_ context.Context, msgs ...kafka.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range msgs {
		r.committed = append(r.committed, m.Offset)
	}
	return nil
}

func (r *fakeReader) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closed = true
	return nil
}

func (r *fakeReader) Committed() []int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]int64(nil), r.committed...)
}

// fakeEventService считает вызовы и отвечает через handler
type fakeEventService struct {
	calls   atomic.Int32
	handler func(call int32, event *entity.OrderEvent) error
}

func (s *fakeEventService) ProcessOrderEvent(_ context.Context, event *entity.OrderEvent) error {
	n := s.calls.Add(1)
	if s.handler == nil {
		return nil
	}
	return s.handler(n, event)
}

func eventMessage(t *testing.T, offset int64, event entity.OrderEvent) kafka.Message {
	t.Helper()
	value, err := json.Marshal(event)
	require.NoError(t, err)
	return kafka.Message{Topic: "order_events", Offset: offset, Value: value}
}

func newTestConsumer(reader messageReader, svc service.OrderEventServiceInterface) *KafkaConsumer {
	c := newKafkaConsumer(reader, "order_events", "test-group", svc)
	c.backoff = func() retry.Backoff { return retry.NewConstant(time.Millisecond) }
	return c
}

// ===================== NewKafkaConsumer Tests =====================

func TestNewKafkaConsumer(t *testing.T) {
	consumer := NewKafkaConsumer([]string{"localhost:9092"}, "order_events", "test-group", 1, 10e6, &fakeEventService{})

	assert.NotNil(t, consumer.reader)
	assert.Equal(t, "order_events", consumer.topic)
	assert.NotNil(t, consumer.doneChan)

	consumer.reader.Close()
}

// ===================== processMessage Tests =====================

func TestKafkaConsumer_ProcessMessage_ParsesEvent(t *testing.T) {
	// Arrange
	var captured *entity.OrderEvent
	svc := &fakeEventService{handler: func(_ int32, e *entity.OrderEvent) error {
		captured = e
		return nil
	}}
	consumer := newTestConsumer(newFakeReader(), svc)
	raw := []byte(`{"event_id":"e-1","event_type":"ORDER_STATUS_CHANGED","order_id":42,"status":"cancelled",` +
		`"previous_status":"pending","total_amount":"109.97","items":[{"variant_id":1,"quantity":3}],"stock_restored":true}`)

	// Act
	err := consumer.processMessage(context.Background(), kafka.Message{Value: raw})

	// Assert
	require.NoError(t, err)
	require.NotNil(t, captured)
	assert.Equal(t, int64(42), captured.OrderID)
	assert.Equal(t, "pending", captured.PreviousStatus)
	assert.Equal(t, "109.97", captured.TotalAmount.StringFixed(2))
	assert.True(t, captured.StockRestored)
	assert.Equal(t, []entity.OrderEventItem{{VariantID: 1, Quantity: 3}}, captured.Items)
}

func TestKafkaConsumer_ProcessMessage_InvalidJSON(t *testing.T) {
	svc := &fakeEventService{}
	consumer := newTestConsumer(newFakeReader(), svc)

	err := consumer.processMessage(context.Background(), kafka.Message{Value: []byte("invalid json {{{")})

	assert.ErrorIs(t, err, errMalformedMessage)
	assert.Contains(t, err.Error(), "failed to unmarshal")
	assert.Zero(t, svc.calls.Load())
}

// ===================== consume loop Tests =====================

func TestKafkaConsumer_CommitsAfterProcessing(t *testing.T) {
	// Arrange
	reader := newFakeReader(
		eventMessage(t, 1, entity.OrderEvent{EventType: entity.EventTypeOrderCreated, OrderID: 1}),
		eventMessage(t, 2, entity.OrderEvent{EventType: entity.EventTypeOrderCreated, OrderID: 2}),
	)
	svc := &fakeEventService{}
	consumer := newTestConsumer(reader, svc)

	// Act
	consumer.Start(context.Background())
	assert.Eventually(t, func() bool { return len(reader.Committed()) == 2 }, time.Second, 5*time.Millisecond)
	consumer.Stop()

	// Assert
	assert.Equal(t, []int64{1, 2}, reader.Committed())
	assert.Equal(t, int32(2), svc.calls.Load())
	assert.True(t, reader.closed)
}

func TestKafkaConsumer_SkipsPoisonMessages(t *testing.T) {
	// Arrange
	reader := newFakeReader(
		kafka.Message{Offset: 1, Value: []byte("not json")},
		eventMessage(t, 2, entity.OrderEvent{EventType: entity.EventTypeOrderCreated, OrderID: 0}),
		eventMessage(t, 3, entity.OrderEvent{EventType: entity.EventTypeOrderCreated, OrderID: 3}),
	)
	svc := &fakeEventService{handler: func(_ int32, e *entity.OrderEvent) error {
		if e.OrderID <= 0 {
			return service.ErrInvalidEvent
		}
		return nil
	}}
	consumer := newTestConsumer(reader, svc)

	// Act
	consumer.Start(context.Background())
	assert.Eventually(t, func() bool { return len(reader.Committed()) == 3 }, time.Second, 5*time.Millisecond)
	consumer.Stop()

	// Assert: битое сообщение не повторяется
	assert.Equal(t, int32(2), svc.calls.Load())
}

func TestKafkaConsumer_RetriesTransientErrorBeforeCommit(t *testing.T) {
	// Arrange
	reader := newFakeReader(eventMessage(t, 7, entity.OrderEvent{EventType: entity.EventTypeOrderCreated, OrderID: 7}))
	svc := &fakeEventService{handler: func(call int32, _ *entity.OrderEvent) error {
		if call < 3 {
			return errors.New("redis: connection refused")
		}
		return nil
	}}
	consumer := newTestConsumer(reader, svc)

	// Act
	consumer.Start(context.Background())
	assert.Eventually(t, func() bool { return len(reader.Committed()) == 1 }, time.Second, 5*time.Millisecond)
	consumer.Stop()

	// Assert
	assert.Equal(t, int32(3), svc.calls.Load())
	assert.Equal(t, []int64{7}, reader.Committed())
}

func TestKafkaConsumer_StopDuringFailuresDoesNotCommit(t *testing.T) {
	// Arrange
	reader := newFakeReader(eventMessage(t, 1, entity.OrderEvent{EventType: entity.EventTypeOrderCreated, OrderID: 1}))
	svc := &fakeEventService{handler: func(int32, *entity.OrderEvent) error {
		return errors.New("redis: connection refused")
	}}
	consumer := newTestConsumer(reader, svc)

	// Act
	consumer.Start(context.Background())
	assert.Eventually(t, func() bool { return svc.calls.Load() >= 2 }, time.Second, 5*time.Millisecond)
	consumer.Stop()

	// Assert
	assert.Empty(t, reader.Committed())
}

func TestKafkaConsumer_StopWithoutStart(t *testing.T) {
	reader := newFakeReader()
	consumer := newTestConsumer(reader, &fakeEventService{})

	consumer.Stop()

	assert.False(t, reader.closed)
}
