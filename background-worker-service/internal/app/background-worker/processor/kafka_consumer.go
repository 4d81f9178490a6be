package processor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"storefront/background-worker-service/internal/app/background-worker/entity"
	"storefront/background-worker-service/internal/app/background-worker/service"
	"storefront/pkg/logger"
	"storefront/pkg/metrics"

	"github.com/segmentio/kafka-go"
	"github.com/sethvargo/go-retry"
)

const serviceName = "background-worker-service"

var errMalformedMessage = errors.New("malformed message")

// messageReader - часть kafka.Reader, которой пользуется consumer
type messageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaConsumer читает топик order_events в группе потребителей.
// Offset коммитится только после успешной обработки или для битого сообщения.
type KafkaConsumer struct {
	reader   messageReader
	eventSvc service.OrderEventServiceInterface
	topic    string
	groupID  string
	backoff  func() retry.Backoff
	cancel   context.CancelFunc
	doneChan chan struct{}
}

// NewKafkaConsumer создает новый Kafka consumer
func NewKafkaConsumer(
	brokers []string,
	topic string,
	groupID string,
	minBytes int,
	maxBytes int,
	eventSvc service.OrderEventServiceInterface,
) *KafkaConsumer {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:        brokers,
		Topic:          topic,
		GroupID:        groupID,
		MinBytes:       minBytes,
		MaxBytes:       maxBytes,
		StartOffset:    kafka.FirstOffset,
		ReadBackoffMin: 100 * time.Millisecond,
		ReadBackoffMax: 1 * time.Second,
	})

	return newKafkaConsumer(reader, topic, groupID, eventSvc)
}

func newKafkaConsumer(reader messageReader, topic, groupID string, eventSvc service.OrderEventServiceInterface) *KafkaConsumer {
	return &KafkaConsumer{
		reader:   reader,
		eventSvc: eventSvc,
		topic:    topic,
		groupID:  groupID,
		backoff: func() retry.Backoff {
			return retry.WithCappedDuration(30*time.Second, retry.NewExponential(500*time.Millisecond))
		},
		doneChan: make(chan struct{}),
	}
}

// Start запускает consumer в отдельной горутине
func (c *KafkaConsumer) Start(ctx context.Context) {
	runCtx, cancel := context.WithCancel(ctx)
	c.cancel = cancel

	logger.Info().
		Str("topic", c.topic).
		Str("group", c.groupID).
		Msg("Starting Kafka consumer")

	go c.consume(runCtx)
}

// Stop дожидается окончания текущего сообщения и закрывает reader
func (c *KafkaConsumer) Stop() {
	if c.cancel == nil {
		return
	}
	logger.Info().Msg("Stopping Kafka consumer...")
	c.cancel()
	<-c.doneChan
	if err := c.reader.Close(); err != nil {
		logger.Warn().Err(err).Msg("failed to close kafka reader")
	}
	logger.Info().Msg("Kafka consumer stopped")
}

func (c *KafkaConsumer) consume(ctx context.Context) {
	defer close(c.doneChan)

	for {
		message, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			logger.Error().Err(err).Str("topic", c.topic).Msg("failed to fetch message")
			metrics.RecordKafkaError(serviceName, c.topic, "fetch")
			select {
			case <-ctx.Done():
				return
			case <-time.After(time.Second):
			}
			continue
		}

		// Ошибка здесь только при остановке: offset не коммитим, сообщение прочитается снова
		if err := c.handle(ctx, message); err != nil {
			return
		}

		if err := c.reader.CommitMessages(ctx, message); err != nil {
			if ctx.Err() != nil {
				return
			}
			logger.Error().Err(err).Int64("offset", message.Offset).Msg("failed to commit message")
			metrics.RecordKafkaError(serviceName, c.topic, "commit")
		}
	}
}

// handle повторяет обработку одного сообщения, пока она не пройдет.
// Битые сообщения пропускаются, чтобы не блокировать партицию.
func (c *KafkaConsumer) handle(ctx context.Context, message kafka.Message) error {
	start := time.Now()
	attempt := 0
	msgLog := logger.With().
		Int("partition", message.Partition).
		Int64("offset", message.Offset).
		Logger()

	err := retry.Do(ctx, c.backoff(), func(ctx context.Context) error {
		attempt++
		err := c.processMessage(ctx, message)
		if err == nil || isPoison(err) {
			return err
		}
		msgLog.Warn().
			Err(err).
			Int("attempt", attempt).
			Msg("failed to process message, retrying")
		metrics.RecordKafkaError(serviceName, c.topic, "process")
		return retry.RetryableError(err)
	})

	switch {
	case err == nil:
		metrics.RecordKafkaMessageConsumed(serviceName, c.topic, c.groupID, time.Since(start))
		return nil
	case isPoison(err):
		msgLog.Error().Err(err).Msg("skipping malformed order event")
		metrics.RecordKafkaError(serviceName, c.topic, "decode")
		return nil
	}
	return err
}

// processMessage обрабатывает одно сообщение из Kafka
func (c *KafkaConsumer) processMessage(ctx context.Context, message kafka.Message) error {
	var event entity.OrderEvent
	if err := json.Unmarshal(message.Value, &event); err != nil {
		return fmt.Errorf("%w: failed to unmarshal order event: %v", errMalformedMessage, err)
	}

	logger.Debug().
		Str("event_type", event.EventType).
		Int64("order_id", event.OrderID).
		Int64("offset", message.Offset).
		Int("partition", message.Partition).
		Msg("received order event")

	if err := c.eventSvc.ProcessOrderEvent(ctx, &event); err != nil {
		return fmt.Errorf("failed to process order event: %w", err)
	}

	return nil
}

func isPoison(err error) bool {
	return errors.Is(err, errMalformedMessage) || errors.Is(err, service.ErrInvalidEvent)
}
