package service

import (
	"context"
	"errors"
	"fmt"

	"storefront/background-worker-service/internal/app/background-worker/entity"
	"storefront/pkg/logger"
	"storefront/pkg/metrics"
)

// Статусы обработки для worker_events_processed_total
const (
	eventStatusProcessed = "processed"
	eventStatusSkipped   = "skipped"
	eventStatusIgnored   = "ignored"
	eventStatusFailed    = "failed"
)

// ErrInvalidEvent - событие нельзя обработать, повтор не поможет
var ErrInvalidEvent = errors.New("invalid order event")

// OrderEventService реагирует на события заказов: списание и возврат остатков
// меняют набор доступных размеров и брендов, поэтому кеш фильтров сбрасывается.
type OrderEventService struct {
	cache CacheInvalidator
}

func NewOrderEventService(cache CacheInvalidator) *OrderEventService {
	return &OrderEventService{cache: cache}
}

// ProcessOrderEvent обрабатывает одно событие из топика order_events.
// Ошибка означает, что offset коммитить нельзя.
func (s *OrderEventService) ProcessOrderEvent(ctx context.Context, event *entity.OrderEvent) error {
	if event.OrderID <= 0 {
		metrics.WorkerEventsProcessed.WithLabelValues(event.EventType, eventStatusIgnored).Inc()
		return fmt.Errorf("%w: order_id %d", ErrInvalidEvent, event.OrderID)
	}

	switch event.EventType {
	case entity.EventTypeOrderCreated, entity.EventTypeOrderStatusChanged:
	default:
		logger.Warn().
			Str("event_type", event.EventType).
			Int64("order_id", event.OrderID).
			Msg("unknown order event type, skipping")
		metrics.WorkerEventsProcessed.WithLabelValues(event.EventType, eventStatusIgnored).Inc()
		return nil
	}

	if !event.ChangesPurchasableStock() {
		logger.Debug().
			Str("event_type", event.EventType).
			Int64("order_id", event.OrderID).
			Str("status", event.Status).
			Msg("order event does not change stock")
		metrics.WorkerEventsProcessed.WithLabelValues(event.EventType, eventStatusSkipped).Inc()
		return nil
	}

	reason := "order_created"
	if event.EventType == entity.EventTypeOrderStatusChanged {
		reason = "stock_restored"
	}

	deleted, err := s.cache.InvalidateFilterOptions(ctx, reason)
	if err != nil {
		metrics.WorkerEventsProcessed.WithLabelValues(event.EventType, eventStatusFailed).Inc()
		return fmt.Errorf("failed to invalidate filter options: %w", err)
	}

	logger.Info().
		Str("event_id", event.EventID).
		Str("event_type", event.EventType).
		Int64("order_id", event.OrderID).
		Int("items", len(event.Items)).
		Int("keys_deleted", deleted).
		Msg("catalog filter cache invalidated")
	metrics.WorkerEventsProcessed.WithLabelValues(event.EventType, eventStatusProcessed).Inc()

	return nil
}
