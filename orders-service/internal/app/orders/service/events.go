package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"storefront/orders-service/internal/app/orders/entity"
	"storefront/orders-service/internal/app/orders/infrastructure"
	"storefront/pkg/logger"

	"github.com/google/uuid"
)

func newOrderEvent(eventType string, order *entity.Order, items []entity.OrderItem) entity.OrderEvent {
	eventItems := make([]entity.OrderEventItem, 0, len(items))
	for _, item := range items {
		eventItems = append(eventItems, entity.OrderEventItem{VariantID: item.VariantID, Quantity: item.Quantity})
	}
	return entity.OrderEvent{
		EventID:     uuid.NewString(),
		EventType:   eventType,
		OrderID:     order.ID,
		Status:      order.Status,
		TotalAmount: order.TotalAmount,
		Items:       eventItems,
		Timestamp:   time.Now().UTC(),
	}
}

// publishOrderEvent отправляет событие в Kafka.
// Заказ к этому моменту уже закоммичен, поэтому ошибка только логируется.
func publishOrderEvent(ctx context.Context, publisher infrastructure.MessagePublisher, event entity.OrderEvent) {
	if publisher == nil {
		return
	}
	if err := sendOrderEvent(ctx, publisher, event); err != nil {
		logger.Error().
			Err(err).
			Str("event_type", event.EventType).
			Int64("order_id", event.OrderID).
			Msg("Failed to publish order event")
	}
}

func sendOrderEvent(ctx context.Context, publisher infrastructure.MessagePublisher, event entity.OrderEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal order event: %w", err)
	}

	// Ключ = OrderID для партиционирования
	if err := publisher.PublishMessage(ctx, strconv.FormatInt(event.OrderID, 10), data); err != nil {
		return fmt.Errorf("failed to publish to kafka: %w", err)
	}
	return nil
}
