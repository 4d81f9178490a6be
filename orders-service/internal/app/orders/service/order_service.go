package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"storefront/orders-service/internal/app/orders/entity"
	"storefront/orders-service/internal/app/orders/infrastructure"
	"storefront/orders-service/internal/app/orders/repository"
	"storefront/pkg/logger"
	"storefront/pkg/metrics"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// OrderService ведет жизненный цикл заказа.
// Отмена - единственный путь, который возвращает остатки на склад.
type OrderService struct {
	tx        repository.TxManager
	orders    repository.OrderRepository
	publisher infrastructure.MessagePublisher
	tracer    trace.Tracer
}

// NewOrderService создает новый сервис заказов с внедрением зависимостей
func NewOrderService(
	tx repository.TxManager,
	orders repository.OrderRepository,
	publisher infrastructure.MessagePublisher,
) *OrderService {
	return &OrderService{
		tx:        tx,
		orders:    orders,
		publisher: publisher,
		tracer:    otel.Tracer("storefront/orders-service/orders"),
	}
}

// GetOrder возвращает заказ с позициями, вариантами и товарами
func (s *OrderService) GetOrder(ctx context.Context, orderID int64) (*entity.Order, error) {
	order, err := s.orders.GetWithDetails(ctx, orderID)
	if err != nil {
		if errors.Is(err, repository.ErrOrderNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("failed to get order: %w", err)
	}
	return order, nil
}

type statusChange struct {
	order         *entity.Order
	previous      entity.OrderStatus
	changed       bool
	items         []entity.OrderItem
	restoredUnits int
	stockRestored bool
}

// UpdateStatus меняет статус заказа в одной транзакции с возвратом остатков при отмене.
// Повторная установка того же статуса ничего не делает.
func (s *OrderService) UpdateStatus(ctx context.Context, orderID int64, newStatus entity.OrderStatus) (*entity.Order, error) {
	ctx, span := s.tracer.Start(ctx, "OrderService.UpdateStatus", trace.WithAttributes(
		attribute.Int64("order.id", orderID),
		attribute.String("order.status", string(newStatus)),
	))
	defer span.End()

	if !newStatus.IsValid() {
		return nil, ErrInvalidOrderStatus
	}

	var change statusChange
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context, repos repository.Repositories) error {
		change = statusChange{}

		order, err := repos.Orders.GetByID(ctx, orderID)
		if err != nil {
			if errors.Is(err, repository.ErrOrderNotFound) {
				return ErrOrderNotFound
			}
			return fmt.Errorf("failed to get order: %w", err)
		}
		change.order = order
		change.previous = order.Status

		if order.Status == newStatus {
			return nil
		}
		// Остатки отмененного заказа уже вернулись на склад
		if order.Status == entity.OrderStatusCancelled {
			return ErrOrderCancelled
		}

		now := time.Now()
		order.Status = newStatus
		switch newStatus {
		case entity.OrderStatusShipped:
			if order.ShippedAt == nil {
				order.ShippedAt = &now
			}
		case entity.OrderStatusDelivered:
			if order.DeliveredAt == nil {
				order.DeliveredAt = &now
			}
		}

		updated, err := repos.Orders.UpdateStatus(ctx, order, change.previous)
		if err != nil {
			return fmt.Errorf("failed to update order status: %w", err)
		}
		if !updated {
			return ErrOrderStatusConflict
		}

		if newStatus == entity.OrderStatusCancelled {
			if err := restoreStock(ctx, repos, &change); err != nil {
				return err
			}
		}

		change.changed = true
		return nil
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "status update failed")
		return nil, err
	}

	if !change.changed {
		return change.order, nil
	}

	metrics.RecordOrderStatusChange(string(newStatus), change.restoredUnits)
	span.SetAttributes(attribute.Int("stock.restored_units", change.restoredUnits))

	logger.Info().
		Int64("order_id", orderID).
		Str("previous_status", string(change.previous)).
		Str("status", string(newStatus)).
		Int("restored_units", change.restoredUnits).
		Msg("Order status changed")

	event := newOrderEvent(entity.EventOrderStatusChanged, change.order, change.items)
	event.PreviousStatus = change.previous
	event.StockRestored = change.stockRestored
	publishOrderEvent(ctx, s.publisher, event)

	return change.order, nil
}

// restoreStock возвращает количество каждой позиции на склад.
// Удаленный вариант пропускается с предупреждением.
func restoreStock(ctx context.Context, repos repository.Repositories, change *statusChange) error {
	items, err := repos.Items.GetByOrderID(ctx, change.order.ID)
	if err != nil {
		return fmt.Errorf("failed to get order items: %w", err)
	}
	change.items = items

	for _, item := range items {
		affected, err := repos.Variants.IncrementStock(ctx, item.VariantID, item.Quantity)
		if err != nil {
			return fmt.Errorf("failed to restore stock: %w", err)
		}
		if affected == 0 {
			logger.Warn().
				Int64("order_id", change.order.ID).
				Int64("variant_id", item.VariantID).
				Int("quantity", item.Quantity).
				Msg("Variant no longer exists, stock not restored")
			continue
		}
		change.restoredUnits += item.Quantity
	}
	change.stockRestored = change.restoredUnits > 0
	return nil
}
