package repository

import (
	"context"
	"errors"
	"time"

	"storefront/orders-service/internal/app/orders/entity"
	"storefront/pkg/metrics"

	"gorm.io/gorm"
)

type orderRepository struct {
	db *gorm.DB // GORM DB или транзакция
}

// NewOrderRepository создает новый репозиторий заказов
func NewOrderRepository(db *gorm.DB) OrderRepository {
	return &orderRepository{db: db}
}

// Create создает заказ; позиции из order.Items вставляются той же операцией
func (r *orderRepository) Create(ctx context.Context, order *entity.Order) error {
	timer := metrics.NewDbTimer(serviceName, metrics.DbOpInsert, "orders")
	defer timer.ObserveDuration()

	if err := r.db.WithContext(ctx).Create(order).Error; err != nil {
		metrics.RecordDbError(serviceName, metrics.DbOpInsert)
		return translateError(err)
	}
	return nil
}

func (r *orderRepository) GetByID(ctx context.Context, id int64) (*entity.Order, error) {
	timer := metrics.NewDbTimer(serviceName, metrics.DbOpSelect, "orders")
	defer timer.ObserveDuration()

	var order entity.Order
	if err := r.db.WithContext(ctx).First(&order, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, translateError(err)
	}
	return &order, nil
}

func (r *orderRepository) GetWithDetails(ctx context.Context, id int64) (*entity.Order, error) {
	timer := metrics.NewDbTimer(serviceName, metrics.DbOpSelect, "orders")
	defer timer.ObserveDuration()

	var order entity.Order
	err := r.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB {
			return db.Order("order_items.id")
		}).
		Preload("Items.Variant.Product.Images").
		Preload("Items.Variant.Attributes.Attribute").
		First(&order, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, translateError(err)
	}
	return &order, nil
}

// UpdateStatus - условный UPDATE по наблюдаемому статусу.
// Две конкурентные отмены не могут обе пройти: вторая получит 0 строк.
func (r *orderRepository) UpdateStatus(ctx context.Context, order *entity.Order, from entity.OrderStatus) (bool, error) {
	timer := metrics.NewDbTimer(serviceName, metrics.DbOpUpdate, "orders")
	defer timer.ObserveDuration()

	now := time.Now()
	updates := map[string]interface{}{
		"status":     order.Status,
		"updated_at": now,
	}
	if order.ShippedAt != nil {
		updates["shipped_at"] = *order.ShippedAt
	}
	if order.DeliveredAt != nil {
		updates["delivered_at"] = *order.DeliveredAt
	}

	result := r.db.WithContext(ctx).
		Model(&entity.Order{}).
		Where("id = ? AND status = ?", order.ID, from).
		Updates(updates)
	if result.Error != nil {
		metrics.RecordDbError(serviceName, metrics.DbOpUpdate)
		return false, translateError(result.Error)
	}
	if result.RowsAffected == 0 {
		return false, nil
	}

	order.UpdatedAt = now
	return true, nil
}
