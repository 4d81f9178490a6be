package repository

import (
	"context"

	"storefront/orders-service/internal/app/orders/entity"
	"storefront/pkg/metrics"

	"gorm.io/gorm"
)

type orderItemRepository struct {
	db *gorm.DB
}

func NewOrderItemRepository(db *gorm.DB) OrderItemRepository {
	return &orderItemRepository{db: db}
}

func (r *orderItemRepository) GetByOrderID(ctx context.Context, orderID int64) ([]entity.OrderItem, error) {
	timer := metrics.NewDbTimer(serviceName, metrics.DbOpSelect, "order_items")
	defer timer.ObserveDuration()

	var items []entity.OrderItem
	result := r.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("id").
		Find(&items)

	if result.Error != nil {
		return nil, translateError(result.Error)
	}

	return items, nil
}
