package repository

import (
	"context"
	"fmt"

	"storefront/background-worker-service/internal/app/background-worker/entity"
	"storefront/pkg/metrics"

	"gorm.io/gorm"
)

const lowStockCondition = "v.status = ? AND v.stock > 0 AND v.stock <= ?"

type stockRepository struct {
	db *gorm.DB
}

// NewStockRepository создает репозиторий остатков
func NewStockRepository(db *gorm.DB) StockRepository {
	return &stockRepository{db: db}
}

func (r *stockRepository) CountLowStock(ctx context.Context, threshold int) (int64, error) {
	timer := metrics.NewDbTimer(serviceName, metrics.DbOpSelect, "product_variants")
	defer timer.ObserveDuration()

	var total int64
	err := r.db.WithContext(ctx).
		Table("product_variants AS v").
		Where(lowStockCondition, entity.VariantStatusActive, threshold).
		Count(&total).Error
	if err != nil {
		metrics.RecordDbError(serviceName, metrics.DbOpSelect)
		return 0, fmt.Errorf("failed to count low stock variants: %w", err)
	}

	return total, nil
}

func (r *stockRepository) ListLowStock(ctx context.Context, threshold, limit int) ([]entity.LowStockVariant, error) {
	timer := metrics.NewDbTimer(serviceName, metrics.DbOpSelect, "product_variants")
	defer timer.ObserveDuration()

	var variants []entity.LowStockVariant
	err := r.db.WithContext(ctx).
		Table("product_variants AS v").
		Select("v.id AS variant_id, v.sku, p.name AS product_name, v.stock").
		Joins("JOIN products p ON p.id = v.product_id").
		Where(lowStockCondition, entity.VariantStatusActive, threshold).
		Order("v.stock ASC, v.id ASC").
		Limit(limit).
		Scan(&variants).Error
	if err != nil {
		metrics.RecordDbError(serviceName, metrics.DbOpSelect)
		return nil, fmt.Errorf("failed to list low stock variants: %w", err)
	}

	return variants, nil
}
