package repository

import (
	"context"
	"time"

	"storefront/orders-service/internal/app/orders/entity"
	"storefront/pkg/metrics"

	"gorm.io/gorm"
)

type variantRepository struct {
	db *gorm.DB
}

func NewVariantRepository(db *gorm.DB) VariantRepository {
	return &variantRepository{db: db}
}

func (r *variantRepository) GetForCheckout(ctx context.Context, ids []int64) (map[int64]entity.CheckoutVariant, error) {
	out := make(map[int64]entity.CheckoutVariant, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	timer := metrics.NewDbTimer(serviceName, metrics.DbOpSelect, "product_variants")
	defer timer.ObserveDuration()

	var rows []entity.CheckoutVariant
	err := r.db.WithContext(ctx).
		Table("product_variants AS v").
		Select("v.id, v.product_id, p.name AS product_name, v.status, v.price, v.stock, v.version").
		Joins("JOIN products p ON p.id = v.product_id").
		Where("v.id IN ?", ids).
		Scan(&rows).Error
	if err != nil {
		metrics.RecordDbError(serviceName, metrics.DbOpSelect)
		return nil, translateError(err)
	}

	for _, row := range rows {
		out[row.ID] = row
	}
	return out, nil
}

func (r *variantRepository) DecrementStock(ctx context.Context, observed entity.CheckoutVariant, qty int) (int64, error) {
	timer := metrics.NewDbTimer(serviceName, metrics.DbOpUpdate, "product_variants")
	defer timer.ObserveDuration()

	result := r.db.WithContext(ctx).
		Model(&entity.Variant{}).
		Where("id = ? AND stock = ? AND version = ?", observed.ID, observed.Stock, observed.Version).
		Updates(map[string]interface{}{
			"stock":      observed.Stock - qty,
			"version":    gorm.Expr("version + 1"),
			"updated_at": time.Now(),
		})
	if result.Error != nil {
		metrics.RecordDbError(serviceName, metrics.DbOpUpdate)
		return 0, translateError(result.Error)
	}
	return result.RowsAffected, nil
}

func (r *variantRepository) IncrementStock(ctx context.Context, variantID int64, qty int) (int64, error) {
	timer := metrics.NewDbTimer(serviceName, metrics.DbOpUpdate, "product_variants")
	defer timer.ObserveDuration()

	result := r.db.WithContext(ctx).
		Model(&entity.Variant{}).
		Where("id = ?", variantID).
		Updates(map[string]interface{}{
			"stock":      gorm.Expr("stock + ?", qty),
			"version":    gorm.Expr("version + 1"),
			"updated_at": time.Now(),
		})
	if result.Error != nil {
		metrics.RecordDbError(serviceName, metrics.DbOpUpdate)
		return 0, translateError(result.Error)
	}
	return result.RowsAffected, nil
}
