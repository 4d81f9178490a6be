package repository

import (
	"context"
	"errors"

	"storefront/pkg/metrics"

	"gorm.io/gorm"
)

type txManager struct {
	db *gorm.DB
}

func NewTxManager(db *gorm.DB) TxManager {
	return &txManager{db: db}
}

// NewRepositories собирает репозитории поверх db (или tx)
func NewRepositories(db *gorm.DB) Repositories {
	return Repositories{
		Orders:   NewOrderRepository(db),
		Items:    NewOrderItemRepository(db),
		Variants: NewVariantRepository(db),
	}
}

func (m *txManager) WithinTransaction(ctx context.Context, fn func(ctx context.Context, repos Repositories) error) error {
	timer := metrics.NewDbTimer(serviceName, metrics.DbOpTx, "orders")
	defer timer.ObserveDuration()

	err := m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(ctx, NewRepositories(tx))
	})
	if err != nil {
		err = translateError(err)
		if errors.Is(err, ErrStoreBusy) {
			metrics.RecordDbError(serviceName, metrics.DbOpTx)
		}
		return err
	}
	return nil
}
