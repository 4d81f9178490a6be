package repository

import (
	"context"
	"errors"
	"time"

	"storefront/background-worker-service/internal/app/background-worker/entity"
	"storefront/pkg/cache"
)

// LowStockReportKey - ключ последнего отчета об остатках
const LowStockReportKey = "worker:low_stock_report"

type reportRepository struct {
	cache *cache.Client
	ttl   time.Duration
}

// NewReportRepository создает хранилище отчетов в Redis с TTL
func NewReportRepository(client *cache.Client, ttl time.Duration) ReportRepository {
	return &reportRepository{cache: client, ttl: ttl}
}

func (r *reportRepository) Save(ctx context.Context, report *entity.LowStockReport) error {
	return r.cache.SetJSON(ctx, LowStockReportKey, report, r.ttl)
}

func (r *reportRepository) Latest(ctx context.Context) (*entity.LowStockReport, error) {
	var report entity.LowStockReport
	if err := r.cache.GetJSON(ctx, LowStockReportKey, &report); err != nil {
		if errors.Is(err, cache.ErrMiss) {
			return nil, ErrReportNotFound
		}
		return nil, err
	}
	return &report, nil
}
