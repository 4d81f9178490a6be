package service

import (
	"context"

	"storefront/background-worker-service/internal/app/background-worker/entity"
)

// OrderEventServiceInterface обрабатывает события заказов из Kafka
type OrderEventServiceInterface interface {
	ProcessOrderEvent(ctx context.Context, event *entity.OrderEvent) error
}

// StockReportServiceInterface строит отчет о заканчивающихся вариантах
type StockReportServiceInterface interface {
	RunLowStockReport(ctx context.Context) (*entity.LowStockReport, error)
}

// CacheInvalidator сбрасывает закешированные опции фильтров каталога (pkg/cache.Client)
type CacheInvalidator interface {
	InvalidateFilterOptions(ctx context.Context, reason string) (int, error)
}
