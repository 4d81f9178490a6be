package repository

import (
	"context"
	"errors"

	"storefront/background-worker-service/internal/app/background-worker/entity"
)

const serviceName = "background-worker-service"

// ErrReportNotFound - отчет еще не строился или истек TTL
var ErrReportNotFound = errors.New("low stock report not found")

// StockRepository читает остатки вариантов из PostgreSQL
type StockRepository interface {
	// CountLowStock считает активные варианты с 0 < stock <= threshold
	CountLowStock(ctx context.Context, threshold int) (int64, error)

	// ListLowStock возвращает не больше limit вариантов с наименьшим остатком
	ListLowStock(ctx context.Context, threshold, limit int) ([]entity.LowStockVariant, error)
}

// ReportRepository хранит последний отчет об остатках в Redis
type ReportRepository interface {
	Save(ctx context.Context, report *entity.LowStockReport) error
	Latest(ctx context.Context) (*entity.LowStockReport, error)
}
