package service

import (
	"context"
	"fmt"
	"time"

	"storefront/background-worker-service/internal/app/background-worker/entity"
	"storefront/background-worker-service/internal/app/background-worker/repository"
	"storefront/pkg/logger"
	"storefront/pkg/metrics"
)

// StockReportService считает активные варианты с заканчивающимся остатком
type StockReportService struct {
	stockRepo  repository.StockRepository
	reportRepo repository.ReportRepository
	threshold  int
	limit      int
	now        func() time.Time
}

func NewStockReportService(
	stockRepo repository.StockRepository,
	reportRepo repository.ReportRepository,
	threshold int,
	limit int,
) *StockReportService {
	return &StockReportService{
		stockRepo:  stockRepo,
		reportRepo: reportRepo,
		threshold:  threshold,
		limit:      limit,
		now:        time.Now,
	}
}

// RunLowStockReport обновляет gauge catalog_low_stock_variants и сохраняет отчет.
// Ошибка записи в Redis не роняет отчет.
func (s *StockReportService) RunLowStockReport(ctx context.Context) (*entity.LowStockReport, error) {
	total, err := s.stockRepo.CountLowStock(ctx, s.threshold)
	if err != nil {
		return nil, fmt.Errorf("failed to count low stock: %w", err)
	}
	metrics.CatalogLowStockVariants.Set(float64(total))

	report := &entity.LowStockReport{
		Threshold:   s.threshold,
		Total:       total,
		GeneratedAt: s.now().UTC(),
	}

	if total > 0 && s.limit > 0 {
		lowest, err := s.stockRepo.ListLowStock(ctx, s.threshold, s.limit)
		if err != nil {
			return nil, fmt.Errorf("failed to list low stock: %w", err)
		}
		report.Lowest = lowest
	}

	for _, v := range report.Lowest {
		event := logger.Warn().
			Int64("variant_id", v.VariantID).
			Str("product", v.ProductName).
			Int("stock", v.Stock)
		if v.SKU != nil {
			event = event.Str("sku", *v.SKU)
		}
		event.Msg("variant is running low")
	}

	if err := s.reportRepo.Save(ctx, report); err != nil {
		logger.Error().Err(err).Msg("failed to save low stock report")
	}

	logger.Info().
		Int64("total", total).
		Int("threshold", s.threshold).
		Msg("low stock report completed")

	return report, nil
}
