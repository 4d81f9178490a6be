package mocks

import (
	"context"

	"storefront/background-worker-service/internal/app/background-worker/entity"

	"github.com/stretchr/testify/mock"
)

// MockStockRepository мок для StockRepository
type MockStockRepository struct {
	mock.Mock
}

func (m *MockStockRepository) CountLowStock(ctx context.Context, threshold int) (int64, error) {
	args := m.Called(ctx, threshold)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockStockRepository) ListLowStock(ctx context.Context, threshold, limit int) ([]entity.LowStockVariant, error) {
	args := m.Called(ctx, threshold, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.LowStockVariant), args.Error(1)
}

// MockReportRepository мок для ReportRepository
type MockReportRepository struct {
	mock.Mock
}

func (m *MockReportRepository) Save(ctx context.Context, report *entity.LowStockReport) error {
	args := m.Called(ctx, report)
	return args.Error(0)
}

func (m *MockReportRepository) Latest(ctx context.Context) (*entity.LowStockReport, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.LowStockReport), args.Error(1)
}

// MockCacheInvalidator мок для инвалидации кеша фильтров каталога
type MockCacheInvalidator struct {
	mock.Mock
}

func (m *MockCacheInvalidator) InvalidateFilterOptions(ctx context.Context, reason string) (int, error) {
	args := m.Called(ctx, reason)
	return args.Int(0), args.Error(1)
}
