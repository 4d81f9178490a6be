package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"storefront/background-worker-service/internal/app/background-worker/entity"
	"storefront/background-worker-service/internal/app/background-worker/repository/mocks"
	"storefront/pkg/metrics"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newReportService(stock *mocks.MockStockRepository, reports *mocks.MockReportRepository) *StockReportService {
	svc := NewStockReportService(stock, reports, 5, 10)
	svc.now = func() time.Time { return time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC) }
	return svc
}

func TestRunLowStockReport_Success(t *testing.T) {
	// Arrange
	stock := new(mocks.MockStockRepository)
	reports := new(mocks.MockReportRepository)
	svc := newReportService(stock, reports)
	ctx := context.Background()
	sku := "TS-M"

	stock.On("CountLowStock", ctx, 5).Return(int64(2), nil)
	stock.On("ListLowStock", ctx, 5, 10).Return([]entity.LowStockVariant{
		{VariantID: 2, SKU: &sku, ProductName: "Футболка", Stock: 1},
		{VariantID: 4, ProductName: "Кроссовки", Stock: 5},
	}, nil)
	reports.On("Save", ctx, mock.MatchedBy(func(r *entity.LowStockReport) bool {
		return r.Total == 2 && len(r.Lowest) == 2 && r.Threshold == 5
	})).Return(nil)

	// Act
	report, err := svc.RunLowStockReport(ctx)

	// Assert
	require.NoError(t, err)
	assert.Equal(t, int64(2), report.Total)
	assert.Equal(t, float64(2), testutil.ToFloat64(metrics.CatalogLowStockVariants))
	assert.Equal(t, time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC), report.GeneratedAt)
	stock.AssertExpectations(t)
	reports.AssertExpectations(t)
}

func TestRunLowStockReport_NothingLowSkipsList(t *testing.T) {
	stock := new(mocks.MockStockRepository)
	reports := new(mocks.MockReportRepository)
	svc := newReportService(stock, reports)

	stock.On("CountLowStock", mock.Anything, 5).Return(int64(0), nil)
	reports.On("Save", mock.Anything, mock.Anything).Return(nil)

	report, err := svc.RunLowStockReport(context.Background())

	require.NoError(t, err)
	assert.Empty(t, report.Lowest)
	assert.Equal(t, float64(0), testutil.ToFloat64(metrics.CatalogLowStockVariants))
	stock.AssertNotCalled(t, "ListLowStock", mock.Anything, mock.Anything, mock.Anything)
}

func TestRunLowStockReport_CountError(t *testing.T) {
	stock := new(mocks.MockStockRepository)
	reports := new(mocks.MockReportRepository)
	svc := newReportService(stock, reports)

	stock.On("CountLowStock", mock.Anything, 5).Return(int64(0), errors.New("connection refused"))

	_, err := svc.RunLowStockReport(context.Background())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to count low stock")
	reports.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

func TestRunLowStockReport_SaveErrorIsLogged(t *testing.T) {
	stock := new(mocks.MockStockRepository)
	reports := new(mocks.MockReportRepository)
	svc := newReportService(stock, reports)

	stock.On("CountLowStock", mock.Anything, 5).Return(int64(1), nil)
	stock.On("ListLowStock", mock.Anything, 5, 10).Return([]entity.LowStockVariant{{VariantID: 9, Stock: 1}}, nil)
	reports.On("Save", mock.Anything, mock.Anything).Return(errors.New("redis down"))

	report, err := svc.RunLowStockReport(context.Background())

	require.NoError(t, err)
	assert.Len(t, report.Lowest, 1)
}
