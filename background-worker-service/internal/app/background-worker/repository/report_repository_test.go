package repository

import (
	"context"
	"testing"
	"time"

	"storefront/background-worker-service/internal/app/background-worker/entity"
	"storefront/pkg/cache"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newReportRepo(t *testing.T) (ReportRepository, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := cache.New(redis.NewClient(&redis.Options{Addr: mr.Addr()}), "worker-test")
	t.Cleanup(func() { _ = client.Close() })
	return NewReportRepository(client, 30*time.Minute), mr
}

func TestReportRepository_SaveAndLatest(t *testing.T) {
	// Arrange
	repo, mr := newReportRepo(t)
	ctx := context.Background()
	sku := "TS-M"
	report := &entity.LowStockReport{
		Threshold:   5,
		Total:       2,
		Lowest:      []entity.LowStockVariant{{VariantID: 2, SKU: &sku, ProductName: "Футболка", Stock: 1}},
		GeneratedAt: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC),
	}

	// Act
	require.NoError(t, repo.Save(ctx, report))
	got, err := repo.Latest(ctx)

	// Assert
	require.NoError(t, err)
	assert.Equal(t, int64(2), got.Total)
	assert.Equal(t, "TS-M", *got.Lowest[0].SKU)
	assert.True(t, report.GeneratedAt.Equal(got.GeneratedAt))
	assert.Equal(t, 30*time.Minute, mr.TTL(LowStockReportKey))
}

func TestReportRepository_LatestMissing(t *testing.T) {
	repo, _ := newReportRepo(t)

	_, err := repo.Latest(context.Background())

	assert.ErrorIs(t, err, ErrReportNotFound)
}

func TestReportRepository_Expired(t *testing.T) {
	repo, mr := newReportRepo(t)
	ctx := context.Background()
	require.NoError(t, repo.Save(ctx, &entity.LowStockReport{Threshold: 5}))

	mr.FastForward(31 * time.Minute)
	_, err := repo.Latest(ctx)

	assert.ErrorIs(t, err, ErrReportNotFound)
}
