package util

import (
	"context"
	"testing"
	"time"

	"storefront/catalog-service/internal/app/catalog/entity"
	"storefront/pkg/cache"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCache(t *testing.T) (*CatalogCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := cache.New(redis.NewClient(&redis.Options{Addr: mr.Addr()}), "catalog-test")
	return NewCatalogCache(client, time.Hour, time.Minute), mr
}

func TestCatalogCache_CategoriesRoundTrip(t *testing.T) {
	// Arrange
	c, mr := newTestCache(t)
	ctx := context.Background()
	parent := int64(1)
	rows := []entity.Category{{ID: 1, Name: "Одежда", Slug: "clothes"}, {ID: 2, Name: "Футболки", Slug: "t-shirts", ParentID: &parent}}

	// Act
	miss, err := c.GetCategories(ctx)
	require.NoError(t, err)
	require.NoError(t, c.SetCategories(ctx, rows))
	hit, err := c.GetCategories(ctx)

	// Assert
	require.NoError(t, err)
	assert.Nil(t, miss)
	assert.Equal(t, rows, hit)
	assert.Equal(t, time.Hour, mr.TTL(cache.CategoriesKey))
}

func TestCatalogCache_FilterOptionsUsePerSlugKeys(t *testing.T) {
	c, mr := newTestCache(t)
	ctx := context.Background()
	opts := &entity.FilterOptions{
		Brands:        []entity.Brand{{ID: 1, Name: "Nike", Slug: "nike"}},
		Sizes:         []string{"M", "42"},
		Subcategories: []entity.CategoryRef{{Name: "Поло", Slug: "polo"}},
	}

	require.NoError(t, c.SetFilterOptions(ctx, "clothes", opts))
	got, err := c.GetFilterOptions(ctx, "clothes")
	other, otherErr := c.GetFilterOptions(ctx, "shoes")

	require.NoError(t, err)
	require.NoError(t, otherErr)
	assert.Equal(t, opts, got)
	assert.Nil(t, other)
	assert.Equal(t, time.Minute, mr.TTL("catalog:filters:clothes"))
}

func TestCatalogCache_FilterOptionsExpireWithoutInvalidation(t *testing.T) {
	// Arrange: событий об остатках нет, устаревание ограничено только TTL
	c, mr := newTestCache(t)
	ctx := context.Background()
	require.NoError(t, c.SetFilterOptions(ctx, "clothes", &entity.FilterOptions{Sizes: []string{"M"}}))

	// Act
	mr.FastForward(59 * time.Second)
	beforeExpiry, err := c.GetFilterOptions(ctx, "clothes")
	require.NoError(t, err)
	mr.FastForward(2 * time.Second)
	afterExpiry, err := c.GetFilterOptions(ctx, "clothes")

	// Assert
	require.NoError(t, err)
	assert.NotNil(t, beforeExpiry)
	assert.Nil(t, afterExpiry)
}
