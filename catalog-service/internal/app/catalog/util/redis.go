package util

import (
	"context"
	"errors"
	"fmt"
	"time"

	"storefront/catalog-service/internal/app/catalog/entity"
	"storefront/pkg/cache"
)

// CatalogCache - типизированный кеш каталога поверх pkg/cache
type CatalogCache struct {
	client      *cache.Client
	categoryTTL time.Duration
	filtersTTL  time.Duration
}

func NewCatalogCache(client *cache.Client, categoryTTL, filtersTTL time.Duration) *CatalogCache {
	return &CatalogCache{
		client:      client,
		categoryTTL: categoryTTL,
		filtersTTL:  filtersTTL,
	}
}

// GetCategories возвращает (nil, nil) при промахе
func (c *CatalogCache) GetCategories(ctx context.Context) ([]entity.Category, error) {
	var categories []entity.Category
	if err := c.client.GetJSON(ctx, cache.CategoriesKey, &categories); err != nil {
		if errors.Is(err, cache.ErrMiss) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get categories from cache: %w", err)
	}
	return categories, nil
}

func (c *CatalogCache) SetCategories(ctx context.Context, categories []entity.Category) error {
	return c.client.SetJSON(ctx, cache.CategoriesKey, categories, c.categoryTTL)
}

// GetFilterOptions возвращает (nil, nil) при промахе
func (c *CatalogCache) GetFilterOptions(ctx context.Context, slug string) (*entity.FilterOptions, error) {
	var opts entity.FilterOptions
	if err := c.client.GetJSON(ctx, cache.FiltersKey(slug), &opts); err != nil {
		if errors.Is(err, cache.ErrMiss) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get filter options from cache: %w", err)
	}
	return &opts, nil
}

func (c *CatalogCache) SetFilterOptions(ctx context.Context, slug string, opts *entity.FilterOptions) error {
	return c.client.SetJSON(ctx, cache.FiltersKey(slug), opts, c.filtersTTL)
}
