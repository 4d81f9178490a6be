package util

import (
	"context"

	"storefront/catalog-service/internal/app/catalog/entity"
)

// Cache интерфейс для работы с Redis кешем каталога
// Используется для dependency injection и упрощения тестирования
type Cache interface {
	GetCategories(ctx context.Context) ([]entity.Category, error)
	SetCategories(ctx context.Context, categories []entity.Category) error
	GetFilterOptions(ctx context.Context, slug string) (*entity.FilterOptions, error)
	SetFilterOptions(ctx context.Context, slug string, opts *entity.FilterOptions) error
}

var _ Cache = (*CatalogCache)(nil)
