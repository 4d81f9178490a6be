package service

import (
	"context"

	"storefront/catalog-service/internal/app/catalog/entity"
)

// CatalogServiceInterface - операции каталога, которые используют handlers
type CatalogServiceInterface interface {
	ListProducts(ctx context.Context, params ListParams) (*entity.ProductList, error)
	ListProductsForAdmin(ctx context.Context, params ListParams) (*entity.ProductList, error)
	FiltersForCategory(ctx context.Context, slug string) (*entity.FilterOptions, error)
	GetProduct(ctx context.Context, id int64) (*entity.Product, error)
}

var _ CatalogServiceInterface = (*CatalogService)(nil)
