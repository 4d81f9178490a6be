package repository

import (
	"context"
	"errors"

	"storefront/catalog-service/internal/app/catalog/entity"
	"storefront/catalog-service/internal/app/catalog/filter"
)

const serviceName = "catalog-service"

var (
	ErrProductNotFound = errors.New("product not found")
)

// ProductQuery - параметры выборки страницы товаров.
// CategoryIDs == nil означает весь каталог.
type ProductQuery struct {
	CategoryIDs []int64
	Criteria    filter.Criteria
	Mode        filter.Mode
	Sort        entity.SortOption
	Skip        int
	Limit       int
}

type CategoryRepository interface {
	ListAll(ctx context.Context) ([]entity.Category, error)
}

type ProductRepository interface {
	List(ctx context.Context, q ProductQuery) ([]entity.Product, int64, error)
	GetByID(ctx context.Context, id int64) (*entity.Product, error)
	BrandsForCategories(ctx context.Context, categoryIDs []int64) ([]entity.Brand, error)
	SizesForCategories(ctx context.Context, categoryIDs []int64) ([]string, error)
}
