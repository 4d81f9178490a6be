package service

import (
	"context"
	"errors"
	"fmt"

	"storefront/catalog-service/internal/app/catalog/category"
	"storefront/catalog-service/internal/app/catalog/entity"
	"storefront/catalog-service/internal/app/catalog/filter"
	"storefront/catalog-service/internal/app/catalog/repository"
	"storefront/catalog-service/internal/app/catalog/util"
	"storefront/pkg/logger"
	"storefront/pkg/metrics"
)

var (
	// Ошибки бизнес-логики для обработки в handlers
	ErrProductNotFound = errors.New("product not found")
	ErrInvalidFilter   = errors.New("invalid filter")
)

// Pagination - размеры страниц для витрины и админки
type Pagination struct {
	PublicLimit int
	AdminLimit  int
	MaxLimit    int
}

// DefaultPagination - 12 товаров на витрине, 100 в админке
var DefaultPagination = Pagination{PublicLimit: 12, AdminLimit: 100, MaxLimit: 100}

// ListParams - параметры списка товаров. Limit == 0 означает размер по умолчанию.
type ListParams struct {
	CategorySlug string
	Criteria     filter.Criteria
	Sort         entity.SortOption
	Skip         int
	Limit        int
}

// CatalogService обрабатывает запросы каталога: списки, фильтры, карточка товара.
// Ничего не пишет в БД.
type CatalogService struct {
	categoryRepo repository.CategoryRepository
	productRepo  repository.ProductRepository
	cache        util.Cache // может быть nil, тогда все идет в БД
	pagination   Pagination
}

func NewCatalogService(
	categoryRepo repository.CategoryRepository,
	productRepo repository.ProductRepository,
	cache util.Cache,
	pagination Pagination,
) *CatalogService {
	if pagination.MaxLimit <= 0 {
		pagination = DefaultPagination
	}
	return &CatalogService{
		categoryRepo: categoryRepo,
		productRepo:  productRepo,
		cache:        cache,
		pagination:   pagination,
	}
}

// ListProducts - витрина: только товары, которые можно купить
func (s *CatalogService) ListProducts(ctx context.Context, params ListParams) (*entity.ProductList, error) {
	return s.list(ctx, params, filter.Public)
}

// ListProductsForAdmin - админка: все товары, доступны фильтры по статусу и остатку
func (s *CatalogService) ListProductsForAdmin(ctx context.Context, params ListParams) (*entity.ProductList, error) {
	return s.list(ctx, params, filter.Admin)
}

func (s *CatalogService) list(ctx context.Context, params ListParams, mode filter.Mode) (*entity.ProductList, error) {
	metrics.CatalogQueries.WithLabelValues(mode.String()).Inc()

	if err := params.Criteria.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidFilter, err)
	}
	criteria := params.Criteria.Normalize(mode)

	q := repository.ProductQuery{
		Criteria: criteria,
		Mode:     mode,
		Sort:     params.Sort,
	}
	q.Skip, q.Limit = s.page(params.Skip, params.Limit, mode)

	if params.CategorySlug != "" {
		tree, err := s.categoryTree(ctx)
		if err != nil {
			return nil, err
		}
		ids, ok := tree.DescendantAndSelfIDs(params.CategorySlug)
		if !ok {
			// неизвестная категория - пустой результат, а не ошибка
			return &entity.ProductList{Products: []entity.Product{}}, nil
		}
		q.CategoryIDs = ids
	}

	products, total, err := s.productRepo.List(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}

	return &entity.ProductList{
		Products:   criteria.Refine(products, mode),
		TotalCount: total,
	}, nil
}

func (s *CatalogService) page(skip, limit int, mode filter.Mode) (int, int) {
	if skip < 0 {
		skip = 0
	}
	if limit <= 0 {
		limit = s.pagination.PublicLimit
		if mode == filter.Admin {
			limit = s.pagination.AdminLimit
		}
	}
	if limit > s.pagination.MaxLimit {
		limit = s.pagination.MaxLimit
	}
	return skip, limit
}

// FiltersForCategory собирает подкатегории, бренды и размеры по всему поддереву.
// Бренды и размеры учитывают только варианты в продаже.
func (s *CatalogService) FiltersForCategory(ctx context.Context, slug string) (*entity.FilterOptions, error) {
	if s.cache != nil {
		cached, err := s.cache.GetFilterOptions(ctx, slug)
		if err != nil {
			logger.Warn().Err(err).Str("slug", slug).Msg("filter options cache read failed")
		} else if cached != nil {
			return cached, nil
		}
	}

	tree, err := s.categoryTree(ctx)
	if err != nil {
		return nil, err
	}

	opts := &entity.FilterOptions{
		Brands:        []entity.Brand{},
		Sizes:         []string{},
		Subcategories: []entity.CategoryRef{},
	}

	ids, ok := tree.DescendantAndSelfIDs(slug)
	if !ok {
		return opts, nil
	}

	for _, child := range tree.Children(slug) {
		opts.Subcategories = append(opts.Subcategories, entity.CategoryRef{Name: child.Name, Slug: child.Slug})
	}

	brands, err := s.productRepo.BrandsForCategories(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to get brands: %w", err)
	}
	opts.Brands = brands

	sizes, err := s.productRepo.SizesForCategories(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to get sizes: %w", err)
	}
	opts.Sizes = filter.SortSizes(sizes)

	if s.cache != nil {
		if err := s.cache.SetFilterOptions(ctx, slug, opts); err != nil {
			logger.Warn().Err(err).Str("slug", slug).Msg("failed to cache filter options")
		}
	}

	return opts, nil
}

// GetProduct возвращает товар со всеми вариантами
func (s *CatalogService) GetProduct(ctx context.Context, id int64) (*entity.Product, error) {
	product, err := s.productRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrProductNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to get product: %w", err)
	}
	return product, nil
}

// categoryTree строит дерево из кешированного плоского списка категорий
func (s *CatalogService) categoryTree(ctx context.Context) (*category.Tree, error) {
	if s.cache != nil {
		rows, err := s.cache.GetCategories(ctx)
		if err != nil {
			logger.Warn().Err(err).Msg("categories cache read failed")
		} else if rows != nil {
			return category.Build(rows), nil
		}
	}

	rows, err := s.categoryRepo.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load categories: %w", err)
	}

	if s.cache != nil {
		if err := s.cache.SetCategories(ctx, rows); err != nil {
			logger.Warn().Err(err).Msg("failed to cache categories")
		}
	}

	return category.Build(rows), nil
}
