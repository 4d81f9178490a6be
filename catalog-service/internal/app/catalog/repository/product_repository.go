package repository

import (
	"context"
	"errors"
	"fmt"

	"storefront/catalog-service/internal/app/catalog/entity"
	"storefront/catalog-service/internal/app/catalog/filter"
	"storefront/pkg/metrics"

	"gorm.io/gorm"
)

type productRepository struct {
	db *gorm.DB
}

// NewProductRepository создает новый репозиторий товаров
func NewProductRepository(db *gorm.DB) ProductRepository {
	return &productRepository{db: db}
}

// filtered строит запрос по products с фильтрами, без сортировки и пагинации
func (r *productRepository) filtered(ctx context.Context, q ProductQuery) *gorm.DB {
	db := r.db.WithContext(ctx).Model(&entity.Product{})
	if q.CategoryIDs != nil {
		db = db.Where("products.category_id IN ?", q.CategoryIDs)
	}
	return q.Criteria.Scope(q.Mode)(db)
}

// List возвращает страницу товаров и общее количество подходящих товаров.
// Количество считается до сортировки и пагинации, поэтому от них не зависит.
func (r *productRepository) List(ctx context.Context, q ProductQuery) ([]entity.Product, int64, error) {
	timer := metrics.NewDbTimer(serviceName, metrics.DbOpSelect, "products")
	defer timer.ObserveDuration()

	if q.CategoryIDs != nil && len(q.CategoryIDs) == 0 {
		return []entity.Product{}, 0, nil
	}

	var total int64
	if err := r.filtered(ctx, q).Distinct("products.id").Count(&total).Error; err != nil {
		metrics.RecordDbError(serviceName, metrics.DbOpSelect)
		return nil, 0, fmt.Errorf("failed to count products: %w", err)
	}
	if total == 0 || q.Limit <= 0 {
		return []entity.Product{}, total, nil
	}

	page := r.filtered(ctx, q).Select("products.*")
	page = r.applySort(page, q.Sort, q.Mode)

	var products []entity.Product
	err := withDetails(page).
		Offset(q.Skip).
		Limit(q.Limit).
		Find(&products).Error
	if err != nil {
		metrics.RecordDbError(serviceName, metrics.DbOpSelect)
		return nil, 0, fmt.Errorf("failed to list products: %w", err)
	}

	return products, total, nil
}

// applySort добавляет ORDER BY; id в конце дает стабильную пагинацию
func (r *productRepository) applySort(db *gorm.DB, sort entity.SortOption, mode filter.Mode) *gorm.DB {
	switch sort {
	case entity.SortNameAsc:
		return db.Order("products.name ASC").Order("products.id ASC")
	case entity.SortNameDesc:
		return db.Order("products.name DESC").Order("products.id ASC")
	case entity.SortPriceAsc, entity.SortPriceDesc:
		minPrice := r.db.Model(&entity.Variant{}).
			Select("product_id, MIN(price) AS min_price").
			Group("product_id")
		if mode == filter.Public {
			minPrice = minPrice.Where("status = ? AND stock > 0", entity.VariantStatusActive)
		}

		direction := "ASC"
		if sort == entity.SortPriceDesc {
			direction = "DESC"
		}
		// товары без цены (нет подходящих вариантов) уходят в конец
		return db.Joins("LEFT JOIN (?) AS mp ON mp.product_id = products.id", minPrice).
			Order("mp.min_price IS NULL").
			Order("mp.min_price " + direction).
			Order("products.id ASC")
	default:
		return db.Order("products.created_at DESC").Order("products.id DESC")
	}
}

func withDetails(db *gorm.DB) *gorm.DB {
	return db.
		Preload("Brand").
		Preload("Category").
		Preload("Images", func(db *gorm.DB) *gorm.DB { return db.Order("product_images.id ASC") }).
		Preload("Variants", func(db *gorm.DB) *gorm.DB { return db.Order("product_variants.id ASC") }).
		Preload("Variants.Attributes.Attribute")
}

// GetByID получает товар со всеми вариантами, независимо от статуса и остатка
func (r *productRepository) GetByID(ctx context.Context, id int64) (*entity.Product, error) {
	timer := metrics.NewDbTimer(serviceName, metrics.DbOpSelect, "products")
	defer timer.ObserveDuration()

	var product entity.Product
	err := withDetails(r.db.WithContext(ctx)).First(&product, "products.id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProductNotFound
		}
		metrics.RecordDbError(serviceName, metrics.DbOpSelect)
		return nil, fmt.Errorf("failed to get product: %w", err)
	}

	return &product, nil
}

// BrandsForCategories - бренды товаров из категорий, у которых есть вариант в продаже
func (r *productRepository) BrandsForCategories(ctx context.Context, categoryIDs []int64) ([]entity.Brand, error) {
	timer := metrics.NewDbTimer(serviceName, metrics.DbOpSelect, "brands")
	defer timer.ObserveDuration()

	if len(categoryIDs) == 0 {
		return []entity.Brand{}, nil
	}

	productBrands := filter.PurchasableScope(
		r.db.Model(&entity.Product{}).
			Select("products.brand_id").
			Where("products.category_id IN ?", categoryIDs).
			Where("products.brand_id IS NOT NULL"),
	)

	brands := []entity.Brand{}
	err := r.db.WithContext(ctx).
		Where("brands.id IN (?)", productBrands).
		Order("brands.name ASC").
		Find(&brands).Error
	if err != nil {
		metrics.RecordDbError(serviceName, metrics.DbOpSelect)
		return nil, fmt.Errorf("failed to get brands for categories: %w", err)
	}

	return brands, nil
}

// SizesForCategories - различные размеры среди вариантов в продаже (без сортировки)
func (r *productRepository) SizesForCategories(ctx context.Context, categoryIDs []int64) ([]string, error) {
	timer := metrics.NewDbTimer(serviceName, metrics.DbOpSelect, "attributes")
	defer timer.ObserveDuration()

	if len(categoryIDs) == 0 {
		return []string{}, nil
	}

	sizes := []string{}
	err := r.db.WithContext(ctx).
		Table("attributes AS a").
		Joins("JOIN variant_attributes va ON va.attribute_id = a.id").
		Joins("JOIN product_variants v ON v.id = va.variant_id").
		Joins("JOIN products p ON p.id = v.product_id").
		Where("a.type = ?", entity.AttributeTypeSize).
		Where("p.category_id IN ?", categoryIDs).
		Where("v.status = ? AND v.stock > 0", entity.VariantStatusActive).
		Distinct().
		Pluck("a.value", &sizes).Error
	if err != nil {
		metrics.RecordDbError(serviceName, metrics.DbOpSelect)
		return nil, fmt.Errorf("failed to get sizes for categories: %w", err)
	}

	return sizes, nil
}
