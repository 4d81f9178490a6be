package handler

import (
	"errors"
	"net/http"
	"strconv"

	"storefront/catalog-service/internal/app/catalog/entity"
	"storefront/catalog-service/internal/app/catalog/filter"
	"storefront/catalog-service/internal/app/catalog/service"
	"storefront/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

// CatalogHandler обрабатывает HTTP запросы каталога
type CatalogHandler struct {
	catalogService service.CatalogServiceInterface
	validator      *validator.Validate
}

// NewCatalogHandler создает новый обработчик каталога
func NewCatalogHandler(catalogService service.CatalogServiceInterface) *CatalogHandler {
	return &CatalogHandler{
		catalogService: catalogService,
		validator:      validator.New(),
	}
}

// ListProducts обрабатывает GET /api/products
func (h *CatalogHandler) ListProducts(c *gin.Context) {
	h.list(c, filter.Public)
}

// ListAdminProducts обрабатывает GET /api/admin/products (status, max_stock)
func (h *CatalogHandler) ListAdminProducts(c *gin.Context) {
	h.list(c, filter.Admin)
}

func (h *CatalogHandler) list(c *gin.Context, mode filter.Mode) {
	var q entity.ProductListQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid query parameters"})
		return
	}

	if err := h.validator.Struct(q); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": formatValidationError(err)})
		return
	}

	params, err := buildListParams(q, mode)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var result *entity.ProductList
	if mode == filter.Admin {
		result, err = h.catalogService.ListProductsForAdmin(c.Request.Context(), params)
	} else {
		result, err = h.catalogService.ListProducts(c.Request.Context(), params)
	}
	if err != nil {
		if errors.Is(err, service.ErrInvalidFilter) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		logger.Error().Err(err).Str("mode", mode.String()).Msg("failed to list products")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get products"})
		return
	}

	c.JSON(http.StatusOK, result)
}

// GetFilters обрабатывает GET /api/products/filters?category_slug=
func (h *CatalogHandler) GetFilters(c *gin.Context) {
	var q entity.FiltersQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid query parameters"})
		return
	}
	if err := h.validator.Struct(q); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": formatValidationError(err)})
		return
	}

	opts, err := h.catalogService.FiltersForCategory(c.Request.Context(), q.CategorySlug)
	if err != nil {
		logger.Error().Err(err).Str("slug", q.CategorySlug).Msg("failed to get filters")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get filters"})
		return
	}

	c.JSON(http.StatusOK, opts)
}

// GetProduct обрабатывает GET /api/products/:id и /api/admin/products/:id
func (h *CatalogHandler) GetProduct(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid product ID"})
		return
	}

	product, err := h.catalogService.GetProduct(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, service.ErrProductNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Product not found"})
			return
		}
		logger.Error().Err(err).Int64("product_id", id).Msg("failed to get product")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get product"})
		return
	}

	c.JSON(http.StatusOK, product)
}

// buildListParams переводит query параметры в параметры сервиса
func buildListParams(q entity.ProductListQuery, mode filter.Mode) (service.ListParams, error) {
	params := service.ListParams{
		CategorySlug: q.CategorySlug,
		Sort:         entity.ParseSort(q.SortBy),
		Skip:         q.Skip,
		Limit:        q.Limit,
		Criteria: filter.Criteria{
			Sizes:      q.Sizes,
			BrandSlugs: q.Brands,
		},
	}

	if q.MinPrice != "" {
		d, err := decimal.NewFromString(q.MinPrice)
		if err != nil {
			return params, errors.New("invalid min_price")
		}
		params.Criteria.MinPrice = &d
	}
	if q.MaxPrice != "" {
		d, err := decimal.NewFromString(q.MaxPrice)
		if err != nil {
			return params, errors.New("invalid max_price")
		}
		params.Criteria.MaxPrice = &d
	}

	if mode == filter.Admin {
		if q.Status != "" {
			status := entity.VariantStatus(q.Status)
			params.Criteria.Status = &status
		}
		params.Criteria.MaxStock = q.MaxStock
	}

	if err := params.Criteria.Validate(); err != nil {
		return params, err
	}

	return params, nil
}

func formatValidationError(err error) string {
	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) && len(validationErrors) > 0 {
		return validationErrors[0].Field() + " validation failed"
	}
	return "Validation failed"
}
