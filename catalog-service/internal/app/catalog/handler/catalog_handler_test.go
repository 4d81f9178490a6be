package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"storefront/catalog-service/internal/app/catalog/entity"
	"storefront/catalog-service/internal/app/catalog/filter"
	"storefront/catalog-service/internal/app/catalog/repository"
	"storefront/catalog-service/internal/app/catalog/repository/mocks"
	"storefront/catalog-service/internal/app/catalog/service"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func init() {
	gin.SetMode(gin.TestMode)
}

// Хелперы для создания тестового окружения

func setupTestRouter() (*gin.Engine, *mocks.MockCategoryRepository, *mocks.MockProductRepository) {
	categoryRepo := new(mocks.MockCategoryRepository)
	productRepo := new(mocks.MockProductRepository)

	catalogService := service.NewCatalogService(categoryRepo, productRepo, nil, service.DefaultPagination)
	router := SetupRoutes(NewCatalogHandler(catalogService), NewAuthMiddleware(testSecret), []string{"http://localhost:3000"})

	return router, categoryRepo, productRepo
}

func signToken(t *testing.T, role string, secret string) string {
	t.Helper()
	claims := JWTClaims{
		UserID:   "42",
		RoleName: role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return token
}

func doRequest(router *gin.Engine, method, url, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, url, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func sampleProduct() entity.Product {
	return entity.Product{
		ID:   1,
		Name: "Футболка",
		Slug: "tee",
		Variants: []entity.Variant{{
			ID:     10,
			Price:  decimal.RequireFromString("29.99"),
			Stock:  100,
			Status: entity.VariantStatusActive,
			Attributes: []entity.VariantAttribute{
				{AttributeID: 1, Attribute: entity.Attribute{ID: 1, Type: entity.AttributeTypeSize, Value: "M"}},
			},
		}},
	}
}

// ==================== Public listing ====================

func TestCatalogHandler_ListProducts_ParsesFilters(t *testing.T) {
	// Arrange
	router, _, productRepo := setupTestRouter()

	var captured repository.ProductQuery
	productRepo.On("List", mock.Anything, mock.AnythingOfType("repository.ProductQuery")).
		Run(func(args mock.Arguments) { captured = args.Get(1).(repository.ProductQuery) }).
		Return([]entity.Product{sampleProduct()}, int64(1), nil)

	// Act
	w := doRequest(router, http.MethodGet, "/api/products?min_price=20&max_price=40&sizes=M&sizes=L&brands=nike&sort_by=price_asc&skip=0", "")

	// Assert
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Products   []map[string]interface{} `json:"products"`
		TotalCount int64                    `json:"total_count"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, int64(1), body.TotalCount)
	assert.Len(t, body.Products, 1)

	assert.True(t, captured.Criteria.MinPrice.Equal(decimal.NewFromInt(20)))
	assert.True(t, captured.Criteria.MaxPrice.Equal(decimal.NewFromInt(40)))
	assert.Equal(t, []string{"M", "L"}, captured.Criteria.Sizes)
	assert.Equal(t, []string{"nike"}, captured.Criteria.BrandSlugs)
	assert.Equal(t, entity.SortPriceAsc, captured.Sort)
	assert.Equal(t, 12, captured.Limit)
	assert.Equal(t, filter.Public, captured.Mode)
}

func TestCatalogHandler_ListProducts_IgnoresAdminParams(t *testing.T) {
	router, _, productRepo := setupTestRouter()

	var captured repository.ProductQuery
	productRepo.On("List", mock.Anything, mock.AnythingOfType("repository.ProductQuery")).
		Run(func(args mock.Arguments) { captured = args.Get(1).(repository.ProductQuery) }).
		Return([]entity.Product{}, int64(0), nil)

	w := doRequest(router, http.MethodGet, "/api/products?status=inactive&max_stock=3", "")

	require.Equal(t, http.StatusOK, w.Code)
	assert.Nil(t, captured.Criteria.Status)
	assert.Nil(t, captured.Criteria.MaxStock)
}

func TestCatalogHandler_ListProducts_BadRequests(t *testing.T) {
	router, _, _ := setupTestRouter()

	cases := []string{
		"/api/products?min_price=50&max_price=10",
		"/api/products?min_price=abc",
		"/api/products?sort_by=random",
		"/api/products?limit=1000",
		"/api/products?skip=-1",
		"/api/products?min_price=-5",
	}
	for _, url := range cases {
		w := doRequest(router, http.MethodGet, url, "")
		assert.Equal(t, http.StatusBadRequest, w.Code, url)
	}
}

func TestCatalogHandler_ListProducts_InternalErrorHidesDetails(t *testing.T) {
	router, _, productRepo := setupTestRouter()
	productRepo.On("List", mock.Anything, mock.Anything).Return(nil, int64(0), errors.New("pq: relation does not exist"))

	w := doRequest(router, http.MethodGet, "/api/products", "")

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "relation")
}

// ==================== Admin listing ====================

func TestCatalogHandler_AdminProducts_RequiresToken(t *testing.T) {
	router, _, _ := setupTestRouter()

	w := doRequest(router, http.MethodGet, "/api/admin/products", "")

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestCatalogHandler_AdminProducts_RejectsWrongSecret(t *testing.T) {
	router, _, _ := setupTestRouter()

	w := doRequest(router, http.MethodGet, "/api/admin/products", signToken(t, "admin", "other-secret"))

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestCatalogHandler_AdminProducts_RequiresAdminRole(t *testing.T) {
	router, _, _ := setupTestRouter()

	w := doRequest(router, http.MethodGet, "/api/admin/products", signToken(t, "customer", testSecret))

	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestCatalogHandler_AdminProducts_StatusAndStock(t *testing.T) {
	// Arrange
	router, _, productRepo := setupTestRouter()

	var captured repository.ProductQuery
	productRepo.On("List", mock.Anything, mock.AnythingOfType("repository.ProductQuery")).
		Run(func(args mock.Arguments) { captured = args.Get(1).(repository.ProductQuery) }).
		Return([]entity.Product{}, int64(0), nil)

	// Act
	w := doRequest(router, http.MethodGet, "/api/admin/products?status=sold_out&max_stock=0", signToken(t, "admin", testSecret))

	// Assert
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, filter.Admin, captured.Mode)
	assert.Equal(t, 100, captured.Limit)
	require.NotNil(t, captured.Criteria.Status)
	assert.Equal(t, entity.VariantStatusSoldOut, *captured.Criteria.Status)
	require.NotNil(t, captured.Criteria.MaxStock)
	assert.Equal(t, 0, *captured.Criteria.MaxStock)
}

func TestCatalogHandler_AdminProducts_InvalidStatus(t *testing.T) {
	router, _, _ := setupTestRouter()

	w := doRequest(router, http.MethodGet, "/api/admin/products?status=lost", signToken(t, "admin", testSecret))

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

// ==================== Filters ====================

func TestCatalogHandler_GetFilters(t *testing.T) {
	// Arrange
	router, categoryRepo, productRepo := setupTestRouter()
	categoryRepo.On("ListAll", mock.Anything).Return([]entity.Category{{ID: 1, Name: "Обувь", Slug: "shoes"}}, nil)
	productRepo.On("BrandsForCategories", mock.Anything, []int64{1}).Return([]entity.Brand{{ID: 3, Name: "Adidas", Slug: "adidas"}}, nil)
	productRepo.On("SizesForCategories", mock.Anything, []int64{1}).Return([]string{"43", "42"}, nil)

	// Act
	w := doRequest(router, http.MethodGet, "/api/products/filters?category_slug=shoes", "")

	// Assert
	require.Equal(t, http.StatusOK, w.Code)
	var opts entity.FilterOptions
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &opts))
	assert.Equal(t, []string{"42", "43"}, opts.Sizes)
	assert.Equal(t, "adidas", opts.Brands[0].Slug)
	assert.Empty(t, opts.Subcategories)
}

func TestCatalogHandler_GetFilters_RequiresSlug(t *testing.T) {
	router, _, _ := setupTestRouter()

	w := doRequest(router, http.MethodGet, "/api/products/filters", "")

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

// ==================== Product by id ====================

func TestCatalogHandler_GetProduct(t *testing.T) {
	router, _, productRepo := setupTestRouter()
	p := sampleProduct()
	productRepo.On("GetByID", mock.Anything, int64(1)).Return(&p, nil)

	w := doRequest(router, http.MethodGet, "/api/products/1", "")

	require.Equal(t, http.StatusOK, w.Code)
	var got entity.Product
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, "tee", got.Slug)
	require.Len(t, got.Variants, 1)
	assert.Equal(t, "29.99", got.Variants[0].Price.StringFixed(2))
}

func TestCatalogHandler_GetProduct_NotFound(t *testing.T) {
	router, _, productRepo := setupTestRouter()
	productRepo.On("GetByID", mock.Anything, int64(99)).Return(nil, repository.ErrProductNotFound)

	w := doRequest(router, http.MethodGet, "/api/products/99", "")

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCatalogHandler_GetProduct_InvalidID(t *testing.T) {
	router, _, _ := setupTestRouter()

	w := doRequest(router, http.MethodGet, "/api/products/abc", "")

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCatalogHandler_AdminGetProduct(t *testing.T) {
	router, _, productRepo := setupTestRouter()
	p := sampleProduct()
	productRepo.On("GetByID", mock.Anything, int64(1)).Return(&p, nil)

	w := doRequest(router, http.MethodGet, "/api/admin/products/1", signToken(t, "admin", testSecret))

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestHealth(t *testing.T) {
	router, _, _ := setupTestRouter()

	w := doRequest(router, http.MethodGet, "/health", "")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), serviceName)
}
