package handler

import (
	"errors"
	"net/http"
	"strconv"

	"storefront/orders-service/internal/app/orders/entity"
	"storefront/orders-service/internal/app/orders/repository"
	"storefront/orders-service/internal/app/orders/service"
	"storefront/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

// OrderHandler обрабатывает HTTP запросы оформления и администрирования заказов
type OrderHandler struct {
	checkoutService service.CheckoutServiceInterface
	orderService    service.OrderServiceInterface
	validator       *validator.Validate
}

// NewOrderHandler создает новый обработчик заказов
func NewOrderHandler(checkoutService service.CheckoutServiceInterface, orderService service.OrderServiceInterface) *OrderHandler {
	return &OrderHandler{
		checkoutService: checkoutService,
		orderService:    orderService,
		validator:       validator.New(),
	}
}

// Checkout обрабатывает POST /api/checkout
func (h *OrderHandler) Checkout(c *gin.Context) {
	var req entity.CheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	if err := h.validator.Struct(req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": formatValidationError(err)})
		return
	}

	order, err := h.checkoutService.PlaceOrder(c.Request.Context(), &req)
	if err != nil {
		respondCheckoutError(c, err)
		return
	}

	c.JSON(http.StatusCreated, order)
}

// GetOrder обрабатывает GET /api/admin/orders/:id
func (h *OrderHandler) GetOrder(c *gin.Context) {
	orderID, ok := parseOrderID(c)
	if !ok {
		return
	}

	order, err := h.orderService.GetOrder(c.Request.Context(), orderID)
	if err != nil {
		if errors.Is(err, service.ErrOrderNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Order not found"})
			return
		}
		logger.Error().Err(err).Int64("order_id", orderID).Msg("failed to get order")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get order"})
		return
	}

	c.JSON(http.StatusOK, order)
}

// UpdateOrderStatus обрабатывает PATCH /api/admin/orders/:id/status
func (h *OrderHandler) UpdateOrderStatus(c *gin.Context) {
	orderID, ok := parseOrderID(c)
	if !ok {
		return
	}

	var req entity.UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}
	if err := h.validator.Struct(req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": formatValidationError(err)})
		return
	}

	order, err := h.orderService.UpdateStatus(c.Request.Context(), orderID, req.Status)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidOrderStatus):
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid order status"})
		case errors.Is(err, service.ErrOrderNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "Order not found"})
		case errors.Is(err, service.ErrOrderCancelled):
			c.JSON(http.StatusConflict, gin.H{"error": "Cancelled order cannot change status"})
		case errors.Is(err, service.ErrOrderStatusConflict):
			c.JSON(http.StatusConflict, gin.H{"error": "Order status was changed concurrently"})
		case errors.Is(err, repository.ErrStoreBusy):
			c.Header("Retry-After", "1")
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Service temporarily unavailable, please retry"})
		default:
			logger.Error().Err(err).Int64("order_id", orderID).Msg("failed to update order status")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update order status"})
		}
		return
	}

	c.JSON(http.StatusOK, order)
}

// respondCheckoutError переводит ошибки оформления в HTTP ответ.
// Детали хранилища остаются только в логах.
func respondCheckoutError(c *gin.Context, err error) {
	var validation *service.ValidationError
	var conflict *service.ConflictError

	switch {
	case errors.As(err, &validation):
		c.JSON(http.StatusConflict, gin.H{
			"error":      validation.Error(),
			"code":       validation.Code(),
			"variant_id": validation.VariantID,
			"product":    validation.ProductName,
			"requested":  validation.Requested,
			"available":  validation.Available,
		})
	case errors.As(err, &conflict):
		c.Header("Retry-After", "1")
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"error":    "Stock changed while placing the order, please retry",
			"code":     "stock_changed",
			"products": conflict.Products,
		})
	case errors.Is(err, service.ErrStoreUnavailable):
		c.Header("Retry-After", "1")
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"error": "Service temporarily unavailable, please retry",
			"code":  "store_unavailable",
		})
	default:
		logger.Error().Err(err).Msg("failed to place order")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to place order"})
	}
}

func parseOrderID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid order ID"})
		return 0, false
	}
	return id, true
}

func formatValidationError(err error) string {
	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) && len(validationErrors) > 0 {
		return validationErrors[0].Field() + " validation failed"
	}
	return "Validation failed"
}
