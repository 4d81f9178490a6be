package service

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// Ошибки бизнес-логики для обработки в handlers
	ErrOrderNotFound       = errors.New("order not found")
	ErrInvalidOrderStatus  = errors.New("invalid order status")
	ErrOrderCancelled      = errors.New("order is cancelled")
	ErrOrderStatusConflict = errors.New("order status was changed concurrently")

	// Ошибки оформления заказа
	ErrInvalidCart       = errors.New("invalid cart")
	ErrOrderTooLarge     = errors.New("order amount exceeds the limit")
	ErrVariantNotFound   = errors.New("variant not found")
	ErrVariantInactive   = errors.New("variant is not available for purchase")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrStockChanged      = errors.New("stock changed during checkout")
	ErrStoreUnavailable  = errors.New("store temporarily unavailable")
)

// ValidationError - корзина не может быть оформлена. Повтор не поможет.
type ValidationError struct {
	Reason      error
	VariantID   int64
	ProductName string
	Requested   int
	Available   int
}

func (e *ValidationError) Error() string {
	switch {
	case errors.Is(e.Reason, ErrInsufficientStock):
		return fmt.Sprintf("insufficient stock for %q: requested %d, available %d", e.ProductName, e.Requested, e.Available)
	case errors.Is(e.Reason, ErrVariantInactive):
		return fmt.Sprintf("%q is not available for purchase", e.ProductName)
	case errors.Is(e.Reason, ErrVariantNotFound):
		return fmt.Sprintf("variant %d not found", e.VariantID)
	case e.VariantID != 0:
		return fmt.Sprintf("%v: variant %d quantity %d", e.Reason, e.VariantID, e.Requested)
	}
	return e.Reason.Error()
}

func (e *ValidationError) Unwrap() error {
	return e.Reason
}

// Code - машиночитаемый код для ответа API
func (e *ValidationError) Code() string {
	switch {
	case errors.Is(e.Reason, ErrInsufficientStock):
		return "insufficient_stock"
	case errors.Is(e.Reason, ErrVariantInactive):
		return "variant_inactive"
	case errors.Is(e.Reason, ErrVariantNotFound):
		return "variant_not_found"
	case errors.Is(e.Reason, ErrOrderTooLarge):
		return "order_too_large"
	}
	return "invalid_cart"
}

// ConflictError - остаток изменился конкурентно, попытки исчерпаны
type ConflictError struct {
	Products []string
}

func (e *ConflictError) Error() string {
	return "stock changed for: " + strings.Join(e.Products, ", ")
}

func (e *ConflictError) Unwrap() error {
	return ErrStockChanged
}
