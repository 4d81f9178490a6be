package service

import (
	"context"

	"storefront/orders-service/internal/app/orders/entity"
)

type CheckoutServiceInterface interface {
	PlaceOrder(ctx context.Context, req *entity.CheckoutRequest) (*entity.Order, error)
}

type OrderServiceInterface interface {
	GetOrder(ctx context.Context, orderID int64) (*entity.Order, error)
	UpdateStatus(ctx context.Context, orderID int64, newStatus entity.OrderStatus) (*entity.Order, error)
}
