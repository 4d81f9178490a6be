package repository

import (
	"context"
	"errors"

	"storefront/orders-service/internal/app/orders/entity"
)

const serviceName = "orders-service"

var (
	ErrOrderNotFound = errors.New("order not found")
	// ErrStoreBusy - временный отказ хранилища (блокировка, сериализация, нет соединений).
	// Операцию можно повторить.
	ErrStoreBusy = errors.New("store is busy")
)

type OrderRepository interface {
	// Create сохраняет заказ вместе с позициями
	Create(ctx context.Context, order *entity.Order) error
	GetByID(ctx context.Context, id int64) (*entity.Order, error)
	// GetWithDetails загружает позиции, варианты, атрибуты, товары и изображения
	GetWithDetails(ctx context.Context, id int64) (*entity.Order, error)
	// UpdateStatus записывает order.Status (и даты отправки/доставки), только если
	// текущий статус в БД равен from. false - статус успели поменять.
	UpdateStatus(ctx context.Context, order *entity.Order, from entity.OrderStatus) (bool, error)
}

type OrderItemRepository interface {
	GetByOrderID(ctx context.Context, orderID int64) ([]entity.OrderItem, error)
}

type VariantRepository interface {
	// GetForCheckout читает варианты одним запросом вместе с именем товара.
	// Отсутствующие id просто не попадают в map.
	GetForCheckout(ctx context.Context, ids []int64) (map[int64]entity.CheckoutVariant, error)
	// DecrementStock списывает qty, если stock и version не изменились с момента чтения.
	// Возвращает число обновленных строк: 0 - гонка проиграна.
	DecrementStock(ctx context.Context, observed entity.CheckoutVariant, qty int) (int64, error)
	// IncrementStock безусловно возвращает qty на склад. 0 строк - варианта больше нет.
	IncrementStock(ctx context.Context, variantID int64, qty int) (int64, error)
}

// Repositories - набор репозиториев, привязанных к одной транзакции
type Repositories struct {
	Orders   OrderRepository
	Items    OrderItemRepository
	Variants VariantRepository
}

// TxManager выполняет fn в одной транзакции. Ошибка fn приводит к ROLLBACK.
type TxManager interface {
	WithinTransaction(ctx context.Context, fn func(ctx context.Context, repos Repositories) error) error
}
