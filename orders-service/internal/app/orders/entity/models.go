package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderStatus представляет статусы заказа
type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "pending"    // Ожидает обработки
	OrderStatusConfirmed  OrderStatus = "confirmed"  // Подтвержден
	OrderStatusProcessing OrderStatus = "processing" // Собирается
	OrderStatusShipped    OrderStatus = "shipped"    // Отправлен
	OrderStatusDelivered  OrderStatus = "delivered"  // Доставлен
	OrderStatusCancelled  OrderStatus = "cancelled"  // Отменен, остатки возвращены
	OrderStatusRefunded   OrderStatus = "refunded"   // Деньги возвращены
)

func (s OrderStatus) IsValid() bool {
	switch s {
	case OrderStatusPending, OrderStatusConfirmed, OrderStatusProcessing, OrderStatusShipped,
		OrderStatusDelivered, OrderStatusCancelled, OrderStatusRefunded:
		return true
	}
	return false
}

// DefaultShippingCountry - страна доставки, если покупатель ее не указал
const DefaultShippingCountry = "RU"

// MaxCartLineQuantity - предел количества одного варианта в заказе
const MaxCartLineQuantity = 10000

// MaxOrderAmount - наибольшая сумма, которую вмещает numeric(10,2)
var MaxOrderAmount = decimal.RequireFromString("99999999.99")

// Order представляет заказ в системе
type Order struct {
	ID              int64           `json:"id" gorm:"primaryKey"`
	Status          OrderStatus     `json:"status" gorm:"size:20;not null;default:pending;index"`
	TotalAmount     decimal.Decimal `json:"total_amount" gorm:"type:numeric(10,2);not null"`
	CustomerName    string          `json:"customer_name" gorm:"size:255;not null"`
	CustomerPhone   string          `json:"customer_phone" gorm:"size:50;not null"`
	ShippingAddress string          `json:"shipping_address" gorm:"type:text;not null;default:''"`
	ShippingCity    string          `json:"shipping_city" gorm:"size:100;not null"`
	ShippingCountry string          `json:"shipping_country" gorm:"size:2;not null;default:RU"`
	Notes           string          `json:"notes" gorm:"type:text;not null;default:''"`
	ShippedAt       *time.Time      `json:"shipped_at,omitempty"`
	DeliveredAt     *time.Time      `json:"delivered_at,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
	Items           []OrderItem     `json:"items,omitempty" gorm:"foreignKey:OrderID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// TableName указывает имя таблицы для GORM
func (Order) TableName() string {
	return "orders"
}

// OrderItem - позиция заказа. Цена фиксируется на момент покупки.
type OrderItem struct {
	ID         int64           `json:"id" gorm:"primaryKey"`
	OrderID    int64           `json:"order_id" gorm:"not null;index"`
	VariantID  int64           `json:"variant_id" gorm:"not null;index"`
	Quantity   int             `json:"quantity" gorm:"not null;check:quantity > 0"`
	UnitPrice  decimal.Decimal `json:"unit_price" gorm:"type:numeric(10,2);not null"`
	TotalPrice decimal.Decimal `json:"total_price" gorm:"type:numeric(10,2);not null"`

	// Имя товара на момент оформления, в БД не хранится
	ProductName string `json:"product_name,omitempty" gorm:"-"`

	Variant *Variant `json:"variant,omitempty" gorm:"foreignKey:VariantID"`
}

func (OrderItem) TableName() string {
	return "order_items"
}

// Variant - вариант товара, каким его видит сервис заказов: цена, остаток и версия.
// UpdatedAt выставляется явно в каждом UPDATE остатка.
type Variant struct {
	ID        int64           `json:"id" gorm:"primaryKey"`
	ProductID int64           `json:"product_id" gorm:"not null;index"`
	SKU       *string         `json:"sku,omitempty" gorm:"column:sku;size:100;uniqueIndex"`
	Status    string          `json:"status" gorm:"size:20;not null;default:active"`
	Price     decimal.Decimal `json:"price" gorm:"type:numeric(10,2);not null"`
	Stock     int             `json:"stock" gorm:"not null;default:0"`
	Version   int64           `json:"-" gorm:"not null;default:1"`
	CreatedAt time.Time       `json:"-"`
	UpdatedAt time.Time       `json:"-" gorm:"autoUpdateTime:false"`

	Product    *Product           `json:"product,omitempty" gorm:"foreignKey:ProductID"`
	Attributes []VariantAttribute `json:"attributes,omitempty" gorm:"foreignKey:VariantID"`
}

func (Variant) TableName() string {
	return "product_variants"
}

// VariantStatusActive - единственный статус, допускающий покупку
const VariantStatusActive = "active"

type Product struct {
	ID     int64   `json:"id" gorm:"primaryKey"`
	Name   string  `json:"name" gorm:"size:255;not null"`
	Slug   string  `json:"slug" gorm:"size:255;not null;uniqueIndex"`
	Images []Image `json:"images,omitempty" gorm:"foreignKey:ProductID"`
}

type Image struct {
	ID        int64  `json:"id" gorm:"primaryKey"`
	ProductID int64  `json:"product_id" gorm:"not null;index"`
	URL       string `json:"url" gorm:"column:url;size:500;not null"`
	FileSize  *int   `json:"file_size,omitempty"`
}

func (Image) TableName() string {
	return "product_images"
}

type Attribute struct {
	ID    int64  `json:"id" gorm:"primaryKey"`
	Type  string `json:"type" gorm:"size:50;not null"`
	Value string `json:"value" gorm:"size:100;not null"`
}

type VariantAttribute struct {
	VariantID   int64     `json:"-" gorm:"primaryKey"`
	AttributeID int64     `json:"attribute_id" gorm:"primaryKey"`
	Attribute   Attribute `json:"attribute" gorm:"foreignKey:AttributeID"`
}

// CheckoutVariant - снимок варианта, прочитанный в начале попытки оформления.
// Stock и Version используются как условие compare-and-swap при списании.
type CheckoutVariant struct {
	ID          int64
	ProductID   int64
	ProductName string
	Status      string
	Price       decimal.Decimal
	Stock       int
	Version     int64
}

const (
	EventOrderCreated       = "ORDER_CREATED"
	EventOrderStatusChanged = "ORDER_STATUS_CHANGED"
)

// OrderEvent представляет событие изменения заказа для Kafka
type OrderEvent struct {
	EventID        string           `json:"event_id"`
	EventType      string           `json:"event_type"`
	OrderID        int64            `json:"order_id"`
	Status         OrderStatus      `json:"status"`
	PreviousStatus OrderStatus      `json:"previous_status,omitempty"`
	TotalAmount    decimal.Decimal  `json:"total_amount"`
	Items          []OrderEventItem `json:"items"`
	StockRestored  bool             `json:"stock_restored"`
	Timestamp      time.Time        `json:"timestamp"`
}

type OrderEventItem struct {
	VariantID int64 `json:"variant_id"`
	Quantity  int   `json:"quantity"`
}
