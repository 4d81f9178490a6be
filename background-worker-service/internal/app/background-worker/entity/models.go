package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// События топика order_events, публикуемые orders-service
const (
	EventTypeOrderCreated       = "ORDER_CREATED"
	EventTypeOrderStatusChanged = "ORDER_STATUS_CHANGED"
)

type OrderEventItem struct {
	VariantID int64 `json:"variant_id"`
	Quantity  int   `json:"quantity"`
}

type OrderEvent struct {
	EventID        string           `json:"event_id"`
	EventType      string           `json:"event_type"`
	OrderID        int64            `json:"order_id"`
	Status         string           `json:"status"`
	PreviousStatus string           `json:"previous_status,omitempty"`
	TotalAmount    decimal.Decimal  `json:"total_amount"`
	Items          []OrderEventItem `json:"items"`
	StockRestored  bool             `json:"stock_restored,omitempty"`
	Timestamp      time.Time        `json:"timestamp"`
}

// ChangesPurchasableStock - событие могло изменить набор доступных размеров и брендов
func (e *OrderEvent) ChangesPurchasableStock() bool {
	switch e.EventType {
	case EventTypeOrderCreated:
		return true
	case EventTypeOrderStatusChanged:
		return e.StockRestored
	}
	return false
}

// LowStockVariant - активный вариант с заканчивающимся остатком
type LowStockVariant struct {
	VariantID   int64   `json:"variant_id"`
	SKU         *string `json:"sku,omitempty"`
	ProductName string  `json:"product_name"`
	Stock       int     `json:"stock"`
}

// LowStockReport - результат последнего прогона cron задачи
type LowStockReport struct {
	Threshold   int               `json:"threshold"`
	Total       int64             `json:"total"`
	Lowest      []LowStockVariant `json:"lowest"`
	GeneratedAt time.Time         `json:"generated_at"`
}

const VariantStatusActive = "active"
