package entity

// CheckoutRequest - тело POST /api/checkout.
// Пустая корзина и неположительное количество проверяются в сервисе,
// верхний предел количества совпадает с MaxCartLineQuantity.
type CheckoutRequest struct {
	Name            string     `json:"name" validate:"required,max=255"`
	Phone           string     `json:"phone" validate:"required,max=50"`
	ShippingAddress string     `json:"shipping_address" validate:"max=1000"`
	ShippingCity    string     `json:"shipping_city" validate:"required,max=100"`
	ShippingCountry string     `json:"shipping_country" validate:"omitempty,len=2,alpha"`
	Notes           string     `json:"notes" validate:"max=2000"`
	Cart            []CartLine `json:"cart" validate:"dive"`
}

type CartLine struct {
	VariantID int64 `json:"variant_id" validate:"required"`
	Quantity  int   `json:"quantity" validate:"lte=10000"`
}

// UpdateStatusRequest - тело PATCH /api/admin/orders/:id/status.
// Допустимость значения проверяет сервис (400 при неизвестном статусе).
type UpdateStatusRequest struct {
	Status OrderStatus `json:"status" validate:"required"`
}
