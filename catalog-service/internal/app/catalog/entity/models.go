package entity

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// VariantStatus - статус варианта товара
type VariantStatus string

const (
	VariantStatusActive       VariantStatus = "active"
	VariantStatusSoldOut      VariantStatus = "sold_out"
	VariantStatusInactive     VariantStatus = "inactive"
	VariantStatusDiscontinued VariantStatus = "discontinued"
)

// IsValid проверяет, что статус входит в допустимый набор
func (s VariantStatus) IsValid() bool {
	switch s {
	case VariantStatusActive, VariantStatusSoldOut, VariantStatusInactive, VariantStatusDiscontinued:
		return true
	}
	return false
}

// AttributeTypeSize - тип атрибута, по которому работает фильтр размеров
const AttributeTypeSize = "size"

var (
	ErrInvalidPrice = errors.New("variant price must be greater than zero")
	ErrInvalidStock = errors.New("variant stock must not be negative")
)

// Category - узел дерева категорий, хранится плоско через parent_id
type Category struct {
	ID       int64  `json:"id" gorm:"primaryKey"`
	Name     string `json:"name" gorm:"size:255;not null"`
	Slug     string `json:"slug" gorm:"size:255;not null;uniqueIndex"`
	ParentID *int64 `json:"parent_id,omitempty" gorm:"index"`
}

type Brand struct {
	ID   int64  `json:"id" gorm:"primaryKey"`
	Name string `json:"name" gorm:"size:255;not null;uniqueIndex"`
	Slug string `json:"slug" gorm:"size:255;not null;uniqueIndex"`
}

// Product - карточка товара с вариантами и изображениями
type Product struct {
	ID          int64     `json:"id" gorm:"primaryKey"`
	Name        string    `json:"name" gorm:"size:255;not null"`
	Slug        string    `json:"slug" gorm:"size:255;not null;uniqueIndex"`
	Description string    `json:"description" gorm:"type:text"`
	CategoryID  *int64    `json:"category_id,omitempty" gorm:"index"`
	BrandID     *int64    `json:"brand_id,omitempty" gorm:"index"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	Category *Category `json:"category,omitempty" gorm:"foreignKey:CategoryID"`
	Brand    *Brand    `json:"brand,omitempty" gorm:"foreignKey:BrandID"`
	Variants []Variant `json:"variants" gorm:"foreignKey:ProductID"`
	Images   []Image   `json:"images" gorm:"foreignKey:ProductID"`
}

// Variant - конкретная позиция товара (размер/цвет) со своей ценой и остатком.
// Version увеличивается при каждом изменении остатка.
type Variant struct {
	ID        int64           `json:"id" gorm:"primaryKey"`
	ProductID int64           `json:"product_id" gorm:"not null;index"`
	SKU       *string         `json:"sku,omitempty" gorm:"column:sku;size:100;uniqueIndex"`
	Status    VariantStatus   `json:"status" gorm:"size:20;not null;default:active;index:ix_variants_status_stock,priority:1"`
	Price     decimal.Decimal `json:"price" gorm:"type:numeric(10,2);not null"`
	Stock     int             `json:"stock" gorm:"not null;default:0;index:ix_variants_status_stock,priority:2"`
	Version   int64           `json:"-" gorm:"not null;default:1"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`

	Attributes []VariantAttribute `json:"attributes" gorm:"foreignKey:VariantID"`
}

func (Variant) TableName() string {
	return "product_variants"
}

// Purchasable - вариант можно купить прямо сейчас
func (v *Variant) Purchasable() bool {
	return v.Status == VariantStatusActive && v.Stock > 0
}

func (v *Variant) Validate() error {
	if !v.Price.IsPositive() {
		return ErrInvalidPrice
	}
	if v.Stock < 0 {
		return ErrInvalidStock
	}
	return nil
}

// AttributeValues возвращает значения атрибутов заданного типа
func (v *Variant) AttributeValues(attrType string) []string {
	var values []string
	for _, va := range v.Attributes {
		if va.Attribute.Type == attrType {
			values = append(values, va.Attribute.Value)
		}
	}
	return values
}

type Attribute struct {
	ID    int64  `json:"id" gorm:"primaryKey"`
	Type  string `json:"type" gorm:"size:50;not null;uniqueIndex:uq_attributes_type_value"`
	Value string `json:"value" gorm:"size:100;not null;uniqueIndex:uq_attributes_type_value"`
}

// VariantAttribute - связь вариант <-> атрибут
type VariantAttribute struct {
	VariantID   int64     `json:"-" gorm:"primaryKey"`
	AttributeID int64     `json:"attribute_id" gorm:"primaryKey"`
	Attribute   Attribute `json:"attribute" gorm:"foreignKey:AttributeID"`
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
