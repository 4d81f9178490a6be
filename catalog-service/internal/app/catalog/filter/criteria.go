package filter

import (
	"errors"
	"strings"

	"storefront/catalog-service/internal/app/catalog/entity"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Mode - режим видимости: витрина или админка
type Mode int

const (
	// Public показывает только товары с вариантом в продаже (active и stock > 0)
	Public Mode = iota
	// Admin показывает все варианты и добавляет фильтры по статусу и остатку
	Admin
)

func (m Mode) String() string {
	if m == Admin {
		return "admin"
	}
	return "public"
}

var (
	ErrPriceRange    = errors.New("min_price must not exceed max_price")
	ErrNegativePrice = errors.New("price filter must not be negative")
	ErrNegativeStock = errors.New("max_stock must not be negative")
	ErrUnknownStatus = errors.New("unknown variant status")
)

// Criteria - фильтры каталога. Пустые поля означают отсутствие фильтра.
type Criteria struct {
	MinPrice   *decimal.Decimal
	MaxPrice   *decimal.Decimal
	Sizes      []string
	BrandSlugs []string
	// только для Admin
	Status   *entity.VariantStatus
	MaxStock *int
}

// Validate проверяет согласованность фильтров
func (c Criteria) Validate() error {
	if c.MinPrice != nil && c.MinPrice.IsNegative() {
		return ErrNegativePrice
	}
	if c.MaxPrice != nil && c.MaxPrice.IsNegative() {
		return ErrNegativePrice
	}
	if c.MinPrice != nil && c.MaxPrice != nil && c.MinPrice.GreaterThan(*c.MaxPrice) {
		return ErrPriceRange
	}
	if c.MaxStock != nil && *c.MaxStock < 0 {
		return ErrNegativeStock
	}
	if c.Status != nil && !c.Status.IsValid() {
		return ErrUnknownStatus
	}
	return nil
}

// Normalize убирает пустые и повторяющиеся значения, а в режиме Public
// отбрасывает фильтры админки
func (c Criteria) Normalize(mode Mode) Criteria {
	out := Criteria{
		MinPrice:   c.MinPrice,
		MaxPrice:   c.MaxPrice,
		Sizes:      uniqueNonEmpty(c.Sizes),
		BrandSlugs: uniqueNonEmpty(c.BrandSlugs),
	}
	if mode == Admin {
		out.Status = c.Status
		out.MaxStock = c.MaxStock
	}
	return out
}

// HasVariantConditions - есть ли условия на уровне вариантов.
// В Public всегда есть базовое условие "в продаже".
func (c Criteria) HasVariantConditions(mode Mode) bool {
	if mode == Public {
		return true
	}
	return c.MinPrice != nil || c.MaxPrice != nil || len(c.Sizes) > 0 || c.Status != nil || c.MaxStock != nil
}

// Scope возвращает gorm scope для запроса по таблице products.
// Все условия на варианты собраны в один EXISTS, чтобы один и тот же
// вариант удовлетворял им всем одновременно.
func (c Criteria) Scope(mode Mode) func(*gorm.DB) *gorm.DB {
	c = c.Normalize(mode)
	return func(db *gorm.DB) *gorm.DB {
		if len(c.BrandSlugs) > 0 {
			db = db.Joins("JOIN brands ON brands.id = products.brand_id").
				Where("brands.slug IN ?", c.BrandSlugs)
		}
		if c.HasVariantConditions(mode) {
			clause, args := c.variantExists(mode)
			db = db.Where(clause, args...)
		}
		return db
	}
}

// PurchasableScope - только товары, у которых есть вариант в продаже
func PurchasableScope(db *gorm.DB) *gorm.DB {
	return Criteria{}.Scope(Public)(db)
}

func (c Criteria) variantExists(mode Mode) (string, []interface{}) {
	conds := []string{"v.product_id = products.id"}
	var args []interface{}

	if mode == Public {
		conds = append(conds, "v.status = ?", "v.stock > 0")
		args = append(args, entity.VariantStatusActive)
	}
	if c.MinPrice != nil {
		conds = append(conds, "v.price >= ?")
		args = append(args, *c.MinPrice)
	}
	if c.MaxPrice != nil {
		conds = append(conds, "v.price <= ?")
		args = append(args, *c.MaxPrice)
	}
	if len(c.Sizes) > 0 {
		conds = append(conds, "EXISTS (SELECT 1 FROM variant_attributes va "+
			"JOIN attributes a ON a.id = va.attribute_id "+
			"WHERE va.variant_id = v.id AND a.type = ? AND a.value IN ?)")
		args = append(args, entity.AttributeTypeSize, c.Sizes)
	}
	if mode == Admin && c.Status != nil {
		conds = append(conds, "v.status = ?")
		args = append(args, *c.Status)
	}
	if mode == Admin && c.MaxStock != nil {
		conds = append(conds, "v.stock <= ?")
		args = append(args, *c.MaxStock)
	}

	return "EXISTS (SELECT 1 FROM product_variants v WHERE " + strings.Join(conds, " AND ") + ")", args
}

// MatchVariant проверяет вариант теми же условиями, что и Scope
func (c Criteria) MatchVariant(v *entity.Variant, mode Mode) bool {
	c = c.Normalize(mode)

	if mode == Public && !v.Purchasable() {
		return false
	}
	if c.MinPrice != nil && v.Price.LessThan(*c.MinPrice) {
		return false
	}
	if c.MaxPrice != nil && v.Price.GreaterThan(*c.MaxPrice) {
		return false
	}
	if len(c.Sizes) > 0 && !intersects(v.AttributeValues(entity.AttributeTypeSize), c.Sizes) {
		return false
	}
	if c.Status != nil && v.Status != *c.Status {
		return false
	}
	if c.MaxStock != nil && v.Stock > *c.MaxStock {
		return false
	}
	return true
}

// Refine оставляет у каждого товара только подходящие варианты.
// Товар без подходящих вариантов выбрасывается, если условия на варианты заданы.
// Бренд здесь не проверяется: это условие на товар, его уже применил Scope.
func (c Criteria) Refine(products []entity.Product, mode Mode) []entity.Product {
	c = c.Normalize(mode)
	variantFilter := c.HasVariantConditions(mode)

	out := make([]entity.Product, 0, len(products))
	for _, p := range products {
		if variantFilter {
			kept := make([]entity.Variant, 0, len(p.Variants))
			for i := range p.Variants {
				if c.MatchVariant(&p.Variants[i], mode) {
					kept = append(kept, p.Variants[i])
				}
			}
			if len(kept) == 0 {
				continue
			}
			p.Variants = kept
		}
		out = append(out, p)
	}
	return out
}

func uniqueNonEmpty(values []string) []string {
	if len(values) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}

func intersects(a, b []string) bool {
	for _, v := range a {
		if contains(b, v) {
			return true
		}
	}
	return false
}
