package entity

// SortOption - порядок выдачи списка товаров
type SortOption string

const (
	SortDefault   SortOption = ""
	SortNameAsc   SortOption = "name_asc"
	SortNameDesc  SortOption = "name_desc"
	SortPriceAsc  SortOption = "price_asc"
	SortPriceDesc SortOption = "price_desc"
)

// ParseSort превращает значение sort_by в опцию; неизвестное значение - порядок по умолчанию
func ParseSort(s string) SortOption {
	switch opt := SortOption(s); opt {
	case SortNameAsc, SortNameDesc, SortPriceAsc, SortPriceDesc:
		return opt
	}
	return SortDefault
}

// ProductListQuery - query параметры GET /api/products и /api/admin/products.
// Цены приходят строками и разбираются в decimal в handler.
type ProductListQuery struct {
	Skip         int      `form:"skip" validate:"gte=0"`
	Limit        int      `form:"limit" validate:"gte=0,lte=100"`
	CategorySlug string   `form:"category_slug" validate:"omitempty,max=255"`
	MinPrice     string   `form:"min_price" validate:"omitempty,numeric"`
	MaxPrice     string   `form:"max_price" validate:"omitempty,numeric"`
	Sizes        []string `form:"sizes" validate:"omitempty,dive,required,max=100"`
	Brands       []string `form:"brands" validate:"omitempty,dive,required,max=255"`
	SortBy       string   `form:"sort_by" validate:"omitempty,oneof=name_asc name_desc price_asc price_desc"`
	// только для админки
	Status   string `form:"status" validate:"omitempty,oneof=active sold_out inactive discontinued"`
	MaxStock *int   `form:"max_stock" validate:"omitempty,gte=0"`
}

type FiltersQuery struct {
	CategorySlug string `form:"category_slug" validate:"required,max=255"`
}

// ProductList - страница товаров и общее количество по фильтру
type ProductList struct {
	Products   []Product `json:"products"`
	TotalCount int64     `json:"total_count"`
}

type CategoryRef struct {
	Name string `json:"name"`
	Slug string `json:"slug"`
}

// FilterOptions - доступные значения фильтров для категории
type FilterOptions struct {
	Brands        []Brand       `json:"brands"`
	Sizes         []string      `json:"sizes"`
	Subcategories []CategoryRef `json:"subcategories"`
}
