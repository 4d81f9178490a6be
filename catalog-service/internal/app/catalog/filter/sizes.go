package filter

import (
	"sort"

	"github.com/shopspring/decimal"
)

// SortSizes упорядочивает размеры: сначала буквенные (S, M, XL) по алфавиту,
// затем числовые (38, 40.5, 42) по значению
func SortSizes(values []string) []string {
	type key struct {
		raw     string
		numeric bool
		num     decimal.Decimal
	}

	keys := make([]key, len(values))
	for i, v := range values {
		d, err := decimal.NewFromString(v)
		keys[i] = key{raw: v, numeric: err == nil, num: d}
	}

	sort.SliceStable(keys, func(i, j int) bool {
		a, b := keys[i], keys[j]
		if a.numeric != b.numeric {
			return !a.numeric
		}
		if a.numeric {
			if c := a.num.Cmp(b.num); c != 0 {
				return c < 0
			}
		}
		return a.raw < b.raw
	})

	out := make([]string, len(keys))
	for i, k := range keys {
		out[i] = k.raw
	}
	return out
}
