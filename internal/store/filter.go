package store

import (
	"fmt"
	"math"
)

// ProductFilter selects products by inclusive price and stock bounds.
type ProductFilter struct {
	MinPrice float64
	MaxPrice float64
	MinStock float64
	MaxStock float64
}

// AnyProduct is the zero-restriction filter: [0, +Inf) on both axes.
func AnyProduct() ProductFilter {
	return ProductFilter{
		MinPrice: 0,
		MaxPrice: math.Inf(1),
		MinStock: 0,
		MaxStock: math.Inf(1),
	}
}

func (f ProductFilter) Validate() error {
	for _, v := range []float64{f.MinPrice, f.MaxPrice, f.MinStock, f.MaxStock} {
		if math.IsNaN(v) {
			return fmt.Errorf("%w: filter bound is not a number", ErrValidation)
		}
	}
	if f.MinPrice > f.MaxPrice {
		return fmt.Errorf("%w: minPrice > maxPrice", ErrValidation)
	}
	if f.MinStock > f.MaxStock {
		return fmt.Errorf("%w: minStock > maxStock", ErrValidation)
	}
	return nil
}

func (f ProductFilter) Match(p Product) bool {
	q := float64(p.Quantity)
	return p.Price >= f.MinPrice && p.Price <= f.MaxPrice &&
		q >= f.MinStock && q <= f.MaxStock
}
