package catalog

import (
	"errors"

	"github.com/shopspring/decimal"
)

var ErrProductNotFound = errors.New("catalog: product not found")

// Product is a single orderable catalog entry. AvailableAmount is the only
// field that changes after a load, and only through Catalog.AdjustAvailability.
type Product struct {
	ID              string
	Name            string
	Img             string
	Price           decimal.Decimal
	MinOrderAmount  int
	AvailableAmount int
}
