package source

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/Zhima-Mochi/minishop-storefront/internal/domain/catalog"
	"github.com/shopspring/decimal"
)

// productDTO is the wire shape of one product. Price accepts both a JSON
// number and a numeric string.
type productDTO struct {
	ID              string          `json:"id"`
	Name            string          `json:"name"`
	Img             string          `json:"img"`
	Price           decimal.Decimal `json:"price"`
	MinOrderAmount  int             `json:"minOrderAmount"`
	AvailableAmount int             `json:"availableAmount"`
}

func (d productDTO) toDomain() catalog.Product {
	return catalog.Product{
		ID:              d.ID,
		Name:            d.Name,
		Img:             d.Img,
		Price:           d.Price,
		MinOrderAmount:  d.MinOrderAmount,
		AvailableAmount: d.AvailableAmount,
	}
}

func decodeProducts(r io.Reader) ([]catalog.Product, error) {
	var dtos []productDTO
	if err := json.NewDecoder(r).Decode(&dtos); err != nil {
		return nil, fmt.Errorf("decode products: %w", err)
	}
	products := make([]catalog.Product, 0, len(dtos))
	for i, d := range dtos {
		if d.ID == "" {
			return nil, fmt.Errorf("decode products: entry %d has no id", i)
		}
		products = append(products, d.toDomain())
	}
	return products, nil
}
