package catalog

import (
	"context"

	domain "github.com/Zhima-Mochi/minishop-storefront/internal/domain/catalog"
)

// ProductSource supplies the raw product list.
type ProductSource interface {
	Name() string
	Fetch(ctx context.Context) ([]domain.Product, error)
}

// Sink receives a freshly fetched product list. It returns the ids of cart
// lines that could not survive the reload.
type Sink interface {
	ReplaceProducts(ctx context.Context, products []domain.Product) []string
}
