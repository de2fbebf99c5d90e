package catalog

import "strings"

// Catalog holds the loaded products in display order together with the
// original available amount captured at load time. It is not safe for
// concurrent use; callers serialise access.
type Catalog struct {
	products  []Product
	index     map[string]int
	originals map[string]int
}

func New() *Catalog {
	return &Catalog{
		index:     make(map[string]int),
		originals: make(map[string]int),
	}
}

// SetProducts replaces the catalog and resets every original amount to the
// supplied available amount. Negative amounts are stored as zero and a
// repeated id keeps its first occurrence.
func (c *Catalog) SetProducts(products []Product) {
	list := make([]Product, 0, len(products))
	index := make(map[string]int, len(products))
	originals := make(map[string]int, len(products))

	for _, p := range products {
		if _, dup := index[p.ID]; dup {
			continue
		}
		if p.AvailableAmount < 0 {
			p.AvailableAmount = 0
		}
		index[p.ID] = len(list)
		originals[p.ID] = p.AvailableAmount
		list = append(list, p)
	}

	c.products = list
	c.index = index
	c.originals = originals
}

// Products returns a copy of the catalog in load order.
func (c *Catalog) Products() []Product {
	out := make([]Product, len(c.products))
	copy(out, c.products)
	return out
}

func (c *Catalog) Len() int {
	return len(c.products)
}

func (c *Catalog) ByID(id string) (Product, bool) {
	i, ok := c.index[id]
	if !ok {
		return Product{}, false
	}
	return c.products[i], true
}

// SearchByName matches term case-insensitively against product names.
// An empty term matches everything.
func (c *Catalog) SearchByName(term string) []Product {
	needle := strings.ToLower(term)
	out := make([]Product, 0, len(c.products))
	for _, p := range c.products {
		if strings.Contains(strings.ToLower(p.Name), needle) {
			out = append(out, p)
		}
	}
	return out
}

func (c *Catalog) OriginalAmount(id string) (int, bool) {
	n, ok := c.originals[id]
	return n, ok
}

// AdjustAvailability subtracts delta from the product's available amount and
// clamps the result to [0, original]. A positive delta reserves stock, a
// negative one releases it. Unknown ids are ignored.
func (c *Catalog) AdjustAvailability(id string, delta int) {
	i, ok := c.index[id]
	if !ok {
		return
	}
	p := &c.products[i]
	p.AvailableAmount = max(0, min(p.AvailableAmount-delta, c.originals[id]))
}
