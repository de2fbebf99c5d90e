package cart

import (
	"errors"

	"github.com/Zhima-Mochi/minishop-storefront/internal/domain/catalog"
	"github.com/shopspring/decimal"
)

var (
	ErrInvalidQuantity = errors.New("cart: quantity below minimum order amount")
	ErrExceedsStock    = errors.New("cart: quantity exceeds available stock")
	ErrUnknownLineItem = errors.New("cart: product not in cart")
)

// Stock is the part of the catalog the cart reserves against.
type Stock interface {
	ByID(id string) (catalog.Product, bool)
	OriginalAmount(id string) (int, bool)
	AdjustAvailability(id string, delta int)
}

// Item is one cart line. Product is a copy taken when the line was created
// (or last reconciled), not a live view of the catalog.
type Item struct {
	Product  catalog.Product
	Quantity int
}

func (i Item) Subtotal() decimal.Decimal {
	return i.Product.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// Cart keeps at most one line per product, in insertion order. Every quantity
// change is mirrored on Stock so that available + reserved equals the
// original amount. Not safe for concurrent use.
type Cart struct {
	stock Stock
	order []string
	items map[string]*Item
}

func New(stock Stock) *Cart {
	return &Cart{
		stock: stock,
		items: make(map[string]*Item),
	}
}

// Add reserves quantity of product, merging into an existing line.
func (c *Cart) Add(product catalog.Product, quantity int) error {
	ceiling := c.ceiling(product.ID, product.AvailableAmount)
	if quantity <= 0 || quantity < product.MinOrderAmount {
		return ErrInvalidQuantity
	}
	if quantity > ceiling {
		return ErrExceedsStock
	}

	if existing, ok := c.items[product.ID]; ok {
		if existing.Quantity+quantity > ceiling {
			return ErrExceedsStock
		}
		existing.Quantity += quantity
	} else {
		c.items[product.ID] = &Item{Product: product, Quantity: quantity}
		c.order = append(c.order, product.ID)
	}

	c.stock.AdjustAvailability(product.ID, quantity)
	return nil
}

// Remove releases the line's whole quantity and drops it. The boolean
// reports whether a line existed.
func (c *Cart) Remove(productID string) (Item, bool) {
	item, ok := c.items[productID]
	if !ok {
		return Item{}, false
	}
	c.stock.AdjustAvailability(productID, -item.Quantity)
	c.drop(productID)
	return *item, true
}

// Update sets the line's quantity, reserving or releasing the difference.
func (c *Cart) Update(productID string, quantity int) error {
	item, ok := c.items[productID]
	if !ok {
		return ErrUnknownLineItem
	}

	ceiling := c.ceiling(productID, item.Product.AvailableAmount)
	if quantity <= 0 || quantity < item.Product.MinOrderAmount {
		return ErrInvalidQuantity
	}
	if quantity > ceiling {
		return ErrExceedsStock
	}

	c.stock.AdjustAvailability(productID, quantity-item.Quantity)
	item.Quantity = quantity
	return nil
}

// Clear releases every line and empties the cart. It returns the lines that
// were released.
func (c *Cart) Clear() []Item {
	released := c.Items()
	for _, item := range released {
		c.stock.AdjustAvailability(item.Product.ID, -item.Quantity)
	}
	c.order = nil
	c.items = make(map[string]*Item)
	return released
}

// Reconcile re-applies the cart's reservations after the catalog has been
// replaced. Lines whose product disappeared or whose quantity no longer fits
// the new minimum or original amount are dropped without touching stock;
// the rest take the fresh product copy and reserve again. The dropped lines
// are returned.
func (c *Cart) Reconcile() []Item {
	var dropped []Item
	for _, id := range append([]string(nil), c.order...) {
		item := c.items[id]
		product, ok := c.stock.ByID(id)
		if !ok {
			dropped = append(dropped, *item)
			c.drop(id)
			continue
		}
		original, _ := c.stock.OriginalAmount(id)
		if item.Quantity > original || item.Quantity < product.MinOrderAmount {
			dropped = append(dropped, *item)
			c.drop(id)
			continue
		}
		c.stock.AdjustAvailability(id, item.Quantity)
		item.Product, _ = c.stock.ByID(id)
	}
	return dropped
}

func (c *Cart) Quantity(productID string) int {
	if item, ok := c.items[productID]; ok {
		return item.Quantity
	}
	return 0
}

func (c *Cart) Contains(productID string) bool {
	_, ok := c.items[productID]
	return ok
}

func (c *Cart) Item(productID string) (Item, bool) {
	item, ok := c.items[productID]
	if !ok {
		return Item{}, false
	}
	return *item, true
}

// Items returns a copy of the lines in insertion order.
func (c *Cart) Items() []Item {
	out := make([]Item, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, *c.items[id])
	}
	return out
}

func (c *Cart) TotalQuantity() int {
	total := 0
	for _, item := range c.items {
		total += item.Quantity
	}
	return total
}

func (c *Cart) TotalPrice() decimal.Decimal {
	total := decimal.Zero
	for _, item := range c.items {
		total = total.Add(item.Subtotal())
	}
	return total
}

func (c *Cart) ItemCount() int {
	return len(c.items)
}

func (c *Cart) IsEmpty() bool {
	return len(c.items) == 0
}

func (c *Cart) ceiling(productID string, fallback int) int {
	if original, ok := c.stock.OriginalAmount(productID); ok {
		return original
	}
	return fallback
}

func (c *Cart) drop(productID string) {
	delete(c.items, productID)
	for i, id := range c.order {
		if id == productID {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
}
