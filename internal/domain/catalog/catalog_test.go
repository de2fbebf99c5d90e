package catalog_test

import (
	"testing"

	"github.com/Zhima-Mochi/minishop-storefront/internal/domain/catalog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixtures() []catalog.Product {
	return []catalog.Product{
		{ID: "1", Name: "Test Product 1", Img: "test1.jpg", Price: decimal.NewFromInt(100), MinOrderAmount: 1, AvailableAmount: 10},
		{ID: "2", Name: "Test Product 2", Img: "test2.jpg", Price: decimal.NewFromInt(200), MinOrderAmount: 2, AvailableAmount: 5},
		{ID: "3", Name: "Gift Card", Img: "test3.jpg", Price: decimal.NewFromInt(150), MinOrderAmount: 1, AvailableAmount: 0},
	}
}

func TestCatalog_SetProducts(t *testing.T) {
	t.Run("starts empty", func(t *testing.T) {
		c := catalog.New()
		assert.Empty(t, c.Products())
		assert.Equal(t, 0, c.Len())
	})

	t.Run("stores products in order and snapshots originals", func(t *testing.T) {
		c := catalog.New()
		c.SetProducts(fixtures())

		require.Equal(t, 3, c.Len())
		assert.Equal(t, fixtures(), c.Products())
		for _, p := range fixtures() {
			original, ok := c.OriginalAmount(p.ID)
			require.True(t, ok)
			assert.Equal(t, p.AvailableAmount, original)
		}
	})

	t.Run("reload resets originals", func(t *testing.T) {
		c := catalog.New()
		c.SetProducts(fixtures())
		c.AdjustAvailability("1", 4)

		reloaded := fixtures()
		reloaded[0].AvailableAmount = 20
		c.SetProducts(reloaded)

		original, _ := c.OriginalAmount("1")
		assert.Equal(t, 20, original)
		p, _ := c.ByID("1")
		assert.Equal(t, 20, p.AvailableAmount)
	})

	t.Run("is idempotent", func(t *testing.T) {
		c := catalog.New()
		c.SetProducts(fixtures())
		c.SetProducts(fixtures())
		assert.Equal(t, fixtures(), c.Products())
	})

	t.Run("clamps negative amounts and keeps first duplicate", func(t *testing.T) {
		c := catalog.New()
		c.SetProducts([]catalog.Product{
			{ID: "a", Name: "first", AvailableAmount: -3},
			{ID: "a", Name: "second", AvailableAmount: 7},
		})

		require.Equal(t, 1, c.Len())
		p, _ := c.ByID("a")
		assert.Equal(t, "first", p.Name)
		assert.Equal(t, 0, p.AvailableAmount)
	})

	t.Run("does not alias the caller's slice", func(t *testing.T) {
		in := fixtures()
		c := catalog.New()
		c.SetProducts(in)
		in[0].Name = "mutated"

		p, _ := c.ByID("1")
		assert.Equal(t, "Test Product 1", p.Name)
	})
}

func TestCatalog_ByID(t *testing.T) {
	c := catalog.New()
	c.SetProducts(fixtures())

	p, ok := c.ByID("2")
	require.True(t, ok)
	assert.Equal(t, "Test Product 2", p.Name)

	_, ok = c.ByID("999")
	assert.False(t, ok)
}

func TestCatalog_SearchByName(t *testing.T) {
	c := catalog.New()
	c.SetProducts(fixtures())

	tests := []struct {
		name string
		term string
		want []string
	}{
		{name: "empty term matches all", term: "", want: []string{"1", "2", "3"}},
		{name: "case insensitive", term: "test PRODUCT", want: []string{"1", "2"}},
		{name: "substring", term: "card", want: []string{"3"}},
		{name: "no match", term: "laptop", want: []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := c.SearchByName(tt.term)
			require.NotNil(t, got)
			ids := make([]string, 0, len(got))
			for _, p := range got {
				ids = append(ids, p.ID)
			}
			assert.Equal(t, tt.want, ids)
		})
	}
}

func TestCatalog_AdjustAvailability(t *testing.T) {
	tests := []struct {
		name  string
		delta []int
		want  int
	}{
		{name: "reserve decreases", delta: []int{3}, want: 7},
		{name: "release restores", delta: []int{3, -3}, want: 10},
		{name: "never below zero", delta: []int{15}, want: 0},
		{name: "never above original", delta: []int{-5}, want: 10},
		{name: "out of order release is capped", delta: []int{2, -4}, want: 10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := catalog.New()
			c.SetProducts(fixtures())
			for _, d := range tt.delta {
				c.AdjustAvailability("1", d)
			}
			p, _ := c.ByID("1")
			assert.Equal(t, tt.want, p.AvailableAmount)
		})
	}

	t.Run("unknown id is ignored", func(t *testing.T) {
		c := catalog.New()
		c.SetProducts(fixtures())
		c.AdjustAvailability("999", 5)
		assert.Equal(t, fixtures(), c.Products())
	})
}
