package source_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/Zhima-Mochi/minishop-storefront/internal/infrastructure/source"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const productsJSON = `[
  {"id":"1","name":"Test Product 1","img":"test1.jpg","price":100,"minOrderAmount":1,"availableAmount":10},
  {"id":"2","name":"Test Product 2","img":"test2.jpg","price":"19.99","minOrderAmount":2,"availableAmount":5}
]`

func TestHTTPSource_Fetch(t *testing.T) {
	t.Run("decodes products", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodGet, r.Method)
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(productsJSON))
		}))
		defer srv.Close()

		products, err := source.NewHTTPSource(srv.URL).Fetch(context.Background())
		require.NoError(t, err)
		require.Len(t, products, 2)
		assert.Equal(t, "Test Product 1", products[0].Name)
		assert.True(t, decimal.NewFromInt(100).Equal(products[0].Price))
		assert.True(t, decimal.RequireFromString("19.99").Equal(products[1].Price))
		assert.Equal(t, 2, products[1].MinOrderAmount)
		assert.Equal(t, 5, products[1].AvailableAmount)
	})

	t.Run("non-2xx is an error", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			http.Error(w, "boom", http.StatusBadGateway)
		}))
		defer srv.Close()

		_, err := source.NewHTTPSource(srv.URL).Fetch(context.Background())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "502")
	})

	t.Run("malformed body", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`{"not":"a list"}`))
		}))
		defer srv.Close()

		_, err := source.NewHTTPSource(srv.URL, source.WithHTTPClient(srv.Client())).Fetch(context.Background())
		assert.Error(t, err)
	})

	t.Run("cancelled context", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(productsJSON))
		}))
		defer srv.Close()

		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := source.NewHTTPSource(srv.URL).Fetch(ctx)
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestFileSource_Fetch(t *testing.T) {
	dir := t.TempDir()

	t.Run("reads products", func(t *testing.T) {
		path := filepath.Join(dir, "products.json")
		require.NoError(t, os.WriteFile(path, []byte(productsJSON), 0o600))

		products, err := source.NewFileSource(path).Fetch(context.Background())
		require.NoError(t, err)
		assert.Len(t, products, 2)
	})

	t.Run("missing id", func(t *testing.T) {
		path := filepath.Join(dir, "noid.json")
		require.NoError(t, os.WriteFile(path, []byte(`[{"name":"x"}]`), 0o600))

		_, err := source.NewFileSource(path).Fetch(context.Background())
		assert.Error(t, err)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := source.NewFileSource(filepath.Join(dir, "absent.json")).Fetch(context.Background())
		assert.ErrorIs(t, err, os.ErrNotExist)
	})
}
