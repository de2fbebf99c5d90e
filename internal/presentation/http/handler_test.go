package httppresentation_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/Zhima-Mochi/minishop-storefront/internal/application"
	appcatalog "github.com/Zhima-Mochi/minishop-storefront/internal/application/catalog"
	"github.com/Zhima-Mochi/minishop-storefront/internal/application/storefront"
	"github.com/Zhima-Mochi/minishop-storefront/internal/domain/cart"
	"github.com/Zhima-Mochi/minishop-storefront/internal/domain/catalog"
	httppresentation "github.com/Zhima-Mochi/minishop-storefront/internal/presentation/http"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func stubLoader(res *appcatalog.LoadCatalogResult, err error) httppresentation.CatalogLoader {
	return application.Func[appcatalog.LoadCatalogInput, *appcatalog.LoadCatalogResult](
		func(context.Context, appcatalog.LoadCatalogInput) (*appcatalog.LoadCatalogResult, error) {
			return res, err
		},
	)
}

func newServer(t *testing.T, loader httppresentation.CatalogLoader) (*httptest.Server, *storefront.Service) {
	t.Helper()
	cat := catalog.New()
	svc := storefront.New(cat, cart.New(cat), nil, nil, nil)
	svc.ReplaceProducts(context.Background(), []catalog.Product{
		{ID: "1", Name: "Test Product 1", Img: "test1.jpg", Price: decimal.NewFromInt(100), MinOrderAmount: 1, AvailableAmount: 10},
		{ID: "2", Name: "Test Product 2", Img: "test2.jpg", Price: decimal.NewFromInt(200), MinOrderAmount: 2, AvailableAmount: 5},
	})
	srv := httptest.NewServer(httppresentation.NewHandler(svc, loader, nil).Router())
	t.Cleanup(srv.Close)
	return srv, svc
}

func do(t *testing.T, srv *httptest.Server, method, path, body string) (*http.Response, map[string]any) {
	t.Helper()
	req, err := http.NewRequest(method, srv.URL+path, strings.NewReader(body))
	require.NoError(t, err)
	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var out map[string]any
	if strings.HasPrefix(resp.Header.Get("Content-Type"), "application/json") {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	}
	return resp, out
}

func TestHandler_Cart(t *testing.T) {
	srv, svc := newServer(t, nil)

	resp, body := do(t, srv, http.MethodPost, "/cart/items", `{"product_id":"1","quantity":2}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, "200.00", body["total_price"])
	assert.EqualValues(t, 2, body["total_quantity"])
	assert.NotEmpty(t, resp.Header.Get("X-Request-ID"))

	resp, body = do(t, srv, http.MethodPatch, "/cart/items/1", `{"quantity":4}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.EqualValues(t, 4, body["total_quantity"])

	p, _ := svc.Product("1")
	assert.Equal(t, 6, p.AvailableAmount)

	resp, _ = do(t, srv, http.MethodDelete, "/cart/items/1", "")
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	resp, _ = do(t, srv, http.MethodDelete, "/cart/items/1", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	require.NoError(t, svc.AddToCart(context.Background(), p, 1))
	resp, _ = do(t, srv, http.MethodDelete, "/cart", "")
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.True(t, svc.Cart().IsEmpty)
}

func TestHandler_ErrorMapping(t *testing.T) {
	srv, _ := newServer(t, nil)

	tests := []struct {
		name    string
		method  string
		path    string
		body    string
		status  int
		message string
	}{
		{"below minimum", http.MethodPost, "/cart/items", `{"product_id":"2","quantity":1}`, http.StatusUnprocessableEntity, "quantity is below the minimum order amount"},
		{"above stock", http.MethodPost, "/cart/items", `{"product_id":"1","quantity":11}`, http.StatusConflict, "quantity exceeds available stock"},
		{"unknown product", http.MethodPost, "/cart/items", `{"product_id":"9","quantity":1}`, http.StatusNotFound, "product not found"},
		{"update absent line", http.MethodPatch, "/cart/items/1", `{"quantity":1}`, http.StatusNotFound, "product is not in the cart"},
		{"malformed json", http.MethodPost, "/cart/items", `{"product_id":`, http.StatusBadRequest, ""},
		{"unknown field", http.MethodPost, "/cart/items", `{"sku":"1"}`, http.StatusBadRequest, ""},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			resp, body := do(t, srv, tc.method, tc.path, tc.body)
			assert.Equal(t, tc.status, resp.StatusCode)
			if tc.message != "" {
				assert.Equal(t, tc.message, body["error"])
			}
		})
	}
}

func TestHandler_Products(t *testing.T) {
	srv, svc := newServer(t, nil)
	require.NoError(t, svc.AddToCartByID(context.Background(), "2", 2))

	resp, err := srv.Client().Get(srv.URL + "/products?q=PRODUCT%202")
	require.NoError(t, err)
	defer resp.Body.Close()
	var list []map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&list))
	require.Len(t, list, 1)
	assert.Equal(t, "2", list[0]["id"])
	assert.Equal(t, "200.00", list[0]["price"])
	assert.EqualValues(t, 3, list[0]["available_amount"])
	assert.EqualValues(t, 2, list[0]["in_cart"])

	r, body := do(t, srv, http.MethodGet, "/products/1", "")
	assert.Equal(t, http.StatusOK, r.StatusCode)
	assert.Equal(t, "Test Product 1", body["name"])

	r, _ = do(t, srv, http.MethodGet, "/products/404", "")
	assert.Equal(t, http.StatusNotFound, r.StatusCode)
}

func TestHandler_State(t *testing.T) {
	srv, svc := newServer(t, nil)
	require.NoError(t, svc.AddToCartByID(context.Background(), "1", 3))

	resp, body := do(t, srv, http.MethodGet, "/storefront", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, false, body["loading"])
	assert.EqualValues(t, 3, body["cart_item_count"])
	assert.Len(t, body["products"], 2)
	_, hasError := body["error"]
	assert.False(t, hasError)
}

func TestHandler_Reload(t *testing.T) {
	t.Run("not configured", func(t *testing.T) {
		srv, _ := newServer(t, nil)
		resp, _ := do(t, srv, http.MethodPost, "/catalog/reload", "")
		assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	})

	t.Run("success", func(t *testing.T) {
		srv, _ := newServer(t, stubLoader(&appcatalog.LoadCatalogResult{Products: 2}, nil))
		resp, body := do(t, srv, http.MethodPost, "/catalog/reload", "")
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.EqualValues(t, 2, body["products"])
		assert.Equal(t, []any{}, body["dropped_lines"])
	})

	t.Run("fetch failure", func(t *testing.T) {
		srv, _ := newServer(t, stubLoader(nil, errors.Join(appcatalog.ErrFetchFailed, errors.New("dial tcp"))))
		resp, body := do(t, srv, http.MethodPost, "/catalog/reload", "")
		assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
		assert.Equal(t, "failed to fetch products", body["error"])
	})
}

func TestHandler_MethodNotAllowed(t *testing.T) {
	srv, _ := newServer(t, nil)
	resp, _ := do(t, srv, http.MethodPut, "/cart", "")
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}

func TestHandler_CartShowsLiveAvailability(t *testing.T) {
	srv, _ := newServer(t, nil)

	resp, _ := do(t, srv, http.MethodPost, "/cart/items", `{"product_id":"1","quantity":2}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	resp, _ = do(t, srv, http.MethodPatch, "/cart/items/1", `{"quantity":7}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, body := do(t, srv, http.MethodGet, "/cart", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	items, ok := body["items"].([]any)
	require.True(t, ok)
	require.Len(t, items, 1)
	line := items[0].(map[string]any)
	assert.EqualValues(t, 7, line["quantity"])
	assert.EqualValues(t, 3, line["product"].(map[string]any)["available_amount"])
	assert.Equal(t, "700.00", line["subtotal"])
}
