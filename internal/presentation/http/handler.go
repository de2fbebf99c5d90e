package httppresentation

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/Zhima-Mochi/minishop-storefront/internal/application"
	appcatalog "github.com/Zhima-Mochi/minishop-storefront/internal/application/catalog"
	"github.com/Zhima-Mochi/minishop-storefront/internal/application/storefront"
	"github.com/Zhima-Mochi/minishop-storefront/internal/domain/cart"
	"github.com/Zhima-Mochi/minishop-storefront/internal/domain/catalog"
	"github.com/Zhima-Mochi/minishop-storefront/internal/observability"
	"github.com/Zhima-Mochi/minishop-storefront/internal/observability/logctx"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

// CatalogLoader is the reload use case as the handler sees it.
type CatalogLoader = application.UseCase[appcatalog.LoadCatalogInput, *appcatalog.LoadCatalogResult]

type Handler struct {
	store  *storefront.Service
	loader CatalogLoader
	log    observability.Logger
	tel    observability.Observability
}

const (
	componentHTTPHandler = "http_server"
	headerRequestID      = "X-Request-ID"
	triggerManual        = "manual"
)

const (
	msgInvalidQuantity = "quantity is below the minimum order amount"
	msgExceedsStock    = "quantity exceeds available stock"
	msgNotInCart       = "product is not in the cart"
	msgUnknownProduct  = "product not found"
)

// NewHandler builds the JSON API. loader may be nil, in which case
// POST /catalog/reload answers 503.
func NewHandler(store *storefront.Service, loader CatalogLoader, tel observability.Observability) *Handler {
	tel = observability.OrNop(tel)
	return &Handler{
		store:  store,
		loader: loader,
		log:    tel.Logger().With(observability.F("component", componentHTTPHandler)),
		tel:    tel,
	}
}

func (h *Handler) Router() http.Handler {
	mux := http.NewServeMux()

	h.muxHandle(mux, "GET /health", h.handleHealth)
	h.muxHandle(mux, "GET /storefront", h.handleState)
	h.muxHandle(mux, "GET /products", h.handleListProducts)
	h.muxHandle(mux, "GET /products/{id}", h.handleGetProduct)
	h.muxHandle(mux, "POST /catalog/reload", h.handleReload)
	h.muxHandle(mux, "GET /cart", h.handleGetCart)
	h.muxHandle(mux, "POST /cart/items", h.handleAddItem)
	h.muxHandle(mux, "PATCH /cart/items/{id}", h.handleUpdateItem)
	h.muxHandle(mux, "DELETE /cart/items/{id}", h.handleRemoveItem)
	h.muxHandle(mux, "DELETE /cart", h.handleClearCart)

	return mux
}

// muxHandle registers pattern wrapped as Trace → request logger + metrics →
// access log → handler.
func (h *Handler) muxHandle(mux *http.ServeMux, pattern string, handler http.HandlerFunc) {
	wrapped := h.withTrace(
		ObservabilityMiddleware(
			h.log,
			func(r *http.Request) string { return r.Header.Get(headerRequestID) },
			h.tel,
		)(
			h.withAccessLog(handler),
		),
	)
	mux.HandleFunc(pattern, func(w http.ResponseWriter, r *http.Request) {
		r = r.WithContext(contextWithRoute(r.Context(), pattern))
		wrapped.ServeHTTP(w, r)
	})
}

type productResponse struct {
	ID              string `json:"id"`
	Name            string `json:"name"`
	Img             string `json:"img"`
	Price           string `json:"price"`
	MinOrderAmount  int    `json:"min_order_amount"`
	AvailableAmount int    `json:"available_amount"`
	InCart          int    `json:"in_cart"`
}

type cartItemResponse struct {
	Product  productResponse `json:"product"`
	Quantity int             `json:"quantity"`
	Subtotal string          `json:"subtotal"`
}

type cartResponse struct {
	Items         []cartItemResponse `json:"items"`
	TotalQuantity int                `json:"total_quantity"`
	TotalPrice    string             `json:"total_price"`
	ItemCount     int                `json:"item_count"`
	IsEmpty       bool               `json:"is_empty"`
}

type stateResponse struct {
	Loading       bool              `json:"loading"`
	Error         string            `json:"error,omitempty"`
	Products      []productResponse `json:"products"`
	Cart          cartResponse      `json:"cart"`
	CartItemCount int               `json:"cart_item_count"`
}

func toProductResponse(p catalog.Product, inCart int) productResponse {
	return productResponse{
		ID:              p.ID,
		Name:            p.Name,
		Img:             p.Img,
		Price:           p.Price.StringFixed(2),
		MinOrderAmount:  p.MinOrderAmount,
		AvailableAmount: p.AvailableAmount,
		InCart:          inCart,
	}
}

// toCartResponse renders the lines with the catalog's current product, so
// available_amount reflects reservations made after the line was added.
func toCartResponse(c storefront.CartSummary, products []catalog.Product) cartResponse {
	live := make(map[string]catalog.Product, len(products))
	for _, p := range products {
		live[p.ID] = p
	}
	items := make([]cartItemResponse, 0, len(c.Items))
	for _, it := range c.Items {
		product, ok := live[it.Product.ID]
		if !ok {
			product = it.Product
		}
		items = append(items, cartItemResponse{
			Product:  toProductResponse(product, it.Quantity),
			Quantity: it.Quantity,
			Subtotal: it.Subtotal().StringFixed(2),
		})
	}
	return cartResponse{
		Items:         items,
		TotalQuantity: c.TotalQuantity,
		TotalPrice:    c.TotalPrice.StringFixed(2),
		ItemCount:     c.ItemCount,
		IsEmpty:       c.IsEmpty,
	}
}

func (h *Handler) productsResponse(products []catalog.Product, c storefront.CartSummary) []productResponse {
	quantities := make(map[string]int, len(c.Items))
	for _, it := range c.Items {
		quantities[it.Product.ID] = it.Quantity
	}
	out := make([]productResponse, 0, len(products))
	for _, p := range products {
		out = append(out, toProductResponse(p, quantities[p.ID]))
	}
	return out
}

func (h *Handler) cartResponse() cartResponse {
	st := h.store.State()
	return toCartResponse(st.Cart, st.Products)
}

func (h *Handler) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (h *Handler) handleState(w http.ResponseWriter, _ *http.Request) {
	st := h.store.State()
	writeJSON(w, http.StatusOK, stateResponse{
		Loading:       st.Loading,
		Error:         st.Error,
		Products:      h.productsResponse(st.Products, st.Cart),
		Cart:          toCartResponse(st.Cart, st.Products),
		CartItemCount: st.CartItemCount,
	})
}

func (h *Handler) handleListProducts(w http.ResponseWriter, r *http.Request) {
	products := h.store.SearchProducts(strings.TrimSpace(r.URL.Query().Get("q")))
	writeJSON(w, http.StatusOK, h.productsResponse(products, h.store.Cart()))
}

func (h *Handler) handleGetProduct(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	p, ok := h.store.Product(id)
	if !ok {
		writeMessage(w, http.StatusNotFound, msgUnknownProduct)
		return
	}
	writeJSON(w, http.StatusOK, toProductResponse(p, h.store.ItemQuantity(id)))
}

type reloadResponse struct {
	Products     int      `json:"products"`
	DroppedLines []string `json:"dropped_lines"`
}

func (h *Handler) handleReload(w http.ResponseWriter, r *http.Request) {
	if h.loader == nil {
		writeMessage(w, http.StatusServiceUnavailable, "catalog reload is not configured")
		return
	}
	res, err := h.loader.Execute(r.Context(), appcatalog.LoadCatalogInput{Trigger: triggerManual})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	dropped := res.DroppedLines
	if dropped == nil {
		dropped = []string{}
	}
	writeJSON(w, http.StatusOK, reloadResponse{Products: res.Products, DroppedLines: dropped})
}

func (h *Handler) handleGetCart(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.cartResponse())
}

type addItemRequest struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

func (h *Handler) handleAddItem(w http.ResponseWriter, r *http.Request) {
	var req addItemRequest
	if err := decodeJSON(r.Context(), r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if err := h.store.AddToCartByID(r.Context(), req.ProductID, req.Quantity); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, h.cartResponse())
}

type updateItemRequest struct {
	Quantity int `json:"quantity"`
}

func (h *Handler) handleUpdateItem(w http.ResponseWriter, r *http.Request) {
	var req updateItemRequest
	if err := decodeJSON(r.Context(), r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if err := h.store.UpdateQuantity(r.Context(), r.PathValue("id"), req.Quantity); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, h.cartResponse())
}

func (h *Handler) handleRemoveItem(w http.ResponseWriter, r *http.Request) {
	if !h.store.RemoveFromCart(r.Context(), r.PathValue("id")) {
		writeMessage(w, http.StatusNotFound, msgNotInCart)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleClearCart(w http.ResponseWriter, r *http.Request) {
	h.store.ClearCart(r.Context())
	w.WriteHeader(http.StatusNoContent)
}

// withAccessLog writes a single access log after the handler completes.
// It relies on the request-scoped logger already injected by ObservabilityMiddleware.
func (h *Handler) withAccessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		lrw := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(lrw, r)

		logctx.FromOr(r.Context(), h.log).Info("http_access",
			observability.F("method", r.Method),
			observability.F("route", routeFromContext(r.Context())),
			observability.F("path", r.URL.Path),
			observability.F("status", lrw.status),
			observability.F("latency_ms", time.Since(start).Milliseconds()),
		)
	})
}

// withTrace creates a server span for the request using OTel and W3C propagation.
func (h *Handler) withTrace(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tracer := otel.Tracer("storefront.http")
		parentCtx := otel.GetTextMapPropagator().Extract(r.Context(), propagation.HeaderCarrier(r.Header))

		route := routeFromContext(parentCtx)
		spanName := route
		template := route
		if idx := strings.Index(template, " "); idx >= 0 {
			template = template[idx+1:]
		}
		if route == "unknown" {
			spanName = r.Method + " " + r.URL.Path
			template = r.URL.Path
		}

		ctxWithSpan, span := tracer.Start(parentCtx,
			spanName,
			trace.WithSpanKind(trace.SpanKindServer),
			trace.WithAttributes(
				attribute.String("http.method", r.Method),
				attribute.String("http.route", template),
				attribute.String("http.target", r.URL.Path),
				attribute.String("http.user_agent", r.UserAgent()),
			),
		)
		defer span.End()

		next.ServeHTTP(w, r.WithContext(ctxWithSpan))
	})
}

func decodeJSON(_ context.Context, r *http.Request, dst any) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	return decoder.Decode(dst)
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeMessage(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeMessage(w, status, err.Error())
}

// writeDomainError turns core sentinels into user-facing messages.
func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, cart.ErrInvalidQuantity):
		writeMessage(w, http.StatusUnprocessableEntity, msgInvalidQuantity)
	case errors.Is(err, cart.ErrExceedsStock):
		writeMessage(w, http.StatusConflict, msgExceedsStock)
	case errors.Is(err, cart.ErrUnknownLineItem):
		writeMessage(w, http.StatusNotFound, msgNotInCart)
	case errors.Is(err, catalog.ErrProductNotFound):
		writeMessage(w, http.StatusNotFound, msgUnknownProduct)
	case errors.Is(err, appcatalog.ErrFetchFailed):
		writeMessage(w, http.StatusBadGateway, appcatalog.ErrFetchFailed.Error())
	default:
		writeError(w, http.StatusInternalServerError, err)
	}
}

type routeKey struct{}

// contextWithRoute stores the stable route pattern in the context so downstream
// metrics/logging can rely on low-cardinality values.
func contextWithRoute(ctx context.Context, route string) context.Context {
	if route == "" {
		return ctx
	}
	return context.WithValue(ctx, routeKey{}, route)
}

func routeFromContext(ctx context.Context) string {
	if ctx == nil {
		return "unknown"
	}
	if route, ok := ctx.Value(routeKey{}).(string); ok && route != "" {
		return route
	}
	return "unknown"
}
