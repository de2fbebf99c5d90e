package storefront

import (
	"sync"

	"github.com/Zhima-Mochi/minishop-storefront/internal/domain/cart"
	"github.com/Zhima-Mochi/minishop-storefront/internal/domain/catalog"
	"github.com/Zhima-Mochi/minishop-storefront/internal/domain/event"
	"github.com/Zhima-Mochi/minishop-storefront/internal/observability"
	"github.com/shopspring/decimal"
)

const storefrontService = "storefront-service"

// LoadStatus reports the state of the catalog loader.
type LoadStatus interface {
	Loading() bool
	Err() error
}

// Service is the single entry point presentation uses to read the catalog
// and drive the cart. One mutex guards both stores, so every cart operation
// applies its availability change and its cart change as one step.
type Service struct {
	mu      sync.Mutex
	catalog *catalog.Catalog
	cart    *cart.Cart

	status    LoadStatus
	publisher event.Publisher

	log          observability.Logger
	tracer       observability.Tracer
	reqCounter   observability.Counter   // usecase_requests_total{use_case,outcome}
	durHistogram observability.Histogram // usecase_duration_seconds{use_case}
	extCounter   observability.Counter   // external_requests_total{peer,endpoint,outcome}
	extHistogram observability.Histogram // external_request_duration_seconds{peer,endpoint}
}

// New wires the facade around a catalog and the cart reserving against it.
// status and publisher may be nil.
func New(cat *catalog.Catalog, crt *cart.Cart, status LoadStatus, publisher event.Publisher, tel observability.Observability) *Service {
	tel = observability.OrNop(tel)
	metrics := tel.Metrics()
	return &Service{
		catalog:      cat,
		cart:         crt,
		status:       status,
		publisher:    publisher,
		log:          tel.Logger().With(observability.F("service", storefrontService)),
		tracer:       tel.Tracer(),
		reqCounter:   metrics.Counter(observability.MUsecaseRequests),
		durHistogram: metrics.Histogram(observability.MUsecaseDuration),
		extCounter:   metrics.Counter(observability.MExternalRequests),
		extHistogram: metrics.Histogram(observability.MExternalRequestDuration),
	}
}

// CartSummary is the cart as presentation shows it.
type CartSummary struct {
	Items         []cart.Item
	TotalQuantity int
	TotalPrice    decimal.Decimal
	ItemCount     int
	IsEmpty       bool
}

// State is a consistent snapshot of everything the storefront displays.
type State struct {
	Loading       bool
	Error         string
	Products      []catalog.Product
	Cart          CartSummary
	CartItemCount int
}

func (s *Service) State() State {
	st := State{Loading: s.Loading()}
	if err := s.Err(); err != nil {
		st.Error = err.Error()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	st.Products = s.catalog.Products()
	st.Cart = s.summaryLocked()
	st.CartItemCount = st.Cart.TotalQuantity
	return st
}

func (s *Service) Cart() CartSummary {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.summaryLocked()
}

func (s *Service) summaryLocked() CartSummary {
	return CartSummary{
		Items:         s.cart.Items(),
		TotalQuantity: s.cart.TotalQuantity(),
		TotalPrice:    s.cart.TotalPrice(),
		ItemCount:     s.cart.ItemCount(),
		IsEmpty:       s.cart.IsEmpty(),
	}
}

func (s *Service) Loading() bool {
	return s.status != nil && s.status.Loading()
}

func (s *Service) Err() error {
	if s.status == nil {
		return nil
	}
	return s.status.Err()
}

func (s *Service) Products() []catalog.Product {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.catalog.Products()
}

func (s *Service) Product(id string) (catalog.Product, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.catalog.ByID(id)
}

func (s *Service) SearchProducts(term string) []catalog.Product {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.catalog.SearchByName(term)
}

func (s *Service) CartItems() []cart.Item {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cart.Items()
}

func (s *Service) CartItem(productID string) (cart.Item, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cart.Item(productID)
}

func (s *Service) ItemQuantity(productID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cart.Quantity(productID)
}

func (s *Service) IsInCart(productID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cart.Contains(productID)
}

func (s *Service) TotalQuantity() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cart.TotalQuantity()
}

func (s *Service) TotalPrice() decimal.Decimal {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cart.TotalPrice()
}

func (s *Service) ItemCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cart.ItemCount()
}

// CartItemCount is the badge count: total units, not distinct lines.
func (s *Service) CartItemCount() int {
	return s.TotalQuantity()
}
