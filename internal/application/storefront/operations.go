package storefront

import (
	"context"
	"errors"
	"time"

	"github.com/Zhima-Mochi/minishop-storefront/internal/domain/cart"
	"github.com/Zhima-Mochi/minishop-storefront/internal/domain/catalog"
	"github.com/Zhima-Mochi/minishop-storefront/internal/domain/event"
	"github.com/Zhima-Mochi/minishop-storefront/internal/observability"
	"github.com/Zhima-Mochi/minishop-storefront/internal/observability/logctx"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	spanPrefix         = "UC."
	useCaseCartAdd     = "cart.add"
	useCaseCartUpdate  = "cart.update"
	useCaseCartRemove  = "cart.remove"
	useCaseCartClear   = "cart.clear"
	useCaseCatalogSwap = "catalog.replace"
)

// AddToCart reserves quantity of product. The product value is what the
// caller displayed; its ceiling is still taken from the catalog snapshot.
func (s *Service) AddToCart(ctx context.Context, product catalog.Product, quantity int) error {
	return s.run(ctx, useCaseCartAdd, "AddToCart", product.ID, quantity, func() ([]event.Event, error) {
		before := s.availabilityLocked(product.ID)
		if err := s.cart.Add(product, quantity); err != nil {
			return nil, err
		}
		return s.movementsLocked(before), nil
	})
}

// AddToCartByID looks the product up and adds it in the same critical section.
func (s *Service) AddToCartByID(ctx context.Context, productID string, quantity int) error {
	return s.run(ctx, useCaseCartAdd, "AddToCart", productID, quantity, func() ([]event.Event, error) {
		product, ok := s.catalog.ByID(productID)
		if !ok {
			return nil, catalog.ErrProductNotFound
		}
		before := s.availabilityLocked(productID)
		if err := s.cart.Add(product, quantity); err != nil {
			return nil, err
		}
		return s.movementsLocked(before), nil
	})
}

func (s *Service) UpdateQuantity(ctx context.Context, productID string, quantity int) error {
	return s.run(ctx, useCaseCartUpdate, "UpdateQuantity", productID, quantity, func() ([]event.Event, error) {
		before := s.availabilityLocked(productID)
		if err := s.cart.Update(productID, quantity); err != nil {
			return nil, err
		}
		return s.movementsLocked(before), nil
	})
}

// RemoveFromCart releases and drops the line. It reports whether a line
// existed; removing an absent product is not an error.
func (s *Service) RemoveFromCart(ctx context.Context, productID string) bool {
	var removed bool
	_ = s.run(ctx, useCaseCartRemove, "RemoveFromCart", productID, 0, func() ([]event.Event, error) {
		before := s.availabilityLocked(productID)
		_, removed = s.cart.Remove(productID)
		return s.movementsLocked(before), nil
	})
	return removed
}

func (s *Service) ClearCart(ctx context.Context) {
	_ = s.run(ctx, useCaseCartClear, "ClearCart", "", 0, func() ([]event.Event, error) {
		ids := make([]string, 0, s.cart.ItemCount())
		for _, item := range s.cart.Items() {
			ids = append(ids, item.Product.ID)
		}
		before := s.availabilityLocked(ids...)
		s.cart.Clear()
		return s.movementsLocked(before), nil
	})
}

// ReplaceProducts swaps the catalog for a freshly loaded list and reconciles
// the cart against it. Lines that cannot be kept are dropped and their
// product ids returned.
func (s *Service) ReplaceProducts(ctx context.Context, products []catalog.Product) []string {
	var dropped []string
	_ = s.run(ctx, useCaseCatalogSwap, "ReplaceProducts", "", len(products), func() ([]event.Event, error) {
		previous := make(map[string]int, s.catalog.Len())
		for _, p := range s.catalog.Products() {
			previous[p.ID] = p.AvailableAmount
		}

		s.catalog.SetProducts(products)
		for _, item := range s.cart.Reconcile() {
			dropped = append(dropped, item.Product.ID)
		}

		events := make([]event.Event, 0, s.catalog.Len()+1)
		for _, p := range s.catalog.Products() {
			original, _ := s.catalog.OriginalAmount(p.ID)
			events = append(events, catalog.NewAvailabilityChangedEvent(p.ID, previous[p.ID], p.AvailableAmount, original, catalog.ReasonReload))
			delete(previous, p.ID)
		}
		for id, before := range previous {
			events = append(events, catalog.NewAvailabilityChangedEvent(id, before, 0, 0, catalog.ReasonReload))
		}
		return append(events, catalog.NewReloadedEvent(s.catalog.Len(), dropped)), nil
	})
	return dropped
}

// run executes op inside the critical section and records the outcome as a
// span, RED metrics and one use_case_done line. Events returned by op are
// published after the lock is released.
func (s *Service) run(ctx context.Context, useCase, spanName, productID string, quantity int, op func() ([]event.Event, error)) (err error) {
	ctx, logger := logctx.Enrich(ctx, s.log, observability.F("use_case", useCase))

	attrs := []attribute.KeyValue{attribute.String("use_case", useCase)}
	if productID != "" {
		attrs = append(attrs, attribute.String("product.id", productID))
	}
	if quantity != 0 {
		attrs = append(attrs, attribute.Int("cart.quantity", quantity))
	}
	ctx, span := s.tracer.Start(ctx, spanPrefix+spanName, attrs...)
	start := time.Now()

	s.mu.Lock()
	events, err := op()
	totalQuantity := s.cart.TotalQuantity()
	s.mu.Unlock()

	outcome, statusText := classify(err)
	var publishErrs []error
	if err == nil {
		publishErrs = s.publish(ctx, events)
	}

	latency := time.Since(start).Seconds()
	s.reqCounter.Add(1,
		observability.L("use_case", useCase),
		observability.L("outcome", outcome),
	)
	s.durHistogram.Observe(latency, observability.L("use_case", useCase))

	fields := []observability.Field{
		observability.F("outcome", outcome),
		observability.F("status", statusText),
		observability.F("latency_seconds", latency),
		observability.F("cart_total_quantity", totalQuantity),
	}
	if productID != "" {
		fields = append(fields, observability.F("product_id", productID))
	}
	if quantity != 0 {
		fields = append(fields, observability.F("quantity", quantity))
	}
	if sc := trace.SpanContextFromContext(ctx); sc.IsValid() {
		fields = append(fields,
			observability.F("trace_id", sc.TraceID().String()),
			observability.F("span_id", sc.SpanID().String()),
		)
	}
	if len(publishErrs) > 0 {
		fields = append(fields, observability.F("event_publish_error", errors.Join(publishErrs...).Error()))
	}

	switch outcome {
	case "success":
		span.SetStatus(codes.Ok, statusText)
		logger.Info("use_case_done", fields...)
	case "rejected":
		span.AddEvent("cart.rejected", trace.WithAttributes(attribute.String("reason", statusText)))
		logger.Info("use_case_done", append(fields, observability.F("reason", err.Error()))...)
	default:
		span.RecordError(err)
		span.SetStatus(codes.Error, statusText)
		logger.Error("use_case_done", append(fields, observability.F("error", err.Error()))...)
	}
	span.End()

	return err
}

func classify(err error) (outcome, status string) {
	switch {
	case err == nil:
		return "success", "OK"
	case errors.Is(err, cart.ErrInvalidQuantity):
		return "rejected", "INVALID_QUANTITY"
	case errors.Is(err, cart.ErrExceedsStock):
		return "rejected", "EXCEEDS_STOCK"
	case errors.Is(err, cart.ErrUnknownLineItem):
		return "rejected", "UNKNOWN_LINE_ITEM"
	case errors.Is(err, catalog.ErrProductNotFound):
		return "rejected", "PRODUCT_NOT_FOUND"
	default:
		return "error", "INTERNAL"
	}
}
