package stock

import (
	"context"

	"github.com/Zhima-Mochi/minishop-storefront/internal/domain/catalog"
	"github.com/Zhima-Mochi/minishop-storefront/internal/domain/event"
	"github.com/Zhima-Mochi/minishop-storefront/internal/observability"
	"github.com/Zhima-Mochi/minishop-storefront/internal/observability/logctx"
)

const componentStockWatcher = "stock_watcher"

// Watcher mirrors availability changes into metrics so stock levels can be
// followed without polling the storefront.
type Watcher struct {
	subscriber event.Subscriber

	log       observability.Logger
	available observability.Gauge   // stock_available{product_id}
	movements observability.Counter // stock_movements_total{reason}
}

func NewWatcher(subscriber event.Subscriber, tel observability.Observability) *Watcher {
	tel = observability.OrNop(tel)
	metrics := tel.Metrics()
	return &Watcher{
		subscriber: subscriber,
		log:        tel.Logger().With(observability.F("component", componentStockWatcher)),
		available:  metrics.Gauge(observability.MStockAvailable),
		movements:  metrics.Counter(observability.MStockMovements),
	}
}

func (w *Watcher) Start() {
	w.subscriber.Subscribe(catalog.AvailabilityChangedEvent{}.EventName(), w.handleAvailabilityChanged)
	w.subscriber.Subscribe(catalog.ReloadedEvent{}.EventName(), w.handleReloaded)
}

func (w *Watcher) handleAvailabilityChanged(ctx context.Context, e event.Event) error {
	evt, ok := e.(catalog.AvailabilityChangedEvent)
	if !ok {
		return nil
	}

	w.available.Set(float64(evt.After), observability.L("product_id", evt.ProductID))
	w.movements.Add(1, observability.L("reason", evt.Reason))

	logger := logctx.FromOr(ctx, w.log)
	fields := []observability.Field{
		observability.F("product_id", evt.ProductID),
		observability.F("reason", evt.Reason),
		observability.F("before", evt.Before),
		observability.F("after", evt.After),
		observability.F("original", evt.Original),
	}
	if evt.After == 0 && evt.Original > 0 {
		logger.Warn("stock_sold_out", fields...)
		return nil
	}
	logger.Debug("stock_changed", fields...)
	return nil
}

func (w *Watcher) handleReloaded(ctx context.Context, e event.Event) error {
	evt, ok := e.(catalog.ReloadedEvent)
	if !ok {
		return nil
	}

	logger := logctx.FromOr(ctx, w.log)
	if len(evt.DroppedLines) > 0 {
		logger.Warn("cart_lines_dropped_on_reload",
			observability.F("products", evt.Products),
			observability.F("dropped_lines", evt.DroppedLines),
		)
		return nil
	}
	logger.Info("catalog_reloaded", observability.F("products", evt.Products))
	return nil
}
