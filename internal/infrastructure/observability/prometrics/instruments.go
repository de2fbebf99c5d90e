package prometrics

import (
	"github.com/Zhima-Mochi/minishop-storefront/internal/infrastructure/observability/telemetry"
	"github.com/Zhima-Mochi/minishop-storefront/internal/observability"
)

var httpLabels = []string{"method", "route", "status"}

// Instruments registers every metric the storefront records and returns
// them keyed for telemetry.New.
func Instruments(r Registry) telemetry.Instruments {
	key := func(k observability.MetricKey) string { return string(k) }

	return telemetry.Instruments{
		Counters: map[observability.MetricKey]observability.Counter{
			observability.MUsecaseRequests: r.Counter(key(observability.MUsecaseRequests),
				"Total number of use case invocations.", "use_case", "outcome"),
			observability.MHTTPRequests: r.Counter(key(observability.MHTTPRequests),
				"Total number of HTTP requests.", httpLabels...),
			observability.MExternalRequests: r.Counter(key(observability.MExternalRequests),
				"Calls to product sources and the event bus.", "peer", "endpoint", "outcome"),
			observability.MStockMovements: r.Counter(key(observability.MStockMovements),
				"Stock movements by reason.", "reason"),
		},
		Histograms: map[observability.MetricKey]observability.Histogram{
			observability.MUsecaseDuration: r.Histogram(key(observability.MUsecaseDuration),
				"Duration of use case execution in seconds.", nil, "use_case"),
			observability.MHTTPRequestDuration: r.Histogram(key(observability.MHTTPRequestDuration),
				"Duration of HTTP requests in seconds.", nil, httpLabels...),
			observability.MExternalRequestDuration: r.Histogram(key(observability.MExternalRequestDuration),
				"Duration of external calls in seconds.", nil, "peer", "endpoint"),
		},
		Gauges: map[observability.MetricKey]observability.Gauge{
			observability.MStockAvailable: r.Gauge(key(observability.MStockAvailable),
				"Available amount per product.", "product_id"),
		},
	}
}
