package catalog

import (
	"context"
	"errors"
	"fmt"
	"time"

	domain "github.com/Zhima-Mochi/minishop-storefront/internal/domain/catalog"
	"github.com/Zhima-Mochi/minishop-storefront/internal/observability"
	"github.com/Zhima-Mochi/minishop-storefront/internal/observability/logctx"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	catalogService     = "catalog-service"
	useCaseCatalogLoad = "catalog.load"
	spanPrefix         = "UC."
	fetchEndpoint      = "products"
	defaultTimeout     = 5 * time.Second
)

var ErrFetchFailed = errors.New("failed to fetch products")

type LoadCatalogInput struct {
	// Trigger is recorded on logs and spans, e.g. "startup" or "manual".
	Trigger string
}

type LoadCatalogResult struct {
	Products     int
	DroppedLines []string
}

// LoadCatalogUseCase fetches the product list from a ProductSource and hands
// it to the Sink. A failed fetch leaves the catalog untouched.
type LoadCatalogUseCase struct {
	source  ProductSource
	sink    Sink
	status  *Status
	timeout time.Duration

	log          observability.Logger
	tracer       observability.Tracer
	reqCounter   observability.Counter   // usecase_requests_total{use_case,outcome}
	durHistogram observability.Histogram // usecase_duration_seconds{use_case}
	extCounter   observability.Counter   // external_requests_total{peer,endpoint,outcome}
	extHistogram observability.Histogram // external_request_duration_seconds{peer,endpoint}
}

type Option func(*LoadCatalogUseCase)

// WithFetchTimeout bounds a single call to the source.
func WithFetchTimeout(d time.Duration) Option {
	return func(uc *LoadCatalogUseCase) {
		if d > 0 {
			uc.timeout = d
		}
	}
}

func NewLoadCatalogUseCase(source ProductSource, sink Sink, status *Status, tel observability.Observability, opts ...Option) *LoadCatalogUseCase {
	tel = observability.OrNop(tel)
	if status == nil {
		status = NewStatus()
	}
	metrics := tel.Metrics()

	uc := &LoadCatalogUseCase{
		source:       source,
		sink:         sink,
		status:       status,
		timeout:      defaultTimeout,
		log:          tel.Logger().With(observability.F("service", catalogService)),
		tracer:       tel.Tracer(),
		reqCounter:   metrics.Counter(observability.MUsecaseRequests),
		durHistogram: metrics.Histogram(observability.MUsecaseDuration),
		extCounter:   metrics.Counter(observability.MExternalRequests),
		extHistogram: metrics.Histogram(observability.MExternalRequestDuration),
	}
	for _, opt := range opts {
		opt(uc)
	}
	return uc
}

func (uc *LoadCatalogUseCase) Status() *Status {
	return uc.status
}

// Execute runs one load. Loading is reported true for its whole duration.
func (uc *LoadCatalogUseCase) Execute(ctx context.Context, in LoadCatalogInput) (_ *LoadCatalogResult, err error) {
	ctx, logger := logctx.Enrich(ctx, uc.log,
		observability.F("use_case", useCaseCatalogLoad),
		observability.F("source", uc.source.Name()),
		observability.F("trigger", in.Trigger),
	)

	ctx, span := uc.tracer.Start(ctx, spanPrefix+"LoadCatalog",
		attribute.String("use_case", useCaseCatalogLoad),
		attribute.String("catalog.source", uc.source.Name()),
		attribute.String("catalog.trigger", in.Trigger),
	)
	start := time.Now()
	outcome, statusText := "success", "OK"
	result := &LoadCatalogResult{}

	uc.status.begin()

	defer func() {
		uc.status.finish(err)

		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, statusText)
		} else {
			span.SetStatus(codes.Ok, statusText)
		}
		span.End()

		latency := time.Since(start).Seconds()
		uc.reqCounter.Add(1,
			observability.L("use_case", useCaseCatalogLoad),
			observability.L("outcome", outcome),
		)
		uc.durHistogram.Observe(latency,
			observability.L("use_case", useCaseCatalogLoad),
		)

		fields := []observability.Field{
			observability.F("outcome", outcome),
			observability.F("status", statusText),
			observability.F("latency_seconds", latency),
			observability.F("products", result.Products),
		}
		if len(result.DroppedLines) > 0 {
			fields = append(fields, observability.F("dropped_lines", result.DroppedLines))
		}
		if sc := trace.SpanContextFromContext(ctx); sc.IsValid() {
			fields = append(fields,
				observability.F("trace_id", sc.TraceID().String()),
				observability.F("span_id", sc.SpanID().String()),
			)
		}
		if err != nil {
			fields = append(fields, observability.F("error", err.Error()))
			logger.Warn("use_case_done", fields...)
			return
		}
		logger.Info("use_case_done", fields...)
	}()

	products, fetchErr := uc.fetch(ctx)
	if fetchErr != nil {
		outcome, statusText = "error", "FETCH_FAILED"
		return nil, fmt.Errorf("%w: %w", ErrFetchFailed, fetchErr)
	}

	result.Products = len(products)
	result.DroppedLines = uc.sink.ReplaceProducts(ctx, products)
	span.AddEvent("catalog.replaced", trace.WithAttributes(
		attribute.Int("catalog.products", result.Products),
		attribute.Int("cart.dropped_lines", len(result.DroppedLines)),
	))

	return result, nil
}

func (uc *LoadCatalogUseCase) fetch(ctx context.Context) ([]domain.Product, error) {
	fetchCtx, cancel := context.WithTimeout(ctx, uc.timeout)
	defer cancel()

	start := time.Now()
	products, err := uc.source.Fetch(fetchCtx)
	outcome := "success"
	if err != nil {
		outcome = "error"
		if errors.Is(fetchCtx.Err(), context.DeadlineExceeded) {
			outcome = "timeout"
		}
	}

	uc.extCounter.Add(1,
		observability.L("peer", uc.source.Name()),
		observability.L("endpoint", fetchEndpoint),
		observability.L("outcome", outcome),
	)
	uc.extHistogram.Observe(time.Since(start).Seconds(),
		observability.L("peer", uc.source.Name()),
		observability.L("endpoint", fetchEndpoint),
	)

	return products, err
}
