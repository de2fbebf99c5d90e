package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	appcatalog "github.com/Zhima-Mochi/minishop-storefront/internal/application/catalog"
	"github.com/Zhima-Mochi/minishop-storefront/internal/application/stock"
	"github.com/Zhima-Mochi/minishop-storefront/internal/application/storefront"
	"github.com/Zhima-Mochi/minishop-storefront/internal/config"
	"github.com/Zhima-Mochi/minishop-storefront/internal/domain/cart"
	"github.com/Zhima-Mochi/minishop-storefront/internal/domain/catalog"
	"github.com/Zhima-Mochi/minishop-storefront/internal/infrastructure/observability/oteltrace"
	"github.com/Zhima-Mochi/minishop-storefront/internal/infrastructure/observability/prometrics"
	"github.com/Zhima-Mochi/minishop-storefront/internal/infrastructure/observability/telemetry"
	"github.com/Zhima-Mochi/minishop-storefront/internal/infrastructure/observability/zaplogger"
	"github.com/Zhima-Mochi/minishop-storefront/internal/infrastructure/outbox"
	"github.com/Zhima-Mochi/minishop-storefront/internal/infrastructure/source"
	"github.com/Zhima-Mochi/minishop-storefront/internal/observability"
	"github.com/Zhima-Mochi/minishop-storefront/internal/pkg/logging"
	httppresentation "github.com/Zhima-Mochi/minishop-storefront/internal/presentation/http"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load(getenvDefault("CONFIG_FILE", "configs/base.yaml"))
	if err != nil {
		panic(err)
	}

	baseLogger := logging.MustNewLogger(logging.Options{
		Service:    cfg.App.Name,
		Env:        cfg.App.Env,
		Level:      cfg.Log.Level,
		File:       cfg.Log.File,
		MaxSizeMB:  cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAgeDays: cfg.Log.MaxAgeDays,
	})
	defer func() { _ = baseLogger.Sync() }()
	zap.ReplaceGlobals(baseLogger)

	systemLogger := logging.WithTrace(baseLogger, logging.SystemTraceID, logging.SystemSpanID)

	if cfg.Tracing.Enabled {
		shutdownTracing, err := oteltrace.Setup(cfg.App.Name, os.Stderr)
		if err != nil {
			systemLogger.Fatal("tracing_setup_failed", zap.Error(err))
		}
		defer func() { _ = shutdownTracing(context.Background()) }()
	}

	tel := newTelemetry(cfg, baseLogger)

	bus := outbox.NewBus(tel.Logger())
	bus.Start(context.Background())
	defer bus.Stop(context.Background())

	products := catalog.New()
	status := appcatalog.NewStatus()
	store := storefront.New(products, cart.New(products), status, bus, tel)

	loader := appcatalog.NewLoadCatalogUseCase(newProductSource(cfg), store, status, tel,
		appcatalog.WithFetchTimeout(cfg.Catalog.FetchTimeout),
	)

	stock.NewWatcher(bus, tel).Start()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	initialLoad := make(chan struct{})
	go func() {
		defer close(initialLoad)
		if _, err := loader.Execute(ctx, appcatalog.LoadCatalogInput{Trigger: "startup"}); err != nil {
			systemLogger.Warn("initial_catalog_load_failed", zap.Error(err))
		}
	}()

	handler := httppresentation.NewHandler(store, loader, tel)
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.Handle("/", handler.Router())

	server := &http.Server{
		Addr:         cfg.App.HTTPAddr,
		Handler:      mux,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
	}

	go func() {
		systemLogger.Info("http_server_start",
			zap.String("addr", server.Addr),
		)
		err := server.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			systemLogger.Error("http_server_error",
				zap.Error(err),
			)
			stop()
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		systemLogger.Error("http_server_shutdown_error",
			zap.Error(err),
		)
	} else {
		systemLogger.Info("http_server_stopped")
	}

	// The loader publishes through the bus; let it finish before the deferred Stop.
	select {
	case <-initialLoad:
	case <-shutdownCtx.Done():
	}
}

func newTelemetry(cfg config.Config, baseLogger *zap.Logger) observability.Observability {
	reg := prometrics.New(prometheus.DefaultRegisterer, cfg.Metrics.Namespace, "")
	return telemetry.New(
		oteltrace.New(cfg.App.Name),
		zaplogger.New(baseLogger),
		prometrics.Instruments(reg),
	)
}

func newProductSource(cfg config.Config) appcatalog.ProductSource {
	if cfg.Catalog.File != "" {
		return source.NewFileSource(cfg.Catalog.File)
	}
	return source.NewHTTPSource(cfg.Catalog.SourceURL)
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
