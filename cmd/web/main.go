package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"urbanmart-dashboard/internal/config"
	"urbanmart-dashboard/internal/dataset"
	"urbanmart-dashboard/internal/generator"
	"urbanmart-dashboard/internal/middleware"
	"urbanmart-dashboard/internal/observability"
	"urbanmart-dashboard/internal/server"
	"urbanmart-dashboard/internal/services"
	"urbanmart-dashboard/internal/ui/templates"
)

const (
	renderTimeout = 10 * time.Second
	cacheMaxAge   = "public, max-age=300"
)

func dashboardHandler(analytics *services.Analytics, storeName string, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), renderTimeout)
		defer cancel()

		opts := analytics.FilterOptions()
		page := templates.Dashboard(storeName, opts, templates.InitialSignals(opts, services.DefaultTopCustomers))

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Header().Set("Cache-Control", cacheMaxAge)
		if err := page.Render(ctx, w); err != nil {
			logger.Error("render dashboard", "error", err, "request_id", observability.GetRequestID(r.Context()))
			http.Error(w, "render error", http.StatusInternalServerError)
		}
	}
}

// loadAnalytics reads the configured CSV, generating it first when missing.
func loadAnalytics(cfg config.DatasetConfig, metrics *observability.Metrics, logger *slog.Logger) (*services.Analytics, error) {
	gen, err := generator.New(generator.DefaultTables(), logger)
	if err != nil {
		return nil, fmt.Errorf("building generator: %w", err)
	}
	params, err := cfg.Params()
	if err != nil {
		return nil, err
	}

	loader := dataset.NewLoader(gen, params, logger)
	loader.OnGenerate(metrics.IncGeneration)

	frame, err := loader.Load(cfg.CSVFile)
	if err != nil {
		return nil, fmt.Errorf("loading dataset: %w", err)
	}

	analytics := services.NewAnalytics()
	analytics.SetLogger(logger)
	if err := analytics.LoadFrame(cfg.CSVFile, frame); err != nil {
		return nil, fmt.Errorf("preparing analytics: %w", err)
	}
	metrics.SetDataset(analytics.Counts())
	return analytics, nil
}

func newHandler(cfg *config.Config, analytics *services.Analytics, metrics *observability.Metrics, gatherer prometheus.Gatherer, logger *slog.Logger) http.Handler {
	srv := server.NewServer(analytics, metrics, gatherer, logger, &server.TemplateHandlers{
		Dashboard: dashboardHandler(analytics, cfg.Dataset.StoreName, logger),
	})

	rateLimiter := middleware.NewRateLimiter(cfg.Security)

	chain := middleware.Chain(
		middleware.Recovery(logger),
		middleware.RequestID(),
		middleware.Logger(logger),
		middleware.Tracing(logger),
		middleware.SecurityHeaders(),
		middleware.CORS(cfg.Security),
		middleware.TrustedProxy(cfg.Security),
		middleware.RateLimit(rateLimiter, logger),
		middleware.Metrics(metrics),
	)
	return chain(srv)
}

func run(cfg *config.Config, logger *slog.Logger) error {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics := observability.NewMetrics(registry)

	start := time.Now()
	analytics, err := loadAnalytics(cfg.Dataset, metrics, logger)
	if err != nil {
		return err
	}
	logger.Info("dataset ready", "path", cfg.Dataset.CSVFile, "duration", time.Since(start))

	httpServer := &http.Server{
		Addr:         cfg.Address(),
		Handler:      newHandler(cfg, analytics, metrics, registry, logger),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	gracefulServer := server.NewGracefulServer(httpServer, logger, cfg.Server)
	gracefulServer.RegisterShutdownHook(func(ctx context.Context) error {
		records, dropped := analytics.Counts()
		logger.Info("releasing analytics table", "records", records, "dropped", dropped)
		return nil
	})

	return gracefulServer.ListenAndServe()
}

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg.Logger, os.Stderr)
	slog.SetDefault(logger)

	logger.Info("starting application",
		"addr", cfg.Address(),
		"csv_file", cfg.Dataset.CSVFile,
		"store_name", cfg.Dataset.StoreName,
	)

	if err := run(cfg, logger); err != nil {
		logger.Error("application failed", "error", err)
		os.Exit(1)
	}

	logger.Info("application stopped gracefully")
}
