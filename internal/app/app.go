// Package app wires configuration, logging, tracing, metrics, the cache and
// the pipeline into a runnable HTTP server with graceful shutdown.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"

	"leetlens/internal/cache"
	"leetlens/internal/config"
	"leetlens/internal/infrastructure"
	"leetlens/internal/services"
	transporthttp "leetlens/internal/transport/http"
	"leetlens/pkg/contracts"
)

// AppName identifies the service in logs.
const AppName = "leetlens"

// Application holds the assembled server and its dependencies.
type Application struct {
	Config   *config.Config
	Logger   *slog.Logger
	Pipeline *services.Pipeline
	Server   *http.Server

	shutdownTracing func(context.Context) error
}

// NewApplication loads configuration and builds the full dependency graph.
func NewApplication() (*Application, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	tracer, shutdownTracing, err := infrastructure.InitializeTracing(context.Background())
	if err != nil {
		logger.Warn("tracing unavailable, continuing without it", slog.String("error", err.Error()))
		tracer = infrastructure.NoopTracer()
		shutdownTracing = func(context.Context) error { return nil }
	}

	registry := prometheus.NewRegistry()
	metrics := infrastructure.NewMetrics(registry)

	paths, err := config.NewPaths(cfg.Data)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve data paths: %w", err)
	}
	cacheManager, err := cache.NewManager(paths, cfg.Data.MemoryCacheSize, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize cache: %w", err)
	}

	pipeline, err := services.NewPipeline(services.Deps{
		Config:  cfg,
		Cache:   cacheManager,
		Metrics: metrics,
		Tracer:  tracer,
		Logger:  logger,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize pipeline: %w", err)
	}

	router := transporthttp.NewRouter(cfg, pipeline, registry, logger)
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	logger.Info("application initialized",
		slog.String("name", AppName),
		slog.String("version", contracts.Version),
		slog.Int("port", cfg.Server.Port),
		slog.String("data_root", cfg.Data.Root))

	return &Application{
		Config:          cfg,
		Logger:          logger,
		Pipeline:        pipeline,
		Server:          server,
		shutdownTracing: shutdownTracing,
	}, nil
}

// Run serves until SIGINT/SIGTERM, then drains within the configured
// shutdown timeout.
func (a *Application) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		a.Logger.Info("server listening", slog.String("addr", a.Server.Addr))
		if err := a.Server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	a.Logger.Info("shutting down",
		slog.Duration("timeout", a.Config.Server.ShutdownTimeout))

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.Config.Server.ShutdownTimeout)
	defer cancel()

	if err := a.Server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	if err := a.shutdownTracing(shutdownCtx); err != nil {
		a.Logger.Warn("tracing shutdown failed", slog.String("error", err.Error()))
	}
	return nil
}
