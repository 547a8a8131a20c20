package http

import (
	"log/slog"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"leetlens/internal/config"
	"leetlens/internal/middleware"
)

// NewRouter assembles the full HTTP surface: the versioned API, health probe
// and Prometheus metrics.
func NewRouter(cfg *config.Config, service PipelineService, gatherer prometheus.Gatherer, logger *slog.Logger) chi.Router {
	if logger == nil {
		logger = slog.Default()
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.StructuredLogger(logger))
	r.Use(middleware.Recoverer(logger))
	r.Use(middleware.NewRateLimiter(cfg.Server.RateLimitRPS, cfg.Server.RateLimitBurst, logger).Handler)

	datasetHandler := NewDatasetHandler(service, logger)
	healthHandler := NewHealthHandler(cfg)

	r.Route("/api/v1", func(r chi.Router) {
		r.Mount("/", datasetHandler.Routes())
	})
	r.Get("/healthz", healthHandler.Healthz)
	r.Method("GET", "/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	return r
}
