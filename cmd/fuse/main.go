// Command fuse runs the ingestion pipeline once from the command line and
// writes the fused tables to CSV and JSON files.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/prometheus/client_golang/prometheus"

	"leetlens/internal/cache"
	"leetlens/internal/config"
	"leetlens/internal/correlation"
	"leetlens/internal/exporter"
	"leetlens/internal/infrastructure"
	"leetlens/internal/services"
	"leetlens/pkg/contracts"
)

func main() {
	root := flag.String("root", "", "company data root (defaults to the configured data root)")
	out := flag.String("out", "out", "output directory for exported tables")
	metadata := flag.String("metadata", "", "optional problem metadata file (csv or xlsx)")
	refresh := flag.Bool("refresh", false, "rebuild even when the cache is fresh")
	correlations := flag.Bool("correlations", true, "also compute and export company correlations")
	top := flag.Int("top", 0, "keep only the top N correlation pairs (0 = all)")
	showVersion := flag.Bool("version", false, "print the version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Println(contracts.GetVersionString())
		return
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Warn("failed to load config, using defaults", slog.String("error", err.Error()))
		cfg = config.Default()
	}
	if *root != "" {
		cfg.Data.Root = *root
	}
	if *metadata != "" {
		cfg.Data.MetadataFile = *metadata
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		logger = slog.Default()
	}

	logger.Info("starting fuse run",
		slog.String("root", cfg.Data.Root),
		slog.String("out", *out),
		slog.Bool("refresh", *refresh))

	paths, err := config.NewPaths(cfg.Data)
	if err != nil {
		logger.Error("failed to resolve data paths", slog.String("error", err.Error()))
		os.Exit(1)
	}
	cacheManager, err := cache.NewManager(paths, cfg.Data.MemoryCacheSize, logger)
	if err != nil {
		logger.Error("failed to initialize cache", slog.String("error", err.Error()))
		os.Exit(1)
	}
	pipeline, err := services.NewPipeline(services.Deps{
		Config:  cfg,
		Cache:   cacheManager,
		Metrics: infrastructure.NewMetrics(prometheus.NewRegistry()),
		Logger:  logger,
	})
	if err != nil {
		logger.Error("failed to initialize pipeline", slog.String("error", err.Error()))
		os.Exit(1)
	}

	ctx := context.Background()

	ds, err := pipeline.UnifiedDataset(ctx, *refresh)
	if err != nil {
		logger.Error("dataset build failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
	topics, err := pipeline.ExplodedTopics(ctx, *refresh)
	if err != nil {
		logger.Error("exploded topics failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
	stats, err := pipeline.CompanyStats(ctx, *refresh)
	if err != nil {
		logger.Error("company stats failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	writer := exporter.NewCSVWriter(*out, logger)
	exports := []struct {
		name string
		fn   func() error
	}{
		{"unified.csv", func() error { return writer.ExportDataset("unified.csv", ds) }},
		{"exploded_topics.csv", func() error { return writer.ExportTopics("exploded_topics.csv", topics) }},
		{"company_stats.csv", func() error { return writer.ExportCompanyStats("company_stats.csv", stats) }},
		{"unified.json", func() error { return writer.WriteJSON("unified.json", ds) }},
	}
	for _, e := range exports {
		if err := e.fn(); err != nil {
			logger.Error("export failed", slog.String("file", e.name), slog.String("error", err.Error()))
			os.Exit(1)
		}
	}

	if *correlations {
		set, err := pipeline.CompanyCorrelations(ctx, correlation.Options{TopN: *top, IncludeFeatures: true})
		if err != nil {
			logger.Error("correlation run failed", slog.String("error", err.Error()))
			os.Exit(1)
		}
		if set.Empty() {
			logger.Warn("no comparable company pairs", slog.String("reason", set.Reason))
		}
		if err := writer.ExportCorrelations("correlations.csv", set); err != nil {
			logger.Error("export failed", slog.String("file", "correlations.csv"), slog.String("error", err.Error()))
			os.Exit(1)
		}
		if err := writer.WriteJSON("correlations.json", set); err != nil {
			logger.Error("export failed", slog.String("file", "correlations.json"), slog.String("error", err.Error()))
			os.Exit(1)
		}
	}

	if report := pipeline.LastReport(); report != nil {
		logger.Info("fuse run complete",
			slog.Int("rows_in", report.RowsIn),
			slog.Int("rows_out", report.RowsOut),
			slog.Int("duplicates_removed", report.DuplicatesRemoved),
			slog.Int("companies", ds.CompanyCount))
	} else {
		logger.Info("fuse run complete", slog.Int("records", len(ds.Records)))
	}
}
