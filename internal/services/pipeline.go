// Package services orchestrates the ingestion pipeline: discovery, parallel
// loading, normalization, dataset building, analytics and correlation, with
// a freshness-keyed cache in front of every derived table.
package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel/trace"

	"leetlens/internal/cache"
	"leetlens/internal/config"
	"leetlens/internal/correlation"
	"leetlens/internal/dataset"
	"leetlens/internal/discovery"
	apperrors "leetlens/internal/errors"
	"leetlens/internal/infrastructure"
	"leetlens/internal/loader"
	"leetlens/internal/normalize"
	"leetlens/pkg/contracts/domain"
)

// Logical table names, used as cache key prefixes.
const (
	tableUnified      = "unified"
	tableExploded     = "exploded"
	tableCompanyStats = "company_stats"
)

// Deps are the collaborators a Pipeline needs. Config, Cache and Metrics are
// required; Tracer and Logger fall back to no-op and default respectively.
type Deps struct {
	Config  *config.Config
	Cache   *cache.Manager
	Metrics *infrastructure.Metrics
	Tracer  trace.Tracer
	Logger  *slog.Logger
}

// Pipeline exposes the fused tables and correlation results. All methods are
// safe for concurrent use; rebuilds within one process are serialized.
type Pipeline struct {
	cfg        *config.Config
	cache      *cache.Manager
	metrics    *infrastructure.Metrics
	tracer     trace.Tracer
	logger     *slog.Logger
	discovery  *discovery.Discovery
	loader     *loader.Loader
	normalizer *normalize.Normalizer
	builder    *dataset.Builder
	engine     *correlation.Engine

	mu         sync.Mutex
	lastReport *dataset.BuildReport
}

// NewPipeline wires the pipeline components from the given dependencies.
func NewPipeline(deps Deps) (*Pipeline, error) {
	if deps.Config == nil {
		return nil, fmt.Errorf("pipeline requires a config")
	}
	if deps.Cache == nil {
		return nil, fmt.Errorf("pipeline requires a cache manager")
	}
	if deps.Metrics == nil {
		return nil, fmt.Errorf("pipeline requires metrics")
	}
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	tracer := deps.Tracer
	if tracer == nil {
		tracer = infrastructure.NoopTracer()
	}

	var builderOpts []dataset.Option
	if deps.Config.Data.MetadataFile != "" {
		builderOpts = append(builderOpts, dataset.WithMetadata(deps.Config.Data.MetadataFile))
	}

	return &Pipeline{
		cfg:        deps.Config,
		cache:      deps.Cache,
		metrics:    deps.Metrics,
		tracer:     tracer,
		logger:     logger,
		discovery:  discovery.New(deps.Config.Data.Root, logger),
		loader:     loader.New(logger),
		normalizer: normalize.New(logger),
		builder:    dataset.New(logger, builderOpts...),
		engine:     correlation.NewEngine(deps.Config.Correlation, logger),
	}, nil
}

// datasetEnvelope is the serialized form of a built dataset plus its report.
type datasetEnvelope struct {
	Dataset *domain.UnifiedDataset `json:"dataset"`
	Report  *dataset.BuildReport   `json:"report"`
}

// UnifiedDataset returns the canonical dataset, rebuilding it only when the
// source snapshot is newer than the cached copy or refresh is forced.
func (p *Pipeline) UnifiedDataset(ctx context.Context, forceRefresh bool) (*domain.UnifiedDataset, error) {
	ctx, span := p.tracer.Start(ctx, "pipeline.UnifiedDataset")
	defer span.End()

	sources, err := p.discover(ctx)
	if err != nil {
		return nil, err
	}
	key := cache.Key(tableUnified, sourcePaths(sources))

	if !forceRefresh {
		if data, ok := p.cache.Get(cache.NamespaceDatasets, key, sources); ok {
			p.metrics.CacheHits.WithLabelValues(string(cache.NamespaceDatasets)).Inc()
			var envelope datasetEnvelope
			if err := json.Unmarshal(data, &envelope); err == nil && envelope.Dataset != nil {
				p.setLastReport(envelope.Report)
				return envelope.Dataset, nil
			}
			p.logger.Warn("discarding undecodable cache entry", slog.String("key", key))
			p.cache.Invalidate(cache.NamespaceDatasets, key)
		}
		p.metrics.CacheMisses.WithLabelValues(string(cache.NamespaceDatasets)).Inc()
	}

	ds, report, err := p.build(ctx, sources)
	if err != nil {
		return nil, err
	}
	p.setLastReport(report)

	data, err := json.Marshal(datasetEnvelope{Dataset: ds, Report: report})
	if err != nil {
		return nil, fmt.Errorf("failed to serialize dataset: %w", err)
	}
	if err := p.cache.Put(cache.NamespaceDatasets, key, sources, data); err != nil {
		// A cold cache next time is acceptable; the build result is not lost.
		p.logger.Warn("failed to persist dataset cache entry",
			slog.String("key", key),
			slog.String("error", err.Error()))
	}
	return ds, nil
}

// ExplodedTopics returns the one-row-per-topic view of the unified dataset.
func (p *Pipeline) ExplodedTopics(ctx context.Context, forceRefresh bool) ([]domain.TopicRow, error) {
	var rows []domain.TopicRow
	err := p.derived(ctx, tableExploded, forceRefresh, &rows, func(ds *domain.UnifiedDataset) (any, error) {
		return dataset.ExplodeTopics(ds), nil
	})
	return rows, err
}

// CompanyStats returns the per-company aggregate table.
func (p *Pipeline) CompanyStats(ctx context.Context, forceRefresh bool) ([]domain.CompanyStats, error) {
	var stats []domain.CompanyStats
	err := p.derived(ctx, tableCompanyStats, forceRefresh, &stats, func(ds *domain.UnifiedDataset) (any, error) {
		return dataset.CompanyStats(ds), nil
	})
	return stats, err
}

// CompanyCorrelations computes correlation results over the current dataset.
// The underlying dataset is served from cache when fresh; the correlation run
// itself is cheap enough to compute per request with its exact options.
func (p *Pipeline) CompanyCorrelations(ctx context.Context, opts correlation.Options) (*domain.CorrelationSet, error) {
	ctx, span := p.tracer.Start(ctx, "pipeline.CompanyCorrelations")
	defer span.End()

	ds, err := p.UnifiedDataset(ctx, false)
	if err != nil {
		return nil, err
	}
	return p.engine.Correlate(ctx, ds, opts)
}

// RefreshSummary reports the outcome of a forced rebuild.
type RefreshSummary struct {
	SourceFiles  int           `json:"source_files"`
	Records      int           `json:"records"`
	Companies    int           `json:"companies"`
	SkippedFiles int           `json:"skipped_files"`
	Duration     time.Duration `json:"duration_ns"`
}

// RefreshAll rebuilds the unified dataset and both derived tables regardless
// of cache freshness.
func (p *Pipeline) RefreshAll(ctx context.Context) (*RefreshSummary, error) {
	ctx, span := p.tracer.Start(ctx, "pipeline.RefreshAll")
	defer span.End()

	start := time.Now()
	ds, err := p.UnifiedDataset(ctx, true)
	if err != nil {
		return nil, err
	}
	if _, err := p.ExplodedTopics(ctx, true); err != nil {
		return nil, err
	}
	if _, err := p.CompanyStats(ctx, true); err != nil {
		return nil, err
	}

	summary := &RefreshSummary{
		Records:   len(ds.Records),
		Companies: ds.CompanyCount,
		Duration:  time.Since(start),
	}
	if report := p.LastReport(); report != nil {
		summary.SkippedFiles = len(report.SkippedFiles)
	}
	if sources, err := p.discover(ctx); err == nil {
		summary.SourceFiles = len(sources)
	}

	p.logger.Info("full refresh complete",
		slog.Int("records", summary.Records),
		slog.Int("companies", summary.Companies),
		slog.Duration("duration", summary.Duration))
	return summary, nil
}

// LastReport returns the build report of the most recent dataset build, or
// nil before the first build.
func (p *Pipeline) LastReport() *dataset.BuildReport {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.lastReport
}

func (p *Pipeline) setLastReport(report *dataset.BuildReport) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if report != nil {
		p.lastReport = report
	}
}

// derived serves one dataset-derived table through the analytics cache
// namespace. out must be a pointer to the table's slice type.
func (p *Pipeline) derived(ctx context.Context, name string, forceRefresh bool, out any, compute func(*domain.UnifiedDataset) (any, error)) error {
	ctx, span := p.tracer.Start(ctx, "pipeline."+name)
	defer span.End()

	sources, err := p.discover(ctx)
	if err != nil {
		return err
	}
	key := cache.Key(name, sourcePaths(sources))

	if !forceRefresh {
		if data, ok := p.cache.Get(cache.NamespaceAnalytics, key, sources); ok {
			p.metrics.CacheHits.WithLabelValues(string(cache.NamespaceAnalytics)).Inc()
			if err := json.Unmarshal(data, out); err == nil {
				return nil
			}
			p.cache.Invalidate(cache.NamespaceAnalytics, key)
		}
		p.metrics.CacheMisses.WithLabelValues(string(cache.NamespaceAnalytics)).Inc()
	}

	// The dataset's own cache already tracks source freshness; a forced
	// derived recompute still reuses a fresh unified table.
	ds, err := p.UnifiedDataset(ctx, false)
	if err != nil {
		return err
	}
	table, err := compute(ds)
	if err != nil {
		return err
	}

	data, err := json.Marshal(table)
	if err != nil {
		return fmt.Errorf("failed to serialize %s table: %w", name, err)
	}
	if err := p.cache.Put(cache.NamespaceAnalytics, key, sources, data); err != nil {
		p.logger.Warn("failed to persist analytics cache entry",
			slog.String("key", key),
			slog.String("error", err.Error()))
	}
	return json.Unmarshal(data, out)
}

// discover snapshots the current source tree and updates the file metrics.
func (p *Pipeline) discover(ctx context.Context) ([]domain.SourceFile, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	sources, err := p.discovery.Discover()
	if err != nil {
		return nil, err
	}
	p.metrics.FilesDiscovered.Add(float64(len(sources)))
	return sources, nil
}

// build runs the full load, normalize, enrich and build sequence over one
// source snapshot.
func (p *Pipeline) build(ctx context.Context, sources []domain.SourceFile) (*domain.UnifiedDataset, *dataset.BuildReport, error) {
	start := time.Now()

	batch, err := p.loader.LoadAll(ctx, sources, p.cfg.Data.LoaderWorkers, func(done, total int) {
		if done == total || done%50 == 0 {
			p.logger.Debug("loading source files", slog.Int("done", done), slog.Int("total", total))
		}
	})
	if err != nil {
		return nil, nil, err
	}
	p.metrics.FilesLoaded.Add(float64(len(batch.Tables)))
	p.metrics.FilesSkipped.Add(float64(len(batch.Skipped)))

	now := time.Now().UTC()
	var stats normalize.Stats
	tables := make([][]domain.ProblemRecord, 0, len(batch.Tables))
	for _, table := range batch.Tables {
		records, tableStats := p.normalizer.Normalize(table)
		stats.Add(tableStats)
		normalize.Enrich(records, now)
		tables = append(tables, records)
	}
	p.metrics.RowsSkipped.Add(float64(stats.SkippedRows))

	ds, report, err := p.builder.Build(ctx, tables, batch.Skipped)
	if err != nil {
		return nil, nil, err
	}

	p.metrics.DatasetBuilds.Inc()
	p.metrics.BuildDuration.Observe(time.Since(start).Seconds())
	return ds, report, nil
}

func sourcePaths(sources []domain.SourceFile) []string {
	paths := make([]string, len(sources))
	for i := range sources {
		paths[i] = sources[i].Path
	}
	return paths
}

// IsNoData reports whether err is the zero-usable-rows ingest failure, which
// callers surface as an empty result rather than a server fault.
func IsNoData(err error) bool {
	return apperrors.Is(err, apperrors.ErrNoUsableData)
}
