package infrastructure

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the pipeline's prometheus instruments. A single instance is
// created at startup and injected into the services layer.
type Metrics struct {
	FilesDiscovered prometheus.Counter
	FilesLoaded     prometheus.Counter
	FilesSkipped    prometheus.Counter
	RowsSkipped     prometheus.Counter
	CacheHits       *prometheus.CounterVec
	CacheMisses     *prometheus.CounterVec
	DatasetBuilds   prometheus.Counter
	BuildDuration   prometheus.Histogram
}

// NewMetrics registers the pipeline instruments on the given registerer.
// Pass prometheus.DefaultRegisterer in main; tests use a fresh registry.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		FilesDiscovered: factory.NewCounter(prometheus.CounterOpts{
			Name: "leetlens_files_discovered_total",
			Help: "Source files matched to a timeframe bucket.",
		}),
		FilesLoaded: factory.NewCounter(prometheus.CounterOpts{
			Name: "leetlens_files_loaded_total",
			Help: "Source files parsed successfully.",
		}),
		FilesSkipped: factory.NewCounter(prometheus.CounterOpts{
			Name: "leetlens_files_skipped_total",
			Help: "Source files skipped as unreadable, undecodable or empty.",
		}),
		RowsSkipped: factory.NewCounter(prometheus.CounterOpts{
			Name: "leetlens_rows_skipped_total",
			Help: "Rows dropped during normalization.",
		}),
		CacheHits: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "leetlens_cache_hits_total",
			Help: "Cache hits by namespace.",
		}, []string{"namespace"}),
		CacheMisses: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "leetlens_cache_misses_total",
			Help: "Cache misses by namespace.",
		}, []string{"namespace"}),
		DatasetBuilds: factory.NewCounter(prometheus.CounterOpts{
			Name: "leetlens_dataset_builds_total",
			Help: "Full unified dataset rebuilds.",
		}),
		BuildDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "leetlens_dataset_build_seconds",
			Help:    "Wall time of unified dataset rebuilds.",
			Buckets: prometheus.ExponentialBuckets(0.05, 2, 12),
		}),
	}
}
