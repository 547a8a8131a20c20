package http

import (
	"context"

	"leetlens/internal/correlation"
	"leetlens/internal/services"
	"leetlens/pkg/contracts/domain"
)

// PipelineService is the surface of the pipeline the handlers depend on.
// Tests substitute a stub implementation.
type PipelineService interface {
	UnifiedDataset(ctx context.Context, forceRefresh bool) (*domain.UnifiedDataset, error)
	ExplodedTopics(ctx context.Context, forceRefresh bool) ([]domain.TopicRow, error)
	CompanyStats(ctx context.Context, forceRefresh bool) ([]domain.CompanyStats, error)
	CompanyCorrelations(ctx context.Context, opts correlation.Options) (*domain.CorrelationSet, error)
	RefreshAll(ctx context.Context) (*services.RefreshSummary, error)
}
