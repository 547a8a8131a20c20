// Package correlation computes blended company-similarity scores from the
// unified dataset. Companies are profiled along independent feature blocks
// (topic mix, difficulty mix, acceptance level, engagement) which are scaled,
// filtered for degenerate columns and combined under normalized weights.
package correlation

import (
	"context"
	"log/slog"
	"math"
	"sort"
	"strings"

	"leetlens/internal/config"
	"leetlens/pkg/contracts/domain"
)

// Config carries the engine's tunable constants.
type Config = config.CorrelationConfig

// MetricComposite is the only metric the engine currently produces.
const MetricComposite = "composite"

// Options narrows one correlation run.
type Options struct {
	// Companies restricts the run to the named companies. Names absent from
	// the dataset are silently excluded. Empty means all companies.
	Companies []string
	// TopN truncates the ranked pair list when positive.
	TopN int
	// IncludeFeatures attaches the per-block component scores to each pair.
	IncludeFeatures bool
}

// Engine computes company correlation sets.
type Engine struct {
	cfg    Config
	logger *slog.Logger
}

// NewEngine creates a correlation engine with the given constants.
func NewEngine(cfg Config, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{cfg: cfg, logger: logger}
}

// Correlate runs one full correlation pass over the dataset. Degenerate
// inputs (fewer than two companies, or no feature block with any variance)
// yield a well-formed empty set with a reason, never an error.
func (e *Engine) Correlate(ctx context.Context, ds *domain.UnifiedDataset, opts Options) (*domain.CorrelationSet, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	companies := e.selectCompanies(ds, opts.Companies)
	if len(companies) < 2 {
		return &domain.CorrelationSet{
			Companies:       companies,
			TopCorrelations: []domain.CorrelationResult{},
			Reason:          "fewer than two companies with data",
		}, nil
	}

	indexes := ds.ByCompany()
	blocks := e.buildBlocks(ds, companies, indexes)
	if len(blocks) == 0 {
		return &domain.CorrelationSet{
			Companies:       companies,
			TopCorrelations: []domain.CorrelationResult{},
			Reason:          "all feature blocks are degenerate",
		}, nil
	}

	weights := renormalizeWeights(blocks)

	n := len(companies)
	matrix := make([][]float64, n)
	for i := range matrix {
		matrix[i] = make([]float64, n)
		matrix[i][i] = 1.0
	}

	var pairs []domain.CorrelationResult
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			composite := 0.0
			components := make(map[string]float64, len(blocks))
			for _, b := range blocks {
				sim := blockSimilarity(b, i, j)
				components[b.Name] = sim
				composite += weights[b.Name] * sim
			}
			composite = clamp(composite, -1, 1)
			matrix[i][j] = composite
			matrix[j][i] = composite

			result := domain.CorrelationResult{
				Company1:    companies[i],
				Company2:    companies[j],
				Correlation: composite,
				Metric:      MetricComposite,
				Strength:    classifyStrength(composite),
			}
			if opts.IncludeFeatures {
				result.Components = components
			}
			pairs = append(pairs, result)
		}
	}

	sort.Slice(pairs, func(i, j int) bool {
		if pairs[i].Correlation != pairs[j].Correlation {
			return pairs[i].Correlation > pairs[j].Correlation
		}
		if pairs[i].Company1 != pairs[j].Company1 {
			return pairs[i].Company1 < pairs[j].Company1
		}
		return pairs[i].Company2 < pairs[j].Company2
	})
	if opts.TopN > 0 && len(pairs) > opts.TopN {
		pairs = pairs[:opts.TopN]
	}

	e.logger.Info("correlation run complete",
		slog.Int("companies", n),
		slog.Int("blocks", len(blocks)),
		slog.Int("pairs", len(pairs)))

	return &domain.CorrelationSet{
		Companies:        companies,
		Matrix:           matrix,
		ComponentWeights: weights,
		TopCorrelations:  pairs,
	}, nil
}

// selectCompanies intersects the dataset's companies with the requested
// filter, case-insensitively, preserving the dataset's sorted order.
func (e *Engine) selectCompanies(ds *domain.UnifiedDataset, filter []string) []string {
	all := ds.Companies()
	if len(filter) == 0 {
		return all
	}
	wanted := make(map[string]struct{}, len(filter))
	for _, name := range filter {
		wanted[strings.ToLower(strings.TrimSpace(name))] = struct{}{}
	}
	selected := make([]string, 0, len(filter))
	for _, company := range all {
		if _, ok := wanted[strings.ToLower(company)]; ok {
			selected = append(selected, company)
		}
	}
	return selected
}

// buildBlocks constructs, scales and variance-filters the feature blocks,
// returning only those that survive with at least one column and a positive
// weight.
func (e *Engine) buildBlocks(ds *domain.UnifiedDataset, companies []string, indexes map[string][]int) []*Block {
	candidates := []*Block{
		buildTopicBlock(ds, companies, indexes, e.cfg),
		buildDifficultyBlock(ds, companies, indexes, e.cfg),
		buildAcceptanceBlock(ds, companies, indexes, e.cfg),
		buildFeedbackBlock(ds, companies, indexes, e.cfg),
	}

	var blocks []*Block
	for _, b := range candidates {
		b.ScaleByMax()
		b.DropZeroVariance()
		if b.Empty() || b.Weight <= 0 {
			e.logger.Debug("feature block dropped",
				slog.String("block", b.Name),
				slog.Int("columns", len(b.Columns)))
			continue
		}
		blocks = append(blocks, b)
	}
	return blocks
}

// renormalizeWeights rescales the surviving blocks' weights to sum to one.
func renormalizeWeights(blocks []*Block) map[string]float64 {
	total := 0.0
	for _, b := range blocks {
		total += b.Weight
	}
	weights := make(map[string]float64, len(blocks))
	for _, b := range blocks {
		weights[b.Name] = b.Weight / total
	}
	return weights
}

// blockSimilarity scores one company pair within one block: cosine similarity
// over multi-column blocks, scalar closeness over single-column ones, where
// cosine of two positive scalars would always be one.
func blockSimilarity(b *Block, i, j int) float64 {
	if len(b.Columns) == 1 {
		return clamp(1-math.Abs(b.Data[i][0]-b.Data[j][0]), -1, 1)
	}
	return cosine(b.Data[i], b.Data[j])
}

// cosine returns the cosine similarity of two vectors, or zero when either
// has no magnitude.
func cosine(a, b []float64) float64 {
	var dot, na, nb float64
	for k := range a {
		dot += a[k] * b[k]
		na += a[k] * a[k]
		nb += b[k] * b[k]
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return clamp(dot/(math.Sqrt(na)*math.Sqrt(nb)), -1, 1)
}

// classifyStrength buckets a composite score by absolute value.
func classifyStrength(score float64) domain.Strength {
	switch abs := math.Abs(score); {
	case abs >= 0.75:
		return domain.StrengthStrong
	case abs >= 0.4:
		return domain.StrengthModerate
	default:
		return domain.StrengthWeak
	}
}

func clamp(v, lo, hi float64) float64 {
	return math.Min(hi, math.Max(lo, v))
}
