// Package dataset merges per-file record tables into one canonical,
// deduplicated, gap-filled unified dataset.
package dataset

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"log/slog"
	"net/url"
	"regexp"
	"strings"
	"time"

	apperrors "leetlens/internal/errors"
	"leetlens/pkg/contracts/domain"
)

// dedupKey is the semantic identity of a record for deduplication.
var dedupColumns = []string{"title", "company", "timeframe"}

// BuildReport summarizes one build: what was skipped, deduplicated and
// imputed.
type BuildReport struct {
	SkippedFiles      []apperrors.SkippedFile            `json:"skipped_files,omitempty"`
	DedupKey          []string                           `json:"dedup_key"`
	DuplicatesRemoved int                                `json:"duplicates_removed"`
	ImputedCounts     map[domain.ImputationMethod]int    `json:"imputed_counts"`
	RowsIn            int                                `json:"rows_in"`
	RowsOut           int                                `json:"rows_out"`
	MetadataJoined    int                                `json:"metadata_joined"`
}

// Builder produces the canonical unified dataset.
type Builder struct {
	logger       *slog.Logger
	metadataPath string
	now          func() time.Time
}

// Option configures a Builder.
type Option func(*Builder)

// WithMetadata configures an optional external per-problem metadata table to
// left-join on title_slug. Its absence at build time is not an error.
func WithMetadata(path string) Option {
	return func(b *Builder) { b.metadataPath = path }
}

// WithClock overrides the dataset timestamp source, for tests.
func WithClock(now func() time.Time) Option {
	return func(b *Builder) { b.now = now }
}

// New creates a Builder.
func New(logger *slog.Logger, opts ...Option) *Builder {
	b := &Builder{logger: logger, now: func() time.Time { return time.Now().UTC() }}
	if b.logger == nil {
		b.logger = slog.Default()
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Build concatenates the per-file tables, imputes missing acceptance rates,
// derives slugs, deduplicates and optionally joins external metadata. The
// skipped list from the load phase is carried into the report; the build
// fails hard only when zero usable rows exist across the whole batch.
func (b *Builder) Build(ctx context.Context, tables [][]domain.ProblemRecord, skipped []apperrors.SkippedFile) (*domain.UnifiedDataset, *BuildReport, error) {
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}

	report := &BuildReport{
		SkippedFiles:  skipped,
		DedupKey:      dedupColumns,
		ImputedCounts: make(map[domain.ImputationMethod]int),
	}

	var merged []domain.ProblemRecord
	for _, table := range tables {
		merged = append(merged, table...)
	}
	report.RowsIn = len(merged)

	if len(merged) == 0 {
		return nil, report, apperrors.NewIngestError(apperrors.ErrNoUsableData, skipped)
	}

	b.imputeAcceptanceRates(merged, report)

	for i := range merged {
		merged[i].TitleSlug = deriveSlug(&merged[i])
	}

	deduped := b.deduplicate(merged, report)

	if b.metadataPath != "" {
		joined, err := b.joinMetadata(deduped)
		if err != nil {
			// Degrade to the un-enriched table.
			b.logger.Warn("external metadata unavailable, continuing without it",
				slog.String("path", b.metadataPath),
				slog.String("error", err.Error()))
		} else {
			report.MetadataJoined = joined
		}
	}

	report.RowsOut = len(deduped)

	ds := &domain.UnifiedDataset{
		Records:   deduped,
		CreatedAt: b.now(),
	}
	ds.CompanyCount = len(ds.Companies())
	ds.ProblemCount = distinctProblems(deduped)

	b.logger.Info("unified dataset built",
		slog.Int("rows_in", report.RowsIn),
		slog.Int("rows_out", report.RowsOut),
		slog.Int("duplicates_removed", report.DuplicatesRemoved),
		slog.Int("companies", ds.CompanyCount),
		slog.Int("problems", ds.ProblemCount))

	return ds, report, nil
}

// cohort accumulates acceptance rates for one imputation group.
type cohort struct {
	sum   float64
	count int
}

func (c *cohort) mean() (float64, bool) {
	if c == nil || c.count == 0 {
		return 0, false
	}
	return c.sum / float64(c.count), true
}

// imputeAcceptanceRates fills null acceptance rates from the most specific
// comparable cohort available: records sharing (title, timeframe), then just
// title, then the global mean. Cohort means are computed over original
// (non-imputed) rates only, so imputed values never feed later imputations.
func (b *Builder) imputeAcceptanceRates(records []domain.ProblemRecord, report *BuildReport) {
	byTitleTimeframe := make(map[string]*cohort)
	byTitle := make(map[string]*cohort)
	global := &cohort{}

	titleKey := func(r *domain.ProblemRecord) string {
		return strings.ToLower(r.Title)
	}
	titleTimeframeKey := func(r *domain.ProblemRecord) string {
		return strings.ToLower(r.Title) + "\x00" + string(r.Timeframe)
	}

	for i := range records {
		if records[i].AcceptanceRate == nil {
			continue
		}
		rate := *records[i].AcceptanceRate
		add := func(index map[string]*cohort, key string) {
			c := index[key]
			if c == nil {
				c = &cohort{}
				index[key] = c
			}
			c.sum += rate
			c.count++
		}
		add(byTitleTimeframe, titleTimeframeKey(&records[i]))
		add(byTitle, titleKey(&records[i]))
		global.sum += rate
		global.count++
	}

	for i := range records {
		r := &records[i]
		if r.AcceptanceRate != nil {
			report.ImputedCounts[domain.ImputationOriginal]++
			continue
		}

		var (
			value  float64
			ok     bool
			method domain.ImputationMethod
		)
		if value, ok = byTitleTimeframe[titleTimeframeKey(r)].mean(); ok {
			method = domain.ImputationTitleTimeframe
		} else if value, ok = byTitle[titleKey(r)].mean(); ok {
			method = domain.ImputationTitleAverage
		} else if value, ok = global.mean(); ok {
			method = domain.ImputationGlobalAverage
		} else {
			r.ImputationMethod = domain.ImputationMissing
			r.AcceptanceRateMissing = true
			report.ImputedCounts[domain.ImputationMissing]++
			continue
		}

		rate := value
		r.AcceptanceRate = &rate
		r.AcceptanceRateImputed = true
		r.ImputationMethod = method
		report.ImputedCounts[method]++
	}
}

// deduplicate drops later occurrences of the same (title, company,
// timeframe), keeping the first-seen record in merge order. Rows missing any
// key column pass through untouched.
func (b *Builder) deduplicate(records []domain.ProblemRecord, report *BuildReport) []domain.ProblemRecord {
	seen := make(map[string]struct{}, len(records))
	out := make([]domain.ProblemRecord, 0, len(records))

	for i := range records {
		r := &records[i]
		if r.Title == "" || r.Company == "" || r.Timeframe == "" {
			out = append(out, *r)
			continue
		}
		key := strings.ToLower(r.Title) + "\x00" + r.Company + "\x00" + string(r.Timeframe)
		if _, dup := seen[key]; dup {
			report.DuplicatesRemoved++
			continue
		}
		seen[key] = struct{}{}
		out = append(out, *r)
	}
	return out
}

var slugCleanRe = regexp.MustCompile(`[^\p{L}\p{N}]+`)

// deriveSlug assigns a stable join key: an existing slug wins, else the
// LeetCode URL path segment, else a hyphenated fallback from the title.
func deriveSlug(r *domain.ProblemRecord) string {
	if r.TitleSlug != "" {
		return r.TitleSlug
	}
	if slug := slugFromLink(r.Link); slug != "" {
		return slug
	}
	return Slugify(r.Title)
}

// slugFromLink extracts the slug from a LeetCode problem URL path.
func slugFromLink(link string) string {
	if link == "" {
		return ""
	}
	u, err := url.Parse(link)
	if err != nil {
		return ""
	}
	parts := strings.Split(strings.Trim(u.Path, "/"), "/")
	for i, part := range parts {
		if part == "problems" && i+1 < len(parts) && parts[i+1] != "" {
			return parts[i+1]
		}
	}
	return ""
}

// Slugify lower-cases a title and collapses runs of non-letter, non-digit
// runes to single hyphens. Letters and digits in any script survive, so
// non-Latin titles keep distinct slugs. A title with no usable runes at all
// falls back to a hash, keeping the slug non-empty for every titled record.
func Slugify(title string) string {
	slug := slugCleanRe.ReplaceAllString(strings.ToLower(title), "-")
	slug = strings.Trim(slug, "-")
	if slug == "" && title != "" {
		sum := sha256.Sum256([]byte(title))
		slug = "title-" + hex.EncodeToString(sum[:8])
	}
	return slug
}

// distinctProblems counts distinct title slugs.
func distinctProblems(records []domain.ProblemRecord) int {
	seen := make(map[string]struct{}, len(records))
	for i := range records {
		seen[records[i].TitleSlug] = struct{}{}
	}
	return len(seen)
}
