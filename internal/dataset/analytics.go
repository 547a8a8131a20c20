package dataset

import (
	"sort"

	"leetlens/pkg/contracts/domain"
)

// ExplodeTopics builds the exploded-topics view: one row per (record, topic)
// pair. Records without topics contribute nothing.
func ExplodeTopics(ds *domain.UnifiedDataset) []domain.TopicRow {
	var rows []domain.TopicRow
	for i := range ds.Records {
		r := &ds.Records[i]
		for _, topic := range r.Topics {
			rows = append(rows, domain.TopicRow{
				Title:     r.Title,
				TitleSlug: r.TitleSlug,
				Company:   r.Company,
				Timeframe: r.Timeframe,
				Topic:     topic,
				Frequency: r.Frequency,
			})
		}
	}
	return rows
}

// CompanyStats aggregates the unified dataset into one summary row per
// company, sorted by company name for stable output.
func CompanyStats(ds *domain.UnifiedDataset) []domain.CompanyStats {
	byCompany := make(map[string]*domain.CompanyStats)
	rateSums := make(map[string]float64)
	rateCounts := make(map[string]int)
	freqSums := make(map[string]float64)
	slugs := make(map[string]map[string]struct{})

	for i := range ds.Records {
		r := &ds.Records[i]
		stats := byCompany[r.Company]
		if stats == nil {
			stats = &domain.CompanyStats{
				Company:          r.Company,
				DifficultyCounts: make(map[domain.Difficulty]int),
			}
			byCompany[r.Company] = stats
			slugs[r.Company] = make(map[string]struct{})
		}
		stats.Problems++
		stats.DifficultyCounts[r.Difficulty]++
		slugs[r.Company][r.TitleSlug] = struct{}{}
		freqSums[r.Company] += r.Frequency
		if r.AcceptanceRate != nil {
			rateSums[r.Company] += *r.AcceptanceRate
			rateCounts[r.Company]++
		}
	}

	out := make([]domain.CompanyStats, 0, len(byCompany))
	for company, stats := range byCompany {
		stats.DistinctProblems = len(slugs[company])
		if stats.Problems > 0 {
			stats.MeanFrequency = freqSums[company] / float64(stats.Problems)
		}
		if rateCounts[company] > 0 {
			stats.MeanAcceptance = rateSums[company] / float64(rateCounts[company])
		}
		out = append(out, *stats)
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Company < out[j].Company })
	return out
}
