package domain

import (
	"sort"
	"time"
)

// UnifiedDataset is the canonical, deduplicated, gap-filled collection of
// problem records produced by the dataset builder. After deduplication no two
// records share (title, company, timeframe) and every record carries a
// non-empty title slug.
type UnifiedDataset struct {
	Records      []ProblemRecord `json:"records"`
	CreatedAt    time.Time       `json:"dataset_created_at"`
	CompanyCount int             `json:"company_count"`
	ProblemCount int             `json:"problem_count"`
}

// Companies returns the sorted list of distinct companies in the dataset.
func (d *UnifiedDataset) Companies() []string {
	seen := make(map[string]struct{})
	for i := range d.Records {
		seen[d.Records[i].Company] = struct{}{}
	}
	companies := make([]string, 0, len(seen))
	for c := range seen {
		companies = append(companies, c)
	}
	sort.Strings(companies)
	return companies
}

// ByCompany groups record indexes by company.
func (d *UnifiedDataset) ByCompany() map[string][]int {
	groups := make(map[string][]int)
	for i := range d.Records {
		groups[d.Records[i].Company] = append(groups[d.Records[i].Company], i)
	}
	return groups
}

// TopicRow is one row of the exploded-topics view: a (record, topic) pair.
type TopicRow struct {
	Title     string    `json:"title"`
	TitleSlug string    `json:"title_slug"`
	Company   string    `json:"company"`
	Timeframe Timeframe `json:"timeframe"`
	Topic     string    `json:"topic"`
	Frequency float64   `json:"frequency"`
}

// CompanyStats is one row of the aggregate per-company statistics table.
type CompanyStats struct {
	Company          string             `json:"company"`
	Problems         int                `json:"problems"`
	DistinctProblems int                `json:"distinct_problems"`
	MeanAcceptance   float64            `json:"mean_acceptance"`
	MeanFrequency    float64            `json:"mean_frequency"`
	DifficultyCounts map[Difficulty]int `json:"difficulty_counts"`
}
