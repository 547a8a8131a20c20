package domain

import (
	"time"
)

// Timeframe identifies which historical window a source file's statistics
// pertain to.
type Timeframe string

const (
	Timeframe30Days      Timeframe = "30d"
	Timeframe3Months     Timeframe = "3m"
	Timeframe6Months     Timeframe = "6m"
	TimeframeOver6Months Timeframe = "6m+"
	TimeframeAll         Timeframe = "all"
)

// Timeframes lists all known timeframes in canonical order.
func Timeframes() []Timeframe {
	return []Timeframe{Timeframe30Days, Timeframe3Months, Timeframe6Months, TimeframeOver6Months, TimeframeAll}
}

// Difficulty is the problem difficulty bucket after normalization.
type Difficulty string

const (
	DifficultyEasy    Difficulty = "EASY"
	DifficultyMedium  Difficulty = "MEDIUM"
	DifficultyHard    Difficulty = "HARD"
	DifficultyUnknown Difficulty = "UNKNOWN"
)

// Difficulties lists all difficulty buckets in canonical order.
func Difficulties() []Difficulty {
	return []Difficulty{DifficultyEasy, DifficultyMedium, DifficultyHard, DifficultyUnknown}
}

// ImputationMethod records how a missing acceptance rate was filled.
type ImputationMethod string

const (
	ImputationOriginal       ImputationMethod = "original"
	ImputationTitleTimeframe ImputationMethod = "title_timeframe"
	ImputationTitleAverage   ImputationMethod = "title_average"
	ImputationGlobalAverage  ImputationMethod = "global_average"
	ImputationMissing        ImputationMethod = "missing"
)

// SourceFile describes one discovered per-company statistics file.
type SourceFile struct {
	Path       string    `json:"path"`
	Company    string    `json:"company"`
	Timeframe  Timeframe `json:"timeframe"`
	ModifiedAt time.Time `json:"modified_at"`
}

// ProblemRecord is one normalized row of interview-problem statistics.
// AcceptanceRate is nil when the source value was unparsable and no
// imputation cohort was available.
type ProblemRecord struct {
	Title                 string           `json:"title" validate:"required"`
	TitleSlug             string           `json:"title_slug"`
	Difficulty            Difficulty       `json:"difficulty"`
	Frequency             float64          `json:"frequency" validate:"min=0"`
	AcceptanceRate        *float64         `json:"acceptance_rate,omitempty"`
	AcceptanceRateImputed bool             `json:"acceptance_rate_imputed"`
	AcceptanceRateMissing bool             `json:"acceptance_rate_missing"`
	ImputationMethod      ImputationMethod `json:"imputation_method"`
	Link                  string           `json:"link,omitempty"`
	Topics                []string         `json:"topics,omitempty"`
	Company               string           `json:"company"`
	Timeframe             Timeframe        `json:"timeframe"`
	SourceFile            string           `json:"source_file"`
	LastUpdated           time.Time        `json:"last_updated"`

	// Derived categorical tags attached by enrichment.
	CompanyClass   string `json:"company_class,omitempty"`
	TimeframeClass string `json:"timeframe_class,omitempty"`
	AgeBucket      string `json:"age_bucket,omitempty"`

	// Engagement signals joined from the optional external metadata table.
	Likes    *float64 `json:"likes,omitempty"`
	Dislikes *float64 `json:"dislikes,omitempty"`
}

// Rate returns the acceptance rate or 0 when absent.
func (r *ProblemRecord) Rate() float64 {
	if r.AcceptanceRate == nil {
		return 0
	}
	return *r.AcceptanceRate
}
