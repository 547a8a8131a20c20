package domain

// Strength classifies the absolute value of a composite similarity score.
type Strength string

const (
	StrengthWeak     Strength = "weak"
	StrengthModerate Strength = "moderate"
	StrengthStrong   Strength = "strong"
)

// CorrelationResult is the blended similarity between one company pair,
// together with the independent per-block scores that produced it.
type CorrelationResult struct {
	Company1    string             `json:"company1"`
	Company2    string             `json:"company2"`
	Correlation float64            `json:"correlation"`
	Metric      string             `json:"metric"`
	Strength    Strength           `json:"strength"`
	Components  map[string]float64 `json:"components,omitempty"`
}

// CorrelationSet is the full result of one correlation run. A set with no
// pairs and a non-empty Reason is the well-formed "no data" outcome for
// degenerate inputs; it is never surfaced as an error.
type CorrelationSet struct {
	Companies        []string           `json:"companies_analyzed"`
	Matrix           [][]float64        `json:"correlation_matrix,omitempty"`
	ComponentWeights map[string]float64 `json:"component_weights,omitempty"`
	TopCorrelations  []CorrelationResult `json:"top_correlations"`
	Reason           string             `json:"reason,omitempty"`
}

// Empty reports whether the run produced no comparable company pairs.
func (s *CorrelationSet) Empty() bool {
	return len(s.TopCorrelations) == 0
}
