package normalize

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"leetlens/internal/loader"
	"leetlens/pkg/contracts/domain"
)

func TestParseFrequency(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected float64
		warning  bool
	}{
		{"plain number", "42", 42, false},
		{"decimal", "3.75", 3.75, false},
		{"embedded number", "freq: 12 times", 12, false},
		{"negative clamps to zero", "-5", 0, false},
		{"empty is zero without warning", "", 0, false},
		{"garbage is zero with warning", "n/a", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			value, ok := parseFrequency(tt.input)
			assert.Equal(t, tt.expected, value)
			assert.Equal(t, tt.warning, !ok)
		})
	}
}

func TestParseAcceptanceRate(t *testing.T) {
	ptr := func(v float64) *float64 { return &v }

	tests := []struct {
		name     string
		input    string
		expected *float64
	}{
		{"fraction", "0.55", ptr(0.55)},
		{"percentage scale", "55.5", ptr(0.555)},
		{"percent sign", "40%", ptr(0.4)},
		{"over hundred clamps", "150", ptr(1)},
		{"empty is nil", "", nil},
		{"garbage is nil", "unknown", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			value, _ := parseAcceptanceRate(tt.input)
			if tt.expected == nil {
				assert.Nil(t, value)
			} else {
				require.NotNil(t, value)
				assert.InDelta(t, *tt.expected, *value, 1e-9)
			}
		})
	}
}

func TestAcceptanceRateBounds(t *testing.T) {
	inputs := []string{"0", "0.001", "1", "99.9", "100", "250", "-3", "0.5%", "abc", ""}
	for _, input := range inputs {
		value, _ := parseAcceptanceRate(input)
		if value != nil {
			assert.GreaterOrEqual(t, *value, 0.0, "input %q", input)
			assert.LessOrEqual(t, *value, 1.0, "input %q", input)
		}
	}
}

func TestParseDifficulty(t *testing.T) {
	tests := []struct {
		input    string
		expected domain.Difficulty
	}{
		{"easy", domain.DifficultyEasy},
		{"EASY", domain.DifficultyEasy},
		{"e", domain.DifficultyEasy},
		{"1", domain.DifficultyEasy},
		{"Medium", domain.DifficultyMedium},
		{"med", domain.DifficultyMedium},
		{"2", domain.DifficultyMedium},
		{"hard", domain.DifficultyHard},
		{"H", domain.DifficultyHard},
		{"3", domain.DifficultyHard},
		{"", domain.DifficultyUnknown},
		{"impossible", domain.DifficultyUnknown},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, parseDifficulty(tt.input), "input %q", tt.input)
	}
}

func TestCleanTitle(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"Two Sum", "Two Sum"},
		{"  Two   Sum  ", "Two Sum"},
		{"146. LRU Cache", "LRU Cache"},
		{"23) Merge k Sorted Lists", "Merge k Sorted Lists"},
		{"   ", ""},
		{"42.", ""},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, CleanTitle(tt.input), "input %q", tt.input)
	}
}

func TestCleanLink(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"https://leetcode.com/problems/two-sum", "https://leetcode.com/problems/two-sum"},
		{"https:/leetcode.com/problems/two-sum", "https://leetcode.com/problems/two-sum"},
		{"https//leetcode.com/problems/two-sum", "https://leetcode.com/problems/two-sum"},
		{"http//leetcode.com/problems/two-sum", "http://leetcode.com/problems/two-sum"},
		{"leetcode.com/problems/two-sum", "https://leetcode.com/problems/two-sum"},
		{"www.leetcode.com/problems/two-sum", "https://www.leetcode.com/problems/two-sum"},
		{"  ", ""},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, CleanLink(tt.input), "input %q", tt.input)
	}
}

func TestSplitTopics(t *testing.T) {
	assert.Equal(t, []string{"array", "hash-table"}, SplitTopics("array, hash-table"))
	assert.Equal(t, []string{"dp", "graph"}, SplitTopics(" dp ,, graph , dp "))
	assert.Nil(t, SplitTopics("  "))
}

func TestNormalizeDropsUntitledRows(t *testing.T) {
	table := &loader.RawTable{
		Source: domain.SourceFile{Company: "Google", Timeframe: domain.Timeframe30Days, Path: "x.csv"},
		Rows: []loader.RawRow{
			{Title: "Two Sum", Difficulty: "easy", Frequency: "10", AcceptanceRate: "0.5"},
			{Title: "   ", Difficulty: "hard"},
			{Title: "12. ", Difficulty: "medium"},
		},
	}

	records, stats := New(nil).Normalize(table)
	require.Len(t, records, 1)
	assert.Equal(t, 2, stats.SkippedRows)
	assert.Equal(t, "Two Sum", records[0].Title)
	assert.Equal(t, domain.ImputationOriginal, records[0].ImputationMethod)
	assert.Equal(t, "Google", records[0].Company)
}

func TestNormalizeNullRateForImputation(t *testing.T) {
	table := &loader.RawTable{
		Source: domain.SourceFile{Company: "Meta", Timeframe: domain.TimeframeAll},
		Rows:   []loader.RawRow{{Title: "Word Ladder", AcceptanceRate: ""}},
	}

	records, _ := New(nil).Normalize(table)
	require.Len(t, records, 1)
	assert.Nil(t, records[0].AcceptanceRate)
	assert.Empty(t, records[0].ImputationMethod)
}

func TestNormalizeWarnsOnlyOnNonEmptyDefects(t *testing.T) {
	table := &loader.RawTable{
		Source: domain.SourceFile{Company: "Google", Timeframe: domain.Timeframe30Days},
		Rows: []loader.RawRow{
			{Title: "Two Sum", Frequency: "", AcceptanceRate: ""},
			{Title: "Word Ladder", Frequency: "n/a", AcceptanceRate: "unknown"},
		},
	}

	_, stats := New(nil).Normalize(table)
	assert.Equal(t, 1, stats.UnparsableFrequency, "empty cells are missing, not unparsable")
	assert.Equal(t, 1, stats.UnparsableAcceptance)
}

func TestEnrich(t *testing.T) {
	now := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	records := []domain.ProblemRecord{
		{Company: "Google", Timeframe: domain.Timeframe30Days, LastUpdated: now.Add(-24 * time.Hour)},
		{Company: "Microsoft", Timeframe: domain.Timeframe6Months, LastUpdated: now.Add(-60 * 24 * time.Hour)},
		{Company: "Acme Corp", Timeframe: domain.TimeframeAll, LastUpdated: now.Add(-200 * 24 * time.Hour)},
	}

	Enrich(records, now)

	assert.Equal(t, CompanyClassFAANG, records[0].CompanyClass)
	assert.Equal(t, TimeframeClassRecent, records[0].TimeframeClass)
	assert.Equal(t, AgeBucketFresh, records[0].AgeBucket)

	assert.Equal(t, CompanyClassBigTech, records[1].CompanyClass)
	assert.Equal(t, TimeframeClassHistorical, records[1].TimeframeClass)
	assert.Equal(t, AgeBucketRecent, records[1].AgeBucket)

	assert.Equal(t, CompanyClassOther, records[2].CompanyClass)
	assert.Equal(t, TimeframeClassCumulative, records[2].TimeframeClass)
	assert.Equal(t, AgeBucketStale, records[2].AgeBucket)
}
