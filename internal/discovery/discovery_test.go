package discovery

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "leetlens/internal/errors"
	"leetlens/pkg/contracts/domain"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name      string
		filename  string
		timeframe domain.Timeframe
		matched   bool
	}{
		{"thirty days", "1. Thirty Days.csv", domain.Timeframe30Days, true},
		{"30 days underscore", "google_30_days.csv", domain.Timeframe30Days, true},
		{"three months", "2. Three Months.csv", domain.Timeframe3Months, true},
		{"90 days", "stats-90-days.csv", domain.Timeframe3Months, true},
		{"six months", "3. Six Months.csv", domain.Timeframe6Months, true},
		{"more than six months", "4. More Than Six Months.csv", domain.TimeframeOver6Months, true},
		{"more than 6 months digits", "more_than_6_months.csv", domain.TimeframeOver6Months, true},
		{"all", "5. All.csv", domain.TimeframeAll, true},
		{"all time", "all_time.csv", domain.TimeframeAll, true},
		{"case insensitive", "THIRTY DAYS.CSV", domain.Timeframe30Days, true},
		{"stray file", "readme.csv", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			timeframe, ok := classify(tt.filename)
			assert.Equal(t, tt.matched, ok)
			if tt.matched {
				assert.Equal(t, tt.timeframe, timeframe)
			}
		})
	}
}

func TestDiscover(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "Google", "1. Thirty Days.csv"), "Title\nTwo Sum\n")
	writeFile(t, filepath.Join(root, "Google", "5. All.csv"), "Title\nTwo Sum\n")
	writeFile(t, filepath.Join(root, "Meta", "2. Three Months.csv"), "Title\nLRU Cache\n")
	writeFile(t, filepath.Join(root, "Meta", "notes.txt"), "not a csv")
	writeFile(t, filepath.Join(root, "Meta", "random.csv"), "unclassifiable name")
	// Stray file at root level is ignored, only directories count as companies.
	writeFile(t, filepath.Join(root, "stray.csv"), "ignored")

	d := New(root, nil)
	sources, err := d.Discover()
	require.NoError(t, err)
	require.Len(t, sources, 3)

	assert.Equal(t, "Google", sources[0].Company)
	assert.Equal(t, domain.Timeframe30Days, sources[0].Timeframe)
	assert.Equal(t, domain.TimeframeAll, sources[1].Timeframe)
	assert.Equal(t, "Meta", sources[2].Company)
	assert.False(t, sources[0].ModifiedAt.IsZero())
	assert.Empty(t, d.EmptyFileReport())
}

func TestDiscoverZeroByteFile(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "Amazon", "1. Thirty Days.csv"), "Title\nTwo Sum\n")
	writeFile(t, filepath.Join(root, "Amazon", "3. Six Months.csv"), "")

	d := New(root, nil)
	sources, err := d.Discover()
	require.NoError(t, err)
	require.Len(t, sources, 1)
	assert.Equal(t, domain.Timeframe30Days, sources[0].Timeframe)

	report := d.EmptyFileReport()
	require.Len(t, report, 1)
	assert.Equal(t, "Amazon", report[0].Company)
	assert.Equal(t, domain.Timeframe6Months, report[0].Timeframe)
	assert.Equal(t, "zero_bytes", report[0].Reason)
}

func TestDiscoverReportResetBetweenCalls(t *testing.T) {
	root := t.TempDir()
	empty := filepath.Join(root, "Uber", "5. All.csv")
	writeFile(t, empty, "")

	d := New(root, nil)
	_, err := d.Discover()
	require.NoError(t, err)
	require.Len(t, d.EmptyFileReport(), 1)

	require.NoError(t, os.WriteFile(empty, []byte("Title\nWord Ladder\n"), 0644))
	sources, err := d.Discover()
	require.NoError(t, err)
	assert.Len(t, sources, 1)
	assert.Empty(t, d.EmptyFileReport())
}

func TestDiscoverMissingRoot(t *testing.T) {
	d := New(filepath.Join(t.TempDir(), "does-not-exist"), nil)
	_, err := d.Discover()
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.ErrRootNotFound))
}
