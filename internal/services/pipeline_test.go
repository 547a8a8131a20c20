package services

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"leetlens/internal/cache"
	"leetlens/internal/config"
	"leetlens/internal/correlation"
	apperrors "leetlens/internal/errors"
	"leetlens/internal/infrastructure"
)

const fixtureHeader = "Difficulty,Title,Frequency,Acceptance Rate,Link,Topics\n"

func writeCompanyFile(t *testing.T, root, company, name, content string) string {
	t.Helper()
	dir := filepath.Join(root, company)
	require.NoError(t, os.MkdirAll(dir, 0755))
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func writeFixtureTree(t *testing.T, root string) {
	t.Helper()
	writeCompanyFile(t, root, "Google", "30_days.csv", fixtureHeader+
		"EASY,Two Sum,100,45.5%,https://leetcode.com/problems/two-sum/,\"Array, Hash Table\"\n"+
		"HARD,Word Ladder,20,,leetcode.com/problems/word-ladder/,Graph\n")
	writeCompanyFile(t, root, "Meta", "all.csv", fixtureHeader+
		"MEDIUM,LRU Cache,50,40%,https://leetcode.com/problems/lru-cache/,Design\n"+
		"EASY,Two Sum,80,46%,https://leetcode.com/problems/two-sum/,Array\n")
}

func newTestPipeline(t *testing.T, root string) (*Pipeline, *infrastructure.Metrics) {
	t.Helper()
	cfg := config.Default()
	cfg.Data.Root = root
	cfg.Data.CacheDir = t.TempDir()

	paths, err := config.NewPaths(cfg.Data)
	require.NoError(t, err)
	manager, err := cache.NewManager(paths, 4, nil)
	require.NoError(t, err)
	metrics := infrastructure.NewMetrics(prometheus.NewRegistry())

	p, err := NewPipeline(Deps{Config: cfg, Cache: manager, Metrics: metrics})
	require.NoError(t, err)
	return p, metrics
}

func TestUnifiedDatasetBuildsOnceThenServesFromCache(t *testing.T) {
	root := t.TempDir()
	writeFixtureTree(t, root)
	p, metrics := newTestPipeline(t, root)

	first, err := p.UnifiedDataset(context.Background(), false)
	require.NoError(t, err)
	assert.Equal(t, 2, first.CompanyCount)
	require.Len(t, first.Records, 4)

	second, err := p.UnifiedDataset(context.Background(), false)
	require.NoError(t, err)
	assert.Equal(t, first.CreatedAt, second.CreatedAt, "cached dataset must keep its build timestamp")
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.DatasetBuilds))
}

func TestUnifiedDatasetForceRefreshRebuilds(t *testing.T) {
	root := t.TempDir()
	writeFixtureTree(t, root)
	p, metrics := newTestPipeline(t, root)

	_, err := p.UnifiedDataset(context.Background(), false)
	require.NoError(t, err)
	_, err = p.UnifiedDataset(context.Background(), true)
	require.NoError(t, err)

	assert.Equal(t, 2.0, testutil.ToFloat64(metrics.DatasetBuilds))
}

func TestUnifiedDatasetRebuildsWhenSourceChanges(t *testing.T) {
	root := t.TempDir()
	writeFixtureTree(t, root)
	p, metrics := newTestPipeline(t, root)

	_, err := p.UnifiedDataset(context.Background(), false)
	require.NoError(t, err)

	path := writeCompanyFile(t, root, "Google", "30_days.csv", fixtureHeader+
		"EASY,Two Sum,120,45.5%,https://leetcode.com/problems/two-sum/,Array\n")
	future := time.Now().Add(2 * time.Second)
	require.NoError(t, os.Chtimes(path, future, future))

	ds, err := p.UnifiedDataset(context.Background(), false)
	require.NoError(t, err)
	assert.Equal(t, 2.0, testutil.ToFloat64(metrics.DatasetBuilds))
	require.Len(t, ds.ByCompany()["Google"], 1)
}

func TestDerivedTables(t *testing.T) {
	root := t.TempDir()
	writeFixtureTree(t, root)
	p, _ := newTestPipeline(t, root)

	rows, err := p.ExplodedTopics(context.Background(), false)
	require.NoError(t, err)
	assert.Len(t, rows, 5)

	stats, err := p.CompanyStats(context.Background(), false)
	require.NoError(t, err)
	require.Len(t, stats, 2)
	assert.Equal(t, "Google", stats[0].Company)
	assert.Equal(t, 2, stats[0].Problems)

	// A second read decodes the analytics cache entry.
	again, err := p.CompanyStats(context.Background(), false)
	require.NoError(t, err)
	assert.Equal(t, stats, again)
}

func TestCompanyCorrelations(t *testing.T) {
	root := t.TempDir()
	writeFixtureTree(t, root)
	p, _ := newTestPipeline(t, root)

	set, err := p.CompanyCorrelations(context.Background(), correlation.Options{IncludeFeatures: true})
	require.NoError(t, err)
	require.Len(t, set.TopCorrelations, 1)
	assert.Equal(t, "Google", set.TopCorrelations[0].Company1)
	assert.Equal(t, "Meta", set.TopCorrelations[0].Company2)
	assert.NotEmpty(t, set.TopCorrelations[0].Components)
}

func TestCompanyCorrelationsSingleCompanyIsEmptyNotError(t *testing.T) {
	root := t.TempDir()
	writeCompanyFile(t, root, "Solo", "all.csv", fixtureHeader+
		"EASY,Two Sum,1,50%,,Array\n")
	p, _ := newTestPipeline(t, root)

	set, err := p.CompanyCorrelations(context.Background(), correlation.Options{})
	require.NoError(t, err)
	assert.True(t, set.Empty())
	assert.NotEmpty(t, set.Reason)
}

func TestRefreshAll(t *testing.T) {
	root := t.TempDir()
	writeFixtureTree(t, root)
	p, metrics := newTestPipeline(t, root)

	summary, err := p.RefreshAll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, summary.SourceFiles)
	assert.Equal(t, 4, summary.Records)
	assert.Equal(t, 2, summary.Companies)
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.DatasetBuilds))
	require.NotNil(t, p.LastReport())
}

func TestNoUsableDataIsRecognizable(t *testing.T) {
	root := t.TempDir()
	// Matches a timeframe but parses to zero canonical columns.
	writeCompanyFile(t, root, "Broken", "30_days.csv", "no,usable,columns\n1,2,3\n")
	p, _ := newTestPipeline(t, root)

	_, err := p.UnifiedDataset(context.Background(), false)
	require.Error(t, err)
	assert.True(t, IsNoData(err))
}

func TestMissingRootSurfacesConfigError(t *testing.T) {
	p, _ := newTestPipeline(t, filepath.Join(t.TempDir(), "does-not-exist"))

	_, err := p.UnifiedDataset(context.Background(), false)
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrRootNotFound)
}
