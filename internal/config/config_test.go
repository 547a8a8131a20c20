package config

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 0.5, cfg.Correlation.TopicWeight)
}

func TestLoadAppliesEnvironmentOverrides(t *testing.T) {
	t.Setenv("LEETLENS_SERVER_PORT", "9090")
	t.Setenv("LEETLENS_DATA_ROOT", "/srv/companies")
	t.Setenv("LEETLENS_CORRELATION_TOP_TOPICS", "25")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "/srv/companies", cfg.Data.Root)
	assert.Equal(t, 25, cfg.Correlation.TopTopics)
}

func TestValidateRejectsBadPort(t *testing.T) {
	cfg := Default()
	cfg.Server.Port = 0
	assert.Error(t, cfg.Validate())
}

func TestValidateRejectsZeroWeightSum(t *testing.T) {
	cfg := Default()
	cfg.Correlation.TopicWeight = 0
	cfg.Correlation.DifficultyWeight = 0
	cfg.Correlation.AcceptanceWeight = 0
	cfg.Correlation.FeedbackWeight = 0

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "weights")
}

func TestNewPathsLaysOutCacheSubareas(t *testing.T) {
	cacheDir := t.TempDir()
	paths, err := NewPaths(DataConfig{Root: t.TempDir(), CacheDir: cacheDir})
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(cacheDir, "datasets"), paths.DatasetsDir)
	assert.Equal(t, filepath.Join(cacheDir, "analytics"), paths.AnalyticsDir)
	assert.Equal(t, filepath.Join(cacheDir, "metadata"), paths.MetadataDir)
}

func TestEnsureDirectoriesDoesNotCreateDataRoot(t *testing.T) {
	missingRoot := filepath.Join(t.TempDir(), "never-created")
	paths, err := NewPaths(DataConfig{Root: missingRoot, CacheDir: t.TempDir()})
	require.NoError(t, err)

	require.NoError(t, paths.EnsureDirectories())
	assert.DirExists(t, paths.DatasetsDir)
	assert.NoDirExists(t, paths.DataRoot)
}
