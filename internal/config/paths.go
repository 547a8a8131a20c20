package config

import (
	"fmt"
	"os"
	"path/filepath"
)

// Paths resolves the filesystem layout used by the pipeline: the company data
// root and the three cache subareas. Cache namespaces are kept separate so
// invalidating one table does not force rebuilding the others.
type Paths struct {
	DataRoot      string
	CacheDir      string
	DatasetsDir   string
	AnalyticsDir  string
	MetadataDir   string
}

// NewPaths builds a Paths from configuration, resolving relative paths
// against the current working directory.
func NewPaths(cfg DataConfig) (*Paths, error) {
	root, err := filepath.Abs(cfg.Root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve data root: %w", err)
	}
	cacheDir, err := filepath.Abs(cfg.CacheDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve cache dir: %w", err)
	}

	return &Paths{
		DataRoot:     root,
		CacheDir:     cacheDir,
		DatasetsDir:  filepath.Join(cacheDir, "datasets"),
		AnalyticsDir: filepath.Join(cacheDir, "analytics"),
		MetadataDir:  filepath.Join(cacheDir, "metadata"),
	}, nil
}

// EnsureDirectories creates the cache subareas if they do not exist. The data
// root is deliberately not created: a missing root is a configuration error,
// not something to paper over.
func (p *Paths) EnsureDirectories() error {
	for _, dir := range []string{p.DatasetsDir, p.AnalyticsDir, p.MetadataDir} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create cache directory %s: %w", dir, err)
		}
	}
	return nil
}
