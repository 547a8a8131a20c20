// Package cache keys serialized tables against the exact set of source files
// that produced them, so unchanged inputs never trigger a rebuild.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"leetlens/internal/config"
	"leetlens/pkg/contracts"
	"leetlens/pkg/contracts/domain"
)

// Namespace separates cache areas so invalidating one table does not force
// rebuilding the others.
type Namespace string

const (
	NamespaceDatasets  Namespace = "datasets"
	NamespaceAnalytics Namespace = "analytics"
	NamespaceMetadata  Namespace = "metadata"
)

// Entry is the sidecar record persisted alongside each serialized table.
type Entry struct {
	CacheKey     string             `json:"cache_key"`
	CreatedAt    time.Time          `json:"created_at"`
	SourceFiles  []string           `json:"source_files"`
	SourceMtimes map[string]float64 `json:"source_mtimes"`
}

// memEntry is the in-memory copy of a cache hit kept in the LRU front.
type memEntry struct {
	data  []byte
	entry Entry
}

// Manager reads and writes content-keyed cache entries. Writes are full-file
// replaces, so concurrent refreshes across processes may rebuild redundantly
// but cannot corrupt state.
type Manager struct {
	paths  *config.Paths
	logger *slog.Logger
	mem    *lru.Cache[string, memEntry]
}

// NewManager creates a cache manager over the configured cache subareas.
func NewManager(paths *config.Paths, memSize int, logger *slog.Logger) (*Manager, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if memSize <= 0 {
		memSize = 16
	}
	mem, err := lru.New[string, memEntry](memSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create memory cache: %w", err)
	}
	if err := paths.EnsureDirectories(); err != nil {
		return nil, err
	}
	return &Manager{paths: paths, logger: logger, mem: mem}, nil
}

// Key derives the deterministic cache key for a logical dataset name and its
// contributing source paths. The data format version and the sorted path list
// are part of the hash, so a format bump or a changed file set always misses.
func Key(name string, paths []string) string {
	sorted := append([]string(nil), paths...)
	sort.Strings(sorted)

	h := sha256.New()
	h.Write([]byte(contracts.DataFormatVersion))
	h.Write([]byte{0})
	h.Write([]byte(name))
	h.Write([]byte{0})
	h.Write([]byte(strings.Join(sorted, "\x00")))
	return name + "-" + hex.EncodeToString(h.Sum(nil))[:16]
}

// Get returns the cached bytes for key iff the entry is still valid against
// the current source snapshot: both files exist and no tracked source has a
// modification time newer than the recorded one.
func (m *Manager) Get(ns Namespace, key string, sources []domain.SourceFile) ([]byte, bool) {
	if cached, ok := m.mem.Get(memKey(ns, key)); ok {
		if valid(cached.entry, sources) {
			return cached.data, true
		}
		m.mem.Remove(memKey(ns, key))
	}

	entry, err := m.readSidecar(ns, key)
	if err != nil {
		// Unreadable or missing sidecar is a miss, never fatal.
		return nil, false
	}
	if !valid(*entry, sources) {
		return nil, false
	}

	data, err := os.ReadFile(m.dataPath(ns, key))
	if err != nil {
		return nil, false
	}

	m.mem.Add(memKey(ns, key), memEntry{data: data, entry: *entry})
	return data, true
}

// Put writes the serialized table and its sidecar with the current mtime
// snapshot.
func (m *Manager) Put(ns Namespace, key string, sources []domain.SourceFile, data []byte) error {
	entry := Entry{
		CacheKey:     key,
		CreatedAt:    time.Now().UTC(),
		SourceFiles:  make([]string, 0, len(sources)),
		SourceMtimes: make(map[string]float64, len(sources)),
	}
	for _, src := range sources {
		entry.SourceFiles = append(entry.SourceFiles, src.Path)
		entry.SourceMtimes[src.Path] = mtimeSeconds(src.ModifiedAt)
	}
	sort.Strings(entry.SourceFiles)

	if err := os.WriteFile(m.dataPath(ns, key), data, 0644); err != nil {
		return fmt.Errorf("failed to write cache data for %s: %w", key, err)
	}
	sidecar, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to marshal cache sidecar for %s: %w", key, err)
	}
	if err := os.WriteFile(m.sidecarPath(ns, key), sidecar, 0644); err != nil {
		return fmt.Errorf("failed to write cache sidecar for %s: %w", key, err)
	}

	m.mem.Add(memKey(ns, key), memEntry{data: data, entry: entry})
	m.logger.Debug("cache entry written",
		slog.String("namespace", string(ns)),
		slog.String("key", key),
		slog.Int("sources", len(sources)))
	return nil
}

// Invalidate drops one key from memory and disk.
func (m *Manager) Invalidate(ns Namespace, key string) {
	m.mem.Remove(memKey(ns, key))
	os.Remove(m.dataPath(ns, key))
	os.Remove(m.sidecarPath(ns, key))
}

// valid checks an entry against the current source snapshot. Every current
// source must be tracked with a recorded mtime no older than its current
// one; sources recorded but since removed are tolerated because a changed
// path list changes the key itself.
func valid(entry Entry, sources []domain.SourceFile) bool {
	for _, src := range sources {
		recorded, tracked := entry.SourceMtimes[src.Path]
		if !tracked {
			return false
		}
		if mtimeSeconds(src.ModifiedAt) > recorded {
			return false
		}
	}
	return true
}

func (m *Manager) readSidecar(ns Namespace, key string) (*Entry, error) {
	data, err := os.ReadFile(m.sidecarPath(ns, key))
	if err != nil {
		return nil, err
	}
	var entry Entry
	if err := json.Unmarshal(data, &entry); err != nil {
		return nil, err
	}
	return &entry, nil
}

func (m *Manager) dir(ns Namespace) string {
	switch ns {
	case NamespaceAnalytics:
		return m.paths.AnalyticsDir
	case NamespaceMetadata:
		return m.paths.MetadataDir
	default:
		return m.paths.DatasetsDir
	}
}

func (m *Manager) dataPath(ns Namespace, key string) string {
	return filepath.Join(m.dir(ns), key+".json")
}

func (m *Manager) sidecarPath(ns Namespace, key string) string {
	return filepath.Join(m.dir(ns), key+".meta.json")
}

func memKey(ns Namespace, key string) string {
	return string(ns) + "/" + key
}

func mtimeSeconds(t time.Time) float64 {
	return float64(t.UnixNano()) / float64(time.Second)
}
