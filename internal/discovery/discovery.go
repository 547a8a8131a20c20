// Package discovery walks the company data root and classifies statistics
// files into timeframe buckets.
package discovery

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	apperrors "leetlens/internal/errors"
	"leetlens/pkg/contracts/domain"
)

// timeframePattern maps one filename pattern to its timeframe bucket.
// Patterns are tried in order; more-than-six-months precedes six-months so
// the longer name wins.
type timeframePattern struct {
	re        *regexp.Regexp
	timeframe domain.Timeframe
}

var timeframePatterns = []timeframePattern{
	{regexp.MustCompile(`(?i)(more[ _.-]*than[ _.-]*(six|6)[ _.-]*months?|6m\+|over[ _.-]*(six|6))`), domain.TimeframeOver6Months},
	{regexp.MustCompile(`(?i)(thirty[ _.-]*days?|30[ _.-]*days?|1[ _.-]*month)`), domain.Timeframe30Days},
	{regexp.MustCompile(`(?i)(three[ _.-]*months?|3[ _.-]*months?|90[ _.-]*days?)`), domain.Timeframe3Months},
	{regexp.MustCompile(`(?i)(six[ _.-]*months?|6[ _.-]*months?)`), domain.Timeframe6Months},
	{regexp.MustCompile(`(?i)(\ball\b|all[ _.-]*time)`), domain.TimeframeAll},
}

// EmptyFile records one file that matched a timeframe pattern but carried no
// data.
type EmptyFile struct {
	Company   string           `json:"company"`
	Timeframe domain.Timeframe `json:"timeframe"`
	Path      string           `json:"path"`
	Reason    string           `json:"reason"`
}

// Discovery walks immediate child directories of a root as company names and
// matches their files against the timeframe patterns.
type Discovery struct {
	root   string
	logger *slog.Logger

	emptyReport []EmptyFile
}

// New creates a Discovery rooted at the given directory.
func New(root string, logger *slog.Logger) *Discovery {
	if logger == nil {
		logger = slog.Default()
	}
	return &Discovery{root: root, logger: logger}
}

// Discover walks the root and returns all classified, non-empty source
// files. Files that match no pattern are ignored; files that match a pattern
// but are zero bytes are excluded and recorded in the empty-file report. A
// missing root is a configuration error.
func (d *Discovery) Discover() ([]domain.SourceFile, error) {
	entries, err := os.ReadDir(d.root)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", apperrors.ErrRootNotFound, d.root)
		}
		return nil, fmt.Errorf("failed to read data root %s: %w", d.root, err)
	}

	d.emptyReport = nil
	var sources []domain.SourceFile

	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		company := entry.Name()
		companyDir := filepath.Join(d.root, company)

		files, err := os.ReadDir(companyDir)
		if err != nil {
			d.logger.Warn("failed to read company directory, skipping",
				slog.String("company", company),
				slog.String("error", err.Error()))
			continue
		}

		for _, file := range files {
			if file.IsDir() {
				continue
			}
			name := file.Name()
			if !strings.HasSuffix(strings.ToLower(name), ".csv") {
				continue
			}
			timeframe, ok := classify(name)
			if !ok {
				// Unrecognized naming is expected for stray files.
				continue
			}

			info, err := file.Info()
			if err != nil {
				continue
			}
			path := filepath.Join(companyDir, name)
			if info.Size() == 0 {
				d.emptyReport = append(d.emptyReport, EmptyFile{
					Company:   company,
					Timeframe: timeframe,
					Path:      path,
					Reason:    "zero_bytes",
				})
				continue
			}

			sources = append(sources, domain.SourceFile{
				Path:       path,
				Company:    company,
				Timeframe:  timeframe,
				ModifiedAt: info.ModTime(),
			})
		}
	}

	sort.Slice(sources, func(i, j int) bool {
		if sources[i].Company != sources[j].Company {
			return sources[i].Company < sources[j].Company
		}
		return sources[i].Path < sources[j].Path
	})

	d.logger.Info("source file discovery complete",
		slog.String("root", d.root),
		slog.Int("files", len(sources)),
		slog.Int("empty_files", len(d.emptyReport)))

	return sources, nil
}

// EmptyFileReport returns the empty-file report generated by the most recent
// Discover call.
func (d *Discovery) EmptyFileReport() []EmptyFile {
	return d.emptyReport
}

// classify matches a filename to a timeframe bucket.
func classify(name string) (domain.Timeframe, bool) {
	for _, p := range timeframePatterns {
		if p.re.MatchString(name) {
			return p.timeframe, true
		}
	}
	return "", false
}
