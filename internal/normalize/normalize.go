// Package normalize coerces raw CSV fields into typed, bounded values and
// attaches derived categorical tags.
package normalize

import (
	"log/slog"
	"regexp"
	"strconv"
	"strings"

	"leetlens/internal/loader"
	"leetlens/pkg/contracts/domain"
)

var (
	numberRe  = regexp.MustCompile(`[-+]?\d*\.?\d+`)
	ordinalRe = regexp.MustCompile(`^\d+\s*[.)](\s+|$)`)
	spaceRe   = regexp.MustCompile(`\s+`)
)

// difficultySynonyms is the fixed case-insensitive lookup for difficulty
// values.
var difficultySynonyms = map[string]domain.Difficulty{
	"easy": domain.DifficultyEasy, "e": domain.DifficultyEasy, "1": domain.DifficultyEasy,
	"medium": domain.DifficultyMedium, "med": domain.DifficultyMedium, "m": domain.DifficultyMedium, "2": domain.DifficultyMedium,
	"hard": domain.DifficultyHard, "h": domain.DifficultyHard, "3": domain.DifficultyHard,
}

// Stats aggregates row-level warnings from one normalization pass. Row-level
// data errors never abort a table; they only show up here.
type Stats struct {
	SkippedRows          int
	UnparsableFrequency  int
	UnparsableAcceptance int
}

// Add merges another stats value into this one.
func (s *Stats) Add(other Stats) {
	s.SkippedRows += other.SkippedRows
	s.UnparsableFrequency += other.UnparsableFrequency
	s.UnparsableAcceptance += other.UnparsableAcceptance
}

// Normalizer applies per-column coercion to raw tables.
type Normalizer struct {
	logger *slog.Logger
}

// New creates a Normalizer.
func New(logger *slog.Logger) *Normalizer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Normalizer{logger: logger}
}

// Normalize converts a raw table into problem records. Rows whose title is
// empty after cleaning are dropped; every other defect is coerced to a
// default and counted.
func (n *Normalizer) Normalize(table *loader.RawTable) ([]domain.ProblemRecord, Stats) {
	var stats Stats
	records := make([]domain.ProblemRecord, 0, len(table.Rows))

	for _, row := range table.Rows {
		title := CleanTitle(row.Title)
		if title == "" {
			// Title is the only field whose absence is fatal to the row.
			stats.SkippedRows++
			continue
		}

		frequency, ok := parseFrequency(row.Frequency)
		if !ok {
			stats.UnparsableFrequency++
		}
		rate, ok := parseAcceptanceRate(row.AcceptanceRate)
		if !ok {
			stats.UnparsableAcceptance++
		}

		record := domain.ProblemRecord{
			Title:          title,
			TitleSlug:      existingSlug(row.Extra),
			Difficulty:     parseDifficulty(row.Difficulty),
			Frequency:      frequency,
			AcceptanceRate: rate,
			Link:           CleanLink(row.Link),
			Topics:         SplitTopics(row.Topics),
			Company:        table.Source.Company,
			Timeframe:      table.Source.Timeframe,
			SourceFile:     table.Source.Path,
			LastUpdated:    table.Source.ModifiedAt,
		}
		if record.AcceptanceRate != nil {
			record.ImputationMethod = domain.ImputationOriginal
		}
		records = append(records, record)
	}

	if stats.SkippedRows > 0 || stats.UnparsableFrequency > 0 || stats.UnparsableAcceptance > 0 {
		n.logger.Debug("normalization warnings",
			slog.String("source", table.Source.Path),
			slog.Int("skipped_rows", stats.SkippedRows),
			slog.Int("unparsable_frequency", stats.UnparsableFrequency),
			slog.Int("unparsable_acceptance", stats.UnparsableAcceptance))
	}

	return records, stats
}

// existingSlug picks up a slug column preserved among the unrecognized
// columns, when the source happened to carry one.
func existingSlug(extra map[string]string) string {
	for _, key := range []string{"title_slug", "titleslug", "slug", "question_slug"} {
		if v, ok := extra[key]; ok && strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}

// parseFrequency extracts the first numeric substring, clamping negatives to
// zero. An empty cell is a missing value rather than a defect and returns 0
// with ok=true; only non-empty cells with no numeric content count as
// unparsable (0, ok=false).
func parseFrequency(raw string) (float64, bool) {
	match := numberRe.FindString(raw)
	if match == "" {
		return 0, strings.TrimSpace(raw) == ""
	}
	value, err := strconv.ParseFloat(match, 64)
	if err != nil {
		return 0, false
	}
	if value < 0 {
		value = 0
	}
	return value, true
}

// parseAcceptanceRate extracts the first numeric substring. Values above 1
// are assumed to be percentages; the result is clamped to [0,1]. The nil
// result marks the row for later imputation either way, but an empty cell is
// a missing value (ok=true) while a non-empty cell with no numeric content is
// unparsable (ok=false) and feeds the warning counters.
func parseAcceptanceRate(raw string) (*float64, bool) {
	match := numberRe.FindString(raw)
	if match == "" {
		return nil, strings.TrimSpace(raw) == ""
	}
	value, err := strconv.ParseFloat(match, 64)
	if err != nil {
		return nil, false
	}
	if value > 1 {
		value /= 100
	}
	if value < 0 {
		value = 0
	}
	if value > 1 {
		value = 1
	}
	return &value, true
}

// parseDifficulty resolves a difficulty cell against the synonym table.
func parseDifficulty(raw string) domain.Difficulty {
	if d, ok := difficultySynonyms[strings.ToLower(strings.TrimSpace(raw))]; ok {
		return d
	}
	return domain.DifficultyUnknown
}

// CleanTitle collapses whitespace and strips a leading ordinal prefix such
// as "146. ".
func CleanTitle(raw string) string {
	title := spaceRe.ReplaceAllString(strings.TrimSpace(raw), " ")
	return strings.TrimSpace(ordinalRe.ReplaceAllString(title, ""))
}

// CleanLink trims a link cell and best-effort repairs malformed scheme
// prefixes.
func CleanLink(raw string) string {
	link := strings.TrimSpace(raw)
	if link == "" {
		return ""
	}
	switch {
	case strings.HasPrefix(link, "https//"):
		link = "https://" + strings.TrimPrefix(link, "https//")
	case strings.HasPrefix(link, "http//"):
		link = "http://" + strings.TrimPrefix(link, "http//")
	case strings.HasPrefix(link, "https:/") && !strings.HasPrefix(link, "https://"):
		link = "https://" + strings.TrimPrefix(link, "https:/")
	case strings.HasPrefix(link, "http:/") && !strings.HasPrefix(link, "http://"):
		link = "http://" + strings.TrimPrefix(link, "http:/")
	case strings.HasPrefix(link, "www.") || strings.HasPrefix(link, "leetcode.com"):
		link = "https://" + link
	}
	return link
}

// SplitTopics splits a topics cell on commas into an ordered set of trimmed,
// non-empty strings.
func SplitTopics(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	seen := make(map[string]struct{})
	var topics []string
	for _, part := range strings.Split(raw, ",") {
		topic := strings.TrimSpace(part)
		if topic == "" {
			continue
		}
		if _, dup := seen[topic]; dup {
			continue
		}
		seen[topic] = struct{}{}
		topics = append(topics, topic)
	}
	return topics
}
