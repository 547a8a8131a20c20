package loader

import "strings"

// Canonical column names after header normalization.
const (
	ColumnDifficulty     = "difficulty"
	ColumnTitle          = "title"
	ColumnFrequency      = "frequency"
	ColumnAcceptanceRate = "acceptance_rate"
	ColumnLink           = "link"
	ColumnTopics         = "topics"
)

// headerAliases is the declared alias table mapping each canonical field to
// the source spellings accepted for it. It is consulted once per file while
// reading the header row.
var headerAliases = map[string][]string{
	ColumnDifficulty:     {"difficulty", "level", "diff"},
	ColumnTitle:          {"title", "problem", "problem_name", "name", "question"},
	ColumnFrequency:      {"frequency", "freq", "occurrences", "occurence", "num_occur", "count"},
	ColumnAcceptanceRate: {"acceptance_rate", "acceptance", "accept_rate", "ac_rate", "acceptance_percent", "acceptance_percentage"},
	ColumnLink:           {"link", "url", "leetcode_link", "problem_link", "href"},
	ColumnTopics:         {"topics", "tags", "topic_tags", "related_topics"},
}

// canonicalColumn resolves a raw header cell to its canonical name. The
// second return is false for unrecognized columns, which are preserved under
// their normalized spelling but not relied upon downstream.
func canonicalColumn(header string) (string, bool) {
	normalized := normalizeHeader(header)
	for canonical, aliases := range headerAliases {
		for _, alias := range aliases {
			if normalized == alias {
				return canonical, true
			}
		}
	}
	return normalized, false
}

// normalizeHeader lowercases a header cell and collapses separators to
// underscores.
func normalizeHeader(header string) string {
	h := strings.TrimSpace(strings.ToLower(header))
	h = strings.TrimPrefix(h, "\uFEFF")
	for _, sep := range []string{" ", "-", "."} {
		h = strings.ReplaceAll(h, sep, "_")
	}
	for strings.Contains(h, "__") {
		h = strings.ReplaceAll(h, "__", "_")
	}
	return strings.Trim(h, "_")
}
