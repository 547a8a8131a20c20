// Package loader reads discovered source files into raw tables with a
// canonical column schema, tolerating encoding drift and malformed lines.
package loader

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"unicode/utf8"

	"github.com/gogs/chardet"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/htmlindex"

	"leetlens/pkg/contracts/domain"
)

var (
	// ErrAllEncodingsFailed indicates no encoding in the chain could decode
	// the file at all.
	ErrAllEncodingsFailed = errors.New("no encoding produced a parsable table")
	// ErrNoCanonicalColumns indicates the file decoded but its header matched
	// none of the known column names.
	ErrNoCanonicalColumns = errors.New("header matches no known columns")
	// ErrNoDataRows indicates the file decoded but carried no data rows after
	// the header.
	ErrNoDataRows = errors.New("no data rows after the header")
)

// errUndecodable marks one encoding attempt that failed before the content
// could be judged.
var errUndecodable = errors.New("bytes do not decode")

// RawRow holds the string values of one CSV row keyed to the canonical
// schema. Unrecognized columns are preserved in Extra.
type RawRow struct {
	Title          string
	Difficulty     string
	Frequency      string
	AcceptanceRate string
	Link           string
	Topics         string
	Extra          map[string]string
}

// RawTable is the parse result of one source file with provenance attached.
type RawTable struct {
	Source       domain.SourceFile
	Rows         []RawRow
	SkippedLines int
	Encoding     string
}

// Loader parses source files with a prioritized list of text encodings.
type Loader struct {
	logger *slog.Logger
}

// New creates a Loader.
func New(logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{logger: logger}
}

// namedEncoding pairs a decoder with a label for provenance/logging.
type namedEncoding struct {
	name string
	enc  encoding.Encoding
}

// defaultEncodings is the ordered default decode chain. UTF-8 is represented
// by a nil encoding and guarded by a validity check, since the single-byte
// charmaps would otherwise accept any byte stream.
var defaultEncodings = []namedEncoding{
	{"utf-8", nil},
	{"windows-1252", charmap.Windows1252},
	{"iso-8859-1", charmap.ISO8859_1},
}

// Load parses one source file. A nil table with an error means the file is
// skipped; the caller treats it as a recoverable source-file error, not a
// batch failure.
func (l *Loader) Load(ctx context.Context, src domain.SourceFile) (*RawTable, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(src.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", src.Path, err)
	}

	// A content error (bad schema, no rows) from a successfully decoded
	// attempt outranks the generic encoding failure in the skip report.
	var contentErr error
	for _, candidate := range defaultEncodings {
		table, err := l.tryParse(data, candidate, src)
		if err == nil {
			return table, nil
		}
		if !errors.Is(err, errUndecodable) && contentErr == nil {
			contentErr = err
		}
	}

	// Statistical fallback when the whole default chain failed.
	if detected := detectEncoding(data); detected != nil {
		table, err := l.tryParse(data, *detected, src)
		if err == nil {
			l.logger.Info("decoded file via detected encoding",
				slog.String("path", src.Path),
				slog.String("encoding", detected.name))
			return table, nil
		}
		if !errors.Is(err, errUndecodable) && contentErr == nil {
			contentErr = err
		}
	}

	if contentErr != nil {
		return nil, fmt.Errorf("%w: %s", contentErr, src.Path)
	}
	return nil, fmt.Errorf("%w: %s", ErrAllEncodingsFailed, src.Path)
}

// tryParse decodes and parses the file with one encoding. Decode failures
// come back as errUndecodable; a decodable file with an unusable header or no
// data rows gets the matching content sentinel.
func (l *Loader) tryParse(data []byte, enc namedEncoding, src domain.SourceFile) (*RawTable, error) {
	decoded := data
	if enc.enc == nil {
		trimmed := bytes.TrimPrefix(data, []byte{0xEF, 0xBB, 0xBF})
		if !utf8.Valid(trimmed) {
			return nil, errUndecodable
		}
		decoded = trimmed
	} else {
		out, err := enc.enc.NewDecoder().Bytes(data)
		if err != nil {
			return nil, errUndecodable
		}
		decoded = out
	}

	reader := csv.NewReader(bytes.NewReader(decoded))
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	header, err := reader.Read()
	if err != nil {
		return nil, errUndecodable
	}

	// Resolve the header once against the declared alias table.
	canonicalIndex := make(map[int]string, len(header))
	extraIndex := make(map[int]string)
	for i, cell := range header {
		if canonical, ok := canonicalColumn(cell); ok {
			canonicalIndex[i] = canonical
		} else if canonical != "" {
			extraIndex[i] = canonical
		}
	}
	if len(canonicalIndex) == 0 {
		return nil, ErrNoCanonicalColumns
	}

	table := &RawTable{Source: src, Encoding: enc.name}
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			// Malformed line: skip it rather than aborting the file.
			var parseErr *csv.ParseError
			if errors.As(err, &parseErr) {
				table.SkippedLines++
				continue
			}
			return nil, errUndecodable
		}

		row := RawRow{}
		for i, value := range record {
			if canonical, ok := canonicalIndex[i]; ok {
				switch canonical {
				case ColumnTitle:
					row.Title = value
				case ColumnDifficulty:
					row.Difficulty = value
				case ColumnFrequency:
					row.Frequency = value
				case ColumnAcceptanceRate:
					row.AcceptanceRate = value
				case ColumnLink:
					row.Link = value
				case ColumnTopics:
					row.Topics = value
				}
			} else if name, ok := extraIndex[i]; ok {
				if row.Extra == nil {
					row.Extra = make(map[string]string)
				}
				row.Extra[name] = value
			}
		}
		table.Rows = append(table.Rows, row)
	}

	if len(table.Rows) == 0 {
		return nil, ErrNoDataRows
	}
	return table, nil
}

// detectEncoding runs statistical charset detection and resolves the result
// to a decoder, or nil when nothing usable was detected.
func detectEncoding(data []byte) *namedEncoding {
	result, err := chardet.NewTextDetector().DetectBest(data)
	if err != nil || result == nil {
		return nil
	}
	enc, err := htmlindex.Get(result.Charset)
	if err != nil {
		return nil
	}
	return &namedEncoding{name: result.Charset, enc: enc}
}
