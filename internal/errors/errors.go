// Package errors carries the core sentinel errors of the ingestion pipeline
// and the structured error responses of the HTTP surface.
package errors

import (
	"errors"
	"fmt"
)

// Core sentinel errors. Expected empty-result paths (no usable companies,
// degenerate features) are NOT errors; only conditions where no data can
// possibly be produced surface here.
var (
	// ErrRootNotFound indicates the configured data root does not exist.
	ErrRootNotFound = errors.New("data root directory not found")
	// ErrNoUsableData indicates that zero source files produced usable rows.
	ErrNoUsableData = errors.New("no source file produced usable rows")
)

// Is reports whether err matches target, re-exported so callers need only
// this package.
func Is(err, target error) bool { return errors.Is(err, target) }

// As finds the first error in err's chain matching target, re-exported so
// callers need only this package.
func As(err error, target any) bool { return errors.As(err, target) }

// IngestError wraps a batch-level ingestion failure together with the
// per-file skip report that explains it.
type IngestError struct {
	Err          error
	SkippedFiles []SkippedFile
}

// SkippedFile records one source file excluded from a build and why.
type SkippedFile struct {
	Company   string `json:"company"`
	Timeframe string `json:"timeframe"`
	Path      string `json:"path"`
	Reason    string `json:"reason"`
}

func (e *IngestError) Error() string {
	return fmt.Sprintf("%v (%d files skipped)", e.Err, len(e.SkippedFiles))
}

func (e *IngestError) Unwrap() error { return e.Err }

// NewIngestError builds an IngestError around a sentinel cause.
func NewIngestError(cause error, skipped []SkippedFile) *IngestError {
	return &IngestError{Err: cause, SkippedFiles: skipped}
}
