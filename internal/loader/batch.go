package loader

import (
	"context"
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"

	apperrors "leetlens/internal/errors"
	"leetlens/pkg/contracts/domain"
)

// ProgressFunc is invoked after each file completes, with a monotonically
// increasing done count regardless of completion order.
type ProgressFunc func(done, total int)

// BatchResult aggregates the outcome of a parallel load.
type BatchResult struct {
	Tables  []*RawTable
	Skipped []apperrors.SkippedFile
}

// LoadAll loads the given source files concurrently with a bounded worker
// pool. Individual file failures are recorded as skips; only context
// cancellation aborts the batch. Table order follows the input order with
// skipped files removed, so downstream merge order is deterministic.
func (l *Loader) LoadAll(ctx context.Context, sources []domain.SourceFile, workers int, onProgress ProgressFunc) (*BatchResult, error) {
	if workers <= 0 {
		workers = 1
	}

	tables := make([]*RawTable, len(sources))
	skipped := make([]*apperrors.SkippedFile, len(sources))

	var mu sync.Mutex
	done := 0

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for i, src := range sources {
		g.Go(func() error {
			table, err := l.Load(gctx, src)
			if gctx.Err() != nil {
				return gctx.Err()
			}
			if err != nil {
				l.logger.Warn("skipping unreadable source file",
					slog.String("path", src.Path),
					slog.String("error", err.Error()))
				skipped[i] = &apperrors.SkippedFile{
					Company:   src.Company,
					Timeframe: string(src.Timeframe),
					Path:      src.Path,
					Reason:    err.Error(),
				}
			} else {
				tables[i] = table
			}

			mu.Lock()
			done++
			current := done
			mu.Unlock()
			if onProgress != nil {
				onProgress(current, len(sources))
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	result := &BatchResult{}
	for i := range sources {
		if tables[i] != nil {
			result.Tables = append(result.Tables, tables[i])
		}
		if skipped[i] != nil {
			result.Skipped = append(result.Skipped, *skipped[i])
		}
	}
	return result, nil
}
