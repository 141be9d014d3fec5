package pipeline

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// ExtractBatch runs one worker per filing, at most workers at a time.
// Results keep the order of reqs. A filing that fails to retrieve leaves a
// nil slot and its error is joined into the returned error; it never stops
// the other filings. Only context cancellation aborts the batch.
func (x *Extractor) ExtractBatch(ctx context.Context, reqs []Request, workers int) ([]*Result, error) {
	if workers <= 0 {
		workers = 1
	}
	runID := uuid.NewString()
	log := x.log.With(zap.String("run_id", runID))
	start := time.Now()
	log.Info("pipeline: batch started", zap.Int("filings", len(reqs)), zap.Int("workers", workers))

	results := make([]*Result, len(reqs))
	var (
		mu   sync.Mutex
		errs []error
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, req := range reqs {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			res, err := x.Extract(gctx, req)
			if err != nil {
				if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
					return err
				}
				log.Warn("pipeline: filing failed", zap.String("url", req.URL), zap.Error(err))
				mu.Lock()
				errs = append(errs, eris.Wrapf(err, "filing %s", req.URL))
				mu.Unlock()
				return nil
			}
			results[i] = res
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return results, eris.Wrap(err, "pipeline: batch cancelled")
	}

	log.Info("pipeline: batch finished",
		zap.Int("failed", len(errs)),
		zap.Duration("elapsed", time.Since(start)),
	)
	return results, errors.Join(errs...)
}
