package engine

import (
	"context"
	"errors"
	"sync/atomic"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/datallboy/gofetch/internal/domain"
	"github.com/datallboy/gofetch/internal/progress"
)

// Options configures a batch download.
type Options struct {
	// Concurrency is the maximum number of transfers with an open connection.
	Concurrency int

	// DeepCheck re-hashes files that pass the size check before trusting them.
	DeepCheck bool

	// SkipDownload reports files that fail the quick check without transferring
	// them. Files that pass it but fail DeepCheck are still re-downloaded.
	SkipDownload bool

	// Progress receives counter updates. A private aggregator is used when nil.
	Progress *progress.Aggregator
}

// DownloadBatch brings every descriptor's destination up to date and reports
// whether any of them needed a download (or, with SkipDownload, would need one).
//
// Freshness checks run unbounded; transfers are gated by Concurrency. The first
// failure cancels the others, and every goroutine is joined before returning.
func (e *Engine) DownloadBatch(ctx context.Context, files []domain.Descriptor, opts Options) (bool, error) {
	res, err := e.downloadBatch(ctx, files, opts)
	if err != nil {
		return false, err
	}
	return res.required(), nil
}

// batchResult counts outcomes of a batch that finished without error.
type batchResult struct {
	fresh      uint64
	downloaded uint64
	pending    uint64
}

func (r batchResult) required() bool {
	return r.downloaded > 0 || r.pending > 0
}

func (e *Engine) downloadBatch(ctx context.Context, files []domain.Descriptor, opts Options) (batchResult, error) {
	if opts.Concurrency <= 0 {
		return batchResult{}, domain.ErrInvalidConcurrency
	}

	agg := opts.Progress
	if agg == nil {
		agg = progress.NewAggregator()
	}
	agg.Reset(uint64(len(files)), domain.TotalExpectedSize(files))

	gate := semaphore.NewWeighted(int64(opts.Concurrency))
	g, gctx := errgroup.WithContext(ctx)

	var fresh, downloaded, pending atomic.Uint64

	for _, file := range files {
		g.Go(func() error {
			outcome, err := e.process(gctx, file, gate, agg, opts)
			if err != nil {
				if errors.Is(err, context.Canceled) && ctx.Err() == nil {
					// A sibling failed first; its error is the one reported.
					e.ctx.Logger.Debug("Cancelled %s", file.URL)
				} else {
					e.ctx.Logger.Error("Download failed for %s: %v", file.URL, err)
				}
				return err
			}

			e.ctx.Logger.Debug("%s: %s", outcome, file)
			switch outcome {
			case domain.OutcomeFresh:
				fresh.Add(1)
			case domain.OutcomeDownloaded:
				downloaded.Add(1)
			default:
				pending.Add(1)
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return batchResult{}, err
	}

	return batchResult{fresh: fresh.Load(), downloaded: downloaded.Load(), pending: pending.Load()}, nil
}

// process resolves a single descriptor to an outcome.
func (e *Engine) process(ctx context.Context, file domain.Descriptor, gate *semaphore.Weighted, agg *progress.Aggregator, opts Options) (domain.Outcome, error) {
	// Dry runs skip only quick-check failures; a deep mismatch is re-downloaded.
	if CheckLocal(file) != LooksFresh {
		if opts.SkipDownload {
			return domain.OutcomeRequired, nil
		}
	} else if !opts.DeepCheck || e.verifyLocal(file) {
		agg.CreditFresh(file.ExpectedSize())
		return domain.OutcomeFresh, nil
	}

	if err := gate.Acquire(ctx, 1); err != nil {
		return domain.OutcomeRequired, err
	}
	defer gate.Release(1)

	if err := e.transfer(ctx, file, agg); err != nil {
		return domain.OutcomeRequired, err
	}

	return domain.OutcomeDownloaded, nil
}
