// Package engine is the concurrent batch-download engine.
//
// DownloadBatch fans a list of descriptors out to goroutines. Each one first
// checks the local file, then, behind a counting semaphore, streams the remote
// body to disk while hashing it and reporting progress. The first failure
// cancels the remaining transfers and is returned to the caller.
package engine

import (
	"context"

	"github.com/datallboy/gofetch/internal/app"
	"github.com/datallboy/gofetch/internal/domain"
	"github.com/datallboy/gofetch/internal/progress"
	"github.com/datallboy/gofetch/internal/transport"
)

// Engine is the concrete implementation of the download engine.
type Engine struct {
	ctx    *app.Context
	client *transport.Client
}

func New(ctx *app.Context, client *transport.Client) *Engine {
	return &Engine{ctx: ctx, client: client}
}

// DownloadFile fetches a single descriptor unconditionally, without a
// freshness check. agg may be nil.
func (e *Engine) DownloadFile(ctx context.Context, file domain.Descriptor, agg *progress.Aggregator) error {
	if agg == nil {
		agg = progress.NewAggregator()
	}
	agg.Reset(1, file.ExpectedSize())

	if err := e.transfer(ctx, file, agg); err != nil {
		e.ctx.Logger.Error("Download failed for %s: %v", file.URL, err)
		return err
	}

	e.ctx.Logger.Info("Downloaded %s", file)
	return nil
}
