package engine

import (
	"context"
	"errors"
	"time"

	"github.com/segmentio/ksuid"

	"github.com/datallboy/gofetch/internal/app"
	"github.com/datallboy/gofetch/internal/domain"
	"github.com/datallboy/gofetch/internal/progress"
)

// Runner wraps DownloadBatch with run bookkeeping: it assigns each batch an ID,
// logs it, and records it in the history store when one is configured.
type Runner struct {
	app      *app.Context
	engine   *Engine
	progress *progress.Aggregator
}

func NewRunner(app *app.Context, engine *Engine, agg *progress.Aggregator) *Runner {
	if agg == nil {
		agg = progress.NewAggregator()
	}
	return &Runner{app: app, engine: engine, progress: agg}
}

// Progress exposes the aggregator every run reports into.
func (r *Runner) Progress() *progress.Aggregator {
	return r.progress
}

// Run executes one batch. The returned Run is populated even when err is non-nil.
func (r *Runner) Run(ctx context.Context, name string, files []domain.Descriptor, opts Options) (*domain.Run, error) {
	opts.Progress = r.progress

	run := &domain.Run{
		ID:         ksuid.New().String(),
		Name:       name,
		Status:     domain.StatusRunning,
		DeepCheck:  opts.DeepCheck,
		DryRun:     opts.SkipDownload,
		FilesTotal: uint64(len(files)),
		BytesTotal: domain.TotalExpectedSize(files),
		StartedAt:  time.Now().UTC(),
	}
	r.save(run)

	r.app.Logger.Info("Starting run %s: %s (%d files, concurrency %d)", run.ID, name, len(files), opts.Concurrency)

	res, err := r.engine.downloadBatch(ctx, files, opts)
	r.finalize(run, res, err)

	return run, err
}

func (r *Runner) finalize(run *domain.Run, res batchResult, err error) {
	s := r.progress.Snapshot()
	run.FilesCompleted = s.FilesCompleted
	run.BytesCompleted = s.BytesCompleted
	run.BytesTotal = s.BytesTotal
	run.FinishedAt = time.Now().UTC()

	if err != nil {
		run.Status = domain.StatusFailed
		if errors.Is(err, context.Canceled) {
			run.Error = "Cancelled by user"
		} else {
			run.Error = err.Error()
		}
		r.app.Logger.Error("Run %s failed: %v", run.ID, err)
	} else {
		run.Status = domain.StatusCompleted
		run.DownloadRequired = res.required()
		run.FilesDownloaded = res.downloaded
		r.app.Logger.Info("Run %s finished in %s (%d fresh, %d downloaded, %d pending)",
			run.ID, run.FinishedAt.Sub(run.StartedAt).Truncate(time.Millisecond), res.fresh, res.downloaded, res.pending)
	}

	r.save(run)
}

// save persists the run; history is best effort and never fails a batch.
func (r *Runner) save(run *domain.Run) {
	if r.app.Store == nil {
		return
	}
	if err := r.app.Store.SaveRun(run); err != nil {
		r.app.Logger.Warn("Failed to save run %s: %v", run.ID, err)
	}
}
