package runner

import (
	"context"
	"sync"
	"time"

	"realty-scraper/models"
	"realty-scraper/services"
	"realty-scraper/storage"
	"realty-scraper/utils"
)

// Collector produces one run's worth of normalized listings. Check reports
// configuration problems (missing browser binary) that retrying cannot fix.
type Collector interface {
	Check() error
	Collect(ctx context.Context) ([]*models.Listing, models.CollectStats, error)
}

// Runner sequences collect → reconcile as one retryable unit of work.
// It is the only component holding retry policy, at two granularities:
// stepRetry wraps the collect phase, runRetry wraps the whole run. A
// mutex serializes runs so reconciler writes never interleave.
type Runner struct {
	logger     *utils.Logger
	collector  Collector
	reconciler *storage.Reconciler
	mirror     storage.HistoryMirror
	summary    *services.SummaryService

	stepRetry utils.RetryPolicy
	runRetry  utils.RetryPolicy

	mu sync.Mutex
}

// New creates a Runner. mirror may be nil to disable mirroring.
func New(logger *utils.Logger, collector Collector, reconciler *storage.Reconciler,
	mirror storage.HistoryMirror, stepRetry, runRetry utils.RetryPolicy) *Runner {
	return &Runner{
		logger:     logger,
		collector:  collector,
		reconciler: reconciler,
		mirror:     mirror,
		summary:    services.NewSummaryService(logger),
		stepRetry:  stepRetry,
		runRetry:   runRetry,
	}
}

// Run executes one full pipeline run. Transient failures are retried per
// the configured policies; after run-level retries exhaust, the terminal
// error is returned. An empty snapshot is a logged no-op success.
func (r *Runner) Run(ctx context.Context) (*models.RunSummary, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.collector.Check(); err != nil {
		r.logger.Error("[runner] Configuration error, not retrying: %v", err)
		return nil, err
	}

	start := time.Now()
	var summary *models.RunSummary
	err := r.runRetry.Do("run", func() error {
		s, err := r.runOnce(ctx)
		if err != nil {
			return err
		}
		summary = s
		return nil
	})
	if err != nil {
		r.logger.Error("[runner] Run failed after retries: %v", err)
		return nil, err
	}

	summary.StartedAt = start
	summary.Elapsed = time.Since(start)
	r.summary.Log(summary)
	r.summary.Print(summary)
	return summary, nil
}

func (r *Runner) runOnce(ctx context.Context) (*models.RunSummary, error) {
	runTime := time.Now()

	var listings []*models.Listing
	var stats models.CollectStats

	r.logger.Info("[runner] Collecting listings")
	err := r.stepRetry.Do("collect", func() error {
		l, s, err := r.collector.Collect(ctx)
		if err != nil {
			return err
		}
		listings, stats = l, s
		return nil
	})
	if err != nil {
		if utils.IsPermanent(err) {
			return nil, err
		}
		// Transient infrastructure failure: degrade to an empty listing
		// set and still reconcile, so the raw audit trail records the run.
		r.logger.Warn("[runner] Collection exhausted retries — continuing with empty listing set: %v", err)
		listings, stats = nil, models.CollectStats{}
	}

	r.logger.Info("[runner] Reconciling %d listings", len(listings))
	res, err := r.reconciler.Reconcile(listings, runTime)
	if err != nil {
		return nil, err
	}

	if r.mirror != nil && !res.NoOp {
		if err := r.mirror.Write(listings); err != nil {
			r.logger.Error("[runner] History mirror write failed (artifacts unaffected): %v", err)
		}
	}

	return &models.RunSummary{
		Collect:      stats,
		RawSize:      res.RawSize,
		SnapshotSize: res.SnapshotSize,
		Duplicates:   res.Duplicates,
		HistorySize:  res.HistorySize,
		NoOp:         res.NoOp,
		RawPath:      res.RawPath,
		FilteredPath: res.FilteredPath,
		HistoryPath:  r.reconciler.HistoryPath(),
		LatestPath:   r.reconciler.LatestPath(),
	}, nil
}
