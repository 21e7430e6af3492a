package unblock

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/multierr"

	"github.com/danmorales/channelstock-backend/internal/blocks"
	"github.com/danmorales/channelstock-backend/internal/inventory"
	"github.com/danmorales/channelstock-backend/pkg/config"
	"github.com/danmorales/channelstock-backend/pkg/logger"
	"github.com/danmorales/channelstock-backend/pkg/metrics"
)

const jobName = "scheduled_unblock"

// WorkerParams configure the auto-unblock sweep.
type WorkerParams struct {
	Logger        *logger.Logger
	InventoryRepo inventory.Repository
	BlockService  blocks.Service
	Metrics       *metrics.JobMetrics
	Lock          Lock
	Config        config.UnblockWorkerConfig
}

// Worker periodically releases blocks whose auto-unblock date has passed.
// The date alone changes nothing; this sweep is the trigger that lifts
// the block.
type Worker struct {
	logg      *logger.Logger
	repo      inventory.Repository
	blocks    blocks.Service
	metrics   *metrics.JobMetrics
	lock      Lock
	interval  time.Duration
	batchSize int
	now       func() time.Time
}

// NewWorker builds the sweep worker.
func NewWorker(params WorkerParams) (*Worker, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.InventoryRepo == nil {
		return nil, fmt.Errorf("inventory repository required")
	}
	if params.BlockService == nil {
		return nil, fmt.Errorf("block service required")
	}
	interval := params.Config.Interval
	if interval <= 0 {
		interval = time.Minute
	}
	batchSize := params.Config.BatchSize
	if batchSize <= 0 {
		batchSize = 100
	}
	return &Worker{
		logg:      params.Logger,
		repo:      params.InventoryRepo,
		blocks:    params.BlockService,
		metrics:   params.Metrics,
		lock:      params.Lock,
		interval:  interval,
		batchSize: batchSize,
		now:       time.Now,
	}, nil
}

// Run sweeps immediately, then on every tick until the context is canceled.
func (w *Worker) Run(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	w.runCycle(ctx)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.logg.Info(ctx, "unblock worker context canceled")
			return ctx.Err()
		case <-ticker.C:
			w.runCycle(ctx)
		}
	}
}

func (w *Worker) runCycle(ctx context.Context) {
	if w.lock != nil {
		locked, err := w.lock.Acquire(ctx)
		if err != nil {
			w.logg.Error(ctx, "acquire sweep lock", err)
			return
		}
		if !locked {
			w.logg.Info(ctx, "another sweep instance is running; skipping this cycle")
			return
		}
		defer func() {
			if err := w.lock.Release(ctx); err != nil {
				w.logg.Error(ctx, "release sweep lock", err)
			}
		}()
	}

	jobCtx := w.logg.WithField(ctx, "job", jobName)
	start := time.Now()
	released, err := w.Sweep(jobCtx)
	duration := time.Since(start)
	if w.metrics != nil {
		w.metrics.ObserveDuration(jobName, duration)
	}
	jobCtx = w.logg.WithFields(jobCtx, map[string]any{
		"released":    released,
		"duration_ms": duration.Milliseconds(),
	})
	if err != nil {
		w.logg.Error(jobCtx, "sweep finished with errors", err)
		if w.metrics != nil {
			w.metrics.IncFailure(jobName)
		}
		return
	}
	w.logg.Info(jobCtx, "sweep complete")
	if w.metrics != nil {
		w.metrics.IncSuccess(jobName)
	}
}

// Sweep releases every due block in one pass and reports how many pairs
// were unblocked. Per-pair failures are collected rather than aborting
// the batch, so one bad row cannot starve the rest.
func (w *Worker) Sweep(ctx context.Context) (int, error) {
	rows, err := w.repo.ListAutoUnblockDue(ctx, w.now().UTC(), w.batchSize)
	if err != nil {
		return 0, fmt.Errorf("list due blocks: %w", err)
	}

	note := "scheduled unblock"
	released := 0
	var errs error
	for i := range rows {
		row := rows[i]
		result, err := w.blocks.Unblock(ctx, blocks.UnblockInput{
			ProductID: row.ProductID,
			Platform:  row.Platform,
			Note:      &note,
		})
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("unblock %s/%s: %w", row.ProductID, row.Platform, err))
			continue
		}
		if result.Released {
			released++
		}
	}

	if w.metrics != nil && released > 0 {
		w.metrics.AddUnblocks(released)
	}
	return released, errs
}
