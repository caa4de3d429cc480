package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/go-co-op/gocron"
	"github.com/phrazzld/scry-study/internal/domain/srs"
	"github.com/phrazzld/scry-study/internal/platform/clock"
	"github.com/phrazzld/scry-study/internal/platform/logger"
	"github.com/phrazzld/scry-study/internal/store"
)

// Defaults applied by NewReconciler for zero config values.
const (
	DefaultInterval  = 15 * time.Minute
	DefaultBatchSize = 500
)

// Config configures the reconciler.
type Config struct {
	Interval  time.Duration
	BatchSize int
}

// Result summarizes one sweep.
type Result struct {
	Scanned   int
	Refreshed int
	Conflicts int
	Batches   int
}

// Reconciler refreshes stale lifecycle projections in the record store.
type Reconciler struct {
	records store.RecordStore
	clock   clock.Clock
	cfg     Config
	logger  *slog.Logger

	mu        sync.Mutex
	scheduler *gocron.Scheduler
}

// NewReconciler creates a reconciler over records.
func NewReconciler(records store.RecordStore, clk clock.Clock, cfg Config, logger *slog.Logger) *Reconciler {
	if records == nil {
		panic("records cannot be nil")
	}
	if clk == nil {
		clk = clock.Real{}
	}
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultInterval
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = DefaultBatchSize
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Reconciler{
		records: records,
		clock:   clk,
		cfg:     cfg,
		logger:  logger.With(slog.String("component", "reconciler")),
	}
}

// RunOnce sweeps the store until no stale records remain or a batch makes no
// progress. Records that lose an optimistic concurrency race are skipped;
// the competing writer has already refreshed them or the next sweep will.
func (r *Reconciler) RunOnce(ctx context.Context) (Result, error) {
	log := logger.FromContextOrDefault(ctx, r.logger)
	start := time.Now()
	now := r.clock.Now()

	var res Result
	for {
		if err := ctx.Err(); err != nil {
			return res, err
		}

		batch, err := r.records.ListStale(ctx, now, r.cfg.BatchSize)
		if err != nil {
			log.Error("failed to list stale records", slog.String("error", err.Error()))
			return res, fmt.Errorf("failed to list stale records: %w", err)
		}
		res.Batches++
		res.Scanned += len(batch)

		refreshed := 0
		for _, rec := range batch {
			if !srs.NeedsRefresh(rec, now) {
				continue
			}
			next := srs.RefreshLifecycle(rec, now)
			next.UpdatedAt = now

			if err := r.records.Put(ctx, next); err != nil {
				if errors.Is(err, store.ErrRecordConflict) {
					res.Conflicts++
					continue
				}
				log.Error("failed to refresh record",
					slog.String("error", err.Error()),
					slog.String("learner_id", rec.LearnerID.String()),
					slog.String("card_id", rec.CardID.String()))
				return res, fmt.Errorf("failed to refresh record %s: %w", rec.CardID, err)
			}
			refreshed++
		}
		res.Refreshed += refreshed

		if len(batch) < r.cfg.BatchSize || refreshed == 0 {
			break
		}
	}

	log.Info("reconcile sweep completed",
		slog.Int("scanned", res.Scanned),
		slog.Int("refreshed", res.Refreshed),
		slog.Int("conflicts", res.Conflicts),
		slog.Int("batches", res.Batches),
		slog.Duration("duration", time.Since(start)))
	return res, nil
}

// Start schedules RunOnce every configured interval, starting immediately.
// Runs never overlap. ctx is passed to every run; cancel it and call Stop to
// shut down.
func (r *Reconciler) Start(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.scheduler != nil {
		return errors.New("reconciler already started")
	}

	s := gocron.NewScheduler(time.UTC)
	s.SingletonModeAll()
	_, err := s.Every(r.cfg.Interval).Do(func() {
		if _, err := r.RunOnce(ctx); err != nil && !errors.Is(err, context.Canceled) {
			r.logger.Error("reconcile sweep failed", slog.String("error", err.Error()))
		}
	})
	if err != nil {
		return fmt.Errorf("failed to schedule reconcile job: %w", err)
	}

	s.StartAsync()
	r.scheduler = s
	r.logger.Info("reconciler started", slog.Duration("interval", r.cfg.Interval))
	return nil
}

// Stop stops the schedule and waits for a running sweep to finish.
func (r *Reconciler) Stop() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.scheduler == nil {
		return
	}
	r.scheduler.Stop()
	r.scheduler = nil
	r.logger.Info("reconciler stopped")
}
