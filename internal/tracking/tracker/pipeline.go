package tracker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/vaama/inventorypacer/internal/core/domain"
	"github.com/vaama/inventorypacer/internal/core/mix"
	"github.com/vaama/inventorypacer/internal/infra/shopify"
	"github.com/vaama/inventorypacer/internal/tracking/metrics"
)

const countsCacheTTL = 24 * time.Hour

// Tracker is one store's scan pipeline.
type Tracker struct {
	cfg     Config
	logger  *slog.Logger
	running atomic.Bool
	stop    chan struct{}

	mu         sync.Mutex
	lastRun    time.Time
	lastReport *domain.MixReport
}

// New creates a tracker for one store.
func New(cfg Config, logger *slog.Logger) *Tracker {
	return &Tracker{
		cfg:    cfg,
		logger: logger.With("store", cfg.Store.ID),
		stop:   make(chan struct{}),
	}
}

// Start begins the scan loop. It scans once immediately, then on every tick
// until the context is canceled or Stop is called.
func (t *Tracker) Start(ctx context.Context) error {
	if !t.running.CompareAndSwap(false, true) {
		return fmt.Errorf("tracker already running")
	}
	defer t.running.Store(false)

	interval := t.cfg.Store.ScanInterval
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	t.scan(ctx)

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-t.stop:
			return nil
		case <-ticker.C:
			t.scan(ctx)
		}
	}
}

// Stop stops the scan loop.
func (t *Tracker) Stop() error {
	if t.running.Load() {
		close(t.stop)
	}
	return nil
}

// GetStatus returns the current tracker status.
func (t *Tracker) GetStatus() Status {
	t.mu.Lock()
	defer t.mu.Unlock()
	return Status{
		StoreID:    t.cfg.Store.ID,
		Running:    t.running.Load(),
		LastRun:    t.lastRun,
		LastReport: t.lastReport,
	}
}

func (t *Tracker) scan(ctx context.Context) {
	report, err := t.RunOnce(ctx)
	if err != nil {
		t.logger.Error("scan failed", "error", err)
		return
	}
	if report != nil {
		t.logger.Info("scan complete",
			"date", report.Date,
			"total", report.Total,
			"balanced", report.Balanced,
			"deficits", len(report.Entries))
	}
}

// RunOnce executes a single scan. It returns (nil, nil) when another
// instance holds the run lock for this store and date.
func (t *Tracker) RunOnce(ctx context.Context) (*domain.MixReport, error) {
	store := t.cfg.Store
	date := t.targetDate()

	lockTTL := max(store.ScanInterval, 10*time.Minute)
	if t.cfg.Locker != nil {
		acquired, err := t.cfg.Locker.AcquireRunLock(ctx, store.ID, date, lockTTL)
		if err != nil {
			return nil, fmt.Errorf("acquire run lock: %w", err)
		}
		if !acquired {
			t.logger.Debug("run lock held elsewhere, skipping", "date", date)
			return nil, nil
		}
		defer func() {
			if err := t.cfg.Locker.ReleaseRunLock(ctx, store.ID, date); err != nil {
				t.logger.Warn("failed to release run lock", "error", err)
			}
		}()
	}

	query := shopify.Query{Mode: domain.ParseFetchMode(store.FetchMode)}
	if day, err := time.Parse(domain.DateFormat, date); err == nil {
		query.Date = day
	}

	products, err := t.cfg.Fetcher.FetchProducts(ctx, query)
	if err != nil {
		metrics.FetchFailures.WithLabelValues(string(store.ID)).Inc()
		if t.cfg.Monitor != nil {
			t.cfg.Monitor.RecordFailure(store.ID)
		}
		return nil, fmt.Errorf("fetch products: %w", err)
	}

	if t.cfg.Locker != nil {
		// Pagination and throttle waits may have eaten into the TTL.
		if err := t.cfg.Locker.RefreshRunLock(ctx, store.ID, date, lockTTL); err != nil {
			t.logger.Warn("failed to refresh run lock", "error", err)
		}
	}

	counts := CountByCategory(products, store.TargetMix())
	snapshot := domain.NewSnapshot(store.ID, date, counts)

	written, err := t.cfg.Snapshots.Upsert(ctx, snapshot)
	if err != nil {
		if t.cfg.Monitor != nil {
			t.cfg.Monitor.RecordFailure(store.ID)
		}
		return nil, fmt.Errorf("store snapshot: %w", err)
	}
	metrics.SnapshotsTaken.WithLabelValues(string(store.ID)).Inc()
	if written {
		metrics.SnapshotsWritten.WithLabelValues(string(store.ID)).Inc()
	}
	if t.cfg.Monitor != nil {
		t.cfg.Monitor.RecordSuccess(store.ID)
	}

	if t.cfg.Cache != nil {
		if err := t.cfg.Cache.CacheCounts(ctx, store.ID, counts, countsCacheTTL); err != nil {
			t.logger.Warn("failed to cache counts", "error", err)
		}
	}
	for cat, n := range counts {
		metrics.CategoryCount.WithLabelValues(string(store.ID), string(cat)).Set(float64(n))
	}

	report, err := mix.Analyze(store.ID, date, counts, store.TargetMix())
	if errors.Is(err, mix.ErrEmptyCatalog) {
		t.logger.Warn("catalog is empty, skipping analysis", "date", date)
		return &domain.MixReport{StoreID: store.ID, Date: date}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("analyze mix: %w", err)
	}
	tolerance := store.Tolerance
	if tolerance <= 0 {
		tolerance = mix.DefaultTolerance
	}
	report.Balanced = mix.Balanced(report, tolerance)
	metrics.MixDeviation.WithLabelValues(string(store.ID)).Set(report.MaxDeviation())
	if t.cfg.Monitor != nil {
		t.cfg.Monitor.RecordReport(report)
	}

	recommendations := mix.Recommendations(report)

	if t.cfg.Alerter != nil && !report.Balanced {
		if _, err := t.cfg.Alerter.Dispatch(ctx, store.Store(), report, recommendations); err != nil {
			t.logger.Error("alert dispatch failed", "error", err)
		}
	}

	if t.cfg.Reporter != nil {
		path, err := t.cfg.Reporter.Write(snapshot, report, recommendations)
		if err != nil {
			t.logger.Error("report write failed", "error", err)
		} else if t.cfg.Archive != nil {
			if key, err := t.cfg.Archive.Upload(ctx, store.ID, date, path); err != nil {
				t.logger.Error("report archive failed", "error", err)
			} else {
				t.logger.Debug("report archived", "key", key)
			}
		}
	}

	t.mu.Lock()
	t.lastRun = time.Now().UTC()
	t.lastReport = report
	t.mu.Unlock()

	return report, nil
}

// targetDate returns the configured fixed date, or today in UTC.
func (t *Tracker) targetDate() string {
	if t.cfg.Store.Date != "" {
		return t.cfg.Store.Date
	}
	return time.Now().UTC().Format(domain.DateFormat)
}

// CountByCategory tallies products by normalized product type. Only the
// target's categories are counted; every target category is present in the
// result, zero when absent from the catalog.
func CountByCategory(products []*domain.Product, targets domain.TargetMix) domain.Counts {
	counts := make(domain.Counts, len(targets))
	for cat := range targets {
		counts[cat] = 0
	}
	for _, p := range products {
		cat := p.Category()
		if _, ok := counts[cat]; ok {
			counts[cat]++
		}
	}
	return counts
}
