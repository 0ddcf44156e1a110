package worker

import (
	"context"
	"log/slog"
	"time"

	"github.com/vaama/inventorypacer/internal/core/config"
	"github.com/vaama/inventorypacer/internal/core/domain"
	"github.com/vaama/inventorypacer/internal/infra/storage"
)

// Pruner deletes old snapshots and alert records based on retention policy.
type Pruner struct {
	cfg       config.StoreConfig
	snapshots storage.SnapshotRepository
	alerts    storage.AlertRepository
}

// NewPruner creates a new Pruner worker.
func NewPruner(
	cfg config.StoreConfig,
	snapshots storage.SnapshotRepository,
	alerts storage.AlertRepository,
) *Pruner {
	return &Pruner{
		cfg:       cfg,
		snapshots: snapshots,
		alerts:    alerts,
	}
}

// Start runs the pruner loop.
func (p *Pruner) Start(ctx context.Context) {
	if p.cfg.RetentionPeriod <= 0 {
		return // Retention disabled
	}

	// Check interval: 10% of retention period, clamped to [1m, 1h]
	interval := min(p.cfg.RetentionPeriod/10, 1*time.Hour)
	interval = max(interval, 1*time.Minute)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	// Initial prune
	p.prune(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.prune(ctx)
		}
	}
}

func (p *Pruner) prune(ctx context.Context) {
	storeID := domain.StoreID(p.cfg.ID)
	cutoff := time.Now().UTC().Add(-p.cfg.RetentionPeriod).Format(domain.DateFormat)

	deleted, err := p.snapshots.DeleteOlderThan(ctx, storeID, cutoff)
	if err != nil {
		slog.Error("pruner: failed to prune snapshots", "store", storeID, "error", err)
	} else if deleted > 0 {
		slog.Info("pruner: removed old snapshots", "store", storeID, "count", deleted, "cutoff", cutoff)
	}

	if _, err := p.alerts.DeleteOlderThan(ctx, storeID, cutoff); err != nil {
		slog.Error("pruner: failed to prune alerts", "store", storeID, "error", err)
	}
}
