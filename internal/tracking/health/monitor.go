package health

import (
	"context"
	"sync"
	"time"

	"github.com/vaama/inventorypacer/internal/core/config"
	"github.com/vaama/inventorypacer/internal/core/domain"
	"github.com/vaama/inventorypacer/internal/core/mix"
	"github.com/vaama/inventorypacer/internal/infra/storage"
)

// criticalFailures is the consecutive fetch failure count that marks a store
// critical.
const criticalFailures = 5

// Monitor aggregates health status across tracked stores.
type Monitor struct {
	stores    []config.StoreConfig
	snapshots storage.SnapshotRepository

	mu         sync.RWMutex
	failures   map[domain.StoreID]int
	reports    map[domain.StoreID]*domain.MixReport
	lastCheck  time.Time
	lastReport map[string]StoreHealth
}

// NewMonitor creates a new health monitor.
func NewMonitor(stores []config.StoreConfig, snapshots storage.SnapshotRepository) *Monitor {
	return &Monitor{
		stores:     stores,
		snapshots:  snapshots,
		failures:   make(map[domain.StoreID]int),
		reports:    make(map[domain.StoreID]*domain.MixReport),
		lastReport: make(map[string]StoreHealth),
	}
}

// RecordSuccess resets the failure counter after a successful scan.
func (m *Monitor) RecordSuccess(storeID domain.StoreID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failures[storeID] = 0
}

// RecordFailure bumps the consecutive failure counter for a store.
func (m *Monitor) RecordFailure(storeID domain.StoreID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failures[storeID]++
}

// RecordReport stores the latest mix analysis for a store.
func (m *Monitor) RecordReport(report *domain.MixReport) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reports[report.StoreID] = report
}

// CheckHealth performs a health check for all stores. Results are cached
// briefly to keep the endpoint cheap.
func (m *Monitor) CheckHealth(ctx context.Context) map[string]StoreHealth {
	m.mu.Lock()
	defer m.mu.Unlock()

	if time.Since(m.lastCheck) < 10*time.Second && len(m.lastReport) > 0 {
		return m.lastReport
	}

	report := make(map[string]StoreHealth)
	now := time.Now().UTC()

	for _, store := range m.stores {
		h := StoreHealth{
			StoreID:  string(store.ID),
			Status:   StatusHealthy,
			Balanced: true,
		}

		snap, err := m.snapshots.Latest(ctx, store.ID)
		if err != nil {
			// No snapshot yet (or storage unavailable)
			h.Status = StatusDegraded
		} else {
			h.LastSnapshotDate = snap.Date
			h.SnapshotAgeSeconds = int64(now.Sub(snap.TakenAt).Seconds())
		}

		h.ConsecutiveFailures = m.failures[store.ID]

		if rep := m.reports[store.ID]; rep != nil {
			h.MaxDeviation = rep.MaxDeviation()
			tolerance := store.Tolerance
			if tolerance <= 0 {
				tolerance = mix.DefaultTolerance
			}
			h.Balanced = mix.Balanced(rep, tolerance)
		}

		// Evaluate status (worst condition wins)
		var stale, veryStale bool
		if snap != nil && store.ScanInterval > 0 {
			age := now.Sub(snap.TakenAt)
			stale = age > 2*store.ScanInterval
			veryStale = age > 6*store.ScanInterval
		}
		switch {
		case h.ConsecutiveFailures >= criticalFailures || veryStale:
			h.Status = StatusCritical
		case h.ConsecutiveFailures > 0 || stale || !h.Balanced:
			h.Status = StatusDegraded
		}

		report[string(store.ID)] = h
	}

	m.lastCheck = time.Now()
	m.lastReport = report
	return report
}

// Aggregate reduces per-store health to a single system status.
func Aggregate(stores map[string]StoreHealth) SystemStatus {
	status := StatusHealthy
	for _, s := range stores {
		if s.Status == StatusCritical {
			return StatusCritical
		}
		if s.Status == StatusDegraded {
			status = StatusDegraded
		}
	}
	return status
}
