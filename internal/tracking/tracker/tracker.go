// Package tracker runs the per-store scan loop: fetch the catalog, snapshot
// category counts, analyze the mix against targets, and fan out alerts and
// reports.
package tracker

import (
	"context"
	"time"

	"github.com/vaama/inventorypacer/internal/core/config"
	"github.com/vaama/inventorypacer/internal/core/domain"
	"github.com/vaama/inventorypacer/internal/infra/shopify"
	"github.com/vaama/inventorypacer/internal/infra/storage"
)

// Fetcher retrieves the product catalog for a store.
type Fetcher interface {
	FetchProducts(ctx context.Context, q shopify.Query) ([]*domain.Product, error)
}

// Alerter dispatches an imbalance alert.
type Alerter interface {
	Dispatch(ctx context.Context, store domain.Store, report *domain.MixReport, recommendations []string) (bool, error)
}

// ReportWriter renders a snapshot and its analysis to a report file.
type ReportWriter interface {
	Write(snapshot *domain.Snapshot, report *domain.MixReport, recommendations []string) (string, error)
}

// Archiver uploads a finished report file to remote storage.
type Archiver interface {
	Upload(ctx context.Context, storeID domain.StoreID, date, path string) (string, error)
}

// RunLocker coordinates scans across instances so only one scans a store
// per date at a time.
type RunLocker interface {
	AcquireRunLock(ctx context.Context, storeID domain.StoreID, date string, ttl time.Duration) (bool, error)
	RefreshRunLock(ctx context.Context, storeID domain.StoreID, date string, ttl time.Duration) error
	ReleaseRunLock(ctx context.Context, storeID domain.StoreID, date string) error
}

// CountsCache stores the latest category counts for quick reads.
type CountsCache interface {
	CacheCounts(ctx context.Context, storeID domain.StoreID, counts domain.Counts, ttl time.Duration) error
}

// StatusRecorder receives scan outcomes for health reporting.
type StatusRecorder interface {
	RecordSuccess(storeID domain.StoreID)
	RecordFailure(storeID domain.StoreID)
	RecordReport(report *domain.MixReport)
}

// Config holds tracker dependencies. Locker, Cache, Archive, Reporter and
// Monitor are optional.
type Config struct {
	Store     config.StoreConfig
	Fetcher   Fetcher
	Snapshots storage.SnapshotRepository
	Alerter   Alerter
	Reporter  ReportWriter
	Archive   Archiver
	Locker    RunLocker
	Cache     CountsCache
	Monitor   StatusRecorder
}

// Status describes the tracker's current state.
type Status struct {
	StoreID    domain.StoreID    `json:"store_id"`
	Running    bool              `json:"running"`
	LastRun    time.Time         `json:"last_run"`
	LastReport *domain.MixReport `json:"last_report,omitempty"`
}
