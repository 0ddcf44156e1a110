package storage

import (
	"context"
	"errors"

	"github.com/vaama/inventorypacer/internal/core/domain"
)

var (
	// ErrSnapshotNotFound is returned when no snapshot exists for a date.
	ErrSnapshotNotFound = errors.New("snapshot not found")
)

// SnapshotRepository handles daily category-count snapshots.
type SnapshotRepository interface {
	// Upsert inserts the snapshot or updates the existing row for the
	// same (store, date). Counts are only written when they changed;
	// the returned flag reports whether a write happened.
	Upsert(ctx context.Context, snapshot *domain.Snapshot) (bool, error)

	// GetByDate retrieves the snapshot for a specific date.
	GetByDate(ctx context.Context, storeID domain.StoreID, date string) (*domain.Snapshot, error)

	// Latest retrieves the most recent snapshot for a store.
	Latest(ctx context.Context, storeID domain.StoreID) (*domain.Snapshot, error)

	// List retrieves snapshots for a store, newest first. limit <= 0 means all.
	List(ctx context.Context, storeID domain.StoreID, limit int) ([]*domain.Snapshot, error)

	// DeleteOlderThan removes snapshots older than the given date.
	// Returns the number of rows removed.
	DeleteOlderThan(ctx context.Context, storeID domain.StoreID, date string) (int64, error)
}

// AlertRepository records dispatched mix alerts.
type AlertRepository interface {
	// Record persists a dispatched alert.
	Record(ctx context.Context, record *domain.AlertRecord) error

	// ListRecent retrieves recent alerts for a store, newest first.
	ListRecent(ctx context.Context, storeID domain.StoreID, limit int) ([]*domain.AlertRecord, error)

	// DeleteOlderThan removes alert records older than the given date.
	DeleteOlderThan(ctx context.Context, storeID domain.StoreID, date string) (int64, error)
}
