package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/vaama/inventorypacer/internal/core/domain"
	"github.com/vaama/inventorypacer/internal/infra/storage"
)

// MemoryStorage backs the repositories when no database is configured.
type MemoryStorage struct {
	snapshots map[domain.StoreID]map[string]*domain.Snapshot
	alerts    map[domain.StoreID][]*domain.AlertRecord
	mu        sync.RWMutex
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{
		snapshots: make(map[domain.StoreID]map[string]*domain.Snapshot),
		alerts:    make(map[domain.StoreID][]*domain.AlertRecord),
	}
}

// -----------------------------------------------------------------------------
// Snapshot Repository
// -----------------------------------------------------------------------------

type SnapshotRepo struct {
	store *MemoryStorage
}

func NewSnapshotRepo(store *MemoryStorage) *SnapshotRepo {
	return &SnapshotRepo{store: store}
}

func (r *SnapshotRepo) Upsert(ctx context.Context, snapshot *domain.Snapshot) (bool, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	byDate, ok := r.store.snapshots[snapshot.StoreID]
	if !ok {
		byDate = make(map[string]*domain.Snapshot)
		r.store.snapshots[snapshot.StoreID] = byDate
	}

	if existing, ok := byDate[snapshot.Date]; ok && existing.Counts.Equal(snapshot.Counts) {
		return false, nil
	}

	cp := *snapshot
	cp.Counts = snapshot.Counts.Clone()
	byDate[snapshot.Date] = &cp
	return true, nil
}

func (r *SnapshotRepo) GetByDate(ctx context.Context, storeID domain.StoreID, date string) (*domain.Snapshot, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	s, ok := r.store.snapshots[storeID][date]
	if !ok {
		return nil, storage.ErrSnapshotNotFound
	}
	cp := *s
	cp.Counts = s.Counts.Clone()
	return &cp, nil
}

func (r *SnapshotRepo) Latest(ctx context.Context, storeID domain.StoreID) (*domain.Snapshot, error) {
	all, err := r.List(ctx, storeID, 1)
	if err != nil {
		return nil, err
	}
	if len(all) == 0 {
		return nil, storage.ErrSnapshotNotFound
	}
	return all[0], nil
}

func (r *SnapshotRepo) List(ctx context.Context, storeID domain.StoreID, limit int) ([]*domain.Snapshot, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	byDate := r.store.snapshots[storeID]
	out := make([]*domain.Snapshot, 0, len(byDate))
	for _, s := range byDate {
		cp := *s
		cp.Counts = s.Counts.Clone()
		out = append(out, &cp)
	}

	// ISO dates sort lexicographically; newest first.
	sort.Slice(out, func(i, j int) bool { return out[i].Date > out[j].Date })

	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *SnapshotRepo) DeleteOlderThan(ctx context.Context, storeID domain.StoreID, date string) (int64, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	var removed int64
	for d := range r.store.snapshots[storeID] {
		if d < date {
			delete(r.store.snapshots[storeID], d)
			removed++
		}
	}
	return removed, nil
}

// -----------------------------------------------------------------------------
// Alert Repository
// -----------------------------------------------------------------------------

type AlertRepo struct {
	store *MemoryStorage
}

func NewAlertRepo(store *MemoryStorage) *AlertRepo {
	return &AlertRepo{store: store}
}

func (r *AlertRepo) Record(ctx context.Context, record *domain.AlertRecord) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	cp := *record
	r.store.alerts[record.StoreID] = append(r.store.alerts[record.StoreID], &cp)
	return nil
}

func (r *AlertRepo) ListRecent(ctx context.Context, storeID domain.StoreID, limit int) ([]*domain.AlertRecord, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	records := r.store.alerts[storeID]
	out := make([]*domain.AlertRecord, 0, len(records))
	for _, rec := range records {
		cp := *rec
		out = append(out, &cp)
	}

	sort.Slice(out, func(i, j int) bool { return out[i].SentAt.After(out[j].SentAt) })

	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *AlertRepo) DeleteOlderThan(ctx context.Context, storeID domain.StoreID, date string) (int64, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	kept := r.store.alerts[storeID][:0]
	var removed int64
	for _, rec := range r.store.alerts[storeID] {
		if rec.Date < date {
			removed++
			continue
		}
		kept = append(kept, rec)
	}
	r.store.alerts[storeID] = kept
	return removed, nil
}
