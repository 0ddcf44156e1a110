package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/vaama/inventorypacer/internal/core/domain"
	"github.com/vaama/inventorypacer/internal/infra/storage"
)

// SnapshotRepo implements storage.SnapshotRepository using PostgreSQL.
type SnapshotRepo struct {
	db *DB
}

// NewSnapshotRepo creates a new PostgreSQL snapshot repository.
func NewSnapshotRepo(db *DB) *SnapshotRepo {
	return &SnapshotRepo{db: db}
}

type snapshotRow struct {
	StoreID string    `db:"store_id"`
	Date    string    `db:"snapshot_date"`
	Counts  []byte    `db:"counts"`
	TakenAt time.Time `db:"taken_at"`
}

func (r snapshotRow) toDomain() (*domain.Snapshot, error) {
	var counts domain.Counts
	if err := json.Unmarshal(r.Counts, &counts); err != nil {
		return nil, fmt.Errorf("failed to decode counts: %w", err)
	}
	return &domain.Snapshot{
		StoreID: domain.StoreID(r.StoreID),
		Date:    r.Date,
		Counts:  counts,
		TakenAt: r.TakenAt,
	}, nil
}

// Upsert inserts or updates the row for (store, date). The update only
// fires when the stored counts differ, so unchanged re-runs are no-ops.
func (r *SnapshotRepo) Upsert(ctx context.Context, snapshot *domain.Snapshot) (bool, error) {
	counts, err := json.Marshal(snapshot.Counts)
	if err != nil {
		return false, fmt.Errorf("failed to encode counts: %w", err)
	}

	res, err := r.db.ExecContext(ctx, `
		INSERT INTO snapshots (store_id, snapshot_date, counts, taken_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (store_id, snapshot_date)
		DO UPDATE SET counts = EXCLUDED.counts, taken_at = EXCLUDED.taken_at
		WHERE snapshots.counts IS DISTINCT FROM EXCLUDED.counts`,
		string(snapshot.StoreID), snapshot.Date, counts, snapshot.TakenAt,
	)
	if err != nil {
		return false, fmt.Errorf("failed to upsert snapshot: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read rows affected: %w", err)
	}
	return affected > 0, nil
}

// GetByDate retrieves the snapshot for a specific date.
func (r *SnapshotRepo) GetByDate(ctx context.Context, storeID domain.StoreID, date string) (*domain.Snapshot, error) {
	var row snapshotRow
	err := r.db.GetContext(ctx, &row, `
		SELECT store_id, to_char(snapshot_date, 'YYYY-MM-DD') AS snapshot_date, counts, taken_at
		FROM snapshots
		WHERE store_id = $1 AND snapshot_date = $2`,
		string(storeID), date,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.ErrSnapshotNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get snapshot: %w", err)
	}
	return row.toDomain()
}

// Latest retrieves the most recent snapshot for a store.
func (r *SnapshotRepo) Latest(ctx context.Context, storeID domain.StoreID) (*domain.Snapshot, error) {
	var row snapshotRow
	err := r.db.GetContext(ctx, &row, `
		SELECT store_id, to_char(snapshot_date, 'YYYY-MM-DD') AS snapshot_date, counts, taken_at
		FROM snapshots
		WHERE store_id = $1
		ORDER BY snapshot_date DESC
		LIMIT 1`,
		string(storeID),
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.ErrSnapshotNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get latest snapshot: %w", err)
	}
	return row.toDomain()
}

// List retrieves snapshots for a store, newest first.
func (r *SnapshotRepo) List(ctx context.Context, storeID domain.StoreID, limit int) ([]*domain.Snapshot, error) {
	query := `
		SELECT store_id, to_char(snapshot_date, 'YYYY-MM-DD') AS snapshot_date, counts, taken_at
		FROM snapshots
		WHERE store_id = $1
		ORDER BY snapshot_date DESC`
	args := []any{string(storeID)}
	if limit > 0 {
		query += ` LIMIT $2`
		args = append(args, limit)
	}

	var rows []snapshotRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list snapshots: %w", err)
	}

	out := make([]*domain.Snapshot, 0, len(rows))
	for _, row := range rows {
		s, err := row.toDomain()
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}

// DeleteOlderThan removes snapshots older than the given date.
func (r *SnapshotRepo) DeleteOlderThan(ctx context.Context, storeID domain.StoreID, date string) (int64, error) {
	res, err := r.db.ExecContext(ctx, `
		DELETE FROM snapshots
		WHERE store_id = $1 AND snapshot_date < $2`,
		string(storeID), date,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to delete snapshots: %w", err)
	}
	return res.RowsAffected()
}
