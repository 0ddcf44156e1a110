package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/vaama/inventorypacer/internal/core/domain"
)

// AlertRepo implements storage.AlertRepository using PostgreSQL.
type AlertRepo struct {
	db *DB
}

// NewAlertRepo creates a new PostgreSQL alert repository.
func NewAlertRepo(db *DB) *AlertRepo {
	return &AlertRepo{db: db}
}

type alertRow struct {
	ID         string    `db:"id"`
	StoreID    string    `db:"store_id"`
	Date       string    `db:"alert_date"`
	Categories []byte    `db:"categories"`
	Message    string    `db:"message"`
	Channels   []byte    `db:"channels"`
	SentAt     time.Time `db:"sent_at"`
}

// Record persists a dispatched alert.
func (r *AlertRepo) Record(ctx context.Context, record *domain.AlertRecord) error {
	categories, err := json.Marshal(record.Categories)
	if err != nil {
		return fmt.Errorf("failed to encode categories: %w", err)
	}
	channels, err := json.Marshal(record.Channels)
	if err != nil {
		return fmt.Errorf("failed to encode channels: %w", err)
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO alerts (id, store_id, alert_date, categories, message, channels, sent_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		record.ID, string(record.StoreID), record.Date, categories, record.Message, channels, record.SentAt,
	)
	if err != nil {
		return fmt.Errorf("failed to record alert: %w", err)
	}
	return nil
}

// ListRecent retrieves recent alerts for a store, newest first.
func (r *AlertRepo) ListRecent(ctx context.Context, storeID domain.StoreID, limit int) ([]*domain.AlertRecord, error) {
	query := `
		SELECT id, store_id, to_char(alert_date, 'YYYY-MM-DD') AS alert_date,
		       categories, message, channels, sent_at
		FROM alerts
		WHERE store_id = $1
		ORDER BY sent_at DESC`
	args := []any{string(storeID)}
	if limit > 0 {
		query += ` LIMIT $2`
		args = append(args, limit)
	}

	var rows []alertRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list alerts: %w", err)
	}

	out := make([]*domain.AlertRecord, 0, len(rows))
	for _, row := range rows {
		rec := &domain.AlertRecord{
			ID:      row.ID,
			StoreID: domain.StoreID(row.StoreID),
			Date:    row.Date,
			Message: row.Message,
			SentAt:  row.SentAt,
		}
		if err := json.Unmarshal(row.Categories, &rec.Categories); err != nil {
			return nil, fmt.Errorf("failed to decode categories: %w", err)
		}
		if err := json.Unmarshal(row.Channels, &rec.Channels); err != nil {
			return nil, fmt.Errorf("failed to decode channels: %w", err)
		}
		out = append(out, rec)
	}
	return out, nil
}

// DeleteOlderThan removes alert records older than the given date.
func (r *AlertRepo) DeleteOlderThan(ctx context.Context, storeID domain.StoreID, date string) (int64, error) {
	res, err := r.db.ExecContext(ctx, `
		DELETE FROM alerts
		WHERE store_id = $1 AND alert_date < $2`,
		string(storeID), date,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to delete alerts: %w", err)
	}
	return res.RowsAffected()
}
