package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"

	"github.com/vaama/inventorypacer/internal/core/domain"
	"github.com/vaama/inventorypacer/internal/infra/storage"
)

func newMockDB(t *testing.T) (*DB, sqlmock.Sqlmock) {
	t.Helper()
	raw, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to open sqlmock: %v", err)
	}
	t.Cleanup(func() { raw.Close() })
	return &DB{DB: sqlx.NewDb(raw, "pgx")}, mock
}

func mustJSON(t *testing.T, v any) []byte {
	t.Helper()
	data, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	return data
}

func TestSnapshotRepo_Upsert(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewSnapshotRepo(db)

	snap := &domain.Snapshot{
		StoreID: "vaama",
		Date:    "2026-08-30",
		Counts:  domain.Counts{"rings": 12, "pendants": 8},
		TakenAt: time.Now(),
	}

	t.Run("written", func(t *testing.T) {
		mock.ExpectExec("INSERT INTO snapshots").
			WithArgs("vaama", "2026-08-30", sqlmock.AnyArg(), sqlmock.AnyArg()).
			WillReturnResult(sqlmock.NewResult(0, 1))

		written, err := repo.Upsert(context.Background(), snap)
		if err != nil {
			t.Fatalf("Upsert failed: %v", err)
		}
		if !written {
			t.Error("expected written=true")
		}
	})

	t.Run("unchanged", func(t *testing.T) {
		// Conditional update matched nothing: counts identical.
		mock.ExpectExec("INSERT INTO snapshots").
			WithArgs("vaama", "2026-08-30", sqlmock.AnyArg(), sqlmock.AnyArg()).
			WillReturnResult(sqlmock.NewResult(0, 0))

		written, err := repo.Upsert(context.Background(), snap)
		if err != nil {
			t.Fatalf("Upsert failed: %v", err)
		}
		if written {
			t.Error("expected written=false for unchanged counts")
		}
	})

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestSnapshotRepo_GetByDate(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewSnapshotRepo(db)

	counts := domain.Counts{"rings": 12, "pendants": 8}
	takenAt := time.Now()

	t.Run("found", func(t *testing.T) {
		rows := sqlmock.NewRows([]string{"store_id", "snapshot_date", "counts", "taken_at"}).
			AddRow("vaama", "2026-08-30", mustJSON(t, counts), takenAt)

		mock.ExpectQuery("SELECT (.+) FROM snapshots").
			WithArgs("vaama", "2026-08-30").
			WillReturnRows(rows)

		snap, err := repo.GetByDate(context.Background(), "vaama", "2026-08-30")
		if err != nil {
			t.Fatalf("GetByDate failed: %v", err)
		}
		if snap.Counts["rings"] != 12 {
			t.Errorf("rings = %d, want 12", snap.Counts["rings"])
		}
		if snap.Total() != 20 {
			t.Errorf("Total = %d, want 20", snap.Total())
		}
	})

	t.Run("not found", func(t *testing.T) {
		mock.ExpectQuery("SELECT (.+) FROM snapshots").
			WithArgs("vaama", "2026-01-01").
			WillReturnError(sql.ErrNoRows)

		_, err := repo.GetByDate(context.Background(), "vaama", "2026-01-01")
		if err != storage.ErrSnapshotNotFound {
			t.Errorf("expected ErrSnapshotNotFound, got %v", err)
		}
	})
}

func TestSnapshotRepo_List(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewSnapshotRepo(db)

	rows := sqlmock.NewRows([]string{"store_id", "snapshot_date", "counts", "taken_at"}).
		AddRow("vaama", "2026-08-30", mustJSON(t, domain.Counts{"rings": 2}), time.Now()).
		AddRow("vaama", "2026-08-29", mustJSON(t, domain.Counts{"rings": 1}), time.Now())

	mock.ExpectQuery("SELECT (.+) FROM snapshots").
		WithArgs("vaama", 2).
		WillReturnRows(rows)

	list, err := repo.List(context.Background(), "vaama", 2)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("len = %d, want 2", len(list))
	}
	if list[0].Date != "2026-08-30" {
		t.Errorf("first date = %s, want 2026-08-30", list[0].Date)
	}
}

func TestSnapshotRepo_DeleteOlderThan(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewSnapshotRepo(db)

	mock.ExpectExec("DELETE FROM snapshots").
		WithArgs("vaama", "2026-08-01").
		WillReturnResult(sqlmock.NewResult(0, 3))

	removed, err := repo.DeleteOlderThan(context.Background(), "vaama", "2026-08-01")
	if err != nil {
		t.Fatalf("DeleteOlderThan failed: %v", err)
	}
	if removed != 3 {
		t.Errorf("removed = %d, want 3", removed)
	}
}

func TestAlertRepo_RecordAndList(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewAlertRepo(db)

	rec := &domain.AlertRecord{
		ID:         "3f6f9f2e-0000-0000-0000-000000000001",
		StoreID:    "vaama",
		Date:       "2026-08-30",
		Categories: []string{"pendants", "bracelets"},
		Message:    "mix deviates from target",
		Channels:   []string{"email"},
		SentAt:     time.Now(),
	}

	mock.ExpectExec("INSERT INTO alerts").
		WithArgs(rec.ID, "vaama", rec.Date, sqlmock.AnyArg(), rec.Message, sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := repo.Record(context.Background(), rec); err != nil {
		t.Fatalf("Record failed: %v", err)
	}

	rows := sqlmock.NewRows([]string{"id", "store_id", "alert_date", "categories", "message", "channels", "sent_at"}).
		AddRow(rec.ID, "vaama", rec.Date, mustJSON(t, rec.Categories), rec.Message, mustJSON(t, rec.Channels), rec.SentAt)

	mock.ExpectQuery("SELECT (.+) FROM alerts").
		WithArgs("vaama", 10).
		WillReturnRows(rows)

	list, err := repo.ListRecent(context.Background(), "vaama", 10)
	if err != nil {
		t.Fatalf("ListRecent failed: %v", err)
	}
	if len(list) != 1 {
		t.Fatalf("len = %d, want 1", len(list))
	}
	if len(list[0].Categories) != 2 || list[0].Categories[0] != "pendants" {
		t.Errorf("categories = %v", list[0].Categories)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}
