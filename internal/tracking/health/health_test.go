package health

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/vaama/inventorypacer/internal/core/config"
	"github.com/vaama/inventorypacer/internal/core/domain"
	"github.com/vaama/inventorypacer/internal/infra/storage/memory"
)

func testStores() []config.StoreConfig {
	return []config.StoreConfig{{
		ID:           "vaama",
		Name:         "Vaama",
		Domain:       "vaama.myshopify.com",
		ScanInterval: time.Hour,
		Targets: map[string]float64{
			"rings":     40,
			"pendants":  25,
			"earrings":  20,
			"bracelets": 15,
		},
	}}
}

func seedSnapshot(t *testing.T, repo *memory.SnapshotRepo, date string, counts domain.Counts) {
	t.Helper()
	snap := domain.NewSnapshot("vaama", date, counts)
	if _, err := repo.Upsert(context.Background(), snap); err != nil {
		t.Fatalf("seed snapshot: %v", err)
	}
}

func TestMonitorHealthyStore(t *testing.T) {
	store := memory.NewMemoryStorage()
	snapshots := memory.NewSnapshotRepo(store)
	seedSnapshot(t, snapshots, "2026-08-30", domain.Counts{"rings": 40, "pendants": 25, "earrings": 20, "bracelets": 15})

	m := NewMonitor(testStores(), snapshots)
	m.RecordSuccess("vaama")

	report := m.CheckHealth(context.Background())
	h, ok := report["vaama"]
	if !ok {
		t.Fatal("missing store in report")
	}
	if h.Status != StatusHealthy {
		t.Errorf("status = %s, want healthy", h.Status)
	}
	if h.LastSnapshotDate != "2026-08-30" {
		t.Errorf("last snapshot = %q", h.LastSnapshotDate)
	}
}

func TestMonitorNoSnapshotIsDegraded(t *testing.T) {
	store := memory.NewMemoryStorage()
	m := NewMonitor(testStores(), memory.NewSnapshotRepo(store))

	report := m.CheckHealth(context.Background())
	if got := report["vaama"].Status; got != StatusDegraded {
		t.Errorf("status = %s, want degraded", got)
	}
}

func TestMonitorConsecutiveFailuresCritical(t *testing.T) {
	store := memory.NewMemoryStorage()
	snapshots := memory.NewSnapshotRepo(store)
	seedSnapshot(t, snapshots, "2026-08-30", domain.Counts{"rings": 10})

	m := NewMonitor(testStores(), snapshots)
	for i := 0; i < criticalFailures; i++ {
		m.RecordFailure("vaama")
	}

	report := m.CheckHealth(context.Background())
	h := report["vaama"]
	if h.Status != StatusCritical {
		t.Errorf("status = %s, want critical", h.Status)
	}
	if h.ConsecutiveFailures != criticalFailures {
		t.Errorf("failures = %d", h.ConsecutiveFailures)
	}
}

func TestMonitorStaleSnapshots(t *testing.T) {
	tests := []struct {
		name string
		age  time.Duration
		want SystemStatus
	}{
		{"fresh", 30 * time.Minute, StatusHealthy},
		{"stale", 3 * time.Hour, StatusDegraded},
		{"very stale", 10 * time.Hour, StatusCritical},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := memory.NewMemoryStorage()
			snapshots := memory.NewSnapshotRepo(store)
			snap := &domain.Snapshot{
				StoreID: "vaama",
				Date:    "2026-08-30",
				Counts:  domain.Counts{"rings": 40, "pendants": 25, "earrings": 20, "bracelets": 15},
				TakenAt: time.Now().UTC().Add(-tt.age),
			}
			if _, err := snapshots.Upsert(context.Background(), snap); err != nil {
				t.Fatalf("seed snapshot: %v", err)
			}

			m := NewMonitor(testStores(), snapshots)
			if got := m.CheckHealth(context.Background())["vaama"].Status; got != tt.want {
				t.Errorf("status = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestMonitorImbalancedReportDegraded(t *testing.T) {
	store := memory.NewMemoryStorage()
	snapshots := memory.NewSnapshotRepo(store)
	seedSnapshot(t, snapshots, "2026-08-30", domain.Counts{"rings": 90, "earrings": 10})

	m := NewMonitor(testStores(), snapshots)
	m.RecordReport(&domain.MixReport{
		StoreID: "vaama",
		Date:    "2026-08-30",
		Total:   100,
		Entries: []domain.CategoryAnalysis{
			{Category: "earrings", Current: 10, CurrentPercent: 10, TargetPercent: 20, Required: 20, UploadsNeeded: 10},
		},
	})

	report := m.CheckHealth(context.Background())
	h := report["vaama"]
	if h.Status != StatusDegraded {
		t.Errorf("status = %s, want degraded", h.Status)
	}
	if h.Balanced {
		t.Error("expected unbalanced")
	}
	if h.MaxDeviation != 10 {
		t.Errorf("max deviation = %v", h.MaxDeviation)
	}
}

func TestAggregate(t *testing.T) {
	tests := []struct {
		name   string
		stores map[string]StoreHealth
		want   SystemStatus
	}{
		{"empty", map[string]StoreHealth{}, StatusHealthy},
		{"all healthy", map[string]StoreHealth{"a": {Status: StatusHealthy}}, StatusHealthy},
		{"one degraded", map[string]StoreHealth{"a": {Status: StatusHealthy}, "b": {Status: StatusDegraded}}, StatusDegraded},
		{"critical wins", map[string]StoreHealth{"a": {Status: StatusDegraded}, "b": {Status: StatusCritical}}, StatusCritical},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Aggregate(tt.stores); got != tt.want {
				t.Errorf("Aggregate() = %s, want %s", got, tt.want)
			}
		})
	}
}

func newTestServer(t *testing.T) (*Server, *memory.SnapshotRepo, *memory.AlertRepo) {
	t.Helper()
	store := memory.NewMemoryStorage()
	snapshots := memory.NewSnapshotRepo(store)
	alerts := memory.NewAlertRepo(store)
	m := NewMonitor(testStores(), snapshots)
	return NewServer(m, testStores(), snapshots, alerts, nil, nil, 0), snapshots, alerts
}

type fakeCountsReader struct {
	counts domain.Counts
	err    error
}

func (f *fakeCountsReader) GetCachedCounts(_ context.Context, _ domain.StoreID) (domain.Counts, bool, error) {
	if f.err != nil {
		return nil, false, f.err
	}
	return f.counts, f.counts != nil, nil
}

type fakePinger struct {
	err error
}

func (f *fakePinger) Health(_ context.Context) error { return f.err }

func TestServerHealthEndpoint(t *testing.T) {
	srv, snapshots, _ := newTestServer(t)
	seedSnapshot(t, snapshots, "2026-08-30", domain.Counts{"rings": 40, "pendants": 25, "earrings": 20, "bracelets": 15})

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var body map[string]string
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["status"] != "healthy" {
		t.Errorf("status = %q", body["status"])
	}
}

func TestServerStores(t *testing.T) {
	srv, _, _ := newTestServer(t)

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/stores", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var stores []domain.Store
	if err := json.NewDecoder(rec.Body).Decode(&stores); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(stores) != 1 || stores[0].ID != "vaama" {
		t.Errorf("stores = %+v", stores)
	}
}

func TestServerSnapshots(t *testing.T) {
	srv, snapshots, _ := newTestServer(t)
	seedSnapshot(t, snapshots, "2026-08-29", domain.Counts{"rings": 9})
	seedSnapshot(t, snapshots, "2026-08-30", domain.Counts{"rings": 10})

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/snapshots?store=vaama&limit=1", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var snaps []domain.Snapshot
	if err := json.NewDecoder(rec.Body).Decode(&snaps); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(snaps) != 1 || snaps[0].Date != "2026-08-30" {
		t.Errorf("snapshots = %+v", snaps)
	}
}

func TestServerSnapshotByDate(t *testing.T) {
	srv, snapshots, _ := newTestServer(t)
	seedSnapshot(t, snapshots, "2026-08-30", domain.Counts{"rings": 10})

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/snapshots/2026-08-30", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/snapshots/2026-01-01", nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("missing date status = %d", rec.Code)
	}
}

func TestServerCounts(t *testing.T) {
	store := memory.NewMemoryStorage()
	snapshots := memory.NewSnapshotRepo(store)
	alerts := memory.NewAlertRepo(store)
	m := NewMonitor(testStores(), snapshots)
	cache := &fakeCountsReader{counts: domain.Counts{"rings": 42, "pendants": 7}}
	srv := NewServer(m, testStores(), snapshots, alerts, cache, nil, 0)

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/counts?store=vaama", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var resp countsResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Source != "cache" {
		t.Errorf("source = %q, want cache", resp.Source)
	}
	if resp.Counts["rings"] != 42 {
		t.Errorf("counts = %v", resp.Counts)
	}
}

func TestServerCountsFallsBackToSnapshot(t *testing.T) {
	srv, snapshots, _ := newTestServer(t)
	seedSnapshot(t, snapshots, "2026-08-30", domain.Counts{"rings": 10})

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/counts", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var resp countsResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Source != "snapshot" || resp.Date != "2026-08-30" {
		t.Errorf("source = %q date = %q", resp.Source, resp.Date)
	}

	rec = httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/counts?store=nope", nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("unknown store status = %d", rec.Code)
	}
}

func TestServerDetailedReportsDatabase(t *testing.T) {
	store := memory.NewMemoryStorage()
	snapshots := memory.NewSnapshotRepo(store)
	alerts := memory.NewAlertRepo(store)
	m := NewMonitor(testStores(), snapshots)
	srv := NewServer(m, testStores(), snapshots, alerts, nil, &fakePinger{}, 0)

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health/detailed", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var report HealthReport
	if err := json.NewDecoder(rec.Body).Decode(&report); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if report.Database != "ok" {
		t.Errorf("database = %q, want ok", report.Database)
	}
}

func TestServerAnalysis(t *testing.T) {
	srv, snapshots, _ := newTestServer(t)
	seedSnapshot(t, snapshots, "2026-08-30", domain.Counts{
		"rings": 50, "pendants": 20, "earrings": 18, "bracelets": 12,
	})

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/analysis?store=vaama", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var resp analysisResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Report == nil || resp.Report.Total != 100 {
		t.Fatalf("report = %+v", resp.Report)
	}
	if len(resp.Report.Entries) != 3 {
		t.Errorf("entries = %d, want 3", len(resp.Report.Entries))
	}
	if len(resp.Recommendations) == 0 {
		t.Error("expected recommendations")
	}
}

func TestServerUnknownStore(t *testing.T) {
	srv, _, _ := newTestServer(t)

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/analysis?store=nope", nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestServerAlerts(t *testing.T) {
	srv, _, alerts := newTestServer(t)
	rec0 := &domain.AlertRecord{
		ID:       "a1",
		StoreID:  "vaama",
		Date:     "2026-08-30",
		Channels: []string{"email"},
		SentAt:   time.Now().UTC(),
	}
	if err := alerts.Record(context.Background(), rec0); err != nil {
		t.Fatalf("record: %v", err)
	}

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/alerts", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var records []domain.AlertRecord
	if err := json.NewDecoder(rec.Body).Decode(&records); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(records) != 1 || records[0].ID != "a1" {
		t.Errorf("records = %+v", records)
	}
}
