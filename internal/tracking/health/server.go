package health

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/vaama/inventorypacer/internal/core/config"
	"github.com/vaama/inventorypacer/internal/core/domain"
	"github.com/vaama/inventorypacer/internal/core/mix"
	"github.com/vaama/inventorypacer/internal/infra/storage"
)

const defaultListLimit = 30

// CountsReader serves the latest cached category counts for a store.
// *redis.Client satisfies this; nil disables the cache path.
type CountsReader interface {
	GetCachedCounts(ctx context.Context, storeID domain.StoreID) (domain.Counts, bool, error)
}

// Pinger reports database liveness for the detailed health view.
type Pinger interface {
	Health(ctx context.Context) error
}

// Server provides HTTP endpoints for health monitoring and the dashboard API.
type Server struct {
	monitor   *Monitor
	stores    []config.StoreConfig
	snapshots storage.SnapshotRepository
	alerts    storage.AlertRepository
	counts    CountsReader
	db        Pinger
	server    *http.Server
}

// NewServer creates a new health and API server. counts and db may be nil.
func NewServer(
	monitor *Monitor,
	stores []config.StoreConfig,
	snapshots storage.SnapshotRepository,
	alerts storage.AlertRepository,
	counts CountsReader,
	db Pinger,
	port int,
) *Server {
	mux := http.NewServeMux()
	s := &Server{
		monitor:   monitor,
		stores:    stores,
		snapshots: snapshots,
		alerts:    alerts,
		counts:    counts,
		db:        db,
		server: &http.Server{
			Addr:    fmt.Sprintf(":%d", port),
			Handler: mux,
		},
	}

	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/health/detailed", s.handleDetailed)
	mux.Handle("/metrics", promhttp.Handler())

	mux.HandleFunc("GET /api/v1/stores", s.handleStores)
	mux.HandleFunc("GET /api/v1/snapshots", s.handleSnapshots)
	mux.HandleFunc("GET /api/v1/snapshots/{date}", s.handleSnapshotByDate)
	mux.HandleFunc("GET /api/v1/counts", s.handleCounts)
	mux.HandleFunc("GET /api/v1/analysis", s.handleAnalysis)
	mux.HandleFunc("GET /api/v1/alerts", s.handleAlerts)

	return s
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	return s.server.ListenAndServe()
}

// Stop stops the HTTP server.
func (s *Server) Stop(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

// Handler exposes the mux for tests.
func (s *Server) Handler() http.Handler {
	return s.server.Handler
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	report := s.monitor.CheckHealth(r.Context())
	status := Aggregate(report)

	w.Header().Set("Content-Type", "application/json")
	if status == StatusCritical {
		w.WriteHeader(http.StatusServiceUnavailable)
	} else {
		w.WriteHeader(http.StatusOK)
	}
	json.NewEncoder(w).Encode(map[string]string{"status": string(status)})
}

func (s *Server) handleDetailed(w http.ResponseWriter, r *http.Request) {
	stores := s.monitor.CheckHealth(r.Context())
	report := HealthReport{
		SystemStatus: Aggregate(stores),
		Stores:       stores,
	}
	if s.db != nil {
		if err := s.db.Health(r.Context()); err != nil {
			report.Database = err.Error()
		} else {
			report.Database = "ok"
		}
	}
	writeJSON(w, http.StatusOK, report)
}

func (s *Server) handleStores(w http.ResponseWriter, r *http.Request) {
	out := make([]domain.Store, 0, len(s.stores))
	for _, sc := range s.stores {
		out = append(out, sc.Store())
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleSnapshots(w http.ResponseWriter, r *http.Request) {
	store, ok := s.storeFromQuery(w, r)
	if !ok {
		return
	}

	limit := defaultListLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = n
	}

	snaps, err := s.snapshots.List(r.Context(), store.ID, limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list snapshots")
		return
	}
	writeJSON(w, http.StatusOK, snaps)
}

func (s *Server) handleSnapshotByDate(w http.ResponseWriter, r *http.Request) {
	store, ok := s.storeFromQuery(w, r)
	if !ok {
		return
	}

	date := r.PathValue("date")
	snap, err := s.snapshots.GetByDate(r.Context(), store.ID, date)
	if errors.Is(err, storage.ErrSnapshotNotFound) {
		writeError(w, http.StatusNotFound, "no snapshot for date")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load snapshot")
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

type countsResponse struct {
	StoreID string        `json:"store_id"`
	Date    string        `json:"date,omitempty"`
	Counts  domain.Counts `json:"counts"`
	Source  string        `json:"source"`
}

// handleCounts serves the latest category counts. The Redis cache wins when
// populated; otherwise the newest snapshot backs the response.
func (s *Server) handleCounts(w http.ResponseWriter, r *http.Request) {
	store, ok := s.storeFromQuery(w, r)
	if !ok {
		return
	}

	if s.counts != nil {
		counts, found, err := s.counts.GetCachedCounts(r.Context(), store.ID)
		if err == nil && found {
			writeJSON(w, http.StatusOK, countsResponse{
				StoreID: string(store.ID),
				Counts:  counts,
				Source:  "cache",
			})
			return
		}
	}

	snap, err := s.snapshots.Latest(r.Context(), store.ID)
	if errors.Is(err, storage.ErrSnapshotNotFound) {
		writeError(w, http.StatusNotFound, "no counts available")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load snapshot")
		return
	}
	writeJSON(w, http.StatusOK, countsResponse{
		StoreID: string(store.ID),
		Date:    snap.Date,
		Counts:  snap.Counts,
		Source:  "snapshot",
	})
}

type analysisResponse struct {
	Report          *domain.MixReport `json:"report"`
	Recommendations []string          `json:"recommendations"`
}

func (s *Server) handleAnalysis(w http.ResponseWriter, r *http.Request) {
	store, ok := s.storeFromQuery(w, r)
	if !ok {
		return
	}

	var snap *domain.Snapshot
	var err error
	if date := r.URL.Query().Get("date"); date != "" {
		snap, err = s.snapshots.GetByDate(r.Context(), store.ID, date)
	} else {
		snap, err = s.snapshots.Latest(r.Context(), store.ID)
	}
	if errors.Is(err, storage.ErrSnapshotNotFound) {
		writeError(w, http.StatusNotFound, "no snapshot available")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load snapshot")
		return
	}

	report, err := mix.Analyze(store.ID, snap.Date, snap.Counts, store.TargetMix())
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	tolerance := store.Tolerance
	if tolerance <= 0 {
		tolerance = mix.DefaultTolerance
	}
	report.Balanced = mix.Balanced(report, tolerance)

	writeJSON(w, http.StatusOK, analysisResponse{
		Report:          report,
		Recommendations: mix.Recommendations(report),
	})
}

func (s *Server) handleAlerts(w http.ResponseWriter, r *http.Request) {
	store, ok := s.storeFromQuery(w, r)
	if !ok {
		return
	}

	limit := defaultListLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = n
	}

	records, err := s.alerts.ListRecent(r.Context(), store.ID, limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list alerts")
		return
	}
	writeJSON(w, http.StatusOK, records)
}

// storeFromQuery resolves the ?store= parameter. With a single configured
// store the parameter may be omitted.
func (s *Server) storeFromQuery(w http.ResponseWriter, r *http.Request) (config.StoreConfig, bool) {
	id := r.URL.Query().Get("store")
	if id == "" {
		if len(s.stores) == 1 {
			return s.stores[0], true
		}
		writeError(w, http.StatusBadRequest, "store parameter is required")
		return config.StoreConfig{}, false
	}
	for _, sc := range s.stores {
		if string(sc.ID) == id {
			return sc, true
		}
	}
	writeError(w, http.StatusNotFound, "unknown store")
	return config.StoreConfig{}, false
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
