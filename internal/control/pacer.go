// Package control wires the application together and manages its lifecycle.
package control

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/vaama/inventorypacer/internal/core/config"
	"github.com/vaama/inventorypacer/internal/core/domain"
	"github.com/vaama/inventorypacer/internal/core/mix"
	"github.com/vaama/inventorypacer/internal/core/worker"
	redisclient "github.com/vaama/inventorypacer/internal/infra/redis"
	"github.com/vaama/inventorypacer/internal/infra/shopify"
	"github.com/vaama/inventorypacer/internal/infra/storage"
	"github.com/vaama/inventorypacer/internal/infra/storage/memory"
	"github.com/vaama/inventorypacer/internal/infra/storage/postgres"
	"github.com/vaama/inventorypacer/internal/tracking/alert"
	"github.com/vaama/inventorypacer/internal/tracking/health"
	"github.com/vaama/inventorypacer/internal/tracking/report"
	"github.com/vaama/inventorypacer/internal/tracking/tracker"
)

// Pacer is the main application struct that manages the tracker lifecycle.
type Pacer struct {
	cfg          *config.AppConfig
	trackers     map[domain.StoreID]*tracker.Tracker
	pruners      []*worker.Pruner
	healthMon    *health.Monitor
	healthServer *health.Server
	snapshots    storage.SnapshotRepository
	alerts       storage.AlertRepository
	db           *postgres.DB
	redisClient  *redisclient.Client
	log          *slog.Logger
}

// NewPacer creates a Pacer with all dependencies initialized.
func NewPacer(ctx context.Context, cfg *config.AppConfig) (*Pacer, error) {
	log := slog.Default()

	// 1. Storage
	var snapshots storage.SnapshotRepository
	var alerts storage.AlertRepository
	var db *postgres.DB

	if cfg.Database.URL != "" {
		var err error
		db, err = postgres.NewDB(ctx, cfg.Database)
		if err != nil {
			return nil, fmt.Errorf("failed to init db: %w", err)
		}
		if err := db.Migrate("migrations"); err != nil {
			return nil, fmt.Errorf("failed to migrate db: %w", err)
		}
		snapshots = postgres.NewSnapshotRepo(db)
		alerts = postgres.NewAlertRepo(db)
		log.Info("Using PostgreSQL storage")
	} else {
		store := memory.NewMemoryStorage()
		snapshots = memory.NewSnapshotRepo(store)
		alerts = memory.NewAlertRepo(store)
		log.Info("Using Memory storage")
	}

	// 2. Redis (optional; run locks, debounce, counts cache)
	var redisClient *redisclient.Client
	if cfg.Redis.URL != "" {
		var err error
		redisClient, err = redisclient.NewClient(cfg.Redis)
		if err != nil {
			log.Warn("Failed to connect to Redis, coordination disabled", "error", err)
			redisClient = nil
		}
	}

	// 3. Alert channels
	var channels []alert.Channel
	if cfg.Alerts.Email.Enabled {
		channels = append(channels, alert.NewEmailChannel(cfg.Alerts.Email))
		log.Info("Email alerts enabled", "to", cfg.Alerts.Email.To)
	}
	if cfg.Alerts.Slack.Enabled {
		channels = append(channels, alert.NewSlackChannel(cfg.Alerts.Slack))
		log.Info("Slack alerts enabled", "channel", cfg.Alerts.Slack.Channel)
	}

	var dispatcher *alert.Dispatcher
	if len(channels) > 0 {
		var debouncer alert.Debouncer
		if redisClient != nil {
			debouncer = redisClient
		}
		dispatcher = alert.NewDispatcher(channels, alerts, debouncer, cfg.Alerts.DebounceTTL, log)
	}

	// 4. Reports
	var writer *report.Writer
	if cfg.Reports.Dir != "" {
		writer = report.NewWriter(cfg.Reports.Dir)
	}
	var archive *report.Archive
	if cfg.Reports.Archive.Enabled {
		var err error
		archive, err = report.NewArchive(cfg.Reports.Archive)
		if err != nil {
			return nil, fmt.Errorf("failed to init report archive: %w", err)
		}
		log.Info("Report archive enabled", "bucket", cfg.Reports.Archive.Bucket)
	}

	// 5. Health monitor; trackers report scan outcomes through it
	healthMon := health.NewMonitor(cfg.Stores, snapshots)

	// 6. Trackers
	trackers := make(map[domain.StoreID]*tracker.Tracker, len(cfg.Stores))
	var pruners []*worker.Pruner
	for _, storeCfg := range cfg.Stores {
		if err := mix.ValidateTargets(storeCfg.TargetMix()); err != nil {
			log.Warn("Store target mix is misconfigured", "store", storeCfg.ID, "error", err)
		}

		client := shopify.NewClient(shopify.Config{
			StoreID:     storeCfg.ID,
			Domain:      storeCfg.Domain,
			AccessToken: storeCfg.AccessToken,
		})

		trackerCfg := tracker.Config{
			Store:     storeCfg,
			Fetcher:   client,
			Snapshots: snapshots,
			Monitor:   healthMon,
		}
		if dispatcher != nil {
			trackerCfg.Alerter = dispatcher
		}
		if writer != nil {
			trackerCfg.Reporter = writer
		}
		if archive != nil {
			trackerCfg.Archive = archive
		}
		if redisClient != nil {
			trackerCfg.Locker = redisClient
			trackerCfg.Cache = redisClient
		}

		trackers[storeCfg.ID] = tracker.New(trackerCfg, log)

		if storeCfg.RetentionPeriod > 0 {
			pruners = append(pruners, worker.NewPruner(storeCfg, snapshots, alerts))
		}
	}

	// 7. API server
	var countsReader health.CountsReader
	if redisClient != nil {
		countsReader = redisClient
	}
	var dbPing health.Pinger
	if db != nil {
		dbPing = db
	}
	healthServer := health.NewServer(healthMon, cfg.Stores, snapshots, alerts, countsReader, dbPing, cfg.Server.Port)

	p := &Pacer{
		cfg:          cfg,
		trackers:     trackers,
		pruners:      pruners,
		healthMon:    healthMon,
		healthServer: healthServer,
		snapshots:    snapshots,
		alerts:       alerts,
		db:           db,
		redisClient:  redisClient,
		log:          log,
	}
	return p, nil
}

// Start starts the pacer and all its components.
func (p *Pacer) Start(ctx context.Context) error {
	go func() {
		p.log.Info("API server listening", "port", p.cfg.Server.Port)
		if err := p.healthServer.Start(); err != nil {
			p.log.Error("API server failed", "error", err)
		}
	}()

	if p.db != nil {
		p.db.StartMetricsCollector(ctx)
	}

	for id, tr := range p.trackers {
		p.log.Info("Starting tracker", "store", id)
		go func(id domain.StoreID, tr *tracker.Tracker) {
			if err := tr.Start(ctx); err != nil {
				p.log.Error("Tracker failed", "store", id, "error", err)
			}
		}(id, tr)
	}

	for _, pr := range p.pruners {
		go pr.Start(ctx)
	}

	return nil
}

// Stop stops the pacer.
func (p *Pacer) Stop(ctx context.Context) error {
	p.log.Info("Stopping Pacer...")

	for _, tr := range p.trackers {
		tr.Stop()
	}

	if p.redisClient != nil {
		if err := p.redisClient.Close(); err != nil {
			p.log.Warn("Failed to close Redis", "error", err)
		}
	}
	if p.db != nil {
		if err := p.db.Close(); err != nil {
			p.log.Warn("Failed to close database", "error", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	return p.healthServer.Stop(shutdownCtx)
}

// RunOnce executes a single scan for one store and returns its report and
// recommendations.
func (p *Pacer) RunOnce(ctx context.Context, storeID domain.StoreID) (*domain.MixReport, []string, error) {
	tr, ok := p.trackers[storeID]
	if !ok {
		return nil, nil, fmt.Errorf("unknown store: %s", storeID)
	}
	rep, err := tr.RunOnce(ctx)
	if err != nil {
		return nil, nil, err
	}
	if rep == nil {
		return nil, nil, fmt.Errorf("scan skipped, run lock held elsewhere")
	}
	return rep, mix.Recommendations(rep), nil
}

// Stores returns the configured store IDs.
func (p *Pacer) Stores() []domain.StoreID {
	ids := make([]domain.StoreID, 0, len(p.trackers))
	for id := range p.trackers {
		ids = append(ids, id)
	}
	return ids
}

// Snapshots exposes the snapshot repository for one-shot commands.
func (p *Pacer) Snapshots() storage.SnapshotRepository {
	return p.snapshots
}
