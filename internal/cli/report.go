package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/vaama/inventorypacer/internal/core/config"
	"github.com/vaama/inventorypacer/internal/core/domain"
	"github.com/vaama/inventorypacer/internal/core/mix"
	"github.com/vaama/inventorypacer/internal/infra/storage/postgres"
	"github.com/vaama/inventorypacer/internal/tracking/report"
)

var (
	reportStore string
	reportDate  string
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Regenerate the CSV report for a stored snapshot",
	Run:   runReport,
}

func init() {
	reportCmd.Flags().StringVar(&reportStore, "store", "", "store ID (required)")
	reportCmd.Flags().StringVar(&reportDate, "date", "", "snapshot date, 2006-01-02 (default: today)")
	_ = reportCmd.MarkFlagRequired("store")
	rootCmd.AddCommand(reportCmd)
}

func runReport(cmd *cobra.Command, args []string) {
	cfg, err := loadConfig()
	if err != nil {
		slog.Error("Failed to load config", "error", err)
		os.Exit(1)
	}
	if cfg.Database.URL == "" {
		slog.Error("report requires a database; memory storage has no history")
		os.Exit(1)
	}

	storeID := domain.StoreID(reportStore)
	var storeCfg *config.StoreConfig
	for i := range cfg.Stores {
		if cfg.Stores[i].ID == storeID {
			storeCfg = &cfg.Stores[i]
			break
		}
	}
	if storeCfg == nil {
		slog.Error("Unknown store", "store", reportStore)
		os.Exit(1)
	}

	date := reportDate
	if date == "" {
		date = time.Now().UTC().Format(domain.DateFormat)
	}

	ctx := context.Background()
	db, err := postgres.NewDB(ctx, cfg.Database)
	if err != nil {
		slog.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer func() {
		_ = db.Close()
	}()

	snap, err := postgres.NewSnapshotRepo(db).GetByDate(ctx, storeID, date)
	if err != nil {
		slog.Error("Failed to load snapshot", "store", storeID, "date", date, "error", err)
		os.Exit(1)
	}

	rep, err := mix.Analyze(storeID, date, snap.Counts, storeCfg.TargetMix())
	if err != nil {
		slog.Error("Failed to analyze snapshot", "error", err)
		os.Exit(1)
	}
	tolerance := storeCfg.Tolerance
	if tolerance <= 0 {
		tolerance = mix.DefaultTolerance
	}
	rep.Balanced = mix.Balanced(rep, tolerance)

	writer := report.NewWriter(cfg.Reports.Dir)
	path, err := writer.Write(snap, rep, mix.Recommendations(rep))
	if err != nil {
		slog.Error("Failed to write report", "error", err)
		os.Exit(1)
	}
	fmt.Println(path)
}
