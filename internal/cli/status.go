package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/vaama/inventorypacer/internal/infra/storage"
	"github.com/vaama/inventorypacer/internal/infra/storage/postgres"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the latest snapshot for each configured store",
	Run:   runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) {
	cfg, err := loadConfig()
	if err != nil {
		slog.Error("Failed to load config", "error", err)
		os.Exit(1)
	}
	if cfg.Database.URL == "" {
		slog.Error("status requires a database; memory storage has no history")
		os.Exit(1)
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

	snapshots := postgres.NewSnapshotRepo(db)

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', tabwriter.Debug)
	fmt.Fprintln(w, "STORE\tDATE\tTOTAL\tTAKEN AT")

	for _, storeCfg := range cfg.Stores {
		snap, err := snapshots.Latest(ctx, storeCfg.ID)
		if errors.Is(err, storage.ErrSnapshotNotFound) {
			fmt.Fprintf(w, "%s\t-\t-\t-\n", storeCfg.ID)
			continue
		}
		if err != nil {
			slog.Error("Failed to load snapshot", "store", storeCfg.ID, "error", err)
			continue
		}
		fmt.Fprintf(w, "%s\t%s\t%d\t%s\n",
			snap.StoreID, snap.Date, snap.Counts.Total(), snap.TakenAt.Format("2006-01-02 15:04:05"))
	}
	w.Flush()
}
