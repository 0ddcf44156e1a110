package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/vaama/inventorypacer/internal/control"
	"github.com/vaama/inventorypacer/internal/core/domain"
)

var checkStore string

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Run a single scan and print the mix analysis",
	Run:   runCheck,
}

func init() {
	checkCmd.Flags().StringVar(&checkStore, "store", "", "store ID (default: all configured stores)")
	rootCmd.AddCommand(checkCmd)
}

func runCheck(cmd *cobra.Command, args []string) {
	cfg, err := loadConfig()
	if err != nil {
		slog.Error("Failed to load config", "error", err)
		os.Exit(1)
	}

	ctx := context.Background()
	app, err := control.NewPacer(ctx, cfg)
	if err != nil {
		slog.Error("Failed to initialize Pacer", "error", err)
		os.Exit(1)
	}
	defer func() {
		_ = app.Stop(ctx)
	}()

	stores := app.Stores()
	if checkStore != "" {
		stores = []domain.StoreID{domain.StoreID(checkStore)}
	}

	failed := false
	for _, id := range stores {
		report, recommendations, err := app.RunOnce(ctx, id)
		if err != nil {
			slog.Error("Scan failed", "store", id, "error", err)
			failed = true
			continue
		}
		printReport(report, recommendations)
	}
	if failed {
		os.Exit(1)
	}
}

func printReport(report *domain.MixReport, recommendations []string) {
	fmt.Printf("Store %s, %s: %d products\n", report.StoreID, report.Date, report.Total)

	if report.Balanced {
		fmt.Println("Mix is on target.")
		return
	}
	if len(report.Entries) == 0 {
		fmt.Println("No products found.")
		return
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', tabwriter.Debug)
	fmt.Fprintln(w, "CATEGORY\tCURRENT\tCURRENT %\tTARGET %\tUPLOADS NEEDED")
	for _, e := range report.Entries {
		fmt.Fprintf(w, "%s\t%d\t%.1f\t%.1f\t%d\n",
			e.Category, e.Current, e.CurrentPercent, e.TargetPercent, e.UploadsNeeded)
	}
	w.Flush()

	fmt.Println()
	for _, r := range recommendations {
		fmt.Println("-", r)
	}
}
