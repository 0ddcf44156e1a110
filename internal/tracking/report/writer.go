package report

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/vaama/inventorypacer/internal/core/domain"
)

// Writer produces daily CSV reports on local disk, one directory per date.
type Writer struct {
	dir string
}

// NewWriter creates a report writer rooted at dir.
func NewWriter(dir string) *Writer {
	return &Writer{dir: dir}
}

// Write renders the snapshot and its analysis to a CSV file and returns the
// file path. Files land under <dir>/<date>/shopify_products_<date>_<hh-mm-ss>.csv.
func (w *Writer) Write(
	snapshot *domain.Snapshot,
	report *domain.MixReport,
	recommendations []string,
) (string, error) {
	dayDir := filepath.Join(w.dir, snapshot.Date)
	if err := os.MkdirAll(dayDir, 0o755); err != nil {
		return "", fmt.Errorf("create report dir: %w", err)
	}

	name := fmt.Sprintf("shopify_products_%s_%s.csv", snapshot.Date, time.Now().Format("15-04-05"))
	path := filepath.Join(dayDir, name)

	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create report file: %w", err)
	}
	defer f.Close()

	cw := csv.NewWriter(f)
	if err := writeRows(cw, snapshot, report, recommendations); err != nil {
		return "", err
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return "", fmt.Errorf("write report: %w", err)
	}
	return path, nil
}

func writeRows(
	cw *csv.Writer,
	snapshot *domain.Snapshot,
	report *domain.MixReport,
	recommendations []string,
) error {
	cats := make([]domain.Category, 0, len(snapshot.Counts))
	for cat := range snapshot.Counts {
		cats = append(cats, cat)
	}
	sort.Slice(cats, func(i, j int) bool { return cats[i] < cats[j] })

	header := []string{"Date"}
	for _, cat := range cats {
		header = append(header, string(cat))
	}
	header = append(header, "Total")
	if err := cw.Write(header); err != nil {
		return err
	}

	row := []string{snapshot.Date}
	for _, cat := range cats {
		row = append(row, strconv.Itoa(snapshot.Counts[cat]))
	}
	row = append(row, strconv.Itoa(snapshot.Counts.Total()))
	if err := cw.Write(row); err != nil {
		return err
	}

	if report == nil || len(report.Entries) == 0 {
		return nil
	}

	// Analysis section
	if err := cw.Write([]string{""}); err != nil {
		return err
	}
	if err := cw.Write([]string{"Category", "Current", "Current %", "Target %", "Required", "Uploads needed"}); err != nil {
		return err
	}
	for _, e := range report.Entries {
		rec := []string{
			string(e.Category),
			strconv.Itoa(e.Current),
			strconv.FormatFloat(e.CurrentPercent, 'f', 1, 64),
			strconv.FormatFloat(e.TargetPercent, 'f', 1, 64),
			strconv.FormatFloat(e.Required, 'f', 2, 64),
			strconv.Itoa(e.UploadsNeeded),
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}

	if len(recommendations) > 0 {
		if err := cw.Write([]string{""}); err != nil {
			return err
		}
		for _, r := range recommendations {
			if err := cw.Write([]string{r}); err != nil {
				return err
			}
		}
	}
	return nil
}
