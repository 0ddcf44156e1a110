// Package mix analyzes observed category counts against a target mix.
//
// The target mix is a percentage allocation of the catalog, e.g.
// rings 40%, pendants 25%, earrings 20%, bracelets 15%. For a catalog
// of N products, each category's required count is target/100 * N.
// Categories sitting below their required count produce an "uploads
// needed" figure; categories at or above target never do. A report is
// balanced when every below-target category is within tolerance
// (percentage points) of its target.
package mix

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/vaama/inventorypacer/internal/core/domain"
)

// DefaultTolerance is the allowed deviation, in percentage points,
// before a below-target category counts as unbalanced.
const DefaultTolerance = 5.0

var (
	// ErrEmptyCatalog is returned when there are no products to analyze.
	ErrEmptyCatalog = errors.New("no products available for analysis")

	// ErrNoTargets is returned when the target mix has no categories.
	ErrNoTargets = errors.New("target mix is empty")
)

// ValidateTargets checks that target percentages sum to 100.
// A drift above 0.1 points is reported as an error the caller may
// choose to log and continue with.
func ValidateTargets(targets domain.TargetMix) error {
	if len(targets) == 0 {
		return ErrNoTargets
	}
	if sum := targets.Sum(); math.Abs(sum-100) > 0.1 {
		return fmt.Errorf("target ratios sum to %.1f%%, not 100%%", sum)
	}
	return nil
}

// Analyze computes the per-category position of counts against targets.
// Only below-target categories appear in the report entries; a category
// missing from counts is treated as zero. Unknown categories in counts
// (not present in targets) still contribute to the total.
func Analyze(
	storeID domain.StoreID,
	date string,
	counts domain.Counts,
	targets domain.TargetMix,
) (*domain.MixReport, error) {
	if len(targets) == 0 {
		return nil, ErrNoTargets
	}

	total := counts.Total()
	if total == 0 {
		return nil, ErrEmptyCatalog
	}

	report := &domain.MixReport{
		StoreID: storeID,
		Date:    date,
		Total:   total,
	}

	for cat, targetPct := range targets {
		current := counts[cat]
		required := targetPct / 100 * float64(total)
		deficit := required - float64(current)
		if deficit <= 0 {
			continue
		}

		currentPct := float64(current) / float64(total) * 100
		report.Entries = append(report.Entries, domain.CategoryAnalysis{
			Category:       cat,
			Current:        current,
			CurrentPercent: round1(currentPct),
			TargetPercent:  targetPct,
			Required:       round2(required),
			UploadsNeeded:  int(math.Round(deficit)),
		})
	}

	sort.Slice(report.Entries, func(i, j int) bool {
		return report.Entries[i].Category < report.Entries[j].Category
	})

	report.Balanced = balanced(report.Entries, DefaultTolerance)
	return report, nil
}

// Balanced re-evaluates a report against a custom tolerance.
func Balanced(report *domain.MixReport, tolerance float64) bool {
	if tolerance <= 0 {
		tolerance = DefaultTolerance
	}
	return balanced(report.Entries, tolerance)
}

func balanced(entries []domain.CategoryAnalysis, tolerance float64) bool {
	for _, e := range entries {
		if math.Abs(e.CurrentPercent-e.TargetPercent) > tolerance {
			return false
		}
	}
	return true
}

// Recommendations renders upload suggestions for the report's
// below-target categories.
func Recommendations(report *domain.MixReport) []string {
	var recs []string
	for _, e := range report.Entries {
		if e.UploadsNeeded <= 0 {
			continue
		}
		recs = append(recs, fmt.Sprintf(
			"Upload %d more %s (currently %d, need total %.0f)",
			e.UploadsNeeded, e.Category, e.Current, e.Required,
		))
	}
	return recs
}

func round1(v float64) float64 { return math.Round(v*10) / 10 }
func round2(v float64) float64 { return math.Round(v*100) / 100 }
