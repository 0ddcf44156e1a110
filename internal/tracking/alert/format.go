package alert

import (
	"fmt"
	"html"
	"strings"

	"github.com/google/uuid"

	"github.com/vaama/inventorypacer/internal/core/domain"
)

// Build assembles an alert for an out-of-balance report. Subject and body are
// prepared once here so every channel delivers the same content.
func Build(store domain.Store, report *domain.MixReport, recommendations []string) *domain.Alert {
	return &domain.Alert{
		ID:              uuid.NewString(),
		StoreID:         store.ID,
		Date:            report.Date,
		Subject:         fmt.Sprintf("Inventory mix alert: %s (%s)", store.Name, report.Date),
		Body:            htmlBody(store, report, recommendations),
		Report:          report,
		Recommendations: recommendations,
	}
}

func htmlBody(store domain.Store, report *domain.MixReport, recommendations []string) string {
	var b strings.Builder

	fmt.Fprintf(&b, "<html><body>")
	fmt.Fprintf(&b, "<h2>Inventory mix report for %s</h2>", html.EscapeString(store.Name))
	fmt.Fprintf(&b, "<p>Date: %s<br>Total products: %d</p>", report.Date, report.Total)

	b.WriteString(`<table border="1" cellpadding="5" cellspacing="0">`)
	b.WriteString("<tr><th>Category</th><th>Current</th><th>Current %</th><th>Target %</th><th>Required</th><th>Uploads needed</th></tr>")
	for _, e := range report.Entries {
		fmt.Fprintf(&b, "<tr><td>%s</td><td>%d</td><td>%.1f%%</td><td>%.1f%%</td><td>%.2f</td><td>%d</td></tr>",
			html.EscapeString(string(e.Category)), e.Current, e.CurrentPercent, e.TargetPercent, e.Required, e.UploadsNeeded)
	}
	b.WriteString("</table>")

	if len(recommendations) > 0 {
		b.WriteString("<h3>Recommendations</h3><ul>")
		for _, r := range recommendations {
			fmt.Fprintf(&b, "<li>%s</li>", html.EscapeString(r))
		}
		b.WriteString("</ul>")
	}

	b.WriteString("</body></html>")
	return b.String()
}

// textSummary renders a plain-text version for chat channels, with the
// summary table in a code block.
func textSummary(alert *domain.Alert) string {
	var b strings.Builder
	fmt.Fprintf(&b, "*%s*\n", alert.Subject)

	if alert.Report != nil && len(alert.Report.Entries) > 0 {
		fmt.Fprintf(&b, "Total products: %d\n```\n", alert.Report.Total)
		fmt.Fprintf(&b, "%-12s %8s %10s %9s %8s\n", "category", "current", "current %", "target %", "uploads")
		for _, e := range alert.Report.Entries {
			fmt.Fprintf(&b, "%-12s %8d %9.1f%% %8.1f%% %8d\n",
				e.Category, e.Current, e.CurrentPercent, e.TargetPercent, e.UploadsNeeded)
		}
		b.WriteString("```\n")
	}

	for _, r := range alert.Recommendations {
		fmt.Fprintf(&b, "• %s\n", r)
	}
	return strings.TrimRight(b.String(), "\n")
}
