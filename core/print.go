package core

import (
	"fmt"

	"github.com/huangsam/liftwatch/internal/contract"
	"github.com/huangsam/liftwatch/schema"
)

// printf writes a console line with an optional emoji prefix.
func (r *Runner) printf(emoji string, format string, args ...any) {
	if r.UseEmojis && emoji != "" {
		format = emoji + " " + format
	}
	_, _ = fmt.Fprintf(r.out(), format, args...)
}

// status renders a status label in color when enabled.
func (r *Runner) status(s schema.ChartStatus) string {
	if r.UseColors {
		return contract.GetColorStatus(s)
	}
	return contract.GetPlainStatus(s)
}

// printOutcome writes the progress line of one chart.
func (r *Runner) printOutcome(n int, o schema.ChartOutcome) {
	emoji := contract.GetStatusEmoji(o.Status)
	switch o.Status {
	case schema.UpdatedStatus:
		r.printf(emoji, "%s chart %d (%s): %s\n", r.status(o.Status), n, o.ChartID, o.Title)
	case schema.SkippedStatus:
		r.printf(emoji, "%s No data for %s\n", r.status(o.Status), o.Period)
	case schema.FailedStatus:
		target := o.ChartID
		if target == "" {
			target = o.Job
		}
		r.printf(emoji, "%s %s (%s): %v\n", r.status(o.Status), target, o.Step, o.Err)
	case schema.DryRunStatus:
		r.printf(emoji, "%s chart %d (%s): %s, %d rows\n", r.status(o.Status), n, o.ChartID, o.Title, o.Rows)
	}
}

// printDryRun writes the CSV payload that would have been uploaded.
func (r *Runner) printDryRun(o schema.ChartOutcome, table schema.ChartTable) {
	payload, err := table.CSV()
	if err != nil {
		contract.LogWarn("Error rendering csv for "+o.ChartID, err)
		return
	}
	_, _ = fmt.Fprintf(r.out(), "%s", payload)
}

// printSummary writes the closing line of a run.
func (r *Runner) printSummary(s schema.RunSummary) {
	total := len(s.Outcomes)
	switch {
	case total == 0:
		r.printf("🤷", "No charts to update\n")
	case s.Updated == total:
		r.printf("🎉", "All %d charts updated!\n", total)
	case s.DryRun == total:
		r.printf("📝", "Dry run rendered %d charts, nothing published\n", total)
	default:
		r.printf("📊", "Updated %d, skipped %d, failed %d, dry-run %d of %d charts\n", s.Updated, s.Skipped, s.Failed, s.DryRun, total)
	}
}
