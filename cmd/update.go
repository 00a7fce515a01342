package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/huangsam/liftwatch/core"
	"github.com/huangsam/liftwatch/internal/outwriter"
	"github.com/huangsam/liftwatch/schema"
	"github.com/spf13/cobra"
)

// updateCmd runs chart jobs once.
var updateCmd = &cobra.Command{
	Use:   "update [job...]",
	Short: "Fetch, aggregate and publish the configured charts",
	Long: `Run the named chart jobs (or every configured job) once.

For each job the command:
- Resolves the periods to cover (recent, explicit or since)
- Fetches the matching records from the open data portal
- Aggregates them into a chart-ready table
- Replaces the chart data, retitles and republishes the chart

Charts with no data are skipped. A failing chart is reported and the run continues;
the command exits non-zero when any chart failed.

Examples:
  # Update every configured chart
  liftwatch update

  # Only the monthly borough charts, without publishing
  liftwatch update monthly-borough --dry-run`,
	PreRunE: sharedSetupWrapper,
	RunE: func(_ *cobra.Command, args []string) error {
		jobs, err := cfg.SelectJobs(args)
		if err != nil {
			return err
		}
		runner, err := newRunner(!cfg.DryRun)
		if err != nil {
			return err
		}
		return runUpdate(rootCtx, runner, jobs)
	},
}

// runUpdate executes one update run and reports its summary.
func runUpdate(ctx context.Context, runner *core.Runner, jobs []schema.ChartJob) error {
	if len(jobs) == 0 {
		return fmt.Errorf("no jobs configured; add a jobs section to .liftwatch.yaml")
	}
	if cfg.Output != schema.TextOut {
		// Keep stdout for the machine-readable summary
		runner.Out = os.Stderr
	}

	summary, err := runner.Run(ctx, jobs, core.RunOptions{DryRun: cfg.DryRun})
	if err != nil {
		return err
	}
	if cfg.Output != schema.TextOut {
		if err := outwriter.NewOutWriter().WriteRunSummary(summary, cfg); err != nil {
			return err
		}
	}
	if summary.Failed > 0 {
		return fmt.Errorf("%d of %d charts failed", summary.Failed, len(summary.Outcomes))
	}
	return nil
}
