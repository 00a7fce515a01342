package cmd

import (
	"github.com/huangsam/liftwatch/internal/outwriter"
	"github.com/spf13/cobra"
)

// previewCmd prints the tables of a job without publishing.
var previewCmd = &cobra.Command{
	Use:   "preview <job>",
	Short: "Show the chart tables a job would publish",
	Long: `Fetch and aggregate a chart job without touching Datawrapper.

No Datawrapper token is needed. Use --output csv or json to feed the tables to other tools.

Examples:
  liftwatch preview daily-trend
  liftwatch preview monthly-borough --output json`,
	Args:    cobra.ExactArgs(1),
	PreRunE: sharedSetupWrapper,
	RunE: func(_ *cobra.Command, args []string) error {
		job, err := cfg.FindJob(args[0])
		if err != nil {
			return err
		}
		runner, err := newRunner(false)
		if err != nil {
			return err
		}
		previews, err := runner.Preview(rootCtx, job)
		if err != nil {
			return err
		}
		return outwriter.NewOutWriter().WritePreviews(previews, cfg)
	},
}
