package cmd

import (
	"fmt"

	"github.com/huangsam/liftwatch/internal/outwriter"
	"github.com/spf13/cobra"
)

// periodsCmd lists the distinct periods of a job's dataset.
var periodsCmd = &cobra.Command{
	Use:   "periods <job>",
	Short: "List the most recent periods available for a job",
	Long: `Query the distinct period values of a job's dataset, most recent first.

Examples:
  liftwatch periods monthly-borough
  liftwatch periods monthly-borough --limit 12`,
	Args:    cobra.ExactArgs(1),
	PreRunE: sharedSetupWrapper,
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, err := cmd.Flags().GetInt("limit")
		if err != nil {
			return err
		}
		if limit < 0 {
			return fmt.Errorf("limit must be positive (received %d)", limit)
		}
		job, err := cfg.FindJob(args[0])
		if err != nil {
			return err
		}
		runner, err := newRunner(false)
		if err != nil {
			return err
		}
		periods, err := runner.ListPeriods(rootCtx, job, limit)
		if err != nil {
			return err
		}
		return outwriter.NewOutWriter().WritePeriods(job, periods, cfg)
	},
}
