package cmd

import (
	"github.com/huangsam/liftwatch/internal/outwriter"
	"github.com/spf13/cobra"
)

// jobsCmd lists the configured jobs.
var jobsCmd = &cobra.Command{
	Use:     "jobs",
	Short:   "List the configured chart jobs",
	PreRunE: sharedSetupWrapper,
	RunE: func(_ *cobra.Command, _ []string) error {
		return outwriter.NewOutWriter().WriteJobs(cfg.Jobs, cfg)
	},
}
