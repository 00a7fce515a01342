package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/huangsam/liftwatch/internal/contract"
	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"
)

// watchCmd re-runs the update on a schedule.
var watchCmd = &cobra.Command{
	Use:   "watch [job...]",
	Short: "Run the chart update now and then on a cron schedule",
	Long: `Keep running and update the charts on a schedule until interrupted.

The first run starts immediately. A run that is still going when the next tick fires
makes that tick a no-op, so runs never overlap.

Examples:
  # Every morning at 07:00 (the default)
  liftwatch watch

  # Every six hours, monthly charts only
  liftwatch watch monthly-borough --schedule "@every 6h"`,
	PreRunE: sharedSetupWrapper,
	RunE: func(_ *cobra.Command, args []string) error {
		jobs, err := cfg.SelectJobs(args)
		if err != nil {
			return err
		}
		if len(jobs) == 0 {
			return fmt.Errorf("no jobs configured; add a jobs section to .liftwatch.yaml")
		}
		runner, err := newRunner(!cfg.DryRun)
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(rootCtx, os.Interrupt, syscall.SIGTERM)
		defer stop()

		cronLog := cron.PrintfLogger(slog.NewLogLogger(runner.Logger.Handler(), slog.LevelInfo))
		c := cron.New(
			cron.WithLogger(cronLog),
			cron.WithChain(cron.Recover(cronLog), cron.SkipIfStillRunning(cronLog)),
		)
		update := func() {
			if err := runUpdate(ctx, runner, jobs); err != nil {
				contract.LogWarn("Update run failed", err)
			}
		}
		if _, err := c.AddFunc(cfg.Schedule, update); err != nil {
			return fmt.Errorf("invalid schedule %q: %w", cfg.Schedule, err)
		}

		fmt.Printf("⏰ Watching %d jobs on schedule %q (Ctrl+C to stop)\n", len(jobs), cfg.Schedule)
		update()
		c.Start()

		<-ctx.Done()
		<-c.Stop().Done()
		fmt.Println("👋 Stopped watching")
		return nil
	},
}
