package commands

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/warit/ridership/backend/internal/scheduler"
	"github.com/warit/ridership/backend/internal/scheduler/jobs"
)

var schedulerCmd = &cobra.Command{
	Use:   "scheduler",
	Short: "Run the cron scheduler",
	Long: `Runs the feature refresh on a cron schedule (CRON_SPEC, default 02:30
daily, after the transport ministry publishes the previous day's counts).
Blocks until interrupted.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := newRuntime()
		if err != nil {
			return err
		}
		defer rt.close()

		sched := scheduler.New(rt.log)
		refresh := jobs.NewFeatureRefreshJob(rt.buildRunner(runnerOptions{}), rt.cfg.CronSpec, rt.log)
		if err := sched.AddJob(refresh); err != nil {
			return err
		}

		sched.Start()

		quit := make(chan os.Signal, 1)
		signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
		<-quit

		sched.Stop()
		return nil
	},
}

func init() {
	rootCmd.AddCommand(schedulerCmd)
}
