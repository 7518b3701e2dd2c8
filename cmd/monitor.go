package cmd

import (
	"context"
	stderrors "errors"
	"time"

	"github.com/spf13/cobra"

	"github.com/pojntfx/pojde-rs/internal/app"
	"github.com/pojntfx/pojde-rs/internal/monitor"
)

var monitorCmd = &cobra.Command{
	Use:   "monitor",
	Short: "Watch instance status changes",
	Long: `Periodically lists the instances and reports every status change.
With --auto-start, instances that stop after having been seen running are
started again. Runs in the foreground until interrupted.

Can be wrapped in a systemd service for persistent monitoring.`,
	Args: cobra.NoArgs,
	RunE: runMonitor,
}

var (
	monitorInterval  time.Duration
	monitorAutoStart bool
)

func init() {
	monitorCmd.Flags().DurationVar(&monitorInterval, "interval", 0, "Poll interval (default from config)")
	monitorCmd.Flags().BoolVar(&monitorAutoStart, "auto-start", false, "Start instances again when they stop")
	rootCmd.AddCommand(monitorCmd)
}

func runMonitor(cmd *cobra.Command, args []string) error {
	a := app.Default

	interval := a.Config.Monitor.Interval.Duration
	if monitorInterval > 0 {
		interval = monitorInterval
	}
	autoStart := a.Config.Monitor.AutoStart || monitorAutoStart

	mon := monitor.New(interval, a.Manager,
		monitor.WithAuditLogger(a.Audit),
		monitor.WithAutoStart(autoStart),
		monitor.WithTransitionHandler(func(t monitor.Transition) {
			logInfo("%s", t)
		}),
	)

	logInfo("Starting monitor (interval: %s, auto-start: %v)", interval, autoStart)

	ctx, stop := signalContext(cmd.Context())
	defer stop()

	err := mon.Run(ctx)
	if stderrors.Is(err, context.Canceled) {
		logInfo("Monitor stopped")
		return nil
	}
	return err
}
