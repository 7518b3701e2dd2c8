package cmd

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/pojntfx/pojde-rs/internal/instance"
)

var startCmd = &cobra.Command{
	Use:   "start <name>...",
	Short: "Start one or more instances",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runStart,
}

var stopCmd = &cobra.Command{
	Use:   "stop <name>...",
	Short: "Stop one or more instances",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runStop,
}

var restartCmd = &cobra.Command{
	Use:   "restart <name>...",
	Short: "Restart one or more instances",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runRestart,
}

var (
	stopTimeout    int
	restartTimeout int
)

func init() {
	stopCmd.Flags().IntVarP(&stopTimeout, "timeout", "t", -1, "Graceful shutdown timeout in seconds (default from config, 0 for immediate)")
	restartCmd.Flags().IntVarP(&restartTimeout, "timeout", "t", -1, "Graceful shutdown timeout in seconds (default from config, 0 for immediate)")
	rootCmd.AddCommand(startCmd, stopCmd, restartCmd)
}

func runStart(cmd *cobra.Command, args []string) error {
	result, err := manager().Start(commandContext(cmd.Context()), args)
	printBatch(result)
	return err
}

func runStop(cmd *cobra.Command, args []string) error {
	m, err := managerWithStopTimeout(seconds(stopTimeout))
	if err != nil {
		return err
	}
	result, err := m.Stop(commandContext(cmd.Context()), args)
	printBatch(result)
	return err
}

func runRestart(cmd *cobra.Command, args []string) error {
	m, err := managerWithStopTimeout(seconds(restartTimeout))
	if err != nil {
		return err
	}
	result, err := m.Restart(commandContext(cmd.Context()), args)
	printBatch(result)
	return err
}

// seconds converts a flag value to a duration, keeping negatives negative.
func seconds(n int) time.Duration {
	if n < 0 {
		return -1
	}
	return time.Duration(n) * time.Second
}

// runOperation runs one lifecycle operation on a single instance.
func runOperation(cmd *cobra.Command, op instance.Operation, name string) error {
	m := manager()
	ctx := commandContext(cmd.Context())
	names := []string{name}

	var (
		result *instance.BatchResult
		err    error
	)
	switch op {
	case instance.OpStop:
		result, err = m.Stop(ctx, names)
	case instance.OpRestart:
		result, err = m.Restart(ctx, names)
	default:
		result, err = m.Start(ctx, names)
	}
	printBatch(result)
	return err
}
