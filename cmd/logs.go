package cmd

import (
	"strconv"

	"github.com/spf13/cobra"

	"github.com/pojntfx/pojde-rs/internal/instance"
)

var logsCmd = &cobra.Command{
	Use:   "logs <name>",
	Short: "View instance logs",
	Args:  cobra.ExactArgs(1),
	RunE:  runLogs,
}

var (
	logsFollow     bool
	logsLines      int
	logsTimestamps bool
)

func init() {
	logsCmd.Flags().BoolVarP(&logsFollow, "follow", "f", false, "Follow log output")
	logsCmd.Flags().IntVarP(&logsLines, "lines", "n", -1, "Number of lines to show (default all)")
	logsCmd.Flags().BoolVar(&logsTimestamps, "timestamps", false, "Show timestamps")
	rootCmd.AddCommand(logsCmd)
}

func runLogs(cmd *cobra.Command, args []string) error {
	ctx, stop := signalContext(cmd.Context())
	defer stop()

	tail := "all"
	if logsLines >= 0 {
		tail = strconv.Itoa(logsLines)
	}

	stream, err := manager().Logs(ctx, args[0], instance.LogsOptions{
		Follow:     logsFollow,
		Tail:       tail,
		Timestamps: logsTimestamps,
	})
	if err != nil {
		return err
	}
	defer stream.Close()

	return instance.Relay(stream, cmd.OutOrStdout(), cmd.ErrOrStderr())
}
