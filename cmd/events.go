package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pojntfx/pojde-rs/internal/app"
	"github.com/pojntfx/pojde-rs/internal/config"
	"github.com/pojntfx/pojde-rs/internal/errors"
)

var eventsCmd = &cobra.Command{
	Use:   "events <name>",
	Short: "Display the event history of an instance",
	Args:  cobra.ExactArgs(1),
	RunE:  runEvents,
}

var (
	eventsOutput string
	eventsLimit  int
)

func init() {
	eventsCmd.Flags().StringVarP(&eventsOutput, "output", "o", "text", "Output format: text or json (one event per line)")
	eventsCmd.Flags().IntVarP(&eventsLimit, "lines", "n", 0, "Show only the last N events (0 for all)")
	rootCmd.AddCommand(eventsCmd)
}

func runEvents(cmd *cobra.Command, args []string) error {
	name := args[0]
	if err := config.ValidateInstanceName(name); err != nil {
		return errors.NotAnInstance(name)
	}

	events, err := app.Default.Audit.Tail(name, eventsLimit)
	if err != nil {
		return errors.Wrap(errors.ExitGeneralError, "failed to read event log", err)
	}

	if len(events) == 0 {
		logInfo("No events found for instance %s", name)
		return nil
	}

	out := cmd.OutOrStdout()
	for _, e := range events {
		if eventsOutput == "json" {
			data, err := json.Marshal(e)
			if err != nil {
				return errors.Wrap(errors.ExitGeneralError, "failed to marshal event", err)
			}
			fmt.Fprintln(out, string(data))
			continue
		}

		ts := e.Timestamp.Local().Format("2006-01-02 15:04:05")
		line := fmt.Sprintf("[%s] %-8s %s", ts, e.Type, e.Instance)
		if e.Outcome != "" {
			line += " " + e.Outcome
		}
		if e.Details != "" {
			line += " (" + e.Details + ")"
		}
		fmt.Fprintln(out, line)
	}

	return nil
}
