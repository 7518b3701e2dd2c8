package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/pojntfx/pojde-rs/internal/errors"
	"github.com/pojntfx/pojde-rs/internal/instance"
	"github.com/pojntfx/pojde-rs/internal/runtime"
)

var listCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls", "ps"},
	Short:   "List all instances",
	Args:    cobra.NoArgs,
	RunE:    runList,
}

var listOutput string

func init() {
	listCmd.Flags().StringVarP(&listOutput, "output", "o", "table", "Output format: table, json or yaml")
	rootCmd.AddCommand(listCmd)
}

func runList(cmd *cobra.Command, args []string) error {
	instances, err := manager().List(commandContext(cmd.Context()))
	if err != nil {
		return err
	}
	if instances == nil {
		instances = []instance.Instance{}
	}

	out := cmd.OutOrStdout()
	switch listOutput {
	case "json":
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(instances); err != nil {
			return errors.Wrap(errors.ExitGeneralError, "failed to encode instances", err)
		}
		return nil
	case "yaml":
		enc := yaml.NewEncoder(out)
		defer enc.Close()
		if err := enc.Encode(instances); err != nil {
			return errors.Wrap(errors.ExitGeneralError, "failed to encode instances", err)
		}
		return nil
	case "table", "":
		if len(instances) == 0 {
			logInfo("No instances found")
			return nil
		}
		return printInstanceTable(out, instances)
	default:
		return errors.ValidationError(fmt.Sprintf("unknown output format %q: must be table, json or yaml", listOutput))
	}
}

func printInstanceTable(out io.Writer, instances []instance.Instance) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tSTATUS\tPORTS")
	fmt.Fprintln(w, "----\t------\t-----")

	for _, inst := range instances {
		ports := inst.PortsString()
		if ports == "" {
			ports = "-"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\n", inst.Name, formatState(inst.Status), ports)
	}

	return w.Flush()
}

func formatState(state string) string {
	switch state {
	case runtime.StateRunning:
		return "✓ running"
	case runtime.StateExited:
		return "● exited"
	case runtime.StateRestarting, runtime.StatePaused:
		return "⚠ " + state
	default:
		return "○ " + state
	}
}
