package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pojntfx/pojde-rs/internal/app"
	"github.com/pojntfx/pojde-rs/internal/errors"
	"github.com/pojntfx/pojde-rs/internal/health"
	"github.com/pojntfx/pojde-rs/internal/instance"
)

var statusCmd = &cobra.Command{
	Use:   "status <name>",
	Short: "Show detailed status of an instance",
	Args:  cobra.ExactArgs(1),
	RunE:  runStatus,
}

var (
	statusOutput  string
	statusNoProbe bool
)

func init() {
	statusCmd.Flags().StringVarP(&statusOutput, "output", "o", "text", "Output format: text or json")
	statusCmd.Flags().BoolVar(&statusNoProbe, "no-probe", false, "Skip the SSH reachability check")
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	name := args[0]

	var probe health.Prober
	if !statusNoProbe {
		probe = health.SSHProber(instance.NewSSHDialer(app.Default.Config.SSH).Options())
	}

	result, err := health.Check(commandContext(cmd.Context()), manager(), name, probe)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if statusOutput == "json" {
		data, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			return errors.Wrap(errors.ExitGeneralError, "failed to encode status", err)
		}
		fmt.Fprintln(out, string(data))
		return nil
	}

	fmt.Fprintf(out, "Instance: %s\n", result.Instance)
	fmt.Fprintf(out, "State: %s\n", result.State)
	fmt.Fprintf(out, "Health: %s\n", result.Summary())
	fmt.Fprintln(out)

	fmt.Fprintln(out, "Health Checks:")
	fmt.Fprintf(out, "  Container: %s\n", boolStatus(result.ContainerRunning))
	if result.ContainerRunning {
		fmt.Fprintf(out, "  Uptime: %s\n", result.Uptime)
		if result.ServicePort == 0 {
			fmt.Fprintln(out, "  Service port: not published")
		} else {
			fmt.Fprintf(out, "  Service port: %d\n", result.ServicePort)
			if probe != nil {
				fmt.Fprintf(out, "  SSH: %s\n", boolStatus(result.SSHReachable))
			}
		}
	}

	return nil
}

func boolStatus(b bool) string {
	if b {
		return "✓"
	}
	return "✗"
}
