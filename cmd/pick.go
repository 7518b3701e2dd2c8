package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pojntfx/pojde-rs/internal/instance"
	"github.com/pojntfx/pojde-rs/internal/logging"
	"github.com/pojntfx/pojde-rs/internal/tui"
)

var pickCmd = &cobra.Command{
	Use:   "pick",
	Short: "Interactive instance picker",
	Long: `Opens an interactive TUI for selecting an instance and acting on it.

Use arrow keys or j/k to navigate, / to filter.

Actions:
  Enter  - Open a shell in the selected instance
  l      - Show logs
  s/x/r  - Start, stop or restart
  f      - Forward ports (opens a wizard)
  q/Esc  - Quit`,
	Args: cobra.NoArgs,
	RunE: runPick,
}

func init() {
	rootCmd.AddCommand(pickCmd)
}

func runPick(cmd *cobra.Command, args []string) error {
	logging.Debug("picker mode started")

	instances, err := manager().List(commandContext(cmd.Context()))
	if err != nil {
		return err
	}

	if len(instances) == 0 {
		logInfo("No instances found")
		return nil
	}

	result, err := tui.RunPicker(instances)
	if err != nil {
		return fmt.Errorf("picker error: %w", err)
	}

	logging.Debug("picker result", "action", result.Action)
	return dispatchPick(cmd, result)
}

// dispatchPick carries out the action chosen in the picker.
func dispatchPick(cmd *cobra.Command, result tui.PickerResult) error {
	if result.Instance == nil {
		return nil
	}
	name := result.Instance.Name

	switch result.Action {
	case tui.ActionEnter:
		return enterInstance(cmd, name, nil)

	case tui.ActionLogs:
		stream, err := manager().Logs(commandContext(cmd.Context()), name, instance.LogsOptions{Tail: "100"})
		if err != nil {
			return err
		}
		defer stream.Close()
		return instance.Relay(stream, cmd.OutOrStdout(), cmd.ErrOrStderr())

	case tui.ActionStart:
		return runOperation(cmd, instance.OpStart, name)

	case tui.ActionStop:
		return runOperation(cmd, instance.OpStop, name)

	case tui.ActionRestart:
		return runOperation(cmd, instance.OpRestart, name)

	case tui.ActionForward:
		if result.Forward != nil {
			return forwardInstance(cmd, name, result.Forward.Requests, result.Forward.Direction)
		}
	}

	return nil
}
