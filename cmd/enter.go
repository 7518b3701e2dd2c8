package cmd

import (
	"context"
	"os"

	shellquote "github.com/kballard/go-shellquote"
	"github.com/spf13/cobra"

	"github.com/pojntfx/pojde-rs/internal/errors"
	"github.com/pojntfx/pojde-rs/internal/instance"
	"github.com/pojntfx/pojde-rs/internal/logging"
	"github.com/pojntfx/pojde-rs/internal/terminal"
)

var enterCmd = &cobra.Command{
	Use:   "enter <name>",
	Short: "Open a shell in a running instance",
	Long: `Runs a command inside a running instance with the terminal attached.
Without --command, the default shell is started.

When stdin is a terminal it is switched to raw mode for the session and
window size changes are forwarded.`,
	Args: cobra.ExactArgs(1),
	RunE: runEnter,
}

var (
	enterCommand string
	enterUser    string
	enterWorkdir string
	enterEnv     []string
)

func init() {
	enterCmd.Flags().StringVarP(&enterCommand, "command", "c", "", "Command to run instead of the default shell")
	enterCmd.Flags().StringVarP(&enterUser, "user", "u", "", "User to run the command as")
	enterCmd.Flags().StringVarP(&enterWorkdir, "workdir", "w", "", "Working directory inside the instance")
	enterCmd.Flags().StringArrayVarP(&enterEnv, "env", "e", nil, "Environment variables as KEY=VALUE")
	rootCmd.AddCommand(enterCmd)
}

func runEnter(cmd *cobra.Command, args []string) error {
	name := args[0]

	var command []string
	if enterCommand != "" {
		words, err := shellquote.Split(enterCommand)
		if err != nil {
			return errors.ValidationError("invalid --command: " + err.Error())
		}
		command = words
	}

	return enterInstance(cmd, name, command)
}

// enterInstance attaches the process terminal to command in the instance.
func enterInstance(cmd *cobra.Command, name string, command []string) error {
	ctx, cancel := context.WithCancel(commandContext(cmd.Context()))
	defer cancel()

	stdin := cmd.InOrStdin()
	var tty *terminal.Terminal
	if f, ok := stdin.(*os.File); ok {
		tty, _ = terminal.FromFile(f)
	}

	stream, err := manager().Enter(ctx, name, instance.EnterOptions{
		Command:    command,
		User:       enterUser,
		WorkingDir: enterWorkdir,
		Env:        enterEnv,
		TTY:        tty != nil,
		Stdin:      stdin,
	})
	if err != nil {
		return err
	}
	defer stream.Close()

	if tty != nil {
		if err := tty.MakeRaw(); err != nil {
			return errors.Wrap(errors.ExitGeneralError, "failed to set terminal to raw mode", err)
		}
		defer tty.Restore()

		stopResize := tty.OnResize(ctx, func(s terminal.Size) {
			if err := stream.Resize(ctx, s.Height, s.Width); err != nil {
				logging.Debug("resize failed", "instance", name, "error", err)
			}
		})
		defer stopResize()
	}

	return instance.Relay(stream, cmd.OutOrStdout(), cmd.ErrOrStderr())
}
