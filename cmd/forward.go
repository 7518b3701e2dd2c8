package cmd

import (
	"net"

	"github.com/spf13/cobra"

	"github.com/pojntfx/pojde-rs/internal/forward"
	"github.com/pojntfx/pojde-rs/internal/instance"
)

var forwardCmd = &cobra.Command{
	Use:   "forward <name> <spec>...",
	Short: "Forward ports between this machine and an instance",
	Long: `Forwards TCP ports over an SSH session to the instance's published
service port. Each spec is lhost:lport:rhost:rport; hosts default to
localhost and a single port forwards that port on both sides.

  local   listen here, connect from inside the instance (default)
  remote  listen inside the instance, connect from here

Runs until interrupted. If the SSH session fails, all forwards stop.`,
	Example: `  pojdectl forward felix 8000
  pojdectl forward felix 127.0.0.1:9000:localhost:3000 5432
  pojdectl forward felix -d remote 8080:localhost:8080`,
	Args: cobra.MinimumNArgs(2),
	RunE: runForward,
}

var forwardDirection string

func init() {
	forwardCmd.Flags().StringVarP(&forwardDirection, "direction", "d", string(forward.DirectionLocal), "Forward direction: local or remote")
	rootCmd.AddCommand(forwardCmd)
}

func runForward(cmd *cobra.Command, args []string) error {
	dir, err := forward.ParseDirection(forwardDirection)
	if err != nil {
		return err
	}
	reqs, err := forward.ParseRequests(args[1:])
	if err != nil {
		return err
	}
	return forwardInstance(cmd, args[0], reqs, dir)
}

// forwardInstance runs the forwards until interrupted.
func forwardInstance(cmd *cobra.Command, name string, reqs []forward.Request, dir forward.Direction) error {
	ctx, stop := signalContext(cmd.Context())
	defer stop()

	err := manager().Forward(ctx, name, reqs, dir, instance.ForwardOptions{
		OnReady: func(r forward.Request, addr net.Addr) {
			logSuccess("Forwarding %s (%s, listening on %s)", r, dir, addr)
		},
	})
	if err != nil {
		return err
	}
	logInfo("Forwarding stopped")
	return nil
}
