package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/pojntfx/pojde-rs/internal/app"
	"github.com/pojntfx/pojde-rs/internal/runtime"
)

var runtimeCmd = &cobra.Command{
	Use:   "runtime",
	Short: "Show container runtime information",
	Long: `Display information about available and active container runtimes.

pojdectl talks to the Docker Engine API. Supported runtimes:
  - docker:  Docker Engine
  - podman:  Podman through its Docker-compatible socket

The runtime is taken from --runtime-host, the config file, DOCKER_HOST or
the first well-known socket found on the system.`,
	Args:        cobra.NoArgs,
	Annotations: map[string]string{skipAppAnnotation: "true"},
	RunE:        runRuntime,
}

func init() {
	rootCmd.AddCommand(runtimeCmd)
}

func runRuntime(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()

	detected, host, err := runtime.Detect()
	if err != nil {
		fmt.Fprintf(out, "Detection failed: %s\n", err)
	} else {
		fmt.Fprintf(out, "Detected runtime: %s (%s)\n", detected, host)
	}

	fmt.Fprintln(out)

	available := runtime.Available()
	fmt.Fprintln(out, "Available runtimes:")
	if len(available) == 0 {
		fmt.Fprintln(out, "  (none)")
	} else {
		for _, rt := range available {
			marker := "  "
			if rt == detected {
				marker = "* "
			}
			fmt.Fprintf(out, "%s%s\n", marker, rt)
		}
	}

	fmt.Fprintln(out)

	client, closeClient, err := runtimeClient()
	if err != nil {
		fmt.Fprintf(out, "Connection: ✗ %s\n", err)
		return nil
	}
	defer closeClient()

	ctx, cancel := context.WithTimeout(commandContext(cmd.Context()), 10*time.Second)
	defer cancel()

	info, err := client.Ping(ctx)
	if err != nil {
		fmt.Fprintf(out, "Connection: ✗ %s\n", err)
		return nil
	}
	fmt.Fprintf(out, "Connection: ✓ %s\n", client.Name())
	fmt.Fprintf(out, "  Daemon: %s\n", info.Name)
	fmt.Fprintf(out, "  API version: %s\n", info.APIVersion)
	fmt.Fprintf(out, "  OS: %s\n", info.OSType)

	return nil
}

// runtimeClient returns the default App's client, or a new client built
// from the configuration when no App exists.
func runtimeClient() (runtime.Client, func(), error) {
	if app.Default != nil {
		return app.Default.Client, func() {}, nil
	}

	cfg, _, err := loadConfig()
	if err != nil {
		return nil, nil, err
	}
	client, err := runtime.New(&runtime.Config{
		Type:       runtime.RuntimeAuto,
		Host:       cfg.Runtime.Host,
		APIVersion: cfg.Runtime.APIVersion,
	})
	if err != nil {
		return nil, nil, err
	}
	return client, func() { client.Close() }, nil
}
