package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/pojntfx/pojde-rs/internal/app"
	"github.com/pojntfx/pojde-rs/internal/config"
	"github.com/pojntfx/pojde-rs/internal/errors"
	"github.com/pojntfx/pojde-rs/internal/logging"
	"github.com/pojntfx/pojde-rs/internal/ssh"
)

var (
	verbose     bool
	jsonOutput  bool
	configPath  string
	node        string
	runtimeHost string
)

// skipAppAnnotation marks commands that run without a runtime connection.
const skipAppAnnotation = "pojdectl/skip-app"

var rootCmd = &cobra.Command{
	Use:   "pojdectl",
	Short: "Manage pojde development environment instances",
	Long: `pojdectl manages pojde instances: containers running a browser-based
development environment, reachable over SSH on their published service port.

Instances are containers named with the configured prefix (default "pojde-").
Everything else in the runtime is ignored.`,
	SilenceUsage:      true,
	PersistentPreRunE: setupApp,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output logs in JSON format")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to the config file (default $XDG_CONFIG_HOME/pojdectl/config.toml)")
	rootCmd.PersistentFlags().StringVar(&node, "node", "", "SSH peer for tunnels as user@host:port")
	rootCmd.PersistentFlags().StringVar(&runtimeHost, "runtime-host", "", "Container runtime endpoint, e.g. unix:///var/run/docker.sock")
	rootCmd.CompletionOptions.DisableDefaultCmd = true
}

// setupApp configures logging and builds the default App unless one was
// installed already.
func setupApp(cmd *cobra.Command, args []string) error {
	logging.Setup(verbose, jsonOutput, os.Stderr)

	if app.Default != nil || cmd.Annotations[skipAppAnnotation] == "true" {
		return nil
	}

	cfg, paths, err := loadConfig()
	if err != nil {
		return err
	}

	a, err := app.New(app.WithPaths(paths), app.WithConfig(cfg))
	if err != nil {
		return err
	}
	app.SetDefault(a)
	return nil
}

// loadConfig reads the config file and applies the global flag overrides.
func loadConfig() (*config.Config, *config.Paths, error) {
	paths := config.DefaultPaths()
	path := configPath
	if path == "" {
		path = paths.ConfigFile
	}

	cfg, err := config.Load(path)
	if err != nil {
		return nil, nil, errors.ConfigError("failed to load configuration", err)
	}

	if runtimeHost != "" {
		cfg.Runtime.Host = runtimeHost
	}
	if node != "" {
		n, err := ssh.ParseNode(node)
		if err != nil {
			return nil, nil, errors.ConfigError("invalid --node", err)
		}
		// Tunnels always target the instance's published service port
		if n.User != "" {
			cfg.SSH.User = n.User
		}
		cfg.SSH.Host = n.Host
	}
	logging.Debug("configuration loaded", "path", path, "prefix", cfg.Instance.Prefix)

	return cfg, paths, nil
}
