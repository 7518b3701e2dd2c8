package cmd

import (
	"github.com/spf13/cobra"

	"github.com/pojntfx/pojde-rs/internal/api"
	"github.com/pojntfx/pojde-rs/internal/app"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the HTTP API",
	Long: `Serves instance listing, lifecycle operations and logs over HTTP, plus
Prometheus metrics on /metrics. Runs until interrupted.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

var serveListen string

func init() {
	serveCmd.Flags().StringVar(&serveListen, "listen", "", "Listen address (default from config)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	a := app.Default

	addr := a.Config.API.Listen
	if serveListen != "" {
		addr = serveListen
	}

	ctx, stop := signalContext(cmd.Context())
	defer stop()

	logInfo("Serving API on %s", addr)
	if err := api.New(a.Manager, a.Metrics).ListenAndServe(ctx, addr); err != nil {
		return err
	}
	logInfo("API server stopped")
	return nil
}
