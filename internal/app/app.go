// Package app provides the application context for pojdectl.
// It allows dependency injection for testing.
package app

import (
	"github.com/pojntfx/pojde-rs/internal/audit"
	"github.com/pojntfx/pojde-rs/internal/config"
	"github.com/pojntfx/pojde-rs/internal/errors"
	"github.com/pojntfx/pojde-rs/internal/instance"
	"github.com/pojntfx/pojde-rs/internal/logging"
	"github.com/pojntfx/pojde-rs/internal/metrics"
	"github.com/pojntfx/pojde-rs/internal/runtime"
)

// App holds the application dependencies
type App struct {
	// Paths holds the configured paths
	Paths *config.Paths

	// Config is the loaded configuration
	Config *config.Config

	// Client is the container runtime client
	Client runtime.Client

	// Manager operates on instances through Client
	Manager *instance.Manager

	// Audit records lifecycle events under Paths.EventsDir
	Audit *audit.Logger

	// Metrics collects operation metrics
	Metrics *metrics.Metrics

	tunnels instance.TunnelDialer
}

// Option is a function that configures the App
type Option func(*App)

// WithPaths sets custom paths
func WithPaths(paths *config.Paths) Option {
	return func(a *App) {
		a.Paths = paths
	}
}

// WithConfig sets the configuration
func WithConfig(cfg *config.Config) Option {
	return func(a *App) {
		a.Config = cfg
	}
}

// WithClient sets a custom runtime client
func WithClient(c runtime.Client) Option {
	return func(a *App) {
		a.Client = c
	}
}

// WithMetrics sets a custom metrics collector
func WithMetrics(m *metrics.Metrics) Option {
	return func(a *App) {
		a.Metrics = m
	}
}

// WithTunnelDialer replaces the SSH dialer used for port forwarding
func WithTunnelDialer(d instance.TunnelDialer) Option {
	return func(a *App) {
		a.tunnels = d
	}
}

// New creates a new App with the given options.
// If a client is not provided via WithClient, the runtime is detected from
// the configuration and the environment.
func New(opts ...Option) (*App, error) {
	app := &App{}

	for _, opt := range opts {
		opt(app)
	}

	if app.Paths == nil {
		app.Paths = config.DefaultPaths()
	}
	if app.Config == nil {
		app.Config = config.Default()
	}
	if app.Metrics == nil {
		app.Metrics = metrics.New()
	}
	app.Audit = audit.NewLogger(app.Paths.EventsDir)

	if app.Client == nil {
		client, err := runtime.New(&runtime.Config{
			Type:       runtime.RuntimeAuto,
			Host:       app.Config.Runtime.Host,
			APIVersion: app.Config.Runtime.APIVersion,
		})
		if err != nil {
			logging.Debug("failed to initialize runtime", "error", err)
			return nil, errors.RuntimeUnavailable(err)
		}
		app.Client = client
	}

	managerOpts := []instance.Option{
		instance.WithAuditLogger(app.Audit),
		instance.WithMetrics(app.Metrics),
	}
	if app.tunnels != nil {
		managerOpts = append(managerOpts, instance.WithTunnelDialer(app.tunnels))
	}

	manager, err := instance.NewManager(app.Client, app.Config, managerOpts...)
	if err != nil {
		return nil, err
	}
	app.Manager = manager

	return app, nil
}

// Close releases the runtime client
func (a *App) Close() error {
	if a.Client == nil {
		return nil
	}
	return a.Client.Close()
}

// Default is the application instance used by the CLI. It is created on
// first use by the root command unless a test sets it.
var Default *App

// SetDefault sets the default application instance (used for testing)
func SetDefault(app *App) {
	Default = app
}

// ResetDefault clears the default application instance
func ResetDefault() {
	Default = nil
}
