// Package app provides the application context for pojdectl.
//
// This package manages application-wide dependencies using the functional
// options pattern, enabling easy testing through dependency injection.
//
// # App Context
//
// The App struct holds core dependencies:
//
//	type App struct {
//	    Paths   *config.Paths     // File system paths
//	    Config  *config.Config    // Loaded configuration
//	    Client  runtime.Client    // Container runtime client
//	    Manager *instance.Manager // Instance operations
//	    Audit   *audit.Logger     // Lifecycle event log
//	    Metrics *metrics.Metrics  // Prometheus collectors
//	}
//
// # Creating an App
//
// Use New with functional options:
//
//	// Production usage
//	app, err := app.New(app.WithConfig(cfg))
//
//	// Testing with custom dependencies
//	app, err := app.New(
//	    app.WithPaths(testPaths),
//	    app.WithClient(runtime.NewMockClient()),
//	)
//
// # Available Options
//
//	WithPaths(paths)        // Custom path configuration
//	WithConfig(cfg)         // Custom configuration
//	WithClient(client)      // Custom runtime client
//	WithMetrics(m)          // Custom metrics collector
//	WithTunnelDialer(d)     // Custom tunnel dialer for Forward
package app
