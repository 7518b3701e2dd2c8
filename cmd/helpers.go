package cmd

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/pojntfx/pojde-rs/internal/app"
	"github.com/pojntfx/pojde-rs/internal/instance"
	"github.com/pojntfx/pojde-rs/internal/logging"
	"github.com/pojntfx/pojde-rs/internal/runtime"
)

// Helper aliases for user-facing output (delegates to logging package)
var (
	logInfo    = logging.UserInfo
	logSuccess = logging.UserSuccess
	logWarning = logging.UserWarning
	logError   = logging.UserError
)

// manager returns the application's instance manager.
func manager() *instance.Manager {
	return app.Default.Manager
}

// managerWithStopTimeout returns a manager whose stop timeout is d. A
// negative d keeps the configured timeout.
func managerWithStopTimeout(d time.Duration) (*instance.Manager, error) {
	a := app.Default
	if d < 0 {
		return a.Manager, nil
	}

	cfg := *a.Config
	cfg.Lifecycle.StopTimeout.Duration = d
	return instance.NewManager(a.Client, &cfg,
		instance.WithAuditLogger(a.Audit),
		instance.WithMetrics(a.Metrics),
	)
}

// commandContext returns ctx, or a background context when nil.
func commandContext(ctx context.Context) context.Context {
	if ctx == nil {
		return context.Background()
	}
	return ctx
}

// signalContext derives a context cancelled on SIGINT or SIGTERM.
func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(commandContext(parent), syscall.SIGINT, syscall.SIGTERM)
}

// batchVerbs holds the phrases printed for a lifecycle operation.
type batchVerbs struct {
	done      string
	unchanged string
}

var verbsFor = map[instance.Operation]batchVerbs{
	instance.OpStart:   {"Started", "already running"},
	instance.OpStop:    {"Stopped", "already stopped"},
	instance.OpRestart: {"Restarted", "restarted"},
}

// printBatch prints one line per instance of a lifecycle batch.
func printBatch(result *instance.BatchResult) {
	if result == nil {
		return
	}
	verbs := verbsFor[result.Op]
	for _, r := range result.Results {
		switch {
		case r.Err != nil:
			logError("Failed to %s %s: %v", result.Op, r.Name, r.Err)
		case r.Outcome == runtime.OutcomeAlreadyInState:
			logInfo("Instance %s is %s", r.Name, verbs.unchanged)
		default:
			logSuccess("%s instance %s", verbs.done, r.Name)
		}
	}
}
