package instance

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/pojntfx/pojde-rs/internal/audit"
	"github.com/pojntfx/pojde-rs/internal/errors"
	"github.com/pojntfx/pojde-rs/internal/runtime"
)

// Operation is a lifecycle operation.
type Operation string

const (
	OpStart   Operation = "start"
	OpStop    Operation = "stop"
	OpRestart Operation = "restart"
)

func (o Operation) eventType() audit.EventType {
	switch o {
	case OpStop:
		return audit.EventStop
	case OpRestart:
		return audit.EventRestart
	default:
		return audit.EventStart
	}
}

// Result is the outcome of a lifecycle operation on one instance.
type Result struct {
	Name    string          `json:"name"`
	Outcome runtime.Outcome `json:"-"`
	Err     error           `json:"-"`
}

// Succeeded reports whether the instance reached the target state.
func (r Result) Succeeded() bool {
	return r.Err == nil
}

// BatchResult holds one Result per requested name, in request order.
type BatchResult struct {
	Op      Operation
	Results []Result
}

// Succeeded returns the results without an error.
func (b *BatchResult) Succeeded() []Result {
	var out []Result
	for _, r := range b.Results {
		if r.Err == nil {
			out = append(out, r)
		}
	}
	return out
}

// Failed returns the results with an error.
func (b *BatchResult) Failed() []Result {
	var out []Result
	for _, r := range b.Results {
		if r.Err != nil {
			out = append(out, r)
		}
	}
	return out
}

// Err returns nil when every name succeeded, otherwise a *errors.BatchError
// carrying each failure.
func (b *BatchResult) Err() error {
	failed := b.Failed()
	if len(failed) == 0 {
		return nil
	}
	errs := make([]error, 0, len(failed))
	for _, r := range failed {
		errs = append(errs, r.Err)
	}
	return &errors.BatchError{Op: string(b.Op), Errors: errs}
}

// Start starts the named instances.
func (m *Manager) Start(ctx context.Context, names []string) (*BatchResult, error) {
	return m.batch(ctx, OpStart, names)
}

// Stop stops the named instances, waiting up to the configured stop timeout
// for each to exit.
func (m *Manager) Stop(ctx context.Context, names []string) (*BatchResult, error) {
	return m.batch(ctx, OpStop, names)
}

// Restart restarts the named instances. A stopped instance is started.
func (m *Manager) Restart(ctx context.Context, names []string) (*BatchResult, error) {
	return m.batch(ctx, OpRestart, names)
}

// batch runs op on every name concurrently and waits for all of them. The
// returned error is the aggregate of the per-name failures; the result is
// returned in every case except invalid input.
func (m *Manager) batch(ctx context.Context, op Operation, names []string) (*BatchResult, error) {
	if len(names) == 0 {
		return nil, errors.ValidationError("at least one instance name is required")
	}

	result := &BatchResult{Op: op, Results: make([]Result, len(names))}

	var g errgroup.Group
	if m.cfg.Lifecycle.MaxParallel > 0 {
		g.SetLimit(m.cfg.Lifecycle.MaxParallel)
	}

	for i, name := range names {
		// Each goroutine writes only its own slot.
		g.Go(func() error {
			result.Results[i] = m.apply(ctx, op, name)
			return nil
		})
	}
	g.Wait()

	return result, result.Err()
}

func (m *Manager) apply(ctx context.Context, op Operation, name string) Result {
	res := Result{Name: name}

	runtimeName, err := m.resolve(name)
	if err != nil {
		res.Outcome = runtime.OutcomeFailed
		res.Err = err
		return res
	}

	timeout := m.cfg.Lifecycle.StopTimeout.Duration
	began := time.Now()

	switch op {
	case OpStart:
		res.Outcome, err = m.client.Start(ctx, runtimeName)
	case OpStop:
		res.Outcome, err = m.client.Stop(ctx, runtimeName, &timeout)
	case OpRestart:
		res.Outcome, err = m.client.Restart(ctx, runtimeName, &timeout)
	}

	if err != nil {
		res.Outcome = runtime.OutcomeFailed
		if errors.Is(err, runtime.ErrNotFound) {
			res.Err = errors.InstanceNotFound(name)
		} else {
			res.Err = errors.OperationFailed(string(op), name, err)
		}
	}

	m.metrics.ObserveLifecycle(string(op), res.Outcome.String(), time.Since(began))
	details := ""
	if res.Err != nil {
		details = res.Err.Error()
	}
	m.logEvent(op.eventType(), name, res.Outcome.String(), details)
	m.logger.Debug("lifecycle operation finished", "op", op, "instance", name, "outcome", res.Outcome)

	return res
}
