// Package monitor watches instance status in the background.
package monitor

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/pojntfx/pojde-rs/internal/audit"
	"github.com/pojntfx/pojde-rs/internal/instance"
	"github.com/pojntfx/pojde-rs/internal/logging"
	"github.com/pojntfx/pojde-rs/internal/runtime"
)

// StatusRemoved is reported as the new status of an instance that
// disappeared from the listing.
const StatusRemoved = "removed"

// Transition is an observed status change of one instance. From is empty
// the first time an instance is seen.
type Transition struct {
	Instance string
	From     string
	To       string
}

func (t Transition) String() string {
	from := t.From
	if from == "" {
		from = "none"
	}
	return fmt.Sprintf("%s: %s -> %s", t.Instance, from, t.To)
}

// Monitor periodically lists instances and reports status changes.
type Monitor struct {
	interval     time.Duration
	manager      *instance.Manager
	autoStart    bool
	auditLog     *audit.Logger
	onTransition func(Transition)

	last map[string]string
}

// Option configures a Monitor.
type Option func(*Monitor)

// WithAutoStart enables starting instances again after they stop running.
func WithAutoStart(enabled bool) Option {
	return func(m *Monitor) {
		m.autoStart = enabled
	}
}

// WithAuditLogger sets the audit logger for recording status events.
func WithAuditLogger(logger *audit.Logger) Option {
	return func(m *Monitor) {
		m.auditLog = logger
	}
}

// WithTransitionHandler is called for every observed transition.
func WithTransitionHandler(fn func(Transition)) Option {
	return func(m *Monitor) {
		m.onTransition = fn
	}
}

// New creates a new Monitor.
func New(interval time.Duration, manager *instance.Manager, opts ...Option) *Monitor {
	m := &Monitor{
		interval: interval,
		manager:  manager,
		last:     make(map[string]string),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Run starts the monitoring loop. It blocks until the context is cancelled.
func (m *Monitor) Run(ctx context.Context) error {
	logging.Debug("starting status monitor", "interval", m.interval, "autoStart", m.autoStart)

	// Poll immediately, then on every tick.
	m.poll(ctx)

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logging.Debug("status monitor stopping")
			return ctx.Err()
		case <-ticker.C:
			m.poll(ctx)
		}
	}
}

func (m *Monitor) poll(ctx context.Context) {
	if _, err := m.Poll(ctx); err != nil {
		logging.Warn("monitor failed to list instances", "error", err)
	}
}

// Poll lists the instances once and returns the transitions since the
// previous poll, sorted by instance name.
func (m *Monitor) Poll(ctx context.Context) ([]Transition, error) {
	instances, err := m.manager.List(ctx)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool, len(instances))
	var transitions []Transition
	for _, inst := range instances {
		seen[inst.Name] = true
		if prev, ok := m.last[inst.Name]; !ok || prev != inst.Status {
			transitions = append(transitions, Transition{Instance: inst.Name, From: prev, To: inst.Status})
		}
		m.last[inst.Name] = inst.Status
	}
	for name, prev := range m.last {
		if !seen[name] {
			transitions = append(transitions, Transition{Instance: name, From: prev, To: StatusRemoved})
			delete(m.last, name)
		}
	}

	sort.Slice(transitions, func(i, j int) bool {
		return transitions[i].Instance < transitions[j].Instance
	})

	for _, t := range transitions {
		m.handle(ctx, t)
	}
	return transitions, nil
}

func (m *Monitor) handle(ctx context.Context, t Transition) {
	logging.Debug("instance status changed", "instance", t.Instance, "from", t.From, "to", t.To)

	if m.auditLog != nil && t.From != "" {
		if err := m.auditLog.LogEvent(audit.EventStatus, t.Instance, t.To, t.String()); err != nil {
			logging.Warn("failed to write audit event", "instance", t.Instance, "error", err)
		}
	}
	if m.onTransition != nil {
		m.onTransition(t)
	}

	// Only instances seen running before are started again, so instances
	// that were already stopped when monitoring began stay stopped.
	if !m.autoStart || t.From != runtime.StateRunning || t.To == runtime.StateRunning || t.To == StatusRemoved {
		return
	}

	logging.UserInfo("Auto-starting instance %s (status: %s)", t.Instance, t.To)
	res, err := m.manager.Start(ctx, []string{t.Instance})
	if err != nil {
		logging.Warn("auto-start failed", "instance", t.Instance, "error", err)
		return
	}
	if len(res.Results) == 1 && res.Results[0].Outcome == runtime.OutcomeChanged {
		m.last[t.Instance] = runtime.StateRunning
	}
}
