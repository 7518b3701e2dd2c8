package instance

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/pojntfx/pojde-rs/internal/audit"
	"github.com/pojntfx/pojde-rs/internal/config"
	"github.com/pojntfx/pojde-rs/internal/errors"
	"github.com/pojntfx/pojde-rs/internal/logging"
	"github.com/pojntfx/pojde-rs/internal/metrics"
	"github.com/pojntfx/pojde-rs/internal/runtime"
)

// Manager lists, controls and connects to instances through a runtime
// client. It is safe for concurrent use.
type Manager struct {
	client  runtime.Client
	cfg     *config.Config
	naming  Naming
	audit   *audit.Logger
	metrics *metrics.Metrics
	tunnels TunnelDialer
	logger  *slog.Logger
}

// Option configures a Manager.
type Option func(*Manager)

// WithAuditLogger records lifecycle events.
func WithAuditLogger(l *audit.Logger) Option {
	return func(m *Manager) {
		m.audit = l
	}
}

// WithMetrics records operation metrics.
func WithMetrics(mt *metrics.Metrics) Option {
	return func(m *Manager) {
		m.metrics = mt
	}
}

// WithTunnelDialer replaces the SSH tunnel dialer used by Forward.
func WithTunnelDialer(d TunnelDialer) Option {
	return func(m *Manager) {
		m.tunnels = d
	}
}

// NewManager creates a Manager. cfg must not be modified afterwards.
func NewManager(client runtime.Client, cfg *config.Config, opts ...Option) (*Manager, error) {
	if client == nil {
		return nil, errors.ConfigError("runtime client is required", nil)
	}
	if cfg == nil {
		cfg = config.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, errors.ConfigError("invalid configuration", err)
	}

	m := &Manager{
		client: client,
		cfg:    cfg,
		naming: NewNaming(cfg.Instance.Prefix),
		logger: logging.With("component", "instance"),
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.tunnels == nil {
		m.tunnels = NewSSHDialer(cfg.SSH)
	}
	return m, nil
}

// Naming returns the naming convention in use.
func (m *Manager) Naming() Naming {
	return m.naming
}

// Config returns the configuration the manager was created with.
func (m *Manager) Config() *config.Config {
	return m.cfg
}

// Client returns the runtime client.
func (m *Manager) Client() runtime.Client {
	return m.client
}

// runtimeError maps a runtime client error for an operation on name.
func (m *Manager) runtimeError(op, name string, err error) error {
	switch {
	case errors.Is(err, runtime.ErrNotFound):
		return errors.InstanceNotFound(name)
	case errors.Is(err, errors.ErrRuntimeUnavailable), errors.Is(err, errors.ErrRuntimeRequestFailed):
		return err
	default:
		return errors.RuntimeRequestFailed(op, err)
	}
}

// resolve validates a user-facing name and returns its runtime name.
func (m *Manager) resolve(name string) (string, error) {
	if err := config.ValidateInstanceName(name); err != nil {
		return "", errors.NotAnInstance(name)
	}
	return m.naming.ToRuntimeName(name), nil
}

// List returns every instance, running or not, sorted by name. Containers
// without the instance prefix are skipped.
func (m *Manager) List(ctx context.Context) ([]Instance, error) {
	records, err := m.client.List(ctx, runtime.ListOptions{
		NameFilter: m.naming.ListFilter(),
		All:        true,
	})
	if err != nil {
		return nil, m.runtimeError("list", "", err)
	}

	instances := make([]Instance, 0, len(records))
	byStatus := make(map[string]int)
	for _, rec := range records {
		inst, ok := project(m.naming, rec)
		if !ok {
			m.logger.Debug("skipping foreign container", "names", rec.Names)
			continue
		}
		instances = append(instances, inst)
		byStatus[inst.Status]++
	}

	sort.Slice(instances, func(i, j int) bool {
		return instances[i].Name < instances[j].Name
	})
	m.metrics.SetInstances(byStatus)

	return instances, nil
}

// Inspect returns the runtime details of one instance.
func (m *Manager) Inspect(ctx context.Context, name string) (*runtime.ContainerDetail, error) {
	runtimeName, err := m.resolve(name)
	if err != nil {
		return nil, err
	}
	detail, err := m.client.Inspect(ctx, runtimeName)
	if err != nil {
		return nil, m.runtimeError("inspect", name, err)
	}
	return detail, nil
}

// Get returns the projection of one instance.
func (m *Manager) Get(ctx context.Context, name string) (*Instance, error) {
	detail, err := m.Inspect(ctx, name)
	if err != nil {
		return nil, err
	}
	inst := projectDetail(name, detail)
	return &inst, nil
}

// ServicePort returns the host port the instance's service port is
// published on.
func (m *Manager) ServicePort(ctx context.Context, name string) (int, error) {
	detail, err := m.Inspect(ctx, name)
	if err != nil {
		return 0, err
	}
	return m.servicePort(name, detail)
}

func (m *Manager) servicePort(name string, detail *runtime.ContainerDetail) (int, error) {
	key := m.cfg.Instance.ServicePortKey()
	for _, b := range detail.Ports[key] {
		if b.HostPort == "" {
			continue
		}
		var p int
		if _, err := fmt.Sscanf(b.HostPort, "%d", &p); err == nil && p > 0 {
			return p, nil
		}
	}
	return 0, errors.PortNotPublished(name, key)
}

// logEvent records an audit event when an audit logger is configured.
func (m *Manager) logEvent(t audit.EventType, name, outcome, details string) {
	if m.audit == nil {
		return
	}
	if err := m.audit.LogEvent(t, name, outcome, details); err != nil {
		m.logger.Warn("failed to write audit event", "instance", name, "error", err)
	}
}
