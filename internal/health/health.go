package health

import (
	"context"
	"fmt"
	"time"

	"github.com/pojntfx/pojde-rs/internal/errors"
	"github.com/pojntfx/pojde-rs/internal/instance"
	"github.com/pojntfx/pojde-rs/internal/ssh"
)

// Status represents the health status of an instance
type Status string

const (
	StatusHealthy   Status = "healthy"
	StatusUnhealthy Status = "unhealthy"
	StatusNoPort    Status = "no-port"
	StatusStopped   Status = "stopped"
)

// Prober reports whether the service on a host port answers.
type Prober interface {
	Probe(ctx context.Context, hostPort int) bool
}

// ProberFunc adapts a function to Prober.
type ProberFunc func(ctx context.Context, hostPort int) bool

// Probe calls f.
func (f ProberFunc) Probe(ctx context.Context, hostPort int) bool {
	return f(ctx, hostPort)
}

// SSHProber checks that an SSH session can be established.
func SSHProber(opts ssh.Options) Prober {
	return ProberFunc(func(ctx context.Context, hostPort int) bool {
		return ssh.CheckConnection(ctx, opts.WithPort(hostPort))
	})
}

// CheckResult contains the results of health checks
type CheckResult struct {
	Instance         string    `json:"instance"`
	State            string    `json:"state"`
	ContainerRunning bool      `json:"running"`
	ServicePort      int       `json:"service_port,omitempty"`
	SSHReachable     bool      `json:"ssh_reachable"`
	StartedAt        time.Time `json:"started_at,omitempty"`
	Uptime           string    `json:"uptime,omitempty"`
}

// Summary returns the overall status.
func (r *CheckResult) Summary() Status {
	switch {
	case !r.ContainerRunning:
		return StatusStopped
	case r.ServicePort == 0:
		return StatusNoPort
	case !r.SSHReachable:
		return StatusUnhealthy
	default:
		return StatusHealthy
	}
}

// GetUptime returns the time since start in human-readable format.
func GetUptime(startedAt time.Time) string {
	if startedAt.IsZero() {
		return "unknown"
	}
	return formatDuration(time.Since(startedAt))
}

func formatDuration(d time.Duration) string {
	if d < time.Minute {
		return fmt.Sprintf("%ds", int(d.Seconds()))
	} else if d < time.Hour {
		return fmt.Sprintf("%dm", int(d.Minutes()))
	} else if d < 24*time.Hour {
		hours := int(d.Hours())
		mins := int(d.Minutes()) % 60
		return fmt.Sprintf("%dh %dm", hours, mins)
	}
	days := int(d.Hours()) / 24
	hours := int(d.Hours()) % 24
	return fmt.Sprintf("%dd %dh", days, hours)
}

// Check performs all health checks for an instance. Only failures to
// inspect the instance are returned as errors; failed checks are reported
// in the result. probe may be nil to skip the SSH check.
func Check(ctx context.Context, m *instance.Manager, name string, probe Prober) (*CheckResult, error) {
	detail, err := m.Inspect(ctx, name)
	if err != nil {
		return nil, err
	}

	result := &CheckResult{
		Instance:         name,
		State:            detail.State,
		ContainerRunning: detail.Running,
	}
	if !result.ContainerRunning {
		return result, nil
	}

	result.StartedAt = detail.StartedAt
	result.Uptime = GetUptime(detail.StartedAt)

	hostPort, err := m.ServicePort(ctx, name)
	if err != nil {
		if errors.Is(err, errors.ErrPortNotPublished) {
			return result, nil
		}
		return nil, err
	}
	result.ServicePort = hostPort

	if probe != nil {
		result.SSHReachable = probe.Probe(ctx, hostPort)
	}

	return result, nil
}
