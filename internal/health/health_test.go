package health

import (
	"context"
	"testing"
	"time"

	"github.com/pojntfx/pojde-rs/internal/config"
	"github.com/pojntfx/pojde-rs/internal/errors"
	"github.com/pojntfx/pojde-rs/internal/instance"
	"github.com/pojntfx/pojde-rs/internal/runtime"
	"github.com/pojntfx/pojde-rs/internal/ssh"
)

func TestStatusConstants(t *testing.T) {
	tests := []struct {
		status Status
		want   string
	}{
		{StatusHealthy, "healthy"},
		{StatusUnhealthy, "unhealthy"},
		{StatusNoPort, "no-port"},
		{StatusStopped, "stopped"},
	}

	for _, tt := range tests {
		if string(tt.status) != tt.want {
			t.Errorf("Status %v = %q, want %q", tt.status, tt.status, tt.want)
		}
	}
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		name     string
		duration time.Duration
		want     string
	}{
		{"seconds", 30 * time.Second, "30s"},
		{"one minute", 1 * time.Minute, "1m"},
		{"minutes", 45 * time.Minute, "45m"},
		{"one hour", 1 * time.Hour, "1h 0m"},
		{"hours and minutes", 2*time.Hour + 30*time.Minute, "2h 30m"},
		{"one day", 24 * time.Hour, "1d 0h"},
		{"days and hours", 3*24*time.Hour + 5*time.Hour, "3d 5h"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := formatDuration(tt.duration)
			if got != tt.want {
				t.Errorf("formatDuration(%v) = %q, want %q", tt.duration, got, tt.want)
			}
		})
	}
}

func TestGetUptime_Zero(t *testing.T) {
	if got := GetUptime(time.Time{}); got != "unknown" {
		t.Errorf("GetUptime(zero) = %q, want unknown", got)
	}
}

func newManager(t *testing.T) (*instance.Manager, *runtime.MockClient) {
	t.Helper()
	client := runtime.NewMockClient()
	m, err := instance.NewManager(client, config.Default())
	if err != nil {
		t.Fatalf("NewManager() error = %v", err)
	}
	return m, client
}

func TestCheck(t *testing.T) {
	m, client := newManager(t)
	client.AddContainer("pojde-up", runtime.StateRunning)
	client.Publish("pojde-up", "8005/tcp", "49200")
	client.AddContainer("pojde-noport", runtime.StateRunning)
	client.AddContainer("pojde-down", runtime.StateExited)

	var probed []int
	probe := ProberFunc(func(_ context.Context, p int) bool {
		probed = append(probed, p)
		return p == 49200
	})

	tests := []struct {
		name string
		want Status
	}{
		{"up", StatusHealthy},
		{"noport", StatusNoPort},
		{"down", StatusStopped},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := Check(context.Background(), m, tt.name, probe)
			if err != nil {
				t.Fatalf("Check() error = %v", err)
			}
			if got := result.Summary(); got != tt.want {
				t.Errorf("Summary() = %s, want %s", got, tt.want)
			}
		})
	}

	if len(probed) != 1 || probed[0] != 49200 {
		t.Errorf("probed ports = %v, want [49200]", probed)
	}
}

func TestCheck_Unhealthy(t *testing.T) {
	m, client := newManager(t)
	client.AddContainer("pojde-a", runtime.StateRunning)
	client.Publish("pojde-a", "8005/tcp", "49200")

	result, err := Check(context.Background(), m, "a", ProberFunc(func(context.Context, int) bool { return false }))
	if err != nil {
		t.Fatalf("Check() error = %v", err)
	}
	if result.Summary() != StatusUnhealthy {
		t.Errorf("Summary() = %s, want unhealthy", result.Summary())
	}
	if result.Uptime == "" || result.Uptime == "unknown" {
		t.Errorf("Uptime = %q, want a duration", result.Uptime)
	}
}

func TestCheck_NotFound(t *testing.T) {
	m, _ := newManager(t)

	_, err := Check(context.Background(), m, "missing", nil)
	if !errors.Is(err, errors.ErrInstanceNotFound) {
		t.Errorf("Check() error = %v, want instance not found", err)
	}
}

func TestSSHProber_Unreachable(t *testing.T) {
	t.Setenv("SSH_AUTH_SOCK", "")
	opts := ssh.DefaultOptions(0).WithHost("192.0.2.1").WithTimeout(200 * time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if SSHProber(opts).Probe(ctx, 22) {
		t.Error("Probe() should fail for an unreachable host")
	}
}
