package integration

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/pojntfx/pojde-rs/internal/instance"
	"github.com/pojntfx/pojde-rs/internal/runtime"
)

func TestDocker_ListOnlyPrefixed(t *testing.T) {
	h := NewHarness(t)
	h.CreateInstance("alpha", true)
	h.CreateInstance("beta", false)

	instances, err := h.Manager().List(context.Background())
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}

	seen := map[string]string{}
	for _, inst := range instances {
		seen[inst.Name] = inst.Status
	}
	if len(seen) != 2 {
		t.Fatalf("List() = %v, want exactly alpha and beta", seen)
	}
	if seen["alpha"] != runtime.StateRunning {
		t.Errorf("alpha status = %q, want running", seen["alpha"])
	}
	if seen["beta"] == runtime.StateRunning {
		t.Errorf("beta should not be running")
	}
}

func TestDocker_StartStopIdempotent(t *testing.T) {
	h := NewHarness(t)
	h.CreateInstance("alpha", false)
	m := h.Manager()
	ctx := context.Background()

	res, err := m.Start(ctx, []string{"alpha"})
	if err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if got := res.Results[0].Outcome; got != runtime.OutcomeChanged {
		t.Errorf("first Start() outcome = %s, want changed", got)
	}

	res, err = m.Start(ctx, []string{"alpha"})
	if err != nil {
		t.Fatalf("second Start() error = %v", err)
	}
	if got := res.Results[0].Outcome; got != runtime.OutcomeAlreadyInState {
		t.Errorf("second Start() outcome = %s, want already in state", got)
	}

	if h.HostPort("alpha") <= 0 {
		t.Error("service port should be published on a host port")
	}

	res, err = m.Stop(ctx, []string{"alpha"})
	if err != nil {
		t.Fatalf("Stop() error = %v", err)
	}
	if got := res.Results[0].Outcome; got != runtime.OutcomeChanged {
		t.Errorf("Stop() outcome = %s, want changed", got)
	}

	res, err = m.Stop(ctx, []string{"alpha"})
	if err != nil {
		t.Fatalf("second Stop() error = %v", err)
	}
	if got := res.Results[0].Outcome; got != runtime.OutcomeAlreadyInState {
		t.Errorf("second Stop() outcome = %s, want already in state", got)
	}
}

func TestDocker_LogsAndEnter(t *testing.T) {
	h := NewHarness(t)
	h.CreateInstance("alpha", true)
	h.WaitForLog("alpha", ReadyMarker, 30*time.Second)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	stream, err := h.Manager().Enter(ctx, "alpha", instance.EnterOptions{
		Command: []string{"sh", "-c", "echo out; echo err >&2"},
	})
	if err != nil {
		t.Fatalf("Enter() error = %v", err)
	}
	defer stream.Close()

	var stdout, stderr strings.Builder
	if err := instance.Relay(stream, &stdout, &stderr); err != nil {
		t.Fatalf("Relay() error = %v", err)
	}
	if strings.TrimSpace(stdout.String()) != "out" {
		t.Errorf("stdout = %q, want %q", stdout.String(), "out")
	}
	if strings.TrimSpace(stderr.String()) != "err" {
		t.Errorf("stderr = %q, want %q", stderr.String(), "err")
	}
}

func TestDocker_EnterStoppedInstance(t *testing.T) {
	h := NewHarness(t)
	h.CreateInstance("alpha", false)

	if _, err := h.Manager().Enter(context.Background(), "alpha", instance.EnterOptions{}); err == nil {
		t.Error("Enter() on a stopped instance should fail")
	}
}
