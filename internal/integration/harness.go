package integration

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/image"
	"github.com/docker/docker/client"
	"github.com/docker/go-connections/nat"
	"github.com/google/uuid"

	"github.com/pojntfx/pojde-rs/internal/config"
	"github.com/pojntfx/pojde-rs/internal/instance"
	"github.com/pojntfx/pojde-rs/internal/runtime"
)

// HarnessImage is the image backing harness instances. It prints a marker
// line and then sleeps so logs and exec have something to work with.
const HarnessImage = "docker.io/library/busybox:1.36"

// ReadyMarker is the first log line of every harness instance.
const ReadyMarker = "pojde harness ready"

// Harness creates throwaway instances on a real runtime and wires a
// Manager to them.
type Harness struct {
	t       *testing.T
	docker  *client.Client
	client  runtime.Client
	cfg     *config.Config
	manager *instance.Manager
	created []string
}

// NewHarness creates a harness with a prefix unique to this run.
// It skips the test if POJDECTL_INTEGRATION_TESTS is not set or no runtime
// is reachable.
func NewHarness(t *testing.T) *Harness {
	t.Helper()

	if os.Getenv("POJDECTL_INTEGRATION_TESTS") != "1" {
		t.Skip("integration tests disabled (set POJDECTL_INTEGRATION_TESTS=1)")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	rtCfg := runtime.DefaultConfig()
	rt, err := runtime.New(rtCfg)
	if err != nil {
		t.Skipf("container runtime not available: %v", err)
	}
	if _, err := rt.Ping(ctx); err != nil {
		t.Skipf("container runtime not responsive: %v", err)
	}

	docker, err := client.NewClientWithOpts(client.FromEnv, client.WithAPIVersionNegotiation())
	if err != nil {
		t.Skipf("docker client not available: %v", err)
	}

	cfg := config.Default()
	cfg.Instance.Prefix = "pojdeit-" + uuid.NewString()[:8] + "-"
	cfg.Lifecycle.StopTimeout = config.Duration{Duration: time.Second}

	m, err := instance.NewManager(rt, cfg)
	if err != nil {
		t.Fatalf("failed to create manager: %v", err)
	}

	h := &Harness{
		t:       t,
		docker:  docker,
		client:  rt,
		cfg:     cfg,
		manager: m,
	}
	t.Cleanup(h.cleanup)
	return h
}

// Manager returns the manager bound to the harness prefix.
func (h *Harness) Manager() *instance.Manager {
	return h.manager
}

// Config returns the harness configuration.
func (h *Harness) Config() *config.Config {
	return h.cfg
}

// pullImage pulls HarnessImage unless it is already present.
func (h *Harness) pullImage(ctx context.Context) {
	h.t.Helper()

	if _, _, err := h.docker.ImageInspectWithRaw(ctx, HarnessImage); err == nil {
		return
	}
	rc, err := h.docker.ImagePull(ctx, HarnessImage, image.PullOptions{})
	if err != nil {
		h.t.Skipf("failed to pull %s: %v", HarnessImage, err)
	}
	defer rc.Close()
	io.Copy(io.Discard, rc)
}

// CreateInstance creates an instance called name with the service port
// published on a random host port. It is started when start is set.
func (h *Harness) CreateInstance(name string, start bool) {
	h.t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	h.pullImage(ctx)

	servicePort := nat.Port(h.cfg.Instance.ServicePortKey())
	runtimeName := h.cfg.Instance.Prefix + name
	resp, err := h.docker.ContainerCreate(ctx,
		&container.Config{
			Image:        HarnessImage,
			Cmd:          []string{"sh", "-c", "echo '" + ReadyMarker + "'; exec sleep 3600"},
			ExposedPorts: nat.PortSet{servicePort: struct{}{}},
		},
		&container.HostConfig{
			PortBindings: nat.PortMap{
				servicePort: []nat.PortBinding{{HostIP: "127.0.0.1", HostPort: "0"}},
			},
		},
		nil, nil, runtimeName)
	if err != nil {
		h.t.Fatalf("failed to create %s: %v", runtimeName, err)
	}
	h.created = append(h.created, resp.ID)

	if start {
		if err := h.docker.ContainerStart(ctx, resp.ID, container.StartOptions{}); err != nil {
			h.t.Fatalf("failed to start %s: %v", runtimeName, err)
		}
	}
}

// WaitForLog polls the instance logs until marker appears.
func (h *Harness) WaitForLog(name, marker string, timeout time.Duration) {
	h.t.Helper()

	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if strings.Contains(h.logs(name), marker) {
			return
		}
		time.Sleep(200 * time.Millisecond)
	}
	h.t.Fatalf("timeout waiting for %q in logs of %s", marker, name)
}

func (h *Harness) logs(name string) string {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	stream, err := h.manager.Logs(ctx, name, instance.LogsOptions{Tail: "all"})
	if err != nil {
		return ""
	}
	defer stream.Close()

	var b strings.Builder
	instance.Relay(stream, &b, &b)
	return b.String()
}

// HostPort returns the published host port of the instance service port.
func (h *Harness) HostPort(name string) int {
	h.t.Helper()

	port, err := h.manager.ServicePort(context.Background(), name)
	if err != nil {
		h.t.Fatalf("ServicePort(%s) error = %v", name, err)
	}
	return port
}

func (h *Harness) cleanup() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	for _, id := range h.created {
		if err := h.docker.ContainerRemove(ctx, id, container.RemoveOptions{Force: true}); err != nil {
			h.t.Logf("cleanup: failed to remove %s: %v", id, err)
		}
	}
	h.client.Close()
	h.docker.Close()
}

// String describes the harness for test logs.
func (h *Harness) String() string {
	return fmt.Sprintf("harness(prefix=%s, instances=%d)", h.cfg.Instance.Prefix, len(h.created))
}
