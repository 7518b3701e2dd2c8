package runtime

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/docker/docker/api/types"
	"github.com/docker/go-connections/nat"

	ctlerrors "github.com/pojntfx/pojde-rs/internal/errors"
)

func TestDockerClient_Name(t *testing.T) {
	c, err := NewDockerClient("podman", "unix:///run/podman/podman.sock", "")
	if err != nil {
		t.Fatalf("NewDockerClient() error = %v", err)
	}
	defer c.Close()

	if c.Name() != "podman" {
		t.Errorf("Name() = %q, want %q", c.Name(), "podman")
	}

	d, err := NewDockerClient("", "unix:///var/run/docker.sock", "1.45")
	if err != nil {
		t.Fatalf("NewDockerClient() error = %v", err)
	}
	defer d.Close()

	if d.Name() != "docker" {
		t.Errorf("Name() = %q, want %q", d.Name(), "docker")
	}
}

func TestRecordFromSummary(t *testing.T) {
	summary := types.Container{
		ID:     "abc123",
		Names:  []string{"/pojde-felix"},
		State:  "running",
		Status: "Up 2 hours",
		Ports: []types.Port{
			{IP: "0.0.0.0", PrivatePort: 8000, PublicPort: 8000, Type: "tcp"},
			{PrivatePort: 9000, Type: "tcp"},
		},
	}

	rec := recordFromSummary(summary)

	if rec.ID != "abc123" || rec.State != "running" || rec.Status != "Up 2 hours" {
		t.Errorf("record = %+v", rec)
	}
	if len(rec.Names) != 1 || rec.Names[0] != "/pojde-felix" {
		t.Errorf("Names = %v", rec.Names)
	}
	if len(rec.Ports) != 2 {
		t.Fatalf("len(Ports) = %d, want 2", len(rec.Ports))
	}
	if rec.Ports[0].PublicPort != 8000 || rec.Ports[1].PublicPort != 0 {
		t.Errorf("Ports = %+v", rec.Ports)
	}
}

func TestDetailFromInspect(t *testing.T) {
	info := types.ContainerJSON{
		ContainerJSONBase: &types.ContainerJSONBase{
			ID:   "abc123",
			Name: "/pojde-felix",
			State: &types.ContainerState{
				Status:    "running",
				Running:   true,
				StartedAt: "2024-05-01T10:00:00.123456789Z",
			},
		},
		NetworkSettings: &types.NetworkSettings{
			NetworkSettingsBase: types.NetworkSettingsBase{
				Ports: nat.PortMap{
					nat.Port("8005/tcp"): []nat.PortBinding{{HostIP: "0.0.0.0", HostPort: "8005"}},
				},
			},
		},
	}

	detail := detailFromInspect(info)

	if !detail.Running || detail.State != "running" {
		t.Errorf("state = %q running = %v", detail.State, detail.Running)
	}
	if detail.StartedAt.IsZero() {
		t.Error("StartedAt should be parsed")
	}
	bindings := detail.Ports["8005/tcp"]
	if len(bindings) != 1 || bindings[0].HostPort != "8005" {
		t.Errorf("Ports[8005/tcp] = %+v", bindings)
	}
}

func TestDetailFromInspect_NoNetwork(t *testing.T) {
	info := types.ContainerJSON{
		ContainerJSONBase: &types.ContainerJSONBase{
			ID:    "abc",
			Name:  "/pojde-x",
			State: &types.ContainerState{Status: "exited", StartedAt: "0001-01-01T00:00:00Z"},
		},
	}

	detail := detailFromInspect(info)
	if detail.Running {
		t.Error("Running should be false")
	}
	if len(detail.Ports) != 0 {
		t.Errorf("Ports = %v, want empty", detail.Ports)
	}
}

func TestStopOptions(t *testing.T) {
	if opts := stopOptions(nil); opts.Timeout != nil {
		t.Errorf("nil timeout should leave Timeout unset, got %d", *opts.Timeout)
	}

	d := 7 * time.Second
	opts := stopOptions(&d)
	if opts.Timeout == nil || *opts.Timeout != 7 {
		t.Errorf("Timeout = %v, want 7", opts.Timeout)
	}
}

func TestClassify(t *testing.T) {
	if classify("list", "", nil) != nil {
		t.Error("classify(nil) should be nil")
	}

	err := classify("start", "pojde-x", errors.New("boom"))
	if !ctlerrors.Is(err, ctlerrors.ErrRuntimeRequestFailed) {
		t.Errorf("generic error should be a request failure, got %v", err)
	}
}

// fakeEngine serves the parts of the Engine API used by lifecycle
// requests. Containers map runtime names to their running state.
type fakeEngine struct {
	mu         sync.Mutex
	containers map[string]bool
	forced     map[string]int
	actions    []string
}

func newFakeEngine(t *testing.T, containers map[string]bool) (*fakeEngine, *DockerClient) {
	t.Helper()
	t.Setenv("DOCKER_HOST", "")
	t.Setenv("DOCKER_TLS_VERIFY", "")
	t.Setenv("DOCKER_CERT_PATH", "")

	e := &fakeEngine{containers: containers, forced: map[string]int{}}
	srv := httptest.NewServer(e)
	t.Cleanup(srv.Close)

	c, err := NewDockerClient("docker", "tcp://"+strings.TrimPrefix(srv.URL, "http://"), "1.45")
	if err != nil {
		t.Fatalf("NewDockerClient() error = %v", err)
	}
	t.Cleanup(func() { c.Close() })
	return e, c
}

// force makes the next requests for action answer with status.
func (e *fakeEngine) force(action string, status int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.forced[action] = status
}

func (e *fakeEngine) actionCount(action string) int {
	e.mu.Lock()
	defer e.mu.Unlock()
	n := 0
	for _, a := range e.actions {
		if a == action {
			n++
		}
	}
	return n
}

func (e *fakeEngine) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	e.mu.Lock()
	defer e.mu.Unlock()

	// /v1.45/containers/<id>/<action>
	parts := strings.Split(strings.TrimPrefix(r.URL.Path, "/"), "/")
	if len(parts) != 4 || parts[1] != "containers" {
		http.NotFound(w, r)
		return
	}
	id, action := parts[2], parts[3]
	e.actions = append(e.actions, action)

	running, ok := e.containers[id]
	if !ok {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		json.NewEncoder(w).Encode(map[string]string{"message": "No such container: " + id})
		return
	}

	if status, ok := e.forced[action]; ok {
		w.WriteHeader(status)
		return
	}

	switch action {
	case "json":
		status := "exited"
		if running {
			status = "running"
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"Id":   "id-" + id,
			"Name": "/" + id,
			"State": map[string]any{
				"Status":    status,
				"Running":   running,
				"StartedAt": "2024-05-01T10:00:00Z",
			},
		})
	case "start":
		if running {
			w.WriteHeader(http.StatusNotModified)
			return
		}
		e.containers[id] = true
		w.WriteHeader(http.StatusNoContent)
	case "stop":
		if !running {
			w.WriteHeader(http.StatusNotModified)
			return
		}
		e.containers[id] = false
		w.WriteHeader(http.StatusNoContent)
	default:
		http.NotFound(w, r)
	}
}

func TestDockerClient_StartOutcomes(t *testing.T) {
	e, c := newFakeEngine(t, map[string]bool{"pojde-up": true, "pojde-down": false})
	ctx := context.Background()

	outcome, err := c.Start(ctx, "pojde-up")
	if err != nil || outcome != OutcomeAlreadyInState {
		t.Errorf("Start(running) = %v, %v; want already in state", outcome, err)
	}
	if e.actionCount("start") != 0 {
		t.Error("Start(running) should not send a start request")
	}

	outcome, err = c.Start(ctx, "pojde-down")
	if err != nil || outcome != OutcomeChanged {
		t.Errorf("Start(exited) = %v, %v; want changed", outcome, err)
	}
}

func TestDockerClient_StopOutcomes(t *testing.T) {
	_, c := newFakeEngine(t, map[string]bool{"pojde-up": true, "pojde-down": false})
	ctx := context.Background()

	outcome, err := c.Stop(ctx, "pojde-down", nil)
	if err != nil || outcome != OutcomeAlreadyInState {
		t.Errorf("Stop(exited) = %v, %v; want already in state", outcome, err)
	}

	timeout := time.Second
	outcome, err = c.Stop(ctx, "pojde-up", &timeout)
	if err != nil || outcome != OutcomeChanged {
		t.Errorf("Stop(running) = %v, %v; want changed", outcome, err)
	}
}

func TestDockerClient_NotModifiedAfterInspect(t *testing.T) {
	// The container changes state between the inspect and the request,
	// so the daemon answers 304.
	e, c := newFakeEngine(t, map[string]bool{"pojde-down": false, "pojde-up": true})
	e.force("start", http.StatusNotModified)
	e.force("stop", http.StatusNotModified)
	ctx := context.Background()

	outcome, err := c.Start(ctx, "pojde-down")
	if err != nil || outcome != OutcomeAlreadyInState {
		t.Errorf("Start() on 304 = %v, %v; want already in state", outcome, err)
	}

	outcome, err = c.Stop(ctx, "pojde-up", nil)
	if err != nil || outcome != OutcomeAlreadyInState {
		t.Errorf("Stop() on 304 = %v, %v; want already in state", outcome, err)
	}
}

func TestDockerClient_NotFound(t *testing.T) {
	_, c := newFakeEngine(t, map[string]bool{})
	ctx := context.Background()

	if _, err := c.Inspect(ctx, "pojde-missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Inspect() error = %v, want ErrNotFound", err)
	}

	outcome, err := c.Start(ctx, "pojde-missing")
	if !errors.Is(err, ErrNotFound) || outcome != OutcomeFailed {
		t.Errorf("Start() = %v, %v; want failed with ErrNotFound", outcome, err)
	}
}

func TestDockerClient_RequestFailure(t *testing.T) {
	e, c := newFakeEngine(t, map[string]bool{"pojde-down": false})
	e.force("start", http.StatusInternalServerError)

	outcome, err := c.Start(context.Background(), "pojde-down")
	if !ctlerrors.Is(err, ctlerrors.ErrRuntimeRequestFailed) || outcome != OutcomeFailed {
		t.Errorf("Start() = %v, %v; want failed request", outcome, err)
	}
}
