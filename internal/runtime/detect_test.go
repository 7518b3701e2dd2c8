package runtime

import (
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Type != RuntimeAuto {
		t.Errorf("expected RuntimeAuto, got %s", cfg.Type)
	}
	if cfg.Host != "" {
		t.Errorf("expected empty host, got %s", cfg.Host)
	}
}

func TestAvailable(t *testing.T) {
	// Just ensure it doesn't panic
	available := Available()
	t.Logf("available runtimes: %v", available)
}

func TestDetect_DockerHost(t *testing.T) {
	t.Setenv("DOCKER_HOST", "tcp://10.0.0.2:2375")

	rt, host, err := Detect()
	if err != nil {
		t.Fatalf("Detect() error = %v", err)
	}
	if rt != RuntimeDocker {
		t.Errorf("runtime = %s, want docker", rt)
	}
	if host != "tcp://10.0.0.2:2375" {
		t.Errorf("host = %q", host)
	}
}

func TestDetect_PodmanHost(t *testing.T) {
	t.Setenv("DOCKER_HOST", "unix:///run/user/1000/podman/podman.sock")

	rt, _, err := Detect()
	if err != nil {
		t.Fatalf("Detect() error = %v", err)
	}
	if rt != RuntimePodman {
		t.Errorf("runtime = %s, want podman", rt)
	}
}

func TestNew_UnknownType(t *testing.T) {
	_, err := New(&Config{Type: "nspawn"})
	if err == nil {
		t.Fatal("New() should fail for unknown runtime type")
	}
}

func TestNew_ExplicitHost(t *testing.T) {
	// Client creation does not contact the daemon.
	c, err := New(&Config{Type: RuntimeAuto, Host: "tcp://127.0.0.1:1"})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer c.Close()

	if c.Name() != "docker" {
		t.Errorf("Name() = %q, want docker", c.Name())
	}
}

func TestRuntimeTypes(t *testing.T) {
	tests := []struct {
		rt   RuntimeType
		want string
	}{
		{RuntimeDocker, "docker"},
		{RuntimePodman, "podman"},
		{RuntimeAuto, "auto"},
	}

	for _, tt := range tests {
		if string(tt.rt) != tt.want {
			t.Errorf("RuntimeType %v != %s", tt.rt, tt.want)
		}
	}
}
