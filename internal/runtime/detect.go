package runtime

import (
	"fmt"
	"os"
	"path/filepath"
	goruntime "runtime"
	"strings"

	"github.com/pojntfx/pojde-rs/internal/logging"
)

// RuntimeType identifies which container runtime to use
type RuntimeType string

const (
	RuntimeDocker RuntimeType = "docker"
	RuntimePodman RuntimeType = "podman"
	RuntimeAuto   RuntimeType = "auto"
)

// Config holds runtime configuration
type Config struct {
	// Type specifies which runtime to use (or "auto" for auto-detection)
	Type RuntimeType

	// Host is the daemon endpoint, e.g. unix:///var/run/docker.sock.
	// Empty means DOCKER_HOST or the detected socket.
	Host string

	// APIVersion pins the Engine API version; empty negotiates it
	APIVersion string
}

// DefaultConfig returns the default runtime configuration
func DefaultConfig() *Config {
	return &Config{
		Type: RuntimeAuto,
	}
}

// socketCandidate is a well-known daemon socket.
type socketCandidate struct {
	runtime RuntimeType
	path    string
}

func socketCandidates() []socketCandidate {
	candidates := []socketCandidate{
		{RuntimeDocker, "/var/run/docker.sock"},
	}
	if home, err := os.UserHomeDir(); err == nil && goruntime.GOOS == "darwin" {
		candidates = append(candidates, socketCandidate{RuntimeDocker, filepath.Join(home, ".docker", "run", "docker.sock")})
	}
	if dir := os.Getenv("XDG_RUNTIME_DIR"); dir != "" {
		candidates = append(candidates, socketCandidate{RuntimePodman, filepath.Join(dir, "podman", "podman.sock")})
	}
	candidates = append(candidates, socketCandidate{RuntimePodman, "/run/podman/podman.sock"})
	return candidates
}

// Detect determines which container runtime is available on the system.
// It returns the runtime type and the daemon host to connect to.
func Detect() (RuntimeType, string, error) {
	logging.Debug("detecting container runtime", "os", goruntime.GOOS)

	if host := os.Getenv("DOCKER_HOST"); host != "" {
		rt := RuntimeDocker
		if strings.Contains(host, "podman") {
			rt = RuntimePodman
		}
		logging.Debug("using DOCKER_HOST", "host", host, "runtime", rt)
		return rt, host, nil
	}

	switch goruntime.GOOS {
	case "linux", "darwin":
	default:
		return "", "", fmt.Errorf("unsupported operating system: %s", goruntime.GOOS)
	}

	for _, c := range socketCandidates() {
		if _, err := os.Stat(c.path); err == nil {
			logging.Debug("detected runtime socket", "runtime", c.runtime, "path", c.path)
			return c.runtime, "unix://" + c.path, nil
		}
	}

	return "", "", fmt.Errorf("no supported container runtime found (tried: docker, podman sockets)")
}

// New creates a new Client based on the configuration.
// If Type is RuntimeAuto, it auto-detects the runtime.
func New(cfg *Config) (Client, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}

	runtimeType := cfg.Type
	host := cfg.Host
	if runtimeType == "" {
		runtimeType = RuntimeAuto
	}
	if runtimeType == RuntimeAuto {
		if host != "" {
			runtimeType = RuntimeDocker
		} else {
			detected, detectedHost, err := Detect()
			if err != nil {
				return nil, err
			}
			runtimeType, host = detected, detectedHost
		}
	}

	logging.Debug("creating runtime client", "type", runtimeType, "host", host)

	switch runtimeType {
	case RuntimeDocker, RuntimePodman:
		return NewDockerClient(string(runtimeType), host, cfg.APIVersion)
	default:
		return nil, fmt.Errorf("unknown runtime type: %s", runtimeType)
	}
}

// Available returns the runtimes with a reachable socket on this system
func Available() []RuntimeType {
	var available []RuntimeType
	seen := make(map[RuntimeType]bool)
	for _, c := range socketCandidates() {
		if seen[c.runtime] {
			continue
		}
		if _, err := os.Stat(c.path); err == nil {
			available = append(available, c.runtime)
			seen[c.runtime] = true
		}
	}
	return available
}
