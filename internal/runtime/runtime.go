package runtime

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is wrapped by client errors when a container does not exist.
var ErrNotFound = errors.New("container not found")

// Outcome is the result of a lifecycle request.
type Outcome int

const (
	// OutcomeChanged means the container transitioned to the requested state.
	OutcomeChanged Outcome = iota
	// OutcomeAlreadyInState means the container was already in the requested state.
	OutcomeAlreadyInState
	// OutcomeFailed accompanies a non-nil error.
	OutcomeFailed
)

func (o Outcome) String() string {
	switch o {
	case OutcomeChanged:
		return "changed"
	case OutcomeAlreadyInState:
		return "already-in-state"
	case OutcomeFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Success reports whether the outcome counts as a successful request.
func (o Outcome) Success() bool {
	return o == OutcomeChanged || o == OutcomeAlreadyInState
}

// Container states as reported by the runtime.
const (
	StateRunning    = "running"
	StateExited     = "exited"
	StateCreated    = "created"
	StatePaused     = "paused"
	StateRestarting = "restarting"
	StateDead       = "dead"
)

// PortMapping is one port entry of a container listing.
type PortMapping struct {
	IP          string
	PrivatePort uint16
	PublicPort  uint16 // 0 when not published
	Type        string // "tcp", "udp" or "sctp"
}

// ContainerRecord is a container as returned by List.
type ContainerRecord struct {
	ID     string
	Names  []string // runtime names, each with a leading "/"
	State  string
	Status string // human-readable status, e.g. "Up 3 hours"
	Ports  []PortMapping
}

// PortBinding is a host address a container port is published on.
type PortBinding struct {
	HostIP   string
	HostPort string
}

// ContainerDetail is a container as returned by Inspect.
type ContainerDetail struct {
	ID        string
	Name      string // runtime name with a leading "/"
	State     string
	Running   bool
	StartedAt time.Time
	// Ports maps "<port>/<proto>" to its host bindings.
	Ports map[string][]PortBinding
}

// ListOptions filters a container listing.
type ListOptions struct {
	// NameFilter is matched against container names by the runtime.
	NameFilter string
	// All includes stopped containers.
	All bool
}

// LogsOptions holds options for reading container logs
type LogsOptions struct {
	Follow     bool
	Tail       string // "all" or a line count
	Timestamps bool
}

// ExecOptions holds options for executing a command in a container
type ExecOptions struct {
	Cmd         []string
	User        string
	WorkingDir  string
	Env         []string
	TTY         bool
	AttachStdin bool
}

// Info describes the runtime daemon.
type Info struct {
	Name       string
	APIVersion string
	OSType     string
}

// Client is the interface container backends must implement.
// All methods should be safe for concurrent use.
type Client interface {
	// Name returns the runtime identifier (e.g., "docker", "podman")
	Name() string

	// Ping checks that the daemon is reachable
	Ping(ctx context.Context) (*Info, error)

	// List returns the containers matching opts
	List(ctx context.Context, opts ListOptions) ([]ContainerRecord, error)

	// Inspect returns details of a container by id or runtime name
	Inspect(ctx context.Context, id string) (*ContainerDetail, error)

	// Start starts a container
	Start(ctx context.Context, id string) (Outcome, error)

	// Stop stops a container; a nil timeout uses the runtime default
	Stop(ctx context.Context, id string, timeout *time.Duration) (Outcome, error)

	// Restart restarts a container, starting it if it is stopped
	Restart(ctx context.Context, id string, timeout *time.Duration) (Outcome, error)

	// Logs subscribes to the stdout/stderr log of a container
	Logs(ctx context.Context, id string, opts LogsOptions) (ChunkReader, error)

	// Exec runs a command inside a running container with its streams attached
	Exec(ctx context.Context, id string, opts ExecOptions) (*ExecSession, error)

	// Close releases the client's connection to the daemon
	Close() error
}
