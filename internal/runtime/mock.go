package runtime

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/docker/docker/pkg/stdcopy"
)

// MockContainer is the state of one mock container
type MockContainer struct {
	ID        string
	Name      string // runtime name without the leading "/"
	State     string
	Status    string
	Ports     []PortMapping
	Published map[string][]PortBinding
	StartedAt time.Time

	// Logs are replayed by Logs as multiplexed frames
	Logs []Chunk
	// ExecOutput is replayed by Exec as multiplexed frames
	ExecOutput []Chunk
}

// MockClient is a mock implementation of Client for testing
type MockClient struct {
	mu sync.RWMutex

	// Containers tracks the mock containers by runtime name
	Containers map[string]*MockContainer

	// Errors allows injecting errors for specific operations
	Errors map[string]error

	// TargetErrors injects errors for one operation on one container,
	// keyed by "<Method>:<runtime name>"
	TargetErrors map[string]error

	// CallLog records all method calls for verification
	CallLog []MockCall

	// Delay is applied to Start, Stop and Restart before they return
	Delay time.Duration

	openStreams   int
	closedStreams int
	inflight      int
	maxInflight   int
	nextID        int
}

// MockCall represents a recorded method call
type MockCall struct {
	Method string
	Args   []interface{}
}

// NewMockClient creates a new mock client
func NewMockClient() *MockClient {
	return &MockClient{
		Containers:   make(map[string]*MockContainer),
		Errors:       make(map[string]error),
		TargetErrors: make(map[string]error),
		CallLog:      make([]MockCall, 0),
	}
}

func (m *MockClient) record(method string, args ...interface{}) {
	m.CallLog = append(m.CallLog, MockCall{Method: method, Args: args})
}

// SetError sets an error to be returned for a specific operation
func (m *MockClient) SetError(operation string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Errors[operation] = err
}

// SetTargetError sets an error for one operation on one container
func (m *MockClient) SetTargetError(operation, runtimeName string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.TargetErrors[operation+":"+runtimeName] = err
}

// AddContainer adds a container to the mock and returns it for further
// setup
func (m *MockClient) AddContainer(runtimeName, state string, publicPorts ...uint16) *MockContainer {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.nextID++
	c := &MockContainer{
		ID:        fmt.Sprintf("%064x", m.nextID),
		Name:      runtimeName,
		State:     state,
		Published: make(map[string][]PortBinding),
	}
	for i, p := range publicPorts {
		c.Ports = append(c.Ports, PortMapping{
			IP:          "0.0.0.0",
			PrivatePort: uint16(8000 + i),
			PublicPort:  p,
			Type:        "tcp",
		})
	}
	if state == StateRunning {
		c.StartedAt = time.Now()
	}
	m.Containers[runtimeName] = c
	return c
}

// Publish binds an internal port ("8005/tcp") to a host port
func (m *MockClient) Publish(runtimeName, port, hostPort string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if c, ok := m.Containers[runtimeName]; ok {
		c.Published[port] = append(c.Published[port], PortBinding{HostIP: "0.0.0.0", HostPort: hostPort})
	}
}

// GetCalls returns all recorded calls
func (m *MockClient) GetCalls() []MockCall {
	m.mu.RLock()
	defer m.mu.RUnlock()
	calls := make([]MockCall, len(m.CallLog))
	copy(calls, m.CallLog)
	return calls
}

// GetCallsFor returns all calls for a specific method
func (m *MockClient) GetCallsFor(method string) []MockCall {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var calls []MockCall
	for _, call := range m.CallLog {
		if call.Method == method {
			calls = append(calls, call)
		}
	}
	return calls
}

// StreamStats returns how many log/exec streams were opened and closed
func (m *MockClient) StreamStats() (opened, closed int) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.openStreams, m.closedStreams
}

// MaxInflight returns the highest number of concurrent lifecycle calls seen
func (m *MockClient) MaxInflight() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.maxInflight
}

// Reset clears all state
func (m *MockClient) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Containers = make(map[string]*MockContainer)
	m.Errors = make(map[string]error)
	m.TargetErrors = make(map[string]error)
	m.CallLog = make([]MockCall, 0)
	m.openStreams, m.closedStreams = 0, 0
	m.inflight, m.maxInflight = 0, 0
}

// lookup finds a container by runtime name or id. Callers hold m.mu.
func (m *MockClient) lookup(id string) (*MockContainer, bool) {
	if c, ok := m.Containers[strings.TrimPrefix(id, "/")]; ok {
		return c, true
	}
	for _, c := range m.Containers {
		if c.ID == id {
			return c, true
		}
	}
	return nil, false
}

// failure returns the injected error for method on id. Callers hold m.mu.
func (m *MockClient) failure(method, id string) error {
	if err, ok := m.Errors[method]; ok {
		return err
	}
	if err, ok := m.TargetErrors[method+":"+strings.TrimPrefix(id, "/")]; ok {
		return err
	}
	return nil
}

// Name returns the runtime identifier
func (m *MockClient) Name() string {
	return "mock"
}

// Ping checks that the daemon is reachable
func (m *MockClient) Ping(ctx context.Context) (*Info, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record("Ping")

	if err := m.failure("Ping", ""); err != nil {
		return nil, err
	}
	return &Info{Name: "mock", APIVersion: "1.47", OSType: "linux"}, nil
}

// List returns the containers whose name contains the filter
func (m *MockClient) List(ctx context.Context, opts ListOptions) ([]ContainerRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record("List", opts)

	if err := m.failure("List", ""); err != nil {
		return nil, err
	}

	var records []ContainerRecord
	for _, c := range m.Containers {
		name := "/" + c.Name
		if opts.NameFilter != "" && !strings.Contains(name, opts.NameFilter) {
			continue
		}
		if !opts.All && c.State != StateRunning {
			continue
		}
		ports := make([]PortMapping, len(c.Ports))
		copy(ports, c.Ports)
		records = append(records, ContainerRecord{
			ID:     c.ID,
			Names:  []string{name},
			State:  c.State,
			Status: c.Status,
			Ports:  ports,
		})
	}
	return records, nil
}

// Inspect returns details of a container by id or runtime name
func (m *MockClient) Inspect(ctx context.Context, id string) (*ContainerDetail, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record("Inspect", id)

	if err := m.failure("Inspect", id); err != nil {
		return nil, err
	}

	c, ok := m.lookup(id)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}

	ports := make(map[string][]PortBinding, len(c.Published))
	for k, v := range c.Published {
		ports[k] = append([]PortBinding(nil), v...)
	}
	return &ContainerDetail{
		ID:        c.ID,
		Name:      "/" + c.Name,
		State:     c.State,
		Running:   c.State == StateRunning,
		StartedAt: c.StartedAt,
		Ports:     ports,
	}, nil
}

// transition applies a lifecycle request. wantRunning selects the target
// state; force always counts as a change.
func (m *MockClient) transition(ctx context.Context, method, id string, wantRunning, force bool) (Outcome, error) {
	m.mu.Lock()
	m.record(method, id)
	m.inflight++
	if m.inflight > m.maxInflight {
		m.maxInflight = m.inflight
	}
	delay := m.Delay
	m.mu.Unlock()

	defer func() {
		m.mu.Lock()
		m.inflight--
		m.mu.Unlock()
	}()

	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return OutcomeFailed, ctx.Err()
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.failure(method, id); err != nil {
		return OutcomeFailed, err
	}

	c, ok := m.lookup(id)
	if !ok {
		return OutcomeFailed, fmt.Errorf("%w: %s", ErrNotFound, id)
	}

	running := c.State == StateRunning
	if !force && running == wantRunning {
		return OutcomeAlreadyInState, nil
	}
	if wantRunning {
		c.State = StateRunning
		c.StartedAt = time.Now()
	} else {
		c.State = StateExited
	}
	return OutcomeChanged, nil
}

// Start starts a container
func (m *MockClient) Start(ctx context.Context, id string) (Outcome, error) {
	return m.transition(ctx, "Start", id, true, false)
}

// Stop stops a container
func (m *MockClient) Stop(ctx context.Context, id string, timeout *time.Duration) (Outcome, error) {
	return m.transition(ctx, "Stop", id, false, false)
}

// Restart restarts a container
func (m *MockClient) Restart(ctx context.Context, id string, timeout *time.Duration) (Outcome, error) {
	return m.transition(ctx, "Restart", id, true, true)
}

// trackedPipe counts the close of a stream handed out by the mock.
type trackedPipe struct {
	*io.PipeReader
	m    *MockClient
	once sync.Once
}

func (t *trackedPipe) Close() error {
	t.once.Do(func() {
		t.m.mu.Lock()
		t.m.closedStreams++
		t.m.mu.Unlock()
	})
	return t.PipeReader.Close()
}

// framedStream replays chunks as multiplexed frames. With follow the
// stream stays open after the replay until the reader is closed.
func (m *MockClient) framedStream(chunks []Chunk, follow bool) io.ReadCloser {
	pr, pw := io.Pipe()
	go func() {
		for _, c := range chunks {
			var t stdcopy.StdType
			switch c.Stream {
			case StreamStdin:
				t = stdcopy.Stdin
			case StreamStderr:
				t = stdcopy.Stderr
			default:
				t = stdcopy.Stdout
			}
			if _, err := stdcopy.NewStdWriter(pw, t).Write(c.Data); err != nil {
				return
			}
		}
		if !follow {
			pw.Close()
		}
	}()
	m.openStreams++
	return &trackedPipe{PipeReader: pr, m: m}
}

// Logs replays the container's Logs
func (m *MockClient) Logs(ctx context.Context, id string, opts LogsOptions) (ChunkReader, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record("Logs", id, opts)

	if err := m.failure("Logs", id); err != nil {
		return nil, err
	}

	c, ok := m.lookup(id)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}

	return NewFrameReader(m.framedStream(c.Logs, opts.Follow)), nil
}

// Exec replays the container's ExecOutput. Stdin written to the session is
// discarded.
func (m *MockClient) Exec(ctx context.Context, id string, opts ExecOptions) (*ExecSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record("Exec", id, opts)

	if err := m.failure("Exec", id); err != nil {
		return nil, err
	}

	c, ok := m.lookup(id)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if c.State != StateRunning {
		return nil, fmt.Errorf("container %s is not running", c.Name)
	}

	m.nextID++
	execID := fmt.Sprintf("exec-%d", m.nextID)
	output := NewFrameReader(m.framedStream(c.ExecOutput, false))
	var input io.Writer
	if opts.AttachStdin {
		input = io.Discard
	}
	resize := func(ctx context.Context, height, width uint) error {
		m.mu.Lock()
		defer m.mu.Unlock()
		m.record("ExecResize", execID, height, width)
		return nil
	}
	return NewExecSession(execID, output, input, nil, resize), nil
}

// Close releases the client
func (m *MockClient) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record("Close")
	return nil
}

// Ensure MockClient implements Client
var _ Client = (*MockClient)(nil)
