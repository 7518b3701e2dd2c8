package runtime

import (
	"context"
	"fmt"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/docker/docker/api/types"
	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/filters"
	"github.com/docker/docker/client"
	"github.com/docker/docker/errdefs"

	"github.com/pojntfx/pojde-rs/internal/errors"
	"github.com/pojntfx/pojde-rs/internal/logging"
)

// DockerClient implements Client using the Docker Engine API. It also
// serves Podman through its Docker-compatible socket.
type DockerClient struct {
	cli  *client.Client
	http *http.Client
	name string
}

// NewDockerClient connects to the daemon at host (empty means the
// environment default) and negotiates the API version unless apiVersion
// is set.
func NewDockerClient(name, host, apiVersion string) (*DockerClient, error) {
	opts := []client.Opt{client.FromEnv}
	if host != "" {
		opts = append(opts, client.WithHost(host))
	}
	if apiVersion != "" {
		opts = append(opts, client.WithVersion(apiVersion))
	} else {
		opts = append(opts, client.WithAPIVersionNegotiation())
	}

	// The first client resolves the host and TLS settings into its
	// transport, which is then wrapped to observe status codes.
	base, err := client.NewClientWithOpts(opts...)
	if err != nil {
		return nil, errors.RuntimeUnavailable(fmt.Errorf("failed to create docker client: %w", err))
	}
	hc := base.HTTPClient()
	hc.Transport = &statusTransport{next: hc.Transport}

	cli, err := client.NewClientWithOpts(append(opts, client.WithHTTPClient(hc))...)
	if err != nil {
		return nil, errors.RuntimeUnavailable(fmt.Errorf("failed to create docker client: %w", err))
	}

	if name == "" {
		name = string(RuntimeDocker)
	}

	logging.Debug("created runtime client", "runtime", name, "host", cli.DaemonHost())
	return &DockerClient{cli: cli, http: hc, name: name}, nil
}

type notModifiedKey struct{}

// notModified records whether the daemon answered 304 Not Modified. The
// SDK reports 304 as success, so it is observed at the transport.
type notModified struct {
	seen atomic.Bool
}

func withNotModified(ctx context.Context) (context.Context, *notModified) {
	nm := &notModified{}
	return context.WithValue(ctx, notModifiedKey{}, nm), nm
}

type statusTransport struct {
	next http.RoundTripper
}

func (t *statusTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	resp, err := t.next.RoundTrip(req)
	if err == nil && resp.StatusCode == http.StatusNotModified {
		if nm, ok := req.Context().Value(notModifiedKey{}).(*notModified); ok {
			nm.seen.Store(true)
		}
	}
	return resp, err
}

func (t *statusTransport) CloseIdleConnections() {
	if c, ok := t.next.(interface{ CloseIdleConnections() }); ok {
		c.CloseIdleConnections()
	}
}

// classify maps daemon errors onto the error kinds of this package.
func classify(op, id string, err error) error {
	switch {
	case err == nil:
		return nil
	case client.IsErrConnectionFailed(err):
		return errors.RuntimeUnavailable(err)
	case errdefs.IsNotFound(err):
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	default:
		return errors.RuntimeRequestFailed(op, err)
	}
}

// Name returns the runtime identifier
func (d *DockerClient) Name() string {
	return d.name
}

// Ping checks that the daemon is reachable
func (d *DockerClient) Ping(ctx context.Context) (*Info, error) {
	ping, err := d.cli.Ping(ctx)
	if err != nil {
		return nil, classify("ping", "", err)
	}
	return &Info{
		Name:       d.name,
		APIVersion: ping.APIVersion,
		OSType:     ping.OSType,
	}, nil
}

// List returns the containers matching opts
func (d *DockerClient) List(ctx context.Context, opts ListOptions) ([]ContainerRecord, error) {
	listOpts := container.ListOptions{All: opts.All}
	if opts.NameFilter != "" {
		listOpts.Filters = filters.NewArgs(filters.Arg("name", opts.NameFilter))
	}

	containers, err := d.cli.ContainerList(ctx, listOpts)
	if err != nil {
		return nil, classify("list", "", err)
	}

	records := make([]ContainerRecord, 0, len(containers))
	for _, c := range containers {
		records = append(records, recordFromSummary(c))
	}
	return records, nil
}

func recordFromSummary(c types.Container) ContainerRecord {
	ports := make([]PortMapping, 0, len(c.Ports))
	for _, p := range c.Ports {
		ports = append(ports, PortMapping{
			IP:          p.IP,
			PrivatePort: p.PrivatePort,
			PublicPort:  p.PublicPort,
			Type:        p.Type,
		})
	}
	return ContainerRecord{
		ID:     c.ID,
		Names:  c.Names,
		State:  c.State,
		Status: c.Status,
		Ports:  ports,
	}
}

// Inspect returns details of a container by id or runtime name
func (d *DockerClient) Inspect(ctx context.Context, id string) (*ContainerDetail, error) {
	info, err := d.cli.ContainerInspect(ctx, id)
	if err != nil {
		return nil, classify("inspect", id, err)
	}
	return detailFromInspect(info), nil
}

func detailFromInspect(info types.ContainerJSON) *ContainerDetail {
	detail := &ContainerDetail{
		ID:    info.ID,
		Name:  info.Name,
		Ports: make(map[string][]PortBinding),
	}

	if info.State != nil {
		detail.State = info.State.Status
		detail.Running = info.State.Running
		if t, err := time.Parse(time.RFC3339Nano, info.State.StartedAt); err == nil {
			detail.StartedAt = t
		}
	}

	if info.NetworkSettings != nil {
		for port, bindings := range info.NetworkSettings.Ports {
			out := make([]PortBinding, 0, len(bindings))
			for _, b := range bindings {
				out = append(out, PortBinding{HostIP: b.HostIP, HostPort: b.HostPort})
			}
			detail.Ports[string(port)] = out
		}
	}

	return detail
}

func stopOptions(timeout *time.Duration) container.StopOptions {
	if timeout == nil {
		return container.StopOptions{}
	}
	secs := int(timeout.Seconds())
	return container.StopOptions{Timeout: &secs}
}

// Start starts a container. A container that is already running yields
// OutcomeAlreadyInState, whether seen by the inspect beforehand or by the
// daemon answering 304.
func (d *DockerClient) Start(ctx context.Context, id string) (Outcome, error) {
	detail, err := d.Inspect(ctx, id)
	if err != nil {
		return OutcomeFailed, err
	}
	if detail.Running {
		return OutcomeAlreadyInState, nil
	}

	reqCtx, nm := withNotModified(ctx)
	if err := d.cli.ContainerStart(reqCtx, id, container.StartOptions{}); err != nil {
		return OutcomeFailed, classify("start", id, err)
	}
	if nm.seen.Load() {
		return OutcomeAlreadyInState, nil
	}
	return OutcomeChanged, nil
}

// Stop stops a container. A container that is not running yields
// OutcomeAlreadyInState, whether seen by the inspect beforehand or by the
// daemon answering 304.
func (d *DockerClient) Stop(ctx context.Context, id string, timeout *time.Duration) (Outcome, error) {
	detail, err := d.Inspect(ctx, id)
	if err != nil {
		return OutcomeFailed, err
	}
	if !detail.Running {
		return OutcomeAlreadyInState, nil
	}

	reqCtx, nm := withNotModified(ctx)
	if err := d.cli.ContainerStop(reqCtx, id, stopOptions(timeout)); err != nil {
		return OutcomeFailed, classify("stop", id, err)
	}
	if nm.seen.Load() {
		return OutcomeAlreadyInState, nil
	}
	return OutcomeChanged, nil
}

// Restart restarts a container, starting it if it is stopped
func (d *DockerClient) Restart(ctx context.Context, id string, timeout *time.Duration) (Outcome, error) {
	if err := d.cli.ContainerRestart(ctx, id, stopOptions(timeout)); err != nil {
		return OutcomeFailed, classify("restart", id, err)
	}
	return OutcomeChanged, nil
}

// Logs subscribes to the stdout/stderr log of a container
func (d *DockerClient) Logs(ctx context.Context, id string, opts LogsOptions) (ChunkReader, error) {
	info, err := d.cli.ContainerInspect(ctx, id)
	if err != nil {
		return nil, classify("inspect", id, err)
	}

	rc, err := d.cli.ContainerLogs(ctx, id, container.LogsOptions{
		ShowStdout: true,
		ShowStderr: true,
		Follow:     opts.Follow,
		Tail:       opts.Tail,
		Timestamps: opts.Timestamps,
	})
	if err != nil {
		return nil, classify("logs", id, err)
	}

	// TTY containers log unmultiplexed.
	if info.Config != nil && info.Config.Tty {
		return NewRawReader(rc), nil
	}
	return NewFrameReader(rc), nil
}

// Exec runs a command inside a running container with its streams attached
func (d *DockerClient) Exec(ctx context.Context, id string, opts ExecOptions) (*ExecSession, error) {
	created, err := d.cli.ContainerExecCreate(ctx, id, container.ExecOptions{
		Cmd:          opts.Cmd,
		User:         opts.User,
		WorkingDir:   opts.WorkingDir,
		Env:          opts.Env,
		Tty:          opts.TTY,
		AttachStdin:  opts.AttachStdin,
		AttachStdout: true,
		AttachStderr: true,
	})
	if err != nil {
		return nil, classify("exec", id, err)
	}

	resp, err := d.cli.ContainerExecAttach(ctx, created.ID, container.ExecAttachOptions{Tty: opts.TTY})
	if err != nil {
		return nil, classify("exec attach", id, err)
	}

	rc := &hijackedReadCloser{resp: resp}
	var output ChunkReader
	if opts.TTY {
		output = NewRawReader(rc)
	} else {
		output = NewFrameReader(rc)
	}

	execID := created.ID
	resize := func(ctx context.Context, height, width uint) error {
		return d.cli.ContainerExecResize(ctx, execID, container.ResizeOptions{Height: height, Width: width})
	}

	if !opts.AttachStdin {
		return NewExecSession(execID, output, nil, nil, resize), nil
	}
	return NewExecSession(execID, output, resp.Conn, resp.CloseWrite, resize), nil
}

// Close releases the client's connection to the daemon
func (d *DockerClient) Close() error {
	d.http.CloseIdleConnections()
	return d.cli.Close()
}

type hijackedReadCloser struct {
	resp types.HijackedResponse
}

func (h *hijackedReadCloser) Read(p []byte) (int, error) {
	return h.resp.Reader.Read(p)
}

func (h *hijackedReadCloser) Close() error {
	h.resp.Close()
	return nil
}

var _ Client = (*DockerClient)(nil)
