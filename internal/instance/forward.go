package instance

import (
	"context"
	"fmt"
	"net"
	"strings"

	"github.com/pojntfx/pojde-rs/internal/audit"
	"github.com/pojntfx/pojde-rs/internal/config"
	"github.com/pojntfx/pojde-rs/internal/errors"
	"github.com/pojntfx/pojde-rs/internal/forward"
	"github.com/pojntfx/pojde-rs/internal/ssh"
)

// TunnelDialer opens a tunnel to an instance whose service port is
// published on the given host port.
type TunnelDialer interface {
	DialTunnel(ctx context.Context, hostPort int) (forward.Tunnel, error)
}

// TunnelDialerFunc adapts a function to TunnelDialer.
type TunnelDialerFunc func(ctx context.Context, hostPort int) (forward.Tunnel, error)

// DialTunnel calls f.
func (f TunnelDialerFunc) DialTunnel(ctx context.Context, hostPort int) (forward.Tunnel, error) {
	return f(ctx, hostPort)
}

// SSHDialer opens SSH sessions into instances.
type SSHDialer struct {
	opts ssh.Options
}

// NewSSHDialer returns a dialer using the SSH settings of cfg.
func NewSSHDialer(cfg config.SSHConfig) *SSHDialer {
	opts := ssh.DefaultOptions(0)
	if cfg.User != "" {
		opts.User = cfg.User
	}
	if cfg.Host != "" {
		opts.Host = cfg.Host
	}
	if cfg.ConnectTimeout.Duration > 0 {
		opts.ConnectTimeout = cfg.ConnectTimeout.Duration
	}
	opts.UseAgent = cfg.UseAgent
	opts.IdentityFiles = append([]string(nil), cfg.IdentityFiles...)
	if cfg.StrictHostKeyChecking {
		opts = opts.WithKnownHosts(cfg.KnownHostsFile)
	}
	return &SSHDialer{opts: opts}
}

// Options returns the SSH options without a port.
func (d *SSHDialer) Options() ssh.Options {
	return d.opts
}

// DialTunnel connects to the instance's SSH server on hostPort.
func (d *SSHDialer) DialTunnel(ctx context.Context, hostPort int) (forward.Tunnel, error) {
	return ssh.Connect(ctx, d.opts.WithPort(hostPort))
}

// ForwardOptions configures Forward.
type ForwardOptions struct {
	// OnReady is called once per request when its listener is open.
	OnReady func(forward.Request, net.Addr)
}

// Forward forwards the requested addresses between this machine and a
// running instance until ctx is cancelled. The tunnel is opened against the
// host port the instance's service port is published on. If the tunnel
// fails, every forward of the call is stopped and a tunnel error returned.
func (m *Manager) Forward(ctx context.Context, name string, reqs []forward.Request, dir forward.Direction, opts ForwardOptions) error {
	if len(reqs) == 0 {
		return errors.ValidationError("at least one forward is required")
	}

	detail, err := m.Inspect(ctx, name)
	if err != nil {
		return err
	}
	if !detail.Running {
		return errors.InstanceNotRunning(name)
	}

	hostPort, err := m.servicePort(name, detail)
	if err != nil {
		return err
	}

	tunnel, err := m.tunnels.DialTunnel(ctx, hostPort)
	if err != nil {
		m.logEvent(audit.EventError, name, "failed", "forward: "+err.Error())
		return err
	}
	defer tunnel.Close()

	runCtx, cancel := context.WithCancelCause(ctx)
	defer cancel(nil)

	if w, ok := tunnel.(interface{ Wait() error }); ok {
		go func() {
			err := w.Wait()
			if err == nil {
				err = fmt.Errorf("session closed")
			}
			cancel(errors.TunnelError("tunnel session terminated", err))
		}()
	}

	specs := make([]string, 0, len(reqs))
	for _, r := range reqs {
		specs = append(specs, r.String())
	}
	m.logEvent(audit.EventForward, name, string(dir), strings.Join(specs, ", "))

	fwdOpts := []forward.Option{
		forward.WithMetrics(m.metrics),
		forward.WithLogger(m.logger.With("instance", name, "direction", string(dir))),
	}
	if opts.OnReady != nil {
		fwdOpts = append(fwdOpts, forward.WithReady(opts.OnReady))
	}

	err = forward.New(tunnel, dir, fwdOpts...).Run(runCtx, reqs)
	if ctx.Err() != nil {
		return nil
	}
	if cause := context.Cause(runCtx); cause != nil && runCtx.Err() != nil {
		return cause
	}
	return err
}
