// Package ssh provides SSH sessions into instances. Every instance runs an
// SSH server on its service port; tunnels for port forwarding are carried
// over that connection.
package ssh

import (
	"context"
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/agent"
	"golang.org/x/crypto/ssh/knownhosts"

	"github.com/pojntfx/pojde-rs/internal/errors"
	"github.com/pojntfx/pojde-rs/internal/logging"
)

// Default SSH configuration values.
const (
	DefaultUser           = "pojde"
	DefaultHost           = "localhost"
	DefaultPort           = 22
	DefaultConnectTimeout = 10 * time.Second
)

// Options configures SSH connection parameters.
type Options struct {
	Port               int
	User               string
	Host               string
	IdentityFiles      []string
	UseAgent           bool
	StrictHostKeyCheck bool
	KnownHostsFile     string
	ConnectTimeout     time.Duration
}

// DefaultOptions returns Options with sensible defaults for instance connections.
func DefaultOptions(port int) Options {
	return Options{
		Port:               port,
		User:               DefaultUser,
		Host:               DefaultHost,
		UseAgent:           true,
		StrictHostKeyCheck: false,
		ConnectTimeout:     DefaultConnectTimeout,
	}
}

// WithUser returns a copy with the given login user.
func (o Options) WithUser(user string) Options {
	o.User = user
	return o
}

// WithHost returns a copy connecting to host.
func (o Options) WithHost(host string) Options {
	o.Host = host
	return o
}

// WithPort returns a copy connecting to port.
func (o Options) WithPort(port int) Options {
	o.Port = port
	return o
}

// WithTimeout returns a copy with the specified connect timeout.
func (o Options) WithTimeout(d time.Duration) Options {
	o.ConnectTimeout = d
	return o
}

// WithIdentityFiles returns a copy authenticating with the given private keys.
func (o Options) WithIdentityFiles(files ...string) Options {
	o.IdentityFiles = append([]string(nil), files...)
	return o
}

// WithKnownHosts returns a copy verifying host keys against file.
func (o Options) WithKnownHosts(file string) Options {
	o.KnownHostsFile = file
	o.StrictHostKeyCheck = true
	return o
}

// Address returns the host:port to dial.
func (o Options) Address() string {
	return net.JoinHostPort(o.Host, strconv.Itoa(o.Port))
}

// Destination returns the user@host:port string.
func (o Options) Destination() string {
	return fmt.Sprintf("%s@%s", o.User, o.Address())
}

// Node is a remote peer given as user@host:port.
type Node struct {
	User string
	Host string
	Port int
}

// ParseNode parses "user@host:port". User and port are optional.
func ParseNode(s string) (Node, error) {
	var n Node
	if s == "" {
		return n, fmt.Errorf("node cannot be empty")
	}

	rest := s
	if at := strings.LastIndex(s, "@"); at >= 0 {
		n.User = s[:at]
		rest = s[at+1:]
		if n.User == "" {
			return n, fmt.Errorf("invalid node %q: empty user", s)
		}
	}

	host, port, err := net.SplitHostPort(rest)
	if err != nil {
		// No port given
		n.Host = strings.Trim(rest, "[]")
	} else {
		p, err := strconv.Atoi(port)
		if err != nil || p < 1 || p > 65535 {
			return n, fmt.Errorf("invalid node %q: bad port %q", s, port)
		}
		n.Host = host
		n.Port = p
	}

	if n.Host == "" {
		return n, fmt.Errorf("invalid node %q: empty host", s)
	}
	return n, nil
}

// Apply returns a copy of o with the node's fields set where present.
func (n Node) Apply(o Options) Options {
	if n.User != "" {
		o.User = n.User
	}
	if n.Host != "" {
		o.Host = n.Host
	}
	return o
}

// authMethods collects agent and key file authentication. The returned
// cleanup closes the agent connection.
func (o Options) authMethods() ([]ssh.AuthMethod, func(), error) {
	var methods []ssh.AuthMethod
	cleanup := func() {}

	if o.UseAgent {
		if sock := os.Getenv("SSH_AUTH_SOCK"); sock != "" {
			conn, err := net.Dial("unix", sock)
			if err != nil {
				logging.Debug("ssh agent unavailable", "socket", sock, "error", err)
			} else {
				methods = append(methods, ssh.PublicKeysCallback(agent.NewClient(conn).Signers))
				cleanup = func() { conn.Close() }
			}
		}
	}

	var signers []ssh.Signer
	for _, file := range o.IdentityFiles {
		data, err := os.ReadFile(file)
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("failed to read identity file %s: %w", file, err)
		}
		signer, err := ssh.ParsePrivateKey(data)
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("failed to parse identity file %s: %w", file, err)
		}
		signers = append(signers, signer)
	}
	if len(signers) > 0 {
		methods = append(methods, ssh.PublicKeys(signers...))
	}

	if len(methods) == 0 {
		cleanup()
		return nil, nil, fmt.Errorf("no SSH authentication available: set SSH_AUTH_SOCK or ssh.identity_files")
	}
	return methods, cleanup, nil
}

func (o Options) hostKeyCallback() (ssh.HostKeyCallback, error) {
	if !o.StrictHostKeyCheck {
		return ssh.InsecureIgnoreHostKey(), nil
	}
	cb, err := knownhosts.New(o.KnownHostsFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load known hosts %s: %w", o.KnownHostsFile, err)
	}
	return cb, nil
}

// ClientConfig builds the SSH client configuration. The returned cleanup
// must be called once the connection is no longer needed.
func (o Options) ClientConfig() (*ssh.ClientConfig, func(), error) {
	auth, cleanup, err := o.authMethods()
	if err != nil {
		return nil, nil, err
	}
	hostKeys, err := o.hostKeyCallback()
	if err != nil {
		cleanup()
		return nil, nil, err
	}
	return &ssh.ClientConfig{
		User:            o.User,
		Auth:            auth,
		HostKeyCallback: hostKeys,
		Timeout:         o.ConnectTimeout,
	}, cleanup, nil
}

// Session is an authenticated SSH connection into an instance.
type Session struct {
	client  *ssh.Client
	cleanup func()
}

// Connect dials and authenticates an SSH session.
func Connect(ctx context.Context, opts Options) (*Session, error) {
	cfg, cleanup, err := opts.ClientConfig()
	if err != nil {
		return nil, errors.TunnelError("failed to configure ssh", err)
	}
	return connectWith(ctx, opts.Address(), cfg, cleanup)
}

func connectWith(ctx context.Context, addr string, cfg *ssh.ClientConfig, cleanup func()) (*Session, error) {
	if cleanup == nil {
		cleanup = func() {}
	}

	dialer := net.Dialer{Timeout: cfg.Timeout}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		cleanup()
		return nil, errors.TunnelError(fmt.Sprintf("failed to connect to %s", addr), err)
	}

	if deadline, ok := ctx.Deadline(); ok {
		conn.SetDeadline(deadline)
	}
	c, chans, reqs, err := ssh.NewClientConn(conn, addr, cfg)
	if err != nil {
		conn.Close()
		cleanup()
		return nil, errors.TunnelError(fmt.Sprintf("ssh handshake with %s failed", addr), err)
	}
	conn.SetDeadline(time.Time{})

	logging.Debug("ssh session established", "addr", addr, "user", cfg.User)
	return &Session{client: ssh.NewClient(c, chans, reqs), cleanup: cleanup}, nil
}

// Dial opens a connection to addr from the instance's side.
func (s *Session) Dial(network, addr string) (net.Conn, error) {
	return s.client.Dial(network, addr)
}

// Listen asks the instance to listen on addr and forward accepted
// connections back over the session.
func (s *Session) Listen(network, addr string) (net.Listener, error) {
	return s.client.Listen(network, addr)
}

// Wait blocks until the session terminates.
func (s *Session) Wait() error {
	return s.client.Wait()
}

// Close terminates the session.
func (s *Session) Close() error {
	err := s.client.Close()
	s.cleanup()
	return err
}

// CheckConnection reports whether an SSH session can be established.
func CheckConnection(ctx context.Context, opts Options) bool {
	s, err := Connect(ctx, opts)
	if err != nil {
		logging.Debug("ssh check failed", "addr", opts.Address(), "error", err)
		return false
	}
	s.Close()
	return true
}
