// Package forward splices TCP connections between this machine and an
// instance over a tunnel.
package forward

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/pojntfx/pojde-rs/internal/errors"
	"github.com/pojntfx/pojde-rs/internal/logging"
	"github.com/pojntfx/pojde-rs/internal/metrics"
)

// Tunnel carries connections to and from the instance side.
type Tunnel interface {
	// Dial connects to addr as seen from the instance.
	Dial(network, addr string) (net.Conn, error)
	// Listen listens on addr inside the instance.
	Listen(network, addr string) (net.Listener, error)
	// Close terminates the tunnel.
	Close() error
}

// Forwarder runs a set of forwards in one direction over one tunnel.
type Forwarder struct {
	tunnel    Tunnel
	direction Direction
	metrics   *metrics.Metrics
	logger    *slog.Logger
	onReady   func(Request, net.Addr)
	dialer    net.Dialer

	handlers sync.WaitGroup

	mu     sync.Mutex
	conns  map[string]net.Conn
	closed bool
}

// Option configures a Forwarder.
type Option func(*Forwarder)

// WithMetrics records connection metrics.
func WithMetrics(m *metrics.Metrics) Option {
	return func(f *Forwarder) {
		f.metrics = m
	}
}

// WithReady registers a callback invoked once per request when its
// listener is open.
func WithReady(fn func(Request, net.Addr)) Option {
	return func(f *Forwarder) {
		f.onReady = fn
	}
}

// WithLogger sets the logger for connection events.
func WithLogger(l *slog.Logger) Option {
	return func(f *Forwarder) {
		f.logger = l
	}
}

// New creates a Forwarder.
func New(tunnel Tunnel, direction Direction, opts ...Option) *Forwarder {
	f := &Forwarder{
		tunnel:    tunnel,
		direction: direction,
		logger:    logging.Logger,
		conns:     make(map[string]net.Conn),
	}
	for _, opt := range opts {
		opt(f)
	}
	f.logger = f.logger.With("direction", string(direction))
	return f
}

func (f *Forwarder) listen(ctx context.Context, r Request) (net.Listener, error) {
	addr := r.listenAddr(f.direction)
	if f.direction == DirectionRemote {
		return f.tunnel.Listen("tcp", addr)
	}
	var lc net.ListenConfig
	return lc.Listen(ctx, "tcp", addr)
}

func (f *Forwarder) dial(ctx context.Context, r Request) (net.Conn, error) {
	addr := r.targetAddr(f.direction)
	if f.direction == DirectionRemote {
		return f.dialer.DialContext(ctx, "tcp", addr)
	}
	return f.tunnel.Dial("tcp", addr)
}

// Run opens a listener per request and forwards accepted connections
// until ctx is cancelled. If any listener cannot be opened, or a listener
// fails while running, every forward of this Run is stopped and the error
// is returned. Failures of individual connections are logged and do not
// affect other connections.
func (f *Forwarder) Run(ctx context.Context, reqs []Request) error {
	if len(reqs) == 0 {
		return errors.ValidationError("at least one forward is required")
	}

	listeners := make([]net.Listener, 0, len(reqs))
	closeAll := func() {
		for _, l := range listeners {
			l.Close()
		}
	}

	for _, r := range reqs {
		l, err := f.listen(ctx, r)
		if err != nil {
			closeAll()
			return errors.TunnelError(fmt.Sprintf("failed to listen on %s (%s)", r.listenAddr(f.direction), f.direction), err)
		}
		listeners = append(listeners, l)
		f.logger.Info("forwarding", "listen", l.Addr().String(), "target", r.targetAddr(f.direction))
		if f.onReady != nil {
			f.onReady(r, l.Addr())
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		<-gctx.Done()
		closeAll()
		f.closeConns()
		return nil
	})

	for i, r := range reqs {
		l := listeners[i]
		g.Go(func() error {
			return f.acceptLoop(gctx, l, r)
		})
	}

	err := g.Wait()
	f.closeConns()
	f.handlers.Wait()
	if ctx.Err() != nil {
		return nil
	}
	return err
}

func (f *Forwarder) acceptLoop(ctx context.Context, l net.Listener, r Request) error {
	for {
		conn, err := l.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return errors.TunnelError(fmt.Sprintf("listener on %s failed", l.Addr()), err)
		}
		f.handlers.Add(1)
		go func() {
			defer f.handlers.Done()
			f.handle(ctx, conn, r)
		}()
	}
}

// track registers c for shutdown. Once the forwarder is shutting down c is
// closed instead and track returns false.
func (f *Forwarder) track(id string, c net.Conn) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		c.Close()
		return false
	}
	f.conns[id] = c
	return true
}

func (f *Forwarder) untrack(id string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.conns, id)
}

func (f *Forwarder) closeConns() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	for _, c := range f.conns {
		c.Close()
	}
}

func (f *Forwarder) handle(ctx context.Context, src net.Conn, r Request) {
	id := uuid.NewString()
	direction := string(f.direction)
	log := f.logger.With("conn", id, "from", src.RemoteAddr().String(), "target", r.targetAddr(f.direction))

	if !f.track(id+"/src", src) {
		return
	}
	defer f.untrack(id + "/src")
	defer src.Close()

	f.metrics.TunnelOpened(direction)

	dst, err := f.dial(ctx, r)
	if err != nil {
		log.Warn("forwarded connection failed", "error", errors.TunnelError("dial failed", err))
		f.metrics.TunnelClosed(direction, 0, true)
		return
	}
	defer dst.Close()
	if !f.track(id+"/dst", dst) {
		f.metrics.TunnelClosed(direction, 0, false)
		return
	}
	defer f.untrack(id + "/dst")

	log.Debug("connection opened")
	n := splice(src, dst)
	log.Debug("connection closed", "bytes", n)
	f.metrics.TunnelClosed(direction, n, false)
}

type closeWriter interface {
	CloseWrite() error
}

// splice copies in both directions until both sides are done and returns
// the number of bytes moved. End of input on one side is propagated as a
// half-close when the other side supports it; a read or write error tears
// down both sides.
func splice(a, b net.Conn) int64 {
	var total atomic.Int64
	var wg sync.WaitGroup
	wg.Add(2)

	pipe := func(dst, src net.Conn) {
		defer wg.Done()
		n, err := io.Copy(dst, src)
		total.Add(n)
		if err != nil {
			a.Close()
			b.Close()
			return
		}
		if cw, ok := dst.(closeWriter); ok {
			cw.CloseWrite()
		} else {
			dst.Close()
		}
	}

	go pipe(a, b)
	go pipe(b, a)
	wg.Wait()
	return total.Load()
}
