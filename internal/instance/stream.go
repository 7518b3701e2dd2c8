package instance

import (
	"context"
	"io"
	"iter"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/pojntfx/pojde-rs/internal/audit"
	"github.com/pojntfx/pojde-rs/internal/errors"
	"github.com/pojntfx/pojde-rs/internal/metrics"
	"github.com/pojntfx/pojde-rs/internal/runtime"
)

// DefaultShell is run by Enter when no command is given.
const DefaultShell = "/bin/bash"

// ErrUnexpectedStdin is returned by Relay when a stream yields a chunk
// tagged as container input. Logs and Enter never produce one.
var ErrUnexpectedStdin = errors.New(errors.ExitGeneralError, "stream yielded a chunk tagged stdin")

// LogsOptions selects which log output Logs returns.
type LogsOptions struct {
	// Follow keeps the stream open for new output.
	Follow bool
	// Tail limits the history to the last N lines ("all" or "" for everything).
	Tail string
	// Timestamps prefixes every line with its timestamp.
	Timestamps bool
}

// EnterOptions configures an interactive session.
type EnterOptions struct {
	Command    []string
	User       string
	WorkingDir string
	Env        []string
	TTY        bool
	// Stdin is copied into the session until EOF, then the session's
	// input is closed. Nil leaves stdin detached.
	Stdin io.Reader
}

// ChunkSource yields chunks until io.EOF.
type ChunkSource interface {
	Next() (runtime.Chunk, error)
}

// Stream is an attached log or console stream of one instance. Closing it,
// or cancelling the context it was opened with, ends the runtime
// subscription.
type Stream struct {
	Instance string

	reader  runtime.ChunkReader
	exec    *runtime.ExecSession
	cancel  context.CancelFunc
	metrics *metrics.Metrics

	closed    atomic.Bool
	closeOnce sync.Once
	closeErr  error
}

func newStream(ctx context.Context, cancel context.CancelFunc, name string, reader runtime.ChunkReader, mt *metrics.Metrics) *Stream {
	s := &Stream{
		Instance: name,
		reader:   reader,
		cancel:   cancel,
		metrics:  mt,
	}
	go func() {
		<-ctx.Done()
		s.Close()
	}()
	return s
}

// Next returns the next chunk. It returns io.EOF once the runtime ends the
// stream or the stream is closed.
func (s *Stream) Next() (runtime.Chunk, error) {
	chunk, err := s.reader.Next()
	if err != nil {
		if s.closed.Load() {
			return runtime.Chunk{}, io.EOF
		}
		return runtime.Chunk{}, err
	}
	s.metrics.ObserveChunk(chunk.Stream.String())
	return chunk, nil
}

// Chunks iterates over the stream until it ends. A terminal error other than
// io.EOF is yielded once with an empty chunk.
func (s *Stream) Chunks() iter.Seq2[runtime.Chunk, error] {
	return func(yield func(runtime.Chunk, error) bool) {
		for {
			chunk, err := s.Next()
			if err == io.EOF {
				return
			}
			if !yield(chunk, err) || err != nil {
				return
			}
		}
	}
}

// Resize changes the terminal size of an Enter session. It is a no-op for
// log streams.
func (s *Stream) Resize(ctx context.Context, height, width uint) error {
	if s.exec == nil {
		return nil
	}
	return s.exec.Resize(ctx, height, width)
}

// Close ends the stream. It is safe to call more than once.
func (s *Stream) Close() error {
	s.closeOnce.Do(func() {
		s.closed.Store(true)
		s.cancel()
		s.closeErr = s.reader.Close()
	})
	return s.closeErr
}

// Relay writes every chunk of src to stdout or stderr in arrival order until
// the stream ends. Data is copied as is, without decoding.
func Relay(src ChunkSource, stdout, stderr io.Writer) error {
	for {
		chunk, err := src.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}

		var w io.Writer
		switch chunk.Stream {
		case runtime.StreamStdout:
			w = stdout
		case runtime.StreamStderr:
			w = stderr
		default:
			return ErrUnexpectedStdin
		}
		if _, err := w.Write(chunk.Data); err != nil {
			return err
		}
	}
}

// Logs attaches to the log output of an instance. Stopped instances return
// their history.
func (m *Manager) Logs(ctx context.Context, name string, opts LogsOptions) (*Stream, error) {
	runtimeName, err := m.resolve(name)
	if err != nil {
		return nil, err
	}

	streamCtx, cancel := context.WithCancel(ctx)
	reader, err := m.client.Logs(streamCtx, runtimeName, runtime.LogsOptions{
		Follow:     opts.Follow,
		Tail:       opts.Tail,
		Timestamps: opts.Timestamps,
	})
	if err != nil {
		cancel()
		return nil, m.runtimeError("logs", name, err)
	}

	m.logger.Debug("attached to logs", "instance", name, "follow", opts.Follow)
	return newStream(streamCtx, cancel, name, reader, m.metrics), nil
}

// Enter starts an interactive command inside a running instance and
// attaches to its output.
func (m *Manager) Enter(ctx context.Context, name string, opts EnterOptions) (*Stream, error) {
	detail, err := m.Inspect(ctx, name)
	if err != nil {
		return nil, err
	}
	if !detail.Running {
		return nil, errors.InstanceNotRunning(name)
	}

	cmd := opts.Command
	if len(cmd) == 0 {
		cmd = []string{DefaultShell}
	}

	streamCtx, cancel := context.WithCancel(ctx)
	session, err := m.client.Exec(streamCtx, detail.ID, runtime.ExecOptions{
		Cmd:         cmd,
		User:        opts.User,
		WorkingDir:  opts.WorkingDir,
		Env:         opts.Env,
		TTY:         opts.TTY,
		AttachStdin: opts.Stdin != nil,
	})
	if err != nil {
		cancel()
		m.logEvent(audit.EventError, name, "failed", "enter: "+err.Error())
		return nil, m.runtimeError("exec", name, err)
	}

	s := newStream(streamCtx, cancel, name, session.Output, m.metrics)
	s.exec = session

	if opts.Stdin != nil {
		go func() {
			if _, err := io.Copy(session, opts.Stdin); err != nil && !s.closed.Load() {
				m.logger.Debug("stdin copy ended", "instance", name, "error", err)
			}
			session.CloseWrite()
		}()
	}

	m.logEvent(audit.EventEnter, name, "attached", strings.Join(cmd, " "))
	return s, nil
}
