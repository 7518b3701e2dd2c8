package runtime

import (
	"context"
	"encoding/binary"
	"fmt"
	"io"
	"sync"
	"unicode/utf8"

	"github.com/docker/docker/pkg/stdcopy"

	"github.com/pojntfx/pojde-rs/internal/errors"
)

// StreamKind tags the origin of a chunk.
type StreamKind int

const (
	StreamStdin StreamKind = iota
	StreamStdout
	StreamStderr
)

func (k StreamKind) String() string {
	switch k {
	case StreamStdin:
		return "stdin"
	case StreamStdout:
		return "stdout"
	case StreamStderr:
		return "stderr"
	default:
		return fmt.Sprintf("stream(%d)", int(k))
	}
}

// Chunk is one tagged piece of a container output stream.
type Chunk struct {
	Stream StreamKind
	Data   []byte
}

// Text returns the chunk data as a string. It fails with an encoding
// error if the data is not valid UTF-8.
func (c Chunk) Text() (string, error) {
	if !utf8.Valid(c.Data) {
		return "", errors.EncodingError(fmt.Errorf("%d bytes on %s", len(c.Data), c.Stream))
	}
	return string(c.Data), nil
}

// ChunkReader yields chunks in arrival order. Next returns io.EOF once the
// stream ends. Close releases the underlying subscription and unblocks a
// pending Next.
type ChunkReader interface {
	Next() (Chunk, error)
	Close() error
}

const rawChunkSize = 32 * 1024

// maxFramePiece bounds a single frame payload read. Larger frames are
// returned as several chunks of the same stream.
const maxFramePiece = 32 * 1024

// frameHeaderLen is the size of the multiplexing header written by
// stdcopy.NewStdWriter: one stream byte, three padding bytes and a
// big-endian uint32 payload length.
const frameHeaderLen = 8

type frameReader struct {
	rc        io.ReadCloser
	header    [frameHeaderLen]byte
	kind      StreamKind
	remaining uint32
	once      sync.Once
}

// NewFrameReader decodes a multiplexed runtime stream. Unlike
// stdcopy.StdCopy it keeps stdin frames tagged as such instead of merging
// them into stdout.
func NewFrameReader(rc io.ReadCloser) ChunkReader {
	return &frameReader{rc: rc}
}

func (f *frameReader) Next() (Chunk, error) {
	for f.remaining == 0 {
		if err := f.readHeader(); err != nil {
			return Chunk{}, err
		}
	}

	n := min(f.remaining, maxFramePiece)
	data := make([]byte, n)
	if _, err := io.ReadFull(f.rc, data); err != nil {
		return Chunk{}, fmt.Errorf("failed to read frame payload: %w", err)
	}
	f.remaining -= n
	return Chunk{Stream: f.kind, Data: data}, nil
}

func (f *frameReader) readHeader() error {
	if _, err := io.ReadFull(f.rc, f.header[:]); err != nil {
		if err == io.EOF {
			return io.EOF
		}
		return fmt.Errorf("failed to read frame header: %w", err)
	}

	size := binary.BigEndian.Uint32(f.header[4:])
	switch stdcopy.StdType(f.header[0]) {
	case stdcopy.Stdin:
		f.kind = StreamStdin
	case stdcopy.Stdout:
		f.kind = StreamStdout
	case stdcopy.Stderr:
		f.kind = StreamStderr
	case stdcopy.Systemerr:
		msg, _ := io.ReadAll(io.LimitReader(f.rc, int64(min(size, maxFramePiece))))
		return fmt.Errorf("error from runtime daemon: %s", msg)
	default:
		return fmt.Errorf("unknown stream type %d in frame header", f.header[0])
	}
	f.remaining = size
	return nil
}

func (f *frameReader) Close() error {
	var err error
	f.once.Do(func() { err = f.rc.Close() })
	return err
}

type rawReader struct {
	rc   io.ReadCloser
	buf  []byte
	once sync.Once
}

// NewRawReader wraps an unmultiplexed (TTY) stream. Every chunk is
// tagged as stdout.
func NewRawReader(rc io.ReadCloser) ChunkReader {
	return &rawReader{rc: rc, buf: make([]byte, rawChunkSize)}
}

func (r *rawReader) Next() (Chunk, error) {
	for {
		n, err := r.rc.Read(r.buf)
		if n > 0 {
			data := make([]byte, n)
			copy(data, r.buf[:n])
			return Chunk{Stream: StreamStdout, Data: data}, nil
		}
		if err != nil {
			return Chunk{}, err
		}
	}
}

func (r *rawReader) Close() error {
	var err error
	r.once.Do(func() { err = r.rc.Close() })
	return err
}

// ExecSession is an attached command running inside a container.
type ExecSession struct {
	ID     string
	Output ChunkReader

	input      io.Writer
	closeWrite func() error
	resize     func(ctx context.Context, height, width uint) error
}

// NewExecSession assembles a session. input and closeWrite may be nil when
// stdin is not attached; resize may be nil when the runtime cannot resize.
func NewExecSession(id string, output ChunkReader, input io.Writer, closeWrite func() error, resize func(ctx context.Context, height, width uint) error) *ExecSession {
	return &ExecSession{
		ID:         id,
		Output:     output,
		input:      input,
		closeWrite: closeWrite,
		resize:     resize,
	}
}

// Write sends data to the command's stdin.
func (s *ExecSession) Write(p []byte) (int, error) {
	if s.input == nil {
		return 0, fmt.Errorf("exec %s: stdin is not attached", s.ID)
	}
	return s.input.Write(p)
}

// CloseWrite signals end of input to the command.
func (s *ExecSession) CloseWrite() error {
	if s.closeWrite == nil {
		return nil
	}
	return s.closeWrite()
}

// Resize changes the TTY size of the command.
func (s *ExecSession) Resize(ctx context.Context, height, width uint) error {
	if s.resize == nil {
		return nil
	}
	return s.resize(ctx, height, width)
}

// Close terminates the attachment.
func (s *ExecSession) Close() error {
	return s.Output.Close()
}
