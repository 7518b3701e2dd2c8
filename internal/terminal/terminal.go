// Package terminal puts the host terminal into raw mode for interactive
// sessions and reports window size changes.
package terminal

import (
	"context"
	"os"

	"golang.org/x/term"
)

// Size is a terminal size in character cells.
type Size struct {
	Height uint
	Width  uint
}

// Terminal is an interactive host terminal.
type Terminal struct {
	fd    int
	state *term.State
}

// FromFile returns the terminal behind f, or ok=false when f is not a
// terminal (a pipe or a file, for example).
func FromFile(f *os.File) (t *Terminal, ok bool) {
	if f == nil {
		return nil, false
	}
	fd := int(f.Fd())
	if !term.IsTerminal(fd) {
		return nil, false
	}
	return &Terminal{fd: fd}, true
}

// MakeRaw switches the terminal to raw mode until Restore is called.
func (t *Terminal) MakeRaw() error {
	state, err := term.MakeRaw(t.fd)
	if err != nil {
		return err
	}
	t.state = state
	return nil
}

// Restore returns the terminal to the mode it had before MakeRaw.
func (t *Terminal) Restore() error {
	if t.state == nil {
		return nil
	}
	err := term.Restore(t.fd, t.state)
	t.state = nil
	return err
}

// Size returns the current window size.
func (t *Terminal) Size() (Size, error) {
	w, h, err := term.GetSize(t.fd)
	if err != nil {
		return Size{}, err
	}
	return Size{Height: uint(h), Width: uint(w)}, nil
}

// OnResize calls fn with the current size once, then on every window size
// change until ctx is done or the returned stop function is called.
func (t *Terminal) OnResize(ctx context.Context, fn func(Size)) (stop func()) {
	notify := func() {
		if s, err := t.Size(); err == nil {
			fn(s)
		}
	}
	notify()
	return watchResize(ctx, notify)
}
