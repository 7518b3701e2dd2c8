//go:build windows

package terminal

import "context"

// watchResize is a no-op; there is no window change signal.
func watchResize(ctx context.Context, fn func()) func() {
	return func() {}
}
