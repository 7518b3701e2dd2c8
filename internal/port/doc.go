// Package port provides port ranges and forward address parsing.
//
// # Port Ranges
//
// An instance publishes a set of ports on the host. RangeOf reduces them to
// the span between the lowest and highest port, rendered as "start-end":
//
//	r := port.RangeOf([]uint16{8001, 8000, 8005}) // 8000-8005
//
// RangeOf returns nil when there are no ports.
//
// # Forward Specifications
//
// SplitForwardSpec turns a forward argument into a local and a remote
// address:
//
//	local, remote, err := port.SplitForwardSpec("localhost:5000:localhost:5000")
//
// Short forms omit hosts (defaulting to localhost) or use the same port on
// both sides.
package port
