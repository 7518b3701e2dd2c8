package port

import (
	"fmt"
	"net"
	"slices"
	"strconv"
	"strings"
)

// DefaultHost is used for forward addresses given without a host.
const DefaultHost = "localhost"

// Range is an inclusive range of ports.
type Range struct {
	Start uint16 `json:"start" yaml:"start"`
	End   uint16 `json:"end" yaml:"end"`
}

// String renders the range as "start-end".
func (r Range) String() string {
	return fmt.Sprintf("%d-%d", r.Start, r.End)
}

// Contains reports whether p lies within the range.
func (r Range) Contains(p uint16) bool {
	return p >= r.Start && p <= r.End
}

// RangeOf returns the range spanned by ports, or nil for no ports.
func RangeOf(ports []uint16) *Range {
	if len(ports) == 0 {
		return nil
	}
	sorted := slices.Clone(ports)
	slices.Sort(sorted)
	return &Range{Start: sorted[0], End: sorted[len(sorted)-1]}
}

// Parse parses a decimal port number between 1 and 65535.
func Parse(s string) (uint16, error) {
	n, err := strconv.ParseUint(s, 10, 16)
	if err != nil || n == 0 {
		return 0, fmt.Errorf("invalid port %q", s)
	}
	return uint16(n), nil
}

// splitFields splits s on colons that are not inside brackets.
func splitFields(s string) ([]string, error) {
	var fields []string
	depth := 0
	start := 0
	for i, r := range s {
		switch r {
		case '[':
			depth++
		case ']':
			depth--
			if depth < 0 {
				return nil, fmt.Errorf("unbalanced ']' in %q", s)
			}
		case ':':
			if depth == 0 {
				fields = append(fields, s[start:i])
				start = i + 1
			}
		}
	}
	if depth != 0 {
		return nil, fmt.Errorf("unbalanced '[' in %q", s)
	}
	return append(fields, s[start:]), nil
}

func joinAddress(host, p string) (string, error) {
	if _, err := Parse(p); err != nil {
		return "", err
	}
	host = strings.TrimSuffix(strings.TrimPrefix(host, "["), "]")
	if host == "" {
		host = DefaultHost
	}
	return net.JoinHostPort(host, p), nil
}

// SplitForwardSpec parses a forward specification into its local and
// remote address. Accepted forms:
//
//	lhost:lport:rhost:rport
//	lport:rhost:rport
//	lport:rport
//	port
//
// Missing hosts default to localhost. IPv6 hosts must be bracketed.
func SplitForwardSpec(spec string) (local, remote string, err error) {
	fields, err := splitFields(spec)
	if err != nil {
		return "", "", err
	}

	var lhost, lport, rhost, rport string
	switch len(fields) {
	case 4:
		lhost, lport, rhost, rport = fields[0], fields[1], fields[2], fields[3]
	case 3:
		lport, rhost, rport = fields[0], fields[1], fields[2]
	case 2:
		lport, rport = fields[0], fields[1]
	case 1:
		lport, rport = fields[0], fields[0]
	default:
		return "", "", fmt.Errorf("invalid forward %q: expected lhost:lport:rhost:rport", spec)
	}

	if local, err = joinAddress(lhost, lport); err != nil {
		return "", "", fmt.Errorf("invalid forward %q: local address: %w", spec, err)
	}
	if remote, err = joinAddress(rhost, rport); err != nil {
		return "", "", fmt.Errorf("invalid forward %q: remote address: %w", spec, err)
	}
	return local, remote, nil
}
