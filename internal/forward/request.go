package forward

import (
	"fmt"
	"strings"

	"github.com/pojntfx/pojde-rs/internal/errors"
	"github.com/pojntfx/pojde-rs/internal/port"
)

// Direction selects the forwarding topology.
type Direction string

const (
	// DirectionLocal listens on this machine and connects out from the instance.
	DirectionLocal Direction = "local"
	// DirectionRemote listens inside the instance and connects out from this machine.
	DirectionRemote Direction = "remote"
)

// ParseDirection parses "local" or "remote".
func ParseDirection(s string) (Direction, error) {
	switch Direction(strings.ToLower(s)) {
	case DirectionLocal:
		return DirectionLocal, nil
	case DirectionRemote:
		return DirectionRemote, nil
	default:
		return "", errors.ValidationError(fmt.Sprintf("invalid direction %q: must be local or remote", s))
	}
}

// Request is one forwarded address pair.
type Request struct {
	Local  string `json:"local"`
	Remote string `json:"remote"`
}

// ParseRequest parses "lhost:lport:rhost:rport" and its short forms.
func ParseRequest(spec string) (Request, error) {
	local, remote, err := port.SplitForwardSpec(spec)
	if err != nil {
		return Request{}, errors.ValidationError(err.Error())
	}
	return Request{Local: local, Remote: remote}, nil
}

// ParseRequests parses every spec, failing on the first invalid one.
func ParseRequests(specs []string) ([]Request, error) {
	reqs := make([]Request, 0, len(specs))
	for _, spec := range specs {
		r, err := ParseRequest(spec)
		if err != nil {
			return nil, err
		}
		reqs = append(reqs, r)
	}
	return reqs, nil
}

// listenAddr is where the listener for the request is opened.
func (r Request) listenAddr(d Direction) string {
	if d == DirectionRemote {
		return r.Remote
	}
	return r.Local
}

// targetAddr is where accepted connections are dialed.
func (r Request) targetAddr(d Direction) string {
	if d == DirectionRemote {
		return r.Local
	}
	return r.Remote
}

func (r Request) String() string {
	return r.Local + " <-> " + r.Remote
}
