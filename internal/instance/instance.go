package instance

import (
	"strings"

	"github.com/pojntfx/pojde-rs/internal/port"
	"github.com/pojntfx/pojde-rs/internal/runtime"
)

// Instance is the projection of one instance container.
type Instance struct {
	Name   string      `json:"name" yaml:"name"`
	Status string      `json:"status" yaml:"status"`
	Ports  *port.Range `json:"ports,omitempty" yaml:"ports,omitempty"`
	Handle string      `json:"-" yaml:"-"`
}

// Running reports whether the instance is running.
func (i Instance) Running() bool {
	return i.Status == runtime.StateRunning
}

// PortsString renders the port range, or "" when nothing is published.
func (i Instance) PortsString() string {
	if i.Ports == nil {
		return ""
	}
	return i.Ports.String()
}

// publicTCPPorts returns the host ports of published TCP mappings.
func publicTCPPorts(mappings []runtime.PortMapping) []uint16 {
	var ports []uint16
	for _, m := range mappings {
		if m.PublicPort == 0 || m.Type != "tcp" {
			continue
		}
		ports = append(ports, m.PublicPort)
	}
	return ports
}

// project derives an Instance from a listing record. ok is false for
// containers that are not instances.
func project(n Naming, rec runtime.ContainerRecord) (Instance, bool) {
	if len(rec.Names) == 0 {
		return Instance{}, false
	}
	name, err := n.FromRuntimeName(rec.Names[0])
	if err != nil {
		return Instance{}, false
	}
	return Instance{
		Name:   name,
		Status: rec.State,
		Ports:  port.RangeOf(publicTCPPorts(rec.Ports)),
		Handle: rec.ID,
	}, true
}

// projectDetail derives an Instance from an inspect result.
func projectDetail(name string, d *runtime.ContainerDetail) Instance {
	var ports []uint16
	for key, bindings := range d.Ports {
		if !strings.HasSuffix(key, "/tcp") {
			continue
		}
		for _, b := range bindings {
			if p, err := port.Parse(b.HostPort); err == nil {
				ports = append(ports, p)
			}
		}
	}
	return Instance{
		Name:   name,
		Status: d.State,
		Ports:  port.RangeOf(ports),
		Handle: d.ID,
	}
}
