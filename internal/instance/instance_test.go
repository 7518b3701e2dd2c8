package instance

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pojntfx/pojde-rs/internal/port"
	"github.com/pojntfx/pojde-rs/internal/runtime"
)

func TestProject_PortRange(t *testing.T) {
	rec := runtime.ContainerRecord{
		ID:    "abc",
		Names: []string{"/pojde-a"},
		State: runtime.StateRunning,
		Ports: []runtime.PortMapping{
			{PrivatePort: 8001, PublicPort: 8081, Type: "tcp"},
			{PrivatePort: 8000, PublicPort: 8080, Type: "tcp"},
			{PrivatePort: 8005, PublicPort: 8085, Type: "tcp"},
			{PrivatePort: 9000, PublicPort: 7000, Type: "udp"},
			{PrivatePort: 9001, Type: "tcp"},
		},
	}

	inst, ok := project(NewNaming("pojde-"), rec)
	require.True(t, ok)
	assert.Equal(t, "a", inst.Name)
	assert.Equal(t, runtime.StateRunning, inst.Status)
	assert.Equal(t, "abc", inst.Handle)
	require.NotNil(t, inst.Ports)
	assert.Equal(t, port.Range{Start: 8080, End: 8085}, *inst.Ports)
	assert.Equal(t, "8080-8085", inst.PortsString())
	assert.True(t, inst.Running())
}

func TestProject_NoPorts(t *testing.T) {
	rec := runtime.ContainerRecord{
		Names: []string{"/pojde-b"},
		State: runtime.StateExited,
		Ports: []runtime.PortMapping{{PrivatePort: 8005, Type: "tcp"}},
	}

	inst, ok := project(NewNaming("pojde-"), rec)
	require.True(t, ok)
	assert.Nil(t, inst.Ports)
	assert.Empty(t, inst.PortsString())
	assert.False(t, inst.Running())
}

func TestProject_Foreign(t *testing.T) {
	_, ok := project(NewNaming("pojde-"), runtime.ContainerRecord{Names: []string{"/postgres"}})
	assert.False(t, ok)

	_, ok = project(NewNaming("pojde-"), runtime.ContainerRecord{})
	assert.False(t, ok)
}

func TestProjectDetail(t *testing.T) {
	d := &runtime.ContainerDetail{
		ID:    "abc",
		State: runtime.StateRunning,
		Ports: map[string][]runtime.PortBinding{
			"8005/tcp": {{HostIP: "0.0.0.0", HostPort: "8005"}, {HostIP: "::", HostPort: "8005"}},
			"8000/tcp": {{HostIP: "0.0.0.0", HostPort: "8000"}},
			"53/udp":   {{HostIP: "0.0.0.0", HostPort: "53"}},
			"9000/tcp": nil,
		},
	}

	inst := projectDetail("a", d)
	require.NotNil(t, inst.Ports)
	assert.Equal(t, port.Range{Start: 8000, End: 8005}, *inst.Ports)
}
