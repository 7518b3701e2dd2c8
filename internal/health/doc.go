// Package health provides health checks for instances.
//
// A healthy instance has a running container, a published service port
// and an SSH server answering on it.
//
// # Health Status
//
// Instance health is represented by Status:
//
//	StatusHealthy   - Container running, service port published, SSH reachable
//	StatusUnhealthy - Service port published but SSH unreachable
//	StatusNoPort    - Container running without a published service port
//	StatusStopped   - Container not running
//
// # Usage
//
//	result, err := health.Check(ctx, manager, "a", health.SSHProber(opts))
//	// result.ContainerRunning, .ServicePort, .SSHReachable, .Uptime
//	status := result.Summary()
package health
