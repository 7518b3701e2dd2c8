// Package instance turns the container runtime into instance semantics.
//
// An instance is a container whose runtime name carries a fixed prefix
// ("pojde-" by default). The Manager hides the prefix: callers use the
// short name everywhere, and containers without the prefix are never
// listed or operated on.
//
// # Operations
//
//   - List, Get: project containers into Instance values with their
//     published port range
//   - Start, Stop, Restart: batch lifecycle operations run concurrently;
//     every name gets its own Result and failures are aggregated into a
//     *errors.BatchError
//   - Logs, Enter: attached streams relayed chunk by chunk with Relay
//   - Forward: local or remote port forwards over an SSH session to the
//     instance's published service port
//
// Starting a running instance or stopping a stopped one succeeds with
// runtime.OutcomeAlreadyInState.
package instance
