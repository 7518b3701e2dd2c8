// Package runtime provides the container runtime client used by pojdectl.
//
// Supported runtimes:
//   - docker: Docker Engine API (Linux, macOS)
//   - podman: Podman through its Docker-compatible API socket
//
// Runtime selection follows DOCKER_HOST, an explicit host from the
// configuration, or the first well-known socket found on the system.
//
// # Client Interface
//
// The Client interface defines the operations pojdectl needs:
//   - List, Inspect: container queries
//   - Start, Stop, Restart: lifecycle requests returning an Outcome
//   - Logs, Exec: attached output streams
//
// Lifecycle requests distinguish OutcomeChanged from OutcomeAlreadyInState,
// so starting a running container is a successful no-op rather than an
// error.
//
// # Streams
//
// Logs and Exec yield a ChunkReader. Each Chunk is tagged with the stream
// it came from (stdin, stdout or stderr). Multiplexed streams are decoded
// frame by frame so a stdin frame stays visible to the caller.
//
// # Mock Client
//
// For testing, use NewMockClient() to create a mock implementation that can
// be populated with containers, injected failures and canned stream output,
// and used to verify the calls made against it.
package runtime
