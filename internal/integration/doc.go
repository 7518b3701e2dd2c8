// Package integration provides a test harness for integration tests
// that require a real container runtime.
//
// Integration tests are skipped unless POJDECTL_INTEGRATION_TESTS=1 is
// set. They require:
//   - a reachable Docker or Podman socket
//   - permission to pull the harness image and create containers
//
// Run with: POJDECTL_INTEGRATION_TESTS=1 go test -v ./internal/integration/...
package integration
