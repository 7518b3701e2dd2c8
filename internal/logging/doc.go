// Package logging provides logging utilities for pojdectl.
//
// This package provides two categories of output:
//   - Debug logging: Structured logs for debugging (via slog)
//   - User output: Formatted messages for end users
//
// # Debug Logging
//
// Debug logs are written using slog and controlled by verbosity settings:
//
//	logging.Debug("starting instance", "name", name, "handle", handle)
//	logging.Warn("tunnel connection failed", "conn", id, "error", err)
//
// # User Output
//
// User-facing messages are formatted with status indicators:
//
//	logging.UserInfo("Starting %s...", name)
//	logging.UserSuccess("Instance %s started", name)
//	logging.UserWarning("Instance %s is already running", name)
//	logging.UserError("Could not stop instance: %v", err)
//
// Output destinations:
//   - UserInfo, UserSuccess: stdout
//   - UserWarning, UserError: stderr
//
// # Status Indicators
//
// User functions prepend status indicators:
//   - ℹ (info)
//   - ✓ (success)
//   - ⚠ (warning)
//   - ✗ (error)
package logging
