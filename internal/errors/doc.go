// Package errors provides typed errors with exit codes for pojdectl.
//
// # Error Types
//
// CtlError is the base error type that wraps an error with an exit code
// and an error kind:
//
//	type CtlError struct {
//	    Code     int    // Exit code
//	    Kind     error  // Sentinel kind, matched by errors.Is
//	    Message  string // User-facing message
//	    Instance string // Instance the error refers to, if any
//	    Cause    error  // Wrapped error
//	}
//
// BatchError collects the per-instance failures of a batch lifecycle
// operation. It unwraps to every individual failure, so errors.Is and
// errors.As see each of them.
//
// # Exit Codes
//
//	ExitSuccess              = 0   // Success
//	ExitGeneralError         = 1   // General/unknown errors
//	ExitInstanceNotFound     = 2   // Instance does not exist
//	ExitNotAnInstance        = 3   // Name does not carry the instance prefix
//	ExitRuntimeUnavailable   = 4   // Container runtime cannot be reached
//	ExitOperationFailed      = 5   // Start/stop/restart failed
//	ExitConfigError          = 6   // Configuration error
//	ExitInstanceNotRunning   = 7   // Instance exists but is stopped
//	ExitTunnelError          = 8   // SSH session or forwarding failed
//	ExitPortNotPublished     = 9   // Service port is not published on the host
//	ExitEncodingError        = 10  // Stream data is not valid text
//	ExitRuntimeRequestFailed = 11  // Runtime rejected a request
//
// # Error Constructors
//
//	errors.InstanceNotFound("mybox")
//	errors.OperationFailed("start", "mybox", err)
//	errors.TunnelError("ssh handshake failed", err)
//
// # Matching
//
//	if errors.Is(err, errors.ErrInstanceNotRunning) {
//	    ...
//	}
//
// # Extracting Exit Codes
//
//	if err != nil {
//	    os.Exit(errors.GetExitCode(err))
//	}
package errors
