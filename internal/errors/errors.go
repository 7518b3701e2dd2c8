package errors

import (
	"errors"
	"fmt"
	"strings"
)

// Exit codes for pojdectl
const (
	ExitSuccess              = 0
	ExitGeneralError         = 1
	ExitInstanceNotFound     = 2
	ExitNotAnInstance        = 3
	ExitRuntimeUnavailable   = 4
	ExitOperationFailed      = 5
	ExitConfigError          = 6
	ExitInstanceNotRunning   = 7
	ExitTunnelError          = 8
	ExitPortNotPublished     = 9
	ExitEncodingError        = 10
	ExitRuntimeRequestFailed = 11
)

// Error kinds. A *CtlError matches its kind with errors.Is.
var (
	ErrRuntimeUnavailable   = errors.New("container runtime unavailable")
	ErrRuntimeRequestFailed = errors.New("container runtime request failed")
	ErrNotAnInstance        = errors.New("not an instance")
	ErrInstanceNotFound     = errors.New("instance not found")
	ErrOperationFailed      = errors.New("operation failed")
	ErrInstanceNotRunning   = errors.New("instance not running")
	ErrPortNotPublished     = errors.New("port not published")
	ErrEncoding             = errors.New("invalid text encoding")
	ErrTunnel               = errors.New("tunnel error")
	ErrConfig               = errors.New("configuration error")
	ErrValidation           = errors.New("validation error")
)

// CtlError is the base error type for pojdectl
type CtlError struct {
	Code     int
	Kind     error
	Message  string
	Instance string
	Cause    error
}

func (e *CtlError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *CtlError) Unwrap() error {
	return e.Cause
}

// Is reports whether target is the kind of this error.
func (e *CtlError) Is(target error) bool {
	return e.Kind != nil && target == e.Kind
}

// ExitCode returns the exit code for this error
func (e *CtlError) ExitCode() int {
	return e.Code
}

// New creates a new CtlError
func New(code int, message string) *CtlError {
	return &CtlError{
		Code:    code,
		Message: message,
	}
}

// Wrap wraps an existing error with a CtlError
func Wrap(code int, message string, cause error) *CtlError {
	return &CtlError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

func kinded(code int, kind error, instance, message string, cause error) *CtlError {
	return &CtlError{
		Code:     code,
		Kind:     kind,
		Message:  message,
		Instance: instance,
		Cause:    cause,
	}
}

// Common error constructors

// RuntimeUnavailable returns an error for an unreachable container runtime
func RuntimeUnavailable(cause error) *CtlError {
	return kinded(ExitRuntimeUnavailable, ErrRuntimeUnavailable, "", "container runtime unavailable", cause)
}

// RuntimeRequestFailed returns an error for a runtime request the daemon rejected
func RuntimeRequestFailed(op string, cause error) *CtlError {
	return kinded(ExitRuntimeRequestFailed, ErrRuntimeRequestFailed, "", fmt.Sprintf("runtime %s failed", op), cause)
}

// NotAnInstance returns an error for a name that does not follow the instance naming convention
func NotAnInstance(name string) *CtlError {
	return kinded(ExitNotAnInstance, ErrNotAnInstance, name, fmt.Sprintf("not an instance: %s", name), nil)
}

// InstanceNotFound returns an error for a missing instance
func InstanceNotFound(name string) *CtlError {
	return kinded(ExitInstanceNotFound, ErrInstanceNotFound, name, fmt.Sprintf("instance not found: %s", name), nil)
}

// OperationFailed returns an error for a failed lifecycle operation on one instance
func OperationFailed(op, name string, cause error) *CtlError {
	return kinded(ExitOperationFailed, ErrOperationFailed, name, fmt.Sprintf("could not %s instance %s", op, name), cause)
}

// InstanceNotRunning returns an error when an instance exists but is not running
func InstanceNotRunning(name string) *CtlError {
	return kinded(ExitInstanceNotRunning, ErrInstanceNotRunning, name, fmt.Sprintf("instance %s is not running", name), nil)
}

// PortNotPublished returns an error when the instance does not publish the given internal port
func PortNotPublished(name, port string) *CtlError {
	return kinded(ExitPortNotPublished, ErrPortNotPublished, name, fmt.Sprintf("instance %s does not publish port %s", name, port), nil)
}

// EncodingError returns an error for stream data that is not valid text
func EncodingError(cause error) *CtlError {
	return kinded(ExitEncodingError, ErrEncoding, "", "stream chunk is not valid UTF-8", cause)
}

// TunnelError returns an error for SSH session and forwarded connection failures
func TunnelError(message string, cause error) *CtlError {
	return kinded(ExitTunnelError, ErrTunnel, "", message, cause)
}

// ConfigError returns an error for configuration issues
func ConfigError(message string, cause error) *CtlError {
	return kinded(ExitConfigError, ErrConfig, "", message, cause)
}

// ValidationError returns an error for input validation failures
func ValidationError(message string) *CtlError {
	return kinded(ExitGeneralError, ErrValidation, "", message, nil)
}

// BatchError aggregates the per-instance failures of a batch operation.
type BatchError struct {
	Op     string
	Errors []error
}

func (e *BatchError) Error() string {
	msgs := make([]string, 0, len(e.Errors))
	for _, err := range e.Errors {
		msgs = append(msgs, err.Error())
	}
	return fmt.Sprintf("%s failed for %d instance(s): %s", e.Op, len(e.Errors), strings.Join(msgs, "; "))
}

func (e *BatchError) Unwrap() []error {
	return e.Errors
}

// ExitCode returns ExitOperationFailed regardless of the individual causes
func (e *BatchError) ExitCode() int {
	return ExitOperationFailed
}

// GetExitCode extracts the exit code from an error
func GetExitCode(err error) int {
	var coder interface{ ExitCode() int }
	if errors.As(err, &coder) {
		return coder.ExitCode()
	}
	return ExitGeneralError
}

// Is checks if an error is of a specific type
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target
func As(err error, target any) bool {
	return errors.As(err, target)
}
