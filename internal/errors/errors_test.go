package errors

import (
	"errors"
	"fmt"
	"testing"
)

func TestCtlError_Error(t *testing.T) {
	tests := []struct {
		name    string
		err     *CtlError
		wantMsg string
	}{
		{
			name:    "without cause",
			err:     New(ExitGeneralError, "something went wrong"),
			wantMsg: "something went wrong",
		},
		{
			name:    "with cause",
			err:     Wrap(ExitGeneralError, "operation failed", fmt.Errorf("underlying error")),
			wantMsg: "operation failed: underlying error",
		},
		{
			name:    "operation failed",
			err:     OperationFailed("stop", "b", fmt.Errorf("boom")),
			wantMsg: "could not stop instance b: boom",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.wantMsg {
				t.Errorf("Error() = %q, want %q", got, tt.wantMsg)
			}
		})
	}
}

func TestCtlError_Unwrap(t *testing.T) {
	cause := fmt.Errorf("root cause")
	err := Wrap(ExitGeneralError, "wrapped", cause)

	if unwrapped := err.Unwrap(); unwrapped != cause {
		t.Errorf("Unwrap() = %v, want %v", unwrapped, cause)
	}

	errNoCause := New(ExitGeneralError, "no cause")
	if unwrapped := errNoCause.Unwrap(); unwrapped != nil {
		t.Errorf("Unwrap() = %v, want nil", unwrapped)
	}
}

func TestConstructors_KindAndCode(t *testing.T) {
	cause := fmt.Errorf("cause")
	tests := []struct {
		name     string
		err      *CtlError
		kind     error
		wantCode int
	}{
		{"runtime unavailable", RuntimeUnavailable(cause), ErrRuntimeUnavailable, ExitRuntimeUnavailable},
		{"runtime request failed", RuntimeRequestFailed("list", cause), ErrRuntimeRequestFailed, ExitRuntimeRequestFailed},
		{"not an instance", NotAnInstance("/other"), ErrNotAnInstance, ExitNotAnInstance},
		{"instance not found", InstanceNotFound("a"), ErrInstanceNotFound, ExitInstanceNotFound},
		{"operation failed", OperationFailed("start", "a", cause), ErrOperationFailed, ExitOperationFailed},
		{"instance not running", InstanceNotRunning("a"), ErrInstanceNotRunning, ExitInstanceNotRunning},
		{"port not published", PortNotPublished("a", "8005/tcp"), ErrPortNotPublished, ExitPortNotPublished},
		{"encoding", EncodingError(cause), ErrEncoding, ExitEncodingError},
		{"tunnel", TunnelError("dial failed", cause), ErrTunnel, ExitTunnelError},
		{"config", ConfigError("bad prefix", cause), ErrConfig, ExitConfigError},
		{"validation", ValidationError("no names"), ErrValidation, ExitGeneralError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if !errors.Is(tt.err, tt.kind) {
				t.Errorf("errors.Is(%v, %v) = false", tt.err, tt.kind)
			}
			if got := tt.err.ExitCode(); got != tt.wantCode {
				t.Errorf("ExitCode() = %d, want %d", got, tt.wantCode)
			}
		})
	}
}

func TestKindsDoNotCrossMatch(t *testing.T) {
	err := InstanceNotFound("a")
	if errors.Is(err, ErrInstanceNotRunning) {
		t.Error("InstanceNotFound should not match ErrInstanceNotRunning")
	}
	if errors.Is(New(ExitGeneralError, "plain"), ErrValidation) {
		t.Error("error without kind should not match any kind")
	}
}

func TestInstanceField(t *testing.T) {
	err := OperationFailed("restart", "web", fmt.Errorf("x"))
	if err.Instance != "web" {
		t.Errorf("Instance = %q, want %q", err.Instance, "web")
	}
}

func TestBatchError(t *testing.T) {
	cause := fmt.Errorf("daemon said no")
	batch := &BatchError{
		Op: "stop",
		Errors: []error{
			OperationFailed("stop", "b", cause),
			InstanceNotFound("c"),
		},
	}

	if !errors.Is(batch, ErrOperationFailed) {
		t.Error("BatchError should match ErrOperationFailed through its members")
	}
	if !errors.Is(batch, ErrInstanceNotFound) {
		t.Error("BatchError should match ErrInstanceNotFound through its members")
	}
	if !errors.Is(batch, cause) {
		t.Error("BatchError should reach the root cause")
	}
	if GetExitCode(batch) != ExitOperationFailed {
		t.Errorf("GetExitCode() = %d, want %d", GetExitCode(batch), ExitOperationFailed)
	}

	want := "stop failed for 2 instance(s): could not stop instance b: daemon said no; instance not found: c"
	if batch.Error() != want {
		t.Errorf("Error() = %q, want %q", batch.Error(), want)
	}
}

func TestGetExitCode(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode int
	}{
		{
			name:     "CtlError",
			err:      InstanceNotFound("test"),
			wantCode: ExitInstanceNotFound,
		},
		{
			name:     "wrapped CtlError",
			err:      fmt.Errorf("outer: %w", PortNotPublished("test", "8005/tcp")),
			wantCode: ExitPortNotPublished,
		},
		{
			name:     "regular error",
			err:      fmt.Errorf("some error"),
			wantCode: ExitGeneralError,
		},
		{
			name:     "nil error",
			err:      nil,
			wantCode: ExitGeneralError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := GetExitCode(tt.err); got != tt.wantCode {
				t.Errorf("GetExitCode() = %d, want %d", got, tt.wantCode)
			}
		})
	}
}

func TestAs(t *testing.T) {
	ctlErr := InstanceNotFound("test")
	wrapped := fmt.Errorf("wrapped: %w", ctlErr)

	var target *CtlError
	if !As(wrapped, &target) {
		t.Error("As() should return true for wrapped CtlError")
	}

	if target.Code != ExitInstanceNotFound {
		t.Errorf("target.Code = %d, want %d", target.Code, ExitInstanceNotFound)
	}

	regularErr := fmt.Errorf("regular error")
	if As(regularErr, &target) {
		t.Error("As() should return false for non-CtlError")
	}
}

func TestErrorChaining(t *testing.T) {
	root := fmt.Errorf("root cause")
	middle := ConfigError("config error", root)
	outer := fmt.Errorf("load failed: %w", middle)

	if !errors.Is(outer, root) {
		t.Error("errors.Is should find root cause")
	}
	if !Is(outer, ErrConfig) {
		t.Error("Is should find the config kind")
	}

	var ctlErr *CtlError
	if !errors.As(outer, &ctlErr) {
		t.Error("errors.As should find CtlError")
	}
	if ctlErr.Code != ExitConfigError {
		t.Errorf("Code = %d, want %d", ctlErr.Code, ExitConfigError)
	}
}
