// Package apperrors provides the error taxonomy of the asset stream manager
// and its conversion to gRPC status.
package apperrors

import (
	"errors"
	"strings"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// Code is a machine-readable error code.
type Code string

const (
	CodeUnknown Code = "UNKNOWN"

	// Request errors
	CodeMalformedResourceName Code = "MALFORMED_RESOURCE_NAME"

	// Provisioning errors, one per stage of the ssh init run
	CodeProvisioningStart  Code = "PROVISIONING_START_FAILED"
	CodeProvisioningRun    Code = "PROVISIONING_RUN_FAILED"
	CodeProvisioningExit   Code = "PROVISIONING_NONZERO_EXIT"
	CodeProvisioningOutput Code = "PROVISIONING_OUTPUT_INVALID"

	// Session manager errors
	CodeInvalidDirectory Code = "INVALID_DIRECTORY"
	CodeSessionNotFound  Code = "SESSION_NOT_FOUND"
)

// GRPCCode maps the code to the status code that crosses the RPC boundary.
func (c Code) GRPCCode() codes.Code {
	switch c {
	case CodeMalformedResourceName, CodeInvalidDirectory:
		return codes.InvalidArgument
	case CodeSessionNotFound:
		return codes.NotFound
	case CodeProvisioningStart:
		return codes.FailedPrecondition
	case CodeProvisioningRun, CodeProvisioningExit, CodeProvisioningOutput:
		return codes.Internal
	default:
		return codes.Unknown
	}
}

// Error is the domain error type.
type Error struct {
	Code     Code   // Machine-readable error code
	Message  string // Stage-identifying message
	ExitCode int    // Process exit code, CodeProvisioningExit only
	Output   string // Raw captured tool output, for diagnostics
	Cause    error  // Wrapped underlying error
}

// Error renders "message: cause" followed by the raw output on its own lines.
func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(e.Message)
	if e.Cause != nil {
		b.WriteString(": ")
		b.WriteString(e.Cause.Error())
	}
	if e.Output != "" {
		b.WriteString("\n")
		b.WriteString(e.Output)
	}
	return b.String()
}

// Unwrap returns the underlying cause for error chain traversal.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error by code.
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Code == t.Code
	}
	return false
}

// New creates a domain error with a code and message.
func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Wrap creates a domain error that wraps an underlying cause.
func Wrap(code Code, message string, cause error) *Error {
	return &Error{Code: code, Message: message, Cause: cause}
}

// WithOutput creates a domain error carrying raw tool output.
func WithOutput(code Code, message, output string) *Error {
	return &Error{Code: code, Message: message, Output: output}
}

// CodeOf returns the gRPC code for err. Domain errors map through their Code,
// errors that already carry a gRPC status keep it, anything else is Unknown.
func CodeOf(err error) codes.Code {
	if err == nil {
		return codes.OK
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Code.GRPCCode()
	}
	if s, ok := status.FromError(err); ok {
		return s.Code()
	}
	return codes.Unknown
}

// ToGRPCStatus converts err into a gRPC status error. The full error text is
// kept as the status message.
func ToGRPCStatus(err error) error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return status.Error(e.Code.GRPCCode(), err.Error())
	}
	if s, ok := status.FromError(err); ok {
		return s.Err()
	}
	return status.Error(codes.Unknown, err.Error())
}
