package errors

import (
	"errors"
	"fmt"
)

// Exit codes for scripting integration.
const (
	// ExitSuccess indicates the command completed. Warnings about individual
	// packages do not change the exit code.
	ExitSuccess = 0

	// ExitFailure indicates a fatal error such as a failed npm ls or a
	// malformed collaborator response.
	ExitFailure = 2

	// ExitConfigError indicates a configuration or preflight validation error.
	ExitConfigError = 3
)

// ExitError represents a command termination with a specific exit code.
//
// Fields:
//   - Code: Exit code (ExitFailure or ExitConfigError)
//   - Message: Human-readable error message
//   - Err: Underlying error that caused this exit, may be nil
//
// Example:
//
//	return &ExitError{
//	    Code:    ExitConfigError,
//	    Message: "failed to load config",
//	    Err:     err,
//	}
type ExitError struct {
	// Code is the exit code for the command.
	Code int

	// Message is a human-readable description of why the command failed.
	Message string

	// Err is the underlying error that caused this exit.
	Err error
}

// Error implements the error interface.
//
// Returns:
//   - string: Message if set, otherwise the wrapped error's message or a default
func (e *ExitError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return fmt.Sprintf("exit code %d", e.Code)
}

// Unwrap returns the underlying error for errors.Is/As support.
func (e *ExitError) Unwrap() error {
	return e.Err
}

// NewExitError creates an ExitError with the given code and underlying error.
//
// Parameters:
//   - code: Exit code
//   - err: Underlying error, may be nil
//
// Returns:
//   - *ExitError: New exit error
func NewExitError(code int, err error) *ExitError {
	return &ExitError{Code: code, Err: err}
}

// NewExitErrorf creates an ExitError with the given code and formatted message.
func NewExitErrorf(code int, format string, args ...interface{}) *ExitError {
	return &ExitError{Code: code, Message: fmt.Sprintf(format, args...)}
}

// GetExitCode extracts the exit code from an error.
//
// If err is nil, returns ExitSuccess.
// If err is an ExitError, returns its code.
// Otherwise returns ExitFailure.
//
// Parameters:
//   - err: The error to extract code from
//
// Returns:
//   - int: Exit code
func GetExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}

	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}

	return ExitFailure
}

// IsExitError checks if err is an ExitError and returns it.
func IsExitError(err error) (*ExitError, bool) {
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr, true
	}
	return nil, false
}

// MalformedResponseError reports a collaborator response that does not have
// the shape the caller requires, for example a JSON array where an object of
// version timestamps was expected.
//
// Fields:
//   - Source: The producer of the document ("npm ls", "npm outdated", "registry", "timestamps")
//   - Package: The package the document was requested for, if any
//   - Detail: What was wrong with the document
type MalformedResponseError struct {
	Source  string
	Package string
	Detail  string
}

// Error implements the error interface.
//
// Returns:
//   - string: "malformed <source> response for <package>: <detail>"
func (e *MalformedResponseError) Error() string {
	if e.Package != "" {
		return fmt.Sprintf("malformed %s response for %s: %s", e.Source, e.Package, e.Detail)
	}
	return fmt.Sprintf("malformed %s response: %s", e.Source, e.Detail)
}

// NewMalformedResponseError creates a MalformedResponseError.
//
// Parameters:
//   - source: The producer of the document
//   - pkg: The package name, may be empty
//   - detail: Description of the problem
//
// Returns:
//   - *MalformedResponseError: New error
func NewMalformedResponseError(source, pkg, detail string) *MalformedResponseError {
	return &MalformedResponseError{Source: source, Package: pkg, Detail: detail}
}

// IsMalformedResponse reports whether err is or wraps a MalformedResponseError.
func IsMalformedResponse(err error) bool {
	var mre *MalformedResponseError
	return errors.As(err, &mre)
}

// UnsupportedError indicates the min-age filter cannot evaluate a dependency.
//
// Fields:
//   - Operation: The attempted operation (e.g., "min-age")
//   - Reason: Why the operation is not supported
//   - Package: Name of the package
//
// Example:
//
//	return &UnsupportedError{
//	    Operation: "min-age",
//	    Reason:    "installed from git",
//	    Package:   dep.Name,
//	}
type UnsupportedError struct {
	// Operation is the attempted operation.
	Operation string

	// Reason explains why the operation is not supported.
	Reason string

	// Package is the name of the affected package.
	Package string
}

// Error implements the error interface.
//
// Returns:
//   - string: "package: operation not supported: reason", omitting empty parts
func (e *UnsupportedError) Error() string {
	if e.Package != "" {
		return fmt.Sprintf("%s: %s not supported: %s", e.Package, e.Operation, e.Reason)
	}
	if e.Operation != "" {
		return fmt.Sprintf("%s not supported: %s", e.Operation, e.Reason)
	}
	return e.Reason
}

// NewUnsupportedError creates an UnsupportedError with the given details.
func NewUnsupportedError(operation, reason, pkg string) *UnsupportedError {
	return &UnsupportedError{
		Operation: operation,
		Reason:    reason,
		Package:   pkg,
	}
}

// IsUnsupportedError checks if err is an UnsupportedError and returns it.
func IsUnsupportedError(err error) (*UnsupportedError, bool) {
	var ue *UnsupportedError
	if errors.As(err, &ue) {
		return ue, true
	}
	return nil, false
}
