// Package errors provides the error types and exit codes shared by ripen.
//
// This package consolidates error handling into a single location:
//   - ExitError: Command exit with a specific exit code
//   - MalformedResponseError: A collaborator returned a document of the wrong shape
//   - UnsupportedError: A dependency that the min-age filter cannot evaluate
//
// Failure classes:
//
// Per-package registry and npm failures are recovered by the callers (the
// package is passed through with a warning, or excluded from aggregation) and
// never surface here. A MalformedResponseError is a contract violation and is
// the only error that aborts a filter run.
//
// Exit Codes:
//
// Standard exit codes are defined for scripting integration:
//   - ExitSuccess (0): The command completed, possibly with warnings
//   - ExitFailure (2): A fatal error aborted the command
//   - ExitConfigError (3): Configuration or preflight validation error
package errors
