package errors

import (
	"bytes"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestExitError tests the behavior of ExitError.
//
// It verifies:
//   - Message takes precedence over the wrapped error
//   - Unwrap exposes the wrapped error
//   - GetExitCode finds the code through wrapping
func TestExitError(t *testing.T) {
	base := errors.New("boom")

	err := NewExitError(ExitConfigError, base)
	assert.Equal(t, "boom", err.Error())
	assert.ErrorIs(t, err, base)

	withMsg := &ExitError{Code: ExitFailure, Message: "custom", Err: base}
	assert.Equal(t, "custom", withMsg.Error())

	empty := &ExitError{Code: 7}
	assert.Equal(t, "exit code 7", empty.Error())

	wrapped := fmt.Errorf("outer: %w", err)
	assert.Equal(t, ExitConfigError, GetExitCode(wrapped))
	assert.Equal(t, ExitFailure, GetExitCode(base))
	assert.Equal(t, ExitSuccess, GetExitCode(nil))

	got, ok := IsExitError(wrapped)
	require.True(t, ok)
	assert.Equal(t, ExitConfigError, got.Code)

	formatted := NewExitErrorf(ExitFailure, "failed %d", 2)
	assert.Equal(t, "failed 2", formatted.Error())
}

// TestMalformedResponseError tests the behavior of MalformedResponseError.
func TestMalformedResponseError(t *testing.T) {
	err := NewMalformedResponseError("registry", "left-pad", "expected a JSON object")
	assert.Equal(t, "malformed registry response for left-pad: expected a JSON object", err.Error())

	noPkg := NewMalformedResponseError("npm ls", "", "bad")
	assert.Equal(t, "malformed npm ls response: bad", noPkg.Error())

	assert.True(t, IsMalformedResponse(fmt.Errorf("wrap: %w", err)))
	assert.False(t, IsMalformedResponse(errors.New("malformed but plain")))
	assert.Equal(t, ExitFailure, GetExitCode(err))
}

// TestUnsupportedError tests the behavior of UnsupportedError.
func TestUnsupportedError(t *testing.T) {
	assert.Equal(t, "pkg: min-age not supported: git", NewUnsupportedError("min-age", "git", "pkg").Error())
	assert.Equal(t, "min-age not supported: git", NewUnsupportedError("min-age", "git", "").Error())
	assert.Equal(t, "git", NewUnsupportedError("", "git", "").Error())

	ue, ok := IsUnsupportedError(fmt.Errorf("x: %w", NewUnsupportedError("a", "b", "c")))
	require.True(t, ok)
	assert.Equal(t, "c", ue.Package)
}

// TestHints tests the behavior of GetHint and EnhanceErrorWithHint.
//
// It verifies:
//   - Patterns match case-insensitively
//   - The first matching pattern wins
//   - Unknown errors are returned unchanged
func TestHints(t *testing.T) {
	assert.Empty(t, GetHint(nil))
	assert.Empty(t, EnhanceErrorWithHint(nil))

	hint := GetHint(errors.New("npm ERR! code E401"))
	assert.Contains(t, hint, "Authentication required")

	lsErr := NewMalformedResponseError("npm ls", "", "expected a JSON object")
	assert.Contains(t, GetHint(lsErr), "npm ls printed")

	enhanced := EnhanceErrorWithHint(errors.New("command timed out after 5 seconds"))
	assert.Contains(t, enhanced, "--no-timeout")

	assert.Equal(t, "something else", EnhanceErrorWithHint(errors.New("something else")))
	assert.Equal(t, "Install Node.js: https://nodejs.org/", GetHintForCommand("npm"))
	assert.Empty(t, GetHintForCommand("unknown-tool"))
}

// TestPrintErrorWithHints tests the behavior of PrintErrorWithHints.
func TestPrintErrorWithHints(t *testing.T) {
	var buf bytes.Buffer
	PrintErrorWithHints(&buf, nil)
	assert.Empty(t, buf.String())

	PrintErrorWithHints(&buf, errors.New("getaddrinfo ENOTFOUND registry.example"))
	assert.Contains(t, buf.String(), "Error: getaddrinfo ENOTFOUND")
	assert.Contains(t, buf.String(), "DNS resolution failed")

	buf.Reset()
	PrintErrorWithHints(&buf, NewUnsupportedError("min-age", "linked", "local-lib"))
	assert.Equal(t, "Unsupported: local-lib: min-age not supported: linked\n", buf.String())
}
