// Package testutil provides shared test helpers: stream capture, record
// builders and in-memory fakes for the npm lister and the publish-time source.
package testutil

import (
	"bytes"
	"io"
	"os"
	"testing"
)

// capture swaps *target for a pipe while fn runs and returns what was written.
// The pipe is drained concurrently so large outputs cannot block fn.
func capture(t *testing.T, target **os.File, fn func()) string {
	t.Helper()

	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("failed to create pipe: %v", err)
	}

	original := *target
	*target = w

	done := make(chan string)
	go func() {
		var buf bytes.Buffer
		_, _ = io.Copy(&buf, r)
		done <- buf.String()
	}()

	defer func() {
		*target = original
	}()
	fn()

	_ = w.Close()
	out := <-done
	_ = r.Close()
	return out
}

// CaptureStdout captures stdout during the execution of fn.
//
// Parameters:
//   - t: Testing instance for helper marking
//   - fn: Function to execute while capturing stdout
//
// Returns:
//   - string: All content written to stdout during fn execution
func CaptureStdout(t *testing.T, fn func()) string {
	t.Helper()
	return capture(t, &os.Stdout, fn)
}
