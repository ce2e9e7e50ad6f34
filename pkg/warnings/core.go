// Package warnings routes non-fatal diagnostics, such as a package whose
// publish times could not be fetched, to a swappable writer.
package warnings

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
)

// Icon prefixes every warning line printed by Print.
const Icon = "⚠️"

var (
	mu         sync.RWMutex
	warnWriter io.Writer = os.Stderr
)

// Warnf writes a formatted warning to the configured warning writer.
//
// Parameters:
//   - format: Printf-style format string for the warning message
//   - args: Variadic arguments to format into the string
func Warnf(format string, args ...any) {
	mu.RLock()
	w := warnWriter
	mu.RUnlock()
	_, _ = fmt.Fprintf(w, format, args...)
}

// WarningWriter returns the currently configured warning writer.
func WarningWriter() io.Writer {
	mu.RLock()
	defer mu.RUnlock()
	return warnWriter
}

// SetWarningWriter swaps the warning writer and returns a restore function.
//
// Parameters:
//   - w: The new io.Writer to use; if nil, defaults to os.Stderr
//
// Returns:
//   - func(): Restores the previous writer when called
func SetWarningWriter(w io.Writer) func() {
	mu.Lock()
	defer mu.Unlock()

	previous := warnWriter
	if w == nil {
		warnWriter = os.Stderr
	} else {
		warnWriter = w
	}

	return func() {
		mu.Lock()
		defer mu.Unlock()
		warnWriter = previous
	}
}

// Collector is an io.Writer that keeps each non-empty written line as a
// separate message. It is safe for concurrent use, so it can be installed with
// SetWarningWriter while timestamp lookups run in parallel.
type Collector struct {
	mu       sync.Mutex
	messages []string
}

// NewCollector creates an empty Collector.
func NewCollector() *Collector {
	return &Collector{}
}

// Write splits p on newlines and stores the non-empty trimmed lines.
//
// Returns:
//   - int: Always len(p)
//   - error: Always nil
func (c *Collector) Write(p []byte) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, line := range strings.Split(string(p), "\n") {
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			c.messages = append(c.messages, trimmed)
		}
	}
	return len(p), nil
}

// Add appends already formatted messages.
func (c *Collector) Add(messages ...string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, m := range messages {
		if trimmed := strings.TrimSpace(m); trimmed != "" {
			c.messages = append(c.messages, trimmed)
		}
	}
}

// Messages returns a copy of the collected messages in arrival order.
func (c *Collector) Messages() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	copied := make([]string, len(c.messages))
	copy(copied, c.messages)
	return copied
}

// Print writes each message on its own line prefixed with Icon.
//
// Does nothing when messages is empty. A blank line separates the block from
// whatever was printed before it.
//
// Example output:
//
//	<blank line>
//	⚠️ Unable to retrieve publish times for left-pad: registry returned 404
func Print(w io.Writer, messages []string) {
	if len(messages) == 0 {
		return
	}
	_, _ = fmt.Fprintln(w)
	for _, m := range messages {
		_, _ = fmt.Fprintf(w, "%s %s\n", Icon, m)
	}
}
