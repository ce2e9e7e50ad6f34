package output

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
)

// Progress is a single-line progress indicator, safe for concurrent use.
//
// Fields:
//   - writer: Destination for progress output (typically os.Stderr)
//   - total: Total number of steps in the operation
//   - message: Descriptive message displayed with the progress
//   - mu: Serializes rendering so lines from different goroutines do not interleave
//   - enabled: Whether progress output is enabled
//   - lastWidth: Width of the last rendered line, for clearing
//   - highest: Highest step rendered so far
type Progress struct {
	writer    io.Writer
	total     int
	message   string
	mu        sync.Mutex
	enabled   bool
	lastWidth int
	highest   int
}

// NewProgress creates an enabled progress indicator.
func NewProgress(writer io.Writer, total int, message string) *Progress {
	return &Progress{
		writer:  writer,
		total:   total,
		message: message,
		enabled: true,
	}
}

// SetEnabled enables or disables progress output.
func (p *Progress) SetEnabled(enabled bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.enabled = enabled
}

// SetCurrent renders current/total. Updates arriving out of order from
// worker goroutines never move the indicator backwards.
func (p *Progress) SetCurrent(current int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if current < p.highest {
		return
	}
	p.highest = current
	p.render(current)
}

// Clear erases the progress line.
func (p *Progress) Clear() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.enabled && p.lastWidth > 0 {
		_, _ = fmt.Fprintf(p.writer, "\r%s\r", strings.Repeat(" ", p.lastWidth))
		p.lastWidth = 0
	}
}

// render writes the line; the caller holds mu.
func (p *Progress) render(current int) {
	if !p.enabled || p.total == 0 {
		return
	}
	percentage := float64(current) / float64(p.total) * 100
	line := fmt.Sprintf("\r%s: %d/%d (%.0f%%)", p.message, current, p.total, percentage)
	if len(line) < p.lastWidth {
		line += strings.Repeat(" ", p.lastWidth-len(line))
	}
	p.lastWidth = len(line)

	_, _ = fmt.Fprint(p.writer, line)

	// Flush stderr so progress renders immediately in CI logs.
	if f, ok := p.writer.(*os.File); ok {
		_ = f.Sync()
	}
}
