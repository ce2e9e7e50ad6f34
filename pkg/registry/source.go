// Package registry fetches the publish time of every version of an npm
// package, either through the npm CLI or directly from a registry over HTTP.
package registry

import (
	"context"
	"fmt"
	"strings"

	"github.com/ajxudir/ripen/pkg/config"
	"github.com/ajxudir/ripen/pkg/versioning"
)

// TimestampSource returns version publish times for a package.
//
// Implementations report an unreachable package as an unavailable Lookup
// with a nil error. A non-nil error is reserved for responses that break the
// expected contract (see errors.MalformedResponseError) and for context
// cancellation; callers abort on it.
type TimestampSource interface {
	VersionTimestamps(ctx context.Context, name string) (Lookup, error)
}

// Lookup is the outcome of a single timestamp fetch.
//
// Fields:
//   - Timestamps: Version to publish time, set when available
//   - Reason: Why the data is unavailable, set otherwise
type Lookup struct {
	Timestamps versioning.Timestamps
	Reason     string
	available  bool
}

// Available wraps fetched timestamps.
func Available(ts versioning.Timestamps) Lookup {
	return Lookup{Timestamps: ts, available: true}
}

// Unavailable reports that no timestamps could be obtained.
func Unavailable(reason string) Lookup {
	return Lookup{Reason: reason}
}

// Available reports whether the lookup carries timestamps.
func (l Lookup) Available() bool {
	return l.available
}

// New builds the source selected by registry.source.
//
// Parameters:
//   - cfg: Effective configuration
//
// Returns:
//   - TimestampSource: CommandSource for "npm", HTTPSource for "http"
//   - error: unknown source or invalid HTTP settings
func New(cfg *config.Config) (TimestampSource, error) {
	switch cfg.Registry.Source {
	case config.SourceNPM:
		return NewCommandSource(cfg), nil
	case config.SourceHTTP:
		return NewHTTPSource(cfg)
	default:
		return nil, fmt.Errorf("unknown registry source %q", cfg.Registry.Source)
	}
}

// firstLine trims err text to its first line for warning messages.
func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if idx := strings.IndexByte(s, '\n'); idx >= 0 {
		return strings.TrimSpace(s[:idx])
	}
	return s
}
