package versioning

import (
	"strings"
	"time"

	"github.com/Masterminds/semver/v3"
)

// Timestamps maps a published version to its ISO-8601 publish time as reported
// by the registry. Iteration order carries no meaning; only the parsed version
// and timestamp values decide ordering.
type Timestamps map[string]string

// Filter returns the subset of entries whose version satisfies keep.
//
// Parameters:
//   - keep: Predicate evaluated for each version key
//
// Returns:
//   - Timestamps: A new map holding only the retained entries
func (ts Timestamps) Filter(keep func(version string) bool) Timestamps {
	out := make(Timestamps, len(ts))
	for version, published := range ts {
		if keep(version) {
			out[version] = published
		}
	}
	return out
}

// PublishedAt returns the parsed publish time of a version.
//
// Returns:
//   - time.Time: The publish time
//   - bool: false when the version is missing or its timestamp cannot be parsed
func (ts Timestamps) PublishedAt(version string) (time.Time, bool) {
	raw, ok := ts[version]
	if !ok {
		return time.Time{}, false
	}
	return ParseTimestamp(raw)
}

// ParseTimestamp parses an ISO-8601 registry timestamp such as "2024-03-01T12:00:00.123Z".
func ParseTimestamp(raw string) (time.Time, bool) {
	t, err := time.Parse(time.RFC3339Nano, strings.TrimSpace(raw))
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// IsVersionKey reports whether a registry key is a full semantic version rather
// than a dist-tag alias or bookkeeping entry ("next", "beta", "created", "modified").
func IsVersionKey(key string) bool {
	_, err := semver.StrictNewVersion(key)
	return err == nil
}

// IsQualified reports whether a version was published at least minAge before now.
//
// A version with a missing or unparsable timestamp never qualifies.
func (ts Timestamps) IsQualified(version string, minAge time.Duration, now time.Time) bool {
	published, ok := ts.PublishedAt(version)
	if !ok {
		return false
	}
	return now.Sub(published) >= minAge
}

// SelectQualified returns the highest version that is old enough and within bounds.
//
// It performs the following operations:
//   - Drops keys that are not semantic versions (dist-tags, created/modified)
//   - Keeps versions whose age (now - publish time) is at least minAge
//   - When maxVersion is non-empty, keeps versions that Compare <= maxVersion
//   - Returns the maximum of the retained set according to Compare
//
// Versions that Compare equal are tie-broken on the raw key so the result does
// not depend on map iteration order.
//
// Parameters:
//   - ts: Version to publish-time mapping for one package
//   - minAge: Minimum elapsed time since publish
//   - now: Evaluation time
//   - maxVersion: Optional inclusive upper bound; empty means unbounded
//
// Returns:
//   - string: The selected version
//   - bool: false when no version qualifies
func SelectQualified(ts Timestamps, minAge time.Duration, now time.Time, maxVersion string) (string, bool) {
	best := ""
	found := false

	for version := range ts {
		if !IsVersionKey(version) {
			continue
		}
		if !ts.IsQualified(version, minAge, now) {
			continue
		}
		if maxVersion != "" && Compare(version, maxVersion) > 0 {
			continue
		}

		if !found {
			best, found = version, true
			continue
		}
		if c := Compare(version, best); c > 0 || (c == 0 && version > best) {
			best = version
		}
	}

	return best, found
}
