// Package versioning compares npm version strings and selects the newest
// published version that satisfies a minimum release age.
package versioning

import (
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/mod/semver"
)

// tripletRegex captures the leading major.minor.patch triplet and the remainder.
var tripletRegex = regexp.MustCompile(`^v?(\d+)\.(\d+)\.(\d+)(.*)$`)

// triplet is the numeric prefix of a version string.
//
// Fields:
//   - major, minor, patch: The parsed numeric components
//   - prerelease: true when the remainder after the triplet starts with "-"
type triplet struct {
	major      int
	minor      int
	patch      int
	prerelease bool
}

// parseTriplet extracts the leading numeric triplet from a version string.
//
// Parameters:
//   - version: The version string (e.g., "1.2.3", "2.0.0-beta.1", "v1.0.0")
//
// Returns:
//   - triplet: The parsed components
//   - bool: false when the string does not start with a major.minor.patch triplet
func parseTriplet(version string) (triplet, bool) {
	m := tripletRegex.FindStringSubmatch(strings.TrimSpace(version))
	if m == nil {
		return triplet{}, false
	}

	major, errMajor := strconv.Atoi(m[1])
	minor, errMinor := strconv.Atoi(m[2])
	patch, errPatch := strconv.Atoi(m[3])
	if errMajor != nil || errMinor != nil || errPatch != nil {
		// Components too large for int are treated like any other unparsable version.
		return triplet{}, false
	}

	return triplet{
		major:      major,
		minor:      minor,
		patch:      patch,
		prerelease: strings.HasPrefix(m[4], "-"),
	}, true
}

// Compare orders two version strings by their numeric major.minor.patch triplet.
//
// It performs the following operations:
//   - Parses the leading triplet of both inputs
//   - Returns 0 when either input has no triplet (sentinels such as "git" or "linked")
//   - Compares major, minor and patch numerically, so "1.9.0" < "1.10.0"
//   - On equal triplets, a pre-release ("-" remainder) sorts below a release
//
// Two pre-releases with the same triplet compare equal, as do two releases.
//
// Parameters:
//   - a: The first version
//   - b: The second version
//
// Returns:
//   - int: Negative if a < b, zero if equal or incomparable, positive if a > b
func Compare(a, b string) int {
	ta, okA := parseTriplet(a)
	tb, okB := parseTriplet(b)
	if !okA || !okB {
		return 0
	}

	if c := compareInts(ta.major, tb.major); c != 0 {
		return c
	}
	if c := compareInts(ta.minor, tb.minor); c != 0 {
		return c
	}
	if c := compareInts(ta.patch, tb.patch); c != 0 {
		return c
	}

	switch {
	case ta.prerelease && !tb.prerelease:
		return -1
	case !ta.prerelease && tb.prerelease:
		return 1
	default:
		return 0
	}
}

// HasTriplet reports whether the version starts with a numeric major.minor.patch triplet.
func HasTriplet(version string) bool {
	_, ok := parseTriplet(version)
	return ok
}

// ReleaseLine returns the major.minor pair of a version, e.g. "1.4" for "1.4.2-rc.1".
//
// The version is canonicalised with golang.org/x/mod/semver, which requires a
// full semantic version. A version that is not valid semver but still carries a
// numeric triplet falls back to the parsed triplet.
//
// Parameters:
//   - version: The version string
//
// Returns:
//   - string: The release line without a "v" prefix
//   - bool: false when no release line can be derived
func ReleaseLine(version string) (string, bool) {
	v := strings.TrimSpace(version)
	if !strings.HasPrefix(v, "v") {
		v = "v" + v
	}
	if semver.IsValid(v) {
		return strings.TrimPrefix(semver.MajorMinor(v), "v"), true
	}

	t, ok := parseTriplet(version)
	if !ok {
		return "", false
	}
	return strconv.Itoa(t.major) + "." + strconv.Itoa(t.minor), true
}

// SameLine reports whether two versions belong to the same major.minor release line.
func SameLine(a, b string) bool {
	la, okA := ReleaseLine(a)
	lb, okB := ReleaseLine(b)
	return okA && okB && la == lb
}

func compareInts(a, b int) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}
