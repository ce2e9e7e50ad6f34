package minage

import (
	"fmt"
	"strings"
)

// NonSemverPolicy decides what happens to dependencies whose installed
// version is not a semantic version (git, linked, remote installs).
type NonSemverPolicy string

const (
	// NonSemverPassthrough keeps the dependency unexamined; no publish times are fetched.
	NonSemverPassthrough NonSemverPolicy = "passthrough"

	// NonSemverExclude drops the dependency from the filtered result.
	NonSemverExclude NonSemverPolicy = "exclude"
)

// ParseNonSemverPolicy converts a config or flag value to a NonSemverPolicy.
// The empty string selects NonSemverPassthrough.
func ParseNonSemverPolicy(s string) (NonSemverPolicy, error) {
	switch NonSemverPolicy(strings.ToLower(strings.TrimSpace(s))) {
	case "", NonSemverPassthrough:
		return NonSemverPassthrough, nil
	case NonSemverExclude:
		return NonSemverExclude, nil
	default:
		return "", fmt.Errorf("invalid non-semver policy %q (want %s or %s)", s, NonSemverPassthrough, NonSemverExclude)
	}
}
