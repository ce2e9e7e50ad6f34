// Package formats defines the dependency records exchanged between the npm
// collaborators, the min-age engine and the display layer, along with parsers
// for the JSON documents npm emits.
package formats

import (
	"sort"
	"strings"
)

// Dependency types reported by npm outdated.
const (
	TypeDependencies    = "dependencies"
	TypeDevDependencies = "devDependencies"
)

// Non-semver markers npm reports in place of an installed version.
const (
	SentinelGit    = "git"
	SentinelLinked = "linked"
	SentinelRemote = "remote"
)

// OutdatedDependency is one tracked package as reported by npm outdated.
//
// Fields:
//   - Name: Unique key; the package identifier, possibly scoped (@scope/name)
//   - ResolvedName: Identifier used to query the registry (differs from Name for npm aliases)
//   - Current: Installed version or a non-semver sentinel (git, linked, remote, "")
//   - Wanted: Highest version satisfying the declared range
//   - Latest: Version npm reports as newest; the min-age engine may replace it
//   - Location: Installation path, display only
//   - Type: dependencies or devDependencies
type OutdatedDependency struct {
	Name         string `json:"name" xml:"name"`
	ResolvedName string `json:"resolvedName,omitempty" xml:"resolvedName,omitempty"`
	Current      string `json:"current" xml:"current"`
	Wanted       string `json:"wanted" xml:"wanted"`
	Latest       string `json:"latest" xml:"latest"`
	Location     string `json:"location" xml:"location"`
	Type         string `json:"type" xml:"type"`
}

// RegistryName returns the name to look up in the registry.
//
// Returns:
//   - string: ResolvedName when set, otherwise Name
func (d OutdatedDependency) RegistryName() string {
	if strings.TrimSpace(d.ResolvedName) != "" {
		return d.ResolvedName
	}
	return d.Name
}

// WithLatest returns a copy of the dependency with Latest replaced.
func (d OutdatedDependency) WithLatest(latest string) OutdatedDependency {
	d.Latest = latest
	return d
}

// WithWanted returns a copy of the dependency with Wanted replaced.
func (d OutdatedDependency) WithWanted(wanted string) OutdatedDependency {
	d.Wanted = wanted
	return d
}

// IsNonSemver reports whether a version is one of npm's non-semver markers.
//
// The empty string counts as a marker: npm reports an empty current version
// for dependencies that are declared but not installed.
//
// Parameters:
//   - version: The version string to check
//
// Returns:
//   - bool: true for "", git, linked or remote
func IsNonSemver(version string) bool {
	switch strings.TrimSpace(version) {
	case "", SentinelGit, SentinelLinked, SentinelRemote:
		return true
	default:
		return false
	}
}

// InstalledTree is the subset of `npm ls --json` the aggregator needs.
//
// Fields:
//   - Name: Project name from package.json (empty for global listings)
//   - Dependencies: Installed top-level packages keyed by name
type InstalledTree struct {
	Name         string                      `json:"name,omitempty"`
	Dependencies map[string]InstalledPackage `json:"dependencies,omitempty"`
}

// InstalledPackage is a single entry of an npm ls dependency tree.
//
// Fields:
//   - Version: Installed version
//   - Resolved: Tarball URL or git/file reference the package was installed from
//   - ResolvedName: Registry package name derived from Resolved (npm aliases)
type InstalledPackage struct {
	Version      string `json:"version,omitempty"`
	Resolved     string `json:"resolved,omitempty"`
	ResolvedName string `json:"-"`
}

// Names returns the installed package names in the tree, sorted.
func (t *InstalledTree) Names() []string {
	if t == nil {
		return nil
	}
	names := make([]string, 0, len(t.Dependencies))
	for name := range t.Dependencies {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
