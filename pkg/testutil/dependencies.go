package testutil

import (
	"time"

	"github.com/ajxudir/ripen/pkg/formats"
	"github.com/ajxudir/ripen/pkg/versioning"
)

// DependencyBuilder provides a fluent API for building outdated records.
type DependencyBuilder struct {
	dep formats.OutdatedDependency
}

// NewDependency starts a production dependency named name.
func NewDependency(name string) *DependencyBuilder {
	return &DependencyBuilder{dep: formats.OutdatedDependency{
		Name:     name,
		Location: "node_modules/" + name,
		Type:     formats.TypeDependencies,
	}}
}

// Versions sets Current, Wanted and Latest.
func (b *DependencyBuilder) Versions(current, wanted, latest string) *DependencyBuilder {
	b.dep.Current = current
	b.dep.Wanted = wanted
	b.dep.Latest = latest
	return b
}

// Dev marks the dependency as a devDependency.
func (b *DependencyBuilder) Dev() *DependencyBuilder {
	b.dep.Type = formats.TypeDevDependencies
	return b
}

// AliasOf sets ResolvedName for an npm alias install.
func (b *DependencyBuilder) AliasOf(registryName string) *DependencyBuilder {
	b.dep.ResolvedName = registryName
	return b
}

// Build returns the record.
func (b *DependencyBuilder) Build() formats.OutdatedDependency {
	return b.dep
}

// FixedNow is a stable evaluation time for age-based tests.
var FixedNow = time.Date(2025, time.June, 1, 12, 0, 0, 0, time.UTC)

// DaysAgo formats the time n days before FixedNow the way the npm registry does.
func DaysAgo(n int) string {
	return FixedNow.Add(-time.Duration(n) * 24 * time.Hour).Format("2006-01-02T15:04:05.000Z")
}

// History builds a Timestamps map from version to age in days before FixedNow.
func History(ages map[string]int) versioning.Timestamps {
	ts := make(versioning.Timestamps, len(ages))
	for version, age := range ages {
		ts[version] = DaysAgo(age)
	}
	return ts
}
