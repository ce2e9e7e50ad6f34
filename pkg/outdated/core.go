// Package outdated collects npm's outdated report for every installed
// top-level package.
//
// npm outdated is queried once per package so that one broken package (a
// registry 404, a corrupt install) removes only itself from the report.
package outdated

import (
	"context"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/ajxudir/ripen/pkg/formats"
	"github.com/ajxudir/ripen/pkg/verbose"
)

// ListOptions controls how installed packages are listed and queried.
//
// Fields:
//   - Global: List globally installed packages instead of the project's
//   - Depth: npm ls depth; 0 lists top-level packages only
//   - Concurrency: Maximum parallel outdated queries, 0 for unlimited
type ListOptions struct {
	Global      bool
	Depth       int
	Concurrency int
}

// Lister is the package manager collaborator behind GetOutdatedDependencies.
type Lister interface {
	// ListInstalled returns the installed package tree.
	ListInstalled(ctx context.Context, opts ListOptions) (*formats.InstalledTree, error)

	// OutdatedInfo returns outdated records for the named packages. Packages
	// that are up to date are absent from the map.
	OutdatedInfo(ctx context.Context, names []string) (map[string]formats.OutdatedDependency, error)
}

// GetOutdatedDependencies returns the outdated record of every installed package.
//
// It performs the following operations:
//   - Lists installed packages; a listing failure is returned
//   - Queries each package separately, all queries launched at once (bounded
//     by opts.Concurrency when set)
//   - Drops packages whose query failed, logging the failure
//   - Merges the remaining records, copying the registry name of aliased
//     installs from the installed tree
//
// Parameters:
//   - ctx: Cancellation for the listing and all queries
//   - lister: Package manager collaborator
//   - opts: Listing options
//
// Returns:
//   - map[string]formats.OutdatedDependency: Records keyed by package name; empty when nothing is installed or outdated
//   - error: Listing failure or ctx.Err()
func GetOutdatedDependencies(ctx context.Context, lister Lister, opts ListOptions) (map[string]formats.OutdatedDependency, error) {
	tree, err := lister.ListInstalled(ctx, opts)
	if err != nil {
		return nil, err
	}

	names := tree.Names()
	result := make(map[string]formats.OutdatedDependency)
	if len(names) == 0 {
		verbose.Debugf("No installed packages found")
		return result, nil
	}
	verbose.Debugf("Checking %d installed packages", len(names))

	var mu sync.Mutex
	var g errgroup.Group
	if opts.Concurrency > 0 {
		g.SetLimit(opts.Concurrency)
	}
	for _, name := range names {
		name := name
		g.Go(func() error {
			records, err := lister.OutdatedInfo(ctx, []string{name})
			if err != nil {
				if ctx.Err() == nil {
					verbose.PackageFiltered(name, "outdated query failed: "+err.Error())
				}
				return nil
			}
			mu.Lock()
			defer mu.Unlock()
			for key, dep := range records {
				result[key] = dep
			}
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	for name, dep := range result {
		if installed, ok := tree.Dependencies[name]; ok && dep.ResolvedName == "" && installed.ResolvedName != "" {
			dep.ResolvedName = installed.ResolvedName
			result[name] = dep
		}
	}

	verbose.Infof("Found %d outdated packages out of %d installed", len(result), len(names))
	return result, nil
}

// Sorted returns the records of m ordered by package name.
func Sorted(m map[string]formats.OutdatedDependency) []formats.OutdatedDependency {
	deps := make([]formats.OutdatedDependency, 0, len(m))
	for _, dep := range m {
		deps = append(deps, dep)
	}
	sort.Slice(deps, func(i, j int) bool { return deps[i].Name < deps[j].Name })
	return deps
}
