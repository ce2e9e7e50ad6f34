package testutil

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/ajxudir/ripen/pkg/formats"
	"github.com/ajxudir/ripen/pkg/outdated"
	"github.com/ajxudir/ripen/pkg/registry"
	"github.com/ajxudir/ripen/pkg/versioning"
)

// FakeSource is an in-memory registry.TimestampSource.
//
// Packages listed in Histories are available; packages in Unavailable report
// the given reason; packages in Errors fail with the given error. Any other
// package is unavailable with reason "not found". Calls are recorded.
type FakeSource struct {
	Histories   map[string]versioning.Timestamps
	Unavailable map[string]string
	Errors      map[string]error

	mu    sync.Mutex
	calls []string
}

var _ registry.TimestampSource = (*FakeSource)(nil)

// VersionTimestamps implements registry.TimestampSource.
func (f *FakeSource) VersionTimestamps(ctx context.Context, name string) (registry.Lookup, error) {
	f.mu.Lock()
	f.calls = append(f.calls, name)
	f.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return registry.Lookup{}, err
	}
	if err, ok := f.Errors[name]; ok {
		return registry.Lookup{}, err
	}
	if reason, ok := f.Unavailable[name]; ok {
		return registry.Unavailable(reason), nil
	}
	if ts, ok := f.Histories[name]; ok {
		copied := make(versioning.Timestamps, len(ts))
		for k, v := range ts {
			copied[k] = v
		}
		return registry.Available(copied), nil
	}
	return registry.Unavailable("not found"), nil
}

// Calls returns the requested package names, sorted.
func (f *FakeSource) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	calls := append([]string(nil), f.calls...)
	sort.Strings(calls)
	return calls
}

// FakeLister is an in-memory outdated.Lister.
//
// Installed is returned by ListInstalled (or ListErr). Outdated holds the
// record returned for each name; names in OutdatedErrs fail.
type FakeLister struct {
	Installed    *formats.InstalledTree
	ListErr      error
	Outdated     map[string]formats.OutdatedDependency
	OutdatedErrs map[string]error

	mu          sync.Mutex
	listOptions []outdated.ListOptions
	queried     []string
}

var _ outdated.Lister = (*FakeLister)(nil)

// ListInstalled implements outdated.Lister.
func (f *FakeLister) ListInstalled(ctx context.Context, opts outdated.ListOptions) (*formats.InstalledTree, error) {
	f.mu.Lock()
	f.listOptions = append(f.listOptions, opts)
	f.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if f.ListErr != nil {
		return nil, f.ListErr
	}
	if f.Installed == nil {
		return &formats.InstalledTree{Dependencies: map[string]formats.InstalledPackage{}}, nil
	}
	return f.Installed, nil
}

// OutdatedInfo implements outdated.Lister. Names without a record yield an
// empty map, as npm outdated does for up-to-date packages.
func (f *FakeLister) OutdatedInfo(ctx context.Context, names []string) (map[string]formats.OutdatedDependency, error) {
	f.mu.Lock()
	f.queried = append(f.queried, names...)
	f.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	result := make(map[string]formats.OutdatedDependency)
	for _, name := range names {
		if err, ok := f.OutdatedErrs[name]; ok {
			return nil, fmt.Errorf("npm outdated %s: %w", name, err)
		}
		if dep, ok := f.Outdated[name]; ok {
			result[name] = dep
		}
	}
	return result, nil
}

// Queried returns the names passed to OutdatedInfo, sorted.
func (f *FakeLister) Queried() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	queried := append([]string(nil), f.queried...)
	sort.Strings(queried)
	return queried
}

// ListOptions returns the options of every ListInstalled call.
func (f *FakeLister) ListOptions() []outdated.ListOptions {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]outdated.ListOptions(nil), f.listOptions...)
}

// InstalledTree builds a tree from name to installed version.
func InstalledTree(versions map[string]string) *formats.InstalledTree {
	tree := &formats.InstalledTree{Dependencies: make(map[string]formats.InstalledPackage, len(versions))}
	for name, version := range versions {
		tree.Dependencies[name] = formats.InstalledPackage{Version: version}
	}
	return tree
}
