// Package minage narrows npm's outdated report to versions that have been
// published long enough to be considered low-risk.
//
// Each dependency goes through two selections over its publish history:
// the newest version older than the minimum age picks a release line, then
// the newest patch in that line older than the (usually shorter) patch age
// becomes the recommended latest.
package minage

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/ajxudir/ripen/pkg/errors"
	"github.com/ajxudir/ripen/pkg/formats"
	"github.com/ajxudir/ripen/pkg/registry"
	"github.com/ajxudir/ripen/pkg/verbose"
	"github.com/ajxudir/ripen/pkg/versioning"
)

const day = 24 * time.Hour

// Options configures ApplyMinAgeFilter.
//
// Fields:
//   - MinAgeDays: Age a version needs before its release line is considered
//   - MinAgePatchDays: Age a patch inside that line needs before it is recommended
//   - Now: Evaluation time; zero means time.Now()
//   - Concurrency: Maximum parallel lookups, 0 for unlimited
//   - NonSemver: Handling of git, linked and remote installs
//   - OnProgress: Optional callback after each dependency; called from worker goroutines
type Options struct {
	MinAgeDays      int
	MinAgePatchDays int
	Now             time.Time
	Concurrency     int
	NonSemver       NonSemverPolicy
	OnProgress      func(done, total int)
}

// Result is the filtered dependency list.
//
// Fields:
//   - Dependencies: Kept dependencies in input order
//   - Warnings: One message per package whose publish times were unavailable
type Result struct {
	Dependencies []formats.OutdatedDependency
	Warnings     []string
}

// outcome is the per-dependency result slot.
type outcome struct {
	dep     formats.OutdatedDependency
	keep    bool
	warning string
}

// ApplyMinAgeFilter applies the minimum-age policy to every dependency.
//
// It performs the following operations:
//   - Looks up publish times for all dependencies concurrently
//   - Replaces Latest with the newest qualifying version, or drops the
//     dependency when nothing newer than Current qualifies
//   - Caps Wanted at the newest qualifying version within the declared range
//   - Passes dependencies with unavailable publish times through unchanged,
//     adding one warning per package
//
// The input slice and its records are never modified.
//
// Parameters:
//   - ctx: Cancellation for all lookups
//   - deps: Outdated dependencies, typically from outdated.Sorted
//   - source: Publish-time source
//   - opts: Age thresholds and execution settings
//
// Returns:
//   - *Result: Filtered dependencies in input order and warnings
//   - error: The first fatal lookup error (malformed response) or ctx.Err()
func ApplyMinAgeFilter(ctx context.Context, deps []formats.OutdatedDependency, source registry.TimestampSource, opts Options) (*Result, error) {
	ev := evaluator{
		source:   source,
		minAge:   time.Duration(opts.MinAgeDays) * day,
		patchAge: time.Duration(opts.MinAgePatchDays) * day,
		now:      opts.Now,
		policy:   opts.NonSemver,
	}
	if ev.now.IsZero() {
		ev.now = time.Now()
	}
	if ev.policy == "" {
		ev.policy = NonSemverPassthrough
	}

	slots := make([]outcome, len(deps))
	var done atomic.Int64

	g, gctx := errgroup.WithContext(ctx)
	if opts.Concurrency > 0 {
		g.SetLimit(opts.Concurrency)
	}
	for i, dep := range deps {
		i, dep := i, dep
		g.Go(func() error {
			out, err := ev.evaluate(gctx, dep)
			if err != nil {
				return err
			}
			slots[i] = out
			if opts.OnProgress != nil {
				opts.OnProgress(int(done.Add(1)), len(deps))
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	result := &Result{Dependencies: make([]formats.OutdatedDependency, 0, len(deps))}
	for _, slot := range slots {
		if slot.keep {
			result.Dependencies = append(result.Dependencies, slot.dep)
		}
		if slot.warning != "" {
			result.Warnings = append(result.Warnings, slot.warning)
		}
	}
	return result, nil
}

// evaluator holds the per-run selection parameters.
type evaluator struct {
	source   registry.TimestampSource
	minAge   time.Duration
	patchAge time.Duration
	now      time.Time
	policy   NonSemverPolicy
}

// evaluate decides the fate of a single dependency.
func (e evaluator) evaluate(ctx context.Context, dep formats.OutdatedDependency) (outcome, error) {
	if dep.Current != "" && !versioning.HasTriplet(dep.Current) {
		if e.policy == NonSemverExclude {
			reason := "installed version " + dep.Current
			if formats.IsNonSemver(dep.Current) {
				reason = dep.Current + " install"
			}
			verbose.PackageFiltered(dep.Name, errors.NewUnsupportedError("min-age", reason, "").Error())
			return outcome{}, nil
		}
		verbose.Debugf("Package %s is installed as %q, passing through", dep.Name, dep.Current)
		return outcome{dep: dep, keep: true}, nil
	}

	lookup, err := e.source.VersionTimestamps(ctx, dep.RegistryName())
	if err != nil {
		return outcome{}, fmt.Errorf("publish times for %s: %w", dep.Name, err)
	}
	if !lookup.Available() {
		return outcome{
			dep:     dep,
			keep:    true,
			warning: fmt.Sprintf("Unable to retrieve publish times for %s: %s", dep.Name, lookup.Reason),
		}, nil
	}
	ts := lookup.Timestamps

	candidate, ok := e.selectTwoPhase(ts, "")
	if !ok {
		verbose.PackageFiltered(dep.Name, "no version old enough")
		return outcome{}, nil
	}
	if candidate == dep.Current || (dep.Current != "" && versioning.Compare(candidate, dep.Current) <= 0) {
		verbose.PackageFiltered(dep.Name, "already at newest qualifying version "+candidate)
		return outcome{}, nil
	}

	filtered := dep.WithLatest(candidate)
	if e.needsWantedCheck(dep, ts) {
		wanted, ok := e.selectTwoPhase(ts, dep.Wanted)
		if !ok || (dep.Current != "" && versioning.Compare(wanted, dep.Current) < 0) {
			wanted = dep.Current
		}
		filtered = filtered.WithWanted(wanted)
	}

	verbose.VersionSelected(dep.Name, dep.Current, filtered.Latest, "min-age")
	return outcome{dep: filtered, keep: true}, nil
}

// needsWantedCheck reports whether Wanted must be re-selected: it differs
// from Current and has not itself reached the minimum age.
func (e evaluator) needsWantedCheck(dep formats.OutdatedDependency, ts versioning.Timestamps) bool {
	if dep.Wanted == dep.Current || !versioning.HasTriplet(dep.Wanted) {
		return false
	}
	return !ts.IsQualified(dep.Wanted, e.minAge, e.now)
}

// selectTwoPhase picks a release line with the minimum age, then the newest
// patch in that line with the patch age. maxVersion bounds both phases.
//
// Returns:
//   - string: The selected version
//   - bool: false when no version reaches the minimum age
func (e evaluator) selectTwoPhase(ts versioning.Timestamps, maxVersion string) (string, bool) {
	lineVersion, ok := versioning.SelectQualified(ts, e.minAge, e.now, maxVersion)
	if !ok {
		return "", false
	}

	sameLine := ts.Filter(func(v string) bool { return versioning.SameLine(v, lineVersion) })
	patch, ok := versioning.SelectQualified(sameLine, e.patchAge, e.now, maxVersion)
	if ok && versioning.Compare(patch, lineVersion) >= 0 {
		return patch, true
	}
	return lineVersion, true
}
