package cmd

import (
	"bytes"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/ajxudir/ripen/pkg/config"
	"github.com/ajxudir/ripen/pkg/outdated"
	"github.com/ajxudir/ripen/pkg/preflight"
	"github.com/ajxudir/ripen/pkg/registry"
	"github.com/ajxudir/ripen/pkg/testutil"
	"github.com/ajxudir/ripen/pkg/verbose"
)

// resetFlags restores every flag of c to its default and clears Changed,
// since cobra keeps both between Execute calls.
func resetFlags(c *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	c.Flags().VisitAll(reset)
	c.PersistentFlags().VisitAll(reset)
	for _, sub := range c.Commands() {
		resetFlags(sub)
	}
}

// runCLI executes ripen with args and returns stdout and stderr.
func runCLI(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	resetFlags(rootCmd)

	var stdout, stderr bytes.Buffer
	rootCmd.SetOut(&stdout)
	rootCmd.SetErr(&stderr)
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		resetFlags(rootCmd)
		verbose.Disable()
	})

	err := ExecuteTest(args...)
	return stdout.String(), stderr.String(), err
}

// stubCollaborators replaces the npm lister, timestamp source, preflight and
// clock for the duration of a test. It returns a pointer that records whether
// the source was created.
func stubCollaborators(t *testing.T, lister *testutil.FakeLister, source registry.TimestampSource) *bool {
	t.Helper()
	created := false

	origLister, origSource, origPreflight, origNow := newListerFunc, newSourceFunc, preflightFunc, nowFunc
	newListerFunc = func(*config.Config) outdated.Lister { return lister }
	newSourceFunc = func(*config.Config) (registry.TimestampSource, error) {
		created = true
		return source, nil
	}
	preflightFunc = func(*config.Config) *preflight.ValidateResult { return &preflight.ValidateResult{} }
	nowFunc = func() time.Time { return testutil.FixedNow }

	t.Cleanup(func() {
		newListerFunc, newSourceFunc, preflightFunc, nowFunc = origLister, origSource, origPreflight, origNow
	})
	return &created
}
