package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/ajxudir/ripen/pkg/config"
	"github.com/ajxudir/ripen/pkg/constants"
	"github.com/ajxudir/ripen/pkg/errors"
	"github.com/ajxudir/ripen/pkg/minage"
	"github.com/ajxudir/ripen/pkg/npm"
	"github.com/ajxudir/ripen/pkg/outdated"
	"github.com/ajxudir/ripen/pkg/output"
	"github.com/ajxudir/ripen/pkg/preflight"
	"github.com/ajxudir/ripen/pkg/registry"
	"github.com/ajxudir/ripen/pkg/verbose"
	"github.com/ajxudir/ripen/pkg/warnings"
)

var (
	outdatedMinAgeFlag        int
	outdatedMinAgePatchFlag   int
	outdatedGlobalFlag        bool
	outdatedDepthFlag         int
	outdatedOutputFlag        string
	outdatedConfigFlag        string
	outdatedDirFlag           string
	outdatedRegistryFlag      string
	outdatedConcurrencyFlag   int
	outdatedNonSemverFlag     string
	outdatedNoTimeoutFlag     bool
	outdatedSkipPreflightFlag bool
)

// Collaborator constructors, replaced in tests.
var (
	newListerFunc = func(cfg *config.Config) outdated.Lister { return npm.NewClient(cfg) }
	newSourceFunc = registry.New
	preflightFunc = preflight.ValidateConfig
	nowFunc       = time.Now
)

var outdatedCmd = &cobra.Command{
	Use:   "outdated",
	Short: "List outdated packages whose updates have reached a minimum age",
	Long: `List outdated npm packages. With --min-age, each package's latest version is
replaced by the newest release at least that many days old, and packages with
no such release are left out.`,
	Args: cobra.NoArgs,
	RunE: runOutdated,
}

func init() {
	outdatedCmd.Flags().IntVar(&outdatedMinAgeFlag, "min-age", 0, "Minimum age in days before a release line is recommended (overrides min_age_days)")
	outdatedCmd.Flags().IntVar(&outdatedMinAgePatchFlag, "min-age-patch", 0, "Minimum age in days for patches within the selected line (overrides min_age_patch_days)")
	outdatedCmd.Flags().BoolVarP(&outdatedGlobalFlag, "global", "g", false, "Check globally installed packages")
	outdatedCmd.Flags().IntVar(&outdatedDepthFlag, "depth", 0, "Depth passed to npm ls")
	outdatedCmd.Flags().StringVarP(&outdatedOutputFlag, "output", "o", "", "Output format: table, json, npm-json, csv, xml (default: table)")
	outdatedCmd.Flags().StringVarP(&outdatedConfigFlag, "config", "c", "", "Config file path")
	outdatedCmd.Flags().StringVarP(&outdatedDirFlag, "directory", "d", ".", "Project directory")
	outdatedCmd.Flags().StringVar(&outdatedRegistryFlag, "registry", "", "Publish time source: npm or http (overrides registry.source)")
	outdatedCmd.Flags().IntVar(&outdatedConcurrencyFlag, "concurrency", 0, "Maximum parallel npm queries and lookups, 0 for unlimited")
	outdatedCmd.Flags().StringVar(&outdatedNonSemverFlag, "non-semver", "", "Handling of git, linked and remote installs: passthrough or exclude")
	outdatedCmd.Flags().BoolVar(&outdatedNoTimeoutFlag, "no-timeout", false, "Disable command and registry timeouts")
	outdatedCmd.Flags().BoolVar(&outdatedSkipPreflightFlag, "skip-preflight", false, "Skip pre-flight command validation")
}

// runOutdated executes the outdated command.
//
// It performs the following operations:
//   - Loads the config and applies flag overrides
//   - Validates that the configured commands exist
//   - Collects npm's outdated report for every installed package
//   - Applies the min-age filter when a minimum age is set
//   - Renders the result; warnings go to stderr in table mode and into the
//     document for structured formats
//
// Returns:
//   - error: ExitError with ExitConfigError for config or preflight problems,
//     ExitFailure for fatal npm or registry errors
func runOutdated(cmd *cobra.Command, args []string) error {
	format, err := output.ParseFormat(outdatedOutputFlag)
	if err != nil {
		return errors.NewExitError(errors.ExitConfigError, err)
	}

	loadEnvFile(outdatedDirFlag)

	collector := warnings.NewCollector()
	restoreWarnings := warnings.SetWarningWriter(collector)
	defer restoreWarnings()

	cfg, err := loadAndValidateConfig(outdatedConfigFlag, outdatedDirFlag)
	if err != nil {
		return err
	}
	if err := applyOutdatedFlags(cmd, cfg); err != nil {
		return err
	}

	policy, err := minage.ParseNonSemverPolicy(cfg.NonSemver)
	if err != nil {
		return errors.NewExitError(errors.ExitConfigError, err)
	}

	if !outdatedSkipPreflightFlag {
		if validation := preflightFunc(cfg); validation.HasErrors() {
			verbose.Infof("Exit code %d (config error): preflight validation failed", errors.ExitConfigError)
			return errors.NewExitError(errors.ExitConfigError, fmt.Errorf("%s  %s Use --skip-preflight if the commands are available through other means",
				validation.ErrorMessage(), constants.IconLightbulb))
		}
	}

	ctx, stop := signal.NotifyContext(commandContext(cmd), os.Interrupt)
	defer stop()

	opts := outdated.ListOptions{Global: cfg.List.Global, Depth: cfg.List.Depth, Concurrency: cfg.Concurrency}
	found, err := outdated.GetOutdatedDependencies(ctx, newListerFunc(cfg), opts)
	if err != nil {
		return errors.NewExitError(errors.ExitFailure, err)
	}
	deps := outdated.Sorted(found)

	var unavailable []string
	if cfg.MinAgeDays > 0 && len(deps) > 0 {
		source, err := newSourceFunc(cfg)
		if err != nil {
			return errors.NewExitError(errors.ExitConfigError, err)
		}

		progress := output.NewProgress(cmd.ErrOrStderr(), len(deps), "Checking publish times")
		progress.SetEnabled(!output.IsStructuredFormat(format) && !verbose.IsEnabled())

		filtered, err := minage.ApplyMinAgeFilter(ctx, deps, source, minage.Options{
			MinAgeDays:      cfg.MinAgeDays,
			MinAgePatchDays: cfg.MinAgePatchDays,
			Now:             nowFunc(),
			Concurrency:     cfg.Concurrency,
			NonSemver:       policy,
			OnProgress:      func(done, _ int) { progress.SetCurrent(done) },
		})
		progress.Clear()
		if err != nil {
			if errors.IsMalformedResponse(err) {
				verbose.Infof("Exit code %d (failure): malformed response from the %s source", errors.ExitFailure, cfg.Registry.Source)
				err = fmt.Errorf("unusable publish-time data from the %s source: %w", cfg.Registry.Source, err)
			}
			return errors.NewExitError(errors.ExitFailure, err)
		}
		deps = filtered.Dependencies
		unavailable = filtered.Warnings
		collector.Add(unavailable...)
	}

	result := output.NewOutdatedResult(len(found), deps, unavailable, cfg.MinAgeDays, cfg.MinAgePatchDays)
	result.Warnings = collector.Messages()

	if err := output.WriteOutdatedResult(cmd.OutOrStdout(), format, result); err != nil {
		return errors.NewExitError(errors.ExitFailure, err)
	}
	if !output.IsStructuredFormat(format) {
		warnings.Print(cmd.ErrOrStderr(), result.Warnings)
	}
	return nil
}

// applyOutdatedFlags copies explicitly set flags over the loaded config and
// revalidates it. Config validation warnings are sent to the warning writer.
func applyOutdatedFlags(cmd *cobra.Command, cfg *config.Config) error {
	flags := cmd.Flags()
	if flags.Changed("min-age") {
		cfg.MinAgeDays = outdatedMinAgeFlag
	}
	if flags.Changed("min-age-patch") {
		cfg.MinAgePatchDays = outdatedMinAgePatchFlag
	}
	if flags.Changed("global") {
		cfg.List.Global = outdatedGlobalFlag
	}
	if flags.Changed("depth") {
		cfg.List.Depth = outdatedDepthFlag
	}
	if flags.Changed("registry") {
		cfg.Registry.Source = outdatedRegistryFlag
	}
	if flags.Changed("concurrency") {
		cfg.Concurrency = outdatedConcurrencyFlag
	}
	if flags.Changed("non-semver") {
		cfg.NonSemver = outdatedNonSemverFlag
	}
	cfg.NoTimeout = outdatedNoTimeoutFlag

	result := cfg.Validate()
	if result.HasErrors() {
		return errors.NewExitError(errors.ExitConfigError, fmt.Errorf("%s", result.ErrorMessages()))
	}
	for _, w := range result.Warnings {
		warnings.Warnf("%s\n", w)
	}
	return nil
}

// commandContext returns the command's context, or Background when the
// command is run outside cobra's Execute.
func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

// loadEnvFile loads .env from dir into the process environment. Variables
// that are already set keep their values.
func loadEnvFile(dir string) {
	path := filepath.Join(dir, constants.EnvFile)
	if _, err := os.Stat(path); err != nil {
		return
	}
	if err := godotenv.Load(path); err != nil {
		warnings.Warnf("failed to load %s: %v\n", path, err)
		return
	}
	verbose.Debugf("Loaded environment from %s", path)
}
