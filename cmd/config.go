package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/ajxudir/ripen/pkg/config"
	"github.com/ajxudir/ripen/pkg/constants"
	"github.com/ajxudir/ripen/pkg/errors"
	"github.com/ajxudir/ripen/pkg/verbose"
)

var (
	configShowDefaultsFlag  bool
	configShowEffectiveFlag bool
	configInitFlag          bool
	configValidateFlag      bool
	configPathFlag          string
	configDirFlag           string
)

var (
	loadConfigFunc = config.LoadConfig
	writeFileFunc  = os.WriteFile
)

// loadAndValidateConfig loads the configuration, turning any load or
// validation failure into a config-error exit.
//
// Parameters:
//   - configPath: Path to a config file, or empty to use .ripen.yml in workDir
//   - workDir: Project directory
//
// Returns:
//   - *config.Config: Loaded and validated configuration
//   - error: *errors.ExitError with ExitConfigError
func loadAndValidateConfig(configPath, workDir string) (*config.Config, error) {
	cfg, err := loadConfigFunc(configPath, workDir)
	if err != nil {
		verbose.Infof("Exit code %d (config error): %v", errors.ExitConfigError, err)
		return nil, errors.NewExitError(errors.ExitConfigError, err)
	}
	return cfg, nil
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show, create or validate configuration",
	RunE:  runConfig,
}

func init() {
	configCmd.Flags().BoolVar(&configShowDefaultsFlag, "show-defaults", false, "Show default configuration")
	configCmd.Flags().BoolVar(&configShowEffectiveFlag, "show-effective", false, "Show effective configuration")
	configCmd.Flags().BoolVar(&configInitFlag, "init", false, "Create a "+config.ConfigFileName+" template")
	configCmd.Flags().BoolVar(&configValidateFlag, "validate", false, "Validate configuration file (rejects unknown fields)")
	configCmd.Flags().StringVarP(&configPathFlag, "config", "c", "", "Config file path")
	configCmd.Flags().StringVarP(&configDirFlag, "directory", "d", ".", "Project directory")
}

// runConfig dispatches on the first flag set, in order --init, --validate,
// --show-defaults, --show-effective; with no flag it prints help.
func runConfig(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()

	switch {
	case configInitFlag:
		return createConfigTemplate(cmd)
	case configValidateFlag:
		return validateConfigFile(cmd)
	case configShowDefaultsFlag:
		_, _ = fmt.Fprint(out, config.GetDefaultConfig())
		return nil
	case configShowEffectiveFlag:
		cfg, err := loadAndValidateConfig(configPathFlag, configDirFlag)
		if err != nil {
			return err
		}
		data, err := cfg.YAML()
		if err != nil {
			return err
		}
		_, _ = fmt.Fprintf(out, "# Source: %s\n# Working directory: %s\n%s", cfg.Source, cfg.WorkingDir, data)
		return nil
	default:
		return cmd.Help()
	}
}

// resolveConfigPath returns --config, or .ripen.yml in --directory.
func resolveConfigPath() string {
	if configPathFlag != "" {
		return configPathFlag
	}
	return filepath.Join(configDirFlag, config.ConfigFileName)
}

// validateConfigFile validates the configuration file and reports errors and
// warnings.
//
// Returns:
//   - error: ExitError with ExitConfigError when the file is missing or invalid
func validateConfigFile(cmd *cobra.Command) error {
	out := cmd.OutOrStdout()
	configPath := resolveConfigPath()

	data, err := os.ReadFile(configPath)
	if err != nil {
		return errors.NewExitError(errors.ExitConfigError, fmt.Errorf("failed to read config file '%s': %w", configPath, err))
	}

	result := config.ValidateConfigFile(data)

	if result.HasErrors() {
		_, _ = fmt.Fprintf(out, "%s Configuration validation failed for: %s\n\n", constants.IconError, configPath)
		for _, e := range result.Errors {
			if verbose.IsEnabled() {
				_, _ = fmt.Fprintf(out, "  ERROR: %s\n", e.VerboseError())
			} else {
				_, _ = fmt.Fprintf(out, "  ERROR: %s\n", e.Error())
			}
		}
		for _, w := range result.Warnings {
			_, _ = fmt.Fprintf(out, "  WARNING: %s\n", w)
		}
		if !verbose.IsEnabled() {
			_, _ = fmt.Fprintf(out, "\n%s Run with --verbose for detailed schema information\n", constants.IconLightbulb)
		}
		return errors.NewExitErrorf(errors.ExitConfigError, "configuration validation failed")
	}

	if len(result.Warnings) > 0 {
		_, _ = fmt.Fprintf(out, "%s Configuration valid with warnings: %s\n\n", constants.IconWarn, configPath)
		for _, w := range result.Warnings {
			_, _ = fmt.Fprintf(out, "  WARNING: %s\n", w)
		}
		return nil
	}

	_, _ = fmt.Fprintf(out, "%s Configuration valid: %s\n", constants.IconCheckmarkBox, configPath)
	return nil
}

// createConfigTemplate writes the starter template to --directory. It fails
// if a config file already exists there.
func createConfigTemplate(cmd *cobra.Command) error {
	configPath := filepath.Join(configDirFlag, config.ConfigFileName)
	if _, err := os.Stat(configPath); err == nil {
		return fmt.Errorf("config file already exists: %s", configPath)
	}

	if err := writeFileFunc(configPath, []byte(config.GetTemplateConfig()), 0o600); err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}

	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Created configuration template: %s\n", configPath)
	return nil
}
