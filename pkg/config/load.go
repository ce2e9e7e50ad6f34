// Package config loads ripen's YAML configuration.
//
// A .ripen.yml only needs the keys it changes: the file is decoded on top of
// the embedded defaults, and the result is validated before use.
package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/ajxudir/ripen/pkg/verbose"
)

// LoadConfig loads configuration from the specified path or defaults.
//
// If configPath is provided, that file must exist. Otherwise .ripen.yml in
// workDir is used when present, falling back to the built-in defaults.
//
// Parameters:
//   - configPath: path to the config file, or empty to search workDir
//   - workDir: project directory; stored on the returned config
//
// Returns:
//   - *Config: the effective configuration
//   - error: read, parse or validation failure
func LoadConfig(configPath, workDir string) (*Config, error) {
	path := configPath
	if path == "" {
		candidate := filepath.Join(workDir, ConfigFileName)
		if _, err := os.Stat(candidate); err == nil {
			verbose.Infof("Found local config: %s", candidate)
			path = candidate
		}
	}

	var cfg *Config
	if path == "" {
		verbose.Info("Using built-in default configuration")
		cfg = loadDefaultConfig()
		cfg.Source = "built-in defaults"
	} else {
		loaded, err := LoadConfigFileStrict(path)
		if err != nil {
			return nil, fmt.Errorf("failed to load config %s: %w", path, err)
		}
		cfg = loaded
		cfg.Source = path
		verbose.ConfigLoaded(path)
	}

	if workDir != "" {
		cfg.WorkingDir = workDir
	} else {
		cfg.WorkingDir = "."
	}

	if result := cfg.Validate(); result.HasErrors() {
		return nil, fmt.Errorf("%s", result.ErrorMessages())
	}
	return cfg, nil
}

// readConfigFile reads a config file after checking its size.
func readConfigFile(path string, maxSize int64) ([]byte, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if info.Size() > maxSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d bytes)", info.Size(), maxSize)
	}
	return os.ReadFile(path)
}

// overlay decodes data on top of the defaults. Keys absent from data keep
// their default values; commands.env entries are merged.
//
// Parameters:
//   - data: YAML document
//
// Returns:
//   - *Config: defaults overridden by data
//   - error: YAML decode failure
func overlay(data []byte) (*Config, error) {
	cfg := loadDefaultConfig()
	if len(bytes.TrimSpace(data)) == 0 {
		return cfg, nil
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("invalid YAML: %w", err)
	}
	if cfg.Commands.Env == nil {
		cfg.Commands.Env = map[string]string{}
	}
	return cfg, nil
}

// LoadConfigFileStrict loads a config file, rejecting unknown keys and type
// mismatches before applying it over the defaults.
//
// Parameters:
//   - path: path to the config file
//
// Returns:
//   - *Config: defaults overridden by the file
//   - error: size, read, or validation failure
func LoadConfigFileStrict(path string) (*Config, error) {
	data, err := readConfigFile(path, DefaultMaxConfigFileSize)
	if err != nil {
		return nil, err
	}

	if result := ValidateConfigFile(data); result.HasErrors() {
		return nil, fmt.Errorf("%s", result.ErrorMessages())
	}
	return overlay(data)
}
