package config

import (
	_ "embed"

	"gopkg.in/yaml.v3"
)

//go:embed default.yml
var defaultConfigYAML string

//go:embed template.yml
var templateConfigYAML string

// loadDefaultConfig decodes the embedded default.yml.
//
// If the embedded document cannot be decoded, a hard-coded equivalent is
// returned so the CLI keeps working.
//
// Returns:
//   - *Config: a fresh default configuration
func loadDefaultConfig() *Config {
	var cfg Config
	if err := yaml.Unmarshal([]byte(defaultConfigYAML), &cfg); err == nil {
		if cfg.Commands.Env == nil {
			cfg.Commands.Env = map[string]string{}
		}
		return &cfg
	}
	return &Config{
		NonSemver: NonSemverPassthrough,
		Commands: CommandsCfg{
			List:           "npm ls --json --depth={{depth}} {{global_flag}}",
			Outdated:       "npm outdated --json --long {{package}} {{global_flag}}",
			Timestamps:     "npm view {{package}} time --json",
			TimeoutSeconds: 60,
			Env:            map[string]string{},
		},
		Registry: RegistryCfg{
			Source:         SourceNPM,
			URL:            "https://registry.npmjs.org",
			TimeoutSeconds: 30,
			RetryMax:       2,
			TokenEnv:       "NPM_TOKEN",
		},
	}
}

// GetDefaultConfig returns the embedded default configuration YAML.
func GetDefaultConfig() string {
	return defaultConfigYAML
}

// GetTemplateConfig returns the starter .ripen.yml written by `config --init`.
func GetTemplateConfig() string {
	return templateConfigYAML
}

// Default returns a fresh copy of the built-in configuration.
func Default() *Config {
	cfg := loadDefaultConfig()
	cfg.WorkingDir = "."
	cfg.Source = "built-in defaults"
	return cfg
}
