package config

import (
	"gopkg.in/yaml.v3"
)

// ConfigFileName is the config file looked up in the working directory.
const ConfigFileName = ".ripen.yml"

// DefaultMaxConfigFileSize caps config files at 1MB.
const DefaultMaxConfigFileSize int64 = 1 << 20

// Accepted values for non_semver.
const (
	NonSemverPassthrough = "passthrough"
	NonSemverExclude     = "exclude"
)

// Accepted values for registry.source.
const (
	SourceNPM  = "npm"
	SourceHTTP = "http"
)

// Config is the root configuration structure.
type Config struct {
	MinAgeDays      int         `yaml:"min_age_days"`
	MinAgePatchDays int         `yaml:"min_age_patch_days"`
	NonSemver       string      `yaml:"non_semver"`
	Concurrency     int         `yaml:"concurrency"`
	List            ListCfg     `yaml:"list"`
	Commands        CommandsCfg `yaml:"commands"`
	Registry        RegistryCfg `yaml:"registry"`

	// WorkingDir is the project directory npm runs in. Set from --directory.
	WorkingDir string `yaml:"-"`

	// NoTimeout disables command and registry timeouts (--no-timeout).
	NoTimeout bool `yaml:"-"`

	// Source records where the configuration came from, for --show-effective.
	Source string `yaml:"-"`
}

// ListCfg controls the npm ls invocation.
type ListCfg struct {
	Global bool `yaml:"global"`
	Depth  int  `yaml:"depth"`
}

// CommandsCfg holds the npm command templates.
//
// Placeholders: {{package}}, {{depth}} and {{global_flag}} (--global or empty).
type CommandsCfg struct {
	List           string            `yaml:"list"`
	Outdated       string            `yaml:"outdated"`
	Timestamps     string            `yaml:"timestamps"`
	TimeoutSeconds int               `yaml:"timeout_seconds"`
	Env            map[string]string `yaml:"env"`
}

// RegistryCfg selects and configures the publish-time source.
type RegistryCfg struct {
	Source         string `yaml:"source"`
	URL            string `yaml:"url"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
	RetryMax       int    `yaml:"retry_max"`
	TokenEnv       string `yaml:"token_env"`
}

// CommandTimeout returns the npm command timeout in seconds, 0 when disabled.
func (c *Config) CommandTimeout() int {
	if c.NoTimeout {
		return 0
	}
	return c.Commands.TimeoutSeconds
}

// RegistryTimeout returns the per-lookup timeout in seconds, 0 when disabled.
func (c *Config) RegistryTimeout() int {
	if c.NoTimeout {
		return 0
	}
	return c.Registry.TimeoutSeconds
}

// GlobalFlag returns the value substituted for {{global_flag}}.
func (c *Config) GlobalFlag() string {
	if c.List.Global {
		return "--global"
	}
	return ""
}

// YAML renders the persisted keys of the configuration.
//
// Returns:
//   - string: YAML document
//   - error: marshal failure
func (c *Config) YAML() (string, error) {
	data, err := yaml.Marshal(c)
	if err != nil {
		return "", err
	}
	return string(data), nil
}
