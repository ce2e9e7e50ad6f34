package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/ajxudir/ripen/pkg/verbose"
)

// maxRetries bounds registry.retry_max.
const maxRetries = 10

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field     string
	Message   string
	Expected  string // Expected type or value hint
	ValidKeys string // Valid keys for this context
}

// Error returns "field: message", or just the message when no field is set.
func (e ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s: %s", e.Field, e.Message)
	}
	return e.Message
}

// VerboseError returns the error followed by its expected-value and
// valid-key hints.
func (e ValidationError) VerboseError() string {
	var sb strings.Builder
	sb.WriteString(e.Error())
	if e.Expected != "" {
		sb.WriteString("\n    Expected: " + e.Expected)
	}
	if e.ValidKeys != "" {
		sb.WriteString("\n    Valid keys: " + e.ValidKeys)
	}
	return sb.String()
}

// ValidationResult holds the results of configuration validation.
type ValidationResult struct {
	Errors   []ValidationError
	Warnings []string
}

// HasErrors returns true if there are any validation errors.
func (r *ValidationResult) HasErrors() bool {
	return len(r.Errors) > 0
}

// ErrorMessages returns all error messages as a formatted string.
//
// Returns:
//   - string: "Configuration validation failed:" followed by one line per error, or ""
func (r *ValidationResult) ErrorMessages() string {
	return r.format(ValidationError.Error)
}

// VerboseErrorMessages is ErrorMessages with schema hints included.
func (r *ValidationResult) VerboseErrorMessages() string {
	return r.format(ValidationError.VerboseError)
}

func (r *ValidationResult) format(render func(ValidationError) string) string {
	if len(r.Errors) == 0 {
		return ""
	}
	msgs := make([]string, 0, len(r.Errors))
	for _, e := range r.Errors {
		msgs = append(msgs, "  - "+render(e))
	}
	return "Configuration validation failed:\n" + strings.Join(msgs, "\n")
}

func (r *ValidationResult) addError(field, message, expected string) {
	r.Errors = append(r.Errors, ValidationError{Field: field, Message: message, Expected: expected})
}

// Valid keys per config type, shown with unknown-field errors.
var configSchema = map[string]string{
	"Config":      "min_age_days, min_age_patch_days, non_semver, concurrency, list, commands, registry",
	"ListCfg":     "global, depth",
	"CommandsCfg": "list, outdated, timestamps, timeout_seconds, env",
	"RegistryCfg": "source, url, timeout_seconds, retry_max, token_env",
}

// commonTypos maps frequent misspellings to the real key.
var commonTypos = map[string]map[string]string{
	"Config": {
		"min_age":         "min_age_days",
		"minAge":          "min_age_days",
		"minAgeDays":      "min_age_days",
		"min_age_patch":   "min_age_patch_days",
		"minAgePatchDays": "min_age_patch_days",
		"nonSemver":       "non_semver",
		"command":         "commands",
	},
	"CommandsCfg": {
		"ls":             "list",
		"view":           "timestamps",
		"timeout":        "timeout_seconds",
		"timeoutSeconds": "timeout_seconds",
	},
	"RegistryCfg": {
		"registry":       "url",
		"timeout":        "timeout_seconds",
		"timeoutSeconds": "timeout_seconds",
		"retries":        "retry_max",
		"token":          "token_env",
	},
}

var lineNumberPattern = regexp.MustCompile(`line (\d+):`)

// ValidateConfigFile validates a YAML configuration document.
//
// It performs the following operations:
//   - Decodes with KnownFields(true) so typos are reported, with suggestions
//   - Applies the document over the defaults
//   - Checks value ranges and cross-field rules on the result
//
// Parameters:
//   - data: YAML configuration data
//
// Returns:
//   - *ValidationResult: errors and warnings found
func ValidateConfigFile(data []byte) *ValidationResult {
	result := &ValidationResult{}

	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)

	var probe Config
	if err := decoder.Decode(&probe); err != nil && !errors.Is(err, io.EOF) {
		verbose.Debugf("Config validation failed: %v", err)
		result.Errors = append(result.Errors, decodeError(err))
		return result
	}

	cfg, err := overlay(data)
	if err != nil {
		result.addError("", err.Error(), "")
		return result
	}
	validateConfigStruct(cfg, result)
	return result
}

// decodeError converts a yaml.v3 decode error into a ValidationError.
func decodeError(err error) ValidationError {
	errMsg := err.Error()
	switch {
	case strings.Contains(errMsg, "field") && strings.Contains(errMsg, "not found"):
		fieldName, typeName := extractFieldAndType(errMsg)
		verr := ValidationError{Message: fmt.Sprintf("unknown field '%s'", fieldName)}
		if line := extractLineNumber(errMsg); line > 0 {
			verr.Message = fmt.Sprintf("unknown field '%s' (line %d)", fieldName, line)
		}
		verr.ValidKeys = configSchema[typeName]
		if suggestion := suggestSimilarField(fieldName, typeName); suggestion != "" {
			verr.Message += fmt.Sprintf(" (did you mean '%s'?)", suggestion)
		}
		return verr
	case strings.Contains(errMsg, "cannot unmarshal"):
		return ValidationError{Message: errMsg, Expected: extractExpectedType(errMsg)}
	case strings.Contains(errMsg, "yaml:"):
		return ValidationError{Message: "YAML syntax error: " + errMsg}
	default:
		return ValidationError{Message: errMsg}
	}
}

// Validate checks value ranges and cross-field rules on a loaded Config.
func (c *Config) Validate() *ValidationResult {
	result := &ValidationResult{}
	validateConfigStruct(c, result)
	return result
}

// validateConfigStruct appends every range or consistency problem in cfg.
func validateConfigStruct(cfg *Config, result *ValidationResult) {
	for _, f := range []struct {
		name  string
		value int
	}{
		{"min_age_days", cfg.MinAgeDays},
		{"min_age_patch_days", cfg.MinAgePatchDays},
		{"concurrency", cfg.Concurrency},
		{"list.depth", cfg.List.Depth},
		{"commands.timeout_seconds", cfg.Commands.TimeoutSeconds},
		{"registry.timeout_seconds", cfg.Registry.TimeoutSeconds},
	} {
		if f.value < 0 {
			result.addError(f.name, "must not be negative", "integer >= 0")
		}
	}

	switch cfg.NonSemver {
	case NonSemverPassthrough, NonSemverExclude:
	default:
		result.addError("non_semver", fmt.Sprintf("invalid value %q", cfg.NonSemver), NonSemverPassthrough+" | "+NonSemverExclude)
	}

	if strings.TrimSpace(cfg.Commands.List) == "" {
		result.addError("commands.list", "command cannot be empty", "")
	}
	if strings.TrimSpace(cfg.Commands.Outdated) == "" {
		result.addError("commands.outdated", "command cannot be empty", "")
	} else if !strings.Contains(cfg.Commands.Outdated, "{{package}}") {
		result.Warnings = append(result.Warnings, "commands.outdated has no {{package}} placeholder; every package will query the whole project")
	}

	if cfg.Registry.RetryMax < 0 || cfg.Registry.RetryMax > maxRetries {
		result.addError("registry.retry_max", "out of range", "0.."+strconv.Itoa(maxRetries))
	}

	switch cfg.Registry.Source {
	case SourceNPM:
		if strings.TrimSpace(cfg.Commands.Timestamps) == "" {
			result.addError("commands.timestamps", "command cannot be empty when registry.source is npm", "")
		}
	case SourceHTTP:
		u, err := url.Parse(cfg.Registry.URL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			result.addError("registry.url", fmt.Sprintf("invalid registry URL %q", cfg.Registry.URL), "http(s)://host[/path]")
		}
	default:
		result.addError("registry.source", fmt.Sprintf("invalid value %q", cfg.Registry.Source), SourceNPM+" | "+SourceHTTP)
	}

	if cfg.MinAgePatchDays > cfg.MinAgeDays && cfg.MinAgeDays > 0 {
		result.Warnings = append(result.Warnings, "min_age_patch_days is greater than min_age_days; patch refinement will never move past the line version")
	}

	verbose.Debugf("Config validation: %d errors, %d warnings", len(result.Errors), len(result.Warnings))
}

// extractFieldAndType extracts the field and type from a yaml.v3 error like
// "line 3: field foo not found in type config.RegistryCfg".
func extractFieldAndType(errMsg string) (field, typeName string) {
	if parts := strings.SplitN(errMsg, "field ", 2); len(parts) == 2 {
		field = parts[1]
		if idx := strings.Index(field, " "); idx > 0 {
			field = field[:idx]
		}
	}

	if idx := strings.Index(errMsg, "in type config."); idx >= 0 {
		typeName = errMsg[idx+len("in type config."):]
		if end := strings.IndexAny(typeName, " \n"); end > 0 {
			typeName = typeName[:end]
		}
	}
	return field, typeName
}

// extractLineNumber returns the first "line N:" number in a YAML error, or 0.
func extractLineNumber(errMsg string) int {
	matches := lineNumberPattern.FindStringSubmatch(errMsg)
	if len(matches) < 2 {
		return 0
	}
	n, _ := strconv.Atoi(matches[1])
	return n
}

// extractExpectedType returns Y from "cannot unmarshal X into Y".
func extractExpectedType(errMsg string) string {
	idx := strings.Index(errMsg, "into ")
	if idx < 0 {
		return ""
	}
	typePart := errMsg[idx+len("into "):]
	if end := strings.IndexAny(typePart, " \n"); end > 0 {
		return typePart[:end]
	}
	return typePart
}

// suggestSimilarField returns the intended key for a known typo or a
// kebab-case spelling, or "".
func suggestSimilarField(field, typeName string) string {
	if suggestion, ok := commonTypos[typeName][field]; ok {
		return suggestion
	}
	if strings.Contains(field, "-") {
		snake := strings.ReplaceAll(field, "-", "_")
		for _, key := range strings.Split(configSchema[typeName], ", ") {
			if key == snake {
				return snake
			}
		}
	}
	return ""
}
