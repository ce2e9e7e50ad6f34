// Package preflight checks that the configured npm commands can be found
// before any of them is run.
package preflight

import (
	"fmt"
	"os/exec"
	"strings"

	"github.com/ajxudir/ripen/pkg/config"
	"github.com/ajxudir/ripen/pkg/errors"
	"github.com/ajxudir/ripen/pkg/verbose"
)

// lookPath and commandExistsInShell are replaced in tests.
var (
	lookPath             = exec.LookPath
	commandExistsInShell = shellHasCommand
)

// ValidationError represents a missing command with resolution hints.
//
// Fields:
//   - Command: The name of the missing command
//   - Hint: Installation instructions (empty if no hint available)
type ValidationError struct {
	Command string
	Hint    string
}

// Error returns a formatted error message with resolution instructions.
func (e *ValidationError) Error() string {
	if e.Hint != "" {
		return fmt.Sprintf("command not found: %s\n  Resolution: %s", e.Command, e.Hint)
	}
	return fmt.Sprintf("command not found: %s\n  Resolution: Ensure '%s' is installed and available in your PATH,\n             or change the commands section of %s.", e.Command, e.Command, config.ConfigFileName)
}

// ValidateResult holds the result of pre-flight validation.
type ValidateResult struct {
	Errors []ValidationError
}

// HasErrors returns true if there are validation errors.
func (r *ValidateResult) HasErrors() bool {
	return len(r.Errors) > 0
}

// ErrorMessage returns a formatted error message for all validation errors.
//
// Returns:
//   - string: Multi-line message with header and one entry per missing command; empty string if no errors
func (r *ValidateResult) ErrorMessage() string {
	if len(r.Errors) == 0 {
		return ""
	}

	var sb strings.Builder
	sb.WriteString("Pre-flight validation failed:\n")
	for _, err := range r.Errors {
		sb.WriteString(fmt.Sprintf("  - %s\n", err.Error()))
	}
	return sb.String()
}

// ValidateConfig checks that every command the run will execute is available.
//
// It performs the following operations:
//   - Extracts the program names from commands.list and commands.outdated
//   - Adds commands.timestamps when publish times come from the npm CLI
//   - Looks each unique program up in PATH, then as a shell alias or function
//
// Parameters:
//   - cfg: Effective configuration
//
// Returns:
//   - *ValidateResult: Missing commands with hints; never nil
func ValidateConfig(cfg *config.Config) *ValidateResult {
	templates := []string{cfg.Commands.List, cfg.Commands.Outdated}
	if cfg.Registry.Source == config.SourceNPM {
		templates = append(templates, cfg.Commands.Timestamps)
	}

	result := &ValidateResult{}
	checked := make(map[string]bool)
	for _, template := range templates {
		for _, cmd := range extractCommands(template) {
			if checked[cmd] {
				continue
			}
			checked[cmd] = true
			if err := validateCommand(cmd); err != nil {
				result.Errors = append(result.Errors, *err)
			}
		}
	}

	verbose.Debugf("Preflight: %d unique commands checked, %d missing", len(checked), len(result.Errors))
	return result
}

// extractCommands extracts the program names from a command template.
//
// It performs the following operations:
//   - Skips empty lines and comment lines (starting with #)
//   - Joins line continuation backslashes
//   - Splits piped commands and takes the program of each segment
//   - Deduplicates names
//
// Returns:
//   - []string: Unique command names in order of first appearance
func extractCommands(commands string) []string {
	result := []string{}
	seen := make(map[string]bool)

	normalized := strings.ReplaceAll(strings.TrimSpace(commands), "\r\n", "\n")
	normalized = strings.ReplaceAll(normalized, "\\\n", " ")
	if normalized == "" {
		return result
	}

	for _, line := range strings.Split(normalized, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		for _, part := range strings.Split(line, "|") {
			cmd := programName(strings.Fields(part))
			if cmd != "" && !seen[cmd] {
				seen[cmd] = true
				result = append(result, cmd)
			}
		}
	}

	return result
}

// programName returns the first word that is neither a VAR=value
// assignment nor a template placeholder.
func programName(fields []string) string {
	for _, field := range fields {
		if strings.Contains(field, "{{") {
			return ""
		}
		if !strings.Contains(field, "=") {
			return field
		}
	}
	return ""
}

// validateCommand checks if a command exists in PATH or as a shell alias.
//
// Returns:
//   - *ValidationError: Error with resolution hint if the command is missing; nil otherwise
func validateCommand(cmd string) *ValidationError {
	if cmd == "" {
		return nil
	}

	if _, err := lookPath(cmd); err == nil {
		verbose.Tracef("Preflight: command %q found in PATH", cmd)
		return nil
	}
	if commandExistsInShell(cmd) {
		verbose.Tracef("Preflight: command %q found as shell alias/function", cmd)
		return nil
	}

	hint := errors.GetHintForCommand(cmd)
	verbose.Debugf("Preflight: command %q not found", cmd)
	return &ValidationError{Command: cmd, Hint: hint}
}
