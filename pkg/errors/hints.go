package errors

import (
	"fmt"
	"io"
	"strings"
)

// ErrorHint provides an actionable resolution hint for a class of errors.
//
// Fields:
//   - Pattern: Substring to match in the error message (case-insensitive)
//   - Hint: Brief description of the issue
//   - Resolution: Command or action to resolve the issue
type ErrorHint struct {
	Pattern    string
	Hint       string
	Resolution string
}

// CommandResolutionHints maps command names to installation instructions.
// Used by preflight validation when a configured command is not found.
var CommandResolutionHints = map[string]string{
	"npm":  "Install Node.js: https://nodejs.org/",
	"npx":  "Install Node.js: https://nodejs.org/",
	"node": "Install Node.js: https://nodejs.org/",
	"yarn": "Install Yarn: https://yarnpkg.com/getting-started/install",
	"pnpm": "Install pnpm: https://pnpm.io/installation",
	"curl": "Install curl: https://curl.se/download.html (often pre-installed)",
	"jq":   "Install jq: https://jqlang.github.io/jq/download/ (JSON processor)",
}

// CommonErrorHints maps error patterns to actionable hints.
// Earlier entries win when several patterns match.
var CommonErrorHints = []ErrorHint{
	{
		Pattern:    "malformed npm ls response",
		Hint:       "npm ls printed something other than a JSON object",
		Resolution: "Run 'npm ls --json' manually and check for npm warnings printed to stdout",
	},
	{
		Pattern:    "malformed",
		Hint:       "Unexpected response shape",
		Resolution: "Check the configured commands print JSON objects, or switch with --registry http",
	},
	{
		Pattern:    "command timed out",
		Hint:       "npm took too long",
		Resolution: "Use --no-timeout or raise commands.timeout_seconds in .ripen.yml",
	},
	{
		Pattern:    "failed to load config",
		Hint:       "Configuration file is invalid or not found",
		Resolution: "Run 'ripen config --validate' or 'ripen config --init' to create one",
	},
	{
		Pattern:    "ELSPROBLEMS",
		Hint:       "npm ls reported dependency tree problems",
		Resolution: "Run 'npm install' to bring node_modules in line with package.json",
	},
	{
		Pattern:    "ENOTFOUND",
		Hint:       "DNS resolution failed",
		Resolution: "Check network connectivity and the registry URL",
	},
	{
		Pattern:    "ECONNREFUSED",
		Hint:       "Connection refused by the registry",
		Resolution: "Check that the registry is reachable and not blocked by a proxy",
	},
	{
		Pattern:    "E401",
		Hint:       "Authentication required",
		Resolution: "Set the registry token (registry.token_env, default NPM_TOKEN) or run 'npm login'",
	},
	{
		Pattern:    "no such file or directory",
		Hint:       "File or directory not found",
		Resolution: "Verify the path exists and you have read permissions",
	},
}

// GetHint returns an actionable hint for the given error.
//
// Parameters:
//   - err: The error to get a hint for
//
// Returns:
//   - string: "hint: resolution", or empty string if no pattern matches
func GetHint(err error) string {
	if err == nil {
		return ""
	}

	errStr := strings.ToLower(err.Error())
	for _, hint := range CommonErrorHints {
		if strings.Contains(errStr, strings.ToLower(hint.Pattern)) {
			return hint.Hint + ": " + hint.Resolution
		}
	}

	return ""
}

// GetHintForCommand returns the installation hint for a command, or "".
func GetHintForCommand(cmd string) string {
	return CommandResolutionHints[cmd]
}

// EnhanceErrorWithHint appends a matching hint to the error message.
//
// Parameters:
//   - err: The error to enhance
//
// Returns:
//   - string: Error message with hint appended if found, otherwise just the error message
func EnhanceErrorWithHint(err error) string {
	if err == nil {
		return ""
	}

	if hint := GetHint(err); hint != "" {
		return err.Error() + "\n  \U0001F4A1 " + hint
	}
	return err.Error()
}

// PrintErrorWithHints prints an error and its hint to w.
//
// Output format:
//
//	Error: <error message>
//	  💡 <hint if available>
func PrintErrorWithHints(w io.Writer, err error) {
	if err == nil {
		return
	}
	if ue, ok := IsUnsupportedError(err); ok {
		_, _ = fmt.Fprintf(w, "Unsupported: %s\n", ue.Error())
		return
	}
	_, _ = fmt.Fprintf(w, "Error: %s\n", EnhanceErrorWithHint(err))
}
