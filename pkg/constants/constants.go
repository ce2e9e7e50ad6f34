// Package constants provides string constants shared by the CLI commands.
package constants

// Environment variables read at startup.
const (
	// EnvTrace enables trace logging when set to a non-empty value other than "0" or "false".
	EnvTrace = "RIPEN_TRACE"

	// EnvFile is the dotenv file loaded from the working directory.
	EnvFile = ".env"
)

// Icon constants for CLI messages.
const (
	// IconError prefixes fatal messages.
	IconError = "❌"

	// IconCheckmarkBox prefixes a passed validation.
	IconCheckmarkBox = "✅"

	// IconWarn prefixes non-fatal messages.
	IconWarn = "⚠️"

	// IconLightbulb prefixes hints.
	IconLightbulb = "💡"
)

// Placeholder values for display when data is not available.
const (
	// PlaceholderMissing is shown when a declared dependency is not installed.
	PlaceholderMissing = "MISSING"
)

// IsTruthy reports whether an environment value switches a feature on.
func IsTruthy(value string) bool {
	switch value {
	case "", "0", "false", "FALSE", "False", "no", "off":
		return false
	default:
		return true
	}
}
