// Package verbose provides the debug and trace logging used across ripen.
//
// Messages are emitted through a shared logrus logger that stays silent until
// Enable or EnableTrace is called (the --verbose and --trace flags).
package verbose

import (
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

var logger = newLogger()

func newLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(os.Stderr)
	//nolint:exhaustruct // Minimal TextFormatter initialization with required fields only
	l.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:          true,
		DisableLevelTruncation: true,
	})
	l.SetLevel(logrus.WarnLevel)
	return l
}

// Enable turns on debug logging.
func Enable() {
	if !logger.IsLevelEnabled(logrus.DebugLevel) {
		logger.SetLevel(logrus.DebugLevel)
	}
}

// EnableTrace turns on trace logging, which also includes every debug message.
func EnableTrace() {
	logger.SetLevel(logrus.TraceLevel)
}

// Disable turns debug and trace logging off.
func Disable() {
	logger.SetLevel(logrus.WarnLevel)
}

// IsEnabled returns whether debug logging is currently enabled.
func IsEnabled() bool {
	return logger.IsLevelEnabled(logrus.DebugLevel)
}

// IsTrace returns whether trace logging is currently enabled.
func IsTrace() bool {
	return logger.IsLevelEnabled(logrus.TraceLevel)
}

// SetWriter sets the output writer for log messages.
//
// Parameters:
//   - w: The io.Writer to use for output; if nil, the writer remains unchanged
func SetWriter(w io.Writer) {
	if w != nil {
		logger.SetOutput(w)
	}
}

// Info logs a debug-level message.
func Info(msg string) {
	logger.Debug(msg)
}

// Infof logs a formatted debug-level message.
func Infof(format string, args ...any) {
	logger.Debugf(format, args...)
}

// Debugf logs a formatted debug-level message.
func Debugf(format string, args ...any) {
	logger.Debugf(format, args...)
}

// Tracef logs a formatted trace-level message.
func Tracef(format string, args ...any) {
	logger.Tracef(format, args...)
}

// CommandExec logs that a collaborator command is about to run.
//
// Parameters:
//   - cmd: The command string being executed
//   - workDir: The working directory for the command
func CommandExec(cmd, workDir string) {
	logger.WithFields(logrus.Fields{
		"command": cmd,
		"dir":     workDir,
	}).Debug("Executing command")
}

// CommandResult logs the outcome of a collaborator command.
//
// It performs the following operations:
//   - Logs success or failure with the exit code
//   - Truncates long command strings to 60 characters
//   - At trace level, logs up to 5 lines of output
//
// Parameters:
//   - cmd: The command string that was executed
//   - exitCode: The exit code returned by the command (0 for success)
//   - output: The command output
func CommandResult(cmd string, exitCode int, output string) {
	entry := logger.WithFields(logrus.Fields{
		"command":   truncate(cmd, 60),
		"exit_code": exitCode,
	})
	if exitCode == 0 {
		entry.Debug("Command succeeded")
	} else {
		entry.Debug("Command failed")
	}

	if !IsTrace() || strings.TrimSpace(output) == "" {
		return
	}
	lines := strings.Split(strings.TrimSpace(output), "\n")
	if len(lines) > 5 {
		for _, line := range lines[:3] {
			logger.Tracef("| %s", truncate(line, 100))
		}
		logger.Tracef("| ... (%d more lines)", len(lines)-3)
		return
	}
	for _, line := range lines {
		logger.Tracef("| %s", truncate(line, 100))
	}
}

// ConfigLoaded logs which config file was loaded.
func ConfigLoaded(path string) {
	logger.WithField("path", path).Debug("Config loaded")
}

// PackageFiltered logs that a package was removed from the result.
//
// Parameters:
//   - name: The name of the package that was filtered
//   - reason: Why the package was filtered out
func PackageFiltered(name, reason string) {
	logger.WithFields(logrus.Fields{
		"package": name,
		"reason":  reason,
	}).Debug("Package filtered")
}

// VersionSelected logs the outcome of version selection for a package.
//
// Parameters:
//   - pkg: The name of the package
//   - current: The installed version
//   - target: The selected version
//   - reason: Which rule produced the selection
func VersionSelected(pkg, current, target, reason string) {
	logger.WithFields(logrus.Fields{
		"package": pkg,
		"current": current,
		"target":  target,
		"reason":  reason,
	}).Debug("Version selected")
}

// truncate shortens a string to maxLen characters, ending in "..." when cut.
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}
