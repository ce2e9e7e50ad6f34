// Package cmdexec runs the configurable npm collaborator commands (npm ls,
// npm outdated, npm view) through the system shell with templated arguments,
// per-call timeouts and process-group cleanup.
package cmdexec

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/ajxudir/ripen/pkg/verbose"
)

// Request describes one command invocation.
//
// Fields:
//   - Command: Command template; {{key}} placeholders are filled from Replacements
//   - Env: Extra environment variables; values may reference $VARS
//   - Dir: Working directory, empty for the current directory
//   - TimeoutSeconds: Maximum run time, 0 for no limit
//   - Replacements: Template values, shell-escaped on substitution
type Request struct {
	Command        string
	Env            map[string]string
	Dir            string
	TimeoutSeconds int
	Replacements   map[string]string
}

// ExecuteFunc is the signature of the command runner.
//
// On a non-zero exit the captured stdout is returned together with a
// *CommandError, since npm outdated exits 1 while still printing a valid report.
type ExecuteFunc func(ctx context.Context, req Request) ([]byte, error)

// Execute runs a command request. Tests replace it with a fake.
var Execute ExecuteFunc = execute

// CommandError is returned when a command exits non-zero.
//
// Fields:
//   - Command: The command line after template substitution
//   - ExitCode: Process exit code, -1 when the process did not start
//   - Stderr: Trimmed standard error output
//   - Err: Underlying error from os/exec
type CommandError struct {
	Command  string
	ExitCode int
	Stderr   string
	Err      error
}

// Error implements the error interface.
func (e *CommandError) Error() string {
	if e.Stderr != "" {
		return fmt.Sprintf("%v: %s", e.Err, e.Stderr)
	}
	return e.Err.Error()
}

// Unwrap returns the underlying os/exec error.
func (e *CommandError) Unwrap() error {
	return e.Err
}

// waitDelay bounds how long Run waits for output pipes after the process
// group has been killed.
const waitDelay = 2 * time.Second

// ErrTimeout is wrapped by errors from commands that exceeded their timeout.
var ErrTimeout = errors.New("command timed out")

// getShell returns the shell and the argument that precedes the command
// string. $SHELL is honoured so PATH tweaks from the user's environment apply.
func getShell() (shell string, args []string) {
	if sh := os.Getenv("SHELL"); sh != "" {
		return sh, []string{"-c"}
	}
	return getDefaultShell()
}

// execute runs a request through the shell.
//
// It performs the following operations:
//   - Rejects blank commands and already-cancelled contexts
//   - Applies template replacements and joins backslash continuations
//   - Runs the command in its own process group under the optional timeout
//   - Kills the whole process group when the timeout fires or ctx is cancelled
//
// Parameters:
//   - ctx: Parent context; cancelling it stops the command
//   - req: The command request
//
// Returns:
//   - []byte: Captured stdout, also on a non-zero exit
//   - error: *CommandError on a non-zero exit, an ErrTimeout wrap on timeout, or ctx.Err()
func execute(ctx context.Context, req Request) ([]byte, error) {
	if strings.TrimSpace(req.Command) == "" {
		return nil, fmt.Errorf("no command provided")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	cmdStr := joinContinuations(applyReplacements(req.Command, req.Replacements))

	if req.TimeoutSeconds > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, time.Duration(req.TimeoutSeconds)*time.Second)
		defer cancel()
	}

	shell, shellArgs := getShell()
	cmd := exec.CommandContext(ctx, shell, append(shellArgs, cmdStr)...)
	cmd.Env = buildEnv(req.Env)
	if req.Dir != "" {
		cmd.Dir = req.Dir
	}
	setProcGroup(cmd)
	cmd.Cancel = func() error { return killProcGroup(cmd) }
	cmd.WaitDelay = waitDelay

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	verbose.CommandExec(cmdStr, req.Dir)
	err := cmd.Run()
	if err == nil {
		verbose.CommandResult(cmdStr, 0, stdout.String())
		return stdout.Bytes(), nil
	}

	if errors.Is(ctx.Err(), context.DeadlineExceeded) && req.TimeoutSeconds > 0 {
		verbose.CommandResult(cmdStr, -1, "")
		return nil, fmt.Errorf("%w after %d seconds: %s", ErrTimeout, req.TimeoutSeconds, cmdStr)
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, ctxErr
	}

	exitCode := -1
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		exitCode = exitErr.ExitCode()
	}
	verbose.CommandResult(cmdStr, exitCode, stderr.String())

	return stdout.Bytes(), &CommandError{
		Command:  cmdStr,
		ExitCode: exitCode,
		Stderr:   strings.TrimSpace(stderr.String()),
		Err:      err,
	}
}

// buildEnv returns the process environment extended with env, expanding
// $VAR references in the values.
func buildEnv(env map[string]string) []string {
	environ := os.Environ()
	for key, value := range env {
		environ = append(environ, key+"="+os.ExpandEnv(value))
	}
	return environ
}

// applyReplacements substitutes {{key}} placeholders with shell-escaped values.
//
// An empty value removes its placeholder outright instead of inserting an empty quoted string,
// so optional flags such as {{global_flag}} vanish from the command line.
//
// Parameters:
//   - command: Command template
//   - replacements: Template keys to values
//
// Returns:
//   - string: The command with every known placeholder replaced
func applyReplacements(command string, replacements map[string]string) string {
	result := command
	for key, value := range replacements {
		result = strings.ReplaceAll(result, "{{"+key+"}}", shellEscape(value))
	}
	return result
}

// joinContinuations normalizes line endings and joins lines ending in a
// backslash with the line that follows.
func joinContinuations(command string) string {
	normalized := strings.ReplaceAll(command, "\r\n", "\n")
	lines := strings.Split(normalized, "\n")

	var out []string
	var pending strings.Builder
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if strings.HasSuffix(trimmed, "\\") {
			pending.WriteString(strings.TrimSuffix(trimmed, "\\"))
			pending.WriteString(" ")
			continue
		}
		pending.WriteString(trimmed)
		if joined := strings.TrimSpace(pending.String()); joined != "" {
			out = append(out, joined)
		}
		pending.Reset()
	}
	if rest := strings.TrimSpace(pending.String()); rest != "" {
		out = append(out, rest)
	}
	return strings.Join(out, "\n")
}

// shellEscape quotes s for the shell.
//
// Empty strings stay empty. Strings made only of safe characters are returned
// as is; anything else is single-quoted with embedded quotes escaped.
func shellEscape(s string) string {
	if s == "" {
		return ""
	}

	safe := true
	for _, r := range s {
		if !isShellSafe(r) {
			safe = false
			break
		}
	}
	if safe {
		return s
	}

	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}

// isShellSafe reports whether r can appear unquoted in a shell word.
// Package names use @ and / for scopes, so both are allowed.
func isShellSafe(r rune) bool {
	return (r >= 'a' && r <= 'z') ||
		(r >= 'A' && r <= 'Z') ||
		(r >= '0' && r <= '9') ||
		strings.ContainsRune("-_./@:+=", r)
}

// PackageReplacements builds the template values for a per-package command.
func PackageReplacements(pkg string) map[string]string {
	return map[string]string{"package": pkg}
}

// ExitCode returns the exit code carried by err, or -1 when err is not a
// CommandError.
func ExitCode(err error) int {
	var ce *CommandError
	if errors.As(err, &ce) {
		return ce.ExitCode
	}
	return -1
}
