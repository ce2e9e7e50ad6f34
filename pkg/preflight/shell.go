package preflight

import (
	"os"
	"os/exec"
)

// shellHasCommand asks the user's shell whether cmd resolves to anything,
// which also finds aliases and functions that exec.LookPath cannot see.
func shellHasCommand(cmd string) bool {
	shell, args := getShellCommandCheck(cmd)
	return exec.Command(shell, args...).Run() == nil
}

// getShellCommandCheck returns the shell and args for `command -v cmd`.
// The name is passed as a positional parameter so it is never parsed as
// shell syntax.
func getShellCommandCheck(cmd string) (shell string, args []string) {
	shell = os.Getenv("SHELL")
	if shell == "" {
		shell = "sh"
	}
	return shell, []string{"-c", `command -v "$1"`, "preflight", cmd}
}
