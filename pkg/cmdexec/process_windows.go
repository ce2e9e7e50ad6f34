//go:build windows

package cmdexec

import (
	"os/exec"
)

// setProcGroup is a no-op on Windows; killing the shell ends its children.
func setProcGroup(_ *exec.Cmd) {}

// killProcGroup kills the shell process.
func killProcGroup(cmd *exec.Cmd) error {
	if cmd.Process == nil {
		return nil
	}
	return cmd.Process.Kill()
}
