//go:build unix

package cmdexec

import (
	"os/exec"
	"syscall"
)

// setProcGroup starts the command in a new process group so that npm and
// any node processes it spawns can be signalled together.
func setProcGroup(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
}

// killProcGroup sends SIGKILL to the command's process group.
//
// Returns:
//   - error: nil when the process never started, otherwise the kill result
func killProcGroup(cmd *exec.Cmd) error {
	if cmd.Process == nil {
		return nil
	}
	return syscall.Kill(-cmd.Process.Pid, syscall.SIGKILL)
}
