//go:build unix

package harness

import (
	"os/exec"
	"syscall"
)

// configureProcessGroup runs the example in its own process group so a
// timeout kills every process it started, not only the shell.
func configureProcessGroup(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	cmd.Cancel = func() error {
		return syscall.Kill(-cmd.Process.Pid, syscall.SIGKILL)
	}
}
