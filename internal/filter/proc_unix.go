//go:build !windows

package filter

import (
	"os/exec"
	"syscall"
)

// isolate puts the child into its own process group so a timeout can take
// down everything the shell spawned.
func isolate(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
}

func killTree(cmd *exec.Cmd) {
	if cmd.Process == nil {
		return
	}
	_ = syscall.Kill(-cmd.Process.Pid, syscall.SIGKILL)
}
