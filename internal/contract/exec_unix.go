//go:build unix

package contract

import (
	"os/exec"
	"syscall"
)

// detachProcessGroup starts cmd in its own process group so a terminal Ctrl-C
// reaches only srcmeasure, which then stops children through its context.
func detachProcessGroup(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
}

func killedByInterrupt(exitErr *exec.ExitError) bool {
	status, ok := exitErr.Sys().(syscall.WaitStatus)
	if !ok || !status.Signaled() {
		return false
	}
	switch status.Signal() {
	case syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP:
		return true
	}
	return false
}
