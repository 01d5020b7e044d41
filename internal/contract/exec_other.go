//go:build !unix

package contract

import "os/exec"

func detachProcessGroup(*exec.Cmd) {}

func killedByInterrupt(*exec.ExitError) bool { return false }
