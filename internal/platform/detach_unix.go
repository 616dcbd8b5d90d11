//go:build !windows

package platform

import (
	"os/exec"
	"syscall"
)

// detach puts the child in its own session so it outlives the CLI.
func detach(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setsid: true}
}
