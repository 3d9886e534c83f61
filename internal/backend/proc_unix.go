//go:build unix

package backend

import (
	"os/exec"
	"syscall"
)

// setProcessGroup puts the child in its own process group so a SIGINT
// aimed at the orchestrator does not also tear down the agent mid-write.
func setProcessGroup(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
}
