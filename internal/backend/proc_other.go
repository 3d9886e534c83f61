//go:build !unix

package backend

import "os/exec"

func setProcessGroup(cmd *exec.Cmd) {}
