//go:build windows

package main

import (
	"os/exec"
	"syscall"
)

const exeSuffix = ".exe"

// DETACHED_PROCESS is not exported by syscall
const detachedProcess = 0x00000008

// detach starts the server without a console of its own
func detach(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{
		CreationFlags: syscall.CREATE_NEW_PROCESS_GROUP | detachedProcess,
		HideWindow:    true,
	}
}
