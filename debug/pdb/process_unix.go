//go:build !windows

package pdb

import (
	"errors"
	"syscall"

	"golang.org/x/sys/unix"
)

// The debugger leads its own process group so pytest workers and the
// debugged program's children are signalled with it.
func sysProcAttr() *syscall.SysProcAttr {
	return &syscall.SysProcAttr{Setpgid: true}
}

func signalGroup(pid int, sig unix.Signal) error {
	if pid <= 0 {
		return nil
	}
	err := unix.Kill(-pid, sig)
	if errors.Is(err, unix.ESRCH) {
		return nil
	}
	return err
}

func terminateGroup(pid int) error {
	return signalGroup(pid, unix.SIGTERM)
}

func killGroup(pid int) {
	_ = signalGroup(pid, unix.SIGKILL)
}
