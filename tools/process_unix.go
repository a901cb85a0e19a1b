//go:build unix

package tools

import (
	"errors"
	"syscall"
)

// processAlive reports whether pid names a live process. Signal 0 probes
// without delivering anything; EPERM means it exists under another user.
func processAlive(pid int) bool {
	err := syscall.Kill(pid, syscall.Signal(0))
	return err == nil || errors.Is(err, syscall.EPERM)
}
