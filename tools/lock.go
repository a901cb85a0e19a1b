package tools

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

const (
	lockTimeout   = 5 * time.Second
	lockRetryWait = 500 * time.Millisecond
)

var errLockHeld = errors.New("catalog lock held")

// pidLock is an advisory lock file holding the owner's PID. It keeps two
// processes from rebuilding the same on-disk catalog at once. A lock whose
// owner is gone is treated as free.
type pidLock struct {
	path    string
	timeout time.Duration
	log     zerolog.Logger
}

func newPIDLock(path string, log zerolog.Logger) *pidLock {
	return &pidLock{path: path, timeout: lockTimeout, log: log}
}

// owner returns the PID stored in the lock file, 0 when there is no lock and
// -1 when the file is unreadable as a PID.
func (l *pidLock) owner() (int, error) {
	data, err := os.ReadFile(l.path)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to read lock file: %w", err)
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		return -1, nil
	}
	return pid, nil
}

// clearStale removes the lock file unless a live process other than us holds
// it, in which case it returns errLockHeld.
func (l *pidLock) clearStale() error {
	pid, err := l.owner()
	if err != nil {
		return err
	}
	switch {
	case pid == 0:
		return nil
	case pid == -1:
		l.log.Warn().Str("lock", l.path).Msg("Corrupted lock file, removing")
	case pid == os.Getpid():
		return nil
	case processAlive(pid):
		return fmt.Errorf("%w by process %d", errLockHeld, pid)
	default:
		l.log.Info().Int("pid", pid).Msg("Stale lock detected, cleaning")
	}
	if err := os.Remove(l.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove stale lock: %w", err)
	}
	return nil
}

// Acquire writes our PID to the lock file, waiting up to the timeout for
// another live owner to let go.
func (l *pidLock) Acquire() error {
	if err := os.MkdirAll(filepath.Dir(l.path), 0755); err != nil {
		return fmt.Errorf("failed to create lock directory: %w", err)
	}

	start := time.Now()
	for {
		err := l.clearStale()
		if err == nil {
			break
		}
		if !errors.Is(err, errLockHeld) {
			return err
		}
		elapsed := time.Since(start)
		if elapsed >= l.timeout {
			return fmt.Errorf("timeout waiting for catalog lock after %v: %w", elapsed.Round(time.Millisecond), err)
		}
		l.log.Info().Dur("elapsed", elapsed.Round(100*time.Millisecond)).Msg("Catalog locked by another process, waiting")
		time.Sleep(lockRetryWait)
	}

	if err := os.WriteFile(l.path, []byte(strconv.Itoa(os.Getpid())), 0644); err != nil {
		return fmt.Errorf("failed to create lock file: %w", err)
	}
	l.log.Debug().Int("pid", os.Getpid()).Msg("✓ Catalog lock acquired")
	return nil
}

// Release removes the lock file if we own it.
func (l *pidLock) Release() error {
	pid, err := l.owner()
	if err != nil {
		return err
	}
	if pid == 0 {
		return nil
	}
	if pid != os.Getpid() {
		l.log.Warn().Int("pid", pid).Msg("Lock file owned by another process, not removing")
		return nil
	}
	if err := os.Remove(l.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove lock file: %w", err)
	}
	l.log.Debug().Msg("✓ Catalog lock released")
	return nil
}
