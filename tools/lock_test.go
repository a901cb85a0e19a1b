package tools

import (
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func readLockPID(t *testing.T, path string) int {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Lock file not found: %v", err)
	}
	pid, err := strconv.Atoi(string(data))
	if err != nil {
		t.Fatalf("Invalid PID in lock file: %v", err)
	}
	return pid
}

func TestPIDLock(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog", ".catalog.lock")
	lock := newPIDLock(path, zerolog.Nop())

	t.Run("acquire and release", func(t *testing.T) {
		if err := lock.Acquire(); err != nil {
			t.Fatalf("Failed to acquire lock: %v", err)
		}
		if pid := readLockPID(t, path); pid != os.Getpid() {
			t.Errorf("Lock has wrong PID: got %d, want %d", pid, os.Getpid())
		}
		if err := lock.Release(); err != nil {
			t.Fatalf("Failed to release lock: %v", err)
		}
		if _, err := os.Stat(path); !os.IsNotExist(err) {
			t.Error("Lock file should be removed after release")
		}
	})

	t.Run("reacquire own lock", func(t *testing.T) {
		if err := lock.Acquire(); err != nil {
			t.Fatalf("Failed to acquire lock: %v", err)
		}
		if err := lock.Acquire(); err != nil {
			t.Fatalf("Failed to reacquire lock: %v", err)
		}
		lock.Release()
	})

	t.Run("stale lock is replaced", func(t *testing.T) {
		if err := os.WriteFile(path, []byte("99999999"), 0644); err != nil {
			t.Fatalf("Failed to create stale lock: %v", err)
		}
		if err := lock.Acquire(); err != nil {
			t.Fatalf("Failed to acquire over stale lock: %v", err)
		}
		if pid := readLockPID(t, path); pid != os.Getpid() {
			t.Errorf("Expected our PID after cleaning stale lock, got %d", pid)
		}
		lock.Release()
	})

	t.Run("corrupted lock is replaced", func(t *testing.T) {
		if err := os.WriteFile(path, []byte("not-a-pid"), 0644); err != nil {
			t.Fatalf("Failed to create corrupted lock: %v", err)
		}
		if err := lock.Acquire(); err != nil {
			t.Fatalf("Failed to acquire over corrupted lock: %v", err)
		}
		lock.Release()
	})

	t.Run("release leaves foreign lock", func(t *testing.T) {
		if err := os.WriteFile(path, []byte("1"), 0644); err != nil {
			t.Fatalf("Failed to create lock: %v", err)
		}
		if err := lock.Release(); err != nil {
			t.Fatalf("Release failed: %v", err)
		}
		if _, err := os.Stat(path); err != nil {
			t.Error("Foreign lock file should be left in place")
		}
		os.Remove(path)
	})
}

func TestPIDLock_TimesOutOnLiveOwner(t *testing.T) {
	parent := os.Getppid()
	if parent <= 1 || !processAlive(parent) {
		t.Skip("no live parent process to own the lock")
	}

	path := filepath.Join(t.TempDir(), ".catalog.lock")
	if err := os.WriteFile(path, []byte(strconv.Itoa(parent)), 0644); err != nil {
		t.Fatalf("Failed to create lock: %v", err)
	}

	lock := newPIDLock(path, zerolog.Nop())
	lock.timeout = 10 * time.Millisecond

	err := lock.Acquire()
	if !errors.Is(err, errLockHeld) {
		t.Fatalf("Expected errLockHeld, got %v", err)
	}
}

func TestProcessAlive(t *testing.T) {
	if !processAlive(os.Getpid()) {
		t.Error("Our own process should be detected as running")
	}
	if processAlive(99999999) {
		t.Error("Non-existent process should not be detected as running")
	}
}
