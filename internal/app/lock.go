package app

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"

	"github.com/openmeteor/stationup/internal/domain"
)

// acquireLock takes an exclusive process-level lock so two update runs never
// execute concurrently. The interruption flag is only a crash marker, not a
// mutual-exclusion primitive, so the lock is separate.
//
// A lock file left behind by a crashed process is detected by probing the
// recorded PID and reclaimed.
func acquireLock(path string) (func(), error) {
	if path == "" {
		return func() {}, nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("create lock dir: %w", err)
	}

	for attempt := 0; attempt < 2; attempt++ {
		f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
		if err == nil {
			fmt.Fprintf(f, "%d\n", os.Getpid())
			f.Close()
			return func() { os.Remove(path) }, nil
		}
		if !os.IsExist(err) {
			return nil, fmt.Errorf("create lock: %w", err)
		}
		if !lockHolderAlive(path) {
			// Stale lock from a crashed run; reclaim on the next attempt.
			os.Remove(path)
			continue
		}
		return nil, fmt.Errorf("%w: lock held at %s", domain.ErrAlreadyRunning, path)
	}
	return nil, fmt.Errorf("%w: lock held at %s", domain.ErrAlreadyRunning, path)
}

// lockHolderAlive reports whether the PID recorded in the lock file still
// refers to a live process. An unreadable or malformed lock counts as dead.
func lockHolderAlive(path string) bool {
	b, err := os.ReadFile(path)
	if err != nil {
		return false
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(b)))
	if err != nil || pid <= 0 {
		return false
	}
	proc, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	return proc.Signal(syscall.Signal(0)) == nil
}
