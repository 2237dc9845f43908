package syncer

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
)

// lockFileName is the run lock inside the data directory.
const lockFileName = "sync.lock"

// RunLock serializes runs against the same ledger and container. The
// engine assumes single-writer access to both within a run; the lock makes
// that assumption hold across processes.
type RunLock struct {
	path string
}

// AcquireLock takes the run lock in dir, failing if another run holds it.
// The lock file records the holder's PID for the error message.
func AcquireLock(dir string) (*RunLock, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create lock dir: %w", err)
	}
	path := filepath.Join(dir, lockFileName)

	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		if errors.Is(err, os.ErrExist) {
			holder, _ := os.ReadFile(path)
			return nil, fmt.Errorf("another sync run holds the lock %s (pid %s)", path, string(holder))
		}
		return nil, fmt.Errorf("acquire run lock: %w", err)
	}
	_, werr := f.WriteString(strconv.Itoa(os.Getpid()))
	cerr := f.Close()
	if werr != nil || cerr != nil {
		os.Remove(path)
		return nil, fmt.Errorf("write run lock: %w", errors.Join(werr, cerr))
	}
	return &RunLock{path: path}, nil
}

// Release drops the lock. Safe to call once per acquired lock.
func (l *RunLock) Release() error {
	err := os.Remove(l.path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("release run lock: %w", err)
	}
	return nil
}
