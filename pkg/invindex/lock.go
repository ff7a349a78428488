package invindex

import (
	"fmt"
	"os"
	"path/filepath"
	"syscall"
)

// ErrLockBusy reports that another builder already holds the directory's
// LOCK file.
var ErrLockBusy = fmt.Errorf("invindex: lock busy")

// buildLock is the exclusive advisory lock a builder holds for the
// duration of a build (§5: single-writer / many-reader).
type buildLock struct {
	f *os.File
}

// acquireLock takes an exclusive, non-blocking lock on dir's LOCK file. No
// third-party dependency in the example pack wraps advisory file locking,
// so this goes directly through syscall.Flock.
func acquireLock(dir string) (*buildLock, error) {
	f, err := os.OpenFile(filepath.Join(dir, "LOCK"), os.O_CREATE|os.O_RDWR, 0o644)
	if err != nil {
		return nil, fmt.Errorf("invindex: open LOCK: %w", err)
	}
	if err := syscall.Flock(int(f.Fd()), syscall.LOCK_EX|syscall.LOCK_NB); err != nil {
		f.Close()
		return nil, ErrLockBusy
	}
	return &buildLock{f: f}, nil
}

func (l *buildLock) release() error {
	if err := syscall.Flock(int(l.f.Fd()), syscall.LOCK_UN); err != nil {
		l.f.Close()
		return err
	}
	return l.f.Close()
}
