package lock

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
)

// ErrHeld is returned when another process already owns the lock.
var ErrHeld = errors.New("lock is held by another process")

// FileLock is an exclusive, non-blocking advisory lock on a file.
// The OS releases it when the holding process exits.
type FileLock struct {
	fl *flock.Flock
}

// Acquire takes the lock at path or returns ErrHeld without waiting.
func Acquire(path string) (*FileLock, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create lock dir: %w", err)
		}
	}

	fl := flock.New(path)
	ok, err := fl.TryLock()
	if err != nil {
		return nil, fmt.Errorf("try lock %s: %w", path, err)
	}
	if !ok {
		return nil, ErrHeld
	}
	return &FileLock{fl: fl}, nil
}

func (l *FileLock) Path() string {
	return l.fl.Path()
}

// Release unlocks the file. Safe to call more than once.
func (l *FileLock) Release() error {
	if l == nil || l.fl == nil {
		return nil
	}
	return l.fl.Unlock()
}
