// Package sessionlock guards against two transcription sessions running at
// the same time from the same state directory.
package sessionlock

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"

	"captionary/internal/services"
)

// Lock is an advisory file lock held for the lifetime of one session.
type Lock struct {
	path string
	lock *flock.Flock
}

// Acquire takes the lock at path without blocking. If another process holds
// it the returned error wraps services.ErrBusy.
func Acquire(path string) (*Lock, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "session", "create lock dir", "", err)
	}
	l := &Lock{path: path, lock: flock.New(path)}
	ok, err := l.lock.TryLock()
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "session", "acquire lock", "", err)
	}
	if !ok {
		return nil, services.Wrap(services.ErrBusy, "session", "acquire lock",
			"A transcription is already in progress.", errors.New("lock held by another process"))
	}
	return l, nil
}

// Path returns the lock file location.
func (l *Lock) Path() string {
	if l == nil {
		return ""
	}
	return l.path
}

// Release drops the lock. It is safe to call more than once.
func (l *Lock) Release() error {
	if l == nil || l.lock == nil {
		return nil
	}
	if err := l.lock.Unlock(); err != nil {
		return fmt.Errorf("release session lock: %w", err)
	}
	return nil
}
