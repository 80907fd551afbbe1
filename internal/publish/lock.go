package publish

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
)

// LockFile is the build lock's name inside the dist directory.
const LockFile = ".docindex.lock"

// lockRetryDelay is how often a waiting build retries the lock.
const lockRetryDelay = 100 * time.Millisecond

// BuildLock serializes builds of one dist directory across processes, so a
// watch rebuild and a manual publish never write the same artifact set.
type BuildLock struct {
	path   string
	flock  *flock.Flock
	locked bool
}

// NewBuildLock creates the lock for dir. The lock file is <dir>/.docindex.lock.
func NewBuildLock(dir string) *BuildLock {
	path := filepath.Join(dir, LockFile)
	return &BuildLock{
		path:  path,
		flock: flock.New(path),
	}
}

// Lock blocks until the lock is held or ctx is done.
func (l *BuildLock) Lock(ctx context.Context) error {
	if err := os.MkdirAll(filepath.Dir(l.path), 0o755); err != nil {
		return fmt.Errorf("failed to create lock directory: %w", err)
	}

	acquired, err := l.flock.TryLockContext(ctx, lockRetryDelay)
	if err != nil {
		return fmt.Errorf("failed to acquire lock: %w", err)
	}
	if !acquired {
		return fmt.Errorf("failed to acquire lock %s", l.path)
	}
	l.locked = true
	return nil
}

// TryLock attempts the lock without blocking. It reports false when
// another process holds it.
func (l *BuildLock) TryLock() (bool, error) {
	if err := os.MkdirAll(filepath.Dir(l.path), 0o755); err != nil {
		return false, fmt.Errorf("failed to create lock directory: %w", err)
	}

	acquired, err := l.flock.TryLock()
	if err != nil {
		return false, fmt.Errorf("failed to acquire lock: %w", err)
	}
	if acquired {
		l.locked = true
	}
	return acquired, nil
}

// Unlock releases the lock. Calling it on an unlocked BuildLock is a no-op.
func (l *BuildLock) Unlock() error {
	if !l.locked {
		return nil
	}

	l.locked = false
	if err := l.flock.Unlock(); err != nil {
		return fmt.Errorf("failed to release lock: %w", err)
	}
	return nil
}

// Path returns the lock file path.
func (l *BuildLock) Path() string {
	return l.path
}
