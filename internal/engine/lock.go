package engine

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
	"golang.org/x/sync/semaphore"
)

// WriteLock serializes index-mutating sub-cycles. In-process callers
// share a single-slot semaphore; an optional file lock extends the
// exclusion across processes, so a manual drain cannot interleave with
// a running daemon.
type WriteLock struct {
	sem  *semaphore.Weighted
	file *flock.Flock // nil without a lock file
}

// NewWriteLock builds the lock. An empty path keeps the lock
// process-local.
func NewWriteLock(path string) *WriteLock {
	wl := &WriteLock{sem: semaphore.NewWeighted(1)}
	if path != "" {
		wl.file = flock.New(path)
	}
	return wl
}

// Acquire blocks until the lock is exclusively held or ctx ends.
func (l *WriteLock) Acquire(ctx context.Context) error {
	if err := l.sem.Acquire(ctx, 1); err != nil {
		return fmt.Errorf("failed to acquire write lock: %w", err)
	}
	if l.file != nil {
		dir := filepath.Dir(l.file.Path())
		if err := os.MkdirAll(dir, 0o755); err != nil {
			l.sem.Release(1)
			return fmt.Errorf("failed to create lock directory %s: %w", dir, err)
		}
		if err := l.file.Lock(); err != nil {
			l.sem.Release(1)
			return fmt.Errorf("failed to acquire lock file %s: %w", l.file.Path(), err)
		}
	}
	return nil
}

// Release must be called exactly once per successful Acquire.
func (l *WriteLock) Release() {
	if l.file != nil {
		_ = l.file.Unlock()
	}
	l.sem.Release(1)
}
