package flock

import (
	"errors"
	"fmt"
	"math/rand"
	"os"
	"time"

	"github.com/google/uuid"
)

const (
	// DefaultTimeout is the default acquisition timeout
	DefaultTimeout = 5 * time.Second

	// BackoffMin is the minimum randomized delay between acquire attempts
	BackoffMin = 5 * time.Millisecond
	// BackoffMax is the maximum randomized delay between acquire attempts
	BackoffMax = 25 * time.Millisecond
)

// ErrTimeout is returned when the lock cannot be acquired within the
// acquisition timeout. Callers treat it as fatal: it means the coordination
// substrate itself is unavailable, not that another test is merely slow.
var ErrTimeout = errors.New("lock acquisition timed out")

// Lock is an advisory mutual-exclusion lock shared across processes through
// a sentinel file.
type Lock struct {
	path  string
	token string
}

// New creates a lock on the given sentinel path. The owner token is unique
// per Lock value and written into the sentinel for diagnostics.
func New(path string) *Lock {
	return &Lock{
		path:  path,
		token: uuid.NewString(),
	}
}

// Path returns the sentinel file path.
func (l *Lock) Path() string {
	return l.path
}

// Acquire attempts to create the sentinel file exclusively, retrying with a
// short randomized backoff until timeout elapses. A zero or negative timeout
// uses DefaultTimeout.
func (l *Lock) Acquire(timeout time.Duration) error {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	deadline := time.Now().Add(timeout)

	for {
		f, err := os.OpenFile(l.path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0644)
		if err == nil {
			fmt.Fprintf(f, "%d %s\n", os.Getpid(), l.token)
			_ = f.Close()
			return nil
		}
		if !os.IsExist(err) {
			return fmt.Errorf("create lock sentinel: %w", err)
		}

		if time.Now().After(deadline) {
			return fmt.Errorf("%w after %v: %s held by another process", ErrTimeout, timeout, l.path)
		}
		time.Sleep(backoff())
	}
}

// Release removes the sentinel file. Releasing a lock whose sentinel is
// already absent is a no-op, never an error.
func (l *Lock) Release() error {
	if err := os.Remove(l.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove lock sentinel: %w", err)
	}
	return nil
}

// WithLock runs fn while holding the lock. The lock is released on every
// exit path, including a panic inside fn.
func (l *Lock) WithLock(timeout time.Duration, fn func() error) error {
	if err := l.Acquire(timeout); err != nil {
		return err
	}
	defer func() { _ = l.Release() }()
	return fn()
}

// backoff returns a randomized delay in [BackoffMin, BackoffMax)
func backoff() time.Duration {
	return BackoffMin + time.Duration(rand.Int63n(int64(BackoffMax-BackoffMin)))
}
