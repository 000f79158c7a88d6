// Package lockfile provides exclusive advisory locks on open files with a
// bounded wait.
//
// Locks are cooperative: they only exclude other processes that also lock the
// same file through this package (flock(2) on Unix, LockFileEx on Windows).
package lockfile

import (
	"errors"
	"fmt"
	"os"
	"time"
)

// DefaultPollInterval is how often LockTimeout retries a contended lock.
const DefaultPollInterval = 25 * time.Millisecond

var (
	// ErrAlreadyLocked indicates the lock is held by another process.
	ErrAlreadyLocked = errors.New("lock already held")

	// ErrTimeout is matched by errors.Is for every *TimeoutError.
	ErrTimeout = errors.New("lock acquisition timed out")
)

// TimeoutError reports that a lock could not be acquired before the deadline.
type TimeoutError struct {
	Path    string
	Timeout time.Duration
}

// Error implements the error interface.
func (e *TimeoutError) Error() string {
	return fmt.Sprintf("timed out after %s waiting for lock on %s", e.Timeout, e.Path)
}

// Is reports whether target is ErrTimeout.
func (e *TimeoutError) Is(target error) bool {
	return target == ErrTimeout
}

// Lock is a held exclusive lock on an open file.
type Lock struct {
	f *os.File
}

// TryLock attempts a single non-blocking exclusive lock on f.
// Returns ErrAlreadyLocked if another holder has it.
func TryLock(f *os.File) (*Lock, error) {
	if f == nil {
		return nil, errors.New("nil lock file")
	}
	if err := lockFile(f); err != nil {
		return nil, err
	}
	return &Lock{f: f}, nil
}

// LockTimeout acquires an exclusive lock on f, retrying every
// DefaultPollInterval until timeout elapses. A timeout <= 0 makes a single
// attempt. On expiry it returns a *TimeoutError.
func LockTimeout(f *os.File, timeout time.Duration) (*Lock, error) {
	return lockWithPoll(f, timeout, DefaultPollInterval)
}

func lockWithPoll(f *os.File, timeout, poll time.Duration) (*Lock, error) {
	deadline := time.Now().Add(timeout)
	for {
		l, err := TryLock(f)
		if err == nil {
			return l, nil
		}
		if !errors.Is(err, ErrAlreadyLocked) {
			return nil, err
		}

		remaining := time.Until(deadline)
		if remaining <= 0 {
			return nil, &TimeoutError{Path: f.Name(), Timeout: timeout}
		}
		time.Sleep(min(poll, remaining))
	}
}

// Release unlocks the file. The file itself stays open; closing it is the
// caller's job. Safe to call more than once.
func (l *Lock) Release() error {
	if l == nil || l.f == nil {
		return nil
	}
	err := unlockFile(l.f)
	l.f = nil
	return err
}

// OpenLocked opens path with flag and perm, then locks it with LockTimeout.
// The returned release func unlocks and closes the file; it must be called on
// every path once the caller is done.
func OpenLocked(path string, flag int, perm os.FileMode, timeout time.Duration) (*os.File, func() error, error) {
	if path == "" {
		return nil, nil, errors.New("lock path is empty")
	}
	f, err := os.OpenFile(path, flag, perm)
	if err != nil {
		return nil, nil, err
	}
	l, err := LockTimeout(f, timeout)
	if err != nil {
		_ = f.Close()
		return nil, nil, err
	}

	release := func() error {
		// Unlock first; close always.
		unlockErr := l.Release()
		closeErr := f.Close()
		if unlockErr != nil {
			return unlockErr
		}
		return closeErr
	}
	return f, release, nil
}
