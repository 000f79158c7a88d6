//go:build !windows

package lockfile

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func openTestFile(t *testing.T, path string) *os.File {
	t.Helper()
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0o600)
	if err != nil {
		t.Fatalf("open %s: %v", path, err)
	}
	t.Cleanup(func() { _ = f.Close() })
	return f
}

func TestTryLock_Contended(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.lock")
	first := openTestFile(t, path)
	second := openTestFile(t, path)

	held, err := TryLock(first)
	if err != nil {
		t.Fatalf("first TryLock: %v", err)
	}

	if _, err := TryLock(second); !errors.Is(err, ErrAlreadyLocked) {
		t.Fatalf("second TryLock error = %v, want ErrAlreadyLocked", err)
	}

	if err := held.Release(); err != nil {
		t.Fatalf("Release: %v", err)
	}

	again, err := TryLock(second)
	if err != nil {
		t.Fatalf("TryLock after release: %v", err)
	}
	_ = again.Release()
}

func TestLockTimeout_Expires(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.lock")
	holder := openTestFile(t, path)
	waiter := openTestFile(t, path)

	held, err := TryLock(holder)
	if err != nil {
		t.Fatalf("TryLock: %v", err)
	}
	defer func() { _ = held.Release() }()

	timeout := 150 * time.Millisecond
	start := time.Now()
	_, err = LockTimeout(waiter, timeout)
	elapsed := time.Since(start)

	if !errors.Is(err, ErrTimeout) {
		t.Fatalf("error = %v, want ErrTimeout", err)
	}
	var timeoutErr *TimeoutError
	if !errors.As(err, &timeoutErr) {
		t.Fatalf("error %T is not *TimeoutError", err)
	}
	if timeoutErr.Timeout != timeout {
		t.Errorf("Timeout = %v, want %v", timeoutErr.Timeout, timeout)
	}
	if elapsed < timeout {
		t.Errorf("returned after %v, before timeout %v", elapsed, timeout)
	}
	if elapsed > timeout+time.Second {
		t.Errorf("returned after %v, want close to %v", elapsed, timeout)
	}
}

func TestLockTimeout_AcquiresAfterRelease(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.lock")
	holder := openTestFile(t, path)
	waiter := openTestFile(t, path)

	held, err := TryLock(holder)
	if err != nil {
		t.Fatalf("TryLock: %v", err)
	}

	go func() {
		time.Sleep(50 * time.Millisecond)
		_ = held.Release()
	}()

	l, err := LockTimeout(waiter, 2*time.Second)
	if err != nil {
		t.Fatalf("LockTimeout: %v", err)
	}
	_ = l.Release()
}

func TestOpenLocked_ReleaseClosesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.json")

	f, release, err := OpenLocked(path, os.O_CREATE|os.O_RDWR, 0o600, time.Second)
	if err != nil {
		t.Fatalf("OpenLocked: %v", err)
	}
	if err := release(); err != nil {
		t.Fatalf("release: %v", err)
	}
	if _, err := f.Write([]byte("x")); err == nil {
		t.Error("write after release should fail on closed file")
	}

	// Lock must be free again.
	_, release2, err := OpenLocked(path, os.O_RDWR, 0o600, 0)
	if err != nil {
		t.Fatalf("second OpenLocked: %v", err)
	}
	_ = release2()
}

func TestOpenLocked_EmptyPath(t *testing.T) {
	if _, _, err := OpenLocked("", os.O_RDONLY, 0, 0); err == nil {
		t.Error("expected error for empty path")
	}
}

func TestRelease_NilSafe(t *testing.T) {
	var l *Lock
	if err := l.Release(); err != nil {
		t.Errorf("nil Release() = %v", err)
	}
}
