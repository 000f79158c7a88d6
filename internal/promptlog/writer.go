package promptlog

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/gorewood/promptlog/internal/lockfile"
)

// DefaultLockTimeout bounds how long Append waits for the file lock.
const DefaultLockTimeout = 30 * time.Second

// BackupSuffix is appended to the log path for the pre-write snapshot.
const BackupSuffix = ".bak"

// BackupSessionSuffix names the file beside the snapshot that records which
// session it was taken for.
const BackupSessionSuffix = BackupSuffix + ".session"

// Writer appends entries to log files under an exclusive advisory lock.
// The zero value is usable and applies DefaultLockTimeout without backups.
type Writer struct {
	// LockTimeout bounds the lock wait. Zero means DefaultLockTimeout.
	LockTimeout time.Duration
	// Backup copies the log to <path>.bak before the first write of each
	// session. The session is recorded on disk, so separate Writers (one per
	// hook process) share it.
	Backup bool
	// Logger receives diagnostics. Nil discards them.
	Logger *slog.Logger

	mu       sync.Mutex
	backedUp map[string]bool
}

// NewWriter creates a Writer with the given lock timeout and backup behavior.
func NewWriter(timeout time.Duration, backup bool, logger *slog.Logger) *Writer {
	return &Writer{LockTimeout: timeout, Backup: backup, Logger: logger}
}

// Append writes entry as one NDJSON line to path. The parent directory is
// created when missing. A lock that cannot be acquired within the timeout
// yields an error matching lockfile.ErrTimeout; nothing is written in that case.
func (w *Writer) Append(path string, entry *Entry) (err error) {
	line, err := entry.ToJSON()
	if err != nil {
		return err
	}
	line = append(line, '\n')

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating log directory: %w", err)
	}

	f, release, err := lockfile.OpenLocked(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600, w.timeout())
	if err != nil {
		return fmt.Errorf("opening log %s: %w", path, err)
	}
	defer func() {
		if relErr := release(); relErr != nil && err == nil {
			err = fmt.Errorf("releasing log %s: %w", path, relErr)
		}
	}()

	if w.Backup {
		if bakErr := w.backupOnce(path, entry.SessionID); bakErr != nil {
			// A failed snapshot does not block the append.
			w.logger().Warn("log backup failed", "path", path, "error", bakErr)
		}
	}

	if _, err := f.Write(line); err != nil {
		return fmt.Errorf("writing log entry: %w", err)
	}
	if err := f.Sync(); err != nil {
		return fmt.Errorf("syncing log: %w", err)
	}
	w.logger().Debug("log entry appended", "path", path, "bytes", len(line))
	return nil
}

// Append writes entry to path with a one-shot Writer using the given timeout.
func Append(path string, entry *Entry, timeout time.Duration) error {
	w := Writer{LockTimeout: timeout}
	return w.Append(path, entry)
}

func (w *Writer) timeout() time.Duration {
	if w.LockTimeout <= 0 {
		return DefaultLockTimeout
	}
	return w.LockTimeout
}

func (w *Writer) logger() *slog.Logger {
	if w.Logger == nil {
		return slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return w.Logger
}

// backupOnce snapshots path to path+BackupSuffix before the first write of
// sessionID. Entries without a session fall back to once per writer and path.
// The caller holds the file lock.
func (w *Writer) backupOnce(path, sessionID string) error {
	if sessionID == "" {
		w.mu.Lock()
		defer w.mu.Unlock()
		if w.backedUp == nil {
			w.backedUp = make(map[string]bool)
		}
		if w.backedUp[path] {
			return nil
		}
		w.backedUp[path] = true
		return snapshot(path)
	}

	marker := path + BackupSessionSuffix
	if prev, err := os.ReadFile(marker); err == nil && string(prev) == sessionID {
		return nil
	}
	if err := snapshot(path); err != nil {
		return err
	}
	return writeFileAtomic(marker, []byte(sessionID))
}

// snapshot copies a non-empty log to its backup path.
func snapshot(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if info.Size() == 0 {
		return nil
	}
	return copyFile(path, path+BackupSuffix)
}

func writeFileAtomic(path string, data []byte) error {
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer func() { _ = in.Close() }()

	tmp := dst + ".tmp"
	out, err := os.OpenFile(tmp, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o600)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		_ = os.Remove(tmp)
		return err
	}
	if err := out.Close(); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	return os.Rename(tmp, dst)
}
