package promptlog

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gorewood/promptlog/internal/lockfile"
)

// ErrNoLog is returned by Archive when there is no log to move.
var ErrNoLog = errors.New("no prompt log found")

// ArchiveName returns the archived file name for a log: the log name stamped
// with now, e.g. project-20260115T100000.prompt-log.json.
func ArchiveName(logPath string, now time.Time) string {
	base := strings.TrimSuffix(filepath.Base(logPath), FileSuffix)
	return base + "-" + now.UTC().Format("20060102T150405") + FileSuffix
}

// Archive moves the log at path into archiveDir under the writer lock and
// returns the new path. The log content is never modified. An empty
// archiveDir uses an "archive" directory next to the log.
func Archive(path, archiveDir string, now time.Time, timeout time.Duration) (string, error) {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", ErrNoLog
		}
		return "", fmt.Errorf("checking log %s: %w", path, err)
	}
	if archiveDir == "" {
		archiveDir = filepath.Join(filepath.Dir(path), "archive")
	}
	if err := os.MkdirAll(archiveDir, 0o755); err != nil {
		return "", fmt.Errorf("creating archive directory: %w", err)
	}
	if timeout <= 0 {
		timeout = DefaultLockTimeout
	}

	_, release, err := lockfile.OpenLocked(path, os.O_RDONLY, 0, timeout)
	if err != nil {
		return "", fmt.Errorf("locking log %s: %w", path, err)
	}
	defer func() { _ = release() }()

	dest := filepath.Join(archiveDir, ArchiveName(path, now))
	if _, err := os.Stat(dest); err == nil {
		return "", fmt.Errorf("archive %s already exists", dest)
	}
	if err := os.Rename(path, dest); err != nil {
		return "", fmt.Errorf("moving log to archive: %w", err)
	}
	return dest, nil
}
