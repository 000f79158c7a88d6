package capture

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// DefaultMarkerName is the enable marker file created in a project root.
const DefaultMarkerName = ".promptlog-enabled"

var (
	// ErrAlreadyEnabled is returned by Enable when the marker exists.
	ErrAlreadyEnabled = errors.New("prompt capture already enabled")
	// ErrNotEnabled is returned by Disable when there is no marker.
	ErrNotEnabled = errors.New("prompt capture not enabled")
)

func markerPath(projectDir, name string) string {
	if name == "" {
		name = DefaultMarkerName
	}
	return filepath.Join(projectDir, name)
}

// IsEnabled reports whether projectDir itself carries the marker.
func IsEnabled(projectDir, name string) bool {
	info, err := os.Stat(markerPath(projectDir, name))
	return err == nil && !info.IsDir()
}

// FindProject walks up from start to the nearest directory carrying the
// marker. It returns that directory and true, or "" and false when capture is
// not enabled anywhere above start.
func FindProject(start, name string) (string, bool) {
	dir, err := filepath.Abs(start)
	if err != nil {
		return "", false
	}
	for {
		if IsEnabled(dir, name) {
			return dir, true
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", false
		}
		dir = parent
	}
}

// Enable creates an empty marker in projectDir.
func Enable(projectDir, name string) error {
	f, err := os.OpenFile(markerPath(projectDir, name), os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		if errors.Is(err, os.ErrExist) {
			return ErrAlreadyEnabled
		}
		return fmt.Errorf("creating enable marker: %w", err)
	}
	return f.Close()
}

// Disable removes the marker from projectDir. The log itself is left alone.
func Disable(projectDir, name string) error {
	if err := os.Remove(markerPath(projectDir, name)); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return ErrNotEnabled
		}
		return fmt.Errorf("removing enable marker: %w", err)
	}
	return nil
}
