package capture

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestMarkerLifecycle(t *testing.T) {
	dir := t.TempDir()
	if IsEnabled(dir, "") {
		t.Fatal("new dir should not be enabled")
	}
	if err := Enable(dir, ""); err != nil {
		t.Fatalf("Enable() error = %v", err)
	}
	if !IsEnabled(dir, "") {
		t.Error("IsEnabled() = false after Enable")
	}
	if err := Enable(dir, ""); !errors.Is(err, ErrAlreadyEnabled) {
		t.Errorf("second Enable() error = %v, want ErrAlreadyEnabled", err)
	}

	info, err := os.Stat(filepath.Join(dir, DefaultMarkerName))
	if err != nil || info.Size() != 0 {
		t.Errorf("marker should be a zero-byte file: %v", err)
	}

	if err := Disable(dir, ""); err != nil {
		t.Fatalf("Disable() error = %v", err)
	}
	if IsEnabled(dir, "") {
		t.Error("IsEnabled() = true after Disable")
	}
	if err := Disable(dir, ""); !errors.Is(err, ErrNotEnabled) {
		t.Errorf("second Disable() error = %v, want ErrNotEnabled", err)
	}
}

func TestMarker_CustomName(t *testing.T) {
	dir := t.TempDir()
	if err := Enable(dir, ".capture-on"); err != nil {
		t.Fatal(err)
	}
	if IsEnabled(dir, "") {
		t.Error("default marker should not be present")
	}
	if !IsEnabled(dir, ".capture-on") {
		t.Error("custom marker should be present")
	}
}

func TestMarker_DirectoryIsNotMarker(t *testing.T) {
	dir := t.TempDir()
	if err := os.Mkdir(filepath.Join(dir, DefaultMarkerName), 0o755); err != nil {
		t.Fatal(err)
	}
	if IsEnabled(dir, "") {
		t.Error("a directory named like the marker must not enable capture")
	}
}

func TestFindProject(t *testing.T) {
	root := t.TempDir()
	deep := filepath.Join(root, "a", "b", "c")
	if err := os.MkdirAll(deep, 0o755); err != nil {
		t.Fatal(err)
	}
	if _, ok := FindProject(deep, ""); ok {
		t.Fatal("FindProject() found a project before Enable")
	}
	if err := Enable(root, ""); err != nil {
		t.Fatal(err)
	}
	got, ok := FindProject(deep, "")
	if !ok || got != root {
		t.Errorf("FindProject() = %q, %v; want %q", got, ok, root)
	}
}
