package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gorewood/promptlog/internal/output"
)

func TestEnableDisable(t *testing.T) {
	project := isolate(t)
	marker := filepath.Join(project, ".promptlog-enabled")

	out, err := runCLI(t, "", "enable", "--json")
	if err != nil {
		t.Fatalf("enable error = %v", err)
	}
	if got := decodeJSON(t, out)["status"]; got != "enabled" {
		t.Errorf("status = %v, want enabled", got)
	}
	if _, err := os.Stat(marker); err != nil {
		t.Fatalf("marker not created: %v", err)
	}

	out, err = runCLI(t, "", "enable", "--json")
	if err != nil {
		t.Fatalf("second enable error = %v", err)
	}
	if got := decodeJSON(t, out)["status"]; got != "already_enabled" {
		t.Errorf("status = %v, want already_enabled", got)
	}

	// Disable works from a subdirectory of the project.
	sub := filepath.Join(project, "sub")
	if err := os.MkdirAll(sub, 0o755); err != nil {
		t.Fatal(err)
	}
	t.Chdir(sub)
	out, err = runCLI(t, "", "disable", "--json")
	if err != nil {
		t.Fatalf("disable error = %v", err)
	}
	if got := decodeJSON(t, out)["status"]; got != "disabled" {
		t.Errorf("status = %v, want disabled", got)
	}
	if _, err := os.Stat(marker); !os.IsNotExist(err) {
		t.Errorf("marker still present: %v", err)
	}

	out, err = runCLI(t, "", "disable", "--json")
	if err != nil {
		t.Fatalf("second disable error = %v", err)
	}
	if got := decodeJSON(t, out)["status"]; got != "not_enabled" {
		t.Errorf("status = %v, want not_enabled", got)
	}
}

func TestStatus(t *testing.T) {
	project := isolate(t)

	out, err := runCLI(t, "", "status", "--json")
	if err != nil {
		t.Fatalf("status error = %v", err)
	}
	result := decodeJSON(t, out)
	if result["enabled"] != false || result["log_exists"] != false {
		t.Errorf("fresh project status = %v", result)
	}

	enableProject(t, project)
	writeLog(t, project, logLine1, "garbage", logLine2)

	out, err = runCLI(t, "", "status", "--json")
	if err != nil {
		t.Fatalf("status error = %v", err)
	}
	result = decodeJSON(t, out)
	if result["enabled"] != true || result["log_exists"] != true {
		t.Errorf("enabled project status = %v", result)
	}
	if result["entries"] != float64(2) || result["skipped_lines"] != float64(1) {
		t.Errorf("entries = %v skipped = %v, want 2 and 1", result["entries"], result["skipped_lines"])
	}

	out, err = runCLI(t, "", "status")
	if err != nil {
		t.Fatalf("status error = %v", err)
	}
	for _, want := range []string{"enabled", "Entries:", "none installed"} {
		if !strings.Contains(out, want) {
			t.Errorf("human status missing %q:\n%s", want, out)
		}
	}
}

func TestArchive(t *testing.T) {
	project := isolate(t)
	enableProject(t, project)

	_, err := runCLI(t, "", "archive")
	if err == nil {
		t.Fatal("expected error archiving a missing log")
	}
	if code := output.GetExitCode(err); code != output.ExitUserError {
		t.Errorf("exit code = %d, want %d", code, output.ExitUserError)
	}

	logPath := writeLog(t, project, logLine1)
	out, err := runCLI(t, "", "archive", "--json")
	if err != nil {
		t.Fatalf("archive error = %v", err)
	}
	result := decodeJSON(t, out)
	dest, _ := result["to"].(string)
	if filepath.Dir(dest) != filepath.Join(filepath.Dir(logPath), "archive") {
		t.Errorf("archived to %q, want the archive dir next to the log", dest)
	}
	data, err := os.ReadFile(dest)
	if err != nil {
		t.Fatalf("reading archive: %v", err)
	}
	if strings.TrimSpace(string(data)) != logLine1 {
		t.Errorf("archived content changed: %q", data)
	}
	if _, err := os.Stat(logPath); !os.IsNotExist(err) {
		t.Errorf("log still present after archive: %v", err)
	}

	out, err = runCLI(t, "", "status", "--json")
	if err != nil {
		t.Fatal(err)
	}
	if got := decodeJSON(t, out)["archives"]; got != float64(1) {
		t.Errorf("archives = %v, want 1", got)
	}
}

func TestArchive_ConfiguredDir(t *testing.T) {
	project := isolate(t)
	enableProject(t, project)
	writeLog(t, project, logLine1)
	t.Setenv("PROMPTLOG_ARCHIVE_DIR", "old-logs")

	out, err := runCLI(t, "", "archive", "--json")
	if err != nil {
		t.Fatalf("archive error = %v", err)
	}
	dest, _ := decodeJSON(t, out)["to"].(string)
	if filepath.Dir(dest) != filepath.Join(project, "old-logs") {
		t.Errorf("archived to %q, want <project>/old-logs", dest)
	}
}
