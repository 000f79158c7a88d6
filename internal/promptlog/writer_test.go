package promptlog

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorewood/promptlog/internal/lockfile"
)

const (
	helperEnv      = "PROMPTLOG_WRITER_HELPER"
	helperPathEnv  = "PROMPTLOG_WRITER_HELPER_PATH"
	helperCountEnv = "PROMPTLOG_WRITER_HELPER_COUNT"
	helperIDEnv    = "PROMPTLOG_WRITER_HELPER_ID"
)

func TestWriter_AppendCreatesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "p.prompt-log.json")
	w := &Writer{}
	ts := time.Date(2026, 1, 15, 10, 0, 0, 0, time.UTC)

	for i := range 3 {
		if err := w.Append(path, makeTestEntry("s1", fmt.Sprintf("prompt %d", i), ts)); err != nil {
			t.Fatalf("Append() error = %v", err)
		}
	}

	entries, stats, err := ReadAll(path)
	if err != nil {
		t.Fatalf("ReadAll() error = %v", err)
	}
	if stats.Parsed != 3 || stats.Skipped != 0 {
		t.Errorf("stats = %+v, want 3 parsed, 0 skipped", stats)
	}
	for i, e := range entries {
		if want := fmt.Sprintf("prompt %d", i); e.Content != want {
			t.Errorf("entry %d content = %q, want %q", i, e.Content, want)
		}
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if perm := info.Mode().Perm(); perm != 0o600 {
		t.Errorf("log permissions = %o, want 600", perm)
	}
}

func TestWriter_AppendAfterCorruptTail(t *testing.T) {
	path := filepath.Join(t.TempDir(), "p.prompt-log.json")
	ts := time.Date(2026, 1, 15, 10, 0, 0, 0, time.UTC)
	good, _ := makeTestEntry("s1", "first", ts).ToJSON()
	// Simulated crash mid-line; the next append starts on the same line.
	raw := string(good) + "\n" + `{"timestamp":"2026-01-15T10:00:01.000Z","content":"cut off` + "\n"
	if err := os.WriteFile(path, []byte(raw), 0o600); err != nil {
		t.Fatal(err)
	}

	if err := Append(path, makeTestEntry("s1", "third", ts), time.Second); err != nil {
		t.Fatalf("Append() error = %v", err)
	}

	entries, stats, err := ReadAll(path)
	if err != nil {
		t.Fatalf("ReadAll() error = %v", err)
	}
	if stats.Parsed != 2 || stats.Skipped != 1 || stats.FirstSkippedLine != 2 {
		t.Errorf("stats = %+v, want 2 parsed, 1 skipped at line 2", stats)
	}
	if len(entries) != 2 || entries[1].Content != "third" {
		t.Errorf("entries = %+v", entries)
	}
}

func TestWriter_LockTimeout(t *testing.T) {
	path := filepath.Join(t.TempDir(), "p.prompt-log.json")
	holder, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0o600)
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = holder.Close() }()
	lock, err := lockfile.TryLock(holder)
	if err != nil {
		t.Fatalf("TryLock() error = %v", err)
	}
	defer func() { _ = lock.Release() }()

	w := &Writer{LockTimeout: 100 * time.Millisecond}
	start := time.Now()
	err = w.Append(path, makeTestEntry("s1", "blocked", time.Now()))
	elapsed := time.Since(start)

	if !errors.Is(err, lockfile.ErrTimeout) {
		t.Fatalf("Append() error = %v, want ErrTimeout", err)
	}
	var terr *lockfile.TimeoutError
	if !errors.As(err, &terr) {
		t.Errorf("Append() error = %T, want *lockfile.TimeoutError in chain", err)
	}
	if elapsed > 2*time.Second {
		t.Errorf("Append() waited %v, want bounded by timeout", elapsed)
	}

	data, _ := os.ReadFile(path)
	if len(data) != 0 {
		t.Errorf("log should be untouched after timeout, got %q", data)
	}
}

func TestWriter_BackupOncePerWriter(t *testing.T) {
	path := filepath.Join(t.TempDir(), "p.prompt-log.json")
	ts := time.Date(2026, 1, 15, 10, 0, 0, 0, time.UTC)
	if err := Append(path, makeTestEntry("s0", "existing", ts), time.Second); err != nil {
		t.Fatal(err)
	}
	before, _ := os.ReadFile(path)

	w := &Writer{Backup: true}
	for i := range 3 {
		if err := w.Append(path, makeTestEntry("s1", strconv.Itoa(i), ts)); err != nil {
			t.Fatalf("Append() error = %v", err)
		}
	}

	bak, err := os.ReadFile(path + BackupSuffix)
	if err != nil {
		t.Fatalf("reading backup: %v", err)
	}
	if string(bak) != string(before) {
		t.Errorf("backup = %q, want snapshot before first write %q", bak, before)
	}
}

func TestWriter_BackupOncePerSessionAcrossWriters(t *testing.T) {
	path := filepath.Join(t.TempDir(), "p.prompt-log.json")
	ts := time.Date(2026, 1, 15, 10, 0, 0, 0, time.UTC)
	if err := Append(path, makeTestEntry("s0", "existing", ts), time.Second); err != nil {
		t.Fatal(err)
	}
	before, _ := os.ReadFile(path)

	// Each hook invocation builds its own Writer.
	for i := range 3 {
		w := NewWriter(time.Second, true, nil)
		if err := w.Append(path, makeTestEntry("s1", strconv.Itoa(i), ts)); err != nil {
			t.Fatalf("Append() error = %v", err)
		}
	}

	bak, err := os.ReadFile(path + BackupSuffix)
	if err != nil {
		t.Fatalf("reading backup: %v", err)
	}
	if string(bak) != string(before) {
		t.Errorf("backup = %q, want snapshot before the session's first write %q", bak, before)
	}

	afterS1, _ := os.ReadFile(path)
	w := NewWriter(time.Second, true, nil)
	if err := w.Append(path, makeTestEntry("s2", "next", ts)); err != nil {
		t.Fatalf("Append() error = %v", err)
	}
	bak, _ = os.ReadFile(path + BackupSuffix)
	if string(bak) != string(afterS1) {
		t.Errorf("new session should re-snapshot, backup = %q", bak)
	}
	if got, _ := os.ReadFile(path + BackupSessionSuffix); string(got) != "s2" {
		t.Errorf("backup session = %q, want s2", got)
	}
}

func TestWriter_BackupSkippedForNewFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "p.prompt-log.json")
	w := &Writer{Backup: true}
	if err := w.Append(path, makeTestEntry("s1", "x", time.Now())); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(path + BackupSuffix); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("backup of an empty log should not exist, stat err = %v", err)
	}
}

func TestWriter_ConcurrentGoroutines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "p.prompt-log.json")
	const writers, perWriter = 8, 25
	big := strings.Repeat("x", 8*1024)

	var wg sync.WaitGroup
	errs := make(chan error, writers*perWriter)
	for g := range writers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			w := &Writer{LockTimeout: 10 * time.Second}
			for i := range perWriter {
				content := fmt.Sprintf("%d-%d-%s", g, i, big)
				if err := w.Append(path, makeTestEntry("s", content, time.Now())); err != nil {
					errs <- err
				}
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Fatalf("Append() error = %v", err)
	}

	assertIntactLog(t, path, writers*perWriter)
}

// TestWriter_ConcurrentProcesses runs writer helpers in separate processes
// and checks that no line is interleaved.
func TestWriter_ConcurrentProcesses(t *testing.T) {
	if testing.Short() {
		t.Skip("spawns subprocesses")
	}
	path := filepath.Join(t.TempDir(), "p.prompt-log.json")
	const procs, perProc = 4, 20

	cmds := make([]*exec.Cmd, 0, procs)
	for i := range procs {
		cmd := exec.Command(os.Args[0], "-test.run=^TestWriterHelperProcess$")
		cmd.Env = append(os.Environ(),
			helperEnv+"=1",
			helperPathEnv+"="+path,
			helperCountEnv+"="+strconv.Itoa(perProc),
			helperIDEnv+"="+strconv.Itoa(i),
		)
		if err := cmd.Start(); err != nil {
			t.Fatalf("starting helper: %v", err)
		}
		cmds = append(cmds, cmd)
	}
	for _, cmd := range cmds {
		if err := cmd.Wait(); err != nil {
			t.Fatalf("helper failed: %v", err)
		}
	}

	assertIntactLog(t, path, procs*perProc)
}

// TestWriterHelperProcess is not a real test; it is the child side of
// TestWriter_ConcurrentProcesses.
func TestWriterHelperProcess(t *testing.T) {
	if os.Getenv(helperEnv) != "1" {
		return
	}
	path := os.Getenv(helperPathEnv)
	count, _ := strconv.Atoi(os.Getenv(helperCountEnv))
	id := os.Getenv(helperIDEnv)
	big := strings.Repeat("y", 16*1024)

	w := &Writer{LockTimeout: 30 * time.Second}
	for i := range count {
		content := fmt.Sprintf("proc %s entry %d %s", id, i, big)
		if err := w.Append(path, makeTestEntry("proc-"+id, content, time.Now())); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
	}
	os.Exit(0)
}

func assertIntactLog(t *testing.T, path string, want int) {
	t.Helper()
	entries, stats, err := ReadAll(path)
	if err != nil {
		t.Fatalf("ReadAll() error = %v", err)
	}
	if stats.Skipped != 0 {
		t.Errorf("found %d interleaved or corrupt lines (first at %d)", stats.Skipped, stats.FirstSkippedLine)
	}
	if len(entries) != want {
		t.Errorf("got %d entries, want %d", len(entries), want)
	}
}
