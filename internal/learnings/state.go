package learnings

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"github.com/gorewood/promptlog/internal/lockfile"
)

// SessionStore persists one Deduplicator per session under
// <Dir>/dedup/<session>.json so that separate hook processes share state.
type SessionStore struct {
	Dir         string
	MaxSize     int
	LockTimeout time.Duration
}

type sessionState struct {
	SessionID string       `json:"session_id"`
	UpdatedAt time.Time    `json:"updated_at"`
	Entries   []DedupEntry `json:"entries"`
}

var safeSessionRe = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)

// Path returns the state file for session.
func (s *SessionStore) Path(session string) string {
	name := session
	switch {
	case session == "":
		name = "default"
	case !safeSessionRe.MatchString(session):
		sum := sha256.Sum256([]byte(session))
		name = hex.EncodeToString(sum[:8])
	}
	return filepath.Join(s.Dir, "dedup", name+".json")
}

// With loads the session's Deduplicator, passes it to fn and saves it back,
// all under an exclusive lock on the state file. Corrupt state is discarded.
func (s *SessionStore) With(session string, fn func(*Deduplicator) error) (err error) {
	path := s.Path(session)
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("creating dedup state dir: %w", err)
	}
	timeout := s.LockTimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	f, release, err := lockfile.OpenLocked(path, os.O_CREATE|os.O_RDWR, 0o600, timeout)
	if err != nil {
		return fmt.Errorf("locking dedup state: %w", err)
	}
	defer func() {
		if relErr := release(); relErr != nil && err == nil {
			err = relErr
		}
	}()

	dedup := NewDeduplicator(s.MaxSize)
	data, err := io.ReadAll(f)
	if err != nil {
		return fmt.Errorf("reading dedup state: %w", err)
	}
	if len(data) > 0 {
		var state sessionState
		if json.Unmarshal(data, &state) == nil {
			dedup.Restore(state.Entries)
		}
	}

	if err := fn(dedup); err != nil {
		return err
	}

	out, err := json.Marshal(sessionState{SessionID: session, UpdatedAt: time.Now().UTC(), Entries: dedup.Snapshot()})
	if err != nil {
		return fmt.Errorf("encoding dedup state: %w", err)
	}
	if err := f.Truncate(0); err != nil {
		return fmt.Errorf("truncating dedup state: %w", err)
	}
	if _, err := f.WriteAt(out, 0); err != nil {
		return fmt.Errorf("writing dedup state: %w", err)
	}
	return f.Sync()
}

// Reset deletes the session's state. Missing state is not an error.
func (s *SessionStore) Reset(session string) error {
	err := os.Remove(s.Path(session))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("removing dedup state: %w", err)
	}
	return nil
}

// Prune removes state files not modified within maxAge and returns how many
// were removed.
func (s *SessionStore) Prune(maxAge time.Duration, now time.Time) (int, error) {
	dir := filepath.Join(s.Dir, "dedup")
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return 0, nil
		}
		return 0, err
	}
	removed := 0
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".json" {
			continue
		}
		info, err := e.Info()
		if err != nil || now.Sub(info.ModTime()) < maxAge {
			continue
		}
		if os.Remove(filepath.Join(dir, e.Name())) == nil {
			removed++
		}
	}
	return removed, nil
}
