// Package promptlog provides the prompt log entry schema, NDJSON
// serialization, and concurrency-safe append and read of per-project log files.
package promptlog

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gorewood/promptlog/internal/filter"
)

// EntryType classifies a log entry.
type EntryType string

const (
	// EntryUserInput is a prompt submitted by the user.
	EntryUserInput EntryType = "user_input"
	// EntrySessionStart marks the start of a host session.
	EntrySessionStart EntryType = "session_start"
)

// TimestampFormat is RFC 3339 in UTC with millisecond precision.
const TimestampFormat = "2006-01-02T15:04:05.000Z"

// Entry is one line of a prompt log. Entries are immutable once written.
type Entry struct {
	Timestamp  string      `json:"timestamp"`
	SessionID  string      `json:"session_id"`
	EntryType  EntryType   `json:"entry_type"`
	Content    string      `json:"content"`
	Command    *string     `json:"command"`
	Cwd        string      `json:"cwd"`
	FilterInfo filter.Info `json:"filter_info"`
}

// ParseError is returned when a log line cannot be decoded into an Entry.
type ParseError struct {
	// Line is the 1-based line number, or 0 when parsing a standalone value.
	Line int
	Err  error
}

// Error implements the error interface.
func (e *ParseError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("parsing log entry at line %d: %v", e.Line, e.Err)
	}
	return fmt.Sprintf("parsing log entry: %v", e.Err)
}

// Unwrap returns the underlying decode error.
func (e *ParseError) Unwrap() error {
	return e.Err
}

// NewEntry creates an entry stamped with now. The content must already be
// filtered; info is the filter summary recorded alongside it.
func NewEntry(now time.Time, sessionID string, entryType EntryType, content string, command *string, cwd string, info filter.Info) *Entry {
	return &Entry{
		Timestamp:  FormatTimestamp(now),
		SessionID:  sessionID,
		EntryType:  entryType,
		Content:    content,
		Command:    command,
		Cwd:        cwd,
		FilterInfo: info,
	}
}

// FormatTimestamp renders t in the log timestamp format.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(TimestampFormat)
}

// Time parses the entry timestamp. Any RFC 3339 value is accepted.
func (e *Entry) Time() (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, e.Timestamp)
	if err != nil {
		return time.Time{}, fmt.Errorf("parsing timestamp %q: %w", e.Timestamp, err)
	}
	return t, nil
}

// CommandName returns the detected command or "".
func (e *Entry) CommandName() string {
	if e.Command == nil {
		return ""
	}
	return *e.Command
}

// Validate checks that required fields are present.
func (e *Entry) Validate() error {
	var missing []string
	if e.Timestamp == "" {
		missing = append(missing, "timestamp")
	}
	if e.EntryType == "" {
		missing = append(missing, "entry_type")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required fields: %s", strings.Join(missing, ", "))
	}
	return nil
}

// ToJSON serializes the entry as a single line with no trailing newline.
func (e *Entry) ToJSON() ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(e); err != nil {
		return nil, fmt.Errorf("serializing entry to JSON: %w", err)
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// FromJSON deserializes an entry. Malformed input, non-object values and
// entries missing required fields yield a *ParseError.
func FromJSON(data []byte) (*Entry, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, &ParseError{Err: errors.New("empty JSON data")}
	}

	var entry Entry
	if err := json.Unmarshal(data, &entry); err != nil {
		return nil, &ParseError{Err: err}
	}
	if err := entry.Validate(); err != nil {
		return nil, &ParseError{Err: err}
	}
	return &entry, nil
}
