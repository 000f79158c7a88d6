// Package analyzer computes usage statistics and insights from a prompt log.
package analyzer

import "time"

// Report is the result of analyzing one log file.
type Report struct {
	LogPath string `json:"log_path"`
	// Found is false when the log does not exist; all counts are then zero.
	Found   bool  `json:"found"`
	LogSize int64 `json:"log_size_bytes"`

	EntriesParsed int `json:"entries_parsed"`
	SkippedLines  int `json:"skipped_lines"`
	TotalLines    int `json:"total_lines"`
	// FirstSkippedLine is the 1-based line of the first unreadable record.
	FirstSkippedLine int `json:"first_skipped_line,omitempty"`

	EntryTypes map[string]int `json:"entry_types"`
	Sessions   []SessionStats `json:"sessions"`
	Commands   map[string]int `json:"commands"`

	Prompt        LengthStats `json:"prompt_length"`
	Questions     int         `json:"questions"`
	QuestionRatio float64     `json:"question_ratio"`
	CommandRatio  float64     `json:"command_ratio"`

	Secrets   SecretStats `json:"secrets"`
	Truncated int         `json:"truncated"`

	FirstTimestamp string `json:"first_timestamp,omitempty"`
	LastTimestamp  string `json:"last_timestamp,omitempty"`

	Insights []string `json:"insights"`
}

// SessionStats summarizes one session.
type SessionStats struct {
	SessionID       string  `json:"session_id"`
	Entries         int     `json:"entries"`
	First           string  `json:"first"`
	Last            string  `json:"last"`
	DurationSeconds float64 `json:"duration_seconds"`
}

// Duration returns the session span.
func (s SessionStats) Duration() time.Duration {
	return time.Duration(s.DurationSeconds * float64(time.Second))
}

// LengthStats describes prompt lengths in characters.
type LengthStats struct {
	Count  int     `json:"count"`
	Min    int     `json:"min"`
	Max    int     `json:"max"`
	Mean   float64 `json:"mean"`
	Median float64 `json:"median"`
}

// SecretStats aggregates redaction counts from filter_info.
type SecretStats struct {
	Total              int            `json:"total"`
	ByType             map[string]int `json:"by_type"`
	EntriesWithSecrets int            `json:"entries_with_secrets"`
}

// TopCommands returns up to n commands by descending count, ties by name.
func (r *Report) TopCommands(n int) []CommandCount {
	return topCounts(r.Commands, n)
}

// CommandCount pairs a command with its use count.
type CommandCount struct {
	Command string `json:"command"`
	Count   int    `json:"count"`
}
