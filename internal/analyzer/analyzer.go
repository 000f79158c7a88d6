package analyzer

import (
	"cmp"
	"errors"
	"fmt"
	"os"
	"slices"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/gorewood/promptlog/internal/promptlog"
)

// Options narrows the entries that are analyzed.
type Options struct {
	SessionID string
	Since     time.Time
	Until     time.Time
}

func (o Options) keep(e *promptlog.Entry) bool {
	if o.SessionID != "" && e.SessionID != o.SessionID {
		return false
	}
	if o.Since.IsZero() && o.Until.IsZero() {
		return true
	}
	t, err := e.Time()
	if err != nil {
		return false
	}
	if !o.Since.IsZero() && t.Before(o.Since) {
		return false
	}
	if !o.Until.IsZero() && t.After(o.Until) {
		return false
	}
	return true
}

// Analyze reads the whole log at path. A missing log yields a report with
// Found false and no error; an unreadable path is an error.
func Analyze(path string) (*Report, error) {
	return AnalyzeWithOptions(path, Options{})
}

// AnalyzeWithOptions is Analyze restricted by opts. Line counts always cover
// the whole file.
func AnalyzeWithOptions(path string, opts Options) (*Report, error) {
	report := newReport(path)

	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return report, nil
		}
		return nil, fmt.Errorf("accessing log %s: %w", path, err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("log path %s is a directory", path)
	}
	report.Found = true
	report.LogSize = info.Size()

	acc := newAccumulator()
	stats, err := promptlog.Scan(path, func(e *promptlog.Entry) error {
		if opts.keep(e) {
			acc.add(e)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	report.TotalLines = stats.Total
	report.SkippedLines = stats.Skipped
	report.FirstSkippedLine = stats.FirstSkippedLine
	acc.fill(report)
	report.Insights = Insights(report)
	return report, nil
}

// AnalyzeEntries builds a report from entries already in memory.
func AnalyzeEntries(entries []*promptlog.Entry) *Report {
	report := newReport("")
	report.Found = true
	acc := newAccumulator()
	for _, e := range entries {
		acc.add(e)
	}
	report.TotalLines = len(entries)
	acc.fill(report)
	report.Insights = Insights(report)
	return report
}

func newReport(path string) *Report {
	return &Report{
		LogPath:    path,
		EntryTypes: map[string]int{},
		Commands:   map[string]int{},
		Sessions:   []SessionStats{},
		Secrets:    SecretStats{ByType: map[string]int{}},
		Insights:   []string{},
	}
}

type sessionAcc struct {
	id          string
	entries     int
	first, last time.Time
	firstRaw    string
	lastRaw     string
}

type accumulator struct {
	parsed    int
	types     map[string]int
	commands  map[string]int
	sessions  map[string]*sessionAcc
	order     []string
	lengths   []int
	questions int
	withCmd   int
	secrets   SecretStats
	truncated int
	first     time.Time
	last      time.Time
	firstRaw  string
	lastRaw   string
}

func newAccumulator() *accumulator {
	return &accumulator{
		types:    map[string]int{},
		commands: map[string]int{},
		sessions: map[string]*sessionAcc{},
		secrets:  SecretStats{ByType: map[string]int{}},
	}
}

func (a *accumulator) add(e *promptlog.Entry) {
	a.parsed++
	a.types[string(e.EntryType)]++

	if e.EntryType == promptlog.EntryUserInput {
		a.lengths = append(a.lengths, utf8.RuneCountInString(e.Content))
		if IsQuestion(e.Content) {
			a.questions++
		}
		if cmd := e.CommandName(); cmd != "" {
			a.commands[cmd]++
			a.withCmd++
		}
	}

	if n := e.FilterInfo.SecretCount; n > 0 {
		a.secrets.Total += n
		a.secrets.EntriesWithSecrets++
		for _, typ := range e.FilterInfo.Types {
			a.secrets.ByType[typ]++
		}
	}
	if e.FilterInfo.Truncated {
		a.truncated++
	}

	s, ok := a.sessions[e.SessionID]
	if !ok {
		s = &sessionAcc{id: e.SessionID}
		a.sessions[e.SessionID] = s
		a.order = append(a.order, e.SessionID)
	}
	s.entries++

	// Entries with unreadable timestamps still count, but leave the time
	// range alone.
	ts, err := e.Time()
	if err != nil {
		return
	}
	if a.firstRaw == "" || ts.Before(a.first) {
		a.first, a.firstRaw = ts, e.Timestamp
	}
	if a.lastRaw == "" || ts.After(a.last) {
		a.last, a.lastRaw = ts, e.Timestamp
	}
	if s.firstRaw == "" || ts.Before(s.first) {
		s.first, s.firstRaw = ts, e.Timestamp
	}
	if s.lastRaw == "" || ts.After(s.last) {
		s.last, s.lastRaw = ts, e.Timestamp
	}
}

func (a *accumulator) fill(r *Report) {
	r.EntriesParsed = a.parsed
	r.EntryTypes = a.types
	r.Commands = a.commands
	r.Secrets = a.secrets
	r.Truncated = a.truncated
	r.FirstTimestamp = a.firstRaw
	r.LastTimestamp = a.lastRaw
	r.Questions = a.questions
	r.Prompt = lengthStats(a.lengths)
	if n := len(a.lengths); n > 0 {
		r.QuestionRatio = float64(a.questions) / float64(n)
		r.CommandRatio = float64(a.withCmd) / float64(n)
	}

	sessions := make([]SessionStats, 0, len(a.order))
	for _, id := range a.order {
		s := a.sessions[id]
		sessions = append(sessions, SessionStats{
			SessionID:       s.id,
			Entries:         s.entries,
			First:           s.firstRaw,
			Last:            s.lastRaw,
			DurationSeconds: s.last.Sub(s.first).Seconds(),
		})
	}
	slices.SortStableFunc(sessions, func(x, y SessionStats) int {
		return cmp.Compare(x.First, y.First)
	})
	r.Sessions = sessions
}

func lengthStats(lengths []int) LengthStats {
	if len(lengths) == 0 {
		return LengthStats{}
	}
	sorted := slices.Clone(lengths)
	slices.Sort(sorted)

	total := 0
	for _, n := range sorted {
		total += n
	}
	mid := len(sorted) / 2
	median := float64(sorted[mid])
	if len(sorted)%2 == 0 {
		median = float64(sorted[mid-1]+sorted[mid]) / 2
	}
	return LengthStats{
		Count:  len(sorted),
		Min:    sorted[0],
		Max:    sorted[len(sorted)-1],
		Mean:   float64(total) / float64(len(sorted)),
		Median: median,
	}
}

var questionWords = []string{
	"what", "why", "how", "when", "where", "who", "which",
	"can", "could", "should", "would", "is", "are", "does", "do",
}

// IsQuestion reports whether a prompt reads as a question: it ends with '?'
// or opens with an interrogative word.
func IsQuestion(content string) bool {
	content = strings.TrimSpace(content)
	if content == "" {
		return false
	}
	if strings.HasSuffix(content, "?") {
		return true
	}
	first, _, _ := strings.Cut(strings.ToLower(content), " ")
	first = strings.TrimRight(first, ",:;")
	return slices.Contains(questionWords, first)
}

func topCounts(m map[string]int, n int) []CommandCount {
	out := make([]CommandCount, 0, len(m))
	for k, v := range m {
		out = append(out, CommandCount{Command: k, Count: v})
	}
	slices.SortFunc(out, func(a, b CommandCount) int {
		if c := cmp.Compare(b.Count, a.Count); c != 0 {
			return c
		}
		return cmp.Compare(a.Command, b.Command)
	})
	if n > 0 && len(out) > n {
		out = out[:n]
	}
	return out
}
