package analyzer

import (
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
)

// Insight thresholds.
const (
	ShortPromptMean     = 50
	LongPromptMean      = 500
	ExploratoryRatio    = 0.5
	CommandDrivenRatio  = 0.3
	LongSessionDuration = 2 * time.Hour
)

// Insights derives human-readable observations from a report.
func Insights(r *Report) []string {
	insights := []string{}
	if !r.Found {
		return insights
	}

	if r.Prompt.Count > 0 {
		switch {
		case r.Prompt.Mean < ShortPromptMean:
			insights = append(insights, fmt.Sprintf(
				"Prompts are short (mean %.0f chars); adding context may improve results", r.Prompt.Mean))
		case r.Prompt.Mean > LongPromptMean:
			insights = append(insights, fmt.Sprintf(
				"Prompts are long (mean %.0f chars); consider splitting large requests", r.Prompt.Mean))
		}
		if r.QuestionRatio >= ExploratoryRatio {
			insights = append(insights, fmt.Sprintf(
				"Exploratory usage: %.0f%% of prompts are questions", r.QuestionRatio*100))
		}
		if r.CommandRatio >= CommandDrivenRatio {
			insights = append(insights, fmt.Sprintf(
				"Command-driven usage: %.0f%% of prompts start with a slash command", r.CommandRatio*100))
		}
	}

	if r.Secrets.Total > 0 {
		insights = append(insights, fmt.Sprintf(
			"%s secret(s) were redacted from %s prompt(s); avoid pasting credentials",
			humanize.Comma(int64(r.Secrets.Total)), humanize.Comma(int64(r.Secrets.EntriesWithSecrets))))
	}
	if r.Truncated > 0 {
		insights = append(insights, fmt.Sprintf("%d prompt(s) exceeded the size cap and were truncated", r.Truncated))
	}
	if r.SkippedLines > 0 {
		insights = append(insights, fmt.Sprintf(
			"%d of %d log lines could not be parsed (first at line %d); the log may be damaged",
			r.SkippedLines, r.TotalLines, r.FirstSkippedLine))
	}
	for _, s := range r.Sessions {
		if s.Duration() > LongSessionDuration {
			insights = append(insights, fmt.Sprintf(
				"Session %s ran %s; long sessions may benefit from a fresh context",
				shortID(s.SessionID), FormatDuration(s.Duration())))
		}
	}
	return insights
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	if id == "" {
		return "(none)"
	}
	return id
}

// FormatDuration renders d as "2h 5m", "4m 10s" or "12s".
func FormatDuration(d time.Duration) string {
	d = d.Round(time.Second)
	h := int(d / time.Hour)
	m := int(d % time.Hour / time.Minute)
	s := int(d % time.Minute / time.Second)
	switch {
	case h > 0:
		return fmt.Sprintf("%dh %dm", h, m)
	case m > 0:
		return fmt.Sprintf("%dm %ds", m, s)
	default:
		return fmt.Sprintf("%ds", s)
	}
}
