package export

import (
	"fmt"
	"slices"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/gorewood/promptlog/internal/analyzer"
)

// Markdown renders the full report.
func Markdown(r *analyzer.Report) string {
	var b strings.Builder
	writeHeader(&b, r)
	if !r.Found {
		return b.String()
	}
	writeSummary(&b, r)
	writeSessions(&b, r)
	writeCommands(&b, r)
	writeFiltering(&b, r)
	writeInsights(&b, r)
	return b.String()
}

// MetricsMarkdown renders only the header and summary metrics.
func MetricsMarkdown(r *analyzer.Report) string {
	var b strings.Builder
	writeHeader(&b, r)
	if r.Found {
		writeSummary(&b, r)
	}
	return b.String()
}

func writeHeader(b *strings.Builder, r *analyzer.Report) {
	b.WriteString("# Prompt Log Analysis\n\n")
	if !r.Found {
		fmt.Fprintf(b, "No prompt log found at `%s`.\n", r.LogPath)
		return
	}
	if r.LogPath != "" {
		fmt.Fprintf(b, "Log: `%s` (%s)\n\n", r.LogPath, humanize.Bytes(uint64(max(r.LogSize, 0))))
	}
}

func writeSummary(b *strings.Builder, r *analyzer.Report) {
	b.WriteString("## Summary\n\n")
	b.WriteString("| Metric | Value |\n|--------|-------|\n")
	row := func(k, v string) { fmt.Fprintf(b, "| %s | %s |\n", k, v) }

	row("Entries", humanize.Comma(int64(r.EntriesParsed)))
	if r.SkippedLines > 0 {
		row("Unreadable lines", fmt.Sprintf("%d of %d", r.SkippedLines, r.TotalLines))
	}
	row("Sessions", humanize.Comma(int64(len(r.Sessions))))
	if r.FirstTimestamp != "" {
		row("Period", r.FirstTimestamp+" to "+r.LastTimestamp)
	}
	if r.Prompt.Count > 0 {
		row("Prompt length (min / median / max)", fmt.Sprintf("%d / %.0f / %d chars", r.Prompt.Min, r.Prompt.Median, r.Prompt.Max))
		row("Mean prompt length", fmt.Sprintf("%.1f chars", r.Prompt.Mean))
		row("Questions", fmt.Sprintf("%d (%.0f%%)", r.Questions, r.QuestionRatio*100))
		row("Slash commands", fmt.Sprintf("%.0f%% of prompts", r.CommandRatio*100))
	}
	for _, typ := range sortedKeys(r.EntryTypes) {
		row("Type "+typ, humanize.Comma(int64(r.EntryTypes[typ])))
	}
	b.WriteString("\n")
}

func writeSessions(b *strings.Builder, r *analyzer.Report) {
	if len(r.Sessions) == 0 {
		return
	}
	b.WriteString("## Sessions\n\n")
	b.WriteString("| Session | Entries | Started | Duration |\n|---------|---------|---------|----------|\n")
	for _, s := range r.Sessions {
		id := s.SessionID
		if id == "" {
			id = "(none)"
		}
		fmt.Fprintf(b, "| `%s` | %d | %s | %s |\n", id, s.Entries, s.First, analyzer.FormatDuration(s.Duration()))
	}
	b.WriteString("\n")
}

func writeCommands(b *strings.Builder, r *analyzer.Report) {
	b.WriteString("## Commands\n\n")
	top := r.TopCommands(10)
	if len(top) == 0 {
		b.WriteString("No slash commands used.\n\n")
		return
	}
	for _, c := range top {
		fmt.Fprintf(b, "- `%s`: %d\n", c.Command, c.Count)
	}
	b.WriteString("\n")
}

func writeFiltering(b *strings.Builder, r *analyzer.Report) {
	b.WriteString("## Filtering\n\n")
	fmt.Fprintf(b, "- Secrets redacted: %d in %d prompt(s)\n", r.Secrets.Total, r.Secrets.EntriesWithSecrets)
	for _, typ := range sortedKeys(r.Secrets.ByType) {
		fmt.Fprintf(b, "  - %s: %d\n", typ, r.Secrets.ByType[typ])
	}
	fmt.Fprintf(b, "- Truncated prompts: %d\n\n", r.Truncated)
}

func writeInsights(b *strings.Builder, r *analyzer.Report) {
	b.WriteString("## Insights\n\n")
	if len(r.Insights) == 0 {
		b.WriteString("Nothing notable.\n")
		return
	}
	for _, s := range r.Insights {
		fmt.Fprintf(b, "- %s\n", s)
	}
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
