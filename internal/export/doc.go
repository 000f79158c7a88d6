// Package export renders analyzer reports.
//
// Supported formats:
//
//   - JSON: the full report, indented, for agents and scripts
//   - Markdown: Summary, Sessions, Commands, Filtering and Insights sections
//   - Metrics markdown: the Summary and prompt metrics only
//   - HTML: the markdown report rendered as a standalone page
//
// Example markdown output:
//
//	# Prompt Log Analysis
//
//	Log: /work/app/.promptlog/app.prompt-log.json (12 kB)
//
//	## Summary
//
//	| Metric | Value |
//	|--------|-------|
//	| Entries | 42 |
//	| Sessions | 3 |
//	...
package export

import "fmt"

// Format names an output format.
type Format string

// Output formats.
const (
	FormatMarkdown Format = "markdown"
	FormatJSON     Format = "json"
	FormatHTML     Format = "html"
)

// ParseFormat validates a --format value.
func ParseFormat(s string) (Format, error) {
	switch Format(s) {
	case FormatMarkdown, "md", "":
		return FormatMarkdown, nil
	case FormatJSON:
		return FormatJSON, nil
	case FormatHTML:
		return FormatHTML, nil
	default:
		return "", fmt.Errorf("unknown format %q (want markdown, json or html)", s)
	}
}
