package learnings

import (
	"fmt"
	"slices"
	"strings"
	"time"
	"unicode/utf8"
)

// Category classifies a learning.
type Category string

// Categories in tie-break priority order.
const (
	CategoryError      Category = "error"
	CategoryWorkaround Category = "workaround"
	CategoryWarning    Category = "warning"
	CategoryDiscovery  Category = "discovery"
)

func (c Category) priority() int {
	switch c {
	case CategoryError:
		return 0
	case CategoryWorkaround:
		return 1
	case CategoryWarning:
		return 2
	case CategoryDiscovery:
		return 3
	default:
		return 4
	}
}

// ParseCategory validates a category name.
func ParseCategory(s string) (Category, error) {
	c := Category(strings.ToLower(strings.TrimSpace(s)))
	if c.priority() > 3 {
		return "", fmt.Errorf("unknown category %q", s)
	}
	return c, nil
}

// Severity ranks urgency; sev-0 is the most severe.
type Severity string

// Severities.
const (
	Sev0 Severity = "sev-0"
	Sev1 Severity = "sev-1"
	Sev2 Severity = "sev-2"
	Sev3 Severity = "sev-3"
)

// ToolLearning is one extracted learning.
type ToolLearning struct {
	ID            string    `json:"id"`
	Category      Category  `json:"category"`
	Severity      Severity  `json:"severity"`
	Summary       string    `json:"summary"`
	OutputExcerpt string    `json:"output_excerpt"`
	Context       string    `json:"context,omitempty"`
	Tags          []string  `json:"tags"`
	Spec          string    `json:"spec,omitempty"`
	Tool          string    `json:"tool"`
	SessionID     string    `json:"session_id,omitempty"`
	ExitCode      *int      `json:"exit_code,omitempty"`
	Score         float64   `json:"score"`
	Signals       []string  `json:"signals"`
	CreatedAt     time.Time `json:"created_at"`
}

// MemoryArgs is the field mapping handed to a memory store.
type MemoryArgs struct {
	Spec          string   `json:"spec"`
	Summary       string   `json:"summary"`
	Insight       string   `json:"insight"`
	Applicability string   `json:"applicability"`
	Tags          []string `json:"tags"`
}

// MemoryArgs maps the learning onto the memory store fields. Insight is
// markdown.
func (l *ToolLearning) MemoryArgs() MemoryArgs {
	return MemoryArgs{
		Spec:          l.Spec,
		Summary:       l.Summary,
		Insight:       l.insight(),
		Applicability: l.applicability(),
		Tags:          slices.Clone(l.Tags),
	}
}

func (l *ToolLearning) insight() string {
	var b strings.Builder
	fmt.Fprintf(&b, "## %s\n\n", l.Summary)
	fmt.Fprintf(&b, "- **Tool:** %s\n- **Category:** %s\n- **Severity:** %s\n", l.Tool, l.Category, l.Severity)
	if l.ExitCode != nil {
		fmt.Fprintf(&b, "- **Exit code:** %d\n", *l.ExitCode)
	}
	if len(l.Signals) > 0 {
		fmt.Fprintf(&b, "- **Signals:** %s\n", strings.Join(l.Signals, ", "))
	}
	if l.Context != "" {
		fmt.Fprintf(&b, "\n### Context\n\n%s\n", l.Context)
	}
	if l.OutputExcerpt != "" {
		fmt.Fprintf(&b, "\n### Output\n\n```text\n%s\n```\n", l.OutputExcerpt)
	}
	return b.String()
}

func (l *ToolLearning) applicability() string {
	scope := "this project"
	if l.Spec != "" {
		scope = l.Spec
	}
	return fmt.Sprintf("%s invocations in %s that produce %s output (%s)", l.Tool, scope, l.Category, l.Severity)
}

// buildTags returns tool, category, severity and signal tags without repeats.
func buildTags(tool string, c Category, s Severity, signals []string) []string {
	tags := []string{
		"tool:" + strings.ToLower(tool),
		"category:" + string(c),
		"severity:" + string(s),
	}
	for _, sig := range signals {
		if !slices.Contains(tags, sig) {
			tags = append(tags, sig)
		}
	}
	return tags
}

// MaxSummaryLen caps Summary in characters.
const MaxSummaryLen = 100

// Summarize builds "<Tool>: <text>" from the primary signal's description or,
// without signals, the first non-empty output line.
func Summarize(tool string, d DetectionResult, output string) string {
	if tool == "" {
		tool = "tool"
	}
	text := ""
	if primary, ok := d.Primary(); ok {
		text = primary.Description
	}
	if text == "" {
		for line := range strings.Lines(output) {
			if trimmed := strings.TrimSpace(line); trimmed != "" {
				text = trimmed
				break
			}
		}
	}
	if text == "" {
		text = "notable output"
	}
	return clip(tool+": "+text, MaxSummaryLen)
}

func clip(s string, limit int) string {
	s = strings.Join(strings.Fields(s), " ")
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	runes := []rune(s)
	return strings.TrimRight(string(runes[:limit-3]), " ") + "..."
}
