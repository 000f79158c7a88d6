package filter

import (
	"fmt"
	"sort"
	"strings"
	"unicode/utf8"
)

// DefaultMaxBytes caps filtered text at 50 KB.
const DefaultMaxBytes = 50_000

// MinMaxBytes is the smallest cap that still fits the truncation notice.
// Smaller positive caps are raised to it.
const MinMaxBytes = 64

// maxTruncatePasses bounds the cut-and-rescan loop in truncate.
const maxTruncatePasses = 8

// placeholderPrefix starts every redaction placeholder.
const placeholderPrefix = "[SECRET:"

// Result is the outcome of filtering one piece of text.
type Result struct {
	Text        string         `json:"filtered_text"`
	SecretCount int            `json:"secret_count"`
	Truncated   bool           `json:"truncated"`
	Stats       map[string]int `json:"stats"`
}

// Info is the persisted summary of a Result.
type Info struct {
	SecretCount int      `json:"secret_count"`
	Truncated   bool     `json:"truncated"`
	Types       []string `json:"types,omitempty"`
}

// Summary reduces the result to the form stored alongside log entries.
// Types are sorted for stable output.
func (r Result) Summary() Info {
	info := Info{SecretCount: r.SecretCount, Truncated: r.Truncated}
	for name := range r.Stats {
		info.Types = append(info.Types, name)
	}
	sort.Strings(info.Types)
	return info
}

// Options configures a Filter.
type Options struct {
	// MaxBytes caps the filtered text. Zero means DefaultMaxBytes; negative
	// disables the cap; positive values below MinMaxBytes become MinMaxBytes.
	MaxBytes int
	// Extra rules run after the built-in table.
	Extra []Pattern
}

// Filter applies an ordered rule table and a length cap. A Filter is
// immutable after construction and safe for concurrent use.
type Filter struct {
	patterns []Pattern
	maxBytes int
}

// New creates a Filter with the built-in rules plus opts.Extra.
func New(opts Options) *Filter {
	maxBytes := opts.MaxBytes
	switch {
	case maxBytes == 0:
		maxBytes = DefaultMaxBytes
	case maxBytes > 0 && maxBytes < MinMaxBytes:
		maxBytes = MinMaxBytes
	}
	patterns := DefaultPatterns()
	patterns = append(patterns, opts.Extra...)
	return &Filter{patterns: patterns, maxBytes: maxBytes}
}

var defaultFilter = New(Options{})

// Text filters text with the built-in rules and default cap.
func Text(text string) Result {
	return defaultFilter.Apply(text)
}

// Patterns returns the rules this filter applies, in order.
func (f *Filter) Patterns() []Pattern {
	out := make([]Pattern, len(f.patterns))
	copy(out, f.patterns)
	return out
}

// segment is a run of text that is either still scannable or already a
// placeholder.
type segment struct {
	text     string
	redacted bool
}

// Apply redacts secrets in text and enforces the length cap. The result is
// a fixed point: applying the same Filter to res.Text returns it unchanged.
func (f *Filter) Apply(text string) Result {
	res := Result{Stats: map[string]int{}}
	if text == "" {
		return res
	}

	res.Text = f.redact(text, res.Stats)
	if f.maxBytes > 0 && len(res.Text) > f.maxBytes {
		res.Text = f.truncate(res.Text, res.Stats)
		res.Truncated = true
	}
	for _, n := range res.Stats {
		res.SecretCount += n
	}
	return res
}

func (f *Filter) redact(text string, stats map[string]int) string {
	segments := splitPlaceholders(text)
	for _, p := range f.patterns {
		segments = applyPattern(segments, p, stats)
	}

	var builder strings.Builder
	builder.Grow(len(text))
	for _, seg := range segments {
		builder.WriteString(seg.text)
	}
	return builder.String()
}

// applyPattern runs one rule over every scannable segment.
func applyPattern(segments []segment, p Pattern, stats map[string]int) []segment {
	out := make([]segment, 0, len(segments))
	for _, seg := range segments {
		if seg.redacted {
			out = append(out, seg)
			continue
		}
		matches := p.Re.FindAllStringSubmatchIndex(seg.text, -1)
		if len(matches) == 0 {
			out = append(out, seg)
			continue
		}

		pos := 0
		for _, m := range matches {
			start, end := m[0], m[1]
			if p.ValueGroup > 0 && 2*p.ValueGroup+1 < len(m) && m[2*p.ValueGroup] >= 0 {
				start, end = m[2*p.ValueGroup], m[2*p.ValueGroup+1]
			}
			if start == end {
				continue
			}
			if start > pos {
				out = append(out, segment{text: seg.text[pos:start]})
			}
			out = append(out, segment{text: placeholder(p.Name), redacted: true})
			stats[p.Name]++
			pos = end
		}
		if pos < len(seg.text) {
			out = append(out, segment{text: seg.text[pos:]})
		}
	}
	return out
}

// splitPlaceholders marks existing placeholders as redacted so re-filtering
// leaves them alone.
func splitPlaceholders(text string) []segment {
	var segments []segment
	for {
		i := strings.Index(text, placeholderPrefix)
		if i < 0 {
			break
		}
		j := strings.IndexByte(text[i:], ']')
		if j < 0 {
			break
		}
		if i > 0 {
			segments = append(segments, segment{text: text[:i]})
		}
		segments = append(segments, segment{text: text[i : i+j+1], redacted: true})
		text = text[i+j+1:]
	}
	if text != "" {
		segments = append(segments, segment{text: text})
	}
	return segments
}

func placeholder(name string) string {
	return placeholderPrefix + name + "]"
}

// truncate cuts redacted text so that it plus the notice fits in maxBytes.
// A cut can leave a token that now matches a rule at the new edge, so the
// kept prefix is rescanned and cut again until nothing changes.
func (f *Filter) truncate(text string, stats map[string]int) string {
	notice := fmt.Sprintf("\n[TRUNCATED: original %d bytes]", len(text))
	keep := max(f.maxBytes-len(notice), 0)
	for range maxTruncatePasses {
		body := cutBefore(text, keep)
		out := f.redact(body+notice, stats)
		if out == body+notice {
			return out
		}
		text = strings.TrimSuffix(out, notice)
	}
	return notice
}

// cutBefore returns the longest prefix of text within limit bytes that ends
// on a rune boundary and outside any placeholder.
func cutBefore(text string, limit int) string {
	if limit >= len(text) {
		return text
	}
	for limit > 0 && !utf8.RuneStart(text[limit]) {
		limit--
	}
	head := text[:limit]
	if i := strings.LastIndex(head, placeholderPrefix); i >= 0 && !strings.Contains(head[i:], "]") {
		head = head[:i]
	}
	return head
}
