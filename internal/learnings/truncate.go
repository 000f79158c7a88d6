package learnings

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"
)

// DefaultExcerptBytes is the excerpt budget, notice included.
const DefaultExcerptBytes = 1024

var priorityLineRe = regexp.MustCompile(`(?i)error|warn|fail|exception|fatal|panic`)

// TruncateOutput shrinks text to at most budget bytes. Lines that mention
// errors, warnings or failures are kept first, then other lines fill what is
// left; both passes go in input order and kept lines stay in their original
// order. When anything is dropped, "[TRUNCATED: N chars]" is appended, N being
// the number of characters removed.
func TruncateOutput(text string, budget int) string {
	if budget <= 0 {
		budget = DefaultExcerptBytes
	}
	if len(text) <= budget {
		return text
	}

	total := utf8.RuneCountInString(text)
	// The notice is sized for the worst case so the result never exceeds budget.
	reserve := len(notice(total))
	room := budget - reserve
	if room <= 0 {
		return strings.TrimPrefix(notice(total), "\n")
	}

	lines := strings.Split(text, "\n")
	keep := make([]bool, len(lines))
	used, n := 0, 0
	fill := func(priority bool) {
		for i, line := range lines {
			if keep[i] || priorityLineRe.MatchString(line) != priority {
				continue
			}
			cost := len(line)
			if n > 0 {
				cost++ // newline separator, empty lines included
			}
			if used+cost <= room {
				keep[i] = true
				used += cost
				n++
			}
		}
	}
	fill(true)
	fill(false)

	var kept []string
	for i, line := range lines {
		if keep[i] {
			kept = append(kept, line)
		}
	}
	body := strings.Join(kept, "\n")
	if body == "" {
		body = cutRunes(firstLine(lines), room)
	}

	dropped := total - utf8.RuneCountInString(body)
	return body + notice(dropped)
}

func notice(n int) string {
	return fmt.Sprintf("\n[TRUNCATED: %d chars]", n)
}

// firstLine prefers the first priority line, else the first non-empty line.
func firstLine(lines []string) string {
	for _, l := range lines {
		if priorityLineRe.MatchString(l) {
			return l
		}
	}
	for _, l := range lines {
		if strings.TrimSpace(l) != "" {
			return l
		}
	}
	return ""
}

// cutRunes returns the longest prefix of s within limit bytes that ends on a
// rune boundary.
func cutRunes(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	for limit > 0 && !utf8.RuneStart(s[limit]) {
		limit--
	}
	return s[:limit]
}
