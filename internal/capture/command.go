package capture

import (
	"regexp"
	"strings"
)

var commandRe = regexp.MustCompile(`^/[A-Za-z][\w:.-]*$`)

// DetectCommand returns the slash command that starts prompt, or nil.
// "/review src/main.go" yields "/review"; "/usr/bin/env" and plain text yield nil.
func DetectCommand(prompt string) *string {
	fields := strings.Fields(prompt)
	if len(fields) == 0 {
		return nil
	}
	if !commandRe.MatchString(fields[0]) {
		return nil
	}
	cmd := fields[0]
	return &cmd
}
