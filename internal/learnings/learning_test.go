package learnings

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSummarize(t *testing.T) {
	d := NewDetector(DefaultThreshold)

	panicked := d.Detect("Bash", map[string]any{"stderr": "panic: nil map", "exit_code": 2})
	assert.Equal(t, "Bash: Fatal error or panic", Summarize("Bash", panicked, panicked.Text))

	none := DetectionResult{}
	assert.Equal(t, "Read: first real line", Summarize("Read", none, "\n  \nfirst real line\nsecond"))
	assert.Equal(t, "tool: notable output", Summarize("", none, ""))

	long := Summarize("Bash", none, strings.Repeat("word ", 50))
	assert.LessOrEqual(t, len([]rune(long)), MaxSummaryLen)
	assert.True(t, strings.HasSuffix(long, "..."))
}

func TestParseCategory(t *testing.T) {
	c, err := ParseCategory(" Workaround ")
	require.NoError(t, err)
	assert.Equal(t, CategoryWorkaround, c)

	_, err = ParseCategory("bogus")
	assert.Error(t, err)
}

func TestBuildTags(t *testing.T) {
	tags := buildTags("Bash", CategoryError, Sev1, []string{"panic", "panic", "nonzero_exit"})
	assert.Equal(t, []string{"tool:bash", "category:error", "severity:sev-1", "panic", "nonzero_exit"}, tags)
}

func TestMemoryArgs(t *testing.T) {
	code := 1
	l := &ToolLearning{
		Category:      CategoryError,
		Severity:      Sev0,
		Summary:       "Bash: Command failed silently with no output",
		OutputExcerpt: "",
		Context:       "make build",
		Tags:          []string{"tool:bash"},
		Tool:          "Bash",
		ExitCode:      &code,
		Signals:       []string{"silent_failure", "nonzero_exit"},
	}

	args := l.MemoryArgs()
	assert.Equal(t, l.Summary, args.Summary)
	assert.Equal(t, "Bash invocations in this project that produce error output (sev-0)", args.Applicability)
	assert.Contains(t, args.Insight, "## Bash: Command failed silently")
	assert.Contains(t, args.Insight, "- **Exit code:** 1")
	assert.Contains(t, args.Insight, "### Context\n\nmake build")
	assert.NotContains(t, args.Insight, "### Output")

	l.Spec = "billing"
	assert.Contains(t, l.MemoryArgs().Applicability, "in billing that")

	args.Tags[0] = "mutated"
	assert.Equal(t, "tool:bash", l.Tags[0])
}
