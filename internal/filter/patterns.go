package filter

import (
	"fmt"
	"regexp"
)

// Pattern is one redaction rule.
type Pattern struct {
	// Name is the secret type used in the placeholder and in Stats.
	Name string
	// Re is the compiled matcher.
	Re *regexp.Regexp
	// ValueGroup, when > 0, redacts only that submatch and keeps the rest of
	// the match (e.g. the "password=" key of an assignment).
	ValueGroup int
}

// assignment value: a quoted string or a run of non-separator characters.
// Separators around the operator never span a newline.
const assignValue = `("[^"\r\n]+"|'[^'\r\n]+'|[^\s"'<>,;&]+)`

// assignment builds a key=value / key: value rule for the given key fragment.
func assignment(name, keyFragment string) Pattern {
	expr := `(?i)([A-Za-z0-9_.-]*(?:` + keyFragment + `)[A-Za-z0-9_.-]*["']?[ \t]*[:=][ \t]*)` + assignValue
	return Pattern{Name: name, Re: regexp.MustCompile(expr), ValueGroup: 2}
}

// defaultPatterns is ordered from most to least specific. Provider tokens with
// a recognizable prefix come before the generic assignment rules so they are
// reported under their own type.
var defaultPatterns = []Pattern{
	{Name: "private_key", Re: regexp.MustCompile(`(?s)-----BEGIN [A-Z0-9 ]*PRIVATE KEY( BLOCK)?-----.*?-----END [A-Z0-9 ]*PRIVATE KEY( BLOCK)?-----`)},
	{Name: "database_url", Re: regexp.MustCompile(`(?i)\b(?:postgres(?:ql)?|mysql|mariadb|mongodb(?:\+srv)?|rediss?|amqps?|mssql|sqlserver)://[^\s:/@'"]+:[^\s@'"]+@[^\s'"]+`)},
	{Name: "basic_auth_url", Re: regexp.MustCompile(`(?i)\bhttps?://[^\s:/@'"]+:[^\s@/'"]+@[^\s'"]+`)},
	{Name: "anthropic_key", Re: regexp.MustCompile(`\bsk-ant-[A-Za-z0-9_-]{20,}`)},
	{Name: "openai_key", Re: regexp.MustCompile(`\bsk-(?:proj-|svcacct-|admin-)?[A-Za-z0-9_-]{20,}`)},
	{Name: "github_pat", Re: regexp.MustCompile(`\bgithub_pat_[A-Za-z0-9_]{22,}`)},
	{Name: "github_token", Re: regexp.MustCompile(`\bgh[pousr]_[A-Za-z0-9]{36,}`)},
	{Name: "aws_access_key", Re: regexp.MustCompile(`\b(?:AKIA|ASIA|AGPA|AIDA|AROA|ANPA|ANVA|AIPA)[A-Z0-9]{16}\b`)},
	{Name: "aws_secret_key", Re: regexp.MustCompile(`(?i)(aws_secret_access_key|aws_secret_key)(["']?[ \t]*[:=][ \t]*["']?)([A-Za-z0-9/+=]{40})`), ValueGroup: 3},
	{Name: "slack_token", Re: regexp.MustCompile(`\bxox[abposr]-[A-Za-z0-9-]{10,}`)},
	{Name: "stripe_key", Re: regexp.MustCompile(`\b(?:sk|rk|pk)_(?:live|test)_[A-Za-z0-9]{16,}`)},
	{Name: "google_api_key", Re: regexp.MustCompile(`\bAIza[0-9A-Za-z_-]{35}`)},
	{Name: "npm_token", Re: regexp.MustCompile(`\bnpm_[A-Za-z0-9]{36}\b`)},
	{Name: "jwt", Re: regexp.MustCompile(`\beyJ[A-Za-z0-9_-]{8,}\.eyJ[A-Za-z0-9_-]{8,}\.[A-Za-z0-9_-]{8,}`)},
	{Name: "bearer_token", Re: regexp.MustCompile(`(?i)(\bbearer[ \t]+)([A-Za-z0-9._~+/-]{16,}=*)`), ValueGroup: 2},
	assignment("password_assignment", `password|passwd|pwd`),
	assignment("secret_assignment", `secret|token|credential|private_key`),
	assignment("api_key_assignment", `api[_-]?key|access[_-]?key`),
}

// DefaultPatterns returns a copy of the built-in rule table in priority order.
func DefaultPatterns() []Pattern {
	out := make([]Pattern, len(defaultPatterns))
	copy(out, defaultPatterns)
	return out
}

// CompilePattern builds a whole-match rule from a user-supplied expression.
func CompilePattern(name, expr string) (Pattern, error) {
	if name == "" {
		return Pattern{}, fmt.Errorf("pattern name is required")
	}
	re, err := regexp.Compile(expr)
	if err != nil {
		return Pattern{}, fmt.Errorf("compiling pattern %q: %w", name, err)
	}
	return Pattern{Name: name, Re: re}, nil
}
