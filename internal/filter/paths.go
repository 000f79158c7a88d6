package filter

import (
	"os"
	"regexp"
	"strings"
)

// credentialPathRe matches paths into well-known credential stores.
var credentialPathRe = regexp.MustCompile(
	`[^\s'"]*[/\\]\.(?:ssh|gnupg|aws|kube|docker|azure|gcloud)(?:[/\\][^\s'"]*)?` +
		`|[^\s'"]*[/\\]\.(?:netrc|pgpass|npmrc|pypirc|git-credentials)\b`)

// homePathRe matches user home directories on macOS, Linux and Windows.
var homePathRe = regexp.MustCompile(`(?:/Users|/home)/[^/\s'"]+|(?i:[A-Z]:\\Users\\[^\\\s'"]+)`)

// CredentialPathToken replaces credential store paths.
const CredentialPathToken = "[PATH:credentials]"

// PathSanitizer strips user-identifying and credential paths from text.
type PathSanitizer struct {
	// Home is replaced by "~" verbatim before the generic home rules run.
	Home string
}

// SanitizePaths sanitizes text using the current user's home directory.
func SanitizePaths(text string) string {
	home, _ := os.UserHomeDir()
	return PathSanitizer{Home: home}.Sanitize(text)
}

// Sanitize replaces credential paths, then home directory prefixes.
func (s PathSanitizer) Sanitize(text string) string {
	if text == "" {
		return text
	}
	text = credentialPathRe.ReplaceAllString(text, CredentialPathToken)
	if s.Home != "" && s.Home != "/" {
		text = strings.ReplaceAll(text, s.Home, "~")
	}
	return homePathRe.ReplaceAllString(text, "~")
}
