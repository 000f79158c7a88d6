package learnings

import "regexp"

// SignalPattern is one weighted detection rule.
type SignalPattern struct {
	Name        string
	Re          *regexp.Regexp
	Weight      float64
	Category    Category
	Severity    Severity
	Description string
}

// NoisePattern lowers the score of routine output.
type NoisePattern struct {
	Name      string
	Re        *regexp.Regexp
	Reduction float64
}

func signal(name, expr string, weight float64, c Category, s Severity, desc string) SignalPattern {
	return SignalPattern{Name: name, Re: regexp.MustCompile(expr), Weight: weight, Category: c, Severity: s, Description: desc}
}

// Synthetic signals derived from the exit code rather than the text.
var (
	silentFailure = SignalPattern{
		Name: "silent_failure", Weight: 1.0, Category: CategoryError, Severity: Sev0,
		Description: "Command failed silently with no output",
	}
	nonzeroExit = SignalPattern{
		Name: "nonzero_exit", Weight: 0.3, Category: CategoryError, Severity: Sev2,
		Description: "Command exited with a non-zero status",
	}
)

// ErrorSignals match failures.
var ErrorSignals = []SignalPattern{
	signal("segfault", `(?i)segmentation fault|core dumped|\bSIGSEGV\b`, 0.7, CategoryError, Sev0, "Process crashed"),
	signal("panic", `(?i)\bpanic:|\bfatal(?: error)?:`, 0.6, CategoryError, Sev1, "Fatal error or panic"),
	signal("exception", `(?i)\b\w*exception\b|traceback \(most recent call last\)`, 0.5, CategoryError, Sev1, "Exception raised"),
	signal("test_failure", `(?im)^(?:--- FAIL|FAIL\b|FAILED\b)|\b\d+ (?:failed|failing)\b`, 0.5, CategoryError, Sev1, "Tests failed"),
	signal("compile_error", `(?i)syntax error|compilation (?:failed|error)|build failed|\bundefined: \w+|cannot use .+ as .+ value`, 0.5, CategoryError, Sev1, "Build or compile error"),
	signal("permission_denied", `(?i)permission denied|access denied|\bEACCES\b|operation not permitted`, 0.5, CategoryError, Sev1, "Permission denied"),
	signal("not_found", `(?i)command not found|no such file or directory|\bENOENT\b|module not found|cannot find (?:module|package)`, 0.4, CategoryError, Sev2, "Missing file, command or module"),
	signal("timeout", `(?i)\btimed out\b|\bdeadline exceeded\b|\btimeout\b`, 0.4, CategoryError, Sev2, "Operation timed out"),
	signal("error_keyword", `(?i)\berror\b[:\]]|\b(?:ERR!|E\d{4}:)`, 0.4, CategoryError, Sev2, "Error reported"),
	signal("failed", `(?i)\bfail(?:ed|ure|s)?\b`, 0.3, CategoryError, Sev2, "Operation failed"),
}

// WarningSignals match degraded but non-fatal output.
var WarningSignals = []SignalPattern{
	signal("merge_conflict", `(?im)\bmerge conflict\b|^CONFLICT \(`, 0.4, CategoryWarning, Sev2, "Merge conflict"),
	signal("warning_keyword", `(?i)\bwarn(?:ing)?\b[:\]]`, 0.3, CategoryWarning, Sev3, "Warning emitted"),
	signal("deprecated", `(?i)\bdeprecat(?:ed|ion)\b`, 0.3, CategoryWarning, Sev3, "Deprecated usage"),
	signal("vulnerability", `(?i)\b\d+ (?:high|critical|moderate) severity vulnerabilit`, 0.4, CategoryWarning, Sev2, "Vulnerabilities reported"),
	signal("retry", `(?i)\bretry(?:ing)?\b|\battempt \d+ of \d+`, 0.2, CategoryWarning, Sev3, "Operation retried"),
}

// DiscoverySignals match output that teaches something about the environment.
var DiscoverySignals = []SignalPattern{
	signal("hint", `(?i)\bdid you mean\b|\bhint:|\bnote:|\btry running\b`, 0.3, CategoryDiscovery, Sev3, "Tool suggested a fix"),
	signal("version_requirement", `(?i)\brequires? (?:go|node|python|version)\b|\bminimum (?:supported )?version\b`, 0.3, CategoryDiscovery, Sev3, "Version requirement"),
	signal("unexpected", `(?i)\bunexpected(?:ly)?\b|\bundocumented\b`, 0.2, CategoryDiscovery, Sev3, "Unexpected behavior"),
}

// WorkaroundSignals match output that hints at a workaround being applied.
var WorkaroundSignals = []SignalPattern{
	signal("workaround", `(?i)\bwork ?around\b|\bfalling back\b|\bas a fallback\b`, 0.4, CategoryWorkaround, Sev2, "Workaround applied"),
	signal("force_flag", `--force\b|--no-verify\b|--legacy-peer-deps\b|--skip-[a-z-]+`, 0.3, CategoryWorkaround, Sev2, "Safety check bypassed"),
	signal("use_instead", `(?i)\buse \S+ instead\b|\binstead,? use\b`, 0.3, CategoryWorkaround, Sev3, "Alternative suggested"),
}

// NoisePatterns match routine success output.
var NoisePatterns = []NoisePattern{
	{Name: "zero_errors", Re: regexp.MustCompile(`(?i)\b0 (?:errors?|failures?|failed|warnings?)\b|\bno (?:errors|issues|problems) found\b`), Reduction: 0.2},
	{Name: "success", Re: regexp.MustCompile(`(?m)(?i:\bsuccess(?:ful(?:ly)?)?\b|\ball tests passed\b)|^ok\b|\bPASS\b`), Reduction: 0.1},
	{Name: "log_info", Re: regexp.MustCompile(`(?m)^\s*\[?(?:INFO|DEBUG|TRACE)\]?\b`), Reduction: 0.1},
}

// DefaultSignals returns the text signal tables in evaluation order.
func DefaultSignals() []SignalPattern {
	all := make([]SignalPattern, 0, len(ErrorSignals)+len(WarningSignals)+len(DiscoverySignals)+len(WorkaroundSignals))
	all = append(all, ErrorSignals...)
	all = append(all, WarningSignals...)
	all = append(all, DiscoverySignals...)
	all = append(all, WorkaroundSignals...)
	return all
}
