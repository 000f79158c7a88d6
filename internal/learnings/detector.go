package learnings

import (
	"cmp"
	"encoding/json"
	"math"
	"slices"
	"strconv"
	"strings"
)

const (
	// DefaultThreshold is the minimum score for capture.
	DefaultThreshold = 0.6
	// MaxNoiseReduction bounds how much noise can lower a score.
	MaxNoiseReduction = 0.3
	// scoreEpsilon absorbs float error so 0.3+0.3 meets a 0.6 threshold.
	scoreEpsilon = 1e-12
)

// textFields are the response keys scanned for signals, in concatenation order.
var textFields = []string{"stdout", "stderr", "output", "error", "content", "result"}

// exitCodeFields are the response keys read as the exit code.
var exitCodeFields = []string{"exit_code", "exitCode", "returncode", "return_code"}

// MatchedSignal is a signal that fired.
type MatchedSignal struct {
	Name        string   `json:"name"`
	Weight      float64  `json:"weight"`
	Category    Category `json:"category"`
	Severity    Severity `json:"severity"`
	Description string   `json:"description"`

	order int
}

// DetectionResult is the outcome of scoring one tool response.
type DetectionResult struct {
	ShouldCapture   bool            `json:"should_capture"`
	Score           float64         `json:"score"`
	RawScore        float64         `json:"raw_score"`
	NoiseReduction  float64         `json:"noise_reduction"`
	Signals         []MatchedSignal `json:"signals"`
	Noise           []string        `json:"noise,omitempty"`
	PrimaryCategory Category        `json:"primary_category,omitempty"`
	PrimarySeverity Severity        `json:"primary_severity,omitempty"`
	ExitCode        *int            `json:"exit_code,omitempty"`
	// Text is the concatenated output the signals ran against.
	Text string `json:"-"`

	primary int
}

// Primary returns the signal that sets the primary category and severity.
func (d DetectionResult) Primary() (MatchedSignal, bool) {
	if len(d.Signals) == 0 || d.primary < 0 || d.primary >= len(d.Signals) {
		return MatchedSignal{}, false
	}
	return d.Signals[d.primary], true
}

// SignalNames lists the matched signal names in evaluation order.
func (d DetectionResult) SignalNames() []string {
	names := make([]string, len(d.Signals))
	for i, s := range d.Signals {
		names[i] = s.Name
	}
	return names
}

// Detector scores tool responses. It holds no mutable state.
type Detector struct {
	Threshold float64
	Signals   []SignalPattern
	Noise     []NoisePattern
}

// NewDetector creates a Detector with the default tables. A threshold
// outside (0, 1] uses DefaultThreshold.
func NewDetector(threshold float64) *Detector {
	if threshold <= 0 || threshold > 1 {
		threshold = DefaultThreshold
	}
	return &Detector{Threshold: threshold, Signals: DefaultSignals(), Noise: NoisePatterns}
}

// Detect scores response. Missing or non-string fields count as empty. Every
// tool is scored against the same tables.
func (d *Detector) Detect(_ string, response map[string]any) DetectionResult {
	result := DetectionResult{
		ExitCode: exitCodeOf(response),
		Text:     collectText(response),
		Signals:  []MatchedSignal{},
		primary:  -1,
	}

	order := 0
	add := func(p SignalPattern) {
		result.Signals = append(result.Signals, MatchedSignal{
			Name: p.Name, Weight: p.Weight, Category: p.Category,
			Severity: p.Severity, Description: p.Description, order: order,
		})
		order++
	}

	failed := result.ExitCode != nil && *result.ExitCode != 0
	if failed && strings.TrimSpace(result.Text) == "" {
		add(silentFailure)
	}
	if failed {
		add(nonzeroExit)
	}
	if result.Text != "" {
		for _, p := range d.Signals {
			if p.Re != nil && p.Re.MatchString(result.Text) {
				add(p)
			}
		}
	}

	sum := 0.0
	for _, s := range result.Signals {
		sum += s.Weight
	}
	result.RawScore = math.Min(1, sum)

	if !failed && result.Text != "" {
		noise := 0.0
		for _, n := range d.Noise {
			if n.Re.MatchString(result.Text) {
				noise += n.Reduction
				result.Noise = append(result.Noise, n.Name)
			}
		}
		result.NoiseReduction = math.Min(MaxNoiseReduction, noise)
	}

	result.Score = math.Max(0, result.RawScore-result.NoiseReduction)
	result.ShouldCapture = len(result.Signals) > 0 && result.Score+scoreEpsilon >= d.threshold()

	if len(result.Signals) > 0 {
		result.primary = primaryIndex(result.Signals)
		p := result.Signals[result.primary]
		result.PrimaryCategory = p.Category
		result.PrimarySeverity = p.Severity
	}
	return result
}

func (d *Detector) threshold() float64 {
	if d.Threshold <= 0 {
		return DefaultThreshold
	}
	return d.Threshold
}

// primaryIndex picks the highest weight, then category priority, then
// evaluation order.
func primaryIndex(signals []MatchedSignal) int {
	best := slices.MinFunc(signals, func(a, b MatchedSignal) int {
		if c := cmp.Compare(b.Weight, a.Weight); c != 0 {
			return c
		}
		if c := cmp.Compare(a.Category.priority(), b.Category.priority()); c != 0 {
			return c
		}
		return cmp.Compare(a.order, b.order)
	})
	return best.order
}

func collectText(response map[string]any) string {
	var parts []string
	for _, key := range textFields {
		if s := stringField(response, key); strings.TrimSpace(s) != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, "\n")
}

func stringField(response map[string]any, key string) string {
	if response == nil {
		return ""
	}
	s, _ := response[key].(string)
	return s
}

// exitCodeOf reads the exit code from any JSON number form or a numeric string.
func exitCodeOf(response map[string]any) *int {
	for _, key := range exitCodeFields {
		v, ok := response[key]
		if !ok || v == nil {
			continue
		}
		if code, ok := toInt(v); ok {
			return &code
		}
	}
	return nil
}

func toInt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int32:
		return int(n), true
	case int64:
		return int(n), true
	case uint8:
		return int(n), true
	case float32:
		return int(n), !math.IsNaN(float64(n))
	case float64:
		if math.IsNaN(n) || math.IsInf(n, 0) {
			return 0, false
		}
		return int(n), true
	case json.Number:
		if i, err := n.Int64(); err == nil {
			return int(i), true
		}
		if f, err := n.Float64(); err == nil {
			return int(f), true
		}
	case string:
		if i, err := strconv.Atoi(strings.TrimSpace(n)); err == nil {
			return i, true
		}
	}
	return 0, false
}
