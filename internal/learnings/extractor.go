package learnings

import (
	"crypto/rand"
	"fmt"
	"log/slog"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/gorewood/promptlog/internal/filter"
)

// Reason explains why Run produced no learning.
type Reason string

// Reasons.
const (
	ReasonCaptured  Reason = "captured"
	ReasonBelow     Reason = "below_threshold"
	ReasonDuplicate Reason = "duplicate"
	ReasonFailed    Reason = "failed"
)

// Result is the detailed outcome of one extraction.
type Result struct {
	Learning  *ToolLearning       `json:"learning,omitempty"`
	Detection DetectionResult     `json:"detection"`
	Dedup     DeduplicationResult `json:"dedup"`
	Reason    Reason              `json:"reason"`
	Err       error               `json:"-"`
}

// Extractor turns one tool response into at most one learning. Nil fields
// fall back to defaults; Dedup is required for duplicate suppression and a
// nil Dedup disables it.
type Extractor struct {
	Detector     *Detector
	Filter       *filter.Filter
	Paths        filter.PathSanitizer
	Dedup        *Deduplicator
	ExcerptBytes int
	SessionID    string
	Logger       *slog.Logger
	Now          func() time.Time
}

// Extract returns the learning for a tool response, or nil when there is
// nothing worth keeping or anything goes wrong.
func (x *Extractor) Extract(tool string, response map[string]any, context, spec string) *ToolLearning {
	return x.Run(tool, response, context, spec).Learning
}

// Run is Extract with the reason attached. It never panics.
func (x *Extractor) Run(tool string, response map[string]any, context, spec string) (res Result) {
	defer func() {
		if r := recover(); r != nil {
			res = Result{Reason: ReasonFailed, Err: fmt.Errorf("learning extraction panic: %v", r)}
		}
		if res.Err != nil {
			x.logger().Warn("learning not extracted", "tool", tool, "error", res.Err)
		}
	}()

	detection := x.detector().Detect(tool, response)
	res.Detection = detection
	if !detection.ShouldCapture {
		res.Reason = ReasonBelow
		return res
	}

	redacted := x.redact(detection.Text)
	if x.Dedup != nil {
		res.Dedup = x.Dedup.CheckLearning(tool, detection.ExitCode, redacted)
		if res.Dedup.IsDuplicate {
			res.Reason = ReasonDuplicate
			return res
		}
	}

	id, err := newID(x.now())
	if err != nil {
		res.Reason = ReasonFailed
		res.Err = err
		return res
	}

	signals := detection.SignalNames()
	res.Learning = &ToolLearning{
		ID:            id,
		Category:      detection.PrimaryCategory,
		Severity:      detection.PrimarySeverity,
		Summary:       Summarize(tool, detection, redacted),
		OutputExcerpt: TruncateOutput(redacted, x.excerptBytes()),
		Context:       TruncateOutput(x.redact(context), x.excerptBytes()),
		Tags:          buildTags(tool, detection.PrimaryCategory, detection.PrimarySeverity, signals),
		Spec:          spec,
		Tool:          tool,
		SessionID:     x.SessionID,
		ExitCode:      detection.ExitCode,
		Score:         detection.Score,
		Signals:       signals,
		CreatedAt:     x.now().UTC(),
	}
	res.Reason = ReasonCaptured
	return res
}

func (x *Extractor) redact(text string) string {
	if text == "" {
		return ""
	}
	f := x.Filter
	if f == nil {
		f = filter.New(filter.Options{MaxBytes: -1})
	}
	return x.Paths.Sanitize(f.Apply(text).Text)
}

func (x *Extractor) detector() *Detector {
	if x.Detector == nil {
		x.Detector = NewDetector(DefaultThreshold)
	}
	return x.Detector
}

func (x *Extractor) excerptBytes() int {
	if x.ExcerptBytes <= 0 {
		return DefaultExcerptBytes
	}
	return x.ExcerptBytes
}

func (x *Extractor) now() time.Time {
	if x.Now == nil {
		return time.Now()
	}
	return x.Now()
}

func (x *Extractor) logger() *slog.Logger {
	if x.Logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return x.Logger
}

func newID(t time.Time) (string, error) {
	id, err := ulid.New(ulid.Timestamp(t), ulid.Monotonic(rand.Reader, 0))
	if err != nil {
		return "", fmt.Errorf("generating learning id: %w", err)
	}
	return id.String(), nil
}
