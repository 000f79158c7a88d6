// Package capture implements the UserPromptSubmit hook: it filters the
// submitted prompt and appends it to the project's prompt log.
//
// The handler is fail-open. Whatever happens inside, the host receives an
// approve decision; failures only reach the diagnostic logger.
package capture

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/gorewood/promptlog/internal/config"
	"github.com/gorewood/promptlog/internal/filter"
	"github.com/gorewood/promptlog/internal/promptlog"
)

// EventUserPromptSubmit is the only hook event that is captured.
const EventUserPromptSubmit = "UserPromptSubmit"

// HookInput is the JSON document the host writes to stdin.
type HookInput struct {
	HookEventName string `json:"hook_event_name"`
	Prompt        string `json:"prompt"`
	SessionID     string `json:"session_id"`
	Cwd           string `json:"cwd"`
}

// Decision is the JSON document written back to the host.
type Decision struct {
	Decision string `json:"decision"`
}

// Approve is the only decision this hook ever returns.
var Approve = Decision{Decision: "approve"}

// State is where the pipeline stopped.
type State string

const (
	// StatePassThrough means the event or prompt was not one to capture.
	StatePassThrough State = "pass_through"
	// StateDisabled means no enable marker was found.
	StateDisabled State = "disabled"
	// StateCaptured means the entry was written.
	StateCaptured State = "captured"
	// StateFailed means an error stopped the pipeline; the prompt went unlogged.
	StateFailed State = "failed"
)

// Outcome reports what Handle did.
type Outcome struct {
	State    State
	Captured bool
	LogPath  string
	Err      error
}

// Handler runs the capture pipeline. Nil fields fall back to defaults.
type Handler struct {
	Config *config.Config
	Filter *filter.Filter
	Writer *promptlog.Writer
	Logger *slog.Logger
	Now    func() time.Time
	// Getwd supplies the project dir when the input has no cwd.
	Getwd func() (string, error)
}

// Handle reads one HookInput from in, runs the pipeline, and always writes
// the approve decision to out.
func (h *Handler) Handle(in io.Reader, out io.Writer) (outcome Outcome) {
	logger := h.logger()
	defer func() {
		if r := recover(); r != nil {
			outcome = Outcome{State: StateFailed, Err: fmt.Errorf("capture panic: %v", r)}
		}
		if outcome.Err != nil {
			logger.Warn("prompt not captured", "state", outcome.State, "error", outcome.Err)
		}
		if err := json.NewEncoder(out).Encode(Approve); err != nil {
			logger.Error("writing hook decision", "error", err)
		}
	}()

	var input HookInput
	if err := json.NewDecoder(in).Decode(&input); err != nil {
		return Outcome{State: StateFailed, Err: fmt.Errorf("decoding hook input: %w", err)}
	}
	return h.Capture(input)
}

// Capture runs the pipeline for an already decoded input.
func (h *Handler) Capture(input HookInput) Outcome {
	if input.HookEventName != "" && input.HookEventName != EventUserPromptSubmit {
		return Outcome{State: StatePassThrough}
	}
	if strings.TrimSpace(input.Prompt) == "" {
		return Outcome{State: StatePassThrough}
	}

	cfg := h.config()
	start := input.Cwd
	if start == "" {
		wd, err := h.getwd()
		if err != nil {
			return Outcome{State: StateFailed, Err: fmt.Errorf("resolving project dir: %w", err)}
		}
		start = wd
	}
	projectDir, ok := FindProject(start, cfg.MarkerName)
	if !ok {
		return Outcome{State: StateDisabled}
	}

	result := h.filter(cfg).Apply(input.Prompt)
	entry := promptlog.NewEntry(
		h.now(),
		input.SessionID,
		promptlog.EntryUserInput,
		result.Text,
		DetectCommand(result.Text),
		start,
		result.Summary(),
	)

	path := promptlog.LogPath(projectDir, cfg.LogDir)
	if err := h.writer(cfg).Append(path, entry); err != nil {
		return Outcome{State: StateFailed, LogPath: path, Err: err}
	}
	h.logger().Debug("prompt captured", "path", path, "secrets", result.SecretCount, "truncated", result.Truncated)
	return Outcome{State: StateCaptured, Captured: true, LogPath: path}
}

func (h *Handler) config() *config.Config {
	if h.Config == nil {
		h.Config = config.Default()
	}
	return h.Config
}

func (h *Handler) filter(cfg *config.Config) *filter.Filter {
	if h.Filter == nil {
		f, err := NewFilter(cfg)
		if err != nil {
			h.logger().Warn("ignoring extra filter patterns", "error", err)
			f = filter.New(filter.Options{MaxBytes: cfg.MaxContentBytes})
		}
		h.Filter = f
	}
	return h.Filter
}

func (h *Handler) writer(cfg *config.Config) *promptlog.Writer {
	if h.Writer == nil {
		h.Writer = promptlog.NewWriter(cfg.LockTimeout.Std(), cfg.BackupBeforeWrite, h.logger())
	}
	return h.Writer
}

func (h *Handler) logger() *slog.Logger {
	if h.Logger == nil {
		return config.Discard()
	}
	return h.Logger
}

func (h *Handler) now() time.Time {
	if h.Now == nil {
		return time.Now()
	}
	return h.Now()
}

func (h *Handler) getwd() (string, error) {
	if h.Getwd == nil {
		return os.Getwd()
	}
	return h.Getwd()
}

// NewFilter builds the secret filter described by cfg, including any extra
// patterns. Invalid patterns are reported together.
func NewFilter(cfg *config.Config) (*filter.Filter, error) {
	var extra []filter.Pattern
	var errs []error
	for _, p := range cfg.Filter.ExtraPatterns {
		compiled, err := filter.CompilePattern(p.Name, p.Regex)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		extra = append(extra, compiled)
	}
	f := filter.New(filter.Options{MaxBytes: cfg.MaxContentBytes, Extra: extra})
	return f, errors.Join(errs...)
}
