package main

import (
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/gorewood/promptlog/internal/capture"
	"github.com/gorewood/promptlog/internal/config"
	"github.com/gorewood/promptlog/internal/filter"
	"github.com/gorewood/promptlog/internal/learnings"
	"github.com/gorewood/promptlog/internal/memstore"
	"github.com/gorewood/promptlog/internal/promptlog"
)

// staleStateAge is how long idle per-session dedup state is kept.
const staleStateAge = 7 * 24 * time.Hour

// newHookCmd creates the hidden hook parent command for internal hook execution.
func newHookCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:    "hook",
		Short:  "Internal hook runner",
		Long:   `Internal command for running hook logic. Called by agent hooks.`,
		Hidden: true,
	}

	cmd.AddCommand(newHookRunCmd())
	return cmd
}

// newHookRunCmd creates the hook run subcommand.
func newHookRunCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run <hook-name>",
		Short: "Execute hook logic",
		Long: `Execute the logic for the specified hook. Reads the hook payload on stdin.

Hooks: user-prompt-submit, post-tool-use, session-start.
Hooks never fail: errors are logged to stderr and the command exits 0.`,
		Args: cobra.ArbitraryArgs,
		RunE: runHookRun,
	}
}

// runHookRun dispatches to the named hook. Unknown hooks succeed silently so
// a newer settings file never blocks an older binary.
func runHookRun(cmd *cobra.Command, args []string) error {
	if len(args) == 0 {
		return nil
	}
	hc := newHookContext(cmd)
	switch args[0] {
	case "user-prompt-submit":
		hc.userPromptSubmit(cmd.InOrStdin(), cmd.OutOrStdout())
	case "post-tool-use":
		hc.postToolUse(cmd.InOrStdin())
	case "session-start":
		hc.sessionStart(cmd.InOrStdin())
	}
	return nil
}

// hookContext carries what every hook needs. Config errors fall back to
// defaults so capture keeps working with a broken config file.
type hookContext struct {
	cwd    string
	cfg    *config.Config
	logger *slog.Logger
	now    func() time.Time
}

func newHookContext(cmd *cobra.Command) *hookContext {
	cwd, _ := os.Getwd()
	cfg, err := config.Load(cwd)
	if err != nil {
		cfg = config.Default()
	}
	hc := &hookContext{cwd: cwd, cfg: cfg, logger: config.NewLogger(cfg, cmd.ErrOrStderr()), now: time.Now}
	if err != nil {
		hc.logger.Warn("config not loaded, using defaults", "error", err)
	}
	return hc
}

func (hc *hookContext) filter() *filter.Filter {
	f, err := capture.NewFilter(hc.cfg)
	if err != nil {
		hc.logger.Warn("extra filter patterns ignored", "error", err)
		return filter.New(filter.Options{MaxBytes: hc.cfg.MaxContentBytes})
	}
	return f
}

func (hc *hookContext) userPromptSubmit(in io.Reader, out io.Writer) {
	h := &capture.Handler{
		Config: hc.cfg,
		Filter: hc.filter(),
		Writer: promptlog.NewWriter(hc.cfg.LockTimeout.Std(), hc.cfg.BackupBeforeWrite, hc.logger),
		Logger: hc.logger,
		Now:    hc.now,
	}
	h.Handle(in, out)
}

func (hc *hookContext) sessionStore() *learnings.SessionStore {
	return &learnings.SessionStore{
		Dir:     hc.cfg.StateDir(),
		MaxSize: hc.cfg.Learnings.DedupMaxSize,
	}
}

func (hc *hookContext) postToolUse(in io.Reader) {
	defer func() {
		if r := recover(); r != nil {
			hc.logger.Warn("post-tool-use hook panic", "panic", r)
		}
	}()

	var input learnings.HookInput
	if err := json.NewDecoder(in).Decode(&input); err != nil {
		hc.logger.Debug("post-tool-use input not decoded", "error", err)
		return
	}
	if input.HookEventName != "" && input.HookEventName != learnings.EventPostToolUse {
		return
	}
	start := input.Cwd
	if start == "" {
		start = hc.cwd
	}
	projectDir, ok := capture.FindProject(start, hc.cfg.MarkerName)
	if !ok {
		return
	}
	response, err := input.Response()
	if err != nil {
		hc.logger.Debug("tool response not decoded", "error", err)
		return
	}

	home, _ := os.UserHomeDir()
	x := &learnings.Extractor{
		Detector:     learnings.NewDetector(hc.cfg.Learnings.Threshold),
		Filter:       hc.filter(),
		Paths:        filter.PathSanitizer{Home: home},
		ExcerptBytes: hc.cfg.Learnings.ExcerptBytes,
		SessionID:    input.SessionID,
		Logger:       hc.logger,
		Now:          hc.now,
	}

	var res learnings.Result
	err = hc.sessionStore().With(input.SessionID, func(d *learnings.Deduplicator) error {
		x.Dedup = d
		res = x.Run(input.ToolName, response, input.Context(), filepath.Base(projectDir))
		return nil
	})
	if err != nil {
		hc.logger.Warn("dedup state unavailable", "error", err)
		return
	}
	if res.Learning == nil {
		hc.logger.Debug("no learning", "tool", input.ToolName, "reason", res.Reason, "score", res.Detection.Score)
		return
	}
	hc.saveLearning(res.Learning)
}

func (hc *hookContext) saveLearning(l *learnings.ToolLearning) {
	if hc.cfg.Learnings.Store != config.StoreSQLite {
		return
	}
	store, err := memstore.Open(learningsDir())
	if err != nil {
		hc.logger.Warn("learnings store unavailable", "error", err)
		return
	}
	defer store.Close()
	if _, err := store.Save(l); err != nil {
		hc.logger.Warn("learning not saved", "id", l.ID, "error", err)
		return
	}
	hc.logger.Info("learning saved", "id", l.ID, "category", l.Category, "severity", l.Severity)
}

func (hc *hookContext) sessionStart(in io.Reader) {
	var input struct {
		SessionID string `json:"session_id"`
	}
	_ = json.NewDecoder(in).Decode(&input)

	store := hc.sessionStore()
	if err := store.Reset(input.SessionID); err != nil {
		hc.logger.Warn("dedup state not reset", "error", err)
	}
	if n, err := store.Prune(staleStateAge, hc.now()); err == nil && n > 0 {
		hc.logger.Debug("pruned stale dedup state", "files", n)
	}
}

// learningsDir is where the learnings database lives.
func learningsDir() string {
	return config.Dir()
}
