package mcp

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/gorewood/promptlog/internal/analyzer"
	"github.com/gorewood/promptlog/internal/capture"
	"github.com/gorewood/promptlog/internal/export"
	"github.com/gorewood/promptlog/internal/filter"
	"github.com/gorewood/promptlog/internal/learnings"
	"github.com/gorewood/promptlog/internal/memstore"
	"github.com/gorewood/promptlog/internal/promptlog"
)

// --- filter_text ---

// FilterInput is the input for the filter_text tool.
type FilterInput struct {
	Text string `json:"text" jsonschema:"text to redact"`
}

// FilterOutput is the output for the filter_text tool.
type FilterOutput struct {
	Text        string         `json:"filtered_text"    jsonschema:"text with secrets replaced by placeholders"`
	SecretCount int            `json:"secret_count"     jsonschema:"number of secrets redacted"`
	Truncated   bool           `json:"truncated"        jsonschema:"whether the text was cut to the size cap"`
	Stats       map[string]int `json:"stats,omitempty"  jsonschema:"redactions per secret type"`
}

func handleFilterText(deps Deps) mcp.ToolHandlerFor[FilterInput, FilterOutput] {
	return func(_ context.Context, _ *mcp.CallToolRequest, input FilterInput) (*mcp.CallToolResult, FilterOutput, error) {
		res := deps.Filter.Apply(input.Text)
		return nil, FilterOutput{
			Text:        res.Text,
			SecretCount: res.SecretCount,
			Truncated:   res.Truncated,
			Stats:       res.Stats,
		}, nil
	}
}

// --- analyze_log ---

// AnalyzeInput is the input for the analyze_log tool.
type AnalyzeInput struct {
	Path        string `json:"path,omitempty"         jsonschema:"log file path (default: the project log)"`
	Session     string `json:"session,omitempty"      jsonschema:"only analyze this session ID"`
	Since       string `json:"since,omitempty"        jsonschema:"only entries at or after this time (24h, 7d, 2006-01-02 or RFC3339)"`
	MetricsOnly bool   `json:"metrics_only,omitempty" jsonschema:"omit the markdown report"`
}

// AnalyzeOutput is the output for the analyze_log tool.
type AnalyzeOutput struct {
	Report   *analyzer.Report `json:"report"             jsonschema:"the analysis report"`
	Markdown string           `json:"markdown,omitempty" jsonschema:"human-readable markdown report"`
}

func handleAnalyzeLog(deps Deps) mcp.ToolHandlerFor[AnalyzeInput, AnalyzeOutput] {
	return func(_ context.Context, _ *mcp.CallToolRequest, input AnalyzeInput) (*mcp.CallToolResult, AnalyzeOutput, error) {
		path := input.Path
		if path == "" {
			path = promptlog.LogPath(deps.ProjectDir, deps.Config.LogDir)
		}
		opts := analyzer.Options{SessionID: input.Session}
		if input.Since != "" {
			since, err := parseDurationOrDate(input.Since, time.Now())
			if err != nil {
				return nil, AnalyzeOutput{}, err
			}
			opts.Since = since
		}

		report, err := analyzer.AnalyzeWithOptions(path, opts)
		if err != nil {
			return nil, AnalyzeOutput{}, fmt.Errorf("analyzing %s: %w", path, err)
		}
		out := AnalyzeOutput{Report: report}
		if !input.MetricsOnly {
			out.Markdown = export.Markdown(report)
		}
		return nil, out, nil
	}
}

// --- detect_learning ---

// DetectInput is the input for the detect_learning tool.
type DetectInput struct {
	Tool     string         `json:"tool"              jsonschema:"tool name, e.g. Bash"`
	Response map[string]any `json:"response"          jsonschema:"tool response object (stdout, stderr, exit_code, output...)"`
	Context  string         `json:"context,omitempty" jsonschema:"what the tool was asked to do"`
	Spec     string         `json:"spec,omitempty"    jsonschema:"spec or feature the work belongs to"`
}

// DetectOutput is the output for the detect_learning tool.
type DetectOutput struct {
	Detection learnings.DetectionResult `json:"detection"          jsonschema:"signal scoring result"`
	Learning  *learnings.ToolLearning   `json:"learning,omitempty" jsonschema:"learning that would be extracted"`
}

func handleDetectLearning(deps Deps) mcp.ToolHandlerFor[DetectInput, DetectOutput] {
	return func(_ context.Context, _ *mcp.CallToolRequest, input DetectInput) (*mcp.CallToolResult, DetectOutput, error) {
		if input.Tool == "" {
			return nil, DetectOutput{}, errors.New("tool is required")
		}
		lc := deps.Config.Learnings
		home, _ := os.UserHomeDir()
		x := &learnings.Extractor{
			Detector:     learnings.NewDetector(lc.Threshold),
			Filter:       deps.Filter,
			Paths:        filter.PathSanitizer{Home: home},
			ExcerptBytes: lc.ExcerptBytes,
		}
		res := x.Run(input.Tool, input.Response, input.Context, input.Spec)
		if res.Err != nil {
			return nil, DetectOutput{}, res.Err
		}
		return nil, DetectOutput{Detection: res.Detection, Learning: res.Learning}, nil
	}
}

// --- list_learnings ---

// ListInput is the input for the list_learnings tool.
type ListInput struct {
	Spec     string `json:"spec,omitempty"     jsonschema:"only learnings for this spec"`
	Category string `json:"category,omitempty" jsonschema:"error, workaround, warning or discovery"`
	Tool     string `json:"tool,omitempty"     jsonschema:"only learnings from this tool"`
	Limit    int    `json:"limit,omitempty"    jsonschema:"maximum results (default 50)"`
}

// ListOutput is the output for the list_learnings tool.
type ListOutput struct {
	Count     int               `json:"count"               jsonschema:"number of learnings returned"`
	Learnings []memstore.Record `json:"learnings,omitempty" jsonschema:"stored learnings, newest first"`
}

func handleListLearnings(deps Deps) mcp.ToolHandlerFor[ListInput, ListOutput] {
	return func(_ context.Context, _ *mcp.CallToolRequest, input ListInput) (*mcp.CallToolResult, ListOutput, error) {
		if deps.Store == nil {
			return nil, ListOutput{}, errors.New("learnings store is disabled (learnings.store: none)")
		}
		opts := memstore.ListOptions{Spec: input.Spec, Tool: input.Tool, Limit: input.Limit}
		if input.Category != "" {
			c, err := learnings.ParseCategory(input.Category)
			if err != nil {
				return nil, ListOutput{}, err
			}
			opts.Category = c
		}
		records, err := deps.Store.List(opts)
		if err != nil {
			return nil, ListOutput{}, err
		}
		return nil, ListOutput{Count: len(records), Learnings: records}, nil
	}
}

// --- status ---

// StatusInput is the input for the status tool.
type StatusInput struct {
	Dir string `json:"dir,omitempty" jsonschema:"directory to check (default: the server's project)"`
}

// StatusOutput is the output for the status tool.
type StatusOutput struct {
	Enabled    bool   `json:"enabled"               jsonschema:"whether capture is enabled"`
	ProjectDir string `json:"project_dir,omitempty" jsonschema:"directory holding the enable marker"`
	LogPath    string `json:"log_path,omitempty"    jsonschema:"prompt log path"`
	LogExists  bool   `json:"log_exists"            jsonschema:"whether the log file exists"`
	LogSize    int64  `json:"log_size_bytes"        jsonschema:"log file size"`
}

func handleStatus(deps Deps) mcp.ToolHandlerFor[StatusInput, StatusOutput] {
	return func(_ context.Context, _ *mcp.CallToolRequest, input StatusInput) (*mcp.CallToolResult, StatusOutput, error) {
		dir := input.Dir
		if dir == "" {
			dir = deps.ProjectDir
		}
		abs, err := filepath.Abs(dir)
		if err != nil {
			return nil, StatusOutput{}, fmt.Errorf("resolving %s: %w", dir, err)
		}

		project, ok := capture.FindProject(abs, deps.Config.MarkerName)
		if !ok {
			return nil, StatusOutput{}, nil
		}
		out := StatusOutput{
			Enabled:    true,
			ProjectDir: project,
			LogPath:    promptlog.LogPath(project, deps.Config.LogDir),
		}
		if info, err := os.Stat(out.LogPath); err == nil {
			out.LogExists = true
			out.LogSize = info.Size()
		}
		return nil, out, nil
	}
}
