// Package mcp provides a Model Context Protocol server for promptlog.
// It exposes filtering, log analysis and learning detection as MCP tools.
package mcp

import (
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/gorewood/promptlog/internal/config"
	"github.com/gorewood/promptlog/internal/filter"
	"github.com/gorewood/promptlog/internal/memstore"
)

// Deps are the collaborators the tools run against. Store may be nil when
// learnings are not persisted.
type Deps struct {
	Config     *config.Config
	Filter     *filter.Filter
	Store      *memstore.Store
	ProjectDir string
}

// NewServer creates an MCP server with all promptlog tools registered.
func NewServer(version string, deps Deps) *mcp.Server {
	if deps.Config == nil {
		deps.Config = config.Default()
	}
	if deps.Filter == nil {
		deps.Filter = filter.New(filter.Options{MaxBytes: deps.Config.MaxContentBytes})
	}
	server := mcp.NewServer(&mcp.Implementation{
		Name:    "promptlog",
		Version: version,
	}, nil)
	registerTools(server, deps)
	return server
}

func boolPtr(b bool) *bool {
	return &b
}

// readOnlyAnnotations returns annotations for read-only tools.
func readOnlyAnnotations() *mcp.ToolAnnotations {
	return &mcp.ToolAnnotations{
		ReadOnlyHint:   true,
		IdempotentHint: true,
		OpenWorldHint:  boolPtr(false),
	}
}

func registerTools(server *mcp.Server, deps Deps) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "filter_text",
		Description: "Redact secrets (API keys, tokens, private keys, credentials in URLs) from text. Returns the filtered text and per-type counts.",
		Annotations: readOnlyAnnotations(),
	}, handleFilterText(deps))

	mcp.AddTool(server, &mcp.Tool{
		Name:        "analyze_log",
		Description: "Analyze a prompt log: entry and session counts, prompt lengths, command usage, secrets redacted, and insights.",
		Annotations: readOnlyAnnotations(),
	}, handleAnalyzeLog(deps))

	mcp.AddTool(server, &mcp.Tool{
		Name:        "detect_learning",
		Description: "Score a tool response for learning signals (errors, warnings, workarounds, discoveries) and preview the learning that would be extracted.",
		Annotations: readOnlyAnnotations(),
	}, handleDetectLearning(deps))

	mcp.AddTool(server, &mcp.Tool{
		Name:        "list_learnings",
		Description: "List stored learnings, newest first, optionally filtered by spec, category or tool.",
		Annotations: readOnlyAnnotations(),
	}, handleListLearnings(deps))

	mcp.AddTool(server, &mcp.Tool{
		Name:        "status",
		Description: "Show whether prompt capture is enabled for a project and where its log lives.",
		Annotations: readOnlyAnnotations(),
	}, handleStatus(deps))
}
