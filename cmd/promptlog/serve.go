package main

import (
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/spf13/cobra"

	"github.com/gorewood/promptlog/internal/capture"
	"github.com/gorewood/promptlog/internal/config"
	promptlogmcp "github.com/gorewood/promptlog/internal/mcp"
	"github.com/gorewood/promptlog/internal/memstore"
)

// newServeCmd creates the serve command for running as an MCP server.
func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run as MCP server (stdio transport)",
		Long: `Run promptlog as a Model Context Protocol (MCP) server over stdio.

This exposes secret filtering, log analysis and learning detection as MCP
tools for any MCP-capable agent environment.

Configure in your agent's MCP settings:
  {
    "mcpServers": {
      "promptlog": {
        "command": "promptlog",
        "args": ["serve"]
      }
    }
  }

Available tools: filter_text, analyze_log, detect_learning, list_learnings, status`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ws, err := loadWorkspace()
			if err != nil {
				return err
			}
			logger := config.NewLogger(ws.Config, cmd.ErrOrStderr())

			deps := promptlogmcp.Deps{Config: ws.Config, ProjectDir: ws.ProjectDir}
			f, err := capture.NewFilter(ws.Config)
			if err != nil {
				logger.Warn("extra filter patterns ignored", "error", err)
			}
			deps.Filter = f

			if ws.Config.Learnings.Store == config.StoreSQLite {
				store, err := memstore.Open(learningsDir())
				if err != nil {
					logger.Warn("learnings store unavailable", "error", err)
				} else {
					defer func() { _ = store.Close() }()
					deps.Store = store
				}
			}

			server := promptlogmcp.NewServer(buildVersion(), deps)
			return server.Run(cmd.Context(), &mcp.StdioTransport{})
		},
	}
}
