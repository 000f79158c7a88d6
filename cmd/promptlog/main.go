// Package main provides the entry point for the promptlog CLI.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/charmbracelet/fang"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/gorewood/promptlog/internal/capture"
	"github.com/gorewood/promptlog/internal/config"
	"github.com/gorewood/promptlog/internal/output"
)

// Build info set via ldflags at build time by goreleaser.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// isJSONMode reads the --json persistent flag from the command hierarchy.
func isJSONMode(cmd *cobra.Command) bool {
	flag := cmd.Flags().Lookup("json")
	if flag == nil {
		flag = cmd.Root().PersistentFlags().Lookup("json")
	}
	return flag != nil && flag.Value.String() == "true"
}

// useColor resolves the --color flag against the stdout TTY state.
func useColor(cmd *cobra.Command) bool {
	mode := "auto"
	if flag := cmd.Root().PersistentFlags().Lookup("color"); flag != nil {
		mode = flag.Value.String()
	}
	return output.ResolveColorMode(mode, output.IsTTY(cmd.OutOrStdout()))
}

// newPrinter builds the printer for a command.
func newPrinter(cmd *cobra.Command) *output.Printer {
	return output.NewPrinter(cmd.OutOrStdout(), isJSONMode(cmd), useColor(cmd)).WithStderr(cmd.ErrOrStderr())
}

// buildVersion returns the full version string including commit and date.
func buildVersion() string {
	if commit == "none" && date == "unknown" {
		return version
	}
	shortCommit := commit
	if len(commit) > 7 {
		shortCommit = commit[:7]
	}
	return fmt.Sprintf("%s (%s, %s)", version, shortCommit, date)
}

func main() {
	code := run()
	os.Exit(code)
}

func run() int {
	cmd := newRootCmd()
	err := fang.Execute(context.Background(), cmd, fang.WithVersion(buildVersion()))
	return output.GetExitCode(err)
}

// newRootCmd creates the root command for the promptlog CLI.
func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "promptlog",
		Short: "Opt-in prompt logging and tool-learning capture for coding agents",
		Long: `promptlog records the prompts you send to a coding agent, with secrets
redacted, into an append-only log inside the project, and turns notable tool
output (failures, warnings, workarounds) into reusable learnings.

Capture is opt-in per project: nothing is written until 'promptlog enable'
creates the marker file.

All commands support --json for structured output.`,
		Version:       buildVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if isJSONMode(cmd) {
				printer := newPrinter(cmd)
				err := output.NewUserError("no command specified. Run 'promptlog --help' for usage")
				printer.Error(err)
				return err
			}
			return cmd.Help()
		},
	}

	cmd.PersistentFlags().Bool("json", false, "Output in JSON format")
	cmd.PersistentFlags().String("color", "auto", "Color output: auto, always or never")

	lipgloss.SetHasDarkBackground(true)

	addCommandGroups(cmd)
	addCommands(cmd)

	return cmd
}

// addCommandGroups defines the command groups for help output.
func addCommandGroups(cmd *cobra.Command) {
	cmd.AddGroup(&cobra.Group{ID: "core", Title: "Core Commands:"})
	cmd.AddGroup(&cobra.Group{ID: "analysis", Title: "Analysis Commands:"})
	cmd.AddGroup(&cobra.Group{ID: "admin", Title: "Admin Commands:"})
}

// addCommands adds all subcommands with their group assignments.
func addCommands(cmd *cobra.Command) {
	addGroupedCommand(cmd, newEnableCmd(), "core")
	addGroupedCommand(cmd, newDisableCmd(), "core")
	addGroupedCommand(cmd, newStatusCmd(), "core")
	addGroupedCommand(cmd, newArchiveCmd(), "core")

	addGroupedCommand(cmd, newLogCmd(), "analysis")
	addGroupedCommand(cmd, newAnalyzeCmd(), "analysis")
	addGroupedCommand(cmd, newFilterCmd(), "analysis")
	addGroupedCommand(cmd, newLearningsCmd(), "analysis")

	addGroupedCommand(cmd, newSetupCmd(), "admin")
	addGroupedCommand(cmd, newConfigCmd(), "admin")
	addGroupedCommand(cmd, newServeCmd(), "admin")

	// Hidden internal commands
	cmd.AddCommand(newHookCmd())
}

// addGroupedCommand adds a subcommand with a group assignment.
func addGroupedCommand(parent *cobra.Command, child *cobra.Command, groupID string) {
	child.GroupID = groupID
	parent.AddCommand(child)
}

// workspace is the resolved project context for a command.
type workspace struct {
	Cwd        string
	ProjectDir string
	Enabled    bool
	Config     *config.Config
}

// loadWorkspace loads config for the working directory and finds the
// nearest enabled project. Without one, ProjectDir is the working directory.
func loadWorkspace() (*workspace, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return nil, output.NewSystemErrorWithCause("failed to get working directory", err)
	}
	return loadWorkspaceAt(cwd)
}

func loadWorkspaceAt(dir string) (*workspace, error) {
	cfg, err := config.Load(dir)
	if err != nil {
		if config.IsValidationError(err) {
			return nil, output.NewUserError(err.Error())
		}
		return nil, output.NewSystemErrorWithCause("failed to load config", err)
	}
	ws := &workspace{Cwd: dir, ProjectDir: dir, Config: cfg}
	if project, ok := capture.FindProject(dir, cfg.MarkerName); ok {
		ws.ProjectDir = project
		ws.Enabled = true
	}
	return ws, nil
}
