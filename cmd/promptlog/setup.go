package main

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/gorewood/promptlog/internal/output"
	"github.com/gorewood/promptlog/internal/setup"
)

// integrationInfo describes an available integration.
type integrationInfo struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Installed   bool   `json:"installed"`
	Scope       string `json:"scope,omitempty"`
	Location    string `json:"location,omitempty"`
}

// newSetupCmd creates the setup parent command with one subcommand per
// registered agent environment.
func newSetupCmd() *cobra.Command {
	var listFlag bool

	cmd := &cobra.Command{
		Use:   "setup",
		Short: "Install agent hooks",
		Long: `Install the promptlog hooks into coding agent settings.

The hooks run 'promptlog hook run' on prompt submit, after each tool use and
at session start. They do nothing in projects without the enable marker.

Examples:
  promptlog setup --list           # List integrations and their status
  promptlog setup claude           # Install Claude Code hooks globally
  promptlog setup claude --project # Install for this project only
  promptlog setup claude --check   # Check installation status
  promptlog setup claude --remove  # Remove the hooks`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if listFlag {
				return runSetupList(cmd)
			}
			return cmd.Help()
		},
	}

	cmd.Flags().BoolVar(&listFlag, "list", false, "List available integrations and their status")

	for _, env := range setup.AllAgentEnvs() {
		cmd.AddCommand(newSetupEnvCmd(env))
	}
	return cmd
}

// setupFlags holds the flags shared by every setup subcommand.
type setupFlags struct {
	project bool
	check   bool
	remove  bool
	dryRun  bool
}

func newSetupEnvCmd(env setup.AgentEnv) *cobra.Command {
	var flags setupFlags

	cmd := &cobra.Command{
		Use:   env.Name(),
		Short: "Install " + env.DisplayName() + " hooks",
		Long: `Install the promptlog hooks into ` + env.DisplayName() + ` settings.

By default installs globally. Use --project to install into the settings of
the current directory only. Installing twice is a no-op.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runSetupEnv(cmd, env, flags)
		},
	}

	cmd.Flags().BoolVar(&flags.project, "project", false, "Install for this project only")
	cmd.Flags().BoolVar(&flags.check, "check", false, "Check installation status without changes")
	cmd.Flags().BoolVar(&flags.remove, "remove", false, "Remove the hooks")
	cmd.Flags().BoolVar(&flags.dryRun, "dry-run", false, "Show what would be done without doing it")

	return cmd
}

func runSetupEnv(cmd *cobra.Command, env setup.AgentEnv, flags setupFlags) error {
	printer := newPrinter(cmd)

	path, scope, installed, err := env.Check(flags.project)
	if err != nil {
		printer.Error(err)
		return err
	}

	switch {
	case flags.check:
		return runSetupCheck(printer, env, path, scope, installed)
	case flags.remove:
		return runSetupRemove(printer, env, flags, path, scope)
	default:
		return runSetupInstall(printer, env, flags, path, scope, installed)
	}
}

func runSetupCheck(printer *output.Printer, env setup.AgentEnv, path, scope string, installed bool) error {
	missing := setup.MissingEvents(path)
	if printer.IsJSON() {
		return printer.Success(map[string]any{
			"integration": env.Name(),
			"installed":   installed,
			"location":    path,
			"scope":       scope,
			"missing":     missing,
		})
	}

	printer.Section(env.DisplayName() + " Integration Status")
	printer.KeyValue("Scope", scope)
	printer.KeyValue("Location", path)
	switch {
	case installed:
		printer.KeyValue("Status", "installed")
	case len(missing) < len(setup.HookEvents):
		printer.KeyValue("Status", "partial (missing "+strings.Join(missing, ", ")+")")
	default:
		printer.KeyValue("Status", "not installed")
	}
	return nil
}

func runSetupRemove(printer *output.Printer, env setup.AgentEnv, flags setupFlags, path, scope string) error {
	if len(setup.InstalledEvents(path)) == 0 {
		return printer.Success(map[string]any{
			"status":      "not_installed",
			"integration": env.Name(),
			"scope":       scope,
			"message":     env.DisplayName() + " hooks are not installed",
		})
	}

	if flags.dryRun {
		if printer.IsJSON() {
			return printer.Success(map[string]any{
				"status":      "dry_run",
				"integration": env.Name(),
				"action":      "would remove",
				"location":    path,
				"scope":       scope,
			})
		}
		printer.Section("Dry Run")
		printer.KeyValue("Action", "would remove promptlog hooks")
		printer.KeyValue("Location", path)
		return nil
	}

	if err := env.Remove(flags.project); err != nil {
		printer.Error(err)
		return err
	}
	return printer.Success(map[string]any{
		"status":      "removed",
		"integration": env.Name(),
		"location":    path,
		"scope":       scope,
		"message":     "Removed " + env.DisplayName() + " hooks from " + path,
	})
}

func runSetupInstall(printer *output.Printer, env setup.AgentEnv, flags setupFlags, path, scope string, installed bool) error {
	if flags.dryRun {
		action := "would install"
		if installed {
			action = "nothing to do (already installed)"
		}
		if printer.IsJSON() {
			return printer.Success(map[string]any{
				"status":            "dry_run",
				"integration":       env.Name(),
				"action":            action,
				"location":          path,
				"scope":             scope,
				"already_installed": installed,
				"missing":           setup.MissingEvents(path),
			})
		}
		printer.Section("Dry Run")
		printer.KeyValue("Action", action)
		printer.KeyValue("Location", path)
		return nil
	}

	if installed {
		return printer.Success(map[string]any{
			"status":      "already_installed",
			"integration": env.Name(),
			"location":    path,
			"scope":       scope,
			"message":     env.DisplayName() + " hooks already installed at " + path,
		})
	}

	if _, err := env.Install(flags.project); err != nil {
		printer.Error(err)
		return err
	}
	return printer.Success(map[string]any{
		"status":      "installed",
		"integration": env.Name(),
		"location":    path,
		"scope":       scope,
		"message":     "Installed " + env.DisplayName() + " hooks at " + path,
	})
}

// runSetupList lists available integrations and their status.
func runSetupList(cmd *cobra.Command) error {
	printer := newPrinter(cmd)

	envs := setup.AllAgentEnvs()
	integrations := make([]integrationInfo, 0, len(envs))
	for _, env := range envs {
		path, scope, installed := env.Detect()
		integrations = append(integrations, integrationInfo{
			Name:        env.Name(),
			Description: env.DisplayName() + " prompt capture and tool learnings",
			Installed:   installed,
			Scope:       scope,
			Location:    path,
		})
	}

	if printer.IsJSON() {
		return printer.Success(map[string]any{
			"integrations": integrations,
		})
	}

	printer.Section("Available Integrations")
	headers := []string{"Name", "Description", "Status", "Scope"}
	rows := make([][]string, 0, len(integrations))
	for _, integ := range integrations {
		status := "not installed"
		if integ.Installed {
			status = "installed"
		}
		scope := "-"
		if integ.Scope != "" {
			scope = integ.Scope
		}
		rows = append(rows, []string{integ.Name, integ.Description, status, scope})
	}
	printer.Table(headers, rows)
	return nil
}
