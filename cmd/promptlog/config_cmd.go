package main

import (
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/gorewood/promptlog/internal/config"
	"github.com/gorewood/promptlog/internal/output"
)

// newConfigCmd creates the config command.
func newConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Show the effective configuration",
		Long: `Show the configuration in effect for the current directory after merging
defaults, the global config file, the nearest project config file, .env files
and PROMPTLOG_* environment variables.

Examples:
  promptlog config          # Effective config as YAML, with its sources
  promptlog config --json   # Same, as JSON`,
		Args: cobra.NoArgs,
		RunE: runConfig,
	}
}

func runConfig(cmd *cobra.Command, _ []string) error {
	printer := newPrinter(cmd)
	ws, err := loadWorkspace()
	if err != nil {
		printer.Error(err)
		return err
	}
	cfg := ws.Config
	sources := cfg.Sources
	if sources == nil {
		sources = []string{}
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		err = output.NewSystemErrorWithCause("failed to encode config", err)
		printer.Error(err)
		return err
	}

	if printer.IsJSON() {
		// Round-trip through YAML so JSON keys match the config file keys.
		var tree map[string]any
		if err := yaml.Unmarshal(data, &tree); err != nil {
			err = output.NewSystemErrorWithCause("failed to encode config", err)
			printer.Error(err)
			return err
		}
		return printer.Success(map[string]any{
			"config":      tree,
			"sources":     sources,
			"config_dir":  config.Dir(),
			"global_file": config.GlobalFile(),
		})
	}

	printer.Section("Sources")
	printer.KeyValue("Config dir", config.Dir())
	if len(sources) == 0 {
		printer.Bullet("defaults only")
	}
	for _, s := range sources {
		printer.Bullet(s)
	}
	printer.Section("Effective Config")
	printer.Print("%s", data)
	return nil
}
