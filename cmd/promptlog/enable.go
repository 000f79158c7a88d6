package main

import (
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/gorewood/promptlog/internal/capture"
	"github.com/gorewood/promptlog/internal/output"
	"github.com/gorewood/promptlog/internal/promptlog"
	"github.com/gorewood/promptlog/internal/setup"
)

// newEnableCmd creates the enable command.
func newEnableCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "enable",
		Short: "Start capturing prompts in this project",
		Long: `Create the enable marker in the current directory. Prompts submitted from
this directory or below are then captured to the project log.

Capture also needs the agent hooks: see 'promptlog setup claude'.`,
		Args: cobra.NoArgs,
		RunE: runEnable,
	}
}

func runEnable(cmd *cobra.Command, _ []string) error {
	printer := newPrinter(cmd)
	ws, err := loadWorkspace()
	if err != nil {
		printer.Error(err)
		return err
	}

	err = capture.Enable(ws.Cwd, ws.Config.MarkerName)
	switch {
	case errors.Is(err, capture.ErrAlreadyEnabled):
		return printer.Success(map[string]any{
			"status":  "already_enabled",
			"project": ws.Cwd,
			"message": "Prompt capture is already enabled in " + ws.Cwd,
		})
	case err != nil:
		err = output.NewSystemErrorWithCause("failed to enable capture", err)
		printer.Error(err)
		return err
	}

	if !printer.IsJSON() && len(setup.DetectedAgentEnvs()) == 0 {
		printer.Warn("no agent hooks installed; run 'promptlog setup claude'")
	}
	return printer.Success(map[string]any{
		"status":   "enabled",
		"project":  ws.Cwd,
		"log_path": promptlog.LogPath(ws.Cwd, ws.Config.LogDir),
		"message":  "Enabled prompt capture in " + ws.Cwd,
	})
}

// newDisableCmd creates the disable command.
func newDisableCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "disable",
		Short: "Stop capturing prompts in this project",
		Long: `Remove the enable marker from the nearest enabled project. The existing log
is left in place.`,
		Args: cobra.NoArgs,
		RunE: runDisable,
	}
}

func runDisable(cmd *cobra.Command, _ []string) error {
	printer := newPrinter(cmd)
	ws, err := loadWorkspace()
	if err != nil {
		printer.Error(err)
		return err
	}

	err = capture.Disable(ws.ProjectDir, ws.Config.MarkerName)
	switch {
	case errors.Is(err, capture.ErrNotEnabled):
		return printer.Success(map[string]any{
			"status":  "not_enabled",
			"project": ws.ProjectDir,
			"message": "Prompt capture is not enabled here",
		})
	case err != nil:
		err = output.NewSystemErrorWithCause("failed to disable capture", err)
		printer.Error(err)
		return err
	}

	return printer.Success(map[string]any{
		"status":  "disabled",
		"project": ws.ProjectDir,
		"message": "Disabled prompt capture in " + ws.ProjectDir,
	})
}

// statusResult holds the data for status output.
type statusResult struct {
	Enabled      bool     `json:"enabled"`
	Project      string   `json:"project"`
	LogPath      string   `json:"log_path"`
	LogExists    bool     `json:"log_exists"`
	LogSize      int64    `json:"log_size_bytes"`
	Entries      int      `json:"entries"`
	SkippedLines int      `json:"skipped_lines,omitempty"`
	LastEntry    string   `json:"last_entry,omitempty"`
	Archives     int      `json:"archives"`
	Hooks        []string `json:"hooks"`
	ConfigFiles  []string `json:"config_files"`
}

// newStatusCmd creates the status command.
func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show capture state for this project",
		Long: `Show whether prompt capture is enabled, where the log lives, how many
entries it holds and which agent hooks are installed.

Examples:
  promptlog status          # Human-readable status
  promptlog status --json   # Status as JSON for scripting`,
		Args: cobra.NoArgs,
		RunE: runStatus,
	}
}

func runStatus(cmd *cobra.Command, _ []string) error {
	printer := newPrinter(cmd)
	ws, err := loadWorkspace()
	if err != nil {
		printer.Error(err)
		return err
	}

	result, err := gatherStatus(ws)
	if err != nil {
		printer.Error(err)
		return err
	}

	if printer.IsJSON() {
		return printer.WriteJSON(result)
	}

	printer.Section("Prompt Capture")
	if result.Enabled {
		printer.KeyValue("Status", printer.Styles().Success.Render("enabled"))
	} else {
		printer.KeyValue("Status", "disabled")
	}
	printer.KeyValue("Project", result.Project)
	printer.KeyValue("Log", result.LogPath)
	if result.LogExists {
		printer.KeyValue("Size", humanize.Bytes(uint64(result.LogSize)))
		printer.KeyValue("Entries", humanize.Comma(int64(result.Entries)))
		if result.SkippedLines > 0 {
			printer.KeyValue("Skipped", strconv.Itoa(result.SkippedLines)+" malformed lines")
		}
		if result.LastEntry != "" {
			printer.KeyValue("Last entry", result.LastEntry)
		}
	} else {
		printer.KeyValue("Size", "no log yet")
	}
	if result.Archives > 0 {
		printer.KeyValue("Archived", strconv.Itoa(result.Archives)+" log(s)")
	}

	printer.Section("Hooks")
	if len(result.Hooks) == 0 {
		printer.Bullet("none installed (run 'promptlog setup claude')")
	}
	for _, h := range result.Hooks {
		printer.Bullet(h)
	}
	return nil
}

func gatherStatus(ws *workspace) (*statusResult, error) {
	result := &statusResult{
		Enabled:     ws.Enabled,
		Project:     ws.ProjectDir,
		LogPath:     promptlog.LogPath(ws.ProjectDir, ws.Config.LogDir),
		Hooks:       []string{},
		ConfigFiles: ws.Config.Sources,
	}
	if result.ConfigFiles == nil {
		result.ConfigFiles = []string{}
	}

	info, err := os.Stat(result.LogPath)
	if err == nil {
		result.LogExists = true
		result.LogSize = info.Size()
		var last string
		stats, err := promptlog.Scan(result.LogPath, func(e *promptlog.Entry) error {
			last = e.Timestamp
			return nil
		})
		if err != nil {
			return nil, output.NewSystemErrorWithCause("failed to read log", err)
		}
		result.Entries = stats.Parsed
		result.SkippedLines = stats.Skipped
		if t, err := time.Parse(promptlog.TimestampFormat, last); err == nil {
			result.LastEntry = humanize.Time(t)
		}
	} else if !errors.Is(err, os.ErrNotExist) {
		return nil, output.NewSystemErrorWithCause("failed to stat log", err)
	}

	result.Archives = countArchives(archiveDirFor(ws, result.LogPath))

	for _, env := range setup.DetectedAgentEnvs() {
		path, scope, _ := env.Detect()
		result.Hooks = append(result.Hooks, env.DisplayName()+" ("+scope+", "+path+")")
	}
	return result, nil
}

// newArchiveCmd creates the archive command.
func newArchiveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "archive",
		Short: "Move the project log into the archive directory",
		Long: `Move the current project log into the archive directory under a
timestamped name. The next captured prompt starts a fresh log.

The archive directory is 'archive_dir' from config, or an "archive"
directory next to the log.`,
		Args: cobra.NoArgs,
		RunE: runArchive,
	}
}

func runArchive(cmd *cobra.Command, _ []string) error {
	printer := newPrinter(cmd)
	ws, err := loadWorkspace()
	if err != nil {
		printer.Error(err)
		return err
	}

	logPath := promptlog.LogPath(ws.ProjectDir, ws.Config.LogDir)

	dest, err := promptlog.Archive(logPath, archiveDirFor(ws, logPath), time.Now(), ws.Config.LockTimeout.Std())
	if err != nil {
		if errors.Is(err, promptlog.ErrNoLog) {
			err = output.NewUserError("no prompt log at " + logPath)
		} else {
			err = output.NewSystemErrorWithCause("failed to archive log", err)
		}
		printer.Error(err)
		return err
	}

	return printer.Success(map[string]any{
		"status":  "archived",
		"from":    logPath,
		"to":      dest,
		"message": "Archived " + logPath + " to " + dest,
	})
}

// archiveDirFor resolves archive_dir against the project, defaulting to an
// "archive" directory next to the log.
func archiveDirFor(ws *workspace, logPath string) string {
	dir := ws.Config.ArchiveDir
	switch {
	case dir == "":
		return filepath.Join(filepath.Dir(logPath), "archive")
	case !filepath.IsAbs(dir):
		return filepath.Join(ws.ProjectDir, dir)
	}
	return dir
}

func countArchives(dir string) int {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0
	}
	n := 0
	for _, e := range entries {
		if !e.IsDir() && promptlog.IsLogFile(e.Name()) {
			n++
		}
	}
	return n
}
