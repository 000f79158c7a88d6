package setup

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"

	"github.com/gorewood/promptlog/internal/output"
)

// HookCommandPrefix starts every command promptlog installs.
const HookCommandPrefix = "promptlog hook run"

// HookEvent pairs a Claude Code hook event with the promptlog subcommand
// that handles it.
type HookEvent struct {
	Event   string
	Command string
}

// HookEvents are the events promptlog hooks into, in install order.
var HookEvents = []HookEvent{
	{Event: "UserPromptSubmit", Command: HookCommandPrefix + " user-prompt-submit"},
	{Event: "PostToolUse", Command: HookCommandPrefix + " post-tool-use"},
	{Event: "SessionStart", Command: HookCommandPrefix + " session-start"},
}

// ResolveClaudeSettingsPath returns .claude/settings.json under the working
// directory when project is true, or ~/.claude/settings.json otherwise.
func ResolveClaudeSettingsPath(project bool) (string, string, error) {
	if project {
		cwd, err := os.Getwd()
		if err != nil {
			return "", "", output.NewSystemErrorWithCause("failed to get working directory", err)
		}
		return filepath.Join(cwd, ".claude", "settings.json"), "project", nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", "", output.NewSystemErrorWithCause("failed to get home directory", err)
	}
	return filepath.Join(home, ".claude", "settings.json"), "global", nil
}

func isPromptlogCommand(command string) bool {
	return strings.HasPrefix(strings.TrimSpace(command), HookCommandPrefix)
}

// InstalledEvents lists the events that already carry a promptlog hook.
// Unreadable or missing settings report nothing installed.
func InstalledEvents(settingsPath string) []string {
	settings, err := readSettings(settingsPath)
	if err != nil {
		return nil
	}
	return installedIn(settings)
}

func installedIn(settings map[string]any) []string {
	var events []string
	for _, he := range HookEvents {
		if hasPromptlogHook(settings, he.Event) {
			events = append(events, he.Event)
		}
	}
	return events
}

// MissingEvents lists the events InstallHooks would add.
func MissingEvents(settingsPath string) []string {
	settings, err := readSettings(settingsPath)
	if err != nil {
		settings = map[string]any{}
	}
	var missing []string
	for _, he := range HookEvents {
		if !hasPromptlogHook(settings, he.Event) {
			missing = append(missing, he.Event)
		}
	}
	return missing
}

// IsInstalled reports whether every promptlog hook is present.
func IsInstalled(settingsPath string) bool {
	return len(InstalledEvents(settingsPath)) == len(HookEvents)
}

func hasPromptlogHook(settings map[string]any, event string) bool {
	for _, g := range getEventGroups(settings, event) {
		for _, h := range g.Hooks {
			if isPromptlogCommand(h.Command) {
				return true
			}
		}
	}
	return false
}

// InstallHooks adds any missing promptlog hooks, keeping every other setting.
func InstallHooks(settingsPath string) error {
	settings, err := readSettings(settingsPath)
	if err != nil {
		return err
	}

	hooks, _ := settings["hooks"].(map[string]any)
	if hooks == nil {
		hooks = map[string]any{}
	}
	changed := false
	for _, he := range HookEvents {
		if hasPromptlogHook(settings, he.Event) {
			continue
		}
		groups, _ := hooks[he.Event].([]any)
		hooks[he.Event] = append(groups, map[string]any{
			"matcher": "",
			"hooks": []any{
				map[string]any{"type": "command", "command": he.Command},
			},
		})
		settings["hooks"] = hooks
		changed = true
	}
	if !changed {
		return nil
	}
	return writeSettings(settingsPath, settings)
}

// RemoveHooks removes every promptlog hook from every event. Groups and
// events left empty are dropped, as is an empty hooks section. A missing
// file is a no-op.
func RemoveHooks(settingsPath string) error {
	if _, err := os.Stat(settingsPath); errors.Is(err, os.ErrNotExist) {
		return nil
	}
	settings, err := readSettings(settingsPath)
	if err != nil {
		return err
	}
	hooks, ok := settings["hooks"].(map[string]any)
	if !ok {
		return nil
	}

	changed := false
	for event, raw := range hooks {
		groups, ok := raw.([]any)
		if !ok {
			continue
		}
		kept, removed := removeFromGroups(groups)
		if !removed {
			continue
		}
		changed = true
		if len(kept) == 0 {
			delete(hooks, event)
		} else {
			hooks[event] = kept
		}
	}
	if !changed {
		return nil
	}
	if len(hooks) == 0 {
		delete(settings, "hooks")
	}
	return writeSettings(settingsPath, settings)
}

func removeFromGroups(groups []any) ([]any, bool) {
	var kept []any
	removed := false
	for _, rawGroup := range groups {
		group, ok := rawGroup.(map[string]any)
		if !ok {
			kept = append(kept, rawGroup)
			continue
		}
		rawHooks, _ := group["hooks"].([]any)
		var keepHooks []any
		dropped := false
		for _, rawHook := range rawHooks {
			if entry, ok := parseHookEntry(rawHook); ok && isPromptlogCommand(entry.Command) {
				dropped = true
				continue
			}
			keepHooks = append(keepHooks, rawHook)
		}
		if !dropped {
			kept = append(kept, rawGroup)
			continue
		}
		removed = true
		if len(keepHooks) > 0 {
			group["hooks"] = keepHooks
			kept = append(kept, group)
		}
	}
	return kept, removed
}

// readSettings returns an empty map for a missing or empty file.
func readSettings(path string) (map[string]any, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return map[string]any{}, nil
	}
	if err != nil {
		return nil, output.NewSystemErrorWithCause("failed to read settings", err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return map[string]any{}, nil
	}
	var settings map[string]any
	if err := json.Unmarshal(data, &settings); err != nil {
		return nil, output.NewUserErrorf("settings file %s is not valid JSON: %v", path, err)
	}
	if settings == nil {
		settings = map[string]any{}
	}
	return settings, nil
}

// writeSettings replaces the file atomically.
func writeSettings(path string, settings map[string]any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return output.NewSystemErrorWithCause("failed to create settings directory", err)
	}
	data, err := json.MarshalIndent(settings, "", "  ")
	if err != nil {
		return output.NewSystemErrorWithCause("failed to encode settings", err)
	}
	data = append(data, '\n')

	tmp, err := os.CreateTemp(filepath.Dir(path), ".settings-*.json")
	if err != nil {
		return output.NewSystemErrorWithCause("failed to write settings", err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return output.NewSystemErrorWithCause("failed to write settings", err)
	}
	if err := tmp.Close(); err != nil {
		return output.NewSystemErrorWithCause("failed to write settings", err)
	}
	// #nosec G302 -- settings files are not secrets
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return output.NewSystemErrorWithCause("failed to write settings", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return output.NewSystemErrorWithCause("failed to write settings", err)
	}
	return nil
}
