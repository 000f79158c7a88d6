// Package config loads promptlog settings from layered YAML files and
// PROMPTLOG_* environment variables.
package config

import (
	"os"
	"path/filepath"
	"runtime"
)

// AppName names the configuration directory and environment prefix.
const AppName = "promptlog"

// Dir returns the promptlog configuration directory.
//
// Resolution:
//   - $PROMPTLOG_CONFIG_HOME if set (explicit override)
//   - $XDG_CONFIG_HOME/promptlog if set (respects XDG on any platform)
//   - %AppData%/promptlog on Windows
//   - ~/.config/promptlog on macOS and Linux
func Dir() string {
	if dir := os.Getenv("PROMPTLOG_CONFIG_HOME"); dir != "" {
		return dir
	}

	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, AppName)
	}

	if runtime.GOOS == "windows" {
		if appData := os.Getenv("APPDATA"); appData != "" {
			return filepath.Join(appData, AppName)
		}
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", AppName)
}

// FileName is the config file name in both the global and project dirs.
const FileName = "config.yaml"

// GlobalFile returns the global config file path, or "" when no config
// directory can be resolved.
func GlobalFile() string {
	dir := Dir()
	if dir == "" {
		return ""
	}
	return filepath.Join(dir, FileName)
}

// ProjectFile returns the nearest .promptlog/config.yaml at or above start,
// or "" when there is none.
func ProjectFile(start string) string {
	dir, err := filepath.Abs(start)
	if err != nil {
		return ""
	}
	for {
		candidate := filepath.Join(dir, ".promptlog", FileName)
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}
