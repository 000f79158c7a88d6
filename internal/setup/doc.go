// Package setup installs and removes the promptlog hooks in agent
// environments.
//
// This package holds the settings-file logic. Command-layer adapters in
// cmd/promptlog handle flags, output formatting and cobra wiring and call
// into this package for the actual work.
//
// # Claude Integration
//
// Claude Code hooks live in settings.json, either per project or global:
//
//	path, scope, err := setup.ResolveClaudeSettingsPath(false)
//	events := setup.InstalledEvents(path)
//	err := setup.InstallHooks(path)
//	err := setup.RemoveHooks(path)
package setup
