// Package output renders promptlog command results for people and for agents.
//
// Every command writes through a Printer. In human mode it styles text with
// lipgloss (plain when piped); with --json it emits one JSON document:
//
//	printer := output.NewPrinter(cmd.OutOrStdout(), jsonFlag, output.IsTTY(cmd.OutOrStdout()))
//	printer.Success(map[string]any{"message": "capture enabled", "project": dir})
//
// Errors carry process exit codes:
//
//	output.ExitSuccess     // 0
//	output.ExitUserError   // 1: bad arguments, unknown format
//	output.ExitSystemError // 2: unreadable log, I/O failure
//	output.ExitConflict    // 3: already enabled, archive exists
//
// Hook commands never use a Printer; their stdout is reserved for the host
// protocol.
package output
