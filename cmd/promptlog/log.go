package main

import (
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/gorewood/promptlog/internal/output"
	"github.com/gorewood/promptlog/internal/promptlog"
)

// logFlags holds the flags for the log command.
type logFlags struct {
	last     int
	since    string
	until    string
	session  string
	typ      string
	oneline  bool
	sessions bool
}

// newLogCmd creates the log command.
func newLogCmd() *cobra.Command {
	var flags logFlags

	cmd := &cobra.Command{
		Use:   "log [path]",
		Short: "Show captured prompts",
		Long: `Show entries from a prompt log, oldest first. Without a path, reads the
log of the current project. Malformed lines are skipped and counted.

Examples:
  promptlog log --last 5                     # Last 5 prompts
  promptlog log --since 24h --oneline        # Today, compact
  promptlog log --session abc123             # One session
  promptlog log --sessions                   # List session IDs
  promptlog log --since 2026-01-01 --until 2026-01-15 --json`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLog(cmd, args, flags)
		},
	}

	cmd.Flags().IntVar(&flags.last, "last", 0, "Show only the last N entries")
	cmd.Flags().StringVar(&flags.since, "since", "", "Entries since duration (24h, 7d) or date (2026-01-17)")
	cmd.Flags().StringVar(&flags.until, "until", "", "Entries until duration (24h, 7d) or date (2026-01-17)")
	cmd.Flags().StringVar(&flags.session, "session", "", "Only entries from this session")
	cmd.Flags().StringVar(&flags.typ, "type", "", "Only entries of this type (user_input)")
	cmd.Flags().BoolVar(&flags.oneline, "oneline", false, "Show compact format: <time>  <prompt>")
	cmd.Flags().BoolVar(&flags.sessions, "sessions", false, "List session IDs instead of entries")

	return cmd
}

func runLog(cmd *cobra.Command, args []string, flags logFlags) error {
	printer := newPrinter(cmd)

	if flags.last < 0 {
		err := output.NewUserError("--last must be a positive integer")
		printer.Error(err)
		return err
	}

	path, err := analyzePath(args)
	if err != nil {
		printer.Error(err)
		return err
	}
	entries, stats, err := promptlog.ReadAll(path)
	if err != nil {
		err = output.NewSystemErrorWithCause("failed to read log", err)
		printer.Error(err)
		return err
	}

	entries, err = selectEntries(entries, flags, time.Now())
	if err != nil {
		printer.Error(err)
		return err
	}

	if flags.sessions {
		ids := promptlog.Sessions(entries)
		if ids == nil {
			ids = []string{}
		}
		if printer.IsJSON() {
			return printer.Success(map[string]any{"sessions": ids, "count": len(ids)})
		}
		for _, id := range ids {
			printer.Println(id)
		}
		return nil
	}

	if printer.IsJSON() {
		if entries == nil {
			entries = []*promptlog.Entry{}
		}
		return printer.Success(map[string]any{
			"log_path": path,
			"entries":  entries,
			"count":    len(entries),
			"skipped":  stats.Skipped,
		})
	}

	if stats.Skipped > 0 {
		printer.Warn("skipped %d malformed line(s), first at line %d", stats.Skipped, stats.FirstSkippedLine)
	}
	if len(entries) == 0 {
		printer.Println("No entries found.")
		return nil
	}
	if flags.oneline {
		for _, e := range entries {
			printer.Println(e.Timestamp + "  " + firstLineOf(e.Content))
		}
		return nil
	}
	for _, e := range entries {
		printer.Section(e.Timestamp)
		printer.KeyValue("Session", e.SessionID)
		if cmdName := e.CommandName(); cmdName != "" {
			printer.KeyValue("Command", cmdName)
		}
		if e.FilterInfo.SecretCount > 0 {
			printer.KeyValue("Redacted", strconv.Itoa(e.FilterInfo.SecretCount)+" ("+strings.Join(e.FilterInfo.Types, ", ")+")")
		}
		printer.Println(e.Content)
	}
	return nil
}

// selectEntries applies the log filters, sorted oldest first, keeping the
// last N when --last is set.
func selectEntries(entries []*promptlog.Entry, flags logFlags, now time.Time) ([]*promptlog.Entry, error) {
	if flags.session != "" {
		entries = promptlog.FilterBySession(entries, flags.session)
	}
	if flags.typ != "" {
		entries = promptlog.FilterByType(entries, promptlog.EntryType(flags.typ))
	}
	if flags.since != "" {
		cutoff, err := parseSinceValue(flags.since, now)
		if err != nil {
			return nil, output.NewUserError(err.Error())
		}
		entries = promptlog.FilterSince(entries, cutoff)
	}
	if flags.until != "" {
		cutoff, err := parseUntilValue(flags.until, now)
		if err != nil {
			return nil, output.NewUserError(err.Error())
		}
		entries = promptlog.FilterUntil(entries, cutoff)
	}
	promptlog.SortByTimestamp(entries)
	if flags.last > 0 && len(entries) > flags.last {
		entries = entries[len(entries)-flags.last:]
	}
	return entries, nil
}

func firstLineOf(s string) string {
	line, _, cut := strings.Cut(strings.TrimSpace(s), "\n")
	if cut {
		return line + " …"
	}
	return line
}
