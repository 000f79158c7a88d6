package main

import (
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/gorewood/promptlog/internal/analyzer"
	"github.com/gorewood/promptlog/internal/export"
	"github.com/gorewood/promptlog/internal/output"
	"github.com/gorewood/promptlog/internal/promptlog"
)

// analyzeFlags holds the flags for the analyze command.
type analyzeFlags struct {
	format      string
	metricsOnly bool
	session     string
	since       string
	until       string
	outFile     string
}

// newAnalyzeCmd creates the analyze command.
func newAnalyzeCmd() *cobra.Command {
	var flags analyzeFlags

	cmd := &cobra.Command{
		Use:   "analyze [path]",
		Short: "Report statistics and insights for a prompt log",
		Long: `Analyze a prompt log and report entry counts, sessions, prompt lengths,
command usage, secrets redacted and insights.

Without a path, analyzes the log of the current project. A missing log is
reported and is not an error.

Examples:
  promptlog analyze                          # Markdown report for this project
  promptlog analyze --metrics-only           # Metrics without insights
  promptlog analyze --format html -o out.html
  promptlog analyze --since 7d --json        # Last week, as JSON
  promptlog analyze path/to/x.prompt-log.json`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAnalyze(cmd, args, flags)
		},
	}

	cmd.Flags().StringVar(&flags.format, "format", "markdown", "Output format: markdown, json or html")
	cmd.Flags().BoolVar(&flags.metricsOnly, "metrics-only", false, "Omit insights")
	cmd.Flags().StringVar(&flags.session, "session", "", "Only analyze one session")
	cmd.Flags().StringVar(&flags.since, "since", "", "Only entries since duration (24h, 7d) or date")
	cmd.Flags().StringVar(&flags.until, "until", "", "Only entries until duration (24h, 7d) or date")
	cmd.Flags().StringVarP(&flags.outFile, "output", "o", "", "Write the report to a file instead of stdout")

	return cmd
}

func runAnalyze(cmd *cobra.Command, args []string, flags analyzeFlags) error {
	printer := newPrinter(cmd)

	format, err := export.ParseFormat(flags.format)
	if err != nil {
		err = output.NewUserError(err.Error())
		printer.Error(err)
		return err
	}
	if printer.IsJSON() {
		format = export.FormatJSON
	}

	opts, err := analyzeOptions(flags, time.Now())
	if err != nil {
		printer.Error(err)
		return err
	}

	path, err := analyzePath(args)
	if err != nil {
		printer.Error(err)
		return err
	}

	report, err := analyzer.AnalyzeWithOptions(path, opts)
	if err != nil {
		err = output.NewSystemErrorWithCause("failed to analyze log", err)
		printer.Error(err)
		return err
	}

	data, err := renderReport(report, format, flags.metricsOnly)
	if err != nil {
		err = output.NewSystemErrorWithCause("failed to render report", err)
		printer.Error(err)
		return err
	}

	if flags.outFile != "" {
		// #nosec G306 -- reports are meant to be shared
		if err := os.WriteFile(flags.outFile, data, 0o644); err != nil {
			err = output.NewSystemErrorWithCause("failed to write report", err)
			printer.Error(err)
			return err
		}
		if !printer.IsJSON() {
			printer.Println("Wrote report to " + flags.outFile)
		}
		return nil
	}

	printer.Print("%s", data)
	return nil
}

func analyzeOptions(flags analyzeFlags, now time.Time) (analyzer.Options, error) {
	opts := analyzer.Options{SessionID: flags.session}
	if flags.since != "" {
		t, err := parseSinceValue(flags.since, now)
		if err != nil {
			return opts, output.NewUserError(err.Error())
		}
		opts.Since = t
	}
	if flags.until != "" {
		t, err := parseUntilValue(flags.until, now)
		if err != nil {
			return opts, output.NewUserError(err.Error())
		}
		opts.Until = t
	}
	if !opts.Since.IsZero() && !opts.Until.IsZero() && opts.Until.Before(opts.Since) {
		return opts, output.NewUserError("--until is before --since")
	}
	return opts, nil
}

// analyzePath returns the explicit path argument, or the current project's log.
func analyzePath(args []string) (string, error) {
	if len(args) == 1 {
		return args[0], nil
	}
	ws, err := loadWorkspace()
	if err != nil {
		return "", err
	}
	return promptlog.LogPath(ws.ProjectDir, ws.Config.LogDir), nil
}

func renderReport(r *analyzer.Report, format export.Format, metricsOnly bool) ([]byte, error) {
	switch format {
	case export.FormatJSON:
		if metricsOnly {
			return export.MetricsJSON(r)
		}
		return export.JSON(r)
	case export.FormatHTML:
		return export.HTML(r, metricsOnly)
	default:
		if metricsOnly {
			return []byte(export.MetricsMarkdown(r)), nil
		}
		return []byte(export.Markdown(r)), nil
	}
}
