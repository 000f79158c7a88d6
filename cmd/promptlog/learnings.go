package main

import (
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/gorewood/promptlog/internal/filter"
	"github.com/gorewood/promptlog/internal/learnings"
	"github.com/gorewood/promptlog/internal/memstore"
	"github.com/gorewood/promptlog/internal/output"
)

// newLearningsCmd creates the learnings parent command.
func newLearningsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "learnings",
		Short: "Inspect tool learnings",
		Long: `Inspect the learnings captured from notable tool output.

Subcommands:
  list      List stored learnings, newest first
  detect    Score a tool response read from stdin
  delete    Delete a stored learning by ID`,
	}
	cmd.AddCommand(newLearningsListCmd())
	cmd.AddCommand(newLearningsDetectCmd())
	cmd.AddCommand(newLearningsDeleteCmd())
	return cmd
}

type learningsListFlags struct {
	spec     string
	category string
	tool     string
	limit    int
}

func newLearningsListCmd() *cobra.Command {
	var flags learningsListFlags
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List stored learnings",
		Long: `List stored learnings, newest first.

Examples:
  promptlog learnings list
  promptlog learnings list --category error --limit 5
  promptlog learnings list --spec myproject --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runLearningsList(cmd, flags)
		},
	}
	cmd.Flags().StringVar(&flags.spec, "spec", "", "Only learnings for this project")
	cmd.Flags().StringVar(&flags.category, "category", "", "Only this category: error, workaround, discovery or warning")
	cmd.Flags().StringVar(&flags.tool, "tool", "", "Only learnings from this tool")
	cmd.Flags().IntVar(&flags.limit, "limit", memstore.DefaultListLimit, "Maximum learnings to list")
	return cmd
}

// openLearningsStore opens the learnings database. Unless create is set, a
// missing database yields a nil store and no error.
func openLearningsStore(create bool) (*memstore.Store, error) {
	dir := learningsDir()
	if !create {
		if _, err := os.Stat(filepath.Join(dir, memstore.FileName)); err != nil {
			return nil, nil
		}
	}
	store, err := memstore.Open(dir)
	if err != nil {
		return nil, output.NewSystemErrorWithCause("failed to open learnings store", err)
	}
	return store, nil
}

func runLearningsList(cmd *cobra.Command, flags learningsListFlags) error {
	printer := newPrinter(cmd)

	opts := memstore.ListOptions{Spec: flags.spec, Tool: flags.tool, Limit: flags.limit}
	if flags.category != "" {
		c, err := learnings.ParseCategory(flags.category)
		if err != nil {
			err = output.NewUserError(err.Error())
			printer.Error(err)
			return err
		}
		opts.Category = c
	}
	if flags.limit < 0 {
		err := output.NewUserError("--limit must not be negative")
		printer.Error(err)
		return err
	}

	store, err := openLearningsStore(false)
	if err != nil {
		printer.Error(err)
		return err
	}
	records := []memstore.Record{}
	if store != nil {
		defer func() { _ = store.Close() }()
		records, err = store.List(opts)
		if err != nil {
			err = output.NewSystemErrorWithCause("failed to list learnings", err)
			printer.Error(err)
			return err
		}
	}

	if printer.IsJSON() {
		return printer.Success(map[string]any{
			"learnings": records,
			"count":     len(records),
		})
	}

	if len(records) == 0 {
		printer.Println("No learnings found.")
		return nil
	}
	headers := []string{"ID", "Severity", "Category", "Tool", "Summary", "Age"}
	rows := make([][]string, 0, len(records))
	for _, r := range records {
		l := r.Learning
		rows = append(rows, []string{
			l.ID,
			printer.Severity(string(l.Severity)),
			string(l.Category),
			l.Tool,
			l.Summary,
			humanize.Time(l.CreatedAt),
		})
	}
	printer.Table(headers, rows)
	return nil
}

type learningsDetectFlags struct {
	tool      string
	context   string
	spec      string
	threshold float64
}

func newLearningsDetectCmd() *cobra.Command {
	var flags learningsDetectFlags
	cmd := &cobra.Command{
		Use:   "detect",
		Short: "Score a tool response without storing it",
		Long: `Read a tool response from stdin and report its detection score, matched
signals and the learning that would be captured. Nothing is stored.

The response may be a JSON object (stdout, stderr, exit_code, ...) or plain
text, which is treated as the tool output.

Examples:
  echo '{"stdout":"","exit_code":1}' | promptlog learnings detect --tool Bash
  go test ./... 2>&1 | promptlog learnings detect --tool Bash --context "go test"`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runLearningsDetect(cmd, flags)
		},
	}
	cmd.Flags().StringVar(&flags.tool, "tool", "Bash", "Tool name the response came from")
	cmd.Flags().StringVar(&flags.context, "context", "", "What the tool was asked to do")
	cmd.Flags().StringVar(&flags.spec, "spec", "", "Project the learning belongs to")
	cmd.Flags().Float64Var(&flags.threshold, "threshold", 0, "Capture threshold (default from config)")
	return cmd
}

func runLearningsDetect(cmd *cobra.Command, flags learningsDetectFlags) error {
	printer := newPrinter(cmd)

	data, err := io.ReadAll(cmd.InOrStdin())
	if err != nil {
		err = output.NewSystemErrorWithCause("failed to read stdin", err)
		printer.Error(err)
		return err
	}
	response, err := parseToolResponse(data)
	if err != nil {
		err = output.NewUserErrorf("invalid tool response: %v", err)
		printer.Error(err)
		return err
	}

	ws, err := loadWorkspace()
	if err != nil {
		printer.Error(err)
		return err
	}
	threshold := ws.Config.Learnings.Threshold
	if flags.threshold > 0 {
		threshold = flags.threshold
	}
	spec := flags.spec
	if spec == "" {
		spec = filepath.Base(ws.ProjectDir)
	}

	home, _ := os.UserHomeDir()
	x := &learnings.Extractor{
		Detector:     learnings.NewDetector(threshold),
		Filter:       filter.New(filter.Options{MaxBytes: ws.Config.MaxContentBytes}),
		Paths:        filter.PathSanitizer{Home: home},
		ExcerptBytes: ws.Config.Learnings.ExcerptBytes,
	}
	res := x.Run(flags.tool, response, flags.context, spec)
	if res.Err != nil {
		err = output.NewSystemErrorWithCause("detection failed", res.Err)
		printer.Error(err)
		return err
	}

	if printer.IsJSON() {
		return printer.Success(map[string]any{
			"detection": res.Detection,
			"reason":    res.Reason,
			"learning":  res.Learning,
		})
	}

	printer.Section("Detection")
	printer.KeyValue("Score", strconv.FormatFloat(res.Detection.Score, 'f', 2, 64))
	printer.KeyValue("Capture", strconv.FormatBool(res.Detection.ShouldCapture))
	for _, name := range res.Detection.SignalNames() {
		printer.Bullet(name)
	}
	if res.Learning == nil {
		return nil
	}
	l := res.Learning
	printer.Section("Learning")
	printer.KeyValue("Category", string(l.Category))
	printer.KeyValue("Severity", printer.Severity(string(l.Severity)))
	printer.KeyValue("Summary", l.Summary)
	printer.KeyValue("Tags", strings.Join(l.Tags, ", "))
	printer.Println()
	printer.Println(l.OutputExcerpt)
	return nil
}

// parseToolResponse accepts a JSON tool response or plain output text.
func parseToolResponse(data []byte) (map[string]any, error) {
	if json.Valid(data) {
		return learnings.ParseResponse(data)
	}
	return map[string]any{"output": string(data)}, nil
}

func newLearningsDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a stored learning",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			printer := newPrinter(cmd)
			store, err := openLearningsStore(false)
			if err != nil {
				printer.Error(err)
				return err
			}
			if store == nil {
				err := output.NewUserError("no learning with ID " + args[0])
				printer.Error(err)
				return err
			}
			defer func() { _ = store.Close() }()

			deleted, err := store.Delete(args[0])
			if err != nil {
				err = output.NewSystemErrorWithCause("failed to delete learning", err)
				printer.Error(err)
				return err
			}
			if !deleted {
				err := output.NewUserError("no learning with ID " + args[0])
				printer.Error(err)
				return err
			}
			return printer.Success(map[string]any{
				"status":  "deleted",
				"id":      args[0],
				"message": "Deleted learning " + args[0],
			})
		},
	}
}
