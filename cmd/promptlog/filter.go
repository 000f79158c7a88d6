package main

import (
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/gorewood/promptlog/internal/capture"
	"github.com/gorewood/promptlog/internal/output"
)

// newFilterCmd creates the filter command.
func newFilterCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "filter [text...]",
		Short: "Redact secrets from text",
		Long: `Redact secrets from text with the same filter used for prompt capture.

Reads the arguments joined by spaces, or stdin when no arguments are given.
With --json, prints the filtered text with per-type counts.

Examples:
  promptlog filter "export API_KEY=abc123"
  git diff | promptlog filter
  promptlog filter --json < notes.txt`,
		RunE: runFilter,
	}
}

func runFilter(cmd *cobra.Command, args []string) error {
	printer := newPrinter(cmd)

	var text string
	if len(args) > 0 {
		text = strings.Join(args, " ")
	} else {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			err = output.NewSystemErrorWithCause("failed to read stdin", err)
			printer.Error(err)
			return err
		}
		text = string(data)
	}

	ws, err := loadWorkspace()
	if err != nil {
		printer.Error(err)
		return err
	}
	f, err := capture.NewFilter(ws.Config)
	if err != nil {
		err = output.NewUserError(err.Error())
		printer.Error(err)
		return err
	}

	result := f.Apply(text)
	if printer.IsJSON() {
		return printer.WriteJSON(result)
	}
	printer.Print("%s", result.Text)
	if !strings.HasSuffix(result.Text, "\n") {
		printer.Println()
	}
	return nil
}
