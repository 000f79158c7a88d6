package export

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/gorewood/promptlog/internal/analyzer"
)

// JSON returns the report as indented JSON with a trailing newline.
func JSON(r *analyzer.Report) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(r); err != nil {
		return nil, fmt.Errorf("encoding report: %w", err)
	}
	return buf.Bytes(), nil
}

// MetricsJSON returns only the numeric summary of the report.
func MetricsJSON(r *analyzer.Report) ([]byte, error) {
	metrics := struct {
		Found         bool                 `json:"found"`
		EntriesParsed int                  `json:"entries_parsed"`
		SkippedLines  int                  `json:"skipped_lines"`
		Sessions      int                  `json:"sessions"`
		Prompt        analyzer.LengthStats `json:"prompt_length"`
		QuestionRatio float64              `json:"question_ratio"`
		CommandRatio  float64              `json:"command_ratio"`
		Secrets       int                  `json:"secrets"`
		Truncated     int                  `json:"truncated"`
	}{
		Found:         r.Found,
		EntriesParsed: r.EntriesParsed,
		SkippedLines:  r.SkippedLines,
		Sessions:      len(r.Sessions),
		Prompt:        r.Prompt,
		QuestionRatio: r.QuestionRatio,
		CommandRatio:  r.CommandRatio,
		Secrets:       r.Secrets.Total,
		Truncated:     r.Truncated,
	}
	data, err := json.MarshalIndent(metrics, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encoding metrics: %w", err)
	}
	return append(data, '\n'), nil
}
