package promptlog

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
)

// ScanStats counts what a read encountered.
type ScanStats struct {
	Parsed  int `json:"parsed"`
	Skipped int `json:"skipped"`
	// Total counts non-blank lines.
	Total int `json:"total"`
	// FirstSkippedLine is the 1-based line number of the first malformed line, or 0.
	FirstSkippedLine int `json:"first_skipped_line,omitempty"`
}

// Scan streams entries from path to fn. Blank lines are ignored and malformed
// lines are skipped and counted. A missing file yields zero stats and no
// error. An error returned by fn stops the scan and is returned as-is.
func Scan(path string, fn func(*Entry) error) (ScanStats, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return ScanStats{}, nil
		}
		return ScanStats{}, fmt.Errorf("opening log %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	return ScanReader(f, fn)
}

// ScanReader is Scan over an arbitrary reader.
func ScanReader(r io.Reader, fn func(*Entry) error) (ScanStats, error) {
	var stats ScanStats
	br := bufio.NewReaderSize(r, 64*1024)
	lineNo := 0
	for {
		line, readErr := br.ReadBytes('\n')
		if len(line) > 0 {
			lineNo++
			if err := scanLine(line, lineNo, &stats, fn); err != nil {
				return stats, err
			}
		}
		if readErr != nil {
			if errors.Is(readErr, io.EOF) {
				return stats, nil
			}
			return stats, fmt.Errorf("reading log: %w", readErr)
		}
	}
}

func scanLine(line []byte, lineNo int, stats *ScanStats, fn func(*Entry) error) error {
	line = bytes.TrimSpace(line)
	if len(line) == 0 {
		return nil
	}
	stats.Total++
	entry, err := FromJSON(line)
	if err != nil {
		stats.Skipped++
		if stats.FirstSkippedLine == 0 {
			stats.FirstSkippedLine = lineNo
		}
		return nil
	}
	stats.Parsed++
	return fn(entry)
}

// ReadAll returns every parseable entry in path in file order.
func ReadAll(path string) ([]*Entry, ScanStats, error) {
	var entries []*Entry
	stats, err := Scan(path, func(e *Entry) error {
		entries = append(entries, e)
		return nil
	})
	return entries, stats, err
}
