package main

import (
	"fmt"
	"regexp"
	"strconv"
	"time"
)

// durationRegex matches duration strings like "24h", "7d", "2w", "1m".
var durationRegex = regexp.MustCompile(`^(\d+)([hdwm])$`)

const timeValueHint = "use duration (24h, 7d, 2w) or date (2026-01-17)"

// parseSinceValue parses a --since value into an inclusive lower bound.
func parseSinceValue(value string, now time.Time) (time.Time, error) {
	t, err := parseTimeValue(value, now)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid --since value %q; %s", value, timeValueHint)
	}
	return t, nil
}

// parseUntilValue parses a --until value into an inclusive upper bound.
// Dates extend to the last millisecond of the day, the log's resolution.
func parseUntilValue(value string, now time.Time) (time.Time, error) {
	cutoff, err := parseTimeValue(value, now)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid --until value %q; %s", value, timeValueHint)
	}
	if len(value) == 10 && value[4] == '-' && value[7] == '-' {
		cutoff = cutoff.Add(24*time.Hour - time.Millisecond)
	}
	return cutoff, nil
}

// parseTimeValue parses a duration back from now, a date or an RFC3339 time.
func parseTimeValue(value string, now time.Time) (time.Time, error) {
	if matches := durationRegex.FindStringSubmatch(value); len(matches) == 3 {
		return durationBefore(now.UTC(), matches[1], matches[2])
	}
	if t, err := time.Parse("2006-01-02", value); err == nil {
		return t, nil
	}
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t, nil
	}
	return time.Time{}, fmt.Errorf("invalid time value: %s", value)
}

func durationBefore(now time.Time, numStr, unit string) (time.Time, error) {
	num, err := strconv.Atoi(numStr)
	if err != nil || num <= 0 {
		return time.Time{}, fmt.Errorf("invalid duration number: %s", numStr)
	}

	switch unit {
	case "h":
		return now.Add(-time.Duration(num) * time.Hour), nil
	case "d":
		return now.AddDate(0, 0, -num), nil
	case "w":
		return now.AddDate(0, 0, -num*7), nil
	case "m":
		return now.AddDate(0, -num, 0), nil
	default:
		return time.Time{}, fmt.Errorf("unknown duration unit: %s", unit)
	}
}
