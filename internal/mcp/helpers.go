package mcp

import (
	"fmt"
	"time"
)

// parseDurationOrDate parses a duration (24h, 7d) relative to now, or an ISO
// date, or an RFC3339 time.
func parseDurationOrDate(value string, now time.Time) (time.Time, error) {
	if duration, err := time.ParseDuration(value); err == nil {
		return now.UTC().Add(-duration), nil
	}

	if len(value) > 1 && value[len(value)-1] == 'd' {
		var days int
		if _, err := fmt.Sscanf(value, "%dd", &days); err == nil && days > 0 {
			return now.UTC().AddDate(0, 0, -days), nil
		}
	}

	if parsed, err := time.Parse("2006-01-02", value); err == nil {
		return parsed, nil
	}
	if parsed, err := time.Parse(time.RFC3339, value); err == nil {
		return parsed, nil
	}

	return time.Time{}, fmt.Errorf("cannot parse %q as duration or date", value)
}
