package main

import (
	"testing"
	"time"
)

func TestParseSinceValue(t *testing.T) {
	now := time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)
	tests := []struct {
		name    string
		input   string
		want    time.Time
		wantErr bool
	}{
		{"24 hours", "24h", now.Add(-24 * time.Hour), false},
		{"7 days", "7d", now.AddDate(0, 0, -7), false},
		{"2 weeks", "2w", now.AddDate(0, 0, -14), false},
		{"1 month", "1m", time.Date(2026, 2, 15, 12, 0, 0, 0, time.UTC), false},
		{"ISO date", "2026-01-15", time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC), false},
		{"RFC3339", "2026-01-15T10:30:00Z", time.Date(2026, 1, 15, 10, 30, 0, 0, time.UTC), false},
		{"invalid unit", "5x", time.Time{}, true},
		{"no number", "d", time.Time{}, true},
		{"zero", "0d", time.Time{}, true},
		{"negative", "-5d", time.Time{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseSinceValue(tt.input, now)
			if tt.wantErr {
				if err == nil {
					t.Errorf("parseSinceValue(%q) expected error, got nil", tt.input)
				}
				return
			}
			if err != nil {
				t.Fatalf("parseSinceValue(%q) unexpected error: %v", tt.input, err)
			}
			if !got.Equal(tt.want) {
				t.Errorf("parseSinceValue(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestParseUntilValue_DateIsEndOfDay(t *testing.T) {
	got, err := parseUntilValue("2026-01-15", time.Now())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := time.Date(2026, 1, 15, 23, 59, 59, 999_000_000, time.UTC)
	if !got.Equal(want) {
		t.Errorf("parseUntilValue = %v, want %v", got, want)
	}
}
