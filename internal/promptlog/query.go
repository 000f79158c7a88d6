package promptlog

import (
	"slices"
	"time"
)

// FilterBySession returns the entries belonging to sessionID.
func FilterBySession(entries []*Entry, sessionID string) []*Entry {
	var result []*Entry
	for _, entry := range entries {
		if entry.SessionID == sessionID {
			result = append(result, entry)
		}
	}
	return result
}

// FilterByType returns the entries of the given type.
func FilterByType(entries []*Entry, entryType EntryType) []*Entry {
	var result []*Entry
	for _, entry := range entries {
		if entry.EntryType == entryType {
			result = append(result, entry)
		}
	}
	return result
}

// FilterSince returns entries stamped at or after cutoff.
// Entries with unparseable timestamps are dropped.
func FilterSince(entries []*Entry, cutoff time.Time) []*Entry {
	var result []*Entry
	for _, entry := range entries {
		t, err := entry.Time()
		if err == nil && !t.Before(cutoff) {
			result = append(result, entry)
		}
	}
	return result
}

// FilterUntil returns entries stamped at or before cutoff.
func FilterUntil(entries []*Entry, cutoff time.Time) []*Entry {
	var result []*Entry
	for _, entry := range entries {
		t, err := entry.Time()
		if err == nil && !t.After(cutoff) {
			result = append(result, entry)
		}
	}
	return result
}

// SortByTimestamp sorts entries oldest first. The sort is stable; entries with
// unparseable timestamps sort first.
func SortByTimestamp(entries []*Entry) {
	slices.SortStableFunc(entries, func(a, b *Entry) int {
		ta, _ := a.Time()
		tb, _ := b.Time()
		return ta.Compare(tb)
	})
}

// Sessions returns the distinct session IDs in first-seen order.
func Sessions(entries []*Entry) []string {
	seen := make(map[string]bool)
	var ids []string
	for _, entry := range entries {
		if !seen[entry.SessionID] {
			seen[entry.SessionID] = true
			ids = append(ids, entry.SessionID)
		}
	}
	return ids
}
