package view

import (
	"sort"
	"time"

	"github.com/fleet-dashboard/backend/internal/models"
)

// Timestamp layouts producers are known to prefix log lines with, tried in
// order.
var logLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	time.RFC3339,
}

// TagLogLine wraps a raw line with its source and a best-effort leading
// timestamp. The line itself is left unparsed free text.
func TagLogLine(source, line string) models.LogEntry {
	entry := models.LogEntry{Source: source, Line: line}
	for _, layout := range logLayouts {
		if len(line) < len(layout) {
			continue
		}
		if ts, err := time.Parse(layout, line[:len(layout)]); err == nil {
			entry.Timestamp = ts
			break
		}
	}
	return entry
}

// SortLogEntries orders entries for display: timestamped lines first,
// oldest to newest, with untimestamped lines after them in arrival order.
// The sort is stable so lines from one source keep their store ordering.
func SortLogEntries(entries []models.LogEntry) {
	sort.SliceStable(entries, func(i, j int) bool {
		ti, tj := entries[i].Timestamp, entries[j].Timestamp
		if ti.IsZero() || tj.IsZero() {
			return !ti.IsZero() && tj.IsZero()
		}
		return ti.Before(tj)
	})
}
