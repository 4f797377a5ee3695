package models

import "time"

// LogEntry is a single line pulled from a discovered log source.
type LogEntry struct {
	Source string `json:"source"`
	Line   string `json:"line"`
	// Timestamp is extracted from a leading timestamp prefix when one is
	// present; zero otherwise. Used for ordering, the line stays free text.
	Timestamp time.Time `json:"timestamp,omitempty"`
}
