// Package models contains domain types for the fleet dashboard backend.
package models

// Status is the canonical component status enumeration.
type Status string

const (
	StatusActive   Status = "active"
	StatusInactive Status = "inactive"
	StatusBuilding Status = "building"
	StatusError    Status = "error"
	// StatusUnknown covers an absent or unrecognized status key.
	StatusUnknown Status = "unknown"
)

// Component is a single controllable unit belonging to a device.
type Component struct {
	Name   string `json:"name"`
	Device string `json:"device"`
	Status Status `json:"status"`
	Color  string `json:"color"`
	// Phase is set when the component name matches a MAPE-K phase label.
	Phase      string `json:"phase,omitempty"`
	PhaseColor string `json:"phaseColor,omitempty"`
}

// Device is one monitored device with its components.
type Device struct {
	Name string `json:"name"`
	// Heartbeat is the raw epoch-seconds value from the store, 0 when
	// absent or malformed.
	Heartbeat  int64       `json:"heartbeat"`
	LastSeen   string      `json:"lastSeen"`
	Stale      bool        `json:"stale"`
	Components []Component `json:"components"`
}

// PhaseSpan is one execution bar on the live timeline.
type PhaseSpan struct {
	Source   string  `json:"source"`
	Phase    string  `json:"phase,omitempty"`
	Color    string  `json:"color"`
	Start    float64 `json:"start"`    // epoch seconds
	Duration float64 `json:"duration"` // seconds
}
