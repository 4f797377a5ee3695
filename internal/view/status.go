// Package view projects raw store values into the rendered view model.
// Everything in this package is a pure function: same input, same output,
// no side effects and nothing that can panic on bad data.
package view

import (
	"strings"

	"github.com/fleet-dashboard/backend/internal/models"
)

// ColorUnknown is the neutral color for any status outside the canonical
// enumeration.
const ColorUnknown = "gray"

var statusColors = map[models.Status]string{
	models.StatusActive:   "green",
	models.StatusInactive: "red",
	models.StatusBuilding: "yellow",
	models.StatusError:    "orange",
}

// NormalizeStatus maps a raw status string onto the canonical enumeration
// {active, inactive, building, error}. The container-style vocabulary some
// producers write is folded in: running means active; exited, removed,
// paused and stopped all mean inactive. Anything else is unknown.
func NormalizeStatus(raw string) models.Status {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "active", "running":
		return models.StatusActive
	case "inactive", "exited", "removed", "paused", "stopped":
		return models.StatusInactive
	case "building":
		return models.StatusBuilding
	case "error":
		return models.StatusError
	}
	return models.StatusUnknown
}

// StatusColor returns the display color for a canonical status. Total over
// all inputs: an unrecognized status maps to the neutral color.
func StatusColor(s models.Status) string {
	if c, ok := statusColors[s]; ok {
		return c
	}
	return ColorUnknown
}

var phaseColors = map[string]string{
	"Monitor":   "#1f77b4",
	"Analyze":   "#ff7f0e",
	"Plan":      "#2ca02c",
	"Execute":   "#d62728",
	"Knowledge": "#9467bd",
}

// PhaseColor returns the fixed timeline color for a MAPE-K phase label.
// The lookup tolerates the "Analysis" spelling some producers use. ok is
// false when the label is not a phase.
func PhaseColor(label string) (string, bool) {
	name := canonicalPhase(label)
	if name == "" {
		return ColorUnknown, false
	}
	return phaseColors[name], true
}

// Phase returns the canonical phase name for a component label, or "" when
// the label is not a MAPE-K phase.
func Phase(label string) string {
	return canonicalPhase(label)
}

func canonicalPhase(label string) string {
	switch strings.ToLower(strings.TrimSpace(label)) {
	case "monitor":
		return "Monitor"
	case "analyze", "analysis":
		return "Analyze"
	case "plan":
		return "Plan"
	case "execute":
		return "Execute"
	case "knowledge":
		return "Knowledge"
	}
	return ""
}
