package models

// Action is a control action the dashboard can request for a component.
type Action string

const (
	ActionRun    Action = "run"
	ActionPause  Action = "pause"
	ActionBuild  Action = "build"
	ActionDelete Action = "delete"
)

// ValidAction reports whether a is one of the four dispatchable actions.
func ValidAction(a Action) bool {
	switch a {
	case ActionRun, ActionPause, ActionBuild, ActionDelete:
		return true
	}
	return false
}

// Command is the payload published to the orchestrator. Fire-and-forget:
// the dashboard tracks no acknowledgment for it.
type Command struct {
	RequestID string `json:"request_id"`
	Device    string `json:"device"`
	Component string `json:"component"`
	Action    Action `json:"action"`
	Timestamp int64  `json:"timestamp"`
}
