package store

import (
	"fmt"
	"strings"
)

// Key layout shared with the data producers and the orchestrator. All keys
// are plain strings, no binary formats.
const (
	// DeviceListKey holds the list of known device names.
	DeviceListKey = "devices:list"
	// LogSuffix marks a key as a log source; any key ending in it is
	// discovered dynamically.
	LogSuffix = ":logs"
	// DashboardSource is the fixed log source for the dashboard itself.
	DashboardSource = "dashboard"
)

// HeartbeatKey returns the key holding a device's last-seen epoch seconds.
func HeartbeatKey(device string) string {
	return fmt.Sprintf("devices:%s:heartbeat", device)
}

// NodesKey returns the key listing a device's component names.
func NodesKey(device string) string {
	return fmt.Sprintf("devices:%s:nodes", device)
}

// StatusKey returns the key holding a component's status.
func StatusKey(device, component string) string {
	return fmt.Sprintf("devices:%s:%s:status", device, component)
}

// LogKey returns the log-source key for a source name.
func LogKey(source string) string {
	return source + LogSuffix
}

// StartExecutionKey returns the key holding a component's last execution
// start, epoch seconds.
func StartExecutionKey(component string) string {
	return component + ":start_execution"
}

// ExecutionTimeKey returns the key holding a component's last execution
// duration in seconds.
func ExecutionTimeKey(component string) string {
	return component + ":execution_time"
}

// CommandChannel returns the pub/sub channel for a component's control
// commands. One channel per component; the action rides in the payload.
func CommandChannel(device, component string) string {
	return fmt.Sprintf("commands:%s:%s", device, component)
}

// LogSource extracts the source name from a log key, and reports whether
// the key is a log key at all.
func LogSource(key string) (string, bool) {
	if !strings.HasSuffix(key, LogSuffix) {
		return "", false
	}
	source := strings.TrimSuffix(key, LogSuffix)
	if source == "" {
		return "", false
	}
	return source, true
}
