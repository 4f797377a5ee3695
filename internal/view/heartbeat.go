package view

import (
	"fmt"
	"strconv"
	"time"
)

// ParseHeartbeat parses an epoch-seconds heartbeat string. Producers write
// fractional seconds, so both "1700000000" and "1700000000.123" parse. A
// malformed or empty value is treated as absent, never as an error.
func ParseHeartbeat(raw string) (int64, bool) {
	if raw == "" {
		return 0, false
	}
	if f, err := strconv.ParseFloat(raw, 64); err == nil && f > 0 {
		return int64(f), true
	}
	return 0, false
}

// LastSeen renders a heartbeat as a relative "time since" string and a
// staleness flag. A device with no parseable heartbeat is stale with the
// text "never". staleAfter is the configured staleness threshold.
func LastSeen(heartbeat int64, now time.Time, staleAfter time.Duration) (string, bool) {
	if heartbeat <= 0 {
		return "never", true
	}
	since := now.Sub(time.Unix(heartbeat, 0))
	if since < 0 {
		since = 0
	}
	return relative(since), since > staleAfter
}

func relative(d time.Duration) string {
	switch {
	case d < time.Second:
		return "just now"
	case d < time.Minute:
		return fmt.Sprintf("%ds ago", int(d.Seconds()))
	case d < time.Hour:
		return fmt.Sprintf("%dm ago", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(d.Hours()))
	}
	return fmt.Sprintf("%dd ago", int(d.Hours()/24))
}
