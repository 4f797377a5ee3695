package models

import "time"

// Snapshot is the full view model produced by one poll. It is immutable
// once built: rendering is always a pure function of the latest snapshot,
// and no command mutates it.
type Snapshot struct {
	TakenAt  time.Time   `json:"takenAt"`
	Devices  []Device    `json:"devices"`
	Logs     []LogEntry  `json:"logs"`
	Timeline []PhaseSpan `json:"timeline"`
	// StoreOK is false when the poll could not reach the store and the
	// snapshot carries over the previous cycle's data.
	StoreOK bool `json:"storeOk"`
}

// EmptySnapshot returns a snapshot with no devices and no logs, used before
// the first poll completes and when the device list key is absent.
func EmptySnapshot() *Snapshot {
	return &Snapshot{
		TakenAt:  time.Now(),
		Devices:  []Device{},
		Logs:     []LogEntry{},
		Timeline: []PhaseSpan{},
		StoreOK:  true,
	}
}

// Device returns the device with the given name, if present.
func (s *Snapshot) Device(name string) (Device, bool) {
	for _, d := range s.Devices {
		if d.Name == name {
			return d, true
		}
	}
	return Device{}, false
}
