package session

import "time"

// EventType classifies session state changes.
type EventType int

const (
	EventRecording EventType = iota // recording flag flipped
	EventLabel                      // label toggled
)

func (t EventType) String() string {
	switch t {
	case EventRecording:
		return "recording"
	case EventLabel:
		return "label"
	}
	return "unknown"
}

// Event carries the state immediately after a change to observers.
type Event struct {
	Type  EventType
	State Snapshot
	At    time.Time
}
