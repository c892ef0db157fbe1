package ws

import (
	"time"

	"github.com/stairlog/agent/internal/monitor"
	"github.com/stairlog/agent/internal/sampler"
	"github.com/stairlog/agent/internal/session"
)

type MessageType string

const (
	MsgSnapshot MessageType = "snapshot"
	MsgState    MessageType = "state"
	MsgHealth   MessageType = "health"
)

type WSMessage struct {
	Type    MessageType `json:"type"`
	Payload interface{} `json:"payload"`
}

// State is the full agent status served by /api/state and carried in
// snapshot messages. It never contains sample data.
type State struct {
	session.Snapshot
	Stats  sampler.Stats             `json:"stats"`
	Health []monitor.ComponentStatus `json:"health"`
}

// StateFunc returns the current agent status.
type StateFunc func() State

type StateChangePayload struct {
	Event string    `json:"event"`
	At    time.Time `json:"at"`
	State State     `json:"state"`
}
