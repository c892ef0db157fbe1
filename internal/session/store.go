package session

import (
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Snapshot is a consistent view of the shared session state.
type Snapshot struct {
	Recording bool  `json:"recording"`
	Label     Label `json:"label"`
	// RunID identifies the current recording run. It is assigned each time
	// recording turns on and kept after it turns off until the next run.
	RunID string `json:"runId,omitempty"`
}

// Store is the single owner of the recording flag and the current label.
// Every method runs in one critical section, so a reader never observes a
// partially applied change and a toggle is never interleaved with another.
type Store struct {
	mu      sync.Mutex
	state   Snapshot
	newRun  func() string
	events  chan<- Event // nil disables change events
	dropped int64
	lastLog time.Time
}

// NewStore returns a store with recording off and the given label.
func NewStore(initial Label) *Store {
	return &Store{
		state:  Snapshot{Label: initial},
		newRun: uuid.NewString,
	}
}

// SetEvents configures a channel that receives every state change. Sends
// never block; events are dropped when the channel is full. Pass nil to
// disable.
func (s *Store) SetEvents(ch chan<- Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = ch
}

// Snapshot returns the recording flag and label as one consistent read.
func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Recording reports whether samples are being recorded.
func (s *Store) Recording() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Recording
}

// Label returns the current label.
func (s *Store) Label() Label {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Label
}

// SetRecording sets the recording flag and returns the resulting state.
func (s *Store) SetRecording(on bool) Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.setRecordingLocked(on)
}

// ToggleRecording flips the recording flag and returns the resulting state.
func (s *Store) ToggleRecording() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.setRecordingLocked(!s.state.Recording)
}

// ToggleLabel switches to the other label and returns the resulting state.
// The recording flag is left unchanged.
func (s *Store) ToggleLabel() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.Label = s.state.Label.Toggle()
	s.emitLocked(EventLabel)
	return s.state
}

// setRecordingLocked applies a recording change. Caller must hold s.mu.
func (s *Store) setRecordingLocked(on bool) Snapshot {
	if s.state.Recording == on {
		return s.state
	}
	if on {
		s.state.RunID = s.newRun()
	}
	s.state.Recording = on
	s.emitLocked(EventRecording)
	return s.state
}

// emitLocked sends the current state to the events channel without blocking.
// Drops are logged at most once every 10 seconds. Caller must hold s.mu.
func (s *Store) emitLocked(t EventType) {
	if s.events == nil {
		return
	}
	select {
	case s.events <- Event{Type: t, State: s.state, At: time.Now()}:
	default:
		s.dropped++
		now := time.Now()
		if s.lastLog.IsZero() || now.Sub(s.lastLog) >= 10*time.Second {
			log.Printf("Session events dropped: %d (channel full)", s.dropped)
			s.dropped = 0
			s.lastLog = now
		}
	}
}
