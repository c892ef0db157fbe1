// Package dispatch applies click events to the shared session state and
// keeps the display in step with it.
package dispatch

import (
	"context"
	"log"

	"github.com/stairlog/agent/internal/button"
	"github.com/stairlog/agent/internal/fault"
	"github.com/stairlog/agent/internal/monitor"
	"github.com/stairlog/agent/internal/session"
)

// Display shows short status text. Both calls are best-effort.
type Display interface {
	Show(text string) error
	Clear() error
}

// Dispatcher is the single consumer of the click queue.
type Dispatcher struct {
	store   *session.Store
	display Display
	health  monitor.Recorder
}

// New returns a Dispatcher. A nil health recorder disables tracking.
func New(store *session.Store, display Display, health monitor.Recorder) *Dispatcher {
	if health == nil {
		health = monitor.Nop{}
	}
	return &Dispatcher{store: store, display: display, health: health}
}

// Run handles events from q in arrival order until ctx is done or q is
// closed and drained. Each event, state change and display update included,
// completes before the next is taken.
func (d *Dispatcher) Run(ctx context.Context, q *button.Queue) {
	log.Println("Dispatcher started")
	for {
		ev, ok := q.Next(ctx)
		if !ok {
			log.Println("Dispatcher stopped")
			return
		}
		d.Handle(ev)
	}
}

// Handle applies one click event and returns the text sent to the display.
//
// Single toggles recording. Double toggles the label regardless of the
// recording state. The state change is a single Store operation, so the
// sampling loop sees either the old or the new state, never a mix.
func (d *Dispatcher) Handle(ev button.ClickEvent) string {
	var text string
	switch ev {
	case button.Single:
		snap := d.store.ToggleRecording()
		if snap.Recording {
			text = "REC: " + snap.Label.String()
			log.Printf("Recording started (%s, run %s)", snap.Label, snap.RunID)
		} else {
			text = "OFF"
			log.Printf("Recording stopped (run %s)", snap.RunID)
		}
	case button.Double:
		snap := d.store.ToggleLabel()
		if snap.Recording {
			text = "REC: " + snap.Label.String()
		} else {
			text = "Label: " + snap.Label.String()
		}
		log.Printf("Label changed to: %s", snap.Label)
	default:
		log.Printf("Ignoring unknown click event %d", ev)
		return ""
	}
	d.show(text)
	return text
}

func (d *Dispatcher) show(text string) {
	if err := d.display.Show(text); err != nil {
		err = fault.New(fault.Display, "show "+text, err)
		log.Printf("Display update failed: %v", err)
		d.health.RecordFailure(monitor.ComponentDisplay, err)
		return
	}
	d.health.RecordSuccess(monitor.ComponentDisplay)
}
