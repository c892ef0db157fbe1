package dispatch

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stairlog/agent/internal/button"
	"github.com/stairlog/agent/internal/monitor"
	"github.com/stairlog/agent/internal/session"
)

type recordingDisplay struct {
	mu    sync.Mutex
	shown []string
	fail  bool
}

func (d *recordingDisplay) Show(text string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.fail {
		return errors.New("i2c: bus busy")
	}
	d.shown = append(d.shown, text)
	return nil
}

func (d *recordingDisplay) Clear() error { return nil }

func (d *recordingDisplay) texts() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]string(nil), d.shown...)
}

func TestHandleScenario(t *testing.T) {
	store := session.NewStore(session.WalkingUp)
	disp := &recordingDisplay{}
	d := New(store, disp, nil)

	steps := []struct {
		ev        button.ClickEvent
		text      string
		recording bool
		label     session.Label
	}{
		{button.Single, "REC: walkingup", true, session.WalkingUp},
		{button.Double, "REC: walkingdown", true, session.WalkingDown},
		{button.Single, "OFF", false, session.WalkingDown},
		{button.Double, "Label: walkingup", false, session.WalkingUp},
	}
	for i, s := range steps {
		if got := d.Handle(s.ev); got != s.text {
			t.Errorf("step %d: Handle(%v) = %q, want %q", i, s.ev, got, s.text)
		}
		snap := store.Snapshot()
		if snap.Recording != s.recording || snap.Label != s.label {
			t.Errorf("step %d: state = %+v, want recording=%v label=%v", i, snap, s.recording, s.label)
		}
	}

	want := []string{"REC: walkingup", "REC: walkingdown", "OFF", "Label: walkingup"}
	got := disp.texts()
	if len(got) != len(want) {
		t.Fatalf("display saw %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("display[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestDoubleTwiceRestoresLabel(t *testing.T) {
	store := session.NewStore(session.WalkingDown)
	d := New(store, &recordingDisplay{}, nil)

	d.Handle(button.Double)
	d.Handle(button.Double)
	if got := store.Label(); got != session.WalkingDown {
		t.Errorf("label after two Doubles = %v, want %v", got, session.WalkingDown)
	}
}

func TestDisplayFailureIsNotFatal(t *testing.T) {
	store := session.NewStore(session.WalkingUp)
	h := monitor.NewHealth(3, monitor.ComponentDisplay)
	d := New(store, &recordingDisplay{fail: true}, h)

	d.Handle(button.Single)
	if !store.Recording() {
		t.Error("state change must apply even when the display fails")
	}
	if h.Status(monitor.ComponentDisplay) != monitor.StatusDegraded {
		t.Errorf("display status = %v, want degraded", h.Status(monitor.ComponentDisplay))
	}
}

func TestUnknownEventIgnored(t *testing.T) {
	store := session.NewStore(session.WalkingUp)
	disp := &recordingDisplay{}
	d := New(store, disp, nil)

	if got := d.Handle(button.ClickEvent(99)); got != "" {
		t.Errorf("Handle(unknown) = %q, want empty", got)
	}
	if store.Recording() || len(disp.texts()) != 0 {
		t.Error("unknown event changed state or display")
	}
}

func TestRunProcessesInOrder(t *testing.T) {
	store := session.NewStore(session.WalkingUp)
	disp := &recordingDisplay{}
	d := New(store, disp, nil)
	q := button.NewQueue()

	for _, ev := range []button.ClickEvent{button.Double, button.Single, button.Double, button.Single} {
		q.Push(ev)
	}
	q.Close()

	done := make(chan struct{})
	go func() {
		d.Run(context.Background(), q)
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after the queue was closed and drained")
	}

	want := []string{"Label: walkingdown", "REC: walkingdown", "REC: walkingup", "OFF"}
	got := disp.texts()
	if len(got) != len(want) {
		t.Fatalf("display saw %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("display[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestRunStopsOnCancel(t *testing.T) {
	d := New(session.NewStore(session.WalkingUp), &recordingDisplay{}, nil)
	q := button.NewQueue()
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		d.Run(ctx, q)
		close(done)
	}()
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return on cancellation")
	}
}
