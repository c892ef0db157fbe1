// Package sim provides software stand-ins for the button, the IMU and the
// OLED so the agent can run in a terminal without hardware.
package sim

import (
	"sync"
	"time"

	"github.com/stairlog/agent/internal/clock"
)

const (
	// PressPulse is how long one key press holds the virtual button down.
	// It outlasts the detector's debounce so every key press survives it.
	PressPulse = 80 * time.Millisecond

	// releaseGap separates presses queued back to back so each produces
	// its own falling edge.
	releaseGap = 20 * time.Millisecond
)

type pulse struct {
	from, to time.Time
}

// Button is an active-low virtual push button. Each Press schedules a
// pulse of PressPulse; presses arriving while one is active queue up behind
// it.
type Button struct {
	mu     sync.Mutex
	clock  clock.Clock
	pulses []pulse
}

func NewButton(c clock.Clock) *Button {
	return &Button{clock: c}
}

// Press schedules one press.
func (b *Button) Press() {
	b.mu.Lock()
	defer b.mu.Unlock()
	start := b.clock.Now()
	if n := len(b.pulses); n > 0 {
		if next := b.pulses[n-1].to.Add(releaseGap); next.After(start) {
			start = next
		}
	}
	b.pulses = append(b.pulses, pulse{from: start, to: start.Add(PressPulse)})
}

// Read returns false while a pulse is active.
func (b *Button) Read() (bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	now := b.clock.Now()
	for len(b.pulses) > 0 && !now.Before(b.pulses[0].to) {
		b.pulses = b.pulses[1:]
	}
	if len(b.pulses) > 0 && !now.Before(b.pulses[0].from) {
		return false, nil
	}
	return true, nil
}
