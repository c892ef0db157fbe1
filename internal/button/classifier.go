package button

import "time"

// Classifier resolves debounced edges into Single and Double clicks.
//
// It has two states: idle, and awaiting a second edge after a first one at
// instant first. A second edge no later than first+window (inclusive) yields
// Double. Once time passes first+window without one, the gesture yields
// Single. Each gesture yields exactly one event.
//
// Classifier is not safe for concurrent use; the Detector owns it.
type Classifier struct {
	window  time.Duration
	waiting bool
	first   time.Time
}

// NewClassifier returns an idle classifier with the given double-click window.
func NewClassifier(window time.Duration) *Classifier {
	return &Classifier{window: window}
}

// Window returns the double-click window.
func (c *Classifier) Window() time.Duration {
	return c.window
}

// Pending reports whether a first edge is awaiting resolution.
func (c *Classifier) Pending() bool {
	return c.waiting
}

// Edge feeds a debounced falling edge observed at t.
//
// If a first edge is pending and t is within the window, Edge returns Double
// and the classifier goes idle. If the pending edge has already expired (the
// timeout tick was not evaluated in time), that gesture is resolved as
// Single and t starts a new gesture. Otherwise t becomes the pending first
// edge and nothing is emitted yet.
func (c *Classifier) Edge(t time.Time) (ClickEvent, bool) {
	if c.waiting {
		if t.Sub(c.first) <= c.window {
			c.reset()
			return Double, true
		}
		c.first = t
		return Single, true
	}
	c.waiting = true
	c.first = t
	return 0, false
}

// Tick resolves a pending first edge as Single once now is past the window.
func (c *Classifier) Tick(now time.Time) (ClickEvent, bool) {
	if c.waiting && now.Sub(c.first) > c.window {
		c.reset()
		return Single, true
	}
	return 0, false
}

func (c *Classifier) reset() {
	c.waiting = false
	c.first = time.Time{}
}
