// Package clock provides the time source and sleep primitive shared by the
// polling loops.
//
// Every loop in the agent sleeps through a Clock so that shutdown is observed
// at the next poll boundary and tests can drive the loops with virtual time.
package clock

import (
	"context"
	"time"
)

// Clock is a monotonic time source with a cancellable sleep.
type Clock interface {
	// Now returns the current instant. Values from the System clock carry a
	// monotonic reading, so differences between them are immune to wall-clock
	// adjustments.
	Now() time.Time

	// Sleep blocks for d or until ctx is done, whichever comes first.
	// It returns false if ctx ended before the sleep completed.
	Sleep(ctx context.Context, d time.Duration) bool
}

// System is the Clock backed by the runtime timer.
type System struct{}

// Now returns time.Now().
func (System) Now() time.Time {
	return time.Now()
}

// Sleep waits on a timer and ctx.
func (System) Sleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

// Since returns the time elapsed on c since t.
func Since(c Clock, t time.Time) time.Duration {
	return c.Now().Sub(t)
}
