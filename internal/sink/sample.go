// Package sink persists recorded samples to append-only destinations keyed
// by activity label.
package sink

import (
	"strconv"
	"time"

	"github.com/stairlog/agent/internal/session"
)

// TimestampLayout is the ISO-8601 layout of persisted timestamps: local
// time with microseconds and no zone designator.
const TimestampLayout = "2006-01-02T15:04:05.000000"

// Sample is one accelerometer reading tagged with the label that was current
// when it was captured.
type Sample struct {
	Time    time.Time
	X, Y, Z float32 // g
	Label   session.Label
	RunID   string
}

// Record returns the persisted form [timestamp, x, y, z, label].
func (s Sample) Record() []string {
	return []string{
		s.Time.Format(TimestampLayout),
		formatAxis(s.X),
		formatAxis(s.Y),
		formatAxis(s.Z),
		s.Label.String(),
	}
}

func formatAxis(v float32) string {
	return strconv.FormatFloat(float64(v), 'f', -1, 32)
}

// Destination identifies an append-only log: a collection (directory) and a
// base filename within it.
type Destination struct {
	Collection string
	Base       string
}

var destinations = map[session.Label]Destination{
	session.WalkingUp:   {Collection: "walkingup", Base: "up_ML1"},
	session.WalkingDown: {Collection: "walkingdown", Base: "dw_ML1"},
}

// DestinationFor returns the destination samples with label l go to. Each
// label has its own destination.
func DestinationFor(l session.Label) Destination {
	if d, ok := destinations[l]; ok {
		return d
	}
	return Destination{Collection: l.String(), Base: l.String()}
}

// Key returns "collection/base".
func (d Destination) Key() string {
	return d.Collection + "/" + d.Base
}

// Sink appends samples. Implementations create a destination on its first
// write and never rewrite earlier records.
type Sink interface {
	Append(dest Destination, s Sample) error
	Close() error
}
