package button

import (
	"context"
	"log"
	"time"

	"github.com/stairlog/agent/internal/clock"
	"github.com/stairlog/agent/internal/fault"
	"github.com/stairlog/agent/internal/monitor"
)

// Input is a digital input wired with a pull-up: Read returns true while the
// line is HIGH (released) and false while it is LOW (pressed).
type Input interface {
	Read() (bool, error)
}

// Timing holds the detector's polling contract.
type Timing struct {
	PollInterval      time.Duration
	Debounce          time.Duration
	DoubleClickWindow time.Duration
}

// Detector polls an Input, debounces falling edges and classifies them into
// click events pushed onto a Queue.
type Detector struct {
	input      Input
	clock      clock.Clock
	queue      *Queue
	timing     Timing
	classifier *Classifier
	health     monitor.Recorder

	readFailures int
}

// NewDetector returns a Detector. A nil health recorder disables tracking.
func NewDetector(in Input, c clock.Clock, q *Queue, timing Timing, health monitor.Recorder) *Detector {
	if health == nil {
		health = monitor.Nop{}
	}
	return &Detector{
		input:      in,
		clock:      c,
		queue:      q,
		timing:     timing,
		classifier: NewClassifier(timing.DoubleClickWindow),
		health:     health,
	}
}

// Run polls until ctx is done. Every iteration ends in a bounded sleep, so
// cancellation is observed within one poll interval (or one debounce hold).
func (d *Detector) Run(ctx context.Context) {
	last, ok := d.read()
	if !ok {
		last = true
	}
	log.Printf("Button detector started (poll=%v debounce=%v window=%v)",
		d.timing.PollInterval, d.timing.Debounce, d.classifier.Window())

	for {
		curr, ok := d.read()
		if !ok {
			// Keep the previous level so a failed read can't fake an edge.
			curr = last
		}

		if last && !curr {
			t := d.clock.Now()
			if !d.clock.Sleep(ctx, d.timing.Debounce) {
				break
			}
			if level, ok := d.read(); !ok || level {
				// Bounce or unreadable: discard, and treat the line as
				// released so the next LOW counts as a fresh edge.
				last = true
				d.resolve(d.clock.Now())
				continue
			}
			if ev, ok := d.classifier.Edge(t); ok {
				d.emit(ev)
			}
		}

		d.resolve(d.clock.Now())
		last = curr

		if !d.clock.Sleep(ctx, d.timing.PollInterval) {
			break
		}
	}
	log.Println("Button detector stopped")
}

// resolve ticks the classifier so a lone click times out into Single.
func (d *Detector) resolve(now time.Time) {
	if ev, ok := d.classifier.Tick(now); ok {
		d.emit(ev)
	}
}

func (d *Detector) emit(ev ClickEvent) {
	if !d.queue.Push(ev) {
		log.Printf("Click %s dropped: queue closed", ev)
	}
}

// read samples the input, logging the first failure of a run of failures and
// the recovery after it.
func (d *Detector) read() (bool, bool) {
	level, err := d.input.Read()
	if err != nil {
		err = fault.New(fault.HardwareRead, "button read", err)
		if d.readFailures == 0 {
			log.Printf("Button input read failed: %v", err)
		}
		d.readFailures++
		d.health.RecordFailure(monitor.ComponentInput, err)
		return false, false
	}
	if d.readFailures > 0 {
		log.Printf("Button input recovered after %d failed reads", d.readFailures)
		d.readFailures = 0
	}
	d.health.RecordSuccess(monitor.ComponentInput)
	return level, true
}
