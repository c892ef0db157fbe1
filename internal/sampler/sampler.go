// Package sampler runs the fixed-period accelerometer loop that writes
// labeled samples while recording is on.
package sampler

import (
	"context"
	"fmt"
	"log"
	"sync/atomic"
	"time"

	"github.com/stairlog/agent/internal/clock"
	"github.com/stairlog/agent/internal/fault"
	"github.com/stairlog/agent/internal/monitor"
	"github.com/stairlog/agent/internal/session"
	"github.com/stairlog/agent/internal/sink"
)

// Reading is a calibrated 3-axis acceleration in g.
type Reading struct {
	X, Y, Z float32
}

// Sensor returns one reading per call.
type Sensor interface {
	Read() (Reading, error)
}

// Timing holds the loop's rate contract.
type Timing struct {
	Period       time.Duration // target tick period while recording
	IdleInterval time.Duration // recheck interval while not recording
}

// Stats are cumulative loop counters.
type Stats struct {
	Written    int64 `json:"written"`
	Dropped    int64 `json:"dropped"`
	ReadErrors int64 `json:"readErrors"`
	Overruns   int64 `json:"overruns"`
}

func (s Stats) String() string {
	return fmt.Sprintf("written=%d dropped=%d read_errors=%d overruns=%d",
		s.Written, s.Dropped, s.ReadErrors, s.Overruns)
}

// Sampler reads the sensor on a fixed period and appends a Sample to the
// destination of the label current at capture time.
type Sampler struct {
	sensor Sensor
	store  *session.Store
	sink   sink.Sink
	clock  clock.Clock
	timing Timing
	health monitor.Recorder

	written    atomic.Int64
	dropped    atomic.Int64
	readErrors atomic.Int64
	overruns   atomic.Int64

	// Lengths of the current failure runs, used to log once per run. Only
	// touched by the Run goroutine.
	readRun  int
	writeRun int
}

// New returns a Sampler. A nil health recorder disables tracking.
func New(sensor Sensor, store *session.Store, sk sink.Sink, c clock.Clock, timing Timing, health monitor.Recorder) *Sampler {
	if health == nil {
		health = monitor.Nop{}
	}
	return &Sampler{
		sensor: sensor,
		store:  store,
		sink:   sk,
		clock:  c,
		timing: timing,
		health: health,
	}
}

// Stats returns a copy of the counters.
func (s *Sampler) Stats() Stats {
	return Stats{
		Written:    s.written.Load(),
		Dropped:    s.dropped.Load(),
		ReadErrors: s.readErrors.Load(),
		Overruns:   s.overruns.Load(),
	}
}

// Run loops until ctx is done.
func (s *Sampler) Run(ctx context.Context) {
	log.Printf("Sampler started (period=%v idle=%v)", s.timing.Period, s.timing.IdleInterval)
	for s.tick(ctx) {
	}
	log.Printf("Sampler stopped (%s)", s.Stats())
}

// tick runs one loop iteration and reports whether to continue.
//
// While recording is off it only waits IdleInterval. While recording it
// captures one sample and then sleeps for whatever is left of Period. An
// iteration that overruns Period starts the next one immediately and does
// not try to make up for the lost time.
func (s *Sampler) tick(ctx context.Context) bool {
	if ctx.Err() != nil {
		return false
	}
	start := s.clock.Now()
	if !s.store.Recording() {
		return s.clock.Sleep(ctx, s.timing.IdleInterval)
	}

	s.capture()

	delay := s.timing.Period - clock.Since(s.clock, start)
	if delay <= 0 {
		s.overruns.Add(1)
		return ctx.Err() == nil
	}
	return s.clock.Sleep(ctx, delay)
}

// capture reads the sensor and writes one sample. The label and run come
// from a single snapshot taken right after the read, so a toggle racing with
// the capture lands the sample wholly in one destination or the other.
func (s *Sampler) capture() {
	r, err := s.sensor.Read()
	if err != nil {
		s.readFailed(err)
		return
	}
	s.readOK()

	now := s.clock.Now()
	snap := s.store.Snapshot()
	if !snap.Recording {
		return
	}

	smp := sink.Sample{
		Time:  now,
		X:     r.X,
		Y:     r.Y,
		Z:     r.Z,
		Label: snap.Label,
		RunID: snap.RunID,
	}
	if err := s.sink.Append(sink.DestinationFor(snap.Label), smp); err != nil {
		s.writeFailed(err)
		return
	}
	s.writeOK()
	s.written.Add(1)
}

func (s *Sampler) readFailed(err error) {
	err = fault.New(fault.HardwareRead, "sensor read", err)
	s.readErrors.Add(1)
	if s.readRun == 0 {
		log.Printf("Sensor read failed, skipping tick: %v", err)
	}
	s.readRun++
	s.health.RecordFailure(monitor.ComponentSensor, err)
}

func (s *Sampler) readOK() {
	if s.readRun > 0 {
		log.Printf("Sensor recovered after %d failed reads", s.readRun)
		s.readRun = 0
	}
	s.health.RecordSuccess(monitor.ComponentSensor)
}

func (s *Sampler) writeFailed(err error) {
	if !fault.Is(err, fault.SinkWrite) {
		err = fault.New(fault.SinkWrite, "append", err)
	}
	s.dropped.Add(1)
	if s.writeRun == 0 {
		log.Printf("Sample dropped: %v", err)
	}
	s.writeRun++
	s.health.RecordFailure(monitor.ComponentSink, err)
}

func (s *Sampler) writeOK() {
	if s.writeRun > 0 {
		log.Printf("Sink recovered after %d dropped samples", s.writeRun)
		s.writeRun = 0
	}
	s.health.RecordSuccess(monitor.ComponentSink)
}
