package sampler

import (
	"context"
	"errors"
	"runtime"
	"sync"
	"testing"
	"time"

	"github.com/stairlog/agent/internal/clock"
	"github.com/stairlog/agent/internal/monitor"
	"github.com/stairlog/agent/internal/session"
	"github.com/stairlog/agent/internal/sink"
)

var timing = Timing{Period: 20 * time.Millisecond, IdleInterval: 50 * time.Millisecond}

var epoch = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

type written struct {
	dest sink.Destination
	smp  sink.Sample
}

type memSink struct {
	mu   sync.Mutex
	rows []written
	err  error
}

func (m *memSink) Append(dest sink.Destination, s sink.Sample) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.rows = append(m.rows, written{dest, s})
	return nil
}

func (m *memSink) Close() error { return nil }

func (m *memSink) all() []written {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]written(nil), m.rows...)
}

// fakeSensor advances the fake clock by cost on every read and cancels the
// run after limit reads. hook runs before each read with its 1-based index.
type fakeSensor struct {
	clk    *clock.Fake
	cost   time.Duration
	limit  int
	cancel context.CancelFunc
	hook   func(n int) error

	n int
}

func (f *fakeSensor) Read() (Reading, error) {
	f.n++
	if f.n >= f.limit {
		f.cancel()
	}
	f.clk.Advance(f.cost)
	if f.hook != nil {
		if err := f.hook(f.n); err != nil {
			return Reading{}, err
		}
	}
	return Reading{X: 0.5, Y: -0.25, Z: 1}, nil
}

// horizonClock cancels the run once virtual time passes horizon.
type horizonClock struct {
	*clock.Fake
	end    time.Time
	cancel context.CancelFunc
}

func (h *horizonClock) Sleep(ctx context.Context, d time.Duration) bool {
	ok := h.Fake.Sleep(ctx, d)
	if !h.Now().Before(h.end) {
		h.cancel()
		return false
	}
	return ok
}

func runUntilDone(t *testing.T, s *Sampler, ctx context.Context) {
	t.Helper()
	done := make(chan struct{})
	go func() {
		s.Run(ctx)
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("sampler did not stop")
	}
}

func TestNoSamplesWhileNotRecording(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	clk := &horizonClock{Fake: clock.NewFake(epoch), end: epoch.Add(10 * time.Second), cancel: cancel}
	sensor := &fakeSensor{clk: clk.Fake, limit: 1 << 30, cancel: cancel}
	out := &memSink{}

	s := New(sensor, session.NewStore(session.WalkingUp), out, clk, timing, nil)
	runUntilDone(t, s, ctx)

	if n := len(out.all()); n != 0 {
		t.Errorf("samples = %d, want 0", n)
	}
	if sensor.n != 0 {
		t.Errorf("sensor reads = %d, want 0", sensor.n)
	}
	sleeps := clk.Sleeps()
	if len(sleeps) != 200 {
		t.Errorf("idle sleeps = %d, want 200", len(sleeps))
	}
	for i, d := range sleeps {
		if d != timing.IdleInterval {
			t.Fatalf("sleep[%d] = %v, want %v", i, d, timing.IdleInterval)
		}
	}
}

func TestPeriodHolds(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	clk := clock.NewFake(epoch)
	sensor := &fakeSensor{clk: clk, cost: 3 * time.Millisecond, limit: 50, cancel: cancel}
	out := &memSink{}
	store := session.NewStore(session.WalkingUp)
	store.SetRecording(true)

	s := New(sensor, store, out, clk, timing, nil)
	runUntilDone(t, s, ctx)

	rows := out.all()
	// The last read cancels the context, but its sample is still written.
	if len(rows) != 50 {
		t.Fatalf("samples = %d, want 50", len(rows))
	}
	for i := 1; i < len(rows); i++ {
		gap := rows[i].smp.Time.Sub(rows[i-1].smp.Time)
		if gap != timing.Period {
			t.Fatalf("gap[%d] = %v, want %v", i, gap, timing.Period)
		}
	}
	for i, d := range clk.Sleeps() {
		if d != 17*time.Millisecond {
			t.Fatalf("sleep[%d] = %v, want 17ms", i, d)
		}
	}
	if st := s.Stats(); st.Written != 50 || st.Overruns != 0 {
		t.Errorf("Stats = %+v, want 50 written, 0 overruns", st)
	}
}

func TestOverrunDoesNotCatchUp(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	clk := clock.NewFake(epoch)
	sensor := &fakeSensor{clk: clk, cost: 25 * time.Millisecond, limit: 10, cancel: cancel}
	out := &memSink{}
	store := session.NewStore(session.WalkingUp)
	store.SetRecording(true)

	s := New(sensor, store, out, clk, timing, nil)
	runUntilDone(t, s, ctx)

	if sleeps := clk.Sleeps(); len(sleeps) != 0 {
		t.Errorf("sleeps = %v, want none under overrun", sleeps)
	}
	rows := out.all()
	for i := 1; i < len(rows); i++ {
		gap := rows[i].smp.Time.Sub(rows[i-1].smp.Time)
		if gap != 25*time.Millisecond {
			t.Fatalf("gap[%d] = %v, want 25ms", i, gap)
		}
	}
	if st := s.Stats(); st.Overruns != 10 {
		t.Errorf("Overruns = %d, want 10", st.Overruns)
	}
}

func TestSamplesRouteByLabel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	clk := clock.NewFake(epoch)
	store := session.NewStore(session.WalkingUp)
	snap := store.SetRecording(true)
	sensor := &fakeSensor{clk: clk, cost: time.Millisecond, limit: 6, cancel: cancel}
	sensor.hook = func(n int) error {
		if n == 4 {
			store.ToggleLabel()
		}
		return nil
	}
	out := &memSink{}

	s := New(sensor, store, out, clk, timing, nil)
	runUntilDone(t, s, ctx)

	rows := out.all()
	if len(rows) != 6 {
		t.Fatalf("samples = %d, want 6", len(rows))
	}
	for i, r := range rows {
		want := session.WalkingUp
		if i >= 3 {
			want = session.WalkingDown
		}
		if r.smp.Label != want {
			t.Errorf("sample %d label = %v, want %v", i, r.smp.Label, want)
		}
		if r.dest != sink.DestinationFor(want) {
			t.Errorf("sample %d dest = %v, want %v", i, r.dest, sink.DestinationFor(want))
		}
		if r.smp.RunID != snap.RunID {
			t.Errorf("sample %d run = %q, want %q", i, r.smp.RunID, snap.RunID)
		}
	}
}

func TestStopRecordingMidTickDiscardsSample(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	clk := &horizonClock{Fake: clock.NewFake(epoch), end: epoch.Add(time.Second), cancel: cancel}
	store := session.NewStore(session.WalkingUp)
	store.SetRecording(true)
	sensor := &fakeSensor{clk: clk.Fake, cost: time.Millisecond, limit: 1 << 30, cancel: cancel}
	sensor.hook = func(n int) error {
		if n == 5 {
			store.SetRecording(false)
		}
		return nil
	}
	out := &memSink{}

	s := New(sensor, store, out, clk, timing, nil)
	runUntilDone(t, s, ctx)

	if n := len(out.all()); n != 4 {
		t.Errorf("samples = %d, want 4", n)
	}
	if sensor.n != 5 {
		t.Errorf("sensor reads = %d, want 5", sensor.n)
	}
}

func TestReadFailureSkipsTick(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	clk := clock.NewFake(epoch)
	store := session.NewStore(session.WalkingDown)
	store.SetRecording(true)
	sensor := &fakeSensor{clk: clk, cost: time.Millisecond, limit: 8, cancel: cancel}
	sensor.hook = func(n int) error {
		if n == 2 || n == 3 {
			return errors.New("i2c: nack")
		}
		return nil
	}
	out := &memSink{}
	health := monitor.NewHealth(3, monitor.ComponentSensor, monitor.ComponentSink)

	s := New(sensor, store, out, clk, timing, health)
	runUntilDone(t, s, ctx)

	st := s.Stats()
	if st.ReadErrors != 2 || st.Written != 6 {
		t.Errorf("Stats = %+v, want 2 read errors, 6 written", st)
	}
	if got := health.Status(monitor.ComponentSensor); got != monitor.StatusHealthy {
		t.Errorf("sensor status = %v, want healthy after recovery", got)
	}
	// Failed ticks still keep the period.
	for i, d := range clk.Sleeps() {
		if d != 19*time.Millisecond {
			t.Fatalf("sleep[%d] = %v, want 19ms", i, d)
		}
	}
}

func TestSinkFailureDropsSample(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	clk := clock.NewFake(epoch)
	store := session.NewStore(session.WalkingUp)
	store.SetRecording(true)
	sensor := &fakeSensor{clk: clk, cost: time.Millisecond, limit: 5, cancel: cancel}
	out := &memSink{err: errors.New("disk full")}
	health := monitor.NewHealth(3, monitor.ComponentSensor, monitor.ComponentSink)

	s := New(sensor, store, out, clk, timing, health)
	runUntilDone(t, s, ctx)

	if st := s.Stats(); st.Dropped != 5 || st.Written != 0 {
		t.Errorf("Stats = %+v, want 5 dropped", st)
	}
	if got := health.Status(monitor.ComponentSink); got != monitor.StatusFailed {
		t.Errorf("sink status = %v, want failed", got)
	}
}

func TestLabelConsistentUnderConcurrentToggles(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	clk := clock.NewFake(epoch)
	store := session.NewStore(session.WalkingUp)
	snap := store.SetRecording(true)
	sensor := &fakeSensor{clk: clk, cost: time.Millisecond, limit: 2000, cancel: cancel}
	out := &memSink{}

	// Every third read toggles from inside the loop, so both labels are
	// always written whatever the scheduler does.
	sensor.hook = func(n int) error {
		if n%3 == 0 {
			store.ToggleLabel()
		}
		return nil
	}

	s := New(sensor, store, out, clk, timing, nil)
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 5000 && ctx.Err() == nil; i++ {
			store.ToggleLabel()
			runtime.Gosched()
		}
	}()
	runUntilDone(t, s, ctx)
	wg.Wait()

	rows := out.all()
	if len(rows) != 2000 {
		t.Fatalf("samples = %d, want 2000", len(rows))
	}
	seen := map[session.Label]bool{}
	for _, r := range rows {
		seen[r.smp.Label] = true
	}
	if !seen[session.WalkingUp] || !seen[session.WalkingDown] {
		t.Errorf("labels written = %v, want both", seen)
	}
	for i, r := range rows {
		if r.dest != sink.DestinationFor(r.smp.Label) {
			t.Fatalf("sample %d: label %v routed to %v", i, r.smp.Label, r.dest)
		}
		if r.smp.RunID != snap.RunID {
			t.Fatalf("sample %d: run %q, want %q", i, r.smp.RunID, snap.RunID)
		}
	}
}

func TestStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	s := New(&fakeSensor{clk: clock.NewFake(epoch), limit: 1 << 30, cancel: cancel},
		session.NewStore(session.WalkingUp), &memSink{}, clock.System{}, timing, nil)
	done := make(chan struct{})
	go func() {
		s.Run(ctx)
		close(done)
	}()
	time.Sleep(10 * time.Millisecond)
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
}
