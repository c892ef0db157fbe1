// Package supervisor wires the button pipeline, the sampling loop and the
// optional status feed around one shared session, runs them concurrently
// and tears everything down in order when the run ends.
package supervisor

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"runtime/debug"
	"sync"

	"github.com/stairlog/agent/internal/button"
	"github.com/stairlog/agent/internal/clock"
	"github.com/stairlog/agent/internal/config"
	"github.com/stairlog/agent/internal/dispatch"
	"github.com/stairlog/agent/internal/fault"
	"github.com/stairlog/agent/internal/monitor"
	"github.com/stairlog/agent/internal/sampler"
	"github.com/stairlog/agent/internal/session"
	"github.com/stairlog/agent/internal/sink"
	"github.com/stairlog/agent/internal/ws"
)

// Devices are the capabilities the agent drives.
type Devices struct {
	Input   button.Input
	Sensor  sampler.Sensor
	Display dispatch.Display

	// Close releases the devices. It runs last during teardown and may be
	// nil.
	Close func() error
}

// Option customises an Agent.
type Option func(*Agent)

// WithClock replaces the system clock.
func WithClock(c clock.Clock) Option {
	return func(a *Agent) { a.clock = c }
}

// WithStore shares an existing session store, e.g. with a simulator that
// needs to read the label.
func WithStore(s *session.Store) Option {
	return func(a *Agent) { a.store = s }
}

// WithSink replaces the configured sink.
func WithSink(s sink.Sink) Option {
	return func(a *Agent) { a.sink = s }
}

// Agent owns every long-running loop and the resources they share.
type Agent struct {
	cfg   *config.Config
	dev   Devices
	clock clock.Clock

	store      *session.Store
	health     *monitor.Health
	queue      *button.Queue
	detector   *button.Detector
	dispatcher *dispatch.Dispatcher
	sampler    *sampler.Sampler
	sink       sink.Sink
	reporter   *monitor.Reporter

	events      chan session.Event
	broadcaster *ws.Broadcaster
	status      http.Handler

	mu       sync.Mutex
	failures []error

	closeOnce sync.Once
	closeErr  error
}

// New builds an Agent from cfg. Opening the sink is the only resource
// acquired here; its failure is a fault.Resource error.
func New(cfg *config.Config, dev Devices, opts ...Option) (*Agent, error) {
	a := &Agent{cfg: cfg, dev: dev, clock: clock.System{}}
	for _, opt := range opts {
		opt(a)
	}

	if a.store == nil {
		a.store = session.NewStore(cfg.InitialLabel())
	}
	if a.sink == nil {
		s, err := OpenSink(cfg.Sink)
		if err != nil {
			return nil, fault.New(fault.Resource, "sink", err)
		}
		a.sink = s
	}

	a.health = monitor.NewHealth(cfg.Health.FailureThreshold,
		monitor.ComponentInput, monitor.ComponentSensor, monitor.ComponentDisplay, monitor.ComponentSink)
	a.queue = button.NewQueue()
	a.detector = button.NewDetector(dev.Input, a.clock, a.queue, button.Timing{
		PollInterval:      cfg.Button.PollInterval,
		Debounce:          cfg.Button.Debounce,
		DoubleClickWindow: cfg.Button.DoubleClickWindow,
	}, a.health)
	a.dispatcher = dispatch.New(a.store, dev.Display, a.health)
	a.sampler = sampler.New(dev.Sensor, a.store, a.sink, a.clock, sampler.Timing{
		Period:       cfg.Sampler.Period,
		IdleInterval: cfg.Sampler.IdleInterval,
	}, a.health)

	if cfg.Status.Addr != "" {
		a.events = make(chan session.Event, 64)
		a.store.SetEvents(a.events)
		a.broadcaster = ws.NewBroadcaster(a.State, cfg.Status.SnapshotInterval, 8)
		a.health.SetChangeHook(a.broadcaster.PublishHealth)
		a.status = ws.NewServer(a.broadcaster, a.State).Handler()
	}

	if rep, err := monitor.NewReporter(a.health); err != nil {
		log.Printf("Health reporter disabled: %v", err)
	} else {
		rep.SetSummary(func() string { return a.sampler.Stats().String() })
		a.reporter = rep
	}
	return a, nil
}

// OpenSink returns the sink selected by cfg.Kind.
func OpenSink(cfg config.SinkConfig) (sink.Sink, error) {
	switch cfg.Kind {
	case config.SinkCSV:
		return sink.NewCSV(cfg.Dir), nil
	case config.SinkSQLite:
		return sink.OpenSQLite(cfg.SQLitePath)
	case config.SinkBoth:
		db, err := sink.OpenSQLite(cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		return sink.Fanout{sink.NewCSV(cfg.Dir), db}, nil
	default:
		return nil, fmt.Errorf("unknown sink kind %q", cfg.Kind)
	}
}

// Store returns the shared session state.
func (a *Agent) Store() *session.Store { return a.store }

// Health returns the component health tracker.
func (a *Agent) Health() *monitor.Health { return a.health }

// StatusHandler returns the status feed routes, or nil when the feed is
// disabled.
func (a *Agent) StatusHandler() http.Handler { return a.status }

// State returns the aggregated agent status.
func (a *Agent) State() ws.State {
	return ws.State{
		Snapshot: a.store.Snapshot(),
		Stats:    a.sampler.Stats(),
		Health:   a.health.Snapshot(),
	}
}

// Run starts every loop and blocks until ctx is done or a loop panics,
// then stops the loops and tears down. Resources are released on every
// return path. The error is non-nil only if a loop panicked.
func (a *Agent) Run(ctx context.Context) error {
	defer a.Close()

	log.Printf("Agent starting (label=%s, sink=%s)", a.store.Label(), a.cfg.Sink.Kind)
	if err := a.dev.Display.Clear(); err != nil {
		log.Printf("Initial display clear failed: %v", fault.New(fault.Display, "clear", err))
		a.health.RecordFailure(monitor.ComponentDisplay, err)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var wg sync.WaitGroup
	a.spawn(ctx, cancel, &wg, "detector", a.detector.Run)
	a.spawn(ctx, cancel, &wg, "dispatcher", func(ctx context.Context) {
		a.dispatcher.Run(ctx, a.queue)
	})
	a.spawn(ctx, cancel, &wg, "sampler", a.sampler.Run)

	if a.broadcaster != nil {
		a.spawn(ctx, cancel, &wg, "broadcaster", func(ctx context.Context) {
			a.broadcaster.Run(ctx, a.events)
		})
		a.spawn(ctx, cancel, &wg, "status server", func(ctx context.Context) {
			if err := ws.ListenAndServe(ctx, a.cfg.Status.Addr, a.status); err != nil {
				log.Printf("Status server stopped: %v", err)
			}
		})
	}

	if a.reporter != nil {
		if err := a.reporter.Start(a.cfg.Health.Schedule); err != nil {
			log.Printf("Health reporter not started: %v", err)
		}
	}

	<-ctx.Done()
	log.Println("Shutting down...")
	wg.Wait()

	a.mu.Lock()
	defer a.mu.Unlock()
	return errors.Join(a.failures...)
}

// spawn runs fn on its own goroutine. A panic is logged, recorded as a
// health failure and cancels the run.
func (a *Agent) spawn(ctx context.Context, cancel context.CancelFunc, wg *sync.WaitGroup, name string, fn func(context.Context)) {
	wg.Add(1)
	go func() {
		defer wg.Done()
		defer func() {
			if r := recover(); r != nil {
				err := fmt.Errorf("%s panicked: %v", name, r)
				log.Printf("%v\n%s", err, debug.Stack())
				a.health.RecordFailure(name, err)
				a.mu.Lock()
				a.failures = append(a.failures, err)
				a.mu.Unlock()
				cancel()
			}
		}()
		fn(ctx)
	}()
}

// Close performs the ordered teardown: stop the reporter, close the click
// queue, blank the display, close the sink, then release the devices.
// Every step runs even if an earlier one fails. Close is idempotent and is
// called by Run.
func (a *Agent) Close() error {
	a.closeOnce.Do(func() {
		var errs []error
		if a.reporter != nil {
			a.reporter.Stop()
		}
		if n := a.queue.Len(); n > 0 {
			log.Printf("Discarding %d unhandled click(s)", n)
		}
		a.queue.Close()
		if a.events != nil {
			a.store.SetEvents(nil)
		}
		if err := a.dev.Display.Clear(); err != nil {
			errs = append(errs, fault.New(fault.Display, "clear", err))
		}
		if err := a.sink.Close(); err != nil {
			errs = append(errs, fault.New(fault.SinkWrite, "close", err))
		}
		if a.dev.Close != nil {
			if err := a.dev.Close(); err != nil {
				errs = append(errs, fmt.Errorf("release devices: %w", err))
			}
		}
		a.closeErr = errors.Join(errs...)
		if a.closeErr != nil {
			log.Printf("Teardown finished with errors: %v", a.closeErr)
		} else {
			log.Printf("Teardown complete (%s)", a.sampler.Stats())
		}
	})
	return a.closeErr
}
