package monitor

import (
	"log"
	"sort"
	"sync"
	"time"
)

// Components whose failures are tracked.
const (
	ComponentInput   = "input"
	ComponentSensor  = "sensor"
	ComponentDisplay = "display"
	ComponentSink    = "sink"
)

// Status is the health of one component.
type Status string

const (
	StatusHealthy  Status = "healthy"
	StatusDegraded Status = "degraded"
	StatusFailed   Status = "failed"
)

// Recorder receives the outcome of every hardware or sink operation.
type Recorder interface {
	RecordSuccess(component string)
	RecordFailure(component string, err error)
}

// Nop is a Recorder that discards everything.
type Nop struct{}

func (Nop) RecordSuccess(string)        {}
func (Nop) RecordFailure(string, error) {}

// ComponentStatus is a point-in-time copy of one component's health.
type ComponentStatus struct {
	Component           string    `json:"component"`
	Status              Status    `json:"status"`
	ConsecutiveFailures int       `json:"consecutiveFailures"`
	TotalFailures       int64     `json:"totalFailures"`
	LastError           string    `json:"lastError,omitempty"`
	LastFailure         time.Time `json:"lastFailure,omitempty"`
}

// componentHealth tracks consecutive failures for a single component.
// Fields are protected by mu because the loops write them from their own
// goroutines while the reporter and status feed read them.
type componentHealth struct {
	mu                sync.Mutex
	consecutive       int
	total             int64
	lastErr           string
	lastFail          time.Time
	lastEmittedStatus Status
}

// statusLocked computes health status. Caller must hold c.mu.
func (c *componentHealth) statusLocked(threshold int) Status {
	switch {
	case c.consecutive >= threshold:
		return StatusFailed
	case c.consecutive > 0:
		return StatusDegraded
	}
	return StatusHealthy
}

// Health aggregates per-component failure tracking. A component is degraded
// after one failed operation and failed after threshold consecutive ones;
// a single success makes it healthy again. Status transitions are logged
// once and passed to the change hook.
type Health struct {
	mu         sync.RWMutex // protects components, onChange
	threshold  int
	components map[string]*componentHealth
	onChange   func(ComponentStatus)
}

// NewHealth returns a Health tracking the given components.
func NewHealth(threshold int, components ...string) *Health {
	if threshold < 1 {
		threshold = 1
	}
	h := &Health{
		threshold:  threshold,
		components: make(map[string]*componentHealth, len(components)),
	}
	for _, name := range components {
		h.components[name] = &componentHealth{lastEmittedStatus: StatusHealthy}
	}
	return h
}

// SetChangeHook registers fn to be called after every status transition.
func (h *Health) SetChangeHook(fn func(ComponentStatus)) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.onChange = fn
}

func (h *Health) component(name string) *componentHealth {
	h.mu.RLock()
	c, ok := h.components[name]
	h.mu.RUnlock()
	if ok {
		return c
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if c, ok = h.components[name]; !ok {
		c = &componentHealth{lastEmittedStatus: StatusHealthy}
		h.components[name] = c
	}
	return c
}

// RecordSuccess clears the consecutive failure count of name.
func (h *Health) RecordSuccess(name string) {
	c := h.component(name)
	c.mu.Lock()
	if c.consecutive == 0 {
		c.mu.Unlock()
		return
	}
	c.consecutive = 0
	st, changed := h.transitionLocked(name, c)
	c.mu.Unlock()
	if changed {
		h.emit(st)
	}
}

// RecordFailure counts a failed operation of name.
func (h *Health) RecordFailure(name string, err error) {
	c := h.component(name)
	c.mu.Lock()
	c.consecutive++
	c.total++
	if err != nil {
		c.lastErr = err.Error()
	}
	c.lastFail = time.Now()
	st, changed := h.transitionLocked(name, c)
	c.mu.Unlock()
	if changed {
		h.emit(st)
	}
}

// transitionLocked reports whether the status of c differs from the last
// emitted one and records it if so. Caller must hold c.mu.
func (h *Health) transitionLocked(name string, c *componentHealth) (ComponentStatus, bool) {
	status := c.statusLocked(h.threshold)
	if status == c.lastEmittedStatus {
		return ComponentStatus{}, false
	}
	c.lastEmittedStatus = status
	return snapshotLocked(name, c, status), true
}

func snapshotLocked(name string, c *componentHealth, status Status) ComponentStatus {
	return ComponentStatus{
		Component:           name,
		Status:              status,
		ConsecutiveFailures: c.consecutive,
		TotalFailures:       c.total,
		LastError:           c.lastErr,
		LastFailure:         c.lastFail,
	}
}

func (h *Health) emit(st ComponentStatus) {
	if st.Status == StatusHealthy {
		log.Printf("Component %s recovered", st.Component)
	} else {
		log.Printf("Component %s %s after %d consecutive failures: %s",
			st.Component, st.Status, st.ConsecutiveFailures, st.LastError)
	}

	h.mu.RLock()
	fn := h.onChange
	h.mu.RUnlock()
	if fn != nil {
		fn(st)
	}
}

// Status returns the current status of name.
func (h *Health) Status(name string) Status {
	c := h.component(name)
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.statusLocked(h.threshold)
}

// Snapshot returns a consistent copy of every component, sorted by name.
func (h *Health) Snapshot() []ComponentStatus {
	h.mu.RLock()
	names := make([]string, 0, len(h.components))
	for name := range h.components {
		names = append(names, name)
	}
	h.mu.RUnlock()
	sort.Strings(names)

	out := make([]ComponentStatus, 0, len(names))
	for _, name := range names {
		c := h.component(name)
		c.mu.Lock()
		out = append(out, snapshotLocked(name, c, c.statusLocked(h.threshold)))
		c.mu.Unlock()
	}
	return out
}

// Overall returns the worst status across all components.
func (h *Health) Overall() Status {
	worst := StatusHealthy
	for _, st := range h.Snapshot() {
		switch st.Status {
		case StatusFailed:
			return StatusFailed
		case StatusDegraded:
			worst = StatusDegraded
		}
	}
	return worst
}
