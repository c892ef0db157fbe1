package button

import (
	"context"
	"sync"
)

// Queue is an unbounded FIFO of click events between the Detector and the
// dispatcher.
//
// Push never blocks, so the polling loop keeps its timing even if the
// consumer is slow. Next blocks until an event arrives, the queue is closed
// or the context ends. Events are delivered in push order, never reordered
// or coalesced.
type Queue struct {
	mu     sync.Mutex
	events []ClickEvent
	closed bool
	signal chan struct{} // buffered, size 1; coalesces wakeups
}

// NewQueue returns an empty queue.
func NewQueue() *Queue {
	return &Queue{
		events: make([]ClickEvent, 0, 8),
		signal: make(chan struct{}, 1),
	}
}

// Push appends ev. It returns false if the queue is closed.
func (q *Queue) Push(ev ClickEvent) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return false
	}
	q.events = append(q.events, ev)

	select {
	case q.signal <- struct{}{}:
	default:
	}
	return true
}

// TryPop removes and returns the oldest event without blocking.
func (q *Queue) TryPop() (ClickEvent, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.events) == 0 {
		return 0, false
	}
	ev := q.events[0]
	if len(q.events) == 1 {
		q.events = q.events[:0]
	} else {
		q.events = q.events[1:]
	}
	return ev, true
}

// Next blocks until an event is available and returns it. It returns false
// when ctx is done or the queue is closed and drained.
func (q *Queue) Next(ctx context.Context) (ClickEvent, bool) {
	for {
		if ev, ok := q.TryPop(); ok {
			return ev, true
		}

		q.mu.Lock()
		done := q.closed && len(q.events) == 0
		q.mu.Unlock()
		if done {
			return 0, false
		}

		select {
		case <-ctx.Done():
			return 0, false
		case <-q.signal:
		}
	}
}

// Len returns the number of queued events.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.events)
}

// Close stops further pushes and wakes any blocked consumer. Events already
// queued can still be drained.
func (q *Queue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return
	}
	q.closed = true
	close(q.signal)
}
