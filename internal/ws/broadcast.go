package ws

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/stairlog/agent/internal/monitor"
	"github.com/stairlog/agent/internal/session"
)

// ErrTooManyConnections is returned by AddClient when the connection limit
// is reached.
var ErrTooManyConnections = errors.New("too many websocket connections")

const writeTimeout = 5 * time.Second

type client struct {
	conn *websocket.Conn
	b    *Broadcaster
	send chan []byte
}

func (c *client) writePump() {
	defer c.conn.Close()
	for msg := range c.send {
		c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
		if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			c.b.RemoveClient(c)
			// Drain so RemoveClient's close ends the loop.
			for range c.send {
			}
			return
		}
	}
}

// Broadcaster fans agent status out to websocket clients: a snapshot on
// connect, a state message for every session change and periodic
// snapshots in between.
type Broadcaster struct {
	mu       sync.RWMutex
	clients  map[*client]bool
	state    StateFunc
	interval time.Duration
	maxConns int
}

// DefaultSnapshotInterval replaces a non-positive snapshot interval.
const DefaultSnapshotInterval = 5 * time.Second

// NewBroadcaster returns a Broadcaster reading status from state. A
// maxConns of zero means unlimited.
func NewBroadcaster(state StateFunc, snapshotInterval time.Duration, maxConns int) *Broadcaster {
	if snapshotInterval <= 0 {
		log.Printf("Snapshot interval %v is not positive, using %v", snapshotInterval, DefaultSnapshotInterval)
		snapshotInterval = DefaultSnapshotInterval
	}
	return &Broadcaster{
		clients:  make(map[*client]bool),
		state:    state,
		interval: snapshotInterval,
		maxConns: maxConns,
	}
}

// Run forwards session events and sends periodic snapshots until ctx is
// done or events is closed. Clients are disconnected on return.
func (b *Broadcaster) Run(ctx context.Context, events <-chan session.Event) {
	ticker := time.NewTicker(b.interval)
	defer ticker.Stop()
	defer b.closeAll()

	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			// Counters and health are current; the session part is the
			// state the event was raised with.
			st := b.state()
			st.Snapshot = ev.State
			b.broadcast(WSMessage{
				Type: MsgState,
				Payload: StateChangePayload{
					Event: ev.Type.String(),
					At:    ev.At,
					State: st,
				},
			})
		case <-ticker.C:
			b.broadcast(WSMessage{Type: MsgSnapshot, Payload: b.state()})
		}
	}
}

// PublishHealth sends one component status transition to every client.
func (b *Broadcaster) PublishHealth(st monitor.ComponentStatus) {
	b.broadcast(WSMessage{Type: MsgHealth, Payload: st})
}

func (b *Broadcaster) AddClient(conn *websocket.Conn) (*client, error) {
	c := &client{
		conn: conn,
		b:    b,
		send: make(chan []byte, 64),
	}
	if data, err := json.Marshal(WSMessage{Type: MsgSnapshot, Payload: b.state()}); err == nil {
		c.send <- data
	}

	b.mu.Lock()
	if b.maxConns > 0 && len(b.clients) >= b.maxConns {
		b.mu.Unlock()
		return nil, ErrTooManyConnections
	}
	b.clients[c] = true
	b.mu.Unlock()

	go c.writePump()
	return c, nil
}

func (b *Broadcaster) RemoveClient(c *client) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.clients[c]; ok {
		delete(b.clients, c)
		close(c.send)
	}
}

func (b *Broadcaster) ClientCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.clients)
}

func (b *Broadcaster) closeAll() {
	b.mu.Lock()
	defer b.mu.Unlock()
	for c := range b.clients {
		delete(b.clients, c)
		close(c.send)
	}
}

func (b *Broadcaster) broadcast(msg WSMessage) {
	data, err := json.Marshal(msg)
	if err != nil {
		log.Printf("broadcast marshal error: %v", err)
		return
	}

	// Sends happen under the read lock so RemoveClient cannot close a
	// channel mid-send.
	var slow []*client
	b.mu.RLock()
	for c := range b.clients {
		select {
		case c.send <- data:
		default:
			slow = append(slow, c)
		}
	}
	b.mu.RUnlock()

	for _, c := range slow {
		log.Printf("ws client too slow, disconnecting")
		b.RemoveClient(c)
	}
}
