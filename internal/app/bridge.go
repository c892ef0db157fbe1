package app

import (
	"bytes"
	"strings"
	"sync"
	"sync/atomic"

	tea "github.com/charmbracelet/bubbletea"
)

// DisplayMsg carries new virtual OLED contents.
type DisplayMsg struct{ Text string }

// LogMsg carries one line written to the process log.
type LogMsg struct{ Line string }

// Bridge hands messages from agent goroutines to the UI without ever
// blocking them. Messages beyond the buffer are dropped and counted.
type Bridge struct {
	ch      chan tea.Msg
	dropped atomic.Int64

	mu      sync.Mutex
	partial []byte
}

func NewBridge(size int) *Bridge {
	return &Bridge{ch: make(chan tea.Msg, size)}
}

// Display is a sim.Display change callback.
func (b *Bridge) Display(text string) {
	b.post(DisplayMsg{Text: text})
}

// Write implements io.Writer so the bridge can be a log output. Each
// complete line becomes one LogMsg.
func (b *Bridge) Write(p []byte) (int, error) {
	b.mu.Lock()
	b.partial = append(b.partial, p...)
	var lines []string
	for {
		i := bytes.IndexByte(b.partial, '\n')
		if i < 0 {
			break
		}
		lines = append(lines, strings.TrimRight(string(b.partial[:i]), "\r"))
		b.partial = b.partial[i+1:]
	}
	b.mu.Unlock()

	for _, l := range lines {
		b.post(LogMsg{Line: l})
	}
	return len(p), nil
}

// Dropped returns how many messages did not fit the buffer.
func (b *Bridge) Dropped() int64 {
	return b.dropped.Load()
}

// Listen waits for the next message.
func (b *Bridge) Listen() tea.Cmd {
	return func() tea.Msg {
		return <-b.ch
	}
}

func (b *Bridge) post(msg tea.Msg) {
	select {
	case b.ch <- msg:
	default:
		b.dropped.Add(1)
	}
}
