// Package app is the simulator's root Bubble Tea model. It turns the
// keyboard into the agent's button and shows the virtual OLED, the
// session status, a smoothed acceleration gauge and the event log.
package app

import (
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/stairlog/agent/internal/sim"
	"github.com/stairlog/agent/internal/theme"
	"github.com/stairlog/agent/internal/views/eventlog"
	"github.com/stairlog/agent/internal/views/gauge"
	"github.com/stairlog/agent/internal/views/help"
	"github.com/stairlog/agent/internal/views/oled"
	"github.com/stairlog/agent/internal/views/status"
	"github.com/stairlog/agent/internal/ws"
)

type tickMsg time.Time

func tick() tea.Cmd {
	return tea.Tick(time.Second/gauge.FPS, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// Model is the root Bubble Tea model.
type Model struct {
	keys     KeyMap
	width    int
	height   int
	showHelp bool

	button *sim.Button
	sensor *sim.Sensor
	state  ws.StateFunc
	bridge *Bridge
	timing help.Timing

	statusBar status.Model
	oled      oled.Model
	gauge     gauge.Model
	log       eventlog.Model
}

// New creates the root model. window is the agent's double-click window,
// shown in the help overlay.
func New(button *sim.Button, sensor *sim.Sensor, state ws.StateFunc, bridge *Bridge, window time.Duration) Model {
	return Model{
		timing:    help.Timing{Pulse: sim.PressPulse, Window: window},
		keys:      DefaultKeyMap(),
		button:    button,
		sensor:    sensor,
		state:     state,
		bridge:    bridge,
		statusBar: status.New(),
		oled:      oled.New(),
		gauge:     gauge.New(),
		log:       eventlog.New(),
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(tick(), m.bridge.Listen())
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.statusBar.Width = msg.Width
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case tickMsg:
		m.refresh()
		return m, tick()

	case DisplayMsg:
		m.oled.Text = msg.Text
		text := msg.Text
		if text == "" {
			text = "(cleared)"
		}
		m.log.Add(eventlog.KindOLED, text)
		return m, m.bridge.Listen()

	case LogMsg:
		kind := eventlog.KindLog
		if strings.Contains(msg.Line, "failed") || strings.Contains(msg.Line, "dropped") {
			kind = eventlog.KindErr
		}
		m.log.Add(kind, stripLogPrefix(msg.Line))
		return m, m.bridge.Listen()
	}

	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.Help):
		m.showHelp = !m.showHelp
		return m, nil

	case key.Matches(msg, m.keys.Press):
		m.button.Press()
		m.log.Add(eventlog.KindKey, "button pressed")
		return m, nil

	case key.Matches(msg, m.keys.Fault):
		on := !m.sensor.Faulty()
		m.sensor.SetFaulty(on)
		if on {
			m.log.Add(eventlog.KindKey, "sensor fault injected")
		} else {
			m.log.Add(eventlog.KindKey, "sensor fault cleared")
		}
		return m, nil

	case key.Matches(msg, m.keys.Up):
		m.log.ScrollUp(1)
		return m, nil

	case key.Matches(msg, m.keys.Down):
		m.log.ScrollDown(1)
		return m, nil
	}
	return m, nil
}

// refresh pulls the agent state and advances the gauge one frame.
func (m *Model) refresh() {
	st := m.state()
	m.statusBar.State = st
	m.statusBar.SensorFault = m.sensor.Faulty()
	m.statusBar.UIDropped = m.bridge.Dropped()
	if st.Recording && !m.statusBar.SensorFault {
		m.gauge.SetTarget(sim.Magnitude(m.sensor.Last()))
	} else {
		m.gauge.SetTarget(0)
	}
	m.gauge.Step()
}

// View renders the full TUI.
func (m Model) View() string {
	if m.width == 0 || m.height == 0 {
		return "Initializing..."
	}
	if m.showHelp {
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, help.Render(m.width-4, m.timing))
	}

	title := theme.StyleHeader.Render("stairlog simulator")
	panel := lipgloss.JoinHorizontal(lipgloss.Top,
		m.oled.View(),
		"   ",
		lipgloss.JoinVertical(lipgloss.Left, "", m.gauge.View()),
	)
	hint := theme.StyleDimmed.Render("  space:button (double-tap switches label)  f:sensor fault  j/k:scroll  ?:help  q:quit")

	top := lipgloss.JoinVertical(lipgloss.Left, title, m.statusBar.View(), panel)
	logHeight := m.height - lipgloss.Height(top) - lipgloss.Height(hint)
	return lipgloss.JoinVertical(lipgloss.Left, top, m.log.View(m.width, logHeight), hint)
}

// stripLogPrefix removes the standard logger's date and time.
func stripLogPrefix(line string) string {
	if len(line) > 20 && line[4] == '/' && line[7] == '/' && line[10] == ' ' && line[19] == ' ' {
		return line[20:]
	}
	return line
}
