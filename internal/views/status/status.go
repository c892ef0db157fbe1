package status

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/stairlog/agent/internal/theme"
	"github.com/stairlog/agent/internal/ws"
)

// Model holds the status bar state.
type Model struct {
	State       ws.State
	SensorFault bool
	// UIDropped counts log and display messages the UI never received.
	UIDropped int64
	Width     int
}

// New creates a status bar model.
func New() Model {
	return Model{}
}

// View renders the status bar.
func (m Model) View() string {
	width := m.Width
	if width < 40 {
		width = 40
	}

	var recStr string
	if m.State.Recording {
		recStr = lipgloss.NewStyle().Foreground(theme.ColorRecording).Bold(true).Render("● REC")
	} else {
		recStr = lipgloss.NewStyle().Foreground(theme.ColorStopped).Render("○ OFF")
	}

	label := m.State.Label.String()
	labelStr := lipgloss.NewStyle().Foreground(theme.LabelColor(label)).Render(label)
	if run := m.State.RunID; run != "" {
		if len(run) > 8 {
			run = run[:8]
		}
		labelStr += theme.StyleDimmed.Render(" run " + run)
	}

	counts := fmt.Sprintf("%d written  %d dropped  %d read errors",
		m.State.Stats.Written, m.State.Stats.Dropped, m.State.Stats.ReadErrors)

	var healthParts []string
	for _, h := range m.State.Health {
		healthParts = append(healthParts, lipgloss.NewStyle().
			Foreground(theme.HealthColor(string(h.Status))).
			Render(fmt.Sprintf("%s: %s", h.Component, h.Status)))
	}
	healthStr := strings.Join(healthParts, "  ")

	sep := lipgloss.NewStyle().Foreground(theme.ColorBorder).Render(" | ")
	content := recStr + " " + labelStr + sep + counts
	if healthStr != "" {
		content += sep + healthStr
	}
	if m.UIDropped > 0 {
		content += sep + lipgloss.NewStyle().Foreground(theme.ColorWarning).
			Render(fmt.Sprintf("%d ui msgs dropped", m.UIDropped))
	}
	if m.SensorFault {
		content += sep + lipgloss.NewStyle().Foreground(theme.ColorFaulty).Render("sensor fault injected")
	}

	return lipgloss.NewStyle().
		Width(width).
		Padding(0, 1).
		BorderStyle(lipgloss.DoubleBorder()).
		BorderForeground(theme.ColorBorder).
		Render(content)
}
