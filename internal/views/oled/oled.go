// Package oled draws the virtual 64x48 display as a small bordered panel.
package oled

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/stairlog/agent/internal/theme"
)

// Cols and Rows approximate the text grid of the physical panel with a
// 7x13 font.
const (
	Cols = 9
	Rows = 3
)

type Model struct {
	Text string
}

func New() Model {
	return Model{}
}

// Lines wraps Text the way the physical panel does: on spaces, splitting
// words longer than a row, and dropping anything past the last row.
func (m Model) Lines() []string {
	var lines []string
	for _, word := range strings.Fields(m.Text) {
		for len(word) > Cols {
			lines = append(lines, word[:Cols])
			word = word[Cols:]
		}
		if n := len(lines); n > 0 && len(lines[n-1])+1+len(word) <= Cols {
			lines[n-1] += " " + word
			continue
		}
		lines = append(lines, word)
	}
	if len(lines) > Rows {
		lines = lines[:Rows]
	}
	return lines
}

func (m Model) View() string {
	lines := m.Lines()
	for len(lines) < Rows {
		lines = append(lines, "")
	}
	glass := lipgloss.NewStyle().
		Width(Cols+2).
		Padding(0, 1).
		Foreground(theme.ColorPixel).
		Background(theme.ColorGlass).
		Render(strings.Join(lines, "\n"))
	title := theme.StyleDimmed.Render("OLED")
	return lipgloss.JoinVertical(lipgloss.Center,
		lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(theme.ColorBezel).
			Render(glass),
		title)
}
