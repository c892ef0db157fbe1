// Package gauge renders a spring-smoothed horizontal bar for the
// acceleration magnitude.
package gauge

import (
	"fmt"
	"math"
	"strings"

	"github.com/charmbracelet/harmonica"
	"github.com/charmbracelet/lipgloss"

	"github.com/stairlog/agent/internal/theme"
)

// FPS is the rate Step is expected to be called at.
const FPS = 20

// Model eases the displayed value towards the latest target.
type Model struct {
	spring harmonica.Spring
	pos    float64
	vel    float64
	target float64

	Max   float64 // full-scale value
	Width int     // bar cells
}

func New() Model {
	return Model{
		spring: harmonica.NewSpring(harmonica.FPS(FPS), 8.0, 0.6),
		Max:    2,
		Width:  24,
	}
}

func (m *Model) SetTarget(v float64) {
	m.target = v
}

// Step advances the animation by one frame.
func (m *Model) Step() {
	m.pos, m.vel = m.spring.Update(m.pos, m.vel, m.target)
}

// Value returns the smoothed value.
func (m Model) Value() float64 {
	return m.pos
}

// fill returns how many cells are lit.
func (m Model) fill() int {
	if m.Max <= 0 || m.Width <= 0 {
		return 0
	}
	frac := math.Max(0, math.Min(1, m.pos/m.Max))
	return int(math.Round(frac * float64(m.Width)))
}

func (m Model) View() string {
	n := m.fill()
	bar := lipgloss.NewStyle().Foreground(theme.ColorGauge).Render(strings.Repeat("█", n)) +
		theme.StyleDimmed.Render(strings.Repeat("░", m.Width-n))
	return fmt.Sprintf("|a| %5.2fg %s", m.target, bar)
}
