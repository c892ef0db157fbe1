// Package help renders the simulator's help overlay from markdown.
package help

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"github.com/stairlog/agent/internal/theme"
)

const text = `# stairlog simulator

The space bar is the button. Each press holds it down for %[1]v.

| gesture | effect |
|---|---|
| single press | start or stop recording |
| two presses within %[2]v | switch between *walkingup* and *walkingdown* |

While recording, samples go to:

- ` + "`data/walkingup/up_ML1.csv`" + `
- ` + "`data/walkingdown/dw_ML1.csv`" + `

## Keys

- **space** press the button
- **f** inject or clear a sensor fault
- **j / k** scroll the event log
- **?** toggle this help
- **q** quit and tear down
`

// Timing is what the help text tells the user about the button.
type Timing struct {
	Pulse  time.Duration
	Window time.Duration
}

// Markdown returns the help source for t.
func Markdown(t Timing) string {
	return fmt.Sprintf(text, t.Pulse, t.Window)
}

// Render returns the help text for t laid out for width columns.
func Render(width int, t Timing) string {
	src := Markdown(t)
	if width < 40 {
		width = 40
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle("dark"),
		glamour.WithWordWrap(width-4),
	)
	var out string
	if err == nil {
		out, err = r.Render(src)
	}
	if err != nil {
		out = src
	}
	return lipgloss.NewStyle().
		BorderStyle(lipgloss.DoubleBorder()).
		BorderForeground(theme.ColorBorder).
		Render(strings.TrimRight(out, "\n"))
}
