// Package theme provides the Lip Gloss color palette and reusable styles
// for the simulator. It is a leaf package with no internal imports to avoid
// import cycles.
package theme

import "github.com/charmbracelet/lipgloss"

// Recording state colors.
var (
	ColorRecording = lipgloss.Color("#dc2626")
	ColorStopped   = lipgloss.Color("#4b5563")
)

// Label colors.
var (
	ColorWalkingUp   = lipgloss.Color("#22c55e")
	ColorWalkingDown = lipgloss.Color("#3b82f6")
	ColorDefault     = lipgloss.Color("#9ca3af")
)

// OLED panel colors.
var (
	ColorPixel  = lipgloss.Color("#67e8f9")
	ColorGlass  = lipgloss.Color("#020617")
	ColorBezel  = lipgloss.Color("#374151")
	ColorGauge  = lipgloss.Color("#a855f7")
	ColorFaulty = lipgloss.Color("#d97706")
)

// UI chrome colors.
var (
	ColorBorder  = lipgloss.Color("#4b5563")
	ColorDimmed  = lipgloss.Color("#6b7280")
	ColorBright  = lipgloss.Color("#f9fafb")
	ColorHealthy = lipgloss.Color("#22c55e")
	ColorWarning = lipgloss.Color("#d97706")
	ColorDanger  = lipgloss.Color("#dc2626")
)

// LabelColor returns the color for an activity label name.
func LabelColor(label string) lipgloss.Color {
	switch label {
	case "walkingup":
		return ColorWalkingUp
	case "walkingdown":
		return ColorWalkingDown
	default:
		return ColorDefault
	}
}

// HealthColor returns the color for a component health status.
func HealthColor(status string) lipgloss.Color {
	switch status {
	case "healthy":
		return ColorHealthy
	case "degraded":
		return ColorWarning
	case "failed":
		return ColorDanger
	default:
		return ColorDimmed
	}
}

// Reusable styles.
var (
	StyleBorder = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(ColorBorder)

	StyleHeader = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorBright)

	StyleDimmed = lipgloss.NewStyle().
			Foreground(ColorDimmed)
)
