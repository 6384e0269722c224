// Package style holds the palette and status icons shared by the renderers and the logger.
package style

import "github.com/charmbracelet/lipgloss"

// Palette.
var (
	// Ember is the accent colour for titles, selection and running targets.
	Ember = lipgloss.Color("#F97316")
	// Steel is used for secondary text, borders and pending targets.
	Steel = lipgloss.Color("#64748B")
	White = lipgloss.Color("#FFFFFF")
	Green = lipgloss.Color("#16A34A")
	Red   = lipgloss.Color("#DC2626")
	Amber = lipgloss.Color("#D97706")
)

// Status icons.
const (
	Check   = "✓"
	Cross   = "✗"
	Warning = "!"
	Tilde   = "~"
	Dot     = "●"
	Circle  = "○"
)
