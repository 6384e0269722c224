package tui

import (
	"github.com/charmbracelet/lipgloss"
	"go.trai.ch/anvil/internal/ui/style"
)

var (
	targetPendingStyle = lipgloss.NewStyle().
				Foreground(style.Steel)

	targetRunningStyle = lipgloss.NewStyle().
				Foreground(style.Ember).
				Bold(true)

	targetBuiltStyle = lipgloss.NewStyle().
				Foreground(style.Green)

	targetFailedStyle = lipgloss.NewStyle().
				Foreground(style.Red)

	targetSkippedStyle = lipgloss.NewStyle().
				Foreground(style.Steel).
				Faint(true)

	selectedStyle = lipgloss.NewStyle().
			Foreground(style.Ember).
			Bold(true)

	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Padding(0, 1).
			Background(style.Ember).
			Foreground(style.White)

	failureTitleStyle = lipgloss.NewStyle().
				Bold(true).
				Padding(0, 1).
				Background(style.Red).
				Foreground(style.White)

	listStyle = lipgloss.NewStyle().
			MarginRight(2)

	logStyle = lipgloss.NewStyle().
			PaddingLeft(1).
			BorderStyle(lipgloss.NormalBorder()).
			BorderLeft(true).
			BorderForeground(style.Steel)
)
