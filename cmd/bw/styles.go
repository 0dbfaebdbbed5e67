package main

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/bmuenzenmeyer/buildwatch/internal/build"
)

// --- Styles ---

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#7C3AED")).
			Background(lipgloss.Color("#1E1E2E")).
			Padding(0, 1)

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#89B4FA"))

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#6C7086"))

	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#A6E3A1"))

	failureStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F38BA8"))

	runningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F9E2AF"))

	killedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FAB387"))

	pendingStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#6C7086"))

	errStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F38BA8")).
			Bold(true)

	logStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#A6ADC8"))

	focusLineStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#CDD6F4")).
			Background(lipgloss.Color("#45475A"))

	followBadgeStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#F9E2AF")).
				Bold(true)

	statusBarStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#CDD6F4")).
			Background(lipgloss.Color("#1E1E2E"))
)

// statusStyle returns the color style for a build or step status.
func statusStyle(s build.Status) lipgloss.Style {
	switch s {
	case build.StatusSuccess:
		return successStyle
	case build.StatusFailure, build.StatusError:
		return failureStyle
	case build.StatusRunning:
		return runningStyle
	case build.StatusKilled:
		return killedStyle
	}
	return pendingStyle
}

// statusGlyph is the one-character marker shown next to a status.
func statusGlyph(s build.Status) string {
	switch s {
	case build.StatusSuccess:
		return "✓"
	case build.StatusFailure, build.StatusError:
		return "✗"
	case build.StatusRunning:
		return "●"
	case build.StatusKilled:
		return "⊘"
	}
	return "○"
}
