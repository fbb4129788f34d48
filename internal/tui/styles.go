package tui

import (
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/lipgloss"

	"github.com/spice-itself/aware/internal/domain"
)

// Colors
var (
	runningColor = lipgloss.Color("10") // Green
	staleColor   = lipgloss.Color("11") // Yellow
	stoppedColor = lipgloss.Color("8")  // Gray
	unknownColor = lipgloss.Color("9")  // Red

	headerBg   = lipgloss.Color("235")
	statusBg   = lipgloss.Color("236")
	errorColor = lipgloss.Color("9")
	dimColor   = lipgloss.Color("8")
)

// Styles
var (
	headerStyle = lipgloss.NewStyle().
			Background(headerBg).
			Bold(true).
			Padding(0, 1).
			MarginBottom(1)

	statusStyle = lipgloss.NewStyle().
			Background(statusBg).
			Padding(0, 1)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("15")).
			Background(errorColor).
			Bold(true)

	dimStyle = lipgloss.NewStyle().
			Foreground(dimColor)

	countStyles = map[domain.SupervisorState]lipgloss.Style{
		domain.SupervisorStateRunning: lipgloss.NewStyle().Foreground(runningColor).Bold(true),
		domain.SupervisorStateStale:   lipgloss.NewStyle().Foreground(staleColor),
		domain.SupervisorStateStopped: lipgloss.NewStyle().Foreground(stoppedColor),
		domain.SupervisorStateUnknown: lipgloss.NewStyle().Foreground(unknownColor).Bold(true),
	}
)

// tableStyles returns the roster table styles
func tableStyles() table.Styles {
	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240")).
		BorderBottom(true).
		Bold(true)
	s.Selected = s.Selected.
		Foreground(lipgloss.Color("229")).
		Background(lipgloss.Color("57")).
		Bold(false)
	return s
}

// stateStyle returns the style used to render a supervisor state
func stateStyle(state domain.SupervisorState) lipgloss.Style {
	if style, ok := countStyles[state]; ok {
		return style
	}
	return lipgloss.NewStyle()
}
