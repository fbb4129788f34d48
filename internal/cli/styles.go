package cli

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/spice-itself/aware/internal/domain"
	"github.com/spice-itself/aware/internal/registry"
)

var (
	okStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Bold(true) // Green
	warnStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))            // Yellow
	errStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)  // Red
	dimStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))             // Gray
	headerStyle = lipgloss.NewStyle().Bold(true)
)

// outcomeStyle colors a leave outcome
func outcomeStyle(outcome registry.LeaveOutcome) lipgloss.Style {
	switch outcome {
	case registry.LeaveSignaled:
		return okStyle
	case registry.LeaveStale:
		return warnStyle
	case registry.LeaveFailed:
		return errStyle
	default:
		return dimStyle
	}
}

// stateStyle colors a supervisor state
func stateStyle(state domain.SupervisorState) lipgloss.Style {
	switch state {
	case domain.SupervisorStateRunning:
		return okStyle
	case domain.SupervisorStateStale:
		return warnStyle
	case domain.SupervisorStateUnknown:
		return errStyle
	default:
		return dimStyle
	}
}
