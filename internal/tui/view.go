package tui

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spice-itself/aware/internal/domain"
	"github.com/spice-itself/aware/internal/registry"
)

// View renders the UI
func (m Model) View() string {
	var b strings.Builder

	header := fmt.Sprintf("aware status  %s", m.dir)
	if !m.updated.IsZero() {
		header += dimStyle.Render("  updated " + m.updated.Format("15:04:05"))
	}
	b.WriteString(headerStyle.Render(header))
	b.WriteString("\n")

	switch {
	case errors.Is(m.err, registry.ErrRegistryDirNotFound):
		b.WriteString(dimStyle.Render("PID directory not found: " + m.dir))
		b.WriteString("\n")
	case m.err != nil:
		b.WriteString(errorStyle.Render(" ERROR ") + " " + m.err.Error())
		b.WriteString("\n")
	default:
		b.WriteString(m.table.View())
		b.WriteString("\n")
	}

	b.WriteString(m.renderStatusBar())
	return b.String()
}

// renderStatusBar shows per-state counts and key help
func (m Model) renderStatusBar() string {
	counts := make(map[domain.SupervisorState]int)
	for _, s := range m.statuses {
		counts[s.State]++
	}

	var parts []string
	for _, state := range []domain.SupervisorState{
		domain.SupervisorStateRunning,
		domain.SupervisorStateStale,
		domain.SupervisorStateStopped,
		domain.SupervisorStateUnknown,
	} {
		if counts[state] == 0 {
			continue
		}
		parts = append(parts, stateStyle(state).Render(fmt.Sprintf("%d %s", counts[state], state)))
	}
	if len(parts) == 0 {
		parts = append(parts, dimStyle.Render("no supervisors"))
	}

	help := dimStyle.Render("q quit  r refresh  ↑/↓ scroll")
	return statusStyle.Render(strings.Join(parts, "  ") + "   " + help)
}
