package tui

import (
	"strconv"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/spice-itself/aware/internal/domain"
)

// chromeHeight is the lines around the table: the header with its margin
// and the status bar. The table's own column headers count toward the
// height given to SetHeight.
var chromeHeight = lipgloss.Height(headerStyle.Render("")) + lipgloss.Height(statusStyle.Render(""))

// Update handles messages
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "r":
			return m, refreshStatus(m.source)
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		if h := msg.Height - chromeHeight; h > 0 {
			m.table.SetHeight(h)
		}
		m.table.SetWidth(msg.Width)

	case StatusMsg:
		m.statuses = msg.Statuses
		m.err = msg.Err
		m.updated = msg.At
		m.table.SetRows(statusRows(msg.Statuses))

	case TickMsg:
		cmds = append(cmds, refreshStatus(m.source), tickCmd())
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	cmds = append(cmds, cmd)

	return m, tea.Batch(cmds...)
}

// statusRows renders registry entries as table rows
func statusRows(statuses []domain.ProgramStatus) []table.Row {
	rows := make([]table.Row, 0, len(statuses))
	for _, s := range statuses {
		pid := "-"
		if s.PID > 0 {
			pid = strconv.Itoa(s.PID)
		}
		rows = append(rows, table.Row{s.Name, string(s.State), pid, orDash(s.PIDPath), orDash(s.LogPath)})
	}
	return rows
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
