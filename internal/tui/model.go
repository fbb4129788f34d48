// Package tui implements `aware status --watch`: a live table of the
// supervisors in the PID directory.
package tui

import (
	"time"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/spice-itself/aware/internal/constants"
	"github.com/spice-itself/aware/internal/domain"
)

// StatusSource lists supervisors. *registry.Registry implements it.
type StatusSource interface {
	Status() ([]domain.ProgramStatus, error)
}

// Model is the bubbletea model for the status watcher
type Model struct {
	source StatusSource
	dir    string

	table    table.Model
	statuses []domain.ProgramStatus
	err      error
	updated  time.Time

	width  int
	height int
}

// columns of the roster table
var columns = []table.Column{
	{Title: "NAME", Width: 16},
	{Title: "STATE", Width: 9},
	{Title: "PID", Width: 8},
	{Title: "PID FILE", Width: 32},
	{Title: "LOG FILE", Width: 32},
}

// NewModel creates a status watcher over source; dir is shown in the header
func NewModel(source StatusSource, dir string) Model {
	t := table.New(
		table.WithColumns(columns),
		table.WithFocused(true),
		table.WithHeight(10),
	)
	t.SetStyles(tableStyles())

	return Model{
		source: source,
		dir:    dir,
		table:  t,
	}
}

// Init initializes the model
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		refreshStatus(m.source),
		tickCmd(),
	)
}

// StatusMsg carries a fresh registry listing
type StatusMsg struct {
	Statuses []domain.ProgramStatus
	Err      error
	At       time.Time
}

// TickMsg is sent periodically
type TickMsg time.Time

// refreshStatus reads the registry off the UI goroutine
func refreshStatus(source StatusSource) tea.Cmd {
	return func() tea.Msg {
		statuses, err := source.Status()
		return StatusMsg{Statuses: statuses, Err: err, At: time.Now()}
	}
}

// tickCmd returns a command that ticks periodically
func tickCmd() tea.Cmd {
	return tea.Tick(constants.StatusRefreshInterval, func(t time.Time) tea.Msg {
		return TickMsg(t)
	})
}
