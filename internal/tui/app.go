package tui

import (
	tea "github.com/charmbracelet/bubbletea"
)

// Run starts the status watcher and blocks until the user quits
func Run(source StatusSource, dir string) error {
	p := tea.NewProgram(NewModel(source, dir), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
