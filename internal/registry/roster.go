package registry

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spice-itself/aware/internal/domain"
)

// AppendRoster records name:pidPath in the roster file as a single write
func (r *Registry) AppendRoster(name, pidPath string) error {
	f, err := os.OpenFile(r.RosterPath(), os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("opening roster: %w", err)
	}
	defer f.Close()

	if _, err := f.WriteString(name + ":" + pidPath + "\n"); err != nil {
		return fmt.Errorf("writing roster: %w", err)
	}
	return nil
}

// ReadRoster returns the roster entries in file order. A missing roster is
// empty. Lines without a colon are skipped with a warning.
func (r *Registry) ReadRoster() ([]domain.RosterEntry, error) {
	f, err := os.Open(r.RosterPath())
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("opening roster: %w", err)
	}
	defer f.Close()

	var entries []domain.RosterEntry
	scanner := bufio.NewScanner(f)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		name, value, ok := strings.Cut(line, ":")
		if !ok || name == "" {
			r.log.Warn("skipping malformed roster line", "file", r.RosterPath(), "line", lineNo)
			continue
		}
		entries = append(entries, domain.RosterEntry{Name: name, Value: value})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading roster: %w", err)
	}

	return entries, nil
}

// ResetRoster truncates the roster file, creating it if needed
func (r *Registry) ResetRoster() error {
	f, err := os.OpenFile(r.RosterPath(), os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return fmt.Errorf("resetting roster: %w", err)
	}
	return f.Close()
}
