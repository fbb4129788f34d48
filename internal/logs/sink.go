// Package logs writes the per-program log: one append-only file of
// "[YYYY-MM-DD HH:MM:SS] message" lines, mirrored to the console.
package logs

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/spice-itself/aware/internal/constants"
	"github.com/spice-itself/aware/internal/domain"
)

// Sink serializes writers onto a single log file.
//
// The controller and both output readers share one Sink. Every line is
// formatted in full and written with a single Write call while holding the
// lock, so concurrent writers never split or interleave a line.
type Sink struct {
	mu      sync.Mutex
	out     io.Writer
	closer  io.Closer
	console io.Writer
	now     func() time.Time
}

// Open opens (creating if needed) the log file at path in append mode.
// The file is never truncated or rotated. console may be nil.
func Open(path string, console io.Writer) (*Sink, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("creating log directory: %w", err)
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("opening log file: %w", err)
	}

	s := NewSink(f, console)
	s.closer = f
	return s, nil
}

// NewSink creates a Sink over an arbitrary writer
func NewSink(out io.Writer, console io.Writer) *Sink {
	return &Sink{
		out:     out,
		console: console,
		now:     time.Now,
	}
}

// Write appends one entry. Entries without a timestamp are stamped under
// the lock so file order and timestamp order agree.
func (s *Sink) Write(entry domain.LogEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	ts := entry.Timestamp
	if ts.IsZero() {
		ts = s.now()
	}
	line := FormatLine(ts, entry.Message())

	if _, err := io.WriteString(s.out, line); err != nil {
		return fmt.Errorf("writing log: %w", err)
	}

	// The console copy is best effort
	if s.console != nil {
		_, _ = io.WriteString(s.console, line)
	}

	return nil
}

// Log appends a supervisor message
func (s *Sink) Log(msg string) error {
	return s.Write(domain.LogEntry{Stream: domain.StreamSupervisor, Line: msg})
}

// Logf appends a formatted supervisor message
func (s *Sink) Logf(format string, args ...any) error {
	return s.Log(fmt.Sprintf(format, args...))
}

// Close closes the underlying file if the Sink opened it
func (s *Sink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closer == nil {
		return nil
	}
	err := s.closer.Close()
	s.closer = nil
	return err
}

// FormatLine renders "[YYYY-MM-DD HH:MM:SS] message\n"
func FormatLine(ts time.Time, msg string) string {
	return "[" + ts.Format(constants.LogTimestampFormat) + "] " + msg + "\n"
}
