package domain

import (
	"errors"
	"fmt"
)

// Domain errors
var (
	ErrConfigNotFound    = errors.New("config file not found")
	ErrInvalidConfig     = errors.New("invalid configuration")
	ErrInvalidName       = errors.New("invalid program name")
	ErrShutdownRequested = errors.New("shutdown requested")
	ErrPIDFileRemoved    = errors.New("PID file removed")
)

// SpawnError is returned when the child could not be started.
// It is recovered by the restart loop and never ends supervision.
type SpawnError struct {
	Cmd string
	Err error
}

func (e *SpawnError) Error() string {
	return fmt.Sprintf("starting %s: %v", e.Cmd, e.Err)
}

func (e *SpawnError) Unwrap() error {
	return e.Err
}

// PidParseError is returned when a PID file holds something other than a PID.
type PidParseError struct {
	Path    string
	Content string
	Err     error
}

func (e *PidParseError) Error() string {
	return fmt.Sprintf("parsing PID file %s (content %q): %v", e.Path, e.Content, e.Err)
}

func (e *PidParseError) Unwrap() error {
	return e.Err
}

// SignalDeliveryError is returned when a supervisor could not be signaled.
type SignalDeliveryError struct {
	Name string
	PID  int
	Err  error
}

func (e *SignalDeliveryError) Error() string {
	return fmt.Sprintf("signaling %s (pid %d): %v", e.Name, e.PID, e.Err)
}

func (e *SignalDeliveryError) Unwrap() error {
	return e.Err
}
