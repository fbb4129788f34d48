package domain

import (
	"path/filepath"
	"strings"
	"time"
)

// ChildState represents where the lifecycle controller is in its restart loop.
type ChildState string

const (
	// ChildStateIdle means no child is running and one should be started
	ChildStateIdle ChildState = "idle"
	// ChildStateStarting means a spawn attempt is in progress
	ChildStateStarting ChildState = "starting"
	// ChildStateRunning means a child process is alive and being polled
	ChildStateRunning ChildState = "running"
	// ChildStateStopping means shutdown was requested and the child is being torn down
	ChildStateStopping ChildState = "stopping"
	// ChildStateTerminated is terminal: supervision has ended
	ChildStateTerminated ChildState = "terminated"
)

// String returns the string representation of ChildState
func (s ChildState) String() string {
	return string(s)
}

// IsTerminal returns true once supervision has ended
func (s ChildState) IsTerminal() bool {
	return s == ChildStateTerminated
}

// Program describes the program a supervisor keeps running.
// It is built once at startup and never mutated.
type Program struct {
	Path    string   // Executable path or name as given on the command line
	Name    string   // Base name used for log and PID file names
	Args    []string // Arguments passed to the executable
	LogPath string
	PIDPath string
	Env     []string // Full child environment; nil inherits the supervisor's
}

// CommandLine renders the program and its arguments for log lines
func (p Program) CommandLine() string {
	if len(p.Args) == 0 {
		return p.Path
	}
	return p.Path + " " + strings.Join(p.Args, " ")
}

// ProgramName derives the registry name of a program from its path.
// Falls back to the path itself when it has no usable base name.
func ProgramName(path string) string {
	name := filepath.Base(path)
	if name == "." || name == string(filepath.Separator) || name == "" {
		return path
	}
	return name
}

// SupervisorState is the externally observed state of a registered supervisor.
type SupervisorState string

const (
	// SupervisorStateRunning means the PID file is held by a live supervisor
	SupervisorStateRunning SupervisorState = "running"
	// SupervisorStateStale means a PID file exists but nothing holds it
	SupervisorStateStale SupervisorState = "stale"
	// SupervisorStateStopped means the program is only known from the roster
	SupervisorStateStopped SupervisorState = "stopped"
	// SupervisorStateUnknown means the PID file could not be parsed
	SupervisorStateUnknown SupervisorState = "unknown"
)

// ProgramStatus is one row of `aware status`.
type ProgramStatus struct {
	Name    string          `json:"name"`
	State   SupervisorState `json:"state"`
	PID     int             `json:"pid,omitempty"`
	PIDPath string          `json:"pid_file,omitempty"`
	LogPath string          `json:"log_file,omitempty"`
	Error   string          `json:"error,omitempty"`
}

// RosterEntry is one `name:value` line of the roster file.
// Value is the PID file path, or a bare PID in older rosters.
type RosterEntry struct {
	Name  string
	Value string
}

// SupervisorInfo is a point-in-time snapshot of a running supervisor.
type SupervisorInfo struct {
	Program   string     `json:"program"`
	SessionID string     `json:"session_id"`
	State     ChildState `json:"state"`
	ChildPID  int        `json:"child_pid,omitempty"`
	Restarts  int        `json:"restarts"`
	StartedAt time.Time  `json:"started_at,omitempty"`
	LastExit  string     `json:"last_exit,omitempty"`
}
