package registry

import "errors"

var (
	// ErrNotRunning is returned when no PID file exists for a program
	ErrNotRunning = errors.New("program is not running")
	// ErrPIDFileLocked is returned when another supervisor holds the PID file
	ErrPIDFileLocked = errors.New("PID file is locked by another supervisor")
	// ErrRegistryDirNotFound is returned when the PID directory does not exist
	ErrRegistryDirNotFound = errors.New("PID directory not found")
)
