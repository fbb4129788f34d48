// Package constants provides shared configuration values used across aware.
package constants

import "time"

// Configuration file defaults
const (
	// DefaultConfigFile is the default configuration filename
	DefaultConfigFile = "aware.yaml"

	// DefaultLogDir is the directory holding one log file per program
	DefaultLogDir = "aware_logs"

	// DefaultPIDDir is the directory holding one PID file per program plus the roster
	DefaultPIDDir = "aware_pids"

	// DefaultRosterFile is the roster filename inside the PID directory
	DefaultRosterFile = "processes.list"

	// PIDFileExt is the extension of per-program PID files
	PIDFileExt = ".pid"

	// LogFileExt is the extension of per-program log files
	LogFileExt = ".log"

	// DefaultStopSignal is the signal sent to the child on shutdown
	DefaultStopSignal = "TERM"
)

// Timeout and duration defaults
const (
	// DefaultRestartDelay is the pause between a child exit and the next spawn
	DefaultRestartDelay = 2 * time.Second

	// DefaultSpawnRetryDelay is the pause after a failed spawn attempt
	DefaultSpawnRetryDelay = 5 * time.Second

	// DefaultPollInterval is how often the controller checks child state
	DefaultPollInterval = 200 * time.Millisecond

	// MinPollInterval and MaxPollInterval bound poll_interval
	MinPollInterval = 10 * time.Millisecond
	MaxPollInterval = time.Second

	// LeaveWaitPollInterval is how often `leave --wait` checks for PID file removal
	LeaveWaitPollInterval = 100 * time.Millisecond

	// StatusRefreshInterval is the refresh period of `status --watch`
	StatusRefreshInterval = time.Second
)

// Log configuration
const (
	// LogTimestampFormat renders [YYYY-MM-DD HH:MM:SS]
	LogTimestampFormat = "2006-01-02 15:04:05"
)

// Buffer sizes
const (
	// ScannerBufferSize is the initial buffer size for log line scanning
	ScannerBufferSize = 64 * 1024 // 64KB

	// ScannerMaxBufferSize is the maximum buffer size for log line scanning
	ScannerMaxBufferSize = 1024 * 1024 // 1MB
)
