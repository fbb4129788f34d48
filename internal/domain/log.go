package domain

import "time"

// Stream represents the output stream type
type Stream string

const (
	// StreamSupervisor tags lines written by the supervisor itself
	StreamSupervisor Stream = ""
	StreamStdout     Stream = "stdout"
	StreamStderr     Stream = "stderr"
)

// String returns the string representation of Stream
func (s Stream) String() string {
	return string(s)
}

// LogEntry represents a single log line destined for a program log
type LogEntry struct {
	Timestamp time.Time
	Stream    Stream
	Line      string
}

// Message renders the entry body without its timestamp.
// Child output is prefixed with its stream, e.g. "[stdout] hello".
func (e LogEntry) Message() string {
	if e.Stream == StreamSupervisor {
		return e.Line
	}
	return "[" + string(e.Stream) + "] " + e.Line
}
