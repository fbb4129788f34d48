package registry

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/gofrs/flock"
	"github.com/spice-itself/aware/internal/domain"
	"golang.org/x/sys/unix"
)

// PIDFile is a supervisor's PID file, exclusively locked for as long as
// the supervisor runs. The lock is what tells a live supervisor apart from
// a leftover file whose PID may since have been reused.
//
// PIDFile is not safe for concurrent use.
type PIDFile struct {
	path string
	lock *flock.Flock
}

// NewPIDFile creates a new PIDFile manager for the given path
func NewPIDFile(path string) *PIDFile {
	return &PIDFile{path: path}
}

// Path returns the PID file location
func (p *PIDFile) Path() string {
	return p.path
}

// Create locks the PID file and writes pid to it. A leftover file from a
// dead supervisor is taken over. Returns ErrPIDFileLocked if a live
// supervisor holds it.
func (p *PIDFile) Create(pid int) error {
	lock := flock.New(p.path, flock.SetPermissions(0644))

	locked, err := lock.TryLock()
	if err != nil {
		return fmt.Errorf("locking PID file: %w", err)
	}
	if !locked {
		return ErrPIDFileLocked
	}

	// flock locks the inode, so rewriting the content keeps the lock
	if err := os.WriteFile(p.path, []byte(strconv.Itoa(pid)+"\n"), 0644); err != nil {
		_ = lock.Unlock()
		return fmt.Errorf("writing PID: %w", err)
	}

	p.lock = lock
	return nil
}

// Release removes the PID file and then drops the lock. Removing first
// means nobody can observe an unlocked file that still names this process.
func (p *PIDFile) Release() error {
	if p.lock == nil {
		return nil
	}

	var removeErr error
	if err := os.Remove(p.path); err != nil && !os.IsNotExist(err) {
		removeErr = fmt.Errorf("removing PID file: %w", err)
	}

	// Unlock also closes the descriptor
	_ = p.lock.Unlock()
	p.lock = nil

	return removeErr
}

// IsLocked reports whether a supervisor currently holds the PID file.
// Returns false if the file doesn't exist.
func IsLocked(path string) bool {
	if _, err := os.Stat(path); err != nil {
		return false
	}

	// Read-only so a probe never recreates a file that was just removed
	probe := flock.New(path, flock.SetFlag(os.O_RDONLY))
	ok, err := probe.TryRLock()
	if err != nil {
		return false
	}
	if !ok {
		return true
	}
	_ = probe.Unlock()
	return false
}

// ReadPID reads the PID from a PID file. Content that is not a positive
// integer yields a *domain.PidParseError.
func ReadPID(path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("reading PID file: %w", err)
	}

	content := strings.TrimSpace(string(data))
	pid, err := strconv.Atoi(content)
	if err == nil && pid <= 0 {
		err = errors.New("PID must be positive")
	}
	if err != nil {
		return 0, &domain.PidParseError{Path: path, Content: content, Err: err}
	}

	return pid, nil
}

// ProcessExists checks if a process with the given PID exists
func ProcessExists(pid int) bool {
	if pid <= 0 {
		return false
	}
	// Signal 0 only checks. EPERM means it exists but belongs to someone else.
	err := unix.Kill(pid, 0)
	return err == nil || err == unix.EPERM
}

// Signal delivers sig to pid
func Signal(pid int, sig unix.Signal) error {
	return unix.Kill(pid, sig)
}
