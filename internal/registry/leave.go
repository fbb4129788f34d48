package registry

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spice-itself/aware/internal/constants"
	"github.com/spice-itself/aware/internal/domain"
	"golang.org/x/sys/unix"
)

// LeaveOutcome is what a leave request did for one program
type LeaveOutcome string

const (
	// LeaveSignaled means the supervisor was sent SIGTERM
	LeaveSignaled LeaveOutcome = "signaled"
	// LeaveNotRunning means there was no PID file
	LeaveNotRunning LeaveOutcome = "not running"
	// LeaveStale means the PID file named no live supervisor and was removed
	LeaveStale LeaveOutcome = "stale"
	// LeaveFailed means the PID file was unreadable or the signal failed
	LeaveFailed LeaveOutcome = "failed"
)

// LeaveResult reports a leave request for one program
type LeaveResult struct {
	Name    string
	PIDPath string
	PID     int
	Outcome LeaveOutcome
	Err     error
	// Exited is set by WaitGone once the supervisor is confirmed gone
	Exited bool
}

// Leave asks the supervisor of name to stop. The supervisor removes its own
// PID file on the way out; Leave only deletes the file when it is stale.
func (r *Registry) Leave(name string) LeaveResult {
	return r.leavePath(name, r.PIDPath(name))
}

// LeaveAll sends a stop request to every registered supervisor, then
// resets the roster. A corrupt or unsignalable entry is reported in its
// result and does not stop the sweep.
func (r *Registry) LeaveAll() ([]LeaveResult, error) {
	names, err := r.pidFileNames()
	if err != nil {
		return nil, err
	}

	results := make([]LeaveResult, 0, len(names))
	for _, name := range names {
		results = append(results, r.Leave(name))
	}

	if err := r.ResetRoster(); err != nil {
		r.log.Warn("roster not reset", "error", err)
	}

	return results, nil
}

func (r *Registry) leavePath(name, path string) LeaveResult {
	result := LeaveResult{Name: name, PIDPath: path}

	pid, err := ReadPID(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			result.Outcome = LeaveNotRunning
			result.Err = ErrNotRunning
			return result
		}
		r.log.Warn("skipping unreadable PID file", "program", name, "error", err)
		result.Outcome = LeaveFailed
		result.Err = err
		return result
	}
	result.PID = pid

	locked := r.locked(path)
	if !locked && !r.exists(pid) {
		// Nothing left to signal; clean up after the dead supervisor
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			r.log.Warn("removing stale PID file", "program", name, "error", err)
		}
		result.Outcome = LeaveStale
		return result
	}
	if !locked {
		r.log.Warn("PID file is not locked, the PID may belong to another process",
			"program", name, "pid", pid)
	}

	if err := r.kill(pid, unix.SIGTERM); err != nil {
		result.Outcome = LeaveFailed
		result.Err = &domain.SignalDeliveryError{Name: name, PID: pid, Err: err}
		r.log.Warn("signal delivery failed", "program", name, "pid", pid, "error", err)
		return result
	}

	r.log.Debug("sent SIGTERM", "program", name, "pid", pid)
	result.Outcome = LeaveSignaled
	return result
}

// WaitGone polls until every signaled supervisor in results has exited or
// timeout elapses, and returns results with Exited filled in. A supervisor
// has exited once its PID file is gone or no longer names a live process.
func (r *Registry) WaitGone(ctx context.Context, results []LeaveResult, timeout time.Duration) []LeaveResult {
	out := make([]LeaveResult, len(results))
	copy(out, results)

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	ticker := time.NewTicker(constants.LeaveWaitPollInterval)
	defer ticker.Stop()

	for {
		pending := 0
		for i := range out {
			if out[i].Outcome != LeaveSignaled || out[i].Exited {
				continue
			}
			if r.gone(out[i]) {
				out[i].Exited = true
				continue
			}
			pending++
		}
		if pending == 0 {
			return out
		}

		select {
		case <-ctx.Done():
			return out
		case <-ticker.C:
		}
	}
}

func (r *Registry) gone(res LeaveResult) bool {
	if _, err := os.Stat(res.PIDPath); os.IsNotExist(err) {
		return true
	}
	return !r.alive(res.PIDPath, res.PID)
}

// String renders a result as one report line
func (res LeaveResult) String() string {
	switch res.Outcome {
	case LeaveSignaled:
		return fmt.Sprintf("%s: sent SIGTERM to supervisor (PID %d)", res.Name, res.PID)
	case LeaveNotRunning:
		return fmt.Sprintf("%s: not running", res.Name)
	case LeaveStale:
		return fmt.Sprintf("%s: removed stale PID file (PID %d)", res.Name, res.PID)
	default:
		return fmt.Sprintf("%s: %v", res.Name, res.Err)
	}
}
