package supervisor

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/spice-itself/aware/internal/constants"
	"github.com/spice-itself/aware/internal/domain"
)

// Logger is the program log as the controller sees it. *logs.Sink implements it.
type Logger interface {
	EntryWriter
	Logf(format string, args ...any) error
}

// Config holds the restart loop timings
type Config struct {
	RestartDelay    time.Duration // pause after a child exit
	SpawnRetryDelay time.Duration // pause after a failed spawn
	PollInterval    time.Duration
	StopSignal      os.Signal
	// StopTimeout bounds the wait for the child after StopSignal before
	// escalating to SIGKILL, and then the wait for its output pipes to
	// close. Zero waits indefinitely for both.
	StopTimeout time.Duration
}

// DefaultConfig returns default configuration
func DefaultConfig() Config {
	return Config{
		RestartDelay:    constants.DefaultRestartDelay,
		SpawnRetryDelay: constants.DefaultSpawnRetryDelay,
		PollInterval:    constants.DefaultPollInterval,
		StopSignal:      sigterm,
	}
}

// Supervisor is the lifecycle controller for one program.
// Run owns the child handle; nothing else can reach it.
type Supervisor struct {
	program   domain.Program
	log       Logger
	runner    ProcessRunner
	cfg       Config
	sessionID string
	spawns    int // successful spawns; touched only by Run

	// mu guards info, which is only a snapshot for observers
	mu   sync.RWMutex
	info domain.SupervisorInfo
}

// child is the live process plus the readers draining it
type child struct {
	proc    Process
	capture *Capture
	exited  chan error
}

// New creates a supervisor. A nil runner uses ExecRunner.
func New(prog domain.Program, log Logger, runner ProcessRunner, cfg Config) *Supervisor {
	if runner == nil {
		runner = NewExecRunner()
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = constants.DefaultPollInterval
	}
	if cfg.StopSignal == nil {
		cfg.StopSignal = sigterm
	}

	sessionID := uuid.NewString()
	return &Supervisor{
		program:   prog,
		log:       log,
		runner:    runner,
		cfg:       cfg,
		sessionID: sessionID,
		info: domain.SupervisorInfo{
			Program:   prog.Name,
			SessionID: sessionID,
			State:     domain.ChildStateIdle,
		},
	}
}

// SessionID identifies this supervision run in the program log
func (s *Supervisor) SessionID() string {
	return s.sessionID
}

// Info returns a snapshot of the supervisor state
func (s *Supervisor) Info() domain.SupervisorInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.info
}

// Run drives the restart loop until ctx is cancelled, then stops the child
// and returns. Cancellation is the shutdown signal; context.Cause names the
// reason in the log. A failed write to the program log is fatal and is
// returned after the child has been torn down.
func (s *Supervisor) Run(ctx context.Context) error {
	s.update(func(info *domain.SupervisorInfo) {
		info.StartedAt = time.Now()
		info.State = domain.ChildStateIdle
	})

	var current *child
	defer func() {
		// Only reached with a live child when a log write failed
		if current != nil {
			s.stopChild(current, func(string, ...any) {})
			s.setState(domain.ChildStateTerminated)
		}
	}()

	if err := s.log.Logf("Supervisor starting for %s (session %s)", s.program.Name, s.sessionID); err != nil {
		return err
	}

	for {
		if ctx.Err() != nil {
			err := s.shutdown(ctx, current)
			current = nil
			return err
		}

		if current == nil {
			c, err := s.spawn()
			if c != nil {
				current = c
			}
			if err != nil {
				var spawnErr *domain.SpawnError
				if !errors.As(err, &spawnErr) {
					return err
				}
				if err := s.log.Logf("Failed to start process: %v. Retrying in %s...", spawnErr.Err, s.cfg.SpawnRetryDelay); err != nil {
					return err
				}
				s.sleep(ctx, s.cfg.SpawnRetryDelay)
				continue
			}
		}

		select {
		case waitErr := <-current.exited:
			// Drain output before logging the exit so nothing from this
			// child lands after it, or after the next child's first line
			select {
			case <-current.capture.Done():
			case <-ctx.Done():
				s.joinCapture(current, func(format string, args ...any) { _ = s.log.Logf(format, args...) })
			}
			current = nil

			status := ExitStatus(waitErr)
			s.update(func(info *domain.SupervisorInfo) {
				info.State = domain.ChildStateIdle
				info.ChildPID = 0
				info.LastExit = status
			})
			if err := s.log.Logf("Process exited with status: %s (rc=%d)", status, ExitCode(waitErr)); err != nil {
				return err
			}

			if ctx.Err() == nil {
				if err := s.log.Logf("Restarting in %s...", s.cfg.RestartDelay); err != nil {
					return err
				}
				s.sleep(ctx, s.cfg.RestartDelay)
			}
		default:
			s.sleep(ctx, s.cfg.PollInterval)
		}
	}
}

// spawn starts a child. A non-nil child is returned whenever a process was
// actually started, even if logging its PID then failed.
func (s *Supervisor) spawn() (*child, error) {
	s.setState(domain.ChildStateStarting)

	if err := s.log.Logf("Starting process: %s", s.program.CommandLine()); err != nil {
		return nil, err
	}

	proc, err := s.runner.Start(s.program)
	if err != nil {
		s.setState(domain.ChildStateIdle)
		var spawnErr *domain.SpawnError
		if !errors.As(err, &spawnErr) {
			err = &domain.SpawnError{Cmd: s.program.CommandLine(), Err: err}
		}
		return nil, err
	}

	c := &child{proc: proc, exited: make(chan error, 1)}
	go func() {
		c.exited <- proc.Wait()
	}()

	restart := s.spawns > 0
	s.spawns++

	s.update(func(info *domain.SupervisorInfo) {
		if restart {
			info.Restarts++
		}
		info.State = domain.ChildStateRunning
		info.ChildPID = proc.PID()
	})

	logErr := s.log.Logf("Process started, PID: %d", proc.PID())

	// Readers start after the PID line so captured output always follows it
	c.capture = StartCapture(s.log, proc.Stdout(), proc.Stderr())

	return c, logErr
}

// shutdown tears down the child (if any) and writes the closing log lines.
// Every step runs even if a log write fails; the first failure is returned.
func (s *Supervisor) shutdown(ctx context.Context, c *child) error {
	s.setState(domain.ChildStateStopping)

	var logErr error
	logf := func(format string, args ...any) {
		if err := s.log.Logf(format, args...); err != nil && logErr == nil {
			logErr = err
		}
	}

	logf("Shutting down: %v", shutdownReason(ctx))
	if c != nil {
		s.stopChild(c, logf)
	}

	s.update(func(info *domain.SupervisorInfo) {
		info.State = domain.ChildStateTerminated
		info.ChildPID = 0
	})
	logf("Supervisor exiting.")

	return logErr
}

// stopChild sends the stop signal, waits for the exit, and joins the readers.
// Without a StopTimeout the wait is unbounded.
func (s *Supervisor) stopChild(c *child, logf func(format string, args ...any)) {
	sig := s.cfg.StopSignal
	logf("Sending %s to child process (PID %d)", SignalName(sig), c.proc.PID())
	if err := c.proc.Signal(sig); err != nil {
		logf("Failed to signal child process: %v", err)
	}

	var waitErr error
	if s.cfg.StopTimeout <= 0 {
		waitErr = <-c.exited
	} else {
		timer := time.NewTimer(s.cfg.StopTimeout)
		select {
		case waitErr = <-c.exited:
		case <-timer.C:
			logf("Child process did not exit within %s, sending %s", s.cfg.StopTimeout, SignalName(sigkill))
			if err := c.proc.Signal(sigkill); err != nil {
				logf("Failed to kill child process: %v", err)
			}
			waitErr = <-c.exited
		}
		timer.Stop()
	}

	s.joinCapture(c, logf)

	status := ExitStatus(waitErr)
	s.update(func(info *domain.SupervisorInfo) {
		info.LastExit = status
	})
	logf("Child process exited with status: %s", status)
}

// joinCapture waits for the child's readers. With a StopTimeout the wait is
// bounded: pipes still held open by a surviving grandchild are closed.
func (s *Supervisor) joinCapture(c *child, logf func(format string, args ...any)) {
	if s.cfg.StopTimeout <= 0 {
		c.capture.Wait()
		return
	}
	if !c.capture.WaitTimeout(s.cfg.StopTimeout) {
		logf("Closed output pipes still open %s after child exit", s.cfg.StopTimeout)
	}
}

// sleep waits for d or until shutdown is requested
func (s *Supervisor) sleep(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}

func (s *Supervisor) setState(state domain.ChildState) {
	s.update(func(info *domain.SupervisorInfo) {
		info.State = state
	})
}

func (s *Supervisor) update(fn func(info *domain.SupervisorInfo)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(&s.info)
}

func shutdownReason(ctx context.Context) string {
	cause := context.Cause(ctx)
	if cause == nil {
		return domain.ErrShutdownRequested.Error()
	}
	return fmt.Sprint(cause)
}
