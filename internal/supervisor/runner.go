// Package supervisor keeps a single program running: it launches the child,
// captures its output into the program log, restarts it when it exits, and
// tears it down when shutdown is requested.
package supervisor

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"syscall"

	"github.com/spice-itself/aware/internal/domain"
)

// ProcessRunner creates and starts processes
type ProcessRunner interface {
	Start(prog domain.Program) (Process, error)
}

// Process represents a running child process
type Process interface {
	PID() int
	Wait() error
	Signal(sig os.Signal) error
	Stdout() io.ReadCloser
	Stderr() io.ReadCloser
}

// ExecRunner implements ProcessRunner using os/exec
type ExecRunner struct{}

// NewExecRunner creates a new ExecRunner
func NewExecRunner() *ExecRunner {
	return &ExecRunner{}
}

// Start launches the program with stdout and stderr on dedicated pipes.
// Failures are returned as *domain.SpawnError.
func (r *ExecRunner) Start(prog domain.Program) (Process, error) {
	cmd := exec.Command(prog.Path, prog.Args...)
	cmd.Env = prog.Env

	// Manual pipes rather than cmd.StdoutPipe: Wait must not close the read
	// ends before the readers have drained them.
	stdoutR, stdoutW, err := os.Pipe()
	if err != nil {
		return nil, &domain.SpawnError{Cmd: prog.CommandLine(), Err: fmt.Errorf("creating stdout pipe: %w", err)}
	}
	stderrR, stderrW, err := os.Pipe()
	if err != nil {
		stdoutR.Close()
		stdoutW.Close()
		return nil, &domain.SpawnError{Cmd: prog.CommandLine(), Err: fmt.Errorf("creating stderr pipe: %w", err)}
	}

	cmd.Stdout = stdoutW
	cmd.Stderr = stderrW

	startErr := cmd.Start()

	// The child holds its own copies of the write ends now
	stdoutW.Close()
	stderrW.Close()

	if startErr != nil {
		stdoutR.Close()
		stderrR.Close()
		return nil, &domain.SpawnError{Cmd: prog.CommandLine(), Err: startErr}
	}

	return &execProcess{
		cmd:    cmd,
		stdout: stdoutR,
		stderr: stderrR,
	}, nil
}

// execProcess wraps exec.Cmd to implement Process interface
type execProcess struct {
	cmd    *exec.Cmd
	stdout io.ReadCloser
	stderr io.ReadCloser
}

func (p *execProcess) PID() int {
	if p.cmd.Process == nil {
		return 0
	}
	return p.cmd.Process.Pid
}

func (p *execProcess) Wait() error {
	return p.cmd.Wait()
}

// Signal signals the child only; aware does not manage process groups.
func (p *execProcess) Signal(sig os.Signal) error {
	if p.cmd.Process == nil {
		return nil
	}
	return p.cmd.Process.Signal(sig)
}

func (p *execProcess) Stdout() io.ReadCloser {
	return p.stdout
}

func (p *execProcess) Stderr() io.ReadCloser {
	return p.stderr
}

// ExitCode extracts an exit code from a Wait error.
// For signal termination it returns the negative signal number (e.g., -15 for SIGTERM).
func ExitCode(err error) int {
	if err == nil {
		return 0
	}

	var exitErr *exec.ExitError
	if !errors.As(err, &exitErr) {
		return 1 // Generic error
	}

	if status, ok := exitErr.Sys().(syscall.WaitStatus); ok {
		if status.Signaled() {
			return -int(status.Signal())
		}
		return status.ExitStatus()
	}
	return exitErr.ExitCode()
}

// ExitStatus renders a Wait result the way it appears in the program log,
// e.g. "exit status 0", "exit status 3" or "signal: terminated".
func ExitStatus(err error) string {
	if err == nil {
		return "exit status 0"
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ProcessState.String()
	}
	return err.Error()
}
