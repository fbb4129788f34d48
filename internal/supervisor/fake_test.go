package supervisor

import (
	"errors"
	"io"
	"os"
	"strings"
	"sync"
	"syscall"

	"github.com/spice-itself/aware/internal/domain"
)

var errSignaled = errors.New("signal: terminated")

// fakeProcess is a child that runs until finish is called or, by default,
// until it receives SIGTERM or SIGKILL.
type fakeProcess struct {
	pid    int
	stdout string
	stderr string

	ignoreTerm bool // survive SIGTERM, die on SIGKILL
	holdOutput bool // stdout stays open after exit, as if a grandchild held it

	exit    chan error
	once    sync.Once
	mu      sync.Mutex
	signals []os.Signal
}

func newFakeProcess(pid int) *fakeProcess {
	return &fakeProcess{pid: pid, exit: make(chan error, 1)}
}

func (p *fakeProcess) PID() int { return p.pid }

func (p *fakeProcess) Wait() error { return <-p.exit }

func (p *fakeProcess) Signal(sig os.Signal) error {
	p.mu.Lock()
	p.signals = append(p.signals, sig)
	p.mu.Unlock()

	if sig == syscall.SIGKILL || (sig == syscall.SIGTERM && !p.ignoreTerm) {
		p.finish(errSignaled)
	}
	return nil
}

func (p *fakeProcess) Stdout() io.ReadCloser {
	if p.holdOutput {
		r, _ := io.Pipe()
		return r
	}
	return io.NopCloser(strings.NewReader(p.stdout))
}

func (p *fakeProcess) Stderr() io.ReadCloser { return io.NopCloser(strings.NewReader(p.stderr)) }

// finish makes Wait return err; later calls are ignored
func (p *fakeProcess) finish(err error) {
	p.once.Do(func() { p.exit <- err })
}

func (p *fakeProcess) Signals() []os.Signal {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]os.Signal(nil), p.signals...)
}

// fakeRunner hands out fakeProcesses, optionally failing the first attempts
type fakeRunner struct {
	mu        sync.Mutex
	attempts  int
	failFirst int  // this many initial Start calls fail
	failAll   bool // every Start call fails
	configure func(p *fakeProcess)
	procs     []*fakeProcess
}

func (r *fakeRunner) Start(prog domain.Program) (Process, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.attempts++
	if r.failAll || r.attempts <= r.failFirst {
		return nil, &domain.SpawnError{Cmd: prog.CommandLine(), Err: os.ErrNotExist}
	}

	p := newFakeProcess(100 + len(r.procs))
	if r.configure != nil {
		r.configure(p)
	}
	r.procs = append(r.procs, p)
	return p, nil
}

func (r *fakeRunner) Attempts() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.attempts
}

func (r *fakeRunner) Started() []*fakeProcess {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]*fakeProcess(nil), r.procs...)
}

// Last returns the most recently started process, or nil
func (r *fakeRunner) Last() *fakeProcess {
	procs := r.Started()
	if len(procs) == 0 {
		return nil
	}
	return procs[len(procs)-1]
}
