package supervisor

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/spice-itself/aware/internal/constants"
	"github.com/spice-itself/aware/internal/domain"
)

// EntryWriter receives captured lines. *logs.Sink implements it.
type EntryWriter interface {
	Write(entry domain.LogEntry) error
}

// Capture drains a child's stdout and stderr concurrently, one reader per
// stream. Wait is the barrier the controller crosses before it logs an exit
// or spawns the next child.
type Capture struct {
	streams []io.Closer
	done    chan struct{}
}

// StartCapture starts one reader goroutine per stream
func StartCapture(out EntryWriter, stdout, stderr io.ReadCloser) *Capture {
	c := &Capture{done: make(chan struct{})}
	for _, r := range []io.ReadCloser{stdout, stderr} {
		if r != nil {
			c.streams = append(c.streams, r)
		}
	}

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		readOutput(out, stdout, domain.StreamStdout)
	}()
	go func() {
		defer wg.Done()
		readOutput(out, stderr, domain.StreamStderr)
	}()
	go func() {
		wg.Wait()
		close(c.done)
	}()
	return c
}

// Wait blocks until both readers have reached end of stream or failed
func (c *Capture) Wait() {
	<-c.done
}

// Done is closed once both readers have finished
func (c *Capture) Done() <-chan struct{} {
	return c.done
}

// WaitTimeout waits up to d for the readers to finish on their own. If a
// stream is still open after d (a grandchild inherited the pipe), both read
// ends are closed, which ends the readers, and WaitTimeout returns false.
func (c *Capture) WaitTimeout(d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-c.done:
		return true
	case <-timer.C:
	}

	for _, r := range c.streams {
		_ = r.Close()
	}
	<-c.done
	return false
}

// readOutput forwards each line of r to out until EOF.
// A read or log-write failure ends this reader only. Closing r on the way
// out makes a still-running child see EPIPE instead of blocking on a full pipe.
func readOutput(out EntryWriter, r io.ReadCloser, stream domain.Stream) {
	if r == nil {
		return
	}
	defer r.Close()

	scanner := bufio.NewScanner(r)
	// Increase buffer size for long lines
	scanner.Buffer(make([]byte, constants.ScannerBufferSize), constants.ScannerMaxBufferSize)

	for scanner.Scan() {
		if err := out.Write(domain.LogEntry{Stream: stream, Line: scanner.Text()}); err != nil {
			return
		}
	}

	if err := scanner.Err(); err != nil {
		if errors.Is(err, os.ErrClosed) || errors.Is(err, io.ErrClosedPipe) {
			_ = out.Write(domain.LogEntry{Line: fmt.Sprintf("[%s thread detached]", stream)})
			return
		}
		_ = out.Write(domain.LogEntry{Line: fmt.Sprintf("[%s error] read failed: %v", stream, err)})
		return
	}

	_ = out.Write(domain.LogEntry{Line: fmt.Sprintf("[%s thread finished]", stream)})
}
