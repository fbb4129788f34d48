package integration

import (
	"bytes"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"
)

// buildBinary builds the aware binary and returns its path
func buildBinary(t *testing.T) string {
	t.Helper()

	// Get project root (two directories up from test/integration)
	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("failed to get working directory: %v", err)
	}
	projectRoot := filepath.Join(wd, "..", "..")

	binary := filepath.Join(t.TempDir(), "aware")

	cmd := exec.Command("go", "build", "-o", binary, "./cmd/aware")
	cmd.Dir = projectRoot
	output, err := cmd.CombinedOutput()
	if err != nil {
		t.Fatalf("failed to build binary: %v\n%s", err, output)
	}

	return binary
}

// lockedBuffer collects a child's output while it runs
type lockedBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *lockedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *lockedBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

// supervisor is a running `aware supervise` process
type supervisor struct {
	cmd    *exec.Cmd
	output *lockedBuffer
	done   chan struct{}
	err    error
}

// startSupervise starts `aware supervise args...` in dir
func startSupervise(t *testing.T, binary, dir string, args ...string) *supervisor {
	t.Helper()

	s := &supervisor{output: &lockedBuffer{}, done: make(chan struct{})}
	s.cmd = exec.Command(binary, append([]string{"supervise"}, args...)...)
	s.cmd.Dir = dir
	s.cmd.Stdout = s.output
	s.cmd.Stderr = s.output

	if err := s.cmd.Start(); err != nil {
		t.Fatalf("failed to start aware: %v", err)
	}
	go func() {
		s.err = s.cmd.Wait()
		close(s.done)
	}()

	t.Cleanup(func() {
		select {
		case <-s.done:
		default:
			_ = s.cmd.Process.Kill()
			<-s.done
		}
	})
	return s
}

// wait waits for the supervisor to exit and fails the test on timeout
func (s *supervisor) wait(t *testing.T, timeout time.Duration) error {
	t.Helper()
	select {
	case <-s.done:
		return s.err
	case <-time.After(timeout):
		t.Fatalf("supervisor did not exit within %v\noutput:\n%s", timeout, s.output.String())
		return nil
	}
}

// runAware runs a one-shot aware command and returns its combined output
func runAware(t *testing.T, binary, dir string, args ...string) (string, error) {
	t.Helper()
	cmd := exec.Command(binary, args...)
	cmd.Dir = dir
	output, err := cmd.CombinedOutput()
	return string(output), err
}

// readLog returns the content of a file, or "" if it does not exist yet
func readLog(path string) string {
	data, err := os.ReadFile(path)
	if err != nil {
		return ""
	}
	return string(data)
}

// waitForLog waits until the file contains substr at least n times
func waitForLog(t *testing.T, path, substr string, n int, timeout time.Duration) string {
	t.Helper()

	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		content := readLog(path)
		if strings.Count(content, substr) >= n {
			return content
		}
		time.Sleep(50 * time.Millisecond)
	}
	t.Fatalf("%s did not contain %q %d times within %v\ncontent:\n%s", path, substr, n, timeout, readLog(path))
	return ""
}

// waitForFile waits for a file to exist
func waitForFile(t *testing.T, path string, timeout time.Duration) {
	t.Helper()

	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if _, err := os.Stat(path); err == nil {
			return
		}
		time.Sleep(50 * time.Millisecond)
	}
	t.Fatalf("%s was not created within %v", path, timeout)
}

// lineIndex returns the index of the first line at or after from containing substr
func lineIndex(lines []string, from int, substr string) int {
	for i := from; i < len(lines); i++ {
		if strings.Contains(lines[i], substr) {
			return i
		}
	}
	return -1
}

// lineTime parses the [YYYY-MM-DD HH:MM:SS] prefix of a log line
func lineTime(t *testing.T, line string) time.Time {
	t.Helper()
	if len(line) < 21 || line[0] != '[' {
		t.Fatalf("log line has no timestamp: %q", line)
	}
	ts, err := time.ParseInLocation("2006-01-02 15:04:05", line[1:20], time.Local)
	if err != nil {
		t.Fatalf("bad timestamp in %q: %v", line, err)
	}
	return ts
}

func skipShort(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
}
