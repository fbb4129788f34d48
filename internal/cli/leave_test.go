package cli

import (
	"encoding/json"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spice-itself/aware/internal/domain"
	"github.com/spice-itself/aware/internal/registry"
)

// startSleeper starts a long-running child to act as a supervisor target
func startSleeper(t *testing.T) *exec.Cmd {
	t.Helper()
	sleeper := exec.Command("sleep", "30")
	require.NoError(t, sleeper.Start())
	t.Cleanup(func() {
		_ = sleeper.Process.Kill()
		_, _ = sleeper.Process.Wait()
	})
	return sleeper
}

// deadPID returns the PID of a process that has already exited and been reaped
func deadPID(t *testing.T) int {
	t.Helper()
	c := exec.Command("true")
	require.NoError(t, c.Run())
	return c.Process.Pid
}

func TestLeave_NotRunning(t *testing.T) {
	pidDir, _, flags := testDirs(t)
	require.NoError(t, os.MkdirAll(pidDir, 0755))

	stdout, _, err := captureOutput(t, append([]string{"leave", "nonexistent-name"}, flags...)...)
	require.NoError(t, err)
	assert.Contains(t, stdout, "nonexistent-name: not running")
}

func TestLeave_NotRunningWithoutDirectory(t *testing.T) {
	_, _, flags := testDirs(t)

	stdout, _, err := captureOutput(t, append([]string{"leave", "nonexistent-name"}, flags...)...)
	require.NoError(t, err)
	assert.Contains(t, stdout, "not running")
}

func TestLeave_AllWithoutDirectory(t *testing.T) {
	pidDir, _, flags := testDirs(t)

	stdout, _, err := captureOutput(t, append([]string{"leave"}, flags...)...)
	require.NoError(t, err)
	assert.Contains(t, stdout, "PID directory not found: "+pidDir)
}

func TestLeave_AllEmptyDirectory(t *testing.T) {
	pidDir, _, flags := testDirs(t)
	require.NoError(t, os.MkdirAll(pidDir, 0755))

	stdout, _, err := captureOutput(t, append([]string{"leave"}, flags...)...)
	require.NoError(t, err)
	assert.Contains(t, stdout, "No supervisors registered")
}

func TestLeave_InvalidName(t *testing.T) {
	_, _, flags := testDirs(t)

	_, _, err := captureOutput(t, append([]string{"leave", "../etc"}, flags...)...)
	assert.Error(t, err)
}

func TestLeave_SignalsRegisteredProcess(t *testing.T) {
	pidDir, _, flags := testDirs(t)
	require.NoError(t, os.MkdirAll(pidDir, 0755))

	sleeper := startSleeper(t)
	pf := registry.NewPIDFile(filepath.Join(pidDir, "sleep.pid"))
	require.NoError(t, pf.Create(sleeper.Process.Pid))
	defer pf.Release()

	stdout, _, err := captureOutput(t, append([]string{"leave", "sleep"}, flags...)...)
	require.NoError(t, err)
	assert.Contains(t, stdout, "sent SIGTERM")

	state, err := sleeper.Process.Wait()
	require.NoError(t, err)
	assert.Equal(t, "signal: terminated", state.String())
	assert.FileExists(t, pf.Path(), "the target removes its own PID file")
}

func TestLeave_AllSweepsPastCorruptFile(t *testing.T) {
	pidDir, _, flags := testDirs(t)
	require.NoError(t, os.MkdirAll(pidDir, 0755))

	sleeper := startSleeper(t)
	pf := registry.NewPIDFile(filepath.Join(pidDir, "b-sleep.pid"))
	require.NoError(t, pf.Create(sleeper.Process.Pid))
	defer pf.Release()

	require.NoError(t, os.WriteFile(filepath.Join(pidDir, "a-corrupt.pid"), []byte("garbage"), 0644))
	stalePath := filepath.Join(pidDir, "c-stale.pid")
	require.NoError(t, os.WriteFile(stalePath, []byte("999999999\n"), 0644))
	rosterPath := filepath.Join(pidDir, "processes.list")
	require.NoError(t, os.WriteFile(rosterPath, []byte("b-sleep:"+pf.Path()+"\n"), 0644))

	stdout, stderr, err := captureOutput(t, append([]string{"leave"}, flags...)...)
	require.NoError(t, err)

	assert.Contains(t, stdout, "a-corrupt: parsing PID file")
	assert.Contains(t, stdout, "b-sleep: sent SIGTERM")
	assert.Contains(t, stdout, "c-stale: removed stale PID file")
	assert.Contains(t, stderr, "skipping unreadable PID file")

	_, err = sleeper.Process.Wait()
	require.NoError(t, err)
	assert.NoFileExists(t, stalePath)

	data, err := os.ReadFile(rosterPath)
	require.NoError(t, err)
	assert.Empty(t, data)
}

func TestLeave_Wait(t *testing.T) {
	pidDir, _, flags := testDirs(t)
	require.NoError(t, os.MkdirAll(pidDir, 0755))

	sleeper := startSleeper(t)
	pidPath := filepath.Join(pidDir, "sleep.pid")
	// Unlocked file for a live process: signaled, then reported gone once reaped
	require.NoError(t, os.WriteFile(pidPath, []byte(strconv.Itoa(sleeper.Process.Pid)+"\n"), 0644))

	reaped := make(chan struct{})
	go func() {
		_, _ = sleeper.Process.Wait()
		close(reaped)
	}()

	stdout, _, err := captureOutput(t, append([]string{"leave", "--wait", "5s", "sleep"}, flags...)...)
	require.NoError(t, err)
	<-reaped
	assert.Contains(t, stdout, "sent SIGTERM")
	assert.Contains(t, stdout, "(exited)")
}

func TestStatus(t *testing.T) {
	pidDir, logDir, flags := testDirs(t)
	require.NoError(t, os.MkdirAll(pidDir, 0755))

	sleeper := startSleeper(t)
	pf := registry.NewPIDFile(filepath.Join(pidDir, "live.pid"))
	require.NoError(t, pf.Create(sleeper.Process.Pid))
	defer pf.Release()
	require.NoError(t, os.WriteFile(filepath.Join(pidDir, "old.pid"), []byte(strconv.Itoa(deadPID(t))+"\n"), 0644))

	t.Run("json", func(t *testing.T) {
		stdout, _, err := captureOutput(t, append([]string{"status", "--json"}, flags...)...)
		require.NoError(t, err)

		var statuses []domain.ProgramStatus
		require.NoError(t, json.Unmarshal([]byte(stdout), &statuses))
		require.Len(t, statuses, 2)
		assert.Equal(t, "live", statuses[0].Name)
		assert.Equal(t, domain.SupervisorStateRunning, statuses[0].State)
		assert.Equal(t, sleeper.Process.Pid, statuses[0].PID)
		assert.Equal(t, filepath.Join(logDir, "live.log"), statuses[0].LogPath)
		assert.Equal(t, "old", statuses[1].Name)
		assert.Equal(t, domain.SupervisorStateStale, statuses[1].State)
	})

	t.Run("table", func(t *testing.T) {
		stdout, _, err := captureOutput(t, append([]string{"status"}, flags...)...)
		require.NoError(t, err)
		assert.Contains(t, stdout, "NAME")
		assert.Contains(t, stdout, "live")
		assert.Contains(t, stdout, "running")
		assert.Contains(t, stdout, "stale")
	})

	t.Run("json and watch conflict", func(t *testing.T) {
		_, _, err := captureOutput(t, append([]string{"status", "--json", "--watch"}, flags...)...)
		assert.Error(t, err)
	})
}

func TestStatus_MissingDirectory(t *testing.T) {
	pidDir, _, flags := testDirs(t)

	stdout, _, err := captureOutput(t, append([]string{"status"}, flags...)...)
	require.NoError(t, err)
	assert.Contains(t, stdout, "PID directory not found: "+pidDir)

	stdout, _, err = captureOutput(t, append([]string{"status", "--json"}, flags...)...)
	require.NoError(t, err)
	assert.Equal(t, "[]\n", stdout)
}
