package supervisor

import (
	"errors"
	"io"
	"os/exec"
	"testing"
	"time"

	"github.com/spice-itself/aware/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func shProgram(script string) domain.Program {
	return domain.Program{
		Path: "sh",
		Name: "sh",
		Args: []string{"-c", script},
	}
}

func TestExecRunner_Start(t *testing.T) {
	runner := NewExecRunner()

	t.Run("starts simple command", func(t *testing.T) {
		proc, err := runner.Start(domain.Program{Path: "echo", Name: "echo", Args: []string{"hello"}})
		require.NoError(t, err)
		assert.Greater(t, proc.PID(), 0)

		output, err := io.ReadAll(proc.Stdout())
		require.NoError(t, err)
		assert.Equal(t, "hello\n", string(output))

		err = proc.Wait()
		assert.NoError(t, err)
	})

	t.Run("passes environment", func(t *testing.T) {
		prog := shProgram("echo $TEST_VAR")
		prog.Env = []string{"TEST_VAR=test_value"}

		proc, err := runner.Start(prog)
		require.NoError(t, err)

		output, err := io.ReadAll(proc.Stdout())
		require.NoError(t, err)
		assert.Contains(t, string(output), "test_value")

		proc.Wait()
	})

	t.Run("captures stderr", func(t *testing.T) {
		proc, err := runner.Start(shProgram("echo error >&2"))
		require.NoError(t, err)

		output, err := io.ReadAll(proc.Stderr())
		require.NoError(t, err)
		assert.Contains(t, string(output), "error")

		proc.Wait()
	})

	t.Run("pipes stay readable after wait", func(t *testing.T) {
		proc, err := runner.Start(shProgram("echo late"))
		require.NoError(t, err)

		require.NoError(t, proc.Wait())

		output, err := io.ReadAll(proc.Stdout())
		require.NoError(t, err)
		assert.Equal(t, "late\n", string(output))
	})

	t.Run("can be signaled", func(t *testing.T) {
		proc, err := runner.Start(domain.Program{Path: "sleep", Name: "sleep", Args: []string{"30"}})
		require.NoError(t, err)

		err = proc.Signal(sigterm)
		assert.NoError(t, err)

		done := make(chan error, 1)
		go func() {
			done <- proc.Wait()
		}()

		select {
		case err := <-done:
			assert.Equal(t, -15, ExitCode(err))
			assert.Equal(t, "signal: terminated", ExitStatus(err))
		case <-time.After(2 * time.Second):
			t.Fatal("process did not exit after signal")
		}
	})

	t.Run("missing executable returns spawn error", func(t *testing.T) {
		proc, err := runner.Start(domain.Program{Path: "/nonexistent/command/that/does/not/exist", Name: "exist"})
		require.Error(t, err)
		assert.Nil(t, proc)

		var spawnErr *domain.SpawnError
		require.ErrorAs(t, err, &spawnErr)
		assert.Contains(t, spawnErr.Cmd, "/nonexistent/command")
	})

	t.Run("unknown command in PATH returns spawn error", func(t *testing.T) {
		_, err := runner.Start(domain.Program{Path: "aware-no-such-binary-xyz", Name: "aware-no-such-binary-xyz"})
		assert.ErrorIs(t, err, exec.ErrNotFound)
	})

	t.Run("command exits with error code", func(t *testing.T) {
		proc, err := runner.Start(shProgram("exit 42"))
		require.NoError(t, err)

		err = proc.Wait()
		assert.Error(t, err)
		assert.Equal(t, 42, ExitCode(err))
		assert.Equal(t, "exit status 42", ExitStatus(err))
	})
}

func TestExitCode(t *testing.T) {
	assert.Equal(t, 0, ExitCode(nil))
	assert.Equal(t, 1, ExitCode(errors.New("wait failed")))
}

func TestExitStatus(t *testing.T) {
	assert.Equal(t, "exit status 0", ExitStatus(nil))
	assert.Equal(t, "wait failed", ExitStatus(errors.New("wait failed")))
}

func TestSignalName(t *testing.T) {
	assert.Equal(t, "SIGTERM", SignalName(sigterm))
	assert.Equal(t, "SIGKILL", SignalName(sigkill))
}
