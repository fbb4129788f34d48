package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/spice-itself/aware/internal/config"
	"github.com/spice-itself/aware/internal/domain"
	"github.com/spice-itself/aware/internal/logs"
	"github.com/spice-itself/aware/internal/registry"
	"github.com/spice-itself/aware/internal/supervisor"
)

type superviseOptions struct {
	restartDelay time.Duration
	envFile      string
}

func newSuperviseCmd(root *rootOptions) *cobra.Command {
	opts := &superviseOptions{}

	cmd := &cobra.Command{
		Use:   "supervise <program> [args...]",
		Short: "Run a program and restart it whenever it exits",
		Long: `Run a program and restart it whenever it exits.

Output goes to <log-dir>/<name>.log, where name is the program's base name,
and is mirrored to the console. The supervisor's PID is written to
<pid-dir>/<name>.pid so that 'aware leave <name>' can stop it.

Everything after the program is passed to it unchanged.

Examples:
  aware supervise echo hello
  aware supervise --restart-delay 10s ./server --port 8080`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSupervise(cmd, root, opts, args)
		},
	}

	// Flags after the program belong to the program
	cmd.Flags().SetInterspersed(false)
	cmd.Flags().DurationVar(&opts.restartDelay, "restart-delay", 0, "Delay before restarting an exited program (default 2s)")
	cmd.Flags().StringVar(&opts.envFile, "env-file", "", "Load extra environment for the program from a .env file")

	return cmd
}

func runSupervise(cmd *cobra.Command, root *rootOptions, opts *superviseOptions, args []string) error {
	logger := root.logger(cmd)

	cfg, err := root.loadConfig(cmd)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("restart-delay") {
		if opts.restartDelay < 0 {
			return fmt.Errorf("--restart-delay must not be negative")
		}
		cfg.RestartDelay = config.Duration(opts.restartDelay)
	}
	if opts.envFile != "" {
		cfg.EnvFile = opts.envFile
	}

	prog, err := cfg.Program(args[0], args[1:])
	if err != nil {
		return err
	}
	stopSignal, err := cfg.Signal()
	if err != nil {
		return err
	}

	// Signals are caught before the PID file exists so that none can kill
	// the process between registering and releasing it
	ctx, cancel := context.WithCancelCause(cmd.Context())
	defer cancel(nil)
	watchShutdownSignals(ctx, cancel)

	sink, err := logs.Open(prog.LogPath, cmd.OutOrStdout())
	if err != nil {
		return fmt.Errorf("opening log file: %w", err)
	}
	defer sink.Close()

	reg := root.registry(cfg, logger)
	pidFile, err := reg.Register(prog.Name)
	if err != nil {
		if errors.Is(err, registry.ErrPIDFileLocked) {
			return fmt.Errorf("%s is already supervised (%s): %w", prog.Name, reg.PIDPath(prog.Name), err)
		}
		return fmt.Errorf("registering %s: %w", prog.Name, err)
	}
	defer func() {
		if err := pidFile.Release(); err != nil {
			logger.Warn("PID file cleanup failed", "path", pidFile.Path(), "error", err)
		}
	}()

	fmt.Fprintf(cmd.OutOrStdout(), "Supervising %s (log: %s, PID file: %s)\n", prog.Name, prog.LogPath, pidFile.Path())

	if cfg.WatchPIDFile {
		watchPIDFile(ctx, cancel, pidFile.Path(), logger)
	}

	sup := supervisor.New(prog, sink, nil, supervisor.Config{
		RestartDelay:    cfg.RestartDelay.Std(),
		SpawnRetryDelay: cfg.SpawnRetryDelay.Std(),
		PollInterval:    cfg.PollInterval.Std(),
		StopSignal:      stopSignal,
		StopTimeout:     cfg.StopTimeout.Std(),
	})
	logger.Debug("supervisor configured", "program", prog.Name, "session", sup.SessionID())

	if err := sup.Run(ctx); err != nil {
		return fmt.Errorf("supervising %s: %w", prog.Name, err)
	}
	return nil
}

// watchShutdownSignals turns SIGINT and SIGTERM into a cancellation whose
// cause names the signal
func watchShutdownSignals(ctx context.Context, cancel context.CancelCauseFunc) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		defer signal.Stop(sigCh)
		select {
		case sig := <-sigCh:
			cancel(fmt.Errorf("received %s", supervisor.SignalName(sig)))
		case <-ctx.Done():
		}
	}()
}

// watchPIDFile cancels supervision when the PID file is removed from under us
func watchPIDFile(ctx context.Context, cancel context.CancelCauseFunc, path string, logger *slog.Logger) {
	removed, err := registry.WatchRemoval(ctx, path, logger)
	if err != nil {
		logger.Warn("not watching PID file", "path", path, "error", err)
		return
	}

	go func() {
		select {
		case <-removed:
			cancel(domain.ErrPIDFileRemoved)
		case <-ctx.Done():
		}
	}()
}
