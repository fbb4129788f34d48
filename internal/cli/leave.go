package cli

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/spice-itself/aware/internal/config"
	"github.com/spice-itself/aware/internal/registry"
)

func newLeaveCmd(root *rootOptions) *cobra.Command {
	var wait time.Duration

	cmd := &cobra.Command{
		Use:   "leave [program_name]",
		Short: "Stop a running supervisor, or all of them",
		Long: `Stop a running supervisor, or all of them.

With a name, the supervisor registered under that name is sent SIGTERM; it
stops its program and removes its own PID file. Without a name, every
supervisor in the PID directory is signaled and the roster is reset.

A program that is not running is reported, not treated as an error.

Examples:
  aware leave echo          # Stop the supervisor of 'echo'
  aware leave               # Stop every supervisor
  aware leave --wait 10s    # Stop all and wait for them to exit`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLeave(cmd, root, args, wait)
		},
	}

	cmd.Flags().DurationVar(&wait, "wait", 0, "Wait up to this long for signaled supervisors to exit")

	return cmd
}

func runLeave(cmd *cobra.Command, root *rootOptions, args []string, wait time.Duration) error {
	cfg, err := root.loadConfig(cmd)
	if err != nil {
		return err
	}
	reg := root.registry(cfg, root.logger(cmd))
	out := cmd.OutOrStdout()

	var results []registry.LeaveResult
	if len(args) == 1 {
		if err := config.ValidateProgramName(args[0]); err != nil {
			return err
		}
		results = []registry.LeaveResult{reg.Leave(args[0])}
	} else {
		results, err = reg.LeaveAll()
		if errors.Is(err, registry.ErrRegistryDirNotFound) {
			fmt.Fprintf(out, "PID directory not found: %s\n", reg.Dir())
			return nil
		}
		if err != nil {
			return err
		}
		if len(results) == 0 {
			fmt.Fprintf(out, "No supervisors registered in %s\n", reg.Dir())
			return nil
		}
	}

	if wait > 0 {
		results = reg.WaitGone(cmd.Context(), results, wait)
	}
	printLeaveResults(out, results, wait)
	return nil
}

func printLeaveResults(out io.Writer, results []registry.LeaveResult, wait time.Duration) {
	for _, res := range results {
		line := outcomeStyle(res.Outcome).Render(res.String())
		if wait > 0 && res.Outcome == registry.LeaveSignaled {
			if res.Exited {
				line += " " + okStyle.Render("(exited)")
			} else {
				line += " " + warnStyle.Render(fmt.Sprintf("(still running after %s)", wait))
			}
		}
		fmt.Fprintln(out, line)
	}
}
