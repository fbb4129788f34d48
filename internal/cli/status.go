package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/spice-itself/aware/internal/domain"
	"github.com/spice-itself/aware/internal/registry"
	"github.com/spice-itself/aware/internal/tui"
)

func newStatusCmd(root *rootOptions) *cobra.Command {
	var jsonOutput, watch bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "List registered supervisors",
		Long: `List the supervisors found in the PID directory and the roster.

A supervisor is running while it holds the lock on its PID file. A PID file
nobody holds is stale; a program only known from the roster is stopped.

Examples:
  aware status
  aware status --json
  aware status --watch   # Live view, q to quit`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStatus(cmd, root, jsonOutput, watch)
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	cmd.Flags().BoolVarP(&watch, "watch", "w", false, "Refresh continuously in an interactive view")
	cmd.MarkFlagsMutuallyExclusive("json", "watch")

	return cmd
}

func runStatus(cmd *cobra.Command, root *rootOptions, jsonOutput, watch bool) error {
	cfg, err := root.loadConfig(cmd)
	if err != nil {
		return err
	}
	reg := root.registry(cfg, root.logger(cmd))

	if watch {
		return tui.Run(reg, reg.Dir())
	}

	out := cmd.OutOrStdout()
	statuses, err := reg.Status()
	if errors.Is(err, registry.ErrRegistryDirNotFound) {
		if jsonOutput {
			fmt.Fprintln(out, "[]")
			return nil
		}
		fmt.Fprintf(out, "PID directory not found: %s\n", reg.Dir())
		return nil
	}
	if err != nil {
		return err
	}

	if jsonOutput {
		if statuses == nil {
			statuses = []domain.ProgramStatus{}
		}
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(statuses)
	}

	if len(statuses) == 0 {
		fmt.Fprintf(out, "No supervisors registered in %s\n", reg.Dir())
		return nil
	}
	printStatusTable(out, statuses)
	return nil
}

// printStatusTable renders one padded row per supervisor. Widths are
// applied by lipgloss so colored cells stay aligned.
func printStatusTable(out io.Writer, statuses []domain.ProgramStatus) {
	nameWidth := len("NAME")
	for _, s := range statuses {
		nameWidth = max(nameWidth, len(s.Name))
	}
	nameCol := headerStyle.Width(nameWidth + 2)
	stateCol := 10
	pidCol := 9

	fmt.Fprintln(out,
		nameCol.Render("NAME")+
			headerStyle.Width(stateCol).Render("STATE")+
			headerStyle.Width(pidCol).Render("PID")+
			headerStyle.Render("LOG"))

	for _, s := range statuses {
		pid := "-"
		if s.PID > 0 {
			pid = strconv.Itoa(s.PID)
		}
		detail := s.LogPath
		if s.Error != "" {
			detail = s.Error
		}
		fmt.Fprintln(out,
			nameCol.UnsetBold().Render(s.Name)+
				stateStyle(s.State).Width(stateCol).Render(string(s.State))+
				dimStyle.Width(pidCol).Render(pid)+
				detail)
	}
}
