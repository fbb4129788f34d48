package cli

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/spice-itself/aware/internal/config"
	"github.com/spice-itself/aware/internal/constants"
	"github.com/spice-itself/aware/internal/registry"
)

// Version is set during build
var Version = "dev"

// rootOptions holds the persistent flags
type rootOptions struct {
	configPath string
	logDir     string
	pidDir     string
	verbose    bool
}

// newRootCmd builds the command tree. Each call returns fresh flag state.
func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	rootCmd := &cobra.Command{
		Use:   "aware",
		Short: "A minimal process supervisor",
		Long: `aware keeps a program running: it restarts it whenever it exits and
appends its output to a timestamped log file.

A running supervisor can be stopped from another shell with 'aware leave'.
Supervisors find each other only through the PID directory.`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVarP(&opts.configPath, "config", "c", constants.DefaultConfigFile, "Config file")
	rootCmd.PersistentFlags().StringVar(&opts.logDir, "log-dir", "", "Directory for program logs (default "+constants.DefaultLogDir+")")
	rootCmd.PersistentFlags().StringVar(&opts.pidDir, "pid-dir", "", "Directory for PID files (default "+constants.DefaultPIDDir+")")
	rootCmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "Enable verbose output")

	rootCmd.SetVersionTemplate("aware version {{.Version}}\n")

	rootCmd.AddCommand(
		newSuperviseCmd(opts),
		newLeaveCmd(opts),
		newStatusCmd(opts),
		newVersionCmd(),
	)

	return rootCmd
}

// Execute runs the root command
func Execute() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "aware version %s\n", Version)
		},
	}
}

// loadConfig reads the config file and applies the directory flags.
// The default config file is optional; one named with --config is not.
func (o *rootOptions) loadConfig(cmd *cobra.Command) (*config.Config, error) {
	explicit := cmd.Flags().Changed("config")
	cfg, err := config.LoadOrDefault(o.configPath, explicit)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if o.logDir != "" {
		cfg.LogDir = o.logDir
	}
	if o.pidDir != "" {
		cfg.PIDDir = o.pidDir
	}
	return cfg, nil
}

// logger returns the diagnostics logger; stderr, debug level with --verbose
func (o *rootOptions) logger(cmd *cobra.Command) *slog.Logger {
	level := slog.LevelInfo
	if o.verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))
}

func (o *rootOptions) registry(cfg *config.Config, logger *slog.Logger) *registry.Registry {
	return registry.New(registry.Config{
		Dir:        cfg.PIDDir,
		RosterFile: cfg.RosterFile,
		LogDir:     cfg.LogDir,
		Logger:     logger,
	})
}
