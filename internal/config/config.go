package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/spice-itself/aware/internal/constants"
	"github.com/spice-itself/aware/internal/domain"
	"golang.org/x/sys/unix"
	"gopkg.in/yaml.v3"
)

// Config represents the aware configuration.
// Every key is optional; Default fills in what the file leaves out.
type Config struct {
	LogDir          string            `yaml:"log_dir"`
	PIDDir          string            `yaml:"pid_dir"`
	RosterFile      string            `yaml:"roster_file"`
	RestartDelay    Duration          `yaml:"restart_delay"`
	SpawnRetryDelay Duration          `yaml:"spawn_retry_delay"`
	PollInterval    Duration          `yaml:"poll_interval"`
	StopSignal      string            `yaml:"stop_signal"`
	StopTimeout     Duration          `yaml:"stop_timeout"` // 0 waits for the child indefinitely
	EnvFile         string            `yaml:"env_file"`
	Env             map[string]string `yaml:"env"`
	WatchPIDFile    bool              `yaml:"watch_pid_file"`

	// Dir is the directory of the loaded config file, used to resolve env_file
	Dir string `yaml:"-"`
}

// Duration is a time.Duration written as a Go duration string ("2s", "150ms")
type Duration time.Duration

// UnmarshalYAML parses a duration string
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: duration must be a string like \"2s\"", value.Line)
	}
	parsed, err := time.ParseDuration(value.Value)
	if err != nil {
		return fmt.Errorf("line %d: %w", value.Line, err)
	}
	*d = Duration(parsed)
	return nil
}

// MarshalYAML renders the duration as a string
func (d Duration) MarshalYAML() (interface{}, error) {
	return time.Duration(d).String(), nil
}

// Std returns the value as a time.Duration
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// Default returns the configuration used when no config file exists
func Default() *Config {
	return &Config{
		LogDir:          constants.DefaultLogDir,
		PIDDir:          constants.DefaultPIDDir,
		RosterFile:      constants.DefaultRosterFile,
		RestartDelay:    Duration(constants.DefaultRestartDelay),
		SpawnRetryDelay: Duration(constants.DefaultSpawnRetryDelay),
		PollInterval:    Duration(constants.DefaultPollInterval),
		StopSignal:      constants.DefaultStopSignal,
		WatchPIDFile:    true,
	}
}

// Load reads and parses a configuration file
func Load(path string) (*Config, error) {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", domain.ErrConfigNotFound, path)
		}
		return nil, fmt.Errorf("checking config file: %w", err)
	}

	// Check file permissions for security
	if err := CheckFilePermissions(path); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	cfg, err := Parse(data)
	if err != nil {
		return nil, err
	}
	cfg.Dir = filepath.Dir(path)
	return cfg, nil
}

// LoadOrDefault loads path, falling back to Default when the file does not
// exist and was not explicitly requested.
func LoadOrDefault(path string, explicit bool) (*Config, error) {
	cfg, err := Load(path)
	if err == nil {
		return cfg, nil
	}
	if errors.Is(err, domain.ErrConfigNotFound) && !explicit {
		return Default(), nil
	}
	return nil, err
}

// Parse parses configuration from YAML bytes on top of the defaults
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing yaml: %w", err)
	}

	// Empty strings in the file mean "use the default"
	if cfg.LogDir == "" {
		cfg.LogDir = constants.DefaultLogDir
	}
	if cfg.PIDDir == "" {
		cfg.PIDDir = constants.DefaultPIDDir
	}
	if cfg.RosterFile == "" {
		cfg.RosterFile = constants.DefaultRosterFile
	}
	if cfg.StopSignal == "" {
		cfg.StopSignal = constants.DefaultStopSignal
	}

	if err := Validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Signal resolves stop_signal to a signal number
func (c *Config) Signal() (syscall.Signal, error) {
	name := strings.ToUpper(strings.TrimSpace(c.StopSignal))
	if !strings.HasPrefix(name, "SIG") {
		name = "SIG" + name
	}
	if !allowedStopSignals[name] {
		return 0, fmt.Errorf("%w: unsupported stop_signal %q", domain.ErrInvalidConfig, c.StopSignal)
	}
	sig := unix.SignalNum(name)
	if sig == 0 {
		return 0, fmt.Errorf("%w: unknown signal %q", domain.ErrInvalidConfig, c.StopSignal)
	}
	return sig, nil
}

var allowedStopSignals = map[string]bool{
	"SIGTERM": true,
	"SIGINT":  true,
	"SIGKILL": true,
	"SIGHUP":  true,
	"SIGQUIT": true,
}

// LogPath returns the log file path for a program name
func (c *Config) LogPath(name string) string {
	return filepath.Join(c.LogDir, name+constants.LogFileExt)
}

// PIDPath returns the PID file path for a program name
func (c *Config) PIDPath(name string) string {
	return filepath.Join(c.PIDDir, name+constants.PIDFileExt)
}

// RosterPath returns the path of the roster file
func (c *Config) RosterPath() string {
	return filepath.Join(c.PIDDir, c.RosterFile)
}

// Program builds the immutable descriptor for `supervise path args...`
func (c *Config) Program(path string, args []string) (domain.Program, error) {
	if strings.TrimSpace(path) == "" {
		return domain.Program{}, fmt.Errorf("%w: program path is empty", domain.ErrInvalidName)
	}

	name := domain.ProgramName(path)
	if err := ValidateProgramName(name); err != nil {
		return domain.Program{}, err
	}

	env, err := c.ProgramEnv()
	if err != nil {
		return domain.Program{}, err
	}

	return domain.Program{
		Path:    path,
		Name:    name,
		Args:    append([]string(nil), args...),
		LogPath: c.LogPath(name),
		PIDPath: c.PIDPath(name),
		Env:     env,
	}, nil
}

// ProgramEnv returns the child environment, or nil when the child should
// simply inherit the supervisor's environment.
func (c *Config) ProgramEnv() ([]string, error) {
	if c.EnvFile == "" && len(c.Env) == 0 {
		return nil, nil
	}

	extra, err := LoadProcessEnv(c.EnvFile, c.Env, c.Dir)
	if err != nil {
		return nil, err
	}

	return BuildEnviron(os.Environ(), extra), nil
}
