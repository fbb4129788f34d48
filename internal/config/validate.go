package config

import (
	"fmt"
	"strings"

	"github.com/spice-itself/aware/internal/constants"
	"github.com/spice-itself/aware/internal/domain"
)

// ValidationError represents a configuration validation error
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Validate checks the configuration for errors
func Validate(config *Config) error {
	var errs []string

	if config.RestartDelay < 0 {
		errs = append(errs, fmt.Sprintf("restart_delay: must be non-negative, got %s", config.RestartDelay.Std()))
	}
	if config.SpawnRetryDelay <= 0 {
		errs = append(errs, fmt.Sprintf("spawn_retry_delay: must be positive, got %s", config.SpawnRetryDelay.Std()))
	}
	if p := config.PollInterval.Std(); p < constants.MinPollInterval || p > constants.MaxPollInterval {
		errs = append(errs, fmt.Sprintf("poll_interval: must be between %s and %s, got %s",
			constants.MinPollInterval, constants.MaxPollInterval, p))
	}
	if config.StopTimeout < 0 {
		errs = append(errs, fmt.Sprintf("stop_timeout: must be non-negative, got %s", config.StopTimeout.Std()))
	}
	if _, err := config.Signal(); err != nil {
		errs = append(errs, fmt.Sprintf("stop_signal: unsupported signal %q", config.StopSignal))
	}
	if strings.ContainsAny(config.RosterFile, "/\\") {
		errs = append(errs, "roster_file: must be a file name, not a path")
	}
	if strings.HasSuffix(config.RosterFile, constants.PIDFileExt) {
		errs = append(errs, fmt.Sprintf("roster_file: must not end in %s", constants.PIDFileExt))
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w: %s", domain.ErrInvalidConfig, strings.Join(errs, "; "))
	}

	return nil
}

// ValidateProgramName checks if a program name can be used for log and PID file names
func ValidateProgramName(name string) error {
	if name == "" {
		return &ValidationError{Field: "name", Message: "program name cannot be empty"}
	}
	if name == "." || name == ".." {
		return &ValidationError{Field: "name", Message: "program name cannot be a relative directory"}
	}
	if strings.ContainsAny(name, " \t\n/\\") {
		return &ValidationError{Field: "name", Message: "program name cannot contain whitespace or path separators"}
	}
	return nil
}
