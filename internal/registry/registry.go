// Package registry is the on-disk PID registry shared by independent aware
// invocations: one locked PID file per supervised program plus a roster
// file listing every program that was ever started.
package registry

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spice-itself/aware/internal/constants"
	"github.com/spice-itself/aware/internal/domain"
	"golang.org/x/sys/unix"
)

// Config locates the registry on disk
type Config struct {
	Dir        string // PID directory
	RosterFile string // roster file name inside Dir
	LogDir     string // used to report log paths in Status
	Logger     *slog.Logger
}

// Registry reads and writes the PID directory
type Registry struct {
	dir    string
	roster string
	logDir string
	log    *slog.Logger

	// seams for tests
	kill   func(pid int, sig unix.Signal) error
	exists func(pid int) bool
	locked func(path string) bool
}

// New creates a registry over cfg.Dir
func New(cfg Config) *Registry {
	roster := cfg.RosterFile
	if roster == "" {
		roster = constants.DefaultRosterFile
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Registry{
		dir:    cfg.Dir,
		roster: roster,
		logDir: cfg.LogDir,
		log:    logger,
		kill:   Signal,
		exists: ProcessExists,
		locked: IsLocked,
	}
}

// Dir returns the PID directory
func (r *Registry) Dir() string {
	return r.dir
}

// PIDPath returns the PID file path for a program name
func (r *Registry) PIDPath(name string) string {
	return filepath.Join(r.dir, name+constants.PIDFileExt)
}

// RosterPath returns the roster file path
func (r *Registry) RosterPath() string {
	return filepath.Join(r.dir, r.roster)
}

// Register creates and locks the PID file for name with the calling
// process's PID and appends the program to the roster. The caller must
// Release the returned PIDFile on exit.
func (r *Registry) Register(name string) (*PIDFile, error) {
	if err := os.MkdirAll(r.dir, 0755); err != nil {
		return nil, fmt.Errorf("creating PID directory: %w", err)
	}

	pf := NewPIDFile(r.PIDPath(name))
	if err := pf.Create(os.Getpid()); err != nil {
		return nil, err
	}

	if err := r.AppendRoster(name, pf.Path()); err != nil {
		_ = pf.Release()
		return nil, err
	}

	r.log.Debug("registered supervisor", "program", name, "pid_file", pf.Path(), "pid", os.Getpid())
	return pf, nil
}

// Status reports every program found in the PID directory or the roster,
// sorted by name. Roster-only programs are reported as stopped.
func (r *Registry) Status() ([]domain.ProgramStatus, error) {
	names, err := r.pidFileNames()
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool, len(names))
	statuses := make([]domain.ProgramStatus, 0, len(names))
	for _, name := range names {
		seen[name] = true
		statuses = append(statuses, r.probe(name))
	}

	roster, err := r.ReadRoster()
	if err != nil {
		r.log.Warn("reading roster", "error", err)
	}
	for _, entry := range roster {
		if seen[entry.Name] {
			continue
		}
		seen[entry.Name] = true
		statuses = append(statuses, domain.ProgramStatus{
			Name:    entry.Name,
			State:   domain.SupervisorStateStopped,
			LogPath: r.logPath(entry.Name),
		})
	}

	sort.Slice(statuses, func(i, j int) bool {
		return statuses[i].Name < statuses[j].Name
	})
	return statuses, nil
}

// probe inspects one PID file
func (r *Registry) probe(name string) domain.ProgramStatus {
	path := r.PIDPath(name)
	status := domain.ProgramStatus{
		Name:    name,
		PIDPath: path,
		LogPath: r.logPath(name),
	}

	pid, err := ReadPID(path)
	if err != nil {
		status.State = domain.SupervisorStateUnknown
		status.Error = err.Error()
		return status
	}

	status.PID = pid
	if r.alive(path, pid) {
		status.State = domain.SupervisorStateRunning
	} else {
		status.State = domain.SupervisorStateStale
	}
	return status
}

// alive reports whether the PID file belongs to a live supervisor
func (r *Registry) alive(path string, pid int) bool {
	return r.locked(path) || r.exists(pid)
}

func (r *Registry) logPath(name string) string {
	if r.logDir == "" {
		return ""
	}
	return filepath.Join(r.logDir, name+constants.LogFileExt)
}

// pidFileNames lists program names with a PID file, sorted, skipping the
// roster file itself
func (r *Registry) pidFileNames() ([]string, error) {
	entries, err := os.ReadDir(r.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrRegistryDirNotFound
		}
		return nil, fmt.Errorf("reading PID directory: %w", err)
	}

	var names []string
	for _, entry := range entries {
		if entry.IsDir() || entry.Name() == r.roster {
			continue
		}
		if filepath.Ext(entry.Name()) != constants.PIDFileExt {
			continue
		}
		names = append(names, strings.TrimSuffix(entry.Name(), constants.PIDFileExt))
	}

	// ReadDir already sorts by filename; names keep that order
	return names, nil
}
