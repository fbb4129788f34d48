package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"

	"github.com/joho/godotenv"
)

// LoadEnvFile reads a .env file and returns the variables as a map
func LoadEnvFile(path string) (map[string]string, error) {
	if path == "" {
		return nil, nil
	}

	// Check if file exists
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, fmt.Errorf("env file not found: %s", path)
	}

	env, err := godotenv.Read(path)
	if err != nil {
		return nil, fmt.Errorf("reading env file %s: %w", path, err)
	}

	return env, nil
}

// MergeEnv merges multiple environment maps in order, with later maps taking precedence
func MergeEnv(envMaps ...map[string]string) map[string]string {
	result := make(map[string]string)
	for _, env := range envMaps {
		for k, v := range env {
			result[k] = v
		}
	}
	return result
}

// LoadProcessEnv loads and merges the extra child environment.
// Priority (lowest to highest):
// 1. env_file
// 2. env variables
func LoadProcessEnv(envFile string, env map[string]string, configDir string) (map[string]string, error) {
	var fileEnv map[string]string
	var err error

	if envFile != "" {
		fileEnv, err = LoadEnvFile(resolvePath(envFile, configDir))
		if err != nil {
			return nil, fmt.Errorf("loading env file: %w", err)
		}
	}

	return MergeEnv(fileEnv, env), nil
}

// BuildEnviron appends extra variables to a base KEY=VALUE list.
// Extra keys are emitted in sorted order; os/exec keeps the last value
// for a duplicated key, so extras override the base.
func BuildEnviron(base []string, extra map[string]string) []string {
	keys := make([]string, 0, len(extra))
	for k := range extra {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	environ := make([]string, 0, len(base)+len(keys))
	environ = append(environ, base...)
	for _, k := range keys {
		environ = append(environ, k+"="+extra[k])
	}
	return environ
}

// resolvePath resolves a potentially relative path against a base directory
func resolvePath(path, baseDir string) string {
	if filepath.IsAbs(path) {
		return path
	}
	if baseDir == "" {
		return path
	}
	return filepath.Join(baseDir, path)
}

// CheckFilePermissions checks if a file has secure permissions.
// On Unix-like systems, it verifies the file is not world-writable.
func CheckFilePermissions(path string) error {
	if runtime.GOOS == "windows" {
		return nil
	}

	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("checking file permissions: %w", err)
	}

	// World-writable = others have write (0002)
	if info.Mode().Perm()&0002 != 0 {
		return fmt.Errorf("config file %s has insecure permissions: world-writable files can be modified by any user. Please run: chmod o-w %s", path, path)
	}

	return nil
}
