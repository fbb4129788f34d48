package registry

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// WatchRemoval returns a channel that is closed when path is removed or
// renamed away. The parent directory is watched, since a watch on the file
// itself dies with it. The watcher stops when ctx is done.
func WatchRemoval(ctx context.Context, path string, logger *slog.Logger) (<-chan struct{}, error) {
	if logger == nil {
		logger = slog.Default()
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolving %s: %w", path, err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating file watcher: %w", err)
	}
	if err := watcher.Add(filepath.Dir(absPath)); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("watching %s: %w", filepath.Dir(absPath), err)
	}

	removed := make(chan struct{})
	go func() {
		defer watcher.Close()

		// The file may have gone before the watch was in place
		if _, err := os.Stat(absPath); os.IsNotExist(err) {
			close(removed)
			return
		}

		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(event.Name) != absPath {
					continue
				}
				if event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename) {
					logger.Debug("PID file removed", "path", absPath, "op", event.Op.String())
					close(removed)
					return
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				logger.Warn("PID file watcher error", "path", absPath, "error", err)
			}
		}
	}()

	return removed, nil
}
