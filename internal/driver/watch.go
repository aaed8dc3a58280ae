package driver

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// WaitForSocket blocks until the daemon socket at path exists or ctx is
// done. It lets callers start before spacenavd and attach once the daemon
// comes up, instead of polling the connect call.
func WaitForSocket(ctx context.Context, path string) error {
	if path == "" {
		path = DefaultSocketPath
	}
	if _, err := os.Stat(path); err == nil {
		return nil
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("fsnotify: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(filepath.Dir(path)); err != nil {
		return fmt.Errorf("watch %s: %w", filepath.Dir(path), err)
	}

	// The socket may have appeared between the stat and the watch.
	if _, err := os.Stat(path); err == nil {
		return nil
	}
	slog.Info("waiting for driver socket", slog.String("path", path))

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-watcher.Events:
			if !ok {
				return fmt.Errorf("watcher closed while waiting for %s", path)
			}
			if event.Name != path {
				continue
			}
			if event.Op&fsnotify.Create != 0 {
				return nil
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return fmt.Errorf("watcher closed while waiting for %s", path)
			}
			slog.Warn("socket watch error", slog.Any("error", err))
		}
	}
}
