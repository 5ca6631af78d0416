package cli

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/robinvdvleuten/capgains/logger"
)

const debounceDelay = 100 * time.Millisecond

// watchFiles calls onChange after any of the files is written, created,
// removed or renamed, until ctx is done. Bursts of events within the
// debounce delay cause a single call. Calls never overlap.
//
// Directories are watched rather than the files themselves, so editors that
// save by replacing the file keep being followed.
func watchFiles(ctx context.Context, filenames []string, onChange func()) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	defer func() { _ = watcher.Close() }()

	watched := make(map[string]bool, len(filenames))
	dirs := make(map[string]bool)
	for _, filename := range filenames {
		abs, err := filepath.Abs(filename)
		if err != nil {
			return fmt.Errorf("failed to resolve absolute path for %s: %w", filename, err)
		}
		watched[abs] = true

		dir := filepath.Dir(abs)
		if dirs[dir] {
			continue
		}
		if err := watcher.Add(dir); err != nil {
			return fmt.Errorf("failed to watch %s: %w", dir, err)
		}
		dirs[dir] = true
	}

	log := logger.FromContext(ctx)

	var (
		mu            sync.Mutex
		debounceTimer *time.Timer
	)
	defer func() {
		mu.Lock()
		if debounceTimer != nil {
			debounceTimer.Stop()
		}
		mu.Unlock()
	}()

	var running sync.Mutex
	trigger := func() {
		running.Lock()
		defer running.Unlock()
		if ctx.Err() != nil {
			return
		}
		onChange()
	}

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !watched[filepath.Clean(event.Name)] {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			log.Debug("export changed", "file", event.Name, "op", event.Op.String())

			mu.Lock()
			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			debounceTimer = time.AfterFunc(debounceDelay, trigger)
			mu.Unlock()

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.Warn("file watcher error", "error", err)
		}
	}
}
