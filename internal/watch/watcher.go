// Package watch monitors a library root for filesystem changes and
// triggers rescans, debounced so a burst of writes (a rip or a large
// copy) collapses into one pass.
package watch

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/franz/music-catalog/internal/format"
	"github.com/franz/music-catalog/internal/util"
)

const defaultDebounce = 2 * time.Second

// Watcher watches a directory tree recursively. fsnotify watches are
// per-directory, so subdirectories are added as they appear.
type Watcher struct {
	fsw      *fsnotify.Watcher
	debounce time.Duration
}

// New creates a Watcher. A non-positive debounce falls back to the
// default.
func New(debounce time.Duration) (*Watcher, error) {
	if debounce <= 0 {
		debounce = defaultDebounce
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}
	return &Watcher{fsw: fsw, debounce: debounce}, nil
}

// Close releases the underlying watcher.
func (w *Watcher) Close() error {
	return w.fsw.Close()
}

// Watch blocks watching root until ctx is cancelled, invoking trigger
// after each debounced burst of relevant changes. Returns nil on
// cancellation; any other return is a watcher failure.
func (w *Watcher) Watch(ctx context.Context, root string, trigger func()) error {
	if err := w.addRecursive(root); err != nil {
		return err
	}

	var timer *time.Timer
	var timerC <-chan time.Time
	arm := func() {
		if timer == nil {
			timer = time.NewTimer(w.debounce)
			timerC = timer.C
			return
		}
		if !timer.Stop() {
			select {
			case <-timer.C:
			default:
			}
		}
		timer.Reset(w.debounce)
	}

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			if event.Has(fsnotify.Create) {
				if fi, err := os.Stat(event.Name); err == nil && fi.IsDir() {
					if err := w.addRecursive(event.Name); err != nil {
						util.WarnLog("Failed to watch new directory %s: %v", event.Name, err)
					}
				}
			}
			if !relevant(event) {
				continue
			}
			util.DebugLog("Change detected: %s %s", event.Op, event.Name)
			arm()

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			util.WarnLog("Watcher error: %v", err)

		case <-timerC:
			timerC = nil
			timer = nil
			trigger()
		}
	}
}

// relevant filters events down to ones that can change scan results:
// audio files changing, or whole directories appearing or vanishing.
func relevant(event fsnotify.Event) bool {
	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) &&
		!event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
		return false
	}
	if _, ok := format.ClassifyPath(event.Name); ok {
		return true
	}
	// Directory-level events have no extension; removals cannot be
	// stat'ed, so treat extensionless paths as directories.
	if filepath.Ext(event.Name) == "" {
		return true
	}
	return false
}

func (w *Watcher) addRecursive(root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == root {
				return fmt.Errorf("failed to watch %s: %w", root, err)
			}
			util.WarnLog("Skipping unwatchable path %s: %v", path, err)
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if err := w.fsw.Add(path); err != nil {
			util.WarnLog("Failed to watch %s: %v", path, err)
		}
		return nil
	})
}
