package pipeline

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce batches the burst of events an editor produces on save.
const DefaultDebounce = 500 * time.Millisecond

// RunFunc receives the outcome of every run performed by Watch.
type RunFunc func(Result, error)

// Watch runs the migration once, then again whenever one of the three source documents
// changes, until ctx is cancelled. Run failures are reported to onRun and do not stop
// the watch. The directories are watched rather than the files so that editors that
// replace files on save are still seen.
func (m *Migrator) Watch(ctx context.Context, opts Options, debounce time.Duration, onRun RunFunc) error {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer watcher.Close()

	targets := make(map[string]bool, 3)
	dirs := make(map[string]bool, 3)
	for _, p := range []string{opts.Sources.Spots, opts.Sources.Data, opts.Sources.Tour} {
		abs, err := filepath.Abs(p)
		if err != nil {
			return fmt.Errorf("failed to resolve %s: %w", p, err)
		}
		targets[abs] = true
		dirs[filepath.Dir(abs)] = true
	}
	for dir := range dirs {
		if err := watcher.Add(dir); err != nil {
			return fmt.Errorf("failed to watch %s: %w", dir, err)
		}
	}

	log := m.deps.Logger
	run := func() {
		res, err := m.Run(ctx, opts)
		if err != nil && ctx.Err() == nil {
			log.Error("Migration failed", "error", err)
		}
		if onRun != nil {
			onRun(res, err)
		}
	}
	run()

	timer := time.NewTimer(debounce)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info("Watch stopped")
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !relevant(event, targets) {
				continue
			}
			log.Debug("Source changed", "path", event.Name, "op", event.Op.String())
			timer.Reset(debounce)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.Warn("Watcher error", "error", err)

		case <-timer.C:
			run()
		}
	}
}

func relevant(event fsnotify.Event, targets map[string]bool) bool {
	if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename) == 0 {
		return false
	}
	abs, err := filepath.Abs(event.Name)
	if err != nil {
		return false
	}
	return targets[abs]
}
