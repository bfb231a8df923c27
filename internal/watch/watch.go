// Package watch re-runs a job when its input files change.
package watch

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/bep/debounce"
	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
)

// DefaultDelay is how long the watched files must stay quiet before the job
// runs again. Editors often write a file in several steps.
const DefaultDelay = 500 * time.Millisecond

// Watcher collapses bursts of file events into single job runs.
type Watcher struct {
	fs     *fsnotify.Watcher
	logger zerolog.Logger
	delay  time.Duration

	files map[string]struct{}
	dirs  map[string]struct{}
}

func New(logger zerolog.Logger, delay time.Duration) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}
	if delay <= 0 {
		delay = DefaultDelay
	}
	return &Watcher{
		fs:     fw,
		logger: logger.With().Str("component", "watch").Logger(),
		delay:  delay,
		files:  make(map[string]struct{}),
		dirs:   make(map[string]struct{}),
	}, nil
}

// AddFile watches a single file. Its parent directory is watched so that
// editors that replace the file on save are still seen.
func (w *Watcher) AddFile(path string) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	if err := w.fs.Add(filepath.Dir(abs)); err != nil {
		return fmt.Errorf("failed to watch %s: %w", path, err)
	}
	w.files[abs] = struct{}{}
	return nil
}

// AddDir watches every file directly inside dir.
func (w *Watcher) AddDir(dir string) error {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return err
	}
	if err := w.fs.Add(abs); err != nil {
		return fmt.Errorf("failed to watch %s: %w", dir, err)
	}
	w.dirs[abs] = struct{}{}
	return nil
}

func (w *Watcher) relevant(ev fsnotify.Event) bool {
	if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) {
		return false
	}
	name, err := filepath.Abs(ev.Name)
	if err != nil {
		return false
	}
	if _, ok := w.files[name]; ok {
		return true
	}
	_, ok := w.dirs[filepath.Dir(name)]
	return ok
}

// Run calls job once per settled burst of changes until ctx is cancelled.
// Jobs never overlap; changes seen while a job runs trigger one more run.
func (w *Watcher) Run(ctx context.Context, job func(context.Context)) error {
	defer w.fs.Close()

	trigger := make(chan struct{}, 1)
	debounced := debounce.New(w.delay)
	fire := func() {
		select {
		case trigger <- struct{}{}:
		default:
		}
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.fs.Events:
			if !ok {
				return nil
			}
			if w.relevant(ev) {
				w.logger.Debug().Str("file", ev.Name).Str("op", ev.Op.String()).Msg("change detected")
				debounced(fire)
			}
		case err, ok := <-w.fs.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn().Err(err).Msg("watcher error")
		case <-trigger:
			job(ctx)
		}
	}
}
