// Package watch re-checks script files whenever they change on disk.
package watch

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/sambeau/minisql/pkg/minisql/logging"
)

// DefaultDebounce is how long a file must be quiet before it is checked.
const DefaultDebounce = 100 * time.Millisecond

// CheckFunc checks one script file. Its error is logged; watching goes on.
type CheckFunc func(ctx context.Context, path string) error

// Watcher runs a CheckFunc over a set of files, once at start and again
// after every change.
type Watcher struct {
	watcher  *fsnotify.Watcher
	files    []string          // as given, for checks and logging
	byAbs    map[string]string // absolute path -> path as given
	check    CheckFunc
	debounce time.Duration
	log      *logging.Logger

	mu     sync.Mutex
	checks uint64
}

// New creates a watcher for files. A debounce of zero means DefaultDebounce.
func New(files []string, debounce time.Duration, check CheckFunc, log *logging.Logger) (*Watcher, error) {
	if len(files) == 0 {
		return nil, fmt.Errorf("watch: no files given")
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	byAbs := make(map[string]string, len(files))
	for _, f := range files {
		abs, err := filepath.Abs(f)
		if err != nil {
			return nil, fmt.Errorf("watch %s: %w", f, err)
		}
		byAbs[abs] = f
	}

	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	return &Watcher{
		watcher:  fsWatcher,
		files:    files,
		byAbs:    byAbs,
		check:    check,
		debounce: debounce,
		log:      log,
	}, nil
}

// Run checks every file, then checks each file again after it changes. It
// blocks until ctx is done or the watcher is closed.
func (w *Watcher) Run(ctx context.Context) error {
	// Editors often replace files instead of writing them, so watch the
	// directories and filter by name.
	dirs := map[string]bool{}
	for abs := range w.byAbs {
		dirs[filepath.Dir(abs)] = true
	}
	for dir := range dirs {
		if err := w.watcher.Add(dir); err != nil {
			return fmt.Errorf("watch %s: %w", dir, err)
		}
	}
	for _, f := range w.files {
		w.log.Infof("watching %s", f)
		w.run(ctx, f)
	}
	return w.eventLoop(ctx)
}

// eventLoop collects changes until the files have been quiet for the
// debounce period, then checks each changed file once.
func (w *Watcher) eventLoop(ctx context.Context) error {
	pending := map[string]bool{}
	var timer *time.Timer
	var fire <-chan time.Time
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			// Only handle write and create events
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			abs, err := filepath.Abs(event.Name)
			if err != nil {
				continue
			}
			name, watched := w.byAbs[abs]
			if !watched {
				continue
			}
			pending[name] = true
			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				if !timer.Stop() {
					select {
					case <-timer.C:
					default:
					}
				}
				timer.Reset(w.debounce)
			}
			fire = timer.C

		case <-fire:
			fire = nil
			names := make([]string, 0, len(pending))
			for name := range pending {
				names = append(names, name)
			}
			sort.Strings(names)
			pending = map[string]bool{}
			for _, name := range names {
				w.log.Infof("changed: %s", name)
				w.run(ctx, name)
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			w.log.Errorf("watcher error: %v", err)
		}
	}
}

func (w *Watcher) run(ctx context.Context, path string) {
	w.mu.Lock()
	w.checks++
	w.mu.Unlock()
	if err := w.check(ctx, path); err != nil {
		w.log.Warnf("%s: %v", path, err)
	}
}

// Checks returns how many checks have run.
func (w *Watcher) Checks() uint64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.checks
}

// Close stops the watcher.
func (w *Watcher) Close() error {
	return w.watcher.Close()
}
