// Package watch rebuilds bundles when their source files change.
package watch

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"git.home.luguber.info/inful/assetbuilder/internal/logfields"
)

// RebuildFunc runs one build pass. changed lists the paths that triggered it
// (empty for manual and scheduled triggers). It returns the source files to
// watch from now on.
type RebuildFunc func(ctx context.Context, changed []string) ([]string, error)

// Watcher debounces file system events on source files into rebuild passes.
// Passes never overlap.
type Watcher struct {
	fs       *fsnotify.Watcher
	debounce time.Duration
	rebuild  RebuildFunc
	ignore   func(path string) bool

	mu      sync.Mutex
	files   map[string]bool
	dirs    map[string]bool
	trigger chan struct{}
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithIgnore skips events for paths the predicate accepts, e.g. build outputs.
func WithIgnore(fn func(path string) bool) Option {
	return func(w *Watcher) { w.ignore = fn }
}

// New creates a watcher. A non-positive debounce defaults to 500ms.
func New(debounce time.Duration, rebuild RebuildFunc, opts ...Option) (*Watcher, error) {
	if rebuild == nil {
		return nil, fmt.Errorf("rebuild function is required")
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}
	if debounce <= 0 {
		debounce = 500 * time.Millisecond
	}
	w := &Watcher{
		fs:       fw,
		debounce: debounce,
		rebuild:  rebuild,
		ignore:   func(string) bool { return false },
		files:    map[string]bool{},
		dirs:     map[string]bool{},
		trigger:  make(chan struct{}, 1),
	}
	for _, o := range opts {
		o(w)
	}
	return w, nil
}

// WatchFiles watches the directories containing paths. Directories no longer
// holding any watched file are dropped.
func (w *Watcher) WatchFiles(paths []string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	files := make(map[string]bool, len(paths))
	dirs := map[string]bool{}
	for _, p := range paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			return fmt.Errorf("failed to resolve %s: %w", p, err)
		}
		files[abs] = true
		dirs[filepath.Dir(abs)] = true
	}

	for d := range dirs {
		if w.dirs[d] {
			continue
		}
		if err := w.fs.Add(d); err != nil {
			return fmt.Errorf("failed to watch directory %s: %w", d, err)
		}
	}
	for d := range w.dirs {
		if !dirs[d] {
			_ = w.fs.Remove(d)
		}
	}
	w.files = files
	w.dirs = dirs
	slog.Debug("Watching source directories", slog.Int("directories", len(dirs)), logfields.Sources(len(files)))
	return nil
}

// Dirs returns the watched directories in sorted order.
func (w *Watcher) Dirs() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make([]string, 0, len(w.dirs))
	for d := range w.dirs {
		out = append(out, d)
	}
	sort.Strings(out)
	return out
}

// Trigger requests a rebuild pass without a file change.
func (w *Watcher) Trigger() {
	select {
	case w.trigger <- struct{}{}:
	default:
		// already pending
	}
}

// Run processes events until ctx is cancelled.
func (w *Watcher) Run(ctx context.Context) error {
	var timer *time.Timer
	var fire <-chan time.Time
	changed := map[string]bool{}

	arm := func() {
		if timer == nil {
			timer = time.NewTimer(w.debounce)
		} else {
			timer.Reset(w.debounce)
		}
		fire = timer.C
	}
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-w.fs.Events:
			if !ok {
				return nil
			}
			if w.relevant(event) {
				slog.Debug("Source change detected", logfields.Path(event.Name), slog.String("op", event.Op.String()))
				changed[event.Name] = true
				arm()
			}
		case err, ok := <-w.fs.Errors:
			if !ok {
				return nil
			}
			slog.Error("Watcher error", logfields.Error(err))
		case <-w.trigger:
			arm()
		case <-fire:
			fire = nil
			w.runPass(ctx, sortedPaths(changed))
			changed = map[string]bool{}
		}
	}
}

func (w *Watcher) runPass(ctx context.Context, changed []string) {
	sources, err := w.rebuild(ctx, changed)
	if err != nil {
		slog.Error("Rebuild failed", logfields.Error(err))
		return
	}
	if sources != nil {
		if err := w.WatchFiles(sources); err != nil {
			slog.Error("Failed to update watched directories", logfields.Error(err))
		}
	}
}

// relevant accepts changes to known sources and new files appearing next to
// them, skipping hidden files and ignored paths. Attribute-only events count
// for known sources since touching a file only changes its mtime.
func (w *Watcher) relevant(event fsnotify.Event) bool {
	if strings.HasPrefix(filepath.Base(event.Name), ".") || w.ignore(event.Name) {
		return false
	}
	w.mu.Lock()
	known := w.files[event.Name]
	w.mu.Unlock()
	if event.Op == fsnotify.Chmod {
		return known
	}
	return known || event.Has(fsnotify.Create)
}

// Close stops watching.
func (w *Watcher) Close() error {
	return w.fs.Close()
}

func sortedPaths(m map[string]bool) []string {
	out := make([]string, 0, len(m))
	for p := range m {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}
