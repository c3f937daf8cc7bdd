// CLAUDE:SUMMARY Data directory watcher: reloads the registry when an importer publishes a new manifest.yaml.
package phyto

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is the quiet period before a detected change triggers a reload.
const DefaultDebounce = 500 * time.Millisecond

// Watcher reloads a Registry when a dataset manifest under Dir changes.
// Importers write the manifest last, so a manifest event means the bundle is complete.
type Watcher struct {
	dir      string
	reg      *Registry
	logger   *slog.Logger
	debounce time.Duration

	watcher *fsnotify.Watcher
	mu      sync.Mutex
	timer   *time.Timer
}

// NewWatcher watches dir and its dataset subdirectories.
func NewWatcher(dir string, reg *Registry, logger *slog.Logger) (*Watcher, error) {
	if logger == nil {
		logger = slog.Default()
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	if err := fw.Add(dir); err != nil {
		fw.Close()
		return nil, fmt.Errorf("watch %s: %w", dir, err)
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		fw.Close()
		return nil, fmt.Errorf("read %s: %w", dir, err)
	}
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		if err := fw.Add(filepath.Join(dir, e.Name())); err != nil {
			logger.Warn("watch dataset dir", "dir", e.Name(), "error", err)
		}
	}
	return &Watcher{
		dir:      dir,
		reg:      reg,
		logger:   logger,
		debounce: DefaultDebounce,
		watcher:  fw,
	}, nil
}

// SetDebounce overrides DefaultDebounce. Call before Run.
func (w *Watcher) SetDebounce(d time.Duration) { w.debounce = d }

// Run processes events until ctx is done, then closes the watcher.
func (w *Watcher) Run(ctx context.Context) {
	defer w.watcher.Close()
	for {
		select {
		case <-ctx.Done():
			w.mu.Lock()
			if w.timer != nil {
				w.timer.Stop()
			}
			w.mu.Unlock()
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handle(ctx, event)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("watcher error", "error", err)
		}
	}
}

func (w *Watcher) handle(ctx context.Context, event fsnotify.Event) {
	// A new dataset directory: watch it so its manifest is seen.
	if event.Has(fsnotify.Create) && filepath.Dir(event.Name) == filepath.Clean(w.dir) {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			if err := w.watcher.Add(event.Name); err != nil {
				w.logger.Warn("watch dataset dir", "dir", event.Name, "error", err)
			}
			if _, err := os.Stat(filepath.Join(event.Name, "manifest.yaml")); err == nil {
				w.schedule(ctx)
			}
			return
		}
	}

	if filepath.Base(event.Name) != "manifest.yaml" {
		return
	}
	if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) || event.Has(fsnotify.Rename) {
		w.logger.Info("dataset change detected", "file", event.Name, "op", event.Op.String())
		w.schedule(ctx)
	}
}

func (w *Watcher) schedule(ctx context.Context) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, func() {
		if ctx.Err() != nil {
			return
		}
		if err := w.reg.Reload(ctx); err != nil {
			w.logger.Error("dataset reload failed", "error", err)
		}
	})
}
