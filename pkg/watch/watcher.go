package watch

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fatih/color"
	"github.com/fsnotify/fsnotify"

	"github.com/deadwood-io/deadwood/internal/scanner"
	"github.com/deadwood-io/deadwood/pkg/config"
)

// Watcher monitors a workspace for changes and triggers rescans. Changes
// are debounced so editor save storms and branch switches collapse into a
// single rescan.
type Watcher struct {
	fsWatcher *fsnotify.Watcher
	config    *config.Config
	debounce  time.Duration
	root      string
	callback  func(changed []string)
	mu        sync.Mutex
	pending   map[string]time.Time
}

// NewWatcher creates a watcher rooted at the workspace directory.
func NewWatcher(root string, cfg *config.Config, debounce time.Duration) (*Watcher, error) {
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	if debounce <= 0 {
		debounce = 500 * time.Millisecond
	}

	return &Watcher{
		fsWatcher: fsWatcher,
		config:    cfg,
		debounce:  debounce,
		root:      root,
		pending:   make(map[string]time.Time),
	}, nil
}

// SetCallback sets the function to call with the batch of changed paths
// once a debounce window closes.
func (w *Watcher) SetCallback(cb func(changed []string)) {
	w.callback = cb
}

// Start begins watching for file changes. It blocks until the context is
// canceled or the underlying watcher closes.
func (w *Watcher) Start(ctx context.Context) error {
	if err := w.addDirs(w.root); err != nil {
		return err
	}

	color.Cyan("Watching for changes in %s...", w.root)
	color.Cyan("Press Ctrl+C to stop")
	fmt.Println()

	go w.processDebounced(ctx)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return nil
			}
			w.handleEvent(event)

		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return nil
			}
			color.Red("Watch error: %v", err)
		}
	}
}

// addDirs registers every directory under root, skipping excluded ones.
func (w *Watcher) addDirs(root string) error {
	return filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil // Skip unreadable entries
		}
		if !info.IsDir() {
			return nil
		}
		if path != root && w.config.IsExcludedDir(info.Name()) {
			return filepath.SkipDir
		}
		return w.fsWatcher.Add(path)
	})
}

// handleEvent processes a filesystem event.
func (w *Watcher) handleEvent(event fsnotify.Event) {
	// Deletes and renames matter as much as writes: removing a file
	// changes what is reachable.
	if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
		return
	}

	path := event.Name

	if w.config.ShouldExclude(path) {
		return
	}

	// Newly created directories need their own watch before events
	// inside them can be seen.
	if event.Op&fsnotify.Create != 0 {
		if info, err := os.Stat(path); err == nil && info.IsDir() {
			_ = w.addDirs(path)
			return
		}
	}

	if !relevant(path) {
		return
	}

	w.mu.Lock()
	w.pending[path] = time.Now()
	w.mu.Unlock()
}

// relevant reports whether a change to path can alter the analysis: source
// files, assets, and the dependency manifest.
func relevant(path string) bool {
	if scanner.IsSourcePath(path) || scanner.IsAssetPath(path) {
		return true
	}
	return filepath.Base(path) == "package.json"
}

// processDebounced flushes pending changes after the debounce period.
func (w *Watcher) processDebounced(ctx context.Context) {
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.processPending()
		}
	}
}

// processPending collects files that have been stable for the debounce
// period and fires one callback for the whole batch. Running the callback
// here keeps rescans serialized.
func (w *Watcher) processPending() {
	w.mu.Lock()
	now := time.Now()
	var ready []string
	for path, lastMod := range w.pending {
		if now.Sub(lastMod) >= w.debounce {
			ready = append(ready, path)
		}
	}
	for _, path := range ready {
		delete(w.pending, path)
	}
	w.mu.Unlock()

	if len(ready) == 0 || w.callback == nil {
		return
	}

	sort.Strings(ready)
	w.runCallback(ready)
}

// runCallback announces the batch and executes the rescan callback.
func (w *Watcher) runCallback(changed []string) {
	rels := make([]string, len(changed))
	for i, path := range changed {
		rels[i] = scanner.Rel(w.root, path)
	}

	color.Yellow("\nChanged: %s", strings.Join(rels, ", "))
	fmt.Println(strings.Repeat("-", 40))

	w.callback(changed)

	fmt.Println()
}

// Stop stops the watcher.
func (w *Watcher) Stop() error {
	return w.fsWatcher.Close()
}

// WatchedFiles returns the list of watched directories.
func (w *Watcher) WatchedFiles() []string {
	return w.fsWatcher.WatchList()
}
