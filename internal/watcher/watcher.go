// Package watcher reacts to template file changes under a root
// directory, batching rapid saves into one debounced notification.
package watcher

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/mvp-joe/tracemap/internal/discovery"
)

// DefaultDebounce is how long the watcher waits after the last event
// before delivering a change batch.
const DefaultDebounce = 500 * time.Millisecond

// ChangeFunc receives the absolute paths of template files that changed
// since the previous notification, sorted.
type ChangeFunc func(paths []string)

// Watcher watches a root directory for template file changes and
// delivers debounced change batches to a callback.
type Watcher struct {
	rootDir  string
	finder   *discovery.Finder
	fsw      *fsnotify.Watcher
	debounce time.Duration
	onChange ChangeFunc
	stopCh   chan struct{}
	doneCh   chan struct{}
	stopOnce sync.Once
}

// Options configures a Watcher.
type Options struct {
	// Debounce overrides DefaultDebounce when positive.
	Debounce time.Duration
}

// New creates a watcher over rootDir. The finder decides which files
// count as templates and which directories are ignored.
func New(rootDir string, finder *discovery.Finder, onChange ChangeFunc, opts *Options) (*Watcher, error) {
	absRoot, err := filepath.Abs(rootDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve watch root %s: %w", rootDir, err)
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}

	w := &Watcher{
		rootDir:  absRoot,
		finder:   finder,
		fsw:      fsw,
		debounce: DefaultDebounce,
		onChange: onChange,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
	if opts != nil && opts.Debounce > 0 {
		w.debounce = opts.Debounce
	}

	if err := w.addDirectoriesRecursively(absRoot); err != nil {
		fsw.Close()
		return nil, err
	}
	return w, nil
}

// Start begins watching for file changes.
func (w *Watcher) Start(ctx context.Context) {
	go w.watch(ctx)
}

// Stop stops the watcher and waits for its goroutine to exit. Safe to
// call more than once, but only after Start.
func (w *Watcher) Stop() {
	w.stopOnce.Do(func() {
		close(w.stopCh)
		<-w.doneCh
		w.fsw.Close()
	})
}

// watch is the event loop with debouncing logic.
func (w *Watcher) watch(ctx context.Context) {
	defer close(w.doneCh)

	var debounceTimer *time.Timer
	notifyCh := make(chan struct{}, 1)
	changed := make(map[string]bool)

	for {
		select {
		case <-ctx.Done():
			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			return

		case <-w.stopCh:
			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			return

		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}

			// New directories join the watch set even when the event
			// itself is not a template change.
			if event.Op&fsnotify.Create != 0 {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					if w.shouldWatchDirectory(event.Name) {
						if err := w.addDirectoriesRecursively(event.Name); err != nil {
							log.Printf("Warning: failed to watch new directory %s: %v", event.Name, err)
						}
					}
					continue
				}
			}

			if !w.shouldProcessEvent(event) {
				continue
			}
			changed[event.Name] = true

			// Reset debounce timer - properly stop and drain
			if debounceTimer != nil {
				if !debounceTimer.Stop() {
					select {
					case <-debounceTimer.C:
					default:
					}
				}
			}
			debounceTimer = time.AfterFunc(w.debounce, func() {
				select {
				case notifyCh <- struct{}{}:
				default:
				}
			})

		case <-notifyCh:
			w.deliver(changed)
			changed = make(map[string]bool)

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			log.Printf("File watcher error: %v", err)
		}
	}
}

// deliver hands the accumulated batch to the callback.
func (w *Watcher) deliver(changed map[string]bool) {
	if len(changed) == 0 || w.onChange == nil {
		return
	}
	paths := make([]string, 0, len(changed))
	for path := range changed {
		paths = append(paths, path)
	}
	sort.Strings(paths)
	w.onChange(paths)
}

// shouldProcessEvent reports whether an event is a template file change.
func (w *Watcher) shouldProcessEvent(event fsnotify.Event) bool {
	if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
		return false
	}

	relPath, err := filepath.Rel(w.rootDir, event.Name)
	if err != nil {
		return false
	}
	return w.finder.Matches(relPath)
}

// shouldWatchDirectory reports whether a directory belongs in the watch
// set.
func (w *Watcher) shouldWatchDirectory(path string) bool {
	relPath, err := filepath.Rel(w.rootDir, path)
	if err != nil {
		return false
	}
	if relPath == "." {
		return true
	}
	return !w.finder.Ignored(relPath)
}

// addDirectoriesRecursively adds a directory tree to the watch set,
// skipping ignored directories.
func (w *Watcher) addDirectoriesRecursively(rootPath string) error {
	return filepath.Walk(rootPath, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			if path == rootPath {
				return err
			}
			log.Printf("Warning: error accessing %s: %v", path, err)
			return nil
		}
		if !info.IsDir() {
			return nil
		}
		if !w.shouldWatchDirectory(path) {
			return filepath.SkipDir
		}
		if err := w.fsw.Add(path); err != nil {
			log.Printf("Warning: failed to watch directory %s: %v", path, err)
			return nil
		}
		return nil
	})
}
