package catalog

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watcher monitors the catalog source file for rewrites using fsnotify.
// The parent directory is watched rather than the file itself so that
// replace-by-rename (the usual way catalogs are refreshed) is still seen.
type Watcher struct {
	Path    string
	Changes <-chan struct{} // read-only external channel

	changes chan struct{}
	done    chan struct{}
	watcher *fsnotify.Watcher
	started bool
}

// WatchFile creates a watcher for the catalog file at path.
func WatchFile(path string) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("catalog: create watcher: %w", err)
	}

	ch := make(chan struct{}, 1)
	w := &Watcher{
		Path:    path,
		Changes: ch,
		changes: ch,
		done:    make(chan struct{}),
		watcher: fw,
	}
	return w, nil
}

// Start begins watching the catalog file's directory for changes.
func (w *Watcher) Start() error {
	if err := w.watcher.Add(filepath.Dir(w.Path)); err != nil {
		return fmt.Errorf("catalog: watch %s: %w", w.Path, err)
	}
	w.started = true
	go w.loop()
	return nil
}

// Stop closes the watcher and its channels. Safe to call on a watcher
// that never started: only a running loop is waited for.
func (w *Watcher) Stop() {
	w.watcher.Close()
	if w.started {
		<-w.done // wait for loop to exit
	}
	close(w.changes)
}

func (w *Watcher) loop() {
	defer close(w.done)

	// Debounce bursts of writes: catalogs are rewritten in many chunks
	// and only the settled file should trigger a re-render.
	const debounce = 250 * time.Millisecond
	var pending time.Time
	ticker := time.NewTicker(debounce)
	defer ticker.Stop()

	base := filepath.Base(w.Path)
	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Base(event.Name) != base {
				continue
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) || event.Has(fsnotify.Rename) {
				pending = time.Now()
			}

		case now, ok := <-ticker.C:
			if !ok {
				return
			}
			if !pending.IsZero() && now.Sub(pending) >= debounce {
				pending = time.Time{}
				select {
				case w.changes <- struct{}{}:
				default: // a change is already queued
				}
			}

		case _, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			// Watch errors are non-fatal; the next event still arrives
			// or the caller stops the watcher.
		}
	}
}
