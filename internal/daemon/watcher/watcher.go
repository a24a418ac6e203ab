// Package watcher notices config edits made while the daemon runs, so
// changes from the CLI or a text editor (DND above all) take effect
// without a restart.
package watcher

import (
	"log"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/loft-chat/loft/internal/config"
)

// Event reports that a service's config file changed on disk.
type Event struct {
	Service string
	Path    string
}

// Watcher watches the per-service config directory.
type Watcher struct {
	fsWatcher  *fsnotify.Watcher
	eventsChan chan Event
	done       chan struct{}

	debounce   map[string]*time.Timer
	debounceMu sync.Mutex
}

// New creates a new config watcher.
func New() (*Watcher, error) {
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	return &Watcher{
		fsWatcher:  fsWatcher,
		eventsChan: make(chan Event, 16),
		done:       make(chan struct{}),
		debounce:   make(map[string]*time.Timer),
	}, nil
}

// Events returns the channel for receiving config change events.
func (w *Watcher) Events() <-chan Event {
	return w.eventsChan
}

// Start watches the services config directory and begins processing.
func (w *Watcher) Start() error {
	dir, err := config.ServicesConfigDir()
	if err != nil {
		return err
	}
	if err := config.EnsureDir(dir); err != nil {
		return err
	}
	if err := w.fsWatcher.Add(dir); err != nil {
		return err
	}
	go w.processEvents()
	return nil
}

// Stop stops the watcher.
func (w *Watcher) Stop() {
	close(w.done)
	_ = w.fsWatcher.Close()
}

func (w *Watcher) processEvents() {
	for {
		select {
		case <-w.done:
			return
		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return
			}
			w.handleEvent(event)
		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return
			}
			log.Printf("[watcher] error: %v", err)
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	// Accept write, create, and rename events. Rename matters: atomic
	// writes (write tmp, rename onto target) produce Rename events on
	// the target file.
	if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
		return
	}
	if filepath.Ext(event.Name) != ".yaml" {
		return
	}
	w.debounceEvent(event.Name, func() {
		name := filepath.Base(event.Name)
		service := name[:len(name)-len(".yaml")]
		select {
		case w.eventsChan <- Event{Service: service, Path: event.Name}:
		case <-w.done:
		}
	})
}

// debounceEvent coalesces bursts of events for the same path; editors
// and the CLI both produce several per save.
func (w *Watcher) debounceEvent(path string, fn func()) {
	w.debounceMu.Lock()
	defer w.debounceMu.Unlock()

	if timer, ok := w.debounce[path]; ok {
		timer.Stop()
	}
	w.debounce[path] = time.AfterFunc(100*time.Millisecond, func() {
		w.debounceMu.Lock()
		delete(w.debounce, path)
		w.debounceMu.Unlock()
		fn()
	})
}
