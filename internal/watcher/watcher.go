// Package watcher monitors the editor history files for changes so the
// project list can be rescanned without polling.
package watcher

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
)

// ChangeHandler is called once per debounced burst of history-file changes.
type ChangeHandler func(paths []string)

// Config holds watcher configuration.
type Config struct {
	// DebounceDelay is how long to wait after the last event before firing.
	DebounceDelay time.Duration
}

func DefaultConfig() Config {
	return Config{DebounceDelay: 500 * time.Millisecond}
}

// Watcher watches the parent directories of a set of target files. The
// editor replaces its history store via rename, so events are matched by
// basename rather than by watching the file inode itself.
type Watcher struct {
	fsWatcher *fsnotify.Watcher
	config    Config
	logger    zerolog.Logger
	handler   ChangeHandler

	// Watched parent dir -> set of target basenames inside it.
	targets   map[string]map[string]bool
	targetsMu sync.RWMutex

	pendingPaths  map[string]bool
	eventsMu      sync.Mutex
	debounceTimer *time.Timer

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New creates a new history watcher.
func New(config Config, logger zerolog.Logger) (*Watcher, error) {
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Watcher{
		fsWatcher:    fsWatcher,
		config:       config,
		logger:       logger.With().Str("component", "watcher").Logger(),
		targets:      make(map[string]map[string]bool),
		pendingPaths: make(map[string]bool),
		ctx:          ctx,
		cancel:       cancel,
	}, nil
}

// SetHandler sets the change handler function.
func (w *Watcher) SetHandler(handler ChangeHandler) {
	w.handler = handler
}

// Start begins watching for file events.
func (w *Watcher) Start() {
	w.wg.Add(1)
	go w.eventLoop()
}

// Stop stops the watcher and waits for cleanup.
func (w *Watcher) Stop() error {
	w.cancel()
	w.wg.Wait()
	return w.fsWatcher.Close()
}

// AddFile registers a target file. The parent directory must exist; missing
// history locations are simply skipped by the caller.
func (w *Watcher) AddFile(path string) error {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	dir := filepath.Dir(absPath)
	base := filepath.Base(absPath)

	w.targetsMu.Lock()
	defer w.targetsMu.Unlock()

	if names, ok := w.targets[dir]; ok {
		names[base] = true
		return nil
	}
	if err := w.fsWatcher.Add(dir); err != nil {
		return err
	}
	w.targets[dir] = map[string]bool{base: true}

	w.logger.Info().Str("dir", dir).Str("file", base).Msg("watching history file")
	return nil
}

// WatchedFiles returns the registered target paths.
func (w *Watcher) WatchedFiles() []string {
	w.targetsMu.RLock()
	defer w.targetsMu.RUnlock()

	var paths []string
	for dir, names := range w.targets {
		for name := range names {
			paths = append(paths, filepath.Join(dir, name))
		}
	}
	return paths
}

func (w *Watcher) eventLoop() {
	defer w.wg.Done()

	for {
		select {
		case <-w.ctx.Done():
			w.flushPending()
			return

		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return
			}
			w.handleFsEvent(event)

		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return
			}
			w.logger.Error().Err(err).Msg("watcher error")
		}
	}
}

// handleFsEvent keeps only write/create/rename events on registered target
// files. Everything else in the watched directories is noise.
func (w *Watcher) handleFsEvent(event fsnotify.Event) {
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
		return
	}
	if !w.isTarget(event.Name) {
		return
	}
	w.addPending(event.Name)
}

func (w *Watcher) isTarget(path string) bool {
	dir := filepath.Dir(path)
	base := filepath.Base(path)

	w.targetsMu.RLock()
	defer w.targetsMu.RUnlock()
	names, ok := w.targets[dir]
	return ok && names[base]
}

// addPending records a changed path and resets the debounce timer. Rapid
// save bursts from the editor collapse into a single handler call.
func (w *Watcher) addPending(path string) {
	w.eventsMu.Lock()
	defer w.eventsMu.Unlock()

	w.pendingPaths[path] = true

	if w.debounceTimer != nil {
		w.debounceTimer.Stop()
	}
	w.debounceTimer = time.AfterFunc(w.config.DebounceDelay, func() {
		w.eventsMu.Lock()
		defer w.eventsMu.Unlock()
		w.flushPendingLocked()
	})
}

func (w *Watcher) flushPending() {
	w.eventsMu.Lock()
	defer w.eventsMu.Unlock()
	w.flushPendingLocked()
}

func (w *Watcher) flushPendingLocked() {
	if len(w.pendingPaths) == 0 {
		return
	}
	if w.debounceTimer != nil {
		w.debounceTimer.Stop()
		w.debounceTimer = nil
	}

	paths := make([]string, 0, len(w.pendingPaths))
	for path := range w.pendingPaths {
		paths = append(paths, path)
	}
	w.pendingPaths = make(map[string]bool)

	if w.handler != nil {
		go w.handler(paths)
	}

	w.logger.Debug().Int("count", len(paths)).Msg("history change flushed")
}

// Exists reports whether a target file's parent directory can be watched.
func Exists(path string) bool {
	_, err := os.Stat(filepath.Dir(path))
	return err == nil
}
