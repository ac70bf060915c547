package store

import (
	"fmt"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"resumelens/internal/errors"
)

// BlobWatcher watches the store's data directory for out-of-band edits and
// invalidates the read cache when files change. Operators editing the users
// blob by hand see their changes picked up without a restart.
type BlobWatcher struct {
	mu sync.Mutex

	store         *FileStore
	fsWatcher     *fsnotify.Watcher
	debounceDelay time.Duration
	debounceTimer *time.Timer

	stopChan   chan struct{}
	reloadChan chan struct{}

	logger  *errors.Logger
	running bool
}

// NewBlobWatcher creates a watcher for the given store.
func NewBlobWatcher(store *FileStore, debounceDelay time.Duration, logger *errors.Logger) *BlobWatcher {
	if debounceDelay == 0 {
		debounceDelay = time.Second
	}
	return &BlobWatcher{
		store:         store,
		debounceDelay: debounceDelay,
		stopChan:      make(chan struct{}),
		reloadChan:    make(chan struct{}, 1), // Buffered to prevent blocking
		logger:        logger,
	}
}

// Start begins watching the data directory.
func (w *BlobWatcher) Start() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.running {
		return fmt.Errorf("blob watcher is already running")
	}

	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	if err := fsWatcher.Add(w.store.Dir()); err != nil {
		if closeErr := fsWatcher.Close(); closeErr != nil && w.logger != nil {
			w.logger.LogError(closeErr, "Failed to close file watcher during cleanup")
		}
		return fmt.Errorf("failed to watch data directory %s: %w", w.store.Dir(), err)
	}
	w.fsWatcher = fsWatcher

	w.running = true
	go w.watchLoop()

	if w.logger != nil {
		w.logger.Info("Store blob watcher started",
			"dir", w.store.Dir(),
			"debounce_delay", w.debounceDelay)
	}
	return nil
}

// Stop stops the watcher.
func (w *BlobWatcher) Stop() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.running {
		return nil
	}

	close(w.stopChan)
	if w.debounceTimer != nil {
		w.debounceTimer.Stop()
	}
	if w.fsWatcher != nil {
		if err := w.fsWatcher.Close(); err != nil {
			if w.logger != nil {
				w.logger.LogError(err, "Failed to close file system watcher")
			}
			return err
		}
	}
	w.running = false

	if w.logger != nil {
		w.logger.Info("Store blob watcher stopped")
	}
	return nil
}

// IsRunning returns whether the watcher is currently running.
func (w *BlobWatcher) IsRunning() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.running
}

// watchLoop is the main event loop for file watching.
func (w *BlobWatcher) watchLoop() {
	for {
		select {
		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return
			}
			if w.shouldProcessEvent(event) {
				w.scheduleInvalidate()
			}

		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return
			}
			if w.logger != nil {
				w.logger.LogError(err, "File watcher error")
			}

		case <-w.reloadChan:
			if w.logger != nil {
				w.logger.Info("Store blobs changed on disk, invalidating cache")
			}
			w.store.InvalidateAll()

		case <-w.stopChan:
			return
		}
	}
}

// shouldProcessEvent filters out events the store's own atomic writes
// already accounted for via the cache update in Put.
func (w *BlobWatcher) shouldProcessEvent(event fsnotify.Event) bool {
	return event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename|fsnotify.Remove) != 0
}

// scheduleInvalidate schedules a debounced cache invalidation.
func (w *BlobWatcher) scheduleInvalidate() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.debounceTimer != nil {
		w.debounceTimer.Stop()
	}
	w.debounceTimer = time.AfterFunc(w.debounceDelay, func() {
		select {
		case w.reloadChan <- struct{}{}:
		default:
			// Invalidation already scheduled
		}
	})
}
