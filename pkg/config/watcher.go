package config

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"

	"github.com/brandloom/brandloom/pkg/logger"
)

// Watcher wraps fsnotify for configuration hot-reload. Each watched path
// carries the context it was registered under, so cancellation silences its
// events without tearing down the whole watcher.
type Watcher struct {
	watcher   *fsnotify.Watcher
	callbacks []func()
	mu        sync.RWMutex
	watched   map[string]context.Context // absolute path -> registering context
	stopCh    chan struct{}
	startOnce sync.Once
	closeOnce sync.Once
}

// NewWatcher creates a configuration file watcher.
func NewWatcher() (*Watcher, error) {
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}
	return &Watcher{
		watcher:   fsWatcher,
		callbacks: make([]func(), 0),
		watched:   make(map[string]context.Context),
		stopCh:    make(chan struct{}),
	}, nil
}

// Watch adds the file to the watch set. The event loop starts lazily on the
// first call. When ctx is canceled the path is dropped again.
func (w *Watcher) Watch(ctx context.Context, path string) error {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("failed to resolve path: %w", err)
	}
	if err := w.watcher.Add(absPath); err != nil {
		return fmt.Errorf("failed to watch file: %w", err)
	}

	w.mu.Lock()
	w.watched[absPath] = ctx
	w.mu.Unlock()

	if done := ctx.Done(); done != nil {
		go w.unwatchOnCancel(absPath, done)
	}

	w.startOnce.Do(func() {
		go w.handleEvents()
	})
	return nil
}

// unwatchOnCancel removes a path once its registering context ends or the
// watcher shuts down.
func (w *Watcher) unwatchOnCancel(path string, done <-chan struct{}) {
	select {
	case <-done:
	case <-w.stopCh:
	}
	w.mu.Lock()
	delete(w.watched, path)
	w.mu.Unlock()
	if err := w.watcher.Remove(path); err != nil && !errors.Is(err, fsnotify.ErrClosed) {
		logger.Debug("failed to remove watched file", "path", path, "error", err)
	}
}

// OnChange registers a callback invoked when a watched file changes.
func (w *Watcher) OnChange(callback func()) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.callbacks = append(w.callbacks, callback)
}

func (w *Watcher) handleEvents() {
	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if !w.isActive(event.Name) {
				continue
			}
			// Writes and creates cover both in-place edits and the
			// rename-then-replace pattern editors use.
			if event.Op&(fsnotify.Write|fsnotify.Create) != 0 {
				w.notifyCallbacks()
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			if err != nil {
				logger.Warn("config file watcher error", "error", err)
			}
		}
	}
}

// isActive reports whether the path is still watched under a live context.
func (w *Watcher) isActive(path string) bool {
	w.mu.RLock()
	pathCtx, ok := w.watched[path]
	w.mu.RUnlock()
	if !ok {
		return false
	}
	return pathCtx == nil || pathCtx.Err() == nil
}

func (w *Watcher) notifyCallbacks() {
	w.mu.RLock()
	callbacks := append(([]func())(nil), w.callbacks...)
	w.mu.RUnlock()
	for _, callback := range callbacks {
		if callback != nil {
			callback()
		}
	}
}

// Close stops the watcher. Idempotent.
func (w *Watcher) Close() error {
	var closeErr error
	w.closeOnce.Do(func() {
		close(w.stopCh)
		if err := w.watcher.Close(); err != nil {
			closeErr = fmt.Errorf("failed to close watcher: %w", err)
		}
	})
	return closeErr
}
