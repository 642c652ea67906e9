package loader

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

func (l *loader) Watch(ctx context.Context, dir string, onReload ReloadFunc) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	if err := w.Add(dir); err != nil {
		w.Close()
		return fmt.Errorf("failed to watch %s: %w", dir, err)
	}

	l.logger.Info("watching for model changes", "dir", dir)
	go l.watchLoop(ctx, w, onReload)
	return nil
}

func (l *loader) watchLoop(ctx context.Context, w *fsnotify.Watcher, onReload ReloadFunc) {
	defer w.Close()
	for {
		select {
		case e, ok := <-w.Events:
			if !ok {
				return
			}
			l.handleEvent(e, onReload)

		case err, ok := <-w.Errors:
			if !ok {
				return
			}
			l.logger.Error("watcher error", "err", err)

		case <-ctx.Done():
			return
		}
	}
}

// handleEvent reloads or evicts the cached model backed by the event's file.
// Files that were never loaded through Load are ignored.
func (l *loader) handleEvent(e fsnotify.Event, onReload ReloadFunc) {
	abs, err := filepath.Abs(e.Name)
	if err != nil {
		abs = e.Name
	}

	l.mu.RLock()
	key, ok := l.sources[abs]
	l.mu.RUnlock()
	if !ok {
		return
	}

	switch {
	case e.Op&(fsnotify.Create|fsnotify.Write) != 0:
		m, err := l.importFile(key)
		l.mu.Lock()
		delete(l.modelCache, key)
		if err == nil {
			l.modelCache[key] = m
		}
		l.mu.Unlock()

		if err != nil {
			l.logger.Warn("model reload failed", "path", key, "err", err)
		} else {
			l.logger.Info("model reloaded", "path", key)
		}
		if onReload != nil {
			onReload(key, m, err)
		}

	case e.Op&(fsnotify.Remove|fsnotify.Rename) != 0:
		l.mu.Lock()
		delete(l.modelCache, key)
		l.mu.Unlock()

		l.logger.Info("model evicted", "path", key)
		if onReload != nil {
			onReload(key, nil, nil)
		}
	}
}
