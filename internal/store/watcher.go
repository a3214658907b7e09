package store

import (
	"context"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is how long the watcher waits for writes to settle.
const DefaultDebounce = 500 * time.Millisecond

// Watcher signals when the database workbook is changed by another
// program, such as a spreadsheet editor. Writes made through the
// FileStore itself are not reported.
type Watcher struct {
	store    *FileStore
	watcher  *fsnotify.Watcher
	logger   *slog.Logger
	debounce time.Duration
	changes  chan struct{}
}

// NewWatcher watches the store's data folder. Editors usually replace the
// file rather than rewrite it, so the folder is watched, not the file.
func NewWatcher(s *FileStore, debounce time.Duration, logger *slog.Logger) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fsw.Add(s.Dir()); err != nil {
		fsw.Close()
		return nil, err
	}

	if logger == nil {
		logger = slog.Default()
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	return &Watcher{
		store:    s,
		watcher:  fsw,
		logger:   logger,
		debounce: debounce,
		changes:  make(chan struct{}, 1),
	}, nil
}

// Changes receives a value after each settled external change.
func (w *Watcher) Changes() <-chan struct{} { return w.changes }

// Run processes file events until ctx is done or the watcher is closed.
func (w *Watcher) Run(ctx context.Context) {
	target := filepath.Clean(w.store.Path())

	timer := time.NewTimer(w.debounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			timer.Reset(w.debounce)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("File watcher error", slog.String("error", err.Error()))

		case <-timer.C:
			changed, err := w.store.Changed()
			if err != nil {
				w.logger.Warn("Failed to check database file", slog.String("error", err.Error()))
				continue
			}
			if !changed {
				continue
			}
			w.logger.Info("Database changed on disk", slog.String("path", target))
			select {
			case w.changes <- struct{}{}:
			default:
			}
		}
	}
}

func (w *Watcher) Close() error {
	return w.watcher.Close()
}
