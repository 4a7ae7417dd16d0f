package watcher

import (
	"context"
	"errors"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/vertextoedge/plots-begone/internal/domain"
	"github.com/vertextoedge/plots-begone/internal/port"
)

// Watcher reports files appearing in plot directories using fsnotify.
// A file renamed into a watched directory arrives as a Create as well.
type Watcher struct {
	fsw    *fsnotify.Watcher
	logger *zap.Logger

	mu   sync.Mutex
	dirs map[string]struct{}
}

// Ensure Watcher implements port.Watcher
var _ port.Watcher = (*Watcher)(nil)

// New creates a new Watcher
func New(logger *zap.Logger) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	return &Watcher{
		fsw:    fsw,
		logger: logger,
		dirs:   make(map[string]struct{}),
	}, nil
}

// Watch subscribes every directory and returns one WatchError per failure
func (w *Watcher) Watch(dirs []string) []error {
	w.mu.Lock()
	defer w.mu.Unlock()

	var errs []error
	for _, dir := range dirs {
		dir = filepath.Clean(dir)
		if _, ok := w.dirs[dir]; ok {
			continue
		}
		if err := w.fsw.Add(dir); err != nil {
			errs = append(errs, domain.NewWatchError(dir, err))
			continue
		}
		w.dirs[dir] = struct{}{}
		w.logger.Debug("watching plot dir", zap.String("directory", dir))
	}
	return errs
}

// Watched returns the number of subscribed directories
func (w *Watcher) Watched() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.dirs)
}

// Run forwards create events to out until ctx is done or the watcher is closed
func (w *Watcher) Run(ctx context.Context, out chan<- port.FileEvent) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case ev, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			if !ev.Has(fsnotify.Create) {
				continue
			}
			fe := port.FileEvent{Path: ev.Name, Dir: filepath.Dir(ev.Name)}
			select {
			case out <- fe:
			case <-ctx.Done():
				return ctx.Err()
			}

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			if errors.Is(err, fsnotify.ErrEventOverflow) {
				w.logger.Error("file event queue overflowed, some new plots were missed", zap.Error(err))
				continue
			}
			w.logger.Warn("file watcher error", zap.Error(err))
		}
	}
}

// Close releases the OS watch handles
func (w *Watcher) Close() error {
	return w.fsw.Close()
}
