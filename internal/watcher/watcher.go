// Package watcher turns fsnotify notifications below the downloads root into a
// single stream of change events.
package watcher

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
)

// Watcher monitors a directory tree recursively
type Watcher struct {
	logger  *slog.Logger
	opts    Options
	watcher *fsnotify.Watcher

	events chan Event
	errors chan error
	done   chan struct{}
	wg     sync.WaitGroup

	startOnce sync.Once
	stopOnce  sync.Once
}

// New creates a new file watcher
func New(logger *slog.Logger, opts Options) (*Watcher, error) {
	if logger == nil {
		logger = slog.Default()
	}
	opts.setDefaults()

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}

	return &Watcher{
		logger:  logger,
		opts:    opts,
		watcher: fsw,
		events:  make(chan Event, opts.BufferSize),
		errors:  make(chan error, 16),
		done:    make(chan struct{}),
	}, nil
}

// Watch adds root and every directory below it. Failing to watch root itself is
// an error; subdirectories that cannot be watched are logged and skipped.
func (w *Watcher) Watch(root string) error {
	root = filepath.Clean(root)

	info, err := os.Stat(root)
	if err != nil {
		return fmt.Errorf("failed to stat path: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("watch %s: not a directory", root)
	}

	if err := w.watcher.Add(root); err != nil {
		return fmt.Errorf("watch %s: %w", root, err)
	}

	w.watchTree(root, nil)
	return nil
}

// watchTree adds watches for every directory below dir. Files found along the way
// are passed to found, which lets a freshly created directory report its contents.
func (w *Watcher) watchTree(dir string, found func(path string)) {
	filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			w.logger.Warn("failed to access path", "path", p, "error", err)
			return nil
		}

		if p != dir && w.opts.shouldIgnore(p) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		if !d.IsDir() {
			if found != nil && d.Type().IsRegular() {
				found(p)
			}
			return nil
		}

		if err := w.watcher.Add(p); err != nil {
			w.logger.Error("failed to add watch", "path", p, "error", err)
			return nil
		}

		w.logger.Debug("added watch", "path", p)
		return nil
	})
}

// Start begins translating events in the background. It returns immediately.
func (w *Watcher) Start(ctx context.Context) {
	w.startOnce.Do(func() {
		w.wg.Add(1)
		go w.processEvents(ctx)
	})
}

// processEvents is the only writer of the events and errors channels and closes
// both when it returns.
func (w *Watcher) processEvents(ctx context.Context) {
	defer w.wg.Done()
	defer close(w.errors)
	defer close(w.events)

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.done:
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handleFsnotifyEvent(ctx, event)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			select {
			case w.errors <- err:
			default:
				w.logger.Warn("dropping watcher error", "error", err)
			}
		}
	}
}

func (w *Watcher) handleFsnotifyEvent(ctx context.Context, event fsnotify.Event) {
	path := filepath.Clean(event.Name)

	if w.opts.shouldIgnore(path) {
		return
	}

	kind, ok := kindOf(event.Op)
	if !ok {
		return
	}

	if kind == Created {
		info, err := os.Lstat(path)
		if err == nil && info.IsDir() {
			w.watchTree(path, func(p string) {
				w.emit(ctx, Event{Path: p, Kind: Created})
			})
			return
		}
	}

	w.emit(ctx, Event{Path: path, Kind: kind})
}

// emit blocks until the consumer takes the event or the watcher stops
func (w *Watcher) emit(ctx context.Context, event Event) {
	select {
	case w.events <- event:
	case <-w.done:
	case <-ctx.Done():
	}
}

// Events returns the events channel. It is closed when the watch ends.
func (w *Watcher) Events() <-chan Event {
	return w.events
}

// Errors returns the errors channel
func (w *Watcher) Errors() <-chan error {
	return w.errors
}

// Stop stops the watcher and releases resources
func (w *Watcher) Stop() error {
	var err error
	w.stopOnce.Do(func() {
		close(w.done)
		err = w.watcher.Close()
		w.wg.Wait()
	})
	return err
}
