package config

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"github.com/vk/rendergraph/internal/ctxlog"
	"github.com/zclconf/go-cty/cty"
)

// Watcher reloads a settings file when it changes on disk.
type Watcher struct {
	path    string
	fsw     *fsnotify.Watcher
	onLoad  func(map[string]cty.Value)
	done    chan struct{}
	stopped chan struct{}
}

// NewWatcher starts watching path. onLoad runs on the watcher goroutine, so
// callers that touch the store must hand the values over to the render loop.
// The directory is watched rather than the file because editors often
// replace files instead of writing them in place.
func NewWatcher(ctx context.Context, path string, onLoad func(map[string]cty.Value)) (*Watcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve settings path %s: %w", path, err)
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create settings watcher: %w", err)
	}
	if err := fsw.Add(filepath.Dir(abs)); err != nil {
		_ = fsw.Close()
		return nil, fmt.Errorf("failed to watch %s: %w", filepath.Dir(abs), err)
	}

	w := &Watcher{
		path:    abs,
		fsw:     fsw,
		onLoad:  onLoad,
		done:    make(chan struct{}),
		stopped: make(chan struct{}),
	}
	go w.loop(ctx)
	return w, nil
}

func (w *Watcher) loop(ctx context.Context) {
	defer close(w.stopped)
	logger := ctxlog.FromContext(ctx).With("settings", w.path)

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.done:
			return
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if filepath.Clean(ev.Name) != w.path {
				continue
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) {
				continue
			}
			values, err := LoadSettings(w.path)
			if err != nil {
				logger.Warn("Failed to reload settings, keeping current values.", "error", err)
				continue
			}
			logger.Info("Settings file changed, reloading.", "properties", len(values))
			w.onLoad(values)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			logger.Warn("Settings watcher error.", "error", err)
		}
	}
}

// Close stops the watcher and waits for its goroutine to exit.
func (w *Watcher) Close() error {
	select {
	case <-w.done:
	default:
		close(w.done)
	}
	err := w.fsw.Close()
	<-w.stopped
	return err
}
