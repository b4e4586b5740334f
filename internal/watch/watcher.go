// Package watch re-runs verification when a local contract file changes.
package watch

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce coalesces the burst of events editors and generators emit
// for a single save.
const DefaultDebounce = 300 * time.Millisecond

// RunFunc is one verification pass. Its error is reported through OnError and
// does not stop the watcher.
type RunFunc func(ctx context.Context) error

// ContractWatcher watches a single contract file.
type ContractWatcher struct {
	path     string
	debounce time.Duration
	watcher  *fsnotify.Watcher

	// OnError receives errors from RunFunc and from the underlying watcher.
	OnError func(error)
}

// New creates a watcher for path. The parent directory is watched rather
// than the file so that atomic replace-by-rename is noticed.
func New(path string, debounce time.Duration) (*ContractWatcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolving %s: %w", path, err)
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating fsnotify watcher: %w", err)
	}
	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("watching %s: %w", filepath.Dir(abs), err)
	}

	return &ContractWatcher{path: abs, debounce: debounce, watcher: watcher}, nil
}

// Run calls run once immediately and again after every change to the file,
// until ctx is cancelled. Runs never overlap.
func (w *ContractWatcher) Run(ctx context.Context, run RunFunc) error {
	defer w.watcher.Close()

	w.invoke(ctx, run)

	var (
		timer  *time.Timer
		timerC <-chan time.Time
	)
	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return nil
		case event, ok := <-w.watcher.Events:
			if !ok {
				return fmt.Errorf("watcher closed")
			}
			if !w.relevant(event) {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				timer.Reset(w.debounce)
			}
			timerC = timer.C
		case <-timerC:
			timerC = nil
			w.invoke(ctx, run)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return fmt.Errorf("watcher closed")
			}
			w.report(fmt.Errorf("watcher error: %w", err))
		}
	}
}

func (w *ContractWatcher) relevant(event fsnotify.Event) bool {
	if filepath.Clean(event.Name) != w.path {
		return false
	}
	return event.Has(fsnotify.Create) || event.Has(fsnotify.Write) || event.Has(fsnotify.Rename)
}

func (w *ContractWatcher) invoke(ctx context.Context, run RunFunc) {
	if ctx.Err() != nil {
		return
	}
	if err := run(ctx); err != nil {
		w.report(err)
	}
}

func (w *ContractWatcher) report(err error) {
	if w.OnError != nil {
		w.OnError(err)
	}
}
