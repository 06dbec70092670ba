package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// DefaultSettle is how long a file must go without writes before it is
// annotated in watch mode.
const DefaultSettle = 500 * time.Millisecond

// Watch annotates eligible files as they appear in dir until ctx is done.
// A file is processed once no create or write event has arrived for it
// within settle. Files are processed one at a time.
func (w *Walker) Watch(ctx context.Context, dir string, settle time.Duration) (Summary, error) {
	var s Summary
	if settle <= 0 {
		settle = DefaultSettle
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return s, fmt.Errorf("failed to create watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(dir); err != nil {
		return s, fmt.Errorf("failed to watch %s: %w", dir, err)
	}
	w.log.Info("watching for new images", zap.String("dir", dir), zap.Duration("settle", settle))

	done := make(chan struct{})
	defer close(done)

	ready := make(chan string)
	pending := make(map[string]*time.Timer)
	defer func() {
		for _, t := range pending {
			t.Stop()
		}
	}()

	schedule := func(path string) {
		if t, ok := pending[path]; ok {
			t.Reset(settle)
			return
		}
		pending[path] = time.AfterFunc(settle, func() {
			select {
			case ready <- path:
			case <-done:
			}
		})
	}

	for {
		select {
		case <-ctx.Done():
			return s, nil

		case ev, ok := <-watcher.Events:
			if !ok {
				return s, nil
			}
			if !w.profile.Eligible(ev.Name) {
				continue
			}
			switch {
			case ev.Has(fsnotify.Create), ev.Has(fsnotify.Write):
				schedule(ev.Name)
			case ev.Has(fsnotify.Remove), ev.Has(fsnotify.Rename):
				if t, ok := pending[ev.Name]; ok {
					t.Stop()
					delete(pending, ev.Name)
				}
			}

		case path := <-ready:
			delete(pending, path)
			s.Found++
			s.record(w.ProcessFile(path))

		case err, ok := <-watcher.Errors:
			if !ok {
				return s, nil
			}
			w.log.Warn("watch error", zap.Error(err))
		}
	}
}
