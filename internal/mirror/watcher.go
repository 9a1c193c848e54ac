package mirror

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"operation-list/internal/logger"
)

const defaultDebounce = 500 * time.Millisecond

// Watcher calls OnChange after writes to a single file settle. The parent
// directory is watched so atomic rename-over replacements are seen.
type Watcher struct {
	path     string
	debounce time.Duration
	onChange func(ctx context.Context) error
	lggr     logger.Logger

	mu      sync.Mutex
	lastRun time.Time
}

func NewWatcher(path string, debounce time.Duration, onChange func(ctx context.Context) error, lggr logger.Logger) *Watcher {
	if debounce <= 0 {
		debounce = defaultDebounce
	}
	return &Watcher{
		path:     filepath.Clean(path),
		debounce: debounce,
		onChange: onChange,
		lggr:     lggr.Named("watcher"),
	}
}

// LastRun is when OnChange last completed.
func (w *Watcher) LastRun() time.Time {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.lastRun
}

// Run blocks until ctx is done.
func (w *Watcher) Run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer fw.Close()

	dir := filepath.Dir(w.path)
	if err := fw.Add(dir); err != nil {
		return fmt.Errorf("watch %s: %w", dir, err)
	}
	w.lggr.Infow("watching archive", "path", w.path)

	timer := time.NewTimer(w.debounce)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != w.path {
				continue
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) {
				continue
			}
			w.lggr.Debugw("archive changed", "op", ev.Op.String())
			timer.Reset(w.debounce)
		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.lggr.Warnw("watch error", "err", err)
		case <-timer.C:
			if err := w.onChange(ctx); err != nil {
				w.lggr.Errorw("change handler failed", "err", err)
			}
			w.mu.Lock()
			w.lastRun = time.Now()
			w.mu.Unlock()
		}
	}
}
