// Package watch reports settled changes to a single file.
package watch

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/gogpu/cutborder"
)

// DefaultDebounce is how long a file must stay quiet before a change is
// reported. Editors often write a file in several steps.
const DefaultDebounce = 200 * time.Millisecond

// tick is the debounce polling interval.
const tick = 25 * time.Millisecond

// Stats counts watcher activity.
type Stats struct {
	Events        int
	Notifications int
	Errors        int
	LastEvent     time.Time
}

// Watcher watches one file. The parent directory is watched so that atomic
// saves (write to temp, rename over) are seen.
type Watcher struct {
	mu       sync.Mutex
	fsw      *fsnotify.Watcher
	path     string
	dir      string
	debounce time.Duration
	pending  time.Time // zero when nothing is pending
	changes  chan struct{}
	stopCh   chan struct{}
	doneCh   chan struct{}
	running  bool
	stopped  bool
	stats    Stats
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithDebounce sets the quiet period. Non-positive values report every
// event on the next tick.
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) {
		w.debounce = max(d, 0)
	}
}

// New creates a watcher for path. Call Start to begin watching.
func New(path string, opts ...Option) (*Watcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("watch: %w", err)
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("watch: %w", err)
	}
	w := &Watcher{
		fsw:      fsw,
		path:     abs,
		dir:      filepath.Dir(abs),
		debounce: DefaultDebounce,
		changes:  make(chan struct{}, 1),
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w, nil
}

// Path returns the absolute path being watched.
func (w *Watcher) Path() string {
	return w.path
}

// Changes delivers one value per settled change. Changes that settle while
// a value is still unread are coalesced into it.
func (w *Watcher) Changes() <-chan struct{} {
	return w.changes
}

// Start begins watching. It is non-blocking; the event loop runs until ctx
// is done or Stop is called.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.running {
		return nil
	}
	if w.stopped {
		return fmt.Errorf("watch: watcher for %s is stopped", w.path)
	}
	if err := w.fsw.Add(w.dir); err != nil {
		return fmt.Errorf("watch: %w", err)
	}
	w.running = true
	cutborder.Logger().Debug("watch: started", "path", w.path)

	go w.run(ctx)
	return nil
}

// Stop ends the event loop, waits for it and releases the OS watcher.
// Stop is idempotent.
func (w *Watcher) Stop() {
	w.mu.Lock()
	if w.stopped {
		w.mu.Unlock()
		return
	}
	w.stopped = true
	running := w.running
	w.running = false
	w.mu.Unlock()

	close(w.stopCh)
	if running {
		<-w.doneCh
	}
	if err := w.fsw.Close(); err != nil {
		cutborder.Logger().Warn("watch: close failed", "err", err)
	}
	cutborder.Logger().Debug("watch: stopped", "path", w.path)
}

// Stats returns a snapshot of the counters.
func (w *Watcher) Stats() Stats {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.stats
}

func (w *Watcher) run(ctx context.Context) {
	defer close(w.doneCh)

	ticker := time.NewTicker(tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stopCh:
			return
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			w.handleEvent(ev)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			cutborder.Logger().Warn("watch: error", "err", err)
			w.mu.Lock()
			w.stats.Errors++
			w.mu.Unlock()
		case <-ticker.C:
			w.flush()
		}
	}
}

func (w *Watcher) handleEvent(ev fsnotify.Event) {
	if filepath.Clean(ev.Name) != w.path {
		return
	}
	if !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Rename) && !ev.Has(fsnotify.Remove) {
		return
	}
	cutborder.Logger().Debug("watch: event", "op", ev.Op.String(), "path", ev.Name)

	now := time.Now()
	w.mu.Lock()
	w.stats.Events++
	w.stats.LastEvent = now
	w.pending = now
	w.mu.Unlock()
}

// flush reports a pending change once it has been quiet for the debounce
// period.
func (w *Watcher) flush() {
	w.mu.Lock()
	if w.pending.IsZero() || time.Since(w.pending) < w.debounce {
		w.mu.Unlock()
		return
	}
	w.pending = time.Time{}
	w.stats.Notifications++
	w.mu.Unlock()

	select {
	case w.changes <- struct{}{}:
	default:
	}
}
