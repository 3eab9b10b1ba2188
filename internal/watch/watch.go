// Package watch keeps the solution's version marker in step with its file
// on disk. It watches the solution file with fsnotify, debounces the burst
// of events editors produce on save, and bumps the store's solution version
// with a marker derived from the new last-write time.
package watch

import (
	"errors"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/dshills/keystone/internal/solution"
	"github.com/dshills/keystone/internal/version"
)

const defaultDebounce = 100 * time.Millisecond

// Option configures a Watcher.
type Option func(*Watcher)

// WithDebounce sets the coalescing window for file events.
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) {
		if d > 0 {
			w.debounce = d
		}
	}
}

// WithLogger sets the watcher's logger.
func WithLogger(log *slog.Logger) Option {
	return func(w *Watcher) {
		if log != nil {
			w.log = log
		}
	}
}

// Watcher observes one solution file and re-stamps the store's solution
// version when the file changes externally.
type Watcher struct {
	store    *solution.Store
	path     string
	debounce time.Duration
	log      *slog.Logger

	fsw   *fsnotify.Watcher
	fired chan struct{}

	mu    sync.Mutex
	timer *time.Timer

	closeOnce sync.Once
	closeCh   chan struct{}
	wg        sync.WaitGroup
}

// New starts watching the solution file. The file's directory is watched
// rather than the file itself so rename-on-save editors keep working.
func New(store *solution.Store, path string, opts ...Option) (*Watcher, error) {
	if path == "" {
		return nil, errors.New("watch: solution path is empty")
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	w := &Watcher{
		store:    store,
		path:     filepath.Clean(path),
		debounce: defaultDebounce,
		log:      slog.Default(),
		fsw:      fsw,
		fired:    make(chan struct{}, 1),
		closeCh:  make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}

	if err := fsw.Add(filepath.Dir(w.path)); err != nil {
		_ = fsw.Close()
		return nil, err
	}

	w.wg.Add(2)
	go w.eventLoop()
	go w.bumpLoop()
	return w, nil
}

// Path returns the watched solution file path.
func (w *Watcher) Path() string { return w.path }

// eventLoop filters raw fsnotify events down to the solution file and
// debounces them onto the fired channel.
func (w *Watcher) eventLoop() {
	defer w.wg.Done()
	for {
		select {
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if filepath.Clean(ev.Name) != w.path {
				continue
			}
			if !ev.Op.Has(fsnotify.Write) && !ev.Op.Has(fsnotify.Create) && !ev.Op.Has(fsnotify.Rename) {
				continue
			}
			w.schedule()
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.log.Warn("solution watcher error", "path", w.path, "error", err)
		case <-w.closeCh:
			return
		}
	}
}

// schedule arms (or re-arms) the debounce timer.
func (w *Watcher) schedule() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, func() {
		select {
		case w.fired <- struct{}{}:
		default:
		}
	})
}

// bumpLoop applies one version bump per debounced change.
func (w *Watcher) bumpLoop() {
	defer w.wg.Done()
	for {
		select {
		case <-w.fired:
			w.bump()
		case <-w.closeCh:
			return
		}
	}
}

func (w *Watcher) bump() {
	m, err := version.FromFile(w.path)
	if err != nil {
		// File may be mid-rename; stamp from the clock instead.
		w.log.Warn("solution version from file failed, using clock",
			"path", w.path, "error", err)
		m = version.FromClock()
	}
	if _, err := w.store.BumpVersion(m); err != nil {
		if errors.Is(err, solution.ErrEmptySolution) {
			return
		}
		w.log.Warn("solution version bump failed", "path", w.path, "error", err)
		return
	}
	w.log.Debug("solution version bumped", "path", w.path, "version", m)
}

// Close stops watching. Pending debounced bumps are dropped.
func (w *Watcher) Close() error {
	var err error
	w.closeOnce.Do(func() {
		close(w.closeCh)
		err = w.fsw.Close()
		w.mu.Lock()
		if w.timer != nil {
			w.timer.Stop()
		}
		w.mu.Unlock()
		w.wg.Wait()
	})
	return err
}
