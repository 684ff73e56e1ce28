package config

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/hamr-launcher/hamr/internal/herr"
	"github.com/hamr-launcher/hamr/internal/logging"
)

var wlog = logging.WithComponent("config.Watcher")

// debounceWindow matches spec.md §6: "a debounced reload (≈500 ms)".
const debounceWindow = 500 * time.Millisecond

// Watcher wraps an fsnotify watcher on the config file and republishes a
// validated Config snapshot on change. Grounded on the teacher's
// pkg/integrations/v4/manager.go, which watches config/plugin
// directories with the same Add/Events/Errors fsnotify API (see
// DESIGN.md for why this API was chosen over the legacy one found
// elsewhere in the teacher).
type Watcher struct {
	path string
	fsw  *fsnotify.Watcher

	current atomic.Pointer[Config]

	mu        sync.Mutex
	listeners []func(Config)

	done chan struct{}
}

// NewWatcher loads path once, then begins watching its parent directory
// for changes (watching the directory, not the file, survives editors
// that replace-via-rename rather than write-in-place).
func NewWatcher(path string) (*Watcher, error) {
	initial, err := Load(path)
	if err != nil {
		return nil, err
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, herr.Wrap(herr.KindWatcher, err, "cannot create config file watcher")
	}
	if err := fsw.Add(dirOf(path)); err != nil {
		_ = fsw.Close()
		return nil, herr.Wrap(herr.KindWatcher, err, "cannot watch config directory")
	}

	w := &Watcher{path: path, fsw: fsw, done: make(chan struct{})}
	w.current.Store(&initial)

	go w.run()
	return w, nil
}

// Current returns the most recently published, validated snapshot.
func (w *Watcher) Current() Config {
	return *w.current.Load()
}

// OnChange registers fn to be called with every successfully validated
// new snapshot. fn is called from the watcher's own goroutine.
func (w *Watcher) OnChange(fn func(Config)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.listeners = append(w.listeners, fn)
}

// Close stops watching and releases the underlying inotify handle.
func (w *Watcher) Close() error {
	close(w.done)
	return w.fsw.Close()
}

func (w *Watcher) run() {
	var timer *time.Timer
	var timerC <-chan time.Time

	for {
		select {
		case <-w.done:
			if timer != nil {
				timer.Stop()
			}
			return

		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if ev.Name != w.path {
				continue
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(debounceWindow)
			} else {
				if !timer.Stop() {
					select {
					case <-timer.C:
					default:
					}
				}
				timer.Reset(debounceWindow)
			}
			timerC = timer.C

		case <-timerC:
			timerC = nil
			w.reload()

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			wlog.WithError(err).Debug("config watcher error")
		}
	}
}

// reload validates the config file on disk; a parse/validation failure
// keeps the current snapshot in place and logs the error, per spec.md
// §6: "on failure the current snapshot is retained and an error is
// emitted."
func (w *Watcher) reload() {
	next, err := Load(w.path)
	if err != nil {
		wlog.WithError(err).Warn("config reload failed; retaining previous snapshot")
		return
	}
	w.current.Store(&next)

	w.mu.Lock()
	listeners := append([]func(Config){}, w.listeners...)
	w.mu.Unlock()
	for _, fn := range listeners {
		fn(next)
	}
}

func dirOf(path string) string {
	for i := len(path) - 1; i >= 0; i-- {
		if path[i] == '/' {
			return path[:i]
		}
	}
	return "."
}
