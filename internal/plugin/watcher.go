package plugin

import (
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/hamr-launcher/hamr/internal/herr"
)

const dirDebounceWindow = 500 * time.Millisecond

// DirWatcher watches a registry's configured plugin directories and
// drives discovery diffs into it on change, per spec.md §6:
// "Plugin-directory changes trigger discovery; a diff (added / removed /
// modified manifests) drives plugin spawns and unloads."
type DirWatcher struct {
	registry *Registry
	fsw      *fsnotify.Watcher
	done     chan struct{}

	onChange func(added, removed, modified []string)
}

// NewDirWatcher watches every directory the registry was constructed
// with. A directory that doesn't exist yet is skipped rather than
// failing the whole watcher — plugin directories are optional.
func NewDirWatcher(r *Registry, onChange func(added, removed, modified []string)) (*DirWatcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, herr.Wrap(herr.KindWatcher, err, "cannot create plugin directory watcher")
	}
	for _, dir := range r.dirs {
		if err := fsw.Add(dir); err != nil {
			rlog.WithField("dir", dir).WithError(err).Debug("skipping unwatchable plugin directory")
		}
	}

	w := &DirWatcher{registry: r, fsw: fsw, done: make(chan struct{}), onChange: onChange}
	go w.run()
	return w, nil
}

func (w *DirWatcher) Close() error {
	close(w.done)
	return w.fsw.Close()
}

func (w *DirWatcher) run() {
	var timer *time.Timer
	var timerC <-chan time.Time

	for {
		select {
		case <-w.done:
			if timer != nil {
				timer.Stop()
			}
			return

		case _, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if timer == nil {
				timer = time.NewTimer(dirDebounceWindow)
			} else {
				if !timer.Stop() {
					select {
					case <-timer.C:
					default:
					}
				}
				timer.Reset(dirDebounceWindow)
			}
			timerC = timer.C

		case <-timerC:
			timerC = nil
			w.reconcile()

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			rlog.WithError(err).Debug("plugin directory watcher error")
		}
	}
}

func (w *DirWatcher) reconcile() {
	discovered := Discover(w.registry.dirs)
	added, removed, modified := w.registry.Diff(discovered)
	if len(added) == 0 && len(removed) == 0 && len(modified) == 0 {
		return
	}
	w.registry.Apply(discovered, added, removed, modified)
	if w.onChange != nil {
		w.onChange(added, removed, modified)
	}
}
