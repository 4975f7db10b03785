// Package watch notifies panes when their real directory changes on
// disk. Bursts of filesystem events collapse into one notification per
// debounce window so a large external copy does not trigger a refresh
// per file. Archive-mounted locations are not watchable; callers skip
// them.
package watch

import (
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"noxcmd/internal/log"
)

const debounce = 250 * time.Millisecond

// Watcher debounces fsnotify events for a set of directories into a
// single refresh channel.
type Watcher struct {
	fw      *fsnotify.Watcher
	refresh chan string

	mu      sync.Mutex
	watched map[string]int // refcount per directory, both panes may sit in one
	pending map[string]*time.Timer
	closed  bool
}

// New starts the event loop. Close releases it.
func New() (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	w := &Watcher{
		fw:      fw,
		refresh: make(chan string, 8),
		watched: map[string]int{},
		pending: map[string]*time.Timer{},
	}
	go w.loop()
	return w, nil
}

// Refresh delivers the directory path each time its contents settled
// after a change.
func (w *Watcher) Refresh() <-chan string { return w.refresh }

// Add begins watching dir. Watching the same directory twice refcounts;
// a directory that cannot be watched is logged and skipped, never fatal.
func (w *Watcher) Add(dir string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return
	}
	if w.watched[dir] == 0 {
		if err := w.fw.Add(dir); err != nil {
			log.Debugf("watch: add %s: %v", dir, err)
			return
		}
	}
	w.watched[dir]++
}

// Remove undoes one Add.
func (w *Watcher) Remove(dir string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed || w.watched[dir] == 0 {
		return
	}
	w.watched[dir]--
	if w.watched[dir] == 0 {
		delete(w.watched, dir)
		if err := w.fw.Remove(dir); err != nil {
			log.Debugf("watch: remove %s: %v", dir, err)
		}
	}
}

func (w *Watcher) loop() {
	for {
		select {
		case ev, ok := <-w.fw.Events:
			if !ok {
				return
			}
			w.bump(filepath.Dir(ev.Name))
		case err, ok := <-w.fw.Errors:
			if !ok {
				return
			}
			log.Warnf("watch: %v", err)
		}
	}
}

// bump (re)arms the debounce timer for one directory.
func (w *Watcher) bump(dir string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return
	}
	if t, ok := w.pending[dir]; ok {
		t.Reset(debounce)
		return
	}
	w.pending[dir] = time.AfterFunc(debounce, func() {
		w.mu.Lock()
		delete(w.pending, dir)
		closed := w.closed
		w.mu.Unlock()
		if closed {
			return
		}
		select {
		case w.refresh <- dir:
		default:
			// Consumer is behind; it will refresh on the queued tick.
		}
	})
}

// Close stops the watcher. Pending debounce timers are dropped.
func (w *Watcher) Close() error {
	w.mu.Lock()
	w.closed = true
	for dir, t := range w.pending {
		t.Stop()
		delete(w.pending, dir)
	}
	w.mu.Unlock()
	return w.fw.Close()
}
