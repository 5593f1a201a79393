package installed

import (
	"fmt"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watcher observes the installed-plugin root and emits a coalesced change
// signal. Bursts of filesystem events (an install writes many files) are
// debounced into a single notification.
type Watcher struct {
	fsw      *fsnotify.Watcher
	changes  chan struct{}
	debounce time.Duration

	closeOnce sync.Once
	done      chan struct{}
}

// DefaultDebounce is the quiet period before a change signal fires.
const DefaultDebounce = 500 * time.Millisecond

// NewWatcher starts watching the given root directory.
func NewWatcher(root string, debounce time.Duration) (*Watcher, error) {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}
	if err := fsw.Add(root); err != nil {
		fsw.Close()
		return nil, fmt.Errorf("failed to watch %s: %w", root, err)
	}

	w := &Watcher{
		fsw:      fsw,
		changes:  make(chan struct{}, 1),
		debounce: debounce,
		done:     make(chan struct{}),
	}
	go w.run()
	return w, nil
}

// Changes returns the coalesced change signal channel. The channel has a
// buffer of one; a signal already pending absorbs later ones.
func (w *Watcher) Changes() <-chan struct{} {
	return w.changes
}

// Close stops the watcher. Idempotent.
func (w *Watcher) Close() error {
	var err error
	w.closeOnce.Do(func() {
		close(w.done)
		err = w.fsw.Close()
	})
	return err
}

// run drains filesystem events and fires the debounced change signal.
func (w *Watcher) run() {
	var timer *time.Timer
	var timerC <-chan time.Time

	for {
		select {
		case <-w.done:
			return
		case _, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if timer == nil {
				timer = time.NewTimer(w.debounce)
				timerC = timer.C
			} else {
				timer.Reset(w.debounce)
			}
		case <-w.fsw.Errors:
			// Watch errors are not actionable here; the next refresh
			// pass re-reads the directory regardless.
		case <-timerC:
			timer = nil
			timerC = nil
			select {
			case w.changes <- struct{}{}:
			default:
			}
		}
	}
}
