package sync

import (
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watcher calls a function whenever the deck file changes on disk.
// The parent directory is watched because editors often replace files
// instead of writing them in place.
type Watcher struct {
	file     string
	onChange func()
	debounce time.Duration

	watcher *fsnotify.Watcher
	done    chan struct{}
}

// NewWatcher creates a watcher for the given deck file.
func NewWatcher(file string, onChange func()) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	abs, err := filepath.Abs(file)
	if err != nil {
		fw.Close()
		return nil, err
	}
	return &Watcher{
		file:     abs,
		onChange: onChange,
		debounce: 200 * time.Millisecond,
		watcher:  fw,
		done:     make(chan struct{}),
	}, nil
}

// Start begins watching. On failure the watcher is closed and must not be
// stopped.
func (w *Watcher) Start() error {
	if err := w.watcher.Add(filepath.Dir(w.file)); err != nil {
		w.watcher.Close()
		return err
	}
	go w.loop()
	return nil
}

// Stop closes the watcher and waits for the event loop to exit.
func (w *Watcher) Stop() {
	w.watcher.Close()
	<-w.done
}

func (w *Watcher) loop() {
	defer close(w.done)

	var pending time.Time
	ticker := time.NewTicker(w.debounce / 2)
	defer ticker.Stop()

	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != w.file {
				continue
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) || event.Has(fsnotify.Rename) {
				pending = time.Now()
			}

		case now := <-ticker.C:
			if !pending.IsZero() && now.Sub(pending) >= w.debounce {
				pending = time.Time{}
				w.onChange()
			}

		case _, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			// Watch errors are non-fatal.
		}
	}
}
