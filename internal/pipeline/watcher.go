package pipeline

import (
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// ConceptChange represents a detected change to the watched concept file.
type ConceptChange struct {
	File    string
	Removed bool
}

// Watcher monitors a concept file during a build using fsnotify, so the
// caller can replan when the concept is edited mid-build.
type Watcher struct {
	File    string
	Changes <-chan ConceptChange // Read-only external channel.

	changes chan ConceptChange // Internal write channel.
	done    chan struct{}
	watcher *fsnotify.Watcher
}

// NewWatcher creates a watcher for the given concept file.
func NewWatcher(file string) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	ch := make(chan ConceptChange, 16)
	w := &Watcher{
		File:    file,
		Changes: ch,
		changes: ch,
		done:    make(chan struct{}),
		watcher: fw,
	}
	return w, nil
}

// Start begins watching the concept file's directory. Watching the
// directory rather than the file survives editors that replace-on-save.
func (w *Watcher) Start() error {
	if err := w.watcher.Add(filepath.Dir(w.File)); err != nil {
		return err
	}
	go w.loop()
	return nil
}

// Stop closes the watcher and channels.
func (w *Watcher) Stop() {
	w.watcher.Close()
	<-w.done // Wait for loop to exit.
	close(w.changes)
}

func (w *Watcher) loop() {
	defer close(w.done)

	// Debounce: editors often fire several events per save.
	const debounce = 100 * time.Millisecond
	var pendingAt time.Time
	pending := false
	ticker := time.NewTicker(debounce)
	defer ticker.Stop()

	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				if pending {
					w.emitChange()
				}
				return
			}
			if filepath.Clean(event.Name) != filepath.Clean(w.File) {
				continue
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) || event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename) {
				pending = true
				pendingAt = time.Now()
			}

		case _, ok := <-ticker.C:
			if !ok {
				return
			}
			if pending && time.Since(pendingAt) >= debounce {
				pending = false
				w.emitChange()
			}

		case _, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			// Watch errors are non-fatal.
		}
	}
}

// emitChange sends without blocking: a full buffer means the consumer is
// behind, and a dropped notification is re-signaled by the next save. A
// blocking send here would also wedge Stop, which waits for loop to exit.
func (w *Watcher) emitChange() {
	_, err := os.Stat(w.File)
	select {
	case w.changes <- ConceptChange{File: w.File, Removed: err != nil}:
	default:
	}
}
