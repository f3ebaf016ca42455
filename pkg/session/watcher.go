package session

import (
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// SourceWatcher reports writes to the displayed source file. It watches the
// file's directory, so editors that save by rename are seen as well.
type SourceWatcher struct {
	w      *fsnotify.Watcher
	log    *slog.Logger
	dir    string
	events chan string
}

// NewSourceWatcher starts an idle watcher; call Follow to pick a file.
func NewSourceWatcher(log *slog.Logger) (*SourceWatcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	sw := &SourceWatcher{w: w, log: log, events: make(chan string, 16)}
	go sw.loop()
	return sw, nil
}

func (sw *SourceWatcher) loop() {
	defer close(sw.events)
	for {
		select {
		case ev, ok := <-sw.w.Events:
			if !ok {
				return
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			select {
			case sw.events <- ev.Name:
			default:
				// the loop is busy; a later write reloads anyway
			}
		case err, ok := <-sw.w.Errors:
			if !ok {
				return
			}
			sw.log.Warn("watch source", "err", err)
		}
	}
}

// Follow switches the watch to the directory of path.
func (sw *SourceWatcher) Follow(path string) error {
	dir := filepath.Dir(path)
	if dir == sw.dir {
		return nil
	}
	if sw.dir != "" {
		_ = sw.w.Remove(sw.dir)
	}
	if err := sw.w.Add(dir); err != nil {
		sw.dir = ""
		return fmt.Errorf("watch %s: %w", dir, err)
	}
	sw.dir = dir
	return nil
}

// Events delivers the paths of written files. It is closed by Close.
func (sw *SourceWatcher) Events() <-chan string {
	return sw.events
}

// Close stops the watcher.
func (sw *SourceWatcher) Close() error {
	return sw.w.Close()
}
