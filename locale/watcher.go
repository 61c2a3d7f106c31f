package locale

import (
	"context"
	"errors"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"github.com/pitabwire/util"
)

// ErrNothingToWatch is returned when none of the watched files has an existing directory.
var ErrNothingToWatch = errors.New("locale: no watchable locale files")

// FileWatcher emits an Event whenever one of its files is created, written,
// replaced or removed. Directories are watched rather than the files themselves
// because tools such as timedatectl replace /etc/localtime atomically.
type FileWatcher struct {
	paths []string
}

// NewFileWatcher watches the given files.
func NewFileWatcher(paths ...string) *FileWatcher {
	return &FileWatcher{paths: paths}
}

// Watch starts watching. Bursts of file events collapse into a single pending
// Event; the channel is closed once ctx is done.
func (w *FileWatcher) Watch(ctx context.Context) (<-chan Event, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	targets := make(map[string]struct{}, len(w.paths))
	dirs := make(map[string]struct{})
	for _, p := range w.paths {
		clean := filepath.Clean(p)
		targets[clean] = struct{}{}
		dirs[filepath.Dir(clean)] = struct{}{}
	}

	log := util.Log(ctx)

	watched := 0
	for dir := range dirs {
		if _, statErr := os.Stat(dir); statErr != nil {
			continue
		}
		if addErr := watcher.Add(dir); addErr != nil {
			log.WithError(addErr).WithField("dir", dir).Warn("could not watch locale directory")
			continue
		}
		watched++
	}

	if watched == 0 {
		_ = watcher.Close()
		return nil, ErrNothingToWatch
	}

	events := make(chan Event, 1)

	go func() {
		defer close(events)
		defer util.CloseAndLogOnError(ctx, watcher)

		for {
			select {
			case <-ctx.Done():
				return

			case ev, ok := <-watcher.Events:
				if !ok {
					return
				}
				if _, isTarget := targets[filepath.Clean(ev.Name)]; !isTarget {
					continue
				}
				if !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Write) &&
					!ev.Has(fsnotify.Rename) && !ev.Has(fsnotify.Remove) {
					continue
				}

				select {
				case events <- Event{Path: ev.Name}:
				default:
					// an event is already pending
				}

			case watchErr, ok := <-watcher.Errors:
				if !ok {
					return
				}
				log.WithError(watchErr).Warn("locale watcher error")
			}
		}
	}()

	return events, nil
}
