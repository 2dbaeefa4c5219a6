package assets

import (
	"context"
	"fmt"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/sirupsen/logrus"
)

const DefaultDebounce = 250 * time.Millisecond

// Watcher relists a directory after files are added, removed or renamed in
// it and reports the new list. Bursts of events are collapsed into one
// relist.
type Watcher struct {
	dir      string
	list     ListFunc
	onChange func(paths []string)
	debounce time.Duration
	logger   logrus.FieldLogger

	fs *fsnotify.Watcher
}

func NewWatcher(dir string, list ListFunc, onChange func([]string), logger logrus.FieldLogger) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	if err := fw.Add(dir); err != nil {
		fw.Close()
		return nil, fmt.Errorf("watch %s: %w", dir, err)
	}
	return &Watcher{
		dir:      dir,
		list:     list,
		onChange: onChange,
		debounce: DefaultDebounce,
		logger:   logger.WithFields(logrus.Fields{"component": "asset_watcher", "dir": dir}),
		fs:       fw,
	}, nil
}

// SetDebounce sets the quiet period before a relist; call before Run
func (w *Watcher) SetDebounce(d time.Duration) { w.debounce = d }

// Run delivers changes until ctx is done, then releases the watch
func (w *Watcher) Run(ctx context.Context) {
	defer w.fs.Close()
	w.logger.Debug("watching for changes")

	var fire <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-w.fs.Events:
			if !ok {
				return
			}
			if ev.Op&(fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			w.logger.WithField("event", ev.String()).Debug("directory changed")
			fire = time.After(w.debounce)
		case err, ok := <-w.fs.Errors:
			if !ok {
				return
			}
			w.logger.WithError(err).Warn("watch error")
		case <-fire:
			fire = nil
			paths, err := w.list(w.dir)
			if err != nil {
				w.logger.WithError(err).Warn("could not relist directory")
				continue
			}
			w.onChange(paths)
		}
	}
}
