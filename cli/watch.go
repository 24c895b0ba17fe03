package cli

import (
	"context"
	"path/filepath"
	"time"

	"github.com/bep/debounce"
	"github.com/fsnotify/fsnotify"

	"go.viam.com/trajviz/logging"
)

// planners write trajectories in bursts, wait for the burst to end.
const debounceInterval = 200 * time.Millisecond

type fileWatcher struct {
	path    string
	watcher *fsnotify.Watcher
	logger  logging.Logger
}

// newFileWatcher watches the directory of path, since editors and planners often replace the
// file instead of writing it in place.
func newFileWatcher(path string, logger logging.Logger) (*fileWatcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		//nolint:errcheck
		watcher.Close()
		return nil, err
	}
	return &fileWatcher{path: abs, watcher: watcher, logger: logger}, nil
}

// Run calls onChange after every burst of writes to the file until ctx is done. onChange runs
// on the calling goroutine.
func (w *fileWatcher) Run(ctx context.Context, onChange func()) error {
	//nolint:errcheck
	defer w.watcher.Close()

	trigger := make(chan struct{}, 1)
	debounced := debounce.New(debounceInterval)
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-trigger:
			w.logger.Debugw("trajectory changed", "path", w.path)
			onChange()
		case ev, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != w.path || ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			debounced(func() {
				select {
				case trigger <- struct{}{}:
				default:
				}
			})
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Warnw("watch error", "path", w.path, "error", err)
		}
	}
}
