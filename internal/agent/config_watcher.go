package agent

import (
	"context"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/tsio-labs/metricship/pkg/log"
)

const debounceDelay = 100 * time.Millisecond

// ConfigWatcher monitors the TOML config file via fsnotify and calls
// apply with the reloaded contents. Editors often replace the file
// rather than write in place, so the watch is on the parent directory
// and events are debounced.
type ConfigWatcher struct {
	path   string
	logger log.Logger
	apply  func(FileConfig)

	mu       sync.Mutex
	debounce *time.Timer
}

// NewConfigWatcher creates a watcher for the config file at path.
func NewConfigWatcher(path string, logger log.Logger, apply func(FileConfig)) *ConfigWatcher {
	if logger == nil {
		logger = log.NewNoopLogger()
	}
	return &ConfigWatcher{path: path, logger: logger, apply: apply}
}

// Run watches until the context is canceled.
func (w *ConfigWatcher) Run(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	if err := watcher.Add(filepath.Dir(w.path)); err != nil {
		return err
	}

	target := filepath.Clean(w.path)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			w.scheduleReload()

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Error("config watch error", log.Err(err))
		}
	}
}

// scheduleReload coalesces bursts of events into one reload.
func (w *ConfigWatcher) scheduleReload() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.debounce != nil {
		w.debounce.Stop()
	}
	w.debounce = time.AfterFunc(debounceDelay, w.reload)
}

func (w *ConfigWatcher) reload() {
	fc, err := LoadFileConfig(w.path)
	if err != nil {
		w.logger.Error("config reload failed", log.Err(err), log.String("path", w.path))
		return
	}
	w.logger.Info("config file changed", log.String("path", w.path))
	w.apply(fc)
}
