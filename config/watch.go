package config

import (
	"context"
	"fmt"
	"time"

	"github.com/fsnotify/fsnotify"
)

const watchDebounce = 100 * time.Millisecond

// Watch reloads settings whenever one of the candidate config files in
// opts.BasePath is written or created, and calls onChange with the result.
// Bursts of events are coalesced. Watching stops when ctx is done.
func Watch(ctx context.Context, opts ConfigOptions, onChange func(*Settings, error)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("❌ Failed to create config watcher: %w", err)
	}
	if err := watcher.Add(opts.BasePath); err != nil {
		watcher.Close()
		return fmt.Errorf("❌ Failed to watch %s: %w", opts.BasePath, err)
	}

	go func() {
		defer watcher.Close()

		var timer *time.Timer
		var reload <-chan time.Time
		for {
			select {
			case <-ctx.Done():
				if timer != nil {
					timer.Stop()
				}
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 || !isConfigFile(opts, event.Name) {
					continue
				}
				if timer == nil {
					timer = time.NewTimer(watchDebounce)
				} else {
					timer.Reset(watchDebounce)
				}
				reload = timer.C
			case <-reload:
				reload = nil
				onChange(Load(opts))
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				onChange(nil, err)
			}
		}
	}()

	return nil
}
