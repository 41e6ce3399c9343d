package config

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// settle is how long Watch waits after a change before reading, so that a
// file being written has time to be complete.
const settle = 100 * time.Millisecond

// Watch calls onChange with freshly loaded preferences every time a
// preference file in dir is written, created or removed, until ctx is done.
// The directory must exist.
func Watch(ctx context.Context, dir string, onChange func(Preferences, error)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	if err := watcher.Add(dir); err != nil {
		watcher.Close()
		return fmt.Errorf("failed to watch %s: %w", dir, err)
	}
	go func() {
		defer watcher.Close()
		watch(ctx, watcher, dir, settle, onChange)
	}()
	return nil
}

func watch(ctx context.Context, watcher *fsnotify.Watcher, dir string, delay time.Duration, onChange func(Preferences, error)) {
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			name := filepath.Base(event.Name)
			if name != yamlName && name != tomlName {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Remove) {
				continue
			}
			select {
			case <-ctx.Done():
				return
			case <-time.After(delay):
			}
			onChange(Load(dir))
		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			p, _ := Load(dir)
			onChange(p, err)
		}
	}
}
