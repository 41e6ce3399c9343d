package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
)

func TestWatchStopsWhileSettling(t *testing.T) {
	dir := t.TempDir()
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		t.Fatalf("NewWatcher failed: %v", err)
	}
	defer watcher.Close()
	if err := watcher.Add(dir); err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	called := make(chan struct{}, 1)
	stopped := make(chan struct{})
	go func() {
		watch(ctx, watcher, dir, time.Hour, func(Preferences, error) { called <- struct{}{} })
		close(stopped)
	}()
	if err := os.WriteFile(filepath.Join(dir, yamlName), []byte("editing:\n  maxundos: 20\n"), 0o644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}
	// give the watcher time to pick up the write and start waiting
	time.Sleep(200 * time.Millisecond)
	cancel()
	select {
	case <-stopped:
	case <-time.After(5 * time.Second):
		t.Fatalf("watch did not stop while waiting for the file to settle")
	}
	select {
	case <-called:
		t.Errorf("preferences were reported after the watch was cancelled")
	default:
	}
}
