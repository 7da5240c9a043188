package archive

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// SettleDelay is how long a path must stay quiet after its last create or
// write event before it is imported, so files still being copied arrive
// with their final size.
const SettleDelay = 250 * time.Millisecond

// Watch delivers each regular file newly created or written in dir to fn,
// once per path, until ctx is done. Files already present are delivered
// first. fn runs on the watcher goroutine.
func Watch(ctx context.Context, dir string, fn func(*File), onErr func(error)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	if err := watcher.Add(dir); err != nil {
		_ = watcher.Close()
		return fmt.Errorf("watch %s: %w", dir, err)
	}

	seen := make(map[string]bool)
	deliver := func(path string) {
		if seen[path] {
			return
		}
		f, err := FromPath(path)
		if err != nil {
			// Directories and vanished temp files are expected here.
			return
		}
		seen[path] = true
		fn(f)
	}

	entries, err := os.ReadDir(dir)
	if err == nil {
		for _, e := range entries {
			if !e.IsDir() {
				deliver(filepath.Join(dir, e.Name()))
			}
		}
	}

	go func() {
		defer watcher.Close()
		ticker := time.NewTicker(SettleDelay / 2)
		defer ticker.Stop()

		// last event time per path not yet delivered
		pending := make(map[string]time.Time)
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-watcher.Events:
				if !ok {
					return
				}
				if (ev.Has(fsnotify.Create) || ev.Has(fsnotify.Write)) && !seen[ev.Name] {
					pending[ev.Name] = time.Now()
				}
			case now := <-ticker.C:
				for path, last := range pending {
					if now.Sub(last) >= SettleDelay {
						delete(pending, path)
						deliver(path)
					}
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				if onErr != nil {
					onErr(err)
				}
			}
		}
	}()
	return nil
}
