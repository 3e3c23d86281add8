// Package watch monitors the config file and triggers fleet reloads.
package watch

import (
	"context"
	"log"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// Watcher invokes reload whenever the watched config file is rewritten.
// Editors replace files via rename, so Create and Rename count as changes.
type Watcher struct {
	path   string
	reload func()
}

func New(path string, reload func()) *Watcher {
	return &Watcher{path: path, reload: reload}
}

// Start begins watching until ctx is cancelled. The parent directory is
// watched rather than the file itself so atomic replaces are seen.
func (w *Watcher) Start(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	dir := filepath.Dir(w.path)
	base := filepath.Base(w.path)
	go func() {
		defer watcher.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case evt := <-watcher.Events:
				if filepath.Base(evt.Name) != base {
					continue
				}
				if evt.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0 {
					log.Printf("config change detected: %s", evt.Name)
					w.reload()
				}
			case err := <-watcher.Errors:
				log.Printf("watcher error: %v", err)
			}
		}
	}()
	return watcher.Add(dir)
}
