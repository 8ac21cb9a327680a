package crops

import (
	"fmt"
	"log"
	"time"

	"github.com/fsnotify/fsnotify"
)

// debounceDelay batches bursts of filesystem events (editors and sync tools
// fire several per save) into a single reload.
const debounceDelay = 500 * time.Millisecond

// Watcher reloads crop patches when their source file or directory changes.
type Watcher struct {
	fs *fsnotify.Watcher
}

// Watch starts watching path and calls reload, debounced, after changes.
// Close stops the watcher.
func Watch(path string, reload func()) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	if err := fw.Add(path); err != nil {
		fw.Close()
		return nil, fmt.Errorf("watch %s: %w", path, err)
	}

	w := &Watcher{fs: fw}
	go w.loop(reload)
	log.Printf("👀 Watching %s for crop changes\n", path)
	return w, nil
}

// Close stops event delivery and the reload loop.
func (w *Watcher) Close() error {
	return w.fs.Close()
}

func (w *Watcher) loop(reload func()) {
	var pending *time.Timer
	defer func() {
		if pending != nil {
			pending.Stop()
		}
	}()

	for {
		select {
		case e, ok := <-w.fs.Events:
			if !ok {
				return
			}
			if !e.Has(fsnotify.Write) && !e.Has(fsnotify.Create) &&
				!e.Has(fsnotify.Remove) && !e.Has(fsnotify.Rename) {
				continue
			}
			log.Printf("🔄 Crop source changed (%s), reloading...\n", e.Name)
			if pending != nil {
				pending.Stop()
			}
			pending = time.AfterFunc(debounceDelay, reload)
		case err, ok := <-w.fs.Errors:
			if !ok {
				return
			}
			log.Printf("   ⚠️  Watcher error: %v\n", err)
		}
	}
}
