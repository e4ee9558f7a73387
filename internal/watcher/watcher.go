package watcher

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
)

// ProgramChangedHandler is called when a watched program file changes.
type ProgramChangedHandler func(workspaceID string, source string)

// Watcher tracks generated program files on disk. Users sometimes edit the
// exported .lua next to the canvas; when an external editor saves it, the
// watcher fires and hands the new source to the frontend for display.
type Watcher struct {
	watcher  *fsnotify.Watcher
	onChange ProgramChangedHandler
	mu       sync.RWMutex
	watching map[string]string // filePath -> workspaceID
}

// New creates a program file watcher.
func New(onChange ProgramChangedHandler) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}

	w := &Watcher{
		watcher:  fw,
		onChange: onChange,
		watching: make(map[string]string),
	}

	go w.watchLoop()

	return w, nil
}

// WatchProgram starts watching a workspace's generated program file.
func (w *Watcher) WatchProgram(workspaceID, filePath string) error {
	absPath, err := filepath.Abs(filePath)
	if err != nil {
		return err
	}

	w.mu.Lock()
	w.watching[absPath] = workspaceID
	w.mu.Unlock()

	// Watch the directory (fsnotify watches dirs for file events)
	dir := filepath.Dir(absPath)
	return w.watcher.Add(dir)
}

// StopWatching stops watching a workspace's program file.
func (w *Watcher) StopWatching(workspaceID string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	for path, id := range w.watching {
		if id == workspaceID {
			delete(w.watching, path)
			break
		}
	}
}

// Close stops the watcher.
func (w *Watcher) Close() error {
	return w.watcher.Close()
}

func (w *Watcher) watchLoop() {
	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if event.Has(fsnotify.Write) {
				absPath, _ := filepath.Abs(event.Name)
				w.mu.RLock()
				workspaceID, watched := w.watching[absPath]
				w.mu.RUnlock()

				if watched {
					source, err := os.ReadFile(absPath)
					if err != nil {
						log.Printf("program watcher: read file %s: %v", absPath, err)
						continue
					}
					if w.onChange != nil {
						w.onChange(workspaceID, string(source))
					}
				}
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			log.Printf("program watcher: watcher error: %v", err)
		}
	}
}
