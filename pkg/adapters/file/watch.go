package file

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DebounceInterval batches rapid successive writes to one file.
const DebounceInterval = 100 * time.Millisecond

// Watch implements ports.Watchable. It emits the identifier of every file
// created, written, removed or renamed below BasePath, debounced per file.
// The channel is closed when ctx is done.
func (s *Store) Watch(ctx context.Context) (<-chan string, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}
	if err := os.MkdirAll(s.BasePath, 0755); err != nil {
		_ = watcher.Close()
		return nil, fmt.Errorf("failed to ensure store directory: %w", err)
	}
	if err := s.addTree(watcher, s.BasePath); err != nil {
		_ = watcher.Close()
		return nil, err
	}

	ch := make(chan string, 1)
	go s.watchLoop(ctx, watcher, ch)
	return ch, nil
}

// addTree watches root and every non-hidden directory below it.
func (s *Store) addTree(watcher *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && strings.HasPrefix(d.Name(), ".") {
			return fs.SkipDir
		}
		if err := watcher.Add(path); err != nil {
			return fmt.Errorf("failed to watch %s: %w", path, err)
		}
		return nil
	})
}

func (s *Store) watchLoop(ctx context.Context, watcher *fsnotify.Watcher, ch chan<- string) {
	defer close(ch)
	defer watcher.Close()

	ticker := time.NewTicker(DebounceInterval / 2)
	defer ticker.Stop()
	pending := make(map[string]time.Time)

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			if event.Op&fsnotify.Create != 0 {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					_ = s.addTree(watcher, event.Name)
					continue
				}
			}
			id, ok := s.identifierFor(event.Name)
			if !ok {
				continue
			}
			pending[id] = time.Now()

		case _, ok := <-watcher.Errors:
			if !ok {
				return
			}

		case now := <-ticker.C:
			for id, at := range pending {
				if now.Sub(at) < DebounceInterval {
					continue
				}
				delete(pending, id)
				select {
				case ch <- id:
				case <-ctx.Done():
					return
				}
			}
		}
	}
}

// identifierFor maps a watched file back to its identifier. Temp files from
// atomic writes and other hidden files are ignored.
func (s *Store) identifierFor(path string) (string, bool) {
	if strings.HasPrefix(filepath.Base(path), ".") {
		return "", false
	}
	rel, err := filepath.Rel(s.BasePath, path)
	if err != nil || strings.HasPrefix(rel, "..") {
		return "", false
	}
	return filepath.ToSlash(rel), true
}
