package store

import (
	"context"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// Watch invalidates the in-memory cache whenever registry.json is rewritten
// by another process, then calls onChange (which may be nil). It blocks
// until ctx is done. The inventory daemon uses this so CLI installs show up
// without a restart.
func (s *Store) Watch(ctx context.Context, onChange func()) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	// Watch the directory, not the file: atomic rename replaces the inode.
	if err := w.Add(s.baseDir); err != nil {
		return err
	}

	for {
		select {
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Base(ev.Name) != registryName {
				continue
			}
			if ev.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename|fsnotify.Remove) == 0 {
				continue
			}
			s.Invalidate()
			if onChange != nil {
				onChange()
			}
		case _, ok := <-w.Errors:
			if !ok {
				return nil
			}
			// transient watcher errors are not fatal for an inventory cache
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
