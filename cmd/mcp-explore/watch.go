package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/ggoodman/mcp-explore/connect"
)

const watchDebounce = 300 * time.Millisecond

// explore runs once, or, when --watch paths were given, again after every
// change to one of them until ctx is cancelled.
func (a *app) explore(ctx context.Context, s connect.Strategy) error {
	if len(a.watch) == 0 {
		return a.run(ctx, s)
	}

	w, err := newWatcher(a.watch)
	if err != nil {
		return err
	}
	defer w.Close()

	for {
		if err := a.run(ctx, s); err != nil {
			return err
		}
		a.printf("\nWatching %s for changes (Ctrl-C to stop)...\n", strings.Join(a.watch, ", "))
		changed, err := w.next(ctx, watchDebounce)
		if ctx.Err() != nil {
			return nil
		}
		if err != nil {
			return err
		}
		a.printf("\nChanged: %s\n\n", changed)
	}
}

// watcher reports changes to a set of files and directories. Files are
// watched through their parent directory so that editors which replace
// files on save are still seen.
type watcher struct {
	fs *fsnotify.Watcher
	// files holds the cleaned paths of watched files; events for other
	// entries of their directories are ignored.
	files map[string]bool
	dirs  map[string]bool
}

func newWatcher(paths []string) (*watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("watch: %w", err)
	}
	w := &watcher{fs: fw, files: map[string]bool{}, dirs: map[string]bool{}}
	for _, p := range paths {
		if err := w.add(p); err != nil {
			fw.Close()
			return nil, err
		}
	}
	return w, nil
}

func (w *watcher) add(path string) error {
	path = filepath.Clean(path)
	fi, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("watch %s: %w", path, err)
	}
	dir := path
	if fi.IsDir() {
		w.dirs[path] = true
	} else {
		w.files[path] = true
		dir = filepath.Dir(path)
	}
	if err := w.fs.Add(dir); err != nil {
		return fmt.Errorf("watch %s: %w", path, err)
	}
	return nil
}

func (w *watcher) relevant(ev fsnotify.Event) bool {
	if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
		return false
	}
	name := filepath.Clean(ev.Name)
	return w.files[name] || w.dirs[filepath.Dir(name)]
}

// next blocks until a relevant change has been followed by quiet for
// debounce, and returns the last path that changed.
func (w *watcher) next(ctx context.Context, debounce time.Duration) (string, error) {
	var (
		changed string
		settle  <-chan time.Time
	)
	for {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case ev, ok := <-w.fs.Events:
			if !ok {
				return "", errors.New("watcher closed")
			}
			if w.relevant(ev) {
				changed = ev.Name
				settle = time.After(debounce)
			}
		case err, ok := <-w.fs.Errors:
			if !ok {
				return "", errors.New("watcher closed")
			}
			return "", fmt.Errorf("watch: %w", err)
		case <-settle:
			return changed, nil
		}
	}
}

func (w *watcher) Close() error { return w.fs.Close() }
