package tui

import (
	"errors"
	"fmt"
	"iter"
	"log/slog"
	"maps"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/thiagokokada/gitui-go/internal/debounce"
)

// repoWatcher reports bursts of changes under the repository's .git
// directory as one event on Events.
type repoWatcher struct {
	mu       sync.Mutex
	watcher  *fsnotify.Watcher
	debounce *debounce.Debouncer
	events   chan struct{}
	closed   bool
}

func startWatcher(root string, delay time.Duration) (*repoWatcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("fsnotify: %w", err)
	}
	for path := range watchPaths(root) {
		slog.Debug("adding path to FS watcher", slog.String("path", path))
		if err := watcher.Add(path); err != nil {
			err := errors.Join(err, watcher.Close())
			return nil, fmt.Errorf("watch %s: %w", path, err)
		}
	}
	w := &repoWatcher{
		watcher: watcher,
		events:  make(chan struct{}, 1),
	}
	w.debounce = debounce.New(delay, w.notify)
	go w.loop()
	return w, nil
}

// Events yields one value per debounced burst. It is never closed so a
// pending listener simply stays blocked after Close.
func (w *repoWatcher) Events() <-chan struct{} {
	return w.events
}

func (w *repoWatcher) notify() {
	select {
	case w.events <- struct{}{}:
	default:
	}
}

func (w *repoWatcher) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return nil
	}
	w.closed = true
	w.debounce.Stop()
	return w.watcher.Close()
}

func (w *repoWatcher) loop() {
	for {
		select {
		case ev, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if !relevantEvent(ev) {
				continue
			}
			slog.Debug("fsnotify event",
				slog.String("op", ev.Op.String()),
				slog.String("path", ev.Name),
			)
			w.schedule()
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			slog.Error("fsnotify error", slog.Any("error", err))
		}
	}
}

func (w *repoWatcher) schedule() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return
	}
	w.debounce.Trigger()
}

func relevantEvent(ev fsnotify.Event) bool {
	if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
		return false
	}
	return !shouldIgnoreWatchPath(ev.Name)
}

// watchPaths lists the directories whose changes mean HEAD, the index or
// the refs moved. Repositories without a .git directory (linked worktrees)
// watch the root instead.
func watchPaths(root string) iter.Seq[string] {
	if root == "" {
		return func(func(string) bool) {}
	}
	uniquePaths := map[string]struct{}{}
	gitDir := filepath.Join(root, ".git")
	if info, err := os.Stat(gitDir); err == nil && info.IsDir() {
		uniquePaths[gitDir] = struct{}{}
		for _, sub := range []string{"refs", filepath.Join("refs", "heads")} {
			p := filepath.Join(gitDir, sub)
			if info, err := os.Stat(p); err == nil && info.IsDir() {
				uniquePaths[p] = struct{}{}
			}
		}
		return maps.Keys(uniquePaths)
	}
	uniquePaths[root] = struct{}{}
	return maps.Keys(uniquePaths)
}

func shouldIgnoreWatchPath(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	return ext == ".lock" || ext == ".ipc"
}
