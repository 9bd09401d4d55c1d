// Package watch bridges the desktop shell's "open with" integration into
// the engine: the OS (or a second process invocation) drops one file per
// request into a pending-open directory, and this package watches that
// directory with fsnotify, drains dropped files into a path queue, and
// removes them once queued.
package watch

import (
	"bufio"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
)

// DefaultDir returns ${HOME}/.datasets-helper/pending-open/ (spec.md §6).
func DefaultDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		home = os.Getenv("HOME")
	}
	return filepath.Join(home, ".datasets-helper", "pending-open")
}

// Bridge watches a pending-open directory and accumulates paths the OS (or
// another process) has requested be opened, for a polling UI to drain via
// TakePendingOpenPaths.
type Bridge struct {
	dir string

	watcher *fsnotify.Watcher
	done    chan struct{}

	mu      sync.Mutex
	pending []string
}

// Open starts watching dir (creating it if necessary) for dropped files.
// If fsnotify cannot be initialized it runs without a watcher and the
// directory is drained on each TakePendingOpenPaths call instead, since
// this bridge is a convenience and must never block the engine from
// starting.
func Open(dir string) (*Bridge, error) {
	if dir == "" {
		dir = DefaultDir()
	}
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("creating pending-open directory: %w", err)
	}

	b := &Bridge{dir: dir, done: make(chan struct{})}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		slog.Warn("pending-open watcher unavailable, falling back to drain-on-demand", "error", err)
		close(b.done)
		return b, nil
	}
	if err := watcher.Add(dir); err != nil {
		watcher.Close()
		slog.Warn("pending-open directory not watchable, falling back to drain-on-demand", "error", err)
		close(b.done)
		return b, nil
	}
	b.watcher = watcher

	// Pick up anything already sitting in the directory from before the
	// watcher started.
	b.drainDir()

	go b.run()

	return b, nil
}

// run consumes fsnotify events until the watcher is closed.
func (b *Bridge) run() {
	defer close(b.done)
	for {
		select {
		case event, ok := <-b.watcher.Events:
			if !ok {
				return
			}
			if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
				continue
			}
			b.consumeFile(event.Name)

		case err, ok := <-b.watcher.Errors:
			if !ok {
				return
			}
			slog.Warn("pending-open watcher error", "error", err)
		}
	}
}

// drainDir queues and removes every file already present in the watched
// directory, covering drops that happened before the watcher attached.
func (b *Bridge) drainDir() {
	entries, err := os.ReadDir(b.dir)
	if err != nil {
		return
	}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		b.consumeFile(filepath.Join(b.dir, entry.Name()))
	}
}

// consumeFile parses one dropped file (one path per line), queues the
// paths it names, and removes the file.
func (b *Bridge) consumeFile(name string) {
	f, err := os.Open(name)
	if err != nil {
		return // already gone, or a transient create/write race
	}

	var paths []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line != "" {
			paths = append(paths, line)
		}
	}
	f.Close()

	if len(paths) > 0 {
		b.mu.Lock()
		b.pending = append(b.pending, paths...)
		b.mu.Unlock()
	}

	if err := os.Remove(name); err != nil {
		slog.Warn("removing consumed pending-open file", "path", name, "error", err)
	}
}

// TakePendingOpenPaths drains and returns every path queued since the last
// call (consume semantics — a second call with nothing new returns nil).
// Without a watcher, it first drains the directory itself.
func (b *Bridge) TakePendingOpenPaths() []string {
	if b.watcher == nil {
		b.drainDir()
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.pending) == 0 {
		return nil
	}
	out := b.pending
	b.pending = nil
	return out
}

// Close stops the watcher.
func (b *Bridge) Close() error {
	if b.watcher == nil {
		return nil
	}
	err := b.watcher.Close()
	<-b.done
	return err
}
