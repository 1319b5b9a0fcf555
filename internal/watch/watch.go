// Package watch re-runs a batch job whenever the files selected by a set of
// path patterns change.
//
// Changes are debounced so a burst of writes produces a single run. Each run
// sees the complete current contents of the inputs; nothing is carried over
// between runs.
package watch

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/bimmerbailey/grasp/internal/config"
	"github.com/bimmerbailey/grasp/internal/logging"
	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is used when Options.Debounce is not positive.
const DefaultDebounce = 500 * time.Millisecond

// RunFunc performs one complete run over the inputs.
type RunFunc func(ctx context.Context) error

// Options configures the watcher.
type Options struct {
	Patterns []string      // Paths, directories or glob patterns to watch
	Debounce time.Duration // Quiet period after the last change before a run
	Run      RunFunc       // Called once at start and after every settled change
	Logger   *slog.Logger
}

// Watcher re-runs Options.Run when watched inputs change.
type Watcher struct {
	opts    Options
	logger  *slog.Logger
	watcher *fsnotify.Watcher
	dirs    map[string]struct{}
}

// New creates a new Watcher with the given options.
func New(opts Options) *Watcher {
	if opts.Debounce <= 0 {
		opts.Debounce = DefaultDebounce
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.Discard()
	}
	return &Watcher{
		opts:   opts,
		logger: logger,
		dirs:   make(map[string]struct{}),
	}
}

// Run performs an initial run and then blocks, re-running on changes, until
// ctx is cancelled. Failed runs are logged and do not stop the watcher.
func (w *Watcher) Run(ctx context.Context) error {
	if w.opts.Run == nil {
		return errors.New("watch: no run function configured")
	}

	if err := w.setupWatcher(); err != nil {
		return fmt.Errorf("failed to setup watcher: %w", err)
	}
	defer w.watcher.Close()

	w.runOnce(ctx)

	return w.watch(ctx)
}

// setupWatcher initializes the fsnotify watcher on every directory that can
// hold a matching file.
func (w *Watcher) setupWatcher() error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	w.watcher = watcher

	for _, pattern := range w.opts.Patterns {
		if pattern == "-" {
			continue
		}
		for _, dir := range watchDirs(pattern) {
			w.addDir(dir)
		}
	}

	if len(w.dirs) == 0 {
		watcher.Close()
		return errors.New("no existing directories to watch")
	}
	return nil
}

func (w *Watcher) addDir(dir string) {
	dir = filepath.Clean(dir)
	if _, ok := w.dirs[dir]; ok {
		return
	}
	if err := w.watcher.Add(dir); err != nil {
		w.logger.Warn("cannot watch directory", "dir", dir, "error", err)
		return
	}
	w.dirs[dir] = struct{}{}
	w.logger.Debug("watching directory", "dir", dir)
}

// watch waits for relevant events and triggers debounced runs.
func (w *Watcher) watch(ctx context.Context) error {
	var pending <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-w.watcher.Events:
			if !ok {
				return fmt.Errorf("watcher closed unexpectedly")
			}
			if w.handleEvent(event) {
				pending = time.After(w.opts.Debounce)
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return fmt.Errorf("watcher error channel closed")
			}
			return fmt.Errorf("watcher error: %w", err)

		case <-pending:
			pending = nil
			w.runOnce(ctx)
		}
	}
}

// handleEvent reports whether event should schedule a run. New directories
// below a recursive pattern are added to the watch set.
func (w *Watcher) handleEvent(event fsnotify.Event) bool {
	if event.Op == fsnotify.Chmod {
		return false
	}

	if event.Has(fsnotify.Create) {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			for _, pattern := range w.opts.Patterns {
				if strings.Contains(pattern, "**") && isBelow(config.StaticRoot(pattern), event.Name) {
					w.addDir(event.Name)
				}
			}
			return false
		}
	}

	for _, pattern := range w.opts.Patterns {
		if config.Match(pattern, event.Name) {
			w.logger.Debug("input changed", "file", event.Name, "op", event.Op.String())
			return true
		}
	}
	return false
}

func (w *Watcher) runOnce(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	if err := w.opts.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		w.logger.Error("run failed", "error", err)
	}
}

// watchDirs lists the existing directories that can contain files matched
// by pattern.
func watchDirs(pattern string) []string {
	switch {
	case strings.Contains(pattern, "**"):
		var dirs []string
		_ = filepath.WalkDir(config.StaticRoot(pattern), func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				if d != nil && d.IsDir() {
					return fs.SkipDir
				}
				return nil
			}
			if d.IsDir() {
				dirs = append(dirs, path)
			}
			return nil
		})
		return dirs

	case strings.ContainsAny(pattern, "*?["):
		matches, err := filepath.Glob(filepath.Dir(pattern))
		if err != nil {
			return nil
		}
		var dirs []string
		for _, m := range matches {
			if isDir(m) {
				dirs = append(dirs, m)
			}
		}
		return dirs

	default:
		if isDir(pattern) {
			return []string{pattern}
		}
		if parent := filepath.Dir(pattern); isDir(parent) {
			return []string{parent}
		}
		return nil
	}
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

func isBelow(root, path string) bool {
	rel, err := filepath.Rel(filepath.Clean(root), filepath.Clean(path))
	return err == nil && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}
