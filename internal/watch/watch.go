// Package watch reports batches of changed workspace files.
package watch

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// DefaultDebounce is the quiet period after the last event before a batch is
// delivered.
const DefaultDebounce = 150 * time.Millisecond

var ignoredDirs = []string{".git", ".graphcheck", "__pycache__", "node_modules", ".idea"}

// Handler receives the absolute paths changed since the previous batch,
// sorted and unique.
type Handler func(paths []string)

// Watcher watches a workspace tree recursively.
type Watcher struct {
	root     string
	debounce time.Duration
	fs       *fsnotify.Watcher
	log      *zap.SugaredLogger
}

// New returns a watcher over root. A zero debounce means DefaultDebounce.
func New(root string, debounce time.Duration, log *zap.SugaredLogger) (*Watcher, error) {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	w := &Watcher{root: root, debounce: debounce, fs: fw, log: log}
	if err := w.addRecursive(root); err != nil {
		_ = fw.Close()
		return nil, err
	}
	return w, nil
}

// Close stops the underlying watcher. Run returns once it is closed.
func (w *Watcher) Close() error { return w.fs.Close() }

// Relevant reports whether a change to path can affect validation results:
// graph sources, YAML data and the config file.
func Relevant(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".py", ".yaml", ".yml":
		return !ignored(path)
	}
	return false
}

func ignored(path string) bool {
	for _, part := range strings.Split(filepath.ToSlash(path), "/") {
		if slices.Contains(ignoredDirs, part) {
			return true
		}
	}
	return false
}

func (w *Watcher) addRecursive(root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && slices.Contains(ignoredDirs, d.Name()) {
			return filepath.SkipDir
		}
		return w.fs.Add(path)
	})
}

// Run delivers batches to handle until ctx is done or the watcher is closed.
// A pending batch is delivered before Run returns.
func (w *Watcher) Run(ctx context.Context, handle Handler) error {
	pending := map[string]bool{}
	var timer *time.Timer
	var fire <-chan time.Time

	flush := func() {
		if timer != nil {
			timer.Stop()
			timer, fire = nil, nil
		}
		if len(pending) == 0 {
			return
		}
		paths := make([]string, 0, len(pending))
		for p := range pending {
			paths = append(paths, p)
		}
		slices.Sort(paths)
		clear(pending)
		handle(paths)
	}

	for {
		select {
		case <-ctx.Done():
			flush()
			return ctx.Err()
		case <-fire:
			flush()
		case ev, ok := <-w.fs.Events:
			if !ok {
				flush()
				return nil
			}
			if ev.Has(fsnotify.Create) {
				if isDir(ev.Name) && !ignored(ev.Name) {
					if err := w.addRecursive(ev.Name); err != nil {
						w.log.Warnw("watch directory failed", "dir", ev.Name, "error", err)
					}
					continue
				}
			}
			if ev.Has(fsnotify.Chmod) || !Relevant(ev.Name) {
				continue
			}
			abs, err := filepath.Abs(ev.Name)
			if err != nil {
				abs = ev.Name
			}
			pending[abs] = true
			if timer == nil {
				timer = time.NewTimer(w.debounce)
				fire = timer.C
			} else {
				timer.Reset(w.debounce)
			}
		case err, ok := <-w.fs.Errors:
			if !ok {
				flush()
				return nil
			}
			w.log.Warnw("watch error", "error", err)
		}
	}
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
