// Package watch re-runs registry generation when feature module sources
// change on disk.
package watch

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// ChangeFunc is called with a sorted batch of changed paths
type ChangeFunc func(ctx context.Context, files []string) error

// Options configures a FileWatcher
type Options struct {
	// Extension selects the files whose changes matter, e.g. ".ts"
	Extension string
	// Ignore holds glob patterns matched against base names
	Ignore []string
	// Exclude holds paths never reported, such as the generated registry
	Exclude []string
	// Debounce is the quiet period before a batch is delivered
	Debounce time.Duration
	Logger   *zap.Logger
}

// FileWatcher watches a directory tree for feature module changes
type FileWatcher struct {
	watcher   *fsnotify.Watcher
	debouncer *Debouncer
	root      string
	options   Options
	exclude   map[string]bool
	onChange  ChangeFunc
	logger    *zap.Logger

	dirsMu sync.Mutex
	dirs   map[string]bool

	batches  chan []string
	ctx      context.Context
	cancel   context.CancelFunc
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// NewFileWatcher creates a watcher for the tree under root
func NewFileWatcher(root string, options Options, onChange ChangeFunc) (*FileWatcher, error) {
	if options.Extension == "" {
		return nil, fmt.Errorf("watch extension is required")
	}
	if options.Logger == nil {
		options.Logger = zap.NewNop()
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}

	exclude := make(map[string]bool, len(options.Exclude))
	for _, path := range options.Exclude {
		exclude[filepath.Clean(path)] = true
	}

	fw := &FileWatcher{
		watcher:   watcher,
		debouncer: NewDebouncer(options.Debounce),
		root:      filepath.Clean(root),
		options:   options,
		exclude:   exclude,
		onChange:  onChange,
		logger:    options.Logger.Named("watch"),
		dirs:      make(map[string]bool),
		batches:   make(chan []string),
	}
	fw.debouncer.SetCallback(fw.deliver)
	return fw, nil
}

// Start watches every directory under the root and begins delivering
// batches. Watching ends when ctx is done or Stop is called.
func (fw *FileWatcher) Start(ctx context.Context) error {
	fw.ctx, fw.cancel = context.WithCancel(ctx)

	if err := fw.addTree(fw.root); err != nil {
		fw.cancel()
		return err
	}

	fw.wg.Add(2)
	go fw.watch()
	go fw.dispatch()
	return nil
}

// Run starts the watcher and blocks until ctx is done
func (fw *FileWatcher) Run(ctx context.Context) error {
	if err := fw.Start(ctx); err != nil {
		return err
	}
	<-fw.ctx.Done()
	return fw.Stop()
}

// Stop stops watching. Calling Stop more than once is safe.
func (fw *FileWatcher) Stop() error {
	var err error
	fw.stopOnce.Do(func() {
		if fw.cancel != nil {
			fw.cancel()
		}
		fw.debouncer.Stop()
		err = fw.watcher.Close()
		fw.wg.Wait()
	})
	return err
}

// Dirs returns the directories currently watched
func (fw *FileWatcher) Dirs() []string {
	fw.dirsMu.Lock()
	defer fw.dirsMu.Unlock()

	dirs := make([]string, 0, len(fw.dirs))
	for dir := range fw.dirs {
		dirs = append(dirs, dir)
	}
	return dirs
}

// watch is the fsnotify event loop
func (fw *FileWatcher) watch() {
	defer fw.wg.Done()

	for {
		select {
		case event, ok := <-fw.watcher.Events:
			if !ok {
				return
			}
			fw.handle(event)

		case err, ok := <-fw.watcher.Errors:
			if !ok {
				return
			}
			fw.logger.Warn("watch error", zap.Error(err))

		case <-fw.ctx.Done():
			return
		}
	}
}

// dispatch runs onChange for one batch at a time
func (fw *FileWatcher) dispatch() {
	defer fw.wg.Done()

	for {
		select {
		case files := <-fw.batches:
			fw.logger.Debug("changes detected", zap.Strings("files", files))
			if err := fw.onChange(fw.ctx, files); err != nil {
				fw.logger.Error("regeneration failed", zap.Error(err))
			}
		case <-fw.ctx.Done():
			return
		}
	}
}

func (fw *FileWatcher) deliver(files []string) {
	select {
	case fw.batches <- files:
	case <-fw.ctx.Done():
	}
}

func (fw *FileWatcher) handle(event fsnotify.Event) {
	path := filepath.Clean(event.Name)
	if fw.shouldIgnore(path) {
		return
	}

	switch {
	case event.Has(fsnotify.Create):
		if info, err := os.Stat(path); err == nil && info.IsDir() {
			if err := fw.addTree(path); err != nil {
				fw.logger.Warn("cannot watch new directory", zap.String("path", path), zap.Error(err))
			}
			fw.debouncer.Add(path)
			return
		}
		if fw.matches(path) {
			fw.debouncer.Add(path)
		}

	case event.Has(fsnotify.Remove), event.Has(fsnotify.Rename):
		if fw.forget(path) || fw.matches(path) {
			fw.debouncer.Add(path)
		}

	case event.Has(fsnotify.Write):
		if fw.matches(path) {
			fw.debouncer.Add(path)
		}
	}
}

// addTree watches dir and every directory below it
func (fw *FileWatcher) addTree(dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != dir && fw.shouldIgnore(path) {
			return filepath.SkipDir
		}

		if err := fw.watcher.Add(path); err != nil {
			return fmt.Errorf("failed to watch directory %s: %w", path, err)
		}
		fw.dirsMu.Lock()
		fw.dirs[path] = true
		fw.dirsMu.Unlock()
		fw.logger.Debug("watching directory", zap.String("path", path))
		return nil
	})
}

// forget drops a removed directory and everything below it, reporting
// whether path was a watched directory
func (fw *FileWatcher) forget(path string) bool {
	fw.dirsMu.Lock()
	defer fw.dirsMu.Unlock()

	found := fw.dirs[path]
	prefix := path + string(filepath.Separator)
	for dir := range fw.dirs {
		if dir == path || strings.HasPrefix(dir, prefix) {
			delete(fw.dirs, dir)
		}
	}
	return found
}

// shouldIgnore checks if a path should be ignored
func (fw *FileWatcher) shouldIgnore(path string) bool {
	if fw.exclude[path] {
		return true
	}

	base := filepath.Base(path)
	// hidden files, editor swap files and atomic-write temporaries
	if strings.HasPrefix(base, ".") || strings.HasSuffix(base, "~") {
		return true
	}
	for _, pattern := range fw.options.Ignore {
		if matched, _ := filepath.Match(pattern, base); matched {
			return true
		}
	}
	return false
}

// matches reports whether path is a candidate feature module source
func (fw *FileWatcher) matches(path string) bool {
	return strings.HasSuffix(path, fw.options.Extension) && !strings.HasSuffix(path, ".d.ts")
}
