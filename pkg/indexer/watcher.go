package indexer

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/fsnotify/fsnotify"
	"golang.org/x/time/rate"

	"github.com/gnana997/cuin/pkg/metrics"
)

// resolutionFiles are the files whose changes can alter how imports resolve.
var resolutionFiles = []string{"package.json", "tsconfig.json", "jsconfig.json"}

// FileWatcher watches a project for changes, invalidates the usage index and
// notifies the caller so it can re-run the analysis.
//
// **Features:**
//   - Debouncing - Rapid changes are grouped into one ChangeSet
//   - Selective - Edits to existing files only invalidate those files;
//     structural changes clear the whole index
//   - Rate limited - OnChange runs at most MaxNotificationsPerSecond
//
// **Usage:**
//
//	watcher, err := NewFileWatcher(root, index, DefaultWatchOptions(), onChange, logger)
//	if err != nil {
//	    return err
//	}
//	g.Go(func() error { return watcher.Run(ctx) })
type FileWatcher struct {
	watcher  *fsnotify.Watcher
	index    *UsageIndex
	root     string
	logger   *slog.Logger
	options  WatchOptions
	onChange func(context.Context, ChangeSet)
	limiter  *rate.Limiter

	// Debouncing
	pending    map[string]bool
	structural bool
	timer      *time.Timer
	debounceMu sync.Mutex

	// Serializes OnChange calls
	flushMu sync.Mutex

	eventsReceived atomic.Int64
	notifications  atomic.Int64
	running        atomic.Bool
}

// NewFileWatcher creates a watcher for root. index may be nil when the caller
// only needs notifications.
func NewFileWatcher(
	root string,
	index *UsageIndex,
	options WatchOptions,
	onChange func(context.Context, ChangeSet),
	logger *slog.Logger,
) (*FileWatcher, error) {
	if logger == nil {
		logger = slog.Default()
	}
	for _, p := range options.IgnorePatterns {
		if !doublestar.ValidatePattern(p) {
			return nil, fmt.Errorf("invalid ignore pattern %q", p)
		}
	}
	if options.DebounceMs <= 0 {
		options.DebounceMs = 200
	}
	if options.MaxNotificationsPerSecond <= 0 {
		options.MaxNotificationsPerSecond = DefaultWatchOptions().MaxNotificationsPerSecond
	}
	if len(options.Extensions) == 0 {
		options.Extensions = DefaultWatchOptions().Extensions
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}

	return &FileWatcher{
		watcher:  w,
		index:    index,
		root:     root,
		logger:   logger,
		options:  options,
		onChange: onChange,
		limiter:  rate.NewLimiter(rate.Limit(options.MaxNotificationsPerSecond), 1),
		pending:  make(map[string]bool),
	}, nil
}

// Run watches until ctx is cancelled. It always closes the underlying
// watcher before returning.
func (fw *FileWatcher) Run(ctx context.Context) error {
	defer fw.stop()

	if err := fw.addTree(fw.root); err != nil {
		return err
	}
	fw.running.Store(true)
	fw.logger.Info("File watcher started", "root", fw.root)

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-fw.watcher.Events:
			if !ok {
				return nil
			}
			fw.handleEvent(ctx, event)

		case err, ok := <-fw.watcher.Errors:
			if !ok {
				return nil
			}
			fw.logger.Error("File watcher error", "error", err)
		}
	}
}

func (fw *FileWatcher) stop() {
	fw.running.Store(false)

	fw.debounceMu.Lock()
	if fw.timer != nil {
		fw.timer.Stop()
		fw.timer = nil
	}
	fw.pending = make(map[string]bool)
	fw.structural = false
	fw.debounceMu.Unlock()

	if err := fw.watcher.Close(); err != nil {
		fw.logger.Warn("Failed to close file watcher", "error", err)
	}
	fw.logger.Info("File watcher stopped")
}

// addTree watches dir and every non-ignored directory below it. fsnotify is
// not recursive.
func (fw *FileWatcher) addTree(dir string) error {
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil // Continue on error
		}
		if !d.IsDir() {
			return nil
		}
		if path != fw.root && fw.shouldIgnore(path) {
			return filepath.SkipDir
		}
		if err := fw.watcher.Add(path); err != nil {
			fw.logger.Warn("Failed to watch directory", "path", path, "error", err)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to setup watches: %w", err)
	}
	return nil
}

// handleEvent processes a file system event.
func (fw *FileWatcher) handleEvent(ctx context.Context, event fsnotify.Event) {
	fw.eventsReceived.Add(1)
	metrics.WatcherEventsTotal.Inc()

	path := event.Name
	if fw.shouldIgnore(path) {
		return
	}

	if event.Has(fsnotify.Create) {
		if info, err := os.Stat(path); err == nil && info.IsDir() {
			if err := fw.addTree(path); err != nil {
				fw.logger.Warn("Failed to watch new directory", "path", path, "error", err)
			}
			fw.schedule(ctx, path, true)
			return
		}
	}

	base := filepath.Base(path)
	switch {
	case slices.Contains(resolutionFiles, base):
		fw.schedule(ctx, path, true)
	case fw.isSource(path):
		structural := event.Has(fsnotify.Create) || event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename)
		fw.schedule(ctx, path, structural)
	default:
		return
	}

	fw.logger.Debug("File event", "op", event.Op.String(), "file", path)
}

// schedule records a change and restarts the debounce timer.
func (fw *FileWatcher) schedule(ctx context.Context, path string, structural bool) {
	fw.debounceMu.Lock()
	defer fw.debounceMu.Unlock()

	fw.pending[path] = true
	fw.structural = fw.structural || structural

	if fw.timer != nil {
		fw.timer.Stop()
	}
	fw.timer = time.AfterFunc(time.Duration(fw.options.DebounceMs)*time.Millisecond, func() {
		fw.flush(ctx)
	})
}

// flush applies the pending batch to the index and notifies the caller.
func (fw *FileWatcher) flush(ctx context.Context) {
	fw.debounceMu.Lock()
	if len(fw.pending) == 0 {
		fw.debounceMu.Unlock()
		return
	}
	changes := ChangeSet{Kind: ChangeFiles, Files: make([]string, 0, len(fw.pending))}
	for path := range fw.pending {
		changes.Files = append(changes.Files, path)
	}
	if fw.structural {
		changes.Kind = ChangeStructure
	}
	fw.pending = make(map[string]bool)
	fw.structural = false
	fw.timer = nil
	fw.debounceMu.Unlock()

	slices.Sort(changes.Files)

	if fw.index != nil {
		if changes.Kind == ChangeStructure {
			fw.index.Clear()
		} else {
			for _, path := range changes.Files {
				fw.index.InvalidateFile(path)
			}
		}
	}

	if fw.onChange == nil {
		return
	}

	fw.flushMu.Lock()
	defer fw.flushMu.Unlock()

	if err := fw.limiter.Wait(ctx); err != nil {
		return
	}
	fw.notifications.Add(1)
	fw.logger.Debug("Project changed", "files", len(changes.Files), "structural", changes.Kind == ChangeStructure)
	fw.onChange(ctx, changes)
}

func (fw *FileWatcher) isSource(path string) bool {
	ext := filepath.Ext(path)
	for _, e := range fw.options.Extensions {
		if strings.EqualFold(ext, "."+strings.TrimPrefix(e, ".")) {
			return true
		}
	}
	return false
}

// shouldIgnore checks if a path should be ignored.
func (fw *FileWatcher) shouldIgnore(path string) bool {
	// Ignore common build/dependency directories
	switch filepath.Base(path) {
	case "node_modules", ".git":
		return true
	}

	rel, err := filepath.Rel(fw.root, path)
	if err != nil || strings.HasPrefix(rel, "..") {
		return true
	}
	rel = filepath.ToSlash(rel)
	for _, pattern := range fw.options.IgnorePatterns {
		if matched, _ := doublestar.Match(pattern, rel); matched {
			return true
		}
	}
	return false
}

// GetStats returns file watcher statistics.
func (fw *FileWatcher) GetStats() FileWatcherStats {
	fw.debounceMu.Lock()
	pending := len(fw.pending)
	fw.debounceMu.Unlock()

	return FileWatcherStats{
		EventsReceived: fw.eventsReceived.Load(),
		Notifications:  fw.notifications.Load(),
		PendingChanges: pending,
		IsRunning:      fw.running.Load(),
	}
}
