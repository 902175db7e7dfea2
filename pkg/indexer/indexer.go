// Package indexer caches per-file analysis results between runs and watches
// the project for changes that invalidate them.
package indexer

import (
	"fmt"
	"io/fs"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/gnana997/cuin/pkg/analyzer"
)

// UsageIndex caches the usages of each analyzed file so that repeated runs
// (dev server, watch mode) only re-analyze files that changed.
//
// **Architecture:**
//   - LRU cache keyed by absolute path
//   - Entries validated against file size and modification time
//   - Lazy invalidation: the watcher marks files dirty, the next lookup
//     treats them as misses
//
// **Thread Safety:** all methods are safe for concurrent use by the analysis
// workers.
//
// An index is only valid for one project root and one analyzer
// configuration; the service owns one per project.
type UsageIndex struct {
	fileCache  *lru.Cache[string, *FileUsages]
	dirtyFiles map[string]bool

	mu sync.RWMutex

	indexedFiles atomic.Int64
	cacheHits    atomic.Int64
	cacheMisses  atomic.Int64
	evictions    atomic.Int64

	config UsageIndexConfig
	logger *slog.Logger
}

// NewUsageIndex creates an empty index.
func NewUsageIndex(config UsageIndexConfig, logger *slog.Logger) *UsageIndex {
	if config.MaxCachedFiles <= 0 {
		config.MaxCachedFiles = DefaultUsageIndexConfig().MaxCachedFiles
	}
	if logger == nil {
		logger = slog.Default()
	}

	ui := &UsageIndex{
		dirtyFiles: make(map[string]bool, 100),
		config:     config,
		logger:     logger,
	}

	cache, err := lru.NewWithEvict(config.MaxCachedFiles, func(key string, value *FileUsages) {
		ui.evictions.Add(1)
		if config.Debug {
			logger.Debug("LRU evicting file", "path", key, "usages", len(value.Usages))
		}
	})
	if err != nil {
		// Only possible with a non-positive size.
		panic(fmt.Sprintf("failed to create LRU cache: %v", err))
	}
	ui.fileCache = cache

	return ui
}

// Get returns the cached usages of path when the entry matches info and the
// file has not been invalidated.
func (ui *UsageIndex) Get(path string, info fs.FileInfo) ([]analyzer.ComponentUsage, bool) {
	ui.mu.RLock()
	dirty := ui.dirtyFiles[path]
	entry, found := ui.fileCache.Get(path)
	ui.mu.RUnlock()

	if !found || dirty || entry.Size != info.Size() || !entry.ModTime.Equal(info.ModTime()) {
		ui.cacheMisses.Add(1)
		return nil, false
	}
	ui.cacheHits.Add(1)
	return entry.Usages, true
}

// Put stores the usages of path analyzed at version info.
func (ui *UsageIndex) Put(path string, info fs.FileInfo, usages []analyzer.ComponentUsage) *FileUsages {
	entry := &FileUsages{
		FilePath:  path,
		Size:      info.Size(),
		ModTime:   info.ModTime(),
		Usages:    usages,
		Timestamp: time.Now().UnixMilli(),
	}

	ui.mu.Lock()
	ui.fileCache.Add(path, entry)
	delete(ui.dirtyFiles, path)
	ui.mu.Unlock()

	ui.indexedFiles.Add(1)
	if ui.config.Debug {
		ui.logger.Debug("Indexed file", "path", path, "usages", len(usages))
	}
	return entry
}

// InvalidateFile marks a file as dirty; its next lookup is a miss.
func (ui *UsageIndex) InvalidateFile(path string) {
	ui.mu.Lock()
	ui.dirtyFiles[path] = true
	ui.mu.Unlock()

	if ui.config.Debug {
		ui.logger.Debug("Invalidated file", "path", path)
	}
}

// IsDirty checks if a file is marked for recomputation.
func (ui *UsageIndex) IsDirty(path string) bool {
	ui.mu.RLock()
	defer ui.mu.RUnlock()
	return ui.dirtyFiles[path]
}

// RemoveFile drops a file from the index.
func (ui *UsageIndex) RemoveFile(path string) {
	ui.mu.Lock()
	ui.fileCache.Remove(path)
	delete(ui.dirtyFiles, path)
	ui.mu.Unlock()
}

// Clear drops every entry. Used when a change can alter how imports
// resolve, which affects files that did not change themselves.
func (ui *UsageIndex) Clear() {
	ui.mu.Lock()
	ui.fileCache.Purge()
	ui.dirtyFiles = make(map[string]bool, 100)
	ui.mu.Unlock()

	ui.logger.Debug("Usage index cleared")
}

// GetStats returns current index statistics.
func (ui *UsageIndex) GetStats() UsageIndexStats {
	ui.mu.RLock()
	cachedFiles := ui.fileCache.Len()
	dirtyFiles := len(ui.dirtyFiles)
	ui.mu.RUnlock()

	hits := ui.cacheHits.Load()
	misses := ui.cacheMisses.Load()
	hitRate := 0.0
	if total := hits + misses; total > 0 {
		hitRate = float64(hits) / float64(total)
	}

	return UsageIndexStats{
		IndexedFiles: int(ui.indexedFiles.Load()),
		CachedFiles:  cachedFiles,
		DirtyFiles:   dirtyFiles,
		CacheHits:    hits,
		CacheMisses:  misses,
		CacheHitRate: hitRate,
		Evictions:    ui.evictions.Load(),
	}
}
