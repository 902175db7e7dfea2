package indexer

import (
	"time"

	"github.com/gnana997/cuin/pkg/analyzer"
)

// FileUsages contains the analysis result for a single file.
//
// This is the unit of caching in the UsageIndex. An entry is valid while
// the file's size and modification time are unchanged.
type FileUsages struct {
	// FilePath is the absolute path to the file
	FilePath string

	// Size and ModTime identify the analyzed file version
	Size    int64
	ModTime time.Time

	// Usages found in the file
	Usages []analyzer.ComponentUsage

	// Timestamp when the file was indexed (Unix milliseconds)
	Timestamp int64
}

// UsageIndexConfig configures the usage index.
type UsageIndexConfig struct {
	// MaxCachedFiles is the maximum number of files to keep in the LRU cache.
	// Default: 5000 files
	MaxCachedFiles int

	// Debug enables verbose logging
	Debug bool
}

// DefaultUsageIndexConfig returns the default configuration.
func DefaultUsageIndexConfig() UsageIndexConfig {
	return UsageIndexConfig{
		MaxCachedFiles: 5000,
		Debug:          false,
	}
}

// UsageIndexStats provides statistics about the index state.
type UsageIndexStats struct {
	// IndexedFiles is the total number of files stored (including evicted)
	IndexedFiles int

	// CachedFiles is the number of files currently in the LRU cache
	CachedFiles int

	// DirtyFiles is the number of files marked for recomputation
	DirtyFiles int

	// CacheHits is the number of successful lookups
	CacheHits int64

	// CacheMisses is the number of failed or stale lookups
	CacheMisses int64

	// CacheHitRate is the percentage of cache hits (0.0 - 1.0)
	CacheHitRate float64

	// Evictions is the number of LRU evictions that have occurred
	Evictions int64
}

// WatchOptions configures file watching behavior.
type WatchOptions struct {
	// DebounceMs is the debounce delay in milliseconds.
	// Multiple rapid changes are grouped into a single notification.
	// Default: 200ms
	DebounceMs int

	// IgnorePatterns are doublestar patterns, relative to the watched root,
	// for paths that never trigger a notification.
	IgnorePatterns []string

	// Extensions are the source file extensions whose changes matter.
	Extensions []string

	// MaxNotificationsPerSecond limits how often OnChange runs.
	// Default: 2
	MaxNotificationsPerSecond float64
}

// DefaultWatchOptions returns recommended watch options.
func DefaultWatchOptions() WatchOptions {
	return WatchOptions{
		DebounceMs: 200,
		IgnorePatterns: []string{
			"**/*.swp",
			"**/*.tmp",
			"**/*~",
			".git/**",
			"**/node_modules/**",
		},
		Extensions:                []string{".tsx", ".jsx", ".ts", ".js"},
		MaxNotificationsPerSecond: 2,
	}
}

// ChangeKind classifies a batch of file system changes.
type ChangeKind int

const (
	// ChangeFiles means only existing source files were modified.
	ChangeFiles ChangeKind = iota
	// ChangeStructure means files were created, removed or renamed, or a
	// package.json / tsconfig.json changed, which can alter resolution.
	ChangeStructure
)

// ChangeSet is the debounced batch delivered to OnChange.
type ChangeSet struct {
	Kind  ChangeKind
	Files []string
}

// FileWatcherStats contains file watcher statistics.
type FileWatcherStats struct {
	EventsReceived int64
	Notifications  int64
	PendingChanges int
	IsRunning      bool
}
