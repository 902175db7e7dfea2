// Package scanner discovers the source files of a project and runs per-file
// analysis over them on a worker pool.
package scanner

import (
	"github.com/gnana997/cuin/pkg/analyzer"
)

// ScanConfig configures file discovery.
type ScanConfig struct {
	// Include glob patterns for file matching, relative to the root.
	Include []string
	// Exclude glob patterns. Matching directories are not descended into.
	Exclude []string
	// RespectGitignore skips paths ignored by .gitignore files found
	// under the root.
	RespectGitignore bool
}

// DefaultScanConfig returns the default discovery configuration.
func DefaultScanConfig() ScanConfig {
	return ScanConfig{
		Include:          IncludePatterns(DefaultExtensions),
		Exclude:          []string{"node_modules/**", ".git/**"},
		RespectGitignore: true,
	}
}

// DefaultExtensions are the file extensions analyzed by default.
var DefaultExtensions = []string{"tsx", "jsx", "ts", "js"}

// IncludePatterns turns extensions ("tsx" or ".tsx") into include globs.
func IncludePatterns(extensions []string) []string {
	patterns := make([]string, 0, len(extensions))
	for _, ext := range extensions {
		if len(ext) > 0 && ext[0] == '.' {
			ext = ext[1:]
		}
		patterns = append(patterns, "**/*."+ext)
	}
	return patterns
}

// FileFunc produces the usages of one file.
type FileFunc func(path string) ([]analyzer.ComponentUsage, error)

// FileJob represents a file to be processed by the worker pool.
type FileJob struct {
	FilePath string
	JobID    int
}

// FileResult contains the usages found in one file.
type FileResult struct {
	FilePath string
	Usages   []analyzer.ComponentUsage
	JobID    int
}

// FileError represents an error that occurred while processing a file.
type FileError struct {
	FilePath string
	Error    error
}

// RunStats describes one Run.
type RunStats struct {
	FilesProcessed int
	FilesFailed    int
	Usages         int
	WorkerCount    int
	DurationMs     int64
	Errors         []FileError
}

// RunResult is the output of Run. Usages holds every file's usages
// concatenated in input file order.
type RunResult struct {
	Usages []analyzer.ComponentUsage
	Stats  RunStats
}
