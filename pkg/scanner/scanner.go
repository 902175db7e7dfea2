package scanner

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/gnana997/cuin/pkg/analyzer"
	"github.com/gnana997/cuin/pkg/extractor"
	"github.com/gnana997/cuin/pkg/metrics"
	"github.com/gnana997/cuin/pkg/parser"
	"github.com/gnana997/cuin/pkg/util"
)

// Scanner owns the parser pool and extractor used by per-file analysis.
type Scanner struct {
	pm      *parser.ParserManager
	ext     *extractor.Extractor
	workers int
	log     *slog.Logger
}

// NewScanner creates a scanner. workers of 0 selects the optimal pool
// size; the parser pool is sized to match.
func NewScanner(workers int, logger *slog.Logger) *Scanner {
	if logger == nil {
		logger = slog.Default()
	}
	workers = util.GetOptimalPoolSizeWithOverride(workers)
	pm := parser.NewParserManagerWithPoolSize(logger, workers)
	return &Scanner{
		pm:      pm,
		ext:     extractor.NewExtractor(pm, logger),
		workers: workers,
		log:     logger,
	}
}

// Workers returns the worker count used by Analyze.
func (s *Scanner) Workers() int {
	return s.workers
}

// Extract reads and extracts one file. Paths are canonicalized so that
// resolution and display paths agree with the project root.
func (s *Scanner) Extract(path, root string) (*extractor.ParsedFile, error) {
	canonical := path
	if resolved, err := filepath.EvalSymlinks(path); err == nil {
		canonical = resolved
	}

	src, err := util.MapSource(canonical)
	if err != nil {
		metrics.FileFailuresTotal.WithLabelValues("read").Inc()
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	defer src.Close()

	parsed, err := s.ext.ExtractFile(extractor.NewSourceFile(canonical, root), src.Data)
	if err != nil {
		metrics.FileFailuresTotal.WithLabelValues("extract").Inc()
		return nil, fmt.Errorf("extraction failed: %w", err)
	}
	return parsed, nil
}

// AnalyzeFile extracts one file and analyzes it in actx.
func (s *Scanner) AnalyzeFile(actx *analyzer.Context, path string) ([]analyzer.ComponentUsage, error) {
	parsed, err := s.Extract(path, actx.Root)
	if err != nil {
		return nil, err
	}
	return actx.AnalyzeFile(parsed), nil
}

// Analyze runs fn over files on the scanner's worker pool.
func (s *Scanner) Analyze(ctx context.Context, files []string, fn FileFunc) (*RunResult, error) {
	return Run(ctx, files, fn, s.workers, s.log)
}

// Close releases parser resources.
func (s *Scanner) Close() {
	s.pm.Close()
}

// Run executes fn for every file on a worker pool and collects the usages.
// Per-file errors are logged and counted; the file contributes no usages.
// Results are returned in input file order regardless of completion order.
func Run(ctx context.Context, files []string, fn FileFunc, workers int, logger *slog.Logger) (*RunResult, error) {
	if logger == nil {
		logger = slog.Default()
	}
	start := time.Now()
	if len(files) == 0 {
		return &RunResult{}, nil
	}

	workers = util.GetOptimalPoolSizeWithOverride(workers)
	if workers > len(files) {
		workers = len(files)
	}

	pool := NewWorkerPool(workers, fn, logger)
	pool.Start()
	stopCancel := context.AfterFunc(ctx, pool.Cancel)
	defer stopCancel()

	perFile := make([][]analyzer.ComponentUsage, len(files))
	stats := RunStats{WorkerCount: workers}

	// The collector must run before jobs are submitted, or Submit can block
	// on a full jobs channel while workers block on full result channels.
	done := make(chan struct{})
	go func() {
		defer close(done)
		results, errs := pool.Results(), pool.Errors()
		for results != nil || errs != nil {
			select {
			case r, ok := <-results:
				if !ok {
					results = nil
					continue
				}
				perFile[r.JobID] = r.Usages
				stats.FilesProcessed++
				stats.Usages += len(r.Usages)
				metrics.FilesAnalyzedTotal.Inc()

			case fe, ok := <-errs:
				if !ok {
					errs = nil
					continue
				}
				stats.FilesFailed++
				stats.Errors = append(stats.Errors, fe)
				logger.Warn("File analysis failed", "file", fe.FilePath, "error", fe.Error)
			}
		}
	}()

	var submitErr error
	for i, file := range files {
		if err := pool.Submit(FileJob{FilePath: file, JobID: i}); err != nil {
			submitErr = fmt.Errorf("failed to submit job for %s: %w", file, err)
			break
		}
	}

	pool.Stop()
	<-done

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("analysis cancelled: %w", err)
	}
	if submitErr != nil {
		return nil, submitErr
	}

	result := &RunResult{Stats: stats}
	result.Usages = make([]analyzer.ComponentUsage, 0, stats.Usages)
	for _, usages := range perFile {
		result.Usages = append(result.Usages, usages...)
	}
	result.Stats.DurationMs = time.Since(start).Milliseconds()

	logger.Debug("analysis complete",
		"files", stats.FilesProcessed,
		"failed", stats.FilesFailed,
		"usages", stats.Usages,
		"workers", workers,
		"ms", result.Stats.DurationMs)

	return result, nil
}
