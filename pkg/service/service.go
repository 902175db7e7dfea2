// Package service runs a complete analysis: project setup, file discovery,
// per-file analysis on the worker pool, aggregation and report building.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/gnana997/cuin/pkg/analyzer"
	"github.com/gnana997/cuin/pkg/indexer"
	"github.com/gnana997/cuin/pkg/metrics"
	"github.com/gnana997/cuin/pkg/report"
	"github.com/gnana997/cuin/pkg/resolver"
	"github.com/gnana997/cuin/pkg/scanner"
)

// Project describes the analyzed project.
type Project struct {
	// InputPath is the canonical input path.
	InputPath string
	// Root is the base path: the input directory, or the parent of an input
	// file.
	Root string
	// IsFile is set when a single file was requested.
	IsFile bool
	// Package is the nearest package.json at or above Root.
	Package resolver.Package
	// TSConfig is the nearest tsconfig.json, empty when there is none.
	TSConfig string
}

// Result is a report together with the run details.
type Result struct {
	Report   *report.Report
	Project  Project
	Files    int
	Stats    scanner.RunStats
	Duration time.Duration
}

// Service runs analyses. It is safe for concurrent use; runs share the
// parser pool and, when caching is enabled, the usage index.
type Service struct {
	cfg     Config
	logger  *slog.Logger
	scanner *scanner.Scanner

	mu        sync.Mutex
	index     *indexer.UsageIndex
	indexRoot string
}

// New creates a service. Close releases its parser pool.
func New(cfg Config, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Service{
		cfg:     cfg,
		logger:  logger,
		scanner: scanner.NewScanner(cfg.Workers, logger),
	}
	if cfg.CacheEnabled {
		s.index = indexer.NewUsageIndex(indexer.UsageIndexConfig{MaxCachedFiles: cfg.MaxCachedFiles}, logger)
	}
	return s
}

// Config returns the service configuration.
func (s *Service) Config() Config {
	return s.cfg
}

// Index returns the usage index, or nil when caching is disabled.
func (s *Service) Index() *indexer.UsageIndex {
	return s.index
}

// Close releases parser resources.
func (s *Service) Close() {
	s.scanner.Close()
}

// Run analyzes inputPath and returns the report.
func (s *Service) Run(ctx context.Context, inputPath string) (*report.Report, error) {
	result, err := s.Analyze(ctx, inputPath)
	if err != nil {
		return nil, err
	}
	return result.Report, nil
}

// Analyze analyzes inputPath and returns the report with run details.
// Fatal failures are returned as *AnalysisError.
func (s *Service) Analyze(ctx context.Context, inputPath string) (*Result, error) {
	start := time.Now()

	project, err := s.setupProject(inputPath)
	if err != nil {
		return nil, err
	}

	files, err := s.collectFiles(project)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, newError(KindNoFilesFound, "No target files found", nil)
	}

	s.logger.Debug("analysis started",
		"root", project.Root,
		"package", project.Package.Name,
		"files", len(files))

	res := resolver.NewModuleResolver(resolver.NewFileSystemContext(project.Root), s.cfg.resolverOptions(), s.logger)
	actx := analyzer.NewContext(project.Root, res, s.cfg.analyzerConfig(), s.logger)

	run, err := s.scanner.Analyze(ctx, files, s.fileFunc(actx, s.indexFor(project.Root)))
	if err != nil {
		return nil, newError(KindAnalysis, "analysis failed", err)
	}

	aggregates := analyzer.GroupByIdentity(run.Usages)
	rep := report.Build(project.Root, aggregates)

	duration := time.Since(start)
	metrics.Components.Set(float64(len(aggregates)))
	metrics.UsagesTotal.Add(float64(len(run.Usages)))
	metrics.AnalysisDuration.Observe(duration.Seconds())

	s.logger.Info("analysis complete",
		"root", project.Root,
		"files", len(files),
		"failed", run.Stats.FilesFailed,
		"components", len(aggregates),
		"usages", len(run.Usages),
		"duration", duration)

	return &Result{
		Report:   rep,
		Project:  project,
		Files:    len(files),
		Stats:    run.Stats,
		Duration: duration,
	}, nil
}

func (s *Service) setupProject(inputPath string) (Project, error) {
	abs, err := filepath.Abs(inputPath)
	if err != nil {
		return Project{}, newError(KindInvalidPath, fmt.Sprintf("Invalid path: %s", inputPath), err)
	}
	canonical, err := filepath.EvalSymlinks(abs)
	if err != nil {
		return Project{}, newError(KindInvalidPath, fmt.Sprintf("Invalid path: %s", inputPath), err)
	}
	info, err := os.Stat(canonical)
	if err != nil {
		return Project{}, newError(KindInvalidPath, fmt.Sprintf("Invalid path: %s", inputPath), err)
	}

	project := Project{InputPath: canonical, Root: canonical}
	if !info.IsDir() {
		project.IsFile = true
		project.Root = filepath.Dir(canonical)
	}

	fsc := resolver.NewFileSystemContext(project.Root)
	pkgPath, ok := fsc.FindPackageJSON(project.Root)
	if !ok {
		return Project{}, newError(KindAnalysis, "package.json not found", nil)
	}
	project.Package, err = resolver.LoadPackageInfo(pkgPath)
	if err != nil {
		return Project{}, newError(KindAnalysis, "Failed to load package.json", err)
	}

	// FindTSConfig searches from the parent of its argument.
	if ts, ok := fsc.FindTSConfig(filepath.Join(project.Root, "package.json")); ok {
		project.TSConfig = ts
	}
	return project, nil
}

func (s *Service) collectFiles(project Project) ([]string, error) {
	if project.IsFile {
		if s.cfg.isTarget(project.InputPath) {
			return []string{project.InputPath}, nil
		}
		return nil, nil
	}

	files, err := scanner.DiscoverFiles(project.Root, s.cfg.scanConfig())
	if err != nil {
		return nil, newError(KindAnalysis, "file discovery failed", err)
	}
	return files, nil
}

// indexFor returns the usage index for root. An index only serves one root;
// switching roots clears it.
func (s *Service) indexFor(root string) *indexer.UsageIndex {
	if s.index == nil {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.indexRoot != root {
		if s.indexRoot != "" {
			s.index.Clear()
		}
		s.indexRoot = root
	}
	return s.index
}

// fileFunc analyzes one file, consulting the usage index first.
func (s *Service) fileFunc(actx *analyzer.Context, index *indexer.UsageIndex) scanner.FileFunc {
	return func(path string) ([]analyzer.ComponentUsage, error) {
		var info os.FileInfo
		if index != nil {
			if fi, err := os.Stat(path); err == nil {
				info = fi
				if usages, ok := index.Get(path, info); ok {
					return usages, nil
				}
			}
		}

		usages, err := s.scanner.AnalyzeFile(actx, path)
		if err != nil {
			return nil, err
		}
		if index != nil && info != nil {
			index.Put(path, info, usages)
		}
		return usages, nil
	}
}
