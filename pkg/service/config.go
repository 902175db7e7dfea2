package service

import (
	"path/filepath"
	"slices"
	"strings"

	"github.com/gnana997/cuin/pkg/analyzer"
	"github.com/gnana997/cuin/pkg/indexer"
	"github.com/gnana997/cuin/pkg/resolver"
	"github.com/gnana997/cuin/pkg/scanner"
)

// Config controls an analysis run.
type Config struct {
	// Extensions are the analyzed file extensions, without the dot.
	Extensions []string `yaml:"extensions" toml:"extensions"`

	// IncludeNativeElements reports lowercase host elements (div, span).
	IncludeNativeElements bool `yaml:"include_native_elements" toml:"include_native_elements"`

	// CacheEnabled turns on the resolver caches and the per-file usage index.
	CacheEnabled bool `yaml:"cache_enabled" toml:"cache_enabled"`

	// RespectGitignore skips files ignored by .gitignore.
	RespectGitignore bool `yaml:"respect_gitignore" toml:"respect_gitignore"`

	// Exclude are extra doublestar patterns, relative to the base path.
	Exclude []string `yaml:"exclude" toml:"exclude"`

	// Workers is the analysis worker count; 0 selects the optimal size.
	Workers int `yaml:"workers" toml:"workers"`

	// MaxCachedFiles bounds the usage index.
	MaxCachedFiles int `yaml:"max_cached_files" toml:"max_cached_files"`
}

// DefaultConfig returns the default analysis configuration.
func DefaultConfig() Config {
	return Config{
		Extensions:            slices.Clone(scanner.DefaultExtensions),
		IncludeNativeElements: true,
		CacheEnabled:          true,
		RespectGitignore:      true,
		MaxCachedFiles:        indexer.DefaultUsageIndexConfig().MaxCachedFiles,
	}
}

// scanConfig derives the discovery configuration.
func (c Config) scanConfig() scanner.ScanConfig {
	sc := scanner.DefaultScanConfig()
	if len(c.Extensions) > 0 {
		sc.Include = scanner.IncludePatterns(c.Extensions)
	}
	sc.Exclude = append(sc.Exclude, c.Exclude...)
	sc.RespectGitignore = c.RespectGitignore
	return sc
}

func (c Config) analyzerConfig() analyzer.Config {
	return analyzer.Config{IncludeNativeElements: c.IncludeNativeElements}
}

func (c Config) resolverOptions() resolver.Options {
	opts := resolver.DefaultOptions()
	opts.CacheEnabled = c.CacheEnabled
	return opts
}

// isTarget reports whether path has one of the configured extensions.
func (c Config) isTarget(path string) bool {
	exts := c.Extensions
	if len(exts) == 0 {
		exts = scanner.DefaultExtensions
	}
	ext := strings.TrimPrefix(filepath.Ext(path), ".")
	if ext == "" {
		return false
	}
	for _, e := range exts {
		if strings.TrimPrefix(e, ".") == ext {
			return true
		}
	}
	return false
}
