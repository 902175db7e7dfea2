// Package resolver maps import specifiers to files and files to the npm
// package that owns them.
//
// Resolution is node-style (relative paths, node_modules with package.json
// `exports`/`main`, index files) extended by the nearest tsconfig.json's
// `paths` and `baseUrl`. Results are cached in three independent caches
// shared by all analysis workers:
//
//   - directory → nearest tsconfig.json
//   - tsconfig.json → resolver configured from it
//   - path → owning package
package resolver

import (
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/gnana997/cuin/pkg/extractor"
)

// Options configures a ModuleResolver.
type Options struct {
	// CacheEnabled selects ConcurrentCache (true) or NoCache (false).
	CacheEnabled bool

	// CacheSize bounds each cache; 0 selects DefaultCacheSize.
	CacheSize int
}

// DefaultOptions returns options with caching enabled.
func DefaultOptions() Options {
	return Options{CacheEnabled: true}
}

// ResolvedModule is the result of resolving an import.
type ResolvedModule struct {
	CanonicalPath string
	Package       *Package // nil when no package.json with name and version owns the file
}

// ModuleResolver resolves specifiers and package ownership. Safe for
// concurrent use.
type ModuleResolver struct {
	fs     FileSystemContext
	logger *slog.Logger

	tsconfigCache Cache[string, string]
	resolverCache Cache[string, *nodeResolver]
	packageCache  Cache[string, Package]
}

// NewModuleResolver creates a resolver for the project described by fs.
func NewModuleResolver(fs FileSystemContext, opts Options, logger *slog.Logger) *ModuleResolver {
	if logger == nil {
		logger = slog.Default()
	}

	r := &ModuleResolver{fs: fs, logger: logger}
	if opts.CacheEnabled {
		r.tsconfigCache = NewConcurrentCache[string, string]("tsconfig", opts.CacheSize)
		r.resolverCache = NewConcurrentCache[string, *nodeResolver]("resolver", opts.CacheSize)
		r.packageCache = NewConcurrentCache[string, Package]("package", opts.CacheSize)
	} else {
		r.tsconfigCache = NoCache[string, string]{}
		r.resolverCache = NoCache[string, *nodeResolver]{}
		r.packageCache = NoCache[string, Package]{}
	}
	return r
}

// FileSystem returns the resolver's filesystem context.
func (r *ModuleResolver) FileSystem() FileSystemContext {
	return r.fs
}

// Resolve maps spec, imported by from, to a canonical file path and its
// package.
func (r *ModuleResolver) Resolve(spec extractor.ModuleSpecifier, from extractor.SourceFile) (ResolvedModule, error) {
	fileDir := filepath.Dir(from.Canonical)

	tsconfigPath := r.tsconfigFor(fileDir)
	nr := r.resolverFor(tsconfigPath)

	resolved, err := nr.resolve(fileDir, string(spec))
	if err != nil {
		return ResolvedModule{}, fmt.Errorf("failed to resolve module '%s': %w", spec, err)
	}

	canonical := canonicalize(resolved)
	module := ResolvedModule{CanonicalPath: canonical}
	if pkg, ok := r.ResolvePackageForPath(canonical); ok {
		module.Package = &pkg
	}
	return module, nil
}

// ResolvePackageForPath returns the package owning path: the nearest
// package.json at or above it that has a name and version.
func (r *ModuleResolver) ResolvePackageForPath(path string) (Package, bool) {
	if pkg, ok := r.packageCache.Get(path); ok {
		return pkg, true
	}

	manifest, ok := r.fs.FindPackageJSON(path)
	if !ok {
		return Package{}, false
	}
	pkg, err := LoadPackageInfo(manifest)
	if err != nil {
		r.logger.Debug("ignoring package.json", "path", manifest, "error", err)
		return Package{}, false
	}

	r.packageCache.Insert(path, pkg)
	return pkg, true
}

// tsconfigFor returns the tsconfig governing files in dir, or "" when there
// is none.
func (r *ModuleResolver) tsconfigFor(dir string) string {
	if cached, ok := r.tsconfigCache.Get(dir); ok {
		return cached
	}

	// FindTSConfig searches from the parent of its argument; pass a path
	// inside dir so dir itself is searched first.
	path, _ := r.fs.FindTSConfig(filepath.Join(dir, tsconfigFile))
	r.tsconfigCache.Insert(dir, path)
	return path
}

func (r *ModuleResolver) resolverFor(tsconfigPath string) *nodeResolver {
	if cached, ok := r.resolverCache.Get(tsconfigPath); ok {
		return cached
	}

	var cfg *TSConfig
	if tsconfigPath != "" {
		loaded, err := LoadTSConfig(tsconfigPath)
		if err != nil {
			r.logger.Warn("ignoring unreadable tsconfig", "path", tsconfigPath, "error", err)
		} else {
			cfg = loaded
		}
	}

	nr := newNodeResolver(cfg)
	r.resolverCache.Insert(tsconfigPath, nr)
	return nr
}
