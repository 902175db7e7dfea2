package scanner

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	ignore "github.com/sabhiram/go-gitignore"
)

// gitignoreScope is a compiled .gitignore and the directory it applies to.
type gitignoreScope struct {
	dir     string
	matcher *ignore.GitIgnore
}

// DiscoverFiles walks rootDir applying include/exclude globs from cfg.
// Returns a sorted slice of absolute file paths for deterministic output.
func DiscoverFiles(rootDir string, cfg ScanConfig) ([]string, error) {
	for _, pattern := range cfg.Exclude {
		if !doublestar.ValidatePattern(pattern) {
			return nil, fmt.Errorf("invalid exclude pattern: %s", pattern)
		}
	}
	for _, pattern := range cfg.Include {
		if !doublestar.ValidatePattern(pattern) {
			return nil, fmt.Errorf("invalid include pattern: %s", pattern)
		}
	}

	absRoot, err := filepath.Abs(rootDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve root path: %w", err)
	}

	var files []string
	var scopes []gitignoreScope

	err = filepath.WalkDir(absRoot, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil // Continue walking on errors.
		}

		relPath, err := filepath.Rel(absRoot, path)
		if err != nil {
			relPath = path
		}
		relPath = filepath.ToSlash(relPath)

		// Scopes of directories we have left no longer apply.
		for len(scopes) > 0 && !within(path, scopes[len(scopes)-1].dir) {
			scopes = scopes[:len(scopes)-1]
		}

		if relPath != "." {
			for _, pattern := range cfg.Exclude {
				if matched, _ := doublestar.PathMatch(pattern, relPath); matched {
					if d.IsDir() {
						return filepath.SkipDir
					}
					return nil
				}
			}
			if cfg.RespectGitignore && ignoredBy(scopes, path, d.IsDir()) {
				if d.IsDir() {
					return filepath.SkipDir
				}
				return nil
			}
		}

		if d.IsDir() {
			if cfg.RespectGitignore {
				if gi, err := ignore.CompileIgnoreFile(filepath.Join(path, ".gitignore")); err == nil {
					scopes = append(scopes, gitignoreScope{dir: path, matcher: gi})
				}
			}
			return nil
		}

		if len(cfg.Include) > 0 {
			matched := false
			for _, pattern := range cfg.Include {
				if m, _ := doublestar.PathMatch(pattern, relPath); m {
					matched = true
					break
				}
			}
			if !matched {
				return nil
			}
		}

		files = append(files, path)
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Strings(files)
	return files, nil
}

func ignoredBy(scopes []gitignoreScope, path string, isDir bool) bool {
	for _, scope := range scopes {
		rel, err := filepath.Rel(scope.dir, path)
		if err != nil {
			continue
		}
		rel = filepath.ToSlash(rel)
		if scope.matcher.MatchesPath(rel) {
			return true
		}
		// Directory-only patterns ("build/") match the directory itself.
		if isDir && scope.matcher.MatchesPath(rel+"/") {
			return true
		}
	}
	return false
}

func within(path, dir string) bool {
	return path == dir || strings.HasPrefix(path, dir+string(filepath.Separator))
}
