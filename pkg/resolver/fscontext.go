package resolver

import (
	"os"
	"path/filepath"
)

const (
	tsconfigFile    = "tsconfig.json"
	packageJSONFile = "package.json"
)

// FileSystemContext locates project configuration files on disk.
type FileSystemContext struct {
	ProjectRoot string
}

// NewFileSystemContext creates a context rooted at projectRoot.
func NewFileSystemContext(projectRoot string) FileSystemContext {
	return FileSystemContext{ProjectRoot: projectRoot}
}

// FindTSConfig returns the nearest tsconfig.json, searching from the parent
// directory of start upwards.
func (c FileSystemContext) FindTSConfig(start string) (string, bool) {
	return findUp(filepath.Dir(start), tsconfigFile)
}

// FindPackageJSON returns the nearest package.json, searching from start
// itself upwards.
func (c FileSystemContext) FindPackageJSON(start string) (string, bool) {
	return findUp(start, packageJSONFile)
}

func findUp(dir, name string) (string, bool) {
	current := filepath.Clean(dir)
	for {
		candidate := filepath.Join(current, name)
		if isFile(candidate) {
			return candidate, true
		}

		parent := filepath.Dir(current)
		if parent == current {
			return "", false
		}
		current = parent
	}
}

func isFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

// canonicalize resolves symlinks, falling back to the cleaned path.
func canonicalize(path string) string {
	if real, err := filepath.EvalSymlinks(path); err == nil {
		if abs, err := filepath.Abs(real); err == nil {
			return abs
		}
		return real
	}
	return filepath.Clean(path)
}
