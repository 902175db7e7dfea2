package resolver

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

var (
	// Extensions tried, in order, for extensionless specifiers.
	Extensions = []string{".jsx", ".tsx", ".js", ".ts"}

	// Conditions matched in package.json `exports`, besides "default".
	Conditions = []string{"node", "import"}
)

// ErrModuleNotFound is returned when a specifier resolves to no file.
var ErrModuleNotFound = errors.New("module not found")

// nodeResolver implements node-style resolution, optionally extended by a
// tsconfig's `paths` and `baseUrl`.
type nodeResolver struct {
	tsconfig *TSConfig
}

func newNodeResolver(tsconfig *TSConfig) *nodeResolver {
	return &nodeResolver{tsconfig: tsconfig}
}

// resolve maps spec, imported from a file in dir, to a file path.
func (r *nodeResolver) resolve(dir, spec string) (string, error) {
	if spec == "" {
		return "", fmt.Errorf("empty specifier: %w", ErrModuleNotFound)
	}

	if isPathSpecifier(spec) {
		target := spec
		if !filepath.IsAbs(target) {
			target = filepath.Join(dir, spec)
		}
		if p, ok := loadAsFileOrDirectory(target); ok {
			return p, nil
		}
		return "", fmt.Errorf("%s: %w", spec, ErrModuleNotFound)
	}

	if r.tsconfig != nil {
		for _, candidate := range r.tsconfig.matchPaths(spec) {
			if p, ok := loadAsFileOrDirectory(candidate); ok {
				return p, nil
			}
		}
		if r.tsconfig.BaseURL != "" {
			if p, ok := loadAsFileOrDirectory(filepath.Join(r.tsconfig.BaseURL, spec)); ok {
				return p, nil
			}
		}
	}

	if p, ok := loadNodeModules(dir, spec); ok {
		return p, nil
	}
	return "", fmt.Errorf("%s: %w", spec, ErrModuleNotFound)
}

func isPathSpecifier(spec string) bool {
	return spec == "." || spec == ".." ||
		strings.HasPrefix(spec, "./") || strings.HasPrefix(spec, "../") ||
		filepath.IsAbs(spec)
}

func loadAsFileOrDirectory(path string) (string, bool) {
	if p, ok := loadAsFile(path); ok {
		return p, true
	}
	return loadAsDirectory(path)
}

func loadAsFile(path string) (string, bool) {
	if isFile(path) {
		return path, true
	}
	for _, ext := range Extensions {
		if isFile(path + ext) {
			return path + ext, true
		}
	}
	return "", false
}

func loadAsDirectory(dir string) (string, bool) {
	if !isDir(dir) {
		return "", false
	}

	if m, err := readManifest(filepath.Join(dir, packageJSONFile)); err == nil && m.Main != "" {
		main := filepath.Join(dir, m.Main)
		if p, ok := loadAsFile(main); ok {
			return p, true
		}
		if p, ok := loadIndex(main); ok {
			return p, true
		}
	}
	return loadIndex(dir)
}

func loadIndex(dir string) (string, bool) {
	for _, ext := range Extensions {
		p := filepath.Join(dir, "index"+ext)
		if isFile(p) {
			return p, true
		}
	}
	return "", false
}

// splitPackageSpecifier splits `@scope/name/sub/path` into the package name
// and the subpath ("" or "/sub/path").
func splitPackageSpecifier(spec string) (string, string) {
	parts := strings.SplitN(spec, "/", 3)
	if strings.HasPrefix(spec, "@") && len(parts) >= 2 {
		name := parts[0] + "/" + parts[1]
		return name, strings.TrimPrefix(spec, name)
	}
	return parts[0], strings.TrimPrefix(spec, parts[0])
}

func loadNodeModules(dir, spec string) (string, bool) {
	name, subpath := splitPackageSpecifier(spec)

	for current := filepath.Clean(dir); ; {
		pkgDir := filepath.Join(current, "node_modules", name)
		if isDir(pkgDir) {
			if p, ok := loadPackage(pkgDir, subpath); ok {
				return p, true
			}
		}

		parent := filepath.Dir(current)
		if parent == current {
			return "", false
		}
		current = parent
	}
}

func loadPackage(pkgDir, subpath string) (string, bool) {
	m, err := readManifest(filepath.Join(pkgDir, packageJSONFile))
	if err == nil && len(m.Exports) > 0 && !bytes.Equal(bytes.TrimSpace(m.Exports), []byte("null")) {
		target, ok := resolveExports(m.Exports, "."+subpath)
		if !ok {
			return "", false
		}
		p := filepath.Join(pkgDir, target)
		if isFile(p) {
			return p, true
		}
		return "", false
	}

	if subpath != "" {
		return loadAsFileOrDirectory(filepath.Join(pkgDir, subpath))
	}
	return loadAsDirectory(pkgDir)
}

// orderedEntry is one key of a JSON object, in document order.
type orderedEntry struct {
	Key   string
	Value json.RawMessage
}

// decodeOrdered decodes a JSON object keeping key order, which matters for
// `exports` condition matching.
func decodeOrdered(raw json.RawMessage) ([]orderedEntry, bool) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	tok, err := dec.Token()
	if err != nil {
		return nil, false
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, false
	}

	var entries []orderedEntry
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil, false
		}
		key, ok := keyTok.(string)
		if !ok {
			return nil, false
		}
		var value json.RawMessage
		if err := dec.Decode(&value); err != nil {
			return nil, false
		}
		entries = append(entries, orderedEntry{Key: key, Value: value})
	}
	return entries, true
}

// resolveExports resolves subpath ("." or "./x") against a package.json
// `exports` value and returns the target relative to the package root.
func resolveExports(exports json.RawMessage, subpath string) (string, bool) {
	entries, isObject := decodeOrdered(exports)
	if !isObject || len(entries) == 0 || !strings.HasPrefix(entries[0].Key, ".") {
		// Sugar: the whole value is the "." target.
		if subpath != "." {
			return "", false
		}
		return resolveExportTarget(exports, "")
	}

	for _, e := range entries {
		if e.Key == subpath {
			return resolveExportTarget(e.Value, "")
		}
	}

	// Wildcard and legacy directory keys; the longest prefix wins.
	var best *orderedEntry
	var capture string
	bestLen, dirKey := -1, false
	for i := range entries {
		e := &entries[i]
		if star := strings.IndexByte(e.Key, '*'); star >= 0 {
			prefix, suffix := e.Key[:star], e.Key[star+1:]
			if strings.HasPrefix(subpath, prefix) && strings.HasSuffix(subpath, suffix) &&
				len(subpath) >= len(prefix)+len(suffix) && len(prefix) > bestLen {
				best, bestLen, dirKey = e, len(prefix), false
				capture = subpath[len(prefix) : len(subpath)-len(suffix)]
			}
		} else if strings.HasSuffix(e.Key, "/") && strings.HasPrefix(subpath, e.Key) && len(e.Key) > bestLen {
			best, bestLen, dirKey = e, len(e.Key), true
			capture = subpath[len(e.Key):]
		}
	}
	if best == nil {
		return "", false
	}

	if dirKey {
		target, ok := resolveExportTarget(best.Value, "")
		if !ok {
			return "", false
		}
		return target + capture, true
	}
	return resolveExportTarget(best.Value, capture)
}

// resolveExportTarget resolves a target (string, array or conditions
// object). capture replaces `*` in string targets.
func resolveExportTarget(raw json.RawMessage, capture string) (string, bool) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return "", false
	}

	switch raw[0] {
	case '"':
		var s string
		if err := json.Unmarshal(raw, &s); err != nil || !strings.HasPrefix(s, "./") {
			return "", false
		}
		return strings.ReplaceAll(s, "*", capture), true
	case '[':
		var items []json.RawMessage
		if err := json.Unmarshal(raw, &items); err != nil {
			return "", false
		}
		for _, item := range items {
			if target, ok := resolveExportTarget(item, capture); ok {
				return target, true
			}
		}
		return "", false
	case '{':
		entries, ok := decodeOrdered(raw)
		if !ok {
			return "", false
		}
		for _, e := range entries {
			if !conditionMatches(e.Key) {
				continue
			}
			if target, ok := resolveExportTarget(e.Value, capture); ok {
				return target, true
			}
		}
		return "", false
	default:
		return "", false
	}
}

func conditionMatches(key string) bool {
	if key == "default" {
		return true
	}
	for _, c := range Conditions {
		if key == c {
			return true
		}
	}
	return false
}
