package resolver

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/tailscale/hujson"
)

// TSConfig is the part of a tsconfig.json that affects module resolution,
// with `extends` already applied.
type TSConfig struct {
	Path string

	// BaseURL is absolute, or empty when unset.
	BaseURL string

	// Paths are the `compilerOptions.paths` mappings, sorted by pattern.
	Paths []PathMapping

	// PathsBase is the directory `paths` targets are relative to: BaseURL
	// when set, otherwise the directory of the config declaring `paths`.
	PathsBase string
}

// PathMapping is one `paths` entry.
type PathMapping struct {
	Pattern string
	Targets []string
}

type rawTSConfig struct {
	Extends         json.RawMessage `json:"extends"`
	CompilerOptions struct {
		BaseURL *string             `json:"baseUrl"`
		Paths   map[string][]string `json:"paths"`
	} `json:"compilerOptions"`
}

// LoadTSConfig reads a tsconfig.json (comments and trailing commas allowed)
// and follows its `extends` chain.
func LoadTSConfig(path string) (*TSConfig, error) {
	cfg := &TSConfig{Path: path}
	if err := loadTSConfigInto(cfg, path, map[string]bool{}); err != nil {
		return nil, err
	}
	return cfg, nil
}

func loadTSConfigInto(cfg *TSConfig, path string, visited map[string]bool) error {
	if visited[path] {
		return fmt.Errorf("tsconfig extends cycle at %s", path)
	}
	visited[path] = true

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}
	std, err := hujson.Standardize(data)
	if err != nil {
		return fmt.Errorf("failed to parse %s: %w", path, err)
	}

	var raw rawTSConfig
	if err := json.Unmarshal(std, &raw); err != nil {
		return fmt.Errorf("failed to decode %s: %w", path, err)
	}

	dir := filepath.Dir(path)

	// Bases first so this file's options win.
	for _, ext := range extendsList(raw.Extends) {
		basePath, ok := resolveExtends(dir, ext)
		if !ok {
			return fmt.Errorf("%s: cannot find extended config %q", path, ext)
		}
		if err := loadTSConfigInto(cfg, basePath, visited); err != nil {
			return err
		}
	}

	if raw.CompilerOptions.BaseURL != nil {
		cfg.BaseURL = filepath.Join(dir, *raw.CompilerOptions.BaseURL)
		cfg.PathsBase = cfg.BaseURL
	}
	if raw.CompilerOptions.Paths != nil {
		cfg.Paths = cfg.Paths[:0]
		for pattern, targets := range raw.CompilerOptions.Paths {
			cfg.Paths = append(cfg.Paths, PathMapping{Pattern: pattern, Targets: targets})
		}
		sort.Slice(cfg.Paths, func(i, j int) bool { return cfg.Paths[i].Pattern < cfg.Paths[j].Pattern })
		if cfg.BaseURL == "" {
			cfg.PathsBase = dir
		}
	}
	return nil
}

// extendsList accepts the string and array forms of `extends`.
func extendsList(raw json.RawMessage) []string {
	if len(raw) == 0 {
		return nil
	}
	var one string
	if err := json.Unmarshal(raw, &one); err == nil {
		if one == "" {
			return nil
		}
		return []string{one}
	}
	var many []string
	if err := json.Unmarshal(raw, &many); err == nil {
		return many
	}
	return nil
}

func resolveExtends(dir, spec string) (string, bool) {
	var candidates []string
	if strings.HasPrefix(spec, ".") || filepath.IsAbs(spec) {
		base := spec
		if !filepath.IsAbs(base) {
			base = filepath.Join(dir, spec)
		}
		candidates = []string{base, base + ".json", filepath.Join(base, tsconfigFile)}
	} else {
		for current := dir; ; {
			base := filepath.Join(current, "node_modules", spec)
			candidates = append(candidates, base, base+".json", filepath.Join(base, tsconfigFile))
			parent := filepath.Dir(current)
			if parent == current {
				break
			}
			current = parent
		}
	}

	for _, c := range candidates {
		if isFile(c) {
			return c, true
		}
	}
	return "", false
}

// matchPaths returns the candidate locations for spec from the `paths`
// mapping with the longest matching prefix. Exact patterns beat wildcards.
func (c *TSConfig) matchPaths(spec string) []string {
	var best *PathMapping
	var bestCapture string
	bestPrefix := -1

	for i := range c.Paths {
		m := &c.Paths[i]
		star := strings.IndexByte(m.Pattern, '*')
		if star < 0 {
			if m.Pattern == spec {
				best, bestCapture = m, ""
				break
			}
			continue
		}

		prefix, suffix := m.Pattern[:star], m.Pattern[star+1:]
		if len(spec) < len(prefix)+len(suffix) || !strings.HasPrefix(spec, prefix) || !strings.HasSuffix(spec, suffix) {
			continue
		}
		if len(prefix) > bestPrefix {
			best = m
			bestPrefix = len(prefix)
			bestCapture = spec[len(prefix) : len(spec)-len(suffix)]
		}
	}

	if best == nil {
		return nil
	}

	out := make([]string, 0, len(best.Targets))
	for _, target := range best.Targets {
		out = append(out, filepath.Join(c.PathsBase, strings.Replace(target, "*", bestCapture, 1)))
	}
	return out
}
