package resolver

import (
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gnana997/cuin/pkg/extractor"
)

// writeFiles creates files (path → content) under a fresh project root and
// returns the canonical root.
func writeFiles(t *testing.T, files map[string]string) string {
	t.Helper()
	root, err := filepath.EvalSymlinks(t.TempDir())
	require.NoError(t, err)

	for rel, content := range files {
		path := filepath.Join(root, rel)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
	return root
}

func newTestResolver(root string, cache bool) *ModuleResolver {
	return NewModuleResolver(NewFileSystemContext(root), Options{CacheEnabled: cache}, nil)
}

func sourceFile(root, rel string) extractor.SourceFile {
	return extractor.NewSourceFile(filepath.Join(root, rel), root)
}

const appPackage = `{"name": "app", "version": "1.0.0"}`

func TestResolve_Relative(t *testing.T) {
	root := writeFiles(t, map[string]string{
		"package.json":              appPackage,
		"src/App.tsx":               "",
		"src/Button.tsx":            "",
		"src/card/index.jsx":        "",
		"src/util.ts":               "",
		"src/styles.css":            "",
		"src/both.jsx":              "",
		"src/both.ts":               "",
		"src/explicit/Explicit.tsx": "",
	})

	r := newTestResolver(root, true)
	from := sourceFile(root, "src/App.tsx")

	testCases := []struct {
		spec     string
		expected string
	}{
		{"./Button", "src/Button.tsx"},
		{"./card", "src/card/index.jsx"},
		{"./util", "src/util.ts"},
		{"./styles.css", "src/styles.css"},
		{"./both", "src/both.jsx"},
		{"./explicit/Explicit.tsx", "src/explicit/Explicit.tsx"},
	}

	for _, tc := range testCases {
		t.Run(tc.spec, func(t *testing.T) {
			resolved, err := r.Resolve(extractor.ModuleSpecifier(tc.spec), from)
			require.NoError(t, err)
			assert.Equal(t, filepath.Join(root, tc.expected), resolved.CanonicalPath)
			require.NotNil(t, resolved.Package)
			assert.Equal(t, Package{Name: "app", Version: "1.0.0"}, *resolved.Package)
		})
	}

	_, err := r.Resolve("./Missing", from)
	assert.ErrorIs(t, err, ErrModuleNotFound)
}

func TestResolve_NodeModules(t *testing.T) {
	root := writeFiles(t, map[string]string{
		"package.json": appPackage,
		"src/App.tsx":  "",

		"node_modules/plain/package.json": `{"name": "plain", "version": "2.0.0", "main": "lib/main.js"}`,
		"node_modules/plain/lib/main.js":  "",
		"node_modules/plain/extra.js":     "",

		"node_modules/@ui/core/package.json": `{
			"name": "@ui/core", "version": "3.1.0",
			"exports": {
				".": {"types": "./dist/index.d.ts", "require": "./dist/index.cjs", "import": "./dist/index.mjs"},
				"./button": "./dist/button.js",
				"./icons/*": {"default": "./dist/icons/*.js"}
			}
		}`,
		"node_modules/@ui/core/dist/index.mjs":        "",
		"node_modules/@ui/core/dist/index.cjs":        "",
		"node_modules/@ui/core/dist/button.js":        "",
		"node_modules/@ui/core/dist/icons/spinner.js": "",

		"node_modules/sugar/package.json": `{"name": "sugar", "version": "0.1.0", "exports": "./entry.js"}`,
		"node_modules/sugar/entry.js":     "",

		"node_modules/noversion/package.json": `{"name": "noversion"}`,
		"node_modules/noversion/index.js":     "",
	})

	r := newTestResolver(root, true)
	from := sourceFile(root, "src/App.tsx")

	testCases := []struct {
		spec     string
		expected string
		pkg      Package
	}{
		{"plain", "node_modules/plain/lib/main.js", Package{"plain", "2.0.0"}},
		{"plain/extra", "node_modules/plain/extra.js", Package{"plain", "2.0.0"}},
		{"@ui/core", "node_modules/@ui/core/dist/index.mjs", Package{"@ui/core", "3.1.0"}},
		{"@ui/core/button", "node_modules/@ui/core/dist/button.js", Package{"@ui/core", "3.1.0"}},
		{"@ui/core/icons/spinner", "node_modules/@ui/core/dist/icons/spinner.js", Package{"@ui/core", "3.1.0"}},
		{"sugar", "node_modules/sugar/entry.js", Package{"sugar", "0.1.0"}},
	}

	for _, tc := range testCases {
		t.Run(tc.spec, func(t *testing.T) {
			resolved, err := r.Resolve(extractor.ModuleSpecifier(tc.spec), from)
			require.NoError(t, err)
			assert.Equal(t, filepath.Join(root, tc.expected), resolved.CanonicalPath)
			require.NotNil(t, resolved.Package)
			assert.Equal(t, tc.pkg, *resolved.Package)
		})
	}

	t.Run("unexported subpath", func(t *testing.T) {
		_, err := r.Resolve("@ui/core/dist/button.js", from)
		assert.Error(t, err)
	})

	t.Run("nearest package.json without version gives no package", func(t *testing.T) {
		resolved, err := r.Resolve("noversion", from)
		require.NoError(t, err)
		assert.Nil(t, resolved.Package)
	})
}

func TestResolve_TSConfigPaths(t *testing.T) {
	root := writeFiles(t, map[string]string{
		"package.json": appPackage,
		"tsconfig.base.json": `{
			// shared options
			"compilerOptions": {
				"baseUrl": ".",
				"paths": {"@/*": ["src/*"], "@lib/*": ["missing/*", "lib/*"],},
			},
		}`,
		"tsconfig.json":               `{"extends": "./tsconfig.base.json", "compilerOptions": {}}`,
		"src/App.tsx":                 "",
		"src/components/Button.tsx":   "",
		"lib/format.ts":               "",
		"shared/Thing.tsx":            "",
		"nested/tsconfig.json":        `{"compilerOptions": {"paths": {"~/*": ["./inner/*"]}}}`,
		"nested/inner/Widget.tsx":     "",
		"nested/src/Page.tsx":         "",
		"nested/inner/deep/Other.tsx": "",
	})

	r := newTestResolver(root, true)

	resolved, err := r.Resolve("@/components/Button", sourceFile(root, "src/App.tsx"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "src/components/Button.tsx"), resolved.CanonicalPath)

	resolved, err = r.Resolve("@lib/format", sourceFile(root, "src/App.tsx"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "lib/format.ts"), resolved.CanonicalPath)

	resolved, err = r.Resolve("shared/Thing", sourceFile(root, "src/App.tsx"))
	require.NoError(t, err, "baseUrl applies to bare specifiers")
	assert.Equal(t, filepath.Join(root, "shared/Thing.tsx"), resolved.CanonicalPath)

	resolved, err = r.Resolve("~/Widget", sourceFile(root, "nested/src/Page.tsx"))
	require.NoError(t, err, "paths without baseUrl are relative to the declaring config")
	assert.Equal(t, filepath.Join(root, "nested/inner/Widget.tsx"), resolved.CanonicalPath)
}

func TestResolve_NoTSConfigUsesPlainResolution(t *testing.T) {
	root := writeFiles(t, map[string]string{
		"package.json":   appPackage,
		"src/App.jsx":    "",
		"src/Button.jsx": "",
	})

	r := newTestResolver(root, false)
	resolved, err := r.Resolve("./Button", sourceFile(root, "src/App.jsx"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "src/Button.jsx"), resolved.CanonicalPath)
}

func TestResolve_Symlink(t *testing.T) {
	root := writeFiles(t, map[string]string{
		"package.json":             appPackage,
		"src/App.tsx":              "",
		"packages/ds/package.json": `{"name": "ds", "version": "0.0.1"}`,
		"packages/ds/index.tsx":    "",
	})
	require.NoError(t, os.MkdirAll(filepath.Join(root, "node_modules"), 0o755))
	if err := os.Symlink(filepath.Join(root, "packages/ds"), filepath.Join(root, "node_modules/ds")); err != nil {
		t.Skipf("symlinks unsupported: %v", err)
	}

	r := newTestResolver(root, true)
	resolved, err := r.Resolve("ds", sourceFile(root, "src/App.tsx"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "packages/ds/index.tsx"), resolved.CanonicalPath, "workspace links resolve to their target")
	require.NotNil(t, resolved.Package)
	assert.Equal(t, "ds", resolved.Package.Name)
}

func TestResolvePackageForPath(t *testing.T) {
	root := writeFiles(t, map[string]string{
		"package.json":              appPackage,
		"src/App.tsx":               "",
		"packages/a/package.json":   `{"name": "a", "version": "1.2.3"}`,
		"packages/a/src/Comp.tsx":   "",
		"packages/bad/package.json": `{not json`,
		"packages/bad/src/Comp.tsx": "",
	})

	r := newTestResolver(root, true)

	pkg, ok := r.ResolvePackageForPath(filepath.Join(root, "src/App.tsx"))
	require.True(t, ok)
	assert.Equal(t, Package{"app", "1.0.0"}, pkg)

	pkg, ok = r.ResolvePackageForPath(filepath.Join(root, "packages/a/src/Comp.tsx"))
	require.True(t, ok)
	assert.Equal(t, Package{"a", "1.2.3"}, pkg)

	_, ok = r.ResolvePackageForPath(filepath.Join(root, "packages/bad/src/Comp.tsx"))
	assert.False(t, ok, "the nearest package.json decides, even when unreadable")
}

func TestFileSystemContext(t *testing.T) {
	root := writeFiles(t, map[string]string{
		"package.json":      appPackage,
		"tsconfig.json":     "{}",
		"src/tsconfig.json": "{}",
		"src/a/App.tsx":     "",
	})
	fs := NewFileSystemContext(root)

	path, ok := fs.FindTSConfig(filepath.Join(root, "src/a/App.tsx"))
	require.True(t, ok)
	assert.Equal(t, filepath.Join(root, "src/tsconfig.json"), path)

	path, ok = fs.FindTSConfig(filepath.Join(root, "src"))
	require.True(t, ok)
	assert.Equal(t, filepath.Join(root, "tsconfig.json"), path, "search starts at the parent")

	path, ok = fs.FindPackageJSON(root)
	require.True(t, ok)
	assert.Equal(t, filepath.Join(root, "package.json"), path, "search starts at the path itself")
}

func TestLoadPackageInfo(t *testing.T) {
	root := writeFiles(t, map[string]string{
		"ok/package.json":     `{"name": "x", "version": "1.0.0", "private": true}`,
		"noname/package.json": `{"version": "1.0.0"}`,
	})

	pkg, err := LoadPackageInfo(filepath.Join(root, "ok/package.json"))
	require.NoError(t, err)
	assert.Equal(t, Package{"x", "1.0.0"}, pkg)

	_, err = LoadPackageInfo(filepath.Join(root, "noname/package.json"))
	assert.Error(t, err)

	_, err = LoadPackageInfo(filepath.Join(root, "missing/package.json"))
	assert.Error(t, err)
}

func TestLoadTSConfig_ExtendsPackage(t *testing.T) {
	root := writeFiles(t, map[string]string{
		"node_modules/@tsconfig/strict/tsconfig.json": `{"compilerOptions": {"baseUrl": "./ignored"}}`,
		"tsconfig.json": `{"extends": ["@tsconfig/strict/tsconfig.json"], "compilerOptions": {"baseUrl": "src"}}`,
	})

	cfg, err := LoadTSConfig(filepath.Join(root, "tsconfig.json"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "src"), cfg.BaseURL, "child options override the base")
}

func TestResolveExports_ConditionOrder(t *testing.T) {
	exports := []byte(`{"default": "./d.js", "import": "./i.js"}`)
	target, ok := resolveExports(exports, ".")
	require.True(t, ok)
	assert.Equal(t, "./d.js", target, "first matching condition in document order wins")

	exports = []byte(`{".": [{"browser": "./b.js"}, "./fallback.js"], "./feature/": "./src/feature/"}`)
	target, ok = resolveExports(exports, ".")
	require.True(t, ok)
	assert.Equal(t, "./fallback.js", target)

	target, ok = resolveExports(exports, "./feature/x.js")
	require.True(t, ok)
	assert.Equal(t, "./src/feature/x.js", target)

	_, ok = resolveExports([]byte(`{".": null}`), ".")
	assert.False(t, ok)
}

func TestCaches(t *testing.T) {
	c := NewConcurrentCache[string, int]("test", 2)
	_, ok := c.Get("a")
	assert.False(t, ok)

	c.Insert("a", 1)
	v, ok := c.Get("a")
	require.True(t, ok)
	assert.Equal(t, 1, v)

	c.Insert("b", 2)
	c.Insert("c", 3)
	assert.Equal(t, 2, c.Len(), "bounded")

	var none Cache[string, int] = NoCache[string, int]{}
	none.Insert("a", 1)
	_, ok = none.Get("a")
	assert.False(t, ok)
}

func TestResolve_Concurrent(t *testing.T) {
	root := writeFiles(t, map[string]string{
		"package.json":   appPackage,
		"tsconfig.json":  `{"compilerOptions": {"baseUrl": "src"}}`,
		"src/App.tsx":    "",
		"src/Button.tsx": "",
	})
	r := newTestResolver(root, true)
	from := sourceFile(root, "src/App.tsx")

	var wg sync.WaitGroup
	results := make([]string, 32)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			spec := extractor.ModuleSpecifier("./Button")
			if i%2 == 1 {
				spec = "Button"
			}
			resolved, err := r.Resolve(spec, from)
			if err == nil {
				results[i] = resolved.CanonicalPath
			}
		}(i)
	}
	wg.Wait()

	for _, got := range results {
		assert.Equal(t, filepath.Join(root, "src/Button.tsx"), got)
	}
}
