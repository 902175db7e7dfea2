package parser

import (
	"fmt"
	"log/slog"
	"os"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const tsxSample = `import { Button } from "./Button";

export function App() {
  return (
    <div className="app">
      <Button variant="primary" disabled>Save</Button>
    </div>
  );
}
`

const tsSample = `export function cast(x: unknown) {
  return <string>x;
}
`

const jsSample = `import Card from "./Card";

export const Page = () => <Card title="hi" />;
`

func newTestManager() *ParserManager {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	return NewParserManager(logger)
}

func TestParseTSX(t *testing.T) {
	manager := newTestManager()
	defer manager.Close()

	tree, err := manager.Parse([]byte(tsxSample), LanguageTSX)
	require.NoError(t, err, "Parse should succeed")
	require.NotNil(t, tree, "Tree should not be nil")
	defer tree.Close()

	root := tree.RootNode()
	assert.Equal(t, "program", root.Kind(), "Root should be a program node")

	treeString := root.ToSexp()
	assert.Contains(t, treeString, "jsx_element", "Should contain JSX elements")
	assert.Contains(t, treeString, "import_statement")
}

func TestParseTypeScript(t *testing.T) {
	manager := newTestManager()
	defer manager.Close()

	tree, err := manager.Parse([]byte(tsSample), LanguageTypeScript)
	require.NoError(t, err)
	defer tree.Close()

	root := tree.RootNode()
	assert.Equal(t, "program", root.Kind())
	// Angle-bracket casts are type assertions, not elements, in .ts files.
	assert.NotContains(t, root.ToSexp(), "jsx_")
}

func TestParseJavaScript(t *testing.T) {
	manager := newTestManager()
	defer manager.Close()

	tree, err := manager.Parse([]byte(jsSample), LanguageJavaScript)
	require.NoError(t, err)
	defer tree.Close()

	root := tree.RootNode()
	assert.Equal(t, "program", root.Kind())
	assert.Contains(t, root.ToSexp(), "jsx_self_closing_element")
}

func TestParseFile(t *testing.T) {
	manager := newTestManager()
	defer manager.Close()

	testCases := []struct {
		fileName string
		source   string
	}{
		{"App.tsx", tsxSample},
		{"cast.ts", tsSample},
		{"Page.jsx", jsSample},
		{"Page.mjs", jsSample},
	}

	for _, tc := range testCases {
		t.Run(tc.fileName, func(t *testing.T) {
			tree, err := manager.ParseFile([]byte(tc.source), tc.fileName)
			require.NoError(t, err)
			defer tree.Close()
			assert.Equal(t, "program", tree.RootNode().Kind())
		})
	}
}

func TestParseFileUnsupported(t *testing.T) {
	manager := newTestManager()
	defer manager.Close()

	_, err := manager.ParseFile([]byte("body {}"), "styles.css")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported file extension")

	_, err = manager.Parse([]byte("x"), LanguageUnknown)
	assert.Error(t, err)
}

func TestParseWithSyntaxErrors(t *testing.T) {
	manager := newTestManager()
	defer manager.Close()

	tree, err := manager.Parse([]byte("const x = <Button label=\"a\" ;"), LanguageTSX)
	require.NoError(t, err, "Partial trees are still returned")
	defer tree.Close()
	assert.True(t, tree.RootNode().HasError())
}

func TestDetectLanguage(t *testing.T) {
	testCases := []struct {
		path     string
		expected Language
	}{
		{"src/App.tsx", LanguageTSX},
		{"src/App.TSX", LanguageTSX},
		{"src/util.ts", LanguageTypeScript},
		{"src/util.mts", LanguageTypeScript},
		{"src/util.cts", LanguageTypeScript},
		{"src/App.jsx", LanguageJavaScript},
		{"src/App.js", LanguageJavaScript},
		{"src/App.cjs", LanguageJavaScript},
		{"README.md", LanguageUnknown},
		{"Makefile", LanguageUnknown},
	}

	for _, tc := range testCases {
		t.Run(tc.path, func(t *testing.T) {
			assert.Equal(t, tc.expected, DetectLanguage(tc.path))
		})
	}
}

func TestLanguageString(t *testing.T) {
	assert.Equal(t, "tsx", LanguageTSX.String())
	assert.Equal(t, "typescript", LanguageTypeScript.String())
	assert.Equal(t, "javascript", LanguageJavaScript.String())
	assert.Equal(t, "unknown", LanguageUnknown.String())

	assert.True(t, LanguageTSX.SupportsJSX())
	assert.True(t, LanguageJavaScript.SupportsJSX())
	assert.False(t, LanguageTypeScript.SupportsJSX())
}

func TestParserStatsLazyInit(t *testing.T) {
	manager := newTestManager()
	defer manager.Close()

	stats := manager.GetStats()
	assert.Equal(t, 0, stats.ParsersCreated, "No parsers before first parse")
	assert.Equal(t, 0, stats.ParsesCalled)

	for i := 0; i < 3; i++ {
		tree, err := manager.Parse([]byte(tsxSample), LanguageTSX)
		require.NoError(t, err)
		tree.Close()
	}

	stats = manager.GetStats()
	assert.Equal(t, 1, stats.ParsersCreated, "Sequential parses reuse one parser")
	assert.Equal(t, 3, stats.ParsesCalled)
}

func TestConcurrentParsing(t *testing.T) {
	manager := NewParserManagerWithPoolSize(slog.Default(), 4)
	defer manager.Close()

	const goroutines = 16
	var wg sync.WaitGroup
	errs := make(chan error, goroutines)

	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			lang := SupportedLanguages()[i%3]
			src := tsxSample
			if lang == LanguageTypeScript {
				src = tsSample
			}
			tree, err := manager.Parse([]byte(src), lang)
			if err != nil {
				errs <- fmt.Errorf("goroutine %d: %w", i, err)
				return
			}
			tree.Close()
		}(i)
	}

	wg.Wait()
	close(errs)
	for err := range errs {
		t.Error(err)
	}

	stats := manager.GetStats()
	assert.Equal(t, goroutines, stats.ParsesCalled)
	assert.LessOrEqual(t, stats.ParsersCreated, 12, "At most 4 parsers per grammar")
}
