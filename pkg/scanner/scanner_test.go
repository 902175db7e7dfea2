package scanner

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gnana997/cuin/pkg/analyzer"
	"github.com/gnana997/cuin/pkg/extractor"
	"github.com/gnana997/cuin/pkg/resolver"
)

// fakeUsages returns n usages tagged with the file name.
func fakeUsages(path string, n int) []analyzer.ComponentUsage {
	usages := make([]analyzer.ComponentUsage, n)
	for i := range usages {
		usages[i] = analyzer.ComponentUsage{
			Occurrence: &extractor.Occurrence{Tag: extractor.DirectTag(filepath.Base(path))},
		}
	}
	return usages
}

func TestRun_PreservesFileOrder(t *testing.T) {
	files := make([]string, 50)
	for i := range files {
		files[i] = fmt.Sprintf("/project/f%02d.tsx", i)
	}

	result, err := Run(context.Background(), files, func(path string) ([]analyzer.ComponentUsage, error) {
		return fakeUsages(path, 2), nil
	}, 4, nil)
	require.NoError(t, err)

	assert.Equal(t, 50, result.Stats.FilesProcessed)
	assert.Equal(t, 0, result.Stats.FilesFailed)
	assert.Equal(t, 100, result.Stats.Usages)
	require.Len(t, result.Usages, 100)
	for i, u := range result.Usages {
		assert.Equal(t, filepath.Base(files[i/2]), u.Occurrence.Tag.DisplayName())
	}
}

func TestRun_FileErrorsAreSwallowed(t *testing.T) {
	files := []string{"/ok.tsx", "/broken.tsx", "/panics.tsx"}

	result, err := Run(context.Background(), files, func(path string) ([]analyzer.ComponentUsage, error) {
		switch path {
		case "/broken.tsx":
			return nil, errors.New("boom")
		case "/panics.tsx":
			panic("unexpected node")
		}
		return fakeUsages(path, 1), nil
	}, 2, nil)
	require.NoError(t, err)

	assert.Equal(t, 1, result.Stats.FilesProcessed)
	assert.Equal(t, 2, result.Stats.FilesFailed)
	assert.Len(t, result.Usages, 1)

	var failed []string
	for _, fe := range result.Stats.Errors {
		failed = append(failed, fe.FilePath)
	}
	assert.ElementsMatch(t, []string{"/broken.tsx", "/panics.tsx"}, failed)
}

func TestRun_Empty(t *testing.T) {
	result, err := Run(context.Background(), nil, nil, 0, nil)
	require.NoError(t, err)
	assert.Empty(t, result.Usages)
}

func TestRun_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	files := make([]string, 200)
	for i := range files {
		files[i] = fmt.Sprintf("/f%d.tsx", i)
	}

	var calls atomic.Int64
	_, err := Run(ctx, files, func(path string) ([]analyzer.ComponentUsage, error) {
		if calls.Add(1) == 1 {
			cancel()
		}
		return nil, nil
	}, 1, nil)

	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Less(t, calls.Load(), int64(len(files)))
}

type noPackages struct{}

func (noPackages) Resolve(spec extractor.ModuleSpecifier, _ extractor.SourceFile) (resolver.ResolvedModule, error) {
	return resolver.ResolvedModule{}, fmt.Errorf("%s: %w", spec, resolver.ErrModuleNotFound)
}

func (noPackages) ResolvePackageForPath(string) (resolver.Package, bool) {
	return resolver.Package{}, false
}

func TestScanner_AnalyzeFile(t *testing.T) {
	tmp, err := filepath.EvalSymlinks(t.TempDir())
	require.NoError(t, err)
	writeFile(t, tmp, "src/App.tsx", `export const App = () => (
  <main>
    <h1 className="title">Hello</h1>
  </main>
);`)

	s := NewScanner(2, nil)
	defer s.Close()
	assert.Equal(t, 2, s.Workers())

	actx := analyzer.NewContext(tmp, noPackages{}, analyzer.DefaultConfig(), nil)
	usages, err := s.AnalyzeFile(actx, filepath.Join(tmp, "src", "App.tsx"))
	require.NoError(t, err)
	require.Len(t, usages, 2)

	assert.Equal(t, "main", usages[0].Occurrence.Tag.DisplayName())
	assert.Equal(t, "src/App.tsx", usages[0].File().DisplayPath())
	assert.Equal(t, "h1", usages[1].Occurrence.Tag.DisplayName())

	_, err = s.AnalyzeFile(actx, filepath.Join(tmp, "missing.tsx"))
	assert.Error(t, err)
}

func TestScanner_Analyze(t *testing.T) {
	tmp, err := filepath.EvalSymlinks(t.TempDir())
	require.NoError(t, err)
	writeFile(t, tmp, "a.tsx", `export const A = () => <div />;`)
	writeFile(t, tmp, "b.jsx", `export const B = () => <span><b /></span>;`)
	writeFile(t, tmp, "c.ts", `export const c = 1;`)

	s := NewScanner(0, nil)
	defer s.Close()

	files, err := DiscoverFiles(tmp, DefaultScanConfig())
	require.NoError(t, err)

	actx := analyzer.NewContext(tmp, noPackages{}, analyzer.DefaultConfig(), nil)
	result, err := s.Analyze(context.Background(), files, func(path string) ([]analyzer.ComponentUsage, error) {
		return s.AnalyzeFile(actx, path)
	})
	require.NoError(t, err)

	var tags []string
	for _, u := range result.Usages {
		tags = append(tags, u.Occurrence.Tag.DisplayName())
	}
	assert.Equal(t, []string{"div", "span", "b"}, tags)
	assert.Equal(t, 3, result.Stats.FilesProcessed)
}
