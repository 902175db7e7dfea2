package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"

	"github.com/gnana997/cuin/pkg/history"
	"github.com/gnana997/cuin/pkg/report"
)

// newProject writes a small React project and returns its directory.
func newProject(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "package.json"), `{"name": "app", "version": "1.0.0"}`)
	writeFile(t, filepath.Join(dir, "src", "App.tsx"), `import { Button } from './Button';

export function App() {
  return (
    <div>
      <Button variant="primary">Go</Button>
      <Button variant="ghost" />
    </div>
  );
}
`)
	writeFile(t, filepath.Join(dir, "src", "Button.tsx"), `export const Button = (props) => <button {...props} />;
`)
	return dir
}

// runApp runs the CLI and returns stdout and the exit code.
func runApp(t *testing.T, args ...string) (string, int) {
	t.Helper()
	var out, errOut bytes.Buffer
	app := newApp()
	app.Writer = &out
	app.ErrWriter = &errOut
	app.ExitErrHandler = func(*cli.Context, error) {}

	err := app.Run(append([]string{"cuin", "--log-level", "error"}, args...))
	code := 0
	if err != nil {
		code = 1
		var ec cli.ExitCoder
		if errors.As(err, &ec) {
			code = ec.ExitCode()
		}
	}
	return out.String(), code
}

func componentNames(rep *report.Report) []string {
	var names []string
	for _, c := range rep.Components {
		names = append(names, c.Name)
	}
	return names
}

func TestAnalyze_JSON(t *testing.T) {
	dir := newProject(t)
	out, code := runApp(t, "analyze", "--path", dir)
	require.Equal(t, 0, code)

	rep, err := report.Read(bytes.NewBufferString(out))
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"Button", "button", "div"}, componentNames(rep))

	btn, ok := rep.FindComponent("Button")
	require.True(t, ok)
	assert.Equal(t, report.TypeInternal, btn.Package.Type)
	assert.Len(t, btn.Instances, 2)
}

func TestAnalyze_PositionalPathAndNoNative(t *testing.T) {
	dir := newProject(t)
	out, code := runApp(t, "analyze", "--no-native", dir)
	require.Equal(t, 0, code)

	rep, err := report.Read(bytes.NewBufferString(out))
	require.NoError(t, err)
	assert.Equal(t, []string{"Button"}, componentNames(rep))
}

func TestAnalyze_ProjectConfig(t *testing.T) {
	dir := newProject(t)
	writeFile(t, filepath.Join(dir, "cuin.toml"), "include_native_elements = false\n")

	out, code := runApp(t, "analyze", "--path", dir)
	require.Equal(t, 0, code)
	rep, err := report.Read(bytes.NewBufferString(out))
	require.NoError(t, err)
	assert.Equal(t, []string{"Button"}, componentNames(rep))
}

func TestAnalyze_Table(t *testing.T) {
	dir := newProject(t)
	out, code := runApp(t, "analyze", "--path", dir, "--format", "table")
	require.Equal(t, 0, code)
	assert.Contains(t, out, "COMPONENT")
	assert.Contains(t, out, "Button")
	assert.Contains(t, out, "src/Button.tsx")
	assert.Contains(t, out, "variant")
}

func TestAnalyze_OutFile(t *testing.T) {
	dir := newProject(t)
	outPath := filepath.Join(t.TempDir(), "report.json")
	out, code := runApp(t, "analyze", "--path", dir, "--out", outPath)
	require.Equal(t, 0, code)
	assert.Empty(t, out)

	f, err := os.Open(outPath)
	require.NoError(t, err)
	defer f.Close()
	rep, err := report.Read(f)
	require.NoError(t, err)
	assert.NotEmpty(t, rep.Components)
}

func TestAnalyze_ExitCodes(t *testing.T) {
	noFiles := t.TempDir()
	writeFile(t, filepath.Join(noFiles, "package.json"), `{"name": "empty", "version": "0.0.1"}`)
	writeFile(t, filepath.Join(noFiles, "README.md"), "# empty\n")

	tests := []struct {
		name string
		args []string
		code int
	}{
		{"no files", []string{"analyze", "--path", noFiles}, 1},
		{"invalid path", []string{"analyze", "--path", filepath.Join(noFiles, "missing")}, 2},
		{"no package.json", []string{"analyze", "--path", t.TempDir()}, 3},
		{"bad format", []string{"analyze", "--path", noFiles, "--format", "xml"}, 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, code := runApp(t, tt.args...)
			assert.Equal(t, tt.code, code)
		})
	}
}

func TestInspect(t *testing.T) {
	dir := newProject(t)
	out, code := runApp(t, "inspect", "--path", dir, "Button")
	require.Equal(t, 0, code)
	assert.Contains(t, out, "Button")
	assert.Contains(t, out, "variant")
	assert.Contains(t, out, "src/App.tsx:6:")

	_, code = runApp(t, "inspect", "--path", dir, "Missing")
	assert.Equal(t, 3, code)

	_, code = runApp(t, "inspect", "--path", dir)
	assert.Equal(t, 3, code)
}

func TestHistory(t *testing.T) {
	dir := newProject(t)

	out, code := runApp(t, "history", "--path", dir)
	require.Equal(t, 0, code)
	assert.Contains(t, out, "No runs recorded")

	for range 2 {
		_, code = runApp(t, "analyze", "--path", dir, "--history")
		require.Equal(t, 0, code)
	}

	out, code = runApp(t, "history", "--path", dir, "--json", "--limit", "5")
	require.Equal(t, 0, code)
	var snaps []history.Snapshot
	require.NoError(t, json.Unmarshal([]byte(out), &snaps))
	require.Len(t, snaps, 2)
	assert.Equal(t, 2, snaps[0].FileCount)
	assert.Equal(t, 3, snaps[0].ComponentCount)

	out, code = runApp(t, "history", "--path", dir)
	require.Equal(t, 0, code)
	assert.Contains(t, out, "COMPONENTS")
}

func TestVersion(t *testing.T) {
	out, code := runApp(t, "version")
	require.Equal(t, 0, code)
	assert.Equal(t, "cuin "+version+"\n", out)
}

func TestWatchExtensions(t *testing.T) {
	assert.Equal(t, []string{".tsx", ".jsx"}, watchExtensions([]string{"tsx", ".jsx"}))
	assert.Empty(t, watchExtensions(nil))
}
