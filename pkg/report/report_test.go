package report

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gnana997/cuin/pkg/analyzer"
	"github.com/gnana997/cuin/pkg/extractor"
	"github.com/gnana997/cuin/pkg/resolver"
)

var (
	appPackage = resolver.Package{Name: "app", Version: "1.0.0"}
	uiPackage  = resolver.Package{Name: "@acme/ui", Version: "2.3.1"}
)

func strPtr(s string) *string { return &s }

func sampleAggregates() []analyzer.Aggregate {
	file := extractor.NewSourceFile("/project/src/App.tsx", "/project")
	location := extractor.SourceLocation{File: file, Span: extractor.Span{Start: 10, End: 30, StartLine: 2, StartCol: 3, EndLine: 2, EndCol: 23}}

	dialog := analyzer.ComponentIdentity{Source: analyzer.ExternalSource{Package: uiPackage}, Export: analyzer.DirectExport{Name: "Dialog"}, Package: uiPackage}
	button := analyzer.ComponentIdentity{Source: analyzer.InternalSource{CanonicalPath: "src/Button.tsx"}, Export: analyzer.DirectExport{Name: "Button"}, Package: appPackage}
	div := analyzer.NativeIdentity("div")

	usage := func(id analyzer.ComponentIdentity, tag string, binding *extractor.ImportBinding, pkg *analyzer.UsagePackage, props ...analyzer.SimplifiedProp) analyzer.ComponentUsage {
		loc := location
		return analyzer.ComponentUsage{
			Definition:   analyzer.ComponentDefinition{Identity: id, Location: &loc},
			Occurrence:   &extractor.Occurrence{Location: location, Tag: extractor.DirectTag(tag), RawText: "<" + tag + " />"},
			Binding:      binding,
			Props:        props,
			UsagePackage: pkg,
		}
	}

	internal := &analyzer.UsagePackage{Kind: analyzer.UsageInternal, Package: appPackage}
	return analyzer.GroupByIdentity([]analyzer.ComponentUsage{
		usage(dialog, "Dialog", &extractor.ImportBinding{Source: "@acme/ui", Imported: extractor.NamedImport{Name: "Dialog"}, LocalName: "Dialog"}, internal,
			analyzer.SimplifiedProp{Key: "open", Pattern: "boolean", Value: strPtr("true"), Raw: "true"}),
		usage(button, "Button", &extractor.ImportBinding{Source: "./Button", Imported: extractor.NamedImport{Name: "Button"}, LocalName: "Button"}, internal,
			analyzer.SimplifiedProp{Key: "onClick", Pattern: "identifier", Raw: "save"}),
		usage(div, "div", nil, &analyzer.UsagePackage{Kind: analyzer.UsageNative}),
		usage(button, "Button", &extractor.ImportBinding{Source: "./Button", Imported: extractor.NamedImport{Name: "Button"}, LocalName: "Button"}, nil),
	})
}

func TestBuild_JSONShape(t *testing.T) {
	r := Build("/project", sampleAggregates())

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, r, false))

	var doc map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &doc))

	assert.Equal(t, map[string]any{"base_path": "/project"}, doc["meta"])

	components := doc["components"].([]any)
	require.Len(t, components, 3)

	byName := map[string]map[string]any{}
	for _, c := range components {
		m := c.(map[string]any)
		byName[m["name"].(string)] = m
	}

	assert.Equal(t, map[string]any{"type": "internal", "canonical_path": "src/Button.tsx", "name": "app", "version": "1.0.0"}, byName["Button"]["package"])
	assert.Equal(t, map[string]any{"type": "external", "name": "@acme/ui", "version": "2.3.1"}, byName["Dialog"]["package"])
	assert.Equal(t, map[string]any{"type": "native"}, byName["div"]["package"])

	div := byName["div"]["instances"].([]any)[0].(map[string]any)
	assert.Nil(t, div["import_specifier"])
	assert.Contains(t, div, "import_specifier")
	assert.Equal(t, "src/App.tsx", div["resolved_path"])
	assert.Equal(t, map[string]any{"type": "native"}, div["package"])
	assert.Equal(t, []any{}, div["props"])
	assert.Equal(t, map[string]any{
		"start": 10.0, "end": 30.0, "start_line": 2.0, "start_col": 3.0, "end_line": 2.0, "end_col": 23.0,
	}, div["span"])

	buttons := byName["Button"]["instances"].([]any)
	require.Len(t, buttons, 2)
	withPackage := buttons[0].(map[string]any)
	assert.Equal(t, "./Button", withPackage["import_specifier"])
	assert.Equal(t, map[string]any{"type": "internal", "name": "app", "version": "1.0.0"}, withPackage["package"])
	assert.Equal(t, []any{map[string]any{"key": "onClick", "raw": "save", "prop_type": "identifier"}}, withPackage["props"])
	assert.NotContains(t, buttons[1].(map[string]any), "package")

	dialogUsages := byName["Dialog"]["props_usages"].([]any)
	assert.Equal(t, []any{map[string]any{
		"key": "open",
		"distribution": []any{map[string]any{"value": "true", "raw": "true", "prop_type": "boolean", "count": 1.0}},
	}}, dialogUsages)
}

func TestBuild_Deterministic(t *testing.T) {
	var first, second bytes.Buffer
	require.NoError(t, Write(&first, Build("/project", sampleAggregates()), true))
	require.NoError(t, Write(&second, Build("/project", sampleAggregates()), true))
	assert.Equal(t, first.String(), second.String())
}

func TestReadRoundTrip(t *testing.T) {
	r := Build("/project", sampleAggregates())
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, r, true))

	decoded, err := Read(&buf)
	require.NoError(t, err)
	assert.Equal(t, r, decoded)
}

func TestFindComponent(t *testing.T) {
	r := Build("/project", sampleAggregates())

	c, ok := r.FindComponent("button")
	require.True(t, ok)
	assert.Equal(t, "Button", c.Name)

	byID, ok := r.FindComponent(c.ID)
	require.True(t, ok)
	assert.Equal(t, c, byID)

	_, ok = r.FindComponent("Missing")
	assert.False(t, ok)
}

func TestSummarize(t *testing.T) {
	s := Build("/project", sampleAggregates()).Summarize()
	assert.Equal(t, Summary{Components: 3, Usages: 4, Internal: 1, External: 1, Native: 1}, s)
}
