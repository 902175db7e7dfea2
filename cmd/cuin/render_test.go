package main

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/gnana997/cuin/pkg/extractor"
	"github.com/gnana997/cuin/pkg/history"
	"github.com/gnana997/cuin/pkg/report"
	"github.com/gnana997/cuin/pkg/scanner"
	"github.com/gnana997/cuin/pkg/service"
)

func spanAt(line uint32) extractor.Span {
	return extractor.Span{StartLine: line, StartCol: 1, EndLine: line, EndCol: 10}
}

func sampleComponent(name string, uses int, ref report.PackageRef) report.Component {
	c := report.Component{ID: strings.ToLower(name) + "-id", Name: name, Package: ref, PropsUsages: []report.PropUsage{}}
	for i := range uses {
		c.Instances = append(c.Instances, report.Instance{
			FilePath: "src/App.tsx",
			Raw:      "<" + name + " />",
			Span:     spanAt(uint32(i + 1)),
		})
	}
	return c
}

func TestRenderSummary(t *testing.T) {
	res := &service.Result{
		Report: &report.Report{
			Meta: report.Meta{BasePath: "/work/app"},
			Components: []report.Component{
				sampleComponent("Card", 1, report.PackageRef{Type: report.TypeExternal, Name: "@acme/ui", Version: "2.1.0"}),
				sampleComponent("div", 5, report.PackageRef{Type: report.TypeNative}),
			},
		},
		Files:    3,
		Stats:    scanner.RunStats{FilesFailed: 1},
		Duration: 12 * time.Millisecond,
	}

	out := renderSummary(res)
	assert.Contains(t, out, "/work/app")
	assert.Contains(t, out, "3 files, 2 components (0 internal, 1 external, 1 native), 6 usages")
	assert.Contains(t, out, "1 files failed")
	assert.Contains(t, out, "@acme/ui@2.1.0")
	// Most used first.
	assert.Less(t, strings.Index(out, "div"), strings.Index(out, "Card"))
}

func TestRenderSummary_Empty(t *testing.T) {
	res := &service.Result{Report: &report.Report{Meta: report.Meta{BasePath: "/work/app"}}}
	assert.Contains(t, renderSummary(res), "No components found")
}

func TestRenderComponent(t *testing.T) {
	primary, ghost := "primary", "ghost"
	c := sampleComponent("Button", 3, report.PackageRef{Type: report.TypeInternal, CanonicalPath: "src/Button.tsx"})
	c.PropsUsages = []report.PropUsage{{
		Key: "variant",
		Distribution: []report.Distribution{
			{Value: &ghost, Raw: "ghost", PropType: "string", Count: 1},
			{Value: &primary, Raw: "primary", PropType: "string", Count: 2},
		},
	}}

	out := renderComponent(&c, 2)
	assert.Contains(t, out, "from src/Button.tsx")
	assert.Contains(t, out, "primary ×2 | ghost ×1")
	assert.Contains(t, out, "Usages  (3)")
	assert.Contains(t, out, "src/App.tsx:2:1  <Button />")
	assert.NotContains(t, out, "src/App.tsx:3:1")
	assert.Contains(t, out, "... 1 more")
}

func TestRenderComponent_NoProps(t *testing.T) {
	c := sampleComponent("span", 1, report.PackageRef{Type: report.TypeNative})
	out := renderComponent(&c, 0)
	assert.Contains(t, out, "Props  (none)")
	assert.NotContains(t, out, "from ")
}

func TestRenderHistory(t *testing.T) {
	assert.Equal(t, "No runs recorded", renderHistory(nil))

	out := renderHistory([]history.Snapshot{{
		Timestamp:       time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
		FileCount:       10,
		FailedFileCount: 2,
		ComponentCount:  4,
		UsageCount:      12,
		DurationMs:      1500,
	}})
	assert.Contains(t, out, "10 (2 failed)")
	assert.Contains(t, out, "1.5s")
}

func TestPropKeys(t *testing.T) {
	usages := []report.PropUsage{{Key: "a"}, {Key: "b"}, {Key: "c"}}
	assert.Equal(t, "-", propKeys(nil, 2))
	assert.Equal(t, "a, b, c", propKeys(usages, 4))
	assert.Equal(t, "a, b +1", propKeys(usages, 2))
}

func TestWrapValues(t *testing.T) {
	assert.Equal(t, "aa | bb", wrapValues([]string{"aa", "bb"}, 20))
	assert.Equal(t, "aaaa | bbbb\ncccc", wrapValues([]string{"aaaa", "bbbb", "cccc"}, 12))
}

func TestDistributionLabels_Truncates(t *testing.T) {
	var dist []report.Distribution
	for i := range maxValuesShown + 2 {
		dist = append(dist, report.Distribution{Raw: string(rune('a' + i)), Count: 1})
	}
	labels := distributionLabels(dist)
	assert.Len(t, labels, maxValuesShown+1)
	assert.Equal(t, "+2 more", labels[maxValuesShown])
}

func TestSourceLabel(t *testing.T) {
	assert.Equal(t, "", sourceLabel(report.PackageRef{Type: report.TypeNative}))
	assert.Equal(t, "src/Button.tsx", sourceLabel(report.PackageRef{Type: report.TypeInternal, CanonicalPath: "src/Button.tsx"}))
	assert.Equal(t, "react", sourceLabel(report.PackageRef{Type: report.TypeExternal, Name: "react"}))
}

func TestFirstLine(t *testing.T) {
	assert.Equal(t, "<A />", firstLine("<A />"))
	assert.Equal(t, "<A ...", firstLine("<A\n  b />"))
}
