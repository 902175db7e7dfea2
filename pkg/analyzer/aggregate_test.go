package analyzer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gnana997/cuin/pkg/extractor"
	"github.com/gnana997/cuin/pkg/resolver"
)

func usageAt(identity ComponentIdentity, path string, start uint32, tag extractor.TagReference, props ...SimplifiedProp) ComponentUsage {
	location := extractor.SourceLocation{
		File: extractor.NewSourceFile(projectRoot+"/"+path, projectRoot),
		Span: extractor.Span{Start: start, End: start + 10},
	}
	return ComponentUsage{
		Definition: ComponentDefinition{Identity: identity, Location: &location},
		Occurrence: &extractor.Occurrence{Location: location, Tag: tag},
		Props:      props,
	}
}

func prop(key, pattern string, value *string, raw string) SimplifiedProp {
	return SimplifiedProp{Key: key, Pattern: pattern, Value: value, Raw: raw}
}

func TestGroupByIdentity(t *testing.T) {
	button := ComponentIdentity{
		Source:  InternalSource{CanonicalPath: "src/Button.tsx"},
		Export:  DirectExport{Name: "Button"},
		Package: appPackage,
	}
	div := NativeIdentity("div")

	usages := []ComponentUsage{
		usageAt(button, "src/b.tsx", 40, extractor.DirectTag("Button"),
			prop("variant", "string", strPtr("primary"), "primary")),
		usageAt(div, "src/a.tsx", 0, extractor.DirectTag("div")),
		usageAt(button, "src/a.tsx", 90, extractor.DirectTag("Button"),
			prop("variant", "string", strPtr("primary"), "primary"),
			prop("disabled", "boolean", strPtr("true"), "true")),
		usageAt(button, "src/a.tsx", 10, extractor.DirectTag("Button"),
			prop("variant", "identifier", nil, "kind")),
	}

	aggregates := GroupByIdentity(usages)
	require.Len(t, aggregates, 2)

	assert.Equal(t, "Button", aggregates[0].DisplayName)
	assert.Equal(t, "div", aggregates[1].DisplayName)

	agg := aggregates[0]
	assert.Equal(t, button, agg.Identity)
	assert.Equal(t, GenerateID(button), agg.ID)
	assert.Equal(t, 3, agg.Statistics.TotalCount)

	var order []string
	for _, u := range agg.Usages {
		order = append(order, u.File().DisplayPath())
	}
	assert.Equal(t, []string{"src/a.tsx", "src/a.tsx", "src/b.tsx"}, order)
	assert.Equal(t, uint32(10), agg.Usages[0].Occurrence.Location.Span.Start)

	require.Len(t, agg.Statistics.PropPatterns, 2)
	assert.Equal(t, PropPattern{Key: "disabled", Distribution: []ValueDistribution{
		{Pattern: "boolean", Value: strPtr("true"), Raw: "true", Count: 1},
	}}, agg.Statistics.PropPatterns[0])
	assert.Equal(t, PropPattern{Key: "variant", Distribution: []ValueDistribution{
		{Pattern: "identifier", Raw: "kind", Count: 1},
		{Pattern: "string", Value: strPtr("primary"), Raw: "primary", Count: 2},
	}}, agg.Statistics.PropPatterns[1])
}

func TestGroupByIdentity_DistributionOrder(t *testing.T) {
	id := NativeIdentity("input")
	tag := extractor.DirectTag("input")

	usages := []ComponentUsage{
		usageAt(id, "a.tsx", 0, tag, prop("value", "literal", strPtr("1"), "1")),
		usageAt(id, "a.tsx", 1, tag, prop("value", "expression", nil, "1")),
		usageAt(id, "a.tsx", 2, tag, prop("value", "string", strPtr("1"), "1")),
		usageAt(id, "a.tsx", 3, tag, prop("value", "string", strPtr("0"), "1")),
		usageAt(id, "a.tsx", 4, tag, prop("value", "identifier", nil, "0")),
	}

	aggregates := GroupByIdentity(usages)
	require.Len(t, aggregates, 1)
	dist := aggregates[0].Statistics.PropPatterns[0].Distribution

	assert.Equal(t, []ValueDistribution{
		{Pattern: "identifier", Raw: "0", Count: 1},
		{Pattern: "expression", Raw: "1", Count: 1},
		{Pattern: "string", Value: strPtr("0"), Raw: "1", Count: 1},
		{Pattern: "literal", Value: strPtr("1"), Raw: "1", Count: 1},
		{Pattern: "string", Value: strPtr("1"), Raw: "1", Count: 1},
	}, dist)
}

func TestGroupByIdentity_DisplayNames(t *testing.T) {
	card := ComponentIdentity{
		Source:  InternalSource{CanonicalPath: "src/Card.tsx"},
		Export:  DirectExport{Name: "default"},
		Package: appPackage,
	}
	field := ComponentIdentity{
		Source:  ExternalSource{Package: uiPackage},
		Export:  MemberExport{Object: "Form", Property: "Field"},
		Package: uiPackage,
	}

	aggregates := GroupByIdentity([]ComponentUsage{
		usageAt(card, "src/z.tsx", 5, extractor.DirectTag("ProfileCard")),
		usageAt(card, "src/a.tsx", 5, extractor.DirectTag("Card")),
		usageAt(field, "src/a.tsx", 50, extractor.MemberTag("UI", "Form", "Field", "Label")),
	})
	require.Len(t, aggregates, 2)

	names := map[string]bool{}
	for _, agg := range aggregates {
		names[agg.DisplayName] = true
	}
	// The default export is named after the tag of its first sorted usage.
	assert.Equal(t, map[string]bool{"Card": true, "Form.Field": true}, names)
}

func TestGroupByIdentity_Empty(t *testing.T) {
	assert.Empty(t, GroupByIdentity(nil))
}

func TestGenerateID(t *testing.T) {
	internal := ComponentIdentity{
		Source:  InternalSource{CanonicalPath: "src/Button.tsx"},
		Export:  DirectExport{Name: "Button"},
		Package: appPackage,
	}

	id := GenerateID(internal)
	assert.Len(t, id, 16)
	assert.Regexp(t, "^[0-9a-f]{16}$", id)
	assert.Equal(t, id, GenerateID(internal), "pure function of the identity")

	copied := internal
	assert.Equal(t, id, GenerateID(copied))

	variants := []ComponentIdentity{
		{Source: InternalSource{CanonicalPath: "src/Button.tsx"}, Export: DirectExport{Name: "IconButton"}, Package: appPackage},
		{Source: InternalSource{CanonicalPath: "src/button.tsx"}, Export: DirectExport{Name: "Button"}, Package: appPackage},
		{Source: InternalSource{CanonicalPath: "src/Button.tsx"}, Export: DirectExport{Name: "Button"}, Package: resolver.Package{Name: "app", Version: "1.0.1"}},
		{Source: ExternalSource{Package: appPackage}, Export: DirectExport{Name: "Button"}, Package: appPackage},
		{Source: InternalSource{CanonicalPath: "src/Button.tsx"}, Export: MemberExport{Object: "Button", Property: ""}, Package: appPackage},
		NativeIdentity("Button"),
	}
	seen := map[string]bool{id: true}
	for _, v := range variants {
		vid := GenerateID(v)
		assert.False(t, seen[vid], "collision for %+v", v)
		seen[vid] = true
	}
}

func TestComponentIdentity_MapKey(t *testing.T) {
	a := ComponentIdentity{Source: ExternalSource{Package: uiPackage}, Export: DirectExport{Name: "Dialog"}, Package: uiPackage}
	b := ComponentIdentity{Source: ExternalSource{Package: resolver.Package{Name: "@acme/ui", Version: "2.3.1"}}, Export: DirectExport{Name: "Dialog"}, Package: uiPackage}

	m := map[ComponentIdentity]int{a: 1}
	m[b]++
	assert.Equal(t, map[ComponentIdentity]int{a: 2}, m)
}
