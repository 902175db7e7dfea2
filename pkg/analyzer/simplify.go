package analyzer

import (
	"strings"

	"github.com/gnana997/cuin/pkg/extractor"
)

// Pattern labels.
const (
	PatternString     = "string"
	PatternBoolean    = "boolean"
	PatternJSX        = "jsx"
	PatternFragment   = "fragment"
	PatternMixed      = "mixed"
	PatternExpression = "expression"
	PatternSpread     = "spread"
)

// Reserved prop keys.
const (
	ChildrenKey = "children"
	SpreadKey   = "(spread)"
)

// SimplifiedProp is one normalized prop observation. Value is set only for
// statically certain content.
type SimplifiedProp struct {
	Key     string
	Pattern string
	Value   *string
	Raw     string
}

func strPtr(s string) *string { return &s }

// SimplifyProp classifies a regular attribute value.
func SimplifyProp(key string, value extractor.PropValue) SimplifiedProp {
	p := SimplifiedProp{Key: key}

	switch v := value.(type) {
	case extractor.StringLiteral:
		p.Pattern, p.Value, p.Raw = PatternString, strPtr(v.Value), v.Value
	case extractor.BooleanImplicit:
		p.Pattern, p.Value, p.Raw = PatternBoolean, strPtr("true"), "true"
	case extractor.ExpressionValue:
		p.Pattern, p.Raw = v.Kind.String(), v.Raw
		if v.Kind == extractor.KindLiteral {
			p.Value = strPtr(v.Raw)
		}
	case extractor.ElementValue:
		p.Pattern, p.Raw = PatternJSX, "jsx"
	case extractor.FragmentValue:
		p.Pattern, p.Raw = PatternFragment, "fragment"
	case extractor.MixedValue:
		p.Pattern, p.Raw = PatternMixed, v.Raw
	default:
		panic("analyzer: unhandled prop value")
	}

	return p
}

// ChildrenProp synthesizes the "children" prop. It returns false when there
// are no children.
//
// One kind of child gives that kind's pattern; several kinds give "mixed"
// with the source-ordered concatenation of every child's raw form.
func ChildrenProp(children []extractor.ChildNode) (SimplifiedProp, bool) {
	if len(children) == 0 {
		return SimplifiedProp{}, false
	}

	var hasText, hasJSX, hasFragment, hasExpression bool
	var text strings.Builder
	for _, child := range children {
		switch c := child.(type) {
		case extractor.TextChild:
			hasText = true
			text.WriteString(c.Text)
		case extractor.ElementChild:
			hasJSX = true
		case extractor.FragmentChild:
			hasFragment = true
		case extractor.ExpressionChild:
			hasExpression = true
		default:
			panic("analyzer: unhandled child node")
		}
	}

	kinds := 0
	for _, has := range []bool{hasText, hasJSX, hasFragment, hasExpression} {
		if has {
			kinds++
		}
	}

	p := SimplifiedProp{Key: ChildrenKey}
	switch {
	case kinds > 1:
		p.Pattern, p.Raw = PatternMixed, concatRaw(children)
	case hasText:
		p.Pattern, p.Value, p.Raw = PatternString, strPtr(text.String()), text.String()
	case hasJSX:
		p.Pattern, p.Raw = PatternJSX, concatRaw(children)
	case hasFragment:
		p.Pattern, p.Raw = PatternFragment, "fragment"
	default:
		p.Pattern, p.Raw = PatternExpression, concatRaw(children)
	}
	return p, true
}

func concatRaw(children []extractor.ChildNode) string {
	var b strings.Builder
	for _, child := range children {
		b.WriteString(child.RawText())
	}
	return b.String()
}
