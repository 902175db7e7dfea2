package analyzer

import (
	"github.com/gnana997/cuin/pkg/extractor"
)

// Spread sources reported for spreads that are not plain identifiers.
const (
	inlineSource      = "<inline>"
	conditionalSource = "<conditional>"
	expressionSource  = "<expression>"
)

// variableValue is what the tracker knows about a variable: the properties
// of an object literal, or nothing (props == nil and known == false).
type variableValue struct {
	known bool
	props []SimplifiedProp
}

// Tracker is the per-file variable value tracker used to expand spread
// attributes. It holds one flat name → value map; later declarations
// overwrite earlier ones regardless of scope.
//
// Declarations are applied lazily in document order: AdvanceTo(offset)
// makes every declarator starting before offset visible.
type Tracker struct {
	values map[string]variableValue
	decls  []extractor.Declaration
	next   int
}

// NewTracker creates a tracker over decls, which must be in document order.
func NewTracker(decls []extractor.Declaration) *Tracker {
	return &Tracker{
		values: make(map[string]variableValue, len(decls)),
		decls:  decls,
	}
}

// AdvanceTo applies every pending declaration that starts before offset.
func (t *Tracker) AdvanceTo(offset uint32) {
	for t.next < len(t.decls) && t.decls[t.next].Start < offset {
		d := t.decls[t.next]
		t.Declare(d.Name, d.Init)
		t.next++
	}
}

// Declare records name = init immediately.
func (t *Tracker) Declare(name string, init extractor.Expr) {
	t.values[name] = analyzeVariable(init)
}

// Lookup returns the object properties recorded for name. It returns false
// when name is unknown or its initializer was not analyzable.
func (t *Tracker) Lookup(name string) ([]SimplifiedProp, bool) {
	v, ok := t.values[name]
	if !ok || !v.known {
		return nil, false
	}
	return v.props, true
}

// ResolveSpread expands a spread argument into props. When the argument
// cannot be resolved statically, the result is a single `(spread)` prop
// whose raw names the spread's source.
func (t *Tracker) ResolveSpread(arg extractor.Expr) []SimplifiedProp {
	source, props, ok := t.resolveSpread(arg)
	if ok {
		return props
	}
	return []SimplifiedProp{{Key: SpreadKey, Pattern: PatternSpread, Raw: source}}
}

func (t *Tracker) resolveSpread(arg extractor.Expr) (string, []SimplifiedProp, bool) {
	switch e := arg.(type) {
	case extractor.Paren:
		return t.resolveSpread(e.Inner)
	case extractor.Object:
		return inlineSource, objectProps(e), true
	case extractor.Ident:
		props, ok := t.Lookup(e.Name)
		return e.Name, props, ok
	case extractor.Member:
		if e.Computed || e.Private {
			return expressionSource, nil, false
		}
		if name, ok := extractor.IdentName(e.Object); ok {
			return name + "." + e.Property, nil, false
		}
		return "<expr>.<member>", nil, false
	case extractor.Call:
		return extractor.CallRaw(e), nil, false
	case extractor.Conditional:
		_, consequent, okC := t.resolveSpread(e.Consequent)
		_, alternate, okA := t.resolveSpread(e.Alternate)
		if !okC || !okA {
			return conditionalSource, nil, false
		}
		merged := make([]SimplifiedProp, 0, len(consequent)+len(alternate))
		merged = append(merged, consequent...)
		merged = append(merged, alternate...)
		return conditionalSource, merged, true
	default:
		return expressionSource, nil, false
	}
}

// analyzeVariable classifies a declarator initializer. Only object
// literals, parenthesized values and conditionals with two analyzable
// branches are understood.
func analyzeVariable(init extractor.Expr) variableValue {
	switch e := init.(type) {
	case extractor.Paren:
		return analyzeVariable(e.Inner)
	case extractor.Object:
		return variableValue{known: true, props: objectProps(e)}
	case extractor.Conditional:
		consequent := analyzeVariable(e.Consequent)
		alternate := analyzeVariable(e.Alternate)
		if !consequent.known || !alternate.known {
			return variableValue{}
		}
		// Duplicate keys from the two branches are kept.
		merged := make([]SimplifiedProp, 0, len(consequent.props)+len(alternate.props))
		merged = append(merged, consequent.props...)
		merged = append(merged, alternate.props...)
		return variableValue{known: true, props: merged}
	default:
		return variableValue{}
	}
}

func objectProps(obj extractor.Object) []SimplifiedProp {
	props := make([]SimplifiedProp, 0, len(obj.Members))
	for _, m := range obj.Members {
		if m.Skip {
			continue
		}
		props = append(props, objectProperty(m.Key, m.Value))
	}
	return props
}

// objectProperty classifies the value of one object literal property.
func objectProperty(key string, value extractor.Expr) SimplifiedProp {
	p := SimplifiedProp{Key: key}

	switch v := value.(type) {
	case extractor.Literal:
		switch v.Kind {
		case extractor.LiteralString:
			p.Pattern, p.Value, p.Raw = PatternString, strPtr(v.Raw), v.Raw
		case extractor.LiteralBigInt:
			p.Pattern, p.Raw = PatternExpression, expressionSource
		default:
			p.Pattern, p.Value, p.Raw = extractor.KindLiteral.String(), strPtr(v.Raw), v.Raw
		}
	case extractor.Ident:
		p.Pattern, p.Raw = extractor.KindIdentifier.String(), v.Name
	case extractor.Member:
		if v.Computed || v.Private {
			p.Pattern, p.Raw = PatternExpression, expressionSource
		} else {
			p.Pattern, p.Raw = extractor.KindMember.String(), extractor.StaticMemberRaw(v)
		}
	case extractor.Arrow:
		p.Pattern, p.Raw = extractor.KindArrow.String(), "() => {}"
	case extractor.Call:
		p.Pattern, p.Raw = extractor.KindCall.String(), extractor.CallRaw(v)
	default:
		p.Pattern, p.Raw = PatternExpression, expressionSource
	}

	return p
}
