package extractor

import (
	"strings"

	ts "github.com/tree-sitter/go-tree-sitter"
)

// walk visits the tree in document order, collecting element occurrences and
// variable declarators. Nested elements are collected individually.
func (w *fileWalker) walk(node *ts.Node) {
	switch node.Kind() {
	case "variable_declarator":
		w.collectDeclaration(node)
	case "jsx_element":
		if tag, ok := elementTag(node, w.source); ok {
			w.collectOccurrence(node, tag)
		}
	case "jsx_self_closing_element":
		if tag, ok := elementTag(node, w.source); ok {
			w.collectOccurrence(node, tag)
		}
	}

	for i := uint(0); i < node.ChildCount(); i++ {
		w.walk(node.Child(i))
	}
}

// fileWalker carries per-file state through a single tree walk.
type fileWalker struct {
	file   SourceFile
	source []byte
	lines  *lineIndex
	result *ParsedFile
}

func (w *fileWalker) collectDeclaration(node *ts.Node) {
	name := node.ChildByFieldName("name")
	value := node.ChildByFieldName("value")
	if name == nil || value == nil || name.Kind() != "identifier" {
		return
	}
	w.result.Declarations = append(w.result.Declarations, Declaration{
		Name:  name.Utf8Text(w.source),
		Init:  convertExpr(value, w.source),
		Start: uint32(node.StartByte()),
	})
}

func (w *fileWalker) collectOccurrence(node *ts.Node, tag TagReference) {
	opening := node
	if node.Kind() == "jsx_element" {
		opening = node.ChildByFieldName("open_tag")
		if opening == nil {
			return
		}
	}

	start, end := node.StartByte(), node.EndByte()
	occ := Occurrence{
		Location: SourceLocation{
			File: w.file,
			Span: w.lines.span(uint32(start), uint32(end)),
		},
		Tag:        tag,
		Attributes: extractAttributes(opening, w.source),
		RawText:    normalizeIndentation(string(w.source[start:end])),
	}
	if node.Kind() == "jsx_element" {
		occ.Children = extractChildren(node, w.source)
	}

	w.result.Occurrences = append(w.result.Occurrences, occ)
}

// elementTag returns the tag of a jsx_element or jsx_self_closing_element.
// Fragments have no tag.
func elementTag(node *ts.Node, source []byte) (TagReference, bool) {
	nameHolder := node
	if node.Kind() == "jsx_element" {
		nameHolder = node.ChildByFieldName("open_tag")
		if nameHolder == nil {
			return TagReference{}, false
		}
	}

	name := nameHolder.ChildByFieldName("name")
	if name == nil {
		return TagReference{}, false
	}

	switch name.Kind() {
	case "member_expression", "nested_identifier":
		parts := strings.Split(stripSpace(name.Utf8Text(source)), ".")
		if len(parts) >= 2 {
			return MemberTag(parts[0], parts[1:]...), true
		}
		return DirectTag(parts[0]), true
	case "jsx_namespace_name":
		return DirectTag(namespacedName(name, source)), true
	default:
		return DirectTag(name.Utf8Text(source)), true
	}
}

func extractAttributes(opening *ts.Node, source []byte) []Attribute {
	var attrs []Attribute
	for i := uint(0); i < opening.NamedChildCount(); i++ {
		child := opening.NamedChild(i)
		switch child.Kind() {
		case "jsx_attribute":
			if attr, ok := regularAttribute(child, source); ok {
				attrs = append(attrs, attr)
			}
		case "jsx_expression":
			if spread := spreadArgument(child); spread != nil {
				attrs = append(attrs, SpreadAttribute{Argument: convertExpr(spread, source)})
			}
		}
	}
	return attrs
}

func regularAttribute(node *ts.Node, source []byte) (RegularAttribute, bool) {
	var key string
	var valueNode *ts.Node
	for i := uint(0); i < node.NamedChildCount(); i++ {
		child := node.NamedChild(i)
		if i == 0 {
			switch child.Kind() {
			case "jsx_namespace_name":
				key = namespacedName(child, source)
			default:
				key = child.Utf8Text(source)
			}
			continue
		}
		valueNode = child
		break
	}
	if key == "" {
		return RegularAttribute{}, false
	}

	attr := RegularAttribute{Key: key, Value: BooleanImplicit{}}
	if valueNode == nil {
		return attr, true
	}

	switch valueNode.Kind() {
	case "string":
		attr.Value = StringLiteral{Value: stringContent(valueNode, source)}
	case "jsx_expression":
		attr.Value = attributeValue(containerExpr(valueNode, source))
	case "jsx_element":
		if _, ok := elementTag(valueNode, source); ok {
			attr.Value = ElementValue{}
		} else {
			attr.Value = FragmentValue{}
		}
	case "jsx_self_closing_element":
		attr.Value = ElementValue{}
	default:
		attr.Value = ExpressionValue{Raw: "<expression>", Kind: KindComplex}
	}
	return attr, true
}

// attributeValue classifies the expression of `key={expr}`.
func attributeValue(e Expr) PropValue {
	switch v := e.(type) {
	case Literal:
		return ExpressionValue{Raw: v.Raw, Kind: KindLiteral}
	case Ident:
		return ExpressionValue{Raw: v.Name, Kind: KindIdentifier}
	case Member:
		return ExpressionValue{Raw: memberRaw(v), Kind: KindMember}
	case Call:
		return ExpressionValue{Raw: CallRaw(v), Kind: KindCall}
	case Arrow:
		return ExpressionValue{Raw: "() => {}", Kind: KindArrow}
	case Conditional:
		return ExpressionValue{Raw: "<condition> ? <consequent> : <alternate>", Kind: KindConditional}
	case Element:
		return ElementValue{}
	case Fragment:
		return FragmentValue{}
	case Empty:
		return ExpressionValue{Raw: "", Kind: KindComplex}
	default:
		return ExpressionValue{Raw: "<expression>", Kind: KindComplex}
	}
}

func memberRaw(m Member) string {
	object := "<expr>"
	if name, ok := IdentName(m.Object); ok {
		object = name
	}
	switch {
	case m.Computed:
		return object + "[<computed>]"
	case m.Private:
		return object + ".#" + m.Property
	default:
		return object + "." + m.Property
	}
}

// StaticMemberRaw renders `obj.prop`, or `<expr>.prop` when the object is
// not a plain identifier.
func StaticMemberRaw(m Member) string {
	return memberRaw(Member{Object: m.Object, Property: m.Property})
}

// CallRaw renders `fn()`, or `<fn>()` when the callee is not a plain
// identifier.
func CallRaw(c Call) string {
	if name, ok := IdentName(c.Callee); ok {
		return name + "()"
	}
	return "<fn>()"
}

// childExpression classifies `{expr}` inside element children.
func childExpression(e Expr) ChildNode {
	switch v := e.(type) {
	case Literal:
		if v.Kind == LiteralBigInt {
			return ExpressionChild{Raw: "<expression>", Kind: KindComplex}
		}
		return ExpressionChild{Raw: v.Raw, Kind: KindLiteral}
	case Ident:
		return ExpressionChild{Raw: v.Name, Kind: KindIdentifier}
	case Element:
		name := v.Tag.DisplayName()
		return ElementChild{Tag: name, Raw: "<" + name + " />"}
	case Fragment:
		return FragmentChild{}
	case Conditional:
		return ExpressionChild{Raw: "<conditional>", Kind: KindConditional}
	case Arrow:
		return ExpressionChild{Raw: "() => {}", Kind: KindArrow}
	default:
		return ExpressionChild{Raw: "<expression>", Kind: KindComplex}
	}
}

// extractChildren collects the children of a jsx_element. Adjacent text and
// character references form one text run; whitespace-only runs are dropped.
func extractChildren(node *ts.Node, source []byte) []ChildNode {
	var children []ChildNode
	runStart, runEnd := -1, -1

	flushText := func() {
		if runStart < 0 {
			return
		}
		if text := normalizeText(string(source[runStart:runEnd])); text != "" {
			children = append(children, TextChild{Text: text})
		}
		runStart, runEnd = -1, -1
	}

	for i := uint(0); i < node.NamedChildCount(); i++ {
		child := node.NamedChild(i)
		switch child.Kind() {
		case "jsx_text", "html_character_reference":
			if runStart < 0 {
				runStart = int(child.StartByte())
			}
			runEnd = int(child.EndByte())
			continue
		case "jsx_opening_element", "jsx_closing_element":
			continue
		}

		flushText()

		switch child.Kind() {
		case "jsx_element":
			if tag, ok := elementTag(child, source); ok {
				children = append(children, ElementChild{
					Tag: tag.DisplayName(),
					Raw: normalizeIndentation(child.Utf8Text(source)),
				})
			} else {
				children = append(children, FragmentChild{})
			}
		case "jsx_self_closing_element":
			tag, _ := elementTag(child, source)
			children = append(children, ElementChild{
				Tag: tag.DisplayName(),
				Raw: normalizeIndentation(child.Utf8Text(source)),
			})
		case "jsx_expression":
			if spreadArgument(child) != nil {
				children = append(children, ExpressionChild{Raw: "...spread", Kind: KindComplex})
				continue
			}
			children = append(children, childExpression(containerExpr(child, source)))
		}
	}
	flushText()

	return children
}

// containerExpr returns the expression inside `{...}`, or Empty.
func containerExpr(node *ts.Node, source []byte) Expr {
	inner := firstNamedChild(node)
	if inner == nil {
		return Empty{}
	}
	return convertExpr(inner, source)
}

// spreadArgument returns the argument of `{...arg}`, or nil when the
// container is not a spread.
func spreadArgument(node *ts.Node) *ts.Node {
	inner := firstNamedChild(node)
	if inner == nil || inner.Kind() != "spread_element" {
		return nil
	}
	return firstNamedChild(inner)
}

func namespacedName(node *ts.Node, source []byte) string {
	var parts []string
	for i := uint(0); i < node.NamedChildCount(); i++ {
		parts = append(parts, node.NamedChild(i).Utf8Text(source))
	}
	if len(parts) == 0 {
		return stripSpace(node.Utf8Text(source))
	}
	return strings.Join(parts, ":")
}

func stripSpace(s string) string {
	return strings.Join(strings.Fields(s), "")
}
