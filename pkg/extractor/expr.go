package extractor

import (
	"strings"

	ts "github.com/tree-sitter/go-tree-sitter"
)

// Expr is the reduced expression model used for attribute values, children,
// spread arguments and declarator initializers. Only the shapes that the
// analysis distinguishes are modeled; everything else is Other.
type Expr interface {
	expr()
}

// LiteralKind distinguishes literal expressions.
type LiteralKind int

const (
	LiteralString LiteralKind = iota
	LiteralNumber
	LiteralBigInt
	LiteralBoolean
	LiteralNull
)

// Literal is a string, number, bigint, boolean or null literal. Raw is the
// unquoted content for strings and the source text otherwise.
type Literal struct {
	Kind LiteralKind
	Raw  string
}

// Ident is an identifier reference.
type Ident struct {
	Name string
}

// Member is `obj.prop`, `obj[expr]` (Computed) or `obj.#field` (Private).
type Member struct {
	Object   Expr
	Property string
	Computed bool
	Private  bool
}

// Call is `callee(...)`.
type Call struct {
	Callee Expr
}

// Arrow is an arrow function.
type Arrow struct{}

// Conditional is `test ? consequent : alternate`.
type Conditional struct {
	Consequent Expr
	Alternate  Expr
}

// Paren is `(inner)`.
type Paren struct {
	Inner Expr
}

// ObjectMember is one member of an object literal. Skip marks members that
// carry no static key (computed or numeric keys, nested spreads).
type ObjectMember struct {
	Key   string
	Value Expr
	Skip  bool
}

// Object is an object literal.
type Object struct {
	Members []ObjectMember
}

// Element is a JSX element used as an expression.
type Element struct {
	Tag TagReference
}

// Fragment is a JSX fragment used as an expression.
type Fragment struct{}

// Empty is an expression container with nothing (or only comments) inside.
type Empty struct{}

// Other is any expression shape not modeled above.
type Other struct{}

func (Literal) expr()     {}
func (Ident) expr()       {}
func (Member) expr()      {}
func (Call) expr()        {}
func (Arrow) expr()       {}
func (Conditional) expr() {}
func (Paren) expr()       {}
func (Object) expr()      {}
func (Element) expr()     {}
func (Fragment) expr()    {}
func (Empty) expr()       {}
func (Other) expr()       {}

// IdentName returns the name when e is an identifier.
func IdentName(e Expr) (string, bool) {
	id, ok := e.(Ident)
	return id.Name, ok
}

// convertExpr maps a tree-sitter expression node to Expr.
func convertExpr(node *ts.Node, source []byte) Expr {
	if node == nil {
		return Other{}
	}

	switch node.Kind() {
	case "string":
		return Literal{Kind: LiteralString, Raw: stringContent(node, source)}
	case "number":
		text := node.Utf8Text(source)
		if strings.HasSuffix(text, "n") {
			return Literal{Kind: LiteralBigInt, Raw: text}
		}
		return Literal{Kind: LiteralNumber, Raw: text}
	case "true", "false":
		return Literal{Kind: LiteralBoolean, Raw: node.Kind()}
	case "null":
		return Literal{Kind: LiteralNull, Raw: "null"}
	case "identifier", "undefined":
		return Ident{Name: node.Utf8Text(source)}
	case "member_expression":
		if hasChildKind(node, "optional_chain") {
			return Other{}
		}
		prop := node.ChildByFieldName("property")
		if prop == nil {
			return Other{}
		}
		return Member{
			Object:   convertExpr(node.ChildByFieldName("object"), source),
			Property: strings.TrimPrefix(prop.Utf8Text(source), "#"),
			Private:  prop.Kind() == "private_property_identifier",
		}
	case "subscript_expression":
		if hasChildKind(node, "optional_chain") {
			return Other{}
		}
		return Member{
			Object:   convertExpr(node.ChildByFieldName("object"), source),
			Computed: true,
		}
	case "call_expression":
		if hasChildKind(node, "optional_chain") {
			return Other{}
		}
		if args := node.ChildByFieldName("arguments"); args != nil && args.Kind() == "template_string" {
			return Other{}
		}
		return Call{Callee: convertExpr(node.ChildByFieldName("function"), source)}
	case "arrow_function":
		return Arrow{}
	case "ternary_expression":
		return Conditional{
			Consequent: convertExpr(node.ChildByFieldName("consequence"), source),
			Alternate:  convertExpr(node.ChildByFieldName("alternative"), source),
		}
	case "parenthesized_expression":
		inner := firstNamedChild(node)
		if inner == nil || inner.Kind() == "sequence_expression" {
			return Paren{Inner: Other{}}
		}
		return Paren{Inner: convertExpr(inner, source)}
	case "object":
		return Object{Members: convertObjectMembers(node, source)}
	case "jsx_element":
		if tag, ok := elementTag(node, source); ok {
			return Element{Tag: tag}
		}
		return Fragment{}
	case "jsx_self_closing_element":
		tag, _ := elementTag(node, source)
		return Element{Tag: tag}
	default:
		return Other{}
	}
}

func convertObjectMembers(node *ts.Node, source []byte) []ObjectMember {
	var members []ObjectMember
	for i := uint(0); i < node.NamedChildCount(); i++ {
		child := node.NamedChild(i)
		switch child.Kind() {
		case "pair":
			key, ok := propertyKey(child.ChildByFieldName("key"), source)
			if !ok {
				members = append(members, ObjectMember{Skip: true})
				continue
			}
			members = append(members, ObjectMember{
				Key:   key,
				Value: convertExpr(child.ChildByFieldName("value"), source),
			})
		case "shorthand_property_identifier":
			name := child.Utf8Text(source)
			members = append(members, ObjectMember{Key: name, Value: Ident{Name: name}})
		case "method_definition":
			key, ok := propertyKey(child.ChildByFieldName("name"), source)
			if !ok {
				members = append(members, ObjectMember{Skip: true})
				continue
			}
			members = append(members, ObjectMember{Key: key, Value: Other{}})
		case "spread_element":
			members = append(members, ObjectMember{Skip: true})
		}
	}
	return members
}

// propertyKey returns the static name of an object key. Computed, numeric
// and private keys have none.
func propertyKey(node *ts.Node, source []byte) (string, bool) {
	if node == nil {
		return "", false
	}
	switch node.Kind() {
	case "property_identifier", "identifier":
		return node.Utf8Text(source), true
	case "string":
		return stringContent(node, source), true
	default:
		return "", false
	}
}

// stringContent returns a string literal's text without the quotes.
func stringContent(node *ts.Node, source []byte) string {
	text := node.Utf8Text(source)
	if len(text) >= 2 {
		q := text[0]
		if (q == '"' || q == '\'' || q == '`') && text[len(text)-1] == q {
			return text[1 : len(text)-1]
		}
	}
	return text
}

func hasChildKind(node *ts.Node, kind string) bool {
	for i := uint(0); i < node.ChildCount(); i++ {
		if node.Child(i).Kind() == kind {
			return true
		}
	}
	return false
}

// firstNamedChild skips comments.
func firstNamedChild(node *ts.Node) *ts.Node {
	for i := uint(0); i < node.NamedChildCount(); i++ {
		child := node.NamedChild(i)
		if child.Kind() != "comment" {
			return child
		}
	}
	return nil
}
