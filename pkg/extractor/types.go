// Package extractor turns one JS/TS source file into raw JSX occurrence
// facts: every element usage with its attributes and children, the file's
// import bindings, and the variable declarators needed to resolve spreads.
//
// Each file is parsed ONCE; all facts come from a single walk of the tree.
package extractor

import (
	"path/filepath"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/gnana997/cuin/pkg/parser"
)

// SourceFile identifies an analyzed file.
type SourceFile struct {
	Canonical string // absolute, symlinks resolved
	Relative  string // relative to the project root; empty when outside it
}

// NewSourceFile builds a SourceFile for canonical under root.
func NewSourceFile(canonical, root string) SourceFile {
	f := SourceFile{Canonical: canonical}
	if rel, err := filepath.Rel(root, canonical); err == nil && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		f.Relative = rel
	}
	return f
}

// DisplayPath is the path shown in reports: relative to the project root
// when possible, otherwise the canonical path.
func (f SourceFile) DisplayPath() string {
	if f.Relative != "" {
		return filepath.ToSlash(f.Relative)
	}
	return f.Canonical
}

// Span is the position of a syntax node.
//
// Start and End are 0-based byte offsets (End exclusive). Lines and columns
// are 1-based; columns count characters, not bytes.
type Span struct {
	Start     uint32 `json:"start"`
	End       uint32 `json:"end"`
	StartLine uint32 `json:"start_line"`
	StartCol  uint32 `json:"start_col"`
	EndLine   uint32 `json:"end_line"`
	EndCol    uint32 `json:"end_col"`
}

// SourceLocation is a span within a file.
type SourceLocation struct {
	File SourceFile
	Span Span
}

// ModuleSpecifier is the literal string of an import statement.
type ModuleSpecifier string

// IsRelative reports whether the specifier is a path rather than a package.
func (s ModuleSpecifier) IsRelative() bool {
	return strings.HasPrefix(string(s), ".") || strings.HasPrefix(string(s), "/")
}

// ImportedName is what an import binding pulls from its module:
// NamedImport, DefaultImport or NamespaceImport.
type ImportedName interface {
	importedName()
}

// NamedImport is `import { Name } from "..."` (possibly aliased).
type NamedImport struct {
	Name string
}

// DefaultImport is `import Name from "..."`.
type DefaultImport struct{}

// NamespaceImport is `import * as Name from "..."`.
type NamespaceImport struct{}

func (NamedImport) importedName()     {}
func (DefaultImport) importedName()   {}
func (NamespaceImport) importedName() {}

// ImportBinding is one local name introduced by an import statement.
type ImportBinding struct {
	Source    ModuleSpecifier
	Imported  ImportedName
	LocalName string
}

// TagReference is the name of an element: Direct when Members is empty
// (`Button`, `div`, `svg:rect`), a member access otherwise (`Icons.Spinner`).
type TagReference struct {
	Object  string
	Members []string
}

// DirectTag returns a direct tag reference.
func DirectTag(name string) TagReference {
	return TagReference{Object: name}
}

// MemberTag returns a member access tag reference.
func MemberTag(object string, members ...string) TagReference {
	return TagReference{Object: object, Members: members}
}

// IsDirect reports whether the tag is a plain name.
func (t TagReference) IsDirect() bool {
	return len(t.Members) == 0
}

// Identifier is the name looked up in the import list: the tag itself, or
// the object of a member access.
func (t TagReference) Identifier() string {
	return t.Object
}

// DisplayName renders the tag as written, members joined with dots.
func (t TagReference) DisplayName() string {
	if t.IsDirect() {
		return t.Object
	}
	return t.Object + "." + strings.Join(t.Members, ".")
}

// IsNative reports whether the tag is a platform element: a direct tag
// starting with a lowercase letter.
func (t TagReference) IsNative() bool {
	if !t.IsDirect() {
		return false
	}
	r, _ := utf8.DecodeRuneInString(t.Object)
	return r != utf8.RuneError && unicode.IsLower(r)
}

// ExpressionKind classifies an expression used as a prop value or child.
type ExpressionKind int

const (
	KindLiteral ExpressionKind = iota
	KindIdentifier
	KindMember
	KindCall
	KindArrow
	KindConditional
	KindComplex
)

// String returns the pattern label of the kind.
func (k ExpressionKind) String() string {
	switch k {
	case KindLiteral:
		return "literal"
	case KindIdentifier:
		return "identifier"
	case KindMember:
		return "member"
	case KindCall:
		return "call"
	case KindArrow:
		return "arrow"
	case KindConditional:
		return "conditional"
	default:
		return "expression"
	}
}

// PropValue is the classified value of a regular attribute.
type PropValue interface {
	propValue()
}

// StringLiteral is `key="value"`.
type StringLiteral struct {
	Value string
}

// BooleanImplicit is a bare attribute: `<Button disabled />`.
type BooleanImplicit struct{}

// ExpressionValue is `key={expr}`.
type ExpressionValue struct {
	Raw  string
	Kind ExpressionKind
}

// ElementValue is `key={<Icon />}` or `key=<Icon />`.
type ElementValue struct{}

// FragmentValue is `key={<>...</>}`.
type FragmentValue struct{}

// MixedValue carries a pre-rendered raw form of heterogeneous content.
type MixedValue struct {
	Raw string
}

func (StringLiteral) propValue()   {}
func (BooleanImplicit) propValue() {}
func (ExpressionValue) propValue() {}
func (ElementValue) propValue()    {}
func (FragmentValue) propValue()   {}
func (MixedValue) propValue()      {}

// Attribute is either a RegularAttribute or a SpreadAttribute.
type Attribute interface {
	attribute()
}

// RegularAttribute is `key` or `key=value`. Namespaced keys are `ns:name`.
type RegularAttribute struct {
	Key   string
	Value PropValue
}

// SpreadAttribute is `{...argument}`.
type SpreadAttribute struct {
	Argument Expr
}

func (RegularAttribute) attribute() {}
func (SpreadAttribute) attribute()  {}

// ChildNode is one child of an element: TextChild, ElementChild,
// FragmentChild or ExpressionChild. Whitespace-only text never appears.
type ChildNode interface {
	// RawText is the child's contribution to a concatenated children raw.
	RawText() string
}

// TextChild is normalized text content.
type TextChild struct {
	Text string
}

// ElementChild is a nested element.
type ElementChild struct {
	Tag string
	Raw string
}

// FragmentChild is a nested `<>...</>`.
type FragmentChild struct{}

// ExpressionChild is `{expr}`.
type ExpressionChild struct {
	Raw  string
	Kind ExpressionKind
}

func (c TextChild) RawText() string       { return c.Text }
func (c ElementChild) RawText() string    { return c.Raw }
func (FragmentChild) RawText() string     { return "<>...</>" }
func (c ExpressionChild) RawText() string { return "{" + c.Raw + "}" }

// Occurrence is one JSX element in a file.
type Occurrence struct {
	Location   SourceLocation
	Tag        TagReference
	Attributes []Attribute
	RawText    string
	Children   []ChildNode
}

// Declaration is a `name = init` variable declarator.
type Declaration struct {
	Name  string
	Init  Expr
	Start uint32
}

// ParsedFile is everything extracted from one file.
type ParsedFile struct {
	File         SourceFile
	Language     parser.Language
	Occurrences  []Occurrence
	Imports      []ImportBinding
	Declarations []Declaration // document order
}

// FindBinding returns the first import whose local name matches the tag's
// identifier. Matching is by name only; local shadowing is not considered.
func (f *ParsedFile) FindBinding(occ *Occurrence) *ImportBinding {
	name := occ.Tag.Identifier()
	for i := range f.Imports {
		if f.Imports[i].LocalName == name {
			return &f.Imports[i]
		}
	}
	return nil
}
