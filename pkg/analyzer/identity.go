package analyzer

import (
	"github.com/gnana997/cuin/pkg/extractor"
	"github.com/gnana997/cuin/pkg/resolver"
)

// ComponentSource says where a component is defined: InternalSource,
// ExternalSource or NativeSource.
type ComponentSource interface {
	componentSource()
}

// InternalSource is a component defined in the project. CanonicalPath is
// relative to the project root, or absolute when outside it.
type InternalSource struct {
	CanonicalPath string
}

// ExternalSource is a component from an installed package.
type ExternalSource struct {
	Package resolver.Package
}

// NativeSource is a platform element such as `div`.
type NativeSource struct{}

func (InternalSource) componentSource() {}
func (ExternalSource) componentSource() {}
func (NativeSource) componentSource()   {}

// ExportName is the name a component is exported under: DirectExport or
// MemberExport.
type ExportName interface {
	// DisplayName renders the export name for humans.
	DisplayName() string
}

// DirectExport is `name` (or "default").
type DirectExport struct {
	Name string
}

// MemberExport is `object.property`, from a namespace import.
type MemberExport struct {
	Object   string
	Property string
}

func (e DirectExport) DisplayName() string { return e.Name }
func (e MemberExport) DisplayName() string { return e.Object + "." + e.Property }

// ComponentIdentity is the grouping key for usages. It is a comparable
// value: two usages are the same component iff their identities are ==.
type ComponentIdentity struct {
	Source  ComponentSource
	Export  ExportName
	Package resolver.Package // zero when the identity carries no package
}

// NativeIdentity returns the identity of a platform element.
func NativeIdentity(tag string) ComponentIdentity {
	return ComponentIdentity{Source: NativeSource{}, Export: DirectExport{Name: tag}}
}

// IsNative reports whether id is a platform element.
func (id ComponentIdentity) IsNative() bool {
	_, ok := id.Source.(NativeSource)
	return ok
}

// ComponentDefinition is a resolved identity and where it was observed.
type ComponentDefinition struct {
	Identity ComponentIdentity
	Location *extractor.SourceLocation
}

// exportNameFor derives the export name of a non-native occurrence from its
// import binding. It returns false when a namespace import is used without
// a member (`<Icons />`).
//
// Only the first two members of a namespace path are kept:
// `<UI.Form.Field.Label />` becomes Member{Form, Field}.
func exportNameFor(imported extractor.ImportedName, tag extractor.TagReference) (ExportName, bool) {
	switch imp := imported.(type) {
	case extractor.NamedImport:
		return DirectExport{Name: imp.Name}, true
	case extractor.DefaultImport:
		return DirectExport{Name: "default"}, true
	case extractor.NamespaceImport:
		switch len(tag.Members) {
		case 0:
			return nil, false
		case 1:
			return DirectExport{Name: tag.Members[0]}, true
		default:
			return MemberExport{Object: tag.Members[0], Property: tag.Members[1]}, true
		}
	default:
		panic("analyzer: unhandled imported name")
	}
}
