package analyzer

import (
	"github.com/gnana997/cuin/pkg/extractor"
	"github.com/gnana997/cuin/pkg/resolver"
)

// UsageKind classifies the package a usage site lives in.
type UsageKind string

const (
	UsageInternal UsageKind = "internal"
	UsageExternal UsageKind = "external"
	UsageNative   UsageKind = "native"
)

// UsagePackage is the package owning a usage site. Package is zero for
// UsageNative.
type UsagePackage struct {
	Kind    UsageKind
	Package resolver.Package
}

// ComponentUsage is one resolved occurrence of a component.
type ComponentUsage struct {
	Definition   ComponentDefinition
	Occurrence   *extractor.Occurrence
	Binding      *extractor.ImportBinding
	Props        []SimplifiedProp
	UsagePackage *UsagePackage
}

// File returns the file the usage appears in.
func (u *ComponentUsage) File() extractor.SourceFile {
	return u.Occurrence.Location.File
}

// ResolvedPath is the display path of the definition's location.
func (u *ComponentUsage) ResolvedPath() (string, bool) {
	if u.Definition.Location == nil {
		return "", false
	}
	return u.Definition.Location.File.DisplayPath(), true
}
