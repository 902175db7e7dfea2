// Package analyzer turns extracted JSX occurrences into component usages:
// it resolves which component each occurrence refers to, normalizes its
// props and children, and groups usages into per-component statistics.
package analyzer

import (
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/gnana997/cuin/pkg/extractor"
	"github.com/gnana997/cuin/pkg/resolver"
)

// ModuleResolver is the subset of *resolver.ModuleResolver the analyzer
// needs.
type ModuleResolver interface {
	Resolve(spec extractor.ModuleSpecifier, from extractor.SourceFile) (resolver.ResolvedModule, error)
	ResolvePackageForPath(path string) (resolver.Package, bool)
}

// Config controls which occurrences become usages.
type Config struct {
	IncludeNativeElements bool
}

// DefaultConfig includes native elements.
func DefaultConfig() Config {
	return Config{IncludeNativeElements: true}
}

// Context is the project-wide state shared by every file analysis. It is
// read-only after construction and safe for concurrent use as long as the
// resolver is.
type Context struct {
	Root     string
	Resolver ModuleResolver
	Config   Config
	Logger   *slog.Logger
}

// NewContext creates an analysis context for the project rooted at root.
func NewContext(root string, r ModuleResolver, cfg Config, logger *slog.Logger) *Context {
	if logger == nil {
		logger = slog.Default()
	}
	return &Context{Root: root, Resolver: r, Config: cfg, Logger: logger}
}

// Identify resolves the component an occurrence refers to. It returns false
// when the occurrence is dropped: an excluded native element, a tag with no
// import binding, an unresolvable import, a namespace used without a
// member, or a resolved module with no package metadata.
func (c *Context) Identify(occ *extractor.Occurrence, binding *extractor.ImportBinding) (ComponentDefinition, bool) {
	location := occ.Location

	if occ.Tag.IsNative() {
		if !c.Config.IncludeNativeElements {
			return ComponentDefinition{}, false
		}
		return ComponentDefinition{
			Identity: NativeIdentity(occ.Tag.DisplayName()),
			Location: &location,
		}, true
	}

	if binding == nil {
		return ComponentDefinition{}, false
	}

	resolved, err := c.Resolver.Resolve(binding.Source, occ.Location.File)
	if err != nil {
		c.Logger.Debug("unresolved import",
			"file", occ.Location.File.DisplayPath(),
			"specifier", string(binding.Source),
			"error", err)
		return ComponentDefinition{}, false
	}

	export, ok := exportNameFor(binding.Imported, occ.Tag)
	if !ok {
		return ComponentDefinition{}, false
	}

	if resolved.Package == nil {
		return ComponentDefinition{}, false
	}
	pkg := *resolved.Package

	var source ComponentSource
	if strings.Contains(resolved.CanonicalPath, "node_modules") {
		source = ExternalSource{Package: pkg}
	} else {
		source = InternalSource{CanonicalPath: c.relativeToRoot(resolved.CanonicalPath)}
	}

	return ComponentDefinition{
		Identity: ComponentIdentity{Source: source, Export: export, Package: pkg},
		Location: &location,
	}, true
}

// UsagePackageFor classifies the package owning a usage site.
func (c *Context) UsagePackageFor(file extractor.SourceFile, identity ComponentIdentity) *UsagePackage {
	if identity.IsNative() {
		return &UsagePackage{Kind: UsageNative}
	}

	pkg, ok := c.Resolver.ResolvePackageForPath(file.Canonical)
	if !ok {
		return nil
	}
	kind := UsageInternal
	if strings.Contains(file.DisplayPath(), "node_modules") {
		kind = UsageExternal
	}
	return &UsagePackage{Kind: kind, Package: pkg}
}

// AnalyzeFile produces the usages of one parsed file, in document order.
func (c *Context) AnalyzeFile(parsed *extractor.ParsedFile) []ComponentUsage {
	if len(parsed.Occurrences) == 0 {
		return nil
	}

	tracker := NewTracker(parsed.Declarations)
	usages := make([]ComponentUsage, 0, len(parsed.Occurrences))

	var filePackage *UsagePackage
	filePackageResolved := false

	for i := range parsed.Occurrences {
		occ := &parsed.Occurrences[i]
		tracker.AdvanceTo(occ.Location.Span.Start)

		binding := parsed.FindBinding(occ)
		def, ok := c.Identify(occ, binding)
		if !ok {
			continue
		}

		var usagePackage *UsagePackage
		if def.Identity.IsNative() {
			usagePackage = &UsagePackage{Kind: UsageNative}
		} else {
			if !filePackageResolved {
				filePackage = c.UsagePackageFor(parsed.File, def.Identity)
				filePackageResolved = true
			}
			usagePackage = filePackage
		}

		usages = append(usages, ComponentUsage{
			Definition:   def,
			Occurrence:   occ,
			Binding:      binding,
			Props:        SimplifyOccurrence(occ, tracker),
			UsagePackage: usagePackage,
		})
	}

	return usages
}

// SimplifyOccurrence returns the props of occ: attributes in source order
// with spreads expanded, then the synthesized children prop.
func SimplifyOccurrence(occ *extractor.Occurrence, tracker *Tracker) []SimplifiedProp {
	props := make([]SimplifiedProp, 0, len(occ.Attributes)+1)
	for _, attr := range occ.Attributes {
		switch a := attr.(type) {
		case extractor.RegularAttribute:
			props = append(props, SimplifyProp(a.Key, a.Value))
		case extractor.SpreadAttribute:
			props = append(props, tracker.ResolveSpread(a.Argument)...)
		default:
			panic("analyzer: unhandled attribute")
		}
	}
	if children, ok := ChildrenProp(occ.Children); ok {
		props = append(props, children)
	}
	return props
}

func (c *Context) relativeToRoot(path string) string {
	rel, err := filepath.Rel(c.Root, path)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return path
	}
	return filepath.ToSlash(rel)
}
