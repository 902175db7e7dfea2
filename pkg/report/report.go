// Package report defines the JSON document produced by an analysis run and
// builds it from component aggregates.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/gnana997/cuin/pkg/analyzer"
	"github.com/gnana997/cuin/pkg/extractor"
)

// Package types.
const (
	TypeInternal = "internal"
	TypeExternal = "external"
	TypeNative   = "native"
)

// Report is the analysis output.
type Report struct {
	Meta       Meta        `json:"meta"`
	Components []Component `json:"components"`
}

// Meta describes the run.
type Meta struct {
	BasePath string `json:"base_path"`
}

// Component is one aggregated component.
type Component struct {
	ID          string      `json:"id"`
	Name        string      `json:"name"`
	Package     PackageRef  `json:"package"`
	Instances   []Instance  `json:"instances"`
	PropsUsages []PropUsage `json:"props_usages"`
}

// PackageRef identifies where a component (or usage site) comes from.
// Internal components carry CanonicalPath; internal and external carry
// Name and Version; native carries only Type.
type PackageRef struct {
	Type          string `json:"type"`
	CanonicalPath string `json:"canonical_path,omitempty"`
	Name          string `json:"name,omitempty"`
	Version       string `json:"version,omitempty"`
}

// Instance is one usage of a component.
type Instance struct {
	FilePath        string         `json:"file_path"`
	Props           []Prop         `json:"props"`
	Raw             string         `json:"raw"`
	Span            extractor.Span `json:"span"`
	ImportSpecifier *string        `json:"import_specifier"`
	ResolvedPath    *string        `json:"resolved_path"`
	Package         *PackageRef    `json:"package,omitempty"`
}

// Prop is one simplified prop of an instance.
type Prop struct {
	Key      string  `json:"key"`
	Value    *string `json:"value,omitempty"`
	Raw      string  `json:"raw"`
	PropType string  `json:"prop_type"`
}

// PropUsage is the value distribution of one prop key.
type PropUsage struct {
	Key          string         `json:"key"`
	Distribution []Distribution `json:"distribution"`
}

// Distribution counts one distinct prop value.
type Distribution struct {
	Value    *string `json:"value,omitempty"`
	Raw      string  `json:"raw"`
	PropType string  `json:"prop_type"`
	Count    int     `json:"count"`
}

// Build converts sorted aggregates into a report.
func Build(basePath string, aggregates []analyzer.Aggregate) *Report {
	r := &Report{
		Meta:       Meta{BasePath: basePath},
		Components: make([]Component, 0, len(aggregates)),
	}
	for i := range aggregates {
		r.Components = append(r.Components, buildComponent(&aggregates[i]))
	}
	return r
}

func buildComponent(agg *analyzer.Aggregate) Component {
	c := Component{
		ID:          agg.ID,
		Name:        agg.DisplayName,
		Package:     identityRef(agg.Identity),
		Instances:   make([]Instance, 0, len(agg.Usages)),
		PropsUsages: make([]PropUsage, 0, len(agg.Statistics.PropPatterns)),
	}

	for i := range agg.Usages {
		c.Instances = append(c.Instances, buildInstance(&agg.Usages[i]))
	}

	for _, pattern := range agg.Statistics.PropPatterns {
		usage := PropUsage{Key: pattern.Key, Distribution: make([]Distribution, 0, len(pattern.Distribution))}
		for _, d := range pattern.Distribution {
			usage.Distribution = append(usage.Distribution, Distribution{
				Value:    d.Value,
				Raw:      d.Raw,
				PropType: d.Pattern,
				Count:    d.Count,
			})
		}
		c.PropsUsages = append(c.PropsUsages, usage)
	}
	return c
}

func buildInstance(u *analyzer.ComponentUsage) Instance {
	inst := Instance{
		FilePath: u.File().DisplayPath(),
		Props:    make([]Prop, 0, len(u.Props)),
		Raw:      u.Occurrence.RawText,
		Span:     u.Occurrence.Location.Span,
	}

	for _, p := range u.Props {
		inst.Props = append(inst.Props, Prop{Key: p.Key, Value: p.Value, Raw: p.Raw, PropType: p.Pattern})
	}
	if u.Binding != nil {
		spec := string(u.Binding.Source)
		inst.ImportSpecifier = &spec
	}
	if path, ok := u.ResolvedPath(); ok {
		inst.ResolvedPath = &path
	}
	if u.UsagePackage != nil {
		ref := PackageRef{Type: string(u.UsagePackage.Kind)}
		if u.UsagePackage.Kind != analyzer.UsageNative {
			ref.Name, ref.Version = u.UsagePackage.Package.Name, u.UsagePackage.Package.Version
		}
		inst.Package = &ref
	}
	return inst
}

func identityRef(id analyzer.ComponentIdentity) PackageRef {
	switch s := id.Source.(type) {
	case analyzer.InternalSource:
		ref := PackageRef{Type: TypeInternal, CanonicalPath: s.CanonicalPath}
		if !id.Package.IsZero() {
			ref.Name, ref.Version = id.Package.Name, id.Package.Version
		}
		return ref
	case analyzer.ExternalSource:
		return PackageRef{Type: TypeExternal, Name: s.Package.Name, Version: s.Package.Version}
	case analyzer.NativeSource:
		return PackageRef{Type: TypeNative}
	default:
		panic("report: unhandled component source")
	}
}

// Write encodes r as JSON, indented when pretty is set.
func Write(w io.Writer, r *Report, pretty bool) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	if pretty {
		enc.SetIndent("", "  ")
	}
	if err := enc.Encode(r); err != nil {
		return fmt.Errorf("failed to encode report: %w", err)
	}
	return nil
}

// Read decodes a report written by Write.
func Read(r io.Reader) (*Report, error) {
	var rep Report
	if err := json.NewDecoder(r).Decode(&rep); err != nil {
		return nil, fmt.Errorf("failed to decode report: %w", err)
	}
	return &rep, nil
}

// FindComponent returns the component whose id or name equals query
// (name match is case-insensitive). Ids take precedence.
func (r *Report) FindComponent(query string) (*Component, bool) {
	for i := range r.Components {
		if r.Components[i].ID == query {
			return &r.Components[i], true
		}
	}
	for i := range r.Components {
		if strings.EqualFold(r.Components[i].Name, query) {
			return &r.Components[i], true
		}
	}
	return nil, false
}

// Summary counts components and usages per package type.
type Summary struct {
	Components int
	Usages     int
	Internal   int
	External   int
	Native     int
}

// Summarize computes the summary of r.
func (r *Report) Summarize() Summary {
	s := Summary{Components: len(r.Components)}
	for _, c := range r.Components {
		s.Usages += len(c.Instances)
		switch c.Package.Type {
		case TypeInternal:
			s.Internal++
		case TypeExternal:
			s.External++
		case TypeNative:
			s.Native++
		}
	}
	return s
}
