package analyzer

import (
	"cmp"
	"encoding/binary"
	"encoding/hex"
	"slices"

	"github.com/zeebo/blake3"
)

// ValueDistribution counts one distinct (pattern, value, raw) triple.
type ValueDistribution struct {
	Pattern string
	Value   *string
	Raw     string
	Count   int
}

// PropPattern is the distribution of values observed for one prop key.
type PropPattern struct {
	Key          string
	Distribution []ValueDistribution
}

// UsageStatistics summarizes the usages of one component.
type UsageStatistics struct {
	TotalCount   int
	PropPatterns []PropPattern
}

// Aggregate is every usage of one component.
type Aggregate struct {
	ID          string
	Identity    ComponentIdentity
	DisplayName string
	Usages      []ComponentUsage
	Statistics  UsageStatistics
}

// GroupByIdentity groups usages by component identity. Usages, prop
// patterns and distributions are sorted, and the aggregates themselves are
// ordered by (display name, id), so the result is deterministic.
func GroupByIdentity(usages []ComponentUsage) []Aggregate {
	groups := make(map[ComponentIdentity][]ComponentUsage)
	var order []ComponentIdentity
	for _, u := range usages {
		id := u.Definition.Identity
		if _, seen := groups[id]; !seen {
			order = append(order, id)
		}
		groups[id] = append(groups[id], u)
	}

	aggregates := make([]Aggregate, 0, len(order))
	for _, identity := range order {
		aggregates = append(aggregates, newAggregate(identity, groups[identity]))
	}

	slices.SortFunc(aggregates, func(a, b Aggregate) int {
		return cmp.Or(cmp.Compare(a.DisplayName, b.DisplayName), cmp.Compare(a.ID, b.ID))
	})
	return aggregates
}

func newAggregate(identity ComponentIdentity, usages []ComponentUsage) Aggregate {
	sortUsages(usages)
	return Aggregate{
		ID:          GenerateID(identity),
		Identity:    identity,
		DisplayName: displayName(identity, usages),
		Usages:      usages,
		Statistics:  computeStatistics(usages),
	}
}

func sortUsages(usages []ComponentUsage) {
	slices.SortStableFunc(usages, func(a, b ComponentUsage) int {
		return cmp.Or(
			cmp.Compare(a.File().DisplayPath(), b.File().DisplayPath()),
			cmp.Compare(a.Occurrence.Location.Span.Start, b.Occurrence.Location.Span.Start),
		)
	})
}

// displayName names a component: natives and default exports use the tag
// as written at the first usage, everything else its export name.
func displayName(identity ComponentIdentity, usages []ComponentUsage) string {
	if identity.IsNative() || identity.Export == (DirectExport{Name: "default"}) {
		if len(usages) == 0 {
			return identity.Export.DisplayName()
		}
		return usages[0].Occurrence.Tag.DisplayName()
	}
	return identity.Export.DisplayName()
}

type distributionKey struct {
	pattern  string
	hasValue bool
	value    string
	raw      string
}

func computeStatistics(usages []ComponentUsage) UsageStatistics {
	counts := make(map[string]map[distributionKey]int)
	for _, u := range usages {
		for _, p := range u.Props {
			dist, ok := counts[p.Key]
			if !ok {
				dist = make(map[distributionKey]int)
				counts[p.Key] = dist
			}
			k := distributionKey{pattern: p.Pattern, raw: p.Raw}
			if p.Value != nil {
				k.hasValue, k.value = true, *p.Value
			}
			dist[k]++
		}
	}

	patterns := make([]PropPattern, 0, len(counts))
	for key, dist := range counts {
		pattern := PropPattern{Key: key, Distribution: make([]ValueDistribution, 0, len(dist))}
		for k, count := range dist {
			d := ValueDistribution{Pattern: k.pattern, Raw: k.raw, Count: count}
			if k.hasValue {
				d.Value = strPtr(k.value)
			}
			pattern.Distribution = append(pattern.Distribution, d)
		}
		slices.SortFunc(pattern.Distribution, compareDistribution)
		patterns = append(patterns, pattern)
	}
	slices.SortFunc(patterns, func(a, b PropPattern) int {
		return cmp.Compare(a.Key, b.Key)
	})

	return UsageStatistics{TotalCount: len(usages), PropPatterns: patterns}
}

// compareDistribution orders by raw, then value (absent first), pattern
// and count.
func compareDistribution(a, b ValueDistribution) int {
	return cmp.Or(
		cmp.Compare(a.Raw, b.Raw),
		compareOptional(a.Value, b.Value),
		cmp.Compare(a.Pattern, b.Pattern),
		cmp.Compare(a.Count, b.Count),
	)
}

func compareOptional(a, b *string) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return -1
	case b == nil:
		return 1
	default:
		return cmp.Compare(*a, *b)
	}
}

// GenerateID derives a stable 16 hex character id from an identity: the
// first 8 bytes of the BLAKE3 hash of its canonical encoding.
func GenerateID(identity ComponentIdentity) string {
	sum := blake3.Sum256(encodeIdentity(identity))
	return hex.EncodeToString(sum[:8])
}

// encodeIdentity writes every identity field as a length-prefixed string so
// that distinct identities never share an encoding.
func encodeIdentity(identity ComponentIdentity) []byte {
	var buf []byte
	field := func(s string) {
		buf = binary.BigEndian.AppendUint32(buf, uint32(len(s)))
		buf = append(buf, s...)
	}

	switch s := identity.Source.(type) {
	case InternalSource:
		field("internal")
		field(s.CanonicalPath)
	case ExternalSource:
		field("external")
		field(s.Package.Name)
		field(s.Package.Version)
	case NativeSource:
		field("native")
	default:
		panic("analyzer: unhandled component source")
	}

	switch e := identity.Export.(type) {
	case DirectExport:
		field("direct")
		field(e.Name)
	case MemberExport:
		field("member")
		field(e.Object)
		field(e.Property)
	default:
		panic("analyzer: unhandled export name")
	}

	if identity.Package.IsZero() {
		field("")
	} else {
		field("package")
		field(identity.Package.Name)
		field(identity.Package.Version)
	}
	return buf
}
