package main

import (
	"cmp"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/gnana997/cuin/pkg/history"
	"github.com/gnana997/cuin/pkg/report"
	"github.com/gnana997/cuin/pkg/service"
)

const (
	maxWidth       = 80
	maxPropsShown  = 4
	maxValuesShown = 6
)

var (
	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#3B82F6")).
			Bold(true)

	headerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#94A3B8")).
			Bold(true).
			Padding(0, 1)

	cellStyle = lipgloss.NewStyle().Padding(0, 1)

	mutedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#64748B")).
			Italic(true)

	typeStyles = map[string]lipgloss.Style{
		report.TypeInternal: lipgloss.NewStyle().Foreground(lipgloss.Color("#10B981")),
		report.TypeExternal: lipgloss.NewStyle().Foreground(lipgloss.Color("#FBBF24")),
		report.TypeNative:   lipgloss.NewStyle().Foreground(lipgloss.Color("#64748B")),
	}
)

// newTable returns a bordered table with the shared header and cell styles.
func newTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("#334155"))).
		Headers(headers...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})
}

// renderSummary renders a run as a title line and a component table, most
// used components first.
func renderSummary(res *service.Result) string {
	rep := res.Report
	sum := rep.Summarize()

	var sb strings.Builder
	sb.WriteString(titleStyle.Render("cuin " + rep.Meta.BasePath))
	sb.WriteString("\n")
	sb.WriteString(mutedStyle.Render(fmt.Sprintf(
		"%d files, %d components (%d internal, %d external, %d native), %d usages in %s",
		res.Files, sum.Components, sum.Internal, sum.External, sum.Native, sum.Usages,
		res.Duration.Round(time.Millisecond))))
	sb.WriteString("\n")
	if res.Stats.FilesFailed > 0 {
		sb.WriteString(mutedStyle.Render(fmt.Sprintf("%d files failed to analyze", res.Stats.FilesFailed)))
		sb.WriteString("\n")
	}

	if len(rep.Components) == 0 {
		sb.WriteString("No components found")
		return sb.String()
	}

	comps := slices.Clone(rep.Components)
	slices.SortStableFunc(comps, func(a, b report.Component) int {
		return cmp.Or(cmp.Compare(len(b.Instances), len(a.Instances)), cmp.Compare(a.Name, b.Name))
	})

	t := newTable("COMPONENT", "TYPE", "SOURCE", "USAGES", "PROPS")
	for _, c := range comps {
		t.Row(
			c.Name,
			typeLabel(c.Package.Type),
			sourceLabel(c.Package),
			strconv.Itoa(len(c.Instances)),
			propKeys(c.PropsUsages, maxPropsShown),
		)
	}
	sb.WriteString(t.Render())
	return sb.String()
}

// renderComponent renders one component: header, source, prop value
// distributions and its first instances.
func renderComponent(c *report.Component, maxInstances int) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "%s  [%s]\n", titleStyle.Render(c.Name), typeLabel(c.Package.Type))
	fmt.Fprintf(&sb, "  id %s\n", c.ID)
	if src := sourceLabel(c.Package); src != "" {
		fmt.Fprintf(&sb, "  from %s\n", src)
	}

	sb.WriteString("\n")
	if len(c.PropsUsages) == 0 {
		sb.WriteString("Props  (none)\n")
	} else {
		t := newTable("PROP", "VALUES")
		for _, pu := range c.PropsUsages {
			t.Row(pu.Key, wrapValues(distributionLabels(pu.Distribution), maxWidth-lipgloss.Width(pu.Key)-8))
		}
		sb.WriteString("Props\n")
		sb.WriteString(t.Render())
		sb.WriteString("\n")
	}

	sb.WriteString("\n")
	fmt.Fprintf(&sb, "Usages  (%d)\n", len(c.Instances))
	for i, inst := range c.Instances {
		if maxInstances > 0 && i == maxInstances {
			sb.WriteString(mutedStyle.Render(fmt.Sprintf("  ... %d more", len(c.Instances)-maxInstances)))
			sb.WriteString("\n")
			break
		}
		fmt.Fprintf(&sb, "  %s:%d:%d  %s\n", inst.FilePath, inst.Span.StartLine, inst.Span.StartCol, firstLine(inst.Raw))
	}
	return strings.TrimRight(sb.String(), "\n")
}

// renderHistory renders stored snapshots, newest first.
func renderHistory(snaps []history.Snapshot) string {
	if len(snaps) == 0 {
		return "No runs recorded"
	}
	t := newTable("WHEN", "FILES", "COMPONENTS", "USAGES", "INT", "EXT", "NATIVE", "DURATION")
	for _, s := range snaps {
		files := strconv.Itoa(s.FileCount)
		if s.FailedFileCount > 0 {
			files += fmt.Sprintf(" (%d failed)", s.FailedFileCount)
		}
		t.Row(
			s.Timestamp.Local().Format(time.DateTime),
			files,
			strconv.Itoa(s.ComponentCount),
			strconv.Itoa(s.UsageCount),
			strconv.Itoa(s.InternalCount),
			strconv.Itoa(s.ExternalCount),
			strconv.Itoa(s.NativeCount),
			(time.Duration(s.DurationMs) * time.Millisecond).String(),
		)
	}
	return t.Render()
}

func typeLabel(typ string) string {
	if style, ok := typeStyles[typ]; ok {
		return style.Render(typ)
	}
	return typ
}

// sourceLabel is the defining file for internal components and
// name@version for external ones.
func sourceLabel(ref report.PackageRef) string {
	switch ref.Type {
	case report.TypeInternal:
		return ref.CanonicalPath
	case report.TypeExternal:
		if ref.Version == "" {
			return ref.Name
		}
		return ref.Name + "@" + ref.Version
	default:
		return ""
	}
}

// propKeys joins up to n prop keys, noting how many were left out.
func propKeys(usages []report.PropUsage, n int) string {
	if len(usages) == 0 {
		return "-"
	}
	keys := make([]string, 0, n)
	for i, pu := range usages {
		if i == n {
			break
		}
		keys = append(keys, pu.Key)
	}
	out := strings.Join(keys, ", ")
	if len(usages) > n {
		out += fmt.Sprintf(" +%d", len(usages)-n)
	}
	return out
}

// distributionLabels lists values by descending count as "raw ×count".
func distributionLabels(dist []report.Distribution) []string {
	sorted := slices.Clone(dist)
	slices.SortStableFunc(sorted, func(a, b report.Distribution) int {
		return cmp.Compare(b.Count, a.Count)
	})
	labels := make([]string, 0, len(sorted))
	for i, d := range sorted {
		if i == maxValuesShown {
			labels = append(labels, fmt.Sprintf("+%d more", len(sorted)-maxValuesShown))
			break
		}
		labels = append(labels, fmt.Sprintf("%s ×%d", d.Raw, d.Count))
	}
	return labels
}

// wrapValues joins values with " | ", breaking lines at width.
func wrapValues(values []string, width int) string {
	var sb strings.Builder
	lineLen := 0
	for i, v := range values {
		addition := lipgloss.Width(v)
		if i > 0 {
			addition += 3
		}
		if i > 0 && lineLen+addition > width {
			sb.WriteString("\n")
			lineLen = 0
			addition -= 3
		} else if i > 0 {
			sb.WriteString(" | ")
		}
		sb.WriteString(v)
		lineLen += addition
	}
	return sb.String()
}

// firstLine returns the first line of s, marking truncation.
func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return strings.TrimSpace(s[:i]) + " ..."
	}
	return s
}
