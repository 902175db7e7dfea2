package mcp

import (
	"cmp"
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/gnana997/cuin/pkg/report"
)

const (
	defaultTop          = 20
	defaultListLimit    = 100
	defaultMaxInstances = 20
)

// HandleToolCall dispatches a tool call to the appropriate handler.
func (s *Server) HandleToolCall(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	switch req.Params.Name {
	case "analyze_project":
		return s.handleAnalyzeProject(ctx, req)
	case "list_components":
		return s.handleListComponents(ctx, req)
	case "get_component_usage":
		return s.handleGetComponentUsage(ctx, req)
	default:
		return nil, fmt.Errorf("unknown tool: %s", req.Params.Name)
	}
}

type componentSummary struct {
	ID      string   `json:"id"`
	Name    string   `json:"name"`
	Type    string   `json:"type"`
	Package string   `json:"package,omitempty"`
	Usages  int      `json:"usages"`
	Props   []string `json:"props"`
}

type projectSummary struct {
	BasePath   string             `json:"base_path"`
	Components int                `json:"components"`
	Usages     int                `json:"usages"`
	Internal   int                `json:"internal"`
	External   int                `json:"external"`
	Native     int                `json:"native"`
	Top        []componentSummary `json:"top"`
}

type componentUsage struct {
	ID          string             `json:"id"`
	Name        string             `json:"name"`
	Package     report.PackageRef  `json:"package"`
	TotalUsages int                `json:"total_usages"`
	Instances   []report.Instance  `json:"instances"`
	Truncated   bool               `json:"truncated"`
	PropsUsages []report.PropUsage `json:"props_usages"`
}

func (s *Server) handleAnalyzeProject(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	rep, err := s.reportFor(ctx, req.GetString("path", ""), true)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	sum := rep.Summarize()
	out := projectSummary{
		BasePath:   rep.Meta.BasePath,
		Components: sum.Components,
		Usages:     sum.Usages,
		Internal:   sum.Internal,
		External:   sum.External,
		Native:     sum.Native,
	}

	all := make([]componentSummary, 0, len(rep.Components))
	for i := range rep.Components {
		all = append(all, summarize(&rep.Components[i]))
	}
	slices.SortStableFunc(all, func(a, b componentSummary) int {
		return cmp.Or(cmp.Compare(b.Usages, a.Usages), cmp.Compare(a.Name, b.Name))
	})
	top := req.GetInt("top", defaultTop)
	if top > 0 && len(all) > top {
		all = all[:top]
	}
	out.Top = all

	return jsonResult(out)
}

func (s *Server) handleListComponents(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	typ := req.GetString("type", "")
	switch typ {
	case "", report.TypeInternal, report.TypeExternal, report.TypeNative:
	default:
		return mcp.NewToolResultError(fmt.Sprintf("invalid type %q: expected internal, external or native", typ)), nil
	}

	rep, err := s.reportFor(ctx, req.GetString("path", ""), false)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	query := strings.ToLower(req.GetString("query", ""))
	limit := req.GetInt("limit", defaultListLimit)

	out := make([]componentSummary, 0)
	for i := range rep.Components {
		c := &rep.Components[i]
		if typ != "" && c.Package.Type != typ {
			continue
		}
		if query != "" && !strings.Contains(strings.ToLower(c.Name), query) {
			continue
		}
		out = append(out, summarize(c))
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return jsonResult(out)
}

func (s *Server) handleGetComponentUsage(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, err := req.RequireString("component")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	rep, err := s.reportFor(ctx, req.GetString("path", ""), false)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	c, ok := rep.FindComponent(name)
	if !ok {
		return mcp.NewToolResultError(fmt.Sprintf("component %q not found", name)), nil
	}

	out := componentUsage{
		ID:          c.ID,
		Name:        c.Name,
		Package:     c.Package,
		TotalUsages: len(c.Instances),
		Instances:   c.Instances,
		PropsUsages: c.PropsUsages,
	}
	if limit := req.GetInt("max_instances", defaultMaxInstances); limit > 0 && len(out.Instances) > limit {
		out.Instances = out.Instances[:limit]
		out.Truncated = true
	}
	return jsonResult(out)
}

func summarize(c *report.Component) componentSummary {
	props := make([]string, 0, len(c.PropsUsages))
	for _, pu := range c.PropsUsages {
		props = append(props, pu.Key)
	}
	return componentSummary{
		ID:      c.ID,
		Name:    c.Name,
		Type:    c.Package.Type,
		Package: packageLabel(c.Package),
		Usages:  len(c.Instances),
		Props:   props,
	}
}

// packageLabel is the defining file for internal components and
// name@version for external ones.
func packageLabel(ref report.PackageRef) string {
	switch {
	case ref.Type == report.TypeNative:
		return ""
	case ref.Type == report.TypeInternal && ref.CanonicalPath != "":
		return ref.CanonicalPath
	case ref.Name != "":
		return ref.Name + "@" + ref.Version
	default:
		return ""
	}
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to encode result: %w", err)
	}
	return mcp.NewToolResultText(string(b)), nil
}
