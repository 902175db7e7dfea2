package mcp

import "github.com/mark3labs/mcp-go/mcp"

func analyzeProjectTool() mcp.Tool {
	return mcp.NewTool("analyze_project",
		mcp.WithDescription("Analyze a React project and summarize which components are used, how often, and from which package. Refreshes the cached report for the path."),
		mcp.WithString("path", mcp.Description("Project directory or single file. Defaults to the server's project.")),
		mcp.WithNumber("top", mcp.Description("Number of most-used components to include (default 20).")),
	)
}

func listComponentsTool() mcp.Tool {
	return mcp.NewTool("list_components",
		mcp.WithDescription("List analyzed components with their package and usage count."),
		mcp.WithString("path", mcp.Description("Project directory or single file. Defaults to the server's project.")),
		mcp.WithString("type", mcp.Description("Filter by package type: internal, external or native.")),
		mcp.WithString("query", mcp.Description("Case-insensitive substring of the component name.")),
		mcp.WithNumber("limit", mcp.Description("Maximum number of components to return (default 100).")),
	)
}

func getComponentUsageTool() mcp.Tool {
	return mcp.NewTool("get_component_usage",
		mcp.WithDescription("Show where a component is used and the distribution of values passed to each prop."),
		mcp.WithString("component", mcp.Required(), mcp.Description("Component id, or display name (case-insensitive).")),
		mcp.WithString("path", mcp.Description("Project directory or single file. Defaults to the server's project.")),
		mcp.WithNumber("max_instances", mcp.Description("Maximum number of usage sites to include (default 20).")),
	)
}

// RegisteredTools returns the MCP tool definitions.
func RegisteredTools() []mcp.Tool {
	return []mcp.Tool{
		analyzeProjectTool(),
		listComponentsTool(),
		getComponentUsageTool(),
	}
}
