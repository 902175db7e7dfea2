package mcp

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/gnana997/cuin/pkg/mcplog"
)

// loggingMiddleware records every tool call as a JSONL entry. Only installed
// when a call log is configured.
func (s *Server) loggingMiddleware() server.ToolHandlerMiddleware {
	return func(next server.ToolHandlerFunc) server.ToolHandlerFunc {
		return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			start := mcplog.Now()
			result, err := next(ctx, req)
			_ = s.callLog.Write(mcplog.NewEntry(req.Params.Name, req.GetArguments(), start, result, err))
			return result, err
		}
	}
}
