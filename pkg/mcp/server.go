// Package mcp exposes component usage analysis as MCP tools over stdio.
package mcp

import (
	"context"
	"log/slog"
	"sync"

	"github.com/mark3labs/mcp-go/server"

	"github.com/gnana997/cuin/pkg/mcplog"
	"github.com/gnana997/cuin/pkg/report"
)

const serverVersion = "0.1.0-dev"

// Analyzer produces a report for a path. *service.Service satisfies it.
type Analyzer interface {
	Run(ctx context.Context, path string) (*report.Report, error)
}

// Server implements the MCP server for cuin.
type Server struct {
	mcpServer   *server.MCPServer
	analyzer    Analyzer
	defaultPath string
	callLog     *mcplog.Logger // nil disables call logging
	log         *slog.Logger

	// Reports by requested path. analyze_project refreshes an entry; the
	// other tools reuse it.
	mu      sync.Mutex
	reports map[string]*report.Report
}

// NewServer creates an MCP server analyzing defaultPath unless a tool call
// names another path.
func NewServer(a Analyzer, defaultPath string, callLog *mcplog.Logger, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		analyzer:    a,
		defaultPath: defaultPath,
		callLog:     callLog,
		log:         logger,
		reports:     make(map[string]*report.Report),
	}

	opts := []server.ServerOption{
		server.WithToolCapabilities(false),
		server.WithRecovery(),
	}
	if callLog != nil {
		opts = append(opts, server.WithToolHandlerMiddleware(s.loggingMiddleware()))
	}
	s.mcpServer = server.NewMCPServer("cuin", serverVersion, opts...)

	s.mcpServer.AddTools(
		server.ServerTool{Tool: analyzeProjectTool(), Handler: s.handleAnalyzeProject},
		server.ServerTool{Tool: listComponentsTool(), Handler: s.handleListComponents},
		server.ServerTool{Tool: getComponentUsageTool(), Handler: s.handleGetComponentUsage},
	)

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// reportFor returns the cached report for path, analyzing when there is
// none or refresh is set.
func (s *Server) reportFor(ctx context.Context, path string, refresh bool) (*report.Report, error) {
	if path == "" {
		path = s.defaultPath
	}

	s.mu.Lock()
	cached, ok := s.reports[path]
	s.mu.Unlock()
	if ok && !refresh {
		return cached, nil
	}

	rep, err := s.analyzer.Run(ctx, path)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.reports[path] = rep
	s.mu.Unlock()
	return rep, nil
}
