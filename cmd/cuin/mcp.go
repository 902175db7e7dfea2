package main

import (
	"log/slog"

	"github.com/urfave/cli/v2"

	mcpserver "github.com/gnana997/cuin/pkg/mcp"
	"github.com/gnana997/cuin/pkg/mcplog"
)

func mcpCommand() *cli.Command {
	return &cli.Command{
		Name:  "mcp",
		Usage: "Start the MCP server on stdio",
		Flags: append(analysisFlags(),
			&cli.StringFlag{Name: "log-file", Usage: "append every tool call to `FILE` as JSONL", EnvVars: []string{"CUIN_MCP_LOG"}},
		),
		Action: runMCP,
	}
}

func runMCP(c *cli.Context) error {
	svc, path, _, err := newService(c, "")
	if err != nil {
		return exitError(err)
	}
	defer svc.Close()

	callLog, err := mcplog.NewLogger(c.String("log-file"))
	if err != nil {
		return exitError(err)
	}
	defer callLog.Close()

	slog.Info("MCP server starting", "path", path, "call_log", c.String("log-file"))
	srv := mcpserver.NewServer(svc, path, callLog, slog.Default())
	if err := srv.ServeStdio(); err != nil {
		return cli.Exit("server error: "+err.Error(), 1)
	}
	return nil
}
