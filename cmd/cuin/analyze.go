package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/gnana997/cuin/pkg/history"
	"github.com/gnana997/cuin/pkg/report"
	"github.com/gnana997/cuin/pkg/service"
)

const (
	formatJSON  = "json"
	formatTable = "table"
)

func analyzeCommand() *cli.Command {
	return &cli.Command{
		Name:      "analyze",
		Usage:     "Analyze component usage and print the report",
		ArgsUsage: "[path]",
		Flags: append(analysisFlags(),
			&cli.StringFlag{Name: "out", Aliases: []string{"o"}, Usage: "write the report to `FILE` instead of stdout"},
			&cli.StringFlag{Name: "format", Aliases: []string{"f"}, Value: formatJSON, Usage: "json or table"},
			&cli.BoolFlag{Name: "history", Usage: "record a snapshot of the run in .cuin/history.db"},
		),
		Action: runAnalyze,
	}
}

func runAnalyze(c *cli.Context) error {
	format := c.String("format")
	if format != formatJSON && format != formatTable {
		return cli.Exit(fmt.Sprintf("Error: unknown format %q", format), 3)
	}

	svc, path, pc, err := newService(c, c.Args().First())
	if err != nil {
		return exitError(err)
	}
	defer svc.Close()

	res, err := svc.Analyze(c.Context, path)
	if err != nil {
		return exitError(err)
	}

	if c.Bool("history") || (pc != nil && pc.History) {
		recordSnapshot(res)
	}

	var w io.Writer = c.App.Writer
	if out := c.String("out"); out != "" {
		f, err := os.Create(out)
		if err != nil {
			return exitError(fmt.Errorf("failed to create %s: %w", out, err))
		}
		defer f.Close()
		w = f
	}

	if format == formatTable {
		_, err = fmt.Fprintln(w, renderSummary(res))
	} else {
		err = report.Write(w, res.Report, true)
	}
	return exitError(err)
}

// recordSnapshot stores the run in the project's history database. Failures
// are logged, never fatal.
func recordSnapshot(res *service.Result) {
	store, err := history.Open(history.DefaultPath(res.Project.Root))
	if err != nil {
		slog.Warn("History disabled", "error", err)
		return
	}
	defer store.Close()

	snap := history.NewSnapshot(res.Report, res.Files, res.Stats.FilesFailed, res.Duration)
	if _, err := store.SaveSnapshot(snap); err != nil {
		slog.Warn("Failed to save history snapshot", "error", err)
	}
}
