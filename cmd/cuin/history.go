package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/urfave/cli/v2"

	"github.com/gnana997/cuin/pkg/history"
)

func historyCommand() *cli.Command {
	return &cli.Command{
		Name:  "history",
		Usage: "List recorded analysis runs",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "path", Aliases: []string{"p"}, Usage: "project directory (default: current directory)"},
			&cli.IntFlag{Name: "limit", Aliases: []string{"n"}, Value: history.DefaultLimit, Usage: "number of runs to list"},
			&cli.BoolFlag{Name: "json", Usage: "print snapshots as JSON"},
		},
		Action: runHistory,
	}
}

func runHistory(c *cli.Context) error {
	path, err := inputPath(c, "")
	if err != nil {
		return exitError(err)
	}
	root, err := projectRoot(path)
	if err != nil {
		return exitError(err)
	}

	dbPath := history.DefaultPath(root)
	if _, err := os.Stat(dbPath); errors.Is(err, os.ErrNotExist) {
		fmt.Fprintln(c.App.Writer, "No runs recorded")
		return nil
	}

	store, err := history.Open(dbPath)
	if err != nil {
		return exitError(err)
	}
	defer store.Close()

	snaps, err := store.LoadSnapshots(root, c.Int("limit"))
	if err != nil {
		return exitError(err)
	}

	if c.Bool("json") {
		enc := json.NewEncoder(c.App.Writer)
		enc.SetIndent("", "  ")
		return exitError(enc.Encode(snaps))
	}
	fmt.Fprintln(c.App.Writer, renderHistory(snaps))
	return nil
}

// projectRoot is the base path the analysis reports for path: the canonical
// directory, or the parent of a file.
func projectRoot(path string) (string, error) {
	canonical, err := filepath.EvalSymlinks(path)
	if err != nil {
		return "", fmt.Errorf("invalid path %s: %w", path, err)
	}
	info, err := os.Stat(canonical)
	if err != nil {
		return "", err
	}
	if !info.IsDir() {
		return filepath.Dir(canonical), nil
	}
	return canonical, nil
}
