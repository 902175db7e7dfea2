package main

import (
	"context"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/urfave/cli/v2"
	"golang.org/x/sync/errgroup"

	"github.com/gnana997/cuin/pkg/history"
	"github.com/gnana997/cuin/pkg/indexer"
	"github.com/gnana997/cuin/pkg/server"
)

func devCommand() *cli.Command {
	return &cli.Command{
		Name:      "dev",
		Usage:     "Serve the report for the web UI",
		ArgsUsage: "[path]",
		Flags: append(analysisFlags(),
			&cli.IntFlag{Name: "port", Value: server.DefaultPort, Usage: "listen port on localhost"},
			&cli.BoolFlag{Name: "watch", Aliases: []string{"w"}, Usage: "cache the report and refresh it when files change"},
			&cli.BoolFlag{Name: "history", Usage: "record a snapshot of every analysis in .cuin/history.db"},
		),
		Action: runDev,
	}
}

func runDev(c *cli.Context) error {
	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	svc, path, pc, err := newService(c, c.Args().First())
	if err != nil {
		return exitError(err)
	}
	defer svc.Close()

	// Fail fast on a bad project and prime the usage index.
	res, err := svc.Analyze(ctx, path)
	if err != nil {
		return exitError(err)
	}
	root := res.Project.Root
	logger := slog.Default().With("root", root)

	opts := server.Options{
		Addr:         net.JoinHostPort("localhost", strconv.Itoa(c.Int("port"))),
		Path:         path,
		CachePayload: c.Bool("watch"),
	}
	if c.Bool("history") || (pc != nil && pc.History) {
		store, err := history.Open(history.DefaultPath(root))
		if err != nil {
			return exitError(err)
		}
		defer store.Close()
		opts.History = store
	}
	srv := server.New(svc, opts, logger)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return srv.Run(ctx)
	})

	if c.Bool("watch") {
		wopts := indexer.DefaultWatchOptions()
		wopts.Extensions = watchExtensions(svc.Config().Extensions)
		watcher, err := indexer.NewFileWatcher(root, svc.Index(), wopts, func(_ context.Context, changes indexer.ChangeSet) {
			logger.Info("Project changed, refreshing report", "files", len(changes.Files), "structural", changes.Kind == indexer.ChangeStructure)
			srv.Invalidate()
		}, logger)
		if err != nil {
			stop()
			_ = g.Wait()
			return exitError(err)
		}
		g.Go(func() error {
			return watcher.Run(ctx)
		})
	}

	return exitError(g.Wait())
}

// watchExtensions converts configured extensions to the dotted form the
// watcher matches.
func watchExtensions(exts []string) []string {
	out := make([]string, 0, len(exts))
	for _, e := range exts {
		out = append(out, "."+strings.TrimPrefix(e, "."))
	}
	return out
}
