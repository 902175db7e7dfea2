package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/urfave/cli/v2"

	"github.com/gnana997/cuin/pkg/service"
	"github.com/gnana997/cuin/pkg/util"
)

const version = "0.1.0-dev"

func main() {
	if err := newApp().Run(os.Args); err != nil {
		// cli.Exit errors are handled by the app itself.
		fmt.Fprintf(os.Stderr, "cuin: %v\n", err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:    "cuin",
		Usage:   "Analyze how JSX components are used across a project",
		Version: version,
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "log-level", Value: string(util.LevelWarn), Usage: "debug, info, warn or error", EnvVars: []string{"CUIN_LOG_LEVEL"}},
			&cli.StringFlag{Name: "log-format", Value: string(util.FormatPretty), Usage: "json, text or pretty", EnvVars: []string{"CUIN_LOG_FORMAT"}},
		},
		Before: func(c *cli.Context) error {
			util.SetDefault(util.NewLogger(util.LoggerConfig{
				Level:  util.LogLevel(c.String("log-level")),
				Format: util.LogFormat(c.String("log-format")),
				Output: os.Stderr,
			}))
			return nil
		},
		Commands: []*cli.Command{
			analyzeCommand(),
			inspectCommand(),
			devCommand(),
			mcpCommand(),
			historyCommand(),
			setupCommand(),
			{
				Name:  "version",
				Usage: "Print version",
				Action: func(c *cli.Context) error {
					fmt.Fprintf(c.App.Writer, "cuin %s\n", version)
					return nil
				},
			},
		},
	}
}

// analysisFlags are shared by every command that runs an analysis.
func analysisFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "path", Aliases: []string{"p"}, Usage: "project directory or single file (default: current directory)"},
		&cli.StringSliceFlag{Name: "ext", Usage: "analyzed file extensions, without the dot"},
		&cli.StringSliceFlag{Name: "exclude", Usage: "extra doublestar exclude patterns"},
		&cli.BoolFlag{Name: "no-native", Usage: "omit lowercase host elements"},
		&cli.BoolFlag{Name: "no-cache", Usage: "disable resolver caches and the usage index"},
		&cli.IntFlag{Name: "workers", Usage: "analysis workers (0 selects the optimal count)"},
	}
}

// inputPath returns the --path flag, then fallback, then the working
// directory, as an absolute path.
func inputPath(c *cli.Context, fallback string) (string, error) {
	path := c.String("path")
	if path == "" {
		path = fallback
	}
	if path == "" {
		wd, err := os.Getwd()
		if err != nil {
			return "", err
		}
		path = wd
	}
	return filepath.Abs(path)
}

// newService resolves the config for the command and creates a service.
func newService(c *cli.Context, fallback string) (*service.Service, string, *ProjectConfig, error) {
	path, err := inputPath(c, fallback)
	if err != nil {
		return nil, "", nil, err
	}
	cfg, pc, err := resolveConfig(c, path)
	if err != nil {
		return nil, "", nil, err
	}
	if pc != nil {
		slog.Debug("Loaded project config", "file", pc.source)
	}
	return service.New(cfg, slog.Default()), path, pc, nil
}

// exitError maps analysis failures to the process exit code contract.
func exitError(err error) error {
	if err == nil {
		return nil
	}
	var aerr *service.AnalysisError
	if errors.As(err, &aerr) {
		return cli.Exit("Error: "+aerr.Error(), aerr.ExitCode())
	}
	return cli.Exit("Error: "+err.Error(), 3)
}
