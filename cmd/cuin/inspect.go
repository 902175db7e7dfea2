package main

import (
	"fmt"

	"github.com/urfave/cli/v2"
)

const defaultMaxInstances = 20

func inspectCommand() *cli.Command {
	return &cli.Command{
		Name:      "inspect",
		Usage:     "Show one component's prop values and usages",
		ArgsUsage: "<component name or id>",
		Flags: append(analysisFlags(),
			&cli.IntFlag{Name: "max-instances", Value: defaultMaxInstances, Usage: "usages to list (0 for all)"},
		),
		Action: runInspect,
	}
}

func runInspect(c *cli.Context) error {
	query := c.Args().First()
	if query == "" {
		return cli.Exit("Error: missing component name", 3)
	}

	svc, path, _, err := newService(c, "")
	if err != nil {
		return exitError(err)
	}
	defer svc.Close()

	rep, err := svc.Run(c.Context, path)
	if err != nil {
		return exitError(err)
	}

	comp, ok := rep.FindComponent(query)
	if !ok {
		return cli.Exit(fmt.Sprintf("Error: component %q not found", query), 3)
	}
	fmt.Fprintln(c.App.Writer, renderComponent(comp, c.Int("max-instances")))
	return nil
}
