package main

import (
	"os"

	"github.com/urfave/cli/v2"

	"forkskinny-go/pkg/draw"
)

var drawCommand = &cli.Command{
	Name:      "draw",
	Usage:     "draw the configured distinguisher as DOT or SVG",
	UsageText: "forkcheck draw [--svg] [-o FILE] [--control CELL] [parameter options]",
	Flags: append(paramFlags(),
		&cli.BoolFlag{Name: "svg", Usage: "render SVG instead of DOT source"},
		&cli.StringFlag{Name: "output", Aliases: []string{"o"}, Usage: "output `FILE` (default stdout)"},
		&cli.IntFlag{Name: "control", Usage: "highlight control `CELL`", Value: draw.NoControl},
	),
	Action: drawCmd,
}

func drawCmd(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	shape := draw.NewShape(cfg.Params()).WithControl(c.Int("control"))

	out := []byte(shape.DOT())
	if c.Bool("svg") {
		if out, err = shape.SVG(c.Context); err != nil {
			return cli.Exit(err.Error(), exitConfig)
		}
	}
	if path := c.String("output"); path != "" {
		if err := os.WriteFile(path, out, 0o644); err != nil {
			return cli.Exit(err.Error(), exitConfig)
		}
		return nil
	}
	_, err = os.Stdout.Write(out)
	return err
}
