package main

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/urfave/cli/v2"

	"forkskinny-go/pkg/store"
	"forkskinny-go/pkg/transform"
)

var runsCommand = &cli.Command{
	Name:      "runs",
	Usage:     "list recorded trials, newest first",
	UsageText: "forkcheck runs [--count N] [--batch ID]",
	Flags: []cli.Flag{
		&cli.StringFlag{Name: "results-db", Usage: "SQLite run store `PATH`"},
		&cli.IntFlag{Name: "count", Aliases: []string{"n"}, Usage: "show at most `NUMBER` runs (0 for all)", Value: 20},
		&cli.StringFlag{Name: "batch", Usage: "only the trials of batch `ID`"},
	},
	Action: runsCmd,
}

var summaryCommand = &cli.Command{
	Name:      "summary",
	Usage:     "histogram of both sums over stored runs with the configured parameters",
	UsageText: "forkcheck summary [parameter options]",
	Flags:     append(paramFlags(), &cli.StringFlag{Name: "results-db", Usage: "SQLite run store `PATH`"}),
	Action:    summaryCmd,
}

var exportCommand = &cli.Command{
	Name:      "export",
	Usage:     "write stored runs as compressed JSON lines",
	UsageText: "forkcheck export [-o FILE] [--raw | --codec zstd|gzip|none] [--level L] [--batch ID]",
	Flags: []cli.Flag{
		&cli.StringFlag{Name: "results-db", Usage: "SQLite run store `PATH`"},
		&cli.StringFlag{Name: "output", Aliases: []string{"o"}, Usage: "output `FILE` (default stdout)"},
		&cli.BoolFlag{Name: "raw", Usage: "plain JSON lines, no compression"},
		&cli.StringFlag{Name: "codec", Usage: "compression `CODEC`", Value: transform.CodecZstd},
		&cli.StringFlag{Name: "level", Usage: "compression `LEVEL` (fastest, default, better, best)", Value: "better"},
		&cli.StringFlag{Name: "batch", Usage: "only the trials of batch `ID`"},
	},
	Action: exportCmd,
}

func selectRuns(c *cli.Context, st *store.Store, limit int) ([]store.Run, error) {
	if batch := c.String("batch"); batch != "" {
		return st.Batch(c.Context, batch)
	}
	return st.List(c.Context, limit)
}

func runsCmd(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	st, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	runs, err := selectRuns(c, st, c.Int("count"))
	if err != nil {
		return exitFor(err)
	}
	if len(runs) == 0 {
		fmt.Fprintln(os.Stderr, "No runs recorded.")
		return nil
	}
	writeRuns(os.Stdout, runs)
	return nil
}

func writeRuns(w io.Writer, runs []store.Run) {
	fmt.Fprintf(w, "%-36s  %-20s  %-16s  %7s  %6s  %7s  %12s\n", "ID", "RECORDED", "FORK", "CONTROL", "TARGET", "RANDOM", "ENCRYPTIONS")
	for _, r := range runs {
		fmt.Fprintf(w, "%-36s  %-20s  %-16s  %7d  %6d  %7d  %12s\n",
			r.ID, humanize.Time(r.RecordedAt), r.Params.Fork, r.ControlPosition,
			r.TargetSum, r.ControlSum, humanize.Comma(int64(r.Encryptions)))
	}
}

func summaryCmd(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	st, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	sum, err := st.Summarize(c.Context, cfg.Params())
	if err != nil {
		return exitFor(err)
	}
	writeSummary(os.Stdout, sum)
	return nil
}

func writeSummary(w io.Writer, sum *store.Summary) {
	fmt.Fprintf(w, "Runs: %s\n", humanize.Comma(int64(sum.Runs)))
	if sum.Runs == 0 {
		return
	}
	fmt.Fprintf(w, "%3s  %8s  %8s\n", "SUM", "TARGET", "RANDOM")
	for v := 0; v < 16; v++ {
		fmt.Fprintf(w, "%3d  %8d  %8d\n", v, sum.TargetCounts[v], sum.ControlCounts[v])
	}
	fmt.Fprintf(w, "Target sum zero: %d/%d (%.1f%%), random sum zero: %d/%d\n",
		sum.TargetZero(), sum.Runs, 100*float64(sum.TargetZero())/float64(sum.Runs),
		sum.ControlCounts[0], sum.Runs)
}

func exportCmd(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	st, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	name := c.String("codec")
	if c.Bool("raw") {
		name = transform.CodecNone
	}
	level, err := transform.ParseLevel(c.String("level"))
	if err != nil {
		return cli.Exit(err.Error(), exitConfig)
	}
	codec, err := transform.ForCodec(name, level)
	if err != nil {
		return cli.Exit(err.Error(), exitConfig)
	}
	runs, err := selectRuns(c, st, 0)
	if err != nil {
		return exitFor(err)
	}

	var out io.Writer = os.Stdout
	if path := c.String("output"); path != "" {
		f, err := os.Create(path)
		if err != nil {
			return cli.Exit(err.Error(), exitConfig)
		}
		defer f.Close()
		out = f
	}
	start := time.Now()
	if err := store.Export(out, runs, codec); err != nil {
		return exitFor(err)
	}
	fmt.Fprintf(os.Stderr, "Exported %s runs (%s, suggested suffix %q) in %s\n",
		humanize.Comma(int64(len(runs))), name, ".jsonl"+transform.Extension(name), time.Since(start).Round(time.Millisecond))
	return nil
}
