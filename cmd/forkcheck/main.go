package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	"forkskinny-go/pkg/appdir"
	"forkskinny-go/pkg/config"
	"forkskinny-go/pkg/integral"
	"forkskinny-go/pkg/log"
	"forkskinny-go/pkg/prng"
)

// Version information, set at build time.
var (
	Version   = "dev"
	BuildTime = "unknown"
)

const (
	exitConfig   = 1
	exitSelfTest = 2
	exitEntropy  = 3
	exitCanceled = 130
)

func main() {
	app := &cli.App{
		Name:    "forkcheck",
		Usage:   "checks integral distinguishers on a forked SKINNY-64-192",
		Version: fmt.Sprintf("%s (built %s)", Version, BuildTime),
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "YAML configuration `FILE`",
				EnvVars: []string{config.EnvPrefix + "_CONFIG"},
			},
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "minimum console log `LEVEL` (debug, info, warn, error)",
			},
			&cli.StringFlag{
				Name:  "log-db",
				Usage: "also append JSON log lines to the SQLite `PATH`",
			},
		},
		Commands: []*cli.Command{
			searchCommand,
			selftestCommand,
			runsCommand,
			summaryCommand,
			exportCommand,
			drawCommand,
			logsCommand,
		},
		Action: searchCmd,
	}
	app.Flags = append(app.Flags, paramFlags()...)
	app.Flags = append(app.Flags, searchFlags()...)

	if err := app.RunContext(context.Background(), os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		var coder cli.ExitCoder
		if errors.As(err, &coder) {
			os.Exit(coder.ExitCode())
		}
		os.Exit(exitConfig)
	}
}

// configKeys maps flag names to configuration keys.
var configKeys = map[string]string{
	"rounds":               "rounds",
	"fork-point":           "fork_point",
	"skip":                 "skip",
	"active-plaintext":     "active_plaintext",
	"active-tweakey-index": "active_tweakey_index",
	"active-tweakey-words": "active_tweakey_words",
	"targets":              "targets",
	"trials":               "trials",
	"workers":              "workers",
	"seed":                 "seed",
	"base-plaintext":       "base_plaintext",
	"base-tk1":             "base_tk1",
	"base-tk2":             "base_tk2",
	"base-tk3":             "base_tk3",
	"results-db":           "results_db",
	"log-db":               "log_db",
	"log-level":            "log_level",
	"api-listen":           "api_listen",
}

// overrides collects the flags the user actually set, so that unset flags
// never shadow the file or the environment.
func overrides(c *cli.Context) map[string]any {
	out := make(map[string]any)
	for _, ctx := range c.Lineage() {
		if ctx.Command == nil {
			continue
		}
		for _, f := range ctx.Command.Flags {
			name := f.Names()[0]
			key, ok := configKeys[name]
			if !ok || !ctx.IsSet(name) {
				continue
			}
			if _, done := out[key]; done {
				continue
			}
			switch f.(type) {
			case *cli.IntFlag:
				out[key] = ctx.Int(name)
			case *cli.IntSliceFlag:
				out[key] = ctx.IntSlice(name)
			default:
				out[key] = ctx.String(name)
			}
		}
	}
	return out
}

func loadConfig(c *cli.Context) (*config.Config, error) {
	cfg, err := config.LoadConfig(c.String("config"), overrides(c))
	if err != nil {
		return nil, cli.Exit(err.Error(), exitConfig)
	}
	return cfg, nil
}

// setupLogging configures the console sink and, if asked, the SQLite one.
func setupLogging(cfg *config.Config) (func(), error) {
	if err := log.SetStd(os.Stderr, cfg.LogLevel); err != nil {
		return nil, cli.Exit(err.Error(), exitConfig)
	}
	if cfg.LogDB == "" {
		return func() {}, nil
	}
	path, err := appdir.Path(cfg.LogDB)
	if err != nil {
		return nil, cli.Exit(err.Error(), exitConfig)
	}
	if err := log.Init(path); err != nil {
		return nil, cli.Exit(err.Error(), exitConfig)
	}
	return func() { _ = log.Close() }, nil
}

// runSeed returns the configured seed or fresh OS entropy.
func runSeed(cfg *config.Config) (prng.Seed, error) {
	if cfg.HasSeed() {
		seed, err := cfg.ParsedSeed()
		if err != nil {
			return seed, cli.Exit(err.Error(), exitConfig)
		}
		return seed, nil
	}
	seed, err := prng.SeedFromOS()
	if err != nil {
		log.Error().Err(err).Msg("no entropy available")
		return seed, cli.Exit(err.Error(), exitEntropy)
	}
	return seed, nil
}

// exitFor maps a run error to the process exit status.
func exitFor(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, integral.ErrSelfTestFailed):
		return cli.Exit(err.Error(), exitSelfTest)
	case errors.Is(err, prng.ErrEntropy):
		return cli.Exit(err.Error(), exitEntropy)
	case errors.Is(err, context.Canceled):
		return cli.Exit("canceled", exitCanceled)
	}
	var coder cli.ExitCoder
	if errors.As(err, &coder) {
		return err
	}
	return cli.Exit(err.Error(), exitConfig)
}
