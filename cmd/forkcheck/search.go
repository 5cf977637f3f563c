package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v2"

	"forkskinny-go/internal/fn"
	"forkskinny-go/pkg/api"
	"forkskinny-go/pkg/appdir"
	"forkskinny-go/pkg/config"
	"forkskinny-go/pkg/draw"
	"forkskinny-go/pkg/integral"
	"forkskinny-go/pkg/log"
	"forkskinny-go/pkg/prng"
	"forkskinny-go/pkg/store"
)

// paramFlags are the distinguisher and fork parameters.
func paramFlags() []cli.Flag {
	return []cli.Flag{
		&cli.IntFlag{Name: "rounds", Aliases: []string{"r"}, Usage: "total rounds `R`"},
		&cli.IntFlag{Name: "fork-point", Usage: "rounds before the fork `Ri`"},
		&cli.IntFlag{Name: "skip", Usage: "tweakeys skipped at the fork `R0`"},
		&cli.IntSliceFlag{Name: "active-plaintext", Usage: "swept plaintext `CELLS`"},
		&cli.IntFlag{Name: "active-tweakey-index", Usage: "swept tweakey `CELL`"},
		&cli.IntFlag{Name: "active-tweakey-words", Usage: "number of tweakey `WORDS` swept at that cell, active width 4*WORDS bits"},
		&cli.IntSliceFlag{Name: "targets", Usage: "ciphertext `CELLS` expected to sum to zero"},
		&cli.StringFlag{Name: "seed", Usage: "64 hex digit `SEED` for a reproducible run"},
	}
}

// searchFlags are the options of a full run.
func searchFlags() []cli.Flag {
	return []cli.Flag{
		&cli.IntFlag{Name: "trials", Aliases: []string{"n"}, Usage: "`NUMBER` of random base choices"},
		&cli.IntFlag{Name: "workers", Aliases: []string{"w"}, Usage: "parallel `WORKERS` (0 for one per CPU)"},
		&cli.StringFlag{Name: "base-plaintext", Usage: "fixed base plaintext `HEX`"},
		&cli.StringFlag{Name: "base-tk1", Usage: "fixed TK1 `HEX`"},
		&cli.StringFlag{Name: "base-tk2", Usage: "fixed TK2 `HEX`"},
		&cli.StringFlag{Name: "base-tk3", Usage: "fixed TK3 `HEX`"},
		&cli.StringFlag{Name: "results-db", Usage: "SQLite run store `PATH`"},
		&cli.StringFlag{Name: "api-listen", Usage: "serve the status API on `ADDR`"},
		&cli.BoolFlag{Name: "no-store", Usage: "do not record trials"},
	}
}

var searchCommand = &cli.Command{
	Name:        "search",
	Usage:       "self-test the cipher then sweep the active cells",
	UsageText:   "forkcheck search [options]",
	Description: "Runs the round-trip self-test once and then one exhaustive sweep per trial, printing the target and control sums.",
	Flags:       append(paramFlags(), searchFlags()...),
	Action:      searchCmd,
}

func openStore(cfg *config.Config) (*store.Store, error) {
	path, err := appdir.Path(cfg.ResultsDB)
	if err != nil {
		return nil, cli.Exit(err.Error(), exitConfig)
	}
	st, err := store.Open(path)
	if err != nil {
		return nil, cli.Exit(err.Error(), exitConfig)
	}
	return st, nil
}

func searchCmd(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	closeLog, err := setupLogging(cfg)
	if err != nil {
		return err
	}
	defer closeLog()
	if cfg.ConfigFile != "" {
		log.Printf("using config file %s", cfg.ConfigFile)
	}

	seed, err := runSeed(cfg)
	if err != nil {
		return err
	}
	log.Info().Str("seed", seed.String()).Msg("random source ready")

	fixed, err := cfg.Fixed()
	if err != nil {
		return exitFor(err)
	}
	var progress integral.Progress
	h, err := integral.NewHarness(cfg.Params(), prng.New(seed), integral.SearchOptions{Workers: cfg.Workers, Progress: &progress})
	if err != nil {
		return exitFor(err)
	}
	h.Fixed = fixed

	var st *store.Store
	if !c.Bool("no-store") {
		if st, err = openStore(cfg); err != nil {
			return err
		}
		defer st.Close()
	}
	batch := store.NewBatchID()

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	var srv *api.Server
	if cfg.APIListen != "" {
		srv = api.NewServer(batch, cfg.Params(), &progress)
		apiCtx, stopAPI := context.WithCancel(ctx)
		defer stopAPI()
		go func() {
			if err := srv.Run(apiCtx, cfg.APIListen); err != nil {
				log.Error().Err(err).Msg("api: server failed")
			}
		}()
	}

	rep, err := h.SelfTest()
	if rep != nil {
		integral.WriteSelfTest(os.Stdout, rep)
	}
	if err != nil {
		return exitFor(err)
	}

	trial := 0
	_, err = h.Run(ctx, cfg.Trials, func(res *integral.Result) error {
		trial++
		fmt.Fprint(os.Stdout, fn.T(cfg.Trials > 1, fmt.Sprintf("Trial %d/%d\n", trial, cfg.Trials), ""))
		integral.WriteResult(os.Stdout, res)
		log.Debug().Str("control", draw.CellLabel(res.Control)).Msg("control position")
		if srv != nil {
			srv.Observe(trial, res)
		}
		if st == nil {
			return nil
		}
		run, err := st.Record(ctx, batch, seed.String(), res)
		if err != nil {
			return err
		}
		log.Debug().Str("run", run.ID).Str("batch", batch).Msg("trial recorded")
		return nil
	})
	if err != nil {
		return exitFor(err)
	}

	if st != nil {
		sum, err := st.Summarize(ctx, cfg.Params())
		if err != nil {
			return exitFor(err)
		}
		fmt.Fprintf(os.Stdout, "Target sum zero in %d of %d stored runs\n", sum.TargetZero(), sum.Runs)
	}
	return nil
}
