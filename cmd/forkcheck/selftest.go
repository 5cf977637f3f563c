package main

import (
	"os"

	"github.com/urfave/cli/v2"

	"forkskinny-go/pkg/integral"
	"forkskinny-go/pkg/log"
	"forkskinny-go/pkg/prng"
)

var selftestCommand = &cli.Command{
	Name:      "selftest",
	Usage:     "check that decryption inverts encryption for one random input",
	UsageText: "forkcheck selftest [--rounds R --fork-point Ri --skip R0] [--seed HEX]",
	Flags:     paramFlags(),
	Action:    selftestCmd,
}

func selftestCmd(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	closeLog, err := setupLogging(cfg)
	if err != nil {
		return err
	}
	defer closeLog()

	seed, err := runSeed(cfg)
	if err != nil {
		return err
	}
	log.Debug().Str("seed", seed.String()).Stringer("fork", cfg.Fork).Msg("self-test")
	rep, err := integral.SelfTest(prng.New(seed), cfg.Fork)
	if err != nil {
		return exitFor(err)
	}
	integral.WriteSelfTest(os.Stdout, rep)
	if !rep.Passed {
		return exitFor(integral.ErrSelfTestFailed)
	}
	return nil
}
