package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"

	"forkskinny-go/pkg/config"
	"forkskinny-go/pkg/forkcipher"
	"forkskinny-go/pkg/integral"
	"forkskinny-go/pkg/prng"
	"forkskinny-go/pkg/store"
)

func captureOverrides(t *testing.T, args ...string) map[string]any {
	t.Helper()
	var got map[string]any
	cmd := &cli.Command{
		Name:  "search",
		Flags: append(paramFlags(), searchFlags()...),
		Action: func(c *cli.Context) error {
			got = overrides(c)
			return nil
		},
	}
	app := &cli.App{
		Name:     "forkcheck",
		Flags:    []cli.Flag{&cli.StringFlag{Name: "log-level"}},
		Commands: []*cli.Command{cmd},
	}
	require.NoError(t, app.RunContext(context.Background(), append([]string{"forkcheck"}, args...)))
	return got
}

func TestOverridesOnlySetFlags(t *testing.T) {
	got := captureOverrides(t, "--log-level", "debug", "search", "--rounds", "12", "--targets", "1", "--targets", "2", "--base-tk2", "00ff00ff00ff00ff")
	require.Equal(t, map[string]any{
		"log_level": "debug",
		"rounds":    12,
		"targets":   []int{1, 2},
		"base_tk2":  "00ff00ff00ff00ff",
	}, got)

	require.Empty(t, captureOverrides(t, "search", "--no-store"))
}

func TestWriteSummary(t *testing.T) {
	sum := &store.Summary{Runs: 4}
	sum.TargetCounts[0] = 4
	sum.ControlCounts[0] = 1
	sum.ControlCounts[9] = 3

	var buf bytes.Buffer
	writeSummary(&buf, sum)
	out := buf.String()
	require.Contains(t, out, "Runs: 4")
	require.Contains(t, out, "Target sum zero: 4/4 (100.0%), random sum zero: 1/4")
	require.Equal(t, 16+3, strings.Count(out, "\n"))

	buf.Reset()
	writeSummary(&buf, &store.Summary{})
	require.Equal(t, "Runs: 0\n", buf.String())
}

func TestExitFor(t *testing.T) {
	require.NoError(t, exitFor(nil))

	tests := []struct {
		name string
		err  error
		code int
	}{
		{"self-test failure", integral.ErrSelfTestFailed, exitSelfTest},
		{"wrapped self-test failure", fmt.Errorf("trial 1: %w", integral.ErrSelfTestFailed), exitSelfTest},
		{"entropy", fmt.Errorf("%w: getrandom: ENOSYS", prng.ErrEntropy), exitEntropy},
		{"canceled", context.Canceled, exitCanceled},
		{"canceled inside search", fmt.Errorf("search: %w", context.Canceled), exitCanceled},
		{"invalid config", fmt.Errorf("%w: trials must be at least 1", config.ErrInvalid), exitConfig},
		{"invalid fork", fmt.Errorf("%w: skip", forkcipher.ErrInvalidFork), exitConfig},
		{"io", errors.New("store: failed to insert run"), exitConfig},
		{"exit code kept", cli.Exit("already mapped", 7), 7},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := exitFor(tt.err)
			var coder cli.ExitCoder
			require.True(t, errors.As(got, &coder), "%v is not an exit coder", got)
			require.Equal(t, tt.code, coder.ExitCode())
		})
	}
}
