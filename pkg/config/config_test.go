package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeYAML(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "forkcheck.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestDefaultsMatchOriginalRun(t *testing.T) {
	cfg, err := LoadConfig("", nil)
	require.NoError(t, err)
	require.Equal(t, 14, cfg.Rounds)
	require.Equal(t, 7, cfg.ForkPoint)
	require.Equal(t, 27, cfg.Skip)
	require.Equal(t, []int{14}, cfg.ActivePlaintext)
	require.Equal(t, 15, cfg.ActiveTweakeyIndex)
	require.Equal(t, 3, cfg.ActiveTweakeyWords)
	require.Equal(t, []int{3, 15}, cfg.Targets)
	require.Equal(t, uint64(65536), cfg.Params().Encryptions())
}

func TestFileThenEnvThenOverrides(t *testing.T) {
	path := writeYAML(t, `
rounds: 10
fork_point: 4
skip: 3
active_plaintext: [0, 1]
targets: [5]
trials: 4
`)
	t.Setenv("FORKCHECK_SKIP", "9")
	cfg, err := LoadConfig(path, map[string]any{"trials": 2})
	require.NoError(t, err)
	require.Equal(t, 10, cfg.Rounds)
	require.Equal(t, 4, cfg.ForkPoint)
	require.Equal(t, 9, cfg.Skip)
	require.Equal(t, []int{0, 1}, cfg.ActivePlaintext)
	require.Equal(t, []int{5}, cfg.Targets)
	require.Equal(t, 2, cfg.Trials)
	require.Equal(t, path, cfg.ConfigFile)
}

func TestEnvList(t *testing.T) {
	t.Setenv("FORKCHECK_TARGETS", "1,2,3")
	cfg, err := LoadConfig("", nil)
	require.NoError(t, err)
	require.Equal(t, []int{1, 2, 3}, cfg.Targets)
}

func TestValidateFailsFast(t *testing.T) {
	tests := map[string]map[string]any{
		"rounds beyond constants": {"rounds": 63, "fork_point": 7},
		"fork point past rounds":  {"fork_point": 15},
		"negative skip":           {"skip": -1},
		"skip beyond cap":         {"skip": 1 << 40},
		"plaintext out of range":  {"active_plaintext": []int{16}},
		"target out of range":     {"targets": []int{3, 99}},
		"tweakey index":           {"active_tweakey_index": 16},
		"tweakey words":           {"active_tweakey_words": 4},
		"zero trials":             {"trials": 0},
		"negative workers":        {"workers": -2},
		"bad seed":                {"seed": "xyz"},
		"bad base plaintext":      {"base_plaintext": "123"},
		"bad base tk2":            {"base_tk2": strings.Repeat("g", 16)},
	}
	for name, overrides := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := LoadConfig("", overrides)
			require.Error(t, err)
			if !errors.Is(err, ErrInvalid) {
				t.Fatalf("error %v does not wrap ErrInvalid", err)
			}
		})
	}
}

func TestMissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"), nil)
	require.Error(t, err)
}

func TestFixedMaterial(t *testing.T) {
	cfg, err := LoadConfig("", map[string]any{
		"base_plaintext": "0123456789abcdef",
		"base_tk3":       "ffffffffffffffff",
		"seed":           strings.Repeat("ab", 32),
	})
	require.NoError(t, err)
	fixed, err := cfg.Fixed()
	require.NoError(t, err)
	require.NotNil(t, fixed.Plaintext)
	require.Equal(t, "0123456789abcdef", fixed.Plaintext.String())
	require.Nil(t, fixed.Tweakey[0])
	require.Nil(t, fixed.Tweakey[1])
	require.Equal(t, "ffffffffffffffff", fixed.Tweakey[2].String())

	require.True(t, cfg.HasSeed())
	seed, err := cfg.ParsedSeed()
	require.NoError(t, err)
	require.Equal(t, byte(0xab), seed[31])
}
