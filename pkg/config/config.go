// Package config loads the run configuration from file, environment and
// command-line overrides, in that order of precedence, and validates it
// before anything else runs.
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"forkskinny-go/pkg/forkcipher"
	"forkskinny-go/pkg/integral"
	"forkskinny-go/pkg/nibble"
	"forkskinny-go/pkg/prng"
)

const EnvPrefix = "FORKCHECK"

var ErrInvalid = errors.New("config: invalid configuration")

type Config struct {
	forkcipher.Fork `mapstructure:",squash"`

	ActivePlaintext    []int `mapstructure:"active_plaintext"`
	ActiveTweakeyIndex int   `mapstructure:"active_tweakey_index"`
	ActiveTweakeyWords int   `mapstructure:"active_tweakey_words"` // active width is 4*words bits
	Targets            []int `mapstructure:"targets"`

	Trials  int    `mapstructure:"trials"`
	Workers int    `mapstructure:"workers"`
	Seed    string `mapstructure:"seed"`

	BasePlaintext string `mapstructure:"base_plaintext"`
	BaseTK1       string `mapstructure:"base_tk1"`
	BaseTK2       string `mapstructure:"base_tk2"`
	BaseTK3       string `mapstructure:"base_tk3"`

	ResultsDB  string `mapstructure:"results_db"`
	LogDB      string `mapstructure:"log_db"`
	LogLevel   string `mapstructure:"log_level"`
	APIListen  string `mapstructure:"api_listen"`
	ConfigFile string `mapstructure:"config_file"`
}

// DefaultConfig returns the fourteen-round configuration the distinguisher
// was first checked with.
func DefaultConfig() *Config {
	return &Config{
		Fork:               forkcipher.Fork{Rounds: 14, ForkPoint: 7, Skip: 27},
		ActivePlaintext:    []int{14},
		ActiveTweakeyIndex: 15,
		ActiveTweakeyWords: 3,
		Targets:            []int{3, 15},
		Trials:             1,
		ResultsDB:          "runs.db",
		LogLevel:           "info",
	}
}

func setDefaults(v *viper.Viper, cfg *Config) {
	v.SetDefault("rounds", cfg.Rounds)
	v.SetDefault("fork_point", cfg.ForkPoint)
	v.SetDefault("skip", cfg.Skip)
	v.SetDefault("active_plaintext", cfg.ActivePlaintext)
	v.SetDefault("active_tweakey_index", cfg.ActiveTweakeyIndex)
	v.SetDefault("active_tweakey_words", cfg.ActiveTweakeyWords)
	v.SetDefault("targets", cfg.Targets)
	v.SetDefault("trials", cfg.Trials)
	v.SetDefault("workers", cfg.Workers)
	v.SetDefault("seed", cfg.Seed)
	v.SetDefault("base_plaintext", cfg.BasePlaintext)
	v.SetDefault("base_tk1", cfg.BaseTK1)
	v.SetDefault("base_tk2", cfg.BaseTK2)
	v.SetDefault("base_tk3", cfg.BaseTK3)
	v.SetDefault("results_db", cfg.ResultsDB)
	v.SetDefault("log_db", cfg.LogDB)
	v.SetDefault("log_level", cfg.LogLevel)
	v.SetDefault("api_listen", cfg.APIListen)
}

// LoadConfig reads file (optional), FORKCHECK_* environment variables and
// the overrides map (typically the flags the user set), then validates.
func LoadConfig(file string, overrides map[string]any) (*Config, error) {
	cfg := DefaultConfig()
	v := viper.New()
	setDefaults(v, cfg)

	if file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("config: reading %s: %w", file, err)
		}
	}
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	for k, val := range overrides {
		v.Set(k, val)
	}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	cfg.ConfigFile = file
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Params converts the configuration into distinguisher parameters.
func (c *Config) Params() integral.Params {
	return integral.Params{
		Fork:            c.Fork,
		ActivePlaintext: c.ActivePlaintext,
		ActiveTweakey:   integral.ActiveTweakey{Index: c.ActiveTweakeyIndex, Words: c.ActiveTweakeyWords},
		Targets:         c.Targets,
	}
}

func parseOptionalState(name, hex string) (*nibble.State, error) {
	if hex == "" {
		return nil, nil
	}
	s, err := nibble.ParseState(hex)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalid, name, err)
	}
	return &s, nil
}

// Fixed returns the pinned base material, if any was configured.
func (c *Config) Fixed() (integral.Fixed, error) {
	var f integral.Fixed
	var err error
	if f.Plaintext, err = parseOptionalState("base_plaintext", c.BasePlaintext); err != nil {
		return f, err
	}
	for i, hex := range []string{c.BaseTK1, c.BaseTK2, c.BaseTK3} {
		if f.Tweakey[i], err = parseOptionalState(fmt.Sprintf("base_tk%d", i+1), hex); err != nil {
			return f, err
		}
	}
	return f, nil
}

// HasSeed reports whether a fixed seed was configured.
func (c *Config) HasSeed() bool { return c.Seed != "" }

// ParsedSeed decodes the configured seed.
func (c *Config) ParsedSeed() (prng.Seed, error) {
	s, err := prng.ParseSeed(c.Seed)
	if err != nil {
		return s, fmt.Errorf("%w: seed: %v", ErrInvalid, err)
	}
	return s, nil
}

// Validate fails fast on anything that would otherwise corrupt a run.
func (c *Config) Validate() error {
	if err := c.Params().Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	if c.Trials < 1 {
		return fmt.Errorf("%w: trials must be at least 1, got %d", ErrInvalid, c.Trials)
	}
	if c.Workers < 0 {
		return fmt.Errorf("%w: workers must not be negative, got %d", ErrInvalid, c.Workers)
	}
	if c.HasSeed() {
		if _, err := c.ParsedSeed(); err != nil {
			return err
		}
	}
	if _, err := c.Fixed(); err != nil {
		return err
	}
	return nil
}
