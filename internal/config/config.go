// Package config loads the process-wide settings: the double-dummy
// oracle's thread budget and a per-batch board cap.
// Values are layered flag > env (BRIDGE_SOLVER_*) > bridgesolve.yaml >
// default, the same "flags win" precedence the teacher's flag package
// gave the CLI, reimplemented here with viper so it also reads the env
// and a config file.
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	// DefaultThreadBudget matches the original engine's single-threaded
	// default build; a binding raises it explicitly when the host
	// environment has cores to spare.
	DefaultThreadBudget = 1

	// DefaultMaxBoards mirrors MAXNOOFBOARDS (spec.md 6) and equals
	// ddoracle.MaxBoards, the fixed size ddoracle.Loader splits batches at.
	DefaultMaxBoards = 200
)

// Config is the process-wide configuration for a bridgesolve run.
type Config struct {
	// ThreadBudget bounds how many cores the DD oracle the caller
	// supplies may use. The engine only plumbs this value through; it
	// never spawns threads itself.
	ThreadBudget int `mapstructure:"thread_budget"`

	// MaxBoards is a per-batch board cap. Load reads and validates it,
	// but no operation in this module reads Config.MaxBoards: batches
	// are split at the constant ddoracle.MaxBoards.
	MaxBoards int `mapstructure:"max_boards"`
}

func defaults() Config {
	return Config{
		ThreadBudget: DefaultThreadBudget,
		MaxBoards:    DefaultMaxBoards,
	}
}

// Load builds a Config from, in increasing precedence: built-in
// defaults, a bridgesolve.yaml in the current directory (if present),
// BRIDGE_SOLVER_* environment variables, and flags already parsed onto
// fs. fs may be nil to skip flag binding entirely.
func Load(fs *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("bridge_solver")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetConfigName("bridgesolve")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	d := defaults()
	v.SetDefault("thread_budget", d.ThreadBudget)
	v.SetDefault("max_boards", d.MaxBoards)

	if err := v.ReadInConfig(); err != nil {
		if _, notFound := err.(viper.ConfigFileNotFoundError); !notFound {
			return nil, fmt.Errorf("config: read bridgesolve.yaml: %w", err)
		}
	}

	if fs != nil {
		if f := fs.Lookup("thread-budget"); f != nil {
			if err := v.BindPFlag("thread_budget", f); err != nil {
				return nil, fmt.Errorf("config: bind thread-budget flag: %w", err)
			}
		}
		if f := fs.Lookup("max-boards"); f != nil {
			if err := v.BindPFlag("max_boards", f); err != nil {
				return nil, fmt.Errorf("config: bind max-boards flag: %w", err)
			}
		}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("config: unmarshal: %w", err)
	}

	if c.ThreadBudget < 1 {
		return nil, fmt.Errorf("config: thread_budget must be >= 1, got %d", c.ThreadBudget)
	}
	if c.MaxBoards < 1 {
		return nil, fmt.Errorf("config: max_boards must be >= 1, got %d", c.MaxBoards)
	}

	return &c, nil
}
