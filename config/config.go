// Package config loads anagramist's runtime configuration from flags and
// their namsral/flag-bound environment variable equivalents.
package config

import (
	"fmt"

	"github.com/namsral/flag"
)

// Config holds every setting a verb of cmd/anagramist needs: where the
// search tree lives, how to reach the scoring oracle, which puzzle profile
// to use, and the budgets/seed that make a run reproducible.
type Config struct {
	StorePath     string
	OracleAddr    string
	LogLevel      string
	PuzzleProfile string
	Seed          uint64
	MaxIterations int
	MaxTimeSecs   int
}

// Register binds every config field to a flag on fs, each one also readable
// as an ANAGRAMIST_-prefixed environment variable since fs is expected to be
// a namsral/flag.FlagSet. Verbs that need additional, verb-specific flags on
// the same command line call Register before adding their own flags and
// parsing, so both share one Parse call.
func (c *Config) Register(fs *flag.FlagSet) {
	fs.StringVar(&c.StorePath, "store-path", "./anagramist.db", "path to the SQLite search-tree database")
	fs.StringVar(&c.OracleAddr, "oracle-addr", "http://localhost:9090/score", "address of the external scoring oracle")
	fs.StringVar(&c.LogLevel, "log-level", "info", "zerolog level: debug, info, warn, error")
	fs.StringVar(&c.PuzzleProfile, "puzzle", "c1663", "built-in puzzle profile name")
	fs.Uint64Var(&c.Seed, "seed", 0, "PRNG seed; 0 means seed from entropy")
	fs.IntVar(&c.MaxIterations, "max-iterations", 0, "stop after this many search iterations; 0 means unbounded")
	fs.IntVar(&c.MaxTimeSecs, "max-time", 0, "stop after this many seconds; 0 means unbounded")
}

// EnvPrefix is the prefix namsral/flag binds every registered flag's
// environment-variable equivalent under, e.g. -store-path also reads
// ANAGRAMIST_STORE_PATH.
const EnvPrefix = "ANAGRAMIST"

// NewFlagSet returns a namsral/flag.FlagSet that binds ANAGRAMIST_-prefixed
// environment variables, for callers (verb-specific CLI commands) that need
// to add their own flags alongside Register's.
func NewFlagSet(name string) *flag.FlagSet {
	return flag.NewFlagSetWithEnvPrefix(name, EnvPrefix, flag.ContinueOnError)
}

// Load is the simple case: a FlagSet containing only the common config
// flags, parsed from args.
func (c *Config) Load(name string, args []string) error {
	fs := NewFlagSet(name)
	c.Register(fs)
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("config: parse: %w", err)
	}
	return nil
}
