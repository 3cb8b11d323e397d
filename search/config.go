package search

import (
	"time"

	"github.com/ryuou/ryuou/config"
)

// Config holds the knobs of one search. The pruning toggles exist so
// tests can compare the pruned search with plain alpha-beta.
type Config struct {
	MaxDepth  int
	Workers   int
	TimeLimit time.Duration
	NodeLimit uint64

	// AspirationWidth is the first half-width of the root window;
	// zero searches every iteration with the full window.
	AspirationWidth int32

	NullMove bool
	LMR      bool
	Futility bool
	Mate1Ply bool
	UseTT    bool
}

func DefaultConfig() Config {
	return Config{
		MaxDepth:        8,
		Workers:         1,
		AspirationWidth: 64,
		NullMove:        true,
		LMR:             true,
		Futility:        true,
		Mate1Ply:        true,
		UseTT:           true,
	}
}

// PlainConfig turns off the table and every pruning aid, leaving a
// reference alpha-beta with quiescence.
func PlainConfig(depth int) Config {
	return Config{MaxDepth: depth, Workers: 1}
}

// ConfigFromSettings maps the named settings onto a search config.
func ConfigFromSettings(cfg *config.Config) Config {
	c := DefaultConfig()
	if d := cfg.GetInt(config.ConfigSearchDepth); d > 0 {
		c.MaxDepth = min(d, MaxPly-1)
	}
	if w := cfg.GetInt(config.ConfigSearchWorkers); w > 0 {
		c.Workers = w
	}
	if ms := cfg.GetInt(config.ConfigSearchTimeMs); ms > 0 {
		c.TimeLimit = time.Duration(ms) * time.Millisecond
	}
	if n := cfg.GetUint64(config.ConfigSearchNodes); n > 0 {
		c.NodeLimit = n
	}
	return c
}
