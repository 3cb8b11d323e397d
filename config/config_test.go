package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/matryer/is"
)

func TestDefaults(t *testing.T) {
	is := is.New(t)
	cfg := DefaultConfig()
	is.Equal(cfg.GetInt(ConfigSearchDepth), 8)
	is.Equal(cfg.GetBool(ConfigDebug), false)
	is.Equal(cfg.GetInt(ConfigEvalCacheBits), 20)
}

func TestLoadFlagsAndCommand(t *testing.T) {
	is := is.New(t)
	cfg := &Config{}
	err := cfg.Load([]string{"--search-depth", "5", "--debug", "search", "--tt-size-mb=16"})
	is.NoErr(err)
	is.Equal(cfg.GetInt(ConfigSearchDepth), 5)
	is.True(cfg.GetBool(ConfigDebug))
	is.Equal(cfg.GetInt(ConfigTTSizeMB), 16)
}

func TestLoadEnv(t *testing.T) {
	is := is.New(t)
	t.Setenv("RYUOU_SEARCH_WORKERS", "3")
	cfg := &Config{}
	is.NoErr(cfg.Load(nil))
	is.Equal(cfg.GetInt(ConfigSearchWorkers), 3)
}

func TestLoadFile(t *testing.T) {
	is := is.New(t)
	path := filepath.Join(t.TempDir(), "ryuou.yaml")
	is.NoErr(os.WriteFile(path, []byte("search-depth: 12\neval-cache-bits: 10\n"), 0o644))
	cfg := &Config{}
	is.NoErr(cfg.Load([]string{"--config-file", path}))
	is.Equal(cfg.GetInt(ConfigSearchDepth), 12)
	is.Equal(cfg.GetInt(ConfigEvalCacheBits), 10)
}

func TestFlagArgs(t *testing.T) {
	is := is.New(t)
	is.Equal(flagArgs([]string{"perft", "3", "--debug", "--search-depth", "4", "x"}),
		[]string{"--debug", "--search-depth", "4"})
}

func TestCommandArgs(t *testing.T) {
	is := is.New(t)
	is.Equal(CommandArgs([]string{"perft", "3", "--debug", "--search-depth", "4", "x"}),
		[]string{"perft", "3", "x"})
	is.Equal(CommandArgs([]string{"--tt-size-mb=8", "4", "--search-depth", "4"}),
		[]string{"4"})
	is.Equal(len(CommandArgs([]string{"--debug"})), 0)
}
