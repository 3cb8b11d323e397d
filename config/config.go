package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	ConfigDebug          = "debug"
	ConfigEvalParamsPath = "eval-params-path"
	ConfigSearchDepth    = "search-depth"
	ConfigSearchWorkers  = "search-workers"
	ConfigSearchTimeMs   = "search-time-ms"
	ConfigSearchNodes    = "search-nodes"
	ConfigTTSizeMB       = "tt-size-mb"
	ConfigEvalCacheBits  = "eval-cache-bits"
	ConfigCPUProfile     = "cpu-profile"
	ConfigMemProfile     = "mem-profile"
	ConfigHistoryFile    = "history-file"
	ConfigRecordsPath    = "records-path"
	ConfigFile           = "config-file"
)

type Config struct {
	viper.Viper
}

func setDefaults(v *viper.Viper) {
	v.SetDefault(ConfigDebug, false)
	v.SetDefault(ConfigEvalParamsPath, "./data/eval.bin")
	v.SetDefault(ConfigSearchDepth, 8)
	v.SetDefault(ConfigSearchWorkers, 1)
	v.SetDefault(ConfigSearchTimeMs, 0)
	v.SetDefault(ConfigSearchNodes, 0)
	v.SetDefault(ConfigTTSizeMB, 64)
	v.SetDefault(ConfigEvalCacheBits, 20)
	v.SetDefault(ConfigCPUProfile, "")
	v.SetDefault(ConfigMemProfile, "")
	v.SetDefault(ConfigHistoryFile, ".ryuou_history")
	v.SetDefault(ConfigRecordsPath, "./data/records")
}

// DefaultConfig returns a config with every key at its default and no
// flags, environment or file consulted.
func DefaultConfig() *Config {
	c := &Config{Viper: *viper.New()}
	setDefaults(&c.Viper)
	return c
}

// Load reads settings with the precedence flags, then RYUOU_* environment
// variables, then an optional YAML config file, then defaults.
func (c *Config) Load(args []string) error {
	c.Viper = *viper.New()
	setDefaults(&c.Viper)

	fs := pflag.NewFlagSet("ryuou", pflag.ContinueOnError)
	fs.Bool(ConfigDebug, false, "debug logging on")
	fs.String(ConfigEvalParamsPath, "./data/eval.bin", "KPP/KKP parameter file")
	fs.Int(ConfigSearchDepth, 8, "maximum iterative deepening depth")
	fs.Int(ConfigSearchWorkers, 1, "number of search threads")
	fs.Int(ConfigSearchTimeMs, 0, "search time limit in milliseconds, 0 for none")
	fs.Int(ConfigSearchNodes, 0, "search node limit, 0 for none")
	fs.Int(ConfigTTSizeMB, 64, "transposition table size in MB, 0 to size from system memory")
	fs.Int(ConfigEvalCacheBits, 20, "log2 of evaluation cache entries")
	fs.String(ConfigCPUProfile, "", "file to write a CPU profile to")
	fs.String(ConfigMemProfile, "", "file to write a heap profile to")
	fs.String(ConfigHistoryFile, ".ryuou_history", "shell history file")
	fs.String(ConfigRecordsPath, "./data/records", "directory of CSA records")
	fs.String(ConfigFile, "", "YAML config file")
	if err := fs.Parse(flagArgs(args)); err != nil {
		return err
	}
	if err := c.BindPFlags(fs); err != nil {
		return err
	}

	c.SetEnvPrefix("ryuou")
	c.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	c.AutomaticEnv()

	if f := c.GetString(ConfigFile); f != "" {
		c.SetConfigFile(f)
		c.SetConfigType("yaml")
		if err := c.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return err
			}
			log.Warn().Str("file", f).Msg("config-file-not-found")
		}
	}
	return nil
}

// flagArgs keeps only double-dash arguments (and their values); the rest
// of the command line is a shell command.
func flagArgs(args []string) []string {
	var out []string
	for i := 0; i < len(args); i++ {
		a := args[i]
		if !strings.HasPrefix(a, "--") {
			continue
		}
		out = append(out, a)
		if !strings.Contains(a, "=") && i+1 < len(args) && !strings.HasPrefix(args[i+1], "-") &&
			!isBoolFlag(strings.TrimPrefix(a, "--")) {
			out = append(out, args[i+1])
			i++
		}
	}
	return out
}

// CommandArgs is the complement of the flags: the words left over for the
// shell to execute.
func CommandArgs(args []string) []string {
	flags := flagArgs(args)
	var out []string
	for _, a := range args {
		if len(flags) > 0 && flags[0] == a {
			flags = flags[1:]
			continue
		}
		out = append(out, a)
	}
	return out
}

func isBoolFlag(name string) bool {
	return name == ConfigDebug
}

// AdjustRelativePaths resolves relative data paths against basepath (the
// executable's directory) when they do not exist relative to the working
// directory.
func (c *Config) AdjustRelativePaths(basepath string) {
	for _, key := range []string{ConfigEvalParamsPath, ConfigRecordsPath} {
		p := c.GetString(key)
		if p == "" || filepath.IsAbs(p) || exists(p) {
			continue
		}
		c.Set(key, filepath.Join(basepath, p))
	}
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// SanitizedSettings returns all settings for logging.
func (c *Config) SanitizedSettings() map[string]any {
	return c.AllSettings()
}
