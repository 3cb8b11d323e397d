package main

import (
	_ "embed"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"runtime/pprof"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/ryuou/ryuou/config"
	"github.com/ryuou/ryuou/shell"
)

var (
	GitVersion string
)

//go:embed banner.txt
var banner string

// consoleLogger writes "| LEVEL | message key:value" lines to stderr.
func consoleLogger(debug bool) zerolog.Logger {
	output := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
	output.FormatLevel = func(i interface{}) string {
		return strings.ToUpper(fmt.Sprintf("| %-6s|", i))
	}
	output.FormatMessage = func(i interface{}) string {
		return fmt.Sprintf("%s", i)
	}
	output.FormatFieldName = func(i interface{}) string {
		return fmt.Sprintf("%s:", i)
	}
	level := zerolog.InfoLevel
	if debug {
		level = zerolog.DebugLevel
	}
	zerolog.SetGlobalLevel(level)
	return zerolog.New(output).Level(level).With().Timestamp().Logger()
}

// profiler owns the optional CPU and heap profiles of one run. The CPU
// profile covers the whole session; the heap profile is taken at exit,
// after the last search has released its trees.
type profiler struct {
	cpu     *os.File
	memPath string
}

func startProfiles(cpuPath, memPath string) (*profiler, error) {
	p := &profiler{memPath: memPath}
	if cpuPath == "" {
		return p, nil
	}
	f, err := os.Create(cpuPath)
	if err != nil {
		return nil, fmt.Errorf("could not create CPU profile: %w", err)
	}
	if err := pprof.StartCPUProfile(f); err != nil {
		f.Close()
		return nil, fmt.Errorf("could not start CPU profile: %w", err)
	}
	p.cpu = f
	return p, nil
}

func (p *profiler) stop() error {
	if p.cpu != nil {
		pprof.StopCPUProfile()
		p.cpu.Close()
		log.Info().Str("path", p.cpu.Name()).Msg("wrote-cpu-profile")
	}
	if p.memPath == "" {
		return nil
	}
	f, err := os.Create(p.memPath)
	if err != nil {
		return fmt.Errorf("could not create memory profile: %w", err)
	}
	defer f.Close()
	var memstats runtime.MemStats
	runtime.ReadMemStats(&memstats)
	log.Info().Uint64("heap-alloc", memstats.HeapAlloc).Uint32("gc-cycles", memstats.NumGC).Msg("memory-stats")
	if err := pprof.WriteHeapProfile(f); err != nil {
		return fmt.Errorf("could not write memory profile: %w", err)
	}
	log.Info().Str("path", p.memPath).Msg("wrote-memory-profile")
	return nil
}

// run starts the engine shell and returns the process exit code. Command
// words left over after the flags run once as a ;-separated line instead
// of the interactive loop.
func run(args []string) int {
	// Data files given as relative paths fall back to the directory of
	// the executable.
	ex, err := os.Executable()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	exPath := filepath.Dir(ex)

	cfg := &config.Config{}
	if err := cfg.Load(args); err != nil {
		fmt.Fprintln(os.Stderr, "bad arguments: "+err.Error())
		return 2
	}
	cfg.AdjustRelativePaths(exPath)

	logger := consoleLogger(cfg.GetBool(config.ConfigDebug))
	zerolog.DefaultContextLogger = &logger
	log.Logger = logger
	log.Debug().Msg("debug-logging-on")
	log.Info().Str("exec-path", exPath).Interface("config", cfg.SanitizedSettings()).Msg("loaded-config")

	prof, err := startProfiles(cfg.GetString(config.ConfigCPUProfile), cfg.GetString(config.ConfigMemProfile))
	if err != nil {
		log.Err(err).Msg("profile-failed")
		return 1
	}

	line := strings.TrimSpace(strings.Join(config.CommandArgs(args), " "))
	if line == "" {
		fmt.Println(banner)
		fmt.Println(GitVersion)
	}

	done := make(chan struct{})
	sig := make(chan os.Signal, 1)
	go func() {
		signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
		<-sig
		log.Info().Msg("got quit signal...")
		close(done)
	}()

	// Building the controller loads the evaluation tables and sizes the
	// transposition table, so it waits until logging is set up.
	sc := shell.NewShellController(cfg, exPath, GitVersion)
	if line == "" {
		go sc.Loop(sig)
	} else {
		sc.Execute(sig, line)
		select {
		case sig <- syscall.SIGINT:
		default:
		}
	}
	<-done

	sc.Cleanup()
	code := 0
	if err := prof.stop(); err != nil {
		log.Err(err).Msg("profile-failed")
		code = 1
	}
	log.Info().Msg("ryuou shutting down")
	return code
}

func main() {
	os.Exit(run(os.Args[1:]))
}
