package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/matryer/is"
	"github.com/rs/zerolog"
)

func TestProfilesWrittenOnStop(t *testing.T) {
	is := is.New(t)
	dir := t.TempDir()
	cpu := filepath.Join(dir, "cpu.prof")
	mem := filepath.Join(dir, "mem.prof")

	p, err := startProfiles(cpu, mem)
	is.NoErr(err)
	is.NoErr(p.stop())

	for _, f := range []string{cpu, mem} {
		st, err := os.Stat(f)
		is.NoErr(err)
		is.True(st.Size() > 0)
	}
}

func TestProfilesOff(t *testing.T) {
	is := is.New(t)
	p, err := startProfiles("", "")
	is.NoErr(err)
	is.NoErr(p.stop())
}

func TestProfileBadPath(t *testing.T) {
	is := is.New(t)
	_, err := startProfiles(filepath.Join(t.TempDir(), "missing", "cpu.prof"), "")
	is.True(err != nil)
}

func TestConsoleLoggerLevel(t *testing.T) {
	is := is.New(t)
	defer zerolog.SetGlobalLevel(zerolog.InfoLevel)
	l := consoleLogger(true)
	is.Equal(l.GetLevel(), zerolog.DebugLevel)
	is.Equal(zerolog.GlobalLevel(), zerolog.DebugLevel)
	l = consoleLogger(false)
	is.Equal(l.GetLevel(), zerolog.InfoLevel)
}
