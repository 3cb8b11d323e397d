package shell

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/matryer/is"
	"github.com/rs/zerolog"

	"github.com/ryuou/ryuou/board"
	"github.com/ryuou/ryuou/config"
	"github.com/ryuou/ryuou/search"
)

const goldCornerCSA = `P1 *  *  *  *  *  *  *  * -OU
P2 *  *  *  *  *  *  *  *  *
P3 *  *  *  *  *  *  *  * +FU
P4 *  *  *  *  *  *  *  *  *
P5 *  *  *  *  *  *  *  *  *
P6 *  *  *  *  *  *  *  *  *
P7 *  *  *  *  *  *  *  *  *
P8 *  *  *  *  *  *  *  *  *
P9 *  *  *  * +OU *  *  *  *
P+00KI
+
`

func TestMain(m *testing.M) {
	zerolog.SetGlobalLevel(zerolog.WarnLevel)
	os.Exit(m.Run())
}

func testController(t *testing.T) *ShellController {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.Set(config.ConfigEvalParamsPath, "")
	cfg.Set(config.ConfigTTSizeMB, 1)
	cfg.Set(config.ConfigEvalCacheBits, 8)
	cfg.Set(config.ConfigRecordsPath, t.TempDir())
	return newController(cfg, "", "test")
}

func run(t *testing.T, sc *ShellController, line string) (string, error) {
	t.Helper()
	cmd, err := extractFields(line)
	if err != nil {
		return "", err
	}
	r, err := sc.dispatch(cmd)
	if err != nil {
		return "", err
	}
	return r.message, nil
}

func TestExtractFields(t *testing.T) {
	is := is.New(t)
	type testdata struct {
		line   string
		expCmd *shellcmd
		expErr error
	}
	cases := []testdata{
		{"", nil, errNoData},
		{"search -depth 4",
			&shellcmd{"search", nil, map[string]string{"depth": "4"}},
			nil},
		{"move +7776FU -3334FU",
			&shellcmd{"move", []string{"+7776FU", "-3334FU"}, map[string]string{}},
			nil},
		{"load 'my game.csa' 3 -x y ",
			&shellcmd{"load",
				[]string{"my game.csa", "3"},
				map[string]string{"x": "y"}},
			nil,
		},
		{"search -depth",
			nil, errWrongOptionSyntax},
	}
	for _, t := range cases {
		cmd, err := extractFields(t.line)
		is.Equal(cmd, t.expCmd)
		is.Equal(err, t.expErr)
	}
}

func TestMoveAndUndo(t *testing.T) {
	is := is.New(t)
	sc := testController(t)
	initial := board.NewInitialBoard()

	out, err := run(t, sc, "move +7776FU -3334FU")
	is.NoErr(err)
	is.True(strings.Contains(out, "ply: 2"))
	is.True(strings.Contains(out, "last: -3334FU"))
	is.Equal(len(sc.played), 2)
	is.Equal(sc.hashes[0], initial.Hash())

	_, err = run(t, sc, "move +7775FU")
	is.True(err != nil)
	is.Equal(len(sc.played), 2)

	_, err = run(t, sc, "undo")
	is.NoErr(err)
	_, err = run(t, sc, "undo")
	is.NoErr(err)
	is.True(sc.board.Equals(initial))
	is.Equal(len(sc.hashes), 0)

	_, err = run(t, sc, "undo")
	is.Equal(err, errNoMoves)
}

func TestGenAndPerft(t *testing.T) {
	is := is.New(t)
	sc := testController(t)

	out, err := run(t, sc, "gen")
	is.NoErr(err)
	is.True(strings.HasPrefix(out, "30 moves\n"))
	is.True(strings.Contains(out, "+7776FU"))

	out, err = run(t, sc, "gen drop")
	is.NoErr(err)
	is.True(strings.HasPrefix(out, "0 moves"))

	_, err = run(t, sc, "gen sideways")
	is.True(err != nil)

	out, err = run(t, sc, "perft 1")
	is.NoErr(err)
	is.True(strings.HasPrefix(out, "perft(1) = 30 "))
}

func writeRecord(t *testing.T, dir, name, text string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	if err := os.WriteFile(p, []byte(text), 0o644); err != nil {
		t.Fatal(err)
	}
	return p
}

func TestLoadMateAndSearch(t *testing.T) {
	is := is.New(t)
	sc := testController(t)
	dir := sc.config.GetString(config.ConfigRecordsPath)
	writeRecord(t, dir, "corner.csa", goldCornerCSA)

	// found through the records directory
	_, err := run(t, sc, "load corner.csa")
	is.NoErr(err)
	is.Equal(len(sc.played), 0)

	out, err := run(t, sc, "mate")
	is.NoErr(err)
	is.Equal(out, "mate in 1: +0012KI")
	out, err = run(t, sc, "mate 3")
	is.NoErr(err)
	is.True(strings.HasPrefix(out, "mate in 3: "))
	_, err = run(t, sc, "mate 5")
	is.True(err != nil)

	out, err = run(t, sc, "search -depth 2")
	is.NoErr(err)
	is.True(strings.Contains(out, "best: +0012KI"))

	_, err = run(t, sc, "search -format xml")
	is.True(err != nil)

	out, err = run(t, sc, "search -depth 2 -plain true -play true")
	is.NoErr(err)
	is.True(strings.Contains(out, "(in check)"))
	is.Equal(len(sc.played), 1)
}

func TestNoMateFromInitial(t *testing.T) {
	is := is.New(t)
	sc := testController(t)
	out, err := run(t, sc, "mate 1")
	is.NoErr(err)
	is.Equal(out, "no mate in 1")
}

func TestSaveLoadAndList(t *testing.T) {
	is := is.New(t)
	sc := testController(t)
	dir := sc.config.GetString(config.ConfigRecordsPath)
	path := filepath.Join(dir, "game.csa")

	_, err := run(t, sc, "move +7776FU -3334FU +2726FU")
	is.NoErr(err)
	out, err := run(t, sc, "save "+path)
	is.NoErr(err)
	is.Equal(out, "saved 3 moves to "+path)
	after := sc.board.Copy()

	_, err = run(t, sc, "new")
	is.NoErr(err)
	is.Equal(len(sc.played), 0)

	_, err = run(t, sc, "load "+path)
	is.NoErr(err)
	is.Equal(len(sc.played), 3)
	is.True(sc.board.Equals(after))

	_, err = run(t, sc, "load "+path+" 1")
	is.NoErr(err)
	is.Equal(len(sc.played), 1)
	is.Equal(len(sc.hashes), 1)

	out, err = run(t, sc, "list")
	is.NoErr(err)
	is.Equal(out, path)

	_, err = run(t, sc, "load missing.csa")
	is.True(err != nil)
}

func TestEval(t *testing.T) {
	is := is.New(t)
	sc := testController(t)
	out, err := run(t, sc, "eval")
	is.NoErr(err)
	is.True(strings.HasPrefix(out, "material: 0\n"))
	is.True(strings.Contains(out, "tables: material only"))
}

func TestSet(t *testing.T) {
	is := is.New(t)
	sc := testController(t)

	out, err := run(t, sc, "set search-depth 3")
	is.NoErr(err)
	is.Equal(out, "set search-depth to 3")
	is.Equal(search.ConfigFromSettings(sc.config).MaxDepth, 3)

	out, err = run(t, sc, "set search-depth")
	is.NoErr(err)
	is.Equal(out, "search-depth: 3")

	_, err = run(t, sc, "set no-such-key")
	is.True(err != nil)

	before := sc.searcher
	_, err = run(t, sc, "set tt-size-mb 2")
	is.NoErr(err)
	is.True(before != sc.searcher)

	out, err = run(t, sc, "set")
	is.NoErr(err)
	is.True(strings.Contains(out, "tt-size-mb"))
}

func TestBench(t *testing.T) {
	is := is.New(t)
	sc := testController(t)
	out, err := run(t, sc, "bench -runs 2 -depth 2")
	is.NoErr(err)
	is.True(strings.Contains(out, "depth: 2"))
	is.True(strings.Contains(out, "runs: 2"))
	is.True(strings.Contains(out, "nodes-per-second:"))

	_, err = run(t, sc, "bench -runs 3 -depth 1 -hist true")
	is.NoErr(err)

	_, err = run(t, sc, "bench -runs 0")
	is.True(err != nil)
}

func TestScript(t *testing.T) {
	is := is.New(t)
	sc := testController(t)
	script := writeRecord(t, t.TempDir(), "test.lua", `
local out = ryuou_move("+7776FU")
if string.find(out, "ERROR") then error(out) end
local g = ryuou_gen("")
if string.sub(g, 1, 9) ~= "30 moves\n" then error(g) end
local bad = ryuou_move("+1112FU")
if not string.find(bad, "^ERROR: ") then error("expected an error") end
local json = require("json")
local r = json.decode(ryuou_search("-depth 1 -format json"))
if r.depth ~= 1 then error("depth " .. tostring(r.depth)) end
if #r.pv < 1 then error("empty pv") end
`)
	_, err := run(t, sc, "script "+script)
	is.NoErr(err)
	is.Equal(len(sc.played), 1)

	broken := writeRecord(t, t.TempDir(), "broken.lua", `error("boom")`)
	_, err = run(t, sc, "script "+broken)
	is.True(err != nil)
}

func TestHelp(t *testing.T) {
	is := is.New(t)
	sc := testController(t)
	out, err := run(t, sc, "help")
	is.NoErr(err)
	is.True(strings.HasPrefix(out, "ryuou test\n"))
	is.True(strings.Contains(out, "Commands:"))

	out, err = run(t, sc, "help search")
	is.NoErr(err)
	is.True(strings.Contains(out, "-workers"))

	out, err = run(t, sc, "help nothing")
	is.NoErr(err)
	is.Equal(out, "There is no help text for the topic nothing")
}

func TestExecute(t *testing.T) {
	is := is.New(t)
	sc := testController(t)
	sig := make(chan os.Signal, 1)
	sc.Execute(sig, "move +7776FU; bogus; exit; move -3334FU")
	is.Equal(len(sc.played), 1)
	is.Equal(len(sig), 1)
}

func TestCompleter(t *testing.T) {
	is := is.New(t)
	sc := testController(t)
	c := NewShellCompleter(sc)

	matches, n := c.Do([]rune("sea"), 3)
	is.Equal(n, 3)
	is.Equal(matches, [][]rune{[]rune("rch ")})

	line := []rune("gen ev")
	matches, _ = c.Do(line, len(line))
	is.Equal(matches, [][]rune{[]rune("asion ")})

	line = []rune("move +77")
	matches, _ = c.Do(line, len(line))
	is.Equal(matches, [][]rune{[]rune("76FU ")})
}
