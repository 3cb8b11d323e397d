package shell

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/aybabtme/uniplot/histogram"
	"github.com/rs/zerolog/log"
	"github.com/samber/lo"
	"gopkg.in/yaml.v3"

	"github.com/ryuou/ryuou/board"
	"github.com/ryuou/ryuou/config"
	"github.com/ryuou/ryuou/csa"
	"github.com/ryuou/ryuou/mate"
	"github.com/ryuou/ryuou/move"
	"github.com/ryuou/ryuou/movegen"
	"github.com/ryuou/ryuou/search"
	"github.com/ryuou/ryuou/stats"
)

const (
	defaultBenchRuns  = 3
	defaultBenchDepth = 5
	benchConfidence   = 95
	benchHistBins     = 10
	benchHistWidth    = 40
	fetchTimeout      = 30 * time.Second
)

var errNoMoves = errors.New("no moves to undo")

type Response struct {
	message string
}

func msg(message string) *Response {
	return &Response{message: message}
}

func (c *shellcmd) intOption(key string, defaultI int) (int, error) {
	v, ok := c.options[key]
	if !ok {
		return defaultI, nil
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("option -%s: %w", key, err)
	}
	return i, nil
}

func (c *shellcmd) boolOption(key string) bool {
	return strings.ToLower(c.options[key]) == "true"
}

// recordPath resolves a record name against the records directory when it
// is not found as given.
func (sc *ShellController) recordPath(name string) string {
	if filepath.IsAbs(name) {
		return name
	}
	if _, err := os.Stat(name); err == nil {
		return name
	}
	return filepath.Join(sc.config.GetString(config.ConfigRecordsPath), name)
}

func (sc *ShellController) load(cmd *shellcmd) (*Response, error) {
	if len(cmd.args) == 0 {
		return nil, errors.New("need a CSA file to load")
	}
	var rec *csa.Record
	var err error
	if csa.IsURL(cmd.args[0]) {
		ctx, cancel := context.WithTimeout(context.Background(), fetchTimeout)
		defer cancel()
		rec, err = csa.Fetch(ctx, cmd.args[0])
	} else {
		rec, err = csa.ReadFile(sc.recordPath(cmd.args[0]))
	}
	if err != nil {
		return nil, err
	}
	n := -1
	if len(cmd.args) > 1 {
		n, err = strconv.Atoi(cmd.args[1])
		if err != nil {
			return nil, err
		}
	}
	b, hashes := rec.Replay(n)
	sc.record = rec
	sc.board = b
	sc.hashes = hashes
	sc.played = slices.Clone(rec.Moves[:len(hashes)])
	return msg(sc.display()), nil
}

func (sc *ShellController) save(cmd *shellcmd) (*Response, error) {
	if len(cmd.args) == 0 {
		return nil, errors.New("need a file to save to")
	}
	rec := *sc.record
	rec.Moves = sc.played
	if !slices.Equal(sc.played, sc.record.Moves) {
		rec.Result = ""
	}
	f, err := os.Create(cmd.args[0])
	if err != nil {
		return nil, err
	}
	defer f.Close()
	if err := rec.Write(f); err != nil {
		return nil, err
	}
	return msg("saved " + strconv.Itoa(len(rec.Moves)) + " moves to " + cmd.args[0]), nil
}

func (sc *ShellController) list(cmd *shellcmd) (*Response, error) {
	dir := sc.config.GetString(config.ConfigRecordsPath)
	if len(cmd.args) > 0 {
		dir = cmd.args[0]
	}
	files, err := csa.ListFiles(dir)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return msg("no records in " + dir), nil
	}
	return msg(strings.Join(files, "\n")), nil
}

func (sc *ShellController) newGame(cmd *shellcmd) (*Response, error) {
	sc.resetGame(board.NewInitialBoard())
	return msg(sc.display()), nil
}

func (sc *ShellController) display() string {
	var sb strings.Builder
	sb.WriteString(sc.board.String())
	fmt.Fprintf(&sb, "ply: %d", len(sc.played))
	if len(sc.played) > 0 {
		last := sc.played[len(sc.played)-1]
		fmt.Fprintf(&sb, "  last: %s", last.CSA(sc.board.Turn().Opponent()))
	}
	if sc.board.IsChecking() {
		sb.WriteString("  (in check)")
	}
	return sb.String()
}

func (sc *ShellController) show(cmd *shellcmd) (*Response, error) {
	return msg(sc.display()), nil
}

func (sc *ShellController) generate(cmd *shellcmd) (*Response, error) {
	var moves []move.Move
	if len(cmd.args) == 0 {
		moves = movegen.GenerateLegal(sc.board, nil, mate.IsPawnDropMate)
	} else {
		gt, err := movegen.ParseGenType(cmd.args[0])
		if err != nil {
			return nil, err
		}
		moves = movegen.Generate(sc.board, gt, nil)
	}
	turn := sc.board.Turn()
	strs := lo.Map(moves, func(m move.Move, _ int) string { return m.CSA(turn) })
	slices.Sort(strs)
	return msg(fmt.Sprintf("%d moves\n%s", len(strs), strings.Join(strs, " "))), nil
}

// playOne checks s against the current position and plays it.
func (sc *ShellController) playOne(s string) error {
	cm, err := move.ParseCSA(s, sc.board.Turn())
	if err != nil {
		return err
	}
	m, err := sc.board.MoveFromCSA(cm)
	if err != nil {
		return err
	}
	if mate.IsPawnDropMate(sc.board, m) {
		return fmt.Errorf("%s: pawn drop mate: %w", s, csa.ErrIllegalMove)
	}
	hash := sc.board.Hash()
	if !sc.board.MakeMove(m) {
		return fmt.Errorf("%s: king left in check: %w", s, csa.ErrIllegalMove)
	}
	sc.hashes = append(sc.hashes, hash)
	sc.played = append(sc.played, m)
	return nil
}

func (sc *ShellController) playMove(cmd *shellcmd) (*Response, error) {
	if len(cmd.args) == 0 {
		return nil, errors.New("need a move such as +7776FU")
	}
	for _, s := range cmd.args {
		if err := sc.playOne(s); err != nil {
			return nil, err
		}
	}
	return msg(sc.display()), nil
}

func (sc *ShellController) undo(cmd *shellcmd) (*Response, error) {
	if len(sc.played) == 0 {
		return nil, errNoMoves
	}
	last := len(sc.played) - 1
	sc.board.UnmakeMove(sc.played[last])
	sc.played = sc.played[:last]
	sc.hashes = sc.hashes[:last]
	return msg(sc.display()), nil
}

// searchConfig applies the command's options over the configured settings.
func (sc *ShellController) searchConfig(cmd *shellcmd) (search.Config, error) {
	cfg := search.ConfigFromSettings(sc.config)
	if cmd.boolOption("plain") {
		cfg = search.PlainConfig(cfg.MaxDepth)
	}
	depth, err := cmd.intOption("depth", cfg.MaxDepth)
	if err != nil {
		return cfg, err
	}
	cfg.MaxDepth = min(max(depth, 1), search.MaxPly-1)
	workers, err := cmd.intOption("workers", cfg.Workers)
	if err != nil {
		return cfg, err
	}
	cfg.Workers = max(workers, 1)
	ms, err := cmd.intOption("time", int(cfg.TimeLimit.Milliseconds()))
	if err != nil {
		return cfg, err
	}
	cfg.TimeLimit = time.Duration(ms) * time.Millisecond
	nodes, err := cmd.intOption("nodes", int(cfg.NodeLimit))
	if err != nil {
		return cfg, err
	}
	cfg.NodeLimit = uint64(max(nodes, 0))
	return cfg, nil
}

func (sc *ShellController) runSearch(cfg search.Config) (*search.Result, error) {
	ctx, cancel := context.WithCancel(context.Background())
	sc.cancel = cancel
	defer func() {
		cancel()
		sc.cancel = nil
	}()
	sc.searcher.SetConfig(cfg)
	return sc.searcher.Search(ctx, sc.board, sc.hashes)
}

func (sc *ShellController) search(cmd *shellcmd) (*Response, error) {
	format := cmd.options["format"]
	if format != "" && format != "yaml" && format != "json" {
		return nil, fmt.Errorf("unknown format %q", format)
	}
	cfg, err := sc.searchConfig(cmd)
	if err != nil {
		return nil, err
	}
	res, err := sc.runSearch(cfg)
	if err != nil {
		return nil, err
	}
	var out string
	if format == "json" {
		var bts []byte
		bts, err = json.Marshal(res)
		out = string(bts) + "\n"
	} else {
		out, err = res.YAML()
	}
	if err != nil {
		return nil, err
	}
	if cmd.boolOption("play") {
		if err := sc.playOne(res.Best); err != nil {
			return nil, err
		}
		out += sc.display()
	}
	return msg(strings.TrimRight(out, "\n")), nil
}

func (sc *ShellController) mate(cmd *shellcmd) (*Response, error) {
	plies := 1
	if len(cmd.args) > 0 {
		var err error
		plies, err = strconv.Atoi(cmd.args[0])
		if err != nil {
			return nil, err
		}
	}
	var m move.Move
	var found bool
	switch plies {
	case 1:
		m, found = mate.Mate1Ply(sc.board)
	case 3:
		m, found = mate.Mate3Ply(sc.board)
	default:
		return nil, errors.New("mate search supports 1 or 3 plies")
	}
	if !found {
		return msg(fmt.Sprintf("no mate in %d", plies)), nil
	}
	return msg(fmt.Sprintf("mate in %d: %s", plies, m.CSA(sc.board.Turn()))), nil
}

func (sc *ShellController) evaluate(cmd *shellcmd) (*Response, error) {
	v := sc.eval.Evaluate(sc.board)
	kind := "kpp/kkp"
	if sc.eval.MaterialOnly() {
		kind = "material only"
	}
	return msg(fmt.Sprintf("material: %d\npositional: %d\nblack: %d\nside to move: %d\ntables: %s",
		v.Material, v.Positional, v.Sum(), v.Value(sc.board.Turn()), kind)), nil
}

func (sc *ShellController) perft(cmd *shellcmd) (*Response, error) {
	if len(cmd.args) == 0 {
		return nil, errors.New("need a depth")
	}
	depth, err := strconv.Atoi(cmd.args[0])
	if err != nil {
		return nil, err
	}
	if depth < 1 {
		return nil, errors.New("depth must be at least 1")
	}
	start := time.Now()
	n := movegen.Perft(sc.board, depth, mate.IsPawnDropMate)
	elapsed := time.Since(start)
	log.Debug().Int("depth", depth).Uint64("nodes", n).Dur("elapsed", elapsed).Msg("perft")
	return msg(fmt.Sprintf("perft(%d) = %d (%v)", depth, n, elapsed.Round(time.Millisecond))), nil
}

type benchReport struct {
	Depth         int           `yaml:"depth"`
	Runs          int           `yaml:"runs"`
	NodesPerSec   stats.Summary `yaml:"nodes-per-second"`
	LastBest      string        `yaml:"best"`
	LastValue     int32         `yaml:"value"`
	AverageMillis float64       `yaml:"average-ms"`
	StdErrMillis  float64       `yaml:"stderr-ms"`
}

// bench searches the current position repeatedly from an empty table and
// summarizes the speed.
func (sc *ShellController) bench(cmd *shellcmd) (*Response, error) {
	runs, err := cmd.intOption("runs", defaultBenchRuns)
	if err != nil {
		return nil, err
	}
	if runs < 1 {
		return nil, errors.New("need at least one run")
	}
	if _, ok := cmd.options["depth"]; !ok {
		cmd.options["depth"] = strconv.Itoa(defaultBenchDepth)
	}
	cfg, err := sc.searchConfig(cmd)
	if err != nil {
		return nil, err
	}
	cfg.TimeLimit = 0
	cfg.NodeLimit = 0

	nps := make([]float64, 0, runs)
	var ms stats.Running
	var res *search.Result
	for i := 0; i < runs; i++ {
		sc.searcher.TT().Clear()
		sc.searcher.History().Clear()
		res, err = sc.runSearch(cfg)
		if err != nil {
			return nil, err
		}
		secs := max(res.Elapsed.Seconds(), 1e-6)
		nps = append(nps, float64(res.Nodes)/secs)
		ms.Push(float64(res.Elapsed.Milliseconds()))
		log.Info().Int("run", i+1).Uint64("nodes", res.Nodes).Dur("elapsed", res.Elapsed).Msg("bench-run")
	}
	report := benchReport{
		Depth:         cfg.MaxDepth,
		Runs:          runs,
		NodesPerSec:   stats.Summarize(nps, benchConfidence),
		LastBest:      res.Best,
		LastValue:     res.Value,
		AverageMillis: ms.Mean(),
		StdErrMillis:  ms.StandardError(),
	}
	out, err := yaml.Marshal(report)
	if err != nil {
		return nil, err
	}
	var sb strings.Builder
	sb.Write(out)
	// a histogram of identical samples has no width
	if cmd.boolOption("hist") && report.NodesPerSec.Max > report.NodesPerSec.Min {
		sb.WriteString("nodes per second:\n")
		hist := histogram.Hist(benchHistBins, nps)
		if err := histogram.Fprint(&sb, hist, histogram.Linear(benchHistWidth)); err != nil {
			return nil, err
		}
	}
	return msg(strings.TrimRight(sb.String(), "\n")), nil
}

// searcherKeys are the settings that require a rebuilt searcher.
var searcherKeys = []string{
	config.ConfigEvalParamsPath, config.ConfigEvalCacheBits, config.ConfigTTSizeMB,
}

func (sc *ShellController) set(cmd *shellcmd) (*Response, error) {
	if len(cmd.args) == 0 {
		out, err := yaml.Marshal(sc.config.SanitizedSettings())
		if err != nil {
			return nil, err
		}
		return msg(strings.TrimRight(string(out), "\n")), nil
	}
	key := cmd.args[0]
	if len(cmd.args) == 1 {
		if !sc.config.IsSet(key) {
			return nil, fmt.Errorf("unknown setting %q", key)
		}
		return msg(fmt.Sprintf("%s: %v", key, sc.config.Get(key))), nil
	}
	value := strings.Join(cmd.args[1:], " ")
	sc.config.Set(key, value)
	if lo.Contains(searcherKeys, key) {
		sc.initSearcher()
	}
	log.Debug().Str("key", key).Str("value", value).Msg("setting-changed")
	return msg("set " + key + " to " + value), nil
}
