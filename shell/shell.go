package shell

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"syscall"

	"github.com/chzyer/readline"
	"github.com/kballard/go-shellquote"
	"github.com/rs/zerolog/log"

	"github.com/ryuou/ryuou/board"
	"github.com/ryuou/ryuou/config"
	"github.com/ryuou/ryuou/csa"
	"github.com/ryuou/ryuou/evaluator"
	"github.com/ryuou/ryuou/move"
	"github.com/ryuou/ryuou/search"
)

var (
	errNoData            = errors.New("no data in this line")
	errWrongOptionSyntax = errors.New("wrong format; all options need arguments")
	errQuit              = errors.New("sending quit signal")
)

type ShellController struct {
	l *readline.Instance

	config     *config.Config
	execPath   string
	gitVersion string

	board  *board.Board
	record *csa.Record
	// played holds the moves from the record's initial position and
	// hashes the positions before each of them.
	played []move.Move
	hashes []uint64

	eval     *evaluator.Evaluator
	searcher *search.Searcher
	cancel   context.CancelFunc
}

type shellcmd struct {
	cmd     string
	args    []string
	options map[string]string
}

func filterInput(r rune) (rune, bool) {
	switch r {
	// block CtrlZ feature
	case readline.CharCtrlZ:
		return r, false
	}
	return r, true
}

func showMessage(msg string, w io.Writer) {
	io.WriteString(w, msg)
	io.WriteString(w, "\n")
}

func (sc *ShellController) showMessage(msg string) {
	if sc.l == nil {
		showMessage(msg, os.Stdout)
		return
	}
	showMessage(msg, sc.l.Stdout())
}

func (sc *ShellController) showError(err error) {
	if sc.l == nil {
		showMessage("Error: "+err.Error(), os.Stderr)
		return
	}
	showMessage("Error: "+err.Error(), sc.l.Stderr())
}

// newController builds the game and search state without a terminal.
func newController(cfg *config.Config, execPath, gitVersion string) *ShellController {
	sc := &ShellController{
		config:     cfg,
		execPath:   execPath,
		gitVersion: gitVersion,
	}
	sc.initSearcher()
	sc.resetGame(board.NewInitialBoard())
	return sc
}

func NewShellController(cfg *config.Config, execPath, gitVersion string) *ShellController {
	sc := newController(cfg, execPath, gitVersion)
	l, err := readline.NewEx(&readline.Config{
		Prompt:          "\033[31mryuou>\033[0m ",
		HistoryFile:     cfg.GetString(config.ConfigHistoryFile),
		AutoComplete:    NewShellCompleter(sc),
		EOFPrompt:       "exit",
		InterruptPrompt: "^C",

		HistorySearchFold:   true,
		FuncFilterInputRune: filterInput,
	})
	if err != nil {
		panic(err)
	}
	sc.l = l
	return sc
}

func (sc *ShellController) initSearcher() {
	params := evaluator.ParamsFromConfig(sc.config)
	sc.eval = evaluator.New(params, sc.config.GetInt(config.ConfigEvalCacheBits))
	tt := search.NewTranspositionTable(sc.config.GetInt(config.ConfigTTSizeMB))
	sc.searcher = search.NewSearcher(search.ConfigFromSettings(sc.config), sc.eval, tt)
}

func (sc *ShellController) resetGame(b *board.Board) {
	sc.record = &csa.Record{Info: make(map[string]string), Initial: b.Copy()}
	sc.board = b
	sc.played = nil
	sc.hashes = nil
}

// extractFields splits a line into a command, its positional arguments
// and its -key value options.
func extractFields(line string) (*shellcmd, error) {
	fields, err := shellquote.Split(line)
	if err != nil {
		return nil, err
	}
	if len(fields) == 0 {
		return nil, errNoData
	}
	cmd := fields[0]
	var args []string
	options := map[string]string{}

	for idx := 1; idx < len(fields); idx++ {
		if strings.HasPrefix(fields[idx], "-") && len(fields[idx]) > 1 && !isMoveLike(fields[idx]) {
			if idx == len(fields)-1 {
				return nil, errWrongOptionSyntax
			}
			options[fields[idx][1:]] = fields[idx+1]
			idx++
			continue
		}
		args = append(args, fields[idx])
	}
	return &shellcmd{cmd: cmd, args: args, options: options}, nil
}

// isMoveLike reports whether a leading-dash field is a CSA move for white
// such as -3334FU rather than an option.
func isMoveLike(f string) bool {
	return len(f) == 7 && f[1] >= '0' && f[1] <= '9'
}

func (sc *ShellController) dispatch(cmd *shellcmd) (*Response, error) {
	switch cmd.cmd {
	case "load":
		return sc.load(cmd)
	case "save":
		return sc.save(cmd)
	case "list":
		return sc.list(cmd)
	case "new":
		return sc.newGame(cmd)
	case "show", "s":
		return sc.show(cmd)
	case "gen":
		return sc.generate(cmd)
	case "move":
		return sc.playMove(cmd)
	case "undo":
		return sc.undo(cmd)
	case "search":
		return sc.search(cmd)
	case "mate":
		return sc.mate(cmd)
	case "eval":
		return sc.evaluate(cmd)
	case "perft":
		return sc.perft(cmd)
	case "bench":
		return sc.bench(cmd)
	case "set":
		return sc.set(cmd)
	case "script":
		return sc.script(cmd)
	case "help":
		return sc.help(cmd)
	}
	return nil, fmt.Errorf("command %q not found", cmd.cmd)
}

func (sc *ShellController) standardModeSwitch(line string, sig chan os.Signal) error {
	cmd, err := extractFields(line)
	if err != nil {
		if errors.Is(err, errNoData) {
			return nil
		}
		sc.showError(err)
		return nil
	}
	if cmd.cmd == "exit" || cmd.cmd == "bye" {
		sig <- syscall.SIGINT
		return errQuit
	}
	resp, err := sc.dispatch(cmd)
	if err != nil {
		sc.showError(err)
		return nil
	}
	if resp != nil && resp.message != "" {
		sc.showMessage(resp.message)
	}
	return nil
}

// Execute runs a single command line, as given on the command line of the
// executable.
func (sc *ShellController) Execute(sig chan os.Signal, line string) {
	for _, part := range strings.Split(line, ";") {
		if err := sc.standardModeSwitch(strings.TrimSpace(part), sig); err != nil {
			log.Debug().Err(err).Msg("execute-stopped")
			return
		}
	}
}

func (sc *ShellController) Loop(sig chan os.Signal) {
	defer sc.l.Close()

	for {
		line, err := sc.l.Readline()
		if err == readline.ErrInterrupt {
			if len(line) == 0 {
				sig <- syscall.SIGINT
				break
			}
			continue
		} else if err == io.EOF {
			sig <- syscall.SIGINT
			break
		}
		line = strings.TrimSpace(line)

		if err := sc.standardModeSwitch(line, sig); err != nil {
			log.Debug().Err(err).Msg("")
			break
		}
	}
	log.Debug().Msgf("Exiting readline loop...")
}

// Cleanup stops any running search.
func (sc *ShellController) Cleanup() {
	if sc.cancel != nil {
		sc.cancel()
	}
	sc.searcher.Stop()
	log.Info().Msg("shell-cleaned-up")
}
