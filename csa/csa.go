// Package csa reads and writes game records in the CSA text format.
package csa

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/avast/retry-go/v4"
	"github.com/rs/zerolog/log"
	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/transform"

	"github.com/ryuou/ryuou/board"
	"github.com/ryuou/ryuou/mate"
	"github.com/ryuou/ryuou/move"
	"github.com/ryuou/ryuou/shogi"
)

// A Token is the kind of one CSA statement.
type Token uint8

const (
	UndefinedToken Token = iota
	VersionToken
	PlayerToken
	InfoToken
	PositionToken
	MoveToken
	SpecialToken
	TimeToken
	CommentToken
)

var (
	ErrIllegalMove      = errors.New("illegal move in record")
	ErrUnknownStatement = errors.New("unknown CSA statement")
	ErrUnhandledCharset = errors.New("unhandled character encoding")
)

const fetchAttempts = 3

var encodingRegexp = regexp.MustCompile(`^'\s*(?:CSA\s+)?encoding\s*=\s*(\S+)`)

// Record is one parsed game.
type Record struct {
	Version string
	Players [shogi.ColorNum]string
	// Info holds "$KEY:value" lines such as $EVENT or $START_TIME.
	Info    map[string]string
	Initial *board.Board
	Moves   []move.Move
	// Result is the special move that ended the game, e.g. "%TORYO".
	Result string
}

type parser struct {
	rec      *Record
	posLines []string
	pos      *board.Board
}

func tokenOf(stmt string) Token {
	switch {
	case stmt == "":
		return UndefinedToken
	case strings.HasPrefix(stmt, "V"):
		return VersionToken
	case strings.HasPrefix(stmt, "N+") || strings.HasPrefix(stmt, "N-"):
		return PlayerToken
	case strings.HasPrefix(stmt, "$"):
		return InfoToken
	case board.IsPositionLine(stmt):
		return PositionToken
	case stmt[0] == '+' || stmt[0] == '-':
		return MoveToken
	case stmt[0] == '%':
		return SpecialToken
	case stmt[0] == 'T':
		return TimeToken
	case stmt[0] == '\'':
		return CommentToken
	}
	return UndefinedToken
}

// finishPosition builds the initial board once the first statement after
// the position section arrives.
func (p *parser) finishPosition() error {
	if p.pos != nil {
		return nil
	}
	if len(p.posLines) == 0 {
		p.posLines = []string{"PI", "+"}
	}
	b, err := board.ParseCSALines(p.posLines)
	if err != nil {
		return err
	}
	p.rec.Initial = b
	p.pos = b.Copy()
	return nil
}

func (p *parser) parseStatement(stmt string) error {
	stmt = strings.TrimRight(stmt, " \r\t")
	token := tokenOf(stmt)
	switch token {
	case UndefinedToken:
		if stmt == "" {
			return nil
		}
		return fmt.Errorf("%q: %w", stmt, ErrUnknownStatement)
	case VersionToken:
		p.rec.Version = stmt[1:]
	case PlayerToken:
		c := shogi.Black
		if stmt[1] == '-' {
			c = shogi.White
		}
		p.rec.Players[c] = stmt[2:]
	case InfoToken:
		k, v, _ := strings.Cut(stmt[1:], ":")
		p.rec.Info[k] = v
	case PositionToken:
		if p.pos != nil {
			return fmt.Errorf("%q: position after moves: %w", stmt, board.ErrBadPosition)
		}
		p.posLines = append(p.posLines, stmt)
	case MoveToken:
		if err := p.finishPosition(); err != nil {
			return err
		}
		m, err := p.resolve(stmt)
		if err != nil {
			return err
		}
		p.pos.MakeMove(m)
		p.rec.Moves = append(p.rec.Moves, m)
	case SpecialToken:
		if err := p.finishPosition(); err != nil {
			return err
		}
		p.rec.Result = stmt
	case TimeToken, CommentToken:
	}
	return nil
}

func (p *parser) resolve(stmt string) (move.Move, error) {
	cm, err := move.ParseCSA(stmt, p.pos.Turn())
	if err != nil {
		return move.Empty, err
	}
	m, err := p.pos.MoveFromCSA(cm)
	if err != nil {
		return move.Empty, fmt.Errorf("%s: %w", stmt, ErrIllegalMove)
	}
	if mate.IsPawnDropMate(p.pos, m) {
		return move.Empty, fmt.Errorf("%s: pawn drop mate: %w", stmt, ErrIllegalMove)
	}
	c := p.pos.Copy()
	if !c.MakeMove(m) {
		return move.Empty, fmt.Errorf("%s: king left in check: %w", stmt, ErrIllegalMove)
	}
	return m, nil
}

// decode returns the record text as UTF-8. An encoding pragma on the
// first line wins; otherwise valid UTF-8 is kept and anything else is
// read as Shift_JIS, the traditional CSA charset.
func decode(data []byte) (string, error) {
	data = bytes.TrimPrefix(data, []byte{0xEF, 0xBB, 0xBF})
	firstLine, _, _ := bytes.Cut(data, []byte("\n"))
	sjis := false
	if match := encodingRegexp.FindSubmatch(bytes.TrimRight(firstLine, "\r")); match != nil {
		enc := strings.ToLower(string(match[1]))
		switch enc {
		case "utf-8", "utf8":
		case "shift_jis", "sjis", "shift-jis":
			sjis = true
		default:
			return "", fmt.Errorf("%s: %w", enc, ErrUnhandledCharset)
		}
	} else if !utf8.Valid(data) {
		sjis = true
	}
	if !sjis {
		return string(data), nil
	}
	decoded, _, err := transform.Bytes(japanese.ShiftJIS.NewDecoder(), data)
	if err != nil {
		return "", err
	}
	return string(decoded), nil
}

// Parse reads a CSA record. Moves are checked for legality as they are
// read.
func Parse(r io.Reader) (*Record, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	text, err := decode(data)
	if err != nil {
		return nil, err
	}
	p := &parser{rec: &Record{Info: make(map[string]string)}}
	scanner := bufio.NewScanner(strings.NewReader(text))
	n := 0
	for scanner.Scan() {
		n++
		line := scanner.Text()
		stmts := []string{line}
		// comments may contain commas
		if !strings.HasPrefix(line, "'") {
			stmts = strings.Split(line, ",")
		}
		for _, stmt := range stmts {
			if err := p.parseStatement(stmt); err != nil {
				return nil, fmt.Errorf("line %d: %w", n, err)
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if err := p.finishPosition(); err != nil {
		return nil, err
	}
	return p.rec, nil
}

// ParseString is Parse over a string.
func ParseString(s string) (*Record, error) {
	return Parse(strings.NewReader(s))
}

// ReadFile parses the record in filename.
func ReadFile(filename string) (*Record, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	rec, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filename, err)
	}
	log.Debug().Str("file", filename).Int("moves", len(rec.Moves)).Msg("csa-record-read")
	return rec, nil
}

// IsURL reports whether name is an http(s) address rather than a path.
func IsURL(name string) bool {
	return strings.HasPrefix(name, "http://") || strings.HasPrefix(name, "https://")
}

// Fetch downloads and parses the record at url. Network failures and
// server errors are retried with backoff; a record that does not parse
// is not.
func Fetch(ctx context.Context, url string) (*Record, error) {
	var data []byte
	err := retry.Do(
		func() error {
			req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
			if err != nil {
				return retry.Unrecoverable(err)
			}
			resp, err := http.DefaultClient.Do(req)
			if err != nil {
				return err
			}
			defer resp.Body.Close()
			if resp.StatusCode >= 500 {
				return fmt.Errorf("%s: %s", url, resp.Status)
			}
			if resp.StatusCode != http.StatusOK {
				return retry.Unrecoverable(fmt.Errorf("%s: %s", url, resp.Status))
			}
			data, err = io.ReadAll(resp.Body)
			return err
		},
		retry.Context(ctx),
		retry.Attempts(fetchAttempts),
		retry.Delay(100*time.Millisecond),
		retry.LastErrorOnly(true),
		retry.DelayType(func(n uint, err error, config *retry.Config) time.Duration {
			log.Err(err).Uint("n", n).Str("url", url).Msg("csa-fetch-failed-try-again")
			return retry.BackOffDelay(n, err, config)
		}),
	)
	if err != nil {
		return nil, err
	}
	rec, err := Parse(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", url, err)
	}
	log.Debug().Str("url", url).Int("moves", len(rec.Moves)).Msg("csa-record-fetched")
	return rec, nil
}

// Replay plays the first n moves (all of them when n is negative or too
// large) from the initial position. It returns the resulting board and
// the hashes of the positions before it, oldest first, for repetition
// checks.
func (r *Record) Replay(n int) (*board.Board, []uint64) {
	if n < 0 || n > len(r.Moves) {
		n = len(r.Moves)
	}
	b := r.Initial.Copy()
	hashes := make([]uint64, 0, n)
	for _, m := range r.Moves[:n] {
		hashes = append(hashes, b.Hash())
		if !b.MakeMoveIrr(m) {
			log.Warn().Str("move", m.String()).Msg("record-replay-stopped")
			hashes = hashes[:len(hashes)-1]
			break
		}
	}
	return b, hashes
}

// FormatMove renders m as played by c.
func FormatMove(m move.Move, c shogi.Color) string {
	return m.CSA(c)
}

// WriteBoard writes the position lines of b.
func WriteBoard(w io.Writer, b *board.Board) error {
	_, err := io.WriteString(w, b.String())
	return err
}

// Write renders the record in CSA version 2.2, UTF-8.
func (r *Record) Write(w io.Writer) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintln(bw, "'CSA encoding=UTF-8")
	fmt.Fprintln(bw, "V2.2")
	for c, name := range r.Players {
		if name != "" {
			fmt.Fprintf(bw, "N%s%s\n", shogi.Color(c).CSA(), name)
		}
	}
	keys := make([]string, 0, len(r.Info))
	for k := range r.Info {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(bw, "$%s:%s\n", k, r.Info[k])
	}
	if err := WriteBoard(bw, r.Initial); err != nil {
		return err
	}
	c := r.Initial.Turn()
	for _, m := range r.Moves {
		fmt.Fprintln(bw, FormatMove(m, c))
		c = c.Opponent()
	}
	if r.Result != "" {
		fmt.Fprintln(bw, r.Result)
	}
	return bw.Flush()
}

// ListFiles returns every .csa file under root, sorted.
func ListFiles(root string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.EqualFold(filepath.Ext(path), ".csa") {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(files)
	return files, nil
}
