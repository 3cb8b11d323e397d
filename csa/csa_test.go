package csa

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/transform"

	"github.com/ryuou/ryuou/board"
	"github.com/ryuou/ryuou/move"
	"github.com/ryuou/ryuou/shogi"
)

const shortGame = `'CSA encoding=UTF-8
V2.2
N+sente
N-gote
$EVENT:test match
$START_TIME:2024/01/02 10:00:00
PI
+
+7776FU
T3
-3334FU,T5
+8822UM
'a comment, with a comma
-3122GI
%TORYO
`

func TestParseShortGame(t *testing.T) {
	rec, err := ParseString(shortGame)
	assert.Nil(t, err)
	assert.Equal(t, "2.2", rec.Version)
	assert.Equal(t, "sente", rec.Players[shogi.Black])
	assert.Equal(t, "gote", rec.Players[shogi.White])
	assert.Equal(t, "test match", rec.Info["EVENT"])
	assert.Equal(t, "2024/01/02 10:00:00", rec.Info["START_TIME"])
	assert.True(t, rec.Initial.Equals(board.NewInitialBoard()))
	assert.Equal(t, 4, len(rec.Moves))
	assert.Equal(t, "%TORYO", rec.Result)

	assert.True(t, rec.Moves[2].IsPromotion())
	assert.True(t, rec.Moves[2].IsCapture())
	assert.Equal(t, shogi.Bishop, rec.Moves[2].Captured())
	assert.Equal(t, "-3122GI", FormatMove(rec.Moves[3], shogi.White))
}

func TestReplay(t *testing.T) {
	rec, err := ParseString(shortGame)
	assert.Nil(t, err)

	b, hashes := rec.Replay(-1)
	assert.Equal(t, 4, len(hashes))
	assert.Equal(t, rec.Initial.Hash(), hashes[0])
	assert.Equal(t, shogi.Black, b.Turn())
	assert.Equal(t, 1, b.HandOf(shogi.Black).Get(shogi.Bishop))
	assert.Equal(t, 1, b.HandOf(shogi.White).Get(shogi.Bishop))
	assert.Nil(t, b.Validate())

	b2, hashes2 := rec.Replay(2)
	assert.Equal(t, 2, len(hashes2))
	assert.Equal(t, shogi.Black, b2.Turn())
	assert.True(t, rec.Initial.Equals(board.NewInitialBoard()))
}

func TestParseCustomPosition(t *testing.T) {
	text := `P1 *  *  *  *  *  *  *  * -OU
P2 *  *  *  *  *  *  *  *  *
P3 *  *  *  *  *  *  *  * +FU
P4 *  *  *  *  *  *  *  *  *
P5 *  *  *  *  *  *  *  *  *
P6 *  *  *  *  *  *  *  *  *
P7 *  *  *  *  *  *  *  *  *
P8 *  *  *  *  *  *  *  *  *
P9 *  *  *  * +OU *  *  *  *
P+00KI
P-00AL
+
+0012KI
`
	rec, err := ParseString(text)
	assert.Nil(t, err)
	assert.Equal(t, 1, rec.Initial.HandOf(shogi.Black).Get(shogi.Gold))
	assert.Equal(t, 17, rec.Initial.HandOf(shogi.White).Get(shogi.Pawn))
	assert.Equal(t, 3, rec.Initial.HandOf(shogi.White).Get(shogi.Gold))
	assert.Equal(t, move.NewDrop(shogi.Gold, shogi.NewSquare(1, 2)), rec.Moves[0])
	assert.Equal(t, "", rec.Result)
}

func TestParseIllegalMove(t *testing.T) {
	_, err := ParseString("PI\n+\n+7776FU\n-7776FU\n")
	assert.True(t, errors.Is(err, ErrIllegalMove))
	assert.Contains(t, err.Error(), "line 4")

	// white's turn
	_, err = ParseString("PI\n+\n+7776FU\n+2726FU\n")
	assert.True(t, errors.Is(err, ErrIllegalMove))
}

func TestParseUnknownStatement(t *testing.T) {
	_, err := ParseString("PI\n+\nX123\n")
	assert.True(t, errors.Is(err, ErrUnknownStatement))
}

func TestParsePositionAfterMoves(t *testing.T) {
	_, err := ParseString("PI\n+\n+7776FU\nP+00FU\n")
	assert.True(t, errors.Is(err, board.ErrBadPosition))
}

func TestParseShiftJIS(t *testing.T) {
	utf := "N+先手\nN-後手\nPI\n+\n+2726FU\n"
	sjis, _, err := transform.Bytes(japanese.ShiftJIS.NewEncoder(), []byte(utf))
	assert.Nil(t, err)

	// no pragma: invalid UTF-8 falls back to Shift_JIS
	rec, err := Parse(bytes.NewReader(sjis))
	assert.Nil(t, err)
	assert.Equal(t, "先手", rec.Players[shogi.Black])
	assert.Equal(t, "後手", rec.Players[shogi.White])

	withPragma := append([]byte("'CSA encoding=Shift_JIS\n"), sjis...)
	rec, err = Parse(bytes.NewReader(withPragma))
	assert.Nil(t, err)
	assert.Equal(t, "先手", rec.Players[shogi.Black])
	assert.Equal(t, 1, len(rec.Moves))
}

func TestParseUnsupportedEncoding(t *testing.T) {
	_, err := ParseString("'CSA encoding=EUC-JP\nPI\n+\n")
	assert.True(t, errors.Is(err, ErrUnhandledCharset))
}

func TestWriteThenParse(t *testing.T) {
	rec, err := ParseString(shortGame)
	assert.Nil(t, err)
	var buf bytes.Buffer
	assert.Nil(t, rec.Write(&buf))
	assert.True(t, strings.HasPrefix(buf.String(), "'CSA encoding=UTF-8\nV2.2\nN+sente\n"))

	again, err := Parse(&buf)
	assert.Nil(t, err)
	assert.Equal(t, rec.Players, again.Players)
	assert.Equal(t, rec.Info, again.Info)
	assert.Equal(t, rec.Moves, again.Moves)
	assert.Equal(t, rec.Result, again.Result)
	assert.True(t, rec.Initial.Equals(again.Initial))
}

func TestReadFileAndListFiles(t *testing.T) {
	dir := t.TempDir()
	sub := filepath.Join(dir, "sub")
	assert.Nil(t, os.Mkdir(sub, 0o755))
	for _, name := range []string{filepath.Join(sub, "b.csa"), filepath.Join(dir, "a.CSA")} {
		assert.Nil(t, os.WriteFile(name, []byte(shortGame), 0o644))
	}
	assert.Nil(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644))

	files, err := ListFiles(dir)
	assert.Nil(t, err)
	assert.Equal(t, []string{filepath.Join(dir, "a.CSA"), filepath.Join(sub, "b.csa")}, files)

	rec, err := ReadFile(files[0])
	assert.Nil(t, err)
	assert.Equal(t, 4, len(rec.Moves))

	_, err = ReadFile(filepath.Join(dir, "missing.csa"))
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestFetchRetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte(shortGame))
	}))
	defer srv.Close()

	assert.True(t, IsURL(srv.URL))
	rec, err := Fetch(context.Background(), srv.URL+"/game.csa")
	assert.Nil(t, err)
	assert.Equal(t, int32(2), calls.Load())
	assert.Equal(t, 4, len(rec.Moves))
}

func TestFetchNotFoundIsNotRetried(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.NotFound(w, r)
	}))
	defer srv.Close()

	_, err := Fetch(context.Background(), srv.URL+"/missing.csa")
	assert.NotNil(t, err)
	assert.Equal(t, int32(1), calls.Load())
	assert.False(t, IsURL("games/a.csa"))
}
