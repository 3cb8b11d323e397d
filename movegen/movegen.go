// Package movegen produces pseudo-legal shogi moves. Moves may still leave
// the mover's king attacked or be an illegal pawn-drop mate; board.MakeMove
// is the legality gate.
package movegen

import (
	"fmt"

	"github.com/ryuou/ryuou/board"
	"github.com/ryuou/ryuou/move"
	"github.com/ryuou/ryuou/shogi"
)

// GenType selects a generation phase.
type GenType uint8

const (
	// Capture is captures plus non-capturing pawn promotions.
	Capture GenType = iota
	// NoCapture is every other board move that takes nothing.
	NoCapture
	// Drop is drops, honoring the two-pawn and dead-square rules.
	Drop
	// Evasion is the replies to a check.
	Evasion
	// Check is every move that gives check, direct or discovered.
	Check
	// CheckLight is non-capturing direct checks, for quiescence.
	CheckLight

	NumGenTypes
)

var genTypeNames = [NumGenTypes]string{"capture", "nocapture", "drop", "evasion", "check", "checklight"}

func (g GenType) String() string {
	if g >= NumGenTypes {
		return "unknown"
	}
	return genTypeNames[g]
}

// ParseGenType reads the lower-case name of a phase.
func ParseGenType(s string) (GenType, error) {
	for i, n := range genTypeNames {
		if n == s {
			return GenType(i), nil
		}
	}
	return 0, fmt.Errorf("unknown generation type %q", s)
}

type genFunc func(b *board.Board, buf []move.Move) []move.Move

// Each (side, phase) pair has its own entry; promotion zones make the two
// sides genuinely different.
var generators = [shogi.ColorNum][NumGenTypes]genFunc{
	shogi.Black: {
		Capture:    func(b *board.Board, buf []move.Move) []move.Move { return genCapture(b, shogi.Black, buf) },
		NoCapture:  func(b *board.Board, buf []move.Move) []move.Move { return genNoCapture(b, shogi.Black, buf) },
		Drop:       func(b *board.Board, buf []move.Move) []move.Move { return genDrop(b, shogi.Black, buf) },
		Evasion:    func(b *board.Board, buf []move.Move) []move.Move { return genEvasion(b, shogi.Black, buf) },
		Check:      func(b *board.Board, buf []move.Move) []move.Move { return genCheck(b, shogi.Black, buf) },
		CheckLight: func(b *board.Board, buf []move.Move) []move.Move { return genCheckLight(b, shogi.Black, buf) },
	},
	shogi.White: {
		Capture:    func(b *board.Board, buf []move.Move) []move.Move { return genCapture(b, shogi.White, buf) },
		NoCapture:  func(b *board.Board, buf []move.Move) []move.Move { return genNoCapture(b, shogi.White, buf) },
		Drop:       func(b *board.Board, buf []move.Move) []move.Move { return genDrop(b, shogi.White, buf) },
		Evasion:    func(b *board.Board, buf []move.Move) []move.Move { return genEvasion(b, shogi.White, buf) },
		Check:      func(b *board.Board, buf []move.Move) []move.Move { return genCheck(b, shogi.White, buf) },
		CheckLight: func(b *board.Board, buf []move.Move) []move.Move { return genCheckLight(b, shogi.White, buf) },
	},
}

// Generate appends the moves of one phase for the side to move to buf.
func Generate(b *board.Board, t GenType, buf []move.Move) []move.Move {
	return generators[b.Turn()][t](b, buf)
}

// GenerateAll appends every pseudo-legal move: evasions when in check,
// otherwise captures, non-captures and drops.
func GenerateAll(b *board.Board, buf []move.Move) []move.Move {
	if b.IsChecking() {
		return Generate(b, Evasion, buf)
	}
	buf = Generate(b, Capture, buf)
	buf = Generate(b, NoCapture, buf)
	return Generate(b, Drop, buf)
}

// DropMateFunc reports whether m is a pawn drop that mates, which the
// rules forbid. Callers that know how to prove mates supply one.
type DropMateFunc func(b *board.Board, m move.Move) bool

// GenerateLegal appends only legal moves. When dm is nil pawn-drop mates
// are not filtered.
func GenerateLegal(b *board.Board, buf []move.Move, dm DropMateFunc) []move.Move {
	start := len(buf)
	buf = GenerateAll(b, buf)
	n := start
	for _, m := range buf[start:] {
		if dm != nil && m.IsDrop() && m.Piece() == shogi.Pawn && dm(b, m) {
			continue
		}
		if !b.MakeMove(m) {
			continue
		}
		b.UnmakeMove(m)
		buf[n] = m
		n++
	}
	return buf[:n]
}

// Perft counts the leaf nodes of the legal move tree to depth.
func Perft(b *board.Board, depth int, dm DropMateFunc) uint64 {
	if depth == 0 {
		return 1
	}
	moves := GenerateLegal(b, make([]move.Move, 0, 128), dm)
	if depth == 1 {
		return uint64(len(moves))
	}
	var nodes uint64
	for _, m := range moves {
		b.MakeMove(m)
		nodes += Perft(b, depth-1, dm)
		b.UnmakeMove(m)
	}
	return nodes
}
