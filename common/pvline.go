package common

import (
	"fmt"
	"strings"

	"github.com/ryuou/ryuou/move"
	"github.com/ryuou/ryuou/shogi"
)

// Credit: MIT-licensed https://github.com/algerbrex/blunder/blob/main/engine/search.go
type PVLine struct {
	Moves []move.Move
	score int32
}

// Clear the principal variation line.
func (pvLine *PVLine) Clear() {
	pvLine.Moves = pvLine.Moves[:0]
}

// Update the principal variation line with a new best move,
// and a new line of best play after the best move.
func (pvLine *PVLine) Update(m move.Move, newPVLine PVLine, score int32) {
	pvLine.Clear()
	pvLine.Moves = append(pvLine.Moves, m)
	pvLine.Moves = append(pvLine.Moves, newPVLine.Moves...)
	pvLine.score = score
}

// Get the best move from the principal variation line.
func (pvLine *PVLine) GetPVMove() move.Move {
	if len(pvLine.Moves) == 0 {
		return move.Empty
	}
	return pvLine.Moves[0]
}

func (pvLine *PVLine) Score() int32 {
	return pvLine.score
}

// CSA renders the line with color signs, the first move played by first.
func (pvLine PVLine) CSA(first shogi.Color) []string {
	out := make([]string, len(pvLine.Moves))
	c := first
	for i, m := range pvLine.Moves {
		out[i] = m.CSA(c)
		c = c.Opponent()
	}
	return out
}

// Convert the principal variation line to a string.
func (pvLine PVLine) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "PV; val %d\n", pvLine.score)
	for i, m := range pvLine.Moves {
		fmt.Fprintf(&sb, "%d: %s\n", i+1, m)
	}
	return sb.String()
}

func (pvLine PVLine) NLBString() string {
	// no line breaks
	var sb strings.Builder
	fmt.Fprintf(&sb, "PV; val %d; ", pvLine.score)
	for i, m := range pvLine.Moves {
		fmt.Fprintf(&sb, "%d: %s; ", i+1, m)
	}
	return sb.String()
}
