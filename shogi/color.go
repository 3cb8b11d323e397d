// Package shogi holds the primitive types the engine is built from:
// squares, pieces, hands and 81-square bitboards, plus the precomputed
// attack tables.
package shogi

// Color is the side a piece belongs to. Black (sente) moves first.
type Color uint8

const (
	Black Color = iota
	White
)

// ColorNum is the number of colors, handy for array sizing.
const ColorNum = 2

func (c Color) Opponent() Color {
	return c ^ 1
}

func (c Color) IsBlack() bool { return c == Black }
func (c Color) IsWhite() bool { return c == White }

// Sign is +1 for black and -1 for white.
func (c Color) Sign() int {
	if c == Black {
		return 1
	}
	return -1
}

func (c Color) String() string {
	if c == Black {
		return "black"
	}
	return "white"
}

// CSA returns the CSA turn marker for this color.
func (c Color) CSA() string {
	if c == Black {
		return "+"
	}
	return "-"
}
