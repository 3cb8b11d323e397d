package board

import (
	"errors"
	"fmt"

	"github.com/ryuou/ryuou/shogi"
)

// The compact form is a list of 16-bit words, piece<<7 | square, one per
// board piece and one per hand piece (square compactHand), closed by a
// word with compactTurn set whose low bit is the side to move.
const (
	compactHand = 127
	compactTurn = 0x8000
)

var (
	ErrCompactTooShort = errors.New("compact board has no turn word")
	ErrCompactWord     = errors.New("bad compact board word")
	ErrSquareTaken     = errors.New("square given twice")
)

// Compact serializes the position.
func (b *Board) Compact() []uint16 {
	words := make([]uint16, 0, 41)
	for sq := shogi.Square(0); sq < shogi.SquareNum; sq++ {
		if p := b.squares[sq]; p.Exists() {
			words = append(words, uint16(p)<<7|uint16(sq))
		}
	}
	for c := shogi.Black; c <= shogi.White; c++ {
		for k := shogi.Pawn; k < shogi.King; k++ {
			p := colored(k, c)
			for i := 0; i < b.hands[c].Get(k); i++ {
				words = append(words, uint16(p)<<7|compactHand)
			}
		}
	}
	return append(words, compactTurn|uint16(b.turn))
}

// FromCompact rebuilds a board and validates it.
func FromCompact(words []uint16) (*Board, error) {
	b := NewBoard()
	for i, w := range words {
		if w&compactTurn != 0 {
			if w&^compactTurn > 1 || i != len(words)-1 {
				return nil, fmt.Errorf("word %d (%#x): %w", i, w, ErrCompactWord)
			}
			b.SetTurn(shogi.Color(w & 1))
			if err := b.Validate(); err != nil {
				return nil, err
			}
			return b, nil
		}
		p := shogi.Piece(w >> 7)
		sq := int(w & 0x7f)
		if !p.IsValid() {
			return nil, fmt.Errorf("word %d (%#x): %w", i, w, ErrCompactWord)
		}
		if sq == compactHand {
			if p.IsPromoted() || p.Kind() == shogi.King {
				return nil, fmt.Errorf("word %d (%#x): %w", i, w, ErrCompactWord)
			}
			c := p.Color()
			if !b.SetHand(c, p, b.hands[c].Get(p)+1) {
				return nil, fmt.Errorf("word %d (%#x): %w", i, w, ErrTooManyPieces)
			}
			continue
		}
		if sq >= shogi.SquareNum {
			return nil, fmt.Errorf("word %d (%#x): %w", i, w, ErrCompactWord)
		}
		if b.squares[sq].Exists() {
			return nil, fmt.Errorf("word %d (%#x): %w", i, w, ErrSquareTaken)
		}
		if p.KindOnly() == shogi.King && b.kings[p.Color()] != shogi.SquareInvalid {
			return nil, ErrBadKingCount
		}
		b.put(p, shogi.Square(sq))
	}
	return nil, ErrCompactTooShort
}
