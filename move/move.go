// Package move defines the packed shogi move and its wire forms.
package move

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ryuou/ryuou/shogi"
)

// Move packs one shogi move into 32 bits:
//
//	bits  0-6   destination square
//	bits  7-13  origin square (zero for drops)
//	bit   14    drop flag
//	bit   15    promotion flag
//	bits 16-19  moving piece, colorless, as it stood before the move
//	bits 20-23  captured piece, colorless
//	bit   24    capture flag
//
// The zero value is Empty and is never a real move: a board move must
// leave its origin and a drop sets bit 14.
type Move uint32

const Empty Move = 0

const (
	fromShift     = 7
	dropBit       = 1 << 14
	promoteBit    = 1 << 15
	pieceShift    = 16
	capturedShift = 20
	captureBit    = 1 << 24

	sqMask    = 0x7f
	pieceMask = 0xf
)

var (
	ErrBadSquare   = errors.New("square out of range")
	ErrBadPiece    = errors.New("piece not valid for move")
	ErrBadPromote  = errors.New("promotion flag on a piece that cannot promote")
	ErrBadDrop     = errors.New("malformed drop")
	ErrNoMovement  = errors.New("origin equals destination")
	ErrKingCapture = errors.New("move captures a king")
)

// NewBoardMove builds a non-capturing board move. Color is dropped from
// piece. The promote flag is ignored for pieces that cannot promote.
func NewBoardMove(piece shogi.Piece, from, to shogi.Square, promote bool) Move {
	m := Move(uint32(to)|uint32(from)<<fromShift) |
		Move(piece.KindOnly())<<pieceShift
	if promote && piece.CanPromote() {
		m |= promoteBit
	}
	return m
}

// NewDrop builds a drop of kind (reduced to its unpromoted colorless form).
func NewDrop(kind shogi.Piece, to shogi.Square) Move {
	return Move(uint32(to)) | dropBit | Move(kind.Kind())<<pieceShift
}

// WithCapture records the piece standing on the destination.
func (m Move) WithCapture(captured shogi.Piece) Move {
	if captured.IsEmpty() {
		return m
	}
	m &^= pieceMask << capturedShift
	return m | Move(captured.KindOnly())<<capturedShift | captureBit
}

func (m Move) IsEmpty() bool     { return m == Empty }
func (m Move) To() shogi.Square  { return shogi.Square(m & sqMask) }
func (m Move) IsDrop() bool      { return m&dropBit != 0 }
func (m Move) IsPromotion() bool { return m&promoteBit != 0 }
func (m Move) IsCapture() bool   { return m&captureBit != 0 }

// From returns the origin square, or SquareInvalid for drops.
func (m Move) From() shogi.Square {
	if m.IsDrop() {
		return shogi.SquareInvalid
	}
	return shogi.Square((m >> fromShift) & sqMask)
}

// Piece is the colorless moving piece before any promotion.
func (m Move) Piece() shogi.Piece {
	return shogi.Piece((m >> pieceShift) & pieceMask)
}

// PieceAfter is the colorless piece standing on the destination after
// the move.
func (m Move) PieceAfter() shogi.Piece {
	if m.IsPromotion() {
		return m.Piece().Promoted()
	}
	return m.Piece()
}

// Captured returns the colorless captured piece, or shogi.Empty.
func (m Move) Captured() shogi.Piece {
	if !m.IsCapture() {
		return shogi.Empty
	}
	return shogi.Piece((m >> capturedShift) & pieceMask)
}

// IsTactical is true for captures and promotions.
func (m Move) IsTactical() bool {
	return m&(captureBit|promoteBit) != 0
}

// String renders the move in CSA notation without the color sign, e.g.
// "7776FU" or "0055KA".
func (m Move) String() string {
	if m.IsEmpty() {
		return "empty"
	}
	from := "00"
	if !m.IsDrop() {
		from = m.From().String()
	}
	return from + m.To().String() + m.PieceAfter().CSA()
}

// CSA renders the move with its color sign, e.g. "+7776FU".
func (m Move) CSA(c shogi.Color) string {
	return c.CSA() + m.String()
}

// Serialize32 returns the self-contained 32-bit form.
func (m Move) Serialize32() uint32 {
	return uint32(m)
}

// Deserialize32 checks that w is structurally a move and returns it.
func Deserialize32(w uint32) (Move, error) {
	m := Move(w)
	if w>>25 != 0 {
		return Empty, fmt.Errorf("move %#x: %w", w, ErrBadPiece)
	}
	if !m.To().IsValid() {
		return Empty, fmt.Errorf("move %#x: %w", w, ErrBadSquare)
	}
	p := m.Piece()
	if m.IsDrop() {
		if (m>>fromShift)&sqMask != 0 || p.IsPromoted() || p == shogi.King ||
			m.IsPromotion() || m.IsCapture() {
			return Empty, fmt.Errorf("move %#x: %w", w, ErrBadDrop)
		}
		return m, nil
	}
	if !m.From().IsValid() {
		return Empty, fmt.Errorf("move %#x: %w", w, ErrBadSquare)
	}
	if m.From() == m.To() {
		return Empty, fmt.Errorf("move %#x: %w", w, ErrNoMovement)
	}
	if !p.IsValid() {
		return Empty, fmt.Errorf("move %#x: %w", w, ErrBadPiece)
	}
	if m.IsPromotion() && !p.CanPromote() {
		return Empty, fmt.Errorf("move %#x: %w", w, ErrBadPromote)
	}
	if m.IsCapture() {
		c := m.Captured()
		if !c.IsValid() {
			return Empty, fmt.Errorf("move %#x: %w", w, ErrBadPiece)
		}
		if c == shogi.King {
			return Empty, fmt.Errorf("move %#x: %w", w, ErrKingCapture)
		}
	} else if (m>>capturedShift)&pieceMask != 0 {
		return Empty, fmt.Errorf("move %#x: %w", w, ErrBadPiece)
	}
	return m, nil
}

// Serialize16 keeps only what a board is needed to complete: the
// destination, the origin (or 81 + hand kind for drops) and the promotion
// flag.
func (m Move) Serialize16() uint16 {
	from := uint16(m.From())
	if m.IsDrop() {
		from = shogi.SquareNum + uint16(m.Piece())
	}
	w := uint16(m.To()) | from<<fromShift
	if m.IsPromotion() {
		w |= 1 << 14
	}
	return w
}

// Word16 is a decoded 16-bit move that still lacks its piece information.
type Word16 struct {
	To      shogi.Square
	From    shogi.Square
	Drop    shogi.Piece
	IsDrop  bool
	Promote bool
}

// Decode16 splits a 16-bit move word, rejecting values that cannot name
// a move on any board.
func Decode16(w uint16) (Word16, error) {
	var d Word16
	if w == 0 || w>>15 != 0 {
		return d, fmt.Errorf("move16 %#x: %w", w, ErrBadPiece)
	}
	d.To = shogi.Square(w & sqMask)
	f := int((w >> fromShift) & sqMask)
	d.Promote = w&(1<<14) != 0
	if !d.To.IsValid() {
		return d, fmt.Errorf("move16 %#x: %w", w, ErrBadSquare)
	}
	switch {
	case f < shogi.SquareNum:
		d.From = shogi.Square(f)
		if d.From == d.To {
			return d, fmt.Errorf("move16 %#x: %w", w, ErrNoMovement)
		}
	case f < shogi.SquareNum+shogi.HandKinds:
		d.IsDrop = true
		d.From = shogi.SquareInvalid
		d.Drop = shogi.Piece(f - shogi.SquareNum)
		if d.Promote {
			return d, fmt.Errorf("move16 %#x: %w", w, ErrBadDrop)
		}
	default:
		return d, fmt.Errorf("move16 %#x: %w", w, ErrBadSquare)
	}
	return d, nil
}

// CSAMove is a move as written in a CSA record: the piece named is the
// one standing on the destination afterwards.
type CSAMove struct {
	Color shogi.Color
	From  shogi.Square // SquareInvalid for drops
	To    shogi.Square
	Piece shogi.Piece // colorless, after the move
}

var ErrBadCSAMove = errors.New("bad CSA move")

// ParseCSA reads "+7776FU" or "-0055KA". The sign is optional; without it
// the color defaults to c.
func ParseCSA(s string, c shogi.Color) (CSAMove, error) {
	s = strings.TrimSpace(s)
	var cm CSAMove
	cm.Color = c
	if len(s) == 7 {
		switch s[0] {
		case '+':
			cm.Color = shogi.Black
		case '-':
			cm.Color = shogi.White
		default:
			return cm, fmt.Errorf("%q: %w", s, ErrBadCSAMove)
		}
		s = s[1:]
	}
	if len(s) != 6 {
		return cm, fmt.Errorf("%q: %w", s, ErrBadCSAMove)
	}
	p, ok := shogi.PieceFromCSA(s[4:])
	if !ok {
		return cm, fmt.Errorf("%q: %w", s, ErrBadCSAMove)
	}
	cm.Piece = p
	to, err := shogi.ParseSquare(s[2:4])
	if err != nil {
		return cm, fmt.Errorf("%q: %w", s, ErrBadCSAMove)
	}
	cm.To = to
	if s[:2] == "00" {
		if p.IsPromoted() || p == shogi.King {
			return cm, fmt.Errorf("%q: %w", s, ErrBadDrop)
		}
		cm.From = shogi.SquareInvalid
		return cm, nil
	}
	from, err := shogi.ParseSquare(s[:2])
	if err != nil {
		return cm, fmt.Errorf("%q: %w", s, ErrBadCSAMove)
	}
	cm.From = from
	return cm, nil
}
