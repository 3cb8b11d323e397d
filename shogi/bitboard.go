package shogi

import (
	"iter"
	"math/bits"
	"strings"
)

// The low word holds squares 0..44 (files 9..5), the high word squares
// 45..80 (files 4..1). Bits outside those ranges are always zero.
const (
	loBits = 45
	hiBits = 36

	loMask uint64 = 1<<loBits - 1
	hiMask uint64 = 1<<hiBits - 1
)

// Bitboard is a set of squares.
type Bitboard struct {
	lo, hi uint64
}

var (
	BBEmpty = Bitboard{}
	BBFull  = Bitboard{loMask, hiMask}
)

// NewBitboard builds a bitboard directly from its two words; excess bits
// are masked off.
func NewBitboard(lo, hi uint64) Bitboard {
	return Bitboard{lo & loMask, hi & hiMask}
}

// SquareBB returns the singleton set for sq.
func SquareBB(sq Square) Bitboard {
	if sq < loBits {
		return Bitboard{lo: 1 << uint(sq)}
	}
	return Bitboard{hi: 1 << uint(sq-loBits)}
}

func (b Bitboard) And(o Bitboard) Bitboard    { return Bitboard{b.lo & o.lo, b.hi & o.hi} }
func (b Bitboard) Or(o Bitboard) Bitboard     { return Bitboard{b.lo | o.lo, b.hi | o.hi} }
func (b Bitboard) Xor(o Bitboard) Bitboard    { return Bitboard{b.lo ^ o.lo, b.hi ^ o.hi} }
func (b Bitboard) AndNot(o Bitboard) Bitboard { return Bitboard{b.lo &^ o.lo, b.hi &^ o.hi} }
func (b Bitboard) Not() Bitboard              { return Bitboard{^b.lo & loMask, ^b.hi & hiMask} }

func (b Bitboard) IsZero() bool           { return b.lo == 0 && b.hi == 0 }
func (b Bitboard) Exists() bool           { return b.lo != 0 || b.hi != 0 }
func (b Bitboard) Equals(o Bitboard) bool { return b == o }

// Intersects reports whether b and o share a square.
func (b Bitboard) Intersects(o Bitboard) bool {
	return b.lo&o.lo != 0 || b.hi&o.hi != 0
}

func (b *Bitboard) Set(sq Square) {
	if sq < loBits {
		b.lo |= 1 << uint(sq)
	} else {
		b.hi |= 1 << uint(sq-loBits)
	}
}

func (b *Bitboard) Unset(sq Square) {
	if sq < loBits {
		b.lo &^= 1 << uint(sq)
	} else {
		b.hi &^= 1 << uint(sq-loBits)
	}
}

func (b Bitboard) Check(sq Square) bool {
	if sq < loBits {
		return b.lo&(1<<uint(sq)) != 0
	}
	return b.hi&(1<<uint(sq-loBits)) != 0
}

func (b Bitboard) Count() int {
	return bits.OnesCount64(b.lo) + bits.OnesCount64(b.hi)
}

// GetFirst returns the lowest set square without modifying b.
func (b Bitboard) GetFirst() Square {
	if b.lo != 0 {
		return Square(bits.TrailingZeros64(b.lo))
	}
	if b.hi != 0 {
		return Square(bits.TrailingZeros64(b.hi) + loBits)
	}
	return SquareInvalid
}

// GetLast returns the highest set square without modifying b.
func (b Bitboard) GetLast() Square {
	if b.hi != 0 {
		return Square(63 - bits.LeadingZeros64(b.hi) + loBits)
	}
	if b.lo != 0 {
		return Square(63 - bits.LeadingZeros64(b.lo))
	}
	return SquareInvalid
}

// PickFirst removes and returns the lowest set square, or SquareInvalid
// when b is empty. It is the iteration primitive for "each square in a
// bitboard" loops.
func (b *Bitboard) PickFirst() Square {
	if b.lo != 0 {
		sq := Square(bits.TrailingZeros64(b.lo))
		b.lo &= b.lo - 1
		return sq
	}
	if b.hi != 0 {
		sq := Square(bits.TrailingZeros64(b.hi) + loBits)
		b.hi &= b.hi - 1
		return sq
	}
	return SquareInvalid
}

// Squares yields the set squares lowest first.
func (b Bitboard) Squares() iter.Seq[Square] {
	return func(yield func(Square) bool) {
		bb := b
		for sq := bb.PickFirst(); sq != SquareInvalid; sq = bb.PickFirst() {
			if !yield(sq) {
				return
			}
		}
	}
}

// ShiftLeft moves every square n indices up (towards file 1), carrying
// across the 45-bit split. n must be below 45.
func (b Bitboard) ShiftLeft(n uint) Bitboard {
	if n == 0 {
		return b
	}
	return Bitboard{
		lo: (b.lo << n) & loMask,
		hi: ((b.hi << n) | (b.lo >> (loBits - n))) & hiMask,
	}
}

// ShiftRight moves every square n indices down (towards file 9).
// n must be below 45.
func (b Bitboard) ShiftRight(n uint) Bitboard {
	if n == 0 {
		return b
	}
	return Bitboard{
		lo: ((b.lo >> n) | (b.hi << (loBits - n))) & loMask,
		hi: b.hi >> n,
	}
}

// ShiftUp moves every square one rank up; squares on rank 1 drop off.
func (b Bitboard) ShiftUp() Bitboard {
	return b.AndNot(RankMask[0]).ShiftRight(1)
}

// ShiftDown moves every square one rank down; squares on rank 9 drop off.
func (b Bitboard) ShiftDown() Bitboard {
	return b.AndNot(RankMask[RankNum-1]).ShiftLeft(1)
}

// ShiftForward moves squares one rank towards c's far edge.
func (b Bitboard) ShiftForward(c Color) Bitboard {
	if c == Black {
		return b.ShiftUp()
	}
	return b.ShiftDown()
}

// String draws the set as a 9x9 grid, rank 1 on top and file 9 on the
// left.
func (b Bitboard) String() string {
	var sb strings.Builder
	for row := 0; row < RankNum; row++ {
		for col := 0; col < FileNum; col++ {
			if b.Check(SquareFromColRow(col, row)) {
				sb.WriteByte('1')
			} else {
				sb.WriteByte('.')
			}
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}
