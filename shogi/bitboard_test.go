package shogi

import (
	"testing"

	"github.com/matryer/is"
	"lukechampine.com/frand"
)

func randomBitboard(rng *frand.RNG) Bitboard {
	return NewBitboard(rng.Uint64n(1<<63), rng.Uint64n(1<<63))
}

func TestCountMatchesPickFirst(t *testing.T) {
	is := is.New(t)
	rng := frand.NewCustom(make([]byte, 32), 1024, 12)
	for i := 0; i < 200; i++ {
		bb := randomBitboard(rng)
		want := bb.Count()
		n := 0
		prev := SquareInvalid
		for sq := bb.PickFirst(); sq != SquareInvalid; sq = bb.PickFirst() {
			is.True(sq > prev)
			prev = sq
			n++
		}
		is.Equal(n, want)
		is.True(bb.IsZero())
	}
}

func TestSquaresRestartable(t *testing.T) {
	is := is.New(t)
	bb := SquareBB(NewSquare(7, 7)).Or(SquareBB(NewSquare(2, 8)))
	var first, second []Square
	for sq := range bb.Squares() {
		first = append(first, sq)
	}
	for sq := range bb.Squares() {
		second = append(second, sq)
	}
	is.Equal(first, []Square{NewSquare(7, 7), NewSquare(2, 8)})
	is.Equal(first, second)
	is.Equal(bb.Count(), 2)
}

func TestSetUnsetAcrossWords(t *testing.T) {
	is := is.New(t)
	var bb Bitboard
	for sq := Square(0); sq < SquareNum; sq++ {
		bb.Set(sq)
		is.True(bb.Check(sq))
	}
	is.True(bb.Equals(BBFull))
	is.Equal(bb.Count(), SquareNum)
	is.Equal(bb.GetFirst(), Square(0))
	is.Equal(bb.GetLast(), Square(80))
	bb.Unset(44)
	bb.Unset(45)
	is.True(!bb.Check(44))
	is.True(!bb.Check(45))
	is.Equal(bb.Count(), SquareNum-2)
	is.True(BBFull.Not().IsZero())
}

func TestShifts(t *testing.T) {
	is := is.New(t)
	// 5a sits at the low/high boundary neighbourhood (index 36..44 is file 5).
	sq := NewSquare(5, 9)
	is.Equal(int(sq), 44)
	up := SquareBB(sq).ShiftUp()
	is.True(up.Check(NewSquare(5, 8)))
	is.Equal(up.Count(), 1)
	down := SquareBB(sq).ShiftDown()
	is.True(down.IsZero())

	top := SquareBB(NewSquare(4, 1))
	is.Equal(int(NewSquare(4, 1)), 45)
	is.True(top.ShiftUp().IsZero())
	is.True(top.ShiftDown().Check(NewSquare(4, 2)))

	// Whole-file shifts carry across the 45-bit split.
	is.True(FileMask[4].ShiftLeft(9).Equals(FileMask[5]))
	is.True(FileMask[5].ShiftRight(9).Equals(FileMask[4]))
	is.True(FileMask[8].ShiftLeft(9).IsZero())
}

func TestShiftForwardPawns(t *testing.T) {
	is := is.New(t)
	pawns := RankMask[6]
	is.True(pawns.ShiftForward(Black).Equals(RankMask[5]))
	is.True(RankMask[2].ShiftForward(White).Equals(RankMask[3]))
}
