package zobrist

import (
	"testing"

	"github.com/matryer/is"

	"github.com/ryuou/ryuou/shogi"
)

func emptySquares() *[shogi.SquareNum]shogi.Piece {
	var sq [shogi.SquareNum]shogi.Piece
	for i := range sq {
		sq[i] = shogi.Empty
	}
	return &sq
}

func TestTurnBit(t *testing.T) {
	is := is.New(t)
	squares := emptySquares()
	squares[shogi.NewSquare(5, 9)] = shogi.BKing
	squares[shogi.NewSquare(5, 1)] = shogi.WKing
	var hands [shogi.ColorNum]shogi.Hand
	hands[shogi.Black].Set(shogi.Pawn, 3)

	b := Tables.Hash(squares, &hands, shogi.Black)
	w := Tables.Hash(squares, &hands, shogi.White)
	is.Equal(b&1, uint64(0))
	is.Equal(w&1, uint64(1))
	is.Equal(b^w, Tables.Turn())
}

func TestHandLevelsAreIncremental(t *testing.T) {
	is := is.New(t)
	squares := emptySquares()
	var hands [shogi.ColorNum]shogi.Hand
	before := Tables.Hash(squares, &hands, shogi.Black)
	hands[shogi.White].Set(shogi.Gold, 2)
	after := Tables.Hash(squares, &hands, shogi.Black)
	is.Equal(before^after, Tables.HandLevel(shogi.White, shogi.Gold, 1)^Tables.HandLevel(shogi.White, shogi.Gold, 2))
}

func TestKeysDistinct(t *testing.T) {
	is := is.New(t)
	seen := map[uint64]bool{}
	for _, k := range shogi.Kinds {
		for _, p := range []shogi.Piece{k, k | shogi.WhiteBit} {
			for sq := shogi.Square(0); sq < shogi.SquareNum; sq++ {
				key := Tables.Piece(p, sq)
				is.True(key != 0)
				is.True(!seen[key])
				seen[key] = true
			}
		}
	}
	// Stable from run to run.
	is.Equal(newZobrist().Piece(shogi.BPawn, 0), Tables.Piece(shogi.BPawn, 0))
}
