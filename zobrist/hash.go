package zobrist

import (
	"lukechampine.com/frand"

	"github.com/ryuou/ryuou/shogi"
)

// generate a zobrist hash for a shogi position.
// https://en.wikipedia.org/wiki/Zobrist_hashing
type Zobrist struct {
	turn uint64

	posTable  [shogi.PieceNum][shogi.SquareNum]uint64
	handTable [shogi.ColorNum][shogi.HandKinds][19]uint64
}

// tableSeed is fixed so hashes (and anything keyed on them) are stable
// from run to run.
func tableSeed() []byte {
	s := make([]byte, 32)
	copy(s, "ryuou zobrist tables v1")
	return s
}

// Tables is the process-wide set of zobrist constants. It is filled once
// in init and never written afterwards.
var Tables = newZobrist()

func newZobrist() *Zobrist {
	z := &Zobrist{}
	rng := frand.NewCustom(tableSeed(), 1024, 12)
	next := func() uint64 {
		// zero would make a piece invisible to the hash.
		for {
			if v := rng.Uint64n(1<<63 - 2); v != 0 {
				return v << 1
			}
		}
	}
	for p := 0; p < shogi.PieceNum; p++ {
		if !shogi.Piece(p).IsValid() {
			continue
		}
		for sq := 0; sq < shogi.SquareNum; sq++ {
			z.posTable[p][sq] = next()
		}
	}
	for c := 0; c < shogi.ColorNum; c++ {
		for k := 0; k < shogi.HandKinds; k++ {
			for n := 1; n <= int(shogi.HandMax[k]); n++ {
				z.handTable[c][k][n] = next()
			}
		}
	}
	// The turn key is the only one with the low bit set, so a hash's low
	// bit always tells the side to move.
	z.turn = 1
	return z
}

// Piece returns the key for a colored piece on sq.
func (z *Zobrist) Piece(p shogi.Piece, sq shogi.Square) uint64 {
	return z.posTable[p][sq]
}

// HandLevel returns the key for holding the n-th piece of a kind. A hand
// with count c hashes as the xor of levels 1..c, so adding or removing one
// piece touches a single key.
func (z *Zobrist) HandLevel(c shogi.Color, kind shogi.Piece, n int) uint64 {
	return z.handTable[c][kind.Kind()][n]
}

func (z *Zobrist) Turn() uint64 {
	return z.turn
}

// Hash recomputes the key of a position from scratch. It is the reference
// the board's incremental hash is checked against.
func (z *Zobrist) Hash(squares *[shogi.SquareNum]shogi.Piece, hands *[shogi.ColorNum]shogi.Hand,
	turn shogi.Color) uint64 {

	key := uint64(0)
	for sq, p := range squares {
		if p.IsEmpty() {
			continue
		}
		key ^= z.posTable[p][sq]
	}
	for c := range hands {
		for k, n := range hands[c] {
			for i := 1; i <= int(n); i++ {
				key ^= z.handTable[c][k][i]
			}
		}
	}
	if turn == shogi.White {
		key ^= z.turn
	}
	return key
}
