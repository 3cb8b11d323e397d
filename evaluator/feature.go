package evaluator

import (
	"github.com/ryuou/ryuou/board"
	"github.com/ryuou/ryuou/shogi"
)

// Feature layout. Board pieces (kings excluded) fall into nine classes
// per color; the promoted minors share the gold class. Hand pieces
// contribute one feature per held level, so holding three pawns means
// pawn levels 1, 2 and 3 are all active.
const (
	classPawn = iota
	classLance
	classKnight
	classSilver
	classGold
	classBishop
	classHorse
	classRook
	classDragon
	classNum
)

const (
	boardFeatures = shogi.ColorNum * classNum * shogi.SquareNum
	handLevels    = 18 + 4 + 4 + 4 + 4 + 2 + 2

	// FeatureNum is the number of distinct features.
	FeatureNum = boardFeatures + shogi.ColorNum*handLevels
	// TriSize is the number of unordered feature pairs, self pairs
	// included, per king square.
	TriSize = FeatureNum * (FeatureNum + 1) / 2
	// KPPSize and KKPSize are the parameter table lengths.
	KPPSize = shogi.SquareNum * TriSize
	KKPSize = shogi.SquareNum * shogi.SquareNum * FeatureNum
)

var pieceClass = [16]int{
	shogi.Pawn:      classPawn,
	shogi.Lance:     classLance,
	shogi.Knight:    classKnight,
	shogi.Silver:    classSilver,
	shogi.Gold:      classGold,
	shogi.Bishop:    classBishop,
	shogi.Rook:      classRook,
	shogi.Tokin:     classGold,
	shogi.ProLance:  classGold,
	shogi.ProKnight: classGold,
	shogi.ProSilver: classGold,
	shogi.Horse:     classHorse,
	shogi.Dragon:    classDragon,
}

var handBase [shogi.ColorNum][shogi.HandKinds]int

func init() {
	n := boardFeatures
	for c := 0; c < shogi.ColorNum; c++ {
		for k := 0; k < shogi.HandKinds; k++ {
			handBase[c][k] = n
			n += int(shogi.HandMax[k])
		}
	}
}

// feature is a pair of indexes: as seen by black, and as seen by white
// (board rotated, colors swapped).
type feature struct {
	b, w int
}

func boardFeature(p shogi.Piece, sq shogi.Square) feature {
	class := pieceClass[p.KindOnly()]
	c := int(p.Color())
	return feature{
		b: (c*classNum+class)*shogi.SquareNum + int(sq),
		w: ((1-c)*classNum+class)*shogi.SquareNum + int(sq.Flip()),
	}
}

// handFeature is the feature of c's n-th piece of kind (n counts from 1).
func handFeature(c shogi.Color, kind shogi.Piece, n int) feature {
	k := kind.Kind()
	return feature{
		b: handBase[c][k] + n - 1,
		w: handBase[c.Opponent()][k] + n - 1,
	}
}

// maxFeatures bounds the active feature count: 38 non-king pieces, each
// either on the board or as one hand level.
const maxFeatures = 38

type featureList struct {
	f [maxFeatures]feature
	n int
}

func (l *featureList) add(f feature) {
	l.f[l.n] = f
	l.n++
}

func (l *featureList) list() []feature {
	return l.f[:l.n]
}

// collect lists the active features of b.
func collect(b *board.Board, l *featureList) {
	l.n = 0
	occ := b.Occupied().AndNot(b.Pieces(shogi.BKing)).AndNot(b.Pieces(shogi.WKing))
	for sq := range occ.Squares() {
		l.add(boardFeature(b.PieceAt(sq), sq))
	}
	for c := shogi.Black; c <= shogi.White; c++ {
		h := b.HandOf(c)
		for k := shogi.Pawn; k < shogi.King; k++ {
			for i := 1; i <= h.Get(k); i++ {
				l.add(handFeature(c, k, i))
			}
		}
	}
}

// tri indexes the unordered pair {i, j} in a triangular table.
func tri(i, j int) int {
	if i < j {
		i, j = j, i
	}
	return i*(i+1)/2 + j
}
