package evaluator

import (
	"github.com/ryuou/ryuou/board"
	"github.com/ryuou/ryuou/move"
	"github.com/ryuou/ryuou/shogi"
)

// Material values, indexed by colorless piece.
var pieceValue = [16]int32{
	shogi.Pawn:      87,
	shogi.Lance:     235,
	shogi.Knight:    254,
	shogi.Silver:    371,
	shogi.Gold:      447,
	shogi.Bishop:    571,
	shogi.Rook:      647,
	shogi.King:      0,
	shogi.Tokin:     530,
	shogi.ProLance:  482,
	shogi.ProKnight: 500,
	shogi.ProSilver: 489,
	shogi.Horse:     832,
	shogi.Dragon:    955,
}

// PieceValue returns the material value of a piece of either color.
func PieceValue(p shogi.Piece) int32 {
	if p.IsEmpty() {
		return 0
	}
	return pieceValue[p.KindOnly()]
}

// ExchangeValue is what capturing p swings: the piece leaves the board
// and its unpromoted form joins the captor's hand.
func ExchangeValue(p shogi.Piece) int32 {
	if p.IsEmpty() {
		return 0
	}
	return pieceValue[p.KindOnly()] + pieceValue[p.Kind()]
}

// PromotionValue is the material gained by promoting p.
func PromotionValue(p shogi.Piece) int32 {
	if !p.CanPromote() {
		return 0
	}
	return pieceValue[p.KindOnly().Promoted()] - pieceValue[p.KindOnly()]
}

// EstimateGain is the material the mover gains from m, before any reply.
func EstimateGain(m move.Move) int32 {
	var v int32
	if m.IsCapture() {
		v += ExchangeValue(m.Captured())
	}
	if m.IsPromotion() {
		v += PromotionValue(m.Piece())
	}
	return v
}

// Material sums black's material minus white's, hands included.
func Material(b *board.Board) int32 {
	var v int32
	for sq := shogi.Square(0); sq < shogi.SquareNum; sq++ {
		p := b.PieceAt(sq)
		if p.IsEmpty() {
			continue
		}
		if p.IsBlack() {
			v += PieceValue(p)
		} else {
			v -= PieceValue(p)
		}
	}
	for k := shogi.Pawn; k < shogi.King; k++ {
		n := int32(b.BlackHand().Get(k) - b.WhiteHand().Get(k))
		v += n * pieceValue[k]
	}
	return v
}
