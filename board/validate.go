package board

import (
	"errors"
	"fmt"

	"github.com/ryuou/ryuou/move"
	"github.com/ryuou/ryuou/shogi"
	"github.com/ryuou/ryuou/zobrist"
)

var (
	ErrBadKingCount     = errors.New("each side needs exactly one king")
	ErrTooManyPieces    = errors.New("piece count exceeds the set")
	ErrDeadPiece        = errors.New("piece can never move again")
	ErrDoublePawn       = errors.New("two unpromoted pawns on one file")
	ErrOpponentInCheck  = errors.New("side not to move is in check")
	ErrInconsistent     = errors.New("board indexes disagree")
	ErrHashMismatch     = errors.New("hash differs from recomputation")
	ErrMoveInconsistent = errors.New("move does not fit this board")
)

// fileHasPawn reports whether c has an unpromoted pawn on sq's file.
func (b *Board) fileHasPawn(c shogi.Color, sq shogi.Square) bool {
	return b.pieces[colored(shogi.Pawn, c)].Intersects(shogi.FileMask[sq.Col()])
}

// canStandUnpromoted reports whether an unpromoted piece of kind owned by
// c would still have a move from sq.
func canStandUnpromoted(kind shogi.Piece, c shogi.Color, sq shogi.Square) bool {
	return shogi.DropMask(kind, c).Check(sq)
}

// IsValidMove reports whether m is pseudo-legal here: the right piece is
// on the origin, it can reach the destination, the capture recorded in m
// matches the board, and drop rules (hand, empty square, two pawns, dead
// squares) hold. King safety is left to MakeMove.
func (b *Board) IsValidMove(m move.Move) bool {
	if m.IsEmpty() || !m.To().IsValid() {
		return false
	}
	us := b.turn
	to := m.To()
	target := b.squares[to]
	if m.IsDrop() {
		kind := m.Piece()
		if kind >= shogi.King || m.IsPromotion() || m.IsCapture() {
			return false
		}
		if target.Exists() || !b.hands[us].Has(kind) {
			return false
		}
		if !canStandUnpromoted(kind, us, to) {
			return false
		}
		if kind == shogi.Pawn && b.fileHasPawn(us, to) {
			return false
		}
		return true
	}

	from := m.From()
	if !from.IsValid() {
		return false
	}
	p := b.squares[from]
	if p.IsEmpty() || p.Color() != us || p.KindOnly() != m.Piece() {
		return false
	}
	if target.Exists() {
		if target.Color() == us || target.KindOnly() == shogi.King {
			return false
		}
		if !m.IsCapture() || m.Captured() != target.KindOnly() {
			return false
		}
	} else if m.IsCapture() {
		return false
	}
	if !shogi.Attacks(p, from, b.Occupied()).Check(to) {
		return false
	}
	if m.IsPromotion() {
		return p.CanPromote() && (from.IsPromotable(us) || to.IsPromotable(us))
	}
	if !p.IsPromoted() && !canStandUnpromoted(p.Kind(), us, to) {
		return false
	}
	return true
}

// IsValidMoveStrict is IsValidMove that also rejects the non-promotions
// the generator never produces: pawn, bishop and rook that could promote,
// and a lance stopping on its second rank.
func (b *Board) IsValidMoveStrict(m move.Move) bool {
	if !b.IsValidMove(m) {
		return false
	}
	if m.IsDrop() || m.IsPromotion() {
		return true
	}
	us := b.turn
	p := m.Piece()
	if !p.CanPromote() || !(m.From().IsPromotable(us) || m.To().IsPromotable(us)) {
		return true
	}
	switch p {
	case shogi.Pawn, shogi.Bishop, shogi.Rook:
		return false
	case shogi.Lance:
		return m.To().RelativeRow(us) >= 2
	}
	return true
}

// DeserializeMove16 completes a 16-bit move word against this board.
// Only the fields the word cannot carry are filled in; call IsValidMove
// before trusting the result.
func (b *Board) DeserializeMove16(w uint16) (move.Move, error) {
	d, err := move.Decode16(w)
	if err != nil {
		return move.Empty, err
	}
	if d.IsDrop {
		if b.squares[d.To].Exists() || !b.hands[b.turn].Has(d.Drop) {
			return move.Empty, fmt.Errorf("move16 %#x: %w", w, ErrMoveInconsistent)
		}
		return move.NewDrop(d.Drop, d.To), nil
	}
	p := b.squares[d.From]
	if p.IsEmpty() || p.Color() != b.turn {
		return move.Empty, fmt.Errorf("move16 %#x: %w", w, ErrMoveInconsistent)
	}
	if d.Promote && !p.CanPromote() {
		return move.Empty, fmt.Errorf("move16 %#x: %w", w, move.ErrBadPromote)
	}
	target := b.squares[d.To]
	if target.Exists() && target.Color() == b.turn {
		return move.Empty, fmt.Errorf("move16 %#x: %w", w, ErrMoveInconsistent)
	}
	return move.NewBoardMove(p, d.From, d.To, d.Promote).WithCapture(target), nil
}

// MoveFromCSA resolves a CSA move against this board, filling in
// promotion and capture. The mover's color must be the side to move.
func (b *Board) MoveFromCSA(cm move.CSAMove) (move.Move, error) {
	if cm.Color != b.turn {
		return move.Empty, fmt.Errorf("%v to move: %w", b.turn, ErrMoveInconsistent)
	}
	if cm.From == shogi.SquareInvalid {
		m := move.NewDrop(cm.Piece, cm.To)
		if !b.IsValidMove(m) {
			return move.Empty, fmt.Errorf("drop %v: %w", m, ErrMoveInconsistent)
		}
		return m, nil
	}
	p := b.squares[cm.From]
	if p.IsEmpty() || p.Color() != b.turn {
		return move.Empty, fmt.Errorf("no piece on %v: %w", cm.From, ErrMoveInconsistent)
	}
	promote := false
	switch {
	case cm.Piece == p.KindOnly():
	case cm.Piece == p.KindOnly().Promoted() && p.CanPromote():
		promote = true
	default:
		return move.Empty, fmt.Errorf("%v on %v is not %v: %w", p, cm.From, cm.Piece.CSA(), ErrMoveInconsistent)
	}
	m := move.NewBoardMove(p, cm.From, cm.To, promote).WithCapture(b.squares[cm.To])
	if !b.IsValidMove(m) {
		return move.Empty, fmt.Errorf("%v: %w", m, ErrMoveInconsistent)
	}
	return m, nil
}

// HashIsConsistent compares the incremental hash against a full
// recomputation.
func (b *Board) HashIsConsistent() bool {
	return b.hash == zobrist.Tables.Hash(&b.squares, &b.hands, b.turn)
}

// Validate checks every structural rule of a position: indexes agree,
// the set is not exceeded, one king each, no dead pieces, no doubled
// pawns and the side that just moved is not left in check.
func (b *Board) Validate() error {
	var occ [shogi.ColorNum]shogi.Bitboard
	var total [shogi.King + 1]int
	kings := [shogi.ColorNum]int{}
	for sq := shogi.Square(0); sq < shogi.SquareNum; sq++ {
		p := b.squares[sq]
		if p.IsEmpty() {
			continue
		}
		if !p.IsValid() || !b.pieces[p].Check(sq) {
			return fmt.Errorf("square %v: %w", sq, ErrInconsistent)
		}
		c := p.Color()
		occ[c].Set(sq)
		total[p.Kind()]++
		if p.KindOnly() == shogi.King {
			kings[c]++
			if b.kings[c] != sq {
				return fmt.Errorf("king square %v: %w", sq, ErrInconsistent)
			}
		}
		if !p.IsPromoted() && !canStandUnpromoted(p.Kind(), c, sq) {
			return fmt.Errorf("%v on %v: %w", p, sq, ErrDeadPiece)
		}
	}
	if !occ[shogi.Black].Equals(b.occ[shogi.Black]) || !occ[shogi.White].Equals(b.occ[shogi.White]) ||
		b.occ[shogi.Black].Intersects(b.occ[shogi.White]) {
		return ErrInconsistent
	}
	var union shogi.Bitboard
	for p := shogi.Piece(0); p < shogi.PieceNum; p++ {
		if !p.IsValid() {
			if b.pieces[p].Exists() {
				return ErrInconsistent
			}
			continue
		}
		union = union.Or(b.pieces[p])
	}
	if !union.Equals(b.Occupied()) {
		return ErrInconsistent
	}
	if kings[shogi.Black] != 1 || kings[shogi.White] != 1 {
		return ErrBadKingCount
	}
	for c := shogi.Black; c <= shogi.White; c++ {
		for k := shogi.Pawn; k < shogi.King; k++ {
			total[k] += b.hands[c].Get(k)
		}
		pawns := b.pieces[colored(shogi.Pawn, c)]
		for col := 0; col < shogi.FileNum; col++ {
			if pawns.And(shogi.FileMask[col]).Count() > 1 {
				return fmt.Errorf("file %d: %w", 9-col, ErrDoublePawn)
			}
		}
	}
	for k := shogi.Pawn; k < shogi.King; k++ {
		if total[k] > int(shogi.HandMax[k]) {
			return fmt.Errorf("%v: %w", k.CSA(), ErrTooManyPieces)
		}
	}
	them := b.turn.Opponent()
	if b.IsAttacked(b.kings[them], b.turn, b.Occupied()) {
		return ErrOpponentInCheck
	}
	if !b.HashIsConsistent() {
		return ErrHashMismatch
	}
	return nil
}
