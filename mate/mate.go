// Package mate proves short forced mates by direct bitboard reasoning
// instead of running the general search.
package mate

import (
	"github.com/ryuou/ryuou/board"
	"github.com/ryuou/ryuou/move"
	"github.com/ryuou/ryuou/movegen"
	"github.com/ryuou/ryuou/shogi"
)

// IsProtected reports whether c attacks sq with the pieces still present
// in occ. Pieces missing from occ are treated as gone.
func IsProtected(b *board.Board, sq shogi.Square, c shogi.Color, occ shogi.Bitboard) bool {
	return b.AttackersTo(sq, c, occ).Intersects(occ)
}

// HasEvasion reports whether the side to move, which must be in check, has
// a legal reply. A side not in check trivially has one.
func HasEvasion(b *board.Board) bool {
	us := b.Turn()
	them := us.Opponent()
	king := b.KingSquare(us)
	if king == shogi.SquareInvalid {
		return true
	}
	checkers := b.Checkers()
	if checkers.IsZero() {
		return true
	}

	occ := b.Occupied()
	occNoKing := occ
	occNoKing.Unset(king)
	steps := shogi.StepAttacks(shogi.King.WithColor(us), king).AndNot(b.ColorOccupied(us))
	for to := range steps.Squares() {
		if !b.IsAttacked(to, them, occNoKing) {
			return true
		}
	}
	if checkers.Count() > 1 {
		return false
	}

	checker := checkers.GetFirst()
	defenders := b.ColorOccupied(us).AndNot(shogi.SquareBB(king)).AndNot(b.Pinned(us))
	if b.AttackersTo(checker, us, occ).Intersects(defenders) {
		return true
	}
	block := shogi.Between(king, checker)
	for sq := range block.Squares() {
		if b.AttackersTo(sq, us, occ).Intersects(defenders) {
			return true
		}
		if canDrop(b, us, sq) {
			return true
		}
	}
	return false
}

// canDrop reports whether us holds a piece that may legally be dropped on
// the empty square sq.
func canDrop(b *board.Board, us shogi.Color, sq shogi.Square) bool {
	hand := b.HandOf(us)
	if hand.IsEmpty() {
		return false
	}
	for _, k := range [...]shogi.Piece{shogi.Silver, shogi.Gold, shogi.Bishop, shogi.Rook} {
		if hand.Has(k) {
			return true
		}
	}
	if hand.Has(shogi.Lance) && shogi.DropMask(shogi.Lance, us).Check(sq) {
		return true
	}
	if hand.Has(shogi.Knight) && shogi.DropMask(shogi.Knight, us).Check(sq) {
		return true
	}
	if hand.Has(shogi.Pawn) && shogi.DropMask(shogi.Pawn, us).Check(sq) {
		pawns := b.Pieces(shogi.Pawn.WithColor(us))
		return !pawns.Intersects(shogi.FileMask[sq.Col()])
	}
	return false
}

// IsPawnDropMate reports whether m is a pawn drop by the side to move that
// leaves the opponent without a reply. Such a drop is illegal.
func IsPawnDropMate(b *board.Board, m move.Move) bool {
	if !m.IsDrop() || m.Piece() != shogi.Pawn {
		return false
	}
	us := b.Turn()
	king := b.KingSquare(us.Opponent())
	if king == shogi.SquareInvalid ||
		!shogi.StepAttacks(shogi.Pawn.WithColor(us), m.To()).Check(king) {
		return false
	}
	if !b.MakeMove(m) {
		return false
	}
	mated := !HasEvasion(b)
	b.UnmakeMove(m)
	return mated
}

// Mate1Ply looks for a move that mates at once. Pawn-drop mates are
// skipped because the rules forbid them.
func Mate1Ply(b *board.Board) (move.Move, bool) {
	var buf [128]move.Move
	for _, m := range movegen.Generate(b, movegen.Check, buf[:0]) {
		if m.IsDrop() && m.Piece() == shogi.Pawn {
			continue
		}
		if !b.MakeMove(m) {
			continue
		}
		mated := !HasEvasion(b)
		b.UnmakeMove(m)
		if mated {
			return m, true
		}
	}
	return move.Empty, false
}

// Mate3Ply looks for a check after which every reply allows a mate in
// one. A mate in one also counts.
func Mate3Ply(b *board.Board) (move.Move, bool) {
	var checks [128]move.Move
	var replies [128]move.Move
	for _, m := range movegen.Generate(b, movegen.Check, checks[:0]) {
		if IsPawnDropMate(b, m) || !b.MakeMove(m) {
			continue
		}
		if !HasEvasion(b) {
			b.UnmakeMove(m)
			return m, true
		}
		if everyReplyMated(b, replies[:0]) {
			b.UnmakeMove(m)
			return m, true
		}
		b.UnmakeMove(m)
	}
	return move.Empty, false
}

// everyReplyMated tries each legal evasion of the side to move and asks
// for a mate in one after it.
func everyReplyMated(b *board.Board, buf []move.Move) bool {
	for _, e := range movegen.Generate(b, movegen.Evasion, buf) {
		if !b.MakeMove(e) {
			continue
		}
		_, ok := Mate1Ply(b)
		b.UnmakeMove(e)
		if !ok {
			return false
		}
	}
	return true
}
