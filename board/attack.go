package board

import (
	"github.com/ryuou/ryuou/move"
	"github.com/ryuou/ryuou/shogi"
)

func colored(kind shogi.Piece, c shogi.Color) shogi.Piece {
	return kind.WithColor(c)
}

// AttackersTo returns c's pieces that attack sq under the given occupancy.
func (b *Board) AttackersTo(sq shogi.Square, c shogi.Color, occ shogi.Bitboard) shogi.Bitboard {
	them := c.Opponent()
	p := &b.pieces
	att := shogi.StepAttacks(colored(shogi.Pawn, them), sq).And(p[colored(shogi.Pawn, c)])
	att = att.Or(shogi.StepAttacks(colored(shogi.Knight, them), sq).And(p[colored(shogi.Knight, c)]))
	att = att.Or(shogi.StepAttacks(colored(shogi.Silver, them), sq).And(p[colored(shogi.Silver, c)]))
	att = att.Or(shogi.StepAttacks(colored(shogi.Gold, them), sq).And(b.GoldLike(c)))
	att = att.Or(shogi.StepAttacks(colored(shogi.King, them), sq).And(
		p[colored(shogi.King, c)].Or(p[colored(shogi.Horse, c)]).Or(p[colored(shogi.Dragon, c)])))
	att = att.Or(shogi.LanceAttacks(them, sq, occ).And(p[colored(shogi.Lance, c)]))
	att = att.Or(shogi.BishopAttacks(sq, occ).And(p[colored(shogi.Bishop, c)].Or(p[colored(shogi.Horse, c)])))
	att = att.Or(shogi.RookAttacks(sq, occ).And(p[colored(shogi.Rook, c)].Or(p[colored(shogi.Dragon, c)])))
	return att
}

// IsAttacked reports whether any of c's pieces attacks sq.
func (b *Board) IsAttacked(sq shogi.Square, c shogi.Color, occ shogi.Bitboard) bool {
	return b.AttackersTo(sq, c, occ).Exists()
}

// Checkers returns the pieces giving check to the side to move.
func (b *Board) Checkers() shogi.Bitboard {
	king := b.kings[b.turn]
	if king == shogi.SquareInvalid {
		return shogi.BBEmpty
	}
	return b.AttackersTo(king, b.turn.Opponent(), b.Occupied())
}

// IsChecking reports whether the side to move is in check.
func (b *Board) IsChecking() bool {
	return b.Checkers().Exists()
}

// Pinned returns c's pieces that may not leave the line between c's king
// and an enemy slider.
func (b *Board) Pinned(c shogi.Color) shogi.Bitboard {
	king := b.kings[c]
	var pinned shogi.Bitboard
	if king == shogi.SquareInvalid {
		return pinned
	}
	occ := b.Occupied()
	for d := shogi.DirUp; d < shogi.DirNum; d++ {
		first := shogi.FirstBlocker(d, king, occ)
		if first == shogi.SquareInvalid || b.squares[first].Color() != c {
			continue
		}
		second := shogi.FirstBlocker(d, first, occ)
		if second == shogi.SquareInvalid {
			continue
		}
		p := b.squares[second]
		if p.Color() != c && shogi.SlidesAlong(p, d.Reverse()) {
			pinned.Set(first)
		}
	}
	return pinned
}

// IsPinned reports whether the piece on sq is pinned to its own king.
func (b *Board) IsPinned(sq shogi.Square) bool {
	p := b.squares[sq]
	if p.IsEmpty() {
		return false
	}
	return b.Pinned(p.Color()).Check(sq)
}

// IsCheck reports whether m, played by the side to move, gives check. It
// covers direct checks and checks discovered by the piece leaving a line.
func (b *Board) IsCheck(m move.Move) bool {
	if b.IsDirectCheck(m) {
		return true
	}
	king := b.kings[b.turn.Opponent()]
	if m.IsDrop() || king == shogi.SquareInvalid {
		return false
	}
	return b.discovers(king, m.From(), m.To(), b.turn)
}

// IsDirectCheck reports whether the moved or dropped piece itself attacks
// the opposing king from its destination.
func (b *Board) IsDirectCheck(m move.Move) bool {
	us := b.turn
	king := b.kings[us.Opponent()]
	if king == shogi.SquareInvalid {
		return false
	}
	to := m.To()
	occ := b.Occupied()
	if !m.IsDrop() {
		occ.Unset(m.From())
	}
	occ.Set(to)
	return shogi.Attacks(m.PieceAfter().WithColor(us), to, occ).Check(king)
}

// discovers reports whether moving a piece off from onto to uncovers one
// of c's sliders aimed at king.
func (b *Board) discovers(king, from, to shogi.Square, c shogi.Color) bool {
	d := shogi.DirectionBetween(king, from)
	if d == shogi.DirNone || shogi.Aligned(king, from, to) {
		return false
	}
	occ := b.Occupied()
	occ.Unset(from)
	blk := shogi.FirstBlocker(d, king, occ)
	if blk == shogi.SquareInvalid {
		return false
	}
	p := b.squares[blk]
	return p.Color() == c && shogi.SlidesAlong(p, d.Reverse())
}

// IsDiscoveredCheckCandidate reports whether the piece on sq shields the
// opposing king from one of the mover's sliders.
func (b *Board) IsDiscoveredCheckCandidate(sq shogi.Square) bool {
	us := b.turn
	king := b.kings[us.Opponent()]
	if king == shogi.SquareInvalid || b.squares[sq].Color() != us || b.squares[sq].IsEmpty() {
		return false
	}
	d := shogi.DirectionBetween(king, sq)
	if d == shogi.DirNone {
		return false
	}
	occ := b.Occupied()
	if shogi.FirstBlocker(d, king, occ) != sq {
		return false
	}
	blk := shogi.FirstBlocker(d, sq, occ)
	if blk == shogi.SquareInvalid {
		return false
	}
	p := b.squares[blk]
	return p.Color() == us && shogi.SlidesAlong(p, d.Reverse())
}
