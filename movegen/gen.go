package movegen

import (
	"github.com/ryuou/ryuou/board"
	"github.com/ryuou/ryuou/move"
	"github.com/ryuou/ryuou/shogi"
)

// boardKinds is the order board moves are emitted in. Kings come last
// and are handled separately.
var boardKinds = [...]shogi.Piece{
	shogi.Pawn, shogi.Lance, shogi.Knight, shogi.Silver, shogi.Gold,
	shogi.Tokin, shogi.ProLance, shogi.ProKnight, shogi.ProSilver,
	shogi.Bishop, shogi.Horse, shogi.Rook, shogi.Dragon,
}

var dropKinds = [...]shogi.Piece{
	shogi.Pawn, shogi.Lance, shogi.Knight, shogi.Silver, shogi.Gold,
	shogi.Bishop, shogi.Rook,
}

// keepUnpromoted decides whether the unpromoted version of a promotable
// move is worth generating. Pawn, bishop and rook gain nothing by staying
// unpromoted; lance and knight only when they could still move again.
func keepUnpromoted(kind shogi.Piece, us shogi.Color, to shogi.Square) bool {
	switch kind {
	case shogi.Pawn, shogi.Bishop, shogi.Rook:
		return false
	case shogi.Lance, shogi.Knight:
		return to.RelativeRow(us) >= 2
	}
	return true
}

// appendMoves emits the moves of the piece on from to every target,
// expanding promotion choices.
func appendMoves(b *board.Board, us shogi.Color, p shogi.Piece, from shogi.Square,
	targets shogi.Bitboard, buf []move.Move) []move.Move {

	kind := p.KindOnly()
	promotable := kind.CanPromote()
	for to := range targets.Squares() {
		captured := b.PieceAt(to)
		if !promotable || !(from.IsPromotable(us) || to.IsPromotable(us)) {
			buf = append(buf, move.NewBoardMove(p, from, to, false).WithCapture(captured))
			continue
		}
		buf = append(buf, move.NewBoardMove(p, from, to, true).WithCapture(captured))
		if keepUnpromoted(kind, us, to) {
			buf = append(buf, move.NewBoardMove(p, from, to, false).WithCapture(captured))
		}
	}
	return buf
}

// appendPieceMoves walks every non-king piece of us and emits its moves
// to targetFor(kind) intersected with its attacks.
func appendPieceMoves(b *board.Board, us shogi.Color, targetFor func(kind shogi.Piece) shogi.Bitboard,
	buf []move.Move) []move.Move {

	occ := b.Occupied()
	for _, kind := range boardKinds {
		p := kind.WithColor(us)
		pieces := b.Pieces(p)
		if pieces.IsZero() {
			continue
		}
		mask := targetFor(kind)
		for from := range pieces.Squares() {
			buf = appendMoves(b, us, p, from, shogi.Attacks(p, from, occ).And(mask), buf)
		}
	}
	return buf
}

func appendKingMoves(b *board.Board, us shogi.Color, mask shogi.Bitboard, buf []move.Move) []move.Move {
	king := b.KingSquare(us)
	if king == shogi.SquareInvalid {
		return buf
	}
	p := shogi.King.WithColor(us)
	return appendMoves(b, us, p, king, shogi.StepAttacks(p, king).And(mask), buf)
}

func genCapture(b *board.Board, us shogi.Color, buf []move.Move) []move.Move {
	them := b.ColorOccupied(us.Opponent())
	pawnMask := them.Or(b.Occupied().Not().And(shogi.PromotionZone[us]))
	buf = appendPieceMoves(b, us, func(kind shogi.Piece) shogi.Bitboard {
		if kind == shogi.Pawn {
			return pawnMask
		}
		return them
	}, buf)
	return appendKingMoves(b, us, them, buf)
}

func genNoCapture(b *board.Board, us shogi.Color, buf []move.Move) []move.Move {
	empty := b.Occupied().Not()
	pawnMask := empty.AndNot(shogi.PromotionZone[us])
	buf = appendPieceMoves(b, us, func(kind shogi.Piece) shogi.Bitboard {
		if kind == shogi.Pawn {
			return pawnMask
		}
		return empty
	}, buf)
	return appendKingMoves(b, us, empty, buf)
}

// pawnFiles returns every square on a file holding one of c's
// unpromoted pawns.
func pawnFiles(b *board.Board, c shogi.Color) shogi.Bitboard {
	var files shogi.Bitboard
	pawns := b.Pieces(shogi.Pawn.WithColor(c))
	for sq := range pawns.Squares() {
		files = files.Or(shogi.FileMask[sq.Col()])
	}
	return files
}

// appendDrops emits drops of every held kind onto targetFor(kind).
func appendDrops(b *board.Board, us shogi.Color, targetFor func(kind shogi.Piece) shogi.Bitboard,
	buf []move.Move) []move.Move {

	hand := b.HandOf(us)
	if hand.IsEmpty() {
		return buf
	}
	for _, kind := range dropKinds {
		if !hand.Has(kind) {
			continue
		}
		t := targetFor(kind).And(shogi.DropMask(kind, us))
		if kind == shogi.Pawn && t.Exists() {
			t = t.AndNot(pawnFiles(b, us))
		}
		for to := range t.Squares() {
			buf = append(buf, move.NewDrop(kind, to))
		}
	}
	return buf
}

func genDrop(b *board.Board, us shogi.Color, buf []move.Move) []move.Move {
	empty := b.Occupied().Not()
	return appendDrops(b, us, func(shogi.Piece) shogi.Bitboard { return empty }, buf)
}

// genEvasion answers a check. The king may step to any square the enemy
// does not attack once the king itself stops blocking. With a single
// checker other pieces may capture it or, against a slider, interpose by
// move or drop. Under double check only the king moves.
func genEvasion(b *board.Board, us shogi.Color, buf []move.Move) []move.Move {
	king := b.KingSquare(us)
	checkers := b.Checkers()
	if king == shogi.SquareInvalid || checkers.IsZero() {
		return buf
	}
	them := us.Opponent()
	occNoKing := b.Occupied()
	occNoKing.Unset(king)
	p := shogi.King.WithColor(us)
	for to := range shogi.StepAttacks(p, king).AndNot(b.ColorOccupied(us)).Squares() {
		if !b.IsAttacked(to, them, occNoKing) {
			buf = append(buf, move.NewBoardMove(p, king, to, false).WithCapture(b.PieceAt(to)))
		}
	}
	if checkers.Count() > 1 {
		return buf
	}
	checker := checkers.GetFirst()
	block := shogi.Between(king, checker)
	mask := block.Or(shogi.SquareBB(checker))
	buf = appendPieceMoves(b, us, func(shogi.Piece) shogi.Bitboard { return mask }, buf)
	if block.IsZero() {
		return buf
	}
	return appendDrops(b, us, func(shogi.Piece) shogi.Bitboard { return block }, buf)
}

// checkSquares returns the squares from which p, a piece of the side to
// move, would attack king. Attacks are symmetric under a color swap, so
// this is what the opposite-colored p attacks from the king.
func checkSquares(p shogi.Piece, king shogi.Square, occ shogi.Bitboard) shogi.Bitboard {
	return shogi.Attacks(p.Flip(), king, occ)
}

// discoverers returns the pieces of us that block one of its own sliders
// from the enemy king. Only the first piece on each line from the king
// can qualify.
func discoverers(b *board.Board, us shogi.Color, king shogi.Square) shogi.Bitboard {
	occ := b.Occupied()
	lines := shogi.RookAttacks(king, occ).Or(shogi.BishopAttacks(king, occ)).And(b.ColorOccupied(us))
	var disc shogi.Bitboard
	for sq := range lines.Squares() {
		if b.IsDiscoveredCheckCandidate(sq) {
			disc.Set(sq)
		}
	}
	return disc
}

// checkMasks holds the check squares of a piece kind unpromoted and
// promoted.
type checkMasks struct {
	plain, promoted shogi.Bitboard
}

func newCheckMasks(p shogi.Piece, king shogi.Square, occ shogi.Bitboard) checkMasks {
	cm := checkMasks{plain: checkSquares(p, king, occ)}
	if p.CanPromote() {
		cm.promoted = checkSquares(p.Promoted(), king, occ)
	}
	return cm
}

func (cm checkMasks) reach() shogi.Bitboard { return cm.plain.Or(cm.promoted) }

// appendChecks emits the moves of the piece on from that give check. A
// destination checks directly when it lies in the check squares of the
// piece as it stands there, or by discovery when the piece is a
// discoverer leaving the line to the king.
func appendChecks(b *board.Board, us shogi.Color, p shogi.Piece, from, king shogi.Square,
	targets shogi.Bitboard, cm checkMasks, discoverer bool, buf []move.Move) []move.Move {

	kind := p.KindOnly()
	promotable := kind.CanPromote()
	for to := range targets.Squares() {
		disc := discoverer && !shogi.Aligned(king, from, to)
		captured := b.PieceAt(to)
		if !promotable || !(from.IsPromotable(us) || to.IsPromotable(us)) {
			if disc || cm.plain.Check(to) {
				buf = append(buf, move.NewBoardMove(p, from, to, false).WithCapture(captured))
			}
			continue
		}
		if disc || cm.promoted.Check(to) {
			buf = append(buf, move.NewBoardMove(p, from, to, true).WithCapture(captured))
		}
		if keepUnpromoted(kind, us, to) && (disc || cm.plain.Check(to)) {
			buf = append(buf, move.NewBoardMove(p, from, to, false).WithCapture(captured))
		}
	}
	return buf
}

// genCheck emits every checking move. Out of check, each piece kind only
// visits the squares its attacks share with the check squares of its
// unpromoted and promoted forms; discoverers visit all their moves.
// Drops go to the check squares of the dropped kind.
func genCheck(b *board.Board, us shogi.Color, buf []move.Move) []move.Move {
	if b.IsChecking() {
		start := len(buf)
		buf = genEvasion(b, us, buf)
		return filter(buf, start, b.IsCheck)
	}
	king := b.KingSquare(us.Opponent())
	if king == shogi.SquareInvalid {
		return buf
	}
	occ := b.Occupied()
	notOurs := b.ColorOccupied(us).Not()
	disc := discoverers(b, us, king)
	for _, kind := range boardKinds {
		p := kind.WithColor(us)
		pieces := b.Pieces(p)
		if pieces.IsZero() {
			continue
		}
		cm := newCheckMasks(p, king, occ)
		reach := cm.reach()
		for from := range pieces.Squares() {
			targets := shogi.Attacks(p, from, occ).And(notOurs)
			isDisc := disc.Check(from)
			if !isDisc {
				targets = targets.And(reach)
			}
			buf = appendChecks(b, us, p, from, king, targets, cm, isDisc, buf)
		}
	}
	// a king only checks by discovery
	if own := b.KingSquare(us); own != shogi.SquareInvalid && disc.Check(own) {
		p := shogi.King.WithColor(us)
		targets := shogi.StepAttacks(p, own).And(notOurs)
		buf = appendChecks(b, us, p, own, king, targets, checkMasks{}, true, buf)
	}
	empty := occ.Not()
	return appendDrops(b, us, func(kind shogi.Piece) shogi.Bitboard {
		return checkSquares(kind.WithColor(us), king, occ).And(empty)
	}, buf)
}

// genCheckLight emits non-capturing direct checks. Pawn moves into the
// promotion zone are left to the capture phase, which already produces
// them.
func genCheckLight(b *board.Board, us shogi.Color, buf []move.Move) []move.Move {
	king := b.KingSquare(us.Opponent())
	if king == shogi.SquareInvalid {
		return buf
	}
	occ := b.Occupied()
	empty := occ.Not()
	for _, kind := range boardKinds {
		p := kind.WithColor(us)
		pieces := b.Pieces(p)
		if pieces.IsZero() {
			continue
		}
		cm := newCheckMasks(p, king, occ)
		mask := cm.reach().And(empty)
		if kind == shogi.Pawn {
			mask = mask.AndNot(shogi.PromotionZone[us])
		}
		for from := range pieces.Squares() {
			buf = appendChecks(b, us, p, from, king, shogi.Attacks(p, from, occ).And(mask), cm, false, buf)
		}
	}
	return appendDrops(b, us, func(kind shogi.Piece) shogi.Bitboard {
		return checkSquares(kind.WithColor(us), king, occ).And(empty)
	}, buf)
}

// filter keeps the moves of buf[start:] that satisfy keep, in order.
func filter(buf []move.Move, start int, keep func(move.Move) bool) []move.Move {
	n := start
	for _, m := range buf[start:] {
		if keep(m) {
			buf[n] = m
			n++
		}
	}
	return buf[:n]
}
