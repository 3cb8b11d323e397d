// Package board holds the shogi game state and the rules for changing it.
package board

import (
	"github.com/ryuou/ryuou/move"
	"github.com/ryuou/ryuou/shogi"
	"github.com/ryuou/ryuou/zobrist"
)

// Board is a complete shogi position. The per-piece bitboards, the
// per-color occupancy and the mailbox always agree, and hash always equals
// zobrist.Tables.Hash of the current state.
type Board struct {
	pieces  [shogi.PieceNum]shogi.Bitboard
	occ     [shogi.ColorNum]shogi.Bitboard
	squares [shogi.SquareNum]shogi.Piece
	hands   [shogi.ColorNum]shogi.Hand
	kings   [shogi.ColorNum]shogi.Square
	turn    shogi.Color
	hash    uint64
}

// NewBoard returns an empty board with black to move.
func NewBoard() *Board {
	b := &Board{}
	for i := range b.squares {
		b.squares[i] = shogi.Empty
	}
	b.kings = [shogi.ColorNum]shogi.Square{shogi.SquareInvalid, shogi.SquareInvalid}
	return b
}

var hirateRows = [shogi.RankNum][shogi.FileNum]shogi.Piece{
	{shogi.WLance, shogi.WKnight, shogi.WSilver, shogi.WGold, shogi.WKing, shogi.WGold, shogi.WSilver, shogi.WKnight, shogi.WLance},
	{shogi.Empty, shogi.WRook, shogi.Empty, shogi.Empty, shogi.Empty, shogi.Empty, shogi.Empty, shogi.WBishop, shogi.Empty},
	{shogi.WPawn, shogi.WPawn, shogi.WPawn, shogi.WPawn, shogi.WPawn, shogi.WPawn, shogi.WPawn, shogi.WPawn, shogi.WPawn},
	{shogi.Empty, shogi.Empty, shogi.Empty, shogi.Empty, shogi.Empty, shogi.Empty, shogi.Empty, shogi.Empty, shogi.Empty},
	{shogi.Empty, shogi.Empty, shogi.Empty, shogi.Empty, shogi.Empty, shogi.Empty, shogi.Empty, shogi.Empty, shogi.Empty},
	{shogi.Empty, shogi.Empty, shogi.Empty, shogi.Empty, shogi.Empty, shogi.Empty, shogi.Empty, shogi.Empty, shogi.Empty},
	{shogi.BPawn, shogi.BPawn, shogi.BPawn, shogi.BPawn, shogi.BPawn, shogi.BPawn, shogi.BPawn, shogi.BPawn, shogi.BPawn},
	{shogi.Empty, shogi.BBishop, shogi.Empty, shogi.Empty, shogi.Empty, shogi.Empty, shogi.Empty, shogi.BRook, shogi.Empty},
	{shogi.BLance, shogi.BKnight, shogi.BSilver, shogi.BGold, shogi.BKing, shogi.BGold, shogi.BSilver, shogi.BKnight, shogi.BLance},
}

// NewInitialBoard returns the standard (hirate) starting position.
func NewInitialBoard() *Board {
	b := NewBoard()
	for row, r := range hirateRows {
		for col, p := range r {
			if p.Exists() {
				b.put(p, shogi.SquareFromColRow(col, row))
			}
		}
	}
	return b
}

func (b *Board) put(p shogi.Piece, sq shogi.Square) {
	b.squares[sq] = p
	b.pieces[p].Set(sq)
	b.occ[p.Color()].Set(sq)
	b.hash ^= zobrist.Tables.Piece(p, sq)
	if p.KindOnly() == shogi.King {
		b.kings[p.Color()] = sq
	}
}

func (b *Board) remove(sq shogi.Square) shogi.Piece {
	p := b.squares[sq]
	b.squares[sq] = shogi.Empty
	b.pieces[p].Unset(sq)
	b.occ[p.Color()].Unset(sq)
	b.hash ^= zobrist.Tables.Piece(p, sq)
	return p
}

func (b *Board) handInc(c shogi.Color, kind shogi.Piece) {
	if b.hands[c].Inc(kind) {
		b.hash ^= zobrist.Tables.HandLevel(c, kind, b.hands[c].Get(kind))
	}
}

func (b *Board) handDec(c shogi.Color, kind shogi.Piece) {
	n := b.hands[c].Get(kind)
	if b.hands[c].Dec(kind) {
		b.hash ^= zobrist.Tables.HandLevel(c, kind, n)
	}
}

// Set places p on sq (or clears it when p is Empty), keeping every index
// and the hash in step. It is meant for position setup, not for play.
func (b *Board) Set(sq shogi.Square, p shogi.Piece) {
	if old := b.squares[sq]; old.Exists() {
		b.remove(sq)
		if old.KindOnly() == shogi.King && b.kings[old.Color()] == sq {
			b.kings[old.Color()] = shogi.SquareInvalid
		}
	}
	if p.Exists() {
		b.put(p, sq)
	}
}

// SetHand sets c's count of kind, returning false beyond the limit.
func (b *Board) SetHand(c shogi.Color, kind shogi.Piece, n int) bool {
	old := b.hands[c].Get(kind)
	if !b.hands[c].Set(kind, n) {
		return false
	}
	for i := 1; i <= old; i++ {
		b.hash ^= zobrist.Tables.HandLevel(c, kind, i)
	}
	for i := 1; i <= n; i++ {
		b.hash ^= zobrist.Tables.HandLevel(c, kind, i)
	}
	return true
}

func (b *Board) SetTurn(c shogi.Color) {
	if b.turn != c {
		b.turn = c
		b.hash ^= zobrist.Tables.Turn()
	}
}

func (b *Board) PieceAt(sq shogi.Square) shogi.Piece { return b.squares[sq] }
func (b *Board) Turn() shogi.Color                   { return b.turn }
func (b *Board) Hash() uint64                        { return b.hash }

// NoTurnHash is the hash with the side-to-move component removed.
func (b *Board) NoTurnHash() uint64 { return b.hash &^ zobrist.Tables.Turn() }

func (b *Board) BlackHand() *shogi.Hand                { return &b.hands[shogi.Black] }
func (b *Board) WhiteHand() *shogi.Hand                { return &b.hands[shogi.White] }
func (b *Board) HandOf(c shogi.Color) *shogi.Hand      { return &b.hands[c] }
func (b *Board) KingSquare(c shogi.Color) shogi.Square { return b.kings[c] }

// Pieces returns the bitboard of one colored piece.
func (b *Board) Pieces(p shogi.Piece) shogi.Bitboard { return b.pieces[p] }

func (b *Board) ColorOccupied(c shogi.Color) shogi.Bitboard { return b.occ[c] }

func (b *Board) Occupied() shogi.Bitboard {
	return b.occ[shogi.Black].Or(b.occ[shogi.White])
}

// GoldLike returns c's golds and gold-moving promoted minors.
func (b *Board) GoldLike(c shogi.Color) shogi.Bitboard {
	w := shogi.Piece(0)
	if c == shogi.White {
		w = shogi.WhiteBit
	}
	return b.pieces[shogi.Gold|w].
		Or(b.pieces[shogi.Tokin|w]).
		Or(b.pieces[shogi.ProLance|w]).
		Or(b.pieces[shogi.ProKnight|w]).
		Or(b.pieces[shogi.ProSilver|w])
}

// Copy returns an independent copy.
func (b *Board) Copy() *Board {
	c := *b
	return &c
}

// CopyFrom overwrites b with o, reusing b's storage.
func (b *Board) CopyFrom(o *Board) {
	*b = *o
}

// Flipped returns the position rotated 180 degrees with colors swapped,
// so the other side is to move in the mirrored situation.
func (b *Board) Flipped() *Board {
	f := NewBoard()
	for sq := shogi.Square(0); sq < shogi.SquareNum; sq++ {
		if p := b.squares[sq]; p.Exists() {
			f.put(p.Flip(), sq.Flip())
		}
	}
	for c := shogi.Black; c <= shogi.White; c++ {
		for k := shogi.Pawn; k < shogi.King; k++ {
			f.SetHand(c.Opponent(), k, b.hands[c].Get(k))
		}
	}
	f.SetTurn(b.turn.Opponent())
	return f
}

// Equals compares complete state, hash included.
func (b *Board) Equals(o *Board) bool {
	return *b == *o
}

// MakeMove plays m if it does not leave the mover's king attacked. m must
// be pseudo-legal for this position (as produced by movegen or accepted by
// IsValidMove). A rejected move leaves the board untouched.
func (b *Board) MakeMove(m move.Move) bool {
	us := b.turn
	them := us.Opponent()
	king := b.kings[us]
	if king == shogi.SquareInvalid {
		b.doMove(m)
		return true
	}

	if !m.IsDrop() && m.Piece() == shogi.King {
		occ := b.Occupied()
		occ.Unset(m.From())
		occ.Set(m.To())
		if b.IsAttacked(m.To(), them, occ) {
			return false
		}
		b.doMove(m)
		return true
	}

	if b.IsChecking() {
		b.doMove(m)
		if b.IsAttacked(b.kings[us], them, b.Occupied()) {
			b.undoMove(m)
			return false
		}
		return true
	}

	// A pinned piece may only slide along its pin line.
	if !m.IsDrop() && b.discovers(king, m.From(), m.To(), them) {
		return false
	}
	b.doMove(m)
	return true
}

// UnmakeMove reverts m, which must be the last move made.
func (b *Board) UnmakeMove(m move.Move) {
	b.undoMove(m)
}

// MakeMoveIrr checks m with IsValidMove and plays it. Record replay uses it
// for moves that come from outside the generator and are never unmade.
func (b *Board) MakeMoveIrr(m move.Move) bool {
	if !b.IsValidMove(m) {
		return false
	}
	return b.MakeMove(m)
}

func (b *Board) MakeNullMove() {
	b.turn = b.turn.Opponent()
	b.hash ^= zobrist.Tables.Turn()
}

func (b *Board) UnmakeNullMove() {
	b.MakeNullMove()
}

func (b *Board) doMove(m move.Move) {
	us := b.turn
	to := m.To()
	if m.IsDrop() {
		kind := m.Piece()
		b.handDec(us, kind)
		b.put(kind.WithColor(us), to)
	} else {
		p := b.remove(m.From())
		if b.squares[to].Exists() {
			captured := b.remove(to)
			b.handInc(us, captured.Kind())
		}
		if m.IsPromotion() {
			p = p.Promoted()
		}
		b.put(p, to)
	}
	b.turn = us.Opponent()
	b.hash ^= zobrist.Tables.Turn()
}

func (b *Board) undoMove(m move.Move) {
	b.turn = b.turn.Opponent()
	b.hash ^= zobrist.Tables.Turn()
	us := b.turn
	to := m.To()
	if m.IsDrop() {
		b.remove(to)
		b.handInc(us, m.Piece())
		return
	}
	p := b.remove(to)
	if m.IsPromotion() {
		p = p.Unpromoted()
	}
	b.put(p, m.From())
	if m.IsCapture() {
		captured := m.Captured()
		b.handDec(us, captured.Kind())
		b.put(captured.WithColor(us.Opponent()), to)
	}
}
