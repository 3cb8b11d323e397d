package shogi

// Direction is one of the eight queen directions, seen from black.
type Direction int8

const (
	DirUp Direction = iota
	DirDown
	DirLeft
	DirRight
	DirLeftUp
	DirRightDown
	DirRightUp
	DirLeftDown
	DirNum
	DirNone Direction = -1
)

var dirDelta = [DirNum][2]int{
	DirUp:        {0, -1},
	DirDown:      {0, 1},
	DirLeft:      {-1, 0},
	DirRight:     {1, 0},
	DirLeftUp:    {-1, -1},
	DirLeftDown:  {-1, 1},
	DirRightUp:   {1, -1},
	DirRightDown: {1, 1},
}

// increasing reports whether squares along d have growing indices, which
// decides whether the nearest blocker is the first or last set bit.
func (d Direction) increasing() bool {
	dc, dr := dirDelta[d][0], dirDelta[d][1]
	return dc*RankNum+dr > 0
}

func (d Direction) IsDiagonal() bool {
	return d >= DirLeftUp && d < DirNum
}

func (d Direction) Reverse() Direction {
	return d ^ 1
}

var (
	// FileMask[col] and RankMask[row] are zero-based (col 0 is file 9).
	FileMask [FileNum]Bitboard
	RankMask [RankNum]Bitboard

	// PromotionZone per color.
	PromotionZone [ColorNum]Bitboard
	// PawnMovable / KnightMovable: squares an unpromoted pawn (or lance)
	// or knight of that color may stand on.
	PawnMovable   [ColorNum]Bitboard
	KnightMovable [ColorNum]Bitboard

	rays      [DirNum][SquareNum]Bitboard
	stepTable [PieceNum][SquareNum]Bitboard
	between   [SquareNum][SquareNum]Bitboard
	dirTable  [SquareNum][SquareNum]Direction
)

func init() {
	for col := 0; col < FileNum; col++ {
		for row := 0; row < RankNum; row++ {
			sq := SquareFromColRow(col, row)
			FileMask[col].Set(sq)
			RankMask[row].Set(sq)
		}
	}
	for row := 0; row < RankNum; row++ {
		if row <= 2 {
			PromotionZone[Black] = PromotionZone[Black].Or(RankMask[row])
		}
		if row >= 6 {
			PromotionZone[White] = PromotionZone[White].Or(RankMask[row])
		}
		if row >= 1 {
			PawnMovable[Black] = PawnMovable[Black].Or(RankMask[row])
		}
		if row >= 2 {
			KnightMovable[Black] = KnightMovable[Black].Or(RankMask[row])
		}
		if row <= 7 {
			PawnMovable[White] = PawnMovable[White].Or(RankMask[row])
		}
		if row <= 6 {
			KnightMovable[White] = KnightMovable[White].Or(RankMask[row])
		}
	}

	for sq := Square(0); sq < SquareNum; sq++ {
		for d := DirUp; d < DirNum; d++ {
			for to := sq.Offset(dirDelta[d][0], dirDelta[d][1]); to != SquareInvalid; to = to.Offset(dirDelta[d][0], dirDelta[d][1]) {
				rays[d][sq].Set(to)
			}
		}
	}

	for a := Square(0); a < SquareNum; a++ {
		for b := Square(0); b < SquareNum; b++ {
			dirTable[a][b] = DirNone
		}
		for d := DirUp; d < DirNum; d++ {
			var path Bitboard
			for to := a.Offset(dirDelta[d][0], dirDelta[d][1]); to != SquareInvalid; to = to.Offset(dirDelta[d][0], dirDelta[d][1]) {
				dirTable[a][to] = d
				between[a][to] = path
				path.Set(to)
			}
		}
	}

	for _, k := range Kinds {
		for sq := Square(0); sq < SquareNum; sq++ {
			stepTable[k][sq] = stepAttacks(k, Black, sq)
			stepTable[k|WhiteBit][sq] = stepAttacks(k, White, sq)
		}
	}
}

// stepAttacks builds the non-sliding part of a piece's attacks. Black's
// deltas are rotated 180 degrees for white.
func stepAttacks(kind Piece, c Color, sq Square) Bitboard {
	var deltas [][2]int
	switch {
	case kind == Pawn:
		deltas = [][2]int{{0, -1}}
	case kind == Knight:
		deltas = [][2]int{{-1, -2}, {1, -2}}
	case kind == Silver:
		deltas = [][2]int{{0, -1}, {-1, -1}, {1, -1}, {-1, 1}, {1, 1}}
	case kind.MovesLikeGold():
		deltas = [][2]int{{0, -1}, {-1, -1}, {1, -1}, {-1, 0}, {1, 0}, {0, 1}}
	case kind == King:
		deltas = [][2]int{{0, -1}, {-1, -1}, {1, -1}, {-1, 0}, {1, 0}, {-1, 1}, {0, 1}, {1, 1}}
	case kind == Horse:
		deltas = [][2]int{{0, -1}, {-1, 0}, {1, 0}, {0, 1}}
	case kind == Dragon:
		deltas = [][2]int{{-1, -1}, {1, -1}, {-1, 1}, {1, 1}}
	}
	var bb Bitboard
	for _, d := range deltas {
		dc, dr := d[0], d[1]
		if c == White {
			dc, dr = -dc, -dr
		}
		if to := sq.Offset(dc, dr); to != SquareInvalid {
			bb.Set(to)
		}
	}
	return bb
}

// Ray returns every square from sq (exclusive) to the edge along d.
func Ray(d Direction, sq Square) Bitboard {
	return rays[d][sq]
}

// Between returns the squares strictly between a and b, empty unless
// they share a line.
func Between(a, b Square) Bitboard {
	return between[a][b]
}

// DirectionBetween returns the direction leading from a to b, or DirNone.
func DirectionBetween(a, b Square) Direction {
	return dirTable[a][b]
}

// Aligned reports whether c lies on the line through a and b.
func Aligned(a, b, c Square) bool {
	d := dirTable[a][b]
	if d == DirNone {
		return false
	}
	dc := dirTable[a][c]
	return dc == d || dc == d.Reverse()
}

// SlideAttacks returns the squares attacked from sq along d given the
// occupancy, up to and including the first occupied square.
func SlideAttacks(d Direction, sq Square, occ Bitboard) Bitboard {
	r := rays[d][sq]
	blk := r.And(occ)
	if blk.IsZero() {
		return r
	}
	var b Square
	if d.increasing() {
		b = blk.GetFirst()
	} else {
		b = blk.GetLast()
	}
	return r.AndNot(rays[d][b])
}

// FirstBlocker returns the nearest occupied square from sq along d.
func FirstBlocker(d Direction, sq Square, occ Bitboard) Square {
	blk := rays[d][sq].And(occ)
	if blk.IsZero() {
		return SquareInvalid
	}
	if d.increasing() {
		return blk.GetFirst()
	}
	return blk.GetLast()
}

func StepAttacks(p Piece, sq Square) Bitboard {
	return stepTable[p][sq]
}

func LanceAttacks(c Color, sq Square, occ Bitboard) Bitboard {
	if c == Black {
		return SlideAttacks(DirUp, sq, occ)
	}
	return SlideAttacks(DirDown, sq, occ)
}

func BishopAttacks(sq Square, occ Bitboard) Bitboard {
	return SlideAttacks(DirLeftUp, sq, occ).
		Or(SlideAttacks(DirLeftDown, sq, occ)).
		Or(SlideAttacks(DirRightUp, sq, occ)).
		Or(SlideAttacks(DirRightDown, sq, occ))
}

func RookAttacks(sq Square, occ Bitboard) Bitboard {
	return SlideAttacks(DirUp, sq, occ).
		Or(SlideAttacks(DirDown, sq, occ)).
		Or(SlideAttacks(DirLeft, sq, occ)).
		Or(SlideAttacks(DirRight, sq, occ))
}

func HorseAttacks(sq Square, occ Bitboard) Bitboard {
	return BishopAttacks(sq, occ).Or(stepTable[Horse][sq])
}

func DragonAttacks(sq Square, occ Bitboard) Bitboard {
	return RookAttacks(sq, occ).Or(stepTable[Dragon][sq])
}

// Attacks returns the squares a colored piece on sq attacks.
func Attacks(p Piece, sq Square, occ Bitboard) Bitboard {
	switch p.KindOnly() {
	case Lance:
		return LanceAttacks(p.Color(), sq, occ)
	case Bishop:
		return BishopAttacks(sq, occ)
	case Rook:
		return RookAttacks(sq, occ)
	case Horse:
		return HorseAttacks(sq, occ)
	case Dragon:
		return DragonAttacks(sq, occ)
	}
	return stepTable[p][sq]
}

// SlidesAlong reports whether a colored piece attacks any distance along
// direction d (seen from the board, not from the piece's owner).
func SlidesAlong(p Piece, d Direction) bool {
	switch p.KindOnly() {
	case Lance:
		if p.IsWhite() {
			return d == DirDown
		}
		return d == DirUp
	case Bishop, Horse:
		return d.IsDiagonal()
	case Rook, Dragon:
		return !d.IsDiagonal()
	}
	return false
}

// DropMask returns the squares where an unpromoted piece of kind may be
// dropped by c without becoming immobile.
func DropMask(kind Piece, c Color) Bitboard {
	switch kind.Kind() {
	case Pawn, Lance:
		return PawnMovable[c]
	case Knight:
		return KnightMovable[c]
	}
	return BBFull
}
