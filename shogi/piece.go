package shogi

// Piece is a small tagged integer: the low three bits hold the kind
// (pawn through king), bit 3 is the promotion flag and bit 4 the white
// flag. Empty is a distinguished value outside that range.
type Piece uint8

const (
	Pawn Piece = iota
	Lance
	Knight
	Silver
	Gold
	Bishop
	Rook
	King
	Tokin
	ProLance
	ProKnight
	ProSilver
	_
	Horse
	Dragon
)

const (
	PromotionBit Piece = 8
	WhiteBit     Piece = 16
	Empty        Piece = 32

	kindMask  Piece = 7
	colorless Piece = 15

	// PieceNum sizes arrays indexed by colored piece.
	PieceNum = 31
)

// Colored aliases, used mostly by tests and the CSA reader.
const (
	BPawn      = Pawn
	BLance     = Lance
	BKnight    = Knight
	BSilver    = Silver
	BGold      = Gold
	BBishop    = Bishop
	BRook      = Rook
	BKing      = King
	BTokin     = Tokin
	BProLance  = ProLance
	BProKnight = ProKnight
	BProSilver = ProSilver
	BHorse     = Horse
	BDragon    = Dragon
	WPawn      = Pawn | WhiteBit
	WLance     = Lance | WhiteBit
	WKnight    = Knight | WhiteBit
	WSilver    = Silver | WhiteBit
	WGold      = Gold | WhiteBit
	WBishop    = Bishop | WhiteBit
	WRook      = Rook | WhiteBit
	WKing      = King | WhiteBit
	WTokin     = Tokin | WhiteBit
	WProLance  = ProLance | WhiteBit
	WProKnight = ProKnight | WhiteBit
	WProSilver = ProSilver | WhiteBit
	WHorse     = Horse | WhiteBit
	WDragon    = Dragon | WhiteBit
)

// Kinds lists the fourteen colorless piece kinds that can stand on the
// board, in piece order.
var Kinds = [...]Piece{Pawn, Lance, Knight, Silver, Gold, Bishop, Rook, King,
	Tokin, ProLance, ProKnight, ProSilver, Horse, Dragon}

func (p Piece) IsEmpty() bool    { return p == Empty }
func (p Piece) Exists() bool     { return p != Empty }
func (p Piece) IsPromoted() bool { return p&PromotionBit != 0 }
func (p Piece) IsWhite() bool    { return p&WhiteBit != 0 }
func (p Piece) IsBlack() bool    { return p&WhiteBit == 0 }

// Kind strips color and promotion: the base kind (pawn..king).
func (p Piece) Kind() Piece { return p & kindMask }

// KindOnly strips color but keeps the promotion bit.
func (p Piece) KindOnly() Piece { return p & colorless }

func (p Piece) Unpromoted() Piece { return p &^ PromotionBit }
func (p Piece) Promoted() Piece   { return p | PromotionBit }

// CanPromote is false for golds, kings and pieces already promoted.
func (p Piece) CanPromote() bool {
	k := p.KindOnly()
	return k != Gold && k != King && !k.IsPromoted()
}

func (p Piece) Color() Color {
	return Color((p >> 4) & 1)
}

// WithColor returns the piece recolored to c.
func (p Piece) WithColor(c Color) Piece {
	if c == White {
		return p.KindOnly() | WhiteBit
	}
	return p.KindOnly()
}

// Flip swaps the piece's color.
func (p Piece) Flip() Piece { return p ^ WhiteBit }

// IsValid reports whether p names a real piece (colored or not).
func (p Piece) IsValid() bool {
	if p >= PieceNum {
		return false
	}
	k := p.KindOnly()
	return k != 12 && k != King|PromotionBit && k != Gold|PromotionBit
}

// MovesLikeGold is true for gold and the promoted minor pieces.
func (p Piece) MovesLikeGold() bool {
	k := p.KindOnly()
	return k == Gold || (k.IsPromoted() && k.Kind() <= Silver)
}

// IsRanged is true for pieces whose attacks depend on occupancy.
func (p Piece) IsRanged() bool {
	k := p.KindOnly()
	return k == Lance || k.Kind() == Bishop || k.Kind() == Rook
}

var csaNames = [...]string{"FU", "KY", "KE", "GI", "KI", "KA", "HI", "OU",
	"TO", "NY", "NK", "NG", "", "UM", "RY"}

// CSA returns the two-letter CSA piece name (no color).
func (p Piece) CSA() string {
	if p.IsEmpty() || !p.IsValid() {
		return ""
	}
	return csaNames[p.KindOnly()]
}

func (p Piece) String() string {
	if p.IsEmpty() {
		return " * "
	}
	if p.IsWhite() {
		return "-" + p.CSA()
	}
	return "+" + p.CSA()
}

// PieceFromCSA parses a two-letter CSA name into a colorless piece.
func PieceFromCSA(name string) (Piece, bool) {
	for i, n := range csaNames {
		if n != "" && n == name {
			return Piece(i), true
		}
	}
	return Empty, false
}
