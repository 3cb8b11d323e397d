package board

import (
	"errors"
	"testing"

	"github.com/matryer/is"

	"github.com/ryuou/ryuou/move"
	"github.com/ryuou/ryuou/shogi"
)

func sq(s string) shogi.Square {
	q, err := shogi.ParseSquare(s)
	if err != nil {
		panic(err)
	}
	return q
}

func setup(t *testing.T, turn shogi.Color, pieces map[string]shogi.Piece) *Board {
	t.Helper()
	b := NewBoard()
	for s, p := range pieces {
		b.Set(sq(s), p)
	}
	b.SetTurn(turn)
	if err := b.Validate(); err != nil {
		t.Fatal(err)
	}
	return b
}

func csaMove(t *testing.T, b *Board, s string) move.Move {
	t.Helper()
	cm, err := move.ParseCSA(s, b.Turn())
	if err != nil {
		t.Fatal(err)
	}
	m, err := b.MoveFromCSA(cm)
	if err != nil {
		t.Fatal(err)
	}
	return m
}

func TestInitialBoard(t *testing.T) {
	is := is.New(t)
	b := NewInitialBoard()
	is.NoErr(b.Validate())
	is.Equal(b.KingSquare(shogi.Black), sq("59"))
	is.Equal(b.KingSquare(shogi.White), sq("51"))
	is.Equal(b.PieceAt(sq("28")), shogi.BRook)
	is.Equal(b.PieceAt(sq("22")), shogi.WBishop)
	is.Equal(b.Occupied().Count(), 40)
	is.Equal(b.Pieces(shogi.WPawn).Count(), 9)
	is.True(!b.IsChecking())
	is.Equal(b.Hash()&1, uint64(0))
	is.Equal(b.NoTurnHash(), b.Hash())
}

func TestMakeUnmakeWithCapture(t *testing.T) {
	is := is.New(t)
	b := NewInitialBoard()
	start := b.Copy()
	var played []move.Move
	for _, s := range []string{"+7776FU", "-3334FU", "+8822UM"} {
		m := csaMove(t, b, s)
		is.True(b.MakeMove(m))
		is.True(b.HashIsConsistent())
		played = append(played, m)
	}
	last := played[2]
	is.True(last.IsCapture())
	is.True(last.IsPromotion())
	is.Equal(last.Captured(), shogi.Bishop)
	is.Equal(b.PieceAt(sq("22")), shogi.BHorse)
	is.Equal(b.BlackHand().Get(shogi.Bishop), 1)
	is.NoErr(b.Validate())

	for i := len(played) - 1; i >= 0; i-- {
		b.UnmakeMove(played[i])
		is.True(b.HashIsConsistent())
	}
	is.True(b.Equals(start))
}

func TestMakeMoveIrr(t *testing.T) {
	is := is.New(t)
	b := NewInitialBoard()
	start := b.Copy()
	// a pawn two squares ahead does not match the board
	is.True(!b.MakeMoveIrr(move.NewBoardMove(shogi.Pawn, sq("77"), sq("75"), false)))
	is.True(b.Equals(start))
	is.True(b.MakeMoveIrr(csaMove(t, b, "+7776FU")))
	is.Equal(b.Turn(), shogi.White)
	is.True(b.HashIsConsistent())
}

func TestNullMove(t *testing.T) {
	is := is.New(t)
	b := NewInitialBoard()
	h := b.Hash()
	b.MakeNullMove()
	is.Equal(b.Turn(), shogi.White)
	is.Equal(b.Hash()&1, uint64(1))
	is.Equal(b.NoTurnHash(), h)
	b.UnmakeNullMove()
	is.Equal(b.Hash(), h)
}

func TestPinnedPieceCannotLeaveLine(t *testing.T) {
	is := is.New(t)
	b := setup(t, shogi.Black, map[string]shogi.Piece{
		"59": shogi.BKing, "58": shogi.BGold, "51": shogi.WRook, "11": shogi.WKing,
	})
	is.True(b.IsPinned(sq("58")))
	is.True(b.Pinned(shogi.Black).Equals(shogi.SquareBB(sq("58"))))
	before := b.Copy()

	sideways := move.NewBoardMove(shogi.BGold, sq("58"), sq("48"), false)
	is.True(b.IsValidMove(sideways))
	is.True(!b.MakeMove(sideways))
	is.True(b.Equals(before))

	forward := move.NewBoardMove(shogi.BGold, sq("58"), sq("57"), false)
	is.True(b.MakeMove(forward))
	b.UnmakeMove(forward)
	is.True(b.Equals(before))
}

func TestKingCannotStepAlongCheckRay(t *testing.T) {
	is := is.New(t)
	b := setup(t, shogi.Black, map[string]shogi.Piece{
		"58": shogi.BKing, "51": shogi.WRook, "11": shogi.WKing,
	})
	is.True(b.IsChecking())
	before := b.Copy()
	is.True(!b.MakeMove(move.NewBoardMove(shogi.BKing, sq("58"), sq("59"), false)))
	is.True(!b.MakeMove(move.NewBoardMove(shogi.BKing, sq("58"), sq("57"), false)))
	is.True(b.Equals(before))
	is.True(b.MakeMove(move.NewBoardMove(shogi.BKing, sq("58"), sq("48"), false)))
}

func TestKingCannotMoveIntoAttack(t *testing.T) {
	is := is.New(t)
	b := setup(t, shogi.Black, map[string]shogi.Piece{
		"59": shogi.BKing, "41": shogi.WRook, "11": shogi.WKing,
	})
	is.True(!b.MakeMove(move.NewBoardMove(shogi.BKing, sq("59"), sq("49"), false)))
	is.True(b.MakeMove(move.NewBoardMove(shogi.BKing, sq("59"), sq("58"), false)))
}

func TestEvasionByInterposition(t *testing.T) {
	is := is.New(t)
	b := setup(t, shogi.Black, map[string]shogi.Piece{
		"59": shogi.BKing, "51": shogi.WLance, "11": shogi.WKing,
	})
	b.SetHand(shogi.Black, shogi.Gold, 1)
	is.True(b.IsChecking())
	is.True(b.MakeMove(move.NewDrop(shogi.Gold, sq("55"))))
	b.UnmakeMove(move.NewDrop(shogi.Gold, sq("55")))
	is.True(!b.MakeMove(move.NewDrop(shogi.Gold, sq("45"))))
	is.True(b.HashIsConsistent())
}

func TestIsCheck(t *testing.T) {
	is := is.New(t)
	b := setup(t, shogi.Black, map[string]shogi.Piece{
		"99": shogi.BKing, "55": shogi.BSilver, "58": shogi.BRook, "51": shogi.WKing,
	})
	is.True(b.IsDiscoveredCheckCandidate(sq("55")))
	is.True(b.IsCheck(move.NewBoardMove(shogi.BSilver, sq("55"), sq("44"), false)))
	is.True(!b.IsCheck(move.NewBoardMove(shogi.BSilver, sq("55"), sq("54"), false)))

	b2 := setup(t, shogi.Black, map[string]shogi.Piece{
		"99": shogi.BKing, "51": shogi.WKing,
	})
	b2.SetHand(shogi.Black, shogi.Gold, 1)
	b2.SetHand(shogi.Black, shogi.Knight, 1)
	is.True(b2.IsCheck(move.NewDrop(shogi.Gold, sq("52"))))
	is.True(b2.IsCheck(move.NewDrop(shogi.Gold, sq("62"))))
	is.True(!b2.IsCheck(move.NewDrop(shogi.Gold, sq("63"))))
	is.True(b2.IsCheck(move.NewDrop(shogi.Knight, sq("43"))))
	is.True(!b2.IsCheck(move.NewDrop(shogi.Knight, sq("53"))))
}

func TestStrictValidity(t *testing.T) {
	is := is.New(t)
	b := setup(t, shogi.Black, map[string]shogi.Piece{
		"59": shogi.BKing, "51": shogi.WKing, "24": shogi.BPawn, "19": shogi.BLance,
		"66": shogi.BBishop, "77": shogi.BKnight,
	})
	pawn := move.NewBoardMove(shogi.BPawn, sq("24"), sq("23"), false)
	is.True(b.IsValidMove(pawn))
	is.True(!b.IsValidMoveStrict(pawn))
	is.True(b.IsValidMoveStrict(move.NewBoardMove(shogi.BPawn, sq("24"), sq("23"), true)))

	lance2 := move.NewBoardMove(shogi.BLance, sq("19"), sq("12"), false)
	is.True(b.IsValidMove(lance2))
	is.True(!b.IsValidMoveStrict(lance2))
	is.True(b.IsValidMoveStrict(move.NewBoardMove(shogi.BLance, sq("19"), sq("13"), false)))
	is.True(!b.IsValidMove(move.NewBoardMove(shogi.BLance, sq("19"), sq("11"), false)))

	bishop := move.NewBoardMove(shogi.BBishop, sq("66"), sq("33"), false)
	is.True(b.IsValidMove(bishop))
	is.True(!b.IsValidMoveStrict(bishop))

	is.True(!b.IsValidMove(move.NewBoardMove(shogi.BKnight, sq("77"), sq("65"), true)))
	is.True(b.IsValidMove(move.NewBoardMove(shogi.BKnight, sq("77"), sq("65"), false)))
	is.True(!b.IsValidMove(move.NewBoardMove(shogi.BKnight, sq("77"), sq("75"), false)))
	// wrong capture field
	is.True(!b.IsValidMove(move.NewBoardMove(shogi.BPawn, sq("24"), sq("23"), false).WithCapture(shogi.WPawn)))
}

func TestDropRules(t *testing.T) {
	is := is.New(t)
	b := setup(t, shogi.Black, map[string]shogi.Piece{
		"59": shogi.BKing, "51": shogi.WKing, "27": shogi.BPawn,
	})
	b.SetHand(shogi.Black, shogi.Pawn, 1)
	b.SetHand(shogi.Black, shogi.Knight, 1)
	is.True(!b.IsValidMove(move.NewDrop(shogi.Pawn, sq("25"))))
	is.True(b.IsValidMove(move.NewDrop(shogi.Pawn, sq("35"))))
	is.True(!b.IsValidMove(move.NewDrop(shogi.Pawn, sq("31"))))
	is.True(!b.IsValidMove(move.NewDrop(shogi.Knight, sq("32"))))
	is.True(b.IsValidMove(move.NewDrop(shogi.Knight, sq("33"))))
	is.True(!b.IsValidMove(move.NewDrop(shogi.Gold, sq("33"))))
	is.True(!b.IsValidMove(move.NewDrop(shogi.Knight, sq("59"))))
}

func TestCompactRoundTrip(t *testing.T) {
	is := is.New(t)
	b := NewInitialBoard()
	for _, s := range []string{"+7776FU", "-3334FU", "+8822UM", "-3122GI"} {
		is.True(b.MakeMove(csaMove(t, b, s)))
	}
	words := b.Compact()
	got, err := FromCompact(words)
	is.NoErr(err)
	is.True(got.Equals(b))
	is.Equal(got.WhiteHand().Get(shogi.Bishop), 1)

	_, err = FromCompact(words[:len(words)-1])
	is.True(errors.Is(err, ErrCompactTooShort))
	_, err = FromCompact(nil)
	is.True(errors.Is(err, ErrCompactTooShort))

	twoKings := append([]uint16{uint16(shogi.BKing)<<7 | 40}, words...)
	_, err = FromCompact(twoKings)
	is.True(err != nil)

	bad := append([]uint16{uint16(12)<<7 | 40}, words...)
	_, err = FromCompact(bad)
	is.True(errors.Is(err, ErrCompactWord))
}

func TestCSARoundTrip(t *testing.T) {
	is := is.New(t)
	b := NewInitialBoard()
	for _, s := range []string{"+7776FU", "-3334FU", "+8822UM"} {
		is.True(b.MakeMove(csaMove(t, b, s)))
	}
	text := b.String()
	got, err := FromCSA(text)
	is.NoErr(err)
	is.True(got.Equals(b))

	hirate, err := FromCSA("PI\n+\n")
	is.NoErr(err)
	is.True(hirate.Equals(NewInitialBoard()))

	handicap, err := FromCSA("PI82HI22KA\n-\n")
	is.NoErr(err)
	is.Equal(handicap.Turn(), shogi.White)
	is.Equal(handicap.PieceAt(sq("82")), shogi.Empty)
}

func TestAllToHand(t *testing.T) {
	is := is.New(t)
	b, err := FromCSA("P-11OU\nP+59OU\nP+00AL\n+\n")
	is.NoErr(err)
	is.Equal(b.BlackHand().Get(shogi.Pawn), 18)
	is.Equal(b.BlackHand().Get(shogi.Rook), 2)
	is.True(b.WhiteHand().IsEmpty())
}

func TestValidateRejects(t *testing.T) {
	is := is.New(t)
	b := NewBoard()
	b.Set(sq("59"), shogi.BKing)
	is.True(errors.Is(b.Validate(), ErrBadKingCount))
	b.Set(sq("51"), shogi.WKing)
	is.NoErr(b.Validate())
	b.Set(sq("52"), shogi.BKnight)
	is.True(errors.Is(b.Validate(), ErrDeadPiece))
	b.Set(sq("52"), shogi.Empty)
	b.Set(sq("27"), shogi.BPawn)
	b.Set(sq("25"), shogi.BPawn)
	is.True(errors.Is(b.Validate(), ErrDoublePawn))
	b.Set(sq("25"), shogi.Empty)
	b.Set(sq("52"), shogi.BGold)
	is.True(errors.Is(b.Validate(), ErrOpponentInCheck))
}

func TestDeserializeMove16(t *testing.T) {
	is := is.New(t)
	b := NewInitialBoard()
	m := csaMove(t, b, "+7776FU")
	got, err := b.DeserializeMove16(m.Serialize16())
	is.NoErr(err)
	is.Equal(got, m)

	// White's piece on 33 cannot be moved by black.
	w := move.NewBoardMove(shogi.WPawn, sq("33"), sq("34"), false).Serialize16()
	_, err = b.DeserializeMove16(w)
	is.True(errors.Is(err, ErrMoveInconsistent))

	_, err = b.DeserializeMove16(move.NewDrop(shogi.Pawn, sq("55")).Serialize16())
	is.True(errors.Is(err, ErrMoveInconsistent))
}
