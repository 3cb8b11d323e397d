package shogi

import (
	"testing"

	"github.com/matryer/is"
)

func TestSquareLayout(t *testing.T) {
	is := is.New(t)
	is.Equal(int(NewSquare(9, 1)), 0)
	is.Equal(int(NewSquare(1, 9)), 80)
	sq := NewSquare(7, 6)
	is.Equal(sq.File(), 7)
	is.Equal(sq.Rank(), 6)
	is.Equal(sq.String(), "76")
	is.Equal(sq.Flip(), NewSquare(3, 4))
	p, err := ParseSquare("55")
	is.NoErr(err)
	is.Equal(p, NewSquare(5, 5))
	_, err = ParseSquare("05")
	is.True(err != nil)
	is.Equal(NewSquare(9, 5).SafeLeft(), SquareInvalid)
	is.Equal(NewSquare(5, 5).Up(), NewSquare(5, 4))
	is.Equal(NewSquare(5, 5).Left(), NewSquare(6, 5))
}

func TestPieceBits(t *testing.T) {
	is := is.New(t)
	is.Equal(WDragon.Kind(), Rook)
	is.Equal(WDragon.KindOnly(), Dragon)
	is.Equal(WDragon.Color(), White)
	is.Equal(BSilver.Promoted(), ProSilver)
	is.Equal(WProSilver.Unpromoted(), WSilver)
	is.True(!Gold.CanPromote())
	is.True(!King.CanPromote())
	is.True(!Horse.CanPromote())
	is.True(Pawn.CanPromote())
	is.True(!(King | PromotionBit).IsValid())
	is.True(!(Gold | PromotionBit).IsValid())
	is.True(ProKnight.MovesLikeGold())
	is.Equal(WLance.Flip(), BLance)
	p, ok := PieceFromCSA("UM")
	is.True(ok)
	is.Equal(p, Horse)
	is.Equal(WTokin.String(), "-TO")
}

func TestHandLimits(t *testing.T) {
	is := is.New(t)
	var h Hand
	is.True(!h.Dec(Pawn))
	for i := 0; i < 2; i++ {
		is.True(h.Inc(Rook))
	}
	is.True(!h.Inc(Rook))
	is.Equal(h.Get(Dragon), 2)
	is.True(h.Set(Pawn, 18))
	is.True(!h.Set(Pawn, 19))
	is.True(!h.Inc(King))
	is.Equal(h.Total(), 20)
	is.Equal((&Hand{1, 0, 0, 0, 0, 1, 0}).CSA(), "00KA00FU")
}

func TestStepAttacks(t *testing.T) {
	is := is.New(t)
	sq := NewSquare(5, 5)
	is.Equal(StepAttacks(BPawn, sq), SquareBB(NewSquare(5, 4)))
	is.Equal(StepAttacks(WPawn, sq), SquareBB(NewSquare(5, 6)))
	is.Equal(StepAttacks(BKnight, sq), SquareBB(NewSquare(6, 3)).Or(SquareBB(NewSquare(4, 3))))
	is.Equal(StepAttacks(BKing, sq).Count(), 8)
	is.Equal(StepAttacks(BGold, sq).Count(), 6)
	is.Equal(StepAttacks(BSilver, sq).Count(), 5)
	is.True(StepAttacks(BGold, sq).Equals(StepAttacks(BTokin, sq)))
	is.True(!StepAttacks(WGold, sq).Check(NewSquare(6, 4)))
	is.True(StepAttacks(WGold, sq).Check(NewSquare(6, 6)))
	is.Equal(StepAttacks(BKing, NewSquare(9, 1)).Count(), 3)
	is.True(StepAttacks(BKnight, NewSquare(5, 2)).IsZero())
}

func TestSlidingAttacks(t *testing.T) {
	is := is.New(t)
	sq := NewSquare(5, 5)
	is.Equal(RookAttacks(sq, BBEmpty).Count(), 16)
	is.Equal(BishopAttacks(sq, BBEmpty).Count(), 16)
	is.Equal(DragonAttacks(sq, BBEmpty).Count(), 20)
	is.Equal(HorseAttacks(sq, BBEmpty).Count(), 20)

	occ := SquareBB(NewSquare(5, 3)).Or(SquareBB(NewSquare(3, 5)))
	att := RookAttacks(sq, occ)
	is.True(att.Check(NewSquare(5, 3)))
	is.True(!att.Check(NewSquare(5, 2)))
	is.True(att.Check(NewSquare(3, 5)))
	is.True(!att.Check(NewSquare(2, 5)))
	is.Equal(att.Count(), 2+2+4+4)

	is.Equal(LanceAttacks(Black, sq, occ), SquareBB(NewSquare(5, 4)).Or(SquareBB(NewSquare(5, 3))))
	is.Equal(LanceAttacks(White, sq, occ).Count(), 4)
	is.True(Attacks(WLance, sq, occ).Equals(LanceAttacks(White, sq, occ)))
}

func TestLines(t *testing.T) {
	is := is.New(t)
	a, b := NewSquare(5, 9), NewSquare(5, 1)
	is.Equal(DirectionBetween(a, b), DirUp)
	is.Equal(Between(a, b).Count(), 7)
	is.True(Aligned(a, b, NewSquare(5, 5)))
	is.True(!Aligned(a, b, NewSquare(4, 5)))
	is.Equal(DirectionBetween(NewSquare(9, 9), NewSquare(1, 1)), DirRightUp)
	is.Equal(DirectionBetween(NewSquare(9, 9), NewSquare(7, 8)), DirNone)
	for d := DirUp; d < DirNum; d++ {
		is.Equal(d.Reverse().Reverse(), d)
		is.Equal(dirDelta[d.Reverse()][0], -dirDelta[d][0])
		is.Equal(dirDelta[d.Reverse()][1], -dirDelta[d][1])
	}
	is.Equal(FirstBlocker(DirUp, a, SquareBB(NewSquare(5, 3))), NewSquare(5, 3))
	is.Equal(FirstBlocker(DirDown, a, BBFull), SquareInvalid)
	is.True(SlidesAlong(WLance, DirDown))
	is.True(!SlidesAlong(BLance, DirDown))
	is.True(SlidesAlong(BHorse, DirLeftUp))
}

func TestMovableMasks(t *testing.T) {
	is := is.New(t)
	is.Equal(PawnMovable[Black].Count(), 72)
	is.Equal(KnightMovable[White].Count(), 63)
	is.True(!DropMask(Knight, Black).Check(NewSquare(5, 2)))
	is.True(DropMask(Silver, Black).Check(NewSquare(5, 1)))
	is.Equal(PromotionZone[White].Count(), 27)
}
