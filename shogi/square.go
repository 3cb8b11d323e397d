package shogi

import (
	"fmt"
)

// Square is an index into the 9x9 board. Files run 9..1 from left to
// right (as seen by black) and ranks 1..9 from top to bottom. The index
// is column-major: (9-file)*9 + (rank-1), so the nine squares of a file
// are contiguous.
type Square int8

const (
	SquareNum            = 81
	SquareInvalid Square = -1
	FileNum              = 9
	RankNum              = 9
)

// NewSquare builds a square from a file and rank, both 1..9.
func NewSquare(file, rank int) Square {
	return Square((9-file)*RankNum + (rank - 1))
}

// SquareFromColRow builds a square from zero-based column (0 = file 9)
// and row (0 = rank 1).
func SquareFromColRow(col, row int) Square {
	return Square(col*RankNum + row)
}

func (s Square) IsValid() bool {
	return s >= 0 && s < SquareNum
}

func (s Square) Col() int  { return int(s) / RankNum }
func (s Square) Row() int  { return int(s) % RankNum }
func (s Square) File() int { return 9 - s.Col() }
func (s Square) Rank() int { return s.Row() + 1 }

// Flip rotates the square by 180 degrees.
func (s Square) Flip() Square {
	return SquareNum - 1 - s
}

// IsPromotable reports whether the square lies in the promotion zone of
// the given color.
func (s Square) IsPromotable(c Color) bool {
	if c == Black {
		return s.Row() <= 2
	}
	return s.Row() >= 6
}

// RelativeRow is the row counted from the given color's far edge:
// 0 is the last rank for that color.
func (s Square) RelativeRow(c Color) int {
	if c == Black {
		return s.Row()
	}
	return RankNum - 1 - s.Row()
}

func (s Square) String() string {
	if !s.IsValid() {
		return "--"
	}
	return fmt.Sprintf("%d%d", s.File(), s.Rank())
}

// Unsafe directional steps. The caller guarantees the result is on the
// board.

func (s Square) Up() Square             { return s - 1 }
func (s Square) Down() Square           { return s + 1 }
func (s Square) Left() Square           { return s - RankNum }
func (s Square) Right() Square          { return s + RankNum }
func (s Square) LeftUp() Square         { return s - RankNum - 1 }
func (s Square) LeftDown() Square       { return s - RankNum + 1 }
func (s Square) RightUp() Square        { return s + RankNum - 1 }
func (s Square) RightDown() Square      { return s + RankNum + 1 }
func (s Square) LeftUpKnight() Square   { return s - RankNum - 2 }
func (s Square) LeftDownKnight() Square { return s - RankNum + 2 }
func (s Square) RightUpKnight() Square  { return s + RankNum - 2 }
func (s Square) RightDownKnight() Square {
	return s + RankNum + 2
}

// Offset moves by the given column and row deltas, returning
// SquareInvalid when the result would leave the board.
func (s Square) Offset(dcol, drow int) Square {
	col, row := s.Col()+dcol, s.Row()+drow
	if col < 0 || col >= FileNum || row < 0 || row >= RankNum {
		return SquareInvalid
	}
	return SquareFromColRow(col, row)
}

func (s Square) SafeUp() Square              { return s.Offset(0, -1) }
func (s Square) SafeDown() Square            { return s.Offset(0, 1) }
func (s Square) SafeLeft() Square            { return s.Offset(-1, 0) }
func (s Square) SafeRight() Square           { return s.Offset(1, 0) }
func (s Square) SafeLeftUp() Square          { return s.Offset(-1, -1) }
func (s Square) SafeLeftDown() Square        { return s.Offset(-1, 1) }
func (s Square) SafeRightUp() Square         { return s.Offset(1, -1) }
func (s Square) SafeRightDown() Square       { return s.Offset(1, 1) }
func (s Square) SafeLeftUpKnight() Square    { return s.Offset(-1, -2) }
func (s Square) SafeLeftDownKnight() Square  { return s.Offset(-1, 2) }
func (s Square) SafeRightUpKnight() Square   { return s.Offset(1, -2) }
func (s Square) SafeRightDownKnight() Square { return s.Offset(1, 2) }

// ParseSquare reads a two-digit file/rank string such as "76".
func ParseSquare(str string) (Square, error) {
	if len(str) != 2 {
		return SquareInvalid, fmt.Errorf("bad square %q", str)
	}
	f, r := int(str[0]-'0'), int(str[1]-'0')
	if f < 1 || f > 9 || r < 1 || r > 9 {
		return SquareInvalid, fmt.Errorf("bad square %q", str)
	}
	return NewSquare(f, r), nil
}
