package board

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ryuou/ryuou/shogi"
)

var ErrBadPosition = errors.New("bad CSA position")

// String renders the position as CSA position lines: P1..P9, the two
// hand lines when non-empty, then the side to move.
func (b *Board) String() string {
	var sb strings.Builder
	for row := 0; row < shogi.RankNum; row++ {
		fmt.Fprintf(&sb, "P%d", row+1)
		for col := 0; col < shogi.FileNum; col++ {
			sb.WriteString(b.squares[shogi.SquareFromColRow(col, row)].String())
		}
		sb.WriteByte('\n')
	}
	for c := shogi.Black; c <= shogi.White; c++ {
		if !b.hands[c].IsEmpty() {
			sb.WriteString("P" + c.CSA() + b.hands[c].CSA() + "\n")
		}
	}
	sb.WriteString(b.turn.CSA() + "\n")
	return sb.String()
}

// FromCSA parses CSA position text. Lines other than position lines are
// ignored.
func FromCSA(text string) (*Board, error) {
	return ParseCSALines(strings.Split(text, "\n"))
}

// IsPositionLine reports whether a CSA line belongs to the position
// section.
func IsPositionLine(line string) bool {
	return strings.HasPrefix(line, "P") || line == "+" || line == "-"
}

// ParseCSALines builds a board from CSA position lines and validates it.
func ParseCSALines(lines []string) (*Board, error) {
	b := NewBoard()
	var alls []shogi.Color
	for n, raw := range lines {
		line := strings.TrimRight(raw, " \r\t")
		switch {
		case line == "+" || line == "-":
			if line == "+" {
				b.SetTurn(shogi.Black)
			} else {
				b.SetTurn(shogi.White)
			}
		case strings.HasPrefix(line, "PI"):
			if err := b.parseHirate(line[2:]); err != nil {
				return nil, fmt.Errorf("line %d: %w", n+1, err)
			}
		case len(line) >= 2 && line[0] == 'P' && line[1] >= '1' && line[1] <= '9':
			if err := b.parseRow(int(line[1]-'1'), line[2:]); err != nil {
				return nil, fmt.Errorf("line %d: %w", n+1, err)
			}
		case strings.HasPrefix(line, "P+") || strings.HasPrefix(line, "P-"):
			c := shogi.Black
			if line[1] == '-' {
				c = shogi.White
			}
			all, err := b.parsePieces(c, line[2:])
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", n+1, err)
			}
			if all {
				alls = append(alls, c)
			}
		}
	}
	for _, c := range alls {
		b.fillHand(c)
	}
	if err := b.Validate(); err != nil {
		return nil, err
	}
	return b, nil
}

func (b *Board) parseHirate(rest string) error {
	*b = *NewInitialBoard()
	for len(rest) >= 4 {
		sq, err := shogi.ParseSquare(rest[:2])
		if err != nil {
			return fmt.Errorf("%q: %w", rest[:4], ErrBadPosition)
		}
		p, ok := shogi.PieceFromCSA(rest[2:4])
		if !ok || b.squares[sq].KindOnly() != p {
			return fmt.Errorf("%q: %w", rest[:4], ErrBadPosition)
		}
		b.Set(sq, shogi.Empty)
		rest = rest[4:]
	}
	if len(rest) != 0 {
		return fmt.Errorf("%q: %w", rest, ErrBadPosition)
	}
	return nil
}

func parseColoredPiece(cell string) (shogi.Piece, error) {
	if cell == " * " {
		return shogi.Empty, nil
	}
	p, ok := shogi.PieceFromCSA(cell[1:])
	if !ok {
		return shogi.Empty, fmt.Errorf("%q: %w", cell, ErrBadPosition)
	}
	switch cell[0] {
	case '+':
		return p, nil
	case '-':
		return p | shogi.WhiteBit, nil
	}
	return shogi.Empty, fmt.Errorf("%q: %w", cell, ErrBadPosition)
}

func (b *Board) parseRow(row int, cells string) error {
	if len(cells) < 3*shogi.FileNum {
		cells += strings.Repeat(" ", 3*shogi.FileNum-len(cells))
	}
	for col := 0; col < shogi.FileNum; col++ {
		p, err := parseColoredPiece(cells[3*col : 3*col+3])
		if err != nil {
			return err
		}
		b.Set(shogi.SquareFromColRow(col, row), p)
	}
	return nil
}

// parsePieces reads a P+/P- body: four-character items, square "00" for
// the hand. It reports whether "00AL" was present.
func (b *Board) parsePieces(c shogi.Color, rest string) (bool, error) {
	all := false
	for len(rest) >= 4 {
		item := rest[:4]
		rest = rest[4:]
		if item == "00AL" {
			all = true
			continue
		}
		p, ok := shogi.PieceFromCSA(item[2:])
		if !ok {
			return false, fmt.Errorf("%q: %w", item, ErrBadPosition)
		}
		if item[:2] == "00" {
			if p.IsPromoted() || p == shogi.King || !b.SetHand(c, p, b.hands[c].Get(p)+1) {
				return false, fmt.Errorf("%q: %w", item, ErrBadPosition)
			}
			continue
		}
		sq, err := shogi.ParseSquare(item[:2])
		if err != nil {
			return false, fmt.Errorf("%q: %w", item, ErrBadPosition)
		}
		b.Set(sq, p.WithColor(c))
	}
	if len(rest) != 0 {
		return false, fmt.Errorf("%q: %w", rest, ErrBadPosition)
	}
	return all, nil
}

// fillHand gives c every piece not yet on the board or in a hand.
func (b *Board) fillHand(c shogi.Color) {
	for k := shogi.Pawn; k < shogi.King; k++ {
		used := b.hands[shogi.Black].Get(k) + b.hands[shogi.White].Get(k)
		for _, color := range []shogi.Color{shogi.Black, shogi.White} {
			used += b.pieces[colored(k, color)].Count()
			if k.CanPromote() {
				used += b.pieces[colored(k.Promoted(), color)].Count()
			}
		}
		if rest := int(shogi.HandMax[k]) - used; rest > 0 {
			b.SetHand(c, k, b.hands[c].Get(k)+rest)
		}
	}
}
