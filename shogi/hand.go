package shogi

import (
	"strings"
)

// HandKinds is the number of droppable piece kinds (pawn..rook).
const HandKinds = 7

// HandMax is the shogi piece-count limit per droppable kind.
var HandMax = [HandKinds]uint8{18, 4, 4, 4, 4, 2, 2}

// HandOrder lists droppable kinds from most to least valuable; used for
// display and drop generation order.
var HandOrder = [HandKinds]Piece{Rook, Bishop, Gold, Silver, Knight, Lance, Pawn}

// Hand counts the captured pieces one side holds.
type Hand [HandKinds]uint8

// Get returns the count for a kind. Promoted or colored pieces are
// reduced to their base kind.
func (h *Hand) Get(kind Piece) int {
	return int(h[kind.Kind()])
}

// Set stores a count, refusing values beyond the kind's limit.
func (h *Hand) Set(kind Piece, n int) bool {
	k := kind.Kind()
	if k >= King || n < 0 || n > int(HandMax[k]) {
		return false
	}
	h[k] = uint8(n)
	return true
}

// Inc adds one piece of kind, returning false at the limit.
func (h *Hand) Inc(kind Piece) bool {
	k := kind.Kind()
	if k >= King || h[k] >= HandMax[k] {
		return false
	}
	h[k]++
	return true
}

// Dec removes one piece of kind, returning false when none are held.
func (h *Hand) Dec(kind Piece) bool {
	k := kind.Kind()
	if k >= King || h[k] == 0 {
		return false
	}
	h[k]--
	return true
}

func (h *Hand) Has(kind Piece) bool {
	return h[kind.Kind()] > 0
}

func (h *Hand) IsEmpty() bool {
	return *h == Hand{}
}

func (h *Hand) Total() int {
	t := 0
	for _, n := range h {
		t += int(n)
	}
	return t
}

// CSA formats the hand as a CSA "P+" style body: 00FU00FU...
func (h *Hand) CSA() string {
	var sb strings.Builder
	for _, k := range HandOrder {
		for i := 0; i < int(h[k]); i++ {
			sb.WriteString("00")
			sb.WriteString(k.CSA())
		}
	}
	return sb.String()
}
