package search

import (
	"sync/atomic"

	"github.com/ryuou/ryuou/move"
	"github.com/ryuou/ryuou/shogi"
)

const (
	// HistoryScale bounds History.Get: scores lie in [0, HistoryScale).
	HistoryScale = 256

	historyOrigins = shogi.SquareNum + shogi.HandKinds
	// Counters are halved once appearances pass this value so neither
	// 32-bit half can overflow into the other.
	historyCeiling  = 1 << 30
	historyHalfMask = 0x7fffffff7fffffff
)

// History scores quiet moves by how often they were the best move when
// searched. Each cell packs appearances in the high 32 bits and good
// outcomes in the low 32 bits. Workers share one table; concurrent
// updates may occasionally lose an increment, which only affects move
// ordering.
type History struct {
	cells [historyOrigins][shogi.SquareNum]atomic.Uint64
}

func NewHistory() *History {
	return &History{}
}

func historyIndex(m move.Move) (int, int) {
	if m.IsDrop() {
		return shogi.SquareNum + int(m.Piece()), int(m.To())
	}
	return int(m.From()), int(m.To())
}

// Add counts appear searches of m, good of which improved alpha.
func (h *History) Add(m move.Move, appear, good uint32) {
	if m.IsEmpty() {
		return
	}
	i, j := historyIndex(m)
	c := &h.cells[i][j]
	v := c.Add(uint64(appear)<<32 | uint64(good))
	if v>>32 >= historyCeiling {
		c.Store((v >> 1) & historyHalfMask)
	}
}

// Get returns the ordering score of m.
func (h *History) Get(m move.Move) int {
	if m.IsEmpty() {
		return 0
	}
	i, j := historyIndex(m)
	v := h.cells[i][j].Load()
	appear, good := v>>32, v&0xffffffff
	if good > appear {
		good = appear
	}
	return int((good + 1) * HistoryScale / (appear + 2))
}

// Reduce decays every counter by half so recent results weigh more.
func (h *History) Reduce() {
	for i := range h.cells {
		for j := range h.cells[i] {
			c := &h.cells[i][j]
			c.Store((c.Load() >> 1) & historyHalfMask)
		}
	}
}

func (h *History) Clear() {
	for i := range h.cells {
		for j := range h.cells[i] {
			h.cells[i][j].Store(0)
		}
	}
}
