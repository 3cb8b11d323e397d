package search

import (
	"testing"

	"github.com/matryer/is"
	"lukechampine.com/frand"

	"github.com/ryuou/ryuou/move"
	"github.com/ryuou/ryuou/shogi"
)

func TestHistoryGet(t *testing.T) {
	is := is.New(t)
	h := NewHistory()
	m := pawnPush("77", "76")
	is.Equal(h.Get(m), HistoryScale/2)

	h.Add(m, 10, 10)
	is.Equal(h.Get(m), 11*HistoryScale/12)

	// good outcomes never count past appearances
	o := pawnPush("27", "26")
	h.Add(o, 0, 5)
	is.Equal(h.Get(o), HistoryScale/2)

	is.Equal(h.Get(move.Empty), 0)
}

func TestHistoryReduce(t *testing.T) {
	is := is.New(t)
	h := NewHistory()
	m := pawnPush("77", "76")
	h.Add(m, 10, 0)
	is.Equal(h.Get(m), HistoryScale/12)
	h.Reduce()
	is.Equal(h.Get(m), HistoryScale/7)
	h.Clear()
	is.Equal(h.Get(m), HistoryScale/2)
}

func TestHistoryCeiling(t *testing.T) {
	is := is.New(t)
	h := NewHistory()
	m := pawnPush("77", "76")
	h.Add(m, historyCeiling, historyCeiling)
	i, j := historyIndex(m)
	v := h.cells[i][j].Load()
	is.Equal(v>>32, uint64(historyCeiling/2))
	is.Equal(v&0xffffffff, uint64(historyCeiling/2))
}

func TestHistoryDropsAreSeparate(t *testing.T) {
	is := is.New(t)
	h := NewHistory()
	drop := move.NewDrop(shogi.Pawn, sq("55"))
	push := pawnPush("56", "55")
	h.Add(drop, 4, 4)
	is.Equal(h.Get(push), HistoryScale/2)
	is.True(h.Get(drop) > HistoryScale/2)
}

func TestHistoryBounded(t *testing.T) {
	is := is.New(t)
	h := NewHistory()
	moves := []move.Move{
		pawnPush("77", "76"),
		pawnPush("27", "26"),
		move.NewDrop(shogi.Gold, sq("52")),
	}
	for i := 0; i < 10000; i++ {
		m := moves[frand.Intn(len(moves))]
		appear := uint32(frand.Intn(1 << 20))
		h.Add(m, appear, uint32(frand.Intn(int(appear)+1)))
		if i%1000 == 0 {
			h.Reduce()
		}
		for _, m := range moves {
			g := h.Get(m)
			is.True(g >= 0 && g < HistoryScale)
		}
	}
}
