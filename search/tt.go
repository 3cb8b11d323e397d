package search

import (
	"math/bits"
	"sync/atomic"

	"github.com/pbnjay/memory"
	"github.com/rs/zerolog/log"

	"github.com/ryuou/ryuou/move"
)

// Bound tells how a stored value relates to the true one.
type Bound uint8

const (
	BoundNone Bound = iota
	// BoundUpper: no move reached alpha; the true value is at most this.
	BoundUpper
	// BoundLower: a move reached beta; the true value is at least this.
	BoundLower
	BoundExact
)

func (b Bound) String() string {
	switch b {
	case BoundUpper:
		return "upper"
	case BoundLower:
		return "lower"
	case BoundExact:
		return "exact"
	}
	return "none"
}

// NodeStat carries flags about a searched node into the table.
type NodeStat uint8

const (
	// NodeMateThreat marks a node where passing lets the opponent mate.
	NodeMateThreat NodeStat = 1 << iota
)

const (
	entrySize       = 16
	maxStoredDepth  = 127
	generationMask  = 63
	minSizePowerOf2 = 10
)

// TableEntry is an unpacked slot. Value is stored ply-relative for mate
// scores; use ValueAt to read it from a given ply.
type TableEntry struct {
	Value      int32
	Bound      Bound
	Depth      int
	Generation uint8
	MateThreat bool
	// Move1 is the best move found, Move2 the one before it; both in the
	// 16-bit form and zero when absent.
	Move1 uint16
	Move2 uint16
}

func (e TableEntry) pack() uint64 {
	d := uint64(uint16(int16(e.Value)))
	d |= uint64(e.Bound&3) << 16
	d |= uint64(min(max(e.Depth, 0), maxStoredDepth)) << 18
	d |= uint64(e.Generation&generationMask) << 25
	if e.MateThreat {
		d |= 1 << 31
	}
	d |= uint64(e.Move1) << 32
	d |= uint64(e.Move2) << 48
	return d
}

func unpack(d uint64) TableEntry {
	return TableEntry{
		Value:      int32(int16(uint16(d))),
		Bound:      Bound(d>>16) & 3,
		Depth:      int(d>>18) & maxStoredDepth,
		Generation: uint8(d>>25) & generationMask,
		MateThreat: d&(1<<31) != 0,
		Move1:      uint16(d >> 32),
		Move2:      uint16(d >> 48),
	}
}

// ValueAt converts the stored value back to distance-from-root at ply.
func (e TableEntry) ValueAt(ply int) int32 {
	return valueFromTT(e.Value, ply)
}

// IsSuperior reports whether the entry was searched at least as deep as
// depth, so its bound may be trusted.
func (e TableEntry) IsSuperior(depth int) bool {
	return e.Depth >= depth
}

// Cutoff returns the stored value when it settles the window at this
// depth.
func (e TableEntry) Cutoff(alpha, beta int32, depth, ply int) (int32, bool) {
	if !e.IsSuperior(depth) {
		return 0, false
	}
	v := e.ValueAt(ply)
	switch e.Bound {
	case BoundExact:
		return v, true
	case BoundLower:
		return v, v >= beta
	case BoundUpper:
		return v, v <= alpha
	}
	return 0, false
}

type ttSlot struct {
	check atomic.Uint64
	data  atomic.Uint64
}

// TranspositionTable is a direct-mapped, lock-free table shared by every
// worker. Each slot holds key^data next to data; a torn write fails that
// check and reads as a miss, so racing writers cost at most an entry.
type TranspositionTable struct {
	table        []ttSlot
	sizePowerOf2 int
	sizeMask     uint64
	generation   atomic.Uint32

	created      atomic.Uint64
	lookups      atomic.Uint64
	hits         atomic.Uint64
	t2collisions atomic.Uint64 // slot held by another position
}

// NewTranspositionTable allocates a table of about sizeMB megabytes; zero
// picks a share of system memory.
func NewTranspositionTable(sizeMB int) *TranspositionTable {
	t := &TranspositionTable{}
	t.Reset(sizeMB)
	return t
}

// Reset resizes (or clears) the table and its counters.
func (t *TranspositionTable) Reset(sizeMB int) {
	totalMem := memory.TotalMemory()
	var want uint64
	if sizeMB > 0 {
		want = uint64(sizeMB) << 20
	} else {
		want = totalMem / 8
	}
	n := want / entrySize
	t.sizePowerOf2 = max(bits.Len64(n)-1, minSizePowerOf2)
	numElems := 1 << t.sizePowerOf2
	t.sizeMask = uint64(numElems - 1)

	reset := false
	if t.table != nil && len(t.table) == numElems {
		reset = true
		t.Clear()
	} else {
		t.table = make([]ttSlot, numElems)
	}
	log.Info().Int("num-elems", numElems).
		Int("estimated-total-memory-bytes", numElems*entrySize).
		Uint64("total-system-memory-bytes", totalMem).
		Bool("reset", reset).
		Msg("transposition-table-size")

	t.generation.Store(0)
	t.resetStats()
}

func (t *TranspositionTable) resetStats() {
	t.created.Store(0)
	t.lookups.Store(0)
	t.hits.Store(0)
	t.t2collisions.Store(0)
}

// Clear empties every slot but keeps the allocation.
func (t *TranspositionTable) Clear() {
	for i := range t.table {
		t.table[i].check.Store(0)
		t.table[i].data.Store(0)
	}
}

// Evolve starts a new search generation.
func (t *TranspositionTable) Evolve() {
	t.generation.Store((t.generation.Load() + 1) & generationMask)
}

func (t *TranspositionTable) Generation() uint8 {
	return uint8(t.generation.Load())
}

func (t *TranspositionTable) read(hash uint64) (TableEntry, bool) {
	s := &t.table[hash&t.sizeMask]
	check, data := s.check.Load(), s.data.Load()
	if check^data != hash {
		if data != 0 {
			t.t2collisions.Add(1)
		}
		return TableEntry{}, false
	}
	e := unpack(data)
	return e, e.Bound != BoundNone
}

// Get looks hash up.
func (t *TranspositionTable) Get(hash uint64) (TableEntry, bool) {
	t.lookups.Add(1)
	e, ok := t.read(hash)
	if ok {
		t.hits.Add(1)
	}
	return e, ok
}

// Entry records the result of searching the node hash with the window
// (alpha, beta) to depth at ply. The bound follows from where value fell
// in the window. The previous best move of the same position is kept as
// the second ordering move.
func (t *TranspositionTable) Entry(hash uint64, alpha, beta, value int32, depth, ply int,
	stat NodeStat, best move.Move) {

	bound := BoundExact
	switch {
	case value <= alpha:
		bound = BoundUpper
	case value >= beta:
		bound = BoundLower
	}
	gen := t.Generation()
	e := TableEntry{
		Value:      valueToTT(value, ply),
		Bound:      bound,
		Depth:      depth,
		Generation: gen,
		MateThreat: stat&NodeMateThreat != 0,
	}
	if !best.IsEmpty() {
		e.Move1 = best.Serialize16()
	}
	if old, ok := t.read(hash); ok {
		if old.Generation == gen && old.Bound == BoundExact && bound != BoundExact && old.Depth > depth {
			return
		}
		switch {
		case e.Move1 == 0:
			e.Move1, e.Move2 = old.Move1, old.Move2
		case e.Move1 != old.Move1:
			e.Move2 = old.Move1
		default:
			e.Move2 = old.Move2
		}
	}
	d := e.pack()
	s := &t.table[hash&t.sizeMask]
	s.data.Store(d)
	s.check.Store(hash ^ d)
	t.created.Add(1)
}

// Stats returns lookups, hits, stores and slot collisions since the last
// reset.
func (t *TranspositionTable) Stats() (lookups, hits, created, collisions uint64) {
	return t.lookups.Load(), t.hits.Load(), t.created.Load(), t.t2collisions.Load()
}

func (t *TranspositionTable) logStats() {
	lookups, hits, created, collisions := t.Stats()
	log.Info().Uint64("lookups", lookups).
		Uint64("hits", hits).
		Uint64("created", created).
		Uint64("t2-collisions", collisions).
		Msg("transposition-table-stats")
}

func valueToTT(v int32, ply int) int32 {
	switch {
	case v >= MateThreshold:
		return v + int32(ply)
	case v <= -MateThreshold:
		return v - int32(ply)
	}
	return v
}

func valueFromTT(v int32, ply int) int32 {
	switch {
	case v >= MateThreshold:
		return v - int32(ply)
	case v <= -MateThreshold:
		return v + int32(ply)
	}
	return v
}
