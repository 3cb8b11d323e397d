// Package evaluator scores positions with material plus King-Piece-Piece
// and King-King-Piece tables, fully or incrementally from a previous score.
package evaluator

import (
	"github.com/ryuou/ryuou/board"
	"github.com/ryuou/ryuou/move"
	"github.com/ryuou/ryuou/shogi"
)

// PositionalScale divides the raw table sum into material units.
const PositionalScale = 32

// ValuePair is a score from black's point of view, kept as two parts so
// the incremental update can be checked against a full evaluation
// exactly.
type ValuePair struct {
	Material   int32
	Positional int32
}

// Sum is black's score in material units.
func (v ValuePair) Sum() int32 {
	return v.Material + v.Positional/PositionalScale
}

// Value is the score for side c.
func (v ValuePair) Value(c shogi.Color) int32 {
	if c == shogi.White {
		return -v.Sum()
	}
	return v.Sum()
}

// Evaluator is safe for concurrent use: the tables are read-only and the
// cache is lock-free.
type Evaluator struct {
	params *Params
	cache  *Cache
}

// New builds an evaluator. Nil params mean material only; cacheBits of
// zero disables the cache.
func New(params *Params, cacheBits int) *Evaluator {
	e := &Evaluator{params: params}
	if cacheBits > 0 {
		e.cache = NewCache(cacheBits)
	}
	return e
}

func (e *Evaluator) Params() *Params { return e.params }
func (e *Evaluator) Cache() *Cache   { return e.cache }

// MaterialOnly reports whether the positional tables are absent.
func (e *Evaluator) MaterialOnly() bool { return e.params == nil }

// Evaluate computes the score of b from scratch.
func (e *Evaluator) Evaluate(b *board.Board) ValuePair {
	v := ValuePair{Material: Material(b)}
	if e.params == nil {
		return v
	}
	var l featureList
	collect(b, &l)
	v.Positional = e.positional(b, l.list())
	return v
}

func (e *Evaluator) positional(b *board.Board, fs []feature) int32 {
	bk := int(b.KingSquare(shogi.Black))
	wk := int(b.KingSquare(shogi.White))
	if bk < 0 || wk < 0 {
		return 0
	}
	bkf, wkf := int(shogi.Square(wk).Flip()), int(shogi.Square(bk).Flip())
	p := e.params
	var sum int32
	for i, fi := range fs {
		sum += p.kkp(bk, wk, fi.b) - p.kkp(bkf, wkf, fi.w)
		for _, fj := range fs[:i+1] {
			sum += p.kpp(bk, fi.b, fj.b) - p.kpp(bkf, fi.w, fj.w)
		}
	}
	return sum
}

// EvaluateDiff scores b, the position just after m was played, from prev,
// the score before m. The result equals Evaluate(b) exactly. King moves
// change every KPP lookup and fall back to a full evaluation.
func (e *Evaluator) EvaluateDiff(b *board.Board, prev ValuePair, m move.Move) ValuePair {
	us := b.Turn().Opponent()
	v := prev
	gain := EstimateGain(m)
	if us == shogi.White {
		gain = -gain
	}
	v.Material += gain
	if e.params == nil {
		return v
	}
	if !m.IsDrop() && m.Piece() == shogi.King {
		return ValuePair{Material: v.Material, Positional: e.Evaluate(b).Positional}
	}

	var added, removed [2]feature
	na, nr := 0, 0
	to := m.To()
	if m.IsDrop() {
		kind := m.Piece()
		removed[nr] = handFeature(us, kind, b.HandOf(us).Get(kind)+1)
		nr++
	} else {
		removed[nr] = boardFeature(m.Piece().WithColor(us), m.From())
		nr++
		if m.IsCapture() {
			captured := m.Captured().WithColor(us.Opponent())
			removed[nr] = boardFeature(captured, to)
			nr++
			kind := captured.Kind()
			added[na] = handFeature(us, kind, b.HandOf(us).Get(kind))
			na++
		}
	}
	added[na] = boardFeature(m.PieceAfter().WithColor(us), to)
	na++

	var l featureList
	collect(b, &l)
	common := l.list()
	// Drop the added features from the after-move list, leaving the
	// features present both before and after the move.
	n := 0
	for _, f := range common {
		if f == added[0] || (na > 1 && f == added[1]) {
			continue
		}
		common[n] = f
		n++
	}
	common = common[:n]

	v.Positional = prev.Positional +
		e.delta(b, added[:na], common) - e.delta(b, removed[:nr], common)
	return v
}

// delta is the positional contribution of the features in set: each
// against every common feature, against each other, and alone.
func (e *Evaluator) delta(b *board.Board, set, common []feature) int32 {
	bk := int(b.KingSquare(shogi.Black))
	wk := int(b.KingSquare(shogi.White))
	if bk < 0 || wk < 0 {
		return 0
	}
	bkf, wkf := int(shogi.Square(wk).Flip()), int(shogi.Square(bk).Flip())
	p := e.params
	var sum int32
	for i, a := range set {
		sum += p.kkp(bk, wk, a.b) - p.kkp(bkf, wkf, a.w)
		for _, x := range common {
			sum += p.kpp(bk, a.b, x.b) - p.kpp(bkf, a.w, x.w)
		}
		for _, o := range set[:i+1] {
			sum += p.kpp(bk, a.b, o.b) - p.kpp(bkf, a.w, o.w)
		}
	}
	return sum
}

// Lookup returns the cached score of b, if present.
func (e *Evaluator) Lookup(b *board.Board) (ValuePair, bool) {
	if e.cache == nil {
		return ValuePair{}, false
	}
	return e.cache.Get(b.NoTurnHash())
}

// Store caches the score of b.
func (e *Evaluator) Store(b *board.Board, v ValuePair) {
	if e.cache != nil {
		e.cache.Put(b.NoTurnHash(), v)
	}
}

// EvaluateCached is Evaluate through the cache.
func (e *Evaluator) EvaluateCached(b *board.Board) ValuePair {
	if v, ok := e.Lookup(b); ok {
		return v
	}
	v := e.Evaluate(b)
	e.Store(b, v)
	return v
}
