// Package search is an iterative-deepening principal variation search
// over shogi positions with a shared transposition table and optional
// lazy-SMP helper threads.
package search

import (
	"context"
	"errors"
	"slices"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/samber/lo"
	"golang.org/x/sync/errgroup"
	"lukechampine.com/frand"

	"github.com/ryuou/ryuou/board"
	"github.com/ryuou/ryuou/common"
	"github.com/ryuou/ryuou/evaluator"
	"github.com/ryuou/ryuou/mate"
	"github.com/ryuou/ryuou/move"
	"github.com/ryuou/ryuou/movegen"
)

const (
	Infinity int32 = 32000
	// Mate is the value of mating at the root; mating at ply p is worth
	// Mate-p.
	Mate          int32 = 30000
	MateThreshold int32 = Mate - MaxPly

	futilityDepth  = 3
	futilityMargin = 150
	deltaMargin    = 200
)

var ErrNoLegalMoves = errors.New("no legal moves in position")

type rootMove struct {
	move  move.Move
	value int32
}

// Searcher runs searches. It keeps its table and history across calls,
// which is what makes consecutive searches in one game cheaper.
type Searcher struct {
	cfg     Config
	eval    *evaluator.Evaluator
	tt      *TranspositionTable
	history *History

	stop     atomic.Bool
	deadline time.Time
	trees    []*Tree
}

// NewSearcher builds a searcher. A nil table gets a small private one.
func NewSearcher(cfg Config, eval *evaluator.Evaluator, tt *TranspositionTable) *Searcher {
	if tt == nil {
		tt = NewTranspositionTable(16)
	}
	return &Searcher{
		cfg:     cfg,
		eval:    eval,
		tt:      tt,
		history: NewHistory(),
	}
}

func (s *Searcher) Config() Config                  { return s.cfg }
func (s *Searcher) SetConfig(cfg Config)            { s.cfg = cfg }
func (s *Searcher) TT() *TranspositionTable         { return s.tt }
func (s *Searcher) History() *History               { return s.history }
func (s *Searcher) Evaluator() *evaluator.Evaluator { return s.eval }

// Stop asks a running search to return. The main thread finishes the
// root move it is on; helpers quit at their next node.
func (s *Searcher) Stop() {
	s.stop.Store(true)
}

func (s *Searcher) nodes() uint64 {
	var n uint64
	for _, t := range s.trees {
		n += t.Nodes()
	}
	return n
}

func (s *Searcher) shouldStop(ctx context.Context) bool {
	if s.stop.Load() {
		return true
	}
	stop := false
	switch {
	case ctx.Err() != nil:
		stop = true
	case !s.deadline.IsZero() && time.Now().After(s.deadline):
		stop = true
	case s.cfg.NodeLimit > 0 && s.nodes() >= s.cfg.NodeLimit:
		stop = true
	}
	if stop {
		s.stop.Store(true)
	}
	return stop
}

// Search finds the best move for the side to move in b. gameHashes are
// the hashes of the positions played before b, for repetition checks.
// Depth one always completes, so a result has a move unless the position
// has none, in which case ErrNoLegalMoves is returned with a mated value.
func (s *Searcher) Search(ctx context.Context, b *board.Board, gameHashes []uint64) (*Result, error) {
	tstart := time.Now()
	s.stop.Store(false)
	s.deadline = time.Time{}
	if s.cfg.TimeLimit > 0 {
		s.deadline = tstart.Add(s.cfg.TimeLimit)
	}
	root := NewTree(b, s.eval, s.history, gameHashes)
	s.trees = []*Tree{root}
	res := &Result{turn: b.Turn()}

	legal := movegen.GenerateLegal(root.board, nil, mate.IsPawnDropMate)
	if len(legal) == 0 {
		res.Value = -Mate
		res.Elapsed = time.Since(tstart)
		return res, ErrNoLegalMoves
	}

	if s.cfg.Mate1Ply && !root.IsChecking() {
		if m, ok := mate.Mate1Ply(root.board); ok {
			res.update(m, Mate-1, 1, []move.Move{m})
			res.Nodes = 1
			res.Elapsed = time.Since(tstart)
			log.Info().Str("move", m.CSA(b.Turn())).Msg("mate-in-one-at-root")
			return res, nil
		}
	}

	if s.cfg.UseTT {
		s.tt.Evolve()
	}
	s.history.Reduce()

	rootMoves := lo.Map(legal, func(m move.Move, _ int) rootMove {
		return rootMove{move: m, value: -Infinity}
	})
	s.orderRoot(root, rootMoves)

	g := errgroup.Group{}
	if s.cfg.Workers > 1 {
		log.Info().Int("threads", s.cfg.Workers).Msg("using-lazy-smp")
		for i := 1; i < s.cfg.Workers; i++ {
			ht := NewTree(b, s.eval, s.history, gameHashes)
			ht.helper = true
			s.trees = append(s.trees, ht)
		}
		for i, ht := range s.trees[1:] {
			thread := i + 1
			hm := slices.Clone(rootMoves)
			if thread > 2 {
				frand.Shuffle(len(hm), func(a, c int) {
					hm[a], hm[c] = hm[c], hm[a]
				})
			}
			g.Go(func() error {
				s.helperLoop(ctx, ht, hm, thread)
				return nil
			})
		}
	}

	var prev int32
	for depth := 1; depth <= s.cfg.MaxDepth; depth++ {
		if depth > 1 && s.shouldStop(ctx) {
			break
		}
		log.Info().Int("plies", depth).Msg("deepening-iteratively")
		v, pv, ok := s.aspirate(ctx, root, rootMoves, depth, prev)
		if !ok {
			log.Debug().Int("plies", depth).Msg("iteration-interrupted")
			break
		}
		prev = v
		res.update(pv.GetPVMove(), v, depth, pv.Moves)
		res.Iterations = append(res.Iterations, Iteration{
			Depth:   depth,
			Value:   v,
			Nodes:   s.nodes(),
			Elapsed: time.Since(tstart),
			PV:      pv.CSA(b.Turn()),
		})
		log.Info().Int32("value", v).Int("ply", depth).Str("pv", pv.NLBString()).Msg("best-val")
		if v >= MateThreshold || v <= -MateThreshold {
			break
		}
	}

	s.stop.Store(true)
	if err := g.Wait(); err != nil {
		return nil, err
	}
	res.Nodes = s.nodes()
	res.Elapsed = time.Since(tstart)
	if s.cfg.UseTT {
		s.tt.logStats()
	}
	log.Info().
		Str("best", res.Best).
		Int32("value", res.Value).
		Int("depth", res.Depth).
		Uint64("nodes", res.Nodes).
		Float64("time-elapsed-sec", res.Elapsed.Seconds()).
		Msg("search-returning")
	return res, nil
}

// orderRoot puts the table's move first for the opening iteration.
func (s *Searcher) orderRoot(t *Tree, rms []rootMove) {
	if !s.cfg.UseTT {
		return
	}
	e, ok := s.tt.Get(t.board.Hash())
	if !ok {
		return
	}
	hm := hashMove(t.board, e.Move1)
	if i := slices.IndexFunc(rms, func(rm rootMove) bool { return rm.move == hm }); i > 0 {
		rms[0], rms[i] = rms[i], rms[0]
	}
}

// helperLoop searches one depth ahead on odd threads so the helpers fill
// the table with entries the main thread will want next.
func (s *Searcher) helperLoop(ctx context.Context, t *Tree, rms []rootMove, thread int) {
	log.Debug().Int("thread", thread).Msg("helper-starting")
	for depth := 1 + thread%2; depth <= s.cfg.MaxDepth; depth++ {
		if s.shouldStop(ctx) {
			break
		}
		if _, _, ok := s.searchRoot(ctx, t, rms, depth, -Infinity, Infinity); !ok {
			break
		}
	}
	log.Debug().Int("thread", thread).Uint64("nodes", t.Nodes()).Msg("helper-exiting")
}

// aspirate searches the root in a window around the previous value,
// widening it on failure.
func (s *Searcher) aspirate(ctx context.Context, t *Tree, rms []rootMove, depth int, prev int32) (int32, common.PVLine, bool) {
	alpha, beta := -Infinity, Infinity
	width := s.cfg.AspirationWidth
	if width > 0 && depth >= 3 && prev < MateThreshold && prev > -MateThreshold {
		alpha, beta = max(prev-width, -Infinity), min(prev+width, Infinity)
	}
	for {
		v, pv, ok := s.searchRoot(ctx, t, rms, depth, alpha, beta)
		if !ok {
			return 0, pv, false
		}
		switch {
		case v <= alpha && alpha > -Infinity:
			width *= 4
			alpha = max(v-width, -Infinity)
		case v >= beta && beta < Infinity:
			width *= 4
			beta = min(v+width, Infinity)
		default:
			return v, pv, true
		}
		log.Debug().Int32("alpha", alpha).Int32("beta", beta).Int("plies", depth).Msg("aspiration-research")
	}
}

// searchRoot runs one PVS pass over the root moves and reorders them by
// the values found. It reports false when the pass was interrupted.
func (s *Searcher) searchRoot(ctx context.Context, t *Tree, rms []rootMove, depth int, alpha, beta int32) (int32, common.PVLine, bool) {
	var pv, childPV common.PVLine
	t.aborted = false
	best := -Infinity
	bestIdx := -1
	alphaOrig := alpha
	for i := range rms {
		if t.helper && s.stop.Load() {
			return 0, pv, false
		}
		if i > 0 && depth > 1 && s.shouldStop(ctx) {
			return 0, pv, false
		}
		rm := &rms[i]
		if !t.MakeMove(rm.move) {
			continue
		}
		var v int32
		if i == 0 {
			v = -s.searchr(t, -beta, -alpha, depth-1, &childPV, true)
		} else {
			v = -s.searchr(t, -alpha-1, -alpha, depth-1, &childPV, true)
			if v > alpha && v < beta {
				v = -s.searchr(t, -beta, -alpha, depth-1, &childPV, true)
			}
		}
		t.UnmakeMove()
		if t.aborted {
			return 0, pv, false
		}
		rm.value = v
		if v > best {
			best, bestIdx = v, i
			if v > alpha {
				alpha = v
				pv.Update(rm.move, childPV, v)
			}
		}
		childPV.Clear()
		if alpha >= beta {
			break
		}
	}
	if bestIdx > 0 {
		bm := rms[bestIdx]
		copy(rms[1:bestIdx+1], rms[:bestIdx])
		rms[0] = bm
	}
	slices.SortStableFunc(rms[1:], func(a, b rootMove) int {
		return int(b.value) - int(a.value)
	})
	if s.cfg.UseTT && bestIdx >= 0 {
		s.tt.Entry(t.board.Hash(), alphaOrig, beta, best, depth, 0, 0, rms[0].move)
	}
	return best, pv, true
}

func hashMove(b *board.Board, w uint16) move.Move {
	if w == 0 {
		return move.Empty
	}
	m, err := b.DeserializeMove16(w)
	if err != nil {
		return move.Empty
	}
	return m
}

// searchr is the recursive PVS. The value is for the side to move at
// t's current ply.
func (s *Searcher) searchr(t *Tree, alpha, beta int32, depth int, pv *common.PVLine, allowNull bool) int32 {
	if t.helper && s.stop.Load() {
		t.aborted = true
		return 0
	}
	checking := t.IsChecking()
	if depth <= 0 && !checking {
		return s.qsearch(t, alpha, beta, 0, pv)
	}
	ply := t.ply
	if t.IsRepetition() {
		return 0
	}
	if ply >= MaxPly-1 {
		return t.Value()
	}

	alpha = max(alpha, -Mate+int32(ply))
	beta = min(beta, Mate-int32(ply)-1)
	if alpha >= beta {
		return alpha
	}
	pvNode := beta-alpha > 1
	alphaOrig := alpha
	hash := t.board.Hash()

	var hm1, hm2 move.Move
	mateThreat := false
	if s.cfg.UseTT {
		if e, ok := s.tt.Get(hash); ok {
			if !pvNode {
				if v, cut := e.Cutoff(alpha, beta, depth, ply); cut {
					return v
				}
			}
			hm1 = hashMove(t.board, e.Move1)
			hm2 = hashMove(t.board, e.Move2)
			mateThreat = e.MateThreat
		}
	}

	if s.cfg.Mate1Ply && !checking {
		if m, ok := mate.Mate1Ply(t.board); ok {
			v := Mate - int32(ply) - 1
			pv.Update(m, common.PVLine{}, v)
			if s.cfg.UseTT {
				s.tt.Entry(hash, alphaOrig, beta, v, depth, ply, 0, m)
			}
			return v
		}
	}

	staticEval := t.Value()
	if s.cfg.NullMove && allowNull && !pvNode && !checking && !mateThreat &&
		depth >= 2 && staticEval >= beta {

		r := 2 + depth/4
		var nullPV common.PVLine
		t.MakeNullMove()
		v := -s.searchr(t, -beta, -beta+1, depth-1-r, &nullPV, false)
		t.UnmakeNullMove()
		if t.aborted {
			return 0
		}
		if v >= beta {
			if v >= MateThreshold {
				v = beta
			}
			return v
		}
		if v <= -MateThreshold {
			mateThreat = true
		}
	}

	futile := s.cfg.Futility && !pvNode && !checking && depth <= futilityDepth &&
		alpha > -MateThreshold && alpha < MateThreshold
	margin := futilityMargin * int32(depth)

	var childPV common.PVLine
	var quiets [64]move.Move
	nquiets := 0
	best := -Infinity
	bestMove := move.Empty
	searched := 0

	t.InitGenPhase(ModeFull, hm1, hm2)
	for m, ok := t.Next(); ok; m, ok = t.Next() {
		givesCheck := t.board.IsCheck(m)
		tactical := m.IsTactical()
		if futile && searched > 0 && !givesCheck &&
			staticEval+evaluator.EstimateGain(m)+margin <= alpha {
			continue
		}
		reducible := s.cfg.LMR && depth >= 3 && searched >= 3 && !tactical && !givesCheck &&
			!checking && !t.IsKiller(m) && m != hm1 && m != hm2
		if !t.MakeMove(m) {
			continue
		}
		searched++
		newDepth := depth - 1
		var v int32
		if searched == 1 {
			v = -s.searchr(t, -beta, -alpha, newDepth, &childPV, true)
		} else {
			r := 0
			if reducible {
				r = 1
				if depth >= 6 && searched > 12 {
					r = 2
				}
			}
			v = -s.searchr(t, -alpha-1, -alpha, newDepth-r, &childPV, true)
			if v > alpha && r > 0 {
				v = -s.searchr(t, -alpha-1, -alpha, newDepth, &childPV, true)
			}
			if v > alpha && v < beta {
				v = -s.searchr(t, -beta, -alpha, newDepth, &childPV, true)
			}
		}
		t.UnmakeMove()
		if t.aborted {
			return 0
		}
		if !tactical && nquiets < len(quiets) {
			quiets[nquiets] = m
			nquiets++
		}
		if v > best {
			best, bestMove = v, m
			if v > alpha {
				alpha = v
				pv.Update(m, childPV, v)
				if alpha >= beta {
					break
				}
			}
		}
		childPV.Clear()
	}

	// futility never skips the first move, so nothing searched is mate
	if searched == 0 {
		return -Mate + int32(ply)
	}

	if best >= beta && !bestMove.IsTactical() {
		t.AddKiller(bestMove)
	}
	if best > alphaOrig {
		for _, q := range quiets[:nquiets] {
			if q == bestMove {
				s.history.Add(q, 1, 1)
			} else {
				s.history.Add(q, 1, 0)
			}
		}
	}
	if s.cfg.UseTT {
		var stat NodeStat
		if mateThreat {
			stat |= NodeMateThreat
		}
		s.tt.Entry(hash, alphaOrig, beta, best, depth, ply, stat, bestMove)
	}
	return best
}

// qsearch resolves captures (and, on its first ply, quiet checks) until
// the position is quiet. Evasions are searched in full.
func (s *Searcher) qsearch(t *Tree, alpha, beta int32, qply int, pv *common.PVLine) int32 {
	if t.helper && s.stop.Load() {
		t.aborted = true
		return 0
	}
	ply := t.ply
	if ply >= MaxPly-1 {
		return t.Value()
	}
	checking := t.IsChecking()
	var standPat int32
	best := -Mate + int32(ply)
	if !checking {
		standPat = t.Value()
		if standPat >= beta {
			return standPat
		}
		alpha = max(alpha, standPat)
		best = standPat
	}

	mode := ModeCaptureOnly
	if qply == 0 {
		mode = ModeTacticalOnly
	}
	var childPV common.PVLine
	t.InitGenPhase(mode)
	for m, ok := t.Next(); ok; m, ok = t.Next() {
		if !checking && m.IsCapture() && standPat+evaluator.EstimateGain(m)+deltaMargin <= alpha &&
			!t.board.IsCheck(m) {
			continue
		}
		if !t.MakeMove(m) {
			continue
		}
		v := -s.qsearch(t, -beta, -alpha, qply+1, &childPV)
		t.UnmakeMove()
		if t.aborted {
			return 0
		}
		if v > best {
			best = v
			if v > alpha {
				alpha = v
				pv.Update(m, childPV, v)
				if alpha >= beta {
					break
				}
			}
		}
		childPV.Clear()
	}
	return best
}
