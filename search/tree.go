package search

import (
	"sync/atomic"

	"github.com/ryuou/ryuou/board"
	"github.com/ryuou/ryuou/evaluator"
	"github.com/ryuou/ryuou/mate"
	"github.com/ryuou/ryuou/move"
	"github.com/ryuou/ryuou/movegen"
)

// MaxPly bounds the depth of the node stack.
const MaxPly = 64

// maxMoves is above the largest number of moves any shogi position has.
const maxMoves = 600

// GenPhase is the step of the per-node move state machine.
type GenPhase uint8

const (
	// PhasePrior replays the transposition table's moves before any bulk
	// generation.
	PhasePrior GenPhase = iota
	PhaseCapture
	PhaseNoCapture
	PhaseDrop
	PhaseEvasion
	// PhaseCaptureOnly and PhaseTacticalOnly are the quiescence phases:
	// captures and promotions, plus light checks for the latter.
	PhaseCaptureOnly
	PhaseTacticalOnly
	PhaseEnd
)

var phaseNames = [...]string{"prior", "capture", "nocapture", "drop", "evasion",
	"captureonly", "tacticalonly", "end"}

func (p GenPhase) String() string {
	if int(p) < len(phaseNames) {
		return phaseNames[p]
	}
	return "unknown"
}

// GenMode picks the phase sequence a node walks.
type GenMode uint8

const (
	// ModeFull: Prior, Capture, NoCapture, Drop; Prior, Evasion in check.
	ModeFull GenMode = iota
	// ModeCaptureOnly: CaptureOnly; Evasion in check.
	ModeCaptureOnly
	// ModeTacticalOnly: TacticalOnly; Evasion in check.
	ModeTacticalOnly
)

const (
	killer0Bonus  = 3 * HistoryScale
	killer1Bonus  = 2 * HistoryScale
	captureOffset = 1 << 16
)

type node struct {
	phase    GenPhase
	moves    []move.Move
	scores   []int32
	next     int
	inPrior  bool
	prior    [2]move.Move
	nprior   int
	checking bool
	value    evaluator.ValuePair
	move     move.Move
	hash     uint64
}

// Tree owns one board and the per-ply state of a single search thread.
// It is not safe for concurrent use; parallel search gives every worker
// its own Tree.
type Tree struct {
	board   *board.Board
	eval    *evaluator.Evaluator
	history *History
	nodes   [MaxPly + 1]node
	killers [MaxPly + 1][2]move.Move
	ply     int

	// hashes of the game before the root, oldest first
	gameHashes []uint64
	nodeCount  atomic.Uint64
	// helper trees may be stopped at any node; aborted records that
	helper  bool
	aborted bool
}

// NewTree copies b and prepares the root node.
func NewTree(b *board.Board, eval *evaluator.Evaluator, history *History, gameHashes []uint64) *Tree {
	t := &Tree{
		board:      b.Copy(),
		eval:       eval,
		history:    history,
		gameHashes: gameHashes,
	}
	for i := range t.nodes {
		t.nodes[i].moves = make([]move.Move, 0, maxMoves)
		t.nodes[i].scores = make([]int32, 0, maxMoves)
	}
	root := &t.nodes[0]
	root.value = eval.EvaluateCached(t.board)
	root.hash = t.board.Hash()
	root.checking = t.board.IsChecking()
	return t
}

func (t *Tree) Board() *board.Board { return t.board }
func (t *Tree) Ply() int            { return t.ply }
func (t *Tree) Nodes() uint64       { return t.nodeCount.Load() }

// IsChecking reports whether the side to move at the current ply is in
// check.
func (t *Tree) IsChecking() bool { return t.nodes[t.ply].checking }

// Value is the static evaluation of the current node for the side to move.
func (t *Tree) Value() int32 {
	return t.nodes[t.ply].value.Value(t.board.Turn())
}

// Phase returns the phase the current node will generate next.
func (t *Tree) Phase() GenPhase { return t.nodes[t.ply].phase }

// InitGenPhase starts move iteration at the current node. In full mode
// the prior moves, usually from the transposition table, come first.
func (t *Tree) InitGenPhase(mode GenMode, prior ...move.Move) {
	n := &t.nodes[t.ply]
	n.moves = n.moves[:0]
	n.scores = n.scores[:0]
	n.next = 0
	n.inPrior = false
	n.nprior = 0
	switch {
	case mode == ModeFull:
		n.phase = PhasePrior
	case n.checking:
		n.phase = PhaseEvasion
	case mode == ModeCaptureOnly:
		n.phase = PhaseCaptureOnly
	default:
		n.phase = PhaseTacticalOnly
	}
	if n.phase != PhasePrior {
		return
	}
	for _, m := range prior {
		if m.IsEmpty() || n.nprior == len(n.prior) || !t.board.IsValidMoveStrict(m) {
			continue
		}
		if n.nprior == 1 && n.prior[0] == m {
			continue
		}
		n.prior[n.nprior] = m
		n.nprior++
	}
}

// Next returns the next pseudo-legal move of the current node, best
// ordered first within each phase.
func (t *Tree) Next() (move.Move, bool) {
	n := &t.nodes[t.ply]
	for {
		for n.next < len(n.moves) {
			m := t.pick(n)
			if n.inPrior || !n.isPrior(m) {
				return m, true
			}
		}
		if !t.advance(n) {
			return move.Empty, false
		}
	}
}

func (n *node) isPrior(m move.Move) bool {
	for i := 0; i < n.nprior; i++ {
		if n.prior[i] == m {
			return true
		}
	}
	return false
}

// pick moves the best remaining move of the buffer to the front and
// returns it.
func (t *Tree) pick(n *node) move.Move {
	best := n.next
	for i := n.next + 1; i < len(n.moves); i++ {
		if n.scores[i] > n.scores[best] {
			best = i
		}
	}
	n.moves[n.next], n.moves[best] = n.moves[best], n.moves[n.next]
	n.scores[n.next], n.scores[best] = n.scores[best], n.scores[n.next]
	m := n.moves[n.next]
	n.next++
	return m
}

// advance fills the buffer with the next phase's moves, returning false
// once the node is exhausted.
func (t *Tree) advance(n *node) bool {
	n.moves = n.moves[:0]
	n.scores = n.scores[:0]
	n.next = 0
	n.inPrior = false
	b := t.board
	switch n.phase {
	case PhasePrior:
		n.inPrior = true
		for i := 0; i < n.nprior; i++ {
			n.moves = append(n.moves, n.prior[i])
			n.scores = append(n.scores, int32(n.nprior-i))
		}
		if n.checking {
			n.phase = PhaseEvasion
		} else {
			n.phase = PhaseCapture
		}
	case PhaseCapture:
		n.moves = movegen.Generate(b, movegen.Capture, n.moves)
		t.scoreCaptures(n, 0)
		n.phase = PhaseNoCapture
	case PhaseNoCapture:
		n.moves = movegen.Generate(b, movegen.NoCapture, n.moves)
		t.scoreQuiets(n, 0)
		n.phase = PhaseDrop
	case PhaseDrop:
		n.moves = movegen.Generate(b, movegen.Drop, n.moves)
		t.scoreQuiets(n, 0)
		n.phase = PhaseEnd
	case PhaseEvasion:
		n.moves = movegen.Generate(b, movegen.Evasion, n.moves)
		t.scoreEvasions(n)
		n.phase = PhaseEnd
	case PhaseCaptureOnly:
		n.moves = movegen.Generate(b, movegen.Capture, n.moves)
		t.scoreCaptures(n, 0)
		n.phase = PhaseEnd
	case PhaseTacticalOnly:
		n.moves = movegen.Generate(b, movegen.Capture, n.moves)
		t.scoreCaptures(n, 0)
		start := len(n.moves)
		n.moves = movegen.Generate(b, movegen.CheckLight, n.moves)
		t.scoreQuiets(n, start)
		n.phase = PhaseEnd
	default:
		return false
	}
	return true
}

// scoreCaptures orders by most valuable victim, then least valuable
// attacker.
func (t *Tree) scoreCaptures(n *node, start int) {
	for _, m := range n.moves[start:] {
		s := evaluator.EstimateGain(m)*8 - evaluator.PieceValue(m.Piece())
		n.scores = append(n.scores, s)
	}
}

func (t *Tree) scoreQuiets(n *node, start int) {
	k := &t.killers[t.ply]
	for _, m := range n.moves[start:] {
		s := int32(t.history.Get(m))
		switch m {
		case k[0]:
			s += killer0Bonus
		case k[1]:
			s += killer1Bonus
		}
		n.scores = append(n.scores, s)
	}
}

func (t *Tree) scoreEvasions(n *node) {
	for _, m := range n.moves {
		s := int32(t.history.Get(m))
		if m.IsCapture() {
			s += captureOffset + evaluator.EstimateGain(m)
		}
		n.scores = append(n.scores, s)
	}
}

// IsKiller reports whether m is one of the current ply's killers.
func (t *Tree) IsKiller(m move.Move) bool {
	k := &t.killers[t.ply]
	return m == k[0] || m == k[1]
}

// AddKiller remembers a quiet move that caused a cutoff at this ply.
func (t *Tree) AddKiller(m move.Move) {
	k := &t.killers[t.ply]
	if k[0] != m {
		k[1] = k[0]
		k[0] = m
	}
}

// MakeMove plays m if it is legal, pushing a node with the updated
// evaluation, hash and check state. Pawn-drop mates are refused here so
// every caller sees them as illegal.
func (t *Tree) MakeMove(m move.Move) bool {
	if t.ply >= MaxPly {
		return false
	}
	if mate.IsPawnDropMate(t.board, m) {
		return false
	}
	prev := t.nodes[t.ply].value
	if !t.board.MakeMove(m) {
		return false
	}
	t.nodeCount.Add(1)
	t.ply++
	n := &t.nodes[t.ply]
	n.move = m
	n.hash = t.board.Hash()
	n.checking = t.board.IsChecking()
	if v, ok := t.eval.Lookup(t.board); ok {
		n.value = v
	} else {
		n.value = t.eval.EvaluateDiff(t.board, prev, m)
		t.eval.Store(t.board, n.value)
	}
	return true
}

// UnmakeMove reverts the move that led to the current node.
func (t *Tree) UnmakeMove() {
	m := t.nodes[t.ply].move
	t.ply--
	t.board.UnmakeMove(m)
}

// MakeNullMove passes the turn.
func (t *Tree) MakeNullMove() {
	prev := t.nodes[t.ply].value
	t.board.MakeNullMove()
	t.ply++
	n := &t.nodes[t.ply]
	n.move = move.Empty
	n.hash = t.board.Hash()
	n.checking = false
	n.value = prev
}

func (t *Tree) UnmakeNullMove() {
	t.ply--
	t.board.UnmakeNullMove()
}

// IsRepetition reports whether the current position already occurred on
// the search path or in the game before the root. The hash includes the
// side to move, so only same-side positions can match.
func (t *Tree) IsRepetition() bool {
	h := t.nodes[t.ply].hash
	for p := t.ply - 2; p >= 0; p -= 2 {
		if t.nodes[p].hash == h {
			return true
		}
	}
	for i := len(t.gameHashes) - 1; i >= 0; i-- {
		if t.gameHashes[i] == h {
			return true
		}
	}
	return false
}

// CurrentMove is the move that led to the current node.
func (t *Tree) CurrentMove() move.Move { return t.nodes[t.ply].move }
