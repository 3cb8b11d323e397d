package search

import (
	"time"

	"github.com/samber/lo"
	"gopkg.in/yaml.v3"

	"github.com/ryuou/ryuou/move"
	"github.com/ryuou/ryuou/shogi"
)

// Iteration records one completed deepening step.
type Iteration struct {
	Depth   int           `json:"depth" yaml:"depth"`
	Value   int32         `json:"value" yaml:"value"`
	Nodes   uint64        `json:"nodes" yaml:"nodes"`
	Elapsed time.Duration `json:"elapsed" yaml:"elapsed"`
	PV      []string      `json:"pv" yaml:"pv,flow"`
}

// Result is what a search returns. Value is from the point of view of
// the side to move at the root.
type Result struct {
	BestMove   move.Move     `json:"-" yaml:"-"`
	Best       string        `json:"best" yaml:"best"`
	Value      int32         `json:"value" yaml:"value"`
	Depth      int           `json:"depth" yaml:"depth"`
	PV         []move.Move   `json:"-" yaml:"-"`
	PVStrings  []string      `json:"pv" yaml:"pv,flow"`
	Nodes      uint64        `json:"nodes" yaml:"nodes"`
	Elapsed    time.Duration `json:"elapsed" yaml:"elapsed"`
	Iterations []Iteration   `json:"iterations" yaml:"iterations,omitempty"`

	turn shogi.Color
}

func (r *Result) update(best move.Move, value int32, depth int, pv []move.Move) {
	r.BestMove = best
	r.Value = value
	r.Depth = depth
	r.PV = append(r.PV[:0], pv...)
	r.Best = best.CSA(r.turn)
	c := r.turn
	r.PVStrings = lo.Map(r.PV, func(m move.Move, _ int) string {
		s := m.CSA(c)
		c = c.Opponent()
		return s
	})
}

// IsMate reports whether the side to move has a forced mate.
func (r *Result) IsMate() bool { return r.Value >= MateThreshold }

// IsMated reports whether the side to move gets mated.
func (r *Result) IsMated() bool { return r.Value <= -MateThreshold }

// MatePlies is the length of the mating line in plies, or zero.
func (r *Result) MatePlies() int {
	switch {
	case r.IsMate():
		return int(Mate - r.Value)
	case r.IsMated():
		return int(Mate + r.Value)
	}
	return 0
}

// YAML renders the result for the shell and logs.
func (r *Result) YAML() (string, error) {
	out, err := yaml.Marshal(r)
	if err != nil {
		return "", err
	}
	return string(out), nil
}
