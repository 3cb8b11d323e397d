// Package stats summarizes repeated measurements, such as the speed of
// the searcher over several benchmark positions.
package stats

import "math"

const (
	Epsilon = 1e-6
)

func FuzzyEqual(a, b float64) bool {
	return math.Abs(a-b) < Epsilon
}

// Running accumulates mean and variance in a single pass with
// Welford's algorithm, so samples need not be kept.
type Running struct {
	n    int
	last float64
	mean float64
	m2   float64
}

func (s *Running) Push(val float64) {
	s.last = val
	s.n++
	delta := val - s.mean
	s.mean += delta / float64(s.n)
	s.m2 += delta * (val - s.mean)
}

func (s *Running) Mean() float64 {
	return s.mean
}

func (s *Running) Variance() float64 {
	if s.n <= 1 {
		return 0.0
	}
	return s.m2 / float64(s.n-1)
}

func (s *Running) Stdev() float64 {
	return math.Sqrt(s.Variance())
}

func (s *Running) Last() float64 {
	return s.last
}

// StandardError returns the standard error of the mean.
func (s *Running) StandardError() float64 {
	if s.n == 0 {
		return 0.0
	}
	return math.Sqrt(s.Variance() / float64(s.n))
}

func (s *Running) N() int {
	return s.n
}
