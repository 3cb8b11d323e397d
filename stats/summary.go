package stats

import (
	"slices"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

// ZVal returns the two-tailed Z-value associated with a specific confidence interval.
// The interval is a number from 0 to 100 percent.
func ZVal(confidenceInterval float64) float64 {
	dist := distuv.Normal{
		Mu:    0,
		Sigma: 1,
	}
	area := (1 + (confidenceInterval / 100)) / 2
	return dist.Quantile(area)
}

// Summary describes a sample. Low and High bound the mean at the
// requested confidence.
type Summary struct {
	N      int     `yaml:"n"`
	Mean   float64 `yaml:"mean"`
	Stdev  float64 `yaml:"stdev"`
	Median float64 `yaml:"median"`
	Min    float64 `yaml:"min"`
	Max    float64 `yaml:"max"`
	Low    float64 `yaml:"low"`
	High   float64 `yaml:"high"`
}

// Summarize computes a Summary of xs at confidence percent.
func Summarize(xs []float64, confidence float64) Summary {
	if len(xs) == 0 {
		return Summary{}
	}
	sorted := slices.Clone(xs)
	slices.Sort(sorted)
	mean, std := stat.MeanStdDev(sorted, nil)
	if len(xs) == 1 {
		std = 0
	}
	s := Summary{
		N:      len(xs),
		Mean:   mean,
		Stdev:  std,
		Median: stat.Quantile(0.5, stat.Empirical, sorted, nil),
		Min:    floats.Min(sorted),
		Max:    floats.Max(sorted),
	}
	margin := ZVal(confidence) * stat.StdErr(std, float64(len(xs)))
	s.Low, s.High = mean-margin, mean+margin
	return s
}
