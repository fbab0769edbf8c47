// Package stats provides the small set of statistics the pipeline derives
// from raw counts: percentage rates, weighted medians, correlation, and
// simple linear fits. Heavy lifting is delegated to gonum.
package stats

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// Rate returns num/den as a percentage. A zero or NaN denominator yields
// NaN rather than +Inf or a panic; a valid input always lands in [0, 100]
// when num <= den.
func Rate(num, den float64) float64 {
	if den == 0 || math.IsNaN(num) || math.IsNaN(den) {
		return math.NaN()
	}
	return num / den * 100
}

// RoundRate rounds a rate to two decimal places, preserving NaN.
func RoundRate(r float64) float64 {
	if math.IsNaN(r) {
		return r
	}
	return math.Round(r*100) / 100
}

// WeightedMedian returns the weight-interpolated median of values.
// NaN values and non-positive weights are dropped. Returns NaN when nothing
// survives filtering.
func WeightedMedian(values, weights []float64) float64 {
	return WeightedQuantile(0.5, values, weights)
}

// WeightedQuantile returns the p-quantile of values under the given weights.
func WeightedQuantile(p float64, values, weights []float64) float64 {
	xs, ws := filterWeighted(values, weights)
	if len(xs) == 0 {
		return math.NaN()
	}
	sort.Sort(weightedByValue{xs, ws})
	return stat.Quantile(p, stat.Empirical, xs, ws)
}

// WeightedMean returns the weighted mean of values, NaN when empty.
func WeightedMean(values, weights []float64) float64 {
	xs, ws := filterWeighted(values, weights)
	if len(xs) == 0 {
		return math.NaN()
	}
	return stat.Mean(xs, ws)
}

// WeightedSum returns the total weight of non-NaN values.
func WeightedSum(values, weights []float64) float64 {
	_, ws := filterWeighted(values, weights)
	var total float64
	for _, w := range ws {
		total += w
	}
	return total
}

// Correlation returns the Pearson correlation of two equal-length series.
// Pairs with a NaN on either side are dropped; fewer than two surviving
// pairs yields NaN.
func Correlation(x, y []float64) float64 {
	xs, ys := filterPairs(x, y)
	if len(xs) < 2 {
		return math.NaN()
	}
	return stat.Correlation(xs, ys, nil)
}

// LinearFit returns the intercept and slope of an ordinary least squares fit
// of y on x, with NaN pairs dropped.
func LinearFit(x, y []float64) (alpha, beta float64) {
	xs, ys := filterPairs(x, y)
	if len(xs) < 2 {
		return math.NaN(), math.NaN()
	}
	return stat.LinearRegression(xs, ys, nil, false)
}

func filterWeighted(values, weights []float64) ([]float64, []float64) {
	xs := make([]float64, 0, len(values))
	ws := make([]float64, 0, len(values))
	for i, v := range values {
		if math.IsNaN(v) {
			continue
		}
		w := 1.0
		if weights != nil {
			w = weights[i]
		}
		if w <= 0 || math.IsNaN(w) {
			continue
		}
		xs = append(xs, v)
		ws = append(ws, w)
	}
	return xs, ws
}

func filterPairs(x, y []float64) ([]float64, []float64) {
	n := len(x)
	if len(y) < n {
		n = len(y)
	}
	xs := make([]float64, 0, n)
	ys := make([]float64, 0, n)
	for i := 0; i < n; i++ {
		if math.IsNaN(x[i]) || math.IsNaN(y[i]) {
			continue
		}
		xs = append(xs, x[i])
		ys = append(ys, y[i])
	}
	return xs, ys
}

// weightedByValue sorts a value slice and its weights in lockstep.
type weightedByValue struct {
	xs []float64
	ws []float64
}

func (s weightedByValue) Len() int           { return len(s.xs) }
func (s weightedByValue) Less(i, j int) bool { return s.xs[i] < s.xs[j] }
func (s weightedByValue) Swap(i, j int) {
	s.xs[i], s.xs[j] = s.xs[j], s.xs[i]
	s.ws[i], s.ws[j] = s.ws[j], s.ws[i]
}
