// Package stats provides the weighted descriptive statistics used to
// summarize party positions: weighted mean, weighted median and weighted
// population standard deviation over parallel value and weight sequences.
//
// All functions return full-precision results. Rounding for presentation is
// the caller's job and is provided separately by Round.
package stats

import (
	"cmp"
	"fmt"
	"math"
	"slices"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/floats/scalar"
	"gonum.org/v1/gonum/stat"

	"github.com/ahrav/go-polindex/internal/domain"
)

// boundaryTol is the tolerance, as a fraction of the total weight, for
// deciding that a cumulative weight sits exactly on the midpoint. Scaling it
// by the total keeps the median invariant under rescaling of the weights.
const boundaryTol = 1e-9

// validate checks the shared preconditions of the weighted primitives and
// returns the total weight.
func validate(values, weights []float64) (float64, error) {
	if len(values) == 0 {
		return 0, domain.ErrEmptyValueSet
	}
	if len(values) != len(weights) {
		return 0, fmt.Errorf("%w: values=%d, weights=%d", domain.ErrLengthMismatch, len(values), len(weights))
	}
	for i, w := range weights {
		if w < 0 || math.IsNaN(w) || math.IsInf(w, 0) {
			return 0, fmt.Errorf("invalid weight at index %d: %f", i, w)
		}
	}
	total := floats.Sum(weights)
	if total == 0 {
		return 0, domain.ErrZeroWeightSum
	}
	return total, nil
}

// WeightedMean returns sum(values[i]*weights[i]) / sum(weights).
//
// It returns domain.ErrEmptyValueSet for empty input,
// domain.ErrLengthMismatch when the sequences differ in length and
// domain.ErrZeroWeightSum when the weights sum to zero.
func WeightedMean(values, weights []float64) (float64, error) {
	if _, err := validate(values, weights); err != nil {
		return 0, err
	}
	return stat.Mean(values, weights), nil
}

// WeightedStdDev returns the weighted population standard deviation
// sqrt(sum(weights[i]*(values[i]-mean)^2) / sum(weights)), where mean is the
// weighted mean. Errors match WeightedMean.
func WeightedStdDev(values, weights []float64) (float64, error) {
	if _, err := validate(values, weights); err != nil {
		return 0, err
	}
	_, variance := stat.PopMeanVariance(values, weights)
	// The compensated two-pass sum can dip just below zero for constant input.
	return math.Sqrt(math.Max(variance, 0)), nil
}

// pair is one (value, weight) observation.
type pair struct {
	value  float64
	weight float64
}

// WeightedMedian returns the value at which the cumulative weight of the
// observations, sorted ascending by value, first exceeds half of the total
// weight.
//
// Observations with equal values keep their input order (stable sort), which
// makes the result reproducible. Two special cases apply:
//
//   - Dominant weight: if a single weight exceeds half the total, the value
//     carrying the first maximum weight is returned regardless of where it
//     sorts.
//   - Boundary: if the weight accumulated before the crossing observation
//     equals half the total, the median falls between two observations and
//     the mean of the crossing value and its predecessor is returned.
//
// For example values [1, 3] with weights [1, 1] yield 2.
//
// Errors match WeightedMean.
func WeightedMedian(values, weights []float64) (float64, error) {
	total, err := validate(values, weights)
	if err != nil {
		return 0, err
	}

	pairs := make([]pair, len(values))
	for i := range values {
		pairs[i] = pair{value: values[i], weight: weights[i]}
	}
	slices.SortStableFunc(pairs, func(a, b pair) int { return cmp.Compare(a.value, b.value) })

	sortedValues := make([]float64, len(pairs))
	sortedWeights := make([]float64, len(pairs))
	for i, p := range pairs {
		sortedValues[i] = p.value
		sortedWeights[i] = p.weight
	}

	midpoint := 0.5 * total
	tol := boundaryTol * total

	// A weight within tolerance of the midpoint is on it, not above it.
	if floats.Max(sortedWeights)-midpoint > tol {
		return sortedValues[floats.MaxIdx(sortedWeights)], nil
	}

	// j is the number of observations consumed when the running weight first
	// exceeds the midpoint; before is the running weight without the j-th one.
	// A running weight within tolerance of the midpoint does not exceed it.
	var cumulative, before float64
	j := 0
	for j < len(sortedWeights) && (cumulative < midpoint || onMidpoint(cumulative, midpoint, tol)) {
		before = cumulative
		cumulative += sortedWeights[j]
		j++
	}

	if j >= 2 && onMidpoint(before, midpoint, tol) {
		return (sortedValues[j-2] + sortedValues[j-1]) / 2, nil
	}
	return sortedValues[j-1], nil
}

func onMidpoint(cumulative, midpoint, tol float64) bool {
	return scalar.EqualWithinAbs(cumulative, midpoint, tol)
}

// MinMax returns the smallest and largest of values.
func MinMax(values []float64) (lo, hi float64, err error) {
	if len(values) == 0 {
		return 0, 0, domain.ErrEmptyValueSet
	}
	return floats.Min(values), floats.Max(values), nil
}

// Round rounds v to the given number of decimal places, with halves rounded
// toward positive infinity (-0.125 becomes -0.12 at two places).
func Round(v float64, places int) float64 {
	scale := math.Pow(10, float64(places))
	return math.Floor(v*scale+0.5) / scale
}
