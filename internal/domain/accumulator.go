package domain

import (
	"fmt"
	"maps"
	"slices"
)

// TotalLabel is the synthetic policy label whose accumulator merges every
// real policy accumulator of a party.
const TotalLabel = "Total"

// Accumulator collects the contributions of one party to one policy label as
// three parallel sequences. Index i of Left, Right and Weight always refers
// to the same paragraph/label contribution.
type Accumulator struct {
	Left   []float64 `json:"left"`
	Right  []float64 `json:"right"`
	Weight []float64 `json:"weight"`
}

// Len returns the number of contributions held by the accumulator.
func (a Accumulator) Len() int { return len(a.Weight) }

// Append returns the accumulator extended by one contribution.
func (a Accumulator) Append(left, right, weight float64) Accumulator {
	return Accumulator{
		Left:   append(a.Left, left),
		Right:  append(a.Right, right),
		Weight: append(a.Weight, weight),
	}
}

// Concat returns a new accumulator holding a's contributions followed by
// b's. Neither input shares backing storage with the result.
func (a Accumulator) Concat(b Accumulator) Accumulator {
	return Accumulator{
		Left:   slices.Concat(a.Left, b.Left),
		Right:  slices.Concat(a.Right, b.Right),
		Weight: slices.Concat(a.Weight, b.Weight),
	}
}

// WeightSum returns the sum of all contribution weights.
func (a Accumulator) WeightSum() float64 {
	var sum float64
	for _, w := range a.Weight {
		sum += w
	}
	return sum
}

// Positions returns the net rightward position right[i] - left[i] of every
// contribution.
func (a Accumulator) Positions() []float64 {
	values := make([]float64, len(a.Left))
	for i := range a.Left {
		values[i] = a.Right[i] - a.Left[i]
	}
	return values
}

// Validate checks the parallel-sequence invariant.
func (a Accumulator) Validate() error {
	if len(a.Left) != len(a.Right) || len(a.Right) != len(a.Weight) {
		return fmt.Errorf("%w: left=%d right=%d weight=%d",
			ErrLengthMismatch, len(a.Left), len(a.Right), len(a.Weight))
	}
	return nil
}

// PolicyAccumulators maps a policy label to the party's accumulator for it.
type PolicyAccumulators map[string]Accumulator

// Labels returns the policy labels in sorted order.
func (p PolicyAccumulators) Labels() []string {
	return slices.Sorted(maps.Keys(p))
}

// PartyAggregate is the per-party input of the analysis stage: every policy
// accumulator plus the synthetic TotalLabel accumulator, and the weight
// denominator used to express each policy as a share of the party.
type PartyAggregate struct {
	Policies PolicyAccumulators `json:"policies"`
	Count    float64            `json:"count"`
}
