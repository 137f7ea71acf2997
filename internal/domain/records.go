package domain

import (
	"errors"
	"maps"
	"math"
	"slices"
)

// Positional indices into Classification.LeftRight. The classifier emits the
// right-support score first and the left-support score second.
const (
	RightIndex = 0
	LeftIndex  = 1
)

// Corpus maps a party identifier to the classified paragraphs of that
// party's program, in document order. It is the decoded form of the
// classifier output file.
type Corpus map[string][]ParagraphRecord

// Parties returns the party identifiers of the corpus in sorted order.
// Every stage iterates parties in this order so that output is reproducible.
func (c Corpus) Parties() []string {
	return slices.Sorted(maps.Keys(c))
}

// Paragraphs returns the total number of paragraphs across all parties.
func (c Corpus) Paragraphs() int {
	n := 0
	for _, paragraphs := range c {
		n += len(paragraphs)
	}
	return n
}

// ParagraphRecord is one classified paragraph.
type ParagraphRecord struct {
	// FIPI holds the classifier predictions for the paragraph.
	FIPI *Classification `json:"fipi"`
}

// Classification holds the policy-domain and left/right predictions for a
// single paragraph.
type Classification struct {
	// Domain lists the policy labels the paragraph was classified into,
	// each with a confidence in [0, 1].
	Domain []DomainPrediction `json:"domain"`

	// LeftRight is a fixed two-element sequence: index 0 is the right-support
	// score and index 1 the left-support score. The order is part of the
	// input contract and must not be changed.
	LeftRight []PositionPrediction `json:"leftright"`
}

// DomainPrediction is the classifier confidence for one policy label.
type DomainPrediction struct {
	Label      string  `json:"label"`
	Prediction float64 `json:"prediction"`
}

// PositionPrediction is a single left or right support score.
type PositionPrediction struct {
	Prediction float64 `json:"prediction"`
}

// Right returns the right-support score. Callers must Validate first.
func (c *Classification) Right() float64 { return c.LeftRight[RightIndex].Prediction }

// Left returns the left-support score. Callers must Validate first.
func (c *Classification) Left() float64 { return c.LeftRight[LeftIndex].Prediction }

// Validate reports the first structural problem that prevents the record
// from being accumulated. The returned error is a plain description; callers
// attach party and position with NewRecordError.
func (r ParagraphRecord) Validate() error {
	if r.FIPI == nil {
		return errors.New("missing fipi classification")
	}
	// An empty domain array is valid; the paragraph contributes nothing.
	if r.FIPI.Domain == nil {
		return errors.New("missing domain predictions")
	}
	if len(r.FIPI.LeftRight) != 2 {
		return errors.New("leftright must have exactly two elements")
	}
	for _, p := range r.FIPI.LeftRight {
		if !isFinite(p.Prediction) {
			return errors.New("leftright prediction is not a finite number")
		}
	}
	for _, d := range r.FIPI.Domain {
		if d.Label == "" {
			return errors.New("domain entry has an empty label")
		}
		if !isFinite(d.Prediction) || d.Prediction < 0 || d.Prediction > 1 {
			return errors.New("domain prediction for " + d.Label + " is outside [0, 1]")
		}
	}
	return nil
}

func isFinite(v float64) bool { return !math.IsNaN(v) && !math.IsInf(v, 0) }
