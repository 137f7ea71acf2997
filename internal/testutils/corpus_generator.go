// Package testutils provides utilities for testing, including a generator
// of synthetic classified corpora. These components are intended for the
// project's test suites and the generate command; they are not part of the
// public API.
package testutils

import (
	"encoding/json"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"slices"

	"github.com/go-playground/validator/v10"

	"github.com/ahrav/go-polindex/internal/domain"
	"github.com/ahrav/go-polindex/internal/stats"
)

// DefaultPolicyLabels are the top-level policy domains of the Manifesto
// Project coding scheme, used when CorpusOptions.Labels is zero.
var DefaultPolicyLabels = []string{
	"Economy",
	"External Relations",
	"Fabric of Society",
	"Freedom and Democracy",
	"Political System",
	"Social Groups",
	"Welfare and Quality of Life",
}

// CorpusOptions controls the shape of a generated corpus.
type CorpusOptions struct {
	// Parties is the number of parties, named P01, P02, ...
	Parties int `validate:"min=1,max=1000"`
	// Paragraphs is the number of paragraphs per party.
	Paragraphs int `validate:"min=0,max=100000"`
	// Labels is how many of DefaultPolicyLabels are used. Zero uses all.
	Labels int `validate:"min=0,max=7"`
	// MaxLabelsPerParagraph bounds the domain predictions per paragraph.
	MaxLabelsPerParagraph int `validate:"min=1,max=7"`
}

// DefaultCorpusOptions returns options for a small corpus of five parties.
func DefaultCorpusOptions() CorpusOptions {
	return CorpusOptions{Parties: 5, Paragraphs: 40, Labels: 0, MaxLabelsPerParagraph: 3}
}

var optionsValidator = validator.New()

// GenerateCorpus creates a synthetic corpus. The same options and seed always
// produce the same corpus.
//
// Each paragraph has a leftright pair summing to one and between one and
// MaxLabelsPerParagraph distinct domain predictions whose confidences sum to
// at most one. All figures are rounded to four decimal places, like
// classifier output written to JSON.
func GenerateCorpus(opts CorpusOptions, seed int64) (domain.Corpus, error) {
	if err := optionsValidator.Struct(opts); err != nil {
		return nil, fmt.Errorf("invalid corpus options: %w", err)
	}

	labels := DefaultPolicyLabels
	if opts.Labels > 0 {
		labels = DefaultPolicyLabels[:opts.Labels]
	}
	maxLabels := min(opts.MaxLabelsPerParagraph, len(labels))

	rng := rand.New(rand.NewSource(seed))
	corpus := make(domain.Corpus, opts.Parties)
	for p := range opts.Parties {
		party := fmt.Sprintf("P%02d", p+1)
		// Each party leans somewhere; paragraphs scatter around the lean.
		lean := rng.Float64()

		paragraphs := make([]domain.ParagraphRecord, 0, opts.Paragraphs)
		for range opts.Paragraphs {
			paragraphs = append(paragraphs, generateParagraph(rng, labels, maxLabels, lean))
		}
		corpus[party] = paragraphs
	}
	return corpus, nil
}

func generateParagraph(rng *rand.Rand, labels []string, maxLabels int, lean float64) domain.ParagraphRecord {
	right := stats.Round(clamp(lean+rng.NormFloat64()*0.2, 0.0001, 0.9999), 4)
	left := stats.Round(1-right, 4)

	k := 1 + rng.Intn(maxLabels)
	picked := rng.Perm(len(labels))[:k]
	slices.Sort(picked)

	raw := make([]float64, k)
	var sum float64
	for i := range raw {
		raw[i] = 0.05 + rng.Float64()
		sum += raw[i]
	}
	mass := 0.6 + 0.4*rng.Float64()

	predictions := make([]domain.DomainPrediction, k)
	for i, idx := range picked {
		predictions[i] = domain.DomainPrediction{
			Label:      labels[idx],
			Prediction: roundWeight(raw[i] / sum * mass),
		}
	}

	return domain.ParagraphRecord{FIPI: &domain.Classification{
		Domain: predictions,
		LeftRight: []domain.PositionPrediction{
			{Prediction: right},
			{Prediction: left},
		},
	}}
}

// roundWeight rounds to four places, keeping the result strictly positive.
func roundWeight(v float64) float64 {
	return max(stats.Round(v, 4), 0.0001)
}

func clamp(v, lo, hi float64) float64 {
	return min(max(v, lo), hi)
}

// CorpusStatistics summarizes a corpus.
type CorpusStatistics struct {
	Parties       int
	Paragraphs    int
	Contributions int
	LabelCounts   map[string]int
}

// ComputeCorpusStatistics counts parties, paragraphs and per-label domain
// predictions. Paragraphs without a classification are counted but
// contribute no labels.
func ComputeCorpusStatistics(corpus domain.Corpus) CorpusStatistics {
	s := CorpusStatistics{
		Parties:     len(corpus),
		Paragraphs:  corpus.Paragraphs(),
		LabelCounts: make(map[string]int),
	}
	for _, paragraphs := range corpus {
		for _, p := range paragraphs {
			if p.FIPI == nil {
				continue
			}
			for _, d := range p.FIPI.Domain {
				s.LabelCounts[d.Label]++
				s.Contributions++
			}
		}
	}
	return s
}

// SaveCorpus writes corpus to path as indented JSON, creating parent
// directories.
func SaveCorpus(corpus domain.Corpus, path string) error {
	data, err := json.MarshalIndent(corpus, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal corpus: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("failed to write corpus: %w", err)
	}
	return nil
}
