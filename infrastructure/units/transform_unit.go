package units

import (
	"context"
	"fmt"

	"github.com/ahrav/go-polindex/internal/domain"
	"github.com/ahrav/go-polindex/internal/ports"
)

var _ ports.Unit = (*TransformUnit)(nil)

// TransformUnit turns the per-party paragraph lists of the corpus into
// per-party, per-policy accumulators of parallel (left, right, weight)
// sequences.
//
// A paragraph classified into k policy labels contributes k entries, one per
// label, each carrying the paragraph's left/right scores and the label's own
// confidence as weight. Entries are appended in paragraph order.
//
// Error Conditions:
//   - Returns a *domain.RecordError (matching domain.ErrMalformedRecord) for
//     the first paragraph that fails validation
//   - Returns ErrReservedLabel wrapped in a RecordError when a paragraph
//     carries the synthetic Total label
type TransformUnit struct {
	name   string
	config TransformConfig
}

// TransformConfig defines the configuration parameters for the TransformUnit.
type TransformConfig struct {
	// MinWeight drops domain predictions whose confidence is strictly below
	// it. Zero keeps every prediction.
	//
	// Range: 0.0 to 1.0 (inclusive)
	// Default: 0.0
	MinWeight float64 `yaml:"min_weight" json:"min_weight" validate:"min=0,max=1"`
}

// DefaultTransformConfig returns a TransformConfig that keeps every prediction.
func DefaultTransformConfig() TransformConfig {
	return TransformConfig{MinWeight: 0}
}

// NewTransformUnit creates a new TransformUnit with the specified configuration.
func NewTransformUnit(name string, config TransformConfig) (*TransformUnit, error) {
	if name == "" {
		return nil, ErrEmptyUnitName
	}
	if err := validate.Struct(config); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return &TransformUnit{name: name, config: config}, nil
}

// NewTransformFromConfig creates a TransformUnit from a configuration map.
// This is the boundary adapter for YAML/JSON configuration.
func NewTransformFromConfig(id string, config map[string]any) (ports.Unit, error) {
	cfg := DefaultTransformConfig()
	if err := decodeConfig(config, &cfg); err != nil {
		return nil, err
	}
	return NewTransformUnit(id, cfg)
}

// Name returns the unique identifier for this unit instance.
func (tu *TransformUnit) Name() string { return tu.name }

// Execute reads domain.KeyCorpus and stores the accumulators under
// domain.KeyAccumulators.
func (tu *TransformUnit) Execute(ctx context.Context, state domain.State) (domain.State, error) {
	corpus, err := domain.Require(state, domain.KeyCorpus)
	if err != nil {
		return state, err
	}

	accumulators, err := tu.Transform(ctx, corpus)
	if err != nil {
		return state, err
	}

	return domain.With(state, domain.KeyAccumulators, accumulators), nil
}

// Transform builds the accumulators for every party of the corpus.
// Parties are processed in sorted order; every party of the corpus gets an
// entry, possibly empty.
func (tu *TransformUnit) Transform(
	ctx context.Context,
	corpus domain.Corpus,
) (map[string]domain.PolicyAccumulators, error) {
	result := make(map[string]domain.PolicyAccumulators, len(corpus))

	for _, party := range corpus.Parties() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		policies := make(domain.PolicyAccumulators)
		for i, paragraph := range corpus[party] {
			if err := paragraph.Validate(); err != nil {
				return nil, domain.NewRecordError(party, i, err)
			}

			left, right := paragraph.FIPI.Left(), paragraph.FIPI.Right()
			for _, prediction := range paragraph.FIPI.Domain {
				if prediction.Label == domain.TotalLabel {
					return nil, domain.NewRecordError(party, i,
						fmt.Errorf("%w: %q", ErrReservedLabel, prediction.Label))
				}
				if prediction.Prediction < tu.config.MinWeight {
					continue
				}
				policies[prediction.Label] = policies[prediction.Label].Append(left, right, prediction.Prediction)
			}
		}
		result[party] = policies
	}

	return result, nil
}

// Validate checks if the unit is properly configured.
func (tu *TransformUnit) Validate() error {
	if err := validate.Struct(tu.config); err != nil {
		return fmt.Errorf("configuration validation failed: %w", err)
	}
	return nil
}
