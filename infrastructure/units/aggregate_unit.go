package units

import (
	"context"
	"fmt"
	"log/slog"
	"maps"
	"slices"

	"github.com/ahrav/go-polindex/internal/domain"
	"github.com/ahrav/go-polindex/internal/logging"
	"github.com/ahrav/go-polindex/internal/ports"
)

var _ ports.Unit = (*AggregateUnit)(nil)

// AggregateUnit adds the synthetic Total accumulator to every party and
// computes the party's percentage denominator.
//
// Total is the concatenation of the party's policy accumulators in sorted
// label order. The denominator depends on AggregateConfig.Denominator.
// Parties without any contribution are skipped: they get no Total and do
// not appear in the report.
type AggregateUnit struct {
	name   string
	config AggregateConfig
	logger *slog.Logger
}

// AggregateConfig defines the configuration parameters for the AggregateUnit.
type AggregateConfig struct {
	// Denominator selects which accumulators are summed into a party's
	// percentage denominator.
	//
	// Supported values:
	//   - "policies": real policy accumulators only
	//   - "with_total": real policies plus Total (double counts)
	//
	// Default: "policies".
	Denominator Denominator `yaml:"denominator" json:"denominator" validate:"required,oneof=policies with_total"`
}

// DefaultAggregateConfig returns an AggregateConfig using the policies-only
// denominator.
func DefaultAggregateConfig() AggregateConfig {
	return AggregateConfig{Denominator: DenominatorPolicies}
}

// NewAggregateUnit creates a new AggregateUnit with the specified configuration.
func NewAggregateUnit(name string, config AggregateConfig) (*AggregateUnit, error) {
	if name == "" {
		return nil, ErrEmptyUnitName
	}
	if err := validate.Struct(config); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return &AggregateUnit{
		name:   name,
		config: config,
		logger: logging.New("aggregate").With(slog.String("unit", name)),
	}, nil
}

// NewAggregateFromConfig creates an AggregateUnit from a configuration map.
func NewAggregateFromConfig(id string, config map[string]any) (ports.Unit, error) {
	cfg := DefaultAggregateConfig()
	if err := decodeConfig(config, &cfg); err != nil {
		return nil, err
	}
	return NewAggregateUnit(id, cfg)
}

// Name returns the unique identifier for this unit instance.
func (au *AggregateUnit) Name() string { return au.name }

// Execute reads domain.KeyAccumulators and stores the aggregates under
// domain.KeyAggregates.
func (au *AggregateUnit) Execute(ctx context.Context, state domain.State) (domain.State, error) {
	accumulators, err := domain.Require(state, domain.KeyAccumulators)
	if err != nil {
		return state, err
	}

	aggregates, err := au.Aggregate(ctx, accumulators)
	if err != nil {
		return state, err
	}

	return domain.With(state, domain.KeyAggregates, aggregates), nil
}

// Aggregate builds one PartyAggregate per party that has contributions.
// The input is not modified.
func (au *AggregateUnit) Aggregate(
	ctx context.Context,
	accumulators map[string]domain.PolicyAccumulators,
) (map[string]domain.PartyAggregate, error) {
	result := make(map[string]domain.PartyAggregate, len(accumulators))

	for _, party := range slices.Sorted(maps.Keys(accumulators)) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		policies := accumulators[party]
		if len(policies) == 0 {
			au.logger.Warn("party has no contributions, skipping", slog.String("party", party))
			continue
		}

		merged := make(domain.PolicyAccumulators, len(policies)+1)
		var total domain.Accumulator
		var policyWeight float64
		for _, label := range policies.Labels() {
			acc := policies[label]
			if err := acc.Validate(); err != nil {
				return nil, fmt.Errorf("party %s, policy %s: %w", party, label, err)
			}
			merged[label] = acc
			total = total.Concat(acc)
			policyWeight += acc.WeightSum()
		}
		merged[domain.TotalLabel] = total

		count := policyWeight
		if au.config.Denominator == DenominatorWithTotal {
			count += total.WeightSum()
		}

		result[party] = domain.PartyAggregate{Policies: merged, Count: count}
	}

	return result, nil
}

// Validate checks if the unit is properly configured.
func (au *AggregateUnit) Validate() error {
	if err := validate.Struct(au.config); err != nil {
		return fmt.Errorf("configuration validation failed: %w", err)
	}
	return nil
}
