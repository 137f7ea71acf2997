package units

import (
	"context"
	"fmt"
	"maps"
	"slices"

	"golang.org/x/sync/errgroup"

	"github.com/ahrav/go-polindex/internal/domain"
	"github.com/ahrav/go-polindex/internal/ports"
	"github.com/ahrav/go-polindex/internal/stats"
)

var _ ports.Unit = (*AnalyzeUnit)(nil)

// AnalyzeUnit computes one domain.PartyStat for every (party, policy)
// accumulator, Total included, and groups them by policy.
//
// For each accumulator the position series is right[i] - left[i] and the
// weights are the accumulator weights. Percent is the accumulator's weight
// sum over the party denominator, times 100. Every figure is rounded to
// AnalyzeConfig.Precision decimal places.
//
// Parties may be analyzed concurrently; the report lists parties in sorted
// order under each policy regardless of Concurrency.
//
// Error Conditions:
//   - *domain.StatError wrapping domain.ErrZeroWeightSum when an accumulator
//     or a party denominator has zero total weight
//   - *domain.StatError wrapping domain.ErrEmptyValueSet for an empty accumulator
type AnalyzeUnit struct {
	name   string
	config AnalyzeConfig
}

// AnalyzeConfig defines the configuration parameters for the AnalyzeUnit.
type AnalyzeConfig struct {
	// Precision is the number of decimal places every statistic is rounded to.
	//
	// Range: 0 to 6
	// Default: 2
	Precision int `yaml:"precision" json:"precision" validate:"min=0,max=6"`

	// Concurrency bounds how many parties are analyzed in parallel.
	//
	// Range: 1 to 64
	// Default: 1
	Concurrency int `yaml:"concurrency" json:"concurrency" validate:"min=1,max=64"`
}

// DefaultAnalyzeConfig returns an AnalyzeConfig rounding to two places and
// analyzing one party at a time.
func DefaultAnalyzeConfig() AnalyzeConfig {
	return AnalyzeConfig{Precision: 2, Concurrency: 1}
}

// NewAnalyzeUnit creates a new AnalyzeUnit with the specified configuration.
func NewAnalyzeUnit(name string, config AnalyzeConfig) (*AnalyzeUnit, error) {
	if name == "" {
		return nil, ErrEmptyUnitName
	}
	if err := validate.Struct(config); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return &AnalyzeUnit{name: name, config: config}, nil
}

// NewAnalyzeFromConfig creates an AnalyzeUnit from a configuration map.
func NewAnalyzeFromConfig(id string, config map[string]any) (ports.Unit, error) {
	cfg := DefaultAnalyzeConfig()
	if err := decodeConfig(config, &cfg); err != nil {
		return nil, err
	}
	return NewAnalyzeUnit(id, cfg)
}

// Name returns the unique identifier for this unit instance.
func (an *AnalyzeUnit) Name() string { return an.name }

// Execute reads domain.KeyAggregates and stores the report under
// domain.KeyReport.
func (an *AnalyzeUnit) Execute(ctx context.Context, state domain.State) (domain.State, error) {
	aggregates, err := domain.Require(state, domain.KeyAggregates)
	if err != nil {
		return state, err
	}

	report, err := an.Analyze(ctx, aggregates)
	if err != nil {
		return state, err
	}

	return domain.With(state, domain.KeyReport, report), nil
}

// policyStat pairs a computed statistic with the policy it belongs to.
type policyStat struct {
	policy string
	stat   domain.PartyStat
}

// Analyze computes the policy report for all aggregates.
func (an *AnalyzeUnit) Analyze(
	ctx context.Context,
	aggregates map[string]domain.PartyAggregate,
) (domain.PolicyReport, error) {
	parties := slices.Sorted(maps.Keys(aggregates))
	results := make([][]policyStat, len(parties))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(an.config.Concurrency)
	for i, party := range parties {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			partyStats, err := an.analyzeParty(party, aggregates[party])
			if err != nil {
				return err
			}
			results[i] = partyStats
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	report := make(domain.PolicyReport)
	for _, partyStats := range results {
		for _, ps := range partyStats {
			report[ps.policy] = append(report[ps.policy], ps.stat)
		}
	}
	return report, nil
}

func (an *AnalyzeUnit) analyzeParty(party string, aggregate domain.PartyAggregate) ([]policyStat, error) {
	if aggregate.Count == 0 {
		return nil, domain.NewStatError(party, domain.TotalLabel, "percent", domain.ErrZeroWeightSum)
	}

	labels := aggregate.Policies.Labels()
	out := make([]policyStat, 0, len(labels))
	for _, label := range labels {
		stat, err := an.describe(party, label, aggregate.Policies[label], aggregate.Count)
		if err != nil {
			return nil, err
		}
		out = append(out, policyStat{policy: label, stat: stat})
	}
	return out, nil
}

// describe computes the rounded statistics of one accumulator.
func (an *AnalyzeUnit) describe(
	party, policy string,
	acc domain.Accumulator,
	count float64,
) (domain.PartyStat, error) {
	if err := acc.Validate(); err != nil {
		return domain.PartyStat{}, domain.NewStatError(party, policy, "accumulator", err)
	}

	values := acc.Positions()
	weights := acc.Weight

	lo, hi, err := stats.MinMax(values)
	if err != nil {
		return domain.PartyStat{}, domain.NewStatError(party, policy, "min/max", err)
	}
	mean, err := stats.WeightedMean(values, weights)
	if err != nil {
		return domain.PartyStat{}, domain.NewStatError(party, policy, "mean", err)
	}
	median, err := stats.WeightedMedian(values, weights)
	if err != nil {
		return domain.PartyStat{}, domain.NewStatError(party, policy, "median", err)
	}
	stdDev, err := stats.WeightedStdDev(values, weights)
	if err != nil {
		return domain.PartyStat{}, domain.NewStatError(party, policy, "stdDev", err)
	}

	round := func(v float64) float64 { return stats.Round(v, an.config.Precision) }
	return domain.PartyStat{
		Party:   party,
		Percent: round(acc.WeightSum() / count * 100),
		Min:     round(lo),
		Max:     round(hi),
		Mean:    round(mean),
		Median:  round(median),
		StdDev:  round(stdDev),
	}, nil
}

// Validate checks if the unit is properly configured.
func (an *AnalyzeUnit) Validate() error {
	if err := validate.Struct(an.config); err != nil {
		return fmt.Errorf("configuration validation failed: %w", err)
	}
	return nil
}
