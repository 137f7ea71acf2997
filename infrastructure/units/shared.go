// Package units provides the pipeline stages that implement the ports.Unit
// interface: transform, aggregate and analyze.
package units

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Denominator selects how a party's percentage denominator is computed.
type Denominator string

// Supported denominator modes for the aggregate unit.
const (
	// DenominatorPolicies sums the weights of the real policy accumulators
	// only, so a party's policy percentages add up to 100.
	DenominatorPolicies Denominator = "policies"

	// DenominatorWithTotal also adds the weights of the synthetic Total
	// accumulator, counting every contribution twice. Percentages come out
	// halved; this reproduces reports produced by earlier tooling.
	DenominatorWithTotal Denominator = "with_total"
)

// Common errors returned by the pipeline units.
var (
	// ErrEmptyUnitName is returned when attempting to create a unit with an empty name.
	ErrEmptyUnitName = errors.New("unit name cannot be empty")

	// ErrReservedLabel is returned when a classifier label collides with
	// the synthetic Total label.
	ErrReservedLabel = errors.New("label is reserved")
)

// Package-level validator instance for configuration validation.
// Uses go-playground/validator v10 for struct tag-based validation.
var validate = validator.New()

// decodeConfig overlays a configuration map onto cfg, which must already
// hold the defaults. Validation is left to the unit constructors.
func decodeConfig(config map[string]any, cfg any) error {
	// Use yaml marshaling for clean conversion.
	data, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config: %w", err)
	}
	return nil
}
