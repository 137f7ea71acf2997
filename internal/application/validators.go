package application

import (
	"fmt"
	"maps"
	"slices"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// ValidateUnitParameters checks the parameters of one unit against the keys
// and value ranges its type understands. Range checks are repeated by the
// unit constructors; this pass exists to report unknown or mistyped keys
// with the unit ID attached, before any unit is built.
func ValidateUnitParameters(unitType string, params yaml.Node) error {
	paramMap, err := decodeParameters(params)
	if err != nil {
		return err
	}

	switch unitType {
	case UnitTypeTransform:
		return validateTransformParams(paramMap)
	case UnitTypeAggregate:
		return validateAggregateParams(paramMap)
	case UnitTypeAnalyze:
		return validateAnalyzeParams(paramMap)
	default:
		return fmt.Errorf("unknown unit type: %s", unitType)
	}
}

// decodeParameters converts a parameters node into a map. An absent node
// decodes to an empty map.
func decodeParameters(params yaml.Node) (map[string]any, error) {
	paramMap := make(map[string]any)
	if params.IsZero() {
		return paramMap, nil
	}
	if err := params.Decode(&paramMap); err != nil {
		return nil, fmt.Errorf("failed to decode parameters: %w", err)
	}
	if paramMap == nil {
		paramMap = make(map[string]any)
	}
	return paramMap, nil
}

func validateTransformParams(params map[string]any) error {
	if err := rejectUnknown(params, "min_weight"); err != nil {
		return err
	}
	if v, ok := params["min_weight"]; ok {
		w, ok := toFloat(v)
		if !ok {
			return fmt.Errorf("min_weight must be a number")
		}
		if w < 0 || w > 1 {
			return fmt.Errorf("min_weight must be between 0 and 1")
		}
	}
	return nil
}

func validateAggregateParams(params map[string]any) error {
	if err := rejectUnknown(params, "denominator"); err != nil {
		return err
	}
	if v, ok := params["denominator"]; ok {
		d, ok := v.(string)
		if !ok {
			return fmt.Errorf("denominator must be a string")
		}
		if d != "policies" && d != "with_total" {
			return fmt.Errorf("invalid denominator: %s", d)
		}
	}
	return nil
}

func validateAnalyzeParams(params map[string]any) error {
	if err := rejectUnknown(params, "precision", "concurrency"); err != nil {
		return err
	}
	if v, ok := params["precision"]; ok {
		p, ok := v.(int)
		if !ok {
			return fmt.Errorf("precision must be an integer")
		}
		if p < 0 || p > 6 {
			return fmt.Errorf("precision must be between 0 and 6")
		}
	}
	if v, ok := params["concurrency"]; ok {
		c, ok := v.(int)
		if !ok {
			return fmt.Errorf("concurrency must be an integer")
		}
		if c < 1 || c > 64 {
			return fmt.Errorf("concurrency must be between 1 and 64")
		}
	}
	return nil
}

func rejectUnknown(params map[string]any, known ...string) error {
	for _, key := range slices.Sorted(maps.Keys(params)) {
		if !slices.Contains(known, key) {
			return fmt.Errorf("unknown parameter %q", key)
		}
	}
	return nil
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	default:
		return 0, false
	}
}

// registerCustomValidators registers the semver validator used by
// PipelineConfig.Version.
func registerCustomValidators(v *validator.Validate) error {
	if err := v.RegisterValidation("semver", validateSemver); err != nil {
		return fmt.Errorf("failed to register semver validator: %w", err)
	}
	return nil
}

// validateSemver validates that a string follows the X.Y.Z format where
// X, Y and Z are non-negative integers.
func validateSemver(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	var major, minor, patch int
	n, err := fmt.Sscanf(value, "%d.%d.%d", &major, &minor, &patch)
	return err == nil && n == 3 && major >= 0 && minor >= 0 && patch >= 0
}
