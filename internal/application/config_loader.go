package application

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/go-playground/validator/v10"
	"golang.org/x/sync/singleflight"
	"gopkg.in/yaml.v3"

	"github.com/ahrav/go-polindex/internal/domain"
	"github.com/ahrav/go-polindex/internal/ports"
)

// Plan is a validated configuration together with the pipeline compiled
// from it.
// Plans returned by ConfigLoader are shared through its cache and MUST NOT
// be mutated; in particular no executables may be added to Pipeline.
type Plan struct {
	Config   *PipelineConfig
	Pipeline *Pipeline
}

// ConfigLoader parses, validates and compiles pipeline configurations.
// Compiled plans are cached by the SHA-256 of the normalized configuration,
// so loading the same document twice returns the same *Plan.
type ConfigLoader struct {
	// validator performs struct tag validation of PipelineConfig.
	validator *validator.Validate
	// unitRegistry builds units from their type and parameters.
	unitRegistry ports.UnitRegistry
	// cache maps configuration hashes to compiled plans.
	cache map[string]*Plan
	// cacheMu guards cache.
	cacheMu sync.RWMutex
	// sf prevents duplicate compilation when several goroutines load the
	// same configuration simultaneously.
	sf singleflight.Group
}

// NewConfigLoader creates a loader that builds units through unitRegistry.
// NewConfigLoader returns an error if validator registration fails.
func NewConfigLoader(unitRegistry ports.UnitRegistry) (*ConfigLoader, error) {
	v := validator.New()

	if err := registerCustomValidators(v); err != nil {
		return nil, fmt.Errorf("failed to register validators: %w", err)
	}

	return &ConfigLoader{
		validator:    v,
		unitRegistry: unitRegistry,
		cache:        make(map[string]*Plan),
	}, nil
}

// load is the common implementation behind the public Load methods.
func (cl *ConfigLoader) load(ctx context.Context, data []byte) (*Plan, error) {
	config, err := cl.parseYAML(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	// Hash the normalized config, not the raw bytes, so formatting
	// differences share a cache entry.
	hash, err := cl.calculateConfigHash(config)
	if err != nil {
		return nil, fmt.Errorf("failed to calculate hash: %w", err)
	}

	v, err, _ := cl.sf.Do(hash, func() (any, error) {
		if plan, ok := cl.getCachedPlan(hash); ok {
			return plan, nil
		}

		if err := cl.validateConfig(config); err != nil {
			return nil, fmt.Errorf("validation failed: %w", err)
		}

		pipeline, err := cl.buildPipeline(ctx, config)
		if err != nil {
			return nil, fmt.Errorf("failed to build pipeline: %w", err)
		}

		plan := &Plan{Config: config, Pipeline: pipeline}
		cl.cachePlan(hash, plan)

		return plan, nil
	})
	if err != nil {
		return nil, err
	}

	return v.(*Plan), nil
}

// LoadFromFile loads and compiles a pipeline configuration from a YAML
// file. A missing file is reported as ports.ErrConfigNotFound.
func (cl *ConfigLoader) LoadFromFile(ctx context.Context, path string) (*Plan, error) {
	cleanPath := filepath.Clean(path)

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ports.NewIOError(cleanPath, "read config", fmt.Errorf("%w: %w", ports.ErrConfigNotFound, err))
		}
		return nil, ports.NewIOError(cleanPath, "read config", err)
	}

	return cl.load(ctx, data)
}

// LoadFromReader loads and compiles a pipeline configuration from r.
func (cl *ConfigLoader) LoadFromReader(ctx context.Context, r io.Reader) (*Plan, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read data: %w", err)
	}

	return cl.load(ctx, data)
}

// LoadDefault compiles DefaultConfigYAML.
func (cl *ConfigLoader) LoadDefault(ctx context.Context) (*Plan, error) {
	return cl.load(ctx, []byte(DefaultConfigYAML))
}

// parseYAML decodes data strictly: unknown fields are an error so that
// typos in configuration keys are not silently ignored.
func (cl *ConfigLoader) parseYAML(data []byte) (*PipelineConfig, error) {
	var config PipelineConfig
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)

	if err := decoder.Decode(&config); err != nil {
		return nil, fmt.Errorf("YAML decode failed: %w", err)
	}
	return &config, nil
}

// validateConfig runs struct tag validation followed by the semantic rules.
func (cl *ConfigLoader) validateConfig(config *PipelineConfig) error {
	if err := cl.validator.Struct(config); err != nil {
		return fmt.Errorf("%w: struct validation failed: %w", domain.ErrInvalidConfiguration, err)
	}

	if err := cl.validateSemantics(config); err != nil {
		return fmt.Errorf("semantic validation failed: %w", err)
	}

	return nil
}

// validateSemantics enforces the rules struct tags cannot express: unit IDs
// are unique, the stages appear exactly once each in data-flow order, and
// each unit's parameters suit its type.
func (cl *ConfigLoader) validateSemantics(config *PipelineConfig) error {
	verr := domain.NewValidationError("pipeline " + config.Metadata.Name)

	seen := make(map[string]struct{}, len(config.Units))
	for i, unit := range config.Units {
		if _, exists := seen[unit.ID]; exists {
			verr.AddError(fmt.Sprintf("duplicate unit ID %q", unit.ID))
		}
		seen[unit.ID] = struct{}{}

		if i < len(stageOrder) && unit.Type != stageOrder[i] {
			verr.AddError(fmt.Sprintf("unit %d (%s) must be of type %s, got %s", i, unit.ID, stageOrder[i], unit.Type))
		}

		if err := ValidateUnitParameters(unit.Type, unit.Parameters); err != nil {
			verr.AddError(fmt.Sprintf("unit %s parameter validation failed: %v", unit.ID, err))
		}
	}

	if verr.HasErrors() {
		return verr
	}
	return nil
}

// buildPipeline instantiates every unit through the registry and adds them
// to a new Pipeline named after the configuration.
func (cl *ConfigLoader) buildPipeline(ctx context.Context, config *PipelineConfig) (*Pipeline, error) {
	pipeline := NewPipeline(config.Metadata.Name)

	for _, unitConfig := range config.Units {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		unit, err := cl.createUnit(unitConfig)
		if err != nil {
			return nil, fmt.Errorf("failed to create unit %s: %w", unitConfig.ID, err)
		}
		if err := unit.Validate(); err != nil {
			return nil, fmt.Errorf("unit %s is invalid: %w", unitConfig.ID, err)
		}

		if err := pipeline.Add(NewUnitAdapter(unit, unitConfig.ID)); err != nil {
			return nil, fmt.Errorf("failed to add unit to pipeline: %w", err)
		}
	}

	return pipeline, nil
}

// createUnit decodes a unit's parameters and delegates to the registry.
func (cl *ConfigLoader) createUnit(config UnitConfig) (ports.Unit, error) {
	params, err := decodeParameters(config.Parameters)
	if err != nil {
		return nil, err
	}

	unit, err := cl.unitRegistry.CreateUnit(config.Type, config.ID, params)
	if err != nil {
		return nil, fmt.Errorf("failed to create unit: %w", err)
	}

	return unit, nil
}

// calculateConfigHash computes the SHA-256 of the re-encoded configuration
// so that semantically identical documents share a hash regardless of
// whitespace or quoting.
func (cl *ConfigLoader) calculateConfigHash(config *PipelineConfig) (string, error) {
	var buf bytes.Buffer
	encoder := yaml.NewEncoder(&buf)
	encoder.SetIndent(2)

	if err := encoder.Encode(config); err != nil {
		return "", fmt.Errorf("failed to encode config for hashing: %w", err)
	}
	if err := encoder.Close(); err != nil {
		return "", fmt.Errorf("failed to encode config for hashing: %w", err)
	}

	hash := sha256.Sum256(buf.Bytes())
	return hex.EncodeToString(hash[:]), nil
}

func (cl *ConfigLoader) getCachedPlan(hash string) (*Plan, bool) {
	cl.cacheMu.RLock()
	defer cl.cacheMu.RUnlock()

	plan, ok := cl.cache[hash]
	return plan, ok
}

func (cl *ConfigLoader) cachePlan(hash string, plan *Plan) {
	cl.cacheMu.Lock()
	defer cl.cacheMu.Unlock()

	cl.cache[hash] = plan
}

// ClearCache removes all cached plans, forcing subsequent loads to
// recompile from source.
func (cl *ConfigLoader) ClearCache() {
	cl.cacheMu.Lock()
	defer cl.cacheMu.Unlock()

	cl.cache = make(map[string]*Plan)
}
