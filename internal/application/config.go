package application

import (
	"gopkg.in/yaml.v3"
)

// Unit types accepted in a pipeline configuration.
const (
	UnitTypeTransform = "transform"
	UnitTypeAggregate = "aggregate"
	UnitTypeAnalyze   = "analyze"
)

// stageOrder is the only unit order the data flow allows.
var stageOrder = []string{UnitTypeTransform, UnitTypeAggregate, UnitTypeAnalyze}

// PipelineConfig is the YAML document describing one policy index run:
// where the corpus comes from, where the report goes and how each of the
// three stages is parameterized.
type PipelineConfig struct {
	// Version specifies the configuration schema version using semantic
	// versioning.
	Version string `yaml:"version" validate:"required,semver"`
	// Metadata contains descriptive information about the pipeline.
	Metadata Metadata `yaml:"metadata" validate:"required"`
	// Input is the default corpus path. The CLI may override it.
	Input string `yaml:"input,omitempty" validate:"omitempty,max=4096"`
	// Output is the default report path. The CLI may override it.
	Output string `yaml:"output,omitempty" validate:"omitempty,max=4096"`
	// Units lists the stages in execution order.
	Units []UnitConfig `yaml:"units" validate:"required,len=3,dive"`
}

// Metadata provides descriptive information about a pipeline configuration.
type Metadata struct {
	// Name is the human-readable identifier for this pipeline. It doubles
	// as the pipeline ID in error messages, logs and spans.
	Name string `yaml:"name" validate:"required,min=1,max=255"`
	// Description explains the purpose of the configuration.
	Description string `yaml:"description,omitempty" validate:"max=1000"`
	// Tags are categorical labels for grouping configurations.
	Tags []string `yaml:"tags,omitempty" validate:"max=20,dive,min=1,max=50"`
	// Labels are arbitrary key-value pairs for external systems.
	Labels map[string]string `yaml:"labels,omitempty" validate:"max=50"`
}

// UnitConfig defines one stage of the pipeline.
type UnitConfig struct {
	// ID is the unique identifier for this unit within the pipeline.
	ID string `yaml:"id" validate:"required,alphanum,min=1,max=100"`
	// Type selects the unit implementation.
	Type string `yaml:"type" validate:"required,oneof=transform aggregate analyze"`
	// Parameters contains type-specific configuration, validated according
	// to Type.
	Parameters yaml.Node `yaml:"parameters,omitempty"`
}

// DefaultConfigYAML is used when no configuration file is supplied.
const DefaultConfigYAML = `version: "1.0.0"
metadata:
  name: weighted-policy-index
  description: Weighted left/right position statistics per party and policy.
input: ./input/documents-fipi.json
output: ./output/weightedPolicy.json
units:
  - id: transform
    type: transform
    parameters:
      min_weight: 0
  - id: aggregate
    type: aggregate
    parameters:
      denominator: policies
  - id: analyze
    type: analyze
    parameters:
      precision: 2
      concurrency: 1
`
