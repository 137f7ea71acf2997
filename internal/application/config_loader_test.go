package application

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ahrav/go-polindex/infrastructure/units"
	"github.com/ahrav/go-polindex/internal/domain"
	"github.com/ahrav/go-polindex/internal/ports"
)

func newTestLoader(t *testing.T) *ConfigLoader {
	t.Helper()
	loader, err := NewConfigLoader(NewDefaultUnitRegistry())
	require.NoError(t, err)
	return loader
}

const validConfig = `
version: "1.2.0"
metadata:
  name: manifesto-2024
  tags: [test]
input: in.json
output: out.json
units:
  - id: transform
    type: transform
    parameters:
      min_weight: 0.1
  - id: aggregate
    type: aggregate
    parameters:
      denominator: with_total
  - id: analyze
    type: analyze
    parameters:
      precision: 3
      concurrency: 4
`

func TestConfigLoader_LoadFromReader(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		errMsg  string
		invalid bool
		verify  func(t *testing.T, plan *Plan)
	}{
		{
			name: "valid config",
			yaml: validConfig,
			verify: func(t *testing.T, plan *Plan) {
				assert.Equal(t, "manifesto-2024", plan.Pipeline.ID())
				assert.Equal(t, "in.json", plan.Config.Input)
				assert.Equal(t, "out.json", plan.Config.Output)

				execs := plan.Pipeline.Executables()
				require.Len(t, execs, 3)
				assert.Equal(t, "transform", execs[0].ID())
				assert.Equal(t, "aggregate", execs[1].ID())
				assert.Equal(t, "analyze", execs[2].ID())

				assert.IsType(t, &units.TransformUnit{}, execs[0].(*UnitAdapter).Unit())
				assert.IsType(t, &units.AggregateUnit{}, execs[1].(*UnitAdapter).Unit())
				assert.IsType(t, &units.AnalyzeUnit{}, execs[2].(*UnitAdapter).Unit())
			},
		},
		{
			name: "parameters are optional",
			yaml: `
version: "1.0.0"
metadata: {name: bare}
units:
  - {id: t, type: transform}
  - {id: a, type: aggregate}
  - {id: z, type: analyze}
`,
			verify: func(t *testing.T, plan *Plan) {
				assert.Len(t, plan.Pipeline.Executables(), 3)
				assert.Empty(t, plan.Config.Input)
			},
		},
		{
			name:   "unknown top-level field",
			yaml:   validConfig + "graph: {}\n",
			errMsg: "field graph not found",
		},
		{
			name:    "invalid version",
			yaml:    strings.Replace(validConfig, `"1.2.0"`, `"one"`, 1),
			errMsg:  "semver",
			invalid: true,
		},
		{
			name:    "missing name",
			yaml:    strings.Replace(validConfig, "name: manifesto-2024", "name: \"\"", 1),
			errMsg:  "Name",
			invalid: true,
		},
		{
			name: "too few units",
			yaml: `
version: "1.0.0"
metadata: {name: short}
units:
  - {id: t, type: transform}
  - {id: a, type: aggregate}
`,
			errMsg:  "Units",
			invalid: true,
		},
		{
			name: "unknown unit type",
			yaml: `
version: "1.0.0"
metadata: {name: odd}
units:
  - {id: t, type: transform}
  - {id: a, type: max_pool}
  - {id: z, type: analyze}
`,
			errMsg:  "oneof",
			invalid: true,
		},
		{
			name: "wrong order",
			yaml: `
version: "1.0.0"
metadata: {name: swapped}
units:
  - {id: t, type: transform}
  - {id: z, type: analyze}
  - {id: a, type: aggregate}
`,
			errMsg:  "must be of type aggregate",
			invalid: true,
		},
		{
			name: "duplicate IDs",
			yaml: `
version: "1.0.0"
metadata: {name: dupes}
units:
  - {id: s, type: transform}
  - {id: s, type: aggregate}
  - {id: z, type: analyze}
`,
			errMsg:  `duplicate unit ID "s"`,
			invalid: true,
		},
		{
			name:    "parameter out of range",
			yaml:    strings.Replace(validConfig, "min_weight: 0.1", "min_weight: 1.5", 1),
			errMsg:  "min_weight must be between 0 and 1",
			invalid: true,
		},
		{
			name:    "unknown parameter",
			yaml:    strings.Replace(validConfig, "precision: 3", "places: 3", 1),
			errMsg:  `unknown parameter "places"`,
			invalid: true,
		},
		{
			name:    "invalid denominator",
			yaml:    strings.Replace(validConfig, "with_total", "everything", 1),
			errMsg:  "invalid denominator",
			invalid: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			loader := newTestLoader(t)
			plan, err := loader.LoadFromReader(context.Background(), strings.NewReader(tt.yaml))
			if tt.errMsg != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errMsg)
				if tt.invalid {
					assert.True(t, errors.Is(err, domain.ErrInvalidConfiguration))
				}
				return
			}
			require.NoError(t, err)
			tt.verify(t, plan)
		})
	}
}

func TestConfigLoader_Cache(t *testing.T) {
	loader := newTestLoader(t)
	ctx := context.Background()

	first, err := loader.LoadFromReader(ctx, strings.NewReader(validConfig))
	require.NoError(t, err)

	// Same document with different quoting.
	reformatted := strings.Replace(validConfig, `"1.2.0"`, `'1.2.0'`, 1)
	second, err := loader.LoadFromReader(ctx, strings.NewReader(reformatted))
	require.NoError(t, err)
	assert.Same(t, first, second)

	loader.ClearCache()
	third, err := loader.LoadFromReader(ctx, strings.NewReader(validConfig))
	require.NoError(t, err)
	assert.NotSame(t, first, third)
}

func TestConfigLoader_ConcurrentLoads(t *testing.T) {
	loader := newTestLoader(t)

	const n = 16
	plans := make([]*Plan, n)
	var wg sync.WaitGroup
	for i := range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			plan, err := loader.LoadFromReader(context.Background(), strings.NewReader(validConfig))
			assert.NoError(t, err)
			plans[i] = plan
		}()
	}
	wg.Wait()

	for _, plan := range plans[1:] {
		assert.Same(t, plans[0], plan)
	}
}

func TestConfigLoader_LoadFromFile(t *testing.T) {
	loader := newTestLoader(t)
	dir := t.TempDir()

	path := filepath.Join(dir, "pipeline.yaml")
	require.NoError(t, os.WriteFile(path, []byte(validConfig), 0o600))

	plan, err := loader.LoadFromFile(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, "manifesto-2024", plan.Config.Metadata.Name)

	_, err = loader.LoadFromFile(context.Background(), filepath.Join(dir, "missing.yaml"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ports.ErrConfigNotFound))

	var ioErr *ports.IOError
	assert.True(t, errors.As(err, &ioErr))
}

func TestConfigLoader_LoadDefault(t *testing.T) {
	loader := newTestLoader(t)

	plan, err := loader.LoadDefault(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "weighted-policy-index", plan.Pipeline.ID())
	assert.Equal(t, "./input/documents-fipi.json", plan.Config.Input)
	assert.Equal(t, "./output/weightedPolicy.json", plan.Config.Output)
	assert.Len(t, plan.Pipeline.Executables(), 3)
}

func TestConfigLoader_RegistryFailure(t *testing.T) {
	registry := NewDefaultUnitRegistry()
	require.NoError(t, registry.RegisterUnitFactory(UnitTypeAnalyze, func(string, map[string]any) (ports.Unit, error) {
		return nil, errors.New("no analyzer today")
	}))

	loader, err := NewConfigLoader(registry)
	require.NoError(t, err)

	_, err = loader.LoadFromReader(context.Background(), strings.NewReader(validConfig))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no analyzer today")
}
