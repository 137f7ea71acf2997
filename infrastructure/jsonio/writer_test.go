package jsonio

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ahrav/go-polindex/internal/domain"
	"github.com/ahrav/go-polindex/internal/ports"
)

func sampleReport() domain.PolicyReport {
	return domain.PolicyReport{
		"Welfare": {{Party: "A", Percent: 28.57, Min: -0.4, Max: -0.4, Mean: -0.4, Median: -0.4}},
		"Economy": {{Party: "A", Percent: 71.43, Min: -0.4, Max: 0, Mean: -0.24, Median: -0.4, StdDev: 0.2}},
	}
}

func TestEncodeReport(t *testing.T) {
	data, err := EncodeReport(sampleReport())
	require.NoError(t, err)

	want := `{
  "Economy": [
    {
      "party": "A",
      "percent": 71.43,
      "min": -0.4,
      "max": 0,
      "mean": -0.24,
      "median": -0.4,
      "stdDev": 0.2
    }
  ],
  "Welfare": [
    {
      "party": "A",
      "percent": 28.57,
      "min": -0.4,
      "max": -0.4,
      "mean": -0.4,
      "median": -0.4,
      "stdDev": 0
    }
  ]
}
`
	assert.Equal(t, want, string(data))

	empty, err := EncodeReport(nil)
	require.NoError(t, err)
	assert.Equal(t, "{}\n", string(empty))
}

func TestFileReportWriter_Write(t *testing.T) {
	writer := NewFileReportWriter()
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "out", "weightedPolicy.json")

	require.NoError(t, writer.Write(context.Background(), path, sampleReport()))

	first, err := os.ReadFile(path)
	require.NoError(t, err)
	want, err := EncodeReport(sampleReport())
	require.NoError(t, err)
	assert.Equal(t, want, first)

	// Rewriting produces identical bytes and leaves no temporary files.
	require.NoError(t, writer.Write(context.Background(), path, sampleReport()))
	second, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, first, second)

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "weightedPolicy.json", entries[0].Name())

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, defaultFilePerm, info.Mode().Perm())
}

func TestFileReportWriter_Errors(t *testing.T) {
	writer := NewFileReportWriter()

	t.Run("parent is a file", func(t *testing.T) {
		blocker := filepath.Join(t.TempDir(), "blocker")
		require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o600))

		err := writer.Write(context.Background(), filepath.Join(blocker, "out.json"), sampleReport())
		require.Error(t, err)
		assert.True(t, errors.Is(err, ports.ErrOutputFailed))

		var ioErr *ports.IOError
		require.True(t, errors.As(err, &ioErr))
		assert.Equal(t, "mkdir", ioErr.Operation)
	})

	t.Run("cancelled context writes nothing", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		path := filepath.Join(t.TempDir(), "out.json")

		err := writer.Write(ctx, path, sampleReport())
		assert.ErrorIs(t, err, context.Canceled)
		_, statErr := os.Stat(path)
		assert.True(t, errors.Is(statErr, os.ErrNotExist))
	})
}
