package jsonio

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/ahrav/go-polindex/internal/domain"
	"github.com/ahrav/go-polindex/internal/ports"
)

var _ ports.ReportWriter = (*FileReportWriter)(nil)

const (
	defaultFilePerm os.FileMode = 0o644
	defaultDirPerm  os.FileMode = 0o755
)

// FileReportWriter persists reports as indented JSON. Writes go to a
// temporary file in the target directory that is renamed over the
// destination, so readers never observe a partial report.
type FileReportWriter struct {
	filePerm os.FileMode
	dirPerm  os.FileMode
}

// NewFileReportWriter creates a FileReportWriter with 0644 files and 0755
// directories.
func NewFileReportWriter() *FileReportWriter {
	return &FileReportWriter{filePerm: defaultFilePerm, dirPerm: defaultDirPerm}
}

// Write stores report at path, creating parent directories as needed.
// Failures are returned as a *ports.IOError wrapping ports.ErrOutputFailed.
func (w *FileReportWriter) Write(ctx context.Context, path string, report domain.PolicyReport) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := EncodeReport(report)
	if err != nil {
		return ports.NewIOError(path, "encode", fmt.Errorf("%w: %w", ports.ErrOutputFailed, err))
	}

	dest := filepath.Clean(path)
	if err := os.MkdirAll(filepath.Dir(dest), w.dirPerm); err != nil {
		return ports.NewIOError(dest, "mkdir", fmt.Errorf("%w: %w", ports.ErrOutputFailed, err))
	}
	if err := w.writeAtomic(dest, data); err != nil {
		return ports.NewIOError(dest, "write", fmt.Errorf("%w: %w", ports.ErrOutputFailed, err))
	}
	return nil
}

// EncodeReport renders report with two-space indentation and a trailing
// newline. Map keys are sorted by encoding/json, so the output is
// deterministic. A nil report encodes as an empty object.
func EncodeReport(report domain.PolicyReport) ([]byte, error) {
	if report == nil {
		report = domain.PolicyReport{}
	}
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}

func (w *FileReportWriter) writeAtomic(dest string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(dest), ".tmp-*")
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return err
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return err
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return err
	}
	if err := os.Chmod(tmpPath, w.filePerm); err != nil {
		_ = os.Remove(tmpPath)
		return err
	}
	if err := os.Rename(tmpPath, dest); err != nil {
		_ = os.Remove(tmpPath)
		return err
	}
	return nil
}
