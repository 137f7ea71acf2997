// Package jsonio reads classified corpora from and writes policy reports to
// JSON files.
package jsonio

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/ahrav/go-polindex/internal/domain"
	"github.com/ahrav/go-polindex/internal/ports"
)

var _ ports.CorpusReader = (*FileCorpusReader)(nil)

// FileCorpusReader decodes a corpus from a JSON file whose top level is an
// object mapping party identifiers to arrays of classified paragraphs.
// Records are decoded as-is; their structure is checked by the transform
// stage so that errors carry party and paragraph index.
type FileCorpusReader struct{}

// NewFileCorpusReader creates a FileCorpusReader.
func NewFileCorpusReader() *FileCorpusReader { return &FileCorpusReader{} }

// Read loads the corpus at path.
//
// Error Conditions:
//   - ports.ErrInputNotFound if path does not exist
//   - ports.ErrInvalidInput if the content is not a JSON object of arrays
//
// Both are returned inside a *ports.IOError naming the path.
func (r *FileCorpusReader) Read(ctx context.Context, path string) (domain.Corpus, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	cleanPath := filepath.Clean(path)
	data, err := os.ReadFile(cleanPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ports.NewIOError(cleanPath, "read", fmt.Errorf("%w: %w", ports.ErrInputNotFound, err))
		}
		return nil, ports.NewIOError(cleanPath, "read", err)
	}

	corpus, err := DecodeCorpus(data)
	if err != nil {
		return nil, ports.NewIOError(cleanPath, "decode", err)
	}
	return corpus, nil
}

// DecodeCorpus parses a corpus document. A top level other than an object
// (including null) is rejected with ports.ErrInvalidInput.
func DecodeCorpus(data []byte) (domain.Corpus, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return nil, fmt.Errorf("%w: top level must be a JSON object", ports.ErrInvalidInput)
	}

	var corpus domain.Corpus
	if err := json.Unmarshal(trimmed, &corpus); err != nil {
		return nil, fmt.Errorf("%w: %w", ports.ErrInvalidInput, err)
	}
	return corpus, nil
}
