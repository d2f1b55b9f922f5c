package report

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/nao1215/aimap/internal/config"
	"github.com/nao1215/aimap/internal/model"
)

// ErrWriteOutput wraps every failure to store the project map.
var ErrWriteOutput = errors.New("failed to write output file")

// Writer defines the interface for report output.
// Implementations render one project map in a given format.
type Writer interface {
	// Write renders the map to the configured destination and returns the
	// number of bytes written.
	Write(m *model.ProjectMap) (int, error)
}

// baseWriter provides common functionality for report writers.
type baseWriter struct {
	output io.Writer
}

// newBaseWriter creates a baseWriter with the given output destination.
func newBaseWriter(output io.Writer) baseWriter {
	return baseWriter{output: output}
}

// NewWriter returns the Writer for format.
func NewWriter(format string, output io.Writer) (Writer, error) {
	switch format {
	case config.FormatJSON:
		return NewJSONWriter(output), nil
	case config.FormatMarkdown:
		return NewMarkdownWriter(output), nil
	default:
		return nil, fmt.Errorf("%w: %q", config.ErrUnknownFormat, format)
	}
}

// WriteFile renders m into path. The content goes to a temporary file in
// the same directory first and is renamed into place, so a failed run never
// leaves a truncated map behind. It returns the size of the written file.
func WriteFile(path, format string, m *model.ProjectMap) (int64, error) {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return 0, fmt.Errorf("%w %s: %w", ErrWriteOutput, path, err)
	}
	tmpName := tmp.Name()
	defer func() {
		// No-op once the rename succeeded.
		_ = os.Remove(tmpName)
	}()

	w, err := NewWriter(format, tmp)
	if err != nil {
		_ = tmp.Close()
		return 0, err
	}
	n, err := w.Write(m)
	if err != nil {
		_ = tmp.Close()
		return 0, fmt.Errorf("%w %s: %w", ErrWriteOutput, path, err)
	}
	if err := tmp.Close(); err != nil {
		return 0, fmt.Errorf("%w %s: %w", ErrWriteOutput, path, err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil { //nolint:gosec // the map is meant to be read by editors and assistants
		return 0, fmt.Errorf("%w %s: %w", ErrWriteOutput, path, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return 0, fmt.Errorf("%w %s: %w", ErrWriteOutput, path, err)
	}
	return int64(n), nil
}

// normalize re-reads m through its own JSON encoding, so writers that
// inspect section contents only deal with *model.OrderedMap, []any,
// string, json.Number, bool and nil whatever the producers stored.
func normalize(m *model.ProjectMap) (*model.OrderedMap, error) {
	data, err := json.Marshal(m)
	if err != nil {
		return nil, err
	}
	out := model.NewOrderedMap()
	if err := json.Unmarshal(data, out); err != nil {
		return nil, err
	}
	return out, nil
}
