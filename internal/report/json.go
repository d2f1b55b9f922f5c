package report

import (
	"bytes"
	"encoding/json"
	"io"

	"github.com/nao1215/aimap/internal/model"
)

// DefaultIndent is the indentation of written maps, the width PHP's
// JSON_PRETTY_PRINT uses.
const DefaultIndent = "    "

// JSONWriter outputs the project map as JSON.
// Slashes and HTML characters are never escaped, so class names and
// routes read the same as in source.
type JSONWriter struct {
	baseWriter

	// indentString is the indentation per level. Empty means compact output.
	indentString string
}

// JSONWriterOption configures a JSONWriter.
type JSONWriterOption func(*JSONWriter)

// WithIndent sets the indentation string for each level.
// An empty string produces single-line output.
func WithIndent(indent string) JSONWriterOption {
	return func(w *JSONWriter) {
		w.indentString = indent
	}
}

// NewJSONWriter creates a JSONWriter that outputs to the given writer.
func NewJSONWriter(output io.Writer, opts ...JSONWriterOption) *JSONWriter {
	w := &JSONWriter{
		baseWriter:   newBaseWriter(output),
		indentString: DefaultIndent,
	}

	for _, opt := range opts {
		opt(w)
	}

	return w
}

// Write outputs the project map followed by a newline.
func (w *JSONWriter) Write(m *model.ProjectMap) (int, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if w.indentString != "" {
		enc.SetIndent("", w.indentString)
	}
	if err := enc.Encode(m); err != nil {
		return 0, err
	}
	return w.output.Write(buf.Bytes())
}
