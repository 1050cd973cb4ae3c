package report

import (
	"encoding/json"
	"io"

	"github.com/nao1215/removalscan/internal/model"
)

// JSONWriter writes the records as a JSON array.
type JSONWriter struct {
	baseWriter
	indent string
}

// JSONWriterOption configures a JSONWriter.
type JSONWriterOption func(*JSONWriter)

// WithIndent sets the indentation string. An empty string writes compact
// JSON.
func WithIndent(indent string) JSONWriterOption {
	return func(w *JSONWriter) {
		w.indent = indent
	}
}

// NewJSONWriter creates a JSONWriter. Output is indented with two spaces
// unless WithIndent says otherwise.
func NewJSONWriter(output io.Writer, opts ...JSONWriterOption) *JSONWriter {
	w := &JSONWriter{
		baseWriter: newBaseWriter(output),
		indent:     "  ",
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Write implements Writer.
func (w *JSONWriter) Write(records []model.Record) error {
	if records == nil {
		records = []model.Record{}
	}
	enc := json.NewEncoder(w.output)
	enc.SetEscapeHTML(false)
	if w.indent != "" {
		enc.SetIndent("", w.indent)
	}
	return enc.Encode(records)
}
