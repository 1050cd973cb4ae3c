package report

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/nao1215/removalscan/internal/model"
)

// ErrUnknownFormat is returned by NewWriter for an unsupported format.
var ErrUnknownFormat = errors.New("unknown export format")

// Format is an export format name.
type Format string

// Supported formats.
const (
	FormatJSON     Format = "json"
	FormatCSV      Format = "csv"
	FormatMarkdown Format = "md"
	FormatText     Format = "txt"
)

// Formats lists the supported formats in the order "export all" writes them.
var Formats = []Format{FormatJSON, FormatCSV, FormatMarkdown, FormatText}

// ParseFormat parses a format name. "markdown" and "text" are accepted as
// aliases.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "json":
		return FormatJSON, nil
	case "csv":
		return FormatCSV, nil
	case "md", "markdown":
		return FormatMarkdown, nil
	case "txt", "text":
		return FormatText, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownFormat, s)
	}
}

// Writer writes a list of records in one format.
type Writer interface {
	Write(records []model.Record) error
}

// Option configures the writers that print a generation time.
type Option func(*baseWriter)

// WithClock sets the clock used for the "generated on" line.
func WithClock(now func() time.Time) Option {
	return func(w *baseWriter) {
		w.now = now
	}
}

// NewWriter returns the Writer for format.
func NewWriter(format Format, output io.Writer, opts ...Option) (Writer, error) {
	switch format {
	case FormatJSON:
		return NewJSONWriter(output), nil
	case FormatCSV:
		return NewCSVWriter(output), nil
	case FormatMarkdown:
		return NewMarkdownWriter(output, opts...), nil
	case FormatText:
		return NewTextWriter(output, opts...), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
}

// DefaultFilename returns the export file name for a format, stamped with
// the given time.
func DefaultFilename(dir string, format Format, at time.Time) string {
	name := fmt.Sprintf("third_nation_removals_%s.%s", at.Format("20060102_150405"), format)
	return filepath.Join(dir, name)
}

// baseWriter provides common functionality for report writers.
type baseWriter struct {
	output io.Writer
	now    func() time.Time
}

func newBaseWriter(output io.Writer, opts ...Option) baseWriter {
	w := baseWriter{output: output, now: time.Now}
	for _, opt := range opts {
		opt(&w)
	}
	return w
}

func (w baseWriter) generatedAt() string {
	return w.now().Format("2006-01-02 15:04:05")
}

// cell helpers shared by the tabular formats.

func dateCell(d model.Date) string {
	if d.IsZero() {
		return ""
	}
	return d.String()
}

func countCell(n *int) string {
	if n == nil {
		return ""
	}
	return fmt.Sprintf("%d", *n)
}

// truncate shortens s to at most n runes, adding "..." when cut.
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
