package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/nao1215/removalscan/internal/model"
)

// TextWriter writes a plain-text report for terminals and text files.
type TextWriter struct {
	baseWriter
}

// NewTextWriter creates a TextWriter.
func NewTextWriter(output io.Writer, opts ...Option) *TextWriter {
	return &TextWriter{baseWriter: newBaseWriter(output, opts...)}
}

// Write implements Writer.
func (w *TextWriter) Write(records []model.Record) error {
	var sb strings.Builder
	summary := model.Summarize(records)

	sb.WriteString("THIRD-NATION REMOVALS DATA\n")
	sb.WriteString(strings.Repeat("=", 50) + "\n")
	fmt.Fprintf(&sb, "Generated on %s\n\n", w.generatedAt())

	sb.WriteString("SUMMARY\n")
	sb.WriteString(strings.Repeat("-", 20) + "\n")
	fmt.Fprintf(&sb, "Total removal events: %d\n", summary.TotalEvents)
	fmt.Fprintf(&sb, "Total people removed: %d\n", summary.TotalPeople)
	fmt.Fprintf(&sb, "Destination countries: %d\n\n", summary.Destinations)

	sb.WriteString("BY DESTINATION COUNTRY\n")
	sb.WriteString(strings.Repeat("-", 30) + "\n")
	for _, c := range summary.ByCountry {
		fmt.Fprintf(&sb, "%s\n  Events: %d\n  People removed: %d\n\n", c.Country, c.Events, c.People)
	}

	sb.WriteString("DETAILED DATA\n")
	sb.WriteString(strings.Repeat("-", 20) + "\n")
	for i, r := range records {
		fmt.Fprintf(&sb, "Entry %d\n", i+1)
		fmt.Fprintf(&sb, "  Destination Country: %s\n", r.DestinationCountry)
		fmt.Fprintf(&sb, "  Date: %s\n", dateCell(r.Date))
		fmt.Fprintf(&sb, "  Date Range End: %s\n", dateCell(r.DateRangeEnd))
		fmt.Fprintf(&sb, "  Number Removed: %s\n", countCell(r.NumberRemoved))
		fmt.Fprintf(&sb, "  Origin Nationalities: %s\n", strings.Join(r.OriginNationalities, ", "))
		fmt.Fprintf(&sb, "  Source URLs: %s\n", strings.Join(r.SourceURLs, ", "))
		fmt.Fprintf(&sb, "  Notes: %s\n\n", r.Notes)
	}

	_, err := io.WriteString(w.output, sb.String())
	return err
}
