package report

import (
	"encoding/csv"
	"io"
	"strings"

	"github.com/nao1215/removalscan/internal/model"
)

// csvHeader lists the flattened columns.
var csvHeader = []string{
	"destination_country",
	"date",
	"date_range_end",
	"number_removed",
	"origin_nationalities",
	"source_urls",
	"notes",
}

// CSVWriter writes one row per record. List fields are joined with ", ".
type CSVWriter struct {
	baseWriter
}

// NewCSVWriter creates a CSVWriter.
func NewCSVWriter(output io.Writer) *CSVWriter {
	return &CSVWriter{baseWriter: newBaseWriter(output)}
}

// Write implements Writer. An empty list writes nothing.
func (w *CSVWriter) Write(records []model.Record) error {
	if len(records) == 0 {
		return nil
	}

	cw := csv.NewWriter(w.output)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}
	for _, r := range records {
		row := []string{
			r.DestinationCountry,
			dateCell(r.Date),
			dateCell(r.DateRangeEnd),
			countCell(r.NumberRemoved),
			strings.Join(r.OriginNationalities, ", "),
			strings.Join(r.SourceURLs, ", "),
			r.Notes,
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
