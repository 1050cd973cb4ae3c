package source

import (
	"context"
	"strings"
	"unicode"

	"github.com/PuerkitoBio/goquery"

	"github.com/nao1215/removalscan/internal/crawler"
	"github.com/nao1215/removalscan/internal/model"
)

// KindTable is the Name of TableAdapter.
const KindTable = "table"

// minTableCells is the number of cells a row needs to be considered.
const minTableCells = 3

// TableAdapter reads "Label: Number" cells from table rows.
type TableAdapter struct {
	base
}

// NewTableAdapter creates a TableAdapter.
func NewTableAdapter(fetcher crawler.Fetcher, endpoint string, opts ...Option) *TableAdapter {
	return &TableAdapter{
		base: base{kind: KindTable, fetcher: fetcher, endpoint: endpoint, settings: newSettings(opts)},
	}
}

// Name implements Adapter.
func (a *TableAdapter) Name() string {
	return KindTable
}

// Collect implements Adapter.
func (a *TableAdapter) Collect(ctx context.Context) ([]model.Record, error) {
	doc, err := a.fetch(ctx)
	if err != nil {
		return nil, err
	}

	rows := doc.Find("table tr")
	if rows.Length() == 0 {
		return nil, a.parseFailure("no table rows")
	}

	var records []model.Record
	rows.Each(func(_ int, row *goquery.Selection) {
		cells := row.Find("td, th")
		if cells.Length() < minTableCells {
			return
		}
		cells.Each(func(_ int, cell *goquery.Selection) {
			if r, ok := a.cell(strings.TrimSpace(cell.Text())); ok {
				records = append(records, r)
			}
		})
	})
	return records, nil
}

// cell parses "Label: Number". Text with more than one colon is skipped.
func (a *TableAdapter) cell(text string) (model.Record, bool) {
	if !strings.ContainsFunc(text, unicode.IsDigit) {
		return model.Record{}, false
	}
	parts := strings.Split(text, ":")
	if len(parts) != 2 {
		return model.Record{}, false
	}
	label := strings.TrimSpace(parts[0])
	n, ok := firstInt(parts[1])
	if label == "" || !ok {
		return model.Record{}, false
	}
	r := a.newRecord(strings.ToUpper(label))
	r.NumberRemoved = model.IntPtr(n)
	return r, true
}
