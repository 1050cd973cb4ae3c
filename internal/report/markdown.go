package report

import (
	"io"
	"strconv"
	"strings"

	"github.com/nao1215/markdown"
	"github.com/nao1215/markdown/mermaid/piechart"

	"github.com/nao1215/removalscan/internal/model"
)

// notesLimit is the number of note runes shown in detail tables.
const notesLimit = 100

// MarkdownWriter writes a Markdown document with a summary, a per-country
// breakdown and a detail table.
type MarkdownWriter struct {
	baseWriter
}

// NewMarkdownWriter creates a MarkdownWriter.
func NewMarkdownWriter(output io.Writer, opts ...Option) *MarkdownWriter {
	return &MarkdownWriter{baseWriter: newBaseWriter(output, opts...)}
}

// Write implements Writer.
func (w *MarkdownWriter) Write(records []model.Record) error {
	md := markdown.NewMarkdown(w.output)
	summary := model.Summarize(records)

	md.H1("Third-Nation Removals Data")
	md.PlainText("")
	md.PlainTextf("*Generated on %s*", w.generatedAt())
	md.PlainText("")

	w.writeSummary(md, summary)
	w.writeCountries(md, summary)
	w.writeDetails(md, records)

	return md.Build()
}

func (w *MarkdownWriter) writeSummary(md *markdown.Markdown, s model.Summary) {
	md.H2("Summary")
	md.PlainText("")
	md.BulletList(
		"Total removal events: "+strconv.Itoa(s.TotalEvents),
		"Total people removed: "+strconv.Itoa(s.TotalPeople),
		"Destination countries: "+strconv.Itoa(s.Destinations),
	)
	md.PlainText("")

	if s.TotalPeople > 0 {
		w.writePieChart(md, s)
	}
}

// writePieChart writes a mermaid chart of people removed per destination.
func (w *MarkdownWriter) writePieChart(md *markdown.Markdown, s model.Summary) {
	chart := piechart.NewPieChart(
		io.Discard,
		piechart.WithTitle("People Removed by Destination"),
		piechart.WithShowData(true),
	)
	for _, c := range s.ByCountry {
		if c.People > 0 {
			chart.LabelAndIntValue(c.Country, uint64(c.People)) //nolint:gosec // counts are never negative here
		}
	}
	md.CodeBlocks(markdown.SyntaxHighlightMermaid, chart.String())
	md.PlainText("")
}

func (w *MarkdownWriter) writeCountries(md *markdown.Markdown, s model.Summary) {
	md.H2("By Destination Country")
	md.PlainText("")

	if len(s.ByCountry) == 0 {
		md.PlainText("No records.")
		md.PlainText("")
		return
	}

	rows := make([][]string, len(s.ByCountry))
	for i, c := range s.ByCountry {
		rows[i] = []string{escapeCell(c.Country), strconv.Itoa(c.Events), strconv.Itoa(c.People)}
	}
	md.Table(markdown.TableSet{
		Header: []string{"Destination Country", "Events", "People Removed"},
		Rows:   rows,
	})
	md.PlainText("")
}

func (w *MarkdownWriter) writeDetails(md *markdown.Markdown, records []model.Record) {
	md.H2("Detailed Data")
	md.PlainText("")

	if len(records) == 0 {
		md.PlainText("No records.")
		return
	}

	rows := make([][]string, len(records))
	for i, r := range records {
		rows[i] = []string{
			escapeCell(r.DestinationCountry),
			dateCell(r.Date),
			dateCell(r.DateRangeEnd),
			countCell(r.NumberRemoved),
			escapeCell(strings.Join(r.OriginNationalities, ", ")),
			escapeCell(truncate(r.Notes, notesLimit)),
		}
	}
	md.Table(markdown.TableSet{
		Header: []string{"Destination Country", "Date", "Date Range End", "Number Removed", "Origin Nationalities", "Notes"},
		Rows:   rows,
	})
}

// escapeCell keeps a value on one table line.
func escapeCell(s string) string {
	s = strings.ReplaceAll(s, "\r\n", " ")
	s = strings.ReplaceAll(s, "\n", " ")
	return strings.ReplaceAll(s, "|", `\|`)
}
