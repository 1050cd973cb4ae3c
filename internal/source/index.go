package source

import (
	"context"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/nao1215/removalscan/internal/crawler"
	"github.com/nao1215/removalscan/internal/model"
)

// KindIndex is the Name of IndexAdapter.
const KindIndex = "index"

// MaxIndexLinks is the number of report links kept on the summary record.
const MaxIndexLinks = 5

// defaultIndexKeywords select report links by their href.
var defaultIndexKeywords = []string{"monthly", "table"}

// IndexAdapter reads a page that only links to sub-reports. It emits a
// single summary record with an unknown count instead of guessing numbers.
type IndexAdapter struct {
	base
	keywords []string
}

// NewIndexAdapter creates an IndexAdapter. The notes option sets the
// prefix of the summary text.
func NewIndexAdapter(fetcher crawler.Fetcher, endpoint string, opts ...Option) *IndexAdapter {
	a := &IndexAdapter{
		base:     base{kind: KindIndex, fetcher: fetcher, endpoint: endpoint, settings: newSettings(opts)},
		keywords: defaultIndexKeywords,
	}
	if a.notes == "" {
		a.notes = "Reports available"
	}
	return a
}

// Name implements Adapter.
func (a *IndexAdapter) Name() string {
	return KindIndex
}

// Collect implements Adapter.
func (a *IndexAdapter) Collect(ctx context.Context) ([]model.Record, error) {
	doc, err := a.fetch(ctx)
	if err != nil {
		return nil, err
	}

	var links []string
	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		if !a.matches(href) {
			return
		}
		if resolved := doc.Resolve(href); resolved != "" {
			links = appendUnique(links, resolved)
		}
	})
	if len(links) == 0 {
		return nil, a.parseFailure("no report links")
	}

	r := a.newRecord(model.MultipleDestinations)
	r.Notes = fmt.Sprintf("%s: %d reports found", a.notes, len(links))
	r.SourceURLs = links[:min(len(links), MaxIndexLinks)]
	return []model.Record{r}, nil
}

func (a *IndexAdapter) matches(href string) bool {
	lower := strings.ToLower(href)
	for _, kw := range a.keywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}
