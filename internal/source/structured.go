package source

import (
	"context"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/text/unicode/norm"

	"github.com/nao1215/removalscan/internal/crawler"
	"github.com/nao1215/removalscan/internal/model"
)

// KindStructured is the Name of StructuredAdapter.
const KindStructured = "structured"

// Labels that start the detail paragraphs of a structured section.
const (
	labelDates = "Date(s):"
	labelWho   = "Who:"
	labelMore  = "More:"
)

// nationalityKeywords are recognized in "Who:" text by case-insensitive
// containment.
var nationalityKeywords = []string{"Iranian", "Russian", "Venezuelan", "Cuban", "Afghan"}

var citationPattern = regexp.MustCompile(`https?://[^\s)]+`)

// StructuredAdapter reads pages made of one heading per destination, each
// followed by labeled paragraphs up to the next heading.
type StructuredAdapter struct {
	base
	heading string
}

// NewStructuredAdapter creates a StructuredAdapter for endpoint. Sections
// start at h2 headings.
func NewStructuredAdapter(fetcher crawler.Fetcher, endpoint string, opts ...Option) *StructuredAdapter {
	return &StructuredAdapter{
		base:    base{kind: KindStructured, fetcher: fetcher, endpoint: endpoint, settings: newSettings(opts)},
		heading: "h2",
	}
}

// Name implements Adapter.
func (a *StructuredAdapter) Name() string {
	return KindStructured
}

// Collect implements Adapter.
func (a *StructuredAdapter) Collect(ctx context.Context) ([]model.Record, error) {
	doc, err := a.fetch(ctx)
	if err != nil {
		return nil, err
	}

	headings := doc.Find(a.heading)
	if headings.Length() == 0 {
		return nil, a.parseFailure("no " + a.heading + " sections")
	}

	var records []model.Record
	headings.Each(func(_ int, h *goquery.Selection) {
		// Headings are curated names ("DRC", "eSwatini"); only whitespace
		// and Unicode composition are normalized.
		country := norm.NFC.String(collapseSpace(h.Text()))
		if country == "" {
			return
		}
		records = append(records, a.section(doc, country, h.NextUntil(a.heading).Filter("p")))
	})
	return records, nil
}

// section builds the record for one heading and its paragraphs.
func (a *StructuredAdapter) section(doc *crawler.Document, country string, paragraphs *goquery.Selection) model.Record {
	var dateText, who string
	var urls []string

	paragraphs.Each(func(_ int, p *goquery.Selection) {
		text := strings.TrimSpace(p.Text())
		switch {
		case strings.HasPrefix(text, labelDates):
			dateText = text
		case strings.HasPrefix(text, labelWho):
			who = text
		case strings.HasPrefix(text, labelMore):
			urls = appendUnique(urls, citationPattern.FindAllString(text, -1)...)
			urls = appendUnique(urls, doc.Links(p)...)
		}
	})

	r := model.Record{
		DestinationCountry:  country,
		OriginNationalities: model.NationalitiesOrDefault(nationalities(who)),
		SourceURLs:          urls,
		Notes:               who,
		SourceURL:           a.endpoint,
	}
	if n, ok := firstInt(who); ok {
		r.NumberRemoved = model.IntPtr(n)
	}
	if dateText != "" {
		if res := a.normalizer.Parse(dateText); !res.Fallback {
			r.SetDateRange(res.Dates)
		}
	}
	return r
}

// nationalities returns the keywords contained in who, in keyword order.
func nationalities(who string) []string {
	lower := strings.ToLower(who)
	var found []string
	for _, kw := range nationalityKeywords {
		if strings.Contains(lower, strings.ToLower(kw)) {
			found = append(found, kw)
		}
	}
	return found
}
