package source

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/nao1215/removalscan/internal/crawler"
	"github.com/nao1215/removalscan/internal/model"
)

// KindPattern is the Name of PatternAdapter.
const KindPattern = "pattern"

// Group names every template must define.
const (
	groupCount = "count"
	groupPlace = "place"
)

// DefaultPatterns are the templates used when a source does not provide
// its own. The place must be a capitalized word; the connecting words
// match in any case.
var DefaultPatterns = []string{
	`(?P<count>\d+)\s+(?i:people|migrants|individuals)\s+(?i:to|sent to)\s+(?P<place>[A-Z][a-z]+)`,
	`(?P<place>[A-Z][a-z]+).*?(?P<count>\d+)\s+(?i:people|migrants|individuals)`,
	`(?i:sent)\s+(?P<count>\d+)\s+(?i:people|migrants|individuals).*?\b(?i:to)\s+(?P<place>[A-Z][a-z]+)`,
}

// ErrInvalidTemplate is returned for a template that does not compile or
// lacks the count or place group.
var ErrInvalidTemplate = errors.New("invalid pattern template")

// Template is a compiled extraction pattern.
type Template struct {
	re    *regexp.Regexp
	count int
	place int
}

// String returns the source expression.
func (t Template) String() string {
	return t.re.String()
}

// ParseTemplates compiles extraction patterns. Each pattern must define
// the named groups "count" and "place", in any order.
func ParseTemplates(exprs ...string) ([]Template, error) {
	templates := make([]Template, 0, len(exprs))
	for _, expr := range exprs {
		re, err := regexp.Compile(expr)
		if err != nil {
			return nil, fmt.Errorf("%w: %q: %v", ErrInvalidTemplate, expr, err)
		}
		count, place := re.SubexpIndex(groupCount), re.SubexpIndex(groupPlace)
		if count < 0 || place < 0 {
			return nil, fmt.Errorf("%w: %q must define (?P<count>...) and (?P<place>...)", ErrInvalidTemplate, expr)
		}
		templates = append(templates, Template{re: re, count: count, place: place})
	}
	return templates, nil
}

// MustParseTemplates is like ParseTemplates but panics on error.
func MustParseTemplates(exprs ...string) []Template {
	t, err := ParseTemplates(exprs...)
	if err != nil {
		panic(err)
	}
	return t
}

// PatternAdapter extracts records from free text with an ordered list of
// templates. Every match of every template yields one record; matches that
// overlap across templates are not suppressed.
type PatternAdapter struct {
	base
	templates []Template
}

// NewPatternAdapter creates a PatternAdapter. With no templates the
// DefaultPatterns are used.
func NewPatternAdapter(fetcher crawler.Fetcher, endpoint string, templates []Template, opts ...Option) *PatternAdapter {
	if len(templates) == 0 {
		templates = MustParseTemplates(DefaultPatterns...)
	}
	return &PatternAdapter{
		base:      base{kind: KindPattern, fetcher: fetcher, endpoint: endpoint, settings: newSettings(opts)},
		templates: templates,
	}
}

// Name implements Adapter.
func (a *PatternAdapter) Name() string {
	return KindPattern
}

// Collect implements Adapter.
func (a *PatternAdapter) Collect(ctx context.Context) ([]model.Record, error) {
	doc, err := a.fetch(ctx)
	if err != nil {
		return nil, err
	}

	text, ok := a.scopeText(doc)
	if !ok {
		return nil, a.parseFailure("no element matches " + strings.Join(a.scope, ", "))
	}
	return a.extract(text), nil
}

// scopeText returns the text of the first scope selector that matches,
// or the whole page without a scope.
func (a *PatternAdapter) scopeText(doc *crawler.Document) (string, bool) {
	if len(a.scope) == 0 {
		return doc.Text(), true
	}
	for _, sel := range a.scope {
		if s := doc.Find(sel).First(); s.Length() > 0 {
			return s.Text(), true
		}
	}
	return "", false
}

func (a *PatternAdapter) extract(text string) []model.Record {
	var records []model.Record
	for _, t := range a.templates {
		for _, m := range t.re.FindAllStringSubmatch(text, -1) {
			n, err := strconv.Atoi(m[t.count])
			if err != nil {
				continue
			}
			place := strings.TrimSpace(m[t.place])
			if place == "" {
				continue
			}
			r := a.newRecord(strings.ToUpper(place))
			r.NumberRemoved = model.IntPtr(n)
			records = append(records, r)
		}
	}
	return records
}
