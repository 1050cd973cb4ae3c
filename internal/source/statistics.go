package source

import (
	"context"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/nao1215/removalscan/internal/crawler"
	"github.com/nao1215/removalscan/internal/model"
)

// KindStatistics is the Name of StatisticsAdapter.
const KindStatistics = "statistics"

// Statistics extraction limits.
const (
	// minStatistic drops small numbers that are unlikely to be counts.
	minStatistic = 10
	// statisticsNotesLen is the number of block text runes kept in notes.
	statisticsNotesLen = 200
)

var (
	statisticsClass   = regexp.MustCompile(`stat|data|number`)
	removalKeywords   = regexp.MustCompile(`deport|remov|third.country`)
	groupedNumberExpr = regexp.MustCompile(`\d+(?:,\d+)*`)
)

// StatisticsAdapter reads numbers from statistics blocks that mention
// removals. Each qualifying number becomes one record for MULTIPLE
// destinations.
type StatisticsAdapter struct {
	base
}

// NewStatisticsAdapter creates a StatisticsAdapter. The notes option sets
// the prefix of the notes text.
func NewStatisticsAdapter(fetcher crawler.Fetcher, endpoint string, opts ...Option) *StatisticsAdapter {
	a := &StatisticsAdapter{
		base: base{kind: KindStatistics, fetcher: fetcher, endpoint: endpoint, settings: newSettings(opts)},
	}
	if a.notes == "" {
		a.notes = "Statistics"
	}
	return a
}

// Name implements Adapter.
func (a *StatisticsAdapter) Name() string {
	return KindStatistics
}

// Collect implements Adapter.
func (a *StatisticsAdapter) Collect(ctx context.Context) ([]model.Record, error) {
	doc, err := a.fetch(ctx)
	if err != nil {
		return nil, err
	}

	blocks := doc.Find("div[class], section[class]").FilterFunction(func(_ int, s *goquery.Selection) bool {
		class, _ := s.Attr("class")
		return statisticsClass.MatchString(class)
	})
	if blocks.Length() == 0 {
		return nil, a.parseFailure("no statistics blocks")
	}

	var records []model.Record
	blocks.Each(func(_ int, s *goquery.Selection) {
		text := s.Text()
		if !removalKeywords.MatchString(strings.ToLower(text)) {
			return
		}
		notes := a.notes + ": " + truncate(text, statisticsNotesLen) + "..."
		for _, num := range groupedNumberExpr.FindAllString(text, -1) {
			n, err := strconv.Atoi(strings.ReplaceAll(num, ",", ""))
			if err != nil || n <= minStatistic {
				continue
			}
			r := a.newRecord(model.MultipleDestinations)
			r.NumberRemoved = model.IntPtr(n)
			r.Notes = notes
			records = append(records, r)
		}
	})
	return records, nil
}
