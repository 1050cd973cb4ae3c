package source

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/nao1215/removalscan/internal/dates"
	"github.com/nao1215/removalscan/internal/model"
)

// pageFetcher serves in-memory pages keyed by URL.
type pageFetcher map[string]string

func (f pageFetcher) Fetch(_ context.Context, url string) ([]byte, error) {
	body, ok := f[url]
	if !ok {
		return nil, errors.New("connection refused")
	}
	return []byte(body), nil
}

func testOptions() []Option {
	return []Option{
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		WithNormalizer(dates.NewNormalizer(dates.WithClock(func() time.Time {
			return time.Date(2025, time.October, 15, 0, 0, 0, 0, time.UTC)
		}))),
	}
}

const testURL = "https://example.com/page"

func mustDate(s string) model.Date {
	d, err := model.ParseDate(s)
	if err != nil {
		panic(err)
	}
	return d
}

// TestStructuredAdapter tests heading/paragraph extraction.
func TestStructuredAdapter(t *testing.T) {
	t.Parallel()

	page := `<html><body>
<h1>Tracking removals</h1>
<h2>ESWATINI</h2>
<p>Date(s): July 15-16, 2025</p>
<p>Who: 5 men from Cuba, Vietnam and Yemen, including Cubans</p>
<p>More: https://news.example.com/eswatini (report) and <a href="/followup">follow-up</a></p>
<h2>South Sudan</h2>
<p>Date(s): unknown</p>
<p>Who: Deportees with Afghan and Russian citizenship</p>
<h2>  Democratic   Republic of the Congo (DRC) </h2>
<p>Who: 4 people</p>
<h2>Co` + "\u0302" + `te d'Ivoire</h2>
<p>Who: 2 people</p>
<h2> </h2>
<p>Who: 3 people</p>
</body></html>`

	a := NewStructuredAdapter(pageFetcher{testURL: page}, testURL, testOptions()...)
	got, err := a.Collect(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []model.Record{
		{
			DestinationCountry:  "ESWATINI",
			Date:                mustDate("2025-07-15"),
			DateRangeEnd:        mustDate("2025-07-16"),
			NumberRemoved:       model.IntPtr(5),
			OriginNationalities: []string{"Cuban"},
			SourceURLs:          []string{"https://news.example.com/eswatini", "https://example.com/followup"},
			Notes:               "Who: 5 men from Cuba, Vietnam and Yemen, including Cubans",
			SourceURL:           testURL,
		},
		{
			DestinationCountry:  "South Sudan",
			OriginNationalities: []string{"Russian", "Afghan"},
			Notes:               "Who: Deportees with Afghan and Russian citizenship",
			SourceURL:           testURL,
		},
		{
			DestinationCountry:  "Democratic Republic of the Congo (DRC)",
			NumberRemoved:       model.IntPtr(4),
			OriginNationalities: []string{model.DefaultNationality},
			Notes:               "Who: 4 people",
			SourceURL:           testURL,
		},
		{
			DestinationCountry:  "C\u00f4te d'Ivoire",
			NumberRemoved:       model.IntPtr(2),
			OriginNationalities: []string{model.DefaultNationality},
			Notes:               "Who: 2 people",
			SourceURL:           testURL,
		},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("records mismatch (-want +got):\n%s", diff)
	}
}

// TestStructuredAdapterNoSections tests a page without headings.
func TestStructuredAdapterNoSections(t *testing.T) {
	t.Parallel()

	a := NewStructuredAdapter(pageFetcher{testURL: "<p>redesigned</p>"}, testURL, testOptions()...)
	records, err := a.Collect(context.Background())
	var parseErr *ParseError
	if !errors.As(err, &parseErr) {
		t.Fatalf("expected ParseError, got %v", err)
	}
	if records != nil {
		t.Errorf("expected no records, got %v", records)
	}
}

// TestAdapterFetchFailure tests that fetch failures are typed and yield nothing.
func TestAdapterFetchFailure(t *testing.T) {
	t.Parallel()

	adapters := []Adapter{
		NewStructuredAdapter(pageFetcher{}, testURL, testOptions()...),
		NewPatternAdapter(pageFetcher{}, testURL, nil, testOptions()...),
		NewTableAdapter(pageFetcher{}, testURL, testOptions()...),
		NewIndexAdapter(pageFetcher{}, testURL, testOptions()...),
		NewStatisticsAdapter(pageFetcher{}, testURL, testOptions()...),
	}
	for _, a := range adapters {
		t.Run(a.Name(), func(t *testing.T) {
			t.Parallel()
			records, err := a.Collect(context.Background())
			var fetchErr *FetchError
			if !errors.As(err, &fetchErr) {
				t.Fatalf("expected FetchError, got %v", err)
			}
			if fetchErr.URL != testURL || fetchErr.Adapter != a.Name() {
				t.Errorf("unexpected error fields %+v", fetchErr)
			}
			if len(records) != 0 {
				t.Errorf("expected no records, got %d", len(records))
			}
		})
	}
}

// TestPatternAdapter tests template extraction from prose.
func TestPatternAdapter(t *testing.T) {
	t.Parallel()

	page := `<html><body><nav>Menu</nav>
<article>The administration sent 200 people to Costa Rica in February. Officials confirmed 14 migrants to Ghana.</article>
</body></html>`

	a := NewPatternAdapter(pageFetcher{testURL: page}, testURL, nil,
		append(testOptions(), WithScope("article", "div.entry-content"), WithNotes("Extracted from article"))...)
	got, err := a.Collect(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var summary []string
	for _, r := range got {
		summary = append(summary, r.DestinationCountry+"="+itoa(r.NumberRemoved))
		if r.Notes != "Extracted from article" {
			t.Errorf("unexpected notes %q", r.Notes)
		}
		if diff := cmp.Diff([]string{testURL}, r.SourceURLs); diff != "" {
			t.Errorf("source urls mismatch (-want +got):\n%s", diff)
		}
	}

	// Templates run in order and overlapping matches are kept, including
	// the noisy ones from the loose second template.
	want := []string{"COSTA=200", "GHANA=14", "THE=200", "COSTA=14", "COSTA=200"}
	if diff := cmp.Diff(want, summary); diff != "" {
		t.Errorf("matches mismatch (-want +got):\n%s", diff)
	}
}

// TestPatternAdapterScopeMissing tests a scoped page without the scope element.
func TestPatternAdapterScopeMissing(t *testing.T) {
	t.Parallel()

	a := NewPatternAdapter(pageFetcher{testURL: "<div>14 people to Ghana</div>"}, testURL, nil,
		append(testOptions(), WithScope("article"))...)
	_, err := a.Collect(context.Background())
	var parseErr *ParseError
	if !errors.As(err, &parseErr) {
		t.Errorf("expected ParseError, got %v", err)
	}
}

// TestParseTemplates tests template compilation.
func TestParseTemplates(t *testing.T) {
	t.Parallel()

	t.Run("defaults compile", func(t *testing.T) {
		t.Parallel()
		templates, err := ParseTemplates(DefaultPatterns...)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(templates) != len(DefaultPatterns) {
			t.Errorf("got %d templates, expected %d", len(templates), len(DefaultPatterns))
		}
	})

	t.Run("place before count", func(t *testing.T) {
		t.Parallel()
		templates := MustParseTemplates(`(?P<place>[A-Z][a-z]+) received (?P<count>\d+)`)
		a := NewPatternAdapter(nil, testURL, templates, testOptions()...)
		got := a.extract("Uganda received 7 deportees")
		if len(got) != 1 || got[0].DestinationCountry != "UGANDA" || *got[0].NumberRemoved != 7 {
			t.Errorf("unexpected records %+v", got)
		}
	})

	t.Run("missing group is rejected", func(t *testing.T) {
		t.Parallel()
		_, err := ParseTemplates(`(?P<count>\d+) people`)
		if !errors.Is(err, ErrInvalidTemplate) {
			t.Errorf("expected ErrInvalidTemplate, got %v", err)
		}
	})

	t.Run("invalid expression is rejected", func(t *testing.T) {
		t.Parallel()
		_, err := ParseTemplates(`(?P<count>\d+`)
		if !errors.Is(err, ErrInvalidTemplate) {
			t.Errorf("expected ErrInvalidTemplate, got %v", err)
		}
	})
}

// TestTableAdapter tests "Label: Number" cell extraction.
func TestTableAdapter(t *testing.T) {
	t.Parallel()

	page := `<table>
<tr><th>Destination</th><th>Count</th><th>Notes</th></tr>
<tr><td>Mexico: 1,200</td><td>FY2025</td><td>Ratio: 3:1</td></tr>
<tr><td>Guatemala: 40</td><td>Honduras: n/a</td></tr>
<tr><td>El Salvador: 88 people</td><td>x</td><td>: 5</td></tr>
</table>`

	a := NewTableAdapter(pageFetcher{testURL: page}, testURL, append(testOptions(), WithNotes("From table"))...)
	got, err := a.Collect(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []model.Record{
		{
			DestinationCountry:  "MEXICO",
			NumberRemoved:       model.IntPtr(1200),
			OriginNationalities: []string{"Various"},
			SourceURLs:          []string{testURL},
			Notes:               "From table",
			SourceURL:           testURL,
		},
		{
			DestinationCountry:  "EL SALVADOR",
			NumberRemoved:       model.IntPtr(88),
			OriginNationalities: []string{"Various"},
			SourceURLs:          []string{testURL},
			Notes:               "From table",
			SourceURL:           testURL,
		},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("records mismatch (-want +got):\n%s", diff)
	}
}

// TestTableAdapterNoTables tests a page without tables.
func TestTableAdapterNoTables(t *testing.T) {
	t.Parallel()

	a := NewTableAdapter(pageFetcher{testURL: "<p>Mexico: 12</p>"}, testURL, testOptions()...)
	_, err := a.Collect(context.Background())
	var parseErr *ParseError
	if !errors.As(err, &parseErr) {
		t.Errorf("expected ParseError, got %v", err)
	}
}

// TestIndexAdapter tests the metadata-only summary record.
func TestIndexAdapter(t *testing.T) {
	t.Parallel()

	var b strings.Builder
	b.WriteString(`<html><body><a href="/about">About</a>`)
	for _, href := range []string{
		"/data/monthly-2025-01.xlsx", "/data/monthly-2025-02.xlsx", "tables/2025-03",
		"/data/Monthly-2025-04.xlsx", "/data/monthly-2025-05.xlsx", "/data/monthly-2025-06.xlsx",
		"/data/monthly-2025-01.xlsx",
	} {
		b.WriteString(`<a href="` + href + `">report</a>`)
	}
	b.WriteString(`</body></html>`)

	a := NewIndexAdapter(pageFetcher{testURL: b.String()}, testURL, append(testOptions(), WithNotes("Monthly reports available"))...)
	got, err := a.Collect(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected 1 record, got %d", len(got))
	}

	r := got[0]
	if r.DestinationCountry != model.MultipleDestinations {
		t.Errorf("got country %q, expected MULTIPLE", r.DestinationCountry)
	}
	if r.NumberRemoved != nil {
		t.Errorf("expected unknown count, got %d", *r.NumberRemoved)
	}
	if r.Notes != "Monthly reports available: 6 reports found" {
		t.Errorf("unexpected notes %q", r.Notes)
	}
	wantURLs := []string{
		"https://example.com/data/monthly-2025-01.xlsx",
		"https://example.com/data/monthly-2025-02.xlsx",
		"https://example.com/tables/2025-03",
		"https://example.com/data/Monthly-2025-04.xlsx",
		"https://example.com/data/monthly-2025-05.xlsx",
	}
	if diff := cmp.Diff(wantURLs, r.SourceURLs); diff != "" {
		t.Errorf("source urls mismatch (-want +got):\n%s", diff)
	}
}

// TestIndexAdapterNoLinks tests an index page without report links.
func TestIndexAdapterNoLinks(t *testing.T) {
	t.Parallel()

	a := NewIndexAdapter(pageFetcher{testURL: `<a href="/about">About</a>`}, testURL, testOptions()...)
	records, err := a.Collect(context.Background())
	var parseErr *ParseError
	if !errors.As(err, &parseErr) {
		t.Errorf("expected ParseError, got %v", err)
	}
	if len(records) != 0 {
		t.Errorf("expected no records, got %d", len(records))
	}
}

// TestStatisticsAdapter tests number extraction from statistics blocks.
func TestStatisticsAdapter(t *testing.T) {
	t.Parallel()

	long := strings.Repeat("a", 250)
	page := `<html><body>
<div class="stat-card">Removals in FY2024: 271,484 total, 9 charter flights</div>
<section class="data-panel">Arrests: 113,431</section>
<div class="numbers">Third country removals: 42 ` + long + `</div>
<div class="footer">Deportations 500</div>
</body></html>`

	a := NewStatisticsAdapter(pageFetcher{testURL: page}, testURL, append(testOptions(), WithNotes("ICE statistics"))...)
	got, err := a.Collect(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var counts []int
	for _, r := range got {
		counts = append(counts, *r.NumberRemoved)
		if r.DestinationCountry != model.MultipleDestinations {
			t.Errorf("unexpected country %q", r.DestinationCountry)
		}
		if !strings.HasPrefix(r.Notes, "ICE statistics: ") || !strings.HasSuffix(r.Notes, "...") {
			t.Errorf("unexpected notes %q", r.Notes)
		}
		if len([]rune(r.Notes)) > len("ICE statistics: ")+statisticsNotesLen+len("...") {
			t.Errorf("notes too long: %d runes", len([]rune(r.Notes)))
		}
	}
	if diff := cmp.Diff([]int{2024, 271484, 42}, counts); diff != "" {
		t.Errorf("counts mismatch (-want +got):\n%s", diff)
	}
}

// TestStatisticsAdapterNoBlocks tests a page without statistics blocks.
func TestStatisticsAdapterNoBlocks(t *testing.T) {
	t.Parallel()

	a := NewStatisticsAdapter(pageFetcher{testURL: `<div class="footer">Removals: 500</div>`}, testURL, testOptions()...)
	_, err := a.Collect(context.Background())
	var parseErr *ParseError
	if !errors.As(err, &parseErr) {
		t.Errorf("expected ParseError, got %v", err)
	}
}

func itoa(n *int) string {
	if n == nil {
		return "nil"
	}
	return strconv.Itoa(*n)
}
