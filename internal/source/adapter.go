package source

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/nao1215/removalscan/internal/crawler"
	"github.com/nao1215/removalscan/internal/dates"
	"github.com/nao1215/removalscan/internal/model"
)

// Adapter collects records from one source.
type Adapter interface {
	// Name returns the adapter kind, for logs.
	Name() string
	// Collect fetches the source and returns partial records.
	Collect(ctx context.Context) ([]model.Record, error)
}

// FetchError reports that a source page could not be retrieved.
type FetchError struct {
	Adapter string
	URL     string
	Err     error
}

// Error implements the error interface.
func (e *FetchError) Error() string {
	return fmt.Sprintf("%s: fetching %s: %v", e.Adapter, e.URL, e.Err)
}

// Unwrap returns the underlying error.
func (e *FetchError) Unwrap() error {
	return e.Err
}

// ParseError reports that a page did not have the expected structure.
type ParseError struct {
	Adapter string
	URL     string
	Reason  string
}

// Error implements the error interface.
func (e *ParseError) Error() string {
	return fmt.Sprintf("%s: parsing %s: %s", e.Adapter, e.URL, e.Reason)
}

// settings holds the options shared by all adapters.
type settings struct {
	logger     *slog.Logger
	normalizer *dates.Normalizer
	notes      string
	scope      []string
}

// Option configures an adapter or a registry.
type Option func(*settings)

// WithLogger sets the logger used to report failures.
func WithLogger(logger *slog.Logger) Option {
	return func(s *settings) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithNormalizer sets the date normalizer. All adapters built by one
// registry share the same normalizer.
func WithNormalizer(n *dates.Normalizer) Option {
	return func(s *settings) {
		if n != nil {
			s.normalizer = n
		}
	}
}

// WithNotes sets the notes text written on records. Index and statistics
// adapters use it as a prefix.
func WithNotes(notes string) Option {
	return func(s *settings) {
		s.notes = notes
	}
}

// WithScope limits a pattern adapter to the first element matching one of
// the CSS selectors, tried in order.
func WithScope(selectors ...string) Option {
	return func(s *settings) {
		s.scope = selectors
	}
}

func newSettings(opts []Option) settings {
	s := settings{
		logger:     slog.Default(),
		normalizer: dates.NewNormalizer(),
	}
	for _, opt := range opts {
		opt(&s)
	}
	return s
}

// base carries what every adapter needs to fetch and report.
type base struct {
	kind     string
	fetcher  crawler.Fetcher
	endpoint string
	settings
}

// fetch retrieves and parses the endpoint, logging failures.
func (b *base) fetch(ctx context.Context) (*crawler.Document, error) {
	doc, err := crawler.FetchDocument(ctx, b.fetcher, b.endpoint)
	if err != nil {
		b.logger.Warn("source fetch failed", "adapter", b.kind, "url", b.endpoint, "error", err)
		return nil, &FetchError{Adapter: b.kind, URL: b.endpoint, Err: err}
	}
	return doc, nil
}

// parseFailure logs and returns a ParseError.
func (b *base) parseFailure(reason string) error {
	b.logger.Warn("source structure not found", "adapter", b.kind, "url", b.endpoint, "reason", reason)
	return &ParseError{Adapter: b.kind, URL: b.endpoint, Reason: reason}
}

// newRecord returns a record with the defaults every adapter applies.
func (b *base) newRecord(country string) model.Record {
	return model.Record{
		DestinationCountry:  country,
		OriginNationalities: []string{model.DefaultNationality},
		SourceURLs:          []string{b.endpoint},
		Notes:               b.notes,
		SourceURL:           b.endpoint,
	}
}

var firstIntPattern = regexp.MustCompile(`\d+(?:,\d{3})*`)

// firstInt returns the first integer in s. Thousands separators are
// accepted ("1,200").
func firstInt(s string) (int, bool) {
	m := firstIntPattern.FindString(s)
	if m == "" {
		return 0, false
	}
	n, err := strconv.Atoi(strings.ReplaceAll(m, ",", ""))
	if err != nil {
		return 0, false
	}
	return n, true
}

// truncate shortens s to at most n runes.
func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	return string(runes[:n])
}

// appendUnique appends the values of add not already in list.
func appendUnique(list []string, add ...string) []string {
	for _, v := range add {
		found := false
		for _, existing := range list {
			if existing == v {
				found = true
				break
			}
		}
		if !found {
			list = append(list, v)
		}
	}
	return list
}

// collapseSpace replaces runs of whitespace with single spaces.
func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
