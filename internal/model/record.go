package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"time"
)

// DefaultNationality is used when a source does not name the origin
// nationalities of the people removed.
const DefaultNationality = "Various"

// MultipleDestinations is the destination used by aggregate records that
// are not attributable to a single country.
const MultipleDestinations = "MULTIPLE"

// Record is one reported removal action.
//
// Records produced by an adapter are partial: DataSource and ScrapedAt are
// stamped later by the orchestrator. Fields that are not part of the
// canonical schema (for example "agency" or "ongoing" on hand-curated
// entries) are kept in Extra and written back unchanged.
//
// A stored entry that does not fit the schema (a text count, a partial
// date, a string where a list belongs) still decodes: the fields that do
// fit are filled in and the entry is kept verbatim in Raw. The validate
// package reports such entries.
//
// A nil list and an empty list are both written as []. Decoding [] gives
// an empty list, decoding null or a missing field gives nil.
type Record struct {
	// DestinationCountry is the country people were sent to.
	// Machine-derived names are uppercase, curated names are title case.
	DestinationCountry string
	// Date is the first day of the event. The zero value means unknown.
	Date Date
	// DateRangeEnd is the last day of a multi-day event.
	// It is zero unless it differs from Date.
	DateRangeEnd Date
	// NumberRemoved is the number of people removed, nil when unknown.
	NumberRemoved *int
	// OriginNationalities lists the nationalities of the people removed.
	OriginNationalities []string
	// SourceURLs are supporting citation links.
	SourceURLs []string
	// Notes is free text. It never takes part in identity.
	Notes string
	// DataSource is the name of the source that produced the record.
	DataSource string
	// SourceURL is the page that was fetched.
	SourceURL string
	// ScrapedAt is the extraction time.
	ScrapedAt time.Time
	// Extra holds fields outside the canonical schema, keyed by JSON name.
	Extra map[string]json.RawMessage
	// Raw is the original JSON of an entry that did not decode cleanly.
	// When set, MarshalJSON writes it back instead of the fields above.
	Raw json.RawMessage
}

// IdentityKey identifies a Record for deduplication.
//
// Two records with the same key are treated as the same fact observed twice.
// The key is intentionally coarse: the same event reported under two
// spellings of a country is not detected as a duplicate, and no fuzzy
// matching is attempted.
type IdentityKey struct {
	Country string
	Date    Date
	Source  string
}

// String returns a compact representation for logs.
func (k IdentityKey) String() string {
	return fmt.Sprintf("%s/%s/%s", k.Country, k.Date, k.Source)
}

// Key returns the identity key of the record.
func (r Record) Key() IdentityKey {
	return IdentityKey{
		Country: r.DestinationCountry,
		Date:    r.Date,
		Source:  r.DataSource,
	}
}

// Malformed reports whether the record was read from an entry that does
// not fit the schema.
func (r Record) Malformed() bool {
	return len(r.Raw) > 0
}

// SetDateRange sets Date and DateRangeEnd from an ascending list of days.
// DateRangeEnd is only set when the range spans more than one day.
// An empty list clears both fields.
func (r *Record) SetDateRange(days []Date) {
	r.Date = Date{}
	r.DateRangeEnd = Date{}
	if len(days) == 0 {
		return
	}
	r.Date = days[0]
	if last := days[len(days)-1]; last != days[0] {
		r.DateRangeEnd = last
	}
}

// Stamp fills in the provenance fields.
func (r *Record) Stamp(source string, at time.Time) {
	r.DataSource = source
	r.ScrapedAt = at.UTC()
}

// IntPtr returns a pointer to n. It is a convenience for NumberRemoved.
func IntPtr(n int) *int {
	return &n
}

// NationalitiesOrDefault returns names, or the default nationality list if
// names is empty.
func NationalitiesOrDefault(names []string) []string {
	if len(names) == 0 {
		return []string{DefaultNationality}
	}
	return names
}

// recordJSON is the wire form of Record.
type recordJSON struct {
	DestinationCountry  string   `json:"destination_country"`
	Date                Date     `json:"date"`
	DateRangeEnd        Date     `json:"date_range_end"`
	NumberRemoved       *int     `json:"number_removed"`
	OriginNationalities []string `json:"origin_nationalities"`
	SourceURLs          []string `json:"source_urls"`
	Notes               string   `json:"notes"`
	DataSource          string   `json:"data_source,omitempty"`
	SourceURL           string   `json:"source_url,omitempty"`
	ScrapedAt           *string  `json:"scraped_at,omitempty"`
}

var knownFields = map[string]struct{}{
	"destination_country":  {},
	"date":                 {},
	"date_range_end":       {},
	"number_removed":       {},
	"origin_nationalities": {},
	"source_urls":          {},
	"notes":                {},
	"data_source":          {},
	"source_url":           {},
	"scraped_at":           {},
}

// timestampLayouts are accepted for scraped_at. Timestamps without a zone
// are read as UTC.
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
}

// MarshalJSON implements json.Marshaler.
func (r Record) MarshalJSON() ([]byte, error) {
	if r.Malformed() {
		return r.Raw, nil
	}
	w := recordJSON{
		DestinationCountry:  r.DestinationCountry,
		Date:                r.Date,
		DateRangeEnd:        r.DateRangeEnd,
		NumberRemoved:       r.NumberRemoved,
		OriginNationalities: r.OriginNationalities,
		SourceURLs:          r.SourceURLs,
		Notes:               r.Notes,
		DataSource:          r.DataSource,
		SourceURL:           r.SourceURL,
	}
	if w.OriginNationalities == nil {
		w.OriginNationalities = []string{}
	}
	if w.SourceURLs == nil {
		w.SourceURLs = []string{}
	}
	if !r.ScrapedAt.IsZero() {
		s := r.ScrapedAt.UTC().Format(time.RFC3339Nano)
		w.ScrapedAt = &s
	}

	data, err := json.Marshal(w)
	if err != nil {
		return nil, err
	}
	if len(r.Extra) == 0 {
		return data, nil
	}

	keys := make([]string, 0, len(r.Extra))
	for k := range r.Extra {
		if _, known := knownFields[k]; known {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var buf bytes.Buffer
	buf.Write(data[:len(data)-1])
	for _, k := range keys {
		name, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		buf.WriteByte(',')
		buf.Write(name)
		buf.WriteByte(':')
		buf.Write(r.Extra[k])
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON implements json.Unmarshaler.
// It never fails on valid JSON; see Record for how misfit entries are kept.
func (r *Record) UnmarshalJSON(data []byte) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil || fields == nil {
		*r = Record{Raw: cloneRaw(data)}
		return nil
	}

	var (
		rec       Record
		scrapedAt *string
	)
	ok := decodeField(fields, "destination_country", &rec.DestinationCountry)
	ok = decodeField(fields, "date", &rec.Date) && ok
	ok = decodeField(fields, "date_range_end", &rec.DateRangeEnd) && ok
	ok = decodeField(fields, "number_removed", &rec.NumberRemoved) && ok
	ok = decodeField(fields, "origin_nationalities", &rec.OriginNationalities) && ok
	ok = decodeField(fields, "source_urls", &rec.SourceURLs) && ok
	ok = decodeField(fields, "notes", &rec.Notes) && ok
	ok = decodeField(fields, "data_source", &rec.DataSource) && ok
	ok = decodeField(fields, "source_url", &rec.SourceURL) && ok
	ok = decodeField(fields, "scraped_at", &scrapedAt) && ok

	if scrapedAt != nil && *scrapedAt != "" {
		t, err := parseTimestamp(*scrapedAt)
		if err != nil {
			ok = false
		} else {
			rec.ScrapedAt = t
		}
	}

	for k, v := range fields {
		if _, known := knownFields[k]; known {
			continue
		}
		if rec.Extra == nil {
			rec.Extra = make(map[string]json.RawMessage)
		}
		rec.Extra[k] = v
	}

	if !ok {
		rec.Raw = cloneRaw(data)
	}
	*r = rec
	return nil
}

// decodeField decodes fields[name] into dst. A missing field leaves dst
// untouched; a field of the wrong shape leaves dst untouched and returns
// false.
func decodeField[T any](fields map[string]json.RawMessage, name string, dst *T) bool {
	raw, present := fields[name]
	if !present {
		return true
	}
	var v T
	if err := json.Unmarshal(raw, &v); err != nil {
		return false
	}
	*dst = v
	return true
}

func cloneRaw(data []byte) json.RawMessage {
	return append(json.RawMessage(nil), data...)
}

func parseTimestamp(s string) (time.Time, error) {
	for _, layout := range timestampLayouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid scraped_at timestamp %q", s)
}
