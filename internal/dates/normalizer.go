package dates

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/araddon/dateparse"

	"github.com/nao1215/removalscan/internal/model"
)

// MaxRangeDays bounds the number of days a single range may expand to.
// Longer ranges are not treated as ranges.
const MaxRangeDays = 366

// Result is the outcome of parsing one date expression.
type Result struct {
	// Dates is ascending, gapless and never empty.
	Dates []model.Date
	// Fallback is true when the text could not be parsed and Dates holds
	// only today's date.
	Fallback bool
}

// Normalizer parses date expressions. It is safe for concurrent use.
type Normalizer struct {
	now func() time.Time
}

// Option configures a Normalizer.
type Option func(*Normalizer)

// WithClock sets the function used to obtain "today".
func WithClock(now func() time.Time) Option {
	return func(n *Normalizer) {
		if now != nil {
			n.now = now
		}
	}
}

// NewNormalizer creates a Normalizer.
func NewNormalizer(opts ...Option) *Normalizer {
	n := &Normalizer{now: time.Now}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// Normalize returns the days described by text.
// Empty or unparseable text yields a single-element list with today's date.
func (n *Normalizer) Normalize(text string) []model.Date {
	return n.Parse(text).Dates
}

var (
	labelPattern     = regexp.MustCompile(`(?i)^\s*date(?:\(s\)|s)?\s*:`)
	sameMonthPattern = regexp.MustCompile(`([A-Za-z]+\.?)\s*(\d+)\s*-\s*(\d+)`)
	monthPrefixes    = []string{"Jan", "Feb", "Mar", "Apr", "May", "Jun", "Jul", "Aug", "Sep", "Oct", "Nov", "Dec"}
)

// Parse returns the days described by text and whether the today fallback
// was used.
func (n *Normalizer) Parse(text string) Result {
	text = strings.TrimSpace(labelPattern.ReplaceAllString(text, ""))
	if text == "" {
		return n.fallback()
	}

	if strings.Contains(text, "-") && strings.Contains(text, ",") {
		if days, ok := n.parseRange(text); ok {
			return Result{Dates: days}
		}
	}

	if d, ok := n.parseSingle(text); ok {
		return Result{Dates: []model.Date{d}}
	}
	return n.fallback()
}

func (n *Normalizer) fallback() Result {
	return Result{Dates: []model.Date{model.DateOf(n.now())}, Fallback: true}
}

// parseRange handles "<days>, <year>" where <days> is either a same-month
// or a cross-month range.
func (n *Normalizer) parseRange(text string) ([]model.Date, bool) {
	cut := strings.LastIndex(text, ",")
	year := strings.TrimSpace(text[cut+1:])
	part := text[:cut]

	if countMonths(part) >= 2 {
		bounds := strings.Split(part, "-")
		if len(bounds) != 2 {
			return nil, false
		}
		start, ok := n.parseSingle(strings.TrimSpace(bounds[0]) + ", " + year)
		if !ok {
			return nil, false
		}
		end, ok := n.parseSingle(strings.TrimSpace(bounds[1]) + ", " + year)
		if !ok {
			return nil, false
		}
		// "Dec. 30-Jan. 2, 2025" spans a year boundary. Any other
		// backwards pair is a reversed range.
		if start.Month == time.December && end.Month == time.January {
			end = model.NewDate(end.Year+1, end.Month, end.Day)
		}
		return expand(start, end)
	}

	m := sameMonthPattern.FindStringSubmatch(part)
	if m == nil {
		return nil, false
	}
	start, ok := n.parseSingle(m[1] + " " + m[2] + ", " + year)
	if !ok {
		return nil, false
	}
	end, ok := n.parseSingle(m[1] + " " + m[3] + ", " + year)
	if !ok {
		return nil, false
	}
	return expand(start, end)
}

// expand enumerates every day from start to end inclusive.
// A reversed range yields the start day alone.
func expand(start, end model.Date) ([]model.Date, bool) {
	if end.Before(start) {
		return []model.Date{start}, true
	}
	span := int(end.Time().Sub(start.Time()).Hours()/24) + 1
	if span > MaxRangeDays {
		return nil, false
	}
	days := make([]model.Date, 0, span)
	for d := start; !d.After(end); d = d.AddDays(1) {
		days = append(days, d)
	}
	return days, true
}

// countMonths counts the distinct month abbreviations that occur in s.
func countMonths(s string) int {
	count := 0
	for _, m := range monthPrefixes {
		if strings.Contains(s, m) {
			count++
		}
	}
	return count
}

var (
	isoPattern       = regexp.MustCompile(`^(\d{4})-(\d{1,2})-(\d{1,2})$`)
	monthDayYear     = regexp.MustCompile(`^([A-Za-z]+)\.?\s*(\d{1,2})(?:st|nd|rd|th)?\s*,?\s+(\d{4})$`)
	dayMonthYear     = regexp.MustCompile(`^(\d{1,2})(?:st|nd|rd|th)?\s+([A-Za-z]+)\.?,?\s+(\d{4})$`)
	monthDayThisYear = regexp.MustCompile(`^([A-Za-z]+)\.?\s*(\d{1,2})(?:st|nd|rd|th)?$`)
)

var monthNames = map[string]time.Month{
	"january": time.January, "jan": time.January,
	"february": time.February, "feb": time.February,
	"march": time.March, "mar": time.March,
	"april": time.April, "apr": time.April,
	"may": time.May,
	"june": time.June, "jun": time.June,
	"july": time.July, "jul": time.July,
	"august": time.August, "aug": time.August,
	"september": time.September, "sep": time.September, "sept": time.September,
	"october": time.October, "oct": time.October,
	"november": time.November, "nov": time.November,
	"december": time.December, "dec": time.December,
}

// parseSingle parses one date.
func (n *Normalizer) parseSingle(text string) (model.Date, bool) {
	s := strings.TrimRight(strings.TrimSpace(text), ".;")
	if s == "" {
		return model.Date{}, false
	}

	if m := isoPattern.FindStringSubmatch(s); m != nil {
		return buildDate(m[1], monthOf(m[2]), m[3])
	}
	if m := monthDayYear.FindStringSubmatch(s); m != nil {
		return buildDate(m[3], monthNames[strings.ToLower(m[1])], m[2])
	}
	if m := dayMonthYear.FindStringSubmatch(s); m != nil {
		return buildDate(m[3], monthNames[strings.ToLower(m[2])], m[1])
	}
	if m := monthDayThisYear.FindStringSubmatch(s); m != nil {
		if month, ok := monthNames[strings.ToLower(m[1])]; ok {
			return buildDate(strconv.Itoa(n.now().Year()), month, m[2])
		}
	}

	return parseLoose(s)
}

// parseLoose hands numeric and other uncommon layouts to dateparse.
func parseLoose(s string) (d model.Date, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			d, ok = model.Date{}, false
		}
	}()
	t, err := dateparse.ParseIn(s, time.UTC)
	if err != nil {
		return model.Date{}, false
	}
	return model.DateOf(t), true
}

func monthOf(s string) time.Month {
	m, err := strconv.Atoi(s)
	if err != nil || m < 1 || m > 12 {
		return 0
	}
	return time.Month(m)
}

// buildDate returns the date only if it exists in the calendar.
func buildDate(year string, month time.Month, day string) (model.Date, bool) {
	if month == 0 {
		return model.Date{}, false
	}
	y, err := strconv.Atoi(year)
	if err != nil {
		return model.Date{}, false
	}
	d, err := strconv.Atoi(day)
	if err != nil {
		return model.Date{}, false
	}
	date := model.NewDate(y, month, d)
	if date.Year != y || date.Month != month || date.Day != d {
		return model.Date{}, false
	}
	return date, true
}
