package extract

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/araddon/dateparse"
)

// DateLayout is the canonical publication date format.
const DateLayout = "2006-01-02"

var isoLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	DateLayout,
}

var monthNames = map[string]int{
	"janvier": 1, "février": 2, "fevrier": 2, "mars": 3, "avril": 4,
	"mai": 5, "juin": 6, "juillet": 7, "août": 8, "aout": 8,
	"septembre": 9, "octobre": 10, "novembre": 11, "décembre": 12, "decembre": 12,
	"january": 1, "february": 2, "march": 3, "april": 4, "may": 5, "june": 6,
	"july": 7, "august": 8, "september": 9, "october": 10, "november": 11, "december": 12,
}

const monthAlternation = `janvier|février|fevrier|mars|avril|mai|juin|juillet|août|aout|septembre|octobre|novembre|décembre|decembre|` +
	`january|february|march|april|may|june|july|august|september|october|november|december`

type datePattern struct {
	re    *regexp.Regexp
	order [3]int // submatch index of day, month, year
}

// Ordered; the first pattern that matches decides.
var datePatterns = []datePattern{
	{re: regexp.MustCompile(`(\d{1,2})/(\d{1,2})/(\d{4})`), order: [3]int{1, 2, 3}},
	{re: regexp.MustCompile(`(\d{1,2})-(\d{1,2})-(\d{4})`), order: [3]int{1, 2, 3}},
	{re: regexp.MustCompile(`(\d{1,2})\.(\d{1,2})\.(\d{4})`), order: [3]int{1, 2, 3}},
	{re: regexp.MustCompile(`(\d{4})-(\d{1,2})-(\d{1,2})`), order: [3]int{3, 2, 1}},
	{re: regexp.MustCompile(`(?i)(\d{1,2})(?:er)?\s+(` + monthAlternation + `)\s+(\d{4})`), order: [3]int{1, 2, 3}},
	{re: regexp.MustCompile(`(?i)(` + monthAlternation + `)\s+(\d{1,2}),?\s+(\d{4})`), order: [3]int{2, 1, 3}},
}

// DateParser finds the publication date of a document by probing an ordered
// list of date-bearing selectors.
type DateParser struct {
	selectors []string
	sink      ProbeSink
	now       func() time.Time
}

// NewDateParser creates a parser over selectors. A nil sink discards probe
// diagnostics.
func NewDateParser(selectors []string, sink ProbeSink) *DateParser {
	if sink == nil {
		sink = nopSink{}
	}
	return &DateParser{
		selectors: selectors,
		sink:      sink,
		now:       time.Now,
	}
}

// WithClock replaces the clock used for the fallback date.
func (p *DateParser) WithClock(now func() time.Time) *DateParser {
	p.now = now
	return p
}

// Parse returns the publication date as YYYY-MM-DD. When no selector yields
// a date it returns today's date and found=false; callers must treat that
// value as unknown rather than verified.
func (p *DateParser) Parse(doc *goquery.Document) (date string, found bool) {
	for _, selector := range p.selectors {
		elem := doc.Find(selector).First()
		if elem.Length() == 0 {
			p.sink.Probe("date", selector, OutcomeMissing, "")
			continue
		}

		// Machine-readable attributes outrank visible text
		for _, attr := range []string{"datetime", "content"} {
			if value, ok := elem.Attr(attr); ok {
				if date, ok := ParseISODate(value); ok {
					p.sink.Probe("date", selector, OutcomeAccepted, date)
					return date, true
				}
			}
		}

		text := strings.TrimSpace(elem.Text())
		if date, ok := ParseDateText(text); ok {
			p.sink.Probe("date", selector, OutcomeAccepted, date)
			return date, true
		}

		// The first structurally present selector decides; later
		// selectors are not consulted.
		p.sink.Probe("date", selector, OutcomeRejected, text)
		break
	}

	return p.now().Format(DateLayout), false
}

// ParseISODate parses an ISO-8601 timestamp or date. A trailing Z is UTC.
func ParseISODate(value string) (string, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return "", false
	}

	for _, layout := range isoLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t.Format(DateLayout), true
		}
	}

	return "", false
}

// ParseDateText looks for a date inside free text, trying the numeric
// patterns first, then month names, then a general-purpose parser.
func ParseDateText(text string) (string, bool) {
	if text == "" {
		return "", false
	}

	for _, pattern := range datePatterns {
		m := pattern.re.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		if date, ok := buildDate(m[pattern.order[0]], m[pattern.order[1]], m[pattern.order[2]]); ok {
			return date, true
		}
	}

	// Only hand text that looks like a date to dateparse; it is permissive
	// with bare numbers.
	if len(text) >= 6 && len(text) <= 40 && strings.ContainsAny(text, "0123456789") {
		if t, err := dateparse.ParseAny(text); err == nil {
			return t.Format(DateLayout), true
		}
	}

	return "", false
}

// buildDate zero-pads and validates day, month and year parts. The month may
// be numeric or a month name.
func buildDate(day, month, year string) (string, bool) {
	d, err := strconv.Atoi(day)
	if err != nil {
		return "", false
	}

	m, err := strconv.Atoi(month)
	if err != nil {
		var ok bool
		m, ok = monthNames[strings.ToLower(month)]
		if !ok {
			return "", false
		}
	}

	y, err := strconv.Atoi(year)
	if err != nil {
		return "", false
	}

	date := fmt.Sprintf("%04d-%02d-%02d", y, m, d)
	// Reject impossible dates such as 31/02
	if _, err := time.Parse(DateLayout, date); err != nil {
		return "", false
	}

	return date, true
}
